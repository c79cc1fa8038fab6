package importer

import domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"

// dedupeLastWins collapses items sharing a key into the last occurrence,
// keeping the position of the first. Items with an empty key are kept as is.
func dedupeLastWins[T any](items []T, key func(T) string) ([]T, int) {
	kept := make([]T, 0, len(items))
	index := make(map[string]int, len(items))
	dropped := 0

	for _, item := range items {
		k := key(item)
		if k == "" {
			kept = append(kept, item)
			continue
		}
		if i, ok := index[k]; ok {
			kept[i] = item
			dropped++
			continue
		}
		index[k] = len(kept)
		kept = append(kept, item)
	}
	return kept, dropped
}

// dedupeRepository drops records whose email or institutional email was
// already seen, either earlier in the batch or in existing rows. The first
// occurrence wins.
func dedupeRepository(records []domain.RepositoryRecord, existing domain.ExistingKeys) ([]domain.RepositoryRecord, int) {
	seenEmails := make(map[string]struct{}, len(existing.Emails)+len(records))
	for k := range existing.Emails {
		seenEmails[k] = struct{}{}
	}
	seenInstitutional := make(map[string]struct{}, len(existing.InstitutionalEmails)+len(records))
	for k := range existing.InstitutionalEmails {
		seenInstitutional[k] = struct{}{}
	}

	kept := make([]domain.RepositoryRecord, 0, len(records))
	dropped := 0
	for _, record := range records {
		email := normalizeEmail(record.Email)
		institutional := normalizeEmail(record.InstitutionalEmail)

		if _, dup := seenEmails[email]; email != "" && dup {
			dropped++
			continue
		}
		if _, dup := seenInstitutional[institutional]; institutional != "" && dup {
			dropped++
			continue
		}

		if email != "" {
			seenEmails[email] = struct{}{}
		}
		if institutional != "" {
			seenInstitutional[institutional] = struct{}{}
		}
		kept = append(kept, record)
	}
	return kept, dropped
}

func contactKey(c domain.Contact) string { return normalizeEmail(c.Email) }
func emailRecipientKey(r domain.EmailRecipient) string { return normalizeEmail(r.Email) }
func whatsAppRecipientKey(r domain.WhatsAppRecipient) string { return r.PhoneNumber }
func inventoryKey(i domain.InventoryItem) string { return i.SKU }
