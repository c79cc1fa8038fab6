package importer

import (
	"context"
	"fmt"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

// BatchResult counts what happened to one batch.
type BatchResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Written is the number of records that reached the destination table.
func (r BatchResult) Written() int {
	return r.Inserted + r.Updated
}

// BatchWriter deduplicates one batch of mapped records and persists it.
type BatchWriter interface {
	WriteBatch(ctx context.Context, job domain.ImportJob, records []domain.Record) (BatchResult, error)
}

func WriterFor(importType domain.ImportType, store domain.RecordStore) (BatchWriter, error) {
	switch importType {
	case domain.TypeContacts:
		return contactWriter{store: store}, nil
	case domain.TypeRepository:
		return repositoryWriter{store: store}, nil
	case domain.TypeInventory:
		return inventoryWriter{store: store}, nil
	case domain.TypeEmailRecipients:
		return emailRecipientWriter{store: store}, nil
	case domain.TypeWhatsAppRecipients:
		return whatsAppRecipientWriter{store: store}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidImportType, importType)
	}
}

func recordsAs[T domain.Record](records []domain.Record) ([]T, error) {
	typed := make([]T, 0, len(records))
	for _, record := range records {
		r, ok := record.(T)
		if !ok {
			return nil, fmt.Errorf("unexpected %T in %T batch", record, *new(T))
		}
		typed = append(typed, r)
	}
	return typed, nil
}

func toBatchResult(written domain.WriteResult, skipped int) BatchResult {
	return BatchResult{Inserted: written.Inserted, Updated: written.Updated, Skipped: skipped}
}

type contactWriter struct {
	store domain.RecordStore
}

func (w contactWriter) WriteBatch(ctx context.Context, job domain.ImportJob, records []domain.Record) (BatchResult, error) {
	contacts, err := recordsAs[domain.Contact](records)
	if err != nil {
		return BatchResult{}, err
	}
	contacts, skipped := dedupeLastWins(contacts, contactKey)

	written, err := w.store.UpsertContacts(ctx, job.OrganizationID, contacts)
	if err != nil {
		return BatchResult{}, fmt.Errorf("upsert contacts: %w", err)
	}
	return toBatchResult(written, skipped), nil
}

type emailRecipientWriter struct {
	store domain.RecordStore
}

func (w emailRecipientWriter) WriteBatch(ctx context.Context, job domain.ImportJob, records []domain.Record) (BatchResult, error) {
	recipients, err := recordsAs[domain.EmailRecipient](records)
	if err != nil {
		return BatchResult{}, err
	}
	recipients, skipped := dedupeLastWins(recipients, emailRecipientKey)

	written, err := w.store.UpsertEmailRecipients(ctx, job.TargetID, recipients)
	if err != nil {
		return BatchResult{}, fmt.Errorf("upsert email recipients: %w", err)
	}
	return toBatchResult(written, skipped), nil
}

type whatsAppRecipientWriter struct {
	store domain.RecordStore
}

func (w whatsAppRecipientWriter) WriteBatch(ctx context.Context, job domain.ImportJob, records []domain.Record) (BatchResult, error) {
	recipients, err := recordsAs[domain.WhatsAppRecipient](records)
	if err != nil {
		return BatchResult{}, err
	}
	recipients, skipped := dedupeLastWins(recipients, whatsAppRecipientKey)

	written, err := w.store.UpsertWhatsAppRecipients(ctx, job.TargetID, recipients)
	if err != nil {
		return BatchResult{}, fmt.Errorf("upsert whatsapp recipients: %w", err)
	}
	return toBatchResult(written, skipped), nil
}

type inventoryWriter struct {
	store domain.RecordStore
}

// WriteBatch upserts on (organization, sku) and tags every row with the job id
// so a later rollback can find it.
func (w inventoryWriter) WriteBatch(ctx context.Context, job domain.ImportJob, records []domain.Record) (BatchResult, error) {
	items, err := recordsAs[domain.InventoryItem](records)
	if err != nil {
		return BatchResult{}, err
	}
	items, skipped := dedupeLastWins(items, inventoryKey)

	written, err := w.store.UpsertInventoryItems(ctx, job.OrganizationID, job.ID, items)
	if err != nil {
		return BatchResult{}, fmt.Errorf("upsert inventory items: %w", err)
	}
	return toBatchResult(written, skipped), nil
}

type repositoryWriter struct {
	store domain.RecordStore
}

// WriteBatch never overwrites: records colliding with the batch or with rows
// already stored for the tenant are dropped before a plain insert.
func (w repositoryWriter) WriteBatch(ctx context.Context, job domain.ImportJob, records []domain.Record) (BatchResult, error) {
	batch, err := recordsAs[domain.RepositoryRecord](records)
	if err != nil {
		return BatchResult{}, err
	}

	emails := make([]string, 0, len(batch))
	institutional := make([]string, 0, len(batch))
	for _, record := range batch {
		if e := normalizeEmail(record.Email); e != "" {
			emails = append(emails, e)
		}
		if e := normalizeEmail(record.InstitutionalEmail); e != "" {
			institutional = append(institutional, e)
		}
	}

	existing, err := w.store.ExistingRepositoryKeys(ctx, job.OrganizationID, emails, institutional)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load existing repository keys: %w", err)
	}

	kept, skipped := dedupeRepository(batch, existing)
	if len(kept) == 0 {
		return BatchResult{Skipped: skipped}, nil
	}

	written, err := w.store.InsertRepositoryRecords(ctx, job.OrganizationID, kept)
	if err != nil {
		return BatchResult{}, fmt.Errorf("insert repository records: %w", err)
	}
	return toBatchResult(written, skipped), nil
}
