package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

var _ domain.RecordStore = (*RecordStore)(nil)

// RecordStore writes mapped CSV records into the destination tables. Upserts
// COPY the batch into a transaction-scoped staging table and merge it with a
// single INSERT ... ON CONFLICT statement.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

type stagedUpsert struct {
	name    string
	staging string
	columns []string
	create  string
	merge   string
	rows    [][]any
}

func (s *RecordStore) UpsertContacts(ctx context.Context, organizationID string, contacts []domain.Contact) (domain.WriteResult, error) {
	rows := make([][]any, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []any{
			c.FirstName, nullableText(c.LastName), nullableText(c.Email), nullableText(c.Phone),
			nullableText(c.Company), nullableText(c.JobTitle), nullableText(c.Address), nullableText(c.City),
			nullableText(c.State), nullableText(c.PostalCode), nullableText(c.Country), nullableText(c.Source),
			nullableText(c.Notes),
		})
	}

	return s.upsert(ctx, stagedUpsert{
		name:    "contacts",
		staging: "stg_contacts",
		columns: []string{"first_name", "last_name", "email", "phone", "company", "job_title", "address", "city", "state", "postal_code", "country", "source", "notes"},
		create: `
CREATE TEMP TABLE stg_contacts (
    first_name TEXT, last_name TEXT, email TEXT, phone TEXT, company TEXT, job_title TEXT,
    address TEXT, city TEXT, state TEXT, postal_code TEXT, country TEXT, source TEXT, notes TEXT
) ON COMMIT DROP`,
		merge: `
WITH upserted AS (
    INSERT INTO contacts (organization_id, first_name, last_name, email, phone, company, job_title,
                          address, city, state, postal_code, country, source, notes, created_at, updated_at)
    SELECT $1::uuid, first_name, last_name, email, phone, company, job_title,
           address, city, state, postal_code, country, source, notes, NOW(), NOW()
    FROM stg_contacts
    ON CONFLICT (organization_id, email) DO UPDATE
      SET first_name = EXCLUDED.first_name,
          last_name = EXCLUDED.last_name,
          phone = EXCLUDED.phone,
          company = EXCLUDED.company,
          job_title = EXCLUDED.job_title,
          address = EXCLUDED.address,
          city = EXCLUDED.city,
          state = EXCLUDED.state,
          postal_code = EXCLUDED.postal_code,
          country = EXCLUDED.country,
          source = EXCLUDED.source,
          notes = EXCLUDED.notes,
          updated_at = NOW()
    RETURNING (xmax = 0) AS inserted
)
SELECT inserted FROM upserted
`,
		rows: rows,
	}, organizationID)
}

func (s *RecordStore) UpsertEmailRecipients(ctx context.Context, campaignID string, recipients []domain.EmailRecipient) (domain.WriteResult, error) {
	rows := make([][]any, 0, len(recipients))
	for _, r := range recipients {
		rows = append(rows, []any{r.Email, nullableText(r.Name), nullableText(r.FirstName), nullableText(r.LastName), nullableText(r.Company)})
	}

	return s.upsert(ctx, stagedUpsert{
		name:    "email campaign recipients",
		staging: "stg_email_recipients",
		columns: []string{"email", "name", "first_name", "last_name", "company"},
		create: `
CREATE TEMP TABLE stg_email_recipients (
    email TEXT, name TEXT, first_name TEXT, last_name TEXT, company TEXT
) ON COMMIT DROP`,
		merge: `
WITH upserted AS (
    INSERT INTO email_campaign_recipients (campaign_id, email, name, first_name, last_name, company, created_at, updated_at)
    SELECT $1::uuid, email, name, first_name, last_name, company, NOW(), NOW()
    FROM stg_email_recipients
    ON CONFLICT (campaign_id, email) DO UPDATE
      SET name = EXCLUDED.name,
          first_name = EXCLUDED.first_name,
          last_name = EXCLUDED.last_name,
          company = EXCLUDED.company,
          updated_at = NOW()
    RETURNING (xmax = 0) AS inserted
)
SELECT inserted FROM upserted
`,
		rows: rows,
	}, campaignID)
}

func (s *RecordStore) UpsertWhatsAppRecipients(ctx context.Context, campaignID string, recipients []domain.WhatsAppRecipient) (domain.WriteResult, error) {
	rows := make([][]any, 0, len(recipients))
	for _, r := range recipients {
		rows = append(rows, []any{r.PhoneNumber, nullableText(r.Email), nullableText(r.Name)})
	}

	return s.upsert(ctx, stagedUpsert{
		name:    "whatsapp campaign recipients",
		staging: "stg_whatsapp_recipients",
		columns: []string{"phone_number", "email", "name"},
		create: `
CREATE TEMP TABLE stg_whatsapp_recipients (
    phone_number TEXT, email TEXT, name TEXT
) ON COMMIT DROP`,
		merge: `
WITH upserted AS (
    INSERT INTO whatsapp_campaign_recipients (campaign_id, phone_number, email, name, created_at, updated_at)
    SELECT $1::uuid, phone_number, email, name, NOW(), NOW()
    FROM stg_whatsapp_recipients
    ON CONFLICT (campaign_id, phone_number) DO UPDATE
      SET email = EXCLUDED.email,
          name = EXCLUDED.name,
          updated_at = NOW()
    RETURNING (xmax = 0) AS inserted
)
SELECT inserted FROM upserted
`,
		rows: rows,
	}, campaignID)
}

// UpsertInventoryItems tags every written row with jobID so the rows of a
// single import can be found and rolled back.
func (s *RecordStore) UpsertInventoryItems(ctx context.Context, organizationID, jobID string, items []domain.InventoryItem) (domain.WriteResult, error) {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		var price *string
		if item.UnitPrice != nil {
			p := item.UnitPrice.String()
			price = &p
		}
		rows = append(rows, []any{
			item.SKU, nullableText(item.Name), nullableText(item.Description), nullableText(item.Category),
			nullableText(item.Unit), item.Quantity, item.MinimumStock, price,
			nullableText(item.Location), nullableText(item.Supplier),
		})
	}

	return s.upsert(ctx, stagedUpsert{
		name:    "inventory items",
		staging: "stg_inventory_items",
		columns: []string{"sku", "name", "description", "category", "unit", "quantity", "min_stock", "unit_price", "location", "supplier"},
		create: `
CREATE TEMP TABLE stg_inventory_items (
    sku TEXT, name TEXT, description TEXT, category TEXT, unit TEXT,
    quantity BIGINT, min_stock BIGINT, unit_price TEXT, location TEXT, supplier TEXT
) ON COMMIT DROP`,
		merge: `
WITH upserted AS (
    INSERT INTO inventory_items (organization_id, sku, name, description, category, unit, quantity,
                                 min_stock, unit_price, location, supplier, import_job_id, created_at, updated_at)
    SELECT $1::uuid, sku, name, description, category, unit, quantity,
           min_stock, unit_price::numeric, location, supplier, $2::uuid, NOW(), NOW()
    FROM stg_inventory_items
    ON CONFLICT (organization_id, sku) DO UPDATE
      SET name = EXCLUDED.name,
          description = EXCLUDED.description,
          category = EXCLUDED.category,
          unit = EXCLUDED.unit,
          quantity = EXCLUDED.quantity,
          min_stock = EXCLUDED.min_stock,
          unit_price = EXCLUDED.unit_price,
          location = EXCLUDED.location,
          supplier = EXCLUDED.supplier,
          import_job_id = EXCLUDED.import_job_id,
          updated_at = NOW()
    RETURNING (xmax = 0) AS inserted
)
SELECT inserted FROM upserted
`,
		rows: rows,
	}, organizationID, jobID)
}

func (s *RecordStore) ExistingRepositoryKeys(ctx context.Context, organizationID string, emails, institutionalEmails []string) (domain.ExistingKeys, error) {
	keys := domain.ExistingKeys{
		Emails:              make(map[string]struct{}),
		InstitutionalEmails: make(map[string]struct{}),
	}
	if len(emails) == 0 && len(institutionalEmails) == 0 {
		return keys, nil
	}

	rows, err := s.pool.Query(ctx, `
SELECT lower(email), lower(institutional_email)
FROM repository_records
WHERE organization_id = $1
  AND (lower(email) = ANY($2) OR lower(institutional_email) = ANY($3))
`, organizationID, emails, institutionalEmails)
	if err != nil {
		return domain.ExistingKeys{}, fmt.Errorf("query repository keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email, institutional *string
		if err := rows.Scan(&email, &institutional); err != nil {
			return domain.ExistingKeys{}, fmt.Errorf("scan repository keys: %w", err)
		}
		if email != nil && *email != "" {
			keys.Emails[*email] = struct{}{}
		}
		if institutional != nil && *institutional != "" {
			keys.InstitutionalEmails[*institutional] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ExistingKeys{}, fmt.Errorf("read repository keys: %w", err)
	}

	return keys, nil
}

// InsertRepositoryRecords is a plain insert; callers filter out key
// collisions beforehand.
func (s *RecordStore) InsertRepositoryRecords(ctx context.Context, organizationID string, records []domain.RepositoryRecord) (domain.WriteResult, error) {
	if len(records) == 0 {
		return domain.WriteResult{}, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			organizationID, r.Name, nullableText(r.Email), nullableText(r.InstitutionalEmail),
			nullableText(r.Phone), nullableText(r.Document), nullableText(r.Institution), nullableText(r.Department),
			nullableText(r.City), nullableText(r.State), nullableText(r.PostalCode), nullableText(r.Notes),
		})
	}

	copied, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"repository_records"},
		[]string{"organization_id", "name", "email", "institutional_email", "phone", "document", "institution", "department", "city", "state", "postal_code", "notes"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("copy repository records: %w", err)
	}

	return domain.WriteResult{Inserted: int(copied)}, nil
}

func (s *RecordStore) upsert(ctx context.Context, op stagedUpsert, args ...any) (domain.WriteResult, error) {
	if len(op.rows) == 0 {
		return domain.WriteResult{}, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, op.create); err != nil {
		return domain.WriteResult{}, fmt.Errorf("create %s: %w", op.staging, err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{op.staging}, op.columns, pgx.CopyFromRows(op.rows)); err != nil {
		return domain.WriteResult{}, fmt.Errorf("copy %s staging: %w", op.name, err)
	}

	rows, err := tx.Query(ctx, op.merge, args...)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("upsert %s: %w", op.name, err)
	}
	inserted, updated, err := countInsertedUpdated(rows)
	rows.Close()
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("upsert %s: %w", op.name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.WriteResult{}, fmt.Errorf("commit %s: %w", op.name, err)
	}

	return domain.WriteResult{Inserted: int(inserted), Updated: int(updated)}, nil
}

func countInsertedUpdated(rows pgx.Rows) (int64, int64, error) {
	var inserted int64
	var updated int64

	for rows.Next() {
		var isInsert bool
		if err := rows.Scan(&isInsert); err != nil {
			return 0, 0, err
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
