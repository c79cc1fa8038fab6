package repository_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
	"github.com/mohammadpnp/csv-import/internal/infrastructure/repository"
)

func TestRecordStoreUpsertContactsIntegration(t *testing.T) {
	_, pool := openIntegrationDB(t)
	store := repository.NewRecordStore(pool)
	ctx := context.Background()

	first, err := store.UpsertContacts(ctx, integrationOrgID, []domain.Contact{
		{FirstName: "Alice", Email: "a@x.com"},
		{FirstName: "Walk-in"},
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if first.Inserted != 2 || first.Updated != 0 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := store.UpsertContacts(ctx, integrationOrgID, []domain.Contact{{FirstName: "Bob", Email: "a@x.com"}})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.Inserted != 0 || second.Updated != 1 {
		t.Fatalf("unexpected second result: %+v", second)
	}

	var firstName string
	if err := pool.QueryRow(ctx, "SELECT first_name FROM contacts WHERE organization_id = $1 AND email = 'a@x.com'", integrationOrgID).Scan(&firstName); err != nil {
		t.Fatalf("query contact failed: %v", err)
	}
	if firstName != "Bob" {
		t.Fatalf("expected last write to win, got %s", firstName)
	}
}

func TestRecordStoreUpsertInventoryTagsJobIntegration(t *testing.T) {
	_, pool := openIntegrationDB(t)
	store := repository.NewRecordStore(pool)
	ctx := context.Background()

	jobID := "3c2b1a09-8f7e-4d6c-9b5a-493827161504"
	price := decimal.RequireFromString("12.5")
	result, err := store.UpsertInventoryItems(ctx, integrationOrgID, jobID, []domain.InventoryItem{
		{SKU: "SKU-1", Name: "Bolt", Quantity: 4, UnitPrice: &price},
		{SKU: "SKU-2", Name: "Nut"},
	})
	if err != nil {
		t.Fatalf("upsert inventory failed: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var tagged int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM inventory_items WHERE import_job_id = $1", jobID).Scan(&tagged); err != nil {
		t.Fatalf("count tagged rows failed: %v", err)
	}
	if tagged != 2 {
		t.Fatalf("expected 2 tagged rows, got %d", tagged)
	}
}

func TestRecordStoreRecipientsIntegration(t *testing.T) {
	_, pool := openIntegrationDB(t)
	store := repository.NewRecordStore(pool)
	ctx := context.Background()

	email, err := store.UpsertEmailRecipients(ctx, integrationCampaign, []domain.EmailRecipient{{Email: "ana@example.com", Name: "Ana"}})
	if err != nil || email.Inserted != 1 {
		t.Fatalf("email recipients: %+v, %v", email, err)
	}

	whatsapp, err := store.UpsertWhatsAppRecipients(ctx, integrationCampaign, []domain.WhatsAppRecipient{{PhoneNumber: "+5511999990000"}})
	if err != nil || whatsapp.Inserted != 1 {
		t.Fatalf("whatsapp recipients: %+v, %v", whatsapp, err)
	}

	whatsapp, err = store.UpsertWhatsAppRecipients(ctx, integrationCampaign, []domain.WhatsAppRecipient{{PhoneNumber: "+5511999990000", Name: "Ana"}})
	if err != nil || whatsapp.Updated != 1 {
		t.Fatalf("whatsapp recipients update: %+v, %v", whatsapp, err)
	}
}

func TestRecordStoreRepositoryKeysIntegration(t *testing.T) {
	_, pool := openIntegrationDB(t)
	store := repository.NewRecordStore(pool)
	ctx := context.Background()

	if _, err := store.InsertRepositoryRecords(ctx, integrationOrgID, []domain.RepositoryRecord{
		{Name: "Ana", Email: "ana@home.com", InstitutionalEmail: "ana@uni.edu"},
	}); err != nil {
		t.Fatalf("insert repository records failed: %v", err)
	}

	keys, err := store.ExistingRepositoryKeys(ctx, integrationOrgID, []string{"ana@home.com", "new@home.com"}, []string{"someone@uni.edu"})
	if err != nil {
		t.Fatalf("existing keys failed: %v", err)
	}
	if _, ok := keys.Emails["ana@home.com"]; !ok {
		t.Fatalf("expected ana@home.com to be reported, got %+v", keys)
	}
	if _, ok := keys.InstitutionalEmails["ana@uni.edu"]; !ok {
		t.Fatalf("expected institutional email of the matched row, got %+v", keys)
	}
	if _, ok := keys.Emails["new@home.com"]; ok {
		t.Fatal("unexpected key for a new email")
	}
}
