package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	integrationOrgID    = "6f1a2b3c-4d5e-4f60-8a71-92b3c4d5e6f7"
	integrationUserID   = "0a1b2c3d-4e5f-4a6b-8c7d-8e9f0a1b2c3d"
	integrationCampaign = "7e6d5c4b-3a29-4180-9f7e-6d5c4b3a2918"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS organizations (
  id UUID PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  slug VARCHAR(120) NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS import_jobs (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  organization_id UUID NOT NULL,
  user_id UUID NOT NULL,
  file_name TEXT NOT NULL,
  file_path TEXT NOT NULL,
  import_type TEXT NOT NULL,
  target_id UUID,
  status TEXT NOT NULL DEFAULT 'pending',
  current_stage TEXT,
  stage_details JSONB NOT NULL DEFAULT '{}',
  total_rows INT NOT NULL DEFAULT 0,
  processed_rows INT NOT NULL DEFAULT 0,
  success_count INT NOT NULL DEFAULT 0,
  error_count INT NOT NULL DEFAULT 0,
  errors JSONB NOT NULL DEFAULT '[]',
  error_message TEXT,
  file_deleted BOOLEAN NOT NULL DEFAULT FALSE,
  file_deleted_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  completed_at TIMESTAMPTZ,
  CHECK (status IN ('pending','processing','completed','failed'))
);
CREATE TABLE IF NOT EXISTS contacts (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  organization_id UUID NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT, email TEXT, phone TEXT, company TEXT, job_title TEXT, address TEXT,
  city TEXT, state TEXT, postal_code TEXT, country TEXT, source TEXT, notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (organization_id, email)
);
CREATE TABLE IF NOT EXISTS email_campaign_recipients (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  campaign_id UUID NOT NULL,
  email TEXT NOT NULL,
  name TEXT, first_name TEXT, last_name TEXT, company TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (campaign_id, email)
);
CREATE TABLE IF NOT EXISTS whatsapp_campaign_recipients (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  campaign_id UUID NOT NULL,
  phone_number TEXT NOT NULL,
  email TEXT, name TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (campaign_id, phone_number)
);
CREATE TABLE IF NOT EXISTS inventory_items (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  organization_id UUID NOT NULL,
  sku TEXT NOT NULL,
  name TEXT, description TEXT, category TEXT, unit TEXT,
  quantity BIGINT NOT NULL DEFAULT 0,
  min_stock BIGINT NOT NULL DEFAULT 0,
  unit_price NUMERIC(14, 4),
  location TEXT, supplier TEXT,
  import_job_id UUID,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (organization_id, sku)
);
CREATE TABLE IF NOT EXISTS repository_records (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  organization_id UUID NOT NULL,
  name TEXT NOT NULL,
  email TEXT, institutional_email TEXT, phone TEXT, document TEXT, institution TEXT,
  department TEXT, city TEXT, state TEXT, postal_code TEXT, notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (organization_id, email),
  UNIQUE (organization_id, institutional_email)
);
`

const cleanupSQL = `
DELETE FROM import_jobs;
DELETE FROM contacts;
DELETE FROM email_campaign_recipients;
DELETE FROM whatsapp_campaign_recipients;
DELETE FROM inventory_items;
DELETE FROM repository_records;
DELETE FROM organizations;
`

// openIntegrationDB connects to TEST_DATABASE_URL and resets the schema, or
// skips the test when it is not set.
func openIntegrationDB(t *testing.T) (*gorm.DB, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := db.Exec(schemaSQL).Error; err != nil {
		t.Fatalf("failed schema setup: %v", err)
	}
	if err := db.Exec(cleanupSQL).Error; err != nil {
		t.Fatalf("failed cleanup: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return db, pool
}
