package repository

import (
	"context"
	"fmt"

	"github.com/medview/imagestore/common/db"
)

// migration is one additive schema step. Steps are append-only: new optional
// columns are added over the system's life without breaking old records,
// which simply have those fields absent.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_image_table",
		sql: `
			CREATE TABLE IF NOT EXISTS image (
				id            BIGSERIAL PRIMARY KEY,
				name          TEXT NOT NULL,
				content_type  TEXT NOT NULL,
				file_size     BIGINT NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL,
				modified_at   TIMESTAMPTZ,
				upload_date   TIMESTAMPTZ NOT NULL,
				last_accessed TIMESTAMPTZ
			)
		`,
	},
	{
		version: 2,
		name:    "add_dicom_fields",
		sql: `
			ALTER TABLE image
				ADD COLUMN IF NOT EXISTS patient_id TEXT,
				ADD COLUMN IF NOT EXISTS patient_name TEXT,
				ADD COLUMN IF NOT EXISTS modality TEXT,
				ADD COLUMN IF NOT EXISTS rows INTEGER,
				ADD COLUMN IF NOT EXISTS columns INTEGER,
				ADD COLUMN IF NOT EXISTS image_type TEXT,
				ADD COLUMN IF NOT EXISTS study_date TEXT,
				ADD COLUMN IF NOT EXISTS series_description TEXT
		`,
	},
	{
		version: 3,
		name:    "add_compression_flag",
		sql: `
			ALTER TABLE image
				ADD COLUMN IF NOT EXISTS is_compressed BOOLEAN NOT NULL DEFAULT false
		`,
	},
	{
		version: 4,
		name:    "filesystem_storage_key",
		sql: `
			ALTER TABLE image
				ADD COLUMN IF NOT EXISTS storage_key TEXT NOT NULL DEFAULT '';
			CREATE UNIQUE INDEX IF NOT EXISTS image_storage_key_idx ON image (storage_key)
		`,
	},
	{
		version: 5,
		name:    "add_extended_dicom_metadata",
		sql: `
			ALTER TABLE image
				ADD COLUMN IF NOT EXISTS patient_birth_date TEXT,
				ADD COLUMN IF NOT EXISTS patient_sex TEXT,
				ADD COLUMN IF NOT EXISTS study_id TEXT,
				ADD COLUMN IF NOT EXISTS study_instance_uid TEXT,
				ADD COLUMN IF NOT EXISTS study_time TEXT,
				ADD COLUMN IF NOT EXISTS series_instance_uid TEXT,
				ADD COLUMN IF NOT EXISTS series_number TEXT,
				ADD COLUMN IF NOT EXISTS body_part TEXT,
				ADD COLUMN IF NOT EXISTS window_center TEXT,
				ADD COLUMN IF NOT EXISTS window_width TEXT,
				ADD COLUMN IF NOT EXISTS instance_number TEXT,
				ADD COLUMN IF NOT EXISTS sop_instance_uid TEXT,
				ADD COLUMN IF NOT EXISTS has_annotations BOOLEAN NOT NULL DEFAULT false,
				ADD COLUMN IF NOT EXISTS annotation_type TEXT,
				ADD COLUMN IF NOT EXISTS annotation_label TEXT,
				ADD COLUMN IF NOT EXISTS annotation_data TEXT
		`,
	},
}

// Migrate applies all pending schema migrations in order
func Migrate(ctx context.Context, database *db.DB) error {
	_, err := database.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := database.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		tx, err := database.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(ctx, m.sql); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name,
		); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
