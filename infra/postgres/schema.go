package postgres

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const (
	createDocumentVersionSequence = `
		CREATE SEQUENCE IF NOT EXISTS store_document_version;`

	createDocumentsTable = `
		CREATE TABLE IF NOT EXISTS store_documents (
			doc_path TEXT PRIMARY KEY,
			body JSONB NOT NULL,
			version BIGINT NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`

	createIndexes = `
		CREATE INDEX IF NOT EXISTS idx_store_documents_updated_at ON store_documents(updated_at);`
)

// initDB creates the sequence, table and indexes the store needs.
func initDB(db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{"store_document_version", createDocumentVersionSequence},
		{"store_documents", createDocumentsTable},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create '%s' table: %w", table.name, err)
		}
	}

	if _, err := db.Exec(createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	zap.L().Info("Database initialized successfully")
	return nil
}
