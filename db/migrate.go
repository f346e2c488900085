package db

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// Migration is one versioned schema step. Versions must be unique and are
// applied in ascending order, each in its own transaction.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *Tx) error
}

const migrationsTable = "schema_migrations"

// Migrate applies every migration newer than the recorded schema version.
func (db *DB) Migrate(ctx context.Context, migrations []Migration) error {
	if err := db.CreateTable(ctx, migrationsTable, `
		version INTEGER NOT NULL PRIMARY KEY,
		name VARCHAR NOT NULL,
		applied_at TIMESTAMP NOT NULL
	`); err != nil {
		return fmt.Errorf("create %s: %w", migrationsTable, err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for i, m := range sorted {
		if i > 0 && sorted[i-1].Version == m.Version {
			return fmt.Errorf("duplicate migration version %d", m.Version)
		}
		if applied[m.Version] {
			continue
		}
		err := db.InTx(ctx, func(tx *Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.Exec(
				"INSERT INTO "+migrationsTable+" (version, name, applied_at) VALUES ($1, $2, $3)",
				m.Version, m.Name, time.Now().UTC(),
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		log.Printf("📦 Applied migration %d: %s", m.Version, m.Name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, or 0.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM "+migrationsTable).Scan(&version)
	return version, err
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.Query(ctx, migrationsTable, "SELECT version FROM "+migrationsTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
