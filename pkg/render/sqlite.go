package render

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store writes collation tables to a SQLite database. Matrix cells are
// stored sparsely: zero coefficients have no row.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the SQLite database and applies migrations.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			grammar TEXT NOT NULL,
			unit_count INTEGER NOT NULL,
			extant_threshold INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS witnesses (
			source_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			siglum TEXT NOT NULL,
			fragmentary INTEGER NOT NULL,
			PRIMARY KEY (source_id, fragmentary, position)
		);`,
		`CREATE TABLE IF NOT EXISTS readings (
			source_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			weight REAL,
			PRIMARY KEY (source_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS cells (
			source_id INTEGER NOT NULL,
			reading_position INTEGER NOT NULL,
			siglum TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (source_id, reading_position, siglum)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cells_siglum ON cells(siglum);`,
	}
	for _, stmt := range stmts {
		if _, err := store.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTables stores one source's tables in a single transaction and
// returns its source id.
func (store *Store) InsertTables(ctx context.Context, tables Tables) (id int64, err error) {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sources (source, grammar, unit_count, extant_threshold, created_at) VALUES (?, ?, ?, ?, ?)`,
		tables.Source, tables.Grammar, tables.UnitCount, tables.ExtantThreshold, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	witnessStmt, err := tx.PrepareContext(ctx, `INSERT INTO witnesses (source_id, position, siglum, fragmentary) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer witnessStmt.Close()
	for position, siglum := range tables.Witnesses {
		if _, err = witnessStmt.ExecContext(ctx, id, position, siglum, 0); err != nil {
			return 0, err
		}
	}
	for position, siglum := range tables.FragmentaryWitnesses {
		if _, err = witnessStmt.ExecContext(ctx, id, position, siglum, 1); err != nil {
			return 0, err
		}
	}

	readingStmt, err := tx.PrepareContext(ctx, `INSERT INTO readings (source_id, position, label, weight) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer readingStmt.Close()
	cellStmt, err := tx.PrepareContext(ctx, `INSERT INTO cells (source_id, reading_position, siglum, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer cellStmt.Close()

	for position, label := range tables.Readings {
		var weight sql.NullFloat64
		if position < len(tables.Weights) {
			weight = sql.NullFloat64{Float64: tables.Weights[position], Valid: true}
		}
		if _, err = readingStmt.ExecContext(ctx, id, position, label, weight); err != nil {
			return 0, err
		}

		if err = insertCells(ctx, cellStmt, id, position, tables.Witnesses, rowOrEmpty(tables.Primary, position)); err != nil {
			return 0, err
		}
		if err = insertCells(ctx, cellStmt, id, position, tables.FragmentaryWitnesses, rowOrEmpty(tables.Fragmentary, position)); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func insertCells(ctx context.Context, cellStmt *sql.Stmt, sourceID int64, position int, sigla []string, values []float64) error {
	for column, value := range values {
		if value == 0 || column >= len(sigla) {
			continue
		}
		if _, err := cellStmt.ExecContext(ctx, sourceID, position, sigla[column], value); err != nil {
			return err
		}
	}
	return nil
}

// WriteSQLite stores every set of tables in the database at path.
func WriteSQLite(ctx context.Context, path string, tableSets []Tables) error {
	store, err := OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, tables := range tableSets {
		if _, err := store.InsertTables(ctx, tables); err != nil {
			return fmt.Errorf("failed to store %s: %w", tables.Source, err)
		}
	}
	return store.Close()
}
