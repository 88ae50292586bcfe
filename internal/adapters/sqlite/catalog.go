package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"intelstack/internal/domain"
	"intelstack/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Catalog implements ports.Catalog using SQLite
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// Ensure Catalog implements ports.Catalog
var _ ports.Catalog = (*Catalog)(nil)

// NewCatalog creates a new SQLite catalog
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Open opens or creates the catalog database at path
func (c *Catalog) Open(path string) error {
	c.dbPath = path

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	// Transactions take the write lock up front so a read-then-write never
	// fails on a snapshot another connection committed past. WAL keeps
	// plain reads available meanwhile.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS plugins (
			handle TEXT PRIMARY KEY,
			identifier TEXT NOT NULL,
			filename TEXT NOT NULL,
			internal INTEGER NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 0,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			author TEXT,
			description TEXT,
			version TEXT,
			download_url TEXT,
			update_url TEXT
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_plugins_internal_filename
			ON plugins(filename) WHERE internal = 1;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_plugins_external_identifier
			ON plugins(identifier) WHERE internal = 0;
		CREATE TRIGGER IF NOT EXISTS plugins_internal_immutable
			BEFORE UPDATE OF internal ON plugins
			WHEN NEW.internal <> OLD.internal
			BEGIN
				SELECT RAISE(ABORT, 'plugin partition is immutable');
			END;
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if err := c.checkSchemaVersion(); err != nil {
		db.Close()
		return err
	}

	return nil
}

// Close closes the database connection
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// checkSchemaVersion records the schema version on first open and rejects
// databases written by a different schema
func (c *Catalog) checkSchemaVersion() error {
	var version string
	err := c.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = c.db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion)
		if err != nil {
			return fmt.Errorf("failed to update metadata: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read metadata: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("catalog %s has schema version %s, expected %s", c.dbPath, version, schemaVersion)
	}
	return nil
}

// List returns committed plugins matching filter, sorted by name
func (c *Catalog) List(ctx context.Context, filter domain.Filter) ([]*domain.Plugin, error) {
	return listPlugins(ctx, c.db, filter)
}

// GetByHandle returns the plugin with the given handle, or nil if none exists
func (c *Catalog) GetByHandle(ctx context.Context, handle string) (*domain.Plugin, error) {
	return scanOne(c.db.QueryRowContext(ctx, selectPlugins+` WHERE handle = ?`, handle))
}

// BeginTx starts a new transaction
func (c *Catalog) BeginTx(ctx context.Context) (ports.CatalogTx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &catalogTx{ctx: ctx, tx: tx}, nil
}

const selectPlugins = `
	SELECT handle, identifier, filename, internal, enabled, name, category,
		author, description, version, download_url, update_url
	FROM plugins`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func listPlugins(ctx context.Context, q queryer, filter domain.Filter) ([]*domain.Plugin, error) {
	var where []string
	var args []any
	if filter.Internal != nil {
		where = append(where, "internal = ?")
		args = append(args, *filter.Internal)
	}
	if filter.Enabled != nil {
		where = append(where, "enabled = ?")
		args = append(args, *filter.Enabled)
	}

	query := selectPlugins
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE, handle"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plugins []*domain.Plugin
	for rows.Next() {
		p, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		if filter.Matches(p) {
			plugins = append(plugins, p)
		}
	}
	return plugins, rows.Err()
}

func scanOne(row *sql.Row) (*domain.Plugin, error) {
	p, err := scanPlugin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPlugin(s rowScanner) (*domain.Plugin, error) {
	var p domain.Plugin
	var category string
	var author, description, version, downloadURL, updateURL sql.NullString

	err := s.Scan(&p.Handle, &p.Identifier, &p.Filename, &p.Internal, &p.Enabled, &p.Name, &category,
		&author, &description, &version, &downloadURL, &updateURL)
	if err != nil {
		return nil, err
	}

	p.Category = domain.ParseCategory(category)
	p.Author = author.String
	p.Description = description.String
	p.Version = version.String
	p.DownloadURL = downloadURL.String
	p.UpdateURL = updateURL.String
	return &p, nil
}

// nullString returns nil for empty strings (for nullable columns)
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
