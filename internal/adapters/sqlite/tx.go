package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// catalogTx implements ports.CatalogTx
type catalogTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Ensure catalogTx implements CatalogTx
var _ ports.CatalogTx = (*catalogTx)(nil)

// FindInternal returns the internal plugin stored under filename
func (t *catalogTx) FindInternal(filename string) (*domain.Plugin, error) {
	return scanOne(t.tx.QueryRowContext(t.ctx, selectPlugins+` WHERE internal = 1 AND filename = ?`, filename))
}

// FindExternal returns the external plugin declaring identifier
func (t *catalogTx) FindExternal(identifier string) (*domain.Plugin, error) {
	return scanOne(t.tx.QueryRowContext(t.ctx, selectPlugins+` WHERE internal = 0 AND identifier = ?`, identifier))
}

// FindByHandle returns the plugin with the given handle
func (t *catalogTx) FindByHandle(handle string) (*domain.Plugin, error) {
	return scanOne(t.tx.QueryRowContext(t.ctx, selectPlugins+` WHERE handle = ?`, handle))
}

// List returns plugins matching filter, including uncommitted changes
func (t *catalogTx) List(filter domain.Filter) ([]*domain.Plugin, error) {
	return listPlugins(t.ctx, t.tx, filter)
}

// Insert adds a new plugin, assigning a handle when none is set
func (t *catalogTx) Insert(p *domain.Plugin) error {
	if p.Handle == "" {
		p.Handle = uuid.NewString()
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO plugins (handle, identifier, filename, internal, enabled, name, category,
			author, description, version, download_url, update_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Handle, p.Identifier, p.Filename, p.Internal, p.Enabled, p.Name, p.Category.String(),
		nullString(p.Author), nullString(p.Description), nullString(p.Version),
		nullString(p.DownloadURL), nullString(p.UpdateURL))
	if err != nil {
		return fmt.Errorf("failed to insert plugin %s: %w", p.Identifier, err)
	}
	return nil
}

// Update overwrites a plugin's mutable fields. The partition flag is never written.
func (t *catalogTx) Update(p *domain.Plugin) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE plugins SET identifier = ?, filename = ?, enabled = ?, name = ?, category = ?,
			author = ?, description = ?, version = ?, download_url = ?, update_url = ?
		WHERE handle = ?
	`, p.Identifier, p.Filename, p.Enabled, p.Name, p.Category.String(),
		nullString(p.Author), nullString(p.Description), nullString(p.Version),
		nullString(p.DownloadURL), nullString(p.UpdateURL), p.Handle)
	if err != nil {
		return fmt.Errorf("failed to update plugin %s: %w", p.Identifier, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update plugin %s: no record with handle %s", p.Identifier, p.Handle)
	}
	return nil
}

// Delete removes a plugin by handle
func (t *catalogTx) Delete(handle string) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM plugins WHERE handle = ?`, handle)
	return err
}

// DeleteExternal removes every external plugin and returns how many were removed
func (t *catalogTx) DeleteExternal() (int, error) {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM plugins WHERE internal = 0`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Commit commits the transaction
func (t *catalogTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *catalogTx) Rollback() error {
	return t.tx.Rollback()
}
