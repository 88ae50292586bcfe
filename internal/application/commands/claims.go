package commands

import (
	"errors"
	"fmt"
	"sync"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// ErrPluginBusy is returned when another writer is replacing the same plugin
var ErrPluginBusy = errors.New("plugin is being written by another task")

// Claims tracks the external plugin identifiers whose files are being
// replaced. The Updater and the add commands share one set so a community
// upgrade never races an update run over the same file. A nil *Claims
// grants every claim.
type Claims struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewClaims creates an empty claim set
func NewClaims() *Claims {
	return &Claims{ids: make(map[string]struct{})}
}

// TryClaim claims id and reports whether it was free
func (c *Claims) TryClaim(id string) bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.ids[id]; busy {
		return false
	}
	c.ids[id] = struct{}{}
	return true
}

// Release frees ids claimed earlier
func (c *Claims) Release(ids ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.ids, id)
	}
}

// Held reports whether id is claimed
func (c *Claims) Held(id string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok
}

// claimingValidator wraps pluginValidator so the decoded identifier is
// claimed before the installer moves the file into place. The claimed
// identifier is stored in claimed and the caller releases it.
func claimingValidator(claims *Claims, meta *domain.PluginMetadata, claimed *string) ports.ValidateFunc {
	validate := pluginValidator(meta)
	return func(content []byte) error {
		if err := validate(content); err != nil {
			return err
		}
		if *claimed == meta.ID {
			return nil
		}
		if !claims.TryClaim(meta.ID) {
			return fmt.Errorf("%s: %w", meta.ID, ErrPluginBusy)
		}
		*claimed = meta.ID
		return nil
	}
}
