package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"intelstack/internal/adapters/filesystem"
	"intelstack/internal/application"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// memCatalog is an in-memory ports.Catalog. Transactions work on a copy and
// replace the committed state on Commit.
type memCatalog struct {
	mu      sync.Mutex
	plugins map[string]*domain.Plugin
	seq     int
	commits int
}

var _ ports.Catalog = (*memCatalog)(nil)

func newMemCatalog(plugins ...*domain.Plugin) *memCatalog {
	c := &memCatalog{plugins: make(map[string]*domain.Plugin)}
	for _, p := range plugins {
		if p.Handle == "" {
			c.seq++
			p.Handle = fmt.Sprintf("h%d", c.seq)
		}
		c.plugins[p.Handle] = clonePlugin(p)
	}
	return c
}

func clonePlugin(p *domain.Plugin) *domain.Plugin {
	cp := *p
	return &cp
}

func (c *memCatalog) Open(string) error { return nil }
func (c *memCatalog) Close() error      { return nil }

func (c *memCatalog) List(ctx context.Context, filter domain.Filter) ([]*domain.Plugin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return listMem(c.plugins, filter), nil
}

func (c *memCatalog) GetByHandle(ctx context.Context, handle string) (*domain.Plugin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.plugins[handle]; ok {
		return clonePlugin(p), nil
	}
	return nil, nil
}

func (c *memCatalog) BeginTx(ctx context.Context) (ports.CatalogTx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	staged := make(map[string]*domain.Plugin, len(c.plugins))
	for h, p := range c.plugins {
		staged[h] = clonePlugin(p)
	}
	return &memTx{catalog: c, staged: staged}, nil
}

// all returns committed records sorted by filename
func (c *memCatalog) all() []*domain.Plugin {
	c.mu.Lock()
	defer c.mu.Unlock()
	return listMem(c.plugins, domain.Filter{})
}

func (c *memCatalog) commitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

func listMem(plugins map[string]*domain.Plugin, filter domain.Filter) []*domain.Plugin {
	var out []*domain.Plugin
	for _, p := range plugins {
		if filter.Matches(p) {
			out = append(out, clonePlugin(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

type memTx struct {
	catalog *memCatalog
	staged  map[string]*domain.Plugin
	done    bool
}

func (t *memTx) find(match func(p *domain.Plugin) bool) *domain.Plugin {
	for _, p := range t.staged {
		if match(p) {
			return clonePlugin(p)
		}
	}
	return nil
}

func (t *memTx) FindInternal(filename string) (*domain.Plugin, error) {
	return t.find(func(p *domain.Plugin) bool { return p.Internal && p.Filename == filename }), nil
}

func (t *memTx) FindExternal(identifier string) (*domain.Plugin, error) {
	return t.find(func(p *domain.Plugin) bool { return !p.Internal && p.Identifier == identifier }), nil
}

func (t *memTx) FindByHandle(handle string) (*domain.Plugin, error) {
	return t.find(func(p *domain.Plugin) bool { return p.Handle == handle }), nil
}

func (t *memTx) List(filter domain.Filter) ([]*domain.Plugin, error) {
	return listMem(t.staged, filter), nil
}

func (t *memTx) conflict(p *domain.Plugin) bool {
	for h, other := range t.staged {
		if h == p.Handle || other.Internal != p.Internal {
			continue
		}
		if p.Internal && other.Filename == p.Filename {
			return true
		}
		if !p.Internal && other.Identifier == p.Identifier {
			return true
		}
	}
	return false
}

func (t *memTx) Insert(p *domain.Plugin) error {
	if p.Handle == "" {
		t.catalog.mu.Lock()
		t.catalog.seq++
		p.Handle = fmt.Sprintf("h%d", t.catalog.seq)
		t.catalog.mu.Unlock()
	}
	if t.conflict(p) {
		return fmt.Errorf("unique constraint failed for %s", p.Identifier)
	}
	t.staged[p.Handle] = clonePlugin(p)
	return nil
}

func (t *memTx) Update(p *domain.Plugin) error {
	old, ok := t.staged[p.Handle]
	if !ok {
		return fmt.Errorf("no record with handle %s", p.Handle)
	}
	if t.conflict(p) {
		return fmt.Errorf("unique constraint failed for %s", p.Identifier)
	}
	updated := clonePlugin(p)
	updated.Internal = old.Internal
	t.staged[p.Handle] = updated
	return nil
}

func (t *memTx) Delete(handle string) error {
	delete(t.staged, handle)
	return nil
}

func (t *memTx) DeleteExternal() (int, error) {
	n := 0
	for h, p := range t.staged {
		if !p.Internal {
			delete(t.staged, h)
			n++
		}
	}
	return n, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already done")
	}
	t.done = true
	t.catalog.mu.Lock()
	defer t.catalog.mu.Unlock()
	t.catalog.plugins = t.staged
	t.catalog.commits++
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}

// stubFetcher serves canned bodies by URL. Unknown URLs answer 404. A URL in
// hold blocks until its channel is closed.
type stubFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	hold    map[string]chan struct{}
	started chan string
	calls   map[string]int
}

var _ ports.Fetcher = (*stubFetcher)(nil)

func newStubFetcher(bodies map[string]string) *stubFetcher {
	return &stubFetcher{
		bodies: bodies,
		hold:   make(map[string]chan struct{}),
		calls:  make(map[string]int),
	}
}

func (f *stubFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	body, ok := f.bodies[url]
	hold := f.hold[url]
	started := f.started
	f.mu.Unlock()

	if hold != nil {
		if started != nil {
			started <- url
		}
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, &application.TransportError{URL: url, StatusCode: 404}
	}
	return []byte(body), nil
}

func (f *stubFetcher) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	data, err := f.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, bytes.NewReader(data))
}

func (f *stubFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// folderSettings is an in-memory ports.FolderSettings
type folderSettings struct {
	mu      sync.Mutex
	path    string
	cleared bool
}

func (s *folderSettings) ExternalFolderPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *folderSettings) ClearExternalFolder() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = ""
	s.cleared = true
	return nil
}

// fakeCommunity is a fixed ports.CommunityIndex
type fakeCommunity struct {
	plugins []*domain.CommunityPlugin
	rawURL  string
}

func (f *fakeCommunity) Previews(ctx context.Context) ([]*domain.CommunityPlugin, error) {
	out := make([]*domain.CommunityPlugin, len(f.plugins))
	for i, p := range f.plugins {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeCommunity) ScriptURL(author, filename string) string {
	return f.rawURL + author + "/" + filename + domain.UserScriptSuffix
}

// env wires the real filesystem adapters over temp directories
type env struct {
	catalog   *memCatalog
	fetcher   *stubFetcher
	storage   *filesystem.Storage
	settings  *folderSettings
	folder    *filesystem.Folder
	installer *filesystem.Installer
	external  string
}

func newEnv(t *testing.T, bodies map[string]string, plugins ...*domain.Plugin) *env {
	t.Helper()
	external := t.TempDir()
	settings := &folderSettings{path: external}
	folder, err := filesystem.NewFolder(settings, "", nil)
	if err != nil {
		t.Fatalf("NewFolder: %v", err)
	}
	fetcher := newStubFetcher(bodies)
	return &env{
		catalog:   newMemCatalog(plugins...),
		fetcher:   fetcher,
		storage:   filesystem.NewStorage(t.TempDir()),
		settings:  settings,
		folder:    folder,
		installer: filesystem.NewInstaller(fetcher, nil, nil),
		external:  external,
	}
}

func (e *env) writeExternal(t *testing.T, filename, content string) {
	t.Helper()
	path := filepath.Join(e.external, filename+domain.UserScriptSuffix)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (e *env) readExternal(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.external, filename+domain.UserScriptSuffix))
	if err != nil {
		t.Fatalf("read %s: %v", filename, err)
	}
	return string(data)
}

// pluginScript renders a plugin header with an optional body
func pluginScript(id, name, version string, extra ...string) string {
	fields := []domain.HeaderField{
		{Key: "id", Value: id},
		{Key: "name", Value: name},
		{Key: "category", Value: "Misc"},
		{Key: "version", Value: version},
	}
	for i := 0; i+1 < len(extra); i += 2 {
		fields = append(fields, domain.HeaderField{Key: extra[i], Value: extra[i+1]})
	}
	return domain.RenderHeader(fields) + "\nvar x = 1;\n"
}

func mainScript(version string) string {
	return domain.RenderHeader([]domain.HeaderField{
		{Key: "name", Value: "IITC: Ingress intel map total conversion"},
		{Key: "version", Value: version},
	}) + "\nwindow.iitcLoaded = true;\n"
}

func probe(version string) string {
	return domain.RenderHeader([]domain.HeaderField{{Key: "version", Value: version}})
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
