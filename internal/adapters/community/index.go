package community

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

//go:embed index.schema.json
var indexSchema []byte

const (
	schemaID = "inmemory://community-index"

	// fetchConcurrency bounds parallel metadata requests to the raw host
	fetchConcurrency = 8
)

// Options locates the index and the raw content of the community repository
type Options struct {
	IndexURL string
	RawURL   string
	Repo     string
	Branch   string
}

// Entry is one plugin listed in the index
type Entry struct {
	Author       string
	Filename     string
	AntiFeatures []string
}

// Client implements ports.CommunityIndex
type Client struct {
	fetcher ports.Fetcher
	opts    Options
	logger  *slog.Logger

	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// Ensure Client implements CommunityIndex
var _ ports.CommunityIndex = (*Client)(nil)

// NewClient creates a community index client
func NewClient(fetcher ports.Fetcher, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	opts.RawURL = strings.TrimRight(opts.RawURL, "/")
	opts.Repo = strings.Trim(opts.Repo, "/")
	return &Client{fetcher: fetcher, opts: opts, logger: logger}
}

func (c *Client) compiledSchema() (*jsonschema.Schema, error) {
	c.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaID, bytes.NewReader(indexSchema)); err != nil {
			c.err = fmt.Errorf("add schema resource: %w", err)
			return
		}
		c.schema, c.err = compiler.Compile(schemaID)
	})
	return c.schema, c.err
}

// FetchIndex downloads and validates the index. Entries are sorted by author
// and filename.
func (c *Client) FetchIndex(ctx context.Context) ([]Entry, error) {
	data, err := c.fetcher.Get(ctx, c.opts.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch community index: %w", err)
	}
	return c.ParseIndex(data)
}

// ParseIndex validates and decodes raw index JSON
func (c *Client) ParseIndex(data []byte) ([]Entry, error) {
	schema, err := c.compiledSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode community index: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("community index schema validation failed: %w", err)
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode community index: %w", err)
	}

	var entries []Entry
	for author, items := range raw {
		for _, item := range items {
			entry := Entry{Author: author}
			if err := json.Unmarshal(item, &entry.Filename); err != nil {
				var obj struct {
					Filename     string   `json:"filename"`
					AntiFeatures []string `json:"antiFeatures"`
				}
				if err := json.Unmarshal(item, &obj); err != nil {
					return nil, fmt.Errorf("decode community index entry of %s: %w", author, err)
				}
				entry.Filename = obj.Filename
				entry.AntiFeatures = obj.AntiFeatures
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Author != entries[j].Author {
			return entries[i].Author < entries[j].Author
		}
		return entries[i].Filename < entries[j].Filename
	})
	return entries, nil
}

// MetadataURL returns the raw URL of a plugin's .meta.js
func (c *Client) MetadataURL(author, filename string) string {
	return c.rawURL(author, filename+domain.MetadataSuffix)
}

// ScriptURL returns the raw URL of a plugin's .user.js
func (c *Client) ScriptURL(author, filename string) string {
	return c.rawURL(author, filename+domain.UserScriptSuffix)
}

func (c *Client) rawURL(author, name string) string {
	return strings.Join([]string{c.opts.RawURL, c.opts.Repo, c.opts.Branch, "dist", author, name}, "/")
}

// Previews fetches the metadata of every indexed plugin concurrently.
// Plugins whose metadata cannot be fetched or decoded are dropped.
func (c *Client) Previews(ctx context.Context) ([]*domain.CommunityPlugin, error) {
	entries, err := c.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	previews := make([]*domain.CommunityPlugin, 0, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, entry := range entries {
		g.Go(func() error {
			url := c.MetadataURL(entry.Author, entry.Filename)
			data, err := c.fetcher.Get(gctx, url)
			if err != nil {
				c.logger.Debug("skipping community plugin", "url", url, "error", err)
				return nil
			}
			meta, err := domain.ParsePlugin(string(data))
			if err != nil {
				c.logger.Debug("skipping community plugin", "url", url, "error", err)
				return nil
			}

			mu.Lock()
			previews = append(previews, &domain.CommunityPlugin{
				Author:       entry.Author,
				Filename:     entry.Filename,
				AntiFeatures: entry.AntiFeatures,
				Metadata:     meta,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(previews, func(i, j int) bool {
		a, b := previews[i], previews[j]
		an, bn := strings.ToLower(a.Metadata.Name), strings.ToLower(b.Metadata.Name)
		if an != bn {
			return an < bn
		}
		return a.Author < b.Author
	})
	return previews, nil
}
