package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"intelstack/internal/application"
	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// Deps are the wired services the tools drive
type Deps struct {
	Catalog        ports.Catalog
	Storage        ports.ScriptStorage
	Folder         ports.ExternalFolder
	Settings       ports.FolderSettings
	Installer      ports.Installer
	Community      ports.CommunityIndex
	Updater        *commands.Updater
	Metrics        ports.Metrics
	Logger         *slog.Logger
	ScriptsEnabled bool
}

// RegisterReadTools adds all read-only catalog tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, d Deps) {
	s.AddTool(listTool(), listHandler(d))
	s.AddTool(showTool(), showHandler(d))
	s.AddTool(readScriptTool(), readScriptHandler(d))
	s.AddTool(statusTool(), statusHandler(d))
	s.AddTool(communityListTool(), communityListHandler(d))
	s.AddTool(injectTool(), injectHandler(d))
}

// --- list_plugins ---

func listTool() mcp.Tool {
	return mcp.NewTool("list_plugins",
		mcp.WithDescription("List plugins in the catalog sorted by name. Each line shows enabled flag (*), int/ext, category, name, version and id."),
		mcp.WithString("partition",
			mcp.Description("internal, external, or omit for both"),
			mcp.Enum("internal", "external"),
		),
		mcp.WithBoolean("enabled_only",
			mcp.Description("Only list enabled plugins"),
		),
		mcp.WithString("category",
			mcp.Description("Category name, e.g. Portal Info"),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text matched against name and id"),
		),
	)
}

func listHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := application.Filter{
			Category: req.GetString("category", ""),
			Query:    req.GetString("query", ""),
		}
		switch req.GetString("partition", "") {
		case "internal":
			filter.Internal = domain.BoolPtr(true)
		case "external":
			filter.Internal = domain.BoolPtr(false)
		}
		if req.GetBool("enabled_only", false) {
			filter.Enabled = domain.BoolPtr(true)
		}

		plugins, err := commands.NewListPluginsCommand(d.Catalog, filter).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(plugins, formatPlugin)
	}
}

// --- show_plugin ---

func showTool() mcp.Tool {
	return mcp.NewTool("show_plugin",
		mcp.WithDescription("Show all catalog fields of one plugin."),
		mcp.WithString("plugin",
			mcp.Description("Plugin handle or declared id (e.g. bookmarks, iitc-plugin-portal-names@alice)"),
			mcp.Required(),
		),
	)
}

func showHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := commands.NewShowPluginCommand(d.Catalog, req.GetString("plugin", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "name: %s\n", p.Name)
		fmt.Fprintf(&sb, "id: %s\n", p.Identifier)
		fmt.Fprintf(&sb, "handle: %s\n", p.Handle)
		fmt.Fprintf(&sb, "filename: %s\n", p.FilenameWithExtension())
		fmt.Fprintf(&sb, "internal: %t\n", p.Internal)
		fmt.Fprintf(&sb, "enabled: %t\n", p.Enabled)
		fmt.Fprintf(&sb, "category: %s\n", p.Category)
		fmt.Fprintf(&sb, "author: %s\n", p.Author)
		fmt.Fprintf(&sb, "version: %s\n", p.Version)
		fmt.Fprintf(&sb, "download_url: %s\n", p.DownloadURL)
		fmt.Fprintf(&sb, "update_url: %s\n", p.UpdateURL)
		fmt.Fprintf(&sb, "description: %s\n", p.Description)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- read_script ---

func readScriptTool() mcp.Tool {
	return mcp.NewTool("read_script",
		mcp.WithDescription("Read the installed source of a plugin."),
		mcp.WithString("plugin",
			mcp.Description("Plugin handle or declared id"),
			mcp.Required(),
		),
	)
}

func readScriptHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := commands.NewShowPluginCommand(d.Catalog, req.GetString("plugin", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		if p.Internal {
			content, err := d.Storage.ReadPlugin(p.Filename)
			if err != nil {
				return toolError(fmt.Errorf("reading plugin: %w", err))
			}
			return mcp.NewToolResultText(string(content)), nil
		}

		_, release, err := d.Folder.Acquire(ctx)
		if err != nil {
			return toolError(err)
		}
		defer release()
		content, err := d.Folder.ReadPlugin(p.Filename)
		if err != nil {
			return toolError(fmt.Errorf("reading plugin: %w", err))
		}
		return mcp.NewToolResultText(string(content)), nil
	}
}

// --- status ---

func statusTool() mcp.Tool {
	return mcp.NewTool("status",
		mcp.WithDescription("Report the installed main script version, the updater state and the external folder."),
	)
}

func statusHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sb strings.Builder
		meta, err := commands.NewMainScriptVersionCommand(d.Storage).Execute(ctx)
		switch {
		case errors.Is(err, application.ErrNotFound):
			sb.WriteString("main_script: not installed\n")
		case err != nil:
			return toolError(err)
		default:
			fmt.Fprintf(&sb, "main_script: %s %s\n", meta.Name, meta.Version)
		}

		fmt.Fprintf(&sb, "updater: %s\n", d.Updater.Status())
		if snap := d.Updater.Progress().Snapshot(); snap.Total > 0 {
			fmt.Fprintf(&sb, "progress: %d/%d\n", snap.Completed, snap.Total)
		}
		folder := d.Settings.ExternalFolderPath()
		if folder == "" {
			folder = "not configured"
		}
		fmt.Fprintf(&sb, "external_folder: %s\n", folder)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- community_list ---

func communityListTool() mcp.Tool {
	return mcp.NewTool("community_list",
		mcp.WithDescription("List community plugins with status available, added or outdated."),
		mcp.WithString("query",
			mcp.Description("Text matched against name and author"),
		),
		mcp.WithBoolean("hide_added",
			mcp.Description("Hide plugins already in the catalog and current"),
		),
	)
}

func communityListHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewListCommunityCommand(d.Community, d.Catalog)
		cmd.Query = req.GetString("query", "")
		cmd.HideAdded = req.GetBool("hide_added", false)

		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(result.Plugins, formatCommunityPlugin)
	}
}

// --- inject ---

func injectTool() mcp.Tool {
	return mcp.NewTool("inject",
		mcp.WithDescription(`Build the injection bundle {"scripts": [...]}: the main script followed by every enabled plugin, each wrapped with GM_info.`),
	)
}

func injectHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		bundle, err := commands.NewBuildInjectionCommand(d.Catalog, d.Storage, d.Folder, d.Logger, d.ScriptsEnabled).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		data, err := json.Marshal(bundle)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatPlugin(p *application.Plugin) string {
	state := " "
	if p.Enabled {
		state = "*"
	}
	kind := "int"
	if !p.Internal {
		kind = "ext"
	}
	return fmt.Sprintf("%s %s  %s  %s  %s  %s", state, kind, p.Category, p.DisplayName(), p.Version, p.Identifier)
}

func formatCommunityPlugin(p *application.CommunityPlugin) string {
	line := fmt.Sprintf("%s  %s/%s  %s  %s", p.Status, p.Author, p.Filename, p.Metadata.Name, p.Metadata.Version)
	if len(p.AntiFeatures) > 0 {
		line += "  anti-features: " + strings.Join(p.AntiFeatures, ", ")
	}
	return line
}
