package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"intelstack/internal/application/commands"
	"intelstack/internal/domain"
)

// RegisterWriteTools adds all tools that change scripts or the catalog.
func RegisterWriteTools(s *server.MCPServer, d Deps) {
	s.AddTool(updateTool(), updateHandler(d))
	s.AddTool(syncTool(), syncHandler(d))
	s.AddTool(setEnabledTool(), setEnabledHandler(d))
	s.AddTool(addPluginTool(), addPluginHandler(d))
	s.AddTool(communityAddTool(), communityAddHandler(d))
}

// --- update ---

func updateTool() mcp.Tool {
	return mcp.NewTool("update",
		mcp.WithDescription("Update the main script, bundled plugins and external plugins with a remote URL. Returns immediately if an update is already running."),
	)
}

func updateHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := d.Updater.RunUpdate(ctx)
		if report != nil && report.Skipped {
			return mcp.NewToolResultText("An update is already running."), nil
		}

		var summary string
		if report != nil {
			summary = fmt.Sprintf("Checked %d scripts: %d updated, %d up to date, %d missing, %d failed.",
				report.Targets, report.Installed, report.UpToDate, report.Missing, report.Failed)
		}
		if err != nil {
			return toolError(fmt.Errorf("%s %w", summary, err))
		}
		return mcp.NewToolResultText(summary), nil
	}
}

// --- sync_external ---

func syncTool() mcp.Tool {
	return mcp.NewTool("sync_external",
		mcp.WithDescription("Reconcile the catalog with the external plugin folder."),
	)
}

func syncHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewSyncExternalCommand(d.Catalog, d.Folder, d.Settings, d.Metrics, d.Logger).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- set_enabled ---

func setEnabledTool() mcp.Tool {
	return mcp.NewTool("set_enabled",
		mcp.WithDescription("Enable or disable a plugin for injection."),
		mcp.WithString("plugin",
			mcp.Description("Plugin handle or declared id"),
			mcp.Required(),
		),
		mcp.WithBoolean("enabled",
			mcp.Description("true to enable, false to disable"),
			mcp.Required(),
		),
	)
}

func setEnabledHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		enabled, err := req.RequireBool("enabled")
		if err != nil {
			return toolError(err)
		}
		result, err := commands.NewSetEnabledCommand(d.Catalog, req.GetString("plugin", ""), enabled).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- add_plugin ---

func addPluginTool() mcp.Tool {
	return mcp.NewTool("add_plugin",
		mcp.WithDescription("Add an external plugin from a URL or from userscript source code. Give exactly one of url or code."),
		mcp.WithString("url",
			mcp.Description("Script URL; https is assumed when no scheme is given"),
		),
		mcp.WithString("code",
			mcp.Description("Complete userscript source including the ==UserScript== header"),
		),
		mcp.WithString("filename",
			mcp.Description("File name without .user.js; derived from the URL or plugin name when omitted"),
		),
		mcp.WithBoolean("replace",
			mcp.Description("Overwrite an existing file with the same name"),
		),
	)
}

func addPluginHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewAddPluginCommand(d.Catalog, d.Folder, d.Installer, d.Logger)
		cmd.URL = req.GetString("url", "")
		cmd.Code = req.GetString("code", "")
		cmd.Filename = req.GetString("filename", "")
		cmd.Replace = req.GetBool("replace", false)
		cmd.Claims = d.Updater.Claims()

		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- community_add ---

func communityAddTool() mcp.Tool {
	return mcp.NewTool("community_add",
		mcp.WithDescription("Install or upgrade a community plugin in the external folder."),
		mcp.WithString("plugin",
			mcp.Description("author/filename as shown by community_list"),
			mcp.Required(),
		),
	)
}

func communityAddHandler(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref := req.GetString("plugin", "")
		author, filename, ok := strings.Cut(ref, "/")
		if !ok {
			return toolError(fmt.Errorf("expected author/filename, got: %s", ref))
		}
		filename = strings.TrimSuffix(filename, domain.UserScriptSuffix)

		cmd := commands.NewAddCommunityPluginCommand(d.Community, d.Catalog, d.Folder, d.Installer, d.Logger, author, filename)
		cmd.Claims = d.Updater.Claims()
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
