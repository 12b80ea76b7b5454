package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/warriorapp/warriord/internal/engine"
	"github.com/warriorapp/warriord/internal/king"
	"github.com/warriorapp/warriord/internal/rank"
	"github.com/warriorapp/warriord/internal/storage"
	"github.com/warriorapp/warriord/internal/xp"
)

// MCPDeps holds dependencies for the MCP server. MCP runs over stdio for a
// single local user, resolved by email at tool-call time so the account can
// be created after the daemon starts.
type MCPDeps struct {
	Store     *storage.Store
	Tasks     *engine.TaskService
	Chatter   king.Chatter // optional; nil disables suggest_quests
	UserEmail string
}

// NewMCPServer creates an MCP server exposing the warrior's tasks and
// progression to local agent clients.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"warriord",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("warriord is a gamified task tracker. Tasks earn XP on completion; XP drives the warrior's rank."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List the warrior's tasks, optionally filtered by status (pending, in_progress, completed, cancelled)."),
			mcp.WithString("status", mcp.Description("Status filter; empty for all")),
		),
		mcpListTasks(deps),
	)

	s.AddTool(
		mcp.NewTool("create_task",
			mcp.WithDescription("Create a new pending task for the warrior."),
			mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("category", mcp.Description("Category id (default: personal)")),
			mcp.WithString("task_type", mcp.Description("main or side (default: main)")),
		),
		mcpCreateTask(deps),
	)

	s.AddTool(
		mcp.NewTool("complete_task",
			mcp.WithDescription("Complete a task, awarding its XP to the warrior."),
			mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		),
		mcpCompleteTask(deps),
	)

	s.AddTool(
		mcp.NewTool("warrior_stats",
			mcp.WithDescription("Get the warrior's XP, rank progress, completion counts, and throne-room gate."),
		),
		mcpWarriorStats(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_quests",
			mcp.WithDescription("Ask the King for quest suggestions based on the warrior's task archive."),
		),
		mcpSuggestQuests(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"warrior://profile",
			"Warrior Profile",
			mcp.WithResourceDescription("Current warrior profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"warrior://ranks",
			"Rank Tiers",
			mcp.WithResourceDescription("The rank tier table as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRanks(),
	)

	return s
}

// resolveUser maps the configured email to a user ID.
func resolveUser(deps MCPDeps) (string, error) {
	if deps.UserEmail == "" {
		return "", fmt.Errorf("no MCP user configured; set WARRIORD_MCP_USER to an account email")
	}
	u, err := deps.Store.GetUserByEmail(deps.UserEmail)
	if err != nil {
		return "", fmt.Errorf("resolving MCP user %q: %w", deps.UserEmail, err)
	}
	return u.ID, nil
}

func mcpListTasks(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := resolveUser(deps)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		tasks, err := deps.Tasks.ListTasks(uid, req.GetString("status", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("listing tasks: %v", err)), nil
		}
		if tasks == nil {
			tasks = []storage.Task{}
		}

		b, err := json.Marshal(tasks)
		if err != nil {
			return mcpError(fmt.Sprintf("marshaling tasks: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCreateTask(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := resolveUser(deps)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}

		task, err := deps.Tasks.CreateTask(uid, engine.CreateTaskInput{
			Title:       title,
			Description: req.GetString("description", ""),
			Category:    req.GetString("category", ""),
			TaskType:    req.GetString("task_type", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("creating task: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Created task %s (%s, %s)", task.ID, task.Category, task.TaskType)), nil
	}
}

func mcpCompleteTask(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := resolveUser(deps)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		task, profile, err := deps.Tasks.CompleteTask(uid, id)
		if err != nil {
			return mcpError(fmt.Sprintf("completing task: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Completed %q for %d XP. Total XP: %d, rank: %s",
			task.Title, task.XP, profile.TotalXP, profile.Rank)), nil
	}
}

func mcpWarriorStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := resolveUser(deps)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		stats, err := deps.Tasks.Stats(uid)
		if err != nil {
			return mcpError(fmt.Sprintf("loading stats: %v", err)), nil
		}
		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("marshaling stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSuggestQuests(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Chatter == nil {
			return mcpError("quest suggestions not available: no model configured"), nil
		}
		uid, err := resolveUser(deps)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		profile, err := deps.Tasks.Profile(uid)
		if err != nil {
			return mcpError(fmt.Sprintf("loading profile: %v", err)), nil
		}

		recent, err := deps.Store.ListRecentCompleted(uid, 50)
		if err != nil {
			return mcpError(fmt.Sprintf("loading archive: %v", err)), nil
		}
		completed := make([]king.CompletedTask, len(recent))
		for i, t := range recent {
			completed[i] = king.CompletedTask{
				Title:       t.Title,
				Description: t.Description,
				Category:    t.Category,
				TaskKind:    xp.TaskKind(t.TaskType),
			}
		}

		categories, err := deps.Tasks.Categories().Known(uid)
		if err != nil {
			return mcpError(fmt.Sprintf("loading categories: %v", err)), nil
		}
		pending, err := deps.Store.CountOpenTasks(uid)
		if err != nil {
			return mcpError(fmt.Sprintf("counting open tasks: %v", err)), nil
		}

		agent := king.New(deps.Chatter, king.Personality(profile.AIPersonality))
		quests, _, err := agent.GenerateQuests(ctx, completed, profile.TotalXP, pending, categories)
		if err != nil {
			return mcpError(fmt.Sprintf("quest generation failed: %v", err)), nil
		}

		b, err := json.Marshal(quests)
		if err != nil {
			return mcpError(fmt.Sprintf("marshaling quests: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uid, err := resolveUser(deps)
		if err != nil {
			return nil, err
		}
		p, err := deps.Tasks.Profile(uid)
		if err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshaling profile: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRanks() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(rank.Tiers)
		if err != nil {
			return nil, fmt.Errorf("marshaling rank tiers: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
