package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/service"
	"github.com/Yeseh/cortex-sub001/internal/store"
)

// Tool names.
const (
	ToolAddMemory    = "add_memory"
	ToolGetMemory    = "get_memory"
	ToolUpdateMemory = "update_memory"
	ToolRemoveMemory = "remove_memory"
	ToolMoveMemory   = "move_memory"
	ToolListMemories = "list_memories"
	ToolReindexStore = "reindex_store"
	ToolPrune        = "prune_memories"
)

const pathHelp = "Memory path: lowercase kebab-case segments, category/.../slug"

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolAddMemory,
				mcp.WithDescription("Store a new memory. Missing categories are created."),
				mcp.WithString("path", mcp.Required(), mcp.Description(pathHelp)),
				mcp.WithString("content", mcp.Required(), mcp.Description("Memory body")),
				mcp.WithArray("tags", mcp.Description("Tags"), mcp.WithStringItems()),
				mcp.WithString("source", mcp.Description("Who produced the memory, default \"user\"")),
				mcp.WithString("expires_at", mcp.Description("Expiry, RFC 3339")),
				mcp.WithString("summary", mcp.Description("One-line summary kept in the category index")),
			),
			Handler: s.addMemory,
		},
		{
			Tool: mcp.NewTool(ToolGetMemory,
				mcp.WithDescription("Read one memory with its metadata."),
				mcp.WithString("path", mcp.Required(), mcp.Description(pathHelp)),
				mcp.WithBoolean("include_expired", mcp.Description("Return the memory even if it has expired")),
			),
			Handler: s.getMemory,
		},
		{
			Tool: mcp.NewTool(ToolUpdateMemory,
				mcp.WithDescription("Change the body or metadata of a memory. Omitted fields are kept."),
				mcp.WithString("path", mcp.Required(), mcp.Description(pathHelp)),
				mcp.WithString("content", mcp.Description("New body")),
				mcp.WithArray("tags", mcp.Description("New tags; an empty list clears them"), mcp.WithStringItems()),
				mcp.WithString("expires_at", mcp.Description("New expiry, RFC 3339")),
				mcp.WithBoolean("clear_expiry", mcp.Description("Remove the expiry")),
				mcp.WithString("summary", mcp.Description("New index summary")),
			),
			Handler: s.updateMemory,
		},
		{
			Tool: mcp.NewTool(ToolRemoveMemory,
				mcp.WithDescription("Delete a memory."),
				mcp.WithString("path", mcp.Required(), mcp.Description(pathHelp)),
			),
			Handler: s.removeMemory,
		},
		{
			Tool: mcp.NewTool(ToolMoveMemory,
				mcp.WithDescription("Move a memory. The destination category must exist."),
				mcp.WithString("from", mcp.Required(), mcp.Description(pathHelp)),
				mcp.WithString("to", mcp.Required(), mcp.Description(pathHelp)),
			),
			Handler: s.moveMemory,
		},
		{
			Tool: mcp.NewTool(ToolListMemories,
				mcp.WithDescription("List the memories and subcategories directly inside a category."),
				mcp.WithString("category", mcp.Description("Category path; empty lists the store root")),
				mcp.WithBoolean("include_expired", mcp.Description("Include expired memories")),
				mcp.WithString("match", mcp.Description("Glob on memory paths, e.g. project/*-notes")),
			),
			Handler: s.listMemories,
		},
		{
			Tool: mcp.NewTool(ToolReindexStore,
				mcp.WithDescription("Rebuild every category index from the memory files."),
			),
			Handler: s.reindexStore,
		},
		{
			Tool: mcp.NewTool(ToolPrune,
				mcp.WithDescription("Remove expired memories."),
				mcp.WithBoolean("dry_run", mcp.Description("Only report what would be removed")),
			),
			Handler: s.pruneMemories,
		},
	}
}

// memoryView is the JSON shape returned by get_memory.
type memoryView struct {
	Path      string     `json:"path"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) addMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return argError(err), nil
	}

	content, err := req.RequireString("content")
	if err != nil {
		return argError(err), nil
	}

	in := service.AddInput{
		Path:    path,
		Content: content,
		Tags:    req.GetStringSlice("tags", nil),
		Source:  req.GetString("source", ""),
		Summary: req.GetString("summary", ""),
	}

	in.ExpiresAt, err = optionalTime(req, "expires_at")
	if err != nil {
		return argError(err), nil
	}

	_, err = s.svc.AddMemory(ctx, in)
	if err != nil {
		return s.failure(ctx, ToolAddMemory, err), nil
	}

	return mcp.NewToolResultText("added " + path), nil
}

func (s *Server) getMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return argError(err), nil
	}

	m, err := s.svc.GetMemory(ctx, path, service.GetOptions{IncludeExpired: req.GetBool("include_expired", false)})
	if err != nil {
		return s.failure(ctx, ToolGetMemory, err), nil
	}

	return jsonResult(newMemoryView(path, m))
}

func (s *Server) updateMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return argError(err), nil
	}

	args := req.GetArguments()
	in := service.UpdateInput{
		Path:        path,
		ClearExpiry: req.GetBool("clear_expiry", false),
		Summary:     req.GetString("summary", ""),
	}

	if _, ok := args["content"]; ok {
		content, err := req.RequireString("content")
		if err != nil {
			return argError(err), nil
		}

		in.Content = &content
	}

	if _, ok := args["tags"]; ok {
		in.Tags = req.GetStringSlice("tags", []string{})
	}

	in.ExpiresAt, err = optionalTime(req, "expires_at")
	if err != nil {
		return argError(err), nil
	}

	_, err = s.svc.UpdateMemory(ctx, in)
	if err != nil {
		return s.failure(ctx, ToolUpdateMemory, err), nil
	}

	return mcp.NewToolResultText("updated " + path), nil
}

func (s *Server) removeMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return argError(err), nil
	}

	err = s.svc.RemoveMemory(ctx, path)
	if err != nil {
		return s.failure(ctx, ToolRemoveMemory, err), nil
	}

	return mcp.NewToolResultText("removed " + path), nil
}

func (s *Server) moveMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return argError(err), nil
	}

	to, err := req.RequireString("to")
	if err != nil {
		return argError(err), nil
	}

	err = s.svc.MoveMemory(ctx, from, to)
	if err != nil {
		return s.failure(ctx, ToolMoveMemory, err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("moved %s to %s", from, to)), nil
}

func (s *Server) listMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listing, err := s.svc.List(ctx, req.GetString("category", ""), service.ListOptions{
		IncludeExpired: req.GetBool("include_expired", false),
		Match:          req.GetString("match", ""),
	})
	if err != nil {
		return s.failure(ctx, ToolListMemories, err), nil
	}

	return jsonResult(listing)
}

func (s *Server) reindexStore(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Reindex(ctx)
	if err != nil {
		return s.failure(ctx, ToolReindexStore, err), nil
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return jsonResult(struct {
		Categories int      `json:"categories"`
		Memories   int      `json:"memories"`
		Warnings   []string `json:"warnings"`
	}{res.Categories, res.Memories, warnings})
}

func (s *Server) pruneMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Prune(ctx, service.PruneOptions{DryRun: req.GetBool("dry_run", false)})
	if err != nil {
		return s.failure(ctx, ToolPrune, err), nil
	}

	return jsonResult(res)
}

// failure turns a core error into a tool error result.
func (s *Server) failure(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	code := store.CodeOf(err)

	s.logger.DebugContext(ctx, "tool failed", "tool", tool, "code", code, "err", err)

	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, store.Message(err)))
}

func argError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", store.CodeInvalidArgument, err))
}

func optionalTime(req mcp.CallToolRequest, key string) (*time.Time, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC 3339: %w", key, err)
	}

	return &t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}

func newMemoryView(path string, m *memory.Memory) memoryView {
	tags := m.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}

	return memoryView{
		Path:      path,
		Content:   m.Content,
		Tags:      tags,
		Source:    m.Metadata.Source,
		CreatedAt: m.Metadata.CreatedAt,
		UpdatedAt: m.Metadata.UpdatedAt,
		ExpiresAt: m.Metadata.ExpiresAt,
	}
}
