// Package mcpserver exposes read-only document tools over the Model Context
// Protocol. Tools only ever see the render tree of a snapshot, so secrets
// and server-only nodes never leave the process.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/domquery"
)

// Source returns the snapshot tools should answer from.
type Source func(ctx context.Context) (*dom.Dom, error)

// Server wires the document tools into an MCP server.
type Server struct {
	src Source
	mcp *server.MCPServer
}

// New builds a server answering from src.
func New(src Source, version string) *Server {
	s := &Server{
		src: src,
		mcp: server.NewMCPServer("toolpad", version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get one node of the application by id or name"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Node id or node name")),
	), s.handleGetNode)

	s.mcp.AddTool(mcp.NewTool("list_children",
		mcp.WithDescription("List the children of a node grouped by namespace, in order"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Parent node id or name")),
		mcp.WithString("namespace", mcp.Description("Only list this namespace")),
	), s.handleListChildren)

	s.mcp.AddTool(mcp.NewTool("find_node",
		mcp.WithDescription("Find nodes by kind"),
		mcp.WithString("kind", mcp.Required(),
			mcp.Description("Node kind: application, theme, page, element, codeComponent or query")),
	), s.handleFindNode)

	s.mcp.AddTool(mcp.NewTool("query",
		mcp.WithDescription("Evaluate a JSONPath selector over the serialized render tree"),
		mcp.WithString("selector", mcp.Required(), mcp.Description("JSONPath, e.g. $.nodes[?(@.kind == 'page')].name")),
	), s.handleQuery)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves the tools on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	log.Printf("MCP: serving on stdio")
	return server.ServeStdio(s.mcp)
}

// renderTree is the only view tools get.
func (s *Server) renderTree(ctx context.Context) (*dom.Dom, error) {
	d, err := s.src(ctx)
	if err != nil {
		return nil, err
	}
	return dom.Project(d), nil
}

// nodeSummary is the short form used in listings.
type nodeSummary struct {
	ID         dom.NodeID `json:"id"`
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	ParentProp string     `json:"parentProp,omitempty"`
}

func summarize(nodes []*dom.Node) []nodeSummary {
	out := make([]nodeSummary, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeSummary{ID: n.ID, Kind: n.Kind.String(), Name: n.Name, ParentProp: n.ParentProp})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.renderTree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := dom.Resolve(d, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ancestors []string
	for _, a := range dom.AncestorsOf(d, n) {
		ancestors = append(ancestors, a.Name)
	}
	return jsonResult(struct {
		Node      *dom.Node `json:"node"`
		Ancestors []string  `json:"ancestors"`
	}{n, ancestors})
}

func (s *Server) handleListChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	only := req.GetString("namespace", "")
	d, err := s.renderTree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := dom.Resolve(d, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make(map[string][]nodeSummary)
	for ns, children := range dom.ChildrenOf(d, n.ID) {
		if only != "" && ns != only {
			continue
		}
		out[ns] = summarize(children)
	}
	return jsonResult(out)
}

func (s *Server) handleFindNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := dom.ParseKind(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.renderTree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodes := dom.NodesOfKind(d, kind)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return jsonResult(summarize(nodes))
}

func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selector, err := req.RequireString("selector")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.renderTree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := domquery.Select(d, selector)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if results == nil {
		results = []any{}
	}
	return jsonResult(results)
}
