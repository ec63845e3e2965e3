package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
)

type testDoc struct {
	d          *dom.Dom
	page, conn *dom.Node
	button     *dom.Node
}

func newTestDoc(t *testing.T) testDoc {
	t.Helper()
	var td testDoc
	d := dom.CreateDom()

	page, err := dom.Create(d, dom.KindPage, dom.Init{Name: "Home"})
	require.NoError(t, err)
	d, err = dom.Attach(d, page, d.Root(), "pages", "")
	require.NoError(t, err)
	td.page, _ = d.Lookup(page.ID)

	btn, err := dom.CreateElement(d, "Button", api.BindableValues{"label": api.Const("Buy")}, "")
	require.NoError(t, err)
	d, err = dom.Attach(d, btn, page.ID, "children", "")
	require.NoError(t, err)
	td.button, _ = d.Lookup(btn.ID)

	conn, err := dom.Create(d, dom.KindConnection, dom.Init{
		Name:       "payments",
		Attributes: dom.ConnectionAttributes{Params: api.Secret(map[string]any{"apiKey": "sk_live_123"})},
	})
	require.NoError(t, err)
	d, err = dom.Attach(d, conn, d.Root(), "connections", "")
	require.NoError(t, err)
	td.conn, _ = d.Lookup(conn.ID)

	td.d = d
	return td
}

func newTestServer(td testDoc) *Server {
	return New(func(context.Context) (*dom.Dom, error) { return td.d, nil }, "test")
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestGetNode(t *testing.T) {
	td := newTestDoc(t)
	s := newTestServer(td)

	out, isErr := call(t, s.handleGetNode, map[string]any{"ref": "Button"})
	require.False(t, isErr, out)
	var got struct {
		Node      map[string]any `json:"node"`
		Ancestors []string       `json:"ancestors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, string(td.button.ID), got.Node["id"])
	assert.Equal(t, []string{"Application", "Home"}, got.Ancestors)

	out, isErr = call(t, s.handleGetNode, map[string]any{"ref": string(td.page.ID)})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"Home"`)

	_, isErr = call(t, s.handleGetNode, map[string]any{"ref": "nothing"})
	assert.True(t, isErr)

	_, isErr = call(t, s.handleGetNode, map[string]any{})
	assert.True(t, isErr)
}

func TestConnectionsStayPrivate(t *testing.T) {
	td := newTestDoc(t)
	s := newTestServer(td)

	_, isErr := call(t, s.handleGetNode, map[string]any{"ref": "payments"})
	assert.True(t, isErr, "connections are not part of the render tree")

	out, isErr := call(t, s.handleQuery, map[string]any{"selector": "$..*"})
	require.False(t, isErr, out)
	assert.NotContains(t, out, "sk_live_123")
	assert.False(t, strings.Contains(out, string(td.conn.ID)))

	out, isErr = call(t, s.handleListChildren, map[string]any{"ref": "Application"})
	require.False(t, isErr, out)
	assert.NotContains(t, out, "connections")
}

func TestListChildren(t *testing.T) {
	td := newTestDoc(t)
	s := newTestServer(td)

	out, isErr := call(t, s.handleListChildren, map[string]any{"ref": "Home"})
	require.False(t, isErr, out)
	var got map[string][]nodeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got["children"], 1)
	assert.Equal(t, td.button.ID, got["children"][0].ID)

	out, isErr = call(t, s.handleListChildren, map[string]any{"ref": "Home", "namespace": "queries"})
	require.False(t, isErr, out)
	assert.JSONEq(t, `{}`, out)
}

func TestFindNode(t *testing.T) {
	td := newTestDoc(t)
	s := newTestServer(td)

	out, isErr := call(t, s.handleFindNode, map[string]any{"kind": "element"})
	require.False(t, isErr, out)
	var got []nodeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Button", got[0].Name)

	out, isErr = call(t, s.handleFindNode, map[string]any{"kind": "connection"})
	require.False(t, isErr, out)
	assert.JSONEq(t, `[]`, out)

	_, isErr = call(t, s.handleFindNode, map[string]any{"kind": "widget"})
	assert.True(t, isErr)
}

func TestQuery(t *testing.T) {
	td := newTestDoc(t)
	s := newTestServer(td)

	out, isErr := call(t, s.handleQuery, map[string]any{"selector": "$.nodes[?(@.kind == 'page')].name"})
	require.False(t, isErr, out)
	assert.JSONEq(t, `["Home"]`, out)

	out, isErr = call(t, s.handleQuery, map[string]any{"selector": "$.nodes[?(@.kind == 'query')]"})
	require.False(t, isErr, out)
	assert.JSONEq(t, `[]`, out)

	_, isErr = call(t, s.handleQuery, map[string]any{"selector": "$.nodes[?("})
	assert.True(t, isErr)
}

func TestSourceError(t *testing.T) {
	s := New(func(context.Context) (*dom.Dom, error) { return nil, errors.New("store offline") }, "test")
	out, isErr := call(t, s.handleFindNode, map[string]any{"kind": "page"})
	assert.True(t, isErr)
	assert.Contains(t, out, "store offline")
}
