// Package lint syntax-checks the expression bindings and code components of
// a document with tree-sitter. Nothing is evaluated.
package lint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
)

// Severity tells blocking findings from advisory ones.
type Severity int

const (
	SeverityError   Severity = iota // the binding can't be evaluated
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is one finding on one bindable property.
type Diagnostic struct {
	// Key addresses the property as <nodeId>.<namespace>.<property>, the
	// key evaluators report their errors under.
	Key      string
	NodeID   dom.NodeID
	Line     uint32 // 0-indexed, within the source
	Column   uint32 // 0-indexed, within the source
	Severity Severity
	Message  string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: [%s] %s", d.Key, d.Line+1, d.Column+1, d.Severity, d.Message)
}

// Key builds the evaluator error key of a property.
func Key(id dom.NodeID, namespace, property string) string {
	return string(id) + "." + namespace + "." + property
}

// Position locates a syntax problem within a source string.
type Position struct {
	Line   uint32
	Column uint32
}

// assignmentQuery finds assignments, which bindings are not meant to make.
const assignmentQuery = `[(assignment_expression) (augmented_assignment_expression) (update_expression)] @assign`

// CheckExpression parses src as a single JavaScript expression and returns
// the positions of syntax errors. A source that is not exactly one
// expression, such as `a, b` or `a) + (b`, is reported as an error too.
func CheckExpression(ctx context.Context, src string) ([]Position, error) {
	// parenthesized so object literals parse as expressions, not blocks
	wrapped := []byte("(" + src + "\n)")
	root, err := parse(ctx, wrapped, javascript.GetLanguage())
	if err != nil {
		return nil, err
	}
	found := errorPositions(root)
	if len(found) == 0 {
		if p, ok := notSingleExpression(root, uint32(len(wrapped))); ok {
			found = []Position{p}
		}
	}
	var out []Position
	for _, p := range found {
		if p.Line == 0 && p.Column > 0 {
			p.Column--
		}
		out = append(out, p)
	}
	return out, nil
}

// notSingleExpression reports where an error-free parse of a wrapped source
// stops being one parenthesized expression spanning all size bytes.
func notSingleExpression(root *sitter.Node, size uint32) (Position, bool) {
	var stmts []*sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if c := root.NamedChild(i); c.Type() != "comment" {
			stmts = append(stmts, c)
		}
	}
	if len(stmts) == 0 {
		return Position{}, true
	}
	if len(stmts) > 1 {
		return startOf(stmts[1]), true
	}
	stmt := stmts[0]
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return startOf(stmt), true
	}
	expr := stmt.NamedChild(0)
	if expr.Type() != "parenthesized_expression" || expr.StartByte() != 0 || expr.EndByte() != size {
		return secondToken(expr), true
	}
	for i := 0; i < int(expr.NamedChildCount()); i++ {
		if c := expr.NamedChild(i); c.Type() == "sequence_expression" {
			return secondToken(c), true
		}
	}
	return Position{}, false
}

func startOf(n *sitter.Node) Position {
	return Position{Line: n.StartPoint().Row, Column: n.StartPoint().Column}
}

// secondToken points at the operator or separator following n's first child.
func secondToken(n *sitter.Node) Position {
	if n.ChildCount() > 1 {
		return startOf(n.Child(1))
	}
	return startOf(n)
}

// CheckCode parses src as a TSX module and returns the positions of syntax
// errors.
func CheckCode(ctx context.Context, src string) ([]Position, error) {
	root, err := parse(ctx, []byte(src), tsx.GetLanguage())
	if err != nil {
		return nil, err
	}
	return errorPositions(root), nil
}

func parse(ctx context.Context, content []byte, lang *sitter.Language) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root")
	}
	return root, nil
}

func errorPositions(root *sitter.Node) []Position {
	if !root.HasError() {
		return nil
	}
	var out []Position
	collectErrors(root, &out)
	if len(out) == 0 {
		out = append(out, Position{})
	}
	return out
}

// collectErrors gathers all ERROR/MISSING nodes in the tree.
func collectErrors(node *sitter.Node, out *[]Position) {
	if node.IsError() || node.IsMissing() {
		*out = append(*out, Position{
			Line:   node.StartPoint().Row,
			Column: node.StartPoint().Column,
		})
		return // don't recurse into error children
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, out)
		}
	}
}

// assignments returns the positions of assignments in a valid expression.
func assignments(ctx context.Context, src string) ([]Position, error) {
	root, err := parse(ctx, []byte("("+src+"\n)"), javascript.GetLanguage())
	if err != nil {
		return nil, err
	}
	q, err := sitter.NewQuery([]byte(assignmentQuery), javascript.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, root)

	var out []Position
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			p := Position{Line: c.Node.StartPoint().Row, Column: c.Node.StartPoint().Column}
			if p.Line == 0 && p.Column > 0 {
				p.Column--
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// Lint checks every node of d and returns diagnostics ordered by key.
func Lint(ctx context.Context, d *dom.Dom) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, n := range d.Nodes() {
		for _, b := range n.Bindings() {
			found, err := lintBinding(ctx, n, b)
			if err != nil {
				return nil, err
			}
			diags = append(diags, found...)
		}
		diags = append(diags, lintReferences(d, n)...)
	}
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Key < diags[j].Key })
	return diags, nil
}

func lintBinding(ctx context.Context, n *dom.Node, b dom.Binding) ([]Diagnostic, error) {
	key := Key(n.ID, b.Namespace, b.Property)
	diag := func(p Position, sev Severity, msg string) Diagnostic {
		return Diagnostic{Key: key, NodeID: n.ID, Line: p.Line, Column: p.Column, Severity: sev, Message: msg}
	}

	switch {
	case b.Value.Kind == api.BindingExpression:
		if strings.TrimSpace(b.Value.Source) == "" {
			return []Diagnostic{diag(Position{}, SeverityWarning, "empty expression")}, nil
		}
		errs, err := CheckExpression(ctx, b.Value.Source)
		if err != nil {
			return nil, err
		}
		var out []Diagnostic
		for _, p := range errs {
			out = append(out, diag(p, SeverityError, "syntax error in expression"))
		}
		if len(out) > 0 {
			return out, nil
		}
		assigns, err := assignments(ctx, b.Value.Source)
		if err != nil {
			return nil, err
		}
		for _, p := range assigns {
			out = append(out, diag(p, SeverityWarning, "expression assigns to a variable"))
		}
		return out, nil

	case n.Kind == dom.KindCodeComponent && b.Namespace == dom.NamespaceAttributes && b.Property == "code":
		src, ok := b.Value.Value.(string)
		if b.Value.Kind != api.BindingConst || !ok {
			return []Diagnostic{diag(Position{}, SeverityError, "code must be a constant string")}, nil
		}
		errs, err := CheckCode(ctx, src)
		if err != nil {
			return nil, err
		}
		var out []Diagnostic
		for _, p := range errs {
			out = append(out, diag(p, SeverityError, "syntax error in component source"))
		}
		return out, nil
	}
	return nil, nil
}

// lintReferences reports queries pointing at connections that don't exist.
func lintReferences(d *dom.Dom, n *dom.Node) []Diagnostic {
	if n.Kind != dom.KindQuery {
		return nil
	}
	ref := n.Attributes.Get("connectionId")
	if ref == nil {
		return nil
	}
	id, err := api.FromConst[string](ref)
	if err != nil || id == "" {
		return nil
	}
	msg := fmt.Sprintf("connection %q not found", id)
	_, ok, err := d.LookupAs(dom.NodeID(id), dom.KindConnection)
	switch {
	case err != nil:
		target, _ := d.Lookup(dom.NodeID(id))
		msg = fmt.Sprintf("%q is a %s, not a connection", id, target.Kind)
	case ok:
		return nil
	}
	return []Diagnostic{{
		Key:      Key(n.ID, dom.NamespaceAttributes, "connectionId"),
		NodeID:   n.ID,
		Severity: SeverityWarning,
		Message:  msg,
	}}
}
