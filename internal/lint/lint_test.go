package lint

import (
	"context"
	"testing"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExpression_Valid(t *testing.T) {
	ctx := context.Background()
	for _, src := range []string{
		"a + b",
		"page.title",
		"users.data.map(u => u.name)",
		"{ a: 1, b: [1, 2] }",
		"`hello ${name}`",
		"cond ? 'yes' : 'no'",
	} {
		errs, err := CheckExpression(ctx, src)
		require.NoError(t, err)
		assert.Empty(t, errs, "%q should parse", src)
	}
}

func TestCheckExpression_Broken(t *testing.T) {
	ctx := context.Background()
	for _, src := range []string{
		"a +",
		"foo(",
		"a; b",
		"if (a) b",
		"a, b",
		"a) + (b",
		"",
	} {
		errs, err := CheckExpression(ctx, src)
		require.NoError(t, err)
		assert.NotEmpty(t, errs, "%q should not parse", src)
	}
}

func TestCheckCode(t *testing.T) {
	ctx := context.Background()

	errs, err := CheckCode(ctx, `import * as React from 'react';

export default function Hello({ name }: { name: string }) {
  return <div>Hello {name}</div>;
}
`)
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = CheckCode(ctx, `export default function Hello( {
  return <div>;
}
`)
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}

func TestLint(t *testing.T) {
	ctx := context.Background()
	d := dom.CreateDom()

	page, err := dom.Create(d, dom.KindPage, dom.Init{Name: "Home"})
	require.NoError(t, err)
	d, err = dom.Attach(d, page, d.Root(), "pages", "")
	require.NoError(t, err)

	btn, err := dom.CreateElement(d, "Button", api.BindableValues{
		"label":   api.Expression("page.title"),
		"onClick": api.Expression("a +"),
		"count":   api.Expression("n = n + 1"),
		"hint":    api.Expression("  "),
		"variant": api.Const("contained"),
	}, "")
	require.NoError(t, err)
	d, err = dom.Attach(d, btn, page.ID, "children", "")
	require.NoError(t, err)

	comp, err := dom.Create(d, dom.KindCodeComponent, dom.Init{
		Name:       "Broken",
		Attributes: dom.CodeComponentAttributes{Code: api.Const("export default function X( {")},
	})
	require.NoError(t, err)
	d, err = dom.Attach(d, comp, d.Root(), "codeComponents", "")
	require.NoError(t, err)

	q, err := dom.Create(d, dom.KindQuery, dom.Init{
		Attributes: dom.QueryAttributes{ConnectionID: api.Const("nope")},
	})
	require.NoError(t, err)
	d, err = dom.Attach(d, q, page.ID, "queries", "")
	require.NoError(t, err)

	diags, err := Lint(ctx, d)
	require.NoError(t, err)

	byKey := make(map[string][]Diagnostic)
	for _, dg := range diags {
		byKey[dg.Key] = append(byKey[dg.Key], dg)
	}

	assert.NotContains(t, byKey, Key(btn.ID, "props", "label"))
	assert.NotContains(t, byKey, Key(btn.ID, "props", "variant"))

	require.Contains(t, byKey, Key(btn.ID, "props", "onClick"))
	assert.Equal(t, SeverityError, byKey[Key(btn.ID, "props", "onClick")][0].Severity)

	require.Contains(t, byKey, Key(btn.ID, "props", "count"))
	assert.Equal(t, SeverityWarning, byKey[Key(btn.ID, "props", "count")][0].Severity)

	require.Contains(t, byKey, Key(btn.ID, "props", "hint"))
	assert.Equal(t, "empty expression", byKey[Key(btn.ID, "props", "hint")][0].Message)

	require.Contains(t, byKey, Key(comp.ID, "attributes", "code"))
	assert.Equal(t, SeverityError, byKey[Key(comp.ID, "attributes", "code")][0].Severity)

	require.Contains(t, byKey, Key(q.ID, "attributes", "connectionId"))
	assert.Contains(t, byKey[Key(q.ID, "attributes", "connectionId")][0].Message, "not found")

	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].Key, diags[i].Key)
	}
}

func TestCheckExpression_ReportsWhereSecondExpressionStarts(t *testing.T) {
	ctx := context.Background()

	errs, err := CheckExpression(ctx, "a) + (b")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, Position{Line: 0, Column: 3}, errs[0])

	errs, err = CheckExpression(ctx, "a, b")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, Position{Line: 0, Column: 1}, errs[0])
}

func TestLint_ConnectionOfWrongKind(t *testing.T) {
	d := dom.CreateDom()
	page, err := dom.Create(d, dom.KindPage, dom.Init{Name: "Home"})
	require.NoError(t, err)
	d, err = dom.Attach(d, page, d.Root(), "pages", "")
	require.NoError(t, err)

	q, err := dom.Create(d, dom.KindQuery, dom.Init{
		Attributes: dom.QueryAttributes{ConnectionID: api.Const(string(page.ID))},
	})
	require.NoError(t, err)
	d, err = dom.Attach(d, q, page.ID, "queries", "")
	require.NoError(t, err)

	diags, err := Lint(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, Key(q.ID, "attributes", "connectionId"), diags[0].Key)
	assert.Contains(t, diags[0].Message, "is a page, not a connection")
	assert.NotContains(t, diags[0].Message, "not found")
}

func TestDiagnostic_Error(t *testing.T) {
	d := Diagnostic{Key: "n1.props.label", Line: 0, Column: 4, Severity: SeverityError, Message: "syntax error in expression"}
	assert.Equal(t, "n1.props.label:1:5: [error] syntax error in expression", d.Error())
}
