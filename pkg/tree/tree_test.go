package tree

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
)

func parseWith(t *testing.T, langName, src string) *Root {
	t.Helper()

	lang, err := language.ByName(langName)
	require.NoError(t, err)

	root, err := Parse(context.Background(), lang, []byte(src))
	require.NoError(t, err)
	t.Cleanup(root.Close)

	return root
}

func TestParse(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "javascript", "const a = 1")

	assert.Equal(t, "program", root.Node().Kind())
	assert.Equal(t, "javascript", root.Lang().Name())
	assert.Equal(t, []byte("const a = 1"), root.Source())
}

func TestNodeNavigation(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "javascript", "const a = 1")
	program := root.Node()

	require.Equal(t, 1, program.ChildCount())

	decl := program.Child(0)
	assert.Equal(t, "lexical_declaration", decl.Kind())
	assert.True(t, decl.IsNamed())
	assert.False(t, decl.IsNull())
	assert.Equal(t, 0, decl.StartByte())
	assert.Equal(t, len("const a = 1"), decl.EndByte())
	assert.Equal(t, "const a = 1", decl.Text())

	assert.Equal(t, "program", decl.Parent().Kind())
	assert.True(t, decl.Next().IsNull(), "sole statement has no sibling")

	kids := decl.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "const", kids[0].Text())
	assert.Equal(t, "variable_declarator", kids[1].Kind())
	assert.True(t, kids[0].IsLeaf())
}

func TestNextAll(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "javascript", "a; b; c;")
	first := root.Node().Child(0)

	rest := first.NextAll()
	require.Len(t, rest, 2)
	assert.Equal(t, "b;", rest[0].Text())
	assert.Equal(t, "c;", rest[1].Text())
}

func TestDescendantsPreorder(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "javascript", "f(1)")

	var kinds []string
	for node := range root.Node().Descendants() {
		if node.IsNamed() {
			kinds = append(kinds, node.Kind())
		}
	}

	assert.Equal(t,
		[]string{"program", "expression_statement", "call_expression", "identifier", "arguments", "number"},
		kinds)
}

func TestDescendantsEarlyStop(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "javascript", "f(1); g(2); h(3)")

	count := 0
	for range root.Node().Descendants() {
		count++
		if count == 3 {
			break
		}
	}

	assert.Equal(t, 3, count)
}

func TestZeroNodeIsNull(t *testing.T) {
	t.Parallel()

	var zero Node

	assert.True(t, zero.IsNull())
}

func TestSexp(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "javascript", "const a = 1")

	dump := root.Node().Sexp()
	assert.True(t, strings.Contains(dump, "lexical_declaration"), "dump was: %s", dump)
}

func TestParseGoSource(t *testing.T) {
	t.Parallel()

	root := parseWith(t, "go", "package main\n\nfunc main() {}\n")

	assert.Equal(t, "source_file", root.Node().Kind())
}
