package rules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/scan"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

const sampleDoc = `
rules:
  - id: no-console-log
    language: javascript
    severity: warning
    message: use the project logger instead
    pattern: console.log($MSG)
  - id: class-field
    language: tsx
    severity: info
    pattern:
      context: "class A { $F = $I }"
      selector: public_field_definition
`

func TestLoad(t *testing.T) {
	t.Parallel()

	loaded, err := Load(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	first := loaded[0]
	assert.Equal(t, "no-console-log", first.ID)
	assert.Equal(t, "javascript", first.Language)
	assert.Equal(t, "warning", first.Severity)
	assert.Equal(t, "console.log($MSG)", first.Pattern.Pattern)
	assert.False(t, first.Pattern.IsContextual())

	second := loaded[1]
	assert.True(t, second.Pattern.IsContextual())
	assert.Equal(t, "class A { $F = $I }", second.Pattern.Context)
	assert.Equal(t, "public_field_definition", second.Pattern.Selector)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	doc := `
rules:
  - id: r1
    language: javascript
    pattern: $A
    paterne: typo
`

	_, err := Load(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule Rule
		err  error
	}{
		{
			name: "valid",
			rule: Rule{ID: "r", Language: "go", Pattern: PatternSpec{Pattern: "$A"}},
		},
		{
			name: "missing id",
			rule: Rule{Language: "go", Pattern: PatternSpec{Pattern: "$A"}},
			err:  ErrMissingID,
		},
		{
			name: "missing language",
			rule: Rule{ID: "r", Pattern: PatternSpec{Pattern: "$A"}},
			err:  ErrMissingLanguage,
		},
		{
			name: "missing pattern",
			rule: Rule{ID: "r", Language: "go"},
			err:  ErrMissingPattern,
		},
		{
			name: "bad severity",
			rule: Rule{ID: "r", Language: "go", Severity: "fatal", Pattern: PatternSpec{Pattern: "$A"}},
			err:  ErrBadSeverity,
		},
		{
			name: "contextual counts as a pattern",
			rule: Rule{ID: "r", Language: "tsx", Pattern: PatternSpec{Context: "class A { $F }", Selector: "property_identifier"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rule.Validate()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestCompileAndScan(t *testing.T) {
	t.Parallel()

	loaded, err := Load(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	compiled, err := CompileAll(loaded)
	require.NoError(t, err)
	require.Len(t, compiled, 2)

	src := "console.log('hi')\nconsole.error('no')\n"

	root, err := tree.Parse(context.Background(), compiled[0].Lang, []byte(src))
	require.NoError(t, err)
	t.Cleanup(root.Close)

	matches := scan.Tree(root, compiled[0].Matcher)
	require.Len(t, matches, 1)
	assert.Equal(t, "'hi'", matches[0].Env.Captured()["MSG"])
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	bad := Rule{ID: "r", Language: "cobol", Pattern: PatternSpec{Pattern: "$A"}}

	_, err := bad.Compile()
	assert.Error(t, err)

	multi := Rule{ID: "r", Language: "javascript", Pattern: PatternSpec{Pattern: "a;b;c;"}}

	_, err = multi.Compile()
	assert.ErrorIs(t, err, matcher.ErrMultipleNode)
}
