package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"tsx", "typescript", "javascript", "java", "go", "python"} {
		lang, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, lang.Name())
	}

	lang, err := ByName("TSX")
	require.NoError(t, err, "lookup is case-insensitive")
	assert.Equal(t, "tsx", lang.Name())

	_, err = ByName("cobol")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestByFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     string
		err      error
	}{
		{filename: "app.tsx", want: "tsx"},
		{filename: "lib/util.ts", want: "typescript"},
		{filename: "index.mjs", want: "javascript"},
		{filename: "Main.java", want: "java"},
		{filename: "main.go", want: "go"},
		{filename: "script.PY", want: "python"},
		{filename: "README.md", err: ErrUnknownLanguage},
		{filename: "Makefile", err: ErrNoExtension},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			lang, err := ByFilename(tt.filename)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, lang.Name())
		})
	}
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSupported("a.go"))
	assert.False(t, IsSupported("a.rs"))
}

func TestNames(t *testing.T) {
	t.Parallel()

	names := Names()
	assert.Len(t, names, 6)
	assert.Contains(t, names, "tsx")
}

func TestPreProcessPattern(t *testing.T) {
	t.Parallel()

	goLang, err := ByName("go")
	require.NoError(t, err)
	assert.Equal(t, "fmt.Println(µMSG)", goLang.PreProcessPattern("fmt.Println($MSG)"))
	assert.Equal(t, 'µ', goLang.ExpandoChar())

	tsxLang, err := ByName("tsx")
	require.NoError(t, err)
	assert.Equal(t, "const $A = $B", tsxLang.PreProcessPattern("const $A = $B"))
	assert.Equal(t, '$', tsxLang.ExpandoChar())
}

func TestKindIDs(t *testing.T) {
	t.Parallel()

	lang, err := ByName("tsx")
	require.NoError(t, err)

	assert.NotEmpty(t, lang.KindIDs("lexical_declaration"))
	assert.NotEmpty(t, lang.KindIDs("public_field_definition"))
	assert.Empty(t, lang.KindIDs("no_such_kind"))
}

func TestParserPool(t *testing.T) {
	t.Parallel()

	lang, err := ByName("javascript")
	require.NoError(t, err)

	parser, err := lang.AcquireParser()
	require.NoError(t, err)
	require.NotNil(t, parser)
	lang.ReleaseParser(parser)
}
