package language

import (
	"fmt"
	"path/filepath"
	"strings"

	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
)

// expandoMu is the substitute rune for '$' in grammars whose
// identifiers cannot contain it. It is a valid identifier character in
// those grammars and unlikely to collide with real source.
const expandoMu = 'µ'

// registry holds every supported language, keyed by name.
// Grammars are initialized lazily, so registering a language costs
// nothing until it is first used.
var registry = func() map[string]*Language {
	langs := []*Language{
		newLanguage("tsx", MetaVarChar, tsx.GetLanguage, ".tsx"),
		newLanguage("typescript", MetaVarChar, typescript.GetLanguage, ".ts", ".mts", ".cts"),
		newLanguage("javascript", MetaVarChar, javascript.GetLanguage, ".js", ".jsx", ".mjs", ".cjs"),
		newLanguage("java", MetaVarChar, java.GetLanguage, ".java"),
		newLanguage("go", expandoMu, golang.GetLanguage, ".go"),
		newLanguage("python", expandoMu, python.GetLanguage, ".py", ".pyi"),
	}

	byName := make(map[string]*Language, len(langs))
	for _, lang := range langs {
		byName[lang.name] = lang
	}

	return byName
}()

// extensions maps file extensions to languages. Built once at init from
// the registry.
var extensions = func() map[string]*Language {
	byExt := make(map[string]*Language)

	for _, lang := range registry {
		for _, ext := range lang.exts {
			byExt[ext] = lang
		}
	}

	return byExt
}()

// Names returns the names of all registered languages.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}

// ByName returns the language registered under name.
func ByName(name string) (*Language, error) {
	lang, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
	}

	return lang, nil
}

// ByFilename returns the language claiming the file's extension.
func ByFilename(filename string) (*Language, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoExtension, filename)
	}

	lang, ok := extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w for extension %s", ErrUnknownLanguage, ext)
	}

	return lang, nil
}

// IsSupported reports whether any registered language claims the
// file's extension.
func IsSupported(filename string) bool {
	_, err := ByFilename(filename)

	return err == nil
}
