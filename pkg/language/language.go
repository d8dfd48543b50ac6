// Package language provides grammar handles for the languages treegrep
// can match against. A Language bundles a tree-sitter grammar, the file
// extensions it claims, a pooled parser, and the pattern pre-processing
// needed before pattern source can be parsed by that grammar.
package language

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for language lookup.
var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrNoExtension     = errors.New("no file extension found")
)

// MetaVarChar is the leading character of a metavariable in pattern
// source, e.g. $VAR.
const MetaVarChar = '$'

// Language is an immutable grammar handle. All methods are safe for
// concurrent use.
type Language struct {
	name    string
	expando rune
	grammar func() unsafe.Pointer
	exts    []string

	sitterOnce sync.Once
	sitterLang *sitter.Language

	symbolsOnce sync.Once
	symbols     map[string][]sitter.Symbol

	parserPool sync.Pool
}

// newLanguage wires up the lazy initialization for a registry entry.
func newLanguage(name string, expando rune, grammar func() unsafe.Pointer, exts ...string) *Language {
	lang := &Language{
		name:    name,
		expando: expando,
		grammar: grammar,
		exts:    exts,
	}

	lang.parserPool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang.Sitter())

			return tsParser
		},
	}

	return lang
}

// Name returns the registry name of the language, e.g. "tsx".
func (l *Language) Name() string {
	return l.name
}

// Extensions returns the file extensions (with leading dot) handled by
// this language.
func (l *Language) Extensions() []string {
	return l.exts
}

// Sitter returns the tree-sitter grammar for this language. The grammar
// is initialized on first use and cached.
func (l *Language) Sitter() *sitter.Language {
	l.sitterOnce.Do(func() {
		l.sitterLang = sitter.NewLanguage(l.grammar())
	})

	return l.sitterLang
}

// AcquireParser returns a pooled parser configured for this language.
// The parser must be returned with ReleaseParser after use.
func (l *Language) AcquireParser() (*sitter.Parser, error) {
	tsParser, ok := l.parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("language %s: parser pool returned unexpected type", l.name)
	}

	return tsParser, nil
}

// ReleaseParser returns a parser to the pool.
func (l *Language) ReleaseParser(tsParser *sitter.Parser) {
	l.parserPool.Put(tsParser)
}

// ExpandoChar returns the rune that stands in for MetaVarChar after
// pattern pre-processing. For grammars where '$' is a valid identifier
// character this is '$' itself and pre-processing is the identity.
func (l *Language) ExpandoChar() rune {
	return l.expando
}

// PreProcessPattern rewrites pattern source so that metavariables parse
// as plain identifiers under this grammar. Grammars that reject '$' in
// identifiers get every '$' replaced by the expando rune; the matcher
// recognizes metavariables in either spelling.
func (l *Language) PreProcessPattern(src string) string {
	if l.expando == MetaVarChar {
		return src
	}

	return strings.ReplaceAll(src, string(MetaVarChar), string(l.expando))
}

// KindIDs returns every grammar symbol whose kind name equals kind, or
// nil if the grammar has no such kind. A name may map to more than one
// symbol (named and anonymous variants share names in some grammars).
func (l *Language) KindIDs(kind string) []sitter.Symbol {
	l.symbolsOnce.Do(l.buildSymbolTable)

	return l.symbols[kind]
}

// buildSymbolTable scans the grammar symbol table once and indexes
// symbols by kind name.
func (l *Language) buildSymbolTable() {
	tsLang := l.Sitter()
	count := tsLang.SymbolCount()
	table := make(map[string][]sitter.Symbol, count)

	for id := range count {
		symbol := sitter.Symbol(id)
		name := tsLang.SymbolName(symbol)

		if name != "" {
			table[name] = append(table[name], symbol)
		}
	}

	l.symbols = table
}
