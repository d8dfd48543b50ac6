// Package rules loads YAML rule documents and compiles them into
// matchers. A rule names a language, a pattern (inline or contextual),
// and reporting metadata; rule evaluation itself is just the matcher
// contract applied per file.
package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
)

// Sentinel errors for rule validation.
var (
	ErrMissingID       = errors.New("rules: rule has no id")
	ErrMissingLanguage = errors.New("rules: rule has no language")
	ErrMissingPattern  = errors.New("rules: rule has no pattern")
	ErrBadSeverity     = errors.New("rules: unknown severity")
)

// severities are the accepted severity values, lowest to highest.
var severities = map[string]bool{
	"hint":    true,
	"info":    true,
	"warning": true,
	"error":   true,
}

// PatternSpec is either an inline pattern string or a contextual
// pattern (context snippet plus kind selector).
type PatternSpec struct {
	Pattern  string
	Context  string
	Selector string
}

// UnmarshalYAML accepts both spellings:
//
//	pattern: const $A = $B
//
//	pattern:
//	  context: "class A { $F = $I }"
//	  selector: public_field_definition
func (p *PatternSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.Pattern)
	}

	var contextual struct {
		Context  string `yaml:"context"`
		Selector string `yaml:"selector"`
	}

	if err := value.Decode(&contextual); err != nil {
		return fmt.Errorf("rules: decode pattern: %w", err)
	}

	p.Context = contextual.Context
	p.Selector = contextual.Selector

	return nil
}

// IsContextual reports whether the pattern uses context+selector form.
func (p *PatternSpec) IsContextual() bool {
	return p.Context != "" || p.Selector != ""
}

// Rule is one rule document entry.
type Rule struct {
	ID       string      `yaml:"id"`
	Language string      `yaml:"language"`
	Severity string      `yaml:"severity"`
	Message  string      `yaml:"message"`
	Pattern  PatternSpec `yaml:"pattern"`
}

// Validate checks the rule's required fields.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}

	if r.Language == "" {
		return fmt.Errorf("%w: rule %s", ErrMissingLanguage, r.ID)
	}

	if r.Pattern.Pattern == "" && !r.Pattern.IsContextual() {
		return fmt.Errorf("%w: rule %s", ErrMissingPattern, r.ID)
	}

	if r.Severity != "" && !severities[r.Severity] {
		return fmt.Errorf("%w: %q in rule %s", ErrBadSeverity, r.Severity, r.ID)
	}

	return nil
}

// ruleFile is the top-level document layout.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a rule document and validates every rule in it.
func Load(r io.Reader) ([]Rule, error) {
	var doc ruleFile

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}

	for i := range doc.Rules {
		if err := doc.Rules[i].Validate(); err != nil {
			return nil, err
		}
	}

	return doc.Rules, nil
}

// LoadFile reads a rule document from a file.
func LoadFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rules: open %s: %w", path, err)
	}
	defer f.Close()

	loaded, loadErr := Load(f)
	if loadErr != nil {
		return nil, fmt.Errorf("rules: %s: %w", path, loadErr)
	}

	return loaded, nil
}

// Compiled is a rule bound to its language and compiled matcher.
type Compiled struct {
	Rule    Rule
	Lang    *language.Language
	Matcher matcher.Matcher
}

// Compile resolves the rule's language and compiles its pattern.
func (r *Rule) Compile() (*Compiled, error) {
	lang, err := language.ByName(r.Language)
	if err != nil {
		return nil, fmt.Errorf("rules: rule %s: %w", r.ID, err)
	}

	var m matcher.Matcher

	if r.Pattern.IsContextual() {
		m, err = matcher.CompileContextual(r.Pattern.Context, r.Pattern.Selector, lang)
	} else {
		m, err = matcher.CompilePattern(r.Pattern.Pattern, lang)
	}

	if err != nil {
		return nil, fmt.Errorf("rules: rule %s: %w", r.ID, err)
	}

	return &Compiled{Rule: *r, Lang: lang, Matcher: m}, nil
}

// CompileAll compiles every rule, failing on the first bad one.
func CompileAll(loaded []Rule) ([]*Compiled, error) {
	compiled := make([]*Compiled, 0, len(loaded))

	for i := range loaded {
		c, err := loaded[i].Compile()
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, c)
	}

	return compiled, nil
}
