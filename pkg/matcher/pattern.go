package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Construction-time errors. Matching itself never errors; a non-match
// is an expected outcome on most candidates during a scan.
var (
	// ErrNoContent reports pattern source that parsed to an empty
	// top-level node list.
	ErrNoContent = errors.New("matcher: no AST root detected in pattern")
	// ErrMultipleNode reports pattern source with more than one
	// effective top-level node; see multiNodePatterns.
	ErrMultipleNode = errors.New("matcher: multiple AST nodes detected in pattern")
	// ErrNoSelectorInContext reports a valid selector kind that occurs
	// nowhere in the parsed context.
	ErrNoSelectorInContext = errors.New("matcher: selector matches no node in context")
)

// multiNodePatterns gates compilation of patterns whose top-level
// children form a sibling sequence (style multiple). The sequence
// matcher exists and is exercised through ellipsis child matching, but
// the exact top-level length semantics are unsettled, so construction
// is refused until they are.
const multiNodePatterns = false

// patternStyle selects which part of the parsed pattern is the actual
// matching target.
type patternStyle int

const (
	// styleSingle targets the one effective node found by descending
	// through single-child wrapper nodes.
	styleSingle patternStyle = iota
	// styleMultiple targets the pattern's top-level children as a
	// sibling sequence. Unreachable while multiNodePatterns is false.
	styleMultiple
	// styleSelector targets the first descendant of the context tree
	// whose kind matches the selector.
	styleSelector
)

// Pattern is a compiled structural pattern. It owns its parsed tree,
// is immutable after compilation, and is safe to share across
// concurrent match attempts as long as each attempt uses its own
// MetaVarEnv.
type Pattern struct {
	root     *tree.Root
	selector *KindMatcher // styleSelector only
	style    patternStyle
}

// CompilePattern parses pattern source with the language's
// pre-processing applied and classifies it. Compilation is pure: equal
// input yields structurally equivalent patterns.
func CompilePattern(src string, lang *language.Language) (*Pattern, error) {
	root, err := parsePattern(src, lang)
	if err != nil {
		return nil, err
	}

	goal := root.Node()
	if goal.ChildCount() == 0 {
		root.Close()

		return nil, fmt.Errorf("%w: %q", ErrNoContent, src)
	}

	if !isSingleNode(goal) {
		if !multiNodePatterns {
			root.Close()

			return nil, fmt.Errorf("%w: %q", ErrMultipleNode, src)
		}

		return &Pattern{root: root, style: styleMultiple}, nil
	}

	return &Pattern{root: root, style: styleSingle}, nil
}

// CompileContextual parses a context snippet and selects the effective
// target by grammar kind. Used when the desired fragment cannot stand
// alone grammatically, e.g. a class field embedded in a class body.
func CompileContextual(contextSrc, selectorKind string, lang *language.Language) (*Pattern, error) {
	root, err := parsePattern(contextSrc, lang)
	if err != nil {
		return nil, err
	}

	selector, kindErr := CompileKind(selectorKind, lang)
	if kindErr != nil {
		root.Close()

		return nil, kindErr
	}

	if _, _, ok := FindNode(selector, root.Node()); !ok {
		root.Close()

		return nil, fmt.Errorf("%w: selector %q, context %q", ErrNoSelectorInContext, selectorKind, contextSrc)
	}

	return &Pattern{
		root:     root,
		selector: selector,
		style:    styleSelector,
	}, nil
}

func parsePattern(src string, lang *language.Language) (*tree.Root, error) {
	processed := lang.PreProcessPattern(src)

	root, err := tree.Parse(context.Background(), lang, []byte(processed))
	if err != nil {
		return nil, fmt.Errorf("matcher: parse pattern %q: %w", src, err)
	}

	return root, nil
}

// isSingleNode reports whether the node is a transparent wrapper: one
// child, or two children where the second is a missing placeholder.
func isSingleNode(n tree.Node) bool {
	switch n.ChildCount() {
	case 1:
		return true
	case 2: // wrapper plus a trailing missing placeholder
		return n.Child(1).IsMissing()
	default:
		return false
	}
}

// singleMatcher returns the effective target node for a single-style
// pattern by descending through transparent wrappers.
func (p *Pattern) singleMatcher() tree.Node {
	node := p.root.Node()

	for isSingleNode(node) {
		node = node.Child(0)
	}

	return node
}

// selectorMatcher re-resolves the selector node from the context tree.
// The context tree is small and fixed, so deriving on each use is
// cheaper than managing a cached node handle's lifetime.
func (p *Pattern) selectorMatcher() tree.Node {
	matched, _, ok := FindNode(p.selector, p.root.Node())
	if !ok {
		// Construction verified the selector resolves; the context
		// tree never changes afterwards.
		panic("matcher: contextual selector no longer resolves")
	}

	return matched
}

// MatchNode implements Matcher.
func (p *Pattern) MatchNode(candidate tree.Node, env *MetaVarEnv) (tree.Node, bool) {
	if candidate.IsNull() {
		return tree.Node{}, false
	}

	switch p.style {
	case styleMultiple:
		if _, ok := matchMultiNodes(realChildren(p.root.Node()), candidate, env); !ok {
			return tree.Node{}, false
		}

		return candidate, true
	case styleSelector:
		return matchNodeNonRecursive(p.selectorMatcher(), candidate, env)
	default:
		return matchNodeNonRecursive(p.singleMatcher(), candidate, env)
	}
}

// PotentialKinds implements Matcher. It returns nil when the pattern's
// matching concern is a bare wildcard metavariable, which can match any
// kind.
func (p *Pattern) PotentialKinds() KindSet {
	switch p.style {
	case styleSelector:
		return p.selector.PotentialKinds()
	case styleMultiple:
		return NewKindSet(p.root.Node().Child(0).KindID())
	default:
		target := p.singleMatcher()

		if target.IsLeaf() {
			if _, ok := extractVarFromNode(target); ok {
				return nil
			}
		}

		return NewKindSet(target.KindID())
	}
}

// MatchLen implements Matcher: the byte length of the matched span
// starting at candidate. The span ends at the last candidate node the
// pattern paired with, not at candidate's own end, so trailing tokens
// the pattern elided (a statement's semicolon, say) are not counted.
// The walk reuses the work-list matcher, so it is as stack-safe as
// matching itself.
func (p *Pattern) MatchLen(candidate tree.Node) (int, bool) {
	if candidate.IsNull() {
		return 0, false
	}

	env := NewMetaVarEnv()

	var (
		end int
		ok  bool
	)

	switch p.style {
	case styleMultiple:
		end, ok = matchMultiNodes(realChildren(p.root.Node()), candidate, env)
	case styleSelector:
		end, ok = matchEndNonRecursive(p.selectorMatcher(), candidate, env)
	default:
		end, ok = matchEndNonRecursive(p.singleMatcher(), candidate, env)
	}

	if !ok {
		return 0, false
	}

	return end - candidate.StartByte(), true
}

// String renders the grammar tree of the pattern's effective target as
// an s-expression, without the surrounding wrapper nodes.
func (p *Pattern) String() string {
	switch p.style {
	case styleMultiple:
		return p.root.Node().Sexp()
	case styleSelector:
		return p.selectorMatcher().Sexp()
	default:
		return p.singleMatcher().Sexp()
	}
}

// Close releases the pattern's parsed tree. The pattern must not be
// used afterwards.
func (p *Pattern) Close() {
	p.root.Close()
}
