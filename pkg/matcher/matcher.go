// Package matcher implements structural pattern matching over syntax
// trees. A Pattern is compiled from a source snippet containing
// metavariables (e.g. `const $VAR = $VALUE`) and tests candidate nodes
// for structural equivalence, capturing metavariable bindings on
// success. Kind matching is exposed separately as a cheap pruning
// filter for whole-tree scans.
package matcher

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// KindSet is a set of grammar symbol ids. A nil KindSet means "no
// restriction known", not "matches nothing".
type KindSet map[sitter.Symbol]struct{}

// NewKindSet builds a set from the given symbols.
func NewKindSet(symbols ...sitter.Symbol) KindSet {
	set := make(KindSet, len(symbols))
	for _, symbol := range symbols {
		set[symbol] = struct{}{}
	}

	return set
}

// Has reports whether the set contains the symbol.
func (s KindSet) Has(symbol sitter.Symbol) bool {
	_, ok := s[symbol]

	return ok
}

// Len returns the number of symbols in the set.
func (s KindSet) Len() int {
	return len(s)
}

// Matcher is the capability contract consumed by search and rule
// drivers. Implementations are immutable and safe for concurrent use;
// each match attempt must receive its own MetaVarEnv.
type Matcher interface {
	// MatchNode tests the candidate node against the matcher. On
	// success it returns the matched node and populates env with
	// metavariable captures. Failure is absence, never an error.
	MatchNode(candidate tree.Node, env *MetaVarEnv) (tree.Node, bool)

	// PotentialKinds returns the grammar kinds the matcher could
	// possibly match, for pre-filtering candidates. Callers must
	// treat a nil result as "no pruning possible".
	PotentialKinds() KindSet

	// MatchLen returns the byte length of the span the matcher would
	// match starting at candidate, or false if the match fails.
	MatchLen(candidate tree.Node) (int, bool)
}

// FindNode returns the first node in scope's subtree (preorder) that
// the matcher accepts, together with the environment of that match.
// Kind pruning is applied before structural matching.
func FindNode(m Matcher, scope tree.Node) (tree.Node, *MetaVarEnv, bool) {
	kinds := m.PotentialKinds()

	for candidate := range scope.Descendants() {
		if kinds != nil && !kinds.Has(candidate.KindID()) {
			continue
		}

		env := NewMetaVarEnv()

		matched, ok := m.MatchNode(candidate, env)
		if ok {
			return matched, env, true
		}
	}

	return tree.Node{}, nil, false
}
