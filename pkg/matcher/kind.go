package matcher

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// ErrInvalidKindSelector reports a kind name that does not exist in the
// target grammar.
var ErrInvalidKindSelector = errors.New("matcher: kind selector names no grammar kind")

// KindMatcher matches a node purely by its grammar kind, with no
// structural recursion. It doubles as the pruning oracle for contextual
// patterns.
type KindMatcher struct {
	kinds KindSet
	kind  string
}

// CompileKind resolves a kind name against the language's grammar.
// A name may resolve to several symbols (named and anonymous variants).
func CompileKind(kind string, lang *language.Language) (*KindMatcher, error) {
	symbols := lang.KindIDs(kind)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %q in grammar %s", ErrInvalidKindSelector, kind, lang.Name())
	}

	return &KindMatcher{
		kinds: NewKindSet(symbols...),
		kind:  kind,
	}, nil
}

// Kind returns the kind name the matcher was compiled from.
func (m *KindMatcher) Kind() string {
	return m.kind
}

// MatchNode implements Matcher. The env is untouched; kind matching
// binds nothing.
func (m *KindMatcher) MatchNode(candidate tree.Node, _ *MetaVarEnv) (tree.Node, bool) {
	if candidate.IsNull() || !m.kinds.Has(candidate.KindID()) {
		return tree.Node{}, false
	}

	return candidate, true
}

// PotentialKinds implements Matcher.
func (m *KindMatcher) PotentialKinds() KindSet {
	return m.kinds
}

// MatchLen implements Matcher. A kind match always spans the whole
// candidate.
func (m *KindMatcher) MatchLen(candidate tree.Node) (int, bool) {
	if _, ok := m.MatchNode(candidate, nil); !ok {
		return 0, false
	}

	return candidate.EndByte() - candidate.StartByte(), true
}
