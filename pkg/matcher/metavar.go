package matcher

import (
	"maps"
	"strings"

	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// MetaVar is a parsed metavariable occurrence from pattern source.
// `$NAME` matches one node and captures it; `$_NAME` and `$_` match
// one node without capturing; `$$$` matches zero or more sibling nodes;
// `$$$NAME` does the same and captures the sequence.
type MetaVar struct {
	// Name is the variable name without sigils; empty for bare `$$$`.
	Name string
	// Multi marks ellipsis variables that match a node sequence.
	Multi bool
	// Capture is false for underscore-prefixed and unnamed variables.
	Capture bool
}

// ExtractMetaVar parses text as a metavariable spelled with the given
// sigil rune (the language's expando char). The whole text must be the
// metavariable; partial occurrences do not count.
func ExtractMetaVar(text string, sigil rune) (MetaVar, bool) {
	one := string(sigil)
	three := one + one + one

	if text == three {
		return MetaVar{Multi: true}, true
	}

	if name, ok := strings.CutPrefix(text, three); ok && isMetaVarName(name) {
		return MetaVar{Name: name, Multi: true, Capture: name[0] != '_'}, true
	}

	if name, ok := strings.CutPrefix(text, one); ok && isMetaVarName(name) {
		return MetaVar{Name: name, Capture: name[0] != '_'}, true
	}

	return MetaVar{}, false
}

// isMetaVarName reports whether s is a valid metavariable name:
// uppercase letters, digits, and underscores, not starting with a
// digit.
func isMetaVarName(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}

	for i := range len(s) {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}

	return true
}

// extractVarFromNode recognizes a pattern node whose entire source text
// is a single metavariable.
func extractVarFromNode(goal tree.Node) (MetaVar, bool) {
	return ExtractMetaVar(goal.Text(), goal.Root().Lang().ExpandoChar())
}

// MetaVarEnv holds the metavariable captures of one match attempt. It
// is created fresh per attempt and never shared across attempts. The
// zero value is not usable; call NewMetaVarEnv.
type MetaVarEnv struct {
	single map[string]tree.Node
	multi  map[string][]tree.Node
}

// NewMetaVarEnv returns an empty environment.
func NewMetaVarEnv() *MetaVarEnv {
	return &MetaVarEnv{
		single: make(map[string]tree.Node),
		multi:  make(map[string][]tree.Node),
	}
}

// Insert records a single-node capture. A binding occurrence always
// succeeds; a repeat occurrence succeeds only if the new node is
// identical (kind and text) to the captured one.
func (e *MetaVarEnv) Insert(name string, captured tree.Node) bool {
	if existing, ok := e.single[name]; ok {
		return nodesIdentical(existing, captured)
	}

	e.single[name] = captured

	return true
}

// InsertMulti records an ellipsis capture of a node sequence, with the
// same repeat-consistency rule as Insert applied element-wise.
func (e *MetaVarEnv) InsertMulti(name string, captured []tree.Node) bool {
	if existing, ok := e.multi[name]; ok {
		if len(existing) != len(captured) {
			return false
		}

		for i := range existing {
			if !nodesIdentical(existing[i], captured[i]) {
				return false
			}
		}

		return true
	}

	e.multi[name] = append([]tree.Node(nil), captured...)

	return true
}

// Get returns the node captured under name.
func (e *MetaVarEnv) Get(name string) (tree.Node, bool) {
	captured, ok := e.single[name]

	return captured, ok
}

// GetMulti returns the node sequence captured under name.
func (e *MetaVarEnv) GetMulti(name string) ([]tree.Node, bool) {
	captured, ok := e.multi[name]

	return captured, ok
}

// Captured returns every capture as name to source text. Sequence
// captures cover the span from the first to the last node.
func (e *MetaVarEnv) Captured() map[string]string {
	out := make(map[string]string, len(e.single)+len(e.multi))

	for name, captured := range e.single {
		out[name] = captured.Text()
	}

	for name, nodes := range e.multi {
		if len(nodes) == 0 {
			out[name] = ""

			continue
		}

		source := nodes[0].Root().Source()
		out[name] = string(source[nodes[0].StartByte():nodes[len(nodes)-1].EndByte()])
	}

	return out
}

// Clone returns an independent copy for speculative matching. Capture
// slices are shared; they are never mutated after insertion.
func (e *MetaVarEnv) Clone() *MetaVarEnv {
	return &MetaVarEnv{
		single: maps.Clone(e.single),
		multi:  maps.Clone(e.multi),
	}
}

// nodesIdentical is the repeat-occurrence identity: same grammar kind
// and same source text.
func nodesIdentical(a, b tree.Node) bool {
	return a.KindID() == b.KindID() && a.Text() == b.Text()
}
