// Package scan drives matchers over whole syntax trees. It applies the
// matcher's potential-kinds filter before structural matching, so a
// full-tree pass pays the structural cost only on plausible candidates.
package scan

import (
	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Match is one successful match site.
type Match struct {
	// Node is the matched node.
	Node tree.Node
	// Env holds the metavariable captures of this match. Environments
	// are per-match and never shared.
	Env *matcher.MetaVarEnv
}

// Tree returns every match of m in the tree, in depth-first preorder.
// Each candidate gets a fresh environment; a failed attempt leaves no
// residue for the next one.
func Tree(root *tree.Root, m matcher.Matcher) []Match {
	kinds := m.PotentialKinds()

	var matches []Match

	for candidate := range root.Node().Descendants() {
		if kinds != nil && !kinds.Has(candidate.KindID()) {
			continue
		}

		env := matcher.NewMetaVarEnv()

		matched, ok := m.MatchNode(candidate, env)
		if ok {
			matches = append(matches, Match{Node: matched, Env: env})
		}
	}

	return matches
}

// First returns the first match of m in the tree, or false.
func First(root *tree.Root, m matcher.Matcher) (Match, bool) {
	matched, env, ok := matcher.FindNode(m, root.Node())
	if !ok {
		return Match{}, false
	}

	return Match{Node: matched, Env: env}, true
}

// Position converts a byte offset into 1-based line and column. The
// column counts bytes, matching how most grep-style tools report.
func Position(source []byte, offset int) (line, col int) {
	line, col = 1, 1

	if offset > len(source) {
		offset = len(source)
	}

	for _, b := range source[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return line, col
}
