package matcher

import (
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// The structural matcher walks pattern and candidate trees in lock-step
// using an explicit work list instead of call-stack recursion, so
// matching depth is bounded by heap memory rather than goroutine stack.
// Child lists containing ellipsis metavariables are aligned by
// matchSeq, whose speculative sub-matches recurse only on pattern
// width, never on candidate depth.
//
// Candidate children beyond the pattern's are ignored: once the
// pattern's child list is exhausted, the pair matches. This is what
// lets a statement pattern without a trailing semicolon match
// semicolon-terminated code. Delimited constructs stay anchored because
// their closing token is part of the pattern's child list and must pair
// positionally.

// matchState carries one match attempt: the metavariable environment
// plus the end byte of the rightmost matched candidate material. The
// end is what MatchLen reports; it excludes trailing candidate tokens
// the pattern elided.
type matchState struct {
	env *MetaVarEnv
	end int
}

// clone returns an independent copy for speculative matching.
func (s *matchState) clone() *matchState {
	return &matchState{env: s.env.Clone(), end: s.end}
}

// extend advances the matched end past the candidate node. Pairing is
// positional left to right, so the running maximum is the rightmost
// matched point.
func (s *matchState) extend(candidate tree.Node) {
	if end := candidate.EndByte(); end > s.end {
		s.end = end
	}
}

// workPair is one pending pattern/candidate comparison.
type workPair struct {
	goal tree.Node
	cand tree.Node
}

// matchNodeNonRecursive reports whether candidate's subtree matches
// goal's subtree, populating env with metavariable captures. On success
// the candidate node itself is the matched node.
func matchNodeNonRecursive(goal, candidate tree.Node, env *MetaVarEnv) (tree.Node, bool) {
	state := &matchState{env: env, end: candidate.StartByte()}

	if !matchSubtree(goal, candidate, state) {
		return tree.Node{}, false
	}

	return candidate, true
}

// matchEndNonRecursive runs the same pairing as matchNodeNonRecursive
// and returns the end byte of the matched span. The end stops at the
// last candidate node the pattern actually paired with, so elided
// trailing tokens (e.g. a statement's semicolon) are not counted.
func matchEndNonRecursive(goal, candidate tree.Node, env *MetaVarEnv) (int, bool) {
	state := &matchState{env: env, end: candidate.StartByte()}

	if !matchSubtree(goal, candidate, state) {
		return 0, false
	}

	return state.end, true
}

// matchSubtree drives the work-list loop for one (goal, candidate)
// root pair.
func matchSubtree(goal, candidate tree.Node, state *matchState) bool {
	work := []workPair{{goal: goal, cand: candidate}}

	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]

		if !matchStep(next.goal, next.cand, state, &work) {
			return false
		}
	}

	return true
}

// matchStep compares one pattern/candidate pair, pushing child pairs
// onto the shared work list.
func matchStep(goal, candidate tree.Node, state *matchState, work *[]workPair) bool {
	if mv, ok := extractVarFromNode(goal); ok {
		if !matchLeafMetaVar(mv, candidate, state.env) {
			return false
		}

		state.extend(candidate)

		return true
	}

	if goal.KindID() != candidate.KindID() {
		return false
	}

	goalKids := realChildren(goal)
	candKids := realChildren(candidate)

	// A pattern leaf matches only an (effective) candidate leaf with
	// the exact same text.
	if len(goalKids) == 0 {
		if len(candKids) != 0 || goal.Text() != candidate.Text() {
			return false
		}

		state.extend(candidate)

		return true
	}

	if hasEllipsis(goalKids) {
		_, ok := matchSeq(goalKids, candKids, state)

		return ok
	}

	if len(goalKids) > len(candKids) {
		return false
	}

	// Pair the pattern's children positionally; trailing candidate
	// children stay unmatched.
	for i := range goalKids {
		*work = append(*work, workPair{goal: goalKids[i], cand: candKids[i]})
	}

	return true
}

// matchLeafMetaVar resolves a metavariable occurrence against the
// candidate subtree. Binding occurrences always succeed; repeats must
// agree with the earlier capture.
func matchLeafMetaVar(mv MetaVar, candidate tree.Node, env *MetaVarEnv) bool {
	switch {
	case !mv.Capture:
		return true
	case mv.Multi:
		// An ellipsis outside a sibling list degenerates to a
		// single-node sequence capture.
		return env.InsertMulti(mv.Name, []tree.Node{candidate})
	default:
		return env.Insert(mv.Name, candidate)
	}
}

// realChildren returns the node's children with missing placeholders
// dropped; they are grammatically expected but absent and must not
// participate in pairing.
func realChildren(n tree.Node) []tree.Node {
	all := n.Children()
	kids := make([]tree.Node, 0, len(all))

	for _, child := range all {
		if !child.IsMissing() {
			kids = append(kids, child)
		}
	}

	return kids
}

// hasEllipsis reports whether any node in the list is an ellipsis
// metavariable.
func hasEllipsis(nodes []tree.Node) bool {
	for _, n := range nodes {
		if mv, ok := extractVarFromNode(n); ok && mv.Multi {
			return true
		}
	}

	return false
}

// matchSeq aligns an ordered pattern-node list against an ordered
// candidate-node list, from the front. It returns how many candidates
// were consumed; candidates beyond the pattern's reach stay unmatched.
//
// Ellipsis alignment is lazy: each ellipsis consumes the fewest
// candidates that let the rest of the pattern match, except a trailing
// ellipsis, which absorbs every remaining candidate. Speculative
// attempts run on a cloned state so a failed probe leaves no residue.
func matchSeq(goals, cands []tree.Node, state *matchState) (int, bool) {
	ci := 0

	for gi, goal := range goals {
		mv, isVar := extractVarFromNode(goal)
		if isVar && mv.Multi {
			return matchSeqEllipsis(mv, goals[gi+1:], cands, ci, state)
		}

		if ci >= len(cands) {
			return 0, false
		}

		if !matchSubtree(goal, cands[ci], state) {
			return 0, false
		}

		ci++
	}

	return ci, true
}

// matchSeqEllipsis matches one ellipsis plus the remaining pattern
// suffix, trying successively longer gaps for the ellipsis to absorb.
func matchSeqEllipsis(mv MetaVar, rest, cands []tree.Node, ci int, state *matchState) (int, bool) {
	if len(rest) == 0 {
		// Nothing anchors the ellipsis; it absorbs the rest.
		return absorbEllipsis(mv, cands, ci, len(cands), state)
	}

	for gap := ci; gap <= len(cands); gap++ {
		probe := state.clone()

		consumed, ok := matchSeq(rest, cands[gap:], probe)
		if !ok {
			continue
		}

		if mv.Capture && !probe.env.InsertMulti(mv.Name, cands[ci:gap]) {
			continue
		}

		if gap > ci {
			probe.extend(cands[gap-1])
		}

		*state = *probe

		return gap + consumed, true
	}

	return 0, false
}

// absorbEllipsis records an ellipsis capture of cands[ci:gap] directly
// on the live state.
func absorbEllipsis(mv MetaVar, cands []tree.Node, ci, gap int, state *matchState) (int, bool) {
	if mv.Capture && !state.env.InsertMulti(mv.Name, cands[ci:gap]) {
		return 0, false
	}

	if gap > ci {
		state.extend(cands[gap-1])
	}

	return gap, true
}

// matchMultiNodes matches the pattern's top-level children against a
// candidate node followed by its subsequent siblings. Trailing
// unmatched siblings are ignored; a candidate sequence shorter than the
// pattern fails. It returns the end byte of the matched span.
func matchMultiNodes(goals []tree.Node, candidate tree.Node, env *MetaVarEnv) (int, bool) {
	state := &matchState{env: env, end: candidate.StartByte()}
	cands := append([]tree.Node{candidate}, candidate.NextAll()...)

	consumed, ok := matchSeq(goals, cands, state)
	if !ok || consumed == 0 {
		return 0, false
	}

	return state.end, true
}
