// Package tree wraps tree-sitter parse trees behind an immutable Root
// owning the tree plus its source bytes, and lightweight Node handles
// with navigation, byte ranges, and text access. Nodes are borrows tied
// to their Root and must not outlive it.
package tree

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
)

// Sentinel errors for parsing.
var (
	errNoRootNode = errors.New("tree: parse produced no root node")
)

// Root owns a parsed syntax tree and the source it was parsed from.
// It is immutable after Parse and safe to share across goroutines.
type Root struct {
	tsTree *sitter.Tree
	source []byte
	lang   *language.Language
}

// Parse parses source content with the given language and returns the
// owning Root.
func Parse(ctx context.Context, lang *language.Language, content []byte) (*Root, error) {
	tsParser, err := lang.AcquireParser()
	if err != nil {
		return nil, err
	}
	defer lang.ReleaseParser(tsParser)

	tsTree, parseErr := tsParser.ParseString(ctx, nil, content)
	if parseErr != nil {
		return nil, fmt.Errorf("tree: parse %s: %w", lang.Name(), parseErr)
	}

	if tsTree.RootNode().IsNull() {
		tsTree.Close()

		return nil, errNoRootNode
	}

	return &Root{
		tsTree: tsTree,
		source: content,
		lang:   lang,
	}, nil
}

// Node returns the top-level container node of the tree.
func (r *Root) Node() Node {
	return Node{root: r, inner: r.tsTree.RootNode()}
}

// Lang returns the language the tree was parsed with.
func (r *Root) Lang() *language.Language {
	return r.lang
}

// Source returns the source bytes the tree was parsed from. Callers
// must not mutate the returned slice.
func (r *Root) Source() []byte {
	return r.source
}

// Close releases the underlying tree-sitter tree. Nodes derived from
// this Root are invalid afterwards.
func (r *Root) Close() {
	if r.tsTree != nil {
		r.tsTree.Close()
		r.tsTree = nil
	}
}
