package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

var ErrUnsupportedParseFmt = errors.New("unsupported format")

const (
	formatSexp = "sexp"
	formatJSON = "json"
)

func parseCmd() *cobra.Command {
	var lang, format string

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a source file and dump its syntax tree",
		Long: `Parse a source file and dump its grammar tree, for discovering the
node kinds a pattern or selector should target.

Examples:
  treegrep parse main.ts                 # s-expression dump
  treegrep parse -f json component.tsx   # JSON dump
  cat snippet.js | treegrep parse -l javascript -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParseDump(cmd, args[0], lang, format)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "force language (default: by file extension)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSexp, "output format (sexp, json)")

	return cmd
}

func runParseDump(cmd *cobra.Command, path, langName, format string) error {
	var content []byte
	var err error

	if path == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(path)
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	lang, err := resolveLanguage(path, langName)
	if err != nil {
		return err
	}

	root, err := tree.Parse(cmd.Context(), lang, content)
	if err != nil {
		return err
	}
	defer root.Close()

	switch format {
	case formatSexp:
		fmt.Fprintln(cmd.OutOrStdout(), root.Node().Sexp())

		return nil
	case formatJSON:
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		return encoder.Encode(nodeToJSON(root.Node()))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedParseFmt, format)
	}
}

func resolveLanguage(path, langName string) (*language.Language, error) {
	if langName != "" {
		return language.ByName(langName)
	}

	return language.ByFilename(path)
}

// nodeToJSON converts a node subtree into a JSON-friendly map with the
// same structure the s-expression dump shows.
func nodeToJSON(n tree.Node) map[string]any {
	result := map[string]any{
		"kind":       n.Kind(),
		"named":      n.IsNamed(),
		"start_byte": n.StartByte(),
		"end_byte":   n.EndByte(),
	}

	if n.IsLeaf() {
		result["text"] = n.Text()

		return result
	}

	children := n.Children()
	jsonKids := make([]map[string]any, 0, len(children))

	for _, child := range children {
		jsonKids = append(jsonKids, nodeToJSON(child))
	}

	result["children"] = jsonKids

	return result
}
