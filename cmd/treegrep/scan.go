package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/rules"
	"github.com/Sumatoshi-tech/treegrep/pkg/scan"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

var (
	ErrNoPattern     = errors.New("either --pattern or --rules is required")
	ErrNoSourceFiles = errors.New("no matching source files found")
	ErrLangRequired  = errors.New("--lang is required with --pattern")
)

func scanCmd() *cobra.Command {
	var pattern, lang, rulesPath string
	var workers int
	var showEnv bool

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Search source trees with a structural pattern or rule file",
		Long: `Search source files for structural matches.

Examples:
  treegrep scan -e 'const $A = $VALUE' -l typescript src/
  treegrep scan -e '$F($$$ARGS)' -l javascript lib/util.js
  treegrep scan -r rules.yaml .
  treegrep scan -e 'fmt.Println($MSG)' -l go --env .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), scanOptions{
				pattern:   pattern,
				lang:      lang,
				rulesPath: rulesPath,
				workers:   workers,
				showEnv:   showEnv,
				paths:     args,
				out:       cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "e", "", "pattern snippet with $METAVARS")
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language of the pattern (required with --pattern)")
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "YAML rule file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&showEnv, "env", false, "print metavariable captures for each match")

	return cmd
}

type scanOptions struct {
	pattern   string
	lang      string
	rulesPath string
	workers   int
	showEnv   bool
	paths     []string
	out       io.Writer
}

// fileResult collects one file's matches so output stays grouped per
// file even with parallel workers.
type fileResult struct {
	path    string
	matches []ruleMatch
}

type ruleMatch struct {
	rule  *rules.Compiled
	match scan.Match
	line  int
	col   int
	text  string
}

func runScan(ctx context.Context, opts scanOptions) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	compiled, err := collectRules(opts, cfg)
	if err != nil {
		return err
	}

	paths := opts.paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	files, err := collectSourceFiles(paths, compiled)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoSourceFiles
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Workers
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > len(files) {
		workers = len(files)
	}

	if verbose {
		slog.Info("scan starting", "files", len(files), "rules", len(compiled), "workers", workers)
	}

	results, scanned := scanFiles(ctx, files, compiled, workers)

	matchCount, fileCount := 0, 0

	for _, result := range results {
		if len(result.matches) == 0 {
			continue
		}

		fileCount++
		matchCount += len(result.matches)
		printFileMatches(opts.out, result, opts.showEnv, cfg.NoColor)
	}

	fmt.Fprintf(opts.out, "\n%d matches in %d files (%s scanned)\n",
		matchCount, fileCount, humanize.Bytes(uint64(scanned)))

	return nil
}

// collectRules builds the compiled rule set from --rules, --pattern, or
// the config file's rule list, in that order of preference.
func collectRules(opts scanOptions, cfg *Config) ([]*rules.Compiled, error) {
	switch {
	case opts.rulesPath != "":
		loaded, err := rules.LoadFile(opts.rulesPath)
		if err != nil {
			return nil, err
		}

		return rules.CompileAll(loaded)
	case opts.pattern != "":
		langName := opts.lang
		if langName == "" {
			langName = cfg.Language
		}

		if langName == "" {
			return nil, ErrLangRequired
		}

		rule := rules.Rule{
			ID:       "pattern",
			Language: langName,
			Pattern:  rules.PatternSpec{Pattern: opts.pattern},
		}

		compiled, err := rule.Compile()
		if err != nil {
			return nil, err
		}

		return []*rules.Compiled{compiled}, nil
	case len(cfg.Rules) > 0:
		var all []rules.Rule

		for _, path := range cfg.Rules {
			loaded, err := rules.LoadFile(path)
			if err != nil {
				return nil, err
			}

			all = append(all, loaded...)
		}

		return rules.CompileAll(all)
	default:
		return nil, ErrNoPattern
	}
}

// collectSourceFiles walks the given paths and keeps files whose
// extension any rule's language claims.
func collectSourceFiles(paths []string, compiled []*rules.Compiled) ([]string, error) {
	wanted := make(map[string]bool, len(compiled))
	for _, rule := range compiled {
		for _, ext := range rule.Lang.Extensions() {
			wanted[ext] = true
		}
	}

	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			files = append(files, root)

			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			name := entry.Name()
			if entry.IsDir() {
				if strings.HasPrefix(name, ".") && path != root {
					return filepath.SkipDir
				}

				return nil
			}

			if wanted[strings.ToLower(filepath.Ext(name))] {
				files = append(files, path)
			}

			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	sort.Strings(files)

	return files, nil
}

// scanFiles processes files concurrently with a worker pool. Results
// come back in input order; scanned is the total bytes parsed.
func scanFiles(ctx context.Context, files []string, compiled []*rules.Compiled, workers int) ([]fileResult, int64) {
	results := make([]fileResult, len(files))
	jobs := make(chan int)

	var scanned atomic.Int64

	var waitGroup sync.WaitGroup

	for range workers {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			for idx := range jobs {
				results[idx] = scanOneFile(ctx, files[idx], compiled, &scanned)
			}
		}()
	}

	for idx := range files {
		jobs <- idx
	}

	close(jobs)
	waitGroup.Wait()

	return results, scanned.Load()
}

func scanOneFile(ctx context.Context, path string, compiled []*rules.Compiled, scanned *atomic.Int64) fileResult {
	result := fileResult{path: path}

	applicable := make([]*rules.Compiled, 0, len(compiled))

	for _, rule := range compiled {
		for _, ext := range rule.Lang.Extensions() {
			if strings.EqualFold(filepath.Ext(path), ext) {
				applicable = append(applicable, rule)

				break
			}
		}
	}

	if len(applicable) == 0 {
		return result
	}

	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("skipping unreadable file", "path", path, "error", err)

		return result
	}

	scanned.Add(int64(len(content)))

	// Rules of distinct languages can claim the same extension; parse
	// once per language, not once per rule.
	parsed := make(map[*language.Language]*tree.Root, 1)

	defer func() {
		for _, root := range parsed {
			root.Close()
		}
	}()

	for _, rule := range applicable {
		root, ok := parsed[rule.Lang]
		if !ok {
			var parseErr error

			root, parseErr = tree.Parse(ctx, rule.Lang, content)
			if parseErr != nil {
				slog.Warn("skipping unparsable file", "path", path, "language", rule.Lang.Name(), "error", parseErr)

				continue
			}

			parsed[rule.Lang] = root
		}

		for _, match := range scan.Tree(root, rule.Matcher) {
			line, col := scan.Position(content, match.Node.StartByte())
			result.matches = append(result.matches, ruleMatch{
				rule:  rule,
				match: match,
				line:  line,
				col:   col,
				text:  firstLine(match.Node.Text()),
			})
		}
	}

	return result
}

func printFileMatches(out io.Writer, result fileResult, showEnv, noColor bool) {
	pathColor := color.New(color.FgMagenta)
	positionColor := color.New(color.FgGreen)
	ruleColor := color.New(color.FgYellow)

	if noColor {
		pathColor.DisableColor()
		positionColor.DisableColor()
		ruleColor.DisableColor()
	}

	for _, m := range result.matches {
		fmt.Fprintf(out, "%s:%s: %s",
			pathColor.Sprint(result.path),
			positionColor.Sprintf("%d:%d", m.line, m.col),
			m.text)

		if m.rule.Rule.Message != "" {
			fmt.Fprintf(out, "  %s", ruleColor.Sprintf("[%s] %s", m.rule.Rule.ID, m.rule.Rule.Message))
		}

		fmt.Fprintln(out)

		if showEnv {
			printCaptures(out, m)
		}
	}
}

func printCaptures(out io.Writer, m ruleMatch) {
	captured := m.match.Env.Captured()

	names := make([]string, 0, len(captured))
	for name := range captured {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "    $%s = %s\n", name, firstLine(captured[name]))
	}
}

// firstLine truncates multi-line match text for single-line output.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}

	return s
}
