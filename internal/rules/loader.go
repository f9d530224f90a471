package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// loadedFile is one successfully decoded rule file.
type loadedFile struct {
	path string
	doc  fileDoc
}

// Load reads every *.json rule file from dirs and merges them into one
// RuleSet. Directories are read concurrently; the merge order is directory
// order, then file name order. Unreadable or malformed files and invalid rules
// are skipped with a warning. When no rule file exists anywhere, a default
// file is written to defaultFile and loaded.
func Load(ctx context.Context, dirs []string, defaultFile string) (*RuleSet, error) {
	perDir := make([][]loadedFile, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		g.Go(func() error {
			files, err := loadDir(gctx, dir)
			if err != nil {
				return err
			}
			perDir[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading rule directories: %w", err)
	}

	var files []loadedFile
	for _, fs := range perDir {
		files = append(files, fs...)
	}

	if len(files) == 0 {
		if defaultFile == "" {
			slog.Warn("no rule files found and no default file configured", "dirs", dirs)
			return &RuleSet{}, nil
		}
		if err := WriteDefault(defaultFile); err != nil {
			return nil, err
		}
		slog.Info("no rule files found; wrote default rule file", "path", defaultFile)
		doc, err := readFile(defaultFile)
		if err != nil {
			return nil, fmt.Errorf("reading default rule file: %w", err)
		}
		files = append(files, loadedFile{path: defaultFile, doc: doc})
	}

	rs := merge(files)
	slog.Info("rules loaded",
		"files", len(rs.Sources),
		"rules", len(rs.Rules),
		"enabled", rs.Enabled,
		"digest", rs.Digest()[:12])
	return rs, nil
}

// Parse decodes a single rule document held in memory.
func Parse(raw []byte) (*RuleSet, error) {
	doc, err := decodeFile(raw)
	if err != nil {
		return nil, err
	}
	return merge([]loadedFile{{path: "<memory>", doc: doc}}), nil
}

func loadDir(ctx context.Context, dir string) ([]loadedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("rule directory does not exist", "dir", dir)
			return nil, nil
		}
		slog.Warn("cannot read rule directory", "dir", dir, "err", err)
		return nil, nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	out := make([]loadedFile, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		doc, err := readFile(path)
		if err != nil {
			slog.Warn("skipping rule file", "path", path, "err", err)
			continue
		}
		out = append(out, loadedFile{path: path, doc: doc})
	}
	return out, nil
}

func readFile(path string) (fileDoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileDoc{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := decodeFile(raw)
	if err != nil {
		return fileDoc{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// merge folds decoded files into a RuleSet. Files with enabled=false add no
// rules. Later duplicates of a rule name are dropped.
func merge(files []loadedFile) *RuleSet {
	rs := &RuleSet{}
	seen := make(map[string]string)

	for _, f := range files {
		rs.Sources = append(rs.Sources, f.path)
		if f.doc.ShowDebugMessages {
			rs.Verbose = true
		}
		if !f.doc.Enabled {
			slog.Info("rule file disabled", "path", f.path)
			continue
		}
		rs.Enabled = true

		for _, d := range f.doc.SpawnRules {
			rule, err := fromDoc(d)
			if err != nil {
				slog.Warn("skipping invalid rule", "path", f.path, "err", err)
				continue
			}
			if prev, dup := seen[rule.Name]; dup {
				slog.Warn("skipping duplicate rule name",
					"rule", rule.Name,
					"path", f.path,
					"first_defined_in", prev)
				continue
			}
			seen[rule.Name] = f.path
			rs.Rules = append(rs.Rules, rule)
		}
	}
	return rs
}

// DefaultRuleSet is what a fresh install starts with: a note in the victim's
// mailbox, owned by the murderer, on the first kill.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Enabled: true,
		Rules: []SpawnRule{{
			Name:                "MurdererNoteInVictimMailbox",
			Enabled:             true,
			TriggerEvents:       []string{"OnVictimKilled"},
			ItemID:              "Note",
			Chance:              1,
			Location:            Mailbox{},
			Owner:               RoleMurderer,
			Recipient:           RoleVictim,
			Once:                true,
			RequiredOccurrences: 1,
		}},
	}
}

// WriteDefault writes DefaultRuleSet to path, creating parent directories.
func WriteDefault(path string) error {
	return Write(path, DefaultRuleSet())
}

// Write serializes rs as an indented rule file.
func Write(path string, rs *RuleSet) error {
	docs := make([]ruleDoc, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		docs = append(docs, toDoc(r))
	}
	raw, err := json.MarshalIndent(fileDoc{
		Enabled:           rs.Enabled,
		ShowDebugMessages: rs.Verbose,
		SpawnRules:        docs,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding rule file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating rule directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing rule file %s: %w", path, err)
	}
	return nil
}
