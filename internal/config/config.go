// Package config implements workspace configuration discovery and
// parsing (spec.md §6): locating a `.graphqlrc*`/`graphql.config.*`
// file at a workspace root, parsing its `schema`/`documents`/`projects`/
// `extensions.*` keys, and resolving glob patterns to the file lists the
// CLI and Host actually load. Config itself never touches the Store —
// it hands the resolved file lists and per-tool overlays to the caller,
// which drives Host.AddFile for each one.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trevor-scheer/graphql-analyzer/internal/analysis"
	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/extract"
)

// candidateNames are tried in order at a workspace root (spec.md §6).
var candidateNames = []string{
	".graphqlrc",
	".graphqlrc.yml",
	".graphqlrc.yaml",
	".graphqlrc.json",
	"graphql.config.yml",
	"graphql.config.yaml",
	"graphql.config.json",
}

// Project is one resolved project: its schema/document glob patterns
// (unresolved — Resolve expands them against a workdir) plus its lint
// and extractor overlays, already decoded into concrete types.
type Project struct {
	Name              string
	SchemaPatterns    []string
	DocumentGlobs     []string
	Lint              analysis.LintConfig
	ExtractConfig     extract.Config
	HasExtractOverlay bool
}

// Config is the fully parsed workspace configuration: either a single
// implicit project (no `projects` key, stored under the "" key) or a
// named multi-project set (spec.md §6 "makes the workspace
// multi-project").
type Config struct {
	Path     string
	Projects map[string]*Project
}

// Diagnostic mirrors spec.md §6's "diagnostics on the config file
// itself": per-pattern mismatches plus a summary when every pattern in
// a key fails to match anything.
type Diagnostic struct {
	Severity diag.Severity
	Message  string
}

// Discover searches workdir for one of the recognized config file
// names, returning "", false if none is present. Searching the root
// only (not a parent-directory walk) matches spec.md §6's "discovered
// at workspace root" wording.
func Discover(workdir string) (string, bool) {
	for _, name := range candidateNames {
		p := filepath.Join(workdir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Load reads and parses the config file at path. YAML and JSON both
// decode into the same map[string]interface{} shape (yaml.v3, like
// encoding/json, produces map[string]interface{} for a mapping node),
// so one extraction path serves both formats.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var m map[string]interface{}
	if filepath.Ext(path) == ".json" {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing config %s as JSON: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing config %s as YAML: %w", path, err)
		}
	}

	cfg := &Config{Path: path, Projects: map[string]*Project{}}

	if projectsRaw, ok := m["projects"]; ok {
		projects, ok := projectsRaw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("parsing config %s: projects must be a mapping", path)
		}
		names := make([]string, 0, len(projects))
		for name := range projects {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sub, ok := projects[name].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("parsing config %s: project %q must be a mapping", path, name)
			}
			p, err := buildProject(name, sub)
			if err != nil {
				return nil, err
			}
			cfg.Projects[name] = p
		}
		return cfg, nil
	}

	p, err := buildProject("", m)
	if err != nil {
		return nil, err
	}
	cfg.Projects[""] = p
	return cfg, nil
}

func buildProject(name string, m map[string]interface{}) (*Project, error) {
	schemaPatterns, err := stringOrList(m["schema"])
	if err != nil {
		return nil, fmt.Errorf("project %q: schema: %w", name, err)
	}
	docGlobs, err := stringOrList(m["documents"])
	if err != nil {
		return nil, fmt.Errorf("project %q: documents: %w", name, err)
	}

	p := &Project{
		Name:           name,
		SchemaPatterns: schemaPatterns,
		DocumentGlobs:  docGlobs,
		Lint:           analysis.DefaultLintConfig(),
		ExtractConfig:  extract.DefaultConfig(),
	}

	extensions, _ := m["extensions"].(map[string]interface{})
	if lintRaw, ok := extensions["lint"]; ok {
		lc, err := decodeLintConfig(lintRaw)
		if err != nil {
			return nil, fmt.Errorf("project %q: extensions.lint: %w", name, err)
		}
		p.Lint = lc
	}
	if extractRaw, ok := extensions["extractConfig"]; ok {
		ec, err := decodeExtractConfig(extractRaw)
		if err != nil {
			return nil, fmt.Errorf("project %q: extensions.extractConfig: %w", name, err)
		}
		p.ExtractConfig = ec
		p.HasExtractOverlay = true
	}
	return p, nil
}

// stringOrList accepts a bare string or a list of strings (spec.md §6
// "String or list"); anything else is a config error.
func stringOrList(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return []string{t}, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string entry, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings, got %T", v)
	}
}

func decodeLintConfig(v interface{}) (analysis.LintConfig, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return analysis.LintConfig{}, fmt.Errorf("expected a mapping, got %T", v)
	}
	cfg := analysis.DefaultLintConfig()

	switch e := m["extends"].(type) {
	case string:
		cfg.Extends = e
	case []interface{}:
		// Later presets override earlier ones (spec.md §4.7 "later
		// overrides earlier"); since a preset here is just a name, the
		// last string entry wins.
		for _, item := range e {
			if s, ok := item.(string); ok {
				cfg.Extends = s
			}
		}
	}

	overrides := map[string]bool{}
	for _, key := range []string{"rules", "overrides"} {
		rulesRaw, ok := m[key].(map[string]interface{})
		if !ok {
			continue
		}
		for ruleName, v := range rulesRaw {
			switch on := v.(type) {
			case bool:
				overrides[ruleName] = on
			case string:
				// "off"/"warn"/"error" style severities (spec.md §4.7)
				// collapse to on/off here: severity-per-rule
				// customization is future work this rule-enabled/
				// disabled model doesn't yet carry.
				overrides[ruleName] = on != "off" && on != "Off"
			}
		}
	}
	cfg.Overrides = overrides
	return cfg, nil
}

func decodeExtractConfig(v interface{}) (extract.Config, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return extract.Config{}, fmt.Errorf("expected a mapping, got %T", v)
	}
	cfg := extract.DefaultConfig()
	if tags, err := stringOrList(m["tagIdentifiers"]); err == nil && len(tags) > 0 {
		cfg.TagIdentifiers = toSet(tags)
	}
	if mods, err := stringOrList(m["modules"]); err == nil && len(mods) > 0 {
		cfg.Modules = toSet(mods)
	}
	if allow, ok := m["allowGlobalIdentifiers"].(bool); ok {
		cfg.AllowGlobalIdentifiers = allow
	}
	if comment, ok := m["magicComment"].(string); ok && comment != "" {
		cfg.MagicComment = comment
	}
	return cfg, nil
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// Resolve expands a project's schema/document patterns against workdir
// into concrete file paths, deduplicated and sorted, plus a Diagnostic
// per pattern that matched nothing and a summary Diagnostic if an
// entire key's patterns collectively matched nothing (spec.md §6).
func (p *Project) Resolve(workdir string) (schemaFiles, documentFiles []string, diags []Diagnostic) {
	schemaFiles, d1 := resolveGlobs(workdir, p.SchemaPatterns, "schema")
	documentFiles, d2 := resolveGlobs(workdir, p.DocumentGlobs, "documents")
	diags = append(diags, d1...)
	diags = append(diags, d2...)
	return schemaFiles, documentFiles, diags
}

func resolveGlobs(workdir string, patterns []string, key string) ([]string, []Diagnostic) {
	var diags []Diagnostic
	seen := map[string]struct{}{}
	var out []string
	anyMatched := false

	for _, pat := range patterns {
		if isURL(pat) {
			// HTTP(S) URLs are resolved by the remote-introspector
			// collaborator (spec.md §1's out-of-scope list), not here;
			// Resolve passes them through untouched for that caller.
			out = append(out, pat)
			anyMatched = true
			continue
		}
		matches, err := filepath.Glob(filepath.Join(workdir, pat))
		if err != nil || len(matches) == 0 {
			diags = append(diags, Diagnostic{
				Severity: diag.Warning,
				Message:  fmt.Sprintf("%s pattern %q matched no files", key, pat),
			})
			continue
		}
		anyMatched = true
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	if len(patterns) > 0 && !anyMatched {
		diags = append(diags, Diagnostic{
			Severity: diag.Error,
			Message:  fmt.Sprintf("no %s files matched any configured pattern", key),
		})
	}
	sort.Strings(out)
	return out, diags
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
