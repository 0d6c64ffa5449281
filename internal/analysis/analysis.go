// Package analysis implements component C7: per-file diagnostics that
// compose syntax errors, schema-aware validation, and a configurable
// lint rule engine over the C5/C6 HIR layers. Every producer here
// follows the same failure policy — a rule or validation step that
// cannot make sense of its input emits a diagnostic (or is silently
// skipped), never panics — so one malformed file never takes down
// diagnostics for the rest of the project.
package analysis

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

// RuleKind classifies a lint rule by the data it needs, mirroring
// spec.md §4.7's four contexts.
type RuleKind int

const (
	// StandaloneDocument rules see one executable file's headers/bodies,
	// nothing else.
	StandaloneDocument RuleKind = iota
	// DocumentAgainstSchema rules additionally see the merged schema.
	DocumentAgainstSchema
	// StandaloneSchema rules see one schema file's type defs, nothing else.
	StandaloneSchema
	// Project rules see every file; findings are attributed back to the
	// file that owns the flagged construct.
	Project
)

// LintConfig is the project's lint configuration: a preset plus
// per-rule on/off overlays (spec.md §4.7 "extends: recommended|strict").
type LintConfig struct {
	Extends   string // "recommended" or "strict"
	Overrides map[string]bool
}

// DefaultLintConfig enables the "recommended" rule set with no overrides.
func DefaultLintConfig() LintConfig {
	return LintConfig{Extends: "recommended", Overrides: map[string]bool{}}
}

func (c LintConfig) ruleEnabled(r Rule) bool {
	if on, ok := c.Overrides[r.Code]; ok {
		return on
	}
	if c.Extends == "strict" {
		return true
	}
	return r.RecommendedDefault
}

// Rule is one lint check. Per-file rules (StandaloneDocument,
// DocumentAgainstSchema, StandaloneSchema) are run once per matching
// file; Project rules run once per project and attribute findings back
// to individual files themselves.
type Rule struct {
	Code                string
	Kind                RuleKind
	Severity            diag.Severity
	RecommendedDefault  bool
	CheckFile           func(e *Engine, ctx *store.Context, id filemodel.FileId) ([]diag.Diagnostic, error)
	CheckProject        func(e *Engine, ctx *store.Context) (map[filemodel.FileId][]diag.Diagnostic, error)
}

// Engine computes component C7's diagnostics queries.
type Engine struct {
	files     *filemodel.Registry
	syn       *syntax.Engine
	structure *hir.Engine
	bodies    *hir.BodyEngine
	lint      *store.Input[LintConfig]
	rules     []Rule

	fileDiagQ    *store.Query[filemodel.FileId, []diag.Diagnostic]
	projectDiagQ *store.Query[struct{}, map[filemodel.FileId][]diag.Diagnostic]
}

// New constructs the C7 engine with the standard rule set and lint,
// held as its own Input cell so that the host's set_config mutator
// (C9) properly invalidates every file_diagnostics/project_diagnostics
// value that depended on the prior configuration, instead of silently
// leaving them stale the way a plain captured struct field would.
func New(db *store.Database, files *filemodel.Registry, syn *syntax.Engine, structure *hir.Engine, bodies *hir.BodyEngine, lint LintConfig) *Engine {
	e := &Engine{
		files: files, syn: syn, structure: structure, bodies: bodies,
		lint:  store.NewInput(db, "lint_config", lint),
		rules: standardRules(),
	}
	e.fileDiagQ = store.New(db, "file_diagnostics", e.computeFileDiagnostics, nil)
	e.projectDiagQ = store.New(db, "project_diagnostics", e.computeProjectDiagnostics, nil)
	return e
}

// SetLintConfig replaces the active lint configuration. Call only from
// within a store.Database.Mutate callback (the host's set_config
// mutator, spec.md §4.9).
func (e *Engine) SetLintConfig(rev store.Revision, cfg LintConfig) {
	e.lint.Set(rev, cfg)
}

// FileDiagnostics returns every diagnostic attributed to id: syntax
// errors, schema-structural validation, document-against-schema
// validation, and whichever configured lint rules apply to this file's
// kind (spec.md §4.7).
func (e *Engine) FileDiagnostics(ctx *store.Context, id filemodel.FileId) ([]diag.Diagnostic, error) {
	return e.fileDiagQ.Get(ctx, id)
}

func (e *Engine) computeFileDiagnostics(ctx *store.Context, id filemodel.FileId) ([]diag.Diagnostic, error) {
	md, ok := e.files.Metadata(ctx, id)
	if !ok {
		return nil, nil
	}

	p, err := e.syn.Parse(ctx, id)
	if err != nil {
		return nil, err
	}
	out := append([]diag.Diagnostic(nil), p.Diagnostics...)

	switch md.Kind {
	case filemodel.SchemaGraphQL:
		out = append(out, e.validateSchemaFile(ctx, id)...)
		out = append(out, e.runFileRules(ctx, id, StandaloneSchema)...)
	case filemodel.ExecutableGraphQL, filemodel.TypeScriptLike, filemodel.JavaScriptLike:
		out = append(out, e.validateDocumentFile(ctx, id)...)
		out = append(out, e.runFileRules(ctx, id, StandaloneDocument)...)
		out = append(out, e.runFileRules(ctx, id, DocumentAgainstSchema)...)
	}

	projectDiags, err := e.projectDiagQ.Get(ctx, struct{}{})
	if err != nil {
		return nil, err
	}
	out = append(out, projectDiags[id]...)

	return out, nil
}

func (e *Engine) runFileRules(ctx *store.Context, id filemodel.FileId, kind RuleKind) []diag.Diagnostic {
	cfg := e.lint.Get(ctx)
	var out []diag.Diagnostic
	for _, r := range e.rules {
		if r.Kind != kind || r.CheckFile == nil || !cfg.ruleEnabled(r) {
			continue
		}
		found, err := r.CheckFile(e, ctx, id)
		if err != nil {
			// A rule that fails to evaluate is reported, not fatal — the
			// failure policy in spec.md §4.7 requires diagnostics/lint to
			// never take the rest of the pipeline down with them.
			out = append(out, diag.Diagnostic{
				Severity:  diag.Info,
				Message:   fmt.Sprintf("lint rule %q failed to evaluate: %v", r.Code, err),
				SourceTag: "lint",
				RuleCode:  r.Code,
			})
			continue
		}
		for i := range found {
			found[i].RuleCode = r.Code
			found[i].Severity = r.Severity
			found[i].SourceTag = "lint"
		}
		out = append(out, found...)
	}
	return out
}

func (e *Engine) computeProjectDiagnostics(ctx *store.Context, _ struct{}) (map[filemodel.FileId][]diag.Diagnostic, error) {
	cfg := e.lint.Get(ctx)
	out := map[filemodel.FileId][]diag.Diagnostic{}
	for _, r := range e.rules {
		if r.Kind != Project || r.CheckProject == nil || !cfg.ruleEnabled(r) {
			continue
		}
		found, err := r.CheckProject(e, ctx)
		if err != nil {
			continue
		}
		for id, diags := range found {
			for i := range diags {
				diags[i].RuleCode = r.Code
				diags[i].Severity = r.Severity
				diags[i].SourceTag = "lint"
			}
			out[id] = append(out[id], diags...)
		}
	}
	return out, nil
}

// validateSchemaFile checks one schema file's type defs for field
// references to unknown types, per the merged project schema.
func (e *Engine) validateSchemaFile(ctx *store.Context, id filemodel.FileId) []diag.Diagnostic {
	defs, err := e.structure.FileTypeDefs(ctx, id)
	if err != nil {
		return nil
	}
	ms, err := e.structure.MergedSchema(ctx)
	if err != nil {
		return nil
	}

	var out []diag.Diagnostic
	for _, td := range defs {
		for _, f := range td.Fields {
			base := baseTypeName(f.Type)
			if base == "" || isBuiltinScalarName(base) {
				continue
			}
			if _, known := ms.Types[base]; !known {
				out = append(out, diag.Diagnostic{
					Severity:  diag.Error,
					Message:   fmt.Sprintf("field %s.%s references unknown type %q", td.Name, f.Name, base),
					SourceTag: "validator",
					Primary:   td.Range,
				})
			}
		}
	}
	return out
}

// validateDocumentFile checks one executable file's fragment spreads
// resolve to a known fragment project-wide (spec.md §4.7's
// DocumentAgainstSchema validation, narrowed for this engine's scope to
// unknown fragment spreads; operation root kinds are not checked).
func (e *Engine) validateDocumentFile(ctx *store.Context, id filemodel.FileId) []diag.Diagnostic {
	ops, err := e.structure.FileOperationHeaders(ctx, id)
	if err != nil {
		return nil
	}

	var out []diag.Diagnostic
	for _, op := range ops {
		unresolved := unresolvedSpreadNames(ctx, e, id, op.Name)
		for _, name := range unresolved {
			out = append(out, diag.Diagnostic{
				Severity:  diag.Error,
				Message:   fmt.Sprintf("operation %q spreads unknown fragment %q", op.Name, name),
				SourceTag: "validator",
				Primary:   op.Range,
			})
		}
	}
	return out
}

// unresolvedSpreadNames walks the operation's direct and transitive
// fragment spreads, reporting any name that fragment_by_name cannot
// resolve. This duplicates part of operation_transitive_fragments'
// walk rather than extending that query's return shape, so a
// validation-only concern (name resolution failure) doesn't leak into
// C6's data model.
func unresolvedSpreadNames(ctx *store.Context, e *Engine, id filemodel.FileId, opName string) []string {
	body, err := e.bodies.OperationBody(ctx, hir.OperationId{File: id, Name: opName})
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var unresolved []string
	var walk func(names []string)
	walk = func(names []string) {
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			header, ok, err := e.structure.FragmentByName(ctx, name)
			if err != nil || !ok {
				unresolved = append(unresolved, name)
				continue
			}
			fragBody, err := e.bodies.FragmentBody(ctx, hir.FragmentId{File: header.FileId, Name: name})
			if err != nil {
				continue
			}
			walk(hir.DirectSpreadNames(fragBody))
		}
	}
	walk(hir.DirectSpreadNames(body))
	sort.Strings(unresolved)
	return unresolved
}

func baseTypeName(t string) string {
	start, end := 0, len(t)
	for start < end && (t[start] == '[' || t[start] == ' ') {
		start++
	}
	for end > start && (t[end-1] == ']' || t[end-1] == '!' || t[end-1] == ' ') {
		end--
	}
	return t[start:end]
}

func isBuiltinScalarName(name string) bool {
	switch name {
	case "Int", "Float", "String", "Boolean", "ID":
		return true
	default:
		return false
	}
}

func isPascalCase(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}
