// Package hir implements the layered intermediate representation:
// component C5 (structure — type/fragment/operation signatures) in this
// file, and component C6 (bodies — selection sets) in body.go.
//
// The defining property of the structure layer is that it never reads
// selection sets: file_structure and its projections are built purely
// from parse(FileId)'s headers, so an edit to a selection set (a body
// edit) can never change a Structure value and therefore can never
// invalidate anything that only depends on structure queries — the
// "golden invariant" spec.md §4.5/§8 names directly.
package hir

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/store"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

// TypeKind mirrors spec.md §3's type-definition kinds.
type TypeKind int

const (
	Object TypeKind = iota
	Interface
	Union
	Enum
	Scalar
	InputObject
)

func fromASTKind(k ast.DefinitionKind) TypeKind {
	switch k {
	case ast.Interface:
		return Interface
	case ast.Union:
		return Union
	case ast.Enum:
		return Enum
	case ast.Scalar:
		return Scalar
	case ast.InputObject:
		return InputObject
	default:
		return Object
	}
}

// ArgSignature is an argument's (name, type, default) signature, used
// both for field arguments and directive arguments.
type ArgSignature struct {
	Name         string
	Type         string
	DefaultValue string
}

// FieldSignature is one field's signature: name, argument signatures,
// result type reference, and directive applications — never its
// resolution.
type FieldSignature struct {
	Name       string
	Args       []ArgSignature
	Type       string
	Directives []string
}

// TypeDef is a type definition or extension's structural signature
// (spec.md §3 "Structure (per file)"): everything about a type except
// what it resolves to at runtime.
type TypeDef struct {
	Name         string
	Kind         TypeKind
	Fields       []FieldSignature
	Interfaces   []string
	UnionMembers []string
	EnumValues   []string
	Directives   []string
	IsExtension  bool
	FileId       filemodel.FileId
	Range        diag.Range
	ByteOffset   int
}

// FragmentHeader is a fragment's name, type condition, and source range
// — deliberately excluding its selection set (that's fragment_body, C6).
type FragmentHeader struct {
	Name          string
	TypeCondition string
	FileId        filemodel.FileId
	Range         diag.Range
}

// VariableDecl is one operation variable's declaration.
type VariableDecl struct {
	Name    string
	Type    string
	Default string
}

// OperationHeader is an operation's name, kind, and variable
// declarations — excluding its selection set.
type OperationHeader struct {
	Name      string
	Kind      string // "query" | "mutation" | "subscription"
	Variables []VariableDecl
	FileId    filemodel.FileId
	Range     diag.Range
}

// DirectiveDef is a directive definition's signature.
type DirectiveDef struct {
	Name      string
	Locations []string
	Args      []ArgSignature
	FileId    filemodel.FileId
	Range     diag.Range
}

// Structure is the complete per-file structural projection (spec.md §3).
type Structure struct {
	TypeDefs         []TypeDef
	FragmentHeaders  []FragmentHeader
	OperationHeaders []OperationHeader
	DirectiveDefs    []DirectiveDef
}

// MergedType is one type name's merged definition across the schema
// set: a base definition plus zero or more extensions, applied in
// deterministic order.
type MergedType struct {
	Base       TypeDef
	Extensions []TypeDef
}

// MergedSchema is the project-wide union of every schema file's type
// definitions (spec.md §3 "Merged schema").
type MergedSchema struct {
	Types     map[string]MergedType
	Conflicts []diag.Diagnostic
}

// Engine computes the C5 structure queries over a syntax.Engine and
// filemodel.Registry.
type Engine struct {
	files  *filemodel.Registry
	syntax *syntax.Engine

	structureQ   *store.Query[filemodel.FileId, Structure]
	typeDefsQ    *store.Query[filemodel.FileId, []TypeDef]
	fragHeadersQ *store.Query[filemodel.FileId, []FragmentHeader]
	opHeadersQ   *store.Query[filemodel.FileId, []OperationHeader]
	directivesQ  *store.Query[filemodel.FileId, []DirectiveDef]

	mergedSchemaQ *store.Query[struct{}, MergedSchema]
	allFragmentsQ *store.Query[struct{}, []FragmentHeader]
	allOperationsQ *store.Query[struct{}, []OperationHeader]
	fragByNameQ   *store.Query[struct{}, map[string]FragmentHeader]
	opByNameQ     *store.Query[struct{}, map[string][]OperationHeader]
}

// New constructs the C5 engine bound to db, reading files via registry
// and syntax trees via synEngine.
func New(db *store.Database, files *filemodel.Registry, synEngine *syntax.Engine) *Engine {
	e := &Engine{files: files, syntax: synEngine}

	e.structureQ = store.New(db, "file_structure", e.computeStructure, structureEqual)
	e.typeDefsQ = store.New(db, "file_type_defs", e.projectTypeDefs, typeDefsEqual)
	e.fragHeadersQ = store.New(db, "file_fragment_headers", e.projectFragmentHeaders, fragHeadersEqual)
	e.opHeadersQ = store.New(db, "file_operation_headers", e.projectOperationHeaders, opHeadersEqual)
	e.directivesQ = store.New(db, "file_directive_defs", e.projectDirectiveDefs, directivesEqual)

	e.mergedSchemaQ = store.New(db, "merged_schema", e.computeMergedSchema, mergedSchemaEqual)
	e.allFragmentsQ = store.New(db, "all_fragments", e.computeAllFragments, fragHeadersEqual)
	e.allOperationsQ = store.New(db, "all_operations", e.computeAllOperations, opHeadersEqual)
	e.fragByNameQ = store.New(db, "fragment_by_name", e.computeFragmentByName, nil)
	e.opByNameQ = store.New(db, "operation_by_name", e.computeOperationByName, nil)

	return e
}

// FileStructure returns the memoized Structure for id.
func (e *Engine) FileStructure(ctx *store.Context, id filemodel.FileId) (Structure, error) {
	return e.structureQ.Get(ctx, id)
}

func (e *Engine) FileTypeDefs(ctx *store.Context, id filemodel.FileId) ([]TypeDef, error) {
	return e.typeDefsQ.Get(ctx, id)
}

func (e *Engine) FileFragmentHeaders(ctx *store.Context, id filemodel.FileId) ([]FragmentHeader, error) {
	return e.fragHeadersQ.Get(ctx, id)
}

func (e *Engine) FileOperationHeaders(ctx *store.Context, id filemodel.FileId) ([]OperationHeader, error) {
	return e.opHeadersQ.Get(ctx, id)
}

func (e *Engine) FileDirectiveDefs(ctx *store.Context, id filemodel.FileId) ([]DirectiveDef, error) {
	return e.directivesQ.Get(ctx, id)
}

// MergedSchema returns the project-wide merged schema.
func (e *Engine) MergedSchema(ctx *store.Context) (MergedSchema, error) {
	return e.mergedSchemaQ.Get(ctx, struct{}{})
}

func (e *Engine) AllFragments(ctx *store.Context) ([]FragmentHeader, error) {
	return e.allFragmentsQ.Get(ctx, struct{}{})
}

func (e *Engine) AllOperations(ctx *store.Context) ([]OperationHeader, error) {
	return e.allOperationsQ.Get(ctx, struct{}{})
}

func (e *Engine) FragmentByName(ctx *store.Context, name string) (FragmentHeader, bool, error) {
	m, err := e.fragByNameQ.Get(ctx, struct{}{})
	if err != nil {
		return FragmentHeader{}, false, err
	}
	h, ok := m[name]
	return h, ok, nil
}

func (e *Engine) OperationByName(ctx *store.Context, name string) ([]OperationHeader, error) {
	m, err := e.opByNameQ.Get(ctx, struct{}{})
	if err != nil {
		return nil, err
	}
	return m[name], nil
}

func (e *Engine) computeStructure(ctx *store.Context, id filemodel.FileId) (Structure, error) {
	p, err := e.syntax.Parse(ctx, id)
	if err != nil {
		return Structure{}, err
	}
	li, err := e.syntax.LineIndex(ctx, id)
	if err != nil {
		return Structure{}, err
	}

	var s Structure
	if p.SchemaTree != nil {
		for _, def := range p.SchemaTree.Definitions {
			s.TypeDefs = append(s.TypeDefs, typeDefFromAST(id, def, false, li))
		}
		for _, def := range p.SchemaTree.Extensions {
			s.TypeDefs = append(s.TypeDefs, typeDefFromAST(id, def, true, li))
		}
		for _, dd := range p.SchemaTree.Directives {
			s.DirectiveDefs = append(s.DirectiveDefs, directiveDefFromAST(id, dd, li))
		}
	}
	if p.ExecutableTree != nil {
		for _, op := range p.ExecutableTree.Operations {
			s.OperationHeaders = append(s.OperationHeaders, operationHeaderFromAST(id, op, li))
		}
		for _, frag := range p.ExecutableTree.Fragments {
			s.FragmentHeaders = append(s.FragmentHeaders, fragmentHeaderFromAST(id, frag, li))
		}
	}
	return s, nil
}

func (e *Engine) projectTypeDefs(ctx *store.Context, id filemodel.FileId) ([]TypeDef, error) {
	s, err := e.FileStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.TypeDefs, nil
}

func (e *Engine) projectFragmentHeaders(ctx *store.Context, id filemodel.FileId) ([]FragmentHeader, error) {
	s, err := e.FileStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.FragmentHeaders, nil
}

func (e *Engine) projectOperationHeaders(ctx *store.Context, id filemodel.FileId) ([]OperationHeader, error) {
	s, err := e.FileStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.OperationHeaders, nil
}

func (e *Engine) projectDirectiveDefs(ctx *store.Context, id filemodel.FileId) ([]DirectiveDef, error) {
	s, err := e.FileStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.DirectiveDefs, nil
}

func (e *Engine) computeAllFragments(ctx *store.Context, _ struct{}) ([]FragmentHeader, error) {
	var out []FragmentHeader
	for _, id := range e.files.DocumentFiles(ctx) {
		hs, err := e.FileFragmentHeaders(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, hs...)
	}
	return out, nil
}

func (e *Engine) computeAllOperations(ctx *store.Context, _ struct{}) ([]OperationHeader, error) {
	var out []OperationHeader
	for _, id := range e.files.DocumentFiles(ctx) {
		hs, err := e.FileOperationHeaders(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, hs...)
	}
	return out, nil
}

func (e *Engine) computeFragmentByName(ctx *store.Context, _ struct{}) (map[string]FragmentHeader, error) {
	all, err := e.AllFragments(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]FragmentHeader, len(all))
	for _, h := range all {
		m[h.Name] = h
	}
	return m, nil
}

func (e *Engine) computeOperationByName(ctx *store.Context, _ struct{}) (map[string][]OperationHeader, error) {
	all, err := e.AllOperations(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]OperationHeader, len(all))
	for _, h := range all {
		m[h.Name] = append(m[h.Name], h)
	}
	return m, nil
}

// computeMergedSchema implements spec.md §4.5's merged_schema(): builtin
// scalars and introspection meta-types are seeded first, then every
// schema file's base definitions are added (first writer wins, later
// duplicates become conflicts), then every extension is applied in
// deterministic (file URI, byte offset) order.
func (e *Engine) computeMergedSchema(ctx *store.Context, _ struct{}) (MergedSchema, error) {
	ms := MergedSchema{Types: map[string]MergedType{}}
	for _, td := range builtinTypeDefs() {
		ms.Types[td.Name] = MergedType{Base: td}
	}

	ids := e.files.SchemaFiles(ctx)
	type uriID struct {
		uri filemodel.FileUri
		id  filemodel.FileId
	}
	ordered := make([]uriID, 0, len(ids))
	for _, id := range ids {
		uri, _ := e.files.Uri(ctx, id)
		ordered = append(ordered, uriID{uri: uri, id: id})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].uri < ordered[j].uri })

	var extensions []TypeDef
	for _, o := range ordered {
		defs, err := e.FileTypeDefs(ctx, o.id)
		if err != nil {
			return MergedSchema{}, err
		}
		for _, td := range defs {
			if td.IsExtension {
				extensions = append(extensions, td)
				continue
			}
			if existing, dup := ms.Types[td.Name]; dup && existing.Base.Name != "" {
				ms.Conflicts = append(ms.Conflicts, diag.Diagnostic{
					Severity:  diag.Error,
					Message:   fmt.Sprintf("type %q is defined more than once (previously in this schema set)", td.Name),
					SourceTag: "validator",
					Primary:   td.Range,
				})
				continue
			}
			ms.Types[td.Name] = MergedType{Base: td}
		}
	}

	sort.SliceStable(extensions, func(i, j int) bool {
		if extensions[i].FileId != extensions[j].FileId {
			ui, _ := e.files.Uri(ctx, extensions[i].FileId)
			uj, _ := e.files.Uri(ctx, extensions[j].FileId)
			return ui < uj
		}
		return extensions[i].ByteOffset < extensions[j].ByteOffset
	})
	for _, ext := range extensions {
		mt := ms.Types[ext.Name]
		mt.Extensions = append(mt.Extensions, ext)
		ms.Types[ext.Name] = mt
	}

	return ms, nil
}

func builtinTypeDefs() []TypeDef {
	scalars := []string{"Int", "Float", "String", "Boolean", "ID"}
	defs := make([]TypeDef, 0, len(scalars)+1)
	for _, name := range scalars {
		defs = append(defs, TypeDef{Name: name, Kind: Scalar})
	}
	// Introspection meta-types are seeded as name-only stubs: present so
	// "unknown type" checks don't fire against __typename/__schema/__type
	// usage, but without their full field sets. A complete introspection
	// surface is out of scope for this engine's testable invariants.
	for _, name := range []string{"__Schema", "__Type", "__Field", "__InputValue", "__EnumValue", "__Directive"} {
		defs = append(defs, TypeDef{Name: name, Kind: Object})
	}
	defs = append(defs, TypeDef{Name: "__TypeKind", Kind: Enum})
	defs = append(defs, TypeDef{Name: "__DirectiveLocation", Kind: Enum})
	return defs
}

func typeDefFromAST(id filemodel.FileId, def *ast.Definition, isExtension bool, li *diag.LineIndex) TypeDef {
	td := TypeDef{
		Name:         def.Name,
		Kind:         fromASTKind(def.Kind),
		Interfaces:   append([]string(nil), def.Interfaces...),
		UnionMembers: append([]string(nil), def.Types...),
		IsExtension:  isExtension,
		FileId:       id,
	}
	for _, f := range def.Fields {
		td.Fields = append(td.Fields, fieldSignatureFromAST(f))
	}
	for _, ev := range def.EnumValues {
		td.EnumValues = append(td.EnumValues, ev.Name)
	}
	for _, d := range def.Directives {
		td.Directives = append(td.Directives, d.Name)
	}
	if def.Position != nil {
		td.ByteOffset = def.Position.Start
		td.Range = rangeFromPosition(def.Position, li)
	}
	return td
}

func fieldSignatureFromAST(f *ast.FieldDefinition) FieldSignature {
	fs := FieldSignature{Name: f.Name, Type: typeString(f.Type)}
	for _, a := range f.Arguments {
		fs.Args = append(fs.Args, ArgSignature{Name: a.Name, Type: typeString(a.Type), DefaultValue: valueString(a.DefaultValue)})
	}
	for _, d := range f.Directives {
		fs.Directives = append(fs.Directives, d.Name)
	}
	return fs
}

func directiveDefFromAST(id filemodel.FileId, dd *ast.DirectiveDefinition, li *diag.LineIndex) DirectiveDef {
	d := DirectiveDef{Name: dd.Name, FileId: id}
	for _, loc := range dd.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, a := range dd.Arguments {
		d.Args = append(d.Args, ArgSignature{Name: a.Name, Type: typeString(a.Type), DefaultValue: valueString(a.DefaultValue)})
	}
	if dd.Position != nil {
		d.Range = rangeFromPosition(dd.Position, li)
	}
	return d
}

func fragmentHeaderFromAST(id filemodel.FileId, frag *ast.FragmentDefinition, li *diag.LineIndex) FragmentHeader {
	h := FragmentHeader{Name: frag.Name, TypeCondition: frag.TypeCondition, FileId: id}
	if frag.Position != nil {
		h.Range = collapsedRangeFromPosition(frag.Position, li)
	}
	return h
}

func operationHeaderFromAST(id filemodel.FileId, op *ast.OperationDefinition, li *diag.LineIndex) OperationHeader {
	h := OperationHeader{Name: op.Name, Kind: string(op.Operation), FileId: id}
	for _, v := range op.VariableDefinitions {
		h.Variables = append(h.Variables, VariableDecl{
			Name:    v.Variable,
			Type:    typeString(v.Type),
			Default: valueString(v.DefaultValue),
		})
	}
	if op.Position != nil {
		h.Range = collapsedRangeFromPosition(op.Position, li)
	}
	return h
}

func typeString(t *ast.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func valueString(v *ast.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func rangeFromPosition(pos *ast.Position, li *diag.LineIndex) diag.Range {
	if pos == nil || li == nil {
		return diag.Range{}
	}
	return diag.Range{Start: li.Position(pos.Start), End: li.Position(pos.End)}
}

// collapsedRangeFromPosition reports only a header's start location as a
// zero-width range. Fragment and operation definitions' *ast.Position
// spans their entire body (through the closing brace of the selection
// set), so using pos.End here the way typeDefFromAST does would make an
// OperationHeader/FragmentHeader's Range grow or shrink with pure body
// edits — exactly the dependency the structure layer must not have on
// selection-set text (spec.md §4.5/§8's golden invariant).
func collapsedRangeFromPosition(pos *ast.Position, li *diag.LineIndex) diag.Range {
	if pos == nil || li == nil {
		return diag.Range{}
	}
	p := li.Position(pos.Start)
	return diag.Range{Start: p, End: p}
}

// structureEqual and its per-projection counterparts use store.DeepEqual
// (structural comparison via go-cmp): every type here is built from
// exported primitives, strings, and slices, so cmp can compare them
// without an Exporter option. Durable equality at this layer is what
// lets, e.g., an unrelated file's type-def edit avoid invalidating
// merged_schema's consumers when the merged result happens not to
// change.
func structureEqual(a, b Structure) bool { return store.DeepEqual(a, b) }

func typeDefsEqual(a, b []TypeDef) bool { return store.DeepEqual(a, b) }

func fragHeadersEqual(a, b []FragmentHeader) bool { return store.DeepEqual(a, b) }

func opHeadersEqual(a, b []OperationHeader) bool { return store.DeepEqual(a, b) }

func directivesEqual(a, b []DirectiveDef) bool { return store.DeepEqual(a, b) }

func mergedSchemaEqual(a, b MergedSchema) bool { return store.DeepEqual(a, b) }
