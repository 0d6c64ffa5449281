// Package diff implements the `schema diff OLD NEW` CLI command
// (spec.md §6): a structural comparison of two merged schemas that
// classifies each change as breaking, dangerous, or safe, following the
// categories graphql-inspector and similar schema-diff tools use.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trevor-scheer/graphql-analyzer/internal/hir"
)

// Severity classifies one schema change's impact on existing clients.
type Severity int

const (
	// Safe changes cannot break an existing client (additive, widening).
	Safe Severity = iota
	// Dangerous changes are unlikely but possible to break a client
	// (e.g. a new enum value an exhaustive switch doesn't expect).
	Dangerous
	// Breaking changes will break at least one well-formed client.
	Breaking
)

func (s Severity) String() string {
	switch s {
	case Breaking:
		return "breaking"
	case Dangerous:
		return "dangerous"
	default:
		return "safe"
	}
}

// Change is one classified difference between two schema versions.
type Change struct {
	Severity Severity
	Message  string
}

// Report is the complete result of Diff: every classified change plus
// the worst severity observed, which the CLI maps to an exit code
// (spec.md §6: "0 none, 1 dangerous, 2 breaking").
type Report struct {
	Changes []Change
	Worst   Severity
}

// Diff compares oldSchema and newSchema merged schemas and classifies every type-
// and field-level change.
func Diff(oldSchema, newSchema hir.MergedSchema) Report {
	var r Report
	add := func(sev Severity, format string, args ...interface{}) {
		r.Changes = append(r.Changes, Change{Severity: sev, Message: fmt.Sprintf(format, args...)})
		if sev > r.Worst {
			r.Worst = sev
		}
	}

	typeNames := unionKeys(oldSchema.Types, newSchema.Types)
	for _, name := range typeNames {
		oldType, hadOld := oldSchema.Types[name]
		newType, hasNew := newSchema.Types[name]
		switch {
		case hadOld && !hasNew:
			add(Breaking, "type `%s` removed", name)
		case !hadOld && hasNew:
			add(Safe, "type `%s` added", name)
		default:
			diffType(name, oldType.Base, newType.Base, add)
		}
	}

	sort.Slice(r.Changes, func(i, j int) bool { return r.Changes[i].Message < r.Changes[j].Message })
	return r
}

func diffType(typeName string, oldDef, newDef hir.TypeDef, add func(Severity, string, ...interface{})) {
	if oldDef.Kind != newDef.Kind {
		add(Breaking, "type `%s` changed kind from %s to %s", typeName, kindName(oldDef.Kind), kindName(newDef.Kind))
		return
	}

	oldFields := fieldsByName(oldDef.Fields)
	newFields := fieldsByName(newDef.Fields)
	for _, fieldName := range unionStringKeys(oldFields, newFields) {
		oldField, hadOld := oldFields[fieldName]
		newField, hasNew := newFields[fieldName]
		switch {
		case hadOld && !hasNew:
			add(Breaking, "field `%s.%s` removed", typeName, fieldName)
		case !hadOld && hasNew:
			if isNonNull(newField.Type) {
				add(Breaking, "required field `%s.%s` added", typeName, fieldName)
			} else {
				add(Safe, "field `%s.%s` added", typeName, fieldName)
			}
		case oldField.Type != newField.Type:
			add(Breaking, "field `%s.%s` changed type from `%s` to `%s`", typeName, fieldName, oldField.Type, newField.Type)
		}
	}

	oldValues := toSet(oldDef.EnumValues)
	newValues := toSet(newDef.EnumValues)
	for _, v := range oldDef.EnumValues {
		if _, ok := newValues[v]; !ok {
			add(Breaking, "enum value `%s.%s` removed", typeName, v)
		}
	}
	for _, v := range newDef.EnumValues {
		if _, ok := oldValues[v]; !ok {
			add(Dangerous, "enum value `%s.%s` added", typeName, v)
		}
	}
}

func fieldsByName(fields []hir.FieldSignature) map[string]hir.FieldSignature {
	m := make(map[string]hir.FieldSignature, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}

func kindName(k hir.TypeKind) string {
	switch k {
	case hir.Interface:
		return "interface"
	case hir.Union:
		return "union"
	case hir.Enum:
		return "enum"
	case hir.Scalar:
		return "scalar"
	case hir.InputObject:
		return "input"
	default:
		return "object"
	}
}

func isNonNull(typeRef string) bool {
	return strings.HasSuffix(strings.TrimSpace(typeRef), "!")
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

func unionKeys(a, b map[string]hir.MergedType) []string {
	seen := map[string]struct{}{}
	var out []string
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func unionStringKeys(a, b map[string]hir.FieldSignature) []string {
	seen := map[string]struct{}{}
	var out []string
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
