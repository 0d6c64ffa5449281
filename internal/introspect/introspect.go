// Package introspect implements the `schema download URL` CLI command's
// introspector collaborator (spec.md §1 lists "the remote schema
// introspector (HTTP/JSON)" as a component the core engine only
// consumes through an interface, never implements itself). This is that
// boundary implementation: a single POST of the standard GraphQL
// introspection query, rendered back to SDL text. No example repo in
// the pack performs HTTP introspection, so this is built directly on
// net/http and encoding/json rather than adapted from a pack file.
package introspect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const introspectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      kind
      name
      description
      fields(includeDeprecated: true) {
        name
        args { name type { ...TypeRef } defaultValue }
        type { ...TypeRef }
        isDeprecated
        deprecationReason
      }
      inputFields { name type { ...TypeRef } defaultValue }
      interfaces { ...TypeRef }
      enumValues(includeDeprecated: true) { name isDeprecated deprecationReason }
      possibleTypes { ...TypeRef }
    }
  }
}
fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
      }
    }
  }
}`

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *typeRef `json:"ofType"`
}

func (t *typeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case "NON_NULL":
		return t.OfType.String() + "!"
	case "LIST":
		return "[" + t.OfType.String() + "]"
	default:
		return t.Name
	}
}

type field struct {
	Name              string    `json:"name"`
	Args              []argDef  `json:"args"`
	Type              *typeRef  `json:"type"`
	IsDeprecated      bool      `json:"isDeprecated"`
	DeprecationReason string    `json:"deprecationReason"`
}

type argDef struct {
	Name         string   `json:"name"`
	Type         *typeRef `json:"type"`
	DefaultValue *string  `json:"defaultValue"`
}

type enumValue struct {
	Name              string `json:"name"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason"`
}

type introspectedType struct {
	Kind          string      `json:"kind"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Fields        []field     `json:"fields"`
	InputFields   []field     `json:"inputFields"`
	Interfaces    []*typeRef  `json:"interfaces"`
	EnumValues    []enumValue `json:"enumValues"`
	PossibleTypes []*typeRef  `json:"possibleTypes"`
}

type schemaPayload struct {
	QueryType        *typeRef           `json:"queryType"`
	MutationType     *typeRef           `json:"mutationType"`
	SubscriptionType *typeRef           `json:"subscriptionType"`
	Types            []introspectedType `json:"types"`
}

type introspectionResponse struct {
	Data struct {
		Schema schemaPayload `json:"__schema"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// builtinScalars are never rendered back out; they're always implicitly
// available.
var builtinScalars = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true,
}

// Download executes the standard introspection query against url and
// renders the response back into SDL text.
func Download(ctx context.Context, httpClient *http.Client, url string) (string, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	body, err := json.Marshal(map[string]string{"query": introspectionQuery})
	if err != nil {
		return "", fmt.Errorf("encoding introspection request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("introspection request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading introspection response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("introspection request to %s: HTTP %d: %s", url, resp.StatusCode, string(data))
	}

	var parsed introspectionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parsing introspection response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return "", fmt.Errorf("introspection errors: %s", parsed.Errors[0].Message)
	}

	return renderSDL(parsed.Data.Schema), nil
}

func renderSDL(schema schemaPayload) string {
	types := append([]introspectedType{}, schema.Types...)
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	var sb strings.Builder
	for _, t := range types {
		if builtinScalars[t.Name] || strings.HasPrefix(t.Name, "__") {
			continue
		}
		renderType(&sb, t)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderType(sb *strings.Builder, t introspectedType) {
	switch t.Kind {
	case "OBJECT":
		fmt.Fprintf(sb, "type %s%s {\n", t.Name, renderInterfaces(t.Interfaces))
		renderFields(sb, t.Fields)
		sb.WriteString("}\n\n")
	case "INTERFACE":
		fmt.Fprintf(sb, "interface %s {\n", t.Name)
		renderFields(sb, t.Fields)
		sb.WriteString("}\n\n")
	case "INPUT_OBJECT":
		fmt.Fprintf(sb, "input %s {\n", t.Name)
		renderFields(sb, t.InputFields)
		sb.WriteString("}\n\n")
	case "ENUM":
		fmt.Fprintf(sb, "enum %s {\n", t.Name)
		for _, v := range t.EnumValues {
			fmt.Fprintf(sb, "  %s\n", v.Name)
		}
		sb.WriteString("}\n\n")
	case "UNION":
		names := make([]string, 0, len(t.PossibleTypes))
		for _, pt := range t.PossibleTypes {
			names = append(names, pt.String())
		}
		fmt.Fprintf(sb, "union %s = %s\n\n", t.Name, strings.Join(names, " | "))
	case "SCALAR":
		fmt.Fprintf(sb, "scalar %s\n\n", t.Name)
	}
}

func renderInterfaces(ifaces []*typeRef) string {
	if len(ifaces) == 0 {
		return ""
	}
	names := make([]string, 0, len(ifaces))
	for _, i := range ifaces {
		names = append(names, i.String())
	}
	return " implements " + strings.Join(names, " & ")
}

func renderFields(sb *strings.Builder, fields []field) {
	for _, f := range fields {
		args := ""
		if len(f.Args) > 0 {
			parts := make([]string, 0, len(f.Args))
			for _, a := range f.Args {
				parts = append(parts, fmt.Sprintf("%s: %s", a.Name, a.Type.String()))
			}
			args = "(" + strings.Join(parts, ", ") + ")"
		}
		deprecated := ""
		if f.IsDeprecated {
			deprecated = " @deprecated"
			if f.DeprecationReason != "" {
				deprecated = fmt.Sprintf(" @deprecated(reason: %q)", f.DeprecationReason)
			}
		}
		fmt.Fprintf(sb, "  %s%s: %s%s\n", f.Name, args, f.Type.String(), deprecated)
	}
}
