// Package extract implements component C3: recognizing and pulling
// GraphQL text out of tagged template literals (and magic-comment marked
// template literals) in TypeScript/JavaScript source.
package extract

import (
	"regexp"
	"strings"

	"github.com/trevor-scheer/graphql-analyzer/internal/diag"
	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/syntax"
)

// Config mirrors spec.md §4.3's ExtractConfig.
type Config struct {
	TagIdentifiers         map[string]struct{}
	Modules                map[string]struct{}
	AllowGlobalIdentifiers bool
	MagicComment           string
}

// DefaultConfig matches the defaults spec.md §4.3 names.
func DefaultConfig() Config {
	return Config{
		TagIdentifiers: set("gql", "graphql"),
		Modules: set(
			"graphql-tag",
			"@apollo/client",
			"react-relay",
			"graphql.macro",
			"@urql/core",
		),
		AllowGlobalIdentifiers: false,
		MagicComment:           "/* GraphQL */",
	}
}

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

var importPattern = regexp.MustCompile(`import\s+(?:([A-Za-z_$][\w$]*)|(?:\*\s+as\s+([A-Za-z_$][\w$]*))|(?:\{([^}]*)\}))\s+from\s+['"]([^'"]+)['"]`)

// Extractor implements syntax.Extractor, satisfying it structurally so
// internal/syntax never has to import this package.
type Extractor struct {
	cfg Config
}

// New constructs an Extractor bound to cfg.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract scans content for recognized GraphQL-bearing template
// literals (spec.md §4.3's recognition rule) and returns one Block per
// match, in source order.
func (e *Extractor) Extract(uri filemodel.FileUri, content string) ([]syntax.Block, []diag.Diagnostic) {
	bindings := resolveTagBindings(content)

	var blocks []syntax.Block
	s := newScanner(content)
	for !s.done() {
		if ok, start := matchesMagicComment(s, e.cfg.MagicComment); ok {
			s.seek(start)
			s.skipWhitespace()
			if s.current() == '`' {
				if b, ok := s.readTemplate(); ok {
					blocks = append(blocks, b)
				}
				continue
			}
		}

		if tag, ok := matchIdentifierAt(s); ok {
			if e.recognizesTag(tag, bindings) {
				save := s.pos
				s.advanceBytes(len(tag))
				s.skipWhitespace()
				if s.current() == '(' {
					s.advance()
					s.skipWhitespace()
				}
				if s.current() == '`' {
					if b, ok := s.readTemplate(); ok {
						blocks = append(blocks, b)
						continue
					}
				}
				s.seek(save)
			}
		}

		s.advance()
	}
	return blocks, nil
}

// recognizesTag implements spec.md §4.3's recognition rule: the tag
// identifier must be configured, and its binding must resolve (via
// imports) to a configured module, unless global identifiers are
// allowed.
func (e *Extractor) recognizesTag(tag string, bindings map[string]string) bool {
	if _, known := e.cfg.TagIdentifiers[tag]; !known {
		return false
	}
	module, bound := bindings[tag]
	if !bound {
		return e.cfg.AllowGlobalIdentifiers
	}
	_, ok := e.cfg.Modules[module]
	return ok
}

// resolveTagBindings scans content's import statements and returns a map
// from local identifier to the module specifier it was imported from,
// covering default imports, namespace imports, and named imports
// (including `as` aliases).
func resolveTagBindings(content string) map[string]string {
	bindings := make(map[string]string)
	for _, m := range importPattern.FindAllStringSubmatch(content, -1) {
		module := m[4]
		switch {
		case m[1] != "":
			bindings[m[1]] = module
		case m[2] != "":
			bindings[m[2]] = module
		case m[3] != "":
			for _, spec := range strings.Split(m[3], ",") {
				spec = strings.TrimSpace(spec)
				if spec == "" {
					continue
				}
				parts := strings.Fields(strings.ReplaceAll(spec, " as ", " "))
				local := parts[len(parts)-1]
				bindings[local] = module
			}
		}
	}
	return bindings
}

func matchesMagicComment(s *scanner, marker string) (bool, int) {
	if marker == "" {
		return false, 0
	}
	if s.pos+len(marker) > len(s.content) {
		return false, 0
	}
	if string(s.content[s.pos:s.pos+len(marker)]) != marker {
		return false, 0
	}
	return true, s.pos + len(marker)
}

// matchIdentifierAt reports the identifier starting at the scanner's
// current position, if any, without consuming it.
func matchIdentifierAt(s *scanner) (string, bool) {
	if s.pos > 0 && isIdentifierChar(s.content[s.pos-1]) {
		return "", false
	}
	if !isIdentifierStart(s.current()) {
		return "", false
	}
	end := s.pos
	for end < len(s.content) && isIdentifierChar(s.content[end]) {
		end++
	}
	return string(s.content[s.pos:end]), true
}

func isIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
}

func isIdentifierChar(ch byte) bool {
	return isIdentifierStart(ch) || (ch >= '0' && ch <= '9')
}
