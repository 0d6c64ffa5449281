package extract

import "github.com/trevor-scheer/graphql-analyzer/internal/syntax"

// scanner is a byte-level cursor over TS/JS source text, in the style of
// graphql-go-gen's pluck scanner, extended with seek/advanceBytes for
// the tag-then-backtrack recognition flow Extract needs.
type scanner struct {
	content []byte
	pos     int
}

func newScanner(content string) *scanner {
	return &scanner{content: []byte(content)}
}

func (s *scanner) done() bool { return s.pos >= len(s.content) }

func (s *scanner) current() byte {
	if s.done() {
		return 0
	}
	return s.content[s.pos]
}

func (s *scanner) peek(offset int) byte {
	p := s.pos + offset
	if p < 0 || p >= len(s.content) {
		return 0
	}
	return s.content[p]
}

func (s *scanner) advance() {
	if !s.done() {
		s.pos++
	}
}

func (s *scanner) advanceBytes(n int) {
	s.pos += n
	if s.pos > len(s.content) {
		s.pos = len(s.content)
	}
}

func (s *scanner) seek(pos int) { s.pos = pos }

func (s *scanner) skipWhitespace() {
	for !s.done() && isWhitespace(s.current()) {
		s.advance()
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// readTemplate consumes a template literal starting at the opening
// backtick (the scanner must be positioned on it) and returns the
// extracted Block. Interpolations (`${...}`) are replaced with a
// placeholder of the same rune count isn't attempted — spec.md §4.3 only
// requires that interpolations "neither produce parse errors nor are
// evaluated", so a fixed placeholder identifier is substituted, which
// parses as a valid (if meaningless) GraphQL name token wherever an
// interpolation stands in for one.
func (s *scanner) readTemplate() (syntax.Block, bool) {
	if s.current() != '`' {
		return syntax.Block{}, false
	}
	s.advance() // opening backtick
	start := s.pos

	var text []byte
	depth := 0
	for !s.done() {
		switch {
		case s.current() == '`' && depth == 0:
			block := syntax.Block{Text: string(text), SourceOffset: start}
			s.advance() // closing backtick
			return block, true
		case s.current() == '\\':
			s.advance()
			if !s.done() {
				text = append(text, s.current())
				s.advance()
			}
		case s.current() == '$' && s.peek(1) == '{':
			text = append(text, []byte("__interpolated")...)
			s.advance()
			s.advance()
			depth++
			for !s.done() && depth > 0 {
				if s.current() == '{' {
					depth++
				} else if s.current() == '}' {
					depth--
				}
				s.advance()
			}
		default:
			text = append(text, s.current())
			s.advance()
		}
	}
	// Unterminated template: no closing backtick found before EOF.
	return syntax.Block{}, false
}
