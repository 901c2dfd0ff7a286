package yangtext

import (
	"strings"
	"unicode/utf8"

	yangerrors "github.com/jacoelho/yang/errors"
)

type tokenKind uint8

const (
	tokenEOF tokenKind = iota
	tokenString
	tokenSemicolon
	tokenOpenBrace
	tokenCloseBrace
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of input"
	case tokenString:
		return "string"
	case tokenSemicolon:
		return "';'"
	case tokenOpenBrace:
		return "'{'"
	case tokenCloseBrace:
		return "'}'"
	default:
		return "unknown token"
	}
}

type token struct {
	kind   tokenKind
	text   string
	quoted bool
	line   int
	column int
}

// tabWidth is the column width of a tab when trimming the indentation of
// multi-line double-quoted strings.
const tabWidth = 8

type lexer struct {
	path  string
	input string
	pos   int
	line  int
	col   int
}

func newLexer(path, input string) *lexer {
	input = strings.TrimPrefix(input, "\ufeff")
	return &lexer{path: path, input: input, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return yangerrors.NewSourceError(yangerrors.ErrSyntax, l.path, line, col, format, args...)
}

// checkEncoding rejects input that is not valid UTF-8, pointing at the
// first offending byte.
func (l *lexer) checkEncoding() error {
	if utf8.ValidString(l.input) {
		return nil
	}
	line, col := 1, 1
	for i := 0; i < len(l.input); {
		r, size := utf8.DecodeRuneInString(l.input[i:])
		if r == utf8.RuneError && size <= 1 {
			return l.errorf(line, col, "invalid UTF-8 byte 0x%02x", l.input[i])
		}
		if r == '\n' {
			line, col = line+1, 1
		} else {
			col += size
		}
		i += size
	}
	return nil
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// skipSeparators consumes whitespace and comments.
func (l *lexer) skipSeparators() error {
	for l.pos < len(l.input) {
		switch ch := l.peek(0); {
		case isSpace(ch):
			l.advance()
		case ch == '/' && l.peek(1) == '/':
			for l.pos < len(l.input) && l.peek(0) != '\n' {
				l.advance()
			}
		case ch == '/' && l.peek(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.input) {
					return l.errorf(line, col, "unterminated comment")
				}
				if l.peek(0) == '*' && l.peek(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSeparators(); err != nil {
		return token{}, err
	}
	tok := token{line: l.line, column: l.col}
	if l.pos >= len(l.input) {
		return tok, nil
	}
	switch ch := l.peek(0); ch {
	case ';':
		l.advance()
		tok.kind = tokenSemicolon
	case '{':
		l.advance()
		tok.kind = tokenOpenBrace
	case '}':
		l.advance()
		tok.kind = tokenCloseBrace
	case '"', '\'':
		text, err := l.quotedConcatenation()
		if err != nil {
			return token{}, err
		}
		tok.kind, tok.text, tok.quoted = tokenString, text, true
	default:
		tok.kind, tok.text = tokenString, l.unquoted()
	}
	return tok, nil
}

func (l *lexer) unquoted() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek(0)
		if isSpace(ch) || ch == ';' || ch == '{' || ch == '}' {
			break
		}
		if ch == '/' && (l.peek(1) == '/' || l.peek(1) == '*') {
			break
		}
		l.advance()
	}
	return l.input[start:l.pos]
}

// quotedConcatenation reads quoted strings joined by '+'.
func (l *lexer) quotedConcatenation() (string, error) {
	var b strings.Builder
	for {
		part, err := l.quoted()
		if err != nil {
			return "", err
		}
		b.WriteString(part)

		save := *l
		if err := l.skipSeparators(); err != nil {
			return "", err
		}
		if l.peek(0) != '+' {
			*l = save
			return b.String(), nil
		}
		l.advance()
		if err := l.skipSeparators(); err != nil {
			return "", err
		}
		if ch := l.peek(0); ch != '"' && ch != '\'' {
			return "", l.errorf(l.line, l.col, "expected quoted string after '+'")
		}
	}
}

func (l *lexer) quoted() (string, error) {
	quote := l.peek(0)
	line, col := l.line, l.col
	l.advance()
	if quote == '\'' {
		start := l.pos
		for l.pos < len(l.input) && l.peek(0) != '\'' {
			l.advance()
		}
		if l.pos >= len(l.input) {
			return "", l.errorf(line, col, "unterminated string")
		}
		text := l.input[start:l.pos]
		l.advance()
		return text, nil
	}

	var b strings.Builder
	for {
		if l.pos >= len(l.input) {
			return "", l.errorf(line, col, "unterminated string")
		}
		ch := l.peek(0)
		switch ch {
		case '"':
			l.advance()
			return trimIndentation(b.String(), col), nil
		case '\\':
			escLine, escCol := l.line, l.col
			l.advance()
			switch esc := l.peek(0); esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(esc)
			default:
				return "", l.errorf(escLine, escCol, "invalid escape sequence \\%c", esc)
			}
			l.advance()
		default:
			_, size := utf8.DecodeRuneInString(l.input[l.pos:])
			b.WriteString(l.input[l.pos : l.pos+size])
			for range size {
				l.advance()
			}
		}
	}
}

// trimIndentation removes trailing whitespace before line breaks and, on
// continuation lines, leading whitespace up to the column after the
// opening quote.
func trimIndentation(s string, quoteCol int) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i < len(lines)-1 {
			line = strings.TrimRight(line, " \t")
		}
		if i > 0 {
			line = trimColumns(line, quoteCol)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func trimColumns(line string, width int) string {
	col := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += tabWidth
		default:
			return line[i:]
		}
		if col >= width {
			rest := line[i+1:]
			if col > width {
				rest = strings.Repeat(" ", col-width) + rest
			}
			return rest
		}
	}
	return ""
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
