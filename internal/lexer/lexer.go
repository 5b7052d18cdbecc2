// Package lexer turns TakoMusic source text into a token stream, per
// spec.md §4.1. It never recovers from a malformed literal mid-token;
// malformed source produces a LexError and the caller decides what to
// do with it (the parser records it as one diagnostic and returns an
// empty program).
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tako0614/takomusic/internal/token"
)

// LexError is returned alongside a possibly-partial token stream when
// tokenize cannot continue past a malformed lexeme.
type LexError struct {
	Code    string
	Message string
	Pos     token.Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Pos)
}

var pitchClass = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var durationBase = map[byte]int64{
	'w': 1, // whole
	'h': 2, // half
	'q': 4, // quarter
	'e': 8, // eighth
	's': 16,
	't': 32,
	'x': 64,
}

// Lexer holds the scanning state over one source unit. Use Tokenize for
// the one-shot contract described in spec.md §4.1.
type Lexer struct {
	src        string
	pos        int // byte offset
	line       int
	col        int
	filePath   string
	tokens     []token.Token
}

// Tokenize scans source in full and returns every token, including a
// trailing EOF. On the first malformed lexeme it returns the tokens
// produced so far alongside a *LexError.
func Tokenize(source, filePath string) ([]token.Token, error) {
	l := &Lexer{src: source, line: 1, col: 1, filePath: filePath}
	for {
		tok, err := l.next()
		if err != nil {
			return l.tokens, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == token.EOF {
			return l.tokens, nil
		}
	}
}

func (l *Lexer) here() token.Position {
	return token.Position{Line: l.line, Column: l.col}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool  { return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isAlnum(b byte) bool  { return isAlpha(b) || isDigit(b) }
func isSpace(b byte) bool  { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		if isSpace(b) {
			l.advance()
			continue
		}
		if b == '/' && l.peekByteAt(1) == '/' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		if b == '/' && l.peekByteAt(1) == '*' {
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *Lexer) next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	pos := l.here()
	if l.pos >= len(l.src) {
		return token.Token{Type: token.EOF, Pos: pos}, nil
	}

	b := l.peekByte()

	switch {
	case isAlpha(b):
		return l.lexIdentOrPitch(pos)
	case isDigit(b):
		return l.lexNumberOrBarBeat(pos)
	case b == '"':
		return l.lexString(pos)
	}

	// Duration literals share their leading letter with identifiers, so
	// lexIdentOrPitch also lexes them when the letter set and trailing
	// shape match; pure punctuation falls through here.
	return l.lexOperator(pos)
}

func (l *Lexer) lexIdentOrPitch(pos token.Position) (token.Token, error) {
	start := l.pos

	// Pitch literal: letter A-G, optional '#'/'b' accidental, then a
	// required (possibly negative) octave integer with no intervening
	// whitespace. Tried first and only committed to if an octave
	// actually follows; otherwise this is an ordinary identifier or
	// duration literal.
	if tok, ok, err := l.tryLexPitch(pos); ok || err != nil {
		return tok, err
	}

	for l.pos < len(l.src) && isAlnum(l.peekByte()) {
		l.advance()
	}

	// Duration literal: single base letter plus zero or more trailing
	// augmentation dots (never followed by another identifier letter).
	if l.pos-start == 1 {
		base := l.src[start]
		if dur, ok := durationBase[base]; ok && !isAlpha(l.peekByte()) {
			dots := 0
			for l.peekByte() == '.' && !isAlpha(l.peekByteAt(1)) {
				l.advance()
				dots++
			}
			num, den := augmentedDuration(dur, dots)
			lit := l.src[start:l.pos]
			return token.Token{Type: token.DURATION, Literal: lit, Pos: pos, DurNum: num, DurDen: den}, nil
		}
	}

	lit := l.src[start:l.pos]
	return token.Token{Type: token.LookupIdent(lit), Literal: lit, Pos: pos}, nil
}

// tryLexPitch attempts to scan a pitch literal starting at the lexer's
// current position. It rewinds and returns ok=false if the input does
// not match `[A-G](#|b)?-?[0-9]+`.
func (l *Lexer) tryLexPitch(pos token.Position) (token.Token, bool, error) {
	savePos, saveLine, saveCol := l.pos, l.line, l.col
	start := l.pos

	letter := l.peekByte()
	letterClass, ok := pitchClass[letter]
	if !ok {
		return token.Token{}, false, nil
	}
	l.advance()

	accidental := 0
	switch l.peekByte() {
	case '#':
		accidental = 1
		l.advance()
	case 'b':
		accidental = -1
		l.advance()
	}

	neg := false
	if l.peekByte() == '-' && isDigit(l.peekByteAt(1)) {
		neg = true
		l.advance()
	}
	digitsStart := l.pos
	for isDigit(l.peekByte()) {
		l.advance()
	}
	if l.pos == digitsStart || isAlpha(l.peekByte()) {
		// No octave digits, or an identifier continues past this point
		// (e.g. "Bass" is not a pitch): rewind, not a pitch literal.
		l.pos, l.line, l.col = savePos, saveLine, saveCol
		return token.Token{}, false, nil
	}
	octave, err := strconv.Atoi(l.src[digitsStart:l.pos])
	if err != nil {
		return token.Token{}, false, &LexError{Code: "invalid-number", Message: "invalid octave", Pos: pos}
	}
	if neg {
		octave = -octave
	}

	midi := (octave+1)*12 + letterClass + accidental
	lit := l.src[start:l.pos]
	return token.Token{Type: token.PITCH, Literal: lit, Pos: pos, PitchMIDI: midi, PitchCents: 0}, true, nil
}

// augmentedDuration returns the reduced numerator/denominator (in whole
// notes) for a base duration (its denominator relative to a whole note)
// with the given count of augmentation dots: 1 + 1/2 + 1/4 + ...
func augmentedDuration(baseDen int64, dots int) (num, den int64) {
	// value = (1/baseDen) * (2 - 1/2^dots) = (2^(dots+1) - 1) / (baseDen * 2^dots)
	pow := int64(1)
	for i := 0; i < dots; i++ {
		pow *= 2
	}
	num = 2*pow - 1
	den = baseDen * pow
	g := gcd(num, den)
	if g != 0 {
		num /= g
		den /= g
	}
	return num, den
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func (l *Lexer) lexNumberOrBarBeat(pos token.Position) (token.Token, error) {
	start := l.pos
	for isDigit(l.peekByte()) {
		l.advance()
	}

	// Bar:beat literal: two positive integers joined by ':' with no
	// surrounding whitespace, distinguished from a ratio written with '/'.
	if l.peekByte() == ':' && isDigit(l.peekByteAt(1)) {
		barStr := l.src[start:l.pos]
		l.advance() // consume ':'
		beatStart := l.pos
		for isDigit(l.peekByte()) {
			l.advance()
		}
		beatStr := l.src[beatStart:l.pos]
		bar, _ := strconv.Atoi(barStr)
		beat, _ := strconv.Atoi(beatStr)
		lit := l.src[start:l.pos]
		return token.Token{Type: token.BARBEAT, Literal: lit, Pos: pos, BarBeatBar: bar, BarBeatVal: beat}, nil
	}

	isFloat := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advance()
		}
		if isDigit(l.peekByte()) {
			isFloat = true
			for isDigit(l.peekByte()) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}

	lit := l.src[start:l.pos]
	if isFloat {
		return token.Token{Type: token.FLOAT, Literal: lit, Pos: pos}, nil
	}
	return token.Token{Type: token.INT, Literal: lit, Pos: pos}, nil
}

func (l *Lexer) lexString(pos token.Position) (token.Token, error) {
	start := l.pos
	l.advance() // opening quote
	var parts []token.TemplatePart
	var staticBuf strings.Builder
	isTemplate := false

	for {
		if l.pos >= len(l.src) {
			return token.Token{}, &LexError{Code: "unterminated-string", Message: "unterminated string literal", Pos: pos}
		}
		b := l.peekByte()
		if b == '"' {
			l.advance()
			break
		}
		if b == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return token.Token{}, &LexError{Code: "unterminated-string", Message: "unterminated escape", Pos: pos}
			}
			esc := l.advance()
			switch esc {
			case 'n':
				staticBuf.WriteByte('\n')
			case 't':
				staticBuf.WriteByte('\t')
			case '\\':
				staticBuf.WriteByte('\\')
			case '"':
				staticBuf.WriteByte('"')
			case '$':
				staticBuf.WriteByte('$')
			default:
				return token.Token{}, &LexError{Code: "invalid-escape", Message: fmt.Sprintf("invalid escape '\\%c'", esc), Pos: l.here()}
			}
			continue
		}
		if b == '$' && l.peekByteAt(1) == '{' {
			isTemplate = true
			l.advance()
			l.advance()
			exprStart := l.pos
			depth := 1
			for l.pos < len(l.src) && depth > 0 {
				c := l.peekByte()
				if c == '{' {
					depth++
				} else if c == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				l.advance()
			}
			if depth != 0 {
				return token.Token{}, &LexError{Code: "unterminated-template-expr", Message: "unterminated template expression", Pos: pos}
			}
			exprSrc := l.src[exprStart:l.pos]
			l.advance() // consume '}'
			parts = append(parts, token.TemplatePart{Static: staticBuf.String(), Expr: exprSrc})
			staticBuf.Reset()
			continue
		}
		staticBuf.WriteByte(l.advance())
	}

	if isTemplate {
		parts = append(parts, token.TemplatePart{Static: staticBuf.String()})
		return token.Token{Type: token.TEMPLATE, Literal: l.src[start:l.pos], Pos: pos, Template: parts}, nil
	}
	return token.Token{Type: token.STRING, Literal: staticBuf.String(), Pos: pos}, nil
}

func (l *Lexer) lexOperator(pos token.Position) (token.Token, error) {
	b := l.advance()
	two := func(next byte, t token.Type, single token.Type) token.Token {
		if l.peekByte() == next {
			l.advance()
			return token.Token{Type: t, Literal: string(b) + string(next), Pos: pos}
		}
		return token.Token{Type: single, Literal: string(b), Pos: pos}
	}

	switch b {
	case '+':
		return token.Token{Type: token.PLUS, Literal: "+", Pos: pos}, nil
	case '-':
		if l.peekByte() == '>' {
			l.advance()
			return token.Token{Type: token.ARROW, Literal: "->", Pos: pos}, nil
		}
		return token.Token{Type: token.MINUS, Literal: "-", Pos: pos}, nil
	case '*':
		return token.Token{Type: token.STAR, Literal: "*", Pos: pos}, nil
	case '/':
		return token.Token{Type: token.SLASH, Literal: "/", Pos: pos}, nil
	case '%':
		return token.Token{Type: token.PERCENT, Literal: "%", Pos: pos}, nil
	case '=':
		return two('=', token.EQ, token.ASSIGN), nil
	case '!':
		return two('=', token.NEQ, token.NOT), nil
	case '<':
		return two('=', token.LE, token.LT), nil
	case '>':
		return two('=', token.GE, token.GT), nil
	case '&':
		if l.peekByte() == '&' {
			l.advance()
			return token.Token{Type: token.AND, Literal: "&&", Pos: pos}, nil
		}
		return token.Token{}, &LexError{Code: "unexpected-char", Message: "unexpected '&'", Pos: pos}
	case '|':
		if l.peekByte() == '|' {
			l.advance()
			return token.Token{Type: token.OR, Literal: "||", Pos: pos}, nil
		}
		return token.Token{}, &LexError{Code: "unexpected-char", Message: "unexpected '|'", Pos: pos}
	case '?':
		if l.peekByte() == '?' {
			l.advance()
			return token.Token{Type: token.COALESCE, Literal: "??", Pos: pos}, nil
		}
		return token.Token{}, &LexError{Code: "unexpected-char", Message: "unexpected '?'", Pos: pos}
	case '.':
		if l.peekByte() == '.' {
			l.advance()
			if l.peekByte() == '=' {
				l.advance()
				return token.Token{Type: token.RANGEEQ, Literal: "..=", Pos: pos}, nil
			}
			return token.Token{Type: token.RANGE, Literal: "..", Pos: pos}, nil
		}
		return token.Token{Type: token.DOT, Literal: ".", Pos: pos}, nil
	case ',':
		return token.Token{Type: token.COMMA, Literal: ",", Pos: pos}, nil
	case ';':
		return token.Token{Type: token.SEMI, Literal: ";", Pos: pos}, nil
	case ':':
		return token.Token{Type: token.COLON, Literal: ":", Pos: pos}, nil
	case '(':
		return token.Token{Type: token.LPAREN, Literal: "(", Pos: pos}, nil
	case ')':
		return token.Token{Type: token.RPAREN, Literal: ")", Pos: pos}, nil
	case '{':
		return token.Token{Type: token.LBRACE, Literal: "{", Pos: pos}, nil
	case '}':
		return token.Token{Type: token.RBRACE, Literal: "}", Pos: pos}, nil
	case '[':
		return token.Token{Type: token.LBRACKET, Literal: "[", Pos: pos}, nil
	case ']':
		return token.Token{Type: token.RBRACKET, Literal: "]", Pos: pos}, nil
	}

	return token.Token{}, &LexError{Code: "unexpected-char", Message: fmt.Sprintf("unexpected character %q", b), Pos: pos}
}
