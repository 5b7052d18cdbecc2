// Package token defines the lexical token set for the TakoMusic DSL:
// the tagged union of literal kinds, punctuators and keywords described
// in spec.md §4.1, plus the position every token carries for diagnostics.
package token

import "fmt"

// Type identifies the kind of lexeme a Token carries.
type Type int

const (
	ILLEGAL Type = iota
	EOF

	// Literals
	IDENT     // identifier
	INT       // 123
	FLOAT     // 1.5
	STRING    // "..."
	TEMPLATE  // "...${...}..."
	PITCH     // C4, D#5, Eb-1
	DURATION  // q, e., w
	BARBEAT   // 2:1

	// Punctuators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	EQ       // ==
	NEQ      // !=
	LT       // <
	LE       // <=
	GT       // >
	GE       // >=
	AND      // &&
	OR       // ||
	NOT      // !
	COALESCE // ??
	RANGE    // ..
	RANGEEQ  // ..=
	DOT      // .
	COMMA    // ,
	SEMI     // ;
	COLON    // :
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	ASSIGN   // =
	ARROW    // ->

	// Keywords
	FN
	CONST
	LET
	IF
	ELSE
	FOR
	IN
	RETURN
	MATCH
	IMPORT
	EXPORT
	FROM
	AS
	SCORE
	CLIP
	TRACK
	SOUND
	TEMPO
	METER
	META
	PLACE
	KIND
	ROLE
	INSTRUMENT
	DRUMKIT
	VOCAL
	FX
	UP
	DOWN
	TRUE
	FALSE
	NULL
)

var names = map[Type]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT", STRING: "STRING",
	TEMPLATE: "TEMPLATE", PITCH: "PITCH", DURATION: "DURATION", BARBEAT: "BARBEAT",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	EQ: "==", NEQ: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
	AND: "&&", OR: "||", NOT: "!", COALESCE: "??",
	RANGE: "..", RANGEEQ: "..=", DOT: ".", COMMA: ",", SEMI: ";", COLON: ":",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	ASSIGN: "=", ARROW: "->",
	FN: "fn", CONST: "const", LET: "let", IF: "if", ELSE: "else",
	FOR: "for", IN: "in", RETURN: "return", MATCH: "match",
	IMPORT: "import", EXPORT: "export", FROM: "from", AS: "as",
	SCORE: "score", CLIP: "clip", TRACK: "track", SOUND: "sound",
	TEMPO: "tempo", METER: "meter", META: "meta", PLACE: "place",
	KIND: "kind", ROLE: "role", INSTRUMENT: "instrument", DRUMKIT: "drumKit",
	VOCAL: "vocal", FX: "fx", UP: "up", DOWN: "down",
	TRUE: "true", FALSE: "false", NULL: "null",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords maps reserved identifiers to their Type. Anything not in this
// table lexes as IDENT.
var keywords = map[string]Type{
	"fn": FN, "const": CONST, "let": LET, "if": IF, "else": ELSE,
	"for": FOR, "in": IN, "return": RETURN, "match": MATCH,
	"import": IMPORT, "export": EXPORT, "from": FROM, "as": AS,
	"score": SCORE, "clip": CLIP, "track": TRACK, "sound": SOUND,
	"tempo": TEMPO, "meter": METER, "meta": META, "place": PLACE,
	"kind": KIND, "role": ROLE, "instrument": INSTRUMENT, "drumKit": DRUMKIT,
	"vocal": VOCAL, "fx": FX, "up": UP, "down": DOWN,
	"true": TRUE, "false": FALSE, "null": NULL,
}

// LookupIdent returns the keyword Type for ident, or IDENT if ident is
// not reserved. Unlike the Pascal-flavored DWScript keyword table this
// language draws idiom from, TakoMusic keywords are case-sensitive.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}

// Position is a 1-indexed source location.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// TemplatePart is one static segment of a template string literal; Expr
// holds the raw, not-yet-lexed source of an embedded `${...}` expression
// that follows this segment (empty for the final segment).
type TemplatePart struct {
	Static string
	Expr   string
}

// Token is one lexeme with its source position. PitchMIDI/PitchCents,
// DurNum/DurDen and BarBeatBar/BarBeatVal are populated only for the
// corresponding literal kinds; they
// are computed during lexing per spec.md §4.1 rather than re-parsed
// downstream.
type Token struct {
	Type    Type
	Literal string
	Pos     Position

	// Pre-computed literal payloads.
	PitchMIDI  int            // valid when Type == PITCH
	PitchCents int            // valid when Type == PITCH
	DurNum     int64          // valid when Type == DURATION (reduced numerator)
	DurDen     int64          // valid when Type == DURATION (reduced denominator)
	BarBeatBar int            // valid when Type == BARBEAT
	BarBeatVal int            // valid when Type == BARBEAT
	Template   []TemplatePart // valid when Type == TEMPLATE
}

func (t Token) String() string {
	if t.Type == EOF {
		return fmt.Sprintf("EOF at %s", t.Pos)
	}
	if len(t.Literal) > 24 {
		return fmt.Sprintf("%s(%q...) at %s", t.Type, t.Literal[:24], t.Pos)
	}
	return fmt.Sprintf("%s(%q) at %s", t.Type, t.Literal, t.Pos)
}
