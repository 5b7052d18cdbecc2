// Package parser turns a token stream into the typed AST in internal/ast,
// using recursive descent with precedence climbing for expressions
// (spec.md §4.2). Parsing never aborts on the first error: the parser
// records a diagnostic and attempts to resynchronize at the next
// statement boundary so later errors in the same file are still found.
package parser

import (
	"strconv"

	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/lexer"
	"github.com/tako0614/takomusic/internal/token"
)

// ParseError describes a syntax error and its position. Parse itself
// does not return it: syntax errors are recorded as diagnostics in the
// supplied Bag and parsing continues.
type ParseError struct {
	Message string
	Pos     token.Position
}

func (e *ParseError) Error() string { return e.Message }

type Parser struct {
	toks     []token.Token
	pos      int
	filePath string
	bag      *diag.Bag
}

// Parse tokenizes source and parses it into a *ast.Program. Syntax
// errors are appended to bag; Parse still returns a best-effort AST so
// later stages can keep looking for more problems in other modules.
func Parse(source, filePath string, bag *diag.Bag) (*ast.Program, error) {
	toks, err := lexer.Tokenize(source, filePath)
	if err != nil {
		if lexErr, ok := err.(*lexer.LexError); ok {
			p := diag.Position{Line: lexErr.Pos.Line, Column: lexErr.Pos.Column}
			bag.Error(lexErr.Code, filePath, &p, lexErr.Message)
			return &ast.Program{}, nil
		}
		return nil, err
	}
	p := &Parser{toks: toks, filePath: filePath, bag: bag}
	return p.parseProgram(), nil
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) curType() token.Type { return p.toks[p.pos].Type }

func (p *Parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(t token.Type) bool { return p.curType() == t }

func (p *Parser) accept(t token.Type) (token.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) dpos(pos token.Position) *diag.Position {
	return &diag.Position{Line: pos.Line, Column: pos.Column}
}

func (p *Parser) errorf(code, format string, args ...interface{}) {
	p.bag.Errorf(code, p.filePath, p.dpos(p.cur().Pos), format, args...)
}

// expect consumes a token of type t, or records a "expected-token"
// diagnostic and returns the current token without consuming it.
func (p *Parser) expect(t token.Type) token.Token {
	if p.at(t) {
		return p.advance()
	}
	p.errorf("expected-token", "expected %s, found %s", t, p.curType())
	return p.cur()
}

// sync advances past tokens until it finds one in stopSet, SEMI, or EOF,
// so a single malformed statement does not cascade into spurious errors.
func (p *Parser) sync(stopSet ...token.Type) {
	for !p.at(token.EOF) {
		if p.at(token.SEMI) {
			p.advance()
			return
		}
		for _, t := range stopSet {
			if p.at(t) {
				return
			}
		}
		p.advance()
	}
}

func astPos(t token.Token) token.Position { return t.Pos }

// parseKindWord consumes either a plain identifier or one of the
// reserved sound/role-kind words (instrument/drumKit/vocal/fx), which
// lex as keywords rather than IDENT, and returns its literal text.
func (p *Parser) parseKindWord() string {
	switch p.curType() {
	case token.INSTRUMENT, token.DRUMKIT, token.VOCAL, token.FX, token.IDENT:
		return p.advance().Literal
	default:
		p.errorf("expected-token", "expected a sound/role kind, found %s", p.curType())
		return ""
	}
}

// ---- top level ----

func (p *Parser) parseProgram() *ast.Program {
	startPos := p.cur().Pos
	prog := &ast.Program{Path: startPos}
	for p.at(token.IMPORT) {
		prog.Imports = append(prog.Imports, p.parseImportDecl())
	}
	for !p.at(token.EOF) {
		d := p.parseDecl()
		if d != nil {
			prog.Body = append(prog.Body, d)
		}
	}
	return prog
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	pos := p.cur().Pos
	p.expect(token.IMPORT)
	var names []string
	var namespace string
	if _, ok := p.accept(token.STAR); ok {
		p.expect(token.AS)
		namespace = p.expect(token.IDENT).Literal
	} else {
		for {
			names = append(names, p.expect(token.IDENT).Literal)
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
	}
	p.expect(token.FROM)
	from := p.parseStringLiteralRaw()
	p.expect(token.SEMI)
	return ast.NewImportDecl(names, namespace, from, pos)
}

func (p *Parser) parseStringLiteralRaw() string {
	tok := p.cur()
	if tok.Type == token.STRING {
		p.advance()
		return tok.Literal
	}
	p.errorf("expected-token", "expected string literal, found %s", tok.Type)
	return ""
}

func (p *Parser) parseDecl() ast.Decl {
	exported := false
	if _, ok := p.accept(token.EXPORT); ok {
		exported = true
	}
	switch p.curType() {
	case token.FN:
		return p.parseFnDecl(exported)
	case token.CONST, token.LET:
		d := p.parseConstDecl(exported)
		p.expect(token.SEMI)
		return d
	case token.IDENT:
		if p.cur().Literal == "type" {
			return p.parseTypeAliasDecl(exported)
		}
		if p.cur().Literal == "enum" {
			return p.parseEnumDecl(exported)
		}
		p.errorf("unexpected-token", "unexpected token %s at top level", p.curType())
		p.sync(token.FN, token.CONST, token.LET, token.EXPORT)
		return nil
	default:
		p.errorf("unexpected-token", "unexpected token %s at top level", p.curType())
		p.sync(token.FN, token.CONST, token.LET, token.EXPORT)
		return nil
	}
}

func (p *Parser) parseFnDecl(exported bool) *ast.FnDecl {
	pos := p.cur().Pos
	p.expect(token.FN)
	name := p.expect(token.IDENT).Literal
	var typeParams []string
	if _, ok := p.accept(token.LT); ok {
		for !p.at(token.GT) && !p.at(token.EOF) {
			typeParams = append(typeParams, p.expect(token.IDENT).Literal)
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
		p.expect(token.GT)
	}
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		ppos := p.cur().Pos
		pname := p.expect(token.IDENT).Literal
		ptype := ""
		if _, ok := p.accept(token.COLON); ok {
			ptype = p.parseTypeName()
		}
		params = append(params, ast.NewParam(pname, ptype, ppos))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RPAREN)
	retType := ""
	if _, ok := p.accept(token.ARROW); ok {
		retType = p.parseTypeName()
	}
	body := p.parseBlock()
	return ast.NewFnDecl(name, typeParams, params, retType, body, exported, pos)
}

// parseTypeName consumes a (possibly generic, possibly array) advisory
// type annotation and returns its source text form.
func (p *Parser) parseTypeName() string {
	name := p.expect(token.IDENT).Literal
	if _, ok := p.accept(token.LT); ok {
		name += "<"
		for !p.at(token.GT) && !p.at(token.EOF) {
			name += p.parseTypeName()
			if _, ok := p.accept(token.COMMA); ok {
				name += ","
			} else {
				break
			}
		}
		p.expect(token.GT)
		name += ">"
	}
	return name
}

func (p *Parser) parsePattern() ast.Pattern {
	if _, ok := p.accept(token.LPAREN); ok {
		var elems []string
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			elems = append(elems, p.expect(token.IDENT).Literal)
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
		p.expect(token.RPAREN)
		return ast.Pattern{Elements: elems}
	}
	return ast.Pattern{Name: p.expect(token.IDENT).Literal}
}

func (p *Parser) parseConstDecl(exported bool) *ast.ConstDecl {
	pos := p.cur().Pos
	mutable := p.at(token.LET)
	if mutable {
		p.expect(token.LET)
	} else {
		p.expect(token.CONST)
	}
	target := p.parsePattern()
	typ := ""
	if _, ok := p.accept(token.COLON); ok {
		typ = p.parseTypeName()
	}
	p.expect(token.ASSIGN)
	init := p.parseExpr()
	return ast.NewConstDecl(target, typ, init, mutable, exported, pos)
}

func (p *Parser) parseTypeAliasDecl(exported bool) *ast.TypeAliasDecl {
	pos := p.cur().Pos
	p.advance() // "type"
	name := p.expect(token.IDENT).Literal
	p.expect(token.ASSIGN)
	underlying := p.parseTypeName()
	p.expect(token.SEMI)
	return ast.NewTypeAliasDecl(name, underlying, exported, pos)
}

func (p *Parser) parseEnumDecl(exported bool) *ast.EnumDecl {
	pos := p.cur().Pos
	p.advance() // "enum"
	name := p.expect(token.IDENT).Literal
	p.expect(token.LBRACE)
	var variants []ast.EnumVariantDef
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		vname := p.expect(token.IDENT).Literal
		var fields []string
		if _, ok := p.accept(token.LPAREN); ok {
			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				fields = append(fields, p.parseTypeName())
				if _, ok := p.accept(token.COMMA); !ok {
					break
				}
			}
			p.expect(token.RPAREN)
		}
		variants = append(variants, ast.EnumVariantDef{Name: vname, Fields: fields})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACE)
	return ast.NewEnumDecl(name, variants, exported, pos)
}

// ---- statements ----

func (p *Parser) parseBlock() *ast.Block {
	pos := p.cur().Pos
	p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(token.RBRACE)
	return ast.NewBlock(stmts, pos)
}

func (p *Parser) parseStmt() ast.Stmt {
	pos := p.cur().Pos
	switch p.curType() {
	case token.RETURN:
		p.advance()
		var val ast.Expr
		if !p.at(token.SEMI) {
			val = p.parseExpr()
		}
		p.expect(token.SEMI)
		return ast.NewReturnStmt(val, pos)
	case token.IF:
		return p.parseIfStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.CONST, token.LET:
		d := p.parseConstDecl(false)
		p.expect(token.SEMI)
		return ast.NewDeclStmt(d, pos)
	case token.LBRACE:
		b := p.parseBlock()
		return ast.NewBlockStmt(b, pos)
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	pos := p.cur().Pos
	p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseBlock()
	var els *ast.Block
	if _, ok := p.accept(token.ELSE); ok {
		if p.at(token.IF) {
			inner := p.parseIfStmt()
			els = ast.NewBlock([]ast.Stmt{inner}, inner.Pos())
		} else {
			els = p.parseBlock()
		}
	}
	return ast.NewIfStmt(cond, then, els, pos)
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	pos := p.cur().Pos
	p.expect(token.FOR)
	p.expect(token.LPAREN)
	name := p.expect(token.IDENT).Literal
	p.expect(token.IN)
	iterable := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return ast.NewForStmt(name, iterable, body, pos)
}

func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	pos := p.cur().Pos
	x := p.parseExpr()
	if _, ok := p.accept(token.ASSIGN); ok {
		value := p.parseExpr()
		p.expect(token.SEMI)
		return ast.NewAssignmentStmt(x, value, pos)
	}
	p.expect(token.SEMI)
	return ast.NewExprStmt(x, pos)
}

// ---- expressions: precedence climbing ----

// binding power table, low to high.
var precedence = map[token.Type]int{
	token.COALESCE: 1,
	token.OR:       2,
	token.AND:      3,
	token.EQ:       4, token.NEQ: 4,
	token.LT: 5, token.LE: 5, token.GT: 5, token.GE: 5,
	token.RANGE: 6, token.RANGEEQ: 6,
	token.PLUS: 7, token.MINUS: 7,
	token.STAR: 8, token.SLASH: 8, token.PERCENT: 8,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := precedence[p.curType()]
		if !ok || prec < minPrec {
			return left
		}
		op := p.curType()
		pos := p.cur().Pos
		p.advance()
		if op == token.RANGE || op == token.RANGEEQ {
			right := p.parseBinary(prec + 1)
			left = ast.NewRangeExpr(left, right, true, pos)
			continue
		}
		right := p.parseBinary(prec + 1)
		left = ast.NewBinaryExpr(op, left, right, pos)
	}
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.cur().Pos
	switch p.curType() {
	case token.MINUS, token.NOT:
		op := p.curType()
		p.advance()
		x := p.parseUnary()
		return ast.NewUnaryExpr(op, x, pos)
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		pos := p.cur().Pos
		switch p.curType() {
		case token.DOT:
			p.advance()
			name := p.expect(token.IDENT).Literal
			x = ast.NewMemberExpr(x, name, pos)
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			x = ast.NewIndexExpr(x, idx, pos)
		case token.LPAREN:
			x = ast.NewCallExpr(x, p.parseArgs(), pos)
		default:
			return x
		}
	}
}

func (p *Parser) parseArgs() []ast.Arg {
	p.expect(token.LPAREN)
	var args []ast.Arg
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		name := ""
		if p.at(token.IDENT) && p.peekAt(1).Type == token.COLON {
			name = p.advance().Literal
			p.advance() // colon
		}
		val := p.parseExpr()
		args = append(args, ast.Arg{Name: name, Value: val})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	pos := tok.Pos
	switch tok.Type {
	case token.INT:
		p.advance()
		v, _ := strconv.ParseInt(tok.Literal, 10, 64)
		return ast.NewNumberLitInt(v, pos)
	case token.FLOAT:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return ast.NewNumberLitFloat(v, pos)
	case token.STRING:
		p.advance()
		return ast.NewStringLit(tok.Literal, pos)
	case token.TEMPLATE:
		p.advance()
		return p.parseTemplateFromToken(tok, pos)
	case token.PITCH:
		p.advance()
		return ast.NewPitchLit(tok.PitchMIDI, tok.PitchCents, pos)
	case token.DURATION:
		p.advance()
		return ast.NewDurationLit(tok.DurNum, tok.DurDen, pos)
	case token.BARBEAT:
		p.advance()
		return ast.NewBarBeatLit(tok.BarBeatBar, tok.BarBeatVal, pos)
	case token.TRUE:
		p.advance()
		return ast.NewBoolLit(true, pos)
	case token.FALSE:
		p.advance()
		return ast.NewBoolLit(false, pos)
	case token.NULL:
		p.advance()
		return ast.NewNullLit(pos)
	case token.IDENT, token.UP, token.DOWN:
		p.advance()
		return ast.NewIdentifier(tok.Literal, pos)
	case token.LPAREN:
		p.advance()
		first := p.parseExpr()
		if _, ok := p.accept(token.COMMA); ok {
			elems := []ast.Expr{first}
			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				elems = append(elems, p.parseExpr())
				if _, ok := p.accept(token.COMMA); !ok {
					break
				}
			}
			p.expect(token.RPAREN)
			return ast.NewTupleLit(elems, pos)
		}
		p.expect(token.RPAREN)
		return first
	case token.LBRACKET:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseObjectLit()
	case token.FN:
		return p.parseFnLit()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.SCORE:
		return p.parseScoreExpr()
	case token.CLIP:
		return p.parseClipExpr()
	default:
		p.errorf("unexpected-token", "unexpected token %s in expression", tok.Type)
		p.advance()
		return ast.NewNullLit(pos)
	}
}

func (p *Parser) parseTemplateFromToken(tok token.Token, pos token.Position) *ast.TemplateLiteral {
	var segs []ast.TemplateSegment
	for _, part := range tok.Template {
		var inner ast.Expr
		if part.Expr != "" {
			subBag := diag.NewBag()
			subToks, err := lexer.Tokenize(part.Expr, p.filePath)
			if err == nil {
				sub := &Parser{toks: subToks, filePath: p.filePath, bag: subBag}
				inner = sub.parseExpr()
			}
			p.bag.Merge(subBag)
		}
		segs = append(segs, ast.TemplateSegment{Static: part.Static, Expr: inner})
	}
	return ast.NewTemplateLiteral(segs, pos)
}

func (p *Parser) parseArrayLit() *ast.ArrayLit {
	pos := p.cur().Pos
	p.expect(token.LBRACKET)
	var elems []ast.Expr
	var spread []bool
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		isSpread := false
		if p.at(token.RANGE) {
			// `...x` would lex as RANGE+? but this language has no
			// dedicated spread token beyond reusing `..`; spread uses
			// a leading `..` before the element.
			p.advance()
			isSpread = true
		}
		elems = append(elems, p.parseExpr())
		spread = append(spread, isSpread)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACKET)
	return ast.NewArrayLit(elems, spread, pos)
}

func (p *Parser) parseObjectLit() *ast.ObjectLit {
	pos := p.cur().Pos
	p.expect(token.LBRACE)
	var fields []ast.ObjectField
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if p.at(token.RANGE) {
			p.advance()
			val := p.parseExpr()
			fields = append(fields, ast.ObjectField{Spread: true, Value: val})
		} else {
			var key string
			if p.at(token.DURATION) {
				// single-letter keys such as `t` lex as duration literals
				key = p.advance().Literal
			} else {
				key = p.expect(token.IDENT).Literal
			}
			p.expect(token.COLON)
			val := p.parseExpr()
			fields = append(fields, ast.ObjectField{Key: key, Value: val})
		}
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACE)
	return ast.NewObjectLit(fields, pos)
}

func (p *Parser) parseFnLit() *ast.FnLit {
	pos := p.cur().Pos
	p.expect(token.FN)
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		ppos := p.cur().Pos
		pname := p.expect(token.IDENT).Literal
		ptype := ""
		if _, ok := p.accept(token.COLON); ok {
			ptype = p.parseTypeName()
		}
		params = append(params, ast.NewParam(pname, ptype, ppos))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RPAREN)
	retType := ""
	if _, ok := p.accept(token.ARROW); ok {
		retType = p.parseTypeName()
	}
	body := p.parseBlock()
	return ast.NewFnLit(params, retType, body, pos)
}

func (p *Parser) parseMatchExpr() *ast.MatchExpr {
	pos := p.cur().Pos
	p.expect(token.MATCH)
	p.expect(token.LPAREN)
	head := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	var arms []ast.MatchArm
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		var arm ast.MatchArm
		if p.at(token.ELSE) {
			p.advance()
			arm.Default = true
		} else {
			first := p.parseExpr()
			if rng, ok := first.(*ast.RangeExpr); ok {
				arm.Low, arm.High, arm.RangeEq = rng.From, rng.To, true
			} else {
				arm.Pattern = first
			}
		}
		p.expect(token.ARROW)
		arm.Result = p.parseExpr()
		arms = append(arms, arm)
		if _, ok := p.accept(token.COMMA); !ok {
			if _, ok := p.accept(token.SEMI); !ok {
				break
			}
		}
	}
	p.expect(token.RBRACE)
	return ast.NewMatchExpr(head, arms, pos)
}

// ---- score / clip grammar ----

func (p *Parser) parseScoreExpr() *ast.ScoreExpr {
	pos := p.cur().Pos
	p.expect(token.SCORE)
	p.expect(token.LBRACE)
	var items []ast.ScoreItem
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		items = append(items, p.parseScoreItem())
	}
	p.expect(token.RBRACE)
	return ast.NewScoreExpr(items, pos)
}

func (p *Parser) parseScoreItem() ast.ScoreItem {
	pos := p.cur().Pos
	switch {
	case p.at(token.META):
		p.advance()
		p.expect(token.LBRACE)
		var fields []ast.MetaField
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			key := p.expect(token.IDENT).Literal
			p.expect(token.COLON)
			val := p.parseExpr()
			fields = append(fields, ast.MetaField{Key: key, Value: val})
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
		p.expect(token.RBRACE)
		return ast.NewMetaBlock(fields, pos)
	case p.at(token.TEMPO):
		p.advance()
		p.expect(token.LBRACE)
		var points []ast.TempoPoint
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			at := p.parseExpr()
			p.expect(token.ARROW)
			bpm := p.parseExpr()
			var unit ast.Expr
			if _, ok := p.accept(token.COMMA); ok {
				p.expect(token.IDENT) // "unit"
				p.expect(token.COLON)
				unit = p.parseExpr()
			}
			p.expect(token.SEMI)
			points = append(points, ast.TempoPoint{At: at, BPM: bpm, Unit: unit})
		}
		p.expect(token.RBRACE)
		return ast.NewTempoBlock(points, pos)
	case p.at(token.METER):
		p.advance()
		p.expect(token.LBRACE)
		var points []ast.MeterPoint
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			at := p.parseExpr()
			p.expect(token.ARROW)
			num := p.parseUnary()
			p.expect(token.SLASH)
			den := p.parseUnary()
			p.expect(token.SEMI)
			points = append(points, ast.MeterPoint{At: at, Num: num, Den: den})
		}
		p.expect(token.RBRACE)
		return ast.NewMeterBlock(points, pos)
	case p.at(token.SOUND):
		p.advance()
		id := p.parseStringLiteralRaw()
		p.expect(token.KIND)
		kind := p.parseKindWord()
		p.expect(token.LBRACE)
		var fields []ast.ObjectField
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			key := p.expect(token.IDENT).Literal
			p.expect(token.COLON)
			val := p.parseExpr()
			fields = append(fields, ast.ObjectField{Key: key, Value: val})
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
		p.expect(token.RBRACE)
		return ast.NewSoundDeclItem(id, kind, fields, pos)
	case p.at(token.TRACK):
		p.advance()
		name := p.parseStringLiteralRaw()
		role := ""
		sound := ""
		if _, ok := p.accept(token.ROLE); ok {
			role = p.parseKindWord()
		}
		if _, ok := p.accept(token.SOUND); ok {
			sound = p.parseStringLiteralRaw()
		}
		p.expect(token.LBRACE)
		var placements []ast.TrackPlacement
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			p.expect(token.PLACE)
			at := p.parseExpr()
			clipExpr := p.parseExpr()
			p.expect(token.SEMI)
			placements = append(placements, ast.TrackPlacement{At: at, Clip: clipExpr})
		}
		p.expect(token.RBRACE)
		return ast.NewTrackDeclItem(name, role, sound, placements, pos)
	case p.at(token.IDENT) && p.cur().Literal == "marker":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var at, kind, label ast.Expr
		if len(args) > 0 {
			at = args[0].Value
		}
		if len(args) > 1 {
			kind = args[1].Value
		}
		if len(args) > 2 {
			label = args[2].Value
		}
		return ast.NewScoreMarkerItem(at, kind, label, pos)
	default:
		p.errorf("unexpected-token", "unexpected token %s inside score", p.curType())
		p.sync(token.META, token.TEMPO, token.METER, token.SOUND, token.TRACK, token.RBRACE)
		return ast.NewMetaBlock(nil, pos)
	}
}

func (p *Parser) parseClipExpr() *ast.ClipExpr {
	pos := p.cur().Pos
	p.expect(token.CLIP)
	p.expect(token.LBRACE)
	var stmts []ast.ClipStmt
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseClipStmt())
	}
	p.expect(token.RBRACE)
	return ast.NewClipExpr(stmts, pos)
}

func (p *Parser) parseClipStmt() ast.ClipStmt {
	pos := p.cur().Pos
	if !p.at(token.IDENT) {
		p.errorf("unexpected-token", "unexpected token %s inside clip", p.curType())
		p.sync(token.RBRACE)
		return ast.NewRestStmt(nil, pos)
	}
	name := p.cur().Literal
	switch name {
	case "at":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var v ast.Expr
		if len(args) > 0 {
			v = args[0].Value
		}
		return ast.NewAtStmt(v, pos)
	case "rest":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var dur ast.Expr
		if len(args) > 0 {
			dur = args[0].Value
		}
		return ast.NewRestStmt(dur, pos)
	case "note":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		pitch, dur, rest := splitPositional(args, 2)
		return ast.NewNoteStmt(pitch, dur, rest, pos)
	case "chord":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		pitches, dur, rest := splitPositional(args, 2)
		return ast.NewChordStmt(pitches, dur, rest, pos)
	case "hit":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		key, dur, rest := splitPositional(args, 2)
		return ast.NewHitStmt(key, dur, rest, pos)
	case "breath":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var dur ast.Expr
		var rest []ast.Arg
		if len(args) > 0 {
			dur = args[0].Value
			rest = args[1:]
		}
		return ast.NewBreathStmt(dur, rest, pos)
	case "arp":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var pitches, unit, dir ast.Expr
		for i, a := range args {
			switch {
			case a.Name == "dir":
				dir = a.Value
			case i == 0:
				pitches = a.Value
			case i == 1:
				unit = a.Value
			}
		}
		return ast.NewArpStmt(pitches, unit, dir, pos)
	case "triplet":
		p.advance()
		p.expect(token.LPAREN)
		n := p.parseExpr()
		var inTime ast.Expr
		if _, ok := p.accept(token.COMMA); ok {
			p.expect(token.IDENT) // "inTime"
			p.expect(token.COLON)
			inTime = p.parseExpr()
		}
		p.expect(token.RPAREN)
		p.expect(token.LBRACE)
		var body []ast.ClipStmt
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			body = append(body, p.parseClipStmt())
		}
		p.expect(token.RBRACE)
		return ast.NewTripletStmt(n, inTime, body, pos)
	case "cc":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var ctrl, val ast.Expr
		if len(args) > 0 {
			ctrl = args[0].Value
		}
		if len(args) > 1 {
			val = args[1].Value
		}
		return ast.NewCCStmt(ctrl, val, pos)
	case "automation":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		param, curve, rest := splitPositional(args, 2)
		return ast.NewAutomationStmt(param, curve, rest, pos)
	case "marker":
		p.advance()
		args := p.parseArgs()
		p.expect(token.SEMI)
		var kind, label ast.Expr
		if len(args) > 0 {
			kind = args[0].Value
		}
		if len(args) > 1 {
			label = args[1].Value
		}
		return ast.NewMarkerStmt(kind, label, pos)
	default:
		p.errorf("unexpected-token", "unknown clip statement %q", name)
		p.sync(token.RBRACE)
		return ast.NewRestStmt(nil, pos)
	}
}

// splitPositional pulls the first n positional (unnamed) args off the
// front of args in order and returns the remainder for named arguments
// like `velocity:`/`articulation:`.
func splitPositional(args []ast.Arg, n int) (a, b ast.Expr, rest []ast.Arg) {
	var positional []ast.Expr
	for _, arg := range args {
		if arg.Name == "" && len(positional) < n {
			positional = append(positional, arg.Value)
		} else {
			rest = append(rest, arg)
		}
	}
	if len(positional) > 0 {
		a = positional[0]
	}
	if len(positional) > 1 {
		b = positional[1]
	}
	return
}
