// Package parser implements a recursive descent parser for C.
package parser

import (
	"fmt"
	"strconv"

	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/lexer"
)

// Precedence levels for Pratt parsing (lowest to highest). Compound
// assignment is not supported, so precAssign only ever sees plain `=`.
const (
	precLowest     = 0
	precAssign     = 1 // =
	precTernary    = 2 // ?:
	precOr         = 3 // ||
	precAnd        = 4 // &&
	precBitOr      = 5 // |
	precBitXor     = 6 // ^
	precBitAnd     = 7 // &
	precEquality   = 8 // ==, !=
	precRelational = 9 // <, <=, >, >=
	precShift      = 10 // <<, >>
	precAdditive   = 11 // +, -
	precMulti      = 12 // *, /, %
)

// Parser parses C source code into a Cabs AST.
type Parser struct {
	l             *lexer.Lexer
	filename      string
	curToken      lexer.Token
	peekToken     lexer.Token
	peekPeekToken lexer.Token
	errors        []string
	typedefs      map[string]bool
}

// New creates a new Parser for the given lexer.
func New(l *lexer.Lexer, filename string) *Parser {
	p := &Parser{l: l, filename: filename, typedefs: make(map[string]bool)}
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.peekPeekToken
	p.peekPeekToken = p.l.NextToken()
}

// Errors returns the list of parsing errors.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("%s:%d:%d: %s", p.filename, p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) pos() cabs.Pos {
	return cabs.Pos{Path: p.filename, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type))
	return false
}

// syncToStmtEnd synchronizes to the end of a statement; used for
// panic-mode error recovery within blocks.
func (p *Parser) syncToStmtEnd() {
	for !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenSemicolon) {
			p.nextToken()
			return
		}
		if p.curTokenIs(lexer.TokenRBrace) || p.curTokenIs(lexer.TokenLBrace) {
			return
		}
		p.nextToken()
	}
}

// ParseProgram parses a full translation unit.
func (p *Parser) ParseProgram() *cabs.Program {
	prog := &cabs.Program{}
	for !p.curTokenIs(lexer.TokenEOF) {
		d := p.parseExternalDecl()
		if d == nil {
			p.syncToStmtEnd()
			continue
		}
		prog.Decls = append(prog.Decls, d)
	}
	return prog
}

// --- declaration specifiers ----------------------------------------------

func (p *Parser) isTypeQualifier() bool {
	switch p.curToken.Type {
	case lexer.TokenConst, lexer.TokenVolatile, lexer.TokenRestrict:
		return true
	}
	return false
}

func (p *Parser) isStorageClassSpecifier() bool {
	switch p.curToken.Type {
	case lexer.TokenExtern, lexer.TokenStatic, lexer.TokenAuto, lexer.TokenRegister, lexer.TokenTypedef:
		return true
	}
	return false
}

func (p *Parser) isTypeSpecifierStart() bool {
	switch p.curToken.Type {
	case lexer.TokenVoid, lexer.TokenBool_, lexer.TokenChar, lexer.TokenShort, lexer.TokenInt_,
		lexer.TokenLong, lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned,
		lexer.TokenStruct, lexer.TokenUnion:
		return true
	case lexer.TokenIdent:
		return p.typedefs[p.curToken.Literal]
	}
	return false
}

// isDeclarationStart reports whether the current token can begin a
// declaration, used to disambiguate block items.
func (p *Parser) isDeclarationStart() bool {
	return p.isStorageClassSpecifier() || p.isTypeQualifier() || p.isTypeSpecifierStart()
}

// parseDeclSpecifiers parses storage-class specifiers, qualifiers, and
// the base type specifier shared by every declarator in a declaration.
func (p *Parser) parseDeclSpecifiers() (base *cabs.TypeSpec, isExtern, isStatic, isTypedef bool) {
	isConst := false
	for p.isStorageClassSpecifier() || p.isTypeQualifier() {
		switch p.curToken.Type {
		case lexer.TokenExtern:
			isExtern = true
		case lexer.TokenStatic:
			isStatic = true
		case lexer.TokenTypedef:
			isTypedef = true
		case lexer.TokenConst:
			isConst = true
		}
		p.nextToken()
	}

	base = p.parseTypeSpecifier()
	if base == nil {
		return nil, isExtern, isStatic, isTypedef
	}

	// Qualifiers may also trail the type specifier (`int const x`).
	for p.isTypeQualifier() {
		if p.curTokenIs(lexer.TokenConst) {
			isConst = true
		}
		p.nextToken()
	}
	base.IsConst = base.IsConst || isConst
	return base, isExtern, isStatic, isTypedef
}

// parseTypeSpecifier parses the base type: a primitive keyword sequence,
// a struct/union specifier, or a typedef name.
func (p *Parser) parseTypeSpecifier() *cabs.TypeSpec {
	pos := p.pos()

	switch p.curToken.Type {
	case lexer.TokenVoid:
		p.nextToken()
		return &cabs.TypeSpec{Kind: cabs.KindVoid, Pos: pos}
	case lexer.TokenBool_:
		p.nextToken()
		return &cabs.TypeSpec{Kind: cabs.KindBool, Pos: pos}
	case lexer.TokenFloat:
		p.nextToken()
		return &cabs.TypeSpec{Kind: cabs.KindFloat, Pos: pos}
	case lexer.TokenDouble:
		p.nextToken()
		if p.curTokenIs(lexer.TokenLong) {
			// `long double` written in the less common order is not
			// supported; the standard order is handled below.
		}
		return &cabs.TypeSpec{Kind: cabs.KindDouble, Pos: pos}
	case lexer.TokenStruct, lexer.TokenUnion:
		return p.parseStructOrUnionSpecifier()
	case lexer.TokenIdent:
		if p.typedefs[p.curToken.Literal] {
			name := p.curToken.Literal
			p.nextToken()
			return &cabs.TypeSpec{Kind: cabs.KindTypedefName, Name: name, Pos: pos}
		}
	}

	// Integer type: any combination of signed/unsigned, char/short/int/long/long long.
	unsigned := false
	sawSigned := false
	size := cabs.KindInt
	sawSize := false
	for {
		switch p.curToken.Type {
		case lexer.TokenSigned:
			sawSigned = true
			p.nextToken()
			continue
		case lexer.TokenUnsigned:
			unsigned = true
			p.nextToken()
			continue
		case lexer.TokenChar:
			size, sawSize = cabs.KindChar, true
			p.nextToken()
			continue
		case lexer.TokenShort:
			size, sawSize = cabs.KindShort, true
			p.nextToken()
			continue
		case lexer.TokenInt_:
			if !sawSize {
				size = cabs.KindInt
			}
			sawSize = true
			p.nextToken()
			continue
		case lexer.TokenLong:
			if size == cabs.KindLong {
				size = cabs.KindLongLong
			} else {
				size = cabs.KindLong
			}
			sawSize = true
			p.nextToken()
			if p.curTokenIs(lexer.TokenDouble) {
				p.nextToken()
				return &cabs.TypeSpec{Kind: cabs.KindLongDouble, Pos: pos}
			}
			continue
		}
		break
	}
	if !sawSize && !sawSigned && !unsigned {
		p.addError(fmt.Sprintf("expected type specifier, got %s", p.curToken.Type))
		return nil
	}
	return &cabs.TypeSpec{Kind: size, Unsigned: unsigned, Pos: pos}
}

func (p *Parser) parseStructOrUnionSpecifier() *cabs.TypeSpec {
	pos := p.pos()
	isUnion := p.curTokenIs(lexer.TokenUnion)
	p.nextToken() // consume 'struct'/'union'

	tag := ""
	if p.curTokenIs(lexer.TokenIdent) {
		tag = p.curToken.Literal
		p.nextToken()
	}

	if !p.curTokenIs(lexer.TokenLBrace) {
		return &cabs.TypeSpec{Kind: cabs.KindStructOrUnion, IsUnion: isUnion, TagIdent: tag, Pos: pos}
	}

	p.nextToken() // consume '{'
	var fields []cabs.FieldDecl
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		fieldPos := p.pos()
		base, _, _, _ := p.parseDeclSpecifiers()
		if base == nil {
			p.syncToStmtEnd()
			continue
		}
		for {
			name, ty := p.parseDeclarator(base)
			fields = append(fields, cabs.FieldDecl{Pos: fieldPos, Name: name, Type: ty})
			if p.curTokenIs(lexer.TokenComma) {
				p.nextToken()
				continue
			}
			break
		}
		p.expect(lexer.TokenSemicolon)
	}
	p.expect(lexer.TokenRBrace)

	return &cabs.TypeSpec{
		Kind: cabs.KindStructOrUnion, IsUnion: isUnion, TagIdent: tag,
		Fields: fields, HasFields: true, Pos: pos,
	}
}

// parseDeclarator parses one declarator: optional pointer prefix,
// identifier, and array/function suffixes, building the full type around
// base.
func (p *Parser) parseDeclarator(base *cabs.TypeSpec) (string, *cabs.TypeSpec) {
	ty := base
	for p.curTokenIs(lexer.TokenStar) {
		p.nextToken()
		isConst := false
		for p.isTypeQualifier() {
			if p.curTokenIs(lexer.TokenConst) {
				isConst = true
			}
			p.nextToken()
		}
		ty = &cabs.TypeSpec{Kind: cabs.KindPointer, Elem: ty, IsConst: isConst}
	}

	name := ""
	if p.curTokenIs(lexer.TokenIdent) {
		name = p.curToken.Literal
		p.nextToken()
	}

	var dims []cabs.Expr
	var hasDim []bool
	for p.curTokenIs(lexer.TokenLBracket) {
		p.nextToken()
		if p.curTokenIs(lexer.TokenRBracket) {
			dims = append(dims, nil)
			hasDim = append(hasDim, false)
		} else {
			dims = append(dims, p.parseExpr(precAssign))
			hasDim = append(hasDim, true)
		}
		p.expect(lexer.TokenRBracket)
	}
	for i := len(dims) - 1; i >= 0; i-- {
		ty = &cabs.TypeSpec{Kind: cabs.KindArray, Elem: ty, ArrayLen: dims[i]}
	}

	if p.curTokenIs(lexer.TokenLParen) {
		p.nextToken()
		params, variadic := p.parseParamList()
		p.expect(lexer.TokenRParen)
		ty = &cabs.TypeSpec{Kind: cabs.KindFunction, Return: ty, Params: params, Variadic: variadic}
	}

	return name, ty
}

func (p *Parser) parseParamList() ([]cabs.ParamDecl, bool) {
	var params []cabs.ParamDecl
	if p.curTokenIs(lexer.TokenRParen) {
		return params, false
	}
	if p.curTokenIs(lexer.TokenVoid) && p.peekTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return params, false
	}

	for {
		if p.curTokenIs(lexer.TokenEllipsis) {
			p.nextToken()
			return params, true
		}
		pos := p.pos()
		base, _, _, _ := p.parseDeclSpecifiers()
		if base == nil {
			break
		}
		name, ty := p.parseDeclarator(base)
		params = append(params, cabs.ParamDecl{Pos: pos, Identifier: name, Type: ty})
		if p.curTokenIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		break
	}
	return params, false
}

// --- external declarations -----------------------------------------------

func (p *Parser) parseExternalDecl() cabs.ExternalDecl {
	pos := p.pos()
	base, isExtern, isStatic, isTypedef := p.parseDeclSpecifiers()
	if base == nil {
		return nil
	}

	// Tag-only declaration: `struct Foo { ... };`
	if base.Kind == cabs.KindStructOrUnion && p.curTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
		return &cabs.DeclGroup{Pos: pos, BaseType: base}
	}

	name, ty := p.parseDeclarator(base)
	if name == "" {
		p.addError("expected declarator name")
		return nil
	}

	if isTypedef {
		p.typedefs[name] = true
		p.expect(lexer.TokenSemicolon)
		return &cabs.DeclGroup{Pos: pos, BaseType: base, Declarators: []cabs.InitDeclarator{
			{Pos: pos, Identifier: name, Type: ty, IsTypedef: true},
		}}
	}

	if ty.Kind == cabs.KindFunction && p.curTokenIs(lexer.TokenLBrace) {
		paramNames := make([]string, len(ty.Params))
		for i, prm := range ty.Params {
			paramNames[i] = prm.Identifier
		}
		body := p.parseBlock()
		return &cabs.FunDef{Pos: pos, Name: name, Type: ty, ParamNames: paramNames, Body: body}
	}

	decls := []cabs.InitDeclarator{p.parseInitDeclaratorTail(pos, name, ty, isExtern, isStatic)}
	for p.curTokenIs(lexer.TokenComma) {
		p.nextToken()
		dPos := p.pos()
		dName, dTy := p.parseDeclarator(base)
		decls = append(decls, p.parseInitDeclaratorTail(dPos, dName, dTy, isExtern, isStatic))
	}
	p.expect(lexer.TokenSemicolon)
	return &cabs.DeclGroup{Pos: pos, BaseType: base, Declarators: decls}
}

func (p *Parser) parseInitDeclaratorTail(pos cabs.Pos, name string, ty *cabs.TypeSpec, isExtern, isStatic bool) cabs.InitDeclarator {
	d := cabs.InitDeclarator{Pos: pos, Identifier: name, Type: ty, IsExtern: isExtern, IsStatic: isStatic}
	if p.curTokenIs(lexer.TokenAssign) {
		p.nextToken()
		d.Initializer = p.parseInitializer()
	}
	return d
}

func (p *Parser) parseInitializer() cabs.Initializer {
	if p.curTokenIs(lexer.TokenLBrace) {
		pos := p.pos()
		p.nextToken()
		var elems []cabs.Initializer
		for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
			elems = append(elems, p.parseInitializer())
			if p.curTokenIs(lexer.TokenComma) {
				p.nextToken()
				continue
			}
			break
		}
		p.expect(lexer.TokenRBrace)
		return cabs.ListInitializer{Pos: pos, Elements: elems}
	}
	return cabs.ExprInitializer{Expr: p.parseExpr(precAssign)}
}

// --- statements ------------------------------------------------------

func (p *Parser) parseBlock() *cabs.Block {
	pos := p.pos()
	p.expect(lexer.TokenLBrace)
	b := &cabs.Block{Pos: pos}
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		b.Items = append(b.Items, p.parseBlockItem())
	}
	p.expect(lexer.TokenRBrace)
	return b
}

func (p *Parser) parseBlockItem() cabs.BlockItem {
	if p.isDeclarationStart() {
		pos := p.pos()
		base, isExtern, isStatic, isTypedef := p.parseDeclSpecifiers()
		if base == nil {
			p.syncToStmtEnd()
			return cabs.BlockItem{}
		}
		if base.Kind == cabs.KindStructOrUnion && p.curTokenIs(lexer.TokenSemicolon) {
			p.nextToken()
			return cabs.BlockItem{Decl: &cabs.DeclGroup{Pos: pos, BaseType: base}}
		}
		var decls []cabs.InitDeclarator
		for {
			dPos := p.pos()
			name, ty := p.parseDeclarator(base)
			if isTypedef {
				p.typedefs[name] = true
			}
			decls = append(decls, cabs.InitDeclarator{
				Pos: dPos, Identifier: name, Type: ty,
				IsExtern: isExtern, IsStatic: isStatic, IsTypedef: isTypedef,
			})
			if p.curTokenIs(lexer.TokenAssign) {
				p.nextToken()
				decls[len(decls)-1].Initializer = p.parseInitializer()
			}
			if p.curTokenIs(lexer.TokenComma) {
				p.nextToken()
				continue
			}
			break
		}
		p.expect(lexer.TokenSemicolon)
		return cabs.BlockItem{Decl: &cabs.DeclGroup{Pos: pos, BaseType: base, Declarators: decls}}
	}
	return cabs.BlockItem{Stmt: p.parseStmt()}
}

func (p *Parser) parseStmt() cabs.Stmt {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenSemicolon:
		p.nextToken()
		return &cabs.ExprStmt{Pos: pos}
	case lexer.TokenIf:
		return p.parseIfStmt()
	case lexer.TokenWhile:
		return p.parseWhileStmt()
	case lexer.TokenDo:
		return p.parseDoWhileStmt()
	case lexer.TokenFor:
		return p.parseForStmt()
	case lexer.TokenReturn:
		p.nextToken()
		s := &cabs.ReturnStmt{Pos: pos}
		if !p.curTokenIs(lexer.TokenSemicolon) {
			s.Expr = p.parseExpr(precLowest)
		}
		p.expect(lexer.TokenSemicolon)
		return s
	case lexer.TokenBreak:
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &cabs.BreakStmt{Pos: pos}
	case lexer.TokenContinue:
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &cabs.ContinueStmt{Pos: pos}
	case lexer.TokenGoto:
		p.nextToken()
		label := p.curToken.Literal
		p.expect(lexer.TokenIdent)
		p.expect(lexer.TokenSemicolon)
		return &cabs.GotoStmt{Pos: pos, Label: label}
	case lexer.TokenIdent:
		if p.peekTokenIs(lexer.TokenColon) {
			label := p.curToken.Literal
			p.nextToken()
			p.nextToken()
			return &cabs.LabelStmt{Pos: pos, Label: label, Stmt: p.parseStmt()}
		}
	}
	e := p.parseExpr(precLowest)
	p.expect(lexer.TokenSemicolon)
	return &cabs.ExprStmt{Pos: pos, Expr: e}
}

func (p *Parser) parseIfStmt() cabs.Stmt {
	pos := p.pos()
	p.nextToken()
	p.expect(lexer.TokenLParen)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.TokenRParen)
	then := p.parseStmt()
	s := &cabs.IfStmt{Pos: pos, Cond: cond, Then: then}
	if p.curTokenIs(lexer.TokenElse) {
		p.nextToken()
		s.Else = p.parseStmt()
	}
	return s
}

func (p *Parser) parseWhileStmt() cabs.Stmt {
	pos := p.pos()
	p.nextToken()
	p.expect(lexer.TokenLParen)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.TokenRParen)
	return &cabs.WhileStmt{Pos: pos, Cond: cond, Body: p.parseStmt()}
}

func (p *Parser) parseDoWhileStmt() cabs.Stmt {
	pos := p.pos()
	p.nextToken()
	body := p.parseStmt()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.TokenRParen)
	p.expect(lexer.TokenSemicolon)
	return &cabs.DoWhileStmt{Pos: pos, Body: body, Cond: cond}
}

func (p *Parser) parseForStmt() cabs.Stmt {
	pos := p.pos()
	p.nextToken()
	p.expect(lexer.TokenLParen)

	s := &cabs.ForStmt{Pos: pos}
	if p.isDeclarationStart() {
		declPos := p.pos()
		base, isExtern, isStatic, _ := p.parseDeclSpecifiers()
		var decls []cabs.InitDeclarator
		if base != nil {
			for {
				dPos := p.pos()
				name, ty := p.parseDeclarator(base)
				d := cabs.InitDeclarator{Pos: dPos, Identifier: name, Type: ty, IsExtern: isExtern, IsStatic: isStatic}
				if p.curTokenIs(lexer.TokenAssign) {
					p.nextToken()
					d.Initializer = p.parseInitializer()
				}
				decls = append(decls, d)
				if p.curTokenIs(lexer.TokenComma) {
					p.nextToken()
					continue
				}
				break
			}
		}
		s.InitDecl = &cabs.DeclGroup{Pos: declPos, BaseType: base, Declarators: decls}
		p.expect(lexer.TokenSemicolon)
	} else {
		if !p.curTokenIs(lexer.TokenSemicolon) {
			s.Init = p.parseExpr(precLowest)
		}
		p.expect(lexer.TokenSemicolon)
	}

	if !p.curTokenIs(lexer.TokenSemicolon) {
		s.Cond = p.parseExpr(precLowest)
	}
	p.expect(lexer.TokenSemicolon)

	if !p.curTokenIs(lexer.TokenRParen) {
		s.Post = p.parseExpr(precLowest)
	}
	p.expect(lexer.TokenRParen)

	s.Body = p.parseStmt()
	return s
}

// --- expressions -----------------------------------------------------

var binaryPrec = map[lexer.TokenType]int{
	lexer.TokenOr: precOr, lexer.TokenAnd: precAnd,
	lexer.TokenPipe: precBitOr, lexer.TokenCaret: precBitXor, lexer.TokenAmpersand: precBitAnd,
	lexer.TokenEq: precEquality, lexer.TokenNe: precEquality,
	lexer.TokenLt: precRelational, lexer.TokenLe: precRelational, lexer.TokenGt: precRelational, lexer.TokenGe: precRelational,
	lexer.TokenShl: precShift, lexer.TokenShr: precShift,
	lexer.TokenPlus: precAdditive, lexer.TokenMinus: precAdditive,
	lexer.TokenStar: precMulti, lexer.TokenSlash: precMulti, lexer.TokenPercent: precMulti,
}

var binaryOps = map[lexer.TokenType]cabs.BinaryOp{
	lexer.TokenOr: cabs.OpLOr, lexer.TokenAnd: cabs.OpLAnd,
	lexer.TokenPipe: cabs.OpBitOr, lexer.TokenCaret: cabs.OpBitXor, lexer.TokenAmpersand: cabs.OpBitAnd,
	lexer.TokenEq: cabs.OpEq, lexer.TokenNe: cabs.OpNe,
	lexer.TokenLt: cabs.OpLt, lexer.TokenLe: cabs.OpLe, lexer.TokenGt: cabs.OpGt, lexer.TokenGe: cabs.OpGe,
	lexer.TokenShl: cabs.OpShl, lexer.TokenShr: cabs.OpShr,
	lexer.TokenPlus: cabs.OpAdd, lexer.TokenMinus: cabs.OpSub,
	lexer.TokenStar: cabs.OpMul, lexer.TokenSlash: cabs.OpDiv, lexer.TokenPercent: cabs.OpMod,
}

// parseExpr implements precedence-climbing over the binary/assignment/
// ternary operators, bottoming out at parseUnary for everything tighter.
func (p *Parser) parseExpr(minPrec int) cabs.Expr {
	left := p.parseUnary()

	for {
		if p.curTokenIs(lexer.TokenAssign) && minPrec <= precAssign {
			pos := p.pos()
			p.nextToken()
			right := p.parseExpr(precAssign)
			left = &cabs.AssignExpr{Pos: pos, Left: left, Right: right}
			continue
		}
		if p.curTokenIs(lexer.TokenQuestion) && minPrec <= precTernary {
			pos := p.pos()
			p.nextToken()
			then := p.parseExpr(precLowest)
			p.expect(lexer.TokenColon)
			els := p.parseExpr(precTernary)
			left = &cabs.CondExpr{Pos: pos, Cond: left, Then: then, Else: els}
			continue
		}
		prec, ok := binaryPrec[p.curToken.Type]
		if !ok || prec < minPrec {
			break
		}
		op := binaryOps[p.curToken.Type]
		pos := p.pos()
		p.nextToken()
		right := p.parseExpr(prec + 1)
		left = &cabs.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

var unaryOps = map[lexer.TokenType]cabs.UnaryOp{
	lexer.TokenMinus: cabs.OpNeg, lexer.TokenPlus: cabs.OpPos,
	lexer.TokenNot: cabs.OpLNot, lexer.TokenTilde: cabs.OpBitNot,
	lexer.TokenAmpersand: cabs.OpAddrOf, lexer.TokenStar: cabs.OpDeref,
}

func (p *Parser) parseUnary() cabs.Expr {
	pos := p.pos()

	if op, ok := unaryOps[p.curToken.Type]; ok {
		p.nextToken()
		return &cabs.UnaryExpr{Pos: pos, Op: op, Expr: p.parseUnary()}
	}
	switch p.curToken.Type {
	case lexer.TokenIncrement, lexer.TokenDecrement:
		inc := p.curTokenIs(lexer.TokenIncrement)
		p.nextToken()
		return &cabs.IncDecExpr{Pos: pos, Expr: p.parseUnary(), Inc: inc, Prefix: true}
	case lexer.TokenSizeof:
		p.nextToken()
		if p.curTokenIs(lexer.TokenLParen) && p.startsTypeName(1) {
			p.nextToken()
			ty := p.parseTypeNameInParens()
			p.expect(lexer.TokenRParen)
			return &cabs.SizeofType{Pos: pos, Type: ty}
		}
		return &cabs.SizeofExpr{Pos: pos, Expr: p.parseUnary()}
	case lexer.TokenLParen:
		if p.startsTypeName(1) {
			p.nextToken()
			ty := p.parseTypeNameInParens()
			p.expect(lexer.TokenRParen)
			return &cabs.CastExpr{Pos: pos, Type: ty, Expr: p.parseUnary()}
		}
	}
	return p.parsePostfix()
}

// startsTypeName reports whether, looking one token ahead of curToken
// (n must be 1 — retained as a parameter for readability at call sites),
// a type-name begins — used to distinguish `(type)expr` / `sizeof(type)`
// from a parenthesized expression.
func (p *Parser) startsTypeName(n int) bool {
	_ = n
	switch p.peekToken.Type {
	case lexer.TokenVoid, lexer.TokenBool_, lexer.TokenChar, lexer.TokenShort, lexer.TokenInt_,
		lexer.TokenLong, lexer.TokenFloat, lexer.TokenDouble, lexer.TokenSigned, lexer.TokenUnsigned,
		lexer.TokenStruct, lexer.TokenUnion, lexer.TokenConst:
		return true
	case lexer.TokenIdent:
		return p.typedefs[p.peekToken.Literal]
	}
	return false
}

// parseTypeNameInParens parses an abstract type name (no identifier),
// called with curToken already positioned at the type's first token.
func (p *Parser) parseTypeNameInParens() *cabs.TypeSpec {
	base, _, _, _ := p.parseDeclSpecifiers()
	if base == nil {
		return nil
	}
	_, ty := p.parseDeclarator(base)
	return ty
}

func (p *Parser) parsePostfix() cabs.Expr {
	e := p.parsePrimary()
	for {
		pos := p.pos()
		switch p.curToken.Type {
		case lexer.TokenLBracket:
			p.nextToken()
			idx := p.parseExpr(precLowest)
			p.expect(lexer.TokenRBracket)
			e = &cabs.IndexExpr{Pos: pos, Array: e, Index: idx}
		case lexer.TokenLParen:
			p.nextToken()
			var args []cabs.Expr
			for !p.curTokenIs(lexer.TokenRParen) && !p.curTokenIs(lexer.TokenEOF) {
				args = append(args, p.parseExpr(precAssign))
				if p.curTokenIs(lexer.TokenComma) {
					p.nextToken()
					continue
				}
				break
			}
			p.expect(lexer.TokenRParen)
			e = &cabs.CallExpr{Pos: pos, Callee: e, Args: args}
		case lexer.TokenDot:
			p.nextToken()
			name := p.curToken.Literal
			p.expect(lexer.TokenIdent)
			e = &cabs.MemberExpr{Pos: pos, Target: e, Name: name}
		case lexer.TokenArrow:
			p.nextToken()
			name := p.curToken.Literal
			p.expect(lexer.TokenIdent)
			e = &cabs.MemberExpr{Pos: pos, Target: e, Name: name, IsArrow: true}
		case lexer.TokenIncrement, lexer.TokenDecrement:
			inc := p.curTokenIs(lexer.TokenIncrement)
			p.nextToken()
			e = &cabs.IncDecExpr{Pos: pos, Expr: e, Inc: inc, Prefix: false}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() cabs.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenInt:
		lit := p.curToken
		v, _ := strconv.ParseUint(lit.Literal, 0, 64)
		p.nextToken()
		return &cabs.IntLit{Pos: pos, Value: v, IsUnsigned: lit.IntUnsigned, IsLong: lit.IntLong}
	case lexer.TokenFloatLit:
		lit := p.curToken
		v, _ := strconv.ParseFloat(lit.Literal, 64)
		p.nextToken()
		return &cabs.FloatLit{Pos: pos, Value: v, IsSingle: lit.FloatSingle}
	case lexer.TokenCharLit:
		v := p.curToken.CharValue
		p.nextToken()
		return &cabs.CharLit{Pos: pos, Value: v}
	case lexer.TokenString:
		s := p.curToken.Literal
		p.nextToken()
		return &cabs.StringLit{Pos: pos, Value: s}
	case lexer.TokenIdent:
		name := p.curToken.Literal
		p.nextToken()
		return &cabs.Ident{Pos: pos, Name: name}
	case lexer.TokenLParen:
		p.nextToken()
		inner := p.parseExpr(precLowest)
		p.expect(lexer.TokenRParen)
		return &cabs.ParenExpr{Pos: pos, Expr: inner}
	default:
		p.addError(fmt.Sprintf("unexpected token %s in expression", p.curToken.Type))
		p.nextToken()
		return &cabs.IntLit{Pos: pos, Value: 0}
	}
}
