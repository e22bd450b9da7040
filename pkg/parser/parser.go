package parser

import (
	"strconv"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	cfg      *config.Config
	structs  map[string]*ast.Type
}

// bailout carries the first syntax error up to Parse.
type bailout struct{ err *util.Diagnostic }

// NewParser creates and initializes a new Parser from a token stream
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	p := &Parser{tokens: tokens, cfg: cfg, structs: make(map[string]*ast.Type)}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	panic(bailout{util.Errorf(tok, format, args...)})
}

func (p *Parser) expect(tokType token.Type, message string) {
	if p.check(tokType) {
		p.advance()
		return
	}
	p.errorf(p.current, "%s", message)
}

func (p *Parser) expectIdent(message string) token.Token {
	p.expect(token.Ident, message)
	return p.previous
}

// extension warns about, or rejects, a construct outside standard C.
func (p *Parser) extension(ft config.Feature, tok token.Token, what string) {
	if !p.cfg.IsFeatureEnabled(ft) {
		p.errorf(tok, "%s is forbidden by the current feature set (-Fno-%s).", what, p.cfg.Features[ft].Name)
	}
	util.Warn(p.cfg, config.WarnPedantic, tok, "%s is an extension", what)
}

// Parse reads a whole translation unit.
func (p *Parser) Parse(name string) (file *ast.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			file, err = nil, b.err
		}
	}()

	file = &ast.File{Name: name, Structs: p.structs}
	for !p.check(token.EOF) {
		if p.match(token.Semi) {
			continue
		}
		p.parseExternalDecl(file)
	}
	return file, nil
}

// ParseExpr parses a single expression followed by end of input.
func (p *Parser) ParseExpr() (e *ast.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			e, err = nil, b.err
		}
	}()
	e = p.parseExpr()
	p.expect(token.EOF, "Expected end of input after expression.")
	return e, nil
}

// --- Types and declarations ---

func (p *Parser) isTypeStart() bool {
	switch p.current.Type {
	case token.Void, token.Bool, token.Char, token.Int, token.Long, token.Unsigned,
		token.Struct, token.Static, token.Extern:
		return true
	}
	return false
}

// parseTypeSpecifier parses the base type of a declaration.
func (p *Parser) parseTypeSpecifier() *ast.Type {
	tok := p.current
	switch {
	case p.match(token.Void):
		return ast.TypeVoid
	case p.match(token.Bool):
		return ast.TypeBool
	case p.match(token.Char):
		return ast.TypeChar
	case p.match(token.Int):
		return ast.TypeInt
	case p.match(token.Long):
		for p.match(token.Long) {
		}
		p.match(token.Int)
		return ast.TypeLong
	case p.match(token.Unsigned):
		switch {
		case p.match(token.Char):
			return ast.TypeUchar
		case p.match(token.Long):
			for p.match(token.Long) {
			}
			p.match(token.Int)
			return ast.TypeUlong
		}
		p.match(token.Int)
		return ast.TypeUint
	case p.match(token.Struct):
		return p.parseStructSpecifier()
	}
	p.errorf(tok, "Expected a type, found '%s'.", tok.Type)
	return nil
}

func (p *Parser) parseStructSpecifier() *ast.Type {
	tagTok := p.expectIdent("Expected struct tag after 'struct'.")
	st, ok := p.structs[tagTok.Value]
	if !ok {
		st = ast.NewStructType(tagTok.Value, nil)
		st.Size = -1
		p.structs[tagTok.Value] = st
	}
	if !p.match(token.LBrace) {
		return st
	}
	if st.Size >= 0 {
		p.errorf(tagTok, "Redefinition of 'struct %s'.", tagTok.Value)
	}
	var fields []ast.Field
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		base := p.parseTypeSpecifier()
		for {
			typ, nameTok := p.parseDeclarator(base)
			for _, f := range fields {
				if f.Name == nameTok.Value {
					p.errorf(nameTok, "Duplicate member '%s'.", nameTok.Value)
				}
			}
			fields = append(fields, ast.Field{Name: nameTok.Value, Type: typ})
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.Semi, "Expected ';' after struct member.")
	}
	p.expect(token.RBrace, "Expected '}' after struct members.")
	st.Fields = fields
	st.Size = int64(len(fields))
	return st
}

func (p *Parser) parsePointers(base *ast.Type) *ast.Type {
	for p.match(token.Star) {
		base = ast.PointerTo(base)
	}
	return base
}

// parseArraySuffix parses trailing [N] or [] suffixes.
func (p *Parser) parseArraySuffix(typ *ast.Type) *ast.Type {
	var dims []int64
	for p.match(token.LBracket) {
		size := int64(-1)
		if p.match(token.Number) {
			v, _ := strconv.ParseInt(p.previous.Value, 10, 64)
			size = v
		}
		p.expect(token.RBracket, "Expected ']' after array size.")
		dims = append(dims, size)
	}
	for i := len(dims) - 1; i >= 0; i-- {
		typ = ast.ArrayOf(typ, dims[i])
	}
	return typ
}

func (p *Parser) parseDeclarator(base *ast.Type) (*ast.Type, token.Token) {
	typ := p.parsePointers(base)
	nameTok := p.expectIdent("Expected identifier in declaration.")
	return p.parseArraySuffix(typ), nameTok
}

// parseTypeName parses a type in a cast, compound literal or sizeof.
func (p *Parser) parseTypeName() *ast.Type {
	typ := p.parsePointers(p.parseTypeSpecifier())
	return p.parseArraySuffix(typ)
}

func (p *Parser) parseInitializer() *ast.Expr {
	if !p.check(token.LBrace) {
		return p.parseAssignmentExpr()
	}
	return p.parseInitializerList()
}

func (p *Parser) parseInitializerList() *ast.Expr {
	tok := p.current
	p.expect(token.LBrace, "Expected '{' to start an initializer list.")
	var elems []*ast.Expr
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		elems = append(elems, p.parseInitializer())
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, "Expected '}' after initializer list.")
	return ast.NewInitializer(tok, elems, nil)
}

type declSpec struct {
	base     *ast.Type
	isStatic bool
	isExtern bool
}

func (p *Parser) parseDeclSpec() declSpec {
	var spec declSpec
	for {
		switch {
		case p.match(token.Static):
			spec.isStatic = true
			continue
		case p.match(token.Extern):
			spec.isExtern = true
			continue
		}
		break
	}
	if spec.isStatic && spec.isExtern {
		p.errorf(p.previous, "Cannot combine 'static' and 'extern'.")
	}
	spec.base = p.parseTypeSpecifier()
	return spec
}

func (p *Parser) parseExternalDecl(file *ast.File) {
	spec := p.parseDeclSpec()
	if p.match(token.Semi) {
		return
	}

	typ := p.parsePointers(spec.base)
	nameTok := p.expectIdent("Expected a top-level definition (function or variable).")

	if p.check(token.LParen) {
		file.Functions = append(file.Functions, p.parseFunction(typ, nameTok))
		return
	}

	for {
		typ = p.parseArraySuffix(typ)
		decl := &ast.VarDecl{
			Name: nameTok.Value, Type: typ, IsStatic: spec.isStatic,
			IsExtern: spec.isExtern, IsGlobal: true, Tok: nameTok,
		}
		if p.match(token.Eq) {
			decl.Init = p.parseInitializer()
		}
		file.Globals = append(file.Globals, decl)
		if !p.match(token.Comma) {
			break
		}
		typ, nameTok = p.parseDeclarator(spec.base)
	}
	p.expect(token.Semi, "Expected ';' after global definition.")
}

func (p *Parser) parseFunction(ret *ast.Type, nameTok token.Token) *ast.Function {
	p.expect(token.LParen, "Expected '(' after function name.")

	var params []*ast.VarDecl
	var paramTypes []*ast.Type
	variadic := false
	if p.check(token.Void) && p.peek().Type == token.RParen {
		p.advance()
	} else if !p.check(token.RParen) {
		for {
			if p.match(token.Dots) {
				variadic = true
				break
			}
			typ, pTok := p.parseParamDeclarator(p.parseTypeSpecifier())
			if typ.IsArray() {
				typ = ast.PointerTo(typ.Base)
			}
			params = append(params, &ast.VarDecl{Name: pTok.Value, Type: typ, Tok: pTok})
			paramTypes = append(paramTypes, typ)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RParen, "Expected ')' after parameters.")

	fn := &ast.Function{
		Name:   nameTok.Value,
		Type:   ast.NewCodeType(ret, paramTypes, variadic),
		Params: params,
		Tok:    nameTok,
	}
	if p.match(token.Semi) {
		return fn
	}
	for _, param := range params {
		if param.Name == "" {
			p.errorf(param.Tok, "Parameter name omitted in function definition.")
		}
	}
	fn.Body = p.parseBlockStmt()
	return fn
}

// parseParamDeclarator is parseDeclarator with the name optional, as in
// prototypes. An unnamed parameter is reported at the end of its type.
func (p *Parser) parseParamDeclarator(base *ast.Type) (*ast.Type, token.Token) {
	tok := p.previous
	typ := p.parsePointers(base)
	if p.match(token.Ident) {
		tok = p.previous
	} else {
		tok.Value = ""
	}
	return p.parseArraySuffix(typ), tok
}

// --- Statements ---

func (p *Parser) parseBlockStmt() *ast.Stmt {
	tok := p.current
	p.expect(token.LBrace, "Expected '{' to start a block.")
	var stmts []*ast.Stmt
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.parseBlockItem()...)
	}
	p.expect(token.RBrace, "Expected '}' after block.")
	return ast.NewBlock(tok, stmts)
}

// parseBlockItem returns one statement, or one DeclStmt per declarator.
func (p *Parser) parseBlockItem() []*ast.Stmt {
	if !p.isTypeStart() {
		return []*ast.Stmt{p.parseStmt()}
	}
	declTok := p.current
	spec := p.parseDeclSpec()
	if p.match(token.Semi) {
		return nil
	}

	var stmts []*ast.Stmt
	for {
		typ, nameTok := p.parseDeclarator(spec.base)
		decl := &ast.VarDecl{
			Name: nameTok.Value, Type: typ, IsStatic: spec.isStatic,
			IsExtern: spec.isExtern, Tok: nameTok,
		}
		if p.match(token.Eq) {
			decl.Init = p.parseInitializer()
		}
		stmts = append(stmts, ast.NewDeclStmt(declTok, decl))
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.Semi, "Expected ';' after declaration.")
	return stmts
}

func (p *Parser) parseStmt() *ast.Stmt {
	tok := p.current
	switch {
	case p.match(token.If):
		p.expect(token.LParen, "Expected '(' after 'if'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after if condition.")
		thenBody := p.parseStmt()
		var elseBody *ast.Stmt
		if p.match(token.Else) {
			elseBody = p.parseStmt()
		}
		return ast.NewIfStmt(tok, cond, thenBody, elseBody)
	case p.match(token.While):
		p.expect(token.LParen, "Expected '(' after 'while'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after while condition.")
		body := p.parseStmt()
		return ast.NewWhileStmt(tok, cond, body)
	case p.check(token.LBrace):
		return p.parseBlockStmt()
	case p.match(token.Return):
		var expr *ast.Expr
		if !p.check(token.Semi) {
			expr = p.parseExpr()
		}
		p.expect(token.Semi, "Expected ';' after return statement.")
		return ast.NewReturnStmt(tok, expr)
	case p.match(token.Semi):
		return ast.NewSkip(tok)
	case p.isTypeStart():
		p.errorf(tok, "Declaration is not allowed here.")
	}
	expr := p.parseExpr()
	p.expect(token.Semi, "Expected ';' after expression statement.")
	return ast.NewExprStmt(tok, expr)
}
