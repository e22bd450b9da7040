package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

// ConvertUnit lowers every global initializer and function body of file.
// A violated invariant fails the whole unit; no partial result is returned.
func (c *Converter) ConvertUnit(file *ast.File) (unit *ir.Unit, err error) {
	defer util.RecoverInvariant(&err)

	u := ir.NewUnit(file.Name)
	c.init = u.Init

	c.SetFunction(initPrefix)
	for _, g := range file.Globals {
		if g.IsExtern || g.Init == nil {
			continue
		}
		c.convertStaticInit(c.declSymbol(g, symtab.Static), g.Init, g.Tok)
	}

	for _, fn := range file.Functions {
		if fn.Body == nil {
			continue
		}
		u.Functions = append(u.Functions, c.ConvertFunction(fn))
	}

	if c.cfg.IsFeatureEnabled(config.FeatVerify) {
		if err := Verify(u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// ConvertFunction lowers the body of fn into a goto program ending in
// END_FUNCTION.
func (c *Converter) ConvertFunction(fn *ast.Function) *ir.Function {
	c.SetFunction(fn.Name)
	c.SetLifetime(symtab.AutomaticLocal)
	c.returnType = nil
	if fn.Type != nil {
		c.returnType = fn.Type.Return
	}

	body := ir.NewProgram()
	c.ConvertStmt(fn.Body, body)
	body.AddEndFunction(fn.Body.Tok)

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	return &ir.Function{Name: fn.Name, Type: fn.Type, Params: params, Body: body}
}

func (c *Converter) ConvertStmt(s *ast.Stmt, dest *ir.Program) {
	switch s.Kind {
	case ast.SkipStmt:
		dest.AddSkip(s.Tok)
	case ast.ExprStmt:
		c.convertExpressionStmt(s, dest)
	case ast.DeclStmt:
		c.convertDecl(s.Decl, dest)
	case ast.IfStmt:
		c.convertIf(s, dest)
	case ast.WhileStmt:
		c.convertWhile(s, dest)
	case ast.ReturnStmt:
		c.convertReturn(s, dest)
	case ast.BlockStmt:
		c.scopes.Push()
		for _, st := range s.Stmts {
			c.ConvertStmt(st, dest)
		}
		c.scopes.Pop(dest, s.Tok)
	default:
		util.Invariant(false, s.Tok, "unknown statement kind %d", int(s.Kind))
	}
}

func (c *Converter) convertExpressionStmt(s *ast.Stmt, dest *ir.Program) {
	e := s.Expr
	if e.Kind == ast.SideEffect {
		switch e.Statement {
		case ast.FunctionCall:
			c.lowerOperands(e, dest)
			dest.AddFunctionCall(nil, e.Operands[0], e.Operands[1:], s.Tok)
			return
		case ast.Assign:
			c.convertAssign(e.Operands[0], e.Operands[1], dest, s.Tok)
			return
		}
	}

	c.Lower(e, dest, false)
	if e.IsNil() {
		return
	}
	if !e.Type.IsVoid() {
		util.Warn(c.cfg, config.WarnUnusedValue, e.Tok, "value computed is not used")
	}
	dest.AddOther(e, s.Tok)
}

// convertAssign emits lhs := rhs, turning a call on the right into a CALL
// with lhs as its result.
func (c *Converter) convertAssign(lhs, rhs *ast.Expr, dest *ir.Program, tok token.Token) {
	c.Lower(lhs, dest, true)
	target := ast.SkipTypecast(lhs)

	// a call writes its result directly only when no conversion is needed
	if rhs.Kind == ast.SideEffect && rhs.Statement == ast.FunctionCall && ast.TypesEqual(target.Type, rhs.Type) {
		c.lowerOperands(rhs, dest)
		dest.AddFunctionCall(target, rhs.Operands[0], rhs.Operands[1:], tok)
		return
	}

	c.Lower(rhs, dest, true)
	util.Invariant(!rhs.IsNil(), tok, "assignment of a void value to '%s'", target)
	dest.AddAssign(target, ast.ConditionalCast(rhs, target.Type), tok)
}

// declSymbol returns the symbol of d, registering it if the front end did
// not.
func (c *Converter) declSymbol(d *ast.VarDecl, lifetime symtab.Lifetime) *symtab.Symbol {
	if sym, ok := c.symbols.Lookup(d.Name); ok {
		return sym
	}
	sym := &symtab.Symbol{Name: d.Name, BaseName: d.Name, Type: d.Type, Tok: d.Tok, Lifetime: lifetime}
	if err := c.symbols.Add(sym); err != nil {
		util.Invariant(false, d.Tok, "%v", err)
	}
	return sym
}

func (c *Converter) convertDecl(d *ast.VarDecl, dest *ir.Program) {
	if d.IsExtern {
		return
	}
	if d.IsStatic {
		sym := c.declSymbol(d, symtab.Static)
		if d.Init != nil {
			c.convertStaticInit(sym, d.Init, d.Tok)
		}
		return
	}

	sym := c.declSymbol(d, symtab.AutomaticLocal)
	dest.AddDecl(sym.Expr(d.Tok), d.Tok)
	if d.Init != nil {
		c.convertAssign(sym.Expr(d.Tok), d.Init, dest, d.Tok)
	}
	c.scopes.Add(sym)
}

// convertStaticInit lowers the initializer of a static object into the
// unit's initialization program.
func (c *Converter) convertStaticInit(sym *symtab.Symbol, init *ast.Expr, tok token.Token) {
	sym.Value = init.Clone()
	savedLifetime := c.lifetime
	c.lifetime = symtab.Static
	c.scopes.Push()
	c.convertAssign(sym.Expr(tok), init, c.init, tok)
	c.scopes.Pop(c.init, tok)
	c.lifetime = savedLifetime
}

func (c *Converter) convertIf(s *ast.Stmt, dest *ir.Program) {
	cond := s.Expr
	c.Lower(cond, dest, true)

	thenProg := ir.NewProgram()
	c.ConvertStmt(s.Then, thenProg)

	elseProg := ir.NewProgram()
	if s.Else != nil {
		c.ConvertStmt(s.Else, elseProg)
	}

	c.generateIfThenElse(cond, thenProg, elseProg, s.Tok, dest)
}

// convertWhile emits
//
//	v: <condition effects>
//	   IF !c THEN GOTO z
//	   <DEAD condition temporaries>
//	   <body>
//	   GOTO v
//	z: SKIP
//	   <DEAD condition temporaries>
//
// Temporaries of the condition die on both exits of the head, so each
// iteration's DECL is matched before control reaches v again.
func (c *Converter) convertWhile(s *ast.Stmt, dest *ir.Program) {
	tok := s.Tok
	z := ir.NewProgram()
	zSkip := z.AddSkip(tok)

	head := ir.NewProgram()
	cond := s.Expr
	c.scopes.Push()
	c.Lower(cond, head, true)
	head.AddGoto(negate(cond), zSkip, tok)
	temps := append([]*symtab.Symbol(nil), c.scopes.Pending()...)
	c.scopes.Pop(head, tok)
	for i := len(temps) - 1; i >= 0; i-- {
		z.AddDead(temps[i].Expr(tok), tok)
	}
	v := head.Instructions[0]

	body := ir.NewProgram()
	c.ConvertStmt(s.Then, body)

	dest.Append(head)
	dest.Append(body)
	dest.AddGoto(nil, v, tok)
	dest.Append(z)
}

func (c *Converter) convertReturn(s *ast.Stmt, dest *ir.Program) {
	if s.Expr == nil {
		dest.AddReturn(nil, s.Tok)
		return
	}
	value := s.Expr
	c.Lower(value, dest, true)
	util.Invariant(!value.IsNil(), s.Tok, "return of a void value")
	dest.AddReturn(ast.ConditionalCast(value, c.returnType), s.Tok)
}
