// Package typeChecker resolves names, assigns types and inserts the implicit
// conversions of C, leaving trees in the shape the lowering stage expects.
package typeChecker

import (
	"fmt"
	"math"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/symtab"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

// Symbol is a name visible in a scope. Unique is the unit-wide identifier
// the name resolves to.
type Symbol struct {
	Name   string
	Unique string
	Type   *ast.Type
	IsFunc bool
	Entry  *symtab.Symbol
	Next   *Symbol
}

type Scope struct {
	Symbols *Symbol
	Parent  *Scope
}

// TypeChecker holds the state for the type checking pass
type TypeChecker struct {
	currentScope *Scope
	globalScope  *Scope
	currentFunc  *ast.Function
	cfg          *config.Config
	symbols      *symtab.Table
	wordSize     int
}

// checkFailure carries the first diagnostic up to Check.
type checkFailure struct{ err *util.Diagnostic }

func NewTypeChecker(cfg *config.Config, symbols *symtab.Table) *TypeChecker {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if symbols == nil {
		symbols = symtab.NewTable()
	}
	globalScope := newScope(nil)
	return &TypeChecker{
		currentScope: globalScope,
		globalScope:  globalScope,
		cfg:          cfg,
		symbols:      symbols,
		wordSize:     cfg.WordSize,
	}
}

// Symbols returns the table every resolved object was entered into.
func (tc *TypeChecker) Symbols() *symtab.Table { return tc.symbols }

func newScope(parent *Scope) *Scope { return &Scope{Parent: parent} }

func (tc *TypeChecker) enterScope() { tc.currentScope = newScope(tc.currentScope) }

func (tc *TypeChecker) exitScope() {
	if tc.currentScope.Parent != nil {
		tc.currentScope = tc.currentScope.Parent
	}
}

func (tc *TypeChecker) errorf(tok token.Token, format string, args ...interface{}) {
	panic(checkFailure{util.Errorf(tok, format, args...)})
}

func (tc *TypeChecker) findSymbol(name string) *Symbol {
	for s := tc.currentScope; s != nil; s = s.Parent {
		for sym := s.Symbols; sym != nil; sym = sym.Next {
			if sym.Name == name {
				return sym
			}
		}
	}
	return nil
}

func (tc *TypeChecker) findSymbolInCurrentScope(name string) *Symbol {
	for sym := tc.currentScope.Symbols; sym != nil; sym = sym.Next {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

func (tc *TypeChecker) pushSymbol(sym *Symbol) *Symbol {
	sym.Next = tc.currentScope.Symbols
	tc.currentScope.Symbols = sym
	return sym
}

// uniqueName picks the unit-wide identifier of a local: fn::x, then
// fn::x$1, fn::x$2 for shadowing declarations.
func (tc *TypeChecker) uniqueName(name string) string {
	if tc.currentFunc == nil || tc.currentScope == tc.globalScope {
		return name
	}
	base := tc.currentFunc.Name + "::" + name
	if _, taken := tc.symbols.Lookup(base); !taken {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s$%d", base, n)
		if _, taken := tc.symbols.Lookup(candidate); !taken {
			return candidate
		}
	}
}

// addObject declares an object in the current scope and enters it into the
// symbol table under its unique name.
func (tc *TypeChecker) addObject(name string, typ *ast.Type, tok token.Token, lifetime symtab.Lifetime, isParam bool) *Symbol {
	if prev := tc.findSymbolInCurrentScope(name); prev != nil {
		tc.errorf(tok, "Redefinition of '%s'.", name)
	}
	entry := &symtab.Symbol{
		Name: tc.uniqueName(name), BaseName: name, Type: typ, Tok: tok,
		Lifetime: lifetime, IsParameter: isParam,
	}
	if err := tc.symbols.Add(entry); err != nil {
		tc.errorf(tok, "%v", err)
	}
	return tc.pushSymbol(&Symbol{Name: name, Unique: entry.Name, Type: typ, Entry: entry})
}

// --- Sizes ---

func alignUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func (tc *TypeChecker) getAlignof(typ *ast.Type) int64 {
	switch {
	case typ.IsArray():
		return tc.getAlignof(typ.Base)
	case typ.IsStruct():
		var maxAlign int64 = 1
		for _, f := range typ.Fields {
			if a := tc.getAlignof(f.Type); a > maxAlign {
				maxAlign = a
			}
		}
		return maxAlign
	}
	return tc.getSizeof(typ, token.Token{})
}

func (tc *TypeChecker) getSizeof(typ *ast.Type, tok token.Token) int64 {
	if typ == nil {
		return int64(tc.wordSize)
	}
	switch typ.Kind {
	case ast.TYPE_VOID, ast.TYPE_BOOL:
		return 1
	case ast.TYPE_INT:
		if typ.Width == 64 {
			return int64(tc.wordSize)
		}
		return int64(typ.Width / 8)
	case ast.TYPE_POINTER, ast.TYPE_CODE:
		return int64(tc.wordSize)
	case ast.TYPE_ARRAY:
		if typ.Size < 0 {
			tc.errorf(tok, "Invalid application of 'sizeof' to incomplete type '%s'.", typ)
		}
		return tc.getSizeof(typ.Base, tok) * typ.Size
	case ast.TYPE_STRUCT:
		if typ.Size < 0 {
			tc.errorf(tok, "Invalid application of 'sizeof' to incomplete type '%s'.", typ)
		}
		var totalSize, maxAlign int64 = 0, 1
		for _, f := range typ.Fields {
			fieldAlign := tc.getAlignof(f.Type)
			if fieldAlign > maxAlign {
				maxAlign = fieldAlign
			}
			totalSize = alignUp(totalSize, fieldAlign)
			totalSize += tc.getSizeof(f.Type, tok)
		}
		return alignUp(totalSize, maxAlign)
	}
	return int64(tc.wordSize)
}

// --- Unit ---

// Check resolves and types the whole file in place. It stops at the first
// error.
func (tc *TypeChecker) Check(file *ast.File) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(checkFailure)
			if !ok {
				panic(r)
			}
			err = f.err
		}
	}()

	tc.collectGlobals(file)
	for _, g := range file.Globals {
		tc.checkGlobalInit(g)
	}
	for _, fn := range file.Functions {
		tc.checkFuncDecl(fn)
	}
	return nil
}

// CheckExpr types a standalone expression against the symbols already
// declared in the global scope.
func (tc *TypeChecker) CheckExpr(e *ast.Expr) (out *ast.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(checkFailure)
			if !ok {
				panic(r)
			}
			out, err = nil, f.err
		}
	}()
	return tc.rvalue(e), nil
}

// SetFunction names the function that locals declared by later CheckExpr
// calls belong to.
func (tc *TypeChecker) SetFunction(fn *ast.Function) { tc.currentFunc = fn }

// Declare makes a global object visible to later checks.
func (tc *TypeChecker) Declare(name string, typ *ast.Type) {
	saved := tc.currentScope
	tc.currentScope = tc.globalScope
	defer func() { tc.currentScope = saved }()
	if typ.IsCode() {
		tc.addFunction(name, typ, token.Token{})
		return
	}
	tc.addObject(name, typ, token.Token{}, symtab.Static, false)
}

func (tc *TypeChecker) addFunction(name string, typ *ast.Type, tok token.Token) *Symbol {
	if prev := tc.findSymbolInCurrentScope(name); prev != nil {
		if !prev.IsFunc || !ast.TypesEqual(prev.Type, typ) {
			tc.errorf(tok, "Conflicting types for '%s'.", name)
		}
		return prev
	}
	entry := &symtab.Symbol{Name: name, BaseName: name, Type: typ, Tok: tok, Lifetime: symtab.Static, IsFunction: true}
	if err := tc.symbols.Add(entry); err != nil {
		tc.errorf(tok, "%v", err)
	}
	return tc.pushSymbol(&Symbol{Name: name, Unique: name, Type: typ, IsFunc: true, Entry: entry})
}

func (tc *TypeChecker) collectGlobals(file *ast.File) {
	for _, fn := range file.Functions {
		tc.addFunction(fn.Name, fn.Type, fn.Tok)
	}
	defined := make(map[string]bool)
	for _, g := range file.Globals {
		if prev := tc.findSymbolInCurrentScope(g.Name); prev != nil {
			if prev.IsFunc || !ast.TypesEqual(prev.Type, g.Type) && !completes(prev.Type, g.Type) {
				tc.errorf(g.Tok, "Conflicting types for '%s'.", g.Name)
			}
			if g.Init != nil && defined[g.Name] {
				tc.errorf(g.Tok, "Redefinition of '%s'.", g.Name)
			}
			defined[g.Name] = defined[g.Name] || g.Init != nil
			if g.Type.IsArray() && g.Type.Size >= 0 {
				prev.Type, prev.Entry.Type = g.Type, g.Type
			}
			continue
		}
		tc.checkObjectType(g.Type, g.Tok, g.IsExtern)
		tc.addObject(g.Name, g.Type, g.Tok, symtab.Static, false)
		defined[g.Name] = g.Init != nil
	}
}

// completes reports whether b completes the incomplete array type a.
func completes(a, b *ast.Type) bool {
	return a.IsArray() && b.IsArray() && (a.Size < 0 || b.Size < 0) && ast.TypesEqual(a.Base, b.Base)
}

func (tc *TypeChecker) checkGlobalInit(g *ast.VarDecl) {
	if g.Init == nil {
		return
	}
	sym := tc.findSymbol(g.Name)
	g.Init = tc.checkInit(g.Init, g.Type, g.Tok)
	if g.Type.IsArray() && g.Type.Size < 0 {
		g.Type = g.Init.Type
		sym.Type, sym.Entry.Type = g.Type, g.Type
	}
}

func (tc *TypeChecker) checkObjectType(typ *ast.Type, tok token.Token, isExtern bool) {
	switch {
	case typ.IsVoid():
		tc.errorf(tok, "Variable declared with type 'void'.")
	case typ.IsStruct() && typ.Size < 0 && !isExtern:
		tc.errorf(tok, "Variable has incomplete type '%s'.", typ)
	}
}

func (tc *TypeChecker) checkFuncDecl(fn *ast.Function) {
	if fn.Body == nil {
		return
	}
	prevFunc := tc.currentFunc
	tc.currentFunc = fn
	defer func() { tc.currentFunc = prevFunc }()

	tc.enterScope()
	for _, p := range fn.Params {
		tc.checkObjectType(p.Type, p.Tok, false)
		sym := tc.addObject(p.Name, p.Type, p.Tok, symtab.AutomaticLocal, true)
		p.Name = sym.Unique
	}
	// parameters and the outermost block share one scope
	for _, s := range fn.Body.Stmts {
		tc.checkStmt(s)
	}
	tc.exitScope()
}

// --- Statements ---

func (tc *TypeChecker) checkBlock(s *ast.Stmt) {
	tc.enterScope()
	for _, st := range s.Stmts {
		tc.checkStmt(st)
	}
	tc.exitScope()
}

func (tc *TypeChecker) checkStmt(s *ast.Stmt) {
	switch s.Kind {
	case ast.SkipStmt:
	case ast.ExprStmt:
		s.Expr = tc.rvalue(s.Expr)
	case ast.DeclStmt:
		tc.checkVarDecl(s.Decl)
	case ast.IfStmt:
		s.Expr = tc.condition(s.Expr)
		tc.checkScopedStmt(s.Then)
		if s.Else != nil {
			tc.checkScopedStmt(s.Else)
		}
	case ast.WhileStmt:
		s.Expr = tc.condition(s.Expr)
		tc.checkScopedStmt(s.Then)
	case ast.ReturnStmt:
		tc.checkReturn(s)
	case ast.BlockStmt:
		tc.checkBlock(s)
	default:
		tc.errorf(s.Tok, "Unknown statement.")
	}
}

// checkScopedStmt checks the body of an if or while, which has a scope of
// its own even when it is not a block.
func (tc *TypeChecker) checkScopedStmt(s *ast.Stmt) {
	if s.Kind == ast.BlockStmt {
		tc.checkBlock(s)
		return
	}
	tc.enterScope()
	tc.checkStmt(s)
	tc.exitScope()
}

func (tc *TypeChecker) checkVarDecl(d *ast.VarDecl) {
	if d.IsExtern {
		global := tc.findGlobal(d.Name)
		if global == nil {
			saved := tc.currentScope
			tc.currentScope = tc.globalScope
			global = tc.addObject(d.Name, d.Type, d.Tok, symtab.Static, false)
			tc.currentScope = saved
		} else if !ast.TypesEqual(global.Type, d.Type) && !completes(global.Type, d.Type) {
			tc.errorf(d.Tok, "Conflicting types for '%s'.", d.Name)
		}
		tc.pushSymbol(&Symbol{Name: d.Name, Unique: global.Unique, Type: global.Type, Entry: global.Entry})
		d.Name = global.Unique
		return
	}

	tc.checkObjectType(d.Type, d.Tok, false)
	lifetime := symtab.AutomaticLocal
	if d.IsStatic {
		lifetime = symtab.Static
	}
	sym := tc.addObject(d.Name, d.Type, d.Tok, lifetime, false)
	d.Name = sym.Unique

	if d.Init == nil {
		if d.Type.IsArray() && d.Type.Size < 0 {
			tc.errorf(d.Tok, "Array '%s' has incomplete type '%s'.", sym.Name, d.Type)
		}
		return
	}
	d.Init = tc.checkInit(d.Init, d.Type, d.Tok)
	if d.Type.IsArray() && d.Type.Size < 0 {
		d.Type = d.Init.Type
		sym.Type, sym.Entry.Type = d.Type, d.Type
	}
}

func (tc *TypeChecker) findGlobal(name string) *Symbol {
	for sym := tc.globalScope.Symbols; sym != nil; sym = sym.Next {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

func (tc *TypeChecker) checkReturn(s *ast.Stmt) {
	retType := tc.currentFunc.Type.Return
	if s.Expr == nil {
		if !retType.IsVoid() {
			util.Warn(tc.cfg, config.WarnExtra, s.Tok, "Return with no value in function returning '%s'", retType)
		}
		return
	}
	s.Expr = tc.rvalue(s.Expr)
	if retType.IsVoid() {
		if !s.Expr.Type.IsVoid() {
			tc.errorf(s.Tok, "Return with a value in function returning void.")
		}
		return
	}
	tc.checkAssignable(retType, s.Expr, s.Tok, "Returning")
	s.Expr = retype(s.Expr, retType)
}

// --- Initializers ---

// checkInit types the initializer of an object of type typ. Incomplete
// array types are completed from the initializer, whose type is then the
// completed one.
func (tc *TypeChecker) checkInit(init *ast.Expr, typ *ast.Type, tok token.Token) *ast.Expr {
	if init.Kind == ast.Initializer {
		tc.checkInitializer(init, typ)
		return init
	}
	if typ.IsArray() {
		if init.Kind == ast.StringConstant && ast.TypesEqual(typ.Base, ast.TypeChar) {
			if typ.Size >= 0 {
				if typ.Size < int64(len(init.Str)) {
					tc.errorf(tok, "Initializer string is too long for '%s'.", typ)
				}
				init.Type = typ
			}
			return init
		}
		tc.errorf(tok, "Array initializer must be an initializer list.")
	}
	init = tc.rvalue(init)
	tc.checkAssignable(typ, init, tok, "Initializing")
	return retype(init, typ)
}

func (tc *TypeChecker) checkInitializer(init *ast.Expr, typ *ast.Type) {
	switch {
	case typ.IsArray():
		if typ.Size >= 0 && int64(len(init.Operands)) > typ.Size {
			tc.errorf(init.Tok, "Excess elements in array initializer.")
		}
		for i, elem := range init.Operands {
			init.Operands[i] = tc.checkInit(elem, typ.Base, elem.Tok)
		}
		if typ.Size < 0 {
			typ = ast.ArrayOf(typ.Base, int64(len(init.Operands)))
		}
	case typ.IsStruct():
		if typ.Size < 0 {
			tc.errorf(init.Tok, "Initializer for incomplete type '%s'.", typ)
		}
		if len(init.Operands) > len(typ.Fields) {
			tc.errorf(init.Tok, "Excess elements in struct initializer.")
		}
		for i, elem := range init.Operands {
			init.Operands[i] = tc.checkInit(elem, typ.Fields[i].Type, elem.Tok)
		}
	default:
		if len(init.Operands) != 1 {
			tc.errorf(init.Tok, "Scalar initializer must have exactly one element.")
		}
		init.Operands[0] = tc.checkInit(init.Operands[0], typ, init.Operands[0].Tok)
	}
	init.Type = typ
}

// --- Expressions ---

// retype gives integer constants the type they are stored as, so that they
// print without a cast.
func retype(e *ast.Expr, typ *ast.Type) *ast.Expr {
	if e.Kind == ast.Constant && typ != nil && typ.Kind == ast.TYPE_INT && e.Type.IsInteger() {
		e.Type = typ
	}
	return e
}

// coerce converts e to typ, casting when the types differ.
func coerce(e *ast.Expr, typ *ast.Type) *ast.Expr {
	return ast.ConditionalCast(retype(e, typ), typ)
}

// rvalue types e and applies array-to-pointer decay.
func (tc *TypeChecker) rvalue(e *ast.Expr) *ast.Expr {
	tc.checkExpr(e)
	if !e.Type.IsArray() {
		return e
	}
	tok := e.Tok
	first := ast.NewIndex(tok, e, ast.NewConstant(tok, 0, ast.TypeLong))
	return ast.NewAddressOf(tok, first)
}

// condition types e as a truth value.
func (tc *TypeChecker) condition(e *ast.Expr) *ast.Expr {
	e = tc.rvalue(e)
	if e.Type.IsBool() {
		return e
	}
	if !e.Type.IsScalar() {
		tc.errorf(e.Tok, "Expression of type '%s' used as a condition.", e.Type)
	}
	if e.Kind == ast.Constant {
		if e.Value != 0 {
			return ast.NewTrue(e.Tok)
		}
		return ast.NewFalse(e.Tok)
	}
	return ast.NewTypecast(e.Tok, e, ast.TypeBool)
}

func (tc *TypeChecker) checkAssignable(to *ast.Type, from *ast.Expr, tok token.Token, what string) {
	ft := from.Type
	switch {
	case to.IsInteger() && ft.IsInteger():
		return
	case to.IsPointer() && ft.IsPointer():
		return
	case to.IsPointer() && ft.IsInteger():
		if from.Kind != ast.Constant || from.Value != 0 {
			util.Warn(tc.cfg, config.WarnExtra, tok, "%s '%s' from integer without a cast", what, to)
		}
		return
	case to.IsInteger() && ft.IsPointer():
		util.Warn(tc.cfg, config.WarnExtra, tok, "%s '%s' from pointer without a cast", what, to)
		return
	case to.IsPointer() && ft.IsCode():
		return
	case to.IsStruct() && ft.IsStruct() && to.Tag == ft.Tag:
		return
	}
	tc.errorf(tok, "%s '%s' with an expression of incompatible type '%s'.", what, to, ft)
}

// arithmeticType computes the common type of two integer operands.
func arithmeticType(a, b *ast.Type) *ast.Type {
	promote := func(t *ast.Type) *ast.Type {
		if t.IsBool() || t.Width < 32 {
			return ast.TypeInt
		}
		return t
	}
	a, b = promote(a), promote(b)
	switch {
	case a.Width > b.Width:
		return a
	case b.Width > a.Width:
		return b
	case !a.Signed:
		return a
	}
	return b
}

func isComparison(op token.Type) bool {
	switch op {
	case token.Lt, token.Gt, token.Lte, token.Gte, token.EqEq, token.Neq:
		return true
	}
	return false
}

func (tc *TypeChecker) checkExpr(e *ast.Expr) *ast.Type {
	switch e.Kind {
	case ast.Nil:
		e.Type = ast.TypeVoid
	case ast.Constant:
		if e.Type == nil {
			switch {
			case e.Value < 0:
				e.Type = ast.TypeUlong
			case e.Value > math.MaxInt32:
				e.Type = ast.TypeLong
			default:
				e.Type = ast.TypeInt
			}
		}
	case ast.StringConstant:
	case ast.Symbol:
		tc.checkSymbol(e)
	case ast.Typecast:
		e.Operands[0] = tc.rvalue(e.Operands[0])
		from := e.Operands[0].Type
		if !e.Type.IsVoid() && !(e.Type.IsScalar() && (from.IsScalar() || from.IsCode())) && !ast.TypesEqual(e.Type, from) {
			tc.errorf(e.Tok, "Cannot cast '%s' to '%s'.", from, e.Type)
		}
	case ast.AddressOf:
		op := e.Operands[0]
		tc.checkExpr(op)
		e.Type = ast.PointerTo(op.Type)
	case ast.Dereference:
		e.Operands[0] = tc.rvalue(e.Operands[0])
		ptr := e.Operands[0].Type
		if !ptr.IsPointer() {
			tc.errorf(e.Tok, "Cannot dereference non-pointer type '%s'.", ptr)
		}
		e.Type = ptr.Base
	case ast.Index:
		tc.checkIndex(e)
	case ast.Member:
		obj := e.Operands[0]
		tc.checkExpr(obj)
		if !obj.Type.IsStruct() || obj.Type.Size < 0 {
			tc.errorf(e.Tok, "Request for member '%s' in something not a complete structure ('%s').", e.Name, obj.Type)
		}
		e.Type = obj.Type.FieldType(e.Name)
		if e.Type == nil {
			tc.errorf(e.Tok, "'%s' has no member named '%s'.", obj.Type, e.Name)
		}
	case ast.Unary:
		e.Operands[0] = tc.rvalue(e.Operands[0])
		op := e.Operands[0]
		if !op.Type.IsInteger() {
			tc.errorf(e.Tok, "Invalid operand type '%s' for unary '%s'.", op.Type, e.Op)
		}
		e.Type = arithmeticType(op.Type, op.Type)
		e.Operands[0] = coerce(op, e.Type)
	case ast.Not:
		e.Operands[0] = tc.condition(e.Operands[0])
		e.Type = ast.TypeBool
	case ast.Binary:
		tc.checkBinary(e)
	case ast.And, ast.Or, ast.Implies:
		for i, op := range e.Operands {
			e.Operands[i] = tc.condition(op)
		}
		e.Type = ast.TypeBool
	case ast.If:
		tc.checkConditional(e)
	case ast.Comma:
		for i, op := range e.Operands {
			e.Operands[i] = tc.rvalue(op)
		}
		e.Type = e.Operands[len(e.Operands)-1].Type
	case ast.SideEffect:
		tc.checkSideEffect(e)
	case ast.CompoundLiteral:
		tc.checkObjectType(e.Type, e.Tok, false)
		init := e.Operands[0]
		if init.Kind != ast.Initializer {
			init = ast.NewInitializer(init.Tok, []*ast.Expr{init}, nil)
		}
		tc.checkInitializer(init, e.Type)
		e.Operands[0] = init
		e.Type = init.Type
	case ast.Initializer:
		tc.errorf(e.Tok, "Initializer list used outside of a declaration.")
	case ast.Forall, ast.Exists:
		tc.checkQuantifier(e)
	case ast.Sizeof:
		of := e.Of
		if len(e.Operands) > 0 {
			of = tc.checkExpr(e.Operands[0])
		}
		e.Replace(ast.NewConstant(e.Tok, tc.getSizeof(of, e.Tok), ast.TypeUlong))
	default:
		tc.errorf(e.Tok, "Unknown expression '%s'.", e.Kind)
	}
	return e.Type
}

func (tc *TypeChecker) checkSymbol(e *ast.Expr) {
	sym := tc.findSymbol(e.Name)
	if sym == nil {
		tc.errorf(e.Tok, "Use of undeclared identifier '%s'.", e.Name)
	}
	e.Name, e.Type = sym.Unique, sym.Type
}

func (tc *TypeChecker) checkIndex(e *ast.Expr) {
	array := e.Operands[0]
	tc.checkExpr(array)
	if !array.Type.IsArray() {
		e.Operands[0] = tc.rvalue(array)
		array = e.Operands[0]
	}
	if !array.Type.IsArray() && !array.Type.IsPointer() {
		tc.errorf(e.Tok, "Subscripted value of type '%s' is not an array or pointer.", array.Type)
	}
	e.Operands[1] = tc.rvalue(e.Operands[1])
	if !e.Operands[1].Type.IsInteger() {
		tc.errorf(e.Operands[1].Tok, "Array subscript is not an integer.")
	}
	e.Type = array.Type.Base
}

func (tc *TypeChecker) checkBinary(e *ast.Expr) {
	e.Operands[0] = tc.rvalue(e.Operands[0])
	e.Operands[1] = tc.rvalue(e.Operands[1])
	lhs, rhs := e.Operands[0], e.Operands[1]
	lt, rt := lhs.Type, rhs.Type

	switch {
	case lt.IsInteger() && rt.IsInteger():
		var common *ast.Type
		if e.Op == token.Shl || e.Op == token.Shr {
			common = arithmeticType(lt, lt)
			e.Operands[0] = coerce(lhs, common)
		} else {
			common = arithmeticType(lt, rt)
			e.Operands[0], e.Operands[1] = coerce(lhs, common), coerce(rhs, common)
		}
		e.Type = common
	case lt.IsPointer() && rt.IsInteger() && (e.Op == token.Plus || e.Op == token.Minus):
		e.Type = lt
	case lt.IsInteger() && rt.IsPointer() && e.Op == token.Plus:
		e.Type = rt
	case lt.IsPointer() && rt.IsPointer() && e.Op == token.Minus:
		e.Type = ast.TypeLong
	case lt.IsPointer() && rt.IsPointer() && isComparison(e.Op):
	case lt.IsPointer() && rt.IsInteger() && isComparison(e.Op):
		if rhs.Kind == ast.Constant {
			rhs.Type = lt
		} else {
			e.Operands[1] = coerce(rhs, lt)
		}
	default:
		tc.errorf(e.Tok, "Invalid operands to binary '%s' ('%s' and '%s').", e.Op, lt, rt)
	}
	if isComparison(e.Op) {
		e.Type = ast.TypeBool
	}
}

func (tc *TypeChecker) checkConditional(e *ast.Expr) {
	e.Operands[0] = tc.condition(e.Operands[0])
	e.Operands[1] = tc.rvalue(e.Operands[1])
	e.Operands[2] = tc.rvalue(e.Operands[2])
	e.Type = tc.commonType(e.Operands[1], e.Operands[2], e.Tok)
	if !e.Type.IsVoid() {
		e.Operands[1] = coerce(e.Operands[1], e.Type)
		e.Operands[2] = coerce(e.Operands[2], e.Type)
	}
}

// commonType is the type of a conditional choosing between a and b.
func (tc *TypeChecker) commonType(a, b *ast.Expr, tok token.Token) *ast.Type {
	at, bt := a.Type, b.Type
	switch {
	case at.IsVoid() || bt.IsVoid():
		return ast.TypeVoid
	case at.IsBool() && bt.IsBool():
		return ast.TypeBool
	case at.IsInteger() && bt.IsInteger():
		return arithmeticType(at, bt)
	case at.IsPointer() && bt.IsPointer():
		return at
	case at.IsPointer() && bt.IsInteger():
		return at
	case at.IsInteger() && bt.IsPointer():
		return bt
	case at.IsStruct() && bt.IsStruct() && at.Tag == bt.Tag:
		return at
	}
	tc.errorf(tok, "Type mismatch in conditional expression ('%s' and '%s').", at, bt)
	return nil
}

func (tc *TypeChecker) checkLValue(e *ast.Expr, what string) {
	tc.checkExpr(e)
	if e.Type.IsArray() || e.Type.IsCode() {
		tc.errorf(e.Tok, "Cannot %s an expression of type '%s'.", what, e.Type)
	}
	if target := ast.SkipTypecast(e); target.Kind == ast.StringConstant || target.Kind == ast.Nil {
		tc.errorf(e.Tok, "Cannot %s a non-lvalue.", what)
	}
}

func (tc *TypeChecker) checkSideEffect(e *ast.Expr) {
	switch e.Statement {
	case ast.Assign:
		lhs := e.Operands[0]
		tc.checkLValue(lhs, "assign to")
		e.Operands[1] = tc.rvalue(e.Operands[1])
		tc.checkAssignable(lhs.Type, e.Operands[1], e.Tok, "Assigning to")
		e.Operands[1] = retype(e.Operands[1], lhs.Type)
		e.Type = lhs.Type
	case ast.AssignOp:
		lhs := e.Operands[0]
		tc.checkLValue(lhs, "assign to")
		e.Operands[1] = tc.rvalue(e.Operands[1])
		rt := e.Operands[1].Type
		pointerStep := lhs.Type.IsPointer() && rt.IsInteger() && (e.Op == token.Plus || e.Op == token.Minus)
		if !pointerStep && !(lhs.Type.IsInteger() && rt.IsInteger()) {
			tc.errorf(e.Tok, "Invalid operands to '%s=' ('%s' and '%s').", e.Op, lhs.Type, rt)
		}
		if !pointerStep {
			e.Operands[1] = coerce(e.Operands[1], lhs.Type)
		}
		e.Type = lhs.Type
	case ast.PreIncrement, ast.PreDecrement, ast.PostIncrement, ast.PostDecrement:
		op := e.Operands[0]
		tc.checkLValue(op, "increment or decrement")
		if !op.Type.IsScalar() {
			tc.errorf(e.Tok, "Cannot increment or decrement type '%s'.", op.Type)
		}
		e.Type = op.Type
	case ast.FunctionCall:
		tc.checkFuncCall(e)
	case ast.StatementExpression:
		tc.checkBlock(e.Body)
		e.Type = ast.TypeVoid
		if last := e.Body.LastExprStmt(); last != nil {
			e.Type = last.Expr.Type
		}
	case ast.GCCConditional:
		e.Operands[0] = tc.rvalue(e.Operands[0])
		if !e.Operands[0].Type.IsScalar() {
			tc.errorf(e.Tok, "Expression of type '%s' used as a condition.", e.Operands[0].Type)
		}
		e.Operands[1] = tc.rvalue(e.Operands[1])
		e.Type = tc.commonType(e.Operands[0], e.Operands[1], e.Tok)
		if !e.Type.IsVoid() {
			e.Operands[1] = coerce(e.Operands[1], e.Type)
		}
	default:
		tc.errorf(e.Tok, "Unknown side effect '%s'.", e.Statement)
	}
}

func (tc *TypeChecker) checkFuncCall(e *ast.Expr) {
	fn := e.Operands[0]
	if fn.Kind == ast.Symbol && tc.findSymbol(fn.Name) == nil {
		util.Warn(tc.cfg, config.WarnImplicitDecl, fn.Tok, "Implicit declaration of function '%s'", fn.Name)
		saved := tc.currentScope
		tc.currentScope = tc.globalScope
		tc.addFunction(fn.Name, ast.NewCodeType(ast.TypeInt, nil, true), fn.Tok)
		tc.currentScope = saved
	}

	tc.checkExpr(fn)
	code := fn.Type
	if code.IsPointer() && code.Base.IsCode() {
		code = code.Base
	}
	if !code.IsCode() {
		tc.errorf(e.Tok, "Called object of type '%s' is not a function.", fn.Type)
	}

	args := e.Operands[1:]
	if len(args) < len(code.Params) || len(args) > len(code.Params) && !code.Variadic {
		tc.errorf(e.Tok, "Function '%s' expects %d arguments, got %d.", fn, len(code.Params), len(args))
	}
	for i, arg := range args {
		arg = tc.rvalue(arg)
		if i < len(code.Params) {
			tc.checkAssignable(code.Params[i], arg, arg.Tok, "Passing")
			arg = coerce(arg, code.Params[i])
		}
		args[i] = arg
	}
	e.Type = code.Return
}

func (tc *TypeChecker) checkQuantifier(e *ast.Expr) {
	bound := e.Operands[0]
	if !bound.Type.IsScalar() {
		tc.errorf(bound.Tok, "Quantified variable must have scalar type, got '%s'.", bound.Type)
	}
	tc.enterScope()
	sym := tc.addObject(bound.Name, bound.Type, bound.Tok, symtab.AutomaticLocal, false)
	bound.Name = sym.Unique
	e.Operands[1] = tc.condition(e.Operands[1])
	tc.exitScope()

	if ast.HasSideEffect(e.Operands[1]) {
		tc.errorf(e.Tok, "Quantifier must not have side effects.")
	}
	e.Type = ast.TypeBool
}
