package ast

import "github.com/xplshn/gclean/pkg/token"

// StmtKind defines the kind of a statement node
type StmtKind int

const (
	SkipStmt StmtKind = iota
	ExprStmt
	DeclStmt
	IfStmt
	WhileStmt
	ReturnStmt
	BlockStmt
)

// Stmt is a statement. Expr is the expression of an ExprStmt, the value of
// a ReturnStmt or the condition of an IfStmt/WhileStmt; Then is also the
// loop body of a WhileStmt.
type Stmt struct {
	Kind  StmtKind
	Tok   token.Token
	Expr  *Expr
	Then  *Stmt
	Else  *Stmt
	Stmts []*Stmt
	Decl  *VarDecl
}

// VarDecl declares one object, local or global.
type VarDecl struct {
	Name     string
	Type     *Type
	Init     *Expr
	IsStatic bool
	IsExtern bool
	IsGlobal bool
	Tok      token.Token
}

type Function struct {
	Name   string
	Type   *Type
	Params []*VarDecl
	Body   *Stmt // nil for a prototype
	Tok    token.Token
}

// File is a parsed translation unit. Globals are kept in source order.
type File struct {
	Name      string
	Globals   []*VarDecl
	Functions []*Function
	Structs   map[string]*Type
}

// --- Statement Constructors ---

func NewSkip(tok token.Token) *Stmt { return &Stmt{Kind: SkipStmt, Tok: tok} }

func NewExprStmt(tok token.Token, e *Expr) *Stmt {
	return &Stmt{Kind: ExprStmt, Tok: tok, Expr: e}
}

func NewDeclStmt(tok token.Token, decl *VarDecl) *Stmt {
	return &Stmt{Kind: DeclStmt, Tok: tok, Decl: decl}
}

func NewIfStmt(tok token.Token, cond *Expr, thenBody, elseBody *Stmt) *Stmt {
	return &Stmt{Kind: IfStmt, Tok: tok, Expr: cond, Then: thenBody, Else: elseBody}
}

func NewWhileStmt(tok token.Token, cond *Expr, body *Stmt) *Stmt {
	return &Stmt{Kind: WhileStmt, Tok: tok, Expr: cond, Then: body}
}

func NewReturnStmt(tok token.Token, value *Expr) *Stmt {
	return &Stmt{Kind: ReturnStmt, Tok: tok, Expr: value}
}

func NewBlock(tok token.Token, stmts []*Stmt) *Stmt {
	return &Stmt{Kind: BlockStmt, Tok: tok, Stmts: stmts}
}

// Clone deep-copies s and every expression below it.
func (s *Stmt) Clone() *Stmt {
	if s == nil {
		return nil
	}
	c := *s
	c.Expr = s.Expr.Clone()
	c.Then = s.Then.Clone()
	c.Else = s.Else.Clone()
	if s.Stmts != nil {
		c.Stmts = make([]*Stmt, len(s.Stmts))
		for i, st := range s.Stmts {
			c.Stmts[i] = st.Clone()
		}
	}
	if s.Decl != nil {
		d := *s.Decl
		d.Init = s.Decl.Init.Clone()
		c.Decl = &d
	}
	return &c
}

// Exprs returns the expressions owned directly by s.
func (s *Stmt) Exprs() []*Expr {
	var out []*Expr
	if s.Expr != nil {
		out = append(out, s.Expr)
	}
	if s.Decl != nil && s.Decl.Init != nil {
		out = append(out, s.Decl.Init)
	}
	return out
}

// WalkStmt visits s and its nested statements in pre-order.
func WalkStmt(s *Stmt, fn func(*Stmt) bool) {
	if s == nil || !fn(s) {
		return
	}
	WalkStmt(s.Then, fn)
	WalkStmt(s.Else, fn)
	for _, st := range s.Stmts {
		WalkStmt(st, fn)
	}
}

// LastExprStmt returns the final statement of a block when it is an
// expression statement, which is where a statement expression takes its value.
func (s *Stmt) LastExprStmt() *Stmt {
	if s == nil || s.Kind != BlockStmt || len(s.Stmts) == 0 {
		return nil
	}
	last := s.Stmts[len(s.Stmts)-1]
	if last.Kind != ExprStmt {
		return nil
	}
	return last
}
