package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

// NeedsCleaning reports whether e contains anything that may change program
// state or needs storage: side effects, compound literals and commas.
// Dereferences, indexing and division may fault but are left alone.
//
// Quantifiers are a boundary. Their bodies may mention the bound variable,
// so nothing inside them can be hoisted out.
func NeedsCleaning(e *ast.Expr) bool {
	switch e.Kind {
	case ast.SideEffect, ast.CompoundLiteral, ast.Comma:
		return true
	case ast.Forall, ast.Exists:
		return false
	}
	for _, op := range e.Operands {
		if NeedsCleaning(op) {
			return true
		}
	}
	return false
}

// Lower rewrites e in place into a side-effect free expression, appending
// the instructions that realize its effects to dest. When resultIsUsed is
// false the value is discarded and e may become nil.
func (c *Converter) Lower(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	util.Invariant(e != nil, token.Token{}, "lowering a missing expression")

	if e.Kind == ast.Forall || e.Kind == ast.Exists {
		util.Invariant(!ast.HasSideEffect(e.Operands[1]), e.Tok,
			"side effect in quantified expression; the front end should have rejected it")
		return
	}

	if !NeedsCleaning(e) {
		return
	}

	switch e.Kind {
	case ast.And, ast.Or, ast.Implies:
		rewriteBoolean(e)
		c.Lower(e, dest, resultIsUsed)

	case ast.If:
		c.lowerIf(e, dest, resultIsUsed)

	case ast.Comma:
		c.lowerComma(e, dest, resultIsUsed)

	case ast.Typecast:
		op := e.Operands[0]
		c.Lower(op, dest, resultIsUsed)
		if op.IsNil() {
			e.Replace(ast.NewNil(e.Tok))
		}

	case ast.SideEffect:
		c.lowerSideEffect(e, dest, resultIsUsed)

	case ast.AddressOf:
		c.LowerAddressOf(e.Operands[0], dest)

	case ast.CompoundLiteral:
		util.Invariant(len(e.Operands) == 1, e.Tok, "compound literal has a single operand")
		init := e.Operands[0]
		c.Lower(init, dest, true)
		e.Replace(init)

	case ast.Nil, ast.Constant, ast.StringConstant, ast.Symbol, ast.Dereference, ast.Index,
		ast.Member, ast.Unary, ast.Not, ast.Binary, ast.Initializer:
		c.lowerOperands(e, dest)

	case ast.Sizeof:
		util.Invariant(false, e.Tok, "sizeof reached lowering unresolved")

	default:
		util.Invariant(false, e.Tok, "unknown expression kind %d", int(e.Kind))
	}
}

// lowerOperands lowers every operand for its value, left to right.
func (c *Converter) lowerOperands(e *ast.Expr, dest *ir.Program) {
	for _, op := range e.Operands {
		c.Lower(op, dest, true)
	}
}

func (c *Converter) lowerIf(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	util.Invariant(len(e.Operands) == 3, e.Tok, "conditional expression takes three operands")
	cond, trueCase, falseCase := e.Operands[0], e.Operands[1], e.Operands[2]

	c.Lower(cond, dest, true)

	if !NeedsCleaning(trueCase) && !NeedsCleaning(falseCase) {
		return
	}

	util.Invariant(cond.Type.IsBool(), cond.Tok, "condition for an 'if' must be boolean, got %s", cond.Type)
	tok := e.Tok

	tmpTrue := ir.NewProgram()
	c.Lower(trueCase, tmpTrue, resultIsUsed)

	tmpFalse := ir.NewProgram()
	c.Lower(falseCase, tmpFalse, resultIsUsed)

	if resultIsUsed && !e.Type.IsVoid() {
		tmp := c.newTemporary(e.Type, "if_expr", tok, dest)
		c.convertAssign(tmp.Expr(tok), trueCase, tmpTrue, tok)
		c.convertAssign(tmp.Expr(tok), falseCase, tmpFalse, tok)
		e.Replace(tmp.Expr(tok))
	} else {
		// a (void) cast keeps constant leftovers distinguishable from skips
		if !trueCase.IsNil() {
			tmpTrue.AddOther(ast.NewTypecast(trueCase.Tok, trueCase, ast.TypeVoid), trueCase.Tok)
		}
		if !falseCase.IsNil() {
			tmpFalse.AddOther(ast.NewTypecast(falseCase.Tok, falseCase, ast.TypeVoid), falseCase.Tok)
		}
		e.Replace(ast.NewNil(tok))
	}

	c.generateIfThenElse(cond, tmpTrue, tmpFalse, tok, dest)
}

func (c *Converter) lowerComma(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	util.Invariant(len(e.Operands) > 0, e.Tok, "empty comma expression")
	ops := e.Operands

	if !resultIsUsed {
		for _, op := range ops {
			c.Lower(op, dest, false)
			keepDiscarded(op, dest)
		}
		e.Replace(ast.NewNil(e.Tok))
		return
	}

	last := ops[len(ops)-1]
	for _, op := range ops[:len(ops)-1] {
		c.Lower(op, dest, false)
		keepDiscarded(op, dest)
	}
	c.Lower(last, dest, true)
	e.Replace(last)
}

func (c *Converter) lowerSideEffect(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	switch e.Statement {
	case ast.GCCConditional:
		c.lowerGCCConditional(e, dest, resultIsUsed)
		return
	case ast.StatementExpression:
		c.removeStatementExpression(e, dest, resultIsUsed)
		return
	case ast.Assign:
		util.Invariant(len(e.Operands) == 2, e.Tok, "side-effect assignment expressions must have two operands")
		if rhs := e.Operands[1]; rhs.Kind == ast.SideEffect && rhs.Statement == ast.FunctionCall {
			c.lowerAssignCall(e, dest, resultIsUsed)
			return
		}
	}

	c.lowerOperands(e, dest)
	c.removeSideEffect(e, dest, resultIsUsed, false)
}

// lowerAssignCall handles lhs = f(...) without a temporary whenever the
// target can receive the call result directly.
func (c *Converter) lowerAssignCall(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	lhs, rhs := e.Operands[0], e.Operands[1]
	tok := e.Tok

	c.Lower(lhs, dest, true)

	mustUseRHS := assignmentLHSNeedsTemporary(lhs)
	if mustUseRHS {
		c.removeFunctionCall(rhs, dest, true)
	}

	newLHS := ast.SkipTypecast(lhs).Clone()
	newRHS := ast.ConditionalCast(rhs, newLHS.Type)
	var result *ast.Expr
	if mustUseRHS && resultIsUsed {
		result = newRHS.Clone()
	}
	c.convertAssign(newLHS, newRHS, dest, tok)

	switch {
	case !resultIsUsed:
		e.Replace(ast.NewNil(tok))
	case mustUseRHS:
		e.Replace(result)
	default:
		e.Replace(lhs)
	}
}

// assignmentLHSNeedsTemporary reports whether a value stored into lhs must
// be read back from a temporary rather than from lhs itself.
func assignmentLHSNeedsTemporary(lhs *ast.Expr) bool {
	return ast.SkipTypecast(lhs).Kind != ast.Symbol
}
