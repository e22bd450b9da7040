package lower

import (
	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/ir"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

// removeSideEffect emits the instructions performing the effect of e and
// replaces e with its value, or with nil when the value is not needed.
// With addressTaken the replacement must be an lvalue.
func (c *Converter) removeSideEffect(e *ast.Expr, dest *ir.Program, resultIsUsed, addressTaken bool) {
	switch e.Statement {
	case ast.FunctionCall:
		c.removeFunctionCall(e, dest, resultIsUsed || addressTaken)
	case ast.Assign, ast.AssignOp, ast.PreIncrement, ast.PreDecrement:
		c.removeAssignment(e, dest, resultIsUsed, addressTaken)
	case ast.PostIncrement, ast.PostDecrement:
		c.removePostIncrement(e, dest, resultIsUsed || addressTaken)
	case ast.StatementExpression:
		c.removeStatementExpression(e, dest, resultIsUsed || addressTaken)
	case ast.GCCConditional:
		c.lowerGCCConditional(e, dest, resultIsUsed || addressTaken)
	default:
		util.Invariant(false, e.Tok, "cannot remove side effect '%s'", e.Statement)
	}
}

func (c *Converter) removeFunctionCall(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	util.Invariant(len(e.Operands) >= 1, e.Tok, "function call without a function")
	c.lowerOperands(e, dest)

	function, args := e.Operands[0], e.Operands[1:]
	tok := e.Tok

	if resultIsUsed && !e.Type.IsVoid() {
		tmp := c.newTemporary(e.Type, "return_value", tok, dest)
		dest.AddFunctionCall(tmp.Expr(tok), function, args, tok)
		e.Replace(tmp.Expr(tok))
		return
	}

	dest.AddFunctionCall(nil, function, args, tok)
	e.Replace(ast.NewNil(tok))
}

func one(tok token.Token, typ *ast.Type) *ast.Expr {
	if typ.IsInteger() {
		return ast.NewConstant(tok, 1, typ)
	}
	return ast.NewConstant(tok, 1, ast.TypeInt)
}

// updatedValue builds the value an assignment-like side effect stores.
// lhs must already be side-effect free.
func updatedValue(e *ast.Expr, lhs *ast.Expr) *ast.Expr {
	tok := e.Tok
	switch e.Statement {
	case ast.Assign:
		return e.Operands[1]
	case ast.AssignOp:
		return ast.NewBinary(tok, e.Op, lhs.Clone(), e.Operands[1], lhs.Type)
	case ast.PreIncrement, ast.PostIncrement:
		return ast.NewBinary(tok, token.Plus, lhs.Clone(), one(tok, lhs.Type), lhs.Type)
	case ast.PreDecrement, ast.PostDecrement:
		return ast.NewBinary(tok, token.Minus, lhs.Clone(), one(tok, lhs.Type), lhs.Type)
	}
	util.Invariant(false, tok, "'%s' does not update its operand", e.Statement)
	return nil
}

func (c *Converter) removeAssignment(e *ast.Expr, dest *ir.Program, resultIsUsed, addressTaken bool) {
	c.lowerOperands(e, dest)

	lhs := e.Operands[0]
	target := ast.SkipTypecast(lhs)
	tok := e.Tok
	value := ast.ConditionalCast(updatedValue(e, target), target.Type)

	switch {
	case addressTaken:
		dest.AddAssign(target.Clone(), value, tok)
		e.Replace(lhs)
	case !resultIsUsed:
		dest.AddAssign(target.Clone(), value, tok)
		e.Replace(ast.NewNil(tok))
	case assignmentLHSNeedsTemporary(lhs):
		tmp := c.newTemporary(target.Type, "assign", tok, dest)
		dest.AddAssign(tmp.Expr(tok), value, tok)
		dest.AddAssign(target.Clone(), tmp.Expr(tok), tok)
		e.Replace(tmp.Expr(tok))
	default:
		dest.AddAssign(target.Clone(), value, tok)
		e.Replace(lhs)
	}
}

func (c *Converter) removePostIncrement(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	util.Invariant(len(e.Operands) == 1, e.Tok, "'%s' takes one operand", e.Statement)
	c.lowerOperands(e, dest)

	target := ast.SkipTypecast(e.Operands[0])
	tok := e.Tok

	var result *ast.Expr
	if resultIsUsed {
		tmp := c.newTemporary(target.Type, "post", tok, dest)
		dest.AddAssign(tmp.Expr(tok), target.Clone(), tok)
		result = tmp.Expr(tok)
	}

	dest.AddAssign(target.Clone(), ast.ConditionalCast(updatedValue(e, target), target.Type), tok)
	e.Replace(result)
}

// removeStatementExpression converts the block of ({ ... }). Its value is
// the value of the final expression statement, captured in a temporary
// declared outside the block.
func (c *Converter) removeStatementExpression(e *ast.Expr, dest *ir.Program, resultIsUsed bool) {
	body := e.Body
	tok := e.Tok
	util.Invariant(body != nil && body.Kind == ast.BlockStmt, tok, "statement expression without a block")

	if !resultIsUsed || e.Type.IsVoid() {
		c.ConvertStmt(body, dest)
		e.Replace(ast.NewNil(tok))
		return
	}

	last := body.LastExprStmt()
	util.Invariant(last != nil, tok, "statement expression does not end in an expression")

	tmp := c.newTemporary(e.Type, "statement_expression", tok, dest)
	last.Expr = ast.NewAssign(last.Tok, tmp.Expr(tok), ast.ConditionalCast(last.Expr, e.Type))

	c.ConvertStmt(body, dest)
	e.Replace(tmp.Expr(tok))
}
