package parser

import (
	"strconv"

	"github.com/xplshn/gclean/pkg/ast"
	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/token"
)

func isLValue(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.Symbol, ast.Dereference, ast.Index, ast.Member, ast.CompoundLiteral, ast.StringConstant:
		return true
	case ast.Comma:
		return isLValue(e.Operands[len(e.Operands)-1])
	case ast.SideEffect:
		return e.Statement == ast.Assign || e.Statement == ast.AssignOp ||
			e.Statement == ast.PreIncrement || e.Statement == ast.PreDecrement ||
			e.Statement == ast.FunctionCall || e.Statement == ast.StatementExpression
	}
	return false
}

// Expression Parsing
func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash, token.Rem:
		return 13
	case token.Plus, token.Minus:
		return 12
	case token.Shl, token.Shr:
		return 11
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 10
	case token.EqEq, token.Neq:
		return 9
	case token.And:
		return 8
	case token.Xor:
		return 7
	case token.Or:
		return 6
	default:
		return -1
	}
}

func (p *Parser) parseExpr() *ast.Expr {
	tok := p.current
	first := p.parseAssignmentExpr()
	if !p.check(token.Comma) {
		return first
	}
	ops := []*ast.Expr{first}
	for p.match(token.Comma) {
		ops = append(ops, p.parseAssignmentExpr())
	}
	return ast.NewComma(tok, ops, nil)
}

func (p *Parser) parseAssignmentExpr() *ast.Expr {
	left := p.parseConditionalExpr()
	if !p.current.Type.IsAssignment() {
		return left
	}
	tok := p.current
	if !isLValue(left) {
		p.errorf(tok, "Invalid target for assignment.")
	}
	op := tok.Type
	p.advance()
	right := p.parseAssignmentExpr()
	if op == token.Eq {
		return ast.NewAssign(tok, left, right)
	}
	return ast.NewAssignOp(tok, op.BinaryOf(), left, right)
}

func (p *Parser) parseConditionalExpr() *ast.Expr {
	cond := p.parseImpliesExpr()
	if !p.match(token.Question) {
		return cond
	}
	tok := p.previous
	if p.match(token.Colon) {
		p.extension(config.FeatGCCCond, tok, "'?:' with omitted operand")
		falseCase := p.parseConditionalExpr()
		return ast.NewGCCConditional(tok, cond, falseCase, nil)
	}
	trueCase := p.parseExpr()
	p.expect(token.Colon, "Expected ':' for ternary operator.")
	falseCase := p.parseConditionalExpr()
	return ast.NewIf(tok, cond, trueCase, falseCase, nil)
}

// '==>' binds weaker than '||' and associates to the right.
func (p *Parser) parseImpliesExpr() *ast.Expr {
	lhs := p.parseLogicalExpr(token.OrOr)
	if !p.match(token.Implies) {
		return lhs
	}
	tok := p.previous
	rhs := p.parseImpliesExpr()
	return ast.NewImplies(tok, lhs, rhs)
}

// parseLogicalExpr parses a chain of '||' or '&&' into one n-ary node.
func (p *Parser) parseLogicalExpr(op token.Type) *ast.Expr {
	next := func() *ast.Expr {
		if op == token.OrOr {
			return p.parseLogicalExpr(token.AndAnd)
		}
		return p.parseBinaryExpr(0)
	}
	first := next()
	if !p.check(op) {
		return first
	}
	tok := p.current
	ops := []*ast.Expr{first}
	for p.match(op) {
		ops = append(ops, next())
	}
	if op == token.OrOr {
		return ast.NewOr(tok, ops...)
	}
	return ast.NewAnd(tok, ops...)
}

func (p *Parser) parseBinaryExpr(minPrec int) *ast.Expr {
	left := p.parseUnaryExpr()
	for {
		op := p.current.Type
		prec := getBinaryOpPrecedence(op)
		if prec < 0 || prec < minPrec {
			break
		}
		opTok := p.current
		p.advance()
		right := p.parseBinaryExpr(prec + 1)
		left = ast.NewBinary(opTok, op, left, right, nil)
	}
	return left
}

// isTypeAfterParen reports whether '(' starts a cast or compound literal.
func (p *Parser) isTypeAfterParen() bool {
	if !p.check(token.LParen) {
		return false
	}
	switch p.peek().Type {
	case token.Void, token.Bool, token.Char, token.Int, token.Long, token.Unsigned, token.Struct:
		return true
	}
	return false
}

func (p *Parser) parseUnaryExpr() *ast.Expr {
	tok := p.current
	switch {
	case p.match(token.Not):
		return ast.NewNot(tok, p.parseUnaryExpr())
	case p.match(token.Complement), p.match(token.Minus), p.match(token.Plus):
		return ast.NewUnary(tok, tok.Type, p.parseUnaryExpr())
	case p.match(token.Inc), p.match(token.Dec):
		operand := p.parseUnaryExpr()
		if !isLValue(operand) {
			p.errorf(tok, "Prefix '%s' requires an l-value.", tok.Type)
		}
		effect := ast.PreIncrement
		if tok.Type == token.Dec {
			effect = ast.PreDecrement
		}
		return ast.NewSideEffect(tok, effect, nil, operand)
	case p.match(token.Star):
		return ast.NewDereference(tok, p.parseUnaryExpr())
	case p.match(token.And):
		operand := p.parseUnaryExpr()
		if !isLValue(operand) {
			p.errorf(tok, "Address-of operator '&' requires an l-value.")
		}
		return ast.NewAddressOf(tok, operand)
	case p.match(token.Sizeof):
		if p.isTypeAfterParen() {
			p.advance()
			typ := p.parseTypeName()
			p.expect(token.RParen, "Expected ')' after type in sizeof.")
			return ast.NewSizeof(tok, typ, nil)
		}
		return ast.NewSizeof(tok, nil, p.parseUnaryExpr())
	case p.isTypeAfterParen():
		p.advance()
		typ := p.parseTypeName()
		p.expect(token.RParen, "Expected ')' after type name.")
		if p.check(token.LBrace) {
			p.extension(config.FeatCompoundLiterals, tok, "compound literal")
			init := p.parseInitializerList()
			return p.parsePostfixOps(ast.NewCompoundLiteral(tok, init, typ))
		}
		return ast.NewTypecast(tok, p.parseUnaryExpr(), typ)
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() *ast.Expr {
	return p.parsePostfixOps(p.parsePrimaryExpr())
}

func (p *Parser) parsePostfixOps(expr *ast.Expr) *ast.Expr {
	for {
		tok := p.current
		switch {
		case p.match(token.LParen):
			var args []*ast.Expr
			if !p.check(token.RParen) {
				for {
					args = append(args, p.parseAssignmentExpr())
					if !p.match(token.Comma) {
						break
					}
				}
			}
			p.expect(token.RParen, "Expected ')' after function arguments.")
			expr = ast.NewFunctionCall(tok, expr, args, nil)
		case p.match(token.LBracket):
			index := p.parseExpr()
			p.expect(token.RBracket, "Expected ']' after array index.")
			expr = ast.NewIndex(tok, expr, index)
		case p.match(token.Dot):
			field := p.expectIdent("Expected member name after '.'.")
			expr = ast.NewMember(field, expr, field.Value)
		case p.match(token.Arrow):
			field := p.expectIdent("Expected member name after '->'.")
			expr = ast.NewMember(field, ast.NewDereference(tok, expr), field.Value)
		case p.match(token.Inc), p.match(token.Dec):
			if !isLValue(expr) {
				p.errorf(tok, "Postfix '%s' requires an l-value.", tok.Type)
			}
			effect := ast.PostIncrement
			if tok.Type == token.Dec {
				effect = ast.PostDecrement
			}
			expr = ast.NewSideEffect(tok, effect, nil, expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parseQuantifier(tok token.Token, kind ast.Kind) *ast.Expr {
	closing := token.RParen
	if p.match(token.LBrace) {
		closing = token.RBrace
	} else {
		p.expect(token.LParen, "Expected '(' or '{' after quantifier.")
	}
	base := p.parseTypeSpecifier()
	typ, nameTok := p.parseDeclarator(base)
	p.expect(token.Semi, "Expected ';' after bound variable.")
	body := p.parseExpr()
	p.match(token.Semi)
	p.expect(closing, "Expected '"+closing.String()+"' to close quantifier.")
	return ast.NewQuantifier(tok, kind, ast.NewSymbol(nameTok, nameTok.Value, typ), body)
}

func (p *Parser) parsePrimaryExpr() *ast.Expr {
	tok := p.current
	switch {
	case p.match(token.Number):
		val, err := strconv.ParseUint(p.previous.Value, 10, 64)
		if err != nil {
			p.errorf(tok, "Invalid number literal '%s'.", p.previous.Value)
		}
		return ast.NewConstant(tok, int64(val), nil)
	case p.match(token.String):
		value := p.previous.Value
		for p.match(token.String) {
			value += p.previous.Value
		}
		return ast.NewStringConstant(tok, value)
	case p.match(token.True):
		return ast.NewTrue(tok)
	case p.match(token.False):
		return ast.NewFalse(tok)
	case p.match(token.Ident):
		return ast.NewSymbol(tok, tok.Value, nil)
	case p.match(token.Forall):
		return p.parseQuantifier(tok, ast.Forall)
	case p.match(token.Exists):
		return p.parseQuantifier(tok, ast.Exists)
	case p.check(token.LParen) && p.peek().Type == token.LBrace:
		p.advance()
		p.extension(config.FeatStmtExpr, tok, "statement expression")
		body := p.parseBlockStmt()
		p.expect(token.RParen, "Expected ')' after statement expression.")
		return ast.NewStatementExpression(tok, body, nil)
	case p.match(token.LParen):
		expr := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression.")
		return expr
	}
	p.errorf(tok, "Expected an expression, found '%s'.", tok.Type)
	return nil
}
