package ast

import (
	"fmt"
	"strconv"
	"strings"
)

func isAtomic(e *Expr) bool {
	switch e.Kind {
	case Nil, Constant, StringConstant, Symbol, Index, Member, Initializer, Sizeof:
		return true
	case SideEffect:
		return e.Statement == FunctionCall || e.Statement == StatementExpression
	}
	return false
}

func operandString(e *Expr) string {
	if isAtomic(e) {
		return e.String()
	}
	return "(" + e.String() + ")"
}

func joinExprs(ops []*Expr, sep string) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = operandString(op)
	}
	return strings.Join(parts, sep)
}

// String renders e as C-like source. The output is stable and is what the
// IR printer and golden files use.
func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case Nil:
		return "nil"
	case Constant:
		switch {
		case e.Type.IsBool():
			if e.Value != 0 {
				return "TRUE"
			}
			return "FALSE"
		case e.Type.IsPointer() && e.Value == 0:
			return "NULL"
		}
		return strconv.FormatInt(e.Value, 10)
	case StringConstant:
		return strconv.Quote(e.Str)
	case Symbol:
		return e.Name
	case Typecast:
		return "(" + e.Type.String() + ")" + operandString(e.Operands[0])
	case AddressOf:
		return "&" + operandString(e.Operands[0])
	case Dereference:
		return "*" + operandString(e.Operands[0])
	case Index:
		return operandString(e.Operands[0]) + "[" + e.Operands[1].String() + "]"
	case Member:
		return operandString(e.Operands[0]) + "." + e.Name
	case Unary:
		return e.Op.String() + operandString(e.Operands[0])
	case Not:
		return "!" + operandString(e.Operands[0])
	case Binary:
		return operandString(e.Operands[0]) + " " + e.Op.String() + " " + operandString(e.Operands[1])
	case And:
		return joinExprs(e.Operands, " && ")
	case Or:
		return joinExprs(e.Operands, " || ")
	case Implies:
		return joinExprs(e.Operands, " ==> ")
	case If:
		return fmt.Sprintf("%s ? %s : %s", operandString(e.Operands[0]), operandString(e.Operands[1]), operandString(e.Operands[2]))
	case Comma:
		return joinExprs(e.Operands, ", ")
	case SideEffect:
		return e.sideEffectString()
	case CompoundLiteral:
		return "(" + e.Type.String() + ")" + e.Operands[0].String()
	case Initializer:
		parts := make([]string, len(e.Operands))
		for i, op := range e.Operands {
			parts[i] = op.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case Forall, Exists:
		bound := e.Operands[0]
		return fmt.Sprintf("%s(%s %s; %s)", e.Kind, bound.Type, bound.Name, e.Operands[1])
	case Sizeof:
		if len(e.Operands) > 0 {
			return "sizeof(" + e.Operands[0].String() + ")"
		}
		return "sizeof(" + e.Of.String() + ")"
	}
	return "<" + e.Kind.String() + ">"
}

func (e *Expr) sideEffectString() string {
	ops := e.Operands
	switch e.Statement {
	case Assign:
		return operandString(ops[0]) + " = " + operandString(ops[1])
	case AssignOp:
		return operandString(ops[0]) + " " + e.Op.String() + "= " + operandString(ops[1])
	case PreIncrement:
		return "++" + operandString(ops[0])
	case PreDecrement:
		return "--" + operandString(ops[0])
	case PostIncrement:
		return operandString(ops[0]) + "++"
	case PostDecrement:
		return operandString(ops[0]) + "--"
	case FunctionCall:
		args := make([]string, len(ops)-1)
		for i, a := range ops[1:] {
			args[i] = a.String()
		}
		return operandString(ops[0]) + "(" + strings.Join(args, ", ") + ")"
	case StatementExpression:
		var sb strings.Builder
		sb.WriteString("({ ")
		for _, s := range e.Body.Stmts {
			sb.WriteString(s.String())
			sb.WriteString(" ")
		}
		sb.WriteString("})")
		return sb.String()
	case GCCConditional:
		return operandString(ops[0]) + " ?: " + operandString(ops[1])
	}
	return "<side_effect " + e.Statement.String() + ">"
}

// String renders s on a single line.
func (s *Stmt) String() string {
	if s == nil {
		return ";"
	}
	switch s.Kind {
	case SkipStmt:
		return ";"
	case ExprStmt:
		return s.Expr.String() + ";"
	case DeclStmt:
		d := s.Decl
		out := d.Type.String() + " " + d.Name
		if d.IsStatic {
			out = "static " + out
		}
		if d.Init != nil {
			out += " = " + d.Init.String()
		}
		return out + ";"
	case IfStmt:
		out := "if(" + s.Expr.String() + ") " + s.Then.String()
		if s.Else != nil {
			out += " else " + s.Else.String()
		}
		return out
	case WhileStmt:
		return "while(" + s.Expr.String() + ") " + s.Then.String()
	case ReturnStmt:
		if s.Expr == nil {
			return "return;"
		}
		return "return " + s.Expr.String() + ";"
	case BlockStmt:
		parts := make([]string, len(s.Stmts))
		for i, st := range s.Stmts {
			parts[i] = st.String()
		}
		return "{ " + strings.Join(parts, " ") + " }"
	}
	return "<stmt>"
}
