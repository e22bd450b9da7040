package ir

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/gclean/pkg/ast"
)

// labels numbers the goto targets of p in program order, starting at 1.
func (p *Program) labels() map[*Instruction]int {
	targets := make(map[*Instruction]bool)
	for _, ins := range p.Instructions {
		if ins.Kind == Goto && ins.Target != nil {
			targets[ins.Target] = true
		}
	}
	labels := make(map[*Instruction]int, len(targets))
	for _, ins := range p.Instructions {
		if targets[ins] {
			labels[ins] = len(labels) + 1
		}
	}
	return labels
}

func formatInstruction(ins *Instruction, labels map[*Instruction]int) string {
	switch ins.Kind {
	case Skip, EndFunction:
		return ins.Kind.String()
	case Assign:
		return fmt.Sprintf("ASSIGN %s := %s", ins.Lhs, ins.Rhs)
	case Decl:
		return fmt.Sprintf("DECL %s : %s", ins.Lhs, ins.Lhs.Type)
	case Dead:
		return fmt.Sprintf("DEAD %s", ins.Lhs)
	case Goto:
		target := "?"
		if n, ok := labels[ins.Target]; ok {
			target = fmt.Sprint(n)
		}
		if ins.Guard == nil || (ins.Guard.Kind == ast.Constant && ins.Guard.Type.IsBool() && ins.Guard.Value != 0) {
			return "GOTO " + target
		}
		return fmt.Sprintf("IF %s THEN GOTO %s", ins.Guard, target)
	case FunctionCall:
		args := make([]string, len(ins.Args))
		for i, a := range ins.Args {
			args[i] = a.String()
		}
		call := fmt.Sprintf("%s(%s)", ins.Function, strings.Join(args, ", "))
		if ins.Lhs != nil {
			return fmt.Sprintf("CALL %s := %s", ins.Lhs, call)
		}
		return "CALL " + call
	case Other:
		return "OTHER " + ins.Rhs.String()
	case Return:
		if ins.Rhs == nil {
			return "RETURN"
		}
		return "RETURN " + ins.Rhs.String()
	}
	return ins.Kind.String()
}

// Print writes p one instruction per line, prefixing goto targets with
// their label.
func (p *Program) Print(w io.Writer) {
	labels := p.labels()
	for _, ins := range p.Instructions {
		label := ""
		if n, ok := labels[ins]; ok {
			label = fmt.Sprintf("%d:", n)
		}
		fmt.Fprintf(w, "%6s %s\n", label, formatInstruction(ins, labels))
	}
}

func (p *Program) String() string {
	var sb strings.Builder
	p.Print(&sb)
	return sb.String()
}

// Lines returns the printed instructions without labels, which is handy for
// comparing shapes in tests.
func (p *Program) Lines() []string {
	labels := p.labels()
	out := make([]string, len(p.Instructions))
	for i, ins := range p.Instructions {
		out[i] = formatInstruction(ins, labels)
	}
	return out
}

// Fingerprint hashes the printed form of p.
func (p *Program) Fingerprint() uint64 {
	return xxhash.Sum64String(p.String())
}

func (u *Unit) Print(w io.Writer) {
	if !u.Init.IsEmpty() {
		fmt.Fprintln(w, "__CPROVER_initialize /* static initializers */")
		u.Init.Print(w)
		fmt.Fprintln(w)
	}
	for i, f := range u.Functions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s /* %s */\n", f.Name, f.Type)
		f.Body.Print(w)
	}
}

func (u *Unit) String() string {
	var sb strings.Builder
	u.Print(&sb)
	return sb.String()
}

// Fingerprint combines the hashes of the initializer program and every
// function body in order.
func (u *Unit) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u.Init.Fingerprint())
	d.Write(buf[:])
	for _, f := range u.Functions {
		d.WriteString(f.Name)
		binary.LittleEndian.PutUint64(buf[:], f.Body.Fingerprint())
		d.Write(buf[:])
	}
	return d.Sum64()
}
