package ast

import (
	"fmt"
	"strings"
)

// TypeKind defines the kind of a Type
type TypeKind int

// Type kinds enum
const (
	TYPE_VOID TypeKind = iota
	TYPE_BOOL
	TYPE_INT
	TYPE_POINTER
	TYPE_ARRAY
	TYPE_STRUCT
	TYPE_CODE
)

// Field is a single struct member
type Field struct {
	Name string
	Type *Type
}

// Type is a C type. Types are shared between nodes and never mutated once
// the type checker has finished with them.
type Type struct {
	Kind     TypeKind
	Width    int   // bits, for TYPE_INT
	Signed   bool  // for TYPE_INT
	Base     *Type // element type for pointers and arrays
	Size     int64 // element count for arrays, -1 when incomplete
	Tag      string
	Fields   []Field
	Params   []*Type
	Return   *Type
	Variadic bool
}

// Pre-defined types
var (
	TypeVoid  = &Type{Kind: TYPE_VOID}
	TypeBool  = &Type{Kind: TYPE_BOOL, Width: 8}
	TypeChar  = &Type{Kind: TYPE_INT, Width: 8, Signed: true}
	TypeUchar = &Type{Kind: TYPE_INT, Width: 8}
	TypeInt   = &Type{Kind: TYPE_INT, Width: 32, Signed: true}
	TypeUint  = &Type{Kind: TYPE_INT, Width: 32}
	TypeLong  = &Type{Kind: TYPE_INT, Width: 64, Signed: true}
	TypeUlong = &Type{Kind: TYPE_INT, Width: 64}
)

func NewIntType(width int, signed bool) *Type {
	return &Type{Kind: TYPE_INT, Width: width, Signed: signed}
}

func PointerTo(base *Type) *Type { return &Type{Kind: TYPE_POINTER, Base: base} }

func ArrayOf(base *Type, size int64) *Type {
	return &Type{Kind: TYPE_ARRAY, Base: base, Size: size}
}

func NewStructType(tag string, fields []Field) *Type {
	return &Type{Kind: TYPE_STRUCT, Tag: tag, Fields: fields}
}

func NewCodeType(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: TYPE_CODE, Return: ret, Params: params, Variadic: variadic}
}

func (t *Type) IsVoid() bool    { return t == nil || t.Kind == TYPE_VOID }
func (t *Type) IsBool() bool    { return t != nil && t.Kind == TYPE_BOOL }
func (t *Type) IsInteger() bool { return t != nil && (t.Kind == TYPE_INT || t.Kind == TYPE_BOOL) }
func (t *Type) IsPointer() bool { return t != nil && t.Kind == TYPE_POINTER }
func (t *Type) IsArray() bool   { return t != nil && t.Kind == TYPE_ARRAY }
func (t *Type) IsStruct() bool  { return t != nil && t.Kind == TYPE_STRUCT }
func (t *Type) IsCode() bool    { return t != nil && t.Kind == TYPE_CODE }

// IsScalar reports whether values of t can be tested for truth.
func (t *Type) IsScalar() bool { return t.IsInteger() || t.IsPointer() }

// FieldType returns the type of the named member, or nil.
func (t *Type) FieldType(name string) *Type {
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}

// TypesEqual compares types structurally; structs compare by tag.
func TypesEqual(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TYPE_VOID, TYPE_BOOL:
		return true
	case TYPE_INT:
		return a.Width == b.Width && a.Signed == b.Signed
	case TYPE_POINTER:
		return TypesEqual(a.Base, b.Base)
	case TYPE_ARRAY:
		return a.Size == b.Size && TypesEqual(a.Base, b.Base)
	case TYPE_STRUCT:
		return a.Tag == b.Tag
	case TYPE_CODE:
		if !TypesEqual(a.Return, b.Return) || len(a.Params) != len(b.Params) || a.Variadic != b.Variadic {
			return false
		}
		for i := range a.Params {
			if !TypesEqual(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return "<untyped>"
	}
	switch t.Kind {
	case TYPE_VOID:
		return "void"
	case TYPE_BOOL:
		return "_Bool"
	case TYPE_INT:
		name := ""
		switch t.Width {
		case 8:
			name = "char"
		case 16:
			name = "short"
		case 32:
			name = "int"
		default:
			name = "long"
		}
		if !t.Signed {
			return "unsigned " + name
		}
		return name
	case TYPE_POINTER:
		return t.Base.String() + " *"
	case TYPE_ARRAY:
		if t.Size < 0 {
			return t.Base.String() + "[]"
		}
		return fmt.Sprintf("%s[%d]", t.Base, t.Size)
	case TYPE_STRUCT:
		return "struct " + t.Tag
	case TYPE_CODE:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		if t.Variadic {
			params = append(params, "...")
		}
		return fmt.Sprintf("%s (%s)", t.Return, strings.Join(params, ", "))
	}
	return "<unknown type>"
}
