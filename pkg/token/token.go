package token

type Type int

const (
	EOF Type = iota
	Comment
	Ident
	Number
	String

	// Keywords
	If
	Else
	While
	Return
	Static
	Extern
	Struct
	Sizeof
	Void
	Bool
	Char
	Int
	Long
	Unsigned
	True
	False
	Forall
	Exists

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Colon
	Question
	Dot
	Arrow
	Dots

	// Assignment operators
	Eq
	PlusEq
	MinusEq
	StarEq
	SlashEq
	RemEq
	AndEq
	OrEq
	XorEq
	ShlEq
	ShrEq

	// Binary operators
	Plus
	Minus
	Star
	Slash
	Rem
	And
	Or
	Xor
	Shl
	Shr
	EqEq
	Neq
	Lt
	Gt
	Gte
	Lte
	AndAnd
	OrOr
	Implies

	// Unary operators
	Not
	Complement
	Inc
	Dec
)

var KeywordMap = map[string]Type{
	"if":               If,
	"else":             Else,
	"while":            While,
	"return":           Return,
	"static":           Static,
	"extern":           Extern,
	"struct":           Struct,
	"sizeof":           Sizeof,
	"void":             Void,
	"_Bool":            Bool,
	"bool":             Bool,
	"char":             Char,
	"int":              Int,
	"long":             Long,
	"unsigned":         Unsigned,
	"true":             True,
	"false":            False,
	"__CPROVER_forall": Forall,
	"__CPROVER_exists": Exists,
	"forall":           Forall,
	"exists":           Exists,
}

var punctStrings = map[Type]string{
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semi: ";", Comma: ",", Colon: ":", Question: "?", Dot: ".", Arrow: "->", Dots: "...",
	Eq: "=", PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=", RemEq: "%=",
	AndEq: "&=", OrEq: "|=", XorEq: "^=", ShlEq: "<<=", ShrEq: ">>=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Rem: "%", And: "&", Or: "|", Xor: "^",
	Shl: "<<", Shr: ">>", EqEq: "==", Neq: "!=", Lt: "<", Gt: ">", Gte: ">=", Lte: "<=",
	AndAnd: "&&", OrOr: "||", Implies: "==>", Not: "!", Complement: "~", Inc: "++", Dec: "--",
}

// TypeStrings maps a token type back to its spelling
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		if _, ok := TypeStrings[typ]; !ok || len(str) < len(TypeStrings[typ]) {
			TypeStrings[typ] = str
		}
	}
	for typ, str := range punctStrings {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	switch t {
	case EOF:
		return "end of file"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string literal"
	}
	return "token"
}

// IsAssignment reports whether t is '=' or a compound assignment operator.
func (t Type) IsAssignment() bool { return t >= Eq && t <= ShrEq }

// BinaryOf returns the binary operator a compound assignment applies.
func (t Type) BinaryOf() Type {
	switch t {
	case PlusEq:
		return Plus
	case MinusEq:
		return Minus
	case StarEq:
		return Star
	case SlashEq:
		return Slash
	case RemEq:
		return Rem
	case AndEq:
		return And
	case OrEq:
		return Or
	case XorEq:
		return Xor
	case ShlEq:
		return Shl
	case ShrEq:
		return Shr
	}
	return EOF
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
