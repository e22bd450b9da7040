package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/xplshn/gclean/pkg/config"
	"github.com/xplshn/gclean/pkg/token"
	"github.com/xplshn/gclean/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	cfg       *config.Config
	err       error
}

func NewLexer(source []rune, fileIndex int, cfg *config.Config) *Lexer {
	return &Lexer{
		source: source, fileIndex: fileIndex, line: 1, column: 1, cfg: cfg,
	}
}

// Tokenize lexes the whole source. The returned slice always ends with EOF.
func Tokenize(source []rune, fileIndex int, cfg *config.Config) ([]token.Token, error) {
	l := NewLexer(source, fileIndex, cfg)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks, l.err
}

// Err returns the first lexical error, if any.
func (l *Lexer) Err() error { return l.err }

func (l *Lexer) fail(tok token.Token, format string, args ...interface{}) token.Token {
	if l.err == nil {
		l.err = util.Errorf(tok, format, args...)
	}
	l.pos = len(l.source)
	return l.makeToken(token.EOF, "", l.pos, l.column, l.line)
}

func (l *Lexer) Next() token.Token {
	if l.err != nil {
		return l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	}
	if !l.skipWhitespaceAndComments() {
		return l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	}
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine)
	}

	ch := l.peek()
	if unicode.IsLetter(ch) || ch == '_' {
		l.advance()
		return l.identifierOrKeyword(startPos, startCol, startLine)
	}
	if unicode.IsDigit(ch) {
		return l.numberLiteral(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '(':
		return l.makeToken(token.LParen, "", startPos, startCol, startLine)
	case ')':
		return l.makeToken(token.RParen, "", startPos, startCol, startLine)
	case '{':
		return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
	case '}':
		return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
	case '[':
		return l.makeToken(token.LBracket, "", startPos, startCol, startLine)
	case ']':
		return l.makeToken(token.RBracket, "", startPos, startCol, startLine)
	case ';':
		return l.makeToken(token.Semi, "", startPos, startCol, startLine)
	case ',':
		return l.makeToken(token.Comma, "", startPos, startCol, startLine)
	case '?':
		return l.makeToken(token.Question, "", startPos, startCol, startLine)
	case ':':
		return l.makeToken(token.Colon, "", startPos, startCol, startLine)
	case '~':
		return l.makeToken(token.Complement, "", startPos, startCol, startLine)
	case '!':
		return l.matchThen('=', token.Neq, token.Not, startPos, startCol, startLine)
	case '^':
		return l.matchThen('=', token.XorEq, token.Xor, startPos, startCol, startLine)
	case '%':
		return l.matchThen('=', token.RemEq, token.Rem, startPos, startCol, startLine)
	case '*':
		return l.matchThen('=', token.StarEq, token.Star, startPos, startCol, startLine)
	case '/':
		return l.matchThen('=', token.SlashEq, token.Slash, startPos, startCol, startLine)
	case '+':
		if l.match('+') {
			return l.makeToken(token.Inc, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.PlusEq, token.Plus, startPos, startCol, startLine)
	case '-':
		switch {
		case l.match('-'):
			return l.makeToken(token.Dec, "", startPos, startCol, startLine)
		case l.match('>'):
			return l.makeToken(token.Arrow, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.MinusEq, token.Minus, startPos, startCol, startLine)
	case '&':
		if l.match('&') {
			return l.makeToken(token.AndAnd, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.AndEq, token.And, startPos, startCol, startLine)
	case '|':
		if l.match('|') {
			return l.makeToken(token.OrOr, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.OrEq, token.Or, startPos, startCol, startLine)
	case '<':
		if l.match('<') {
			return l.matchThen('=', token.ShlEq, token.Shl, startPos, startCol, startLine)
		}
		return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine)
	case '>':
		if l.match('>') {
			return l.matchThen('=', token.ShrEq, token.Shr, startPos, startCol, startLine)
		}
		return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
	case '=':
		if l.match('=') {
			if l.cfg.IsFeatureEnabled(config.FeatImplies) && l.match('>') {
				return l.makeToken(token.Implies, "", startPos, startCol, startLine)
			}
			return l.makeToken(token.EqEq, "", startPos, startCol, startLine)
		}
		return l.makeToken(token.Eq, "", startPos, startCol, startLine)
	case '.':
		if l.peek() == '.' && l.peekNext() == '.' {
			l.advance()
			l.advance()
			return l.makeToken(token.Dots, "", startPos, startCol, startLine)
		}
		return l.makeToken(token.Dot, "", startPos, startCol, startLine)
	case '"':
		return l.stringLiteral(startPos, startCol, startLine)
	case '\'':
		return l.charLiteral(startPos, startCol, startLine)
	}

	return l.fail(l.makeToken(token.EOF, "", startPos, startCol, startLine), "Unexpected character: '%c'", ch)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

// skipWhitespaceAndComments returns false if it hit an unterminated comment.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.advance()
		case '#':
			// preprocessor leftovers such as line markers
			if l.column == 1 {
				l.lineComment()
				continue
			}
			return true
		case '/':
			switch {
			case l.peekNext() == '*':
				if !l.blockComment() {
					return false
				}
			case l.peekNext() == '/' && l.cfg.IsFeatureEnabled(config.FeatCComments):
				l.lineComment()
			default:
				return true
			}
		default:
			return true
		}
	}
}

func (l *Lexer) blockComment() bool {
	startTok := l.makeToken(token.Comment, "", l.pos, l.column, l.line)
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return true
		}
		l.advance()
	}
	l.fail(startTok, "Unterminated block comment")
	return false
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	tok := l.makeToken(token.Ident, value, startPos, startCol, startLine)

	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		isQuantifier := tokType == token.Forall || tokType == token.Exists
		if !isQuantifier || l.cfg.IsFeatureEnabled(config.FeatQuantifiers) {
			tok.Type = tokType
			tok.Value = ""
		}
	}
	return tok
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	if l.peek() == '0' && (l.peekNext() == 'x' || l.peekNext() == 'X') {
		l.advance()
		l.advance()
		for unicode.IsDigit(l.peek()) || (l.peek() >= 'a' && l.peek() <= 'f') || (l.peek() >= 'A' && l.peek() <= 'F') {
			l.advance()
		}
	} else {
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	digitsEnd := l.pos
	for strings.ContainsRune("uUlL", l.peek()) && l.peek() != 0 {
		l.advance()
	}

	valueStr := string(l.source[startPos:digitsEnd])
	tok := l.makeToken(token.Number, "", startPos, startCol, startLine)
	if len(valueStr) > 1 && valueStr[0] == '0' && valueStr[1] != 'x' && valueStr[1] != 'X' {
		valueStr = "0o" + valueStr[1:]
	}
	val, err := strconv.ParseUint(valueStr, 0, 64)
	if err != nil {
		return l.fail(tok, "Invalid number literal: %s", string(l.source[startPos:l.pos]))
	}
	tok.Value = strconv.FormatUint(val, 10)
	return tok
}

func (l *Lexer) stringLiteral(startPos, startCol, startLine int) token.Token {
	var sb strings.Builder
	for !l.isAtEnd() {
		c := l.peek()
		if c == '\n' {
			break
		}
		if c == '"' {
			l.advance()
			return l.makeToken(token.String, sb.String(), startPos, startCol, startLine)
		}
		l.advance()
		if c == '\\' {
			val, ok := l.decodeEscape()
			if !ok {
				return l.makeToken(token.EOF, "", l.pos, l.column, l.line)
			}
			sb.WriteByte(byte(val))
			continue
		}
		sb.WriteRune(c)
	}
	return l.fail(l.makeToken(token.String, "", startPos, startCol, startLine), "Unterminated string literal")
}

func (l *Lexer) charLiteral(startPos, startCol, startLine int) token.Token {
	var word int64
	for l.peek() != '\'' && !l.isAtEnd() {
		c := l.advance()
		val := int64(c)
		if c == '\\' {
			v, ok := l.decodeEscape()
			if !ok {
				return l.makeToken(token.EOF, "", l.pos, l.column, l.line)
			}
			val = v
		}
		word = (word << 8) | (val & 0xFF)
	}

	tok := l.makeToken(token.Number, "", startPos, startCol, startLine)
	if !l.match('\'') {
		return l.fail(tok, "Unterminated character literal")
	}
	tok.Len = l.pos - startPos
	tok.Value = strconv.FormatInt(word, 10)
	return tok
}

func (l *Lexer) decodeEscape() (int64, bool) {
	if l.isAtEnd() {
		l.fail(l.makeToken(token.EOF, "", l.pos, l.column, l.line), "Unterminated escape sequence")
		return 0, false
	}
	c := l.advance()

	if c == 'x' {
		var val int64
		digits := 0
		for {
			d := l.peek()
			switch {
			case d >= '0' && d <= '9':
				val = val*16 + int64(d-'0')
			case d >= 'a' && d <= 'f':
				val = val*16 + int64(d-'a'+10)
			case d >= 'A' && d <= 'F':
				val = val*16 + int64(d-'A'+10)
			default:
				if digits == 0 {
					l.fail(l.makeToken(token.String, "", l.pos, l.column, l.line), "\\x used with no following hex digits")
					return 0, false
				}
				return val & 0xFF, true
			}
			l.advance()
			digits++
		}
	}

	if c >= '0' && c <= '7' {
		val := int64(c - '0')
		for i := 0; i < 2 && l.peek() >= '0' && l.peek() <= '7'; i++ {
			val = val*8 + int64(l.advance()-'0')
		}
		return val & 0xFF, true
	}

	escapes := map[rune]int64{
		'n': '\n', 't': '\t', 'b': '\b', 'r': '\r', 'a': '\a', 'f': '\f', 'v': '\v',
		'\\': '\\', '\'': '\'', '"': '"', '?': '?',
	}
	if val, ok := escapes[c]; ok {
		return val, true
	}
	return int64(c), true
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, sPos, sCol, sLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, "", sPos, sCol, sLine)
	}
	return l.makeToken(elseType, "", sPos, sCol, sLine)
}
