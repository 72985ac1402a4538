package simplepp

import "github.com/zcc-tools/pthc/pth"

// punctuators is matched longest-first so a multi-character operator is
// never split into two single-character ones.
var punctuators = []string{
	"<<=", ">>=", "...",
	"==", "!=", "<=", ">=", "->", "+=", "-=", "*=", "/=", "++", "--",
	"%=", "&=", "|=", "^=", "&&", "||", "<<", ">>", "##",
	"<", ">", "=", "-", "!", "&", "|", "%", "(", ")", "[", "]", "{", "}",
	";", ":", "#", ",", ".", "+", "*", "/", "?", "~", "^", "@",
}

type lexer struct {
	sm               *sourceManager
	src              []byte
	pos              int
	atLineStart      bool
	parsingDirective bool
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// skipTrivia consumes whitespace and comments, tracking start-of-line.
// Returns false once the end of the source is reached.
func (l *lexer) skipTrivia() bool {
	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch {
		case c == '\n':
			l.pos++
			l.atLineStart = true

		case isSpace(c):
			l.pos++

		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			l.pos += 2
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}

		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.pos++
			}

			l.pos += 2

		default:
			return true
		}
	}

	return false
}

func (l *lexer) LexRaw() (pth.RawToken, error) {
	if !l.skipTrivia() {
		return pth.RawToken{Kind: pth.TokEOF, Flags: l.flags()}, nil
	}

	startOfLine := l.atLineStart
	l.atLineStart = false

	start := l.pos
	c := l.src[l.pos]

	var kind pth.TokenKind
	var spelling []byte
	var identName string

	switch {
	case c == '#':
		l.pos++
		kind = pth.TokHash
		spelling = l.src[start:l.pos]

	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}

		kind = pth.TokIdentifier
		spelling = l.src[start:l.pos]
		identName = string(spelling)

	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		l.scanNumber()
		kind = pth.TokNumeric
		spelling = l.src[start:l.pos]

	case c == '"':
		l.scanQuoted('"')
		kind = pth.TokStringLiteral
		spelling = l.src[start:l.pos]

	case c == '\'':
		l.scanQuoted('\'')
		kind = pth.TokCharLiteral
		spelling = l.src[start:l.pos]

	default:
		if n := matchPunct(l.src[l.pos:]); n > 0 {
			l.pos += n
			kind = pth.TokPunctuator
			spelling = l.src[start:l.pos]
		} else {
			l.pos++
			kind = pth.TokOther
			spelling = l.src[start:l.pos]
		}
	}

	loc := l.sm.record(uint32(start), spelling, identName)

	tok := pth.RawToken{Kind: kind, Length: uint16(l.pos - start), Loc: loc}
	if startOfLine {
		tok.Flags |= pth.FlagStartOfLine
	}

	return tok, nil
}

func (l *lexer) flags() uint8 {
	if l.atLineStart {
		return pth.FlagStartOfLine
	}

	return 0
}

func (l *lexer) scanNumber() {
	l.pos++

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		if l.pos+1 < len(l.src) && (c == 'e' || c == 'E' || c == 'p' || c == 'P') &&
			(l.src[l.pos+1] == '+' || l.src[l.pos+1] == '-') {
			l.pos += 2
			continue
		}

		if isIdentCont(c) || c == '.' {
			l.pos++
			continue
		}

		break
	}
}

func (l *lexer) scanQuoted(quote byte) {
	l.pos++

	for l.pos < len(l.src) && l.src[l.pos] != quote {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}

		l.pos++
	}

	if l.pos < len(l.src) {
		l.pos++
	}
}

func matchPunct(src []byte) int {
	for _, p := range punctuators {
		if len(src) < len(p) {
			continue
		}

		if string(src[:len(p)]) == p {
			return len(p)
		}
	}

	return 0
}

func (l *lexer) SetParsingPreprocessorDirective(enabled bool) {
	l.parsingDirective = enabled
}

// LexIncludeFilename lexes the token following #include, which uses a
// syntax ("foo.h" or <foo.h>) ordinary punctuator/identifier scanning
// would mis-tokenize.
func (l *lexer) LexIncludeFilename() (pth.RawToken, error) {
	if !l.skipTrivia() {
		return pth.RawToken{Kind: pth.TokEOF, Flags: l.flags()}, nil
	}

	start := l.pos

	if l.src[l.pos] == '<' {
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] != '>' && l.src[l.pos] != '\n' {
			l.pos++
		}

		if l.pos < len(l.src) && l.src[l.pos] == '>' {
			l.pos++
		}
	} else {
		return l.LexRaw()
	}

	spelling := l.src[start:l.pos]
	loc := l.sm.record(uint32(start), spelling, "")

	return pth.RawToken{Kind: pth.TokStringLiteral, Length: uint16(l.pos - start), Loc: loc}, nil
}
