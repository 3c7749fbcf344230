package jareth

// This file implements a small scanner for query templates.  It only
// separates the parts of a template in which placeholders are meaningful from
// the parts in which they are not:
//
//     Text:              anything else, copied through
//     StringLiteral:     quoted (') string, '' escapes
//     QuotedIdentifier:  quoted (") or (`) identifier, doubled escapes
//     DollarQuoted:      PostgreSQL $tag$ ... $tag$ string
//     Comment:           '--' comment line
//     BlockComment:      /* */ block comment (nests!)
//     Placeholder:       ${name}, $(name), $<name>, $[name] or $/name/
//
// A placeholder body is a name of [A-Za-z0-9_$.] optionally followed by a
// modifier: one of ^ ~ or a :word suffix.  Bodies which do not have that form
// are left in the text.
//
// Like most SQL lexers this one ranges over bytes instead of runes: all of the
// characters it cares about are ASCII, and valid UTF-8 never encodes ASCII
// bytes inside a multi-byte sequence.

import "strings"

type item struct {
	typ itemType
	pos int    // starting position, in bytes, of this item
	val string // raw text of this item

	// placeholders only
	name     string
	modifier string
}

type itemType int

const (
	itemText itemType = iota
	itemStringLiteral
	itemQuotedIdentifier
	itemDollarQuoted
	itemComment
	itemBlockComment
	itemPlaceholder
)

type stateFn func(*lexer) stateFn

type lexer struct {
	input string
	pos   int // current position in the input, in bytes
	start int // start position of the current item, in bytes
	items []item

	// pending placeholder fields, set by lexPlaceholder
	name     string
	modifier string
}

const eof = -1

var closers = map[byte]byte{'{': '}', '(': ')', '<': '>', '[': ']', '/': '/'}

// lexTemplate splits a query template into items.  Concatenating the val of
// every item reproduces the input.
func lexTemplate(input string) []item {
	l := &lexer{input: input}
	for state := lexAny; state != nil; {
		state = state(l)
	}
	return l.items
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.pos++
		return eof
	}
	r := rune(l.input[l.pos])
	l.pos++
	return r
}

func (l *lexer) backup() {
	l.pos--
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	return rune(l.input[l.pos])
}

func (l *lexer) emit(t itemType) {
	if l.pos > len(l.input) {
		l.pos = len(l.input)
	}
	if l.pos == l.start {
		return
	}
	it := item{typ: t, pos: l.start, val: l.input[l.start:l.pos]}
	if t == itemPlaceholder {
		it.name, it.modifier = l.name, l.modifier
	}
	// merge adjacent text so callers see maximal runs.
	if t == itemText && len(l.items) > 0 && l.items[len(l.items)-1].typ == itemText {
		l.items[len(l.items)-1].val += it.val
	} else {
		l.items = append(l.items, it)
	}
	l.start = l.pos
}

func lexAny(l *lexer) stateFn {
	for {
		c := l.next()
		switch c {
		case eof:
			l.emit(itemText)
			return nil
		case '\'', '"', '`':
			l.backup()
			l.emit(itemText)
			l.next()
			return lexQuoted
		case '-':
			if l.peek() == '-' {
				l.backup()
				l.emit(itemText)
				l.pos += 2
				return lexComment
			}
		case '/':
			if l.peek() == '*' {
				l.backup()
				l.emit(itemText)
				l.pos += 2
				return lexBlockComment
			}
		case '$':
			if _, ok := closers[byte(l.peek())]; ok && l.peek() != eof {
				l.backup()
				l.emit(itemText)
				return lexPlaceholder
			}
			if tag, ok := l.dollarTag(); ok {
				l.backup()
				l.emit(itemText)
				return lexDollarQuoted(tag)
			}
		}
	}
}

// lexQuoted scans a string literal or quoted identifier; the opening quote
// has been consumed.  A doubled quote is an escaped quote.
func lexQuoted(l *lexer) stateFn {
	q := l.input[l.start]
	for {
		i := strings.IndexByte(l.input[l.pos:], q)
		if i < 0 {
			l.pos = len(l.input)
			break
		}
		l.pos += i + 1
		if l.peek() != rune(q) {
			break
		}
		l.next()
	}
	if q == '\'' {
		l.emit(itemStringLiteral)
	} else {
		l.emit(itemQuotedIdentifier)
	}
	return lexAny
}

// lexComment scans the current comment until the next newline.
func lexComment(l *lexer) stateFn {
	if i := strings.IndexByte(l.input[l.pos:], '\n'); i >= 0 {
		l.pos += i + 1 // consume the newline too
	} else {
		l.pos = len(l.input)
	}
	l.emit(itemComment)
	return lexAny
}

func lexBlockComment(l *lexer) stateFn {
	depth := 1
	for depth > 0 {
		switch l.next() {
		case eof:
			l.emit(itemBlockComment)
			return nil
		case '*':
			if l.peek() == '/' {
				l.next()
				depth--
			}
		case '/':
			if l.peek() == '*' {
				l.next()
				depth++
			}
		}
	}
	l.emit(itemBlockComment)
	return lexAny
}

// dollarTag reports whether the input just after a consumed '$' starts a
// PostgreSQL dollar quote ($$ or $tag$), returning the full opening tag.
func (l *lexer) dollarTag() (string, bool) {
	rest := l.input[l.pos:]
	end := strings.IndexByte(rest, '$')
	if end < 0 {
		return "", false
	}
	tag := rest[:end]
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
		if !isLetter && !(i > 0 && c >= '0' && c <= '9') {
			return "", false
		}
	}
	return "$" + tag + "$", true
}

func lexDollarQuoted(tag string) stateFn {
	return func(l *lexer) stateFn {
		l.pos += len(tag)
		if i := strings.Index(l.input[l.pos:], tag); i >= 0 {
			l.pos += i + len(tag)
		} else {
			l.pos = len(l.input)
		}
		l.emit(itemDollarQuoted)
		return lexAny
	}
}

var modifiers = map[string]string{
	"^": "raw", "~": "name",
	":raw": "raw", ":name": "name", ":alias": "name",
	":json": "json", ":csv": "csv", ":list": "csv",
}

// lexPlaceholder scans $<open>body<close>.  l.pos is at the '$'.
func lexPlaceholder(l *lexer) stateFn {
	open := l.input[l.pos+1]
	body := l.input[l.pos+2:]
	end := strings.IndexByte(body, closers[open])
	if end < 0 {
		l.pos += 2
		return lexAny
	}
	name, modifier, ok := splitPlaceholder(body[:end])
	if !ok {
		// not a placeholder: keep the "$<open>" as text and carry on after it.
		l.pos += 2
		return lexAny
	}
	l.pos += 2 + end + 1
	l.name, l.modifier = name, modifier
	l.emit(itemPlaceholder)
	return lexAny
}

// splitPlaceholder parses "name", "name^", "name~" or "name:word", allowing
// surrounding spaces.
func splitPlaceholder(body string) (name, modifier string, ok bool) {
	body = strings.TrimSpace(body)
	i := 0
	for i < len(body) && isNameByte(body[i]) {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	name, rest := body[:i], strings.TrimSpace(body[i:])
	if rest == "" {
		return name, "", true
	}
	if rest == "^" || rest == "~" {
		return name, rest, true
	}
	if rest[0] != ':' || len(rest) == 1 {
		return "", "", false
	}
	for j := 1; j < len(rest); j++ {
		if c := rest[j]; !(c >= 'a' && c <= 'z') {
			return "", "", false
		}
	}
	return name, rest, true
}

func isNameByte(c byte) bool {
	return c == '_' || c == '$' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
