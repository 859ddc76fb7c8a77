// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A SyntaxError is an error produced by parsing a malformed expression.
type SyntaxError struct {
	Query string // The original query string
	Off   int    // Byte offset of the error in Query
	Msg   string // Error message
}

func (e *SyntaxError) Error() string {
	// Translate the byte offset into a column for the caret.
	pos := 0
	for i, r := range e.Query {
		if i >= e.Off {
			break
		}
		if unicode.IsGraphic(r) {
			pos++
		}
	}
	return fmt.Sprintf("syntax error: %s\n\t%s\n\t%*s^", e.Msg, e.Query, pos, "")
}

// errorTracker records the first error found while tokenizing. It is
// shared by every tokenizer derived from the same query.
type errorTracker struct {
	query string
	err   *SyntaxError
}

func (t *errorTracker) error(rest string, msg string) {
	if t.err == nil {
		t.err = &SyntaxError{t.query, len(t.query) - len(rest), msg}
	}
}

// Token kinds other than single operator characters.
const (
	tokEOF    byte = 0
	tokWord   byte = 'w' // bare word
	tokQuoted byte = 'q' // quoted word, unescaped
	tokRegexp byte = 'r' // /regexp/
	tokAnd    byte = 'A' // AND
	tokOr     byte = 'O' // OR
)

// A tok is a single token of the filter and step syntax.
type tok struct {
	Kind   byte   // one of the tok* constants or an operator character
	Off    int    // byte offset of the token in the query
	Tok    string // literal token text
	Regexp *regexp.Regexp
}

func (t tok) isWord() bool {
	return t.Kind == tokWord || t.Kind == tokQuoted
}

// A tokenizer is an immutable position in a query. Consuming a token
// returns the token and a new tokenizer for the remainder, which makes
// backtracking free.
type tokenizer struct {
	q    string
	errt *errorTracker
}

func newTokenizer(q string) tokenizer {
	return tokenizer{q, &errorTracker{q, nil}}
}

func isOp(ch rune) bool {
	return ch == '(' || ch == ')' || ch == ':' || ch == '@' || ch == ','
}

// "-" and "*" are operators only at the start of a word, so names like
// "flush-after" tokenize as one word.
func isStartOp(ch rune) bool {
	return isOp(ch) || ch == '-' || ch == '*'
}

func spaceLen(q string) int {
	if q[0] == ' ' {
		return 1
	}
	r, size := utf8.DecodeRuneInString(q)
	if unicode.IsSpace(r) {
		return size
	}
	return 0
}

// keyOrOp returns the next attribute name or operator token.
func (t tokenizer) keyOrOp() (tok, tokenizer) {
	return t.next(false)
}

// valueOrOp returns the next value or operator token. Unlike names,
// values may be regexps.
func (t tokenizer) valueOrOp() (tok, tokenizer) {
	return t.next(true)
}

// end records an error if t has not consumed the whole query.
func (t tokenizer) end() tokenizer {
	if tk, _ := t.keyOrOp(); tk.Kind != tokEOF {
		_, t2 := t.error("unexpected " + strconv.Quote(tk.Tok))
		return t2
	}
	return t
}

func (t tokenizer) next(allowRegexp bool) (tok, tokenizer) {
	for len(t.q) > 0 {
		switch {
		case isStartOp(rune(t.q[0])):
			return t.tok(t.q[0], t.q[:1], t.q[1:])
		case spaceLen(t.q) > 0:
			t.q = t.q[spaceLen(t.q):]
		case allowRegexp && t.q[0] == '/':
			return t.regexp()
		case t.q[0] == '"':
			return t.quotedWord()
		default:
			return t.bareWord()
		}
	}
	// The EOF token carries a position, which saves the parser
	// bounds checks.
	return t.tok(tokEOF, "", "")
}

func (t tokenizer) tok(kind byte, text string, rest string) (tok, tokenizer) {
	off := len(t.errt.query) - len(t.q)
	return tok{kind, off, text, nil}, tokenizer{rest, t.errt}
}

func (t tokenizer) error(msg string) (tok, tokenizer) {
	t.errt.error(t.q, msg)
	return t.tok(tokEOF, "", "")
}

func (t tokenizer) quotedWord() (tok, tokenizer) {
	pos := 1
	for pos < len(t.q) && (t.q[pos] != '"' || t.q[pos-1] == '\\') {
		pos++
	}
	if pos == len(t.q) {
		return t.error("missing end quote")
	}
	word, err := strconv.Unquote(t.q[:pos+1])
	if err != nil {
		return t.error("bad escape sequence")
	}
	return t.tok(tokQuoted, word, t.q[pos+1:])
}

func (t tokenizer) bareWord() (tok, tokenizer) {
	end := len(t.q)
	for i, r := range t.q {
		if unicode.IsSpace(r) || isOp(r) {
			end = i
			break
		}
	}
	word := t.q[:end]
	switch word {
	case "AND":
		return t.tok(tokAnd, word, t.q[end:])
	case "OR":
		return t.tok(tokOr, word, t.q[end:])
	}
	return t.tok(tokWord, word, t.q[end:])
}

// quoteWord returns a string that tokenizes as the word s.
func quoteWord(s string) string {
	if len(s) == 0 {
		return `""`
	}
	if s == "AND" || s == "OR" {
		return strconv.Quote(s)
	}
	for i, r := range s {
		switch r {
		case '"', '\a', '\b':
			return strconv.Quote(s)
		}
		if isOp(r) || unicode.IsSpace(r) || (i == 0 && (r == '-' || r == '*' || r == '/')) {
			return strconv.Quote(s)
		}
	}
	return s
}

func (t tokenizer) regexp() (tok, tokenizer) {
	expr, rest, err := regexpParseUntil(t.q[1:], "/")
	if err == errNoDelim {
		return t.error("missing close \"/\"")
	} else if err != nil {
		return t.error(err.Error())
	}

	r, err := regexp.Compile(expr)
	if err != nil {
		return t.error(err.Error())
	}

	// A "/" inside the regexp is ambiguous with the closing
	// delimiter, so the close must be followed by a separator.
	q2 := rest[1:]
	if !(q2 == "" || unicode.IsSpace(rune(q2[0])) || isStartOp(rune(q2[0]))) {
		t.q = q2
		return t.error("regexp must be followed by space or an operator (unescaped \"/\"?)")
	}

	tk, next := t.tok(tokRegexp, expr, q2)
	tk.Regexp = r
	return tk, next
}

var errNoDelim = errors.New("unterminated regexp")

// regexpParseUntil splits str at the first top-level occurrence of
// delim, skipping delimiters inside character classes and groups.
// If successful, rest begins with delim.
func regexpParseUntil(str, delim string) (expr, rest string, err error) {
	classes, groups := 0, 0
	for i := 0; i < len(str); i++ {
		if classes == 0 && groups == 0 && strings.HasPrefix(str[i:], delim) {
			return str[:i], str[i:], nil
		}
		switch str[i] {
		case '[':
			classes++
		case ']':
			// An unmatched ']' is a literal.
			if classes > 0 {
				classes--
			}
		case '(':
			if classes == 0 {
				groups++
			}
		case ')':
			if classes == 0 {
				groups--
			}
		case '\\':
			i++
		}
	}
	return str, "", errNoDelim
}
