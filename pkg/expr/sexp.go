package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// Sexp is a parsed s-expression: either an atom or a list.
type Sexp struct {
	Atom string
	List []Sexp
	// IsList distinguishes the empty list from the empty atom.
	IsList bool
}

func (s Sexp) String() string {
	if !s.IsList {
		return s.Atom
	}
	parts := make([]string, len(s.List))
	for i, c := range s.List {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Head returns the leading atom of a list, or "" if there is none.
func (s Sexp) Head() string {
	if !s.IsList || len(s.List) == 0 || s.List[0].IsList {
		return ""
	}
	return s.List[0].Atom
}

// ParseError reports malformed input together with its byte offset.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d in %q: %s", e.Offset, e.Input, e.Msg)
}

// ReadSexp parses exactly one s-expression from src.
func ReadSexp(src string) (Sexp, error) {
	r := sexpReader{src: src}
	s, err := r.read()
	if err != nil {
		return Sexp{}, err
	}
	r.skipSpace()
	if r.pos != len(r.src) {
		return Sexp{}, r.errorf("trailing input")
	}
	return s, nil
}

type sexpReader struct {
	src string
	pos int
}

func (r *sexpReader) errorf(format string, args ...interface{}) error {
	return &ParseError{Input: r.src, Offset: r.pos, Msg: fmt.Sprintf(format, args...)}
}

func (r *sexpReader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case unicode.IsSpace(rune(c)):
			r.pos++
		default:
			return
		}
	}
}

func (r *sexpReader) read() (Sexp, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return Sexp{}, r.errorf("unexpected end of input")
	}
	switch r.src[r.pos] {
	case ')':
		return Sexp{}, r.errorf("unexpected ')'")
	case '(':
		r.pos++
		list := Sexp{IsList: true}
		for {
			r.skipSpace()
			if r.pos >= len(r.src) {
				return Sexp{}, r.errorf("unterminated list")
			}
			if r.src[r.pos] == ')' {
				r.pos++
				return list, nil
			}
			c, err := r.read()
			if err != nil {
				return Sexp{}, err
			}
			list.List = append(list.List, c)
		}
	}
	start := r.pos
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '(' || c == ')' || c == ';' || unicode.IsSpace(rune(c)) {
			break
		}
		r.pos++
	}
	return Sexp{Atom: r.src[start:r.pos]}, nil
}
