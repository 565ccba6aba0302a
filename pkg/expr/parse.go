package expr

import (
	"fmt"
	"strconv"
)

// ParseFormula parses an s-expression formula such as
// "(and (<= x 10) (not b))". Symbols in formula position are boolean
// variables, symbols in term position are integer variables.
func ParseFormula(src string) (Formula, error) {
	s, err := ReadSexp(src)
	if err != nil {
		return nil, err
	}
	return FormulaOf(s)
}

// MustParseFormula is like ParseFormula but panics on error.
func MustParseFormula(src string) Formula {
	f, err := ParseFormula(src)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseTerm parses a linear integer term.
func ParseTerm(src string) (Linear, error) {
	s, err := ReadSexp(src)
	if err != nil {
		return Linear{}, err
	}
	return TermOf(s)
}

func syntaxError(s Sexp, format string, args ...interface{}) error {
	return &ParseError{Input: s.String(), Msg: fmt.Sprintf(format, args...)}
}

// FormulaOf converts a parsed s-expression into a Formula.
func FormulaOf(s Sexp) (Formula, error) {
	if !s.IsList {
		switch s.Atom {
		case "true":
			return True, nil
		case "false":
			return False, nil
		}
		if _, err := strconv.ParseInt(s.Atom, 10, 64); err == nil || s.Atom == "" {
			return nil, syntaxError(s, "expected a formula")
		}
		return Prop(s.Atom), nil
	}
	head := s.Head()
	args := s.List[1:]
	switch head {
	case "and", "or":
		fs, err := formulasOf(args)
		if err != nil {
			return nil, err
		}
		if head == "and" {
			return MkAnd(fs...), nil
		}
		return MkOr(fs...), nil
	case "not":
		if len(args) != 1 {
			return nil, syntaxError(s, "not takes one argument")
		}
		f, err := FormulaOf(args[0])
		if err != nil {
			return nil, err
		}
		return MkNot(f), nil
	case "=>":
		if len(args) != 2 {
			return nil, syntaxError(s, "=> takes two arguments")
		}
		fs, err := formulasOf(args)
		if err != nil {
			return nil, err
		}
		return MkImplies(fs[0], fs[1]), nil
	case "<=", "<", ">=", ">", "=", "distinct", "!=":
		if len(args) < 2 {
			return nil, syntaxError(s, "%s takes at least two arguments", head)
		}
		ts := make([]Linear, len(args))
		for i, a := range args {
			t, err := TermOf(a)
			if err != nil {
				return nil, err
			}
			ts[i] = t
		}
		var out []Formula
		for i := 0; i+1 < len(ts); i++ {
			a, b := ts[i], ts[i+1]
			switch head {
			case "<=":
				out = append(out, Le(a, b))
			case "<":
				out = append(out, Lt(a, b))
			case ">=":
				out = append(out, Ge(a, b))
			case ">":
				out = append(out, Gt(a, b))
			case "=":
				out = append(out, Eq(a, b))
			default:
				out = append(out, Ne(a, b))
			}
		}
		return MkAnd(out...), nil
	}
	return nil, syntaxError(s, "unknown formula operator %q", head)
}

func formulasOf(ss []Sexp) ([]Formula, error) {
	fs := make([]Formula, len(ss))
	for i, a := range ss {
		f, err := FormulaOf(a)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

// TermOf converts a parsed s-expression into a linear term.
func TermOf(s Sexp) (Linear, error) {
	if !s.IsList {
		if s.Atom == "" {
			return Linear{}, syntaxError(s, "expected a term")
		}
		if k, err := strconv.ParseInt(s.Atom, 10, 64); err == nil {
			return K(k), nil
		}
		switch s.Atom {
		case "true", "false":
			return Linear{}, syntaxError(s, "expected a term")
		}
		return V(Var(s.Atom)), nil
	}
	head := s.Head()
	args := make([]Linear, 0, len(s.List))
	for _, a := range s.List[1:] {
		t, err := TermOf(a)
		if err != nil {
			return Linear{}, err
		}
		args = append(args, t)
	}
	switch head {
	case "+":
		sum := K(0)
		for _, t := range args {
			sum = sum.Add(t)
		}
		return sum, nil
	case "-":
		switch len(args) {
		case 0:
			return Linear{}, syntaxError(s, "- takes at least one argument")
		case 1:
			return args[0].Scale(-1), nil
		}
		d := args[0]
		for _, t := range args[1:] {
			d = d.Sub(t)
		}
		return d, nil
	case "*":
		prod := K(1)
		for _, t := range args {
			switch {
			case t.IsConst():
				prod = prod.Scale(t.Const)
			case prod.IsConst():
				prod = t.Scale(prod.Const)
			default:
				return Linear{}, syntaxError(s, "non-linear multiplication")
			}
		}
		return prod, nil
	}
	return Linear{}, syntaxError(s, "unknown term operator %q", head)
}
