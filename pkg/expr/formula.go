package expr

import (
	"strconv"
	"strings"
)

// Formula is a quantifier-free formula over linear integer atoms and
// boolean variables. Formulas built with the Mk* constructors are in
// negation normal form: Not only ever wraps a Prop.
type Formula interface {
	String() string
	isFormula()
}

// Op is the comparison of an Atom against zero.
type Op uint8

const (
	OpLe Op = iota // Lin <= 0
	OpEq           // Lin == 0
	OpNe           // Lin != 0
)

func (o Op) String() string {
	switch o {
	case OpLe:
		return "<="
	case OpEq:
		return "="
	case OpNe:
		return "distinct"
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

type (
	Bool bool
	Prop Var
	Atom struct {
		Op  Op
		Lin Linear
	}
	Not struct{ F Formula }
	And []Formula
	Or  []Formula
)

const (
	True  = Bool(true)
	False = Bool(false)
)

func (Bool) isFormula() {}
func (Prop) isFormula() {}
func (Atom) isFormula() {}
func (Not) isFormula()  {}
func (And) isFormula()  {}
func (Or) isFormula()   {}

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (p Prop) String() string {
	return string(p)
}

// String prints the atom with its constant moved to the right-hand side.
func (a Atom) String() string {
	lhs := Linear{Terms: a.Lin.Terms}
	return "(" + a.Op.String() + " " + lhs.String() + " " + strconv.FormatInt(-a.Lin.Const, 10) + ")"
}

func (n Not) String() string {
	return "(not " + n.F.String() + ")"
}

func (a And) String() string {
	return nary("and", a)
}

func (o Or) String() string {
	return nary("or", o)
}

func nary(op string, fs []Formula) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(op)
	for _, f := range fs {
		b.WriteString(" ")
		b.WriteString(f.String())
	}
	b.WriteString(")")
	return b.String()
}

// Equal compares formulas structurally.
func Equal(a, b Formula) bool {
	return a.String() == b.String()
}

// IsLiteral reports whether f is an atom, a boolean variable or its
// negation, or a constant.
func IsLiteral(f Formula) bool {
	switch t := f.(type) {
	case Bool, Prop, Atom:
		return true
	case Not:
		_, ok := t.F.(Prop)
		return ok
	}
	return false
}

// Conjuncts flattens nested conjunctions. The constant true yields no
// conjuncts.
func Conjuncts(f Formula) []Formula {
	var out []Formula
	var walk func(Formula)
	walk = func(f Formula) {
		switch t := f.(type) {
		case And:
			for _, g := range t {
				walk(g)
			}
		case Bool:
			if !t {
				out = append(out, t)
			}
		default:
			out = append(out, f)
		}
	}
	walk(f)
	return out
}

// Disjuncts is the dual of Conjuncts.
func Disjuncts(f Formula) []Formula {
	var out []Formula
	var walk func(Formula)
	walk = func(f Formula) {
		switch t := f.(type) {
		case Or:
			for _, g := range t {
				walk(g)
			}
		case Bool:
			if t {
				out = append(out, t)
			}
		default:
			out = append(out, f)
		}
	}
	walk(f)
	return out
}
