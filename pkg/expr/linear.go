package expr

import (
	"sort"
	"strconv"
	"strings"
)

// Var names an integer or boolean variable.
type Var string

func (v Var) String() string {
	return string(v)
}

// Term is a single monomial Coeff*Var.
type Term struct {
	Var   Var
	Coeff int64
}

// Linear is a linear integer expression sum(Terms) + Const. Terms are
// kept sorted by variable name with no zero coefficients, so two equal
// expressions always have the same representation.
type Linear struct {
	Terms []Term
	Const int64
}

// V returns the expression consisting of the single variable v.
func V(v Var) Linear {
	return Linear{Terms: []Term{{Var: v, Coeff: 1}}}
}

// K returns the constant expression k.
func K(k int64) Linear {
	return Linear{Const: k}
}

// NewLinear builds a normalized expression from an arbitrary list of
// terms, merging duplicates.
func NewLinear(terms []Term, k int64) Linear {
	merged := make(map[Var]int64, len(terms))
	for _, t := range terms {
		merged[t.Var] += t.Coeff
	}
	out := make([]Term, 0, len(merged))
	for v, c := range merged {
		if c != 0 {
			out = append(out, Term{Var: v, Coeff: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return Linear{Terms: out, Const: k}
}

func (l Linear) IsConst() bool {
	return len(l.Terms) == 0
}

// Coeff returns the coefficient of v, zero if v does not occur.
func (l Linear) Coeff(v Var) int64 {
	i := sort.Search(len(l.Terms), func(i int) bool { return l.Terms[i].Var >= v })
	if i < len(l.Terms) && l.Terms[i].Var == v {
		return l.Terms[i].Coeff
	}
	return 0
}

func (l Linear) Vars() []Var {
	vs := make([]Var, len(l.Terms))
	for i, t := range l.Terms {
		vs[i] = t.Var
	}
	return vs
}

func (l Linear) Add(o Linear) Linear {
	out := make([]Term, 0, len(l.Terms)+len(o.Terms))
	i, j := 0, 0
	for i < len(l.Terms) || j < len(o.Terms) {
		switch {
		case j >= len(o.Terms) || (i < len(l.Terms) && l.Terms[i].Var < o.Terms[j].Var):
			out = append(out, l.Terms[i])
			i++
		case i >= len(l.Terms) || o.Terms[j].Var < l.Terms[i].Var:
			out = append(out, o.Terms[j])
			j++
		default:
			if c := l.Terms[i].Coeff + o.Terms[j].Coeff; c != 0 {
				out = append(out, Term{Var: l.Terms[i].Var, Coeff: c})
			}
			i++
			j++
		}
	}
	return Linear{Terms: out, Const: l.Const + o.Const}
}

func (l Linear) Sub(o Linear) Linear {
	return l.Add(o.Scale(-1))
}

func (l Linear) Scale(k int64) Linear {
	if k == 0 {
		return Linear{}
	}
	out := make([]Term, len(l.Terms))
	for i, t := range l.Terms {
		out[i] = Term{Var: t.Var, Coeff: t.Coeff * k}
	}
	return Linear{Terms: out, Const: l.Const * k}
}

func (l Linear) AddConst(k int64) Linear {
	return Linear{Terms: l.Terms, Const: l.Const + k}
}

// Without returns l with the term over v removed.
func (l Linear) Without(v Var) Linear {
	out := make([]Term, 0, len(l.Terms))
	for _, t := range l.Terms {
		if t.Var != v {
			out = append(out, t)
		}
	}
	return Linear{Terms: out, Const: l.Const}
}

// Subst replaces v by e.
func (l Linear) Subst(v Var, e Linear) Linear {
	c := l.Coeff(v)
	if c == 0 {
		return l
	}
	return l.Without(v).Add(e.Scale(c))
}

// Rename applies f to every variable.
func (l Linear) Rename(f func(Var) Var) Linear {
	terms := make([]Term, len(l.Terms))
	for i, t := range l.Terms {
		terms[i] = Term{Var: f(t.Var), Coeff: t.Coeff}
	}
	return NewLinear(terms, l.Const)
}

func (l Linear) Eval(m Model) int64 {
	s := l.Const
	for _, t := range l.Terms {
		s += t.Coeff * m.Int(t.Var)
	}
	return s
}

func (l Linear) Equal(o Linear) bool {
	if l.Const != o.Const || len(l.Terms) != len(o.Terms) {
		return false
	}
	for i := range l.Terms {
		if l.Terms[i] != o.Terms[i] {
			return false
		}
	}
	return true
}

// SameTerms reports whether l and o differ only in their constant.
func (l Linear) SameTerms(o Linear) bool {
	return Linear{Terms: l.Terms}.Equal(Linear{Terms: o.Terms})
}

// content is the gcd of the absolute coefficients, zero for constants.
func (l Linear) content() int64 {
	var g int64
	for _, t := range l.Terms {
		g = gcd(g, abs(t.Coeff))
	}
	return g
}

func (l Linear) String() string {
	parts := make([]string, 0, len(l.Terms)+1)
	for _, t := range l.Terms {
		switch t.Coeff {
		case 1:
			parts = append(parts, string(t.Var))
		case -1:
			parts = append(parts, "(- "+string(t.Var)+")")
		default:
			parts = append(parts, "(* "+strconv.FormatInt(t.Coeff, 10)+" "+string(t.Var)+")")
		}
	}
	if l.Const != 0 || len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(l.Const, 10))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(+ " + strings.Join(parts, " ") + ")"
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

// floorDiv and ceilDiv round towards negative and positive infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}
