package oracle

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/hornwork/spacer/pkg/expr"
)

type inconsistentEncoding []error

func (inconsistentEncoding) Error() string {
	return "internal oracle failure"
}

// word is a two's complement bit vector, least significant bit first.
type word []z.Lit

// encoder translates formulas into a combinational circuit. Integer
// variables become words of e.width bits; every atom is evaluated at a
// width large enough that its value never overflows.
type encoder struct {
	c         *logic.C
	width     int
	ints      map[expr.Var]word
	bools     map[expr.Var]z.Lit
	atoms     map[string]z.Lit
	selectors map[string]z.Lit
	iorder    []expr.Var
	border    []expr.Var
	marks     []int8
	errs      inconsistentEncoding
}

func newEncoder(width int) *encoder {
	return &encoder{
		c:         logic.NewCCap(1024),
		width:     width,
		ints:      make(map[expr.Var]word),
		bools:     make(map[expr.Var]z.Lit),
		atoms:     make(map[string]z.Lit),
		selectors: make(map[string]z.Lit),
	}
}

// Error aggregates every error encountered during encoding.
func (e *encoder) Error() error {
	if len(e.errs) == 0 {
		return nil
	}
	s := make([]string, len(e.errs))
	for i, err := range e.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

func (e *encoder) intVar(v expr.Var) word {
	if w, ok := e.ints[v]; ok {
		return w
	}
	w := make(word, e.width)
	for i := range w {
		w[i] = e.c.Lit()
	}
	e.ints[v] = w
	e.iorder = append(e.iorder, v)
	return w
}

func (e *encoder) boolVar(v expr.Var) z.Lit {
	if m, ok := e.bools[v]; ok {
		return m
	}
	m := e.c.Lit()
	e.bools[v] = m
	e.border = append(e.border, v)
	return m
}

// Formula returns a literal equivalent to f.
func (e *encoder) Formula(f expr.Formula) z.Lit {
	switch t := f.(type) {
	case expr.Bool:
		if t {
			return e.c.T
		}
		return e.c.F
	case expr.Prop:
		return e.boolVar(expr.Var(t))
	case expr.Not:
		return e.Formula(t.F).Not()
	case expr.And:
		ms := make([]z.Lit, len(t))
		for i, g := range t {
			ms[i] = e.Formula(g)
		}
		return e.c.Ands(ms...)
	case expr.Or:
		ms := make([]z.Lit, len(t))
		for i, g := range t {
			ms[i] = e.Formula(g)
		}
		return e.c.Ors(ms...)
	case expr.Atom:
		key := t.String()
		if m, ok := e.atoms[key]; ok {
			return m
		}
		m := e.atom(t)
		e.atoms[key] = m
		return m
	}
	e.errs = append(e.errs, fmt.Errorf("cannot encode formula %v", f))
	return e.c.F
}

func (e *encoder) atom(a expr.Atom) z.Lit {
	w := e.atomWidth(a.Lin)
	sum := e.constant(a.Lin.Const, w)
	for _, t := range a.Lin.Terms {
		x := e.extend(e.intVar(t.Var), w)
		sum = e.add(sum, e.mulConst(x, t.Coeff), e.c.F)
	}
	zero := e.c.Ors(sum...).Not()
	switch a.Op {
	case expr.OpLe:
		return e.c.Or(sum[w-1], zero)
	case expr.OpEq:
		return zero
	default:
		return zero.Not()
	}
}

// atomWidth bounds |lin| over the variable domain.
func (e *encoder) atomWidth(lin expr.Linear) int {
	var mag uint64
	for _, t := range lin.Terms {
		mag += uabs(t.Coeff) << uint(e.width-1)
	}
	mag += uabs(lin.Const)
	n := bits.Len64(mag) + 2
	if n < e.width+1 {
		n = e.width + 1
	}
	return n
}

func uabs(k int64) uint64 {
	if k < 0 {
		return uint64(-k)
	}
	return uint64(k)
}

func (e *encoder) constant(k int64, w int) word {
	out := make(word, w)
	for i := range out {
		bit := i
		if bit > 63 {
			bit = 63
		}
		if (k>>uint(bit))&1 == 1 {
			out[i] = e.c.T
		} else {
			out[i] = e.c.F
		}
	}
	return out
}

func (e *encoder) extend(x word, w int) word {
	out := make(word, w)
	copy(out, x)
	for i := len(x); i < w; i++ {
		out[i] = x[len(x)-1]
	}
	return out
}

// add is a ripple-carry adder modulo 2^len(a).
func (e *encoder) add(a, b word, carry z.Lit) word {
	out := make(word, len(a))
	for i := range a {
		axb := e.c.Xor(a[i], b[i])
		out[i] = e.c.Xor(axb, carry)
		carry = e.c.Or(e.c.And(a[i], b[i]), e.c.And(carry, axb))
	}
	return out
}

func (e *encoder) negate(a word) word {
	inv := make(word, len(a))
	for i, m := range a {
		inv[i] = m.Not()
	}
	return e.add(inv, e.constant(0, len(a)), e.c.T)
}

// mulConst multiplies by k with shift-and-add.
func (e *encoder) mulConst(x word, k int64) word {
	switch k {
	case 1:
		return x
	case -1:
		return e.negate(x)
	}
	u := uabs(k)
	acc := e.constant(0, len(x))
	for shift := 0; u != 0; shift, u = shift+1, u>>1 {
		if u&1 == 0 {
			continue
		}
		shifted := make(word, len(x))
		for i := range shifted {
			if i < shift {
				shifted[i] = e.c.F
			} else {
				shifted[i] = x[i-shift]
			}
		}
		acc = e.add(acc, shifted, e.c.F)
	}
	if k < 0 {
		return e.negate(acc)
	}
	return acc
}

// Selector returns the literal guarding f. The clause s -> f is written
// to g the first time f is seen; later calls reuse it.
func (e *encoder) Selector(g inter.S, f expr.Formula) z.Lit {
	key := f.String()
	if s, ok := e.selectors[key]; ok {
		return s
	}
	s := e.c.Lit()
	m := e.Formula(f)
	e.Emit(g, m)
	g.Add(s.Not())
	g.Add(m)
	g.Add(0)
	e.selectors[key] = s
	return s
}

// Model reads back the values of every encoded variable.
func (e *encoder) Model(g inter.Model) expr.Model {
	m := expr.NewModel()
	for _, v := range e.iorder {
		w := e.ints[v]
		var k int64
		for i := len(w) - 1; i >= 0; i-- {
			k <<= 1
			if g.Value(w[i]) {
				k |= 1
			}
		}
		// sign extend from e.width bits
		shift := uint(64 - len(w))
		m.SetInt(v, (k<<shift)>>shift)
	}
	for _, v := range e.border {
		m.SetBool(v, g.Value(e.bools[v]))
	}
	return m
}

// Emit writes to g the part of the circuit below roots that has not
// been written yet.
func (e *encoder) Emit(g inter.S, roots ...z.Lit) {
	e.marks, _ = e.c.CnfSince(g, e.marks, roots...)
	// make sure the solver knows every circuit variable, including
	// inputs that were folded away by constant propagation
	top := z.Var(e.c.Len() - 1)
	for g.MaxVar() < top {
		g.Lit()
	}
}
