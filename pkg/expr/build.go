package expr

import "sort"

// MkAtom normalizes lin op 0: coefficients are divided by their gcd,
// equalities and disequalities get a positive leading coefficient, and
// ground atoms fold to constants.
func MkAtom(op Op, lin Linear) Formula {
	if lin.IsConst() {
		switch op {
		case OpLe:
			return Bool(lin.Const <= 0)
		case OpEq:
			return Bool(lin.Const == 0)
		default:
			return Bool(lin.Const != 0)
		}
	}
	g := lin.content()
	switch op {
	case OpLe:
		if g > 1 {
			terms := make([]Term, len(lin.Terms))
			for i, t := range lin.Terms {
				terms[i] = Term{Var: t.Var, Coeff: t.Coeff / g}
			}
			lin = Linear{Terms: terms, Const: ceilDiv(lin.Const, g)}
		}
	case OpEq, OpNe:
		if lin.Const%g != 0 {
			return Bool(op == OpNe)
		}
		if g > 1 {
			terms := make([]Term, len(lin.Terms))
			for i, t := range lin.Terms {
				terms[i] = Term{Var: t.Var, Coeff: t.Coeff / g}
			}
			lin = Linear{Terms: terms, Const: lin.Const / g}
		}
		if lin.Terms[0].Coeff < 0 {
			lin = lin.Scale(-1)
		}
	}
	return Atom{Op: op, Lin: lin}
}

func Le(a, b Linear) Formula { return MkAtom(OpLe, a.Sub(b)) }
func Lt(a, b Linear) Formula { return MkAtom(OpLe, a.Sub(b).AddConst(1)) }
func Ge(a, b Linear) Formula { return Le(b, a) }
func Gt(a, b Linear) Formula { return Lt(b, a) }
func Eq(a, b Linear) Formula { return MkAtom(OpEq, a.Sub(b)) }
func Ne(a, b Linear) Formula { return MkAtom(OpNe, a.Sub(b)) }

// MkNot negates f, pushing the negation down to literals.
func MkNot(f Formula) Formula {
	switch t := f.(type) {
	case Bool:
		return !t
	case Prop:
		return Not{F: t}
	case Not:
		return t.F
	case Atom:
		switch t.Op {
		case OpLe:
			return MkAtom(OpLe, t.Lin.Scale(-1).AddConst(1))
		case OpEq:
			return MkAtom(OpNe, t.Lin)
		default:
			return MkAtom(OpEq, t.Lin)
		}
	case And:
		out := make([]Formula, len(t))
		for i, g := range t {
			out[i] = MkNot(g)
		}
		return MkOr(out...)
	case Or:
		out := make([]Formula, len(t))
		for i, g := range t {
			out[i] = MkNot(g)
		}
		return MkAnd(out...)
	}
	panic("expr: unknown formula")
}

// MkAnd flattens, drops true and duplicate conjuncts, and folds to false
// when a conjunct is false or a literal occurs with its complement.
func MkAnd(fs ...Formula) Formula {
	var out []Formula
	seen := make(map[string]struct{}, len(fs))
	for _, f := range fs {
		for _, g := range Conjuncts(f) {
			if b, ok := g.(Bool); ok && b == False {
				return False
			}
			k := g.String()
			if _, ok := seen[k]; ok {
				continue
			}
			if IsLiteral(g) {
				if _, ok := seen[MkNot(g).String()]; ok {
					return False
				}
			}
			seen[k] = struct{}{}
			out = append(out, g)
		}
	}
	switch len(out) {
	case 0:
		return True
	case 1:
		return out[0]
	}
	return And(out)
}

// MkOr is the dual of MkAnd.
func MkOr(fs ...Formula) Formula {
	var out []Formula
	seen := make(map[string]struct{}, len(fs))
	for _, f := range fs {
		for _, g := range Disjuncts(f) {
			if b, ok := g.(Bool); ok && b == True {
				return True
			}
			k := g.String()
			if _, ok := seen[k]; ok {
				continue
			}
			if IsLiteral(g) {
				if _, ok := seen[MkNot(g).String()]; ok {
					return True
				}
			}
			seen[k] = struct{}{}
			out = append(out, g)
		}
	}
	switch len(out) {
	case 0:
		return False
	case 1:
		return out[0]
	}
	return Or(out)
}

func MkImplies(a, b Formula) Formula {
	return MkOr(MkNot(a), b)
}

// Cube returns the conjunction of lits, sorted into canonical order.
func Cube(lits []Formula) Formula {
	return MkAnd(SortLits(lits)...)
}

// Clause returns the negation of the cube lits.
func Clause(lits []Formula) Formula {
	return MkNot(MkAnd(lits...))
}

// SortLits returns a copy of lits in canonical order.
func SortLits(lits []Formula) []Formula {
	out := make([]Formula, len(lits))
	copy(out, lits)
	sort.SliceStable(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
