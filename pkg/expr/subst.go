package expr

import "sort"

// Subst maps integer variables to expressions and boolean variables to
// formulas.
type Subst struct {
	Ints  map[Var]Linear
	Bools map[Var]Formula
}

// Substitute applies s to f and renormalizes the result.
func Substitute(f Formula, s Subst) Formula {
	switch t := f.(type) {
	case Bool:
		return t
	case Prop:
		if g, ok := s.Bools[Var(t)]; ok {
			return g
		}
		return t
	case Atom:
		lin := K(t.Lin.Const)
		changed := false
		for _, term := range t.Lin.Terms {
			if e, ok := s.Ints[term.Var]; ok {
				lin = lin.Add(e.Scale(term.Coeff))
				changed = true
				continue
			}
			lin = lin.Add(Linear{Terms: []Term{term}})
		}
		if !changed {
			return t
		}
		return MkAtom(t.Op, lin)
	case Not:
		return MkNot(Substitute(t.F, s))
	case And:
		out := make([]Formula, len(t))
		for i, g := range t {
			out[i] = Substitute(g, s)
		}
		return MkAnd(out...)
	case Or:
		out := make([]Formula, len(t))
		for i, g := range t {
			out[i] = Substitute(g, s)
		}
		return MkOr(out...)
	}
	panic("expr: unknown formula")
}

// SubstModel replaces every variable in vars by its value in m.
func SubstModel(f Formula, vars []Var, m Model) Formula {
	s := Subst{Ints: make(map[Var]Linear, len(vars)), Bools: make(map[Var]Formula, len(vars))}
	for _, v := range vars {
		s.Ints[v] = K(m.Int(v))
		s.Bools[v] = Bool(m.Bool(v))
	}
	return Substitute(f, s)
}

// Rename applies r to every variable of f.
func Rename(f Formula, r func(Var) Var) Formula {
	switch t := f.(type) {
	case Bool:
		return t
	case Prop:
		return Prop(r(Var(t)))
	case Atom:
		return MkAtom(t.Op, t.Lin.Rename(r))
	case Not:
		return MkNot(Rename(t.F, r))
	case And:
		out := make([]Formula, len(t))
		for i, g := range t {
			out[i] = Rename(g, r)
		}
		return MkAnd(out...)
	case Or:
		out := make([]Formula, len(t))
		for i, g := range t {
			out[i] = Rename(g, r)
		}
		return MkOr(out...)
	}
	panic("expr: unknown formula")
}

// RenameMap renames the variables found in m and leaves the rest alone.
func RenameMap(f Formula, m map[Var]Var) Formula {
	return Rename(f, func(v Var) Var {
		if w, ok := m[v]; ok {
			return w
		}
		return v
	})
}

// Vars returns the sorted integer and boolean variables of f.
func Vars(f Formula) (ints, bools []Var) {
	is := make(map[Var]struct{})
	bs := make(map[Var]struct{})
	collectVars(f, is, bs)
	return sortedVars(is), sortedVars(bs)
}

// AllVars returns the integer and boolean variables of fs in one sorted
// list.
func AllVars(fs ...Formula) []Var {
	all := make(map[Var]struct{})
	for _, f := range fs {
		collectVars(f, all, all)
	}
	return sortedVars(all)
}

func collectVars(f Formula, is, bs map[Var]struct{}) {
	switch t := f.(type) {
	case Prop:
		bs[Var(t)] = struct{}{}
	case Atom:
		for _, term := range t.Lin.Terms {
			is[term.Var] = struct{}{}
		}
	case Not:
		collectVars(t.F, is, bs)
	case And:
		for _, g := range t {
			collectVars(g, is, bs)
		}
	case Or:
		for _, g := range t {
			collectVars(g, is, bs)
		}
	}
}

func sortedVars(set map[Var]struct{}) []Var {
	out := make([]Var, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Mentions reports whether v occurs in f.
func Mentions(f Formula, v Var) bool {
	switch t := f.(type) {
	case Prop:
		return Var(t) == v
	case Atom:
		return t.Lin.Coeff(v) != 0
	case Not:
		return Mentions(t.F, v)
	case And:
		for _, g := range t {
			if Mentions(g, v) {
				return true
			}
		}
	case Or:
		for _, g := range t {
			if Mentions(g, v) {
				return true
			}
		}
	}
	return false
}
