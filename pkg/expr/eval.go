package expr

import (
	"sort"
	"strconv"
	"strings"
)

// Model assigns values to integer and boolean variables. Variables
// without an assignment evaluate to zero and false.
type Model struct {
	Ints  map[Var]int64
	Bools map[Var]bool
}

func NewModel() Model {
	return Model{Ints: make(map[Var]int64), Bools: make(map[Var]bool)}
}

func (m Model) Int(v Var) int64 {
	return m.Ints[v]
}

func (m Model) Bool(v Var) bool {
	return m.Bools[v]
}

func (m Model) SetInt(v Var, k int64) {
	m.Ints[v] = k
}

func (m Model) SetBool(v Var, b bool) {
	m.Bools[v] = b
}

func (m Model) IsZero() bool {
	return m.Ints == nil && m.Bools == nil
}

// Clone returns a deep copy of m.
func (m Model) Clone() Model {
	c := NewModel()
	for v, k := range m.Ints {
		c.Ints[v] = k
	}
	for v, b := range m.Bools {
		c.Bools[v] = b
	}
	return c
}

func (m Model) String() string {
	var parts []string
	for v, k := range m.Ints {
		parts = append(parts, string(v)+"="+strconv.FormatInt(k, 10))
	}
	for v, b := range m.Bools {
		parts = append(parts, string(v)+"="+strconv.FormatBool(b))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// Eval evaluates f under m.
func Eval(f Formula, m Model) bool {
	switch t := f.(type) {
	case Bool:
		return bool(t)
	case Prop:
		return m.Bool(Var(t))
	case Atom:
		k := t.Lin.Eval(m)
		switch t.Op {
		case OpLe:
			return k <= 0
		case OpEq:
			return k == 0
		default:
			return k != 0
		}
	case Not:
		return !Eval(t.F, m)
	case And:
		for _, g := range t {
			if !Eval(g, m) {
				return false
			}
		}
		return true
	case Or:
		for _, g := range t {
			if Eval(g, m) {
				return true
			}
		}
		return false
	}
	panic("expr: unknown formula")
}
