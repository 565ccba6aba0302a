package expr

type boundKind uint8

const (
	boundUpper boundKind = iota
	boundLower
	boundEq
	boundNe
)

// bound views an atom as a constraint on its sign-normalized term part.
type bound struct {
	key   string
	kind  boundKind
	value int64
}

func boundOf(a Atom) bound {
	t := Linear{Terms: a.Lin.Terms}
	sign := int64(1)
	if t.Terms[0].Coeff < 0 {
		t = t.Scale(-1)
		sign = -1
	}
	b := bound{key: t.String()}
	switch a.Op {
	case OpLe:
		if sign > 0 {
			b.kind, b.value = boundUpper, -a.Lin.Const
		} else {
			b.kind, b.value = boundLower, a.Lin.Const
		}
	case OpEq:
		b.kind, b.value = boundEq, -sign*a.Lin.Const
	default:
		b.kind, b.value = boundNe, -sign*a.Lin.Const
	}
	return b
}

// LitImplies reports whether literal a syntactically implies literal b.
// It is incomplete: false means "not known to imply".
func LitImplies(a, b Formula) bool {
	if Equal(a, b) {
		return true
	}
	if x, ok := a.(Bool); ok {
		return !bool(x)
	}
	if y, ok := b.(Bool); ok {
		return bool(y)
	}
	x, ok := a.(Atom)
	if !ok {
		return false
	}
	y, ok := b.(Atom)
	if !ok {
		return false
	}
	p, q := boundOf(x), boundOf(y)
	if p.key != q.key {
		return false
	}
	switch p.kind {
	case boundEq:
		switch q.kind {
		case boundUpper:
			return p.value <= q.value
		case boundLower:
			return p.value >= q.value
		case boundEq:
			return p.value == q.value
		default:
			return p.value != q.value
		}
	case boundUpper:
		switch q.kind {
		case boundUpper:
			return p.value <= q.value
		case boundNe:
			return q.value > p.value
		}
	case boundLower:
		switch q.kind {
		case boundLower:
			return p.value >= q.value
		case boundNe:
			return q.value < p.value
		}
	case boundNe:
		return q.kind == boundNe && p.value == q.value
	}
	return false
}

// CubeImplies reports whether the conjunction strong implies the
// conjunction weak, checking that every literal of weak is implied by
// some literal of strong.
func CubeImplies(strong, weak []Formula) bool {
	for _, w := range weak {
		found := false
		for _, s := range strong {
			if LitImplies(s, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ExpandEqualities splits every integer equality into a pair of
// inequalities.
func ExpandEqualities(lits []Formula) []Formula {
	out := make([]Formula, 0, len(lits))
	for _, l := range lits {
		if a, ok := l.(Atom); ok && a.Op == OpEq {
			out = append(out, MkAtom(OpLe, a.Lin), MkAtom(OpLe, a.Lin.Scale(-1)))
			continue
		}
		out = append(out, l)
	}
	return out
}
