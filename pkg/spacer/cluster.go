package spacer

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/expr"
)

// slot is a numeral of a pattern: either a fixed value or a hole.
type slot struct {
	Value int64
	Hole  int
}

func fixed(v int64) slot { return slot{Value: v, Hole: -1} }

func (s slot) isHole() bool { return s.Hole >= 0 }

type patternLit struct {
	Lit    expr.Formula `hash:"ignore"`
	Key    string
	Op     expr.Op
	Vars   []expr.Var
	Coeffs []slot
	Const  slot
}

// Pattern is a cube whose numerals may be holes. Two cubes that differ
// only in numerals are instances of a common pattern.
type Pattern struct {
	Lits  []patternLit
	Holes int
}

// shape identifies literals that can be anti-unified: same operator,
// same variables and same coefficient signs.
func shape(l expr.Formula) string {
	a, ok := l.(expr.Atom)
	if !ok {
		return "b:" + l.String()
	}
	var b strings.Builder
	b.WriteString(a.Op.String())
	for _, t := range a.Lin.Terms {
		b.WriteByte(' ')
		if t.Coeff < 0 {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
		b.WriteString(string(t.Var))
	}
	return b.String()
}

func byShape(cube []expr.Formula) []expr.Formula {
	out := append([]expr.Formula(nil), cube...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := shape(out[i]), shape(out[j])
		if si != sj {
			return si < sj
		}
		return out[i].String() < out[j].String()
	})
	return out
}

// antiUnify returns the most specific pattern of a and b together with
// the hole values that give back each cube.
func antiUnify(a, b []expr.Formula) (*Pattern, []int64, []int64, bool) {
	if len(a) != len(b) {
		return nil, nil, nil, false
	}
	a, b = byShape(a), byShape(b)
	p := &Pattern{}
	var sa, sb []int64
	holes := make(map[[2]int64]int)
	unify := func(x, y int64) slot {
		if x == y {
			return fixed(x)
		}
		k := [2]int64{x, y}
		h, ok := holes[k]
		if !ok {
			h = p.Holes
			p.Holes++
			holes[k] = h
			sa = append(sa, x)
			sb = append(sb, y)
		}
		return slot{Hole: h}
	}
	for i := range a {
		if shape(a[i]) != shape(b[i]) {
			return nil, nil, nil, false
		}
		x, ok := a[i].(expr.Atom)
		if !ok {
			if !expr.Equal(a[i], b[i]) {
				return nil, nil, nil, false
			}
			p.Lits = append(p.Lits, patternLit{Lit: a[i], Key: a[i].String()})
			continue
		}
		y := b[i].(expr.Atom)
		pl := patternLit{Lit: a[i], Op: x.Op}
		for j, t := range x.Lin.Terms {
			pl.Vars = append(pl.Vars, t.Var)
			pl.Coeffs = append(pl.Coeffs, unify(t.Coeff, y.Lin.Terms[j].Coeff))
		}
		pl.Const = unify(x.Lin.Const, y.Lin.Const)
		p.Lits = append(p.Lits, pl)
	}
	return p, sa, sb, true
}

// Match returns the hole values that instantiate p to cube.
func (p *Pattern) Match(cube []expr.Formula) ([]int64, bool) {
	if len(cube) != len(p.Lits) {
		return nil, false
	}
	cube = byShape(cube)
	sub := make([]int64, p.Holes)
	bound := make([]bool, p.Holes)
	bind := func(s slot, v int64) bool {
		if !s.isHole() {
			return s.Value == v
		}
		if bound[s.Hole] {
			return sub[s.Hole] == v
		}
		bound[s.Hole] = true
		sub[s.Hole] = v
		return true
	}
	for i, pl := range p.Lits {
		if pl.Key != "" {
			if cube[i].String() != pl.Key {
				return nil, false
			}
			continue
		}
		a, ok := cube[i].(expr.Atom)
		if !ok || a.Op != pl.Op || len(a.Lin.Terms) != len(pl.Vars) {
			return nil, false
		}
		for j, t := range a.Lin.Terms {
			if t.Var != pl.Vars[j] || !bind(pl.Coeffs[j], t.Coeff) {
				return nil, false
			}
		}
		if !bind(pl.Const, a.Lin.Const) {
			return nil, false
		}
	}
	return sub, true
}

// Instantiate fills the holes of p with sub.
func (p *Pattern) Instantiate(sub []int64) []expr.Formula {
	val := func(s slot) int64 {
		if s.isHole() {
			return sub[s.Hole]
		}
		return s.Value
	}
	out := make([]expr.Formula, 0, len(p.Lits))
	for _, pl := range p.Lits {
		if pl.Key != "" {
			out = append(out, pl.Lit)
			continue
		}
		terms := make([]expr.Term, len(pl.Vars))
		for j, v := range pl.Vars {
			terms[j] = expr.Term{Var: v, Coeff: val(pl.Coeffs[j])}
		}
		out = append(out, expr.MkAtom(pl.Op, expr.NewLinear(terms, val(pl.Const))))
	}
	return out
}

// IsLinear reports whether holes only occur as constants, so that the
// pattern is a linear formula over the hole variables.
func (p *Pattern) IsLinear() bool {
	for _, pl := range p.Lits {
		for _, s := range pl.Coeffs {
			if s.isHole() {
				return false
			}
		}
	}
	return true
}

// Formula returns the cube of a linear pattern with hole i replaced by
// the variable hole!i.
func (p *Pattern) Formula() []expr.Formula {
	out := make([]expr.Formula, 0, len(p.Lits))
	for _, pl := range p.Lits {
		if pl.Key != "" {
			out = append(out, pl.Lit)
			continue
		}
		terms := make([]expr.Term, 0, len(pl.Vars)+1)
		for j, v := range pl.Vars {
			if pl.Coeffs[j].isHole() {
				panic("spacer: formula of a non-linear pattern")
			}
			terms = append(terms, expr.Term{Var: v, Coeff: pl.Coeffs[j].Value})
		}
		k := pl.Const.Value
		if pl.Const.isHole() {
			terms = append(terms, expr.Term{Var: holeVar(pl.Const.Hole), Coeff: 1})
			k = 0
		}
		out = append(out, expr.MkAtom(pl.Op, expr.NewLinear(terms, k)))
	}
	return out
}

// holeLits returns the positions of the literals with at least one hole.
func (p *Pattern) holeLits() []int {
	var out []int
	for i, pl := range p.Lits {
		has := pl.Const.isHole()
		for _, s := range pl.Coeffs {
			has = has || s.isHole()
		}
		if has {
			out = append(out, i)
		}
	}
	return out
}

// hasNonLinearShape reports whether lit has the shape of a pattern
// literal with a hole in a coefficient.
func (p *Pattern) hasNonLinearShape(lit expr.Formula) bool {
	s := shape(lit)
	for _, pl := range p.Lits {
		if pl.Key != "" {
			continue
		}
		for _, c := range pl.Coeffs {
			if c.isHole() && shape(pl.Lit) == s {
				return true
			}
		}
	}
	return false
}

func (p *Pattern) String() string {
	num := func(s slot) string {
		if s.isHole() {
			return "?" + strconv.Itoa(s.Hole)
		}
		return strconv.FormatInt(s.Value, 10)
	}
	lits := make([]string, len(p.Lits))
	for i, pl := range p.Lits {
		if pl.Key != "" {
			lits[i] = pl.Key
			continue
		}
		parts := make([]string, 0, len(pl.Vars)+1)
		for j, v := range pl.Vars {
			parts = append(parts, num(pl.Coeffs[j])+"*"+string(v))
		}
		parts = append(parts, num(pl.Const))
		lits[i] = "(" + pl.Op.String() + " (+ " + strings.Join(parts, " ") + ") 0)"
	}
	return "(and " + strings.Join(lits, " ") + ")"
}

type clusterMember struct {
	lemma *Lemma
	sub   []int64
}

// LemmaCluster groups the lemmas of a relation that are instances of one
// pattern.
type LemmaCluster struct {
	pt      *PredTransformer
	pattern *Pattern
	key     uint64
	members []clusterMember
	gas     int
}

func (cl *LemmaCluster) Pattern() *Pattern { return cl.pattern }
func (cl *LemmaCluster) Gas() int          { return cl.gas }

// add makes l a member if it is an instance of the pattern.
func (cl *LemmaCluster) add(l *Lemma) bool {
	for _, m := range cl.members {
		if m.lemma == l {
			return false
		}
	}
	sub, ok := cl.pattern.Match(l.cube)
	if !ok {
		return false
	}
	cl.members = append(cl.members, clusterMember{lemma: l, sub: sub})
	return true
}

// live returns the members still installed in the frames.
func (cl *LemmaCluster) live() []clusterMember {
	var out []clusterMember
	for _, m := range cl.members {
		if cl.pt.frames.contains(m.lemma) {
			out = append(out, m)
		}
	}
	return out
}

func (cl *LemmaCluster) minLevel() int {
	lvl := InfLevel
	for _, m := range cl.live() {
		if m.lemma.level < lvl {
			lvl = m.lemma.level
		}
	}
	return lvl
}

// clusterDB holds the clusters of every relation and adds newly learned
// lemmas to the clusters they match.
type clusterDB struct {
	c     *Context
	byRel map[*PredTransformer][]*LemmaCluster
	byKey map[uint64]*LemmaCluster
}

func newClusterDB(c *Context) *clusterDB {
	return &clusterDB{
		c:     c,
		byRel: make(map[*PredTransformer][]*LemmaCluster),
		byKey: make(map[uint64]*LemmaCluster),
	}
}

func (db *clusterDB) lemmaLearned(src *PredTransformer, l *Lemma) {
	for _, cl := range db.byRel[src] {
		cl.add(l)
	}
}

// find returns the first cluster of pt that cube is an instance of.
func (db *clusterDB) find(pt *PredTransformer, cube []expr.Formula) *LemmaCluster {
	for _, cl := range db.byRel[pt] {
		if _, ok := cl.pattern.Match(cube); ok {
			return cl
		}
	}
	return nil
}

// Clusters returns the clusters of the named relation.
func (c *Context) Clusters(relation string) []*LemmaCluster {
	pt, ok := c.PredTransformer(relation)
	if !ok {
		return nil
	}
	return c.clusters.byRel[pt]
}

func (db *clusterDB) create(pt *PredTransformer, p *Pattern) (*LemmaCluster, error) {
	key, err := hashstructure.Hash(struct {
		Relation string
		Pattern  *Pattern
	}{pt.rel.Name, p}, nil)
	if err != nil {
		return nil, err
	}
	if cl, ok := db.byKey[key]; ok {
		return cl, nil
	}
	cl := &LemmaCluster{pt: pt, pattern: p, key: key, gas: db.c.cfg.ClusterGas}
	db.byKey[key] = cl
	db.byRel[pt] = append(db.byRel[pt], cl)
	db.c.stats.Clusters++
	return cl, nil
}

// ClusterFinder puts a new lemma into a cluster, creating one when the
// lemma differs from an installed lemma of its relation only in
// numerals.
type ClusterFinder struct {
	c *Context
}

func (f *ClusterFinder) Generalize(_ context.Context, l *Lemma, _ *Pob) error {
	c := f.c
	if !c.cfg.GlobalGeneralization || len(l.cube) == 0 {
		return nil
	}
	if cl := c.clusters.find(l.pt, l.cube); cl != nil {
		cl.add(l)
		return nil
	}
	for _, other := range l.pt.frames.Lemmas() {
		if cubeEqual(other.cube, l.cube) {
			continue
		}
		p, _, _, ok := antiUnify(l.cube, other.cube)
		if !ok || p.Holes == 0 {
			continue
		}
		cl, err := c.clusters.create(l.pt, p)
		if err != nil {
			return err
		}
		cl.add(l)
		for _, m := range l.pt.frames.Lemmas() {
			cl.add(m)
		}
		l.pt.log.WithFields(logrus.Fields{
			"pattern": p.String(),
			"members": len(cl.members),
		}).Debug("cluster")
		return nil
	}
	return nil
}
