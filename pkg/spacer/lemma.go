package spacer

import (
	"fmt"

	"github.com/hornwork/spacer/pkg/expr"
)

// Lemma blocks its cube for every state of the relation whose derivation
// height is at most Level. At InfLevel the lemma is part of the
// invariant.
type Lemma struct {
	id        int
	pt        *PredTransformer
	cube      []expr.Formula
	body      expr.Formula
	level     int
	initLevel int
	pob       PobID
	ctp       *ctp
	external  bool

	origin map[int]expr.Formula
}

// ctp is a counterexample to pushing: a model of the premises at level-1
// in which the lemma fails.
type ctp struct {
	model expr.Model
	level int
	rule  *ruleInfo
}

func newLemma(id int, pt *PredTransformer, cube []expr.Formula, level int, pob PobID) *Lemma {
	l := &Lemma{id: id, pt: pt, level: level, initLevel: level, pob: pob}
	l.setCube(cube)
	return l
}

func (l *Lemma) ID() int                   { return l.id }
func (l *Lemma) Cube() []expr.Formula      { return l.cube }
func (l *Lemma) Body() expr.Formula        { return l.body }
func (l *Lemma) Level() int                { return l.level }
func (l *Lemma) InitLevel() int            { return l.initLevel }
func (l *Lemma) Pob() PobID                { return l.pob }
func (l *Lemma) IsInfinite() bool          { return IsInfinite(l.level) }
func (l *Lemma) IsExternal() bool          { return l.external }
func (l *Lemma) Relation() string          { return l.pt.rel.Name }
func (l *Lemma) CubeFormula() expr.Formula { return expr.MkAnd(l.cube...) }

func (l *Lemma) setCube(cube []expr.Formula) {
	l.cube = expr.SortLits(cube)
	l.body = expr.MkNot(expr.MkAnd(l.cube...))
	l.origin = nil
	l.ctp = nil
}

// setLevel moves the lemma up. Levels never decrease.
func (l *Lemma) setLevel(level int) {
	if level < l.level {
		panic(fmt.Sprintf("spacer: lemma %d level decreased from %s to %s", l.id, levelString(l.level), levelString(level)))
	}
	if level != l.level {
		l.ctp = nil
	}
	l.level = level
}

// bodyAt returns the lemma renamed into body occurrence o.
func (l *Lemma) bodyAt(o int) expr.Formula {
	if f, ok := l.origin[o]; ok {
		return f
	}
	if l.origin == nil {
		l.origin = make(map[int]expr.Formula)
	}
	f := toOrigin(l.body, o)
	l.origin[o] = f
	return f
}

func (l *Lemma) String() string {
	return fmt.Sprintf("%s@%s: %s", l.pt.rel.Name, levelString(l.level), l.body)
}

func cubeEqual(a, b []expr.Formula) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = expr.SortLits(a), expr.SortLits(b)
	for i := range a {
		if !expr.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
