package spacer

import (
	"fmt"

	"github.com/hornwork/spacer/pkg/expr"
)

// PobID addresses a proof obligation in its Context.
type PobID int

const noPob PobID = -1

type PobStatus int

const (
	PobOpen PobStatus = iota
	PobBlocked
	PobReachable
	// PobAbandoned is the status of obligations closed together with an
	// ancestor.
	PobAbandoned
)

func (s PobStatus) String() string {
	switch s {
	case PobOpen:
		return "open"
	case PobBlocked:
		return "blocked"
	case PobReachable:
		return "reachable"
	case PobAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("PobStatus(%d)", int(s))
}

// Pob is a proof obligation: a set of states of a relation, given by a
// cube over its signature, that must be shown unreachable within level
// steps or reached.
type Pob struct {
	id         PobID
	pt         *PredTransformer
	parent     PobID
	post       []expr.Formula
	newPost    []expr.Formula
	dirty      bool
	level      int
	depth      int
	status     PobStatus
	derivation *Derivation
	children   []PobID
	lemmas     []*Lemma

	weakness   int
	may        bool
	gas        int
	concretize *Pattern

	heapIndex int
}

func (n *Pob) ID() PobID                 { return n.id }
func (n *Pob) Relation() string          { return n.pt.rel.Name }
func (n *Pob) Post() []expr.Formula      { return n.post }
func (n *Pob) Level() int                { return n.level }
func (n *Pob) Depth() int                { return n.depth }
func (n *Pob) Parent() PobID             { return n.parent }
func (n *Pob) Status() PobStatus         { return n.status }
func (n *Pob) IsClosed() bool            { return n.status != PobOpen }
func (n *Pob) IsMay() bool               { return n.may }
func (n *Pob) IsDirty() bool             { return n.dirty }
func (n *Pob) Weakness() int             { return n.weakness }
func (n *Pob) Gas() int                  { return n.gas }
func (n *Pob) Lemmas() []*Lemma          { return n.lemmas }
func (n *Pob) Children() []PobID         { return n.children }
func (n *Pob) PostFormula() expr.Formula { return expr.MkAnd(n.post...) }

func (n *Pob) detachDerivation() *Derivation {
	d := n.derivation
	n.derivation = nil
	return d
}

// IncLevel moves the obligation one level up. Depth follows so that the
// queue keeps preferring it over obligations created at the new level.
func (n *Pob) IncLevel() {
	n.level++
	n.depth++
	n.weakness = 0
}

// NewPost replaces the post on the next Clean.
func (n *Pob) NewPost(post []expr.Formula) {
	n.newPost = expr.SortLits(post)
	n.dirty = true
}

// Clean installs a pending post. It reports whether the post changed.
func (n *Pob) Clean() bool {
	if !n.dirty {
		return false
	}
	n.post = n.newPost
	n.newPost = nil
	n.dirty = false
	n.lemmas = nil
	return true
}

func (n *Pob) String() string {
	kind := "must"
	if n.may {
		kind = "may"
	}
	return fmt.Sprintf("pob %d %s %s@%d/%d: %s", n.id, kind, n.pt.rel.Name, n.level, n.depth, n.PostFormula())
}

func indexOf(ids []PobID, id PobID) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}
