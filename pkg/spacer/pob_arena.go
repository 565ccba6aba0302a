package spacer

import (
	"github.com/hornwork/spacer/pkg/expr"
)

// pobArena owns every obligation of a Context. Obligations refer to each
// other by PobID only.
type pobArena struct {
	pobs []*Pob
}

func (a *pobArena) get(id PobID) *Pob {
	if id == noPob {
		return nil
	}
	return a.pobs[id]
}

func (a *pobArena) len() int { return len(a.pobs) }

func (a *pobArena) newPob(pt *PredTransformer, parent PobID, post []expr.Formula, level, depth int) *Pob {
	n := &Pob{
		id:        PobID(len(a.pobs)),
		pt:        pt,
		parent:    parent,
		post:      expr.SortLits(post),
		level:     level,
		depth:     depth,
		heapIndex: -1,
	}
	a.pobs = append(a.pobs, n)
	if p := a.get(parent); p != nil {
		p.children = append(p.children, n.id)
	}
	return n
}

// detach removes n from its parent's children.
func (a *pobArena) detach(n *Pob) {
	p := a.get(n.parent)
	if p == nil {
		return
	}
	if i := indexOf(p.children, n.id); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
}
