package spacer

import (
	"github.com/hornwork/spacer/pkg/expr"
)

// ReachFact certifies that every state satisfying its formula is
// reachable. The formula is over the signature variables of the relation
// and, for facts of initial rules, the rule's local variables.
type ReachFact struct {
	id            int
	fml           expr.Formula
	aux           []expr.Var
	rule          *ruleInfo
	justification []*ReachFact
	init          bool

	origin map[int]expr.Formula
}

func newReachFact(id int, fml expr.Formula, aux []expr.Var, rule *ruleInfo, justification []*ReachFact) *ReachFact {
	return &ReachFact{
		id:            id,
		fml:           fml,
		aux:           aux,
		rule:          rule,
		justification: justification,
		init:          len(justification) == 0 && rule.rule.IsInit(),
	}
}

func (rf *ReachFact) Formula() expr.Formula { return rf.fml }
func (rf *ReachFact) IsInit() bool          { return rf.init }

// Justification returns the facts of the rule's body occurrences that
// this fact was derived from.
func (rf *ReachFact) Justification() []*ReachFact { return rf.justification }

// at returns the formula renamed into body occurrence o.
func (rf *ReachFact) at(o int) expr.Formula {
	if f, ok := rf.origin[o]; ok {
		return f
	}
	if rf.origin == nil {
		rf.origin = make(map[int]expr.Formula)
	}
	f := toOrigin(rf.fml, o)
	rf.origin[o] = f
	return f
}

func (rf *ReachFact) String() string {
	return rf.fml.String()
}
