package spacer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hornwork/spacer/pkg/chc"
	"github.com/hornwork/spacer/pkg/expr"
)

// InfLevel marks lemmas that hold at every level.
const InfLevel = math.MaxInt32

func IsInfinite(level int) bool {
	return level >= InfLevel
}

func nextLevel(level int) int {
	if IsInfinite(level) {
		return level
	}
	return level + 1
}

func prevLevel(level int) int {
	if IsInfinite(level) {
		return level
	}
	if level == 0 {
		return 0
	}
	return level - 1
}

func levelString(level int) string {
	if IsInfinite(level) {
		return "inf"
	}
	return strconv.Itoa(level)
}

// Internal variables use '!' and '@', which rule sets may not contain.
//
//	Inv!0       first argument of Inv in the current state
//	Inv!0@o1    first argument of the second body occurrence of Inv
//	r3!x        variable x of rule 3
func sigVar(rel *chc.Relation, i int) expr.Var {
	return expr.Var(rel.Name + "!" + strconv.Itoa(i))
}

func sigVars(rel *chc.Relation) []expr.Var {
	vs := make([]expr.Var, rel.Arity)
	for i := range vs {
		vs[i] = sigVar(rel, i)
	}
	return vs
}

func originVar(v expr.Var, o int) expr.Var {
	return expr.Var(string(v) + "@o" + strconv.Itoa(o))
}

func originVars(rel *chc.Relation, o int) []expr.Var {
	vs := sigVars(rel)
	for i, v := range vs {
		vs[i] = originVar(v, o)
	}
	return vs
}

func localVar(rule int, v expr.Var) expr.Var {
	return expr.Var("r" + strconv.Itoa(rule) + "!" + string(v))
}

func tagVar(rule int) expr.Prop {
	return expr.Prop(fmt.Sprintf("tag!%d", rule))
}

func caseVar(rule, pos int) expr.Prop {
	return expr.Prop(fmt.Sprintf("case!%d!%d", rule, pos))
}

func holeVar(i int) expr.Var {
	return expr.Var("hole!" + strconv.Itoa(i))
}

func muVar(i int) expr.Var {
	return expr.Var("mu!" + strconv.Itoa(i))
}

// selector guards the lemmas of one level inside a query.
func selector(level int) expr.Prop {
	return expr.Prop("sel!" + levelString(level))
}

// selectorLevel parses a selector back into its level.
func selectorLevel(f expr.Formula) (int, bool) {
	p, ok := f.(expr.Prop)
	if !ok || !strings.HasPrefix(string(p), "sel!") {
		return 0, false
	}
	s := strings.TrimPrefix(string(p), "sel!")
	if s == "inf" {
		return InfLevel, true
	}
	l, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return l, true
}

// toOrigin renames every variable of f into occurrence o.
func toOrigin(f expr.Formula, o int) expr.Formula {
	return expr.Rename(f, func(v expr.Var) expr.Var { return originVar(v, o) })
}

func renameVars(f expr.Formula, from, to []expr.Var) expr.Formula {
	m := make(map[expr.Var]expr.Var, len(from))
	for i, v := range from {
		m[v] = to[i]
	}
	return expr.RenameMap(f, m)
}
