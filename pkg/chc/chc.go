// Package chc describes systems of constrained Horn clauses: relations,
// the rules deriving them, and the query whose reachability is decided.
package chc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hornwork/spacer/pkg/expr"
)

// QueryName is the name of the nullary relation derived by query rules.
const QueryName = "__query"

// Relation is an uninterpreted predicate over integers.
type Relation struct {
	Name  string
	Arity int
}

func (r *Relation) String() string {
	return fmt.Sprintf("%s/%d", r.Name, r.Arity)
}

// App applies a relation to variables.
type App struct {
	Rel  *Relation
	Args []expr.Var
}

func (a App) String() string {
	if len(a.Args) == 0 {
		return "(" + a.Rel.Name + ")"
	}
	parts := make([]string, 0, len(a.Args)+1)
	parts = append(parts, a.Rel.Name)
	for _, v := range a.Args {
		parts = append(parts, string(v))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Rule is the Horn clause Body ∧ Constraint ⟹ Head.
type Rule struct {
	Name       string
	Head       App
	Body       []App
	Constraint expr.Formula
}

// IsInit reports whether the rule has no relation in its body.
func (r *Rule) IsInit() bool {
	return len(r.Body) == 0
}

// Vars returns the variables of the rule in sorted order.
func (r *Rule) Vars() []expr.Var {
	set := make(map[expr.Var]struct{})
	for _, v := range r.Head.Args {
		set[v] = struct{}{}
	}
	for _, a := range r.Body {
		for _, v := range a.Args {
			set[v] = struct{}{}
		}
	}
	for _, v := range expr.AllVars(r.Constraint) {
		set[v] = struct{}{}
	}
	out := make([]expr.Var, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sortVars(out)
	return out
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(": ")
	for _, a := range r.Body {
		b.WriteString(a.String())
		b.WriteString(" ∧ ")
	}
	b.WriteString(r.Constraint.String())
	b.WriteString(" ⟹ ")
	b.WriteString(r.Head.String())
	return b.String()
}

// RuleSet holds relations and rules in insertion order.
type RuleSet struct {
	relations map[string]*Relation
	order     []*Relation
	rules     []*Rule
	query     *Relation
}

func NewRuleSet() *RuleSet {
	return &RuleSet{relations: make(map[string]*Relation)}
}

// AddRelation declares a relation. Names must be unique and may not use
// the characters reserved for internal variables.
func (rs *RuleSet) AddRelation(name string, arity int) (*Relation, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if name == QueryName {
		return nil, DuplicateRelation(name)
	}
	return rs.addRelation(name, arity)
}

func (rs *RuleSet) addRelation(name string, arity int) (*Relation, error) {
	if _, ok := rs.relations[name]; ok {
		return nil, DuplicateRelation(name)
	}
	if arity < 0 {
		return nil, errors.Errorf("relation %s: negative arity %d", name, arity)
	}
	r := &Relation{Name: name, Arity: arity}
	rs.relations[name] = r
	rs.order = append(rs.order, r)
	return r, nil
}

func (rs *RuleSet) Relation(name string) (*Relation, bool) {
	r, ok := rs.relations[name]
	return r, ok
}

func (rs *RuleSet) MustRelation(name string) *Relation {
	r, ok := rs.relations[name]
	if !ok {
		panic(UnknownRelation(name))
	}
	return r
}

// Relations returns every relation, the query relation included, in
// declaration order.
func (rs *RuleSet) Relations() []*Relation {
	return rs.order
}

func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}

// RulesFor returns the rules whose head is rel.
func (rs *RuleSet) RulesFor(rel *Relation) []*Rule {
	var out []*Rule
	for _, r := range rs.rules {
		if r.Head.Rel == rel {
			out = append(out, r)
		}
	}
	return out
}

// Query returns the query relation, or nil if no query rule was added.
func (rs *RuleSet) Query() *Relation {
	return rs.query
}

// AddRule validates and appends a rule. An empty name is replaced by a
// generated one.
func (rs *RuleSet) AddRule(r *Rule) error {
	if r.Name == "" {
		r.Name = fmt.Sprintf("rule%d", len(rs.rules))
	}
	if r.Constraint == nil {
		r.Constraint = expr.True
	}
	if r.Head.Rel == nil {
		return errors.Errorf("rule %s: missing head", r.Name)
	}
	for _, a := range append([]App{r.Head}, r.Body...) {
		if err := rs.checkApp(a); err != nil {
			return errors.Wrapf(err, "rule %s", r.Name)
		}
	}
	for _, v := range expr.AllVars(r.Constraint) {
		if err := checkName(string(v)); err != nil {
			return errors.Wrapf(err, "rule %s", r.Name)
		}
	}
	rs.rules = append(rs.rules, r)
	return nil
}

// AddQuery adds the rule body ∧ constraint ⟹ __query, declaring the query
// relation on first use.
func (rs *RuleSet) AddQuery(name string, body []App, constraint expr.Formula) error {
	if rs.query == nil {
		q, err := rs.addRelation(QueryName, 0)
		if err != nil {
			return err
		}
		rs.query = q
	}
	return rs.AddRule(&Rule{Name: name, Head: App{Rel: rs.query}, Body: body, Constraint: constraint})
}

func (rs *RuleSet) checkApp(a App) error {
	if known, ok := rs.relations[a.Rel.Name]; !ok || known != a.Rel {
		return UnknownRelation(a.Rel.Name)
	}
	if len(a.Args) != a.Rel.Arity {
		return &ArityMismatch{Relation: a.Rel.Name, Expected: a.Rel.Arity, Got: len(a.Args)}
	}
	for _, v := range a.Args {
		if err := checkName(string(v)); err != nil {
			return err
		}
	}
	return nil
}

// checkName rejects the characters used to build internal variable names.
func checkName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	if strings.ContainsAny(name, "!@") {
		return &ReservedName{Name: name}
	}
	return nil
}

func sortVars(vs []expr.Var) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}
