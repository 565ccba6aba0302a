package chc

import (
	"fmt"
	"os"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/hornwork/spacer/pkg/expr"
)

// FormatRange holds the rule file formats this package reads. Files
// without a format are taken as the current one.
var FormatRange = semver.MustParseRange(">=1.0.0 <2.0.0")

// File is the on-disk form of a rule set. Relation applications and
// constraints are s-expressions:
//
//	format: 1.0.0
//	relations:
//	- name: Inv
//	  arity: 1
//	rules:
//	- name: init
//	  head: (Inv 0)
//	- name: step
//	  head: (Inv (+ x 1))
//	  body: ["(Inv x)"]
//	  constraint: (< x 10)
//	queries:
//	- body: ["(Inv x)"]
//	  constraint: (> x 10)
type File struct {
	Format    string         `json:"format,omitempty"`
	Relations []RelationDecl `json:"relations"`
	Rules     []RuleDecl     `json:"rules"`
	Queries   []RuleDecl     `json:"queries"`
}

type RelationDecl struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
}

type RuleDecl struct {
	Name       string   `json:"name,omitempty"`
	Head       string   `json:"head,omitempty"`
	Body       []string `json:"body,omitempty"`
	Constraint string   `json:"constraint,omitempty"`
}

// LoadFile reads a rule set from a YAML file.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	rs, err := Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return rs, nil
}

// Load parses a rule set from YAML.
func Load(data []byte) (*RuleSet, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decoding rule set")
	}
	return f.RuleSet()
}

// RuleSet validates the declarations and builds the rule set.
func (f *File) RuleSet() (*RuleSet, error) {
	if f.Format != "" {
		v, err := semver.ParseTolerant(f.Format)
		if err != nil {
			return nil, errors.Wrap(err, "format")
		}
		if !FormatRange(v) {
			return nil, errors.Errorf("unsupported format %s", v)
		}
	}
	rs := NewRuleSet()
	for _, d := range f.Relations {
		if _, err := rs.AddRelation(d.Name, d.Arity); err != nil {
			return nil, err
		}
	}
	for i, d := range f.Rules {
		if d.Head == "" {
			return nil, errors.Errorf("rule %d (%s): missing head", i, d.Name)
		}
		r, err := rs.ruleOf(d)
		if err != nil {
			return nil, err
		}
		if err := rs.AddRule(r); err != nil {
			return nil, err
		}
	}
	for i, d := range f.Queries {
		if d.Head != "" {
			return nil, errors.Errorf("query %d (%s): queries have no head", i, d.Name)
		}
		if d.Name == "" {
			d.Name = fmt.Sprintf("query%d", i)
		}
		r, err := rs.ruleOf(d)
		if err != nil {
			return nil, err
		}
		if err := rs.AddQuery(r.Name, r.Body, r.Constraint); err != nil {
			return nil, err
		}
	}
	if rs.Query() == nil {
		return nil, errors.New("rule set has no query")
	}
	return rs, nil
}

// ruleBuilder turns application arguments that are not plain variables
// into fresh variables constrained by equalities.
type ruleBuilder struct {
	rs    *RuleSet
	fresh int
	extra []expr.Formula
}

func (rs *RuleSet) ruleOf(d RuleDecl) (*Rule, error) {
	b := &ruleBuilder{rs: rs}
	r := &Rule{Name: d.Name, Constraint: expr.True}
	if d.Head != "" {
		head, err := b.app(d.Head)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: head", d.Name)
		}
		r.Head = head
	}
	for _, src := range d.Body {
		a, err := b.app(src)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: body", d.Name)
		}
		r.Body = append(r.Body, a)
	}
	if strings.TrimSpace(d.Constraint) != "" {
		c, err := expr.ParseFormula(d.Constraint)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: constraint", d.Name)
		}
		if err := checkUserVars(c); err != nil {
			return nil, errors.Wrapf(err, "rule %s", d.Name)
		}
		r.Constraint = c
	}
	r.Constraint = expr.MkAnd(append([]expr.Formula{r.Constraint}, b.extra...)...)
	return r, nil
}

func (b *ruleBuilder) app(src string) (App, error) {
	s, err := expr.ReadSexp(src)
	if err != nil {
		return App{}, err
	}
	if !s.IsList || s.Head() == "" {
		return App{}, errors.Errorf("%q is not a relation application", src)
	}
	rel, ok := b.rs.Relation(s.Head())
	if !ok {
		return App{}, UnknownRelation(s.Head())
	}
	a := App{Rel: rel}
	for _, arg := range s.List[1:] {
		t, err := expr.TermOf(arg)
		if err != nil {
			return App{}, err
		}
		if !arg.IsList && len(t.Terms) == 1 && t.Const == 0 && t.Terms[0].Coeff == 1 {
			v := t.Terms[0].Var
			if strings.HasPrefix(string(v), "#") {
				return App{}, &ReservedName{Name: string(v)}
			}
			a.Args = append(a.Args, v)
			continue
		}
		v := expr.Var(fmt.Sprintf("#%d", b.fresh))
		b.fresh++
		b.extra = append(b.extra, expr.Eq(expr.V(v), t))
		a.Args = append(a.Args, v)
	}
	return a, nil
}

func checkUserVars(f expr.Formula) error {
	for _, v := range expr.AllVars(f) {
		if strings.HasPrefix(string(v), "#") {
			return &ReservedName{Name: string(v)}
		}
	}
	return nil
}
