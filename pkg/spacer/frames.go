package spacer

import (
	"context"
	"sort"

	"github.com/hornwork/spacer/pkg/expr"
)

// Frames is the leveled lemma database of one relation. Frame L is the
// set of lemmas whose level is at least L.
type Frames struct {
	pt     *PredTransformer
	lemmas []*Lemma
	sorted bool
	size   int
}

func newFrames(pt *PredTransformer) *Frames {
	return &Frames{pt: pt, sorted: true, size: 1}
}

// Size is the number of frames. It only grows.
func (f *Frames) Size() int { return f.size }

func (f *Frames) ensureLevel(level int) {
	if IsInfinite(level) {
		return
	}
	if level+1 > f.size {
		f.size = level + 1
	}
}

func (f *Frames) sort() {
	if f.sorted {
		return
	}
	sort.SliceStable(f.lemmas, func(i, j int) bool {
		a, b := f.lemmas[i], f.lemmas[j]
		if a.level != b.level {
			return a.level < b.level
		}
		return a.body.String() < b.body.String()
	})
	f.sorted = true
}

// Lemmas returns every lemma ordered by level.
func (f *Frames) Lemmas() []*Lemma {
	f.sort()
	return f.lemmas
}

// lemmasAt returns the lemmas exactly at level.
func (f *Frames) lemmasAt(level int) []*Lemma {
	f.sort()
	var out []*Lemma
	for _, l := range f.lemmas {
		if l.level == level {
			out = append(out, l)
		}
	}
	return out
}

// lemmasGeq returns the lemmas of frame level.
func (f *Frames) lemmasGeq(level int) []*Lemma {
	f.sort()
	i := sort.Search(len(f.lemmas), func(i int) bool { return f.lemmas[i].level >= level })
	return f.lemmas[i:]
}

// formula is the conjunction of frame level over the signature.
func (f *Frames) formula(level int) expr.Formula {
	ls := f.lemmasGeq(level)
	parts := make([]expr.Formula, len(ls))
	for i, l := range ls {
		parts[i] = l.body
	}
	return expr.MkAnd(parts...)
}

func (f *Frames) contains(l *Lemma) bool {
	for _, x := range f.lemmas {
		if x == l {
			return true
		}
	}
	return false
}

// add installs l unless a lemma at an equal or higher level already
// blocks a superset of its cube. Lemmas at lower or equal levels that l
// subsumes are dropped.
func (f *Frames) add(l *Lemma) bool {
	for _, old := range f.lemmas {
		if old.level >= l.level && expr.CubeImplies(l.cube, old.cube) {
			f.pt.ctx.stats.LemmasDiscarded++
			return false
		}
	}
	f.dropSubsumed(l)
	f.lemmas = append(f.lemmas, l)
	f.sorted = false
	f.ensureLevel(l.level)
	f.pt.ctx.events.publish(f.pt, l)
	return true
}

func (f *Frames) dropSubsumed(l *Lemma) {
	kept := f.lemmas[:0]
	for _, old := range f.lemmas {
		if old != l && old.level <= l.level && expr.CubeImplies(old.cube, l.cube) {
			f.pt.ctx.stats.LemmasDiscarded++
			continue
		}
		kept = append(kept, old)
	}
	for i := len(kept); i < len(f.lemmas); i++ {
		f.lemmas[i] = nil
	}
	f.lemmas = kept
}

// promote moves l to level and merges it with the lemmas it meets there.
func (f *Frames) promote(l *Lemma, level int) {
	l.setLevel(level)
	f.ensureLevel(level)
	f.sorted = false
	for _, old := range f.lemmas {
		if old != l && old.level >= l.level && expr.CubeImplies(l.cube, old.cube) {
			f.remove(l)
			f.pt.ctx.stats.LemmasDiscarded++
			return
		}
	}
	f.dropSubsumed(l)
	f.pt.ctx.events.publish(f.pt, l)
}

func (f *Frames) remove(l *Lemma) {
	for i, x := range f.lemmas {
		if x == l {
			f.lemmas = append(f.lemmas[:i], f.lemmas[i+1:]...)
			return
		}
	}
}

// propagateToNextLevel pushes every lemma at level that is invariant at
// level+1. It reports whether no lemma is left behind.
func (f *Frames) propagateToNextLevel(ctx context.Context, level int) (bool, error) {
	target := nextLevel(level)
	f.ensureLevel(target)
	all := true
	for _, l := range f.lemmasAt(level) {
		if !f.contains(l) {
			continue
		}
		if err := checkpoint(ctx); err != nil {
			return false, err
		}
		ok, uses, err := f.pt.IsInvariant(ctx, target, l)
		if err != nil {
			return false, err
		}
		if !ok {
			all = false
			continue
		}
		if uses < target {
			uses = target
		}
		f.promote(l, uses)
		f.pt.ctx.stats.Propagations++
	}
	return all, nil
}

// propagateToInfinity moves every lemma at level or above to InfLevel.
func (f *Frames) propagateToInfinity(level int) {
	for _, l := range f.lemmasGeq(level) {
		if l.IsInfinite() {
			continue
		}
		l.setLevel(InfLevel)
		f.pt.ctx.stats.Invariants++
	}
	f.sorted = false
	for _, l := range f.lemmasGeq(InfLevel) {
		f.pt.ctx.events.publish(f.pt, l)
	}
}
