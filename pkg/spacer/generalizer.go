package spacer

import (
	"context"
)

// LemmaGeneralizer weakens a freshly blocked lemma before it is
// installed. Generalize may rewrite the cube and raise the level of l;
// it must keep l valid. Errors other than cancellation are logged and
// ignored by the caller.
type LemmaGeneralizer interface {
	Generalize(ctx context.Context, l *Lemma, n *Pob) error
}
