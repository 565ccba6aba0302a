package spacer

// lemmaListener is notified whenever a lemma is installed, promoted or
// moved to the invariant.
type lemmaListener interface {
	lemmaLearned(src *PredTransformer, l *Lemma)
}

type listenerFunc func(src *PredTransformer, l *Lemma)

func (f listenerFunc) lemmaLearned(src *PredTransformer, l *Lemma) { f(src, l) }

// eventRegistry routes lemma events of a relation to its subscribers.
type eventRegistry struct {
	byRelation map[*PredTransformer][]lemmaListener
	all        []lemmaListener
}

func newEventRegistry() *eventRegistry {
	return &eventRegistry{byRelation: make(map[*PredTransformer][]lemmaListener)}
}

// subscribe registers lis for lemmas of src.
func (r *eventRegistry) subscribe(src *PredTransformer, lis lemmaListener) {
	r.byRelation[src] = append(r.byRelation[src], lis)
}

// subscribeAll registers lis for lemmas of every relation.
func (r *eventRegistry) subscribeAll(lis lemmaListener) {
	r.all = append(r.all, lis)
}

func (r *eventRegistry) publish(src *PredTransformer, l *Lemma) {
	for _, lis := range r.byRelation[src] {
		lis.lemmaLearned(src, l)
	}
	for _, lis := range r.all {
		lis.lemmaLearned(src, l)
	}
}
