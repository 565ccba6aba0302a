package spacer

import (
	"fmt"
	"io"
	"reflect"
)

// Stats counts solver events. The counters are observational only.
type Stats struct {
	Queries         int `json:"queries"`
	ReachQueries    int `json:"reachQueries"`
	Lemmas          int `json:"lemmas"`
	LemmasDiscarded int `json:"lemmasDiscarded"`
	ReachFacts      int `json:"reachFacts"`
	Propagations    int `json:"propagations"`
	Invariants      int `json:"invariants"`
	Restarts        int `json:"restarts"`
	Pobs            int `json:"pobs"`
	MaxLevel        int `json:"maxLevel"`
	MaxDepth        int `json:"maxDepth"`
	ExpandUndef     int `json:"expandUndef"`
	CtpReuse        int `json:"ctpReuse"`
	LocalGenSuccess int `json:"localGenSuccess"`
	LocalGenFailure int `json:"localGenFailure"`
	Clusters        int `json:"clusters"`
	Subsumed        int `json:"subsumed"`
	SubsumeFailure  int `json:"subsumeFailure"`
	Conjectures     int `json:"conjectures"`
	Concretized     int `json:"concretized"`
	ClusterOutOfGas int `json:"clusterOutOfGas"`
}

// Each calls f with the json name and value of every counter.
func (s Stats) Each(f func(name string, value int)) {
	v := reflect.ValueOf(s)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f(t.Field(i).Tag.Get("json"), int(v.Field(i).Int()))
	}
}

func (s Stats) Write(w io.Writer) error {
	var err error
	s.Each(func(name string, value int) {
		if err == nil {
			_, err = fmt.Fprintf(w, "%-18s %d\n", name, value)
		}
	})
	return err
}
