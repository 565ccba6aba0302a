package spacer

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Dump writes the frames and reach facts of every relation.
func (c *Context) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, pt := range c.order {
		fmt.Fprintf(tw, "%s/%d\tframes %d\treach facts %d\n", pt.rel.Name, pt.rel.Arity, pt.frames.Size(), len(pt.reachFacts))
		for _, l := range pt.frames.Lemmas() {
			fmt.Fprintf(tw, "  %s\t%s\n", levelString(l.level), l.body)
		}
	}
	fmt.Fprintf(tw, "queue\t%d at level %d\n", c.queue.Len(), c.queue.MaxLevel())
	return tw.Flush()
}
