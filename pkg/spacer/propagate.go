package spacer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// propagate pushes lemmas forward level by level starting at minLevel.
// Once every relation pushed all lemmas of some level at or below
// maxLevel, the frames above it are inductive: they move to InfLevel and
// propagate reports true. fullLevel bounds the levels examined past
// maxLevel.
func (c *Context) propagate(ctx context.Context, minLevel, maxLevel, fullLevel int) (bool, error) {
	if IsInfinite(minLevel) {
		return false, nil
	}
	for lvl := minLevel; lvl <= fullLevel; lvl++ {
		if err := checkpoint(ctx); err != nil {
			return false, err
		}
		all := true
		for _, pt := range c.order {
			ok, err := pt.frames.propagateToNextLevel(ctx, lvl)
			if err != nil {
				return false, err
			}
			all = ok && all
		}
		c.log.WithFields(logrus.Fields{"level": lvl, "fixpoint": all}).Debug("propagated")
		if all {
			for _, pt := range c.order {
				pt.frames.propagateToInfinity(lvl + 1)
			}
			return lvl <= maxLevel, nil
		}
		if lvl >= maxLevel {
			break
		}
	}
	return false, nil
}
