package spacer

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/oracle"
)

type Option func(c *Context) error

// WithConfig replaces every tunable. Options after it override single
// fields.
func WithConfig(cfg Config) Option {
	return func(c *Context) error {
		c.cfg = cfg
		return nil
	}
}

func WithMaxLevel(level int) Option {
	return func(c *Context) error {
		c.cfg.MaxLevel = level
		return nil
	}
}

func WithDomainWidth(width int) Option {
	return func(c *Context) error {
		c.cfg.DomainWidth = width
		return nil
	}
}

func WithLocalGeneralization(enabled bool) Option {
	return func(c *Context) error {
		c.cfg.LocalGeneralization = enabled
		return nil
	}
}

func WithGlobalGeneralization(enabled bool) Option {
	return func(c *Context) error {
		c.cfg.GlobalGeneralization = enabled
		return nil
	}
}

func WithRestarts(enabled bool) Option {
	return func(c *Context) error {
		c.cfg.UseRestarts = enabled
		return nil
	}
}

func WithValidation(enabled bool) Option {
	return func(c *Context) error {
		c.cfg.Validate = enabled
		return nil
	}
}

// WithOracleFactory replaces the default gini-backed oracles.
func WithOracleFactory(f oracle.Factory) Option {
	return func(c *Context) error {
		c.oracles = f
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Context) error {
		c.log = log
		return nil
	}
}

func WithTracer(t Tracer) Option {
	return func(c *Context) error {
		c.tracer = t
		return nil
	}
}

// WithRunID tags every log line of the Context.
func WithRunID(id string) Option {
	return func(c *Context) error {
		c.runID = id
		return nil
	}
}

var defaults = []Option{
	func(c *Context) error {
		return c.cfg.validate()
	},
	func(c *Context) error {
		if c.runID == "" {
			c.runID = uuid.New().String()
		}
		return nil
	},
	func(c *Context) error {
		if c.log == nil {
			log := logrus.New()
			log.SetOutput(io.Discard)
			c.log = log
		}
		c.log = c.log.WithField("run", c.runID)
		return nil
	},
	func(c *Context) error {
		if c.tracer == nil {
			c.tracer = DefaultTracer{}
		}
		return nil
	},
	func(c *Context) error {
		if c.oracles != nil {
			return nil
		}
		f, err := oracle.NewFactory(oracle.WithWidth(c.cfg.DomainWidth), oracle.WithLogger(c.log))
		if err != nil {
			return err
		}
		c.oracles = f
		return nil
	},
}
