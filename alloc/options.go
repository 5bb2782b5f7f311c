package alloc

import "github.com/sirupsen/logrus"

type options struct {
	log logrus.FieldLogger
}

type Option func(*options)

// WithLogger routes allocator diagnostics to l instead of the standard
// logrus logger. A nil l keeps the default.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logrus.WithField("prefix", "alloc")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
