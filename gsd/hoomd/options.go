package hoomd

import (
	"fmt"
	"strings"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

// FallbackPolicy selects which earlier frames may supply a field that a frame does not store.
type FallbackPolicy int

const (
	// FallbackHistory uses the most recent stored value within the current N epoch.
	FallbackHistory FallbackPolicy = iota
	// FallbackInitialFrame only falls back to frame 0, and for per-entity fields only
	// when N matches frame 0.
	FallbackInitialFrame
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackHistory:
		return "history"
	case FallbackInitialFrame:
		return "initial"
	}
	return fmt.Sprintf("FallbackPolicy(%d)", int(p))
}

// ParseFallback converts a policy name ("history" or "initial") into a FallbackPolicy.
func ParseFallback(name string) (FallbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "history":
		return FallbackHistory, nil
	case "initial", "initial-frame":
		return FallbackInitialFrame, nil
	}
	return 0, fmt.Errorf("unknown fallback policy %q", name)
}

type options struct {
	fallback FallbackPolicy
	fileOpts []fl.Option
}

// Option configures a Trajectory.
type Option func(o *options)

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFallback sets the fallback policy used when composing frames.
func WithFallback(p FallbackPolicy) Option {
	return func(o *options) {
		o.fallback = p
	}
}

// WithFileOptions passes options to fl.Open when the trajectory opens its own file.
func WithFileOptions(opts ...fl.Option) Option {
	return func(o *options) {
		o.fileOpts = append(o.fileOpts, opts...)
	}
}
