// Package resolver turns user-supplied locators (URLs or search text)
// into playable tracks with a direct audio stream URL.
package resolver

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// ErrUnsupported signals that a resolver does not handle the locator
// and the chain should try the next one.
var ErrUnsupported = errors.New("locator not supported by this resolver")

// Resolver resolves one kind of locator.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, locator string) (track.Track, error)
}

// Chain tries resolvers in order until one succeeds. Resolvers
// declining with ErrUnsupported are skipped silently; real failures
// are logged and the next resolver gets a chance.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a chain trying the given resolvers in order.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Resolve returns the first successful resolution.
func (c *Chain) Resolve(ctx context.Context, locator string) (track.Track, error) {
	var lastErr error
	for _, r := range c.resolvers {
		t, err := r.Resolve(ctx, locator)
		if err == nil {
			zlog.Debug().Str("resolver", r.Name()).Str("locator", locator).Msg("locator resolved")
			return t, nil
		}
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		zlog.Warn().Err(err).Str("resolver", r.Name()).Str("locator", locator).
			Msg("resolver failed, trying next")
		lastErr = err
	}
	if lastErr != nil {
		return track.Track{}, errors.Wrapf(lastErr, "resolve %q", locator)
	}
	return track.Track{}, errors.Newf("no resolver accepts %q", locator)
}
