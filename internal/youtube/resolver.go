package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	canonicalIDPrefix    = "UC"
	canonicalIDMinLength = 20
)

// ErrUnresolvable is returned when no matcher recognises a channel reference
var ErrUnresolvable = errors.New("unresolvable channel reference")

var (
	channelPathPattern = regexp.MustCompile(`/channel/([^/?#\s]+)`)
	handlePattern      = regexp.MustCompile(`(?:^|/)@([^/?#\s]+)`)
)

// ChannelSearcher is the part of Client the handle matcher calls
type ChannelSearcher interface {
	SearchChannels(ctx context.Context, query string, maxResults int64) ([]string, error)
}

// matcher returns the channel ID for ref, or ok=false to pass to the next one
type matcher struct {
	name  string
	match func(ctx context.Context, ref string) (channelID string, ok bool, err error)
}

// Resolver turns raw IDs, /channel/ URLs and @handle URLs into channel IDs.
// Matchers run in order and only the handle matcher makes a remote call.
type Resolver struct {
	matchers []matcher
}

// NewResolver creates a resolver using searcher for handle lookups
func NewResolver(searcher ChannelSearcher) *Resolver {
	return &Resolver{
		matchers: []matcher{
			{name: "canonical-id", match: pure(MatchCanonicalID)},
			{name: "channel-url", match: pure(MatchChannelURL)},
			{name: "handle", match: handleSearch(searcher)},
		},
	}
}

// Resolve returns the canonical channel ID for reference or ErrUnresolvable
func (r *Resolver) Resolve(ctx context.Context, reference string) (string, error) {
	ref := strings.TrimSpace(reference)

	for _, m := range r.matchers {
		channelID, ok, err := m.match(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("resolve %q via %s: %w", ref, m.name, err)
		}
		if ok {
			log.Debug().Str("reference", ref).Str("matcher", m.name).Str("channelID", channelID).Msg("Resolved channel reference")
			return channelID, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnresolvable, ref)
}

// MatchCanonicalID accepts references that already are channel IDs
func MatchCanonicalID(ref string) (string, bool) {
	if strings.HasPrefix(ref, canonicalIDPrefix) && len(ref) >= canonicalIDMinLength {
		return ref, true
	}
	return "", false
}

// MatchChannelURL extracts <id> from a URL containing /channel/<id>
func MatchChannelURL(ref string) (string, bool) {
	m := channelPathPattern.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractHandle returns the handle from an /@handle URL or a bare @handle
func ExtractHandle(ref string) (string, bool) {
	m := handlePattern.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func pure(fn func(ref string) (string, bool)) func(context.Context, string) (string, bool, error) {
	return func(_ context.Context, ref string) (string, bool, error) {
		id, ok := fn(ref)
		return id, ok, nil
	}
}

func handleSearch(searcher ChannelSearcher) func(context.Context, string) (string, bool, error) {
	return func(ctx context.Context, ref string) (string, bool, error) {
		handle, ok := ExtractHandle(ref)
		if !ok {
			return "", false, nil
		}

		ids, err := searcher.SearchChannels(ctx, handle, 1)
		if err != nil {
			return "", false, err
		}
		if len(ids) == 0 {
			log.Warn().Str("handle", handle).Msg("Handle search returned no channels")
			return "", false, nil
		}
		return ids[0], true, nil
	}
}
