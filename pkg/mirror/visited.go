package mirror

import (
	"net/url"
	"slices"
	"strings"
)

// VisitedSet records the normalized URLs of pages already entered in a run.
// Entries are never removed. It is not safe for concurrent use.
type VisitedSet struct {
	urls map[string]struct{}
}

// NewVisitedSet creates an empty set
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// Add inserts u and reports whether it was not present before
func (v *VisitedSet) Add(u string) bool {
	if _, ok := v.urls[u]; ok {
		return false
	}
	v.urls[u] = struct{}{}
	return true
}

// Has reports whether u is in the set
func (v *VisitedSet) Has(u string) bool {
	_, ok := v.urls[u]
	return ok
}

// Len returns the number of URLs in the set
func (v *VisitedSet) Len() int {
	return len(v.urls)
}

// URLs returns the members in sorted order
func (v *VisitedSet) URLs() []string {
	out := make([]string, 0, len(v.urls))
	for u := range v.urls {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// DefaultVolatileParams are cache-busting query keys that never select a
// different resource
var DefaultVolatileParams = []string{"_", "nocache", "rnd", "timestamp", "ts"}

// Normalizer maps URLs that name the same page to one key.
//
// The portal addresses folders with a bare query key (".../DersDosyalari?g397"),
// so the query cannot be dropped wholesale. Only the volatile keys are removed
// and the rest are kept verbatim, sorted.
type Normalizer struct {
	volatile map[string]bool
}

// NewNormalizer creates a Normalizer dropping the given query keys.
// A nil slice selects DefaultVolatileParams.
func NewNormalizer(volatile []string) *Normalizer {
	if volatile == nil {
		volatile = DefaultVolatileParams
	}
	n := &Normalizer{volatile: make(map[string]bool, len(volatile))}
	for _, key := range volatile {
		n.volatile[strings.ToLower(key)] = true
	}
	return n
}

// Normalize returns the visited-set key for raw. Unparsable input is
// returned unchanged.
func (n *Normalizer) Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if n.volatile[strings.ToLower(key)] {
			continue
		}
		kept = append(kept, pair)
	}
	slices.Sort(kept)
	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false

	return u.String()
}
