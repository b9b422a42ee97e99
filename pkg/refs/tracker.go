// Package refs assigns stable per-write reference tokens to graph nodes.
//
// Tokens are sequential decimal strings starting at "1" and are scoped to a
// single dump: a tracker is constructed fresh per write and discarded after.
// Identity is the only equality that matters — two structurally identical
// nodes get two tokens — so the map is keyed on the Node interface value
// itself, which compares by pointer for the pointer-typed implementations
// this module requires.
//
// A hard cap bounds memory on malformed or adversarial graphs: once
// MaxTracked distinct identities have been seen, every further node gets the
// sentinel token and is reported as already tracked. Content discovered past
// the cap is diagnostic only.
package refs

import (
	"strconv"

	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/object"
)

const (
	// MaxTracked is the maximum number of distinct node identities a tracker
	// accepts before degrading to the sentinel token.
	MaxTracked = 10000

	// SentinelToken is returned for every node tracked past the cap.
	SentinelToken = "@MAX_REF_EXCEEDED"
)

// Tracker maps node identities to reference tokens for one write pass.
// Not safe for concurrent use.
type Tracker struct {
	tokens map[object.Node]string
	nodes  []object.Node // index i holds the node for token i+1
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{tokens: make(map[object.Node]string)}
}

// Track returns the token for n, allocating the next sequential one on first
// sight. The second result reports whether n had been tracked before.
//
// Past MaxTracked distinct identities, Track returns (SentinelToken, true)
// for any node it has not seen, regardless of identity.
func (t *Tracker) Track(n object.Node) (token string, alreadyTracked bool) {
	if tok, ok := t.tokens[n]; ok {
		return tok, true
	}
	if len(t.nodes) >= MaxTracked {
		return SentinelToken, true
	}
	t.nodes = append(t.nodes, n)
	tok := strconv.Itoa(len(t.nodes))
	t.tokens[n] = tok
	return tok, false
}

// Resolve returns the node a token was assigned to. The write path never
// needs this; it exists for trace rendering and testability.
func (t *Tracker) Resolve(token string) (object.Node, error) {
	i, err := strconv.Atoi(token)
	if err != nil || i < 1 || i > len(t.nodes) {
		return nil, errors.New(errors.ErrCodeUnknownReference, "token %q was never assigned", token)
	}
	return t.nodes[i-1], nil
}

// Len returns the number of distinct identities tracked so far.
func (t *Tracker) Len() int { return len(t.nodes) }
