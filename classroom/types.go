// Package classroom models the server's authoritative live-classroom state
// and keeps a lazily updated cache of the currently open poll's options.
package classroom

import (
	"errors"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pollherd/pollherd/protocol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMalformedState marks a classUpdate payload that did not match the
// expected shape. The payload is ad hoc JSON on the wire, so the boundary
// rejects rather than trusts it.
var ErrMalformedState = errors.New("malformed classroom state payload")

// Poll is the server's view of the current poll. Responses is keyed by
// option identifier; the per-option tallies are left undecoded.
type Poll struct {
	Status    bool                           `json:"status"`
	Prompt    string                         `json:"prompt"`
	Responses map[string]jsoniter.RawMessage `json:"responses"`
}

// OptionIDs returns the poll's option identifiers. JSON object keys carry no
// order, so the ids are sorted to give callers a stable sequence.
func (p *Poll) OptionIDs() []string {
	ids := make([]string, 0, len(p.Responses))
	for id := range p.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// State is one classUpdate payload: the poll (absent when none has ever been
// opened) and the connected students keyed by display name.
type State struct {
	Poll     *Poll                          `json:"poll"`
	Students map[string]jsoniter.RawMessage `json:"students"`
}

// PollOpen reports whether the state carries a currently open poll.
func (s *State) PollOpen() bool {
	return s.Poll != nil && s.Poll.Status
}

// StudentNames returns the connected students' display names, sorted.
func (s *State) StudentNames() []string {
	names := make([]string, 0, len(s.Students))
	for name := range s.Students {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseState decodes the first argument of a classUpdate event. A payload
// that is not a JSON object, or carries an open poll with no prompt and no
// responses, is rejected as malformed.
func ParseState(args []protocol.RawArg) (State, error) {
	if len(args) == 0 {
		return State{}, fmt.Errorf("%w: no arguments", ErrMalformedState)
	}

	var s State
	if err := json.Unmarshal(args[0], &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if s.Poll == nil && s.Students == nil {
		return State{}, fmt.Errorf("%w: neither poll nor students present", ErrMalformedState)
	}
	return s, nil
}
