package classroom

import (
	"context"

	"github.com/pollherd/pollherd/protocol"
	"github.com/rs/zerolog"
)

// stateEvent is used both for broadcast updates and as the reply to an
// explicit state query; request/reply correlation is by protocol convention
// (at most one outstanding query per session).
const stateEvent = "classUpdate"

// EventChannel is the slice of a session's event channel the reconciler
// needs: fire-and-forget emits and handler registration.
type EventChannel interface {
	Emit(event string, args ...interface{}) error
	On(event string, fn func(args []protocol.RawArg)) (cancel func())
}

// Reconciler queries the server's live-classroom state on demand and keeps
// the option cache in sync with unsolicited broadcast updates.
type Reconciler struct {
	cache  *OptionCache
	logger zerolog.Logger
}

// NewReconciler creates a reconciler writing through to the given cache.
func NewReconciler(cache *OptionCache, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		cache:  cache,
		logger: logger.With().Str("component", "reconciler").Logger(),
	}
}

// Cache returns the option cache the reconciler maintains.
func (r *Reconciler) Cache() *OptionCache { return r.cache }

// Refresh emits a state query on the session's channel and resolves on the
// next reply. Callers must not overlap queries on the same session. The
// observed state also refreshes the option cache.
func (r *Reconciler) Refresh(ctx context.Context, ch EventChannel) (State, error) {
	reply := make(chan State, 1)
	cancel := ch.On(stateEvent, func(args []protocol.RawArg) {
		state, err := ParseState(args)
		if err != nil {
			r.logger.Warn().Err(err).Msg("rejecting state reply")
			return
		}
		select {
		case reply <- state:
		default:
		}
	})
	defer cancel()

	if err := ch.Emit(stateEvent); err != nil {
		return State{}, err
	}

	select {
	case state := <-reply:
		r.observe(state)
		return state, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Watch installs a standing listener on the session's channel that keeps the
// option cache current from broadcast updates. The returned cancel removes
// the listener.
func (r *Reconciler) Watch(ch EventChannel) (cancel func()) {
	return ch.On(stateEvent, func(args []protocol.RawArg) {
		state, err := ParseState(args)
		if err != nil {
			r.logger.Warn().Err(err).Msg("rejecting broadcast state")
			return
		}
		r.observe(state)
	})
}

// observe reconciles one observed state into the cache: a closed or absent
// poll empties it, a changed prompt replaces it.
func (r *Reconciler) observe(state State) {
	if !state.PollOpen() {
		if !r.cache.Empty() {
			r.logger.Info().Msg("poll closed, clearing cached options")
		}
		r.cache.Clear()
		return
	}

	prompt := state.Poll.Prompt
	if prompt == r.cache.Prompt() {
		return
	}
	options := state.Poll.OptionIDs()
	r.cache.Set(prompt, options)
	r.logger.Info().
		Str("prompt", prompt).
		Strs("options", options).
		Msg("observed new poll")
}
