package swarm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/pollherd/pollherd/classroom"
	"github.com/rs/zerolog"
)

// Event names on the session-scoped channel.
const (
	voteEvent     = "pollResp"
	breakEvent    = "requestBreak"
	helpEvent     = "help"
	endBreakEvent = "endBreak"
)

// Tally is the aggregate outcome of one pool-wide operation.
type Tally struct {
	OK    int
	Total int
}

func (t Tally) String() string {
	return fmt.Sprintf("%d/%d", t.OK, t.Total)
}

// StateSource answers fresh per-session state queries. Satisfied by
// *classroom.Reconciler.
type StateSource interface {
	Refresh(ctx context.Context, ch classroom.EventChannel) (classroom.State, error)
}

// Fanout applies pool-wide operations across a snapshot of the pool
// concurrently. Per-session failures are caught, counted, and never cancel
// or delay sibling actions.
type Fanout struct {
	pool   *Pool
	cache  *classroom.OptionCache
	states StateSource
	logger zerolog.Logger
}

// NewFanout creates a fan-out engine over the pool. The cache supplies
// option sets for random votes; states answers per-session poll queries for
// random actions.
func NewFanout(pool *Pool, cache *classroom.OptionCache, states StateSource, logger zerolog.Logger) *Fanout {
	return &Fanout{
		pool:   pool,
		cache:  cache,
		states: states,
		logger: logger.With().Str("component", "fanout").Logger(),
	}
}

// each launches fn for every session without waiting, then awaits the
// complete set. A thrown failure in one worker is logged with the session
// identity and excluded from the tally, nothing more.
func (f *Fanout) each(sessions []*Session, op string, fn func(s *Session) error) Tally {
	var wg sync.WaitGroup
	var ok atomic.Int64

	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					f.logger.Error().Str("op", op).Str("session", s.Name).Interface("panic", r).Msg("session action panicked")
				}
			}()

			if err := fn(s); err != nil {
				f.logger.Warn().Str("op", op).Str("session", s.Name).Err(err).Msg("session action failed")
				return
			}
			ok.Add(1)
		}(s)
	}
	wg.Wait()

	tally := Tally{OK: int(ok.Load()), Total: len(sessions)}
	f.logger.Info().Str("op", op).Str("tally", tally.String()).Msg("fan-out complete")
	return tally
}

// Vote makes every session vote for the literal option. The option is not
// validated against the cache; the server is authoritative.
func (f *Fanout) Vote(optionID string) Tally {
	return f.each(f.pool.Snapshot(), "vote", func(s *Session) error {
		return s.Emit(voteEvent, optionID, "")
	})
}

// SingleVote makes only the oldest session vote, for spot-checking.
func (f *Fanout) SingleVote(optionID string) error {
	s := f.pool.First()
	if s == nil {
		return fmt.Errorf("no active sessions")
	}
	return s.Emit(voteEvent, optionID, "")
}

// RandomVote makes each session independently draw one option uniformly from
// the given list, or from the option cache when the list is empty. An empty
// cache with no explicit list fails with ErrNoOptionsAvailable and emits
// nothing.
func (f *Fanout) RandomVote(options []string) (Tally, error) {
	if len(options) == 0 {
		options = f.cache.Options()
		if len(options) == 0 {
			return Tally{}, ErrNoOptionsAvailable
		}
	}

	tally := f.each(f.pool.Snapshot(), "random vote", func(s *Session) error {
		return s.Emit(voteEvent, options[rand.IntN(len(options))], "")
	})
	return tally, nil
}

// BreakRequest makes the first min(count, size) sessions in pool order
// request a break. A deterministic prefix, not a uniform sample.
func (f *Fanout) BreakRequest(count int) Tally {
	return f.each(f.prefix(count), "break request", func(s *Session) error {
		return s.Emit(breakEvent, fmt.Sprintf("%s wants to take a break.", s.Name))
	})
}

// HelpRequest makes the first min(count, size) sessions request help.
func (f *Fanout) HelpRequest(count int) Tally {
	return f.each(f.prefix(count), "help request", func(s *Session) error {
		return s.Emit(helpEvent, fmt.Sprintf("%s needs help.", s.Name))
	})
}

// RandomAction drives every session through one draw of random behavior:
// a 10-way uniform draw where 9 requests a break and 10 requests help, all
// other values no-op. When a fresh state query shows an open poll for the
// session, it additionally retracts any existing vote, ends any active
// break, and with 9-in-10 probability casts a fresh uniform-random vote from
// the live option set.
func (f *Fanout) RandomAction(ctx context.Context) Tally {
	return f.each(f.pool.Snapshot(), "random action", func(s *Session) error {
		switch rand.IntN(10) + 1 {
		case 9:
			if err := s.Emit(breakEvent, fmt.Sprintf("%s wants to take a break.", s.Name)); err != nil {
				return err
			}
			f.logger.Info().Str("session", s.Name).Msg("wants to take a break")
		case 10:
			if err := s.Emit(helpEvent, fmt.Sprintf("%s needs help.", s.Name)); err != nil {
				return err
			}
			f.logger.Info().Str("session", s.Name).Msg("needs help")
		}

		if s.Channel == nil {
			return ErrChannelAbsent
		}
		state, err := f.states.Refresh(ctx, s.Channel)
		if err != nil {
			return err
		}
		if !state.PollOpen() {
			return nil
		}

		// retract before revoting so the server never sees two live votes
		if err := s.Emit(voteEvent, "", ""); err != nil {
			return err
		}
		if err := s.Emit(endBreakEvent); err != nil {
			return err
		}
		if rand.IntN(10)+1 >= 2 {
			ids := state.Poll.OptionIDs()
			if len(ids) > 0 {
				return s.Emit(voteEvent, ids[rand.IntN(len(ids))], "")
			}
		}
		return nil
	})
}

// Leave evicts the oldest count sessions from the pool.
func (f *Fanout) Leave(count int) int {
	return f.pool.RemoveOldest(count)
}

// prefix snapshots the pool and truncates to the first count sessions.
func (f *Fanout) prefix(count int) []*Session {
	if count <= 0 {
		return nil
	}
	sessions := f.pool.Snapshot()
	if count < len(sessions) {
		sessions = sessions[:count]
	}
	return sessions
}
