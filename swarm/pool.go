package swarm

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// leaveEvent signals the server to release a session's server-side state.
const leaveEvent = "leaveRoom"

// Pool is the ordered collection of live sessions, insertion order = join
// order. Mutations are serialized by the mutex; readers fan out over
// point-in-time snapshots and accept that membership may change underneath
// a command already in flight.
type Pool struct {
	mu       sync.RWMutex
	sessions []*Session
	logger   zerolog.Logger
}

// NewPool creates an empty session pool.
func NewPool(logger zerolog.Logger) *Pool {
	return &Pool{logger: logger.With().Str("component", "pool").Logger()}
}

// Append adds a fully bound session. Sessions without an event channel are
// rejected, as are duplicate display names.
func (p *Pool) Append(s *Session) error {
	if s.Channel == nil {
		return ErrChannelAbsent
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.sessions {
		if existing.Name == s.Name {
			return fmt.Errorf("session %s already exists in pool", s.Name)
		}
	}
	p.sessions = append(p.sessions, s)

	p.logger.Debug().Str("session", s.Name).Int("pool_size", len(p.sessions)).Msg("session added to pool")
	return nil
}

// RemoveOldest evicts up to min(n, size) sessions in insertion order. Each
// evicted session signals the server it is leaving and its channel is torn
// down; a session with no channel is removed without a signal. Returns the
// number of sessions removed.
func (p *Pool) RemoveOldest(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.sessions) {
		n = len(p.sessions)
	}
	if n <= 0 {
		return 0
	}

	evicted := p.sessions[:n]
	p.sessions = p.sessions[n:]

	for _, s := range evicted {
		if s.Channel == nil {
			p.logger.Warn().Str("session", s.Name).Err(ErrChannelAbsent).Msg("removing session without leave signal")
			continue
		}
		if err := s.Channel.Emit(leaveEvent); err != nil {
			p.logger.Warn().Str("session", s.Name).Err(err).Msg("leave signal failed")
		}
		s.Channel.Close()
		p.logger.Info().Str("session", s.Name).Msg("session left the room")
	}
	return n
}

// Snapshot returns a point-in-time ordered copy for safe concurrent
// iteration while provisioning or removal proceeds.
func (p *Pool) Snapshot() []*Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Session(nil), p.sessions...)
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// First returns the oldest session, or nil if the pool is empty. Used by
// single-session operator commands (single, debug, options).
func (p *Pool) First() *Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[0]
}
