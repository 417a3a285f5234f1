package swarm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Provisioner drives authentication attempts in bounded concurrent batches,
// appending every fully bound session to the pool and discarding failures
// without aborting sibling attempts or subsequent batches.
type Provisioner struct {
	pool   *Pool
	auth   Authenticator
	binder Binder
	logger zerolog.Logger

	// nextID numbers guests sequentially for the process lifetime so
	// display names stay unique across provisioning rounds.
	nextID atomic.Int64
}

// NewProvisioner creates a provisioner feeding the given pool.
func NewProvisioner(pool *Pool, auth Authenticator, binder Binder, logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		pool:   pool,
		auth:   auth,
		binder: binder,
		logger: logger.With().Str("component", "provisioner").Logger(),
	}
}

// BatchSize returns the attempts run concurrently per batch: one at a time
// below four total, otherwise a third of the total rounded up. This bounds
// peak in-flight authentications while still parallelizing within a batch.
func BatchSize(total int) int {
	if total < 4 {
		return 1
	}
	return (total + 2) / 3
}

// Provision runs total authentication attempts and returns how many sessions
// were added to the pool. A batch settles completely, success or failure,
// before the next batch starts; that sequencing exists only to bound peak
// concurrency. Provision itself never fails.
func (p *Provisioner) Provision(ctx context.Context, total int) int {
	if total <= 0 {
		return 0
	}

	batchSize := BatchSize(total)
	var added atomic.Int64

	for start, batch := 0, 1; start < total; start, batch = start+batchSize, batch+1 {
		end := start + batchSize
		if end > total {
			end = total
		}

		p.logger.Info().
			Int("batch", batch).
			Int("attempts", end-start).
			Msg("creating guest batch")

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			name := DisplayName(int(p.nextID.Add(1)))
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						p.logger.Error().Str("session", name).Interface("panic", r).Msg("provisioning attempt panicked")
					}
				}()

				if p.provisionOne(ctx, name) {
					added.Add(1)
				}
			}(name)
		}
		wg.Wait()
	}

	p.logger.Info().
		Int64("added", added.Load()).
		Int("pool_size", p.pool.Len()).
		Msg("finished creating guests")
	p.logSessionSummary()

	return int(added.Load())
}

// provisionOne runs one attempt end to end: authenticate, bind the event
// channel, append to the pool. No partial or half-bound session ever lands
// in the pool.
func (p *Provisioner) provisionOne(ctx context.Context, name string) bool {
	s, err := p.auth.Authenticate(ctx, name)
	if err != nil {
		p.logger.Warn().Str("session", name).Err(err).Msg("guest rejected")
		return false
	}

	if err := p.binder.Bind(ctx, s); err != nil {
		p.logger.Warn().Str("session", name).Err(err).Msg("event channel bind failed")
		return false
	}

	if err := p.pool.Append(s); err != nil {
		s.Channel.Close()
		p.logger.Warn().Str("session", name).Err(err).Msg("pool append failed")
		return false
	}

	p.logger.Info().Str("session", name).Msg("guest joined class")
	return true
}

// logSessionSummary records per-session credential counts, a cheap check
// that every session ended up with its own cookies.
func (p *Provisioner) logSessionSummary() {
	for i, s := range p.pool.Snapshot() {
		p.logger.Debug().
			Int("index", i+1).
			Str("session", s.Name).
			Int("cookies", len(s.Cookies())).
			Msg("session summary")
	}
}
