// Package swarm is the session-pool concurrency engine: it provisions guest
// sessions in bounded concurrent batches, keeps them in an ordered pool, and
// fans operator commands out across the pool with per-session failure
// isolation.
package swarm

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/pollherd/pollherd/protocol"
)

// EventChannel is the slice of a session's live event connection the engine
// uses. Satisfied by *channel.Channel.
type EventChannel interface {
	Emit(event string, args ...interface{}) error
	On(event string, fn func(args []protocol.RawArg)) (cancel func())
	Close() error
}

// Session is one simulated guest: its credential jar, the HTTP client bound
// to it, and the event channel attached after authentication. The jar and
// channel are exclusively owned; nothing is shared across sessions.
type Session struct {
	Name    string
	Base    *url.URL
	Jar     http.CookieJar
	HTTP    *http.Client
	Channel EventChannel
}

// Cookies returns the session's current credentials for the target server.
func (s *Session) Cookies() []*http.Cookie {
	if s.Jar == nil || s.Base == nil {
		return nil
	}
	return s.Jar.Cookies(s.Base)
}

// Emit fires a named event on the session's channel.
func (s *Session) Emit(event string, args ...interface{}) error {
	if s.Channel == nil {
		return ErrChannelAbsent
	}
	return s.Channel.Emit(event, args...)
}

// nameWidth is the fixed display-name width; short names are right-padded
// with underscores so guest1 renders as guest1__.
const nameWidth = 8

// DisplayName formats the fixed-width display name for a guest id.
func DisplayName(id int) string {
	name := fmt.Sprintf("guest%d", id)
	for len(name) < nameWidth {
		name += "_"
	}
	return name
}
