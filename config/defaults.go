package config

// Default values applied when the config file omits a field.
const (
	// DefaultTargetURL points at a locally running classroom server.
	DefaultTargetURL = "http://localhost:420"

	// DefaultGuestCount is the number of guest sessions created at startup.
	DefaultGuestCount = 24

	// MaxGuestCount bounds a single run. The server keeps per-session state
	// for every guest, so an accidental huge value is worth rejecting early.
	MaxGuestCount = 10000
)

// ApplyDefaults fills zero-valued fields with their defaults.
// ClassKey has no default; it identifies the class under test and must be set.
func (h *Harness) ApplyDefaults() {
	if h.TargetURL == "" {
		h.TargetURL = DefaultTargetURL
	}
	if h.GuestCount == 0 {
		h.GuestCount = DefaultGuestCount
	}
}
