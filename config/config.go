package config

import (
	"fmt"
	"net/url"
)

const (
	EnvPrefix = "POLLHERD_"
)

// Harness holds the full configuration for a pollherd run.
type Harness struct {
	// TargetURL is the base URL of the classroom-polling server,
	// e.g. "http://localhost:420".
	TargetURL string `yaml:"target_url"`

	// ClassKey is the join key submitted to /selectClass.
	ClassKey string `yaml:"class_key"`

	// GuestCount is the number of guest sessions provisioned at startup.
	GuestCount int `yaml:"guest_count"`

	// ClassIDNumber is the numeric class identifier used by the
	// administrative roster endpoint /api/class/{id}.
	ClassIDNumber int `yaml:"class_id_number"`

	// TeacherAPIKey is sent as the "API" header on roster requests.
	// Optional; the classData command fails server-side without it.
	TeacherAPIKey string `yaml:"teacher_api_key"`
}

// Validate checks the configuration for values the harness cannot run with.
func (h *Harness) Validate() error {
	if h.TargetURL == "" {
		return fmt.Errorf("target_url cannot be empty")
	}
	u, err := url.Parse(h.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target_url %q: %w", h.TargetURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target_url must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("target_url %q has no host", h.TargetURL)
	}
	if h.ClassKey == "" {
		return fmt.Errorf("class_key cannot be empty")
	}
	if h.GuestCount < 0 {
		return fmt.Errorf("guest_count cannot be negative, got %d", h.GuestCount)
	}
	if h.GuestCount > MaxGuestCount {
		return fmt.Errorf("guest_count must not exceed %d, got %d", MaxGuestCount, h.GuestCount)
	}
	return nil
}
