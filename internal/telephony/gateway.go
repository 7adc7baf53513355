// Package telephony defines the narrow contract the call flows consume from
// the voice platform, and the bridge that adapts the platform's per-step
// webhook requests onto long-lived call goroutines.
package telephony

import "context"

// Mode selects how caller input is collected.
type Mode string

const (
	// ModeTap collects a DTMF digit string.
	ModeTap Mode = "tap"
	// ModeRecord collects a recorded clip and returns its reference.
	ModeRecord Mode = "record"
)

// ReadSpec constrains one input collection.
type ReadSpec struct {
	Mode          Mode   `json:"mode"`
	MinDigits     int    `json:"min_digits,omitempty"`
	MaxDigits     int    `json:"max_digits,omitempty"`
	DigitsAllowed string `json:"digits_allowed,omitempty"`
}

// CallInfo identifies one call as presented by the platform.
type CallInfo struct {
	CallID       string
	Phone        string
	CalledNumber string
}

// Gateway is everything the flows may do with the caller. Read and Hangup
// block until the platform comes back with input or the caller is gone;
// failures surface as errors.ErrHangup / errors.ErrTimeout.
type Gateway interface {
	// Read speaks the prompts then collects one input matching spec.
	Read(ctx context.Context, prompts []string, spec ReadSpec) (string, error)
	// Announce speaks the prompts and continues the flow.
	Announce(ctx context.Context, prompts ...string)
	// Hangup speaks the prompts and terminates the call.
	Hangup(ctx context.Context, prompts ...string)
}

// Response is what the webhook returns to the platform for one step.
type Response struct {
	Messages []string  `json:"messages,omitempty"`
	Read     *ReadSpec `json:"read,omitempty"`
	EndCall  bool      `json:"end_call,omitempty"`
}
