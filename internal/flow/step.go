package flow

import (
	"strings"

	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

const digits = "0123456789"

// Grammar constrains one raw input.
type Grammar interface {
	Spec() telephony.ReadSpec
	Validate(input string) error
}

// FixedDigits accepts exactly N digits.
type FixedDigits int

func (g FixedDigits) Spec() telephony.ReadSpec {
	return telephony.ReadSpec{Mode: telephony.ModeTap, MinDigits: int(g), MaxDigits: int(g), DigitsAllowed: digits}
}

func (g FixedDigits) Validate(input string) error {
	if len(input) != int(g) || !allDigits(input) {
		return appErrors.ErrInvalidInput
	}
	return nil
}

// DigitRange accepts a bounded-length digit string.
type DigitRange struct {
	Min int
	Max int
}

func (g DigitRange) Spec() telephony.ReadSpec {
	return telephony.ReadSpec{Mode: telephony.ModeTap, MinDigits: g.Min, MaxDigits: g.Max, DigitsAllowed: digits}
}

func (g DigitRange) Validate(input string) error {
	if len(input) < g.Min || len(input) > g.Max || !allDigits(input) {
		return appErrors.ErrInvalidInput
	}
	return nil
}

// Recording accepts a recorded clip reference from the gateway.
type Recording struct{}

func (Recording) Spec() telephony.ReadSpec {
	return telephony.ReadSpec{Mode: telephony.ModeRecord}
}

func (Recording) Validate(input string) error {
	if strings.TrimSpace(input) == "" {
		return appErrors.ErrInvalidInput
	}
	return nil
}

// Step declares one input collection: rendered prompts, a grammar, an
// optional allow-list and semantic check, and the confirmation echoed back
// before the flow advances.
type Step struct {
	Name    string
	Prompts []string
	Grammar Grammar
	// Allowed restricts accepted values to an explicit list (menu keys).
	Allowed []string
	// Validate is a semantic check. Returning ErrInvalidInput retries like
	// a grammar failure; any other error ends the step.
	Validate func(input string) error
	// Confirm renders the echo line; nil falls back to the generic echo.
	Confirm func(input string) string
}

// spec derives the gateway read constraints, narrowing the allowed digit set
// when every allowed value is a single digit so the gateway can pre-filter.
func (st Step) spec() telephony.ReadSpec {
	s := st.Grammar.Spec()
	if len(st.Allowed) == 0 {
		return s
	}
	var keys strings.Builder
	for _, v := range st.Allowed {
		if len(v) != 1 || !allDigits(v) {
			return s
		}
		keys.WriteString(v)
	}
	s.DigitsAllowed = keys.String()
	return s
}

// check validates input against the grammar, the allow-list and the
// semantic hook, in that order.
func (st Step) check(input string) error {
	if err := st.Grammar.Validate(input); err != nil {
		return err
	}
	if len(st.Allowed) > 0 && !contains(st.Allowed, input) {
		return appErrors.ErrInvalidInput
	}
	if st.Validate != nil {
		return st.Validate(input)
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
