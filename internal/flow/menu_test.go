package flow

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

func newTestEngine(maxAttempts int) *Engine {
	return NewEngine(texts.NewCatalog(nil, nil, time.Minute, nil), maxAttempts, nil, nil)
}

func TestAskRetriesRejectedEntry(t *testing.T) {
	engine := newTestEngine(3)
	sess := NewSession(telephony.CallInfo{CallID: "c1"}, "u1", 2026)
	gw := &scriptGateway{inputs: []string{"9", "2"}}

	got, err := engine.Ask(context.Background(), sess, gw, Step{
		Name:    "menu.choice",
		Grammar: FixedDigits(1),
		Allowed: []string{"1", "2"},
		Confirm: func(string) string { return "" },
	})
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	assert.True(t, gw.heard("That entry was not recognized"))
	assert.Equal(t, 1, sess.TotalRetries())
}

func TestAskExhaustedAttemptsAreTerminal(t *testing.T) {
	engine := newTestEngine(2)
	sess := NewSession(telephony.CallInfo{CallID: "c2"}, "u1", 2026)
	gw := &scriptGateway{inputs: []string{"9", "9", "9"}}

	_, err := engine.Ask(context.Background(), sess, gw, Step{
		Name:    "menu.choice",
		Grammar: FixedDigits(1),
		Allowed: []string{"1"},
	})
	assert.ErrorIs(t, err, appErrors.ErrMaxAttempts)
	assert.Len(t, gw.inputs, 1)
}

func TestAskPropagatesLookupFailure(t *testing.T) {
	engine := newTestEngine(3)
	sess := NewSession(telephony.CallInfo{CallID: "c3"}, "u1", 2026)
	gw := &scriptGateway{inputs: []string{"123456789", "123456789"}}

	lookupErr := appErrors.WrapAs(appErrors.ErrInternal, stderrors.New("connection refused"), "failed to resolve classmate")
	_, err := engine.Ask(context.Background(), sess, gw, Step{
		Name:    "proxy.classmate",
		Grammar: FixedDigits(9),
		Validate: func(string) error {
			return lookupErr
		},
	})

	// A backend failure ends the step after one read; it is never replayed
	// as a bad entry.
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Len(t, gw.inputs, 1)
	assert.False(t, gw.heard("That entry was not recognized"))
	assert.Zero(t, sess.TotalRetries())
}
