package telephony

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

func TestBridgeDrivesOneCallAcrossWebhooks(t *testing.T) {
	runner := func(ctx context.Context, call CallInfo, gw Gateway) {
		tz, err := gw.Read(ctx, []string{"enter id"}, ReadSpec{Mode: ModeTap, MinDigits: 9, MaxDigits: 9})
		if err != nil {
			return
		}
		gw.Announce(ctx, "hello "+tz)
		gw.Hangup(ctx, "goodbye")
	}
	bridge := NewBridge(runner, time.Minute, zap.NewNop())
	defer bridge.Close()

	ctx := context.Background()

	resp := bridge.Handle(ctx, Request{CallID: "call-1", Phone: "0501234567"})
	require.NotNil(t, resp.Read)
	assert.Equal(t, []string{"enter id"}, resp.Messages)
	assert.Equal(t, 9, resp.Read.MinDigits)
	assert.Equal(t, 1, bridge.ActiveCalls())

	resp = bridge.Handle(ctx, Request{CallID: "call-1", Input: "123456789", HasInput: true})
	assert.True(t, resp.EndCall)
	assert.Equal(t, []string{"hello 123456789", "goodbye"}, resp.Messages)
	assert.Eventually(t, func() bool { return bridge.ActiveCalls() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBridgeHangupAbortsPendingRead(t *testing.T) {
	errCh := make(chan error, 1)
	runner := func(ctx context.Context, call CallInfo, gw Gateway) {
		_, err := gw.Read(ctx, []string{"enter id"}, ReadSpec{Mode: ModeTap})
		errCh <- err
	}
	bridge := NewBridge(runner, time.Minute, zap.NewNop())
	defer bridge.Close()

	ctx := context.Background()
	resp := bridge.Handle(ctx, Request{CallID: "call-1"})
	require.NotNil(t, resp.Read)

	resp = bridge.Handle(ctx, Request{CallID: "call-1", Hangup: true})
	assert.True(t, resp.EndCall)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, appErrors.ErrHangup)
	case <-time.After(time.Second):
		t.Fatal("runner did not observe hangup")
	}
}

func TestBridgeConcurrentCallsAreIndependent(t *testing.T) {
	runner := func(ctx context.Context, call CallInfo, gw Gateway) {
		input, err := gw.Read(ctx, []string{"prompt"}, ReadSpec{Mode: ModeTap})
		if err != nil {
			return
		}
		gw.Hangup(ctx, call.CallID+":"+input)
	}
	bridge := NewBridge(runner, time.Minute, zap.NewNop())
	defer bridge.Close()

	ctx := context.Background()
	bridge.Handle(ctx, Request{CallID: "call-a"})
	bridge.Handle(ctx, Request{CallID: "call-b"})
	assert.Equal(t, 2, bridge.ActiveCalls())

	respB := bridge.Handle(ctx, Request{CallID: "call-b", Input: "2", HasInput: true})
	respA := bridge.Handle(ctx, Request{CallID: "call-a", Input: "1", HasInput: true})

	assert.Equal(t, []string{"call-b:2"}, respB.Messages)
	assert.Equal(t, []string{"call-a:1"}, respA.Messages)
}

func TestBridgeReapsIdleSessions(t *testing.T) {
	errCh := make(chan error, 1)
	runner := func(ctx context.Context, call CallInfo, gw Gateway) {
		_, err := gw.Read(ctx, []string{"prompt"}, ReadSpec{Mode: ModeTap})
		errCh <- err
	}
	bridge := NewBridge(runner, 40*time.Millisecond, zap.NewNop())
	defer bridge.Close()

	bridge.Handle(context.Background(), Request{CallID: "call-1"})

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, appErrors.ErrHangup)
	case <-time.After(time.Second):
		t.Fatal("idle session was not reaped")
	}
}
