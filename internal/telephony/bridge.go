package telephony

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// Runner is the conversation driven on behalf of one call. It blocks inside
// Gateway.Read while waiting for the platform's next webhook.
type Runner func(ctx context.Context, call CallInfo, gw Gateway)

// Request is one platform webhook: either the start of a call, a collected
// input for the pending read, or a hangup notification.
type Request struct {
	CallID   string
	Phone    string
	Called   string
	Input    string
	HasInput bool
	Hangup   bool
}

// Bridge owns the registry of active call sessions. Each session is one
// goroutine running the Runner; webhook requests are matched to it by call
// id and exchanged over channels.
type Bridge struct {
	runner      Runner
	idleTimeout time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session

	stop chan struct{}
	once sync.Once
}

type session struct {
	info     CallInfo
	input    chan string
	resp     chan Response
	hangup   chan struct{}
	done     chan struct{}
	hangOnce sync.Once

	mu       sync.Mutex
	lastSeen time.Time

	// pending buffers announce-and-continue messages until the next read or
	// hangup flushes them. Owned by the runner goroutine.
	pending []string
}

// NewBridge constructs a Bridge running runner for every new call.
func NewBridge(runner Runner, idleTimeout time.Duration, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTimeout <= 0 {
		idleTimeout = 2 * time.Minute
	}
	b := &Bridge{
		runner:      runner,
		idleTimeout: idleTimeout,
		logger:      logger,
		sessions:    make(map[string]*session),
		stop:        make(chan struct{}),
	}
	go b.reap()
	return b
}

// Handle processes one webhook request and returns the platform response:
// the messages to speak plus the next read command, or an end-call marker.
func (b *Bridge) Handle(ctx context.Context, req Request) Response {
	if req.Hangup {
		b.endSession(req.CallID)
		return Response{EndCall: true}
	}

	b.mu.Lock()
	s, ok := b.sessions[req.CallID]
	if !ok {
		s = &session{
			info:     CallInfo{CallID: req.CallID, Phone: req.Phone, CalledNumber: req.Called},
			input:    make(chan string, 1),
			resp:     make(chan Response, 1),
			hangup:   make(chan struct{}),
			done:     make(chan struct{}),
			lastSeen: time.Now(),
		}
		b.sessions[req.CallID] = s
		go b.run(s)
	}
	b.mu.Unlock()

	s.touch()

	if ok {
		if !req.HasInput {
			// The platform repeated a request without input; nothing to
			// resume, the pending response (if any) is re-awaited below.
			b.logger.Debug("webhook without input for active call", zap.String("call_id", req.CallID))
		} else {
			select {
			case s.input <- req.Input:
			case <-s.done:
				return Response{EndCall: true}
			case <-ctx.Done():
				return Response{EndCall: true}
			}
		}
	}

	select {
	case resp := <-s.resp:
		if resp.EndCall {
			b.remove(req.CallID)
		}
		return resp
	case <-s.done:
		b.remove(req.CallID)
		// The runner may have queued its final response just before exiting.
		select {
		case resp := <-s.resp:
			resp.EndCall = true
			return resp
		default:
			return Response{EndCall: true}
		}
	case <-ctx.Done():
		return Response{EndCall: true}
	}
}

// ActiveCalls reports the number of live sessions.
func (b *Bridge) ActiveCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close stops the reaper and hangs up every active session.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.stop) })
	b.mu.Lock()
	sessions := make([]*session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()
	for _, s := range sessions {
		s.hangOnce.Do(func() { close(s.hangup) })
	}
}

func (b *Bridge) run(s *session) {
	defer func() {
		close(s.done)
		b.remove(s.info.CallID)
	}()
	ctx := context.Background()
	b.runner(ctx, s.info, &sessionGateway{s: s})
}

func (b *Bridge) endSession(callID string) {
	b.mu.Lock()
	s, ok := b.sessions[callID]
	delete(b.sessions, callID)
	b.mu.Unlock()
	if ok {
		s.hangOnce.Do(func() { close(s.hangup) })
	}
}

func (b *Bridge) remove(callID string) {
	b.mu.Lock()
	delete(b.sessions, callID)
	b.mu.Unlock()
}

func (b *Bridge) reap() {
	ticker := time.NewTicker(b.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-b.idleTimeout)
			b.mu.Lock()
			var stale []*session
			for _, s := range b.sessions {
				s.mu.Lock()
				last := s.lastSeen
				s.mu.Unlock()
				if last.Before(cutoff) {
					stale = append(stale, s)
				}
			}
			b.mu.Unlock()
			for _, s := range stale {
				b.logger.Info("reaping idle call session", zap.String("call_id", s.info.CallID))
				s.hangOnce.Do(func() { close(s.hangup) })
			}
		}
	}
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// sessionGateway adapts one session's channels to the Gateway contract.
type sessionGateway struct {
	s *session
}

func (g *sessionGateway) Read(ctx context.Context, prompts []string, spec ReadSpec) (string, error) {
	s := g.s
	messages := append(s.flush(), prompts...)

	select {
	case s.resp <- Response{Messages: messages, Read: &spec}:
	case <-s.hangup:
		return "", appErrors.ErrHangup
	case <-ctx.Done():
		return "", appErrors.ErrTimeout
	}

	select {
	case input := <-s.input:
		return input, nil
	case <-s.hangup:
		return "", appErrors.ErrHangup
	case <-ctx.Done():
		return "", appErrors.ErrTimeout
	}
}

func (g *sessionGateway) Announce(ctx context.Context, prompts ...string) {
	g.s.pending = append(g.s.pending, prompts...)
}

func (g *sessionGateway) Hangup(ctx context.Context, prompts ...string) {
	s := g.s
	messages := append(s.flush(), prompts...)
	select {
	case s.resp <- Response{Messages: messages, EndCall: true}:
	case <-s.hangup:
	case <-ctx.Done():
	}
}

func (s *session) flush() []string {
	pending := s.pending
	s.pending = nil
	return pending
}
