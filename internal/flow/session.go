package flow

import (
	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
)

// Kind names one of the call sub-flows.
type Kind string

const (
	KindNone           Kind = ""
	KindReportEvent    Kind = "report_event"
	KindProxyReport    Kind = "proxy_report"
	KindLottery        Kind = "lottery"
	KindTrackSelection Kind = "track_selection"
	KindFulfillment    Kind = "fulfillment"
)

// State tags the orchestrator's position in the conversation.
type State string

const (
	StateIdentifying State = "identifying"
	StateMainMenu    State = "main_menu"
	StateSubFlow     State = "sub_flow"
	StateConfirming  State = "confirming"
	StateDone        State = "done"
)

// Answer is one collected step value, in collection order.
type Answer struct {
	Step  string
	Value string
}

// Session is the in-memory state of one phone call. It is owned exclusively
// by the goroutine driving the call and is never persisted; only its outputs
// reach durable storage.
type Session struct {
	Call   telephony.CallInfo
	UserID string
	Year   int

	State State
	Flow  Kind

	// Caller is the resolved identity; Target is who the report is about.
	// They differ only for proxy reports.
	Caller *models.StudentDetail
	Target *models.StudentDetail

	answers []Answer
	index   map[string]int
	retries map[string]int
}

// NewSession creates the session for a connecting call.
func NewSession(call telephony.CallInfo, userID string, year int) *Session {
	return &Session{
		Call:    call,
		UserID:  userID,
		Year:    year,
		State:   StateIdentifying,
		index:   make(map[string]int),
		retries: make(map[string]int),
	}
}

// Record stores a validated answer, overwriting a prior value for the step.
func (s *Session) Record(step, value string) {
	if i, ok := s.index[step]; ok {
		s.answers[i].Value = value
		return
	}
	s.index[step] = len(s.answers)
	s.answers = append(s.answers, Answer{Step: step, Value: value})
}

// Answers returns all recorded answers in collection order.
func (s *Session) Answers() []Answer {
	return s.answers
}

// IncRetry bumps and returns the retry counter for a step.
func (s *Session) IncRetry(step string) int {
	s.retries[step]++
	return s.retries[step]
}

// TotalRetries sums rejected inputs across all steps of the call.
func (s *Session) TotalRetries() int {
	total := 0
	for _, n := range s.retries {
		total += n
	}
	return total
}

// IsProxy reports whether the report subject differs from the caller.
func (s *Session) IsProxy() bool {
	return s.Caller != nil && s.Target != nil && s.Caller.ID != s.Target.ID
}
