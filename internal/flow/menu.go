package flow

import (
	"context"

	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// Engine collects one validated input per step, managing the bounded retry
// loop and the confirmation echo.
type Engine struct {
	catalog     *texts.Catalog
	maxAttempts int
	metrics     *service.MetricsService
	logger      *zap.Logger
}

// NewEngine constructs the prompt engine.
func NewEngine(catalog *texts.Catalog, maxAttempts int, metrics *service.MetricsService, logger *zap.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: catalog, maxAttempts: maxAttempts, metrics: metrics, logger: logger}
}

// Ask renders the step, collects and validates one input, and retries on
// rejection up to the configured maximum. Exhausting retries is terminal:
// the session must end, never fall back to a default. Every accepted value
// is echoed back so the caller can catch misrecognition before commit.
func (e *Engine) Ask(ctx context.Context, sess *Session, gw telephony.Gateway, step Step) (string, error) {
	spec := step.spec()
	prompts := step.Prompts

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		input, err := gw.Read(ctx, prompts, spec)
		if err != nil {
			return "", err
		}

		if err := step.check(input); err != nil {
			// Only a rejected entry is worth replaying. Anything else (a
			// storage failure inside a semantic hook) ends the step.
			if appErrors.FromError(err).Code != appErrors.ErrInvalidInput.Code {
				return "", err
			}
			sess.IncRetry(step.Name)
			e.metrics.ObserveRetry()
			e.logger.Debug("input rejected",
				zap.String("call_id", sess.Call.CallID),
				zap.String("step", step.Name),
				zap.Int("attempt", attempt+1))
			invalid := e.catalog.Render(ctx, sess.UserID, texts.GeneralInvalidInput, nil)
			prompts = append([]string{invalid}, step.Prompts...)
			continue
		}

		if step.Confirm != nil {
			if line := step.Confirm(input); line != "" {
				gw.Announce(ctx, line)
			}
		} else {
			gw.Announce(ctx, e.catalog.Render(ctx, sess.UserID, texts.GeneralConfirm, map[string]string{"value": input}))
		}
		sess.Record(step.Name, input)
		return input, nil
	}

	e.logger.Info("input attempts exhausted",
		zap.String("call_id", sess.Call.CallID),
		zap.String("step", step.Name))
	return "", appErrors.ErrMaxAttempts
}
