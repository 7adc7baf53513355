package flow

import (
	"context"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// proxyFlow lets a class representative file a report for herself or for a
// classmate, then hands the collected target to the regular report flow.
type proxyFlow struct {
	engine   *Engine
	identity identityResolver
	report   *reportFlow
	catalog  *texts.Catalog
}

func (f *proxyFlow) Kind() Kind { return KindProxyReport }

func (f *proxyFlow) Run(ctx context.Context, sess *Session, gw telephony.Gateway) error {
	choice, err := f.engine.Ask(ctx, sess, gw, Step{
		Name:    "proxy.choice",
		Prompts: []string{f.catalog.Render(ctx, sess.UserID, texts.ProxyMenu, nil)},
		Grammar: FixedDigits(1),
		Allowed: []string{"1", "2"},
		Confirm: func(string) string { return "" },
	})
	if err != nil {
		return err
	}

	if choice == "2" {
		mate, err := f.askClassmate(ctx, sess, gw)
		if err != nil {
			return err
		}
		sess.Target = mate
	}

	return f.report.Run(ctx, sess, gw)
}

// askClassmate resolves the target by identity number, restricted to the
// representative's own class. A miss counts as a retryable bad entry.
func (f *proxyFlow) askClassmate(ctx context.Context, sess *Session, gw telephony.Gateway) (*models.StudentDetail, error) {
	if sess.Caller.ClassID == nil {
		return nil, appErrors.ErrNoActiveClass
	}
	classID := *sess.Caller.ClassID

	var mate *models.StudentDetail
	_, err := f.engine.Ask(ctx, sess, gw, Step{
		Name:    "proxy.classmate_tz",
		Prompts: []string{f.catalog.Render(ctx, sess.UserID, texts.ProxyAskClassmate, nil)},
		Grammar: FixedDigits(9),
		Validate: func(in string) error {
			found, err := f.identity.ResolveClassmate(ctx, sess.UserID, in, classID, sess.Year)
			if err != nil {
				return err
			}
			mate = found
			return nil
		},
		Confirm: func(string) string {
			return f.catalog.Render(ctx, sess.UserID, texts.ProxyConfirmTarget, map[string]string{"name": mate.FullName})
		},
	})
	if err != nil {
		return nil, err
	}
	return mate, nil
}
