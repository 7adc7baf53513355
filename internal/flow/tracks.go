package flow

import (
	"context"
	"strconv"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// trackFlow enrolls the caller into one track of its configured kind. The
// lottery and voucher menus are the same conversation over different
// catalogs and prompts.
type trackFlow struct {
	kind      Kind
	trackKind string
	engine    *Engine
	catalogs  catalogSource
	surveys   surveyStore
	catalog   *texts.Catalog
	askKey     string
	optionKey  string
	confirmKey string
	savedKey   string
}

func (f *trackFlow) Kind() Kind { return f.kind }

func (f *trackFlow) Run(ctx context.Context, sess *Session, gw telephony.Gateway) error {
	tracks, err := f.catalogs.ListTracks(ctx, sess.UserID, f.trackKind)
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load tracks")
	}
	if len(tracks) == 0 {
		return appErrors.ErrNoData
	}

	prompts := []string{f.catalog.Render(ctx, sess.UserID, f.askKey, nil)}
	allowed := make([]string, 0, len(tracks))
	byKey := make(map[string]*models.Track, len(tracks))
	for i := range tracks {
		key := strconv.Itoa(tracks[i].Key)
		prompts = append(prompts, f.catalog.Render(ctx, sess.UserID, f.optionKey, map[string]string{
			"name": tracks[i].Name, "key": key,
		}))
		allowed = append(allowed, key)
		byKey[key] = &tracks[i]
	}

	choice, err := f.engine.Ask(ctx, sess, gw, Step{
		Name:    string(f.kind) + ".track",
		Prompts: prompts,
		Grammar: DigitRange{Min: 1, Max: 2},
		Allowed: allowed,
		Confirm: func(in string) string {
			return f.catalog.Render(ctx, sess.UserID, f.confirmKey, map[string]string{"name": byKey[in].Name})
		},
	})
	if err != nil {
		return err
	}
	track := byKey[choice]

	sess.State = StateConfirming
	if err := f.surveys.Enroll(ctx, service.EnrollRequest{
		UserID:    sess.UserID,
		StudentID: sess.Target.ID,
		Kind:      f.trackKind,
		TrackID:   track.ID,
		Year:      sess.Year,
	}); err != nil {
		return err
	}

	gw.Announce(ctx, f.catalog.Render(ctx, sess.UserID, f.savedKey, map[string]string{"name": track.Name}))
	return nil
}
