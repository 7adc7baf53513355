package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// reportFlow collects one celebration report: event type, date, optional
// level, gift selections, then a single transactional save.
type reportFlow struct {
	engine   *Engine
	events   eventStore
	catalogs catalogSource
	catalog  *texts.Catalog
	maxGifts int
	logger   *zap.Logger
}

func (f *reportFlow) Kind() Kind { return KindReportEvent }

func (f *reportFlow) Run(ctx context.Context, sess *Session, gw telephony.Gateway) error {
	userID := sess.UserID

	eventType, err := f.askEventType(ctx, sess, gw)
	if err != nil {
		return err
	}

	date, err := f.askEventDate(ctx, sess, gw)
	if err != nil {
		return err
	}

	// Existence decides create versus edit before any further collection,
	// so the caller hears which mode they are in.
	existing, err := f.events.FindExisting(ctx, userID, sess.Target.ID, eventType.ID, date)
	if err != nil {
		return err
	}
	modeKey := texts.EventModeCreate
	if existing != nil {
		modeKey = texts.EventModeEdit
	}
	gw.Announce(ctx, f.catalog.Render(ctx, userID, modeKey, nil))

	levelID, err := f.askLevel(ctx, sess, gw)
	if err != nil {
		return err
	}

	giftIDs, err := f.collectGifts(ctx, sess, gw, existing)
	if err != nil {
		return err
	}

	reporterKind := models.ReportOriginStudent
	if sess.IsProxy() {
		reporterKind = models.ReportOriginProxy
	}
	reporterID := sess.Caller.ID

	sess.State = StateConfirming
	if _, err := f.events.Save(ctx, service.SaveEventRequest{
		UserID:            userID,
		Student:           sess.Target,
		EventTypeID:       eventType.ID,
		EventDate:         date,
		LevelTypeID:       levelID,
		GiftIDs:           giftIDs,
		ReporterStudentID: &reporterID,
		ReporterKind:      reporterKind,
		Existing:          existing,
	}); err != nil {
		return err
	}

	f.logger.Info("event report saved",
		zap.String("call_id", sess.Call.CallID),
		zap.String("student_id", sess.Target.ID),
		zap.String("event_type_id", eventType.ID),
		zap.Bool("edit", existing != nil))

	gw.Announce(ctx, f.catalog.Render(ctx, userID, texts.EventSaved, map[string]string{
		"type": eventType.Name,
		"date": formatDate(date),
	}))
	return nil
}

func (f *reportFlow) askEventType(ctx context.Context, sess *Session, gw telephony.Gateway) (*models.EventType, error) {
	types, err := f.catalogs.ListEventTypes(ctx, sess.UserID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load event types")
	}
	if len(types) == 0 {
		return nil, appErrors.ErrNoData
	}

	prompts := []string{f.catalog.Render(ctx, sess.UserID, texts.EventAskType, nil)}
	allowed := make([]string, 0, len(types))
	byKey := make(map[string]*models.EventType, len(types))
	for i := range types {
		key := strconv.Itoa(types[i].Key)
		prompts = append(prompts, f.catalog.Render(ctx, sess.UserID, texts.EventTypeOption, map[string]string{
			"name": types[i].Name, "key": key,
		}))
		allowed = append(allowed, key)
		byKey[key] = &types[i]
	}

	choice, err := f.engine.Ask(ctx, sess, gw, Step{
		Name:    "event.type",
		Prompts: prompts,
		Grammar: DigitRange{Min: 1, Max: 2},
		Allowed: allowed,
		Confirm: func(in string) string {
			return f.catalog.Render(ctx, sess.UserID, texts.EventConfirmType, map[string]string{"name": byKey[in].Name})
		},
	})
	if err != nil {
		return nil, err
	}
	return byKey[choice], nil
}

func (f *reportFlow) askEventDate(ctx context.Context, sess *Session, gw telephony.Gateway) (time.Time, error) {
	var date time.Time
	_, err := f.engine.Ask(ctx, sess, gw, Step{
		Name:    "event.date",
		Prompts: []string{f.catalog.Render(ctx, sess.UserID, texts.EventAskDate, nil)},
		Grammar: FixedDigits(8),
		Validate: func(in string) error {
			parsed, err := parseDate(in)
			if err != nil {
				return appErrors.ErrInvalidInput
			}
			date = parsed
			return nil
		},
		Confirm: func(string) string {
			return f.catalog.Render(ctx, sess.UserID, texts.EventConfirmDate, map[string]string{"date": formatDate(date)})
		},
	})
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}

// askLevel is skipped entirely when the scope defines no level catalog.
func (f *reportFlow) askLevel(ctx context.Context, sess *Session, gw telephony.Gateway) (*string, error) {
	levels, err := f.catalogs.ListLevelTypes(ctx, sess.UserID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load level types")
	}
	if len(levels) == 0 {
		return nil, nil
	}

	prompts := []string{f.catalog.Render(ctx, sess.UserID, texts.EventAskLevel, nil)}
	allowed := make([]string, 0, len(levels))
	byKey := make(map[string]*models.LevelType, len(levels))
	for i := range levels {
		key := strconv.Itoa(levels[i].Key)
		prompts = append(prompts, f.catalog.Render(ctx, sess.UserID, texts.EventLevelOption, map[string]string{
			"name": levels[i].Name, "key": key,
		}))
		allowed = append(allowed, key)
		byKey[key] = &levels[i]
	}

	choice, err := f.engine.Ask(ctx, sess, gw, Step{
		Name:    "event.level",
		Prompts: prompts,
		Grammar: DigitRange{Min: 1, Max: 2},
		Allowed: allowed,
		Confirm: func(in string) string {
			return f.catalog.Render(ctx, sess.UserID, texts.EventConfirmLevel, map[string]string{"name": byKey[in].Name})
		},
	})
	if err != nil {
		return nil, err
	}
	return &byKey[choice].ID, nil
}

// collectGifts loops gift selection until the caller presses 0 or the cap is
// reached. Duplicates are confirmed but stored once; an empty gift catalog
// skips the step. When editing, the caller hears the choices being replaced.
func (f *reportFlow) collectGifts(ctx context.Context, sess *Session, gw telephony.Gateway, existing *models.Event) ([]string, error) {
	gifts, err := f.catalogs.ListGifts(ctx, sess.UserID)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load gifts")
	}
	if len(gifts) == 0 {
		return nil, nil
	}

	if existing != nil {
		f.announceCurrentGifts(ctx, sess, gw, existing.ID, gifts)
	}

	prompts := []string{f.catalog.Render(ctx, sess.UserID, texts.GiftAsk, nil)}
	allowed := []string{"0"}
	byKey := make(map[string]*models.Gift, len(gifts))
	for i := range gifts {
		key := strconv.Itoa(gifts[i].Key)
		prompts = append(prompts, f.catalog.Render(ctx, sess.UserID, texts.GiftOption, map[string]string{
			"name": gifts[i].Name, "key": key,
		}))
		allowed = append(allowed, key)
		byKey[key] = &gifts[i]
	}

	var selected []string
	seen := make(map[string]bool)
	for round := 1; len(selected) < f.maxGifts; round++ {
		choice, err := f.engine.Ask(ctx, sess, gw, Step{
			Name:    fmt.Sprintf("event.gift.%d", round),
			Prompts: prompts,
			Grammar: DigitRange{Min: 1, Max: 2},
			Allowed: allowed,
			Confirm: func(in string) string {
				if in == "0" {
					return ""
				}
				return f.catalog.Render(ctx, sess.UserID, texts.GiftConfirm, map[string]string{"name": byKey[in].Name})
			},
		})
		if err != nil {
			return nil, err
		}
		if choice == "0" {
			break
		}
		id := byKey[choice].ID
		if !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}
	return selected, nil
}

// announceCurrentGifts speaks the gift choices the edit is about to replace.
// Best-effort; a lookup failure skips the reminder rather than failing the call.
func (f *reportFlow) announceCurrentGifts(ctx context.Context, sess *Session, gw telephony.Gateway, eventID string, gifts []models.Gift) {
	ids, err := f.events.GiftIDs(ctx, eventID)
	if err != nil {
		f.logger.Warn("could not load current gifts", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	byID := make(map[string]string, len(gifts))
	for _, g := range gifts {
		byID[g.ID] = g.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	gw.Announce(ctx, f.catalog.Render(ctx, sess.UserID, texts.GiftCurrent, map[string]string{
		"names": strings.Join(names, ", "),
	}))
}

// parseDate decodes a keypad date entered as ddmmyyyy. The round-trip check
// rejects out-of-range components that time.Date would silently normalize.
func parseDate(in string) (time.Time, error) {
	if len(in) != 8 {
		return time.Time{}, fmt.Errorf("date must be 8 digits")
	}
	day, err := strconv.Atoi(in[0:2])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(in[2:4])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(in[4:8])
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("no such calendar date")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
