package flow

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	"github.com/buzz-code/event-management-nra-sub001/pkg/config"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

type identityResolver interface {
	Resolve(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error)
	ResolveRepresentative(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error)
	ResolveClassmate(ctx context.Context, userID, tz, classID string, year int) (*models.StudentDetail, error)
}

type eventStore interface {
	FindExisting(ctx context.Context, userID, studentID, eventTypeID string, date time.Time) (*models.Event, error)
	Save(ctx context.Context, req service.SaveEventRequest) (*models.Event, error)
	GiftIDs(ctx context.Context, eventID string) ([]string, error)
	HasPriorEvents(ctx context.Context, userID, studentID string) (bool, error)
	HasPastEvents(ctx context.Context, userID, studentID string, now time.Time) (bool, error)
	LatestPastEvent(ctx context.Context, userID, studentID string, now time.Time) (*models.EventDetail, error)
}

type surveyStore interface {
	Enroll(ctx context.Context, req service.EnrollRequest) error
	SubmitFulfillment(ctx context.Context, req service.FulfillmentRequest) error
}

type catalogSource interface {
	ListEventTypes(ctx context.Context, userID string) ([]models.EventType, error)
	ListGifts(ctx context.Context, userID string) ([]models.Gift, error)
	ListLevelTypes(ctx context.Context, userID string) ([]models.LevelType, error)
	ListTracks(ctx context.Context, userID, kind string) ([]models.Track, error)
}

// SubFlow drives one menu option's conversation to completion. Sub-flows are
// independent; adding one never touches the others.
type SubFlow interface {
	Kind() Kind
	Run(ctx context.Context, sess *Session, gw telephony.Gateway) error
}

// Orchestrator sequences a call: identification, the history-dependent main
// menu, the chosen sub-flow, and the single announce-and-hangup exit.
type Orchestrator struct {
	identity identityResolver
	events   eventStore
	catalog  *texts.Catalog
	engine   *Engine
	cfg      config.IVRConfig
	metrics  *service.MetricsService
	logger   *zap.Logger
	now      func() time.Time
	flows    map[Kind]SubFlow
}

// NewOrchestrator wires the sub-flows and returns the orchestrator.
func NewOrchestrator(identity identityResolver, events eventStore, surveys surveyStore, catalogs catalogSource, catalog *texts.Catalog, engine *Engine, cfg config.IVRConfig, metrics *service.MetricsService, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		identity: identity,
		events:   events,
		catalog:  catalog,
		engine:   engine,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		flows:    make(map[Kind]SubFlow),
	}

	report := &reportFlow{
		engine:   engine,
		events:   events,
		catalogs: catalogs,
		catalog:  catalog,
		maxGifts: cfg.MaxGifts,
		logger:   logger,
	}
	o.register(report)
	o.register(&proxyFlow{engine: engine, identity: identity, report: report, catalog: catalog})
	o.register(&trackFlow{
		kind: KindLottery, trackKind: models.TrackKindLottery,
		engine: engine, catalogs: catalogs, surveys: surveys, catalog: catalog,
		askKey: texts.LotteryAskTrack, optionKey: texts.LotteryOption,
		confirmKey: texts.LotteryConfirmTrack, savedKey: texts.LotterySaved,
	})
	o.register(&trackFlow{
		kind: KindTrackSelection, trackKind: models.TrackKindVoucher,
		engine: engine, catalogs: catalogs, surveys: surveys, catalog: catalog,
		askKey: texts.VoucherAskTrack, optionKey: texts.VoucherOption,
		confirmKey: texts.VoucherConfirmTrack, savedKey: texts.VoucherSaved,
	})
	// The survey cannot ask more questions than have distinct keys.
	questions := cfg.SurveyQuestions
	if questions <= 0 || questions > texts.SurveyQuestionCount() {
		questions = texts.SurveyQuestionCount()
	}
	o.register(&fulfillmentFlow{
		engine: engine, events: events, surveys: surveys, catalog: catalog,
		questions: questions, now: o.nowFunc,
	})
	return o
}

func (o *Orchestrator) register(f SubFlow) {
	o.flows[f.Kind()] = f
}

func (o *Orchestrator) nowFunc() time.Time {
	return o.now()
}

// Run drives one call from answer to hangup. It is installed as the
// telephony bridge's Runner; it must never panic across calls and always
// ends the call through one announce-and-hangup exit.
func (o *Orchestrator) Run(ctx context.Context, call telephony.CallInfo, gw telephony.Gateway) {
	start := o.now()
	sess := NewSession(call, o.cfg.DefaultUserScope, o.now().Year())

	logger := o.logger.With(zap.String("call_id", call.CallID), zap.String("phone", call.Phone))
	logger.Info("call started")

	err := o.drive(ctx, sess, gw)
	sess.State = StateDone

	outcome := "completed"
	switch {
	case err == nil:
		gw.Hangup(ctx, o.catalog.Render(ctx, sess.UserID, texts.GeneralGoodbye, nil))
	case appErrors.IsHangup(err):
		outcome = "hangup"
	default:
		appErr := appErrors.FromError(err)
		outcome = strings.ToLower(appErr.Code)
		logger.Info("call ended with failure", zap.String("code", appErr.Code), zap.Error(appErr))
		textKey := appErr.TextKey
		if textKey == "" {
			// Errors built without a text key still get a real farewell.
			textKey = appErrors.ErrInternal.TextKey
		}
		gw.Hangup(ctx, o.catalog.Render(ctx, sess.UserID, textKey, nil))
	}

	logger.Info("call finished",
		zap.String("flow", flowLabel(sess.Flow)),
		zap.String("outcome", outcome),
		zap.Int("steps", len(sess.Answers())),
		zap.Int("retries", sess.TotalRetries()),
		zap.Duration("duration", o.now().Sub(start)))
	o.metrics.ObserveCall(flowLabel(sess.Flow), outcome, o.now().Sub(start))
}

func (o *Orchestrator) drive(ctx context.Context, sess *Session, gw telephony.Gateway) error {
	proxyLine := contains(o.cfg.ProxyNumbers, sess.Call.CalledNumber)

	tz, err := o.engine.Ask(ctx, sess, gw, Step{
		Name:    "identify.tz",
		Prompts: []string{o.catalog.Render(ctx, sess.UserID, texts.IdentifyAskTZ, nil)},
		Grammar: FixedDigits(9),
		Confirm: func(string) string { return "" },
	})
	if err != nil {
		return err
	}

	var caller *models.StudentDetail
	if proxyLine {
		caller, err = o.identity.ResolveRepresentative(ctx, sess.UserID, tz, sess.Year)
	} else {
		caller, err = o.identity.Resolve(ctx, sess.UserID, tz, sess.Year)
	}
	if err != nil {
		return err
	}
	sess.Caller = caller
	sess.Target = caller
	gw.Announce(ctx, o.catalog.Render(ctx, sess.UserID, texts.IdentifyWelcome, map[string]string{"name": caller.FullName}))

	if proxyLine {
		sess.Flow = KindProxyReport
		sess.State = StateSubFlow
		return o.flows[KindProxyReport].Run(ctx, sess, gw)
	}

	sess.State = StateMainMenu
	kind, err := o.mainMenu(ctx, sess, gw)
	if err != nil {
		return err
	}
	sess.Flow = kind
	sess.State = StateSubFlow
	return o.flows[kind].Run(ctx, sess, gw)
}

// mainMenu offers the options the caller's history earns: reporting is
// always offered, lottery and voucher tracks require a prior event, the
// follow-up survey requires a past event.
func (o *Orchestrator) mainMenu(ctx context.Context, sess *Session, gw telephony.Gateway) (Kind, error) {
	hasPrior, err := o.events.HasPriorEvents(ctx, sess.UserID, sess.Target.ID)
	if err != nil {
		return KindNone, err
	}
	hasPast := false
	if hasPrior {
		hasPast, err = o.events.HasPastEvents(ctx, sess.UserID, sess.Target.ID, o.now())
		if err != nil {
			return KindNone, err
		}
	}

	type option struct {
		key     string
		textKey string
		kind    Kind
	}
	options := []option{{"1", texts.MenuOptionReport, KindReportEvent}}
	if hasPrior {
		options = append(options,
			option{"2", texts.MenuOptionLottery, KindLottery},
			option{"3", texts.MenuOptionVoucher, KindTrackSelection})
	}
	if hasPast {
		options = append(options, option{"4", texts.MenuOptionFulfillment, KindFulfillment})
	}

	prompts := []string{o.catalog.Render(ctx, sess.UserID, texts.MenuIntro, nil)}
	allowed := make([]string, 0, len(options))
	byKey := make(map[string]Kind, len(options))
	for _, opt := range options {
		prompts = append(prompts, o.catalog.Render(ctx, sess.UserID, opt.textKey, map[string]string{"key": opt.key}))
		allowed = append(allowed, opt.key)
		byKey[opt.key] = opt.kind
	}

	choice, err := o.engine.Ask(ctx, sess, gw, Step{
		Name:    "menu.choice",
		Prompts: prompts,
		Grammar: FixedDigits(1),
		Allowed: allowed,
		Confirm: func(string) string { return "" },
	})
	if err != nil {
		return KindNone, err
	}
	return byKey[choice], nil
}

func flowLabel(k Kind) string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}
