package flow

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	"github.com/buzz-code/event-management-nra-sub001/pkg/config"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// scriptGateway feeds a scripted digit sequence to the flows and records
// everything spoken back.
type scriptGateway struct {
	inputs    []string
	announced []string
	hungUp    bool
	farewell  []string
}

func (g *scriptGateway) Read(_ context.Context, prompts []string, _ telephony.ReadSpec) (string, error) {
	g.announced = append(g.announced, prompts...)
	if len(g.inputs) == 0 {
		return "", appErrors.ErrHangup
	}
	in := g.inputs[0]
	g.inputs = g.inputs[1:]
	return in, nil
}

func (g *scriptGateway) Announce(_ context.Context, prompts ...string) {
	g.announced = append(g.announced, prompts...)
}

func (g *scriptGateway) Hangup(_ context.Context, prompts ...string) {
	g.hungUp = true
	g.farewell = append(g.farewell, prompts...)
}

func (g *scriptGateway) heard(fragment string) bool {
	for _, line := range g.announced {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

type fakeIdentity struct {
	students     map[string]*models.StudentDetail
	classmates   map[string]*models.StudentDetail
	classmateErr error
}

func (f *fakeIdentity) Resolve(_ context.Context, _, tz string, _ int) (*models.StudentDetail, error) {
	if d, ok := f.students[tz]; ok {
		return d, nil
	}
	return nil, appErrors.ErrCallerNotFound
}

func (f *fakeIdentity) ResolveRepresentative(ctx context.Context, userID, tz string, year int) (*models.StudentDetail, error) {
	d, err := f.Resolve(ctx, userID, tz, year)
	if err != nil {
		return nil, err
	}
	if d.IsRepresentative == nil || !*d.IsRepresentative {
		return nil, appErrors.ErrNoActiveClass
	}
	return d, nil
}

func (f *fakeIdentity) ResolveClassmate(_ context.Context, _, tz, _ string, _ int) (*models.StudentDetail, error) {
	if f.classmateErr != nil {
		return nil, f.classmateErr
	}
	if d, ok := f.classmates[tz]; ok {
		return d, nil
	}
	return nil, appErrors.ErrInvalidInput
}

type fakeEvents struct {
	existing *models.Event
	giftIDs  []string
	hasPrior bool
	hasPast  bool
	latest   *models.EventDetail
	saved    []service.SaveEventRequest
	saveErr  error
}

func (f *fakeEvents) FindExisting(context.Context, string, string, string, time.Time) (*models.Event, error) {
	return f.existing, nil
}

func (f *fakeEvents) Save(_ context.Context, req service.SaveEventRequest) (*models.Event, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, req)
	return &models.Event{ID: "ev-1", EventDate: req.EventDate}, nil
}

func (f *fakeEvents) GiftIDs(context.Context, string) ([]string, error) {
	return f.giftIDs, nil
}

func (f *fakeEvents) HasPriorEvents(context.Context, string, string) (bool, error) {
	return f.hasPrior, nil
}

func (f *fakeEvents) HasPastEvents(context.Context, string, string, time.Time) (bool, error) {
	return f.hasPast, nil
}

func (f *fakeEvents) LatestPastEvent(context.Context, string, string, time.Time) (*models.EventDetail, error) {
	return f.latest, nil
}

type fakeSurveys struct {
	enrollments  []service.EnrollRequest
	fulfillments []service.FulfillmentRequest
}

func (f *fakeSurveys) Enroll(_ context.Context, req service.EnrollRequest) error {
	f.enrollments = append(f.enrollments, req)
	return nil
}

func (f *fakeSurveys) SubmitFulfillment(_ context.Context, req service.FulfillmentRequest) error {
	f.fulfillments = append(f.fulfillments, req)
	return nil
}

type fakeCatalogs struct {
	types  []models.EventType
	gifts  []models.Gift
	levels []models.LevelType
	tracks []models.Track
}

func (f *fakeCatalogs) ListEventTypes(context.Context, string) ([]models.EventType, error) {
	return f.types, nil
}

func (f *fakeCatalogs) ListGifts(context.Context, string) ([]models.Gift, error) {
	return f.gifts, nil
}

func (f *fakeCatalogs) ListLevelTypes(context.Context, string) ([]models.LevelType, error) {
	return f.levels, nil
}

func (f *fakeCatalogs) ListTracks(_ context.Context, _, kind string) ([]models.Track, error) {
	var out []models.Track
	for _, t := range f.tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

func student(id, tz, name string) *models.StudentDetail {
	classID := "class-1"
	year := time.Now().Year()
	teacherID := "teacher-1"
	return &models.StudentDetail{
		Student: models.Student{
			ID: id, UserID: "u1", TZ: tz, FullName: name, FamilyKey: "fam-" + id, Active: true,
		},
		ClassID:        &classID,
		ClassYear:      &year,
		ClassTeacherID: &teacherID,
	}
}

func newTestOrchestrator(identity *fakeIdentity, events *fakeEvents, surveys *fakeSurveys, catalogs *fakeCatalogs, cfg config.IVRConfig) *Orchestrator {
	catalog := texts.NewCatalog(nil, nil, time.Minute, nil)
	engine := NewEngine(catalog, cfg.MaxAttempts, nil, nil)
	return NewOrchestrator(identity, events, surveys, catalogs, catalog, engine, cfg, nil, nil)
}

func baseConfig() config.IVRConfig {
	return config.IVRConfig{
		MaxAttempts:      3,
		MaxGifts:         2,
		ProxyNumbers:     []string{"035551000"},
		DefaultUserScope: "u1",
		SurveyQuestions:  3,
	}
}

func TestRunReportEventFullCall(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{}
	catalogs := &fakeCatalogs{
		types: []models.EventType{
			{ID: "type-bm", Key: 1, Name: "Bat Mitzvah"},
			{ID: "type-sd", Key: 2, Name: "Siddur Party"},
		},
		gifts: []models.Gift{
			{ID: "gift-1", Key: 1, Name: "Book"},
			{ID: "gift-2", Key: 2, Name: "Candlesticks"},
			{ID: "gift-3", Key: 3, Name: "Jewelry"},
		},
	}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, catalogs, baseConfig())

	gw := &scriptGateway{inputs: []string{
		"123456789", // identity
		"1",         // menu: report
		"1",         // event type: Bat Mitzvah
		"15062026",  // date
		"1", "3",    // gifts (cap of two, no closing 0 needed)
	}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c1", Phone: "0521112222", CalledNumber: "035552000"}, gw)

	require.Len(t, events.saved, 1)
	req := events.saved[0]
	assert.Equal(t, "st-1", req.Student.ID)
	assert.Equal(t, "type-bm", req.EventTypeID)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), req.EventDate)
	assert.Equal(t, []string{"gift-1", "gift-3"}, req.GiftIDs)
	assert.Equal(t, models.ReportOriginStudent, req.ReporterKind)
	require.NotNil(t, req.ReporterStudentID)
	assert.Equal(t, "st-1", *req.ReporterStudentID)

	assert.True(t, gw.heard("Hello Rivka Cohen."))
	assert.True(t, gw.heard("This is a new report."))
	assert.True(t, gw.heard("15/06/2026"))
	assert.True(t, gw.hungUp)
	assert.Contains(t, strings.Join(gw.farewell, " "), "Goodbye")
}

func TestRunDuplicateTripleBecomesEdit(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{
		existing: &models.Event{ID: "ev-old", StudentID: "st-1", EventTypeID: "type-bm", ReportOrigin: models.ReportOriginStudent},
		giftIDs:  []string{"gift-1"},
		hasPrior: true,
	}
	catalogs := &fakeCatalogs{
		types: []models.EventType{{ID: "type-bm", Key: 1, Name: "Bat Mitzvah"}},
		gifts: []models.Gift{{ID: "gift-1", Key: 1, Name: "Book"}},
	}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, catalogs, baseConfig())

	gw := &scriptGateway{inputs: []string{"123456789", "1", "1", "15062026", "2", "0"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c2", Phone: "0521112222"}, gw)

	// The invalid gift key 2 is rejected; 0 closes the loop with none chosen.
	require.Len(t, events.saved, 1)
	assert.NotNil(t, events.saved[0].Existing)
	assert.Empty(t, events.saved[0].GiftIDs)
	assert.True(t, gw.heard("A report already exists"))
	assert.True(t, gw.heard("You previously chose Book"))
	assert.False(t, gw.heard("This is a new report."))
}

func TestRunSaveFailureAnnouncesFarewell(t *testing.T) {
	saveErrs := map[string]error{
		"typed":       appErrors.WrapAs(appErrors.ErrPersistence, stderrors.New("connection refused"), ""),
		"bare wrap":   appErrors.Wrap(stderrors.New("connection refused"), appErrors.ErrPersistence.Code, "tx failed"),
		"plain error": stderrors.New("connection refused"),
	}
	for name, saveErr := range saveErrs {
		t.Run(name, func(t *testing.T) {
			identity := &fakeIdentity{students: map[string]*models.StudentDetail{
				"123456789": student("st-1", "123456789", "Rivka Cohen"),
			}}
			events := &fakeEvents{saveErr: saveErr}
			catalogs := &fakeCatalogs{types: []models.EventType{{ID: "type-bm", Key: 1, Name: "Bat Mitzvah"}}}
			o := newTestOrchestrator(identity, events, &fakeSurveys{}, catalogs, baseConfig())

			gw := &scriptGateway{inputs: []string{"123456789", "1", "1", "15062026"}}
			o.Run(context.Background(), telephony.CallInfo{CallID: "c11", Phone: "0521112222"}, gw)

			assert.Empty(t, events.saved)
			assert.True(t, gw.hungUp)
			assert.Contains(t, strings.Join(gw.farewell, " "),
				"something went wrong saving your report")
		})
	}
}

func TestRunThreeBadEntriesEndsCall(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{}}
	events := &fakeEvents{}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, &fakeCatalogs{}, baseConfig())

	gw := &scriptGateway{inputs: []string{"12", "1234", "12345678"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c3", Phone: "0521112222"}, gw)

	assert.Empty(t, events.saved)
	assert.True(t, gw.hungUp)
	assert.Contains(t, strings.Join(gw.farewell, " "), "Too many unrecognized entries")
}

func TestRunUnknownCallerIsTerminal(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{}}
	events := &fakeEvents{}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, &fakeCatalogs{}, baseConfig())

	gw := &scriptGateway{inputs: []string{"999999999"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c4", Phone: "0521112222"}, gw)

	assert.Empty(t, events.saved)
	assert.True(t, gw.hungUp)
	assert.Contains(t, strings.Join(gw.farewell, " "), "could not find your details")
}

func TestRunHangupMidCallStaysSilent(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{}
	catalogs := &fakeCatalogs{types: []models.EventType{{ID: "type-bm", Key: 1, Name: "Bat Mitzvah"}}}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, catalogs, baseConfig())

	// The script runs dry after the menu choice; the gateway reports hangup.
	gw := &scriptGateway{inputs: []string{"123456789", "1"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c5", Phone: "0521112222"}, gw)

	assert.Empty(t, events.saved)
	assert.False(t, gw.hungUp)
}

func TestMainMenuGatesOnHistory(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, &fakeCatalogs{}, baseConfig())

	// Without history only option 1 is accepted; three presses of 2 end the call.
	gw := &scriptGateway{inputs: []string{"123456789", "2", "2", "2"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c6", Phone: "0521112222"}, gw)

	assert.True(t, gw.hungUp)
	assert.Contains(t, strings.Join(gw.farewell, " "), "Too many unrecognized entries")
	assert.False(t, gw.heard("lottery"))
}

func TestProxyLineClassmateReport(t *testing.T) {
	rep := student("st-rep", "111111111", "Sara Levi")
	isRep := true
	rep.IsRepresentative = &isRep
	mate := student("st-mate", "222222222", "Dina Katz")

	identity := &fakeIdentity{
		students:   map[string]*models.StudentDetail{"111111111": rep},
		classmates: map[string]*models.StudentDetail{"222222222": mate},
	}
	events := &fakeEvents{}
	catalogs := &fakeCatalogs{types: []models.EventType{{ID: "type-bm", Key: 1, Name: "Bat Mitzvah"}}}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, catalogs, baseConfig())

	gw := &scriptGateway{inputs: []string{
		"111111111", // representative identity
		"2",         // report for a classmate
		"222222222", // classmate identity
		"1",         // event type
		"01032026",  // date
	}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c7", Phone: "0521112222", CalledNumber: "035551000"}, gw)

	require.Len(t, events.saved, 1)
	req := events.saved[0]
	assert.Equal(t, "st-mate", req.Student.ID)
	assert.Equal(t, models.ReportOriginProxy, req.ReporterKind)
	require.NotNil(t, req.ReporterStudentID)
	assert.Equal(t, "st-rep", *req.ReporterStudentID)
	assert.True(t, gw.heard("Reporting for Dina Katz."))
}

func TestProxyClassmateLookupFailureEndsCall(t *testing.T) {
	rep := student("st-rep", "111111111", "Sara Levi")
	isRep := true
	rep.IsRepresentative = &isRep

	identity := &fakeIdentity{
		students:     map[string]*models.StudentDetail{"111111111": rep},
		classmateErr: appErrors.WrapAs(appErrors.ErrInternal, stderrors.New("connection refused"), "failed to resolve classmate"),
	}
	events := &fakeEvents{}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, &fakeCatalogs{}, baseConfig())

	// One lookup failure must end the call, not burn through retries as if
	// the entry were wrong.
	gw := &scriptGateway{inputs: []string{"111111111", "2", "222222222", "222222222", "222222222"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c12", Phone: "0521112222", CalledNumber: "035551000"}, gw)

	assert.Empty(t, events.saved)
	assert.True(t, gw.hungUp)
	assert.Len(t, gw.inputs, 2)
	assert.False(t, gw.heard("That entry was not recognized"))
	assert.Contains(t, strings.Join(gw.farewell, " "), "something went wrong saving your report")
}

func TestLotteryEnrollment(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{hasPrior: true}
	surveys := &fakeSurveys{}
	catalogs := &fakeCatalogs{tracks: []models.Track{
		{ID: "tr-1", Kind: models.TrackKindLottery, Key: 1, Name: "Grand Draw"},
		{ID: "tr-2", Kind: models.TrackKindVoucher, Key: 1, Name: "Bookstore"},
	}}
	o := newTestOrchestrator(identity, events, surveys, catalogs, baseConfig())

	gw := &scriptGateway{inputs: []string{"123456789", "2", "1"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c8", Phone: "0521112222"}, gw)

	require.Len(t, surveys.enrollments, 1)
	assert.Equal(t, "tr-1", surveys.enrollments[0].TrackID)
	assert.Equal(t, models.TrackKindLottery, surveys.enrollments[0].Kind)
	assert.Equal(t, "st-1", surveys.enrollments[0].StudentID)
	assert.True(t, gw.heard("You chose the Grand Draw track."))
	assert.True(t, gw.heard("You are entered in the Grand Draw track."))
}

func TestVoucherChoiceEchoedBeforeSave(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{hasPrior: true}
	surveys := &fakeSurveys{}
	catalogs := &fakeCatalogs{tracks: []models.Track{
		{ID: "tr-2", Kind: models.TrackKindVoucher, Key: 1, Name: "Bookstore"},
	}}
	o := newTestOrchestrator(identity, events, surveys, catalogs, baseConfig())

	gw := &scriptGateway{inputs: []string{"123456789", "3", "1"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c13", Phone: "0521112222"}, gw)

	require.Len(t, surveys.enrollments, 1)
	assert.Equal(t, models.TrackKindVoucher, surveys.enrollments[0].Kind)
	assert.True(t, gw.heard("You chose the Bookstore voucher track."))
}

func TestFulfillmentSurvey(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{
		hasPrior: true,
		hasPast:  true,
		latest: &models.EventDetail{
			Event:         models.Event{ID: "ev-9", EventDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			EventTypeName: "Bat Mitzvah",
		},
	}
	surveys := &fakeSurveys{}
	o := newTestOrchestrator(identity, events, surveys, &fakeCatalogs{}, baseConfig())

	gw := &scriptGateway{inputs: []string{"123456789", "4", "5", "4", "3"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c9", Phone: "0521112222"}, gw)

	require.Len(t, surveys.fulfillments, 1)
	sub := surveys.fulfillments[0]
	assert.Equal(t, "ev-9", sub.EventID)
	require.Len(t, sub.Answers, 3)
	assert.Equal(t, 5, sub.Answers[0].Rating)
	assert.Equal(t, 4, sub.Answers[1].Rating)
	assert.Equal(t, 3, sub.Answers[2].Rating)
	assert.True(t, gw.heard("Bat Mitzvah"))
}

func TestFulfillmentSurveyCapsAtDistinctQuestions(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{
		hasPrior: true,
		hasPast:  true,
		latest: &models.EventDetail{
			Event:         models.Event{ID: "ev-9", EventDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			EventTypeName: "Bat Mitzvah",
		},
	}
	surveys := &fakeSurveys{}
	cfg := baseConfig()
	cfg.SurveyQuestions = 9
	o := newTestOrchestrator(identity, events, surveys, &fakeCatalogs{}, cfg)

	// A misconfigured question count must not repeat questions; the survey
	// stops once every distinct question has been asked.
	gw := &scriptGateway{inputs: []string{"123456789", "4", "5", "4", "3"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c14", Phone: "0521112222"}, gw)

	require.Len(t, surveys.fulfillments, 1)
	sub := surveys.fulfillments[0]
	require.Len(t, sub.Answers, texts.SurveyQuestionCount())
	seen := make(map[string]bool)
	for _, a := range sub.Answers {
		assert.False(t, seen[a.QuestionKey], a.QuestionKey)
		seen[a.QuestionKey] = true
	}
	assert.True(t, gw.hungUp)
}

func TestEmptyEventTypeCatalogEndsCall(t *testing.T) {
	identity := &fakeIdentity{students: map[string]*models.StudentDetail{
		"123456789": student("st-1", "123456789", "Rivka Cohen"),
	}}
	events := &fakeEvents{}
	o := newTestOrchestrator(identity, events, &fakeSurveys{}, &fakeCatalogs{}, baseConfig())

	gw := &scriptGateway{inputs: []string{"123456789", "1"}}
	o.Run(context.Background(), telephony.CallInfo{CallID: "c10", Phone: "0521112222"}, gw)

	assert.Empty(t, events.saved)
	assert.True(t, gw.hungUp)
	assert.Contains(t, strings.Join(gw.farewell, " "), "not configured yet")
}
