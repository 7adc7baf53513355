package flow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/buzz-code/event-management-nra-sub001/internal/models"
	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	appErrors "github.com/buzz-code/event-management-nra-sub001/pkg/errors"
)

// fulfillmentFlow runs the post-event survey: a fixed number of keypad
// ratings about the caller's most recent past event.
type fulfillmentFlow struct {
	engine    *Engine
	events    eventStore
	surveys   surveyStore
	catalog   *texts.Catalog
	questions int
	now       func() time.Time
}

func (f *fulfillmentFlow) Kind() Kind { return KindFulfillment }

func (f *fulfillmentFlow) Run(ctx context.Context, sess *Session, gw telephony.Gateway) error {
	event, err := f.events.LatestPastEvent(ctx, sess.UserID, sess.Target.ID, f.now())
	if err != nil {
		return err
	}
	if event == nil {
		return appErrors.ErrNoData
	}

	gw.Announce(ctx, f.catalog.Render(ctx, sess.UserID, texts.FulfillIntro, map[string]string{
		"type": event.EventTypeName,
		"date": formatDate(event.EventDate),
	}))

	answers := make([]models.FulfillmentAnswer, 0, f.questions)
	for n := 1; n <= f.questions; n++ {
		questionKey := texts.SurveyQuestionKey(n)
		question := f.catalog.Render(ctx, sess.UserID, questionKey, nil)

		rating, err := f.engine.Ask(ctx, sess, gw, Step{
			Name:    fmt.Sprintf("fulfill.q%d", n),
			Prompts: []string{f.catalog.Render(ctx, sess.UserID, texts.FulfillAskRating, map[string]string{"question": question})},
			Grammar: FixedDigits(1),
			Allowed: []string{"1", "2", "3", "4", "5"},
		})
		if err != nil {
			return err
		}
		value, _ := strconv.Atoi(rating)
		answers = append(answers, models.FulfillmentAnswer{
			UserID:      sess.UserID,
			EventID:     event.ID,
			QuestionKey: questionKey,
			Rating:      value,
		})
	}

	sess.State = StateConfirming
	if err := f.surveys.SubmitFulfillment(ctx, service.FulfillmentRequest{
		UserID:  sess.UserID,
		EventID: event.ID,
		Answers: answers,
	}); err != nil {
		return err
	}

	gw.Announce(ctx, f.catalog.Render(ctx, sess.UserID, texts.FulfillSaved, nil))
	return nil
}
