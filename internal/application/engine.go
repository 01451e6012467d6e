package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// Outcomes reported to OnFinish
const (
	OutcomeCompleted = "completed"
	OutcomeAbandoned = "abandoned"
)

// ErrNotRunning is returned for a channel without a running application
var ErrNotRunning = errors.New("no application running")

// ReviewPublisher receives completed applications
type ReviewPublisher interface {
	Publish(ctx context.Context, record pkg.ReviewRecord) error
}

// SessionCloser releases the session of a finished applicant
type SessionCloser interface {
	Close(ctx context.Context, userID string) error
}

// Engine runs application questionnaires. Each running application owns a
// message bus subscription on its channel; the subscription is released on
// completion, on abandon and when Start fails.
type Engine struct {
	platform core.Platform
	bus      *core.MessageBus
	review   ReviewPublisher
	sessions SessionCloser
	log      zerolog.Logger
	now      func() time.Time

	// OnFinish, when set, is called once per application that leaves the engine.
	OnFinish func(rt pkg.RoleType, outcome string)

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	state *State
	sub   *core.Subscription
}

// NewEngine creates an application engine
func NewEngine(platform core.Platform, bus *core.MessageBus, review ReviewPublisher, sessions SessionCloser, log zerolog.Logger) *Engine {
	return &Engine{
		platform: platform,
		bus:      bus,
		review:   review,
		sessions: sessions,
		log:      log,
		now:      time.Now,
		runs:     make(map[string]*run),
	}
}

// Start begins the questionnaire in channelID. It posts the instructions and
// the first question, then waits for the applicant's messages. On failure the
// session is closed and the channel removed.
func (e *Engine) Start(ctx context.Context, channelID string, applicant pkg.User, rt pkg.RoleType, questions []string) error {
	if len(questions) == 0 {
		return fmt.Errorf("start application for %s: no questions for %s", applicant.ID, rt)
	}

	st := &State{
		ID:           uuid.NewString(),
		ChannelID:    channelID,
		Applicant:    applicant,
		RoleType:     rt,
		Questions:    questions,
		LastActivity: e.now(),
	}

	e.mu.Lock()
	if _, exists := e.runs[channelID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("start application: channel %s already runs an application", channelID)
	}
	sub, err := e.bus.Subscribe(channelID, fromApplicant(applicant.ID), e.onMessage)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start application: %w", err)
	}
	e.runs[channelID] = &run{state: st, sub: sub}
	e.mu.Unlock()

	log := e.log.With().
		Str("application_id", st.ID).
		Str("channel_id", channelID).
		Str("user_id", applicant.ID).
		Str("role_type", string(rt)).
		Logger()

	if _, err := e.platform.SendMessage(ctx, channelID, instructionsMessage()); err != nil {
		return e.failStart(ctx, channelID, core.Provision("send instructions", err))
	}
	if _, err := e.platform.SendMessage(ctx, channelID, questionMessage(questions[0])); err != nil {
		return e.failStart(ctx, channelID, core.Provision("send question", err))
	}

	log.Info().Int("questions", len(questions)).Msg("application started")
	return nil
}

func (e *Engine) failStart(ctx context.Context, channelID string, cause error) error {
	r := e.take(channelID)
	if r == nil {
		return cause
	}
	r.sub.Close()
	return errors.Join(cause, e.release(ctx, r.state))
}

// onMessage advances the application of msg's channel by one answer
func (e *Engine) onMessage(ctx context.Context, msg core.MessagePosted) {
	e.mu.Lock()
	r, ok := e.runs[msg.ChannelID]
	if !ok {
		e.mu.Unlock()
		return
	}
	next, done, err := r.state.Record(msg.Content, e.now())
	if done && err == nil {
		delete(e.runs, msg.ChannelID)
	}
	e.mu.Unlock()

	if err != nil {
		e.log.Warn().Err(err).Str("channel_id", msg.ChannelID).Msg("answer ignored")
		return
	}

	if !done {
		if _, err := e.platform.SendMessage(ctx, msg.ChannelID, questionMessage(next)); err != nil {
			e.log.Error().Err(err).
				Str("channel_id", msg.ChannelID).
				Int("cursor", r.state.Cursor()).
				Msg("failed to send next question")
		}
		return
	}

	e.complete(ctx, r)
}

func (e *Engine) complete(ctx context.Context, r *run) {
	r.sub.Close()
	st := r.state

	var errs []error
	if _, err := e.platform.SendMessage(ctx, st.ChannelID, completeMessage()); err != nil {
		errs = append(errs, core.Provision("send completion notice", err))
	}
	if err := e.review.Publish(ctx, st.ReviewRecord(e.now().UTC())); err != nil {
		errs = append(errs, fmt.Errorf("publish review: %w", err))
	}
	errs = append(errs, e.release(ctx, st))

	log := e.log.With().
		Str("application_id", st.ID).
		Str("channel_id", st.ChannelID).
		Str("user_id", st.Applicant.ID).
		Logger()
	if err := errors.Join(errs...); err != nil {
		log.Error().Err(err).Msg("application completed with errors")
	} else {
		log.Info().Int("answers", len(st.Answers)).Msg("application completed")
	}

	if e.OnFinish != nil {
		e.OnFinish(st.RoleType, OutcomeCompleted)
	}
}

// Abandon stops the application in channelID without a review. The applicant
// is told why by direct message.
func (e *Engine) Abandon(ctx context.Context, channelID, reason string) error {
	r := e.take(channelID)
	if r == nil {
		return fmt.Errorf("abandon channel %s: %w", channelID, ErrNotRunning)
	}
	r.sub.Close()
	st := r.state

	var errs []error
	notice := core.Notice("Application Closed",
		fmt.Sprintf("Your %s application was closed: %s", st.RoleType.DisplayName(), reason), core.ColorError)
	if err := e.platform.SendDirectMessage(ctx, st.Applicant.ID, notice); err != nil {
		e.log.Warn().Err(err).Str("user_id", st.Applicant.ID).Msg("failed to notify abandoned applicant")
	}
	errs = append(errs, e.release(ctx, st))

	e.log.Info().
		Str("application_id", st.ID).
		Str("channel_id", channelID).
		Str("reason", reason).
		Int("answers", len(st.Answers)).
		Msg("application abandoned")

	if e.OnFinish != nil {
		e.OnFinish(st.RoleType, OutcomeAbandoned)
	}
	return errors.Join(errs...)
}

// AbandonIdle abandons every application without an answer for maxIdle and
// returns how many were stopped
func (e *Engine) AbandonIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := e.now().Add(-maxIdle)

	e.mu.Lock()
	var stale []string
	for channelID, r := range e.runs {
		if r.state.LastActivity.Before(cutoff) {
			stale = append(stale, channelID)
		}
	}
	e.mu.Unlock()

	n := 0
	for _, channelID := range stale {
		err := e.Abandon(ctx, channelID, fmt.Sprintf("no answer for %s", maxIdle))
		if errors.Is(err, ErrNotRunning) {
			continue
		}
		if err != nil {
			e.log.Error().Err(err).Str("channel_id", channelID).Msg("idle application teardown incomplete")
		}
		n++
	}
	return n
}

// Active returns the number of running applications
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runs)
}

// Progress returns the cursor of the application in channelID
func (e *Engine) Progress(channelID string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runs[channelID]
	if !ok {
		return 0, false
	}
	return r.state.Cursor(), true
}

// take removes and returns the run of channelID, nil if none
func (e *Engine) take(channelID string) *run {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runs[channelID]
	if !ok {
		return nil
	}
	delete(e.runs, channelID)
	return r
}

// release closes the applicant's session and deletes the channel
func (e *Engine) release(ctx context.Context, st *State) error {
	var errs []error
	if err := e.sessions.Close(ctx, st.Applicant.ID); err != nil {
		errs = append(errs, err)
	}
	if err := e.platform.DeleteChannel(ctx, st.ChannelID); err != nil {
		errs = append(errs, core.Provision("delete channel", err))
	}
	return errors.Join(errs...)
}

func fromApplicant(userID string) core.MessageFilter {
	return func(msg core.MessagePosted) bool {
		return msg.AuthorID == userID && !msg.AuthorIsBot
	}
}

func instructionsMessage() core.OutboundMessage {
	return core.Notice("Application Instructions",
		"Please answer each question in the order they are asked. Once all questions are answered, your application will be submitted for review.",
		core.ColorInfo)
}

func questionMessage(question string) core.OutboundMessage {
	return core.Notice("Application Question", question, core.ColorInfo)
}

func completeMessage() core.OutboundMessage {
	return core.Notice("Application Complete",
		"Thank you for completing the application! It will now be reviewed by staff.",
		core.ColorSuccess)
}
