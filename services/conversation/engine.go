// Package conversation drives the WhatsApp booking conversation: it resolves
// each inbound event against the user's current step, applies the step's
// transition, persists the result and sends the next prompt.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	activityRepo "easyservice/database/repository/activity"
	userRepo "easyservice/database/repository/user"
	"easyservice/models"
	"easyservice/services/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway delivers outbound messages. Failures are logged by the engine and
// never retried.
type Gateway interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []models.Button) error
	SendList(ctx context.Context, to, body, action string, sections []models.ListSection) error
}

// Finalizer issues the ticket for a confirmed draft.
type Finalizer interface {
	Finalize(ctx context.Context, user *models.User, state *models.SessionState) (string, error)
}

// ProfileWriter stores the profile summary kept next to the tickets.
type ProfileWriter interface {
	UpsertProfileSummary(ctx context.Context, summary models.ProfileSummary) error
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Users     userRepo.UserRepository
	Sessions  session.Store
	Profiles  ProfileWriter
	Activity  activityRepo.ActivityLog
	Finalizer Finalizer
	Gateway   Gateway
	Scheduler Scheduler
	Catalogue *Catalogue
	Logger    *zap.Logger
}

// Options tune the conversation.
type Options struct {
	BusinessName   string
	SlotOfferCount int
	RepromptDelay  time.Duration
	Now            func() time.Time
}

// Engine is the booking conversation state machine. It is safe for concurrent
// use; events of one identity are processed one at a time.
type Engine struct {
	users     userRepo.UserRepository
	sessions  session.Store
	profiles  ProfileWriter
	activity  activityRepo.ActivityLog
	finalizer Finalizer
	gateway   Gateway
	scheduler Scheduler
	catalogue *Catalogue
	aliases   *Aliases
	logger    *zap.Logger

	businessName  string
	slotCount     int
	repromptDelay time.Duration
	now           func() time.Time

	steps map[models.Step]transition
	locks *keyedMutex
}

func NewEngine(deps Deps, opts Options) (*Engine, error) {
	if deps.Users == nil || deps.Sessions == nil || deps.Gateway == nil || deps.Finalizer == nil {
		return nil, errors.New("conversation engine needs users, sessions, gateway and finalizer")
	}
	cat := deps.Catalogue
	if cat == nil {
		var err error
		if cat, err = LoadCatalogue(); err != nil {
			return nil, err
		}
	}
	aliases, err := NewAliases(cat)
	if err != nil {
		return nil, fmt.Errorf("failed to compile aliases: %w", err)
	}

	e := &Engine{
		users:         deps.Users,
		sessions:      deps.Sessions,
		profiles:      deps.Profiles,
		activity:      deps.Activity,
		finalizer:     deps.Finalizer,
		gateway:       deps.Gateway,
		scheduler:     deps.Scheduler,
		catalogue:     cat,
		aliases:       aliases,
		logger:        deps.Logger,
		businessName:  opts.BusinessName,
		slotCount:     opts.SlotOfferCount,
		repromptDelay: opts.RepromptDelay,
		now:           opts.Now,
		locks:         newKeyedMutex(),
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.slotCount < 1 || e.slotCount > MaxSlotOffers {
		e.slotCount = MaxSlotOffers
	}
	if e.businessName == "" {
		e.businessName = "our doorstep service"
	}
	e.steps = e.transitions()
	return e, nil
}

// turn is the working state of one processed event.
type turn struct {
	event    models.InboundEvent
	token    string
	user     *models.User
	session  *models.SessionState // nil once cleared during the turn
	outbox   []message
	reprompt bool
	now      time.Time
}

func (t *turn) say(body string) {
	if body != "" {
		t.outbox = append(t.outbox, text(body))
	}
}

func (t *turn) send(m message) {
	t.outbox = append(t.outbox, m)
}

// Process handles one inbound event. Errors inside a transition reset the user
// to the welcome step with an apology; Process only returns an error when that
// recovery itself could not be completed.
func (e *Engine) Process(ctx context.Context, event models.InboundEvent) (err error) {
	if event.Identity == "" {
		return errors.New("inbound event has no identity")
	}
	unlock := e.locks.Lock(event.Identity)
	defer unlock()

	var t *turn
	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("panic: %v", r)
			if t == nil {
				e.logger.Error("Panic before conversation turn started", zap.String("phone", event.Identity), zap.Error(cause))
				err = cause
				return
			}
			err = e.recoverTurn(ctx, t, cause)
		}
	}()

	t, err = e.begin(ctx, event)
	if err != nil {
		return err
	}
	if err := e.run(ctx, t); err != nil {
		return e.recoverTurn(ctx, t, err)
	}
	return nil
}

// begin loads or creates the user record and the session for event.
func (e *Engine) begin(ctx context.Context, event models.InboundEvent) (*turn, error) {
	now := e.now()
	user, err := e.users.FindByIdentity(ctx, event.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", event.Identity, err)
	}
	if user == nil {
		user = models.NewUser(event.Identity, now)
		if event.ProfileNameHint != "" {
			user.DisplayName = event.ProfileNameHint
		}
		if err := e.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", event.Identity, err)
		}
		e.logger.Info("New conversation user", zap.String("phone", event.Identity))
	}

	t := &turn{event: event, token: Extract(event), user: user, now: now}
	if event.ProfileNameHint != "" && user.DisplayName == models.DefaultDisplayName {
		user.DisplayName = event.ProfileNameHint
	}
	user.LastInteraction = now
	user.MessageCount++
	user.LastMessage = t.token

	state, err := e.sessions.Get(ctx, event.Identity)
	if err != nil {
		e.logger.Warn("Session unavailable; starting empty", zap.String("phone", event.Identity), zap.Error(err))
		state = &models.SessionState{}
	}
	t.session = state
	e.sessionFor(ctx, t)

	e.logger.Debug("Processing message",
		zap.String("phone", event.Identity),
		zap.String("step", user.Step.String()),
		zap.String("token", t.token))
	return t, nil
}

func (e *Engine) run(ctx context.Context, t *turn) error {
	if e.wantsRestart(t) {
		e.logger.Info("Conversation restarted", zap.String("phone", t.user.Identity), zap.String("from", t.user.Step.String()))
		e.apply(ctx, t, Result{Outcome: OutcomeReset})
		return e.commit(ctx, t)
	}

	tr, ok := e.steps[t.user.Step]
	if !ok {
		return fmt.Errorf("user %s is at unknown step %d", t.user.Identity, t.user.Step)
	}
	res, err := tr.handle(ctx, t)
	if errors.Is(err, ErrUnrecognizedInput) {
		e.logger.Debug("Unrecognized input",
			zap.String("phone", t.user.Identity), zap.String("step", t.user.Step.String()), zap.Error(err))
		res = Result{Outcome: OutcomeRetry, Notice: tr.invalid, Delayed: tr.delayed}
	} else if err != nil {
		return err
	}
	e.apply(ctx, t, res)
	return e.commit(ctx, t)
}

// wantsRestart accepts only a bare restart command while the user is typing an
// address or a custom brand.
func (e *Engine) wantsRestart(t *turn) bool {
	freeText := t.user.Step == models.StepLocation ||
		(t.user.Step == models.StepCategory && t.session != nil && t.session.AwaitingCustomCategory)
	if freeText {
		return e.aliases.IsExactRestart(t.token)
	}
	return e.aliases.IsRestart(t.token)
}

// apply turns a handler result into state changes and queued sends.
func (e *Engine) apply(ctx context.Context, t *turn, res Result) {
	switch res.Outcome {
	case OutcomeAdvance:
		t.say(res.Notice)
		e.enter(ctx, t, res.Next)
		if !res.Quiet {
			t.send(e.prompt(res.Next, t.user, t.session))
		}
	case OutcomeRetry:
		t.say(res.Notice)
		switch {
		case res.Delayed:
			t.reprompt = true
		case !res.Quiet:
			t.send(e.prompt(t.user.Step, t.user, e.sessionFor(ctx, t)))
		}
	case OutcomeReset:
		e.reset(t)
		t.say(res.Notice)
		if !res.Quiet {
			t.send(e.welcomePrompt(t.user))
		}
	}
}

// enter moves the user to next and maintains the per-step working data.
func (e *Engine) enter(ctx context.Context, t *turn, next models.Step) {
	prev := t.user.Step
	t.user.Step = next
	t.user.State = next.String()

	s := e.sessionFor(ctx, t)
	if prev == models.StepSlot && next != models.StepSlot {
		s.SlotOffers = nil
	}
	if next == models.StepSlot {
		s.SlotOffers = e.generateOffers(t.now)
	}
	s.StepHistory = append(s.StepHistory, models.StepTrace{Step: next, StepName: next.String(), Timestamp: t.now})

	// The finalizer writes the completion marker itself.
	if next != models.StepCompleted {
		e.recordStep(ctx, t.user.Identity, next, s.SessionID)
	}
	if next == models.StepCompleted {
		t.session = nil
	}
}

// reset returns the user to the welcome step, dropping consent, draft and session.
func (e *Engine) reset(t *turn) {
	u := t.user
	u.Step = models.StepWelcome
	u.State = models.StepWelcome.String()
	u.ConsentGiven = false
	u.ConsentAt = nil
	u.Draft = models.ServiceRequest{}
	t.session = nil
}

// sessionFor returns the turn's session, creating a fresh one when it was
// never stored or has been cleared earlier in the turn.
func (e *Engine) sessionFor(ctx context.Context, t *turn) *models.SessionState {
	if t.session != nil && t.session.SessionID != "" {
		return t.session
	}
	t.session = e.newSession(ctx, t.user.Identity)
	return t.session
}

func (e *Engine) newSession(ctx context.Context, identity string) *models.SessionState {
	s := &models.SessionState{SessionID: uuid.NewString()}
	if e.activity != nil {
		if err := e.activity.StartSession(ctx, identity, s.SessionID); err != nil {
			e.logger.Warn("Failed to start activity log", zap.String("phone", identity), zap.Error(err))
		}
	}
	return s
}

func (e *Engine) recordStep(ctx context.Context, identity string, step models.Step, sessionID string) {
	if e.activity == nil {
		return
	}
	if err := e.activity.RecordStepReached(ctx, identity, step, sessionID); err != nil {
		e.logger.Warn("Failed to record step",
			zap.String("phone", identity), zap.String("step", step.String()), zap.Error(err))
	}
}

// commit persists the session, then the user record, then flushes sends.
// Nothing is sent for a turn whose state was not stored.
func (e *Engine) commit(ctx context.Context, t *turn) error {
	id := t.user.Identity
	if t.session == nil {
		if err := e.sessions.Clear(ctx, id); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	} else if err := e.sessions.Save(ctx, id, t.session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	t.user.UpdatedAt = t.now
	if err := e.users.Save(ctx, t.user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	e.flush(ctx, id, t.outbox)
	if t.reprompt {
		e.scheduleReprompt(ctx, id)
	}
	return nil
}

// recoverTurn applies the fatal reset: discard the turn's sends, put the user
// back at welcome and apologise.
func (e *Engine) recoverTurn(ctx context.Context, t *turn, cause error) error {
	e.logger.Error("Conversation turn failed; resetting to welcome",
		zap.String("phone", t.user.Identity),
		zap.String("step", t.user.Step.String()),
		zap.Error(cause))

	t.outbox = nil
	t.reprompt = false
	e.reset(t)
	if err := e.sessions.Clear(ctx, t.user.Identity); err != nil {
		e.logger.Warn("Failed to clear session during reset", zap.String("phone", t.user.Identity), zap.Error(err))
	}
	t.user.UpdatedAt = e.now()
	if err := e.users.Save(ctx, t.user); err != nil {
		return fmt.Errorf("failed to reset user %s after %v: %w", t.user.Identity, cause, err)
	}
	e.flush(ctx, t.user.Identity, []message{e.welcomePrompt(t.user), text(noticeApology)})
	return nil
}

func (e *Engine) flush(ctx context.Context, to string, outbox []message) {
	for _, m := range outbox {
		var err error
		switch {
		case len(m.buttons) > 0:
			err = e.gateway.SendButtons(ctx, to, m.body, m.buttons)
		case len(m.sections) > 0:
			err = e.gateway.SendList(ctx, to, m.body, m.action, m.sections)
		default:
			err = e.gateway.SendText(ctx, to, m.body)
		}
		if err != nil {
			e.logger.Error("Failed to deliver message", zap.String("phone", to), zap.Error(err))
		}
	}
}

// scheduleReprompt runs with the identity lock held, so the inline fallback
// uses the unlocked variant.
func (e *Engine) scheduleReprompt(ctx context.Context, identity string) {
	if e.scheduler == nil {
		if err := e.repromptSlot(ctx, identity); err != nil {
			e.logger.Error("Slot re-prompt failed", zap.String("phone", identity), zap.Error(err))
		}
		return
	}
	if err := e.scheduler.ScheduleSlotReprompt(ctx, identity, e.repromptDelay); err != nil {
		e.logger.Error("Failed to schedule slot re-prompt", zap.String("phone", identity), zap.Error(err))
	}
}

// RepromptSlot re-sends the slot prompt when identity is still choosing a slot,
// regenerating the offer set if the session lost it.
func (e *Engine) RepromptSlot(ctx context.Context, identity string) error {
	unlock := e.locks.Lock(identity)
	defer unlock()
	return e.repromptSlot(ctx, identity)
}

func (e *Engine) repromptSlot(ctx context.Context, identity string) error {
	user, err := e.users.FindByIdentity(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", identity, err)
	}
	if user == nil || user.Step != models.StepSlot {
		return nil
	}

	state, err := e.sessions.Get(ctx, identity)
	if err != nil {
		e.logger.Warn("Session unavailable; regenerating offers", zap.String("phone", identity), zap.Error(err))
		state = &models.SessionState{}
	}
	if len(state.SlotOffers) == 0 {
		if state.SessionID == "" {
			state = e.newSession(ctx, identity)
		}
		state.SlotOffers = e.generateOffers(e.now())
		if err := e.sessions.Save(ctx, identity, state); err != nil {
			return fmt.Errorf("failed to save regenerated offers: %w", err)
		}
	}
	e.flush(ctx, identity, []message{slotPrompt(state)})
	return nil
}
