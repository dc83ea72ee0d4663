package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"easyservice/models"
	"easyservice/services/booking"

	"go.uber.org/zap"
)

// Outcome is what the engine does with a handled turn.
type Outcome int

const (
	// OutcomeAdvance moves to Result.Next and sends its prompt.
	OutcomeAdvance Outcome = iota
	// OutcomeRetry keeps the step and re-sends its prompt.
	OutcomeRetry
	// OutcomeReset returns to the welcome step, dropping draft, consent and session.
	OutcomeReset
)

// Result is the explicit outcome of one step handler.
type Result struct {
	Outcome Outcome
	Next    models.Step
	Notice  string // sent before any prompt
	Quiet   bool   // skip the prompt that would follow
	Delayed bool   // retry only: re-send the prompt later through the scheduler
}

type stepHandler func(ctx context.Context, t *turn) (Result, error)

// transition is one row of the step table.
type transition struct {
	handle  stepHandler
	invalid string // notice for unrecognized input
	delayed bool   // re-prompt through the scheduler after unrecognized input
}

func (e *Engine) transitions() map[models.Step]transition {
	return map[models.Step]transition{
		models.StepWelcome:   {handle: e.onWelcome},
		models.StepConsent:   {handle: e.onConsent, invalid: noticeConsentInvalid},
		models.StepCategory:  {handle: e.onCategory, invalid: noticeCategoryInvalid},
		models.StepService:   {handle: e.onService, invalid: noticeServiceInvalid},
		models.StepSlot:      {handle: e.onSlot, invalid: noticeSlotInvalid, delayed: true},
		models.StepLocation:  {handle: e.onLocation, invalid: noticeLocationInvalid},
		models.StepSummary:   {handle: e.onSummary, invalid: noticeSummaryInvalid},
		models.StepCompleted: {handle: e.onCompleted},
	}
}

func advance(next models.Step, notice string) Result {
	return Result{Outcome: OutcomeAdvance, Next: next, Notice: notice}
}

// hold keeps the step and sends only notice.
func hold(notice string) Result {
	return Result{Outcome: OutcomeRetry, Notice: notice, Quiet: true}
}

func unrecognized(t *turn) error {
	return fmt.Errorf("%w: %q at %s", ErrUnrecognizedInput, t.token, t.user.Step)
}

func (e *Engine) onWelcome(_ context.Context, t *turn) (Result, error) {
	if e.aliases.IsGreeting(t.token) {
		return advance(models.StepConsent, ""), nil
	}
	return Result{}, unrecognized(t)
}

func (e *Engine) onConsent(ctx context.Context, t *turn) (Result, error) {
	choice, _ := e.aliases.Resolve(models.StepConsent, t.token)
	switch choice {
	case choiceYes:
		now := t.now
		t.user.ConsentGiven = true
		t.user.ConsentAt = &now
		e.upsertProfile(ctx, t.user, now)
		return advance(models.StepCategory, ""), nil
	case choiceNo:
		return Result{Outcome: OutcomeReset, Notice: noticeDeclined(t.user), Quiet: true}, nil
	}
	return Result{}, unrecognized(t)
}

func (e *Engine) onCategory(ctx context.Context, t *turn) (Result, error) {
	s := e.sessionFor(ctx, t)
	if id, ok := e.aliases.Resolve(models.StepCategory, t.token); ok {
		opt, _ := e.catalogue.Category(id)
		if opt.Custom {
			s.AwaitingCustomCategory = true
			return hold(noticeCustomCategory), nil
		}
		s.AwaitingCustomCategory = false
		return e.chooseCategory(t, opt.ID, opt.Label(), ""), nil
	}
	if s.AwaitingCustomCategory && t.event.Type == models.EventText {
		return e.customCategory(t)
	}
	return Result{}, unrecognized(t)
}

// maxCustomCategory bounds a typed brand name, in characters.
const maxCustomCategory = 15

func (e *Engine) customCategory(t *turn) (Result, error) {
	raw := ""
	if t.event.Text != nil {
		raw = strings.TrimSpace(t.event.Text.Body)
	}
	if raw == "" {
		return hold(noticeCustomEmpty), nil
	}
	name := titleCase(raw)
	if utf8.RuneCountInString(name) > maxCustomCategory {
		return hold(noticeCustomTooLong), nil
	}
	t.session.AwaitingCustomCategory = false
	return e.chooseCategory(t, name, name, noticeCategoryRecorded(name)), nil
}

func (e *Engine) chooseCategory(t *turn, id, name, notice string) Result {
	now := t.now
	d := &t.user.Draft
	d.Category = id
	d.CategoryName = name
	d.Status = models.RequestStatusPending
	d.CreatedAt = &now
	t.session.Category = id
	return advance(models.StepService, notice)
}

func (e *Engine) onService(ctx context.Context, t *turn) (Result, error) {
	id, ok := e.aliases.Resolve(models.StepService, t.token)
	if !ok {
		return Result{}, unrecognized(t)
	}
	opt, _ := e.catalogue.Service(id)
	t.user.Draft.Service = opt.ID
	t.user.Draft.ServiceName = opt.Label()
	e.sessionFor(ctx, t).Service = opt.ID
	return advance(models.StepSlot, noticeServiceSelected(opt.Label())), nil
}

func (e *Engine) onSlot(ctx context.Context, t *turn) (Result, error) {
	canonical, ok := e.aliases.Resolve(models.StepSlot, t.token)
	if !ok {
		return Result{}, unrecognized(t)
	}
	index, err := strconv.Atoi(canonical)
	if err != nil {
		return Result{}, fmt.Errorf("bad slot alias %q: %w", canonical, err)
	}

	s := e.sessionFor(ctx, t)
	offer, err := selectOffer(s, index)
	if errors.Is(err, ErrSessionMissing) {
		e.logger.Info("Slot offers missing; regenerating", zap.String("phone", t.user.Identity))
		s.SlotOffers = e.generateOffers(t.now)
		offer, err = selectOffer(s, index)
	}
	if err != nil {
		return Result{}, err
	}

	t.user.Draft.Slot = &offer
	s.SelectedSlots = []models.SlotOption{offer}
	return advance(models.StepLocation, ""), nil
}

func selectOffer(s *models.SessionState, index int) (models.SlotOption, error) {
	if len(s.SlotOffers) == 0 {
		return models.SlotOption{}, ErrSessionMissing
	}
	offer, ok := s.Offer(index)
	if !ok {
		return models.SlotOption{}, fmt.Errorf("%w: slot %d of %d", ErrUnrecognizedInput, index+1, len(s.SlotOffers))
	}
	return offer, nil
}

func (e *Engine) generateOffers(now time.Time) []models.SlotOption {
	return booking.GenerateSlots(e.slotCount, now)
}

func (e *Engine) onLocation(ctx context.Context, t *turn) (Result, error) {
	if t.event.Type == models.EventLocation {
		p := t.event.Location
		if p == nil {
			return Result{}, unrecognized(t)
		}
		return e.chooseLocation(ctx, t, models.Location{
			Address:   p.Address,
			Label:     firstNonEmpty(p.Label, "Shared Location"),
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Shared:    true,
		}), nil
	}

	switch choice, _ := e.aliases.Resolve(models.StepLocation, t.token); choice {
	case choiceShare:
		return hold(noticeLocationShare), nil
	case choiceManual:
		return hold(noticeLocationManual), nil
	}

	if t.event.Type == models.EventText && t.event.Text != nil {
		if address := strings.TrimSpace(t.event.Text.Body); address != "" {
			return e.chooseLocation(ctx, t, models.Location{Address: address}), nil
		}
	}
	return Result{}, unrecognized(t)
}

func (e *Engine) chooseLocation(ctx context.Context, t *turn, loc models.Location) Result {
	draft := loc
	t.user.Draft.Location = &draft
	e.sessionFor(ctx, t).Location = &loc
	return advance(models.StepSummary, "")
}

func (e *Engine) onSummary(ctx context.Context, t *turn) (Result, error) {
	choice, _ := e.aliases.Resolve(models.StepSummary, t.token)
	switch choice {
	case choiceConfirm:
		return e.confirm(ctx, t)
	case choiceCancel:
		e.logger.Info("Booking cancelled", zap.String("phone", t.user.Identity))
		return Result{Outcome: OutcomeReset, Notice: noticeCancelled}, nil
	}
	return Result{}, unrecognized(t)
}

// confirm issues the ticket, then records the booking in the user's history.
func (e *Engine) confirm(ctx context.Context, t *turn) (Result, error) {
	ticket, err := e.finalizer.Finalize(ctx, t.user, e.sessionFor(ctx, t))
	if err != nil {
		return Result{}, fmt.Errorf("failed to finalize booking: %w", err)
	}

	now := t.now
	d := &t.user.Draft
	d.TicketNumber = ticket
	d.Status = models.RequestStatusConfirmed
	d.CompletedAt = &now
	if d.CreatedAt == nil {
		d.CreatedAt = &now
	}
	t.user.History = append(t.user.History, *d)

	return Result{Outcome: OutcomeAdvance, Next: models.StepCompleted, Notice: e.noticeConfirmed(ticket), Quiet: true}, nil
}

// onCompleted starts a new booking on a greeting; anything else re-sends the
// completion prompt.
func (e *Engine) onCompleted(ctx context.Context, t *turn) (Result, error) {
	if e.aliases.IsGreeting(t.token) {
		e.reset(t)
		return e.onWelcome(ctx, t)
	}
	return Result{Outcome: OutcomeRetry}, nil
}

func (e *Engine) upsertProfile(ctx context.Context, u *models.User, now time.Time) {
	if e.profiles == nil {
		return
	}
	summary := models.ProfileSummary{Phone: u.Identity, Consent: u.ConsentGiven, UpdatedAt: now}
	if u.DisplayName != models.DefaultDisplayName {
		summary.ProfileName = u.DisplayName
	}
	if err := e.profiles.UpsertProfileSummary(ctx, summary); err != nil {
		e.logger.Warn("Failed to store consent", zap.String("phone", u.Identity), zap.Error(err))
	}
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
