package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"easyservice/models"
	"easyservice/services/booking"
	"easyservice/services/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const phone = "919800000001"

var testNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

type memUsers struct {
	mu      sync.Mutex
	users   map[string]*models.User
	created int
	saveErr error
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.History = append([]models.ServiceRequest(nil), u.History...)
	return &c
}

func (r *memUsers) FindByIdentity(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Identity]; ok {
		return fmt.Errorf("duplicate user %s", u.Identity)
	}
	r.created++
	r.users[u.Identity] = cloneUser(u)
	return nil
}

func (r *memUsers) Save(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.users[u.Identity] = cloneUser(u)
	return nil
}

func (r *memUsers) get(id string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

type sentMessage struct {
	To       string
	Body     string
	Action   string
	Buttons  []models.Button
	Sections []models.ListSection
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (g *recordingGateway) record(m sentMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, m)
	return nil
}

func (g *recordingGateway) SendText(_ context.Context, to, body string) error {
	return g.record(sentMessage{To: to, Body: body})
}

func (g *recordingGateway) SendButtons(_ context.Context, to, body string, buttons []models.Button) error {
	return g.record(sentMessage{To: to, Body: body, Buttons: buttons})
}

func (g *recordingGateway) SendList(_ context.Context, to, body, action string, sections []models.ListSection) error {
	return g.record(sentMessage{To: to, Body: body, Action: action, Sections: sections})
}

func (g *recordingGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}

func (g *recordingGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

func (g *recordingGateway) last() sentMessage {
	msgs := g.messages()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

type stubFinalizer struct {
	mu    sync.Mutex
	seq   int64
	err   error
	panic bool
}

func (f *stubFinalizer) Finalize(_ context.Context, _ *models.User, _ *models.SessionState) (string, error) {
	if f.panic {
		panic("counter exploded")
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return booking.FormatTicket("SR", f.seq), nil
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingScheduler) ScheduleSlotReprompt(_ context.Context, identity string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, identity)
	return nil
}

type harness struct {
	engine    *Engine
	users     *memUsers
	sessions  *session.MemoryStore
	gateway   *recordingGateway
	finalizer *stubFinalizer
	scheduler *recordingScheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := session.NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		users:     &memUsers{users: map[string]*models.User{}},
		sessions:  store,
		gateway:   &recordingGateway{},
		finalizer: &stubFinalizer{},
		scheduler: &recordingScheduler{},
	}
	h.engine, err = NewEngine(Deps{
		Users:     h.users,
		Sessions:  store,
		Finalizer: h.finalizer,
		Gateway:   h.gateway,
		Scheduler: h.scheduler,
		Logger:    zap.NewNop(),
	}, Options{
		BusinessName:   "Test Cycle Care",
		SlotOfferCount: 3,
		Now:            func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return h
}

func (h *harness) text(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, h.engine.Process(context.Background(), models.InboundEvent{
		Identity: phone,
		Type:     models.EventText,
		Text:     &models.TextPayload{Body: body},
	}))
}

func (h *harness) tap(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, h.engine.Process(context.Background(), models.InboundEvent{
		Identity:    phone,
		Type:        models.EventInteractive,
		Interactive: &models.InteractiveReply{Kind: models.InteractiveList, SelectionID: id},
	}))
}

func (h *harness) step() models.Step {
	return h.users.get(phone).Step
}

func (h *harness) session(t *testing.T) *models.SessionState {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), phone)
	require.NoError(t, err)
	return s
}

// driveTo walks a new identity forward until it sits at target.
func (h *harness) driveTo(t *testing.T, target models.Step) {
	t.Helper()
	inputs := []func(){
		func() { h.text(t, "hi") },
		func() { h.tap(t, "consent_yes") },
		func() { h.tap(t, "brand_bsa") },
		func() { h.tap(t, "issue_brake_issue") },
		func() { h.text(t, "1") },
		func() { h.text(t, "12, MG Road, Bengaluru") },
		func() { h.tap(t, "summary_confirm") },
	}
	if target == models.StepWelcome {
		h.text(t, "what is this")
		require.Equal(t, models.StepWelcome, h.step())
		return
	}
	for i := 0; i < int(target); i++ {
		inputs[i]()
	}
	require.Equal(t, target, h.step())
}

func TestProcess_NewIdentityHiSendsOneConsentPrompt(t *testing.T) {
	h := newHarness(t)

	h.text(t, "hi")

	require.Equal(t, 1, h.users.created)
	require.Equal(t, models.StepConsent, h.step())
	msgs := h.gateway.messages()
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Buttons, 2)
	assert.Equal(t, "consent_yes", msgs[0].Buttons[0].ID)
	assert.Equal(t, "consent_no", msgs[0].Buttons[1].ID)
	assert.Equal(t, phone, msgs[0].To)
}

func TestProcess_UnrecognizedInputRepeatsPreviousPrompt(t *testing.T) {
	for step := models.StepWelcome; step <= models.StepSummary; step++ {
		t.Run(step.String(), func(t *testing.T) {
			h := newHarness(t)
			h.driveTo(t, step)
			prompt := h.gateway.last()
			h.gateway.reset()

			if step == models.StepLocation {
				// Free text is an address here; only an unknown tap is unrecognized.
				h.tap(t, "row_that_does_not_exist")
			} else {
				h.text(t, "zzz unknown")
			}
			require.Equal(t, step, h.step())

			if step == models.StepSlot {
				require.Len(t, h.gateway.messages(), 1)
				assert.Equal(t, noticeSlotInvalid, h.gateway.last().Body)
				require.Equal(t, []string{phone}, h.scheduler.calls)
				require.NoError(t, h.engine.RepromptSlot(context.Background(), phone))
			}
			assert.Equal(t, prompt, h.gateway.last())
		})
	}
}

func TestProcess_RestartFromAnyStep(t *testing.T) {
	commands := []string{"restart", "0", "Start Over!"}
	sentences := []string{"Start Over please", "let's start again"}
	for step := models.StepWelcome; step <= models.StepSummary; step++ {
		keywords := append([]string{}, commands...)
		if step != models.StepLocation {
			keywords = append(keywords, sentences...)
		}
		for _, keyword := range keywords {
			t.Run(fmt.Sprintf("%s/%s", step, keyword), func(t *testing.T) {
				h := newHarness(t)
				h.driveTo(t, step)

				h.text(t, keyword)

				u := h.users.get(phone)
				assert.Equal(t, models.StepWelcome, u.Step)
				assert.True(t, u.Draft.IsEmpty())
				assert.False(t, u.ConsentGiven)
				s := h.session(t)
				assert.Empty(t, s.SessionID)
				assert.Empty(t, s.SlotOffers)
				assert.Contains(t, h.gateway.last().Body, "Welcome to Test Cycle Care")
			})
		}
	}
}

func TestProcess_ConfirmFinalizesBooking(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepSummary)
	before := len(h.users.get(phone).History)

	h.tap(t, "summary_confirm")

	u := h.users.get(phone)
	require.Equal(t, models.StepCompleted, u.Step)
	require.Len(t, u.History, before+1)
	entry := u.History[len(u.History)-1]
	assert.Equal(t, models.RequestStatusConfirmed, entry.Status)
	assert.Equal(t, "SR0000001", entry.TicketNumber)
	assert.Equal(t, "bsa", entry.Category)
	assert.Equal(t, "brake_issue", entry.Service)
	assert.NotNil(t, entry.CompletedAt)
	assert.Contains(t, h.gateway.last().Body, "SR0000001")
	assert.Empty(t, h.session(t).SessionID)
}

func TestProcess_CancelAtSummaryResets(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepSummary)
	before := len(h.users.get(phone).History)
	h.gateway.reset()

	h.text(t, "cancel")

	u := h.users.get(phone)
	assert.Equal(t, models.StepWelcome, u.Step)
	assert.Len(t, u.History, before)
	assert.True(t, u.Draft.IsEmpty())
	assert.Empty(t, h.session(t).SessionID)
	msgs := h.gateway.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, noticeCancelled, msgs[0].Body)
}

func TestProcess_SlotShortcutSelectsFirstOffer(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepSlot)

	h.text(t, "1")

	u := h.users.get(phone)
	require.Equal(t, models.StepLocation, u.Step)
	require.NotNil(t, u.Draft.Slot)
	assert.Equal(t, booking.GenerateSlots(3, testNow)[0], *u.Draft.Slot)
	assert.Empty(t, h.session(t).SlotOffers)
}

func TestProcess_SlotOffersRegeneratedAfterSessionLoss(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepSlot)
	require.NoError(t, h.sessions.Clear(context.Background(), phone))

	h.tap(t, "slot_1")

	u := h.users.get(phone)
	require.Equal(t, models.StepLocation, u.Step)
	require.NotNil(t, u.Draft.Slot)
	assert.Equal(t, 1, u.Draft.Slot.Index)
	assert.Equal(t, "02:00", u.Draft.Slot.Time)
}

func TestRepromptSlot_IgnoresUsersPastSlot(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepLocation)
	h.gateway.reset()

	require.NoError(t, h.engine.RepromptSlot(context.Background(), phone))
	assert.Empty(t, h.gateway.messages())
}

func TestProcess_FinalizeFailureResetsWithApology(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepSummary)
	h.finalizer.err = errors.New("counter unavailable")
	h.gateway.reset()

	h.tap(t, "summary_confirm")

	u := h.users.get(phone)
	assert.Equal(t, models.StepWelcome, u.Step)
	assert.True(t, u.Draft.IsEmpty())
	assert.Empty(t, u.History)
	msgs := h.gateway.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Body, "Welcome to")
	assert.Equal(t, noticeApology, msgs[1].Body)
}

func TestProcess_PanicResetsWithApology(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepSummary)
	h.finalizer.panic = true
	h.gateway.reset()

	h.tap(t, "summary_confirm")

	assert.Equal(t, models.StepWelcome, h.step())
	assert.Equal(t, noticeApology, h.gateway.last().Body)
}

func TestProcess_SaveFailureSurfacesError(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")
	h.users.saveErr = errors.New("mongo down")
	h.gateway.reset()

	err := h.engine.Process(context.Background(), models.InboundEvent{
		Identity: phone, Type: models.EventText, Text: &models.TextPayload{Body: "yes"},
	})
	require.Error(t, err)
	assert.Empty(t, h.gateway.messages())
}

func TestProcess_ConsentDeclined(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepConsent)
	h.gateway.reset()

	h.tap(t, "consent_no")

	u := h.users.get(phone)
	assert.Equal(t, models.StepWelcome, u.Step)
	assert.False(t, u.ConsentGiven)
	assert.Empty(t, h.session(t).SessionID)
	msgs := h.gateway.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "without your consent")
}

func TestProcess_ConsentRecordsTimestamp(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepCategory)

	u := h.users.get(phone)
	assert.True(t, u.ConsentGiven)
	require.NotNil(t, u.ConsentAt)
	assert.Equal(t, testNow, *u.ConsentAt)
	assert.True(t, u.Draft.IsEmpty())
	require.Len(t, h.gateway.last().Sections, 1)
	assert.Equal(t, "brand_bsa", h.gateway.last().Sections[0].Rows[0].ID)
}

func TestProcess_CustomCategory(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepCategory)

	h.tap(t, "brand_others")
	require.Equal(t, models.StepCategory, h.step())
	assert.Equal(t, noticeCustomCategory, h.gateway.last().Body)
	assert.True(t, h.session(t).AwaitingCustomCategory)

	h.text(t, "a brand name far too long")
	require.Equal(t, models.StepCategory, h.step())
	assert.Equal(t, noticeCustomTooLong, h.gateway.last().Body)

	h.text(t, "hERO")
	u := h.users.get(phone)
	require.Equal(t, models.StepService, u.Step)
	assert.Equal(t, "Hero", u.Draft.Category)
	assert.Equal(t, "Hero", u.Draft.CategoryName)
	assert.False(t, h.session(t).AwaitingCustomCategory)
	assert.Contains(t, h.gateway.last().Body, "Select Issue for Hero")
}

func TestProcess_SharedLocation(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepLocation)

	require.NoError(t, h.engine.Process(context.Background(), models.InboundEvent{
		Identity: phone,
		Type:     models.EventLocation,
		Location: &models.LocationPayload{Latitude: 12.97, Longitude: 77.59},
	}))

	u := h.users.get(phone)
	require.Equal(t, models.StepSummary, u.Step)
	require.NotNil(t, u.Draft.Location)
	assert.True(t, u.Draft.Location.Shared)
	assert.Equal(t, "Shared Location", u.Draft.Location.Label)
	assert.Contains(t, h.gateway.last().Body, "Shared Location")
}

func TestProcess_AddressMentioningRestartIsKept(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepLocation)

	h.text(t, "Flat 4, Restart Towers, MG Road")

	u := h.users.get(phone)
	require.Equal(t, models.StepSummary, u.Step)
	require.NotNil(t, u.Draft.Location)
	assert.Equal(t, "Flat 4, Restart Towers, MG Road", u.Draft.Location.Address)
	assert.Equal(t, "bsa", u.Draft.Category)
}

func TestProcess_CustomBrandMentioningRestartIsKept(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepCategory)
	h.tap(t, "brand_others")

	h.text(t, "restart cycles")

	u := h.users.get(phone)
	require.Equal(t, models.StepService, u.Step)
	assert.Equal(t, "Restart Cycles", u.Draft.Category)
}

func TestProcess_LocationIntentsHoldStep(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepLocation)

	h.tap(t, "location_share")
	assert.Equal(t, models.StepLocation, h.step())
	assert.Equal(t, noticeLocationShare, h.gateway.last().Body)

	h.tap(t, "location_manual")
	assert.Equal(t, models.StepLocation, h.step())
	assert.Equal(t, noticeLocationManual, h.gateway.last().Body)

	h.text(t, "  221B Baker Street ")
	u := h.users.get(phone)
	require.Equal(t, models.StepSummary, u.Step)
	assert.Equal(t, "221B Baker Street", u.Draft.Location.Address)
}

func TestProcess_CompletedStep(t *testing.T) {
	h := newHarness(t)
	h.driveTo(t, models.StepCompleted)

	h.text(t, "thanks")
	assert.Equal(t, models.StepCompleted, h.step())
	assert.Contains(t, h.gateway.last().Body, "already booked")

	h.gateway.reset()
	h.text(t, "hello again")
	u := h.users.get(phone)
	assert.Equal(t, models.StepConsent, u.Step)
	assert.True(t, u.Draft.IsEmpty())
	assert.Len(t, u.History, 1)
	msgs := h.gateway.messages()
	require.Len(t, msgs, 1)
	assert.Len(t, msgs[0].Buttons, 2)
}

func TestProcess_ProfileNameHintReplacesPlaceholder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Process(context.Background(), models.InboundEvent{
		Identity:        phone,
		Type:            models.EventText,
		Text:            &models.TextPayload{Body: "Hello"},
		ProfileNameHint: "Asha",
	}))

	assert.Equal(t, "Asha", h.users.get(phone).DisplayName)
	assert.Contains(t, h.gateway.last().Body, "Dear Asha")
}

func TestProcess_SameIdentityIsSerialized(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.engine.Process(context.Background(), models.InboundEvent{
				Identity: phone, Type: models.EventText, Text: &models.TextPayload{Body: "hmm"},
			})
		}()
	}
	wg.Wait()

	u := h.users.get(phone)
	assert.Equal(t, n+1, u.MessageCount)
	assert.Equal(t, models.StepConsent, u.Step)
	assert.Zero(t, h.engine.locks.size())
}

func TestProcess_RejectsEventWithoutIdentity(t *testing.T) {
	h := newHarness(t)
	require.Error(t, h.engine.Process(context.Background(), models.InboundEvent{Type: models.EventText}))
}
