package postback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leadrelay/leadrelay/internal/model"
)

// ---- fakes ----

type fakeDirectory struct {
	aliases map[string]*model.Alias
	rules   []model.RoutingRule
	err     error
}

func (f *fakeDirectory) FindAlias(_ context.Context, key string) (*model.Alias, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.aliases[key], nil
}

func (f *fakeDirectory) ActiveRules(_ context.Context) ([]model.RoutingRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rules, nil
}

type fakeUsers struct {
	users   []model.User
	leads   map[int64][]int64
	mentors map[int64][]int64
}

func (f *fakeUsers) ListUsers(_ context.Context) ([]model.User, error) {
	return f.users, nil
}

func (f *fakeUsers) TeamLeads(_ context.Context, teamID int64) ([]int64, error) {
	return f.leads[teamID], nil
}

func (f *fakeUsers) TeamMentors(_ context.Context, teamID int64) ([]int64, error) {
	return f.mentors[teamID], nil
}

type fakeEvents struct {
	mu         sync.Mutex
	logged     []*model.Conversion
	count      int
	countErr   error
	countCalls int
	marked     map[string][]int64
	markCalls  int
}

func (f *fakeEvents) LogConversion(_ context.Context, ev *model.Conversion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.ID == "" {
		ev.ID = "ev-1"
	}
	f.logged = append(f.logged, ev)
	return nil
}

func (f *fakeEvents) CountTodaySales(_ context.Context, _ int64) (int, error) {
	f.mu.Lock()
	f.countCalls++
	f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeEvents) MarkNotified(_ context.Context, eventID string, recipients []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marked == nil {
		f.marked = make(map[string][]int64)
	}
	f.marked[eventID] = recipients
	f.markCalls++
	return nil
}

type fakeKPIs struct {
	kpis map[int64]*model.KPI
}

func (f *fakeKPIs) GetKPI(_ context.Context, telegramID int64) (*model.KPI, error) {
	if k, ok := f.kpis[telegramID]; ok {
		return k, nil
	}
	return nil, errors.New("no kpi")
}

type fakeMessenger struct {
	mu     sync.Mutex
	sent   map[int64][]string
	failTo map[int64]bool
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[chatID] {
		return errors.New("blocked by user")
	}
	if f.sent == nil {
		f.sent = make(map[int64][]string)
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

type engineEnv struct {
	engine    *Engine
	directory *fakeDirectory
	users     *fakeUsers
	events    *fakeEvents
	kpis      *fakeKPIs
	messenger *fakeMessenger
}

func newEngineEnv(adminIDs []int64) *engineEnv {
	env := &engineEnv{
		directory: &fakeDirectory{aliases: map[string]*model.Alias{}},
		users:     &fakeUsers{leads: map[int64][]int64{}, mentors: map[int64][]int64{}},
		events:    &fakeEvents{},
		kpis:      &fakeKPIs{kpis: map[int64]*model.KPI{}},
		messenger: &fakeMessenger{failTo: map[int64]bool{}},
	}
	env.engine = NewEngine(
		env.directory,
		env.users,
		env.events,
		env.kpis,
		env.messenger,
		NewDailyCounterStore(),
		adminIDs,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		nil,
	)
	return env
}

func activeUser(id int64, role model.Role, teamID *int64) model.User {
	return model.User{
		TelegramID: id,
		Role:       role,
		TeamID:     teamID,
		IsActive:   true,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
}

func i64p(n int64) *int64 { return &n }

// ---- tests ----

func TestEngine_IgnoresNonMeaningfulPayload(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})

	res := env.engine.Handle(context.Background(), Payload{"ping": "1"})

	if res.Meaningful {
		t.Error("Result.Meaningful = true, want false")
	}
	if len(env.events.logged) != 0 {
		t.Errorf("logged %d conversions, want 0", len(env.events.logged))
	}
	if len(env.messenger.sent) != 0 {
		t.Errorf("sent to %d recipients, want 0", len(env.messenger.sent))
	}
}

func TestEngine_AliasBuyerWinsOverRules(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})
	env.users.users = []model.User{activeUser(42, model.RoleBuyer, nil)}
	env.directory.aliases["alex"] = &model.Alias{Key: "alex", BuyerID: i64p(42)}
	env.directory.rules = []model.RoutingRule{
		{UserID: 77, IsActive: true},
	}

	res := env.engine.Handle(context.Background(), Payload{
		"status":   "sale",
		"campaign": "alex_us_fb",
	})

	if !res.Routed {
		t.Error("Result.Routed = false, want true")
	}
	if res.BuyerID == nil || *res.BuyerID != 42 {
		t.Fatalf("Result.BuyerID = %v, want 42", res.BuyerID)
	}
	if res.Fallback {
		t.Error("Result.Fallback = true, want false")
	}
	if !res.Sale {
		t.Error("Result.Sale = false, want true")
	}

	if len(env.events.logged) != 1 {
		t.Fatalf("logged %d conversions, want 1", len(env.events.logged))
	}
	ev := env.events.logged[0]
	if ev.PerformerID == nil || *ev.PerformerID != 42 {
		t.Errorf("logged performer = %v, want 42", ev.PerformerID)
	}
}

func TestEngine_RuleAttributionWhenNoAlias(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})
	env.users.users = []model.User{activeUser(77, model.RoleBuyer, nil)}
	offer := "555"
	env.directory.rules = []model.RoutingRule{
		{UserID: 77, Offer: &offer, IsActive: true},
	}

	res := env.engine.Handle(context.Background(), Payload{
		"status":   "sale",
		"offer_id": "555",
	})

	if !res.Routed {
		t.Error("Result.Routed = false, want true")
	}
	if res.BuyerID == nil || *res.BuyerID != 77 {
		t.Fatalf("Result.BuyerID = %v, want 77", res.BuyerID)
	}
}

func TestEngine_FallbackNotCredited(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})

	res := env.engine.Handle(context.Background(), Payload{
		"status":   "lead",
		"campaign": "unknown_us",
	})

	if res.Routed {
		t.Error("Result.Routed = true, want false on fallback")
	}
	if !res.Fallback {
		t.Error("Result.Fallback = false, want true")
	}
	if res.BuyerID == nil || *res.BuyerID != 900 {
		t.Fatalf("Result.BuyerID = %v, want the fallback admin 900", res.BuyerID)
	}

	if len(env.events.logged) != 1 {
		t.Fatalf("logged %d conversions, want 1", len(env.events.logged))
	}
	if env.events.logged[0].PerformerID != nil {
		t.Errorf("logged performer = %v, want nil - fallback must not pollute statistics",
			*env.events.logged[0].PerformerID)
	}

	// The fallback admin still hears about the event.
	if _, ok := env.messenger.sent[900]; !ok {
		t.Error("fallback admin did not receive the notification")
	}
}

func TestEngine_FallbackFromUserDirectory(t *testing.T) {
	t.Parallel()

	// No configured admin IDs: the earliest-created active admin serves.
	env := newEngineEnv(nil)
	later := activeUser(2, model.RoleAdmin, nil)
	earlier := activeUser(1, model.RoleAdmin, nil)
	env.users.users = []model.User{later, earlier}

	res := env.engine.Handle(context.Background(), Payload{"status": "lead"})

	if !res.Fallback {
		t.Fatal("Result.Fallback = false, want true")
	}
	if res.BuyerID == nil || *res.BuyerID != 1 {
		t.Fatalf("Result.BuyerID = %v, want the earliest admin 1", res.BuyerID)
	}
}

func TestEngine_NoFallbackAvailable(t *testing.T) {
	t.Parallel()

	env := newEngineEnv(nil)

	res := env.engine.Handle(context.Background(), Payload{"status": "lead"})

	if res.Routed || res.Fallback {
		t.Errorf("Result = %+v, want neither routed nor fallback", res)
	}
	if res.BuyerID != nil {
		t.Errorf("Result.BuyerID = %v, want nil", *res.BuyerID)
	}
	// The event is still archived.
	if len(env.events.logged) != 1 {
		t.Errorf("logged %d conversions, want 1", len(env.events.logged))
	}
}

func TestEngine_AdminRoutingTargetNotCredited(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})
	env.users.users = []model.User{activeUser(5, model.RoleAdmin, nil)}
	env.directory.aliases["boss"] = &model.Alias{Key: "boss", BuyerID: i64p(5)}

	env.engine.Handle(context.Background(), Payload{
		"status":   "sale",
		"campaign": "boss_us",
	})

	if len(env.events.logged) != 1 {
		t.Fatalf("logged %d conversions, want 1", len(env.events.logged))
	}
	if env.events.logged[0].PerformerID != nil {
		t.Errorf("logged performer = %v, want nil for an admin routing target",
			*env.events.logged[0].PerformerID)
	}
}

func TestEngine_SaleMessageUsesStabilizedCounter(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})
	env.users.users = []model.User{activeUser(42, model.RoleBuyer, nil)}
	env.directory.aliases["alex"] = &model.Alias{Key: "alex", BuyerID: i64p(42)}
	env.events.count = 0 // log lags behind the sale being processed
	env.kpis.kpis[42] = &model.KPI{TelegramID: 42, DailyGoal: 10}

	env.engine.Handle(context.Background(), Payload{
		"status":   "sale",
		"campaign": "alex_us",
		"payout":   "25.50",
	})

	msgs := env.messenger.sent[42]
	if len(msgs) != 1 {
		t.Fatalf("performer received %d messages, want 1", len(msgs))
	}
	if want := "Today: 1/10"; !strings.Contains(msgs[0], want) {
		t.Errorf("message %q does not contain %q", msgs[0], want)
	}
}

func TestEngine_FallbackSaleSkipsCounter(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})

	env.engine.Handle(context.Background(), Payload{"status": "sale"})

	if env.events.countCalls != 0 {
		t.Errorf("CountTodaySales called %d times, want 0 on the fallback path", env.events.countCalls)
	}
	msgs := env.messenger.sent[900]
	if len(msgs) != 1 {
		t.Fatalf("fallback admin received %d messages, want 1", len(msgs))
	}
	if strings.Contains(msgs[0], "Today:") {
		t.Errorf("fallback sale message %q should omit the counter line", msgs[0])
	}
}

func TestEngine_DeliveryFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900, 901})
	env.messenger.failTo[900] = true

	env.engine.Handle(context.Background(), Payload{"status": "lead"})

	if _, ok := env.messenger.sent[901]; !ok {
		t.Error("second admin did not receive the notification")
	}
	// Only successful deliveries are recorded.
	marked := env.events.marked["ev-1"]
	for _, id := range marked {
		if id == 900 {
			t.Error("failed recipient recorded as notified")
		}
	}
}

func TestEngine_MarkNotifiedSkippedWhenNothingSent(t *testing.T) {
	t.Parallel()

	env := newEngineEnv([]int64{900})
	env.messenger.failTo[900] = true

	env.engine.Handle(context.Background(), Payload{"status": "lead"})

	if env.events.markCalls != 0 {
		t.Errorf("MarkNotified called %d times, want 0", env.events.markCalls)
	}
}
