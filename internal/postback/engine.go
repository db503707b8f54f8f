package postback

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/leadrelay/leadrelay/internal/metrics"
	"github.com/leadrelay/leadrelay/internal/model"
)

// Directory resolves aliases and routing rules.
type Directory interface {
	FindAlias(ctx context.Context, key string) (*model.Alias, error)
	ActiveRules(ctx context.Context) ([]model.RoutingRule, error)
}

// UserDirectory lists back-office users and team relationships.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	TeamLeads(ctx context.Context, teamID int64) ([]int64, error)
	TeamMentors(ctx context.Context, teamID int64) ([]int64, error)
}

// EventLog archives conversions and serves the authoritative sale count.
type EventLog interface {
	LogConversion(ctx context.Context, ev *model.Conversion) error
	CountTodaySales(ctx context.Context, performerID int64) (int, error)
	MarkNotified(ctx context.Context, eventID string, recipients []int64) error
}

// KPISource serves per-performer goals for message enrichment.
type KPISource interface {
	GetKPI(ctx context.Context, telegramID int64) (*model.KPI, error)
}

// Messenger delivers a notification to one recipient. Best-effort; the
// engine logs and swallows per-recipient failures.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Engine runs the postback pipeline. All collaborators are injected; the
// only in-process mutable state is the daily counter store.
type Engine struct {
	directory Directory
	users     UserDirectory
	events    EventLog
	kpis      KPISource
	messenger Messenger
	counters  *DailyCounterStore
	adminIDs  []int64
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewEngine creates the engine. adminIDs is the static, configuration
// supplied admin list used for fallback and for the always-notified set.
func NewEngine(
	directory Directory,
	users UserDirectory,
	events EventLog,
	kpis KPISource,
	messenger Messenger,
	counters *DailyCounterStore,
	adminIDs []int64,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *Engine {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Engine{
		directory: directory,
		users:     users,
		events:    events,
		kpis:      kpis,
		messenger: messenger,
		counters:  counters,
		adminIDs:  adminIDs,
		logger:    logger.With("component", "postback.engine"),
		metrics:   recorder,
	}
}

// Result is the response-shaped outcome of processing one postback.
type Result struct {
	Meaningful bool
	Routed     bool
	BuyerID    *int64
	Fallback   bool
	Sale       bool
}

// Handle runs the full pipeline for one payload. It never returns an error:
// collaborator failures are logged and degraded to safe defaults so the
// tracker always gets a 2xx for an authenticated request.
func (e *Engine) Handle(ctx context.Context, p Payload) Result {
	start := time.Now()
	defer func() {
		e.metrics.ObservePostbackDuration(time.Since(start))
	}()

	if !Meaningful(p) {
		e.metrics.IncPostbackIgnored()
		e.logger.Debug("ignoring non-meaningful payload", "fields", len(p))
		return Result{}
	}

	n := Normalize(p)
	dec := e.attribute(ctx, n)
	dec.IsSale = n.IsSale()

	users := e.listUsers(ctx)

	if !dec.Attributed {
		if id, ok := e.resolveFallback(users); ok {
			dec.PerformerID = id
			dec.Attributed = true
			dec.UsedFallback = true
			e.metrics.IncPostbackAttributed("fallback")
		}
	}

	ev := e.buildConversion(p, n, dec, users)
	if err := e.events.LogConversion(ctx, ev); err != nil {
		e.logger.Warn("failed to log conversion", "error", err)
	}

	text := e.buildMessage(ctx, n, dec, users)

	recipients := e.expandRecipients(ctx, dec, users)
	sent := e.dispatch(ctx, recipients, text)
	if len(sent) > 0 {
		if err := e.events.MarkNotified(ctx, ev.ID, sent); err != nil {
			e.logger.Warn("failed to record notified recipients",
				"event_id", ev.ID, "error", err)
		}
	}

	return Result{
		Meaningful: true,
		Routed:     dec.Attributed && !dec.UsedFallback,
		BuyerID:    dec.BuyerID(),
		Fallback:   dec.UsedFallback,
		Sale:       dec.IsSale,
	}
}

// attribute runs alias routing, then rule routing. Both steps are pure
// lookups; a lookup failure degrades to "no attribution" for that step.
func (e *Engine) attribute(ctx context.Context, n Normalized) Decision {
	var dec Decision

	if key := AliasKey(n.Campaign); key != "" {
		alias, err := e.directory.FindAlias(ctx, key)
		if err != nil {
			e.logger.Warn("alias lookup failed", "key", key, "error", err)
		}
		if alias != nil {
			dec.Alias = alias
			// A buyer on the alias wins outright; the lead only rides
			// along for recipient expansion.
			if alias.BuyerID != nil {
				dec.PerformerID = *alias.BuyerID
				dec.Attributed = true
				e.metrics.IncPostbackAttributed("alias")
				return dec
			}
		}
	}

	rules, err := e.directory.ActiveRules(ctx)
	if err != nil {
		e.logger.Warn("rule lookup failed", "error", err)
		return dec
	}
	if rule := SelectRule(rules, n.Offer(), n.Country, n.Source); rule != nil {
		dec.PerformerID = rule.UserID
		dec.Attributed = true
		e.metrics.IncPostbackAttributed("rule")
	}
	return dec
}

// listUsers fetches the active user set once per event. A failure yields an
// empty set; the static admin list still guarantees someone is notified.
func (e *Engine) listUsers(ctx context.Context) []model.User {
	users, err := e.users.ListUsers(ctx)
	if err != nil {
		e.logger.Warn("user list lookup failed", "error", err)
		return nil
	}
	return users
}

// buildConversion assembles the log record. The credited performer is nil
// when the fallback path was taken or the routed user's role is not
// credited - fallback noise and admin identities must never pollute
// statistics.
func (e *Engine) buildConversion(p Payload, n Normalized, dec Decision, users []model.User) *model.Conversion {
	raw, _ := json.Marshal(p)

	ev := &model.Conversion{
		Status:      n.Status,
		Payout:      n.Payout,
		Currency:    n.Currency,
		OfferID:     n.OfferID,
		OfferName:   n.OfferName,
		SubID:       n.SubID,
		SubID2:      n.SubID2,
		Campaign:    n.Campaign,
		Country:     n.Country,
		Source:      n.Source,
		ConvertedAt: n.ConvertedAt,
		IsSale:      dec.IsSale,
		Raw:         raw,
	}
	if n.Payout == nil {
		ev.PayoutRaw = n.PayoutRaw
	}
	ev.PerformerID = creditedPerformer(dec, users)
	return ev
}

// creditedPerformer applies the attribution-for-statistics rule: no credit
// on fallback, and no credit when the routed user is unknown or holds an
// uncredited role.
func creditedPerformer(dec Decision, users []model.User) *int64 {
	if !dec.Attributed || dec.UsedFallback {
		return nil
	}
	u := findUser(users, dec.PerformerID)
	if u == nil || !u.Role.Credited() {
		return nil
	}
	id := dec.PerformerID
	return &id
}

// buildMessage formats the notification text. Sale messages are enriched
// with the stabilized daily counter and the performer's KPI when available.
// The fallback identity gets the sale message without counter or KPI: its
// counter must stay untouched by events it is not credited for.
func (e *Engine) buildMessage(ctx context.Context, n Normalized, dec Decision, users []model.User) string {
	if !dec.IsSale || !dec.Attributed {
		return FormatEventMessage(n)
	}

	performer := findUser(users, dec.PerformerID)
	e.metrics.IncSale()

	if dec.UsedFallback {
		return FormatSaleMessage(n, performer, dec.PerformerID, 0, nil)
	}

	var authoritative *int
	if count, err := e.events.CountTodaySales(ctx, dec.PerformerID); err != nil {
		e.logger.Warn("authoritative count read failed",
			"performer_id", dec.PerformerID, "error", err)
	} else {
		authoritative = &count
	}
	displayed := e.counters.Resolve(dec.PerformerID, authoritative)

	var kpi *model.KPI
	if k, err := e.kpis.GetKPI(ctx, dec.PerformerID); err != nil {
		e.logger.Warn("kpi lookup failed", "performer_id", dec.PerformerID, "error", err)
	} else {
		kpi = k
	}

	return FormatSaleMessage(n, performer, dec.PerformerID, displayed, kpi)
}

func findUser(users []model.User, telegramID int64) *model.User {
	for i := range users {
		if users[i].TelegramID == telegramID {
			return &users[i]
		}
	}
	return nil
}
