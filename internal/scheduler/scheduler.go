// Package scheduler validates and persists availability plans. Every
// operation runs a fixed pipeline (identity, temporal validity, past
// cutoff, overlap check, commit), returning the first failure and
// writing nothing until the whole pipeline passes.
package scheduler

import (
	"context"
	"sort"
	"time"

	"availability-service/internal/logger"
	"availability-service/internal/models"
	"availability-service/internal/observability"
	"availability-service/internal/rabbitmq"
	"availability-service/internal/store"
	"availability-service/internal/timeutil"
)

type Option func(*PlanScheduler)

// WithNow overrides the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *PlanScheduler) { s.now = now }
}

type PlanScheduler struct {
	store  store.Store
	events rabbitmq.Publisher
	now    func() time.Time
}

func NewPlanScheduler(st store.Store, events rabbitmq.Publisher, opts ...Option) *PlanScheduler {
	s := &PlanScheduler{store: st, events: events, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates the plan and persists it under a store-assigned id,
// which it returns.
func (s *PlanScheduler) Save(ctx context.Context, p models.Plan) (string, error) {
	if _, err := s.validate(ctx, p, ""); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, models.PlansCollection, p)
	if err != nil {
		return "", mapStoreErr(err)
	}

	s.publish(ctx, "plan.created", map[string]any{
		"plan_id":  id,
		"owner_id": p.OwnerID,
		"start":    p.StartDate + " " + p.StartTime,
		"end":      p.EndDate + " " + p.EndTime,
	})
	return id, nil
}

// Update replaces an existing plan in place. The overlap check excludes
// the plan's own prior version. The validation pipeline runs first, so
// a plan that is both invalid and missing fails on the invalid data.
func (s *PlanScheduler) Update(ctx context.Context, p models.Plan) error {
	if _, err := s.validate(ctx, p, p.ID); err != nil {
		return err
	}
	if err := s.ownedPlan(ctx, p.OwnerID, p.ID); err != nil {
		return err
	}

	if err := s.store.Set(ctx, models.PlansCollection, p.ID, p); err != nil {
		return mapStoreErr(err)
	}

	s.publish(ctx, "plan.updated", map[string]any{
		"plan_id":  p.ID,
		"owner_id": p.OwnerID,
	})
	return nil
}

func (s *PlanScheduler) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}
	if err := s.ownedPlan(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, models.PlansCollection, id); err != nil {
		return mapStoreErr(err)
	}

	s.publish(ctx, "plan.deleted", map[string]any{
		"plan_id":  id,
		"owner_id": ownerID,
	})
	return nil
}

// List returns a snapshot of the owner's plans ordered by start.
func (s *PlanScheduler) List(ctx context.Context, ownerID string) ([]models.Plan, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return s.snapshot(ctx, ownerID)
}

// Plans opens a live feed of the owner's plans. The caller owns the
// returned feed and must close it.
func (s *PlanScheduler) Plans(ctx context.Context, ownerID string) (*PlanFeed, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	sub, err := s.store.LiveQuery(ctx, models.PlansCollection, store.Filter{"owner_id": ownerID})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	feed := &PlanFeed{sub: sub, ch: make(chan []models.Plan, 1)}
	go feed.run()
	return feed, nil
}

// PlannedDaysForMonth returns the days of the given month touched by
// any of the owner's plans, for calendar highlighting. A plan ending at
// 00:00 does not count its end day.
func (s *PlanScheduler) PlannedDaysForMonth(ctx context.Context, ownerID string, year int, month time.Month) ([]int, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	plans, err := s.snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	for _, p := range plans {
		iv, err := p.Interval()
		if err != nil {
			return nil, mapStoreErr(err)
		}
		for _, d := range timeutil.DaysInSpan(iv.StartDate, iv.EndDate, iv.StartTime, iv.EndTime) {
			if d.Year == year && d.Month == month {
				seen[d.Day] = struct{}{}
			}
		}
	}

	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days, nil
}

// validate runs pipeline steps 1-4 and returns the parsed interval.
func (s *PlanScheduler) validate(ctx context.Context, p models.Plan, excludeID string) (models.Interval, error) {
	if p.OwnerID == "" {
		return models.Interval{}, ErrUnauthorized
	}

	iv, err := p.Interval()
	if err != nil {
		return models.Interval{}, ErrInvalidPlanData
	}
	if iv.EndAbs() <= iv.StartAbs() {
		return models.Interval{}, ErrInvalidPlanData
	}

	// The current minute counts as already past.
	now := s.now().UTC()
	nowAbs := timeutil.AbsoluteMinutes(timeutil.DateOf(now), timeutil.TimeOf(now))
	if iv.StartAbs() <= nowAbs {
		return models.Interval{}, ErrPastDateTime
	}

	// One consistent snapshot of the owner's plans; the decision is
	// made against this set as a whole, never a partial view.
	existing, err := s.snapshot(ctx, p.OwnerID)
	if err != nil {
		return models.Interval{}, err
	}
	ok, err := IsAdmissible(iv, existing, excludeID)
	if err != nil {
		return models.Interval{}, mapStoreErr(err)
	}
	if !ok {
		return models.Interval{}, ErrOverlappingPlan
	}
	return iv, nil
}

func (s *PlanScheduler) snapshot(ctx context.Context, ownerID string) ([]models.Plan, error) {
	docs, err := s.store.Query(ctx, models.PlansCollection, store.Filter{"owner_id": ownerID})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	plans := make([]models.Plan, 0, len(docs))
	for _, doc := range docs {
		var p models.Plan
		if err := doc.Decode(&p); err != nil {
			return nil, mapStoreErr(err)
		}
		plans = append(plans, p)
	}

	// ISO date and time strings order lexicographically.
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].StartDate != plans[j].StartDate {
			return plans[i].StartDate < plans[j].StartDate
		}
		return plans[i].StartTime < plans[j].StartTime
	})
	return plans, nil
}

// ownedPlan fails with ErrPlanNotFound unless id exists and belongs to
// ownerID. A foreign plan is reported as missing, not forbidden.
func (s *PlanScheduler) ownedPlan(ctx context.Context, ownerID, id string) error {
	if id == "" {
		return ErrPlanNotFound
	}
	doc, err := s.store.Get(ctx, models.PlansCollection, id)
	if err != nil {
		return mapStoreErr(err)
	}
	var existing models.Plan
	if err := doc.Decode(&existing); err != nil {
		return mapStoreErr(err)
	}
	if existing.OwnerID != ownerID {
		return ErrPlanNotFound
	}
	return nil
}

func (s *PlanScheduler) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		observability.IncAMQPPublishError()
		logger.Warnf("failed to publish %s: %v", eventType, err)
	}
}

// PlanFeed is a live view of one owner's plans.
type PlanFeed struct {
	sub store.Subscription
	ch  chan []models.Plan
}

func (f *PlanFeed) Snapshots() <-chan []models.Plan { return f.ch }

// Close releases the underlying subscription; safe to call twice.
func (f *PlanFeed) Close() { f.sub.Close() }

func (f *PlanFeed) run() {
	defer close(f.ch)
	for docs := range f.sub.Snapshots() {
		plans := make([]models.Plan, 0, len(docs))
		for _, doc := range docs {
			var p models.Plan
			if err := doc.Decode(&p); err != nil {
				logger.Warnf("plan feed: decode: %v", err)
				continue
			}
			plans = append(plans, p)
		}
		sort.Slice(plans, func(i, j int) bool {
			if plans[i].StartDate != plans[j].StartDate {
				return plans[i].StartDate < plans[j].StartDate
			}
			return plans[i].StartTime < plans[j].StartTime
		})

		select {
		case <-f.ch:
		default:
		}
		select {
		case f.ch <- plans:
		default:
		}
	}
}
