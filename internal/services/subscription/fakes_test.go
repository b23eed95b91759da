package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

// fakeRepo — потокобезопасное хранилище в памяти с тем же инвариантом,
// что и частичный уникальный индекс в PostgreSQL.
type fakeRepo struct {
	mu     sync.Mutex
	seq    int
	subs   map[string]*models.Subscription
	failOn string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: make(map[string]*models.Subscription)}
}

func (r *fakeRepo) fail(method string) error {
	if r.failOn == method {
		return errors.New("db error")
	}
	return nil
}

func clone(s *models.Subscription) *models.Subscription {
	c := *s
	return &c
}

func (r *fakeRepo) CreateSubscription(_ context.Context, sub models.Subscription) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("CreateSubscription"); err != nil {
		return nil, err
	}
	for _, s := range r.subs {
		if s.UserID == sub.UserID && s.Active() {
			return nil, fmt.Errorf("fake.CreateSubscription: %w", storage.ErrAlreadyExists)
		}
	}
	r.seq++
	sub.ID = "sub-" + strconv.Itoa(r.seq)
	sub.CreatedAt = sub.CurrentPeriodStart
	sub.UpdatedAt = sub.CurrentPeriodStart
	r.subs[sub.ID] = &sub
	return clone(&sub), nil
}

func (r *fakeRepo) GetSubscription(_ context.Context, id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("GetSubscription"); err != nil {
		return nil, err
	}
	s, ok := r.subs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(s), nil
}

func (r *fakeRepo) GetActiveSubscription(_ context.Context, userID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("GetActiveSubscription"); err != nil {
		return nil, err
	}
	for _, s := range r.subs {
		if s.UserID == userID && s.Active() {
			return clone(s), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *fakeRepo) ListSubscriptions(_ context.Context, userID string, page models.Page) ([]*models.Subscription, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ListSubscriptions"); err != nil {
		return nil, 0, err
	}
	var all []*models.Subscription
	for _, s := range r.subs {
		if userID == "" || s.UserID == userID {
			all = append(all, clone(s))
		}
	}
	slices.SortFunc(all, func(a, b *models.Subscription) int { return b.CreatedAt.Compare(a.CreatedAt) })
	total := len(all)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return all[start:end], total, nil
}

func (r *fakeRepo) ChangeSubscriptionPlan(_ context.Context, id, planID string, start, end time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ChangeSubscriptionPlan"); err != nil {
		return nil, err
	}
	s, ok := r.subs[id]
	if !ok || !s.Active() {
		return nil, storage.ErrConflict
	}
	s.PlanID = planID
	s.CurrentPeriodStart = start
	s.CurrentPeriodEnd = end
	return clone(s), nil
}

func (r *fakeRepo) CancelSubscription(_ context.Context, id string, at time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("CancelSubscription"); err != nil {
		return nil, err
	}
	s, ok := r.subs[id]
	if !ok || !s.Active() {
		return nil, storage.ErrConflict
	}
	s.Status = models.StatusCanceled
	s.CanceledAt = &at
	return clone(s), nil
}

// staleActiveRepo не видит активную подписку при предварительной проверке,
// как запрос, который опередил параллельный Create.
type staleActiveRepo struct {
	*fakeRepo
}

func (r staleActiveRepo) GetActiveSubscription(context.Context, string) (*models.Subscription, error) {
	return nil, fmt.Errorf("fake.GetActiveSubscription: %w", storage.ErrNotFound)
}

type fakePlans map[string]*models.Plan

func (p fakePlans) Get(_ context.Context, id string) (*models.Plan, error) {
	plan, ok := p[id]
	if !ok {
		return nil, apperr.NotFound("fake.Get", "plan not found")
	}
	return plan, nil
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SubscriptionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}
