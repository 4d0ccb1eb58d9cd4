package service_test

import (
	"sync"
	"testing"
	"time"

	"content-registry/db/dbtest"
	"content-registry/service"

	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	users    *service.UserRegistry
	contents *service.ContentRegistry
}

func newFixture(t *testing.T, autoCreateUser bool) *fixture {
	t.Helper()
	s := dbtest.NewStore(t)
	clock := newFakeClock()
	users := service.NewUserRegistry(s.DB(), clock)
	return &fixture{
		db:       s.DB(),
		clock:    clock,
		users:    users,
		contents: service.NewContentRegistry(s.DB(), users, clock, autoCreateUser),
	}
}
