// Package guard serializes access to the identity store and the attendance ledger.
//
// Each resource has its own reader/writer lock. Readers share, a writer is exclusive, and
// waiters are served in arrival order so a steady stream of readers cannot starve a writer.
// When both locks are needed they are always taken identities first, ledger second.
package guard

import (
	"context"
	"fmt"
	"time"

	"SECUREATTEND/identity"
	"SECUREATTEND/ledger"
	"SECUREATTEND/models"
	"SECUREATTEND/roster"
	"SECUREATTEND/storage"

	"golang.org/x/sync/semaphore"
)

const maxReaders = 1 << 20

type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() rwLock {
	return rwLock{sem: semaphore.NewWeighted(maxReaders)}
}

func (l rwLock) rlock(ctx context.Context) error { return l.sem.Acquire(ctx, 1) }
func (l rwLock) runlock()                        { l.sem.Release(1) }
func (l rwLock) lock(ctx context.Context) error  { return l.sem.Acquire(ctx, maxReaders) }
func (l rwLock) unlock()                         { l.sem.Release(maxReaders) }

// Controller is the only way to reach the shared identity store, roster and ledger.
// The roster shares the identity lock.
type Controller struct {
	identities *identity.Store
	roster     *roster.Roster
	ledger     *ledger.Ledger

	idLock     rwLock
	ledgerLock rwLock
	timeout    time.Duration
}

type Option func(*Controller)

// WithRoster attaches a persistent roster. Without it the roster lives in memory only.
func WithRoster(r *roster.Roster) Option {
	return func(c *Controller) {
		if r != nil {
			c.roster = r
		}
	}
}

// New wraps the stores. timeout bounds each lock acquisition; zero waits for ctx only.
func New(identities *identity.Store, l *ledger.Ledger, timeout time.Duration, opts ...Option) *Controller {
	c := &Controller{
		identities: identities,
		ledger:     l,
		idLock:     newRWLock(),
		ledgerLock: newRWLock(),
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.roster == nil {
		c.roster = roster.New(storage.NewMemoryBackend())
	}
	return c
}

func (c *Controller) acquire(ctx context.Context, what string, take func(context.Context) error) error {
	actx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := take(actx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("acquire %s: %w", what, ctx.Err())
		}
		return fmt.Errorf("acquire %s: %w", what, models.ErrLockTimeout)
	}
	return nil
}

// Load reads both snapshots from the backend, holding both write locks.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.acquire(ctx, "identities", c.idLock.lock); err != nil {
		return err
	}
	defer c.idLock.unlock()
	if err := c.acquire(ctx, "attendance", c.ledgerLock.lock); err != nil {
		return err
	}
	defer c.ledgerLock.unlock()

	if err := c.identities.Load(ctx); err != nil {
		return err
	}
	if err := c.roster.Load(ctx); err != nil {
		return err
	}
	return c.ledger.Load(ctx)
}

// ReadIdentities runs fn while holding the identity read lock.
func (c *Controller) ReadIdentities(ctx context.Context, fn func(s *identity.Store) error) error {
	if err := c.acquire(ctx, "identities", c.idLock.rlock); err != nil {
		return err
	}
	defer c.idLock.runlock()
	return fn(c.identities)
}

// WriteIdentities runs a read-modify-persist fn exclusively.
func (c *Controller) WriteIdentities(ctx context.Context, fn func(ctx context.Context, s *identity.Store) error) error {
	if err := c.acquire(ctx, "identities", c.idLock.lock); err != nil {
		return err
	}
	defer c.idLock.unlock()
	return fn(ctx, c.identities)
}

// ReadEnrollment runs fn with the identity store and the roster under the identity read lock.
func (c *Controller) ReadEnrollment(ctx context.Context, fn func(s *identity.Store, r *roster.Roster) error) error {
	if err := c.acquire(ctx, "identities", c.idLock.rlock); err != nil {
		return err
	}
	defer c.idLock.runlock()
	return fn(c.identities, c.roster)
}

// WriteEnrollment runs fn exclusively over the identity store and the roster.
func (c *Controller) WriteEnrollment(ctx context.Context, fn func(ctx context.Context, s *identity.Store, r *roster.Roster) error) error {
	if err := c.acquire(ctx, "identities", c.idLock.lock); err != nil {
		return err
	}
	defer c.idLock.unlock()
	return fn(ctx, c.identities, c.roster)
}

// ReadLedger runs fn while holding the ledger read lock.
func (c *Controller) ReadLedger(ctx context.Context, fn func(l *ledger.Ledger) error) error {
	if err := c.acquire(ctx, "attendance", c.ledgerLock.rlock); err != nil {
		return err
	}
	defer c.ledgerLock.runlock()
	return fn(c.ledger)
}

// WriteLedger runs an append fn exclusively.
func (c *Controller) WriteLedger(ctx context.Context, fn func(ctx context.Context, l *ledger.Ledger) error) error {
	if err := c.acquire(ctx, "attendance", c.ledgerLock.lock); err != nil {
		return err
	}
	defer c.ledgerLock.unlock()
	return fn(ctx, c.ledger)
}

// CheckIn is the combined transaction: one identity snapshot stays valid while fn appends to
// the ledger. Enrollments wait until it finishes.
func (c *Controller) CheckIn(ctx context.Context, fn func(ctx context.Context, snap identity.Snapshot, l *ledger.Ledger) error) error {
	if err := c.acquire(ctx, "identities", c.idLock.rlock); err != nil {
		return err
	}
	defer c.idLock.runlock()
	if err := c.acquire(ctx, "attendance", c.ledgerLock.lock); err != nil {
		return err
	}
	defer c.ledgerLock.unlock()

	return fn(ctx, c.identities.LookupAll(), c.ledger)
}
