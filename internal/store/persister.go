package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/cftutor/internal/domain"
	"github.com/soyeahso/cftutor/internal/logging"
)

// Persister writes and reads the conversation snapshot through a Store,
// applying the freshness window on load.
type Persister struct {
	store     Store
	slot      string
	freshness time.Duration
	now       func() time.Time
	log       *logging.Logger
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithPersisterClock overrides the time source used for expiry checks.
func WithPersisterClock(now func() time.Time) PersisterOption {
	return func(p *Persister) { p.now = now }
}

// NewPersister creates a Persister for one slot.
func NewPersister(s Store, slot string, freshness time.Duration, log *logging.Logger, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:     s,
		slot:      slot,
		freshness: freshness,
		now:       time.Now,
		log:       log.Sub("persist"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Save overwrites the slot with snap.
func (p *Persister) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.store.Put(ctx, p.slot, data); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	p.log.Debug().Int("conversations", len(snap.Conversations)).Int("bytes", len(data)).Msg("snapshot saved")
	return nil
}

// Load returns the saved snapshot, or nil when the slot is empty, holds
// something unparseable, or is older than the freshness window. A stale
// snapshot is dropped whole, never partially merged.
func (p *Persister) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := p.store.Get(ctx, p.slot)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		p.log.Warn().Err(err).Msg("discarding unparseable snapshot")
		return nil, nil
	}
	if snap.Expired(p.now(), p.freshness) {
		p.log.Info().Time("saved_at", snap.SavedAt).Dur("window", p.freshness).Msg("discarding expired snapshot")
		if err := p.store.Delete(ctx, p.slot); err != nil {
			p.log.Warn().Err(err).Msg("failed to delete expired snapshot")
		}
		return nil, nil
	}
	if snap.Conversations == nil {
		snap.Conversations = map[string]*domain.Conversation{}
	}
	return &snap, nil
}

// Clear removes the saved snapshot.
func (p *Persister) Clear(ctx context.Context) error {
	return p.store.Delete(ctx, p.slot)
}

// Run saves the snapshot produced by source every interval until ctx is
// done. Failures are logged and do not stop the loop.
func (p *Persister) Run(ctx context.Context, interval time.Duration, source func() *domain.Snapshot) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Save(ctx, source()); err != nil && ctx.Err() == nil {
				p.log.Warn().Err(err).Msg("autosave failed")
			}
		}
	}
}
