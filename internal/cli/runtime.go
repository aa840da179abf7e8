package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/cftutor/internal/backend"
	"github.com/soyeahso/cftutor/internal/hooks"
	"github.com/soyeahso/cftutor/internal/store"
	"github.com/soyeahso/cftutor/internal/tutor"
)

// hookDrainTimeout bounds how long exit waits for running hook commands.
const hookDrainTimeout = 5 * time.Second

// runtime holds the long-lived collaborators of an interactive session.
type runtime struct {
	store   store.Store
	persist *store.Persister
	client  *backend.Client
	hooks   *hooks.Manager
	app     *tutor.App

	stopAutosave func()
}

// openStore opens the configured snapshot store and its persister.
func openStore(ctx context.Context) (store.Store, *store.Persister, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	s, err := store.New(ctx, cfg.Storage, paths.StorePath(cfg.Storage), log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Driver, err)
	}
	return s, store.NewPersister(s, cfg.Storage.Slot, cfg.Storage.Freshness(), log), nil
}

func newClient() *backend.Client {
	var opts []backend.Option
	if cfg.Backend.APIKey != "" {
		opts = append(opts, backend.WithAPIKey(cfg.Backend.APIKey))
	}
	return backend.New(cfg.Backend.URL, log, opts...)
}

// openRuntime wires the store, backend client, hooks and App together.
func openRuntime(ctx context.Context, view tutor.View, confirm tutor.Confirmer) (*runtime, error) {
	s, p, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	hm := hooks.NewManager(log)
	if n := hooks.RegisterCommands(hm, cfg.Hooks); n > 0 {
		log.Info().Int("count", n).Msg("hook commands registered")
	}

	client := newClient()
	app := tutor.New(tutor.Options{
		Backend:   client,
		Persister: p,
		View:      view,
		Confirmer: confirm,
		Hooks:     hm,
		Timeout:   cfg.Backend.Timeout(),
		Log:       log,
	})
	return &runtime{store: s, persist: p, client: client, hooks: hm, app: app}, nil
}

// startAutosave saves the App snapshot every interval until Close.
func (r *runtime) startAutosave(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.persist.Run(ctx, interval, r.app.Snapshot)
	}()
	r.stopAutosave = func() {
		cancel()
		<-done
	}
}

// Close stops autosave, saves the final state, releases the store and
// waits briefly for hook commands still running. The store is never closed
// while an autosave write is in flight.
func (r *runtime) Close(ctx context.Context) error {
	if r.stopAutosave != nil {
		r.stopAutosave()
		r.stopAutosave = nil
	}
	err := r.app.Close(ctx)
	if cerr := r.store.Close(); err == nil {
		err = cerr
	}

	dctx, cancel := context.WithTimeout(ctx, hookDrainTimeout)
	defer cancel()
	if derr := r.hooks.Drain(dctx); derr != nil {
		log.Warn().Err(derr).Msg("exiting with hooks still running")
	}
	return err
}
