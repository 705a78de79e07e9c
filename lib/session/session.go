// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the board's client-side state: the loaded
// applications, stage catalog, metrics aggregate, and authentication
// status. One Session is created when the board starts and lives for
// the life of the program; the TUI reads immutable snapshots and
// drives mutations through the methods here.
//
// Mutations are strictly sequenced: a stage move, create, or edit
// first applies the backend's response to the collection and only
// then re-fetches metrics, so the dashboard never reflects a state
// the card collection hasn't reached yet.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/board"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// ErrStageMapUnready is returned when a mutation names a stage the
// catalog cannot resolve to a backend ID. Nothing is sent to the
// backend in that case; the fix is a reload.
var ErrStageMapUnready = errors.New("stage map is not ready, reload the board")

// ErrAuthRequired is returned when a mutation is attempted while the
// session is in auth-required mode. It is a local refusal: no request
// is made.
var ErrAuthRequired = errors.New("sign in required")

// Client is the backend surface the session depends on. *api.Client
// satisfies it; tests substitute fakes.
type Client interface {
	Me(ctx context.Context) (api.User, error)
	Stages(ctx context.Context) (api.Stages, error)
	Jobs(ctx context.Context) ([]api.JobRecord, error)
	Metrics(ctx context.Context) (api.Metrics, error)
	CreateJob(ctx context.Context, payload api.JobPayload) (api.JobRecord, error)
	UpdateJob(ctx context.Context, jobID int, payload api.JobPayload) (api.JobRecord, error)
	Logout(ctx context.Context) error
}

// Session is the board state controller. All exported methods are
// safe for concurrent use.
type Session struct {
	client Client
	logger *slog.Logger

	mutex        sync.RWMutex
	applications []board.Application
	catalog      *stage.Catalog
	metrics      api.Metrics
	authUser     *api.User
	authRequired bool
	loading      bool
}

// New creates a session backed by the given client. The logger may be
// nil.
func New(client Client, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		client:  client,
		logger:  logger,
		catalog: stage.NewCatalog(nil, nil),
	}
}

// Snapshot is an immutable view of the session for rendering. The
// slices are copies; the TUI can hold a snapshot across frames.
type Snapshot struct {
	Applications []board.Application
	Catalog      *stage.Catalog
	Metrics      api.Metrics
	AuthUser     *api.User
	AuthRequired bool
	Loading      bool
}

// Snapshot returns the current state.
func (session *Session) Snapshot() Snapshot {
	session.mutex.RLock()
	defer session.mutex.RUnlock()

	applications := make([]board.Application, len(session.applications))
	copy(applications, session.applications)

	var authUser *api.User
	if session.authUser != nil {
		user := *session.authUser
		authUser = &user
	}

	return Snapshot{
		Applications: applications,
		Catalog:      session.catalog,
		Metrics:      session.metrics,
		AuthUser:     authUser,
		AuthRequired: session.authRequired,
		Loading:      session.loading,
	}
}

// enterAuthRequired flips the session into auth-required mode: the
// user identity is dropped and mutations are refused until the next
// successful load. Callers must hold the mutex.
func (session *Session) enterAuthRequired() {
	session.authRequired = true
	session.authUser = nil
}

// handleFailure routes a backend error: a 401 silently enters
// auth-required mode (the sign-in notice is the message, not an error
// banner), anything else passes through for display.
func (session *Session) handleFailure(err error) error {
	if api.IsAuthRequired(err) {
		session.mutex.Lock()
		session.enterAuthRequired()
		session.mutex.Unlock()
		session.logger.Info("session expired, sign-in required")
		return ErrAuthRequired
	}
	return err
}

// Load performs the initial (or repeated) full load. The identity
// check runs first; only once /me succeeds are stages, jobs, and
// metrics fetched concurrently. The load is complete only when all
// three have resolved, so the board never renders cards against a
// missing catalog. Cancelling ctx abandons the load without touching
// state.
func (session *Session) Load(ctx context.Context) error {
	session.mutex.Lock()
	session.loading = true
	session.authRequired = false
	session.mutex.Unlock()

	defer func() {
		session.mutex.Lock()
		session.loading = false
		session.mutex.Unlock()
	}()

	user, err := session.client.Me(ctx)
	if err != nil {
		return session.handleFailure(fmt.Errorf("loading identity: %w", err))
	}

	var (
		stages  api.Stages
		jobs    []api.JobRecord
		metrics api.Metrics
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		stages, err = session.client.Stages(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		jobs, err = session.client.Jobs(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		metrics, err = session.client.Metrics(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return session.handleFailure(fmt.Errorf("loading board: %w", err))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	catalog := stage.NewCatalog(stages, session.logger)

	session.mutex.Lock()
	session.authUser = &user
	session.catalog = catalog
	session.applications = board.ToApplications(jobs, catalog, session.logger)
	session.metrics = metrics
	session.mutex.Unlock()

	session.logger.Info("board loaded",
		"applications", len(jobs),
		"stages", len(stages))
	return nil
}

// refuseWhileAuthRequired is the client-side gate every mutation
// passes first. It never makes a request.
func (session *Session) refuseWhileAuthRequired() error {
	session.mutex.RLock()
	defer session.mutex.RUnlock()
	if session.authRequired {
		return ErrAuthRequired
	}
	return nil
}

// refreshMetrics re-fetches the aggregate after a mutation. Failures
// here follow the same 401 routing as the mutation itself.
func (session *Session) refreshMetrics(ctx context.Context) error {
	metrics, err := session.client.Metrics(ctx)
	if err != nil {
		return session.handleFailure(fmt.Errorf("refreshing metrics: %w", err))
	}
	session.mutex.Lock()
	session.metrics = metrics
	session.mutex.Unlock()
	return nil
}

// MoveToStage transitions one application to a new stage. The
// catalog must resolve the target before anything is sent; an
// unresolvable stage is a hard local failure with zero network
// traffic.
func (session *Session) MoveToStage(ctx context.Context, applicationID int, target stage.ID) error {
	if err := session.refuseWhileAuthRequired(); err != nil {
		return err
	}

	session.mutex.RLock()
	catalog := session.catalog
	session.mutex.RUnlock()

	payload, ok := board.MovePayload(target, catalog)
	if !ok {
		return ErrStageMapUnready
	}

	record, err := session.client.UpdateJob(ctx, applicationID, payload)
	if err != nil {
		return session.handleFailure(fmt.Errorf("moving application %d: %w", applicationID, err))
	}

	updated := board.ToApplication(record, catalog, session.logger)
	session.mutex.Lock()
	for index := range session.applications {
		if session.applications[index].ID == applicationID {
			session.applications[index] = updated
			break
		}
	}
	session.mutex.Unlock()

	session.logger.Info("application moved",
		"application_id", applicationID,
		"stage", string(target))
	return session.refreshMetrics(ctx)
}

// Create persists a draft and prepends the stored record to the
// collection.
func (session *Session) Create(ctx context.Context, draft board.Draft) error {
	if err := session.refuseWhileAuthRequired(); err != nil {
		return err
	}

	session.mutex.RLock()
	catalog := session.catalog
	session.mutex.RUnlock()

	payload, ok := board.CreatePayload(draft, catalog)
	if !ok {
		return ErrStageMapUnready
	}

	record, err := session.client.CreateJob(ctx, payload)
	if err != nil {
		return session.handleFailure(fmt.Errorf("creating application: %w", err))
	}

	created := board.ToApplication(record, catalog, session.logger)
	session.mutex.Lock()
	session.applications = append([]board.Application{created}, session.applications...)
	session.mutex.Unlock()

	session.logger.Info("application created", "application_id", record.ID)
	return session.refreshMetrics(ctx)
}

// Save applies field edits to a persisted application. The stage is
// never part of the payload; moves have their own path.
func (session *Session) Save(ctx context.Context, application board.Application) error {
	if err := session.refuseWhileAuthRequired(); err != nil {
		return err
	}

	session.mutex.RLock()
	catalog := session.catalog
	session.mutex.RUnlock()

	record, err := session.client.UpdateJob(ctx, application.ID, board.UpdatePayload(application))
	if err != nil {
		return session.handleFailure(fmt.Errorf("saving application %d: %w", application.ID, err))
	}

	updated := board.ToApplication(record, catalog, session.logger)
	session.mutex.Lock()
	for index := range session.applications {
		if session.applications[index].ID == application.ID {
			session.applications[index] = updated
			break
		}
	}
	session.mutex.Unlock()

	return session.refreshMetrics(ctx)
}

// Logout ends the backend session and clears all local state. The
// board returns to auth-required mode with nothing cached.
func (session *Session) Logout(ctx context.Context) error {
	err := session.client.Logout(ctx)

	session.mutex.Lock()
	session.applications = nil
	session.metrics = api.Metrics{}
	session.enterAuthRequired()
	session.mutex.Unlock()

	if err != nil && !api.IsAuthRequired(err) {
		return fmt.Errorf("logging out: %w", err)
	}
	session.logger.Info("logged out")
	return nil
}
