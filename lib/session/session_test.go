// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/board"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// fakeClient scripts backend behavior and records the call sequence.
type fakeClient struct {
	mutex sync.Mutex
	calls []string

	meErr      error
	stagesErr  error
	jobsErr    error
	metricsErr error
	updateErr  error
	createErr  error

	user    api.User
	stages  api.Stages
	jobs    []api.JobRecord
	metrics api.Metrics
	updated api.JobRecord
	created api.JobRecord
}

func (client *fakeClient) record(call string) {
	client.mutex.Lock()
	client.calls = append(client.calls, call)
	client.mutex.Unlock()
}

func (client *fakeClient) callLog() []string {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	log := make([]string, len(client.calls))
	copy(log, client.calls)
	return log
}

func (client *fakeClient) Me(ctx context.Context) (api.User, error) {
	client.record("me")
	return client.user, client.meErr
}

func (client *fakeClient) Stages(ctx context.Context) (api.Stages, error) {
	client.record("stages")
	return client.stages, client.stagesErr
}

func (client *fakeClient) Jobs(ctx context.Context) ([]api.JobRecord, error) {
	client.record("jobs")
	return client.jobs, client.jobsErr
}

func (client *fakeClient) Metrics(ctx context.Context) (api.Metrics, error) {
	client.record("metrics")
	return client.metrics, client.metricsErr
}

func (client *fakeClient) CreateJob(ctx context.Context, payload api.JobPayload) (api.JobRecord, error) {
	client.record("create")
	return client.created, client.createErr
}

func (client *fakeClient) UpdateJob(ctx context.Context, jobID int, payload api.JobPayload) (api.JobRecord, error) {
	client.record("update")
	return client.updated, client.updateErr
}

func (client *fakeClient) Logout(ctx context.Context) error {
	client.record("logout")
	return nil
}

func fullStages() api.Stages {
	names := []string{
		"Applied", "HR Response", "Screening", "Tech Interview",
		"Homework", "Final", "Offer", "Rejected",
	}
	stages := make(api.Stages, 0, len(names))
	for index, name := range names {
		stages = append(stages, stage.CatalogEntry{
			ID:         index + 1,
			Name:       name,
			OrderIndex: index,
			IsTerminal: name == "Rejected",
		})
	}
	return stages
}

func readyClient() *fakeClient {
	return &fakeClient{
		user:   api.User{ID: 1, Email: "dev@example.com"},
		stages: fullStages(),
		jobs: []api.JobRecord{
			{ID: 10, UserID: 1, StageID: 1, Company: "Acme", Position: "Go Engineer"},
			{ID: 11, UserID: 1, StageID: 3, Company: "Globex", Position: "SRE"},
		},
		updated: api.JobRecord{ID: 10, UserID: 1, StageID: 4, Company: "Acme", Position: "Go Engineer"},
		created: api.JobRecord{ID: 12, UserID: 1, StageID: 1, Company: "Initech", Position: "Platform"},
	}
}

func loadedSession(t *testing.T, client *fakeClient) *Session {
	t.Helper()
	session := New(client, nil)
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return session
}

func TestLoadPopulatesEverything(t *testing.T) {
	client := readyClient()
	session := loadedSession(t, client)

	snapshot := session.Snapshot()
	if snapshot.AuthRequired || snapshot.Loading {
		t.Errorf("snapshot flags = %+v", snapshot)
	}
	if snapshot.AuthUser == nil || snapshot.AuthUser.Email != "dev@example.com" {
		t.Errorf("authUser = %+v", snapshot.AuthUser)
	}
	if len(snapshot.Applications) != 2 {
		t.Fatalf("applications = %d, want 2", len(snapshot.Applications))
	}
	if snapshot.Applications[1].Stage != stage.Screening {
		t.Errorf("second application stage = %s", snapshot.Applications[1].Stage)
	}
	if !snapshot.Catalog.Ready() {
		t.Error("catalog should be ready after load")
	}

	log := client.callLog()
	if log[0] != "me" {
		t.Errorf("identity must load first, got %v", log)
	}
	if len(log) != 4 {
		t.Errorf("calls = %v, want me + three loads", log)
	}
}

func TestLoad401EntersAuthRequired(t *testing.T) {
	client := readyClient()
	client.meErr = &api.Error{Status: http.StatusUnauthorized}
	session := New(client, nil)

	err := session.Load(context.Background())
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}

	snapshot := session.Snapshot()
	if !snapshot.AuthRequired {
		t.Error("authRequired should be set")
	}
	if snapshot.AuthUser != nil {
		t.Error("authUser should be cleared")
	}
	// Only /me was attempted.
	if log := client.callLog(); len(log) != 1 {
		t.Errorf("calls = %v, want just me", log)
	}
}

func TestLoadPartialFailureIsFailure(t *testing.T) {
	client := readyClient()
	client.metricsErr = &api.Error{Status: http.StatusBadGateway, Body: "upstream down"}
	session := New(client, nil)

	err := session.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrAuthRequired) {
		t.Error("502 must not read as auth-required")
	}
	snapshot := session.Snapshot()
	if len(snapshot.Applications) != 0 {
		t.Error("failed load must not leave partial state")
	}
}

func TestMoveSequencesMetricsAfterUpdate(t *testing.T) {
	client := readyClient()
	session := loadedSession(t, client)

	if err := session.MoveToStage(context.Background(), 10, stage.Tech); err != nil {
		t.Fatalf("MoveToStage: %v", err)
	}

	log := client.callLog()
	last := log[len(log)-1]
	secondToLast := log[len(log)-2]
	if secondToLast != "update" || last != "metrics" {
		t.Errorf("mutation sequencing wrong: %v", log)
	}

	snapshot := session.Snapshot()
	if snapshot.Applications[0].Stage != stage.Tech {
		t.Errorf("moved application stage = %s, want tech (server projection)", snapshot.Applications[0].Stage)
	}
}

func TestMoveUnresolvedStageMakesNoCalls(t *testing.T) {
	client := readyClient()
	client.stages = nil // catalog stays empty
	session := loadedSession(t, client)
	callsBefore := len(client.callLog())

	err := session.MoveToStage(context.Background(), 10, stage.Tech)
	if !errors.Is(err, ErrStageMapUnready) {
		t.Fatalf("err = %v, want ErrStageMapUnready", err)
	}
	if len(client.callLog()) != callsBefore {
		t.Errorf("unresolved stage must cause zero network calls: %v", client.callLog())
	}
}

func TestMove401ClearsUserWithoutGenericError(t *testing.T) {
	client := readyClient()
	session := loadedSession(t, client)
	client.updateErr = &api.Error{Status: http.StatusUnauthorized}

	err := session.MoveToStage(context.Background(), 10, stage.Tech)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
	snapshot := session.Snapshot()
	if !snapshot.AuthRequired || snapshot.AuthUser != nil {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestMutationsRefusedWhileAuthRequired(t *testing.T) {
	client := readyClient()
	session := loadedSession(t, client)
	client.updateErr = &api.Error{Status: http.StatusUnauthorized}
	session.MoveToStage(context.Background(), 10, stage.Tech)
	callsBefore := len(client.callLog())

	if err := session.Create(context.Background(), board.NewDraft("x")); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Create err = %v", err)
	}
	if err := session.Save(context.Background(), board.Application{ID: 10}); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Save err = %v", err)
	}
	if len(client.callLog()) != callsBefore {
		t.Errorf("auth-required mutations must not reach the backend: %v", client.callLog())
	}
}

func TestCreatePrepends(t *testing.T) {
	client := readyClient()
	session := loadedSession(t, client)

	draft := board.NewDraft("Initech")
	draft.Role = "Platform"
	if err := session.Create(context.Background(), draft); err != nil {
		t.Fatalf("Create: %v", err)
	}

	snapshot := session.Snapshot()
	if len(snapshot.Applications) != 3 {
		t.Fatalf("applications = %d, want 3", len(snapshot.Applications))
	}
	if snapshot.Applications[0].ID != 12 {
		t.Errorf("created card should be first, got ID %d", snapshot.Applications[0].ID)
	}

	log := client.callLog()
	if log[len(log)-1] != "metrics" || log[len(log)-2] != "create" {
		t.Errorf("create sequencing wrong: %v", log)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	client := readyClient()
	session := loadedSession(t, client)

	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	snapshot := session.Snapshot()
	if len(snapshot.Applications) != 0 || snapshot.AuthUser != nil || !snapshot.AuthRequired {
		t.Errorf("snapshot after logout = %+v", snapshot)
	}
	if len(snapshot.Metrics.StageCounts) != 0 {
		t.Error("metrics must be cleared on logout")
	}
}

func TestLoadCancelledContext(t *testing.T) {
	client := readyClient()
	session := New(client, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := session.Load(ctx); err == nil {
		t.Error("cancelled load should report an error")
	}
	snapshot := session.Snapshot()
	if len(snapshot.Applications) != 0 {
		t.Error("cancelled load must not apply results")
	}
}
