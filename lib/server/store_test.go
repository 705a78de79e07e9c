// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"testing"

	"github.com/jobfunnel/jobfunnel/lib/api"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testUser(t *testing.T, store *Store, email string) api.User {
	t.Helper()
	user, err := store.CreateUser(email, nil, nil, nil)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func TestMigrationsSeedStageCatalog(t *testing.T) {
	store := openTestStore(t)

	stages, err := store.Stages()
	if err != nil {
		t.Fatalf("listing stages: %v", err)
	}
	if len(stages) != 8 {
		t.Fatalf("seeded %d stages, want 8", len(stages))
	}
	if stages[0].Name != "Applied" || stages[0].OrderIndex != 1 {
		t.Errorf("first stage = %+v, want Applied at order 1", stages[0])
	}
	last := stages[len(stages)-1]
	if last.Name != "Rejected" || !last.IsTerminal {
		t.Errorf("last stage = %+v, want terminal Rejected", last)
	}

	fallback, err := store.DefaultStage()
	if err != nil {
		t.Fatalf("default stage: %v", err)
	}
	if fallback.Name != "Applied" {
		t.Errorf("default stage = %q, want Applied", fallback.Name)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store := openTestStore(t)
	testUser(t, store, "dev@example.com")

	_, err := store.CreateUser("dev@example.com", nil, nil, nil)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate create error = %v, want ErrDuplicateEmail", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := openTestStore(t)
	user := testUser(t, store, "dev@example.com")

	if err := store.CreateSession("token-1", user.ID); err != nil {
		t.Fatalf("creating session: %v", err)
	}
	resolved, err := store.SessionUser("token-1")
	if err != nil {
		t.Fatalf("resolving session: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("session user = %d, want %d", resolved.ID, user.ID)
	}

	if err := store.DeleteSession("token-1"); err != nil {
		t.Fatalf("deleting session: %v", err)
	}
	if _, err := store.SessionUser("token-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session error = %v, want ErrNotFound", err)
	}
}

func TestInsertAndReplaceJob(t *testing.T) {
	store := openTestStore(t)
	user := testUser(t, store, "dev@example.com")

	source := "LinkedIn"
	record, err := store.InsertJob(api.JobRecord{
		UserID:  user.ID,
		StageID: 1,
		Company: "Acme", Position: "Go Engineer",
		Source: &source,
	})
	if err != nil {
		t.Fatalf("inserting job: %v", err)
	}
	if record.ID == 0 || record.CreatedAt == "" || record.UpdatedAt == "" {
		t.Fatalf("inserted record missing identity: %+v", record)
	}

	record.StageID = 3
	stamp := "2026-08-20T10:00:00Z"
	record.ScreeningAt = &stamp
	updated, err := store.ReplaceJob(record)
	if err != nil {
		t.Fatalf("replacing job: %v", err)
	}
	if updated.StageID != 3 {
		t.Errorf("stage_id = %d, want 3", updated.StageID)
	}
	if updated.ScreeningAt == nil || *updated.ScreeningAt != stamp {
		t.Errorf("screening_at = %v, want %q", updated.ScreeningAt, stamp)
	}
	if updated.Source == nil || *updated.Source != "LinkedIn" {
		t.Errorf("source = %v, replace must keep untouched fields", updated.Source)
	}

	if _, err := store.ReplaceJob(api.JobRecord{ID: 999, Company: "x", Position: "y"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("replacing missing job error = %v, want ErrNotFound", err)
	}
}

func TestJobsForUserScopesAndFilters(t *testing.T) {
	store := openTestStore(t)
	alice := testUser(t, store, "alice@example.com")
	bob := testUser(t, store, "bob@example.com")

	for _, seed := range []struct {
		user    int
		stage   int
		company string
	}{
		{alice.ID, 1, "Acme"},
		{alice.ID, 3, "Globex"},
		{bob.ID, 1, "Initech"},
	} {
		if _, err := store.InsertJob(api.JobRecord{
			UserID: seed.user, StageID: seed.stage,
			Company: seed.company, Position: "Engineer",
		}); err != nil {
			t.Fatalf("seeding job: %v", err)
		}
	}

	records, err := store.JobsForUser(alice.ID, nil)
	if err != nil {
		t.Fatalf("listing jobs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("alice has %d jobs, want 2", len(records))
	}

	screening := 3
	records, err = store.JobsForUser(alice.ID, &screening)
	if err != nil {
		t.Fatalf("filtering jobs: %v", err)
	}
	if len(records) != 1 || records[0].Company != "Globex" {
		t.Errorf("stage filter returned %+v, want only Globex", records)
	}
}

func TestMetricsAggregation(t *testing.T) {
	store := openTestStore(t)
	user := testUser(t, store, "dev@example.com")

	applied := "2026-08-01T00:00:00Z"
	responded := "2026-08-03T00:00:00Z"

	// Two applications reached Applied; one got an HR response and sits
	// in HR Response now.
	if _, err := store.InsertJob(api.JobRecord{
		UserID: user.ID, StageID: 1,
		Company: "Acme", Position: "Go Engineer",
		AppliedAt: &applied,
	}); err != nil {
		t.Fatalf("seeding job: %v", err)
	}
	if _, err := store.InsertJob(api.JobRecord{
		UserID: user.ID, StageID: 2,
		Company: "Globex", Position: "SRE",
		AppliedAt: &applied, HRResponseAt: &responded,
	}); err != nil {
		t.Fatalf("seeding job: %v", err)
	}

	metrics, err := store.MetricsFor(user.ID)
	if err != nil {
		t.Fatalf("computing metrics: %v", err)
	}

	if len(metrics.StageCounts) != 8 {
		t.Fatalf("stage_counts has %d entries, want all 8 stages", len(metrics.StageCounts))
	}
	counts := make(map[string]int)
	for _, entry := range metrics.StageCounts {
		counts[entry.StageName] = entry.Count
	}
	if counts["Applied"] != 1 || counts["HR Response"] != 1 || counts["Screening"] != 0 {
		t.Errorf("stage counts = %v", counts)
	}

	progress := make(map[string]int)
	for _, entry := range metrics.StageProgress {
		progress[entry.StageName] = entry.Count
	}
	if progress["Applied"] != 2 || progress["HR Response"] != 1 {
		t.Errorf("stage progress = %v, want Applied 2, HR Response 1", progress)
	}

	// Seven ordered non-rejected stages make six conversion pairs.
	if len(metrics.Conversions) != 6 {
		t.Fatalf("got %d conversions, want 6", len(metrics.Conversions))
	}
	first := metrics.Conversions[0]
	if first.FromStageName != "Applied" || first.ToStageName != "HR Response" {
		t.Errorf("first conversion = %s > %s", first.FromStageName, first.ToStageName)
	}
	if first.Rate == nil || *first.Rate != 0.5 {
		t.Errorf("Applied > HR Response rate = %v, want 0.5", first.Rate)
	}
	last := metrics.Conversions[len(metrics.Conversions)-1]
	if last.Rate != nil {
		t.Errorf("conversion from unreached stage should have nil rate, got %v", *last.Rate)
	}

	if metrics.AvgHRResponseDays == nil || *metrics.AvgHRResponseDays != 2 {
		t.Errorf("avg response days = %v, want 2", metrics.AvgHRResponseDays)
	}
}

func TestMetricsEmptyUser(t *testing.T) {
	store := openTestStore(t)
	user := testUser(t, store, "dev@example.com")

	metrics, err := store.MetricsFor(user.ID)
	if err != nil {
		t.Fatalf("computing metrics: %v", err)
	}
	for _, entry := range metrics.StageCounts {
		if entry.Count != 0 {
			t.Errorf("stage %s count = %d, want 0", entry.StageName, entry.Count)
		}
	}
	if metrics.AvgHRResponseDays != nil {
		t.Errorf("avg response days = %v, want nil with no responses", metrics.AvgHRResponseDays)
	}
}
