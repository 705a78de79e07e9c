// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package board projects backend records into the view models the
// board renders. Everything here is pure: no I/O, no clocks, no
// hidden state. The same inputs always produce the same outputs.
package board

import (
	"log/slog"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// Priority is the card priority. The backend stores it as free text;
// projection normalizes absent values to medium.
type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

// Application is the card view model. Optional backend fields are
// plain strings here, empty when absent; the view never deals with
// nils.
type Application struct {
	ID        int
	Company   string
	Role      string
	Location  string
	Salary    string
	Notes     string
	Stage     stage.ID
	AppliedAt string
	LastTouch string
	Priority  Priority
	Source    string
}

// Draft holds the fields of an application that does not exist on the
// backend yet. It deliberately has no ID: unsaved and persisted cards
// are different types, so a draft can never be mistaken for a real
// record in a mutation path.
type Draft struct {
	Company   string
	Role      string
	Location  string
	Salary    string
	Notes     string
	Stage     stage.ID
	AppliedAt string
	Priority  Priority
	Source    string
}

// NewDraft returns a draft with the defaults for a fresh card: stage
// Applied, priority medium, given placeholder company name.
func NewDraft(company string) Draft {
	return Draft{
		Company:  company,
		Stage:    stage.Applied,
		Priority: Medium,
	}
}

// formatDate truncates a backend timestamp to its date component.
// Backend timestamps are ISO 8601, so the date is the first ten bytes.
func formatDate(value *string) string {
	if value == nil || *value == "" {
		return ""
	}
	text := *value
	if len(text) > 10 {
		return text[:10]
	}
	return text
}

// lastTouch scans the stage timestamps from the end of the pipeline
// backward and returns the first one present, date-only. Later stages
// win regardless of chronology: the record's furthest progress is the
// most recent meaningful event.
func lastTouch(record api.JobRecord) string {
	ordered := []*string{
		record.RejectedAt,
		record.OfferAt,
		record.FinalAt,
		record.HomeworkAt,
		record.TechInterviewAt,
		record.ScreeningAt,
		record.HRResponseAt,
		record.AppliedAt,
	}
	for _, timestamp := range ordered {
		if timestamp != nil && *timestamp != "" {
			return formatDate(timestamp)
		}
	}
	return ""
}

func orEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// ToApplication projects one backend record into a card. A stage_id
// the catalog cannot resolve falls back to Applied; the record is
// surfaced rather than dropped, and the mismatch is logged as a data
// integrity problem.
func ToApplication(record api.JobRecord, catalog *stage.Catalog, logger *slog.Logger) Application {
	stageID, ok := catalog.Resolve(record.StageID)
	if !ok {
		if logger != nil {
			logger.Warn("record has unresolvable stage, showing as applied",
				"job_id", record.ID,
				"stage_id", record.StageID)
		}
		stageID = stage.Applied
	}

	priority := Medium
	switch orEmpty(record.Priority) {
	case string(Low):
		priority = Low
	case string(High):
		priority = High
	}

	return Application{
		ID:        record.ID,
		Company:   record.Company,
		Role:      record.Position,
		Location:  orEmpty(record.Stack),
		Salary:    orEmpty(record.Salary),
		Notes:     orEmpty(record.Notes),
		Stage:     stageID,
		AppliedAt: formatDate(record.AppliedAt),
		LastTouch: lastTouch(record),
		Priority:  priority,
		Source:    orEmpty(record.Source),
	}
}

// ToApplications projects a full /jobs response, preserving order.
func ToApplications(records []api.JobRecord, catalog *stage.Catalog, logger *slog.Logger) []Application {
	applications := make([]Application, 0, len(records))
	for _, record := range records {
		applications = append(applications, ToApplication(record, catalog, logger))
	}
	return applications
}

// nilIfEmpty maps the view model's empty string back to backend null.
func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringPtr(value string) *string {
	return &value
}

// CreatePayload builds the POST body for a draft. The second return
// is false when the catalog cannot resolve the draft's stage; callers
// must refuse to send anything in that case.
func CreatePayload(draft Draft, catalog *stage.Catalog) (api.JobPayload, bool) {
	externalID, ok := catalog.ExternalID(draft.Stage)
	if !ok {
		return api.JobPayload{}, false
	}
	return api.JobPayload{
		Company:   stringPtr(draft.Company),
		Position:  stringPtr(draft.Role),
		Source:    nilIfEmpty(draft.Source),
		Salary:    nilIfEmpty(draft.Salary),
		Stack:     nilIfEmpty(draft.Location),
		Notes:     nilIfEmpty(draft.Notes),
		Priority:  stringPtr(string(draft.Priority)),
		StageID:   &externalID,
		AppliedAt: nilIfEmpty(draft.AppliedAt),
	}, true
}

// UpdatePayload builds the PATCH body for a field edit. Stage is
// deliberately absent: stage transitions go through the move path so
// the backend's stage-timestamp side effects stay consistent.
func UpdatePayload(application Application) api.JobPayload {
	return api.JobPayload{
		Company:   stringPtr(application.Company),
		Position:  stringPtr(application.Role),
		Source:    nilIfEmpty(application.Source),
		Salary:    nilIfEmpty(application.Salary),
		Stack:     nilIfEmpty(application.Location),
		Notes:     nilIfEmpty(application.Notes),
		Priority:  stringPtr(string(application.Priority)),
		AppliedAt: nilIfEmpty(application.AppliedAt),
	}
}

// MovePayload builds the PATCH body for a stage transition. The second
// return is false when the target stage has no backend mapping.
func MovePayload(target stage.ID, catalog *stage.Catalog) (api.JobPayload, bool) {
	externalID, ok := catalog.ExternalID(target)
	if !ok {
		return api.JobPayload{}, false
	}
	return api.JobPayload{StageID: &externalID}, true
}
