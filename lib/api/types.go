// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "github.com/jobfunnel/jobfunnel/lib/stage"

// User is the authenticated account as served by /me.
type User struct {
	ID          int     `json:"id"`
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	Provider    *string `json:"provider"`
	ProviderSub *string `json:"provider_sub"`
}

// DisplayName returns the user's name, falling back to the email when
// the provider supplied no name.
func (user User) DisplayName() string {
	if user.Name != nil && *user.Name != "" {
		return *user.Name
	}
	return user.Email
}

// JobRecord is one application as stored by the backend. Optional
// fields are pointers: the backend distinguishes null from empty, and
// PATCH payloads must omit fields rather than blank them.
type JobRecord struct {
	ID              int     `json:"id"`
	UserID          int     `json:"user_id"`
	StageID         int     `json:"stage_id"`
	Company         string  `json:"company"`
	Position        string  `json:"position"`
	Source          *string `json:"source"`
	Salary          *string `json:"salary"`
	Stack           *string `json:"stack"`
	Notes           *string `json:"notes"`
	Priority        *string `json:"priority"`
	AppliedAt       *string `json:"applied_at"`
	HRResponseAt    *string `json:"hr_response_at"`
	ScreeningAt     *string `json:"screening_at"`
	TechInterviewAt *string `json:"tech_interview_at"`
	HomeworkAt      *string `json:"homework_at"`
	FinalAt         *string `json:"final_at"`
	OfferAt         *string `json:"offer_at"`
	RejectedAt      *string `json:"rejected_at"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// JobPayload is the body for POST /jobs and PATCH /jobs/{id}. Nil
// fields are omitted, which for PATCH means "leave unchanged".
type JobPayload struct {
	Company   *string `json:"company,omitempty"`
	Position  *string `json:"position,omitempty"`
	Source    *string `json:"source,omitempty"`
	Salary    *string `json:"salary,omitempty"`
	Stack     *string `json:"stack,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Priority  *string `json:"priority,omitempty"`
	StageID   *int    `json:"stage_id,omitempty"`
	AppliedAt *string `json:"applied_at,omitempty"`
}

// StageCount is one stage's population in the metrics aggregate.
type StageCount struct {
	StageID   int    `json:"stage_id"`
	StageName string `json:"stage_name"`
	Count     int    `json:"count"`
}

// Conversion is the transition rate between two consecutive funnel
// stages. Rate is nil when the from-stage has no reached applications.
type Conversion struct {
	FromStageID   int      `json:"from_stage_id"`
	FromStageName string   `json:"from_stage_name"`
	ToStageID     int      `json:"to_stage_id"`
	ToStageName   string   `json:"to_stage_name"`
	Rate          *float64 `json:"conversion_rate"`
}

// Metrics is the /metrics aggregate. StageCounts holds current
// populations; StageProgress counts applications that ever reached
// each stage (by timestamp, monotone along the funnel).
type Metrics struct {
	StageCounts       []StageCount `json:"stage_counts"`
	StageProgress     []StageCount `json:"stage_progress"`
	Conversions       []Conversion `json:"conversions"`
	AvgHRResponseDays *float64     `json:"avg_hr_response_days"`
}

// Stages re-exports the catalog entry shape so callers of the client
// don't import lib/stage just for decoding.
type Stages = []stage.CatalogEntry
