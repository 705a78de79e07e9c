// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"database/sql"

	"github.com/jobfunnel/jobfunnel/lib/api"
)

const jobColumns = `id, company, position, source, salary, stack, notes, priority,
	user_id, stage_id, applied_at, hr_response_at, screening_at, tech_interview_at,
	homework_at, final_at, offer_at, rejected_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (api.JobRecord, error) {
	var record api.JobRecord
	err := row.Scan(
		&record.ID, &record.Company, &record.Position, &record.Source,
		&record.Salary, &record.Stack, &record.Notes, &record.Priority,
		&record.UserID, &record.StageID, &record.AppliedAt,
		&record.HRResponseAt, &record.ScreeningAt, &record.TechInterviewAt,
		&record.HomeworkAt, &record.FinalAt, &record.OfferAt,
		&record.RejectedAt, &record.CreatedAt, &record.UpdatedAt,
	)
	return record, err
}

// JobsForUser returns a user's applications, most recently updated
// first. A non-nil stageID restricts the result to one stage.
func (store *Store) JobsForUser(userID int, stageID *int) ([]api.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = ?`
	args := []any{userID}
	if stageID != nil {
		query += " AND stage_id = ?"
		args = append(args, *stageID)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []api.JobRecord
	for rows.Next() {
		record, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// JobByID looks up one application regardless of owner; the handler
// enforces ownership.
func (store *Store) JobByID(id int) (api.JobRecord, error) {
	row := store.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	record, err := scanJob(row)
	if err == sql.ErrNoRows {
		return api.JobRecord{}, ErrNotFound
	}
	return record, err
}

// InsertJob stores a new application and returns it with its assigned
// ID and creation timestamps.
func (store *Store) InsertJob(record api.JobRecord) (api.JobRecord, error) {
	now := nowStamp()
	result, err := store.db.Exec(`
		INSERT INTO jobs (company, position, source, salary, stack, notes, priority,
			user_id, stage_id, applied_at, hr_response_at, screening_at,
			tech_interview_at, homework_at, final_at, offer_at, rejected_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Company, record.Position, record.Source, record.Salary,
		record.Stack, record.Notes, record.Priority, record.UserID,
		record.StageID, record.AppliedAt, record.HRResponseAt,
		record.ScreeningAt, record.TechInterviewAt, record.HomeworkAt,
		record.FinalAt, record.OfferAt, record.RejectedAt, now, now,
	)
	if err != nil {
		return api.JobRecord{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return api.JobRecord{}, err
	}
	return store.JobByID(int(id))
}

// ReplaceJob writes every mutable column of an application and bumps
// updated_at. The caller loads the record, applies the patch, and
// hands back the whole row.
func (store *Store) ReplaceJob(record api.JobRecord) (api.JobRecord, error) {
	result, err := store.db.Exec(`
		UPDATE jobs SET company = ?, position = ?, source = ?, salary = ?,
			stack = ?, notes = ?, priority = ?, stage_id = ?, applied_at = ?,
			hr_response_at = ?, screening_at = ?, tech_interview_at = ?,
			homework_at = ?, final_at = ?, offer_at = ?, rejected_at = ?,
			updated_at = ?
		WHERE id = ?`,
		record.Company, record.Position, record.Source, record.Salary,
		record.Stack, record.Notes, record.Priority, record.StageID,
		record.AppliedAt, record.HRResponseAt, record.ScreeningAt,
		record.TechInterviewAt, record.HomeworkAt, record.FinalAt,
		record.OfferAt, record.RejectedAt, nowStamp(), record.ID,
	)
	if err != nil {
		return api.JobRecord{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return api.JobRecord{}, err
	}
	if affected == 0 {
		return api.JobRecord{}, ErrNotFound
	}
	return store.JobByID(record.ID)
}
