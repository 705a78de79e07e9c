// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"time"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// timestampColumn maps each stage to the jobs column stamped when an
// application first enters it. The column names are part of the wire
// format; they never change with display language.
var timestampColumn = map[stage.ID]string{
	stage.Applied:    "applied_at",
	stage.HRResponse: "hr_response_at",
	stage.Screening:  "screening_at",
	stage.Tech:       "tech_interview_at",
	stage.Homework:   "homework_at",
	stage.Final:      "final_at",
	stage.Offer:      "offer_at",
	stage.Rejected:   "rejected_at",
}

// MetricsFor computes the funnel aggregate for one user: current stage
// populations, how many applications ever reached each stage (by
// timestamp), pairwise conversion between consecutive non-rejected
// stages, and the average days from application to first HR response.
func (store *Store) MetricsFor(userID int) (api.Metrics, error) {
	var metrics api.Metrics

	// Current populations: left join so empty stages report zero.
	rows, err := store.db.Query(`
		SELECT s.id, s.name, COUNT(j.id)
		FROM stages s
		LEFT JOIN jobs j ON j.stage_id = s.id AND j.user_id = ?
		GROUP BY s.id, s.name
		ORDER BY s.order_index ASC`, userID)
	if err != nil {
		return api.Metrics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var count api.StageCount
		if err := rows.Scan(&count.StageID, &count.StageName, &count.Count); err != nil {
			return api.Metrics{}, err
		}
		metrics.StageCounts = append(metrics.StageCounts, count)
	}
	if err := rows.Err(); err != nil {
		return api.Metrics{}, err
	}

	stages, err := store.Stages()
	if err != nil {
		return api.Metrics{}, err
	}

	reached := make(map[string]int, len(stages))
	for _, entry := range stages {
		id, ok := stage.FromName(entry.Name)
		if !ok {
			continue
		}
		column := timestampColumn[id]
		var count int
		if err := store.db.QueryRow(
			`SELECT COUNT(id) FROM jobs WHERE user_id = ? AND `+column+` IS NOT NULL`,
			userID,
		).Scan(&count); err != nil {
			return api.Metrics{}, err
		}
		reached[entry.Name] = count
	}

	for _, entry := range stages {
		metrics.StageProgress = append(metrics.StageProgress, api.StageCount{
			StageID:   entry.ID,
			StageName: entry.Name,
			Count:     reached[entry.Name],
		})
	}

	var funnel []stage.CatalogEntry
	for _, entry := range stages {
		if entry.Name != stage.CanonicalName(stage.Rejected) {
			funnel = append(funnel, entry)
		}
	}
	for index := 0; index+1 < len(funnel); index++ {
		from, to := funnel[index], funnel[index+1]
		conversion := api.Conversion{
			FromStageID:   from.ID,
			FromStageName: from.Name,
			ToStageID:     to.ID,
			ToStageName:   to.Name,
		}
		if fromCount := reached[from.Name]; fromCount > 0 {
			rate := float64(reached[to.Name]) / float64(fromCount)
			conversion.Rate = &rate
		}
		metrics.Conversions = append(metrics.Conversions, conversion)
	}

	metrics.AvgHRResponseDays, err = store.avgHRResponseDays(userID)
	if err != nil {
		return api.Metrics{}, err
	}
	return metrics, nil
}

// avgHRResponseDays averages applied_at to hr_response_at over jobs
// that have both. Nil when no job has a response yet.
func (store *Store) avgHRResponseDays(userID int) (*float64, error) {
	rows, err := store.db.Query(`
		SELECT applied_at, hr_response_at FROM jobs
		WHERE user_id = ? AND applied_at IS NOT NULL AND hr_response_at IS NOT NULL`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totalDays float64
	var samples int
	for rows.Next() {
		var appliedAt, respondedAt string
		if err := rows.Scan(&appliedAt, &respondedAt); err != nil {
			return nil, err
		}
		applied, err := time.Parse(time.RFC3339, appliedAt)
		if err != nil {
			continue
		}
		responded, err := time.Parse(time.RFC3339, respondedAt)
		if err != nil {
			continue
		}
		totalDays += responded.Sub(applied).Seconds() / 86400
		samples++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if samples == 0 {
		return nil, nil
	}
	average := totalDays / float64(samples)
	return &average, nil
}
