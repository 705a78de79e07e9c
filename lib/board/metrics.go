// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"math"

	"github.com/jobfunnel/jobfunnel/lib/api"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// StageCounts returns the population of each stage. The backend
// aggregate wins when present; otherwise the counts are recomputed
// locally from the loaded applications. Only counts get this fallback:
// conversion and funnel need per-stage timestamps the client never
// loads, so they render empty until the backend aggregate arrives.
func StageCounts(metrics api.Metrics, applications []Application) map[stage.ID]int {
	counts := make(map[stage.ID]int, len(stage.Pipeline))
	for _, id := range stage.Pipeline {
		counts[id] = 0
	}
	if len(metrics.StageCounts) > 0 {
		for _, item := range metrics.StageCounts {
			if id, ok := stage.FromName(item.StageName); ok {
				counts[id] = item.Count
			}
		}
		return counts
	}
	for _, application := range applications {
		counts[application.Stage]++
	}
	return counts
}

// Tone classifies a summary card for rendering.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// SummaryCard is one headline figure on the dashboard strip.
type SummaryCard struct {
	Label string
	Value int
	Note  string
	Tone  Tone
}

type summaryText struct {
	label  string
	noteRU string
	noteEN string
}

var summaryTexts = []summaryText{
	{label: "total", noteRU: "Подтягиваем из API", noteEN: "Synced from API"},
	{label: "active", noteRU: "В работе сейчас", noteEN: "In flight"},
	{label: "offers", noteRU: "Финальные решения", noteEN: "Decision stage"},
	{label: "rejections", noteRU: "Анализировать причины", noteEN: "Review reasons"},
}

var summaryLabels = map[string]map[stage.Language]string{
	"total":      {stage.Russian: "Всего откликов", stage.English: "Total"},
	"active":     {stage.Russian: "Активные", stage.English: "Active"},
	"offers":     {stage.Russian: "Офферы", stage.English: "Offers"},
	"rejections": {stage.Russian: "Отказы", stage.English: "Rejections"},
}

// SummaryCards derives the four headline cards: total, active (all
// stages except rejected), offers, rejections. Total and active come
// from the loaded applications; offers and rejections from the stage
// counts so they agree with the rest of the dashboard.
func SummaryCards(applications []Application, counts map[stage.ID]int, lang stage.Language) []SummaryCard {
	active := 0
	for _, application := range applications {
		if stage.IsActive(application.Stage) {
			active++
		}
	}

	values := []int{len(applications), active, counts[stage.Offer], counts[stage.Rejected]}
	tones := []Tone{ToneNeutral, TonePositive, TonePositive, ToneNegative}

	cards := make([]SummaryCard, 0, len(summaryTexts))
	for index, text := range summaryTexts {
		note := text.noteEN
		if lang == stage.Russian {
			note = text.noteRU
		}
		cards = append(cards, SummaryCard{
			Label: summaryLabels[text.label][lang],
			Value: values[index],
			Note:  note,
			Tone:  tones[index],
		})
	}
	return cards
}

// roundHalfUp rounds to the nearest integer with halves away from
// zero, matching how the dashboard has always displayed percentages.
func roundHalfUp(value float64) int {
	return int(math.Round(value))
}

// ConversionView is one stage-to-stage conversion figure.
type ConversionView struct {
	Label   string
	Percent int
}

// Conversions renders at most the first three conversion pairs as
// integer percentages. A nil rate displays as 0%. Pairs whose stage
// names resolve get localized labels; unresolvable names fall back to
// the backend's raw names so the figure is still attributable.
func Conversions(metrics api.Metrics, lang stage.Language) []ConversionView {
	if len(metrics.Conversions) == 0 {
		return nil
	}
	pairs := metrics.Conversions
	if len(pairs) > 3 {
		pairs = pairs[:3]
	}
	views := make([]ConversionView, 0, len(pairs))
	for _, pair := range pairs {
		fromID, fromOK := stage.FromName(pair.FromStageName)
		toID, toOK := stage.FromName(pair.ToStageName)
		label := pair.FromStageName + " > " + pair.ToStageName
		if fromOK && toOK {
			label = stage.Title(fromID, lang) + " > " + stage.Title(toID, lang)
		}
		percent := 0
		if pair.Rate != nil {
			percent = roundHalfUp(*pair.Rate * 100)
		}
		views = append(views, ConversionView{Label: label, Percent: percent})
	}
	return views
}

// FunnelRow is one bar of the reach funnel.
type FunnelRow struct {
	Label    string
	Count    int
	Width    int // percent of the widest bar, floored at 12
	Rejected bool
}

// Funnel derives the reach funnel from stage progress, ordered by the
// catalog. Bar widths are relative to the widest stage with a 12%
// floor so zero-count stages stay visible and clickable. Empty
// progress or an empty catalog yields no funnel; there is no local
// fallback because reach requires per-stage timestamps.
func Funnel(metrics api.Metrics, catalog *stage.Catalog, lang stage.Language) []FunnelRow {
	if len(metrics.StageProgress) == 0 {
		return nil
	}
	progressByName := make(map[string]int, len(metrics.StageProgress))
	for _, item := range metrics.StageProgress {
		progressByName[item.StageName] = item.Count
	}

	columns := catalog.Columns(lang)
	rows := make([]FunnelRow, 0, len(columns))
	maxCount := 1
	for _, column := range columns {
		count := progressByName[stage.CanonicalName(column.Stage)]
		if count > maxCount {
			maxCount = count
		}
		rows = append(rows, FunnelRow{
			Label:    column.Title,
			Count:    count,
			Rejected: column.Stage == stage.Rejected,
		})
	}
	for index := range rows {
		width := roundHalfUp(float64(rows[index].Count) / float64(maxCount) * 100)
		if width < 12 {
			width = 12
		}
		rows[index].Width = width
	}
	return rows
}

// ResponseDays returns the average applied-to-HR-response time in
// whole days. Any known average displays as at least one day; absent
// data displays as zero.
func ResponseDays(metrics api.Metrics) int {
	if metrics.AvgHRResponseDays == nil {
		return 0
	}
	days := roundHalfUp(*metrics.AvgHRResponseDays)
	if days < 1 {
		days = 1
	}
	return days
}

// FilterApplications returns the applications whose company, role, or
// source contains the query, case-insensitively. A blank query keeps
// everything. Pure view filter; the underlying collection is never
// modified.
func FilterApplications(applications []Application, query string) []Application {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return applications
	}
	filtered := make([]Application, 0, len(applications))
	for _, application := range applications {
		if matchesQuery(application, normalized) {
			filtered = append(filtered, application)
		}
	}
	return filtered
}
