// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package stage defines the closed set of funnel stages and the catalog
// that maps them to the backend's numeric stage records.
//
// Stage identity is two-layered: the client reasons in terms of the
// eight symbolic stage IDs below, while the backend assigns each stage
// an arbitrary numeric ID and a canonical English name. The Catalog
// bridges the two using the canonical names; numeric IDs are never
// hardcoded client-side.
package stage

// ID identifies a funnel stage. The set is closed: every application is
// in exactly one of these stages at any time.
type ID string

const (
	Applied    ID = "applied"
	HRResponse ID = "hr_response"
	Screening  ID = "screening"
	Tech       ID = "tech"
	Homework   ID = "homework"
	Final      ID = "final"
	Offer      ID = "offer"
	Rejected   ID = "rejected"
)

// Pipeline lists all stages in funnel order. Rejected is terminal and
// sorts last.
var Pipeline = []ID{
	Applied,
	HRResponse,
	Screening,
	Tech,
	Homework,
	Final,
	Offer,
	Rejected,
}

// canonicalNames maps each stage to the backend's canonical English
// stage name. The backend seeds its stage table with exactly these
// names; resolution in both directions goes through this table.
var canonicalNames = map[ID]string{
	Applied:    "Applied",
	HRResponse: "HR Response",
	Screening:  "Screening",
	Tech:       "Tech Interview",
	Homework:   "Homework",
	Final:      "Final",
	Offer:      "Offer",
	Rejected:   "Rejected",
}

var idsByName = func() map[string]ID {
	byName := make(map[string]ID, len(canonicalNames))
	for id, name := range canonicalNames {
		byName[name] = id
	}
	return byName
}()

// FromName resolves a backend stage name to a stage ID. The second
// return is false for names outside the known set.
func FromName(name string) (ID, bool) {
	id, ok := idsByName[name]
	return id, ok
}

// CanonicalName returns the backend's canonical English name for a
// stage.
func CanonicalName(id ID) string {
	return canonicalNames[id]
}

// Valid reports whether id is one of the eight known stages.
func Valid(id ID) bool {
	_, ok := canonicalNames[id]
	return ok
}

// IsActive reports whether a stage counts toward the active pipeline.
// Only Rejected is inactive.
func IsActive(id ID) bool {
	return id != Rejected
}

// IsTerminal reports whether a stage ends the funnel for an
// application.
func IsTerminal(id ID) bool {
	return id == Rejected
}

// Language selects the display language for stage titles and other
// board text.
type Language string

const (
	Russian Language = "ru"
	English Language = "en"
)

type label struct {
	ru string
	en string
}

var labels = map[ID]label{
	Applied:    {ru: "Отклик", en: "Applied"},
	HRResponse: {ru: "Ответ HR", en: "HR Response"},
	Screening:  {ru: "Скрининг", en: "Screening"},
	Tech:       {ru: "Тех интервью", en: "Tech"},
	Homework:   {ru: "Тестовое", en: "Homework"},
	Final:      {ru: "Финал", en: "Final"},
	Offer:      {ru: "Оффер", en: "Offer"},
	Rejected:   {ru: "Отказ", en: "Rejected"},
}

// Title returns the localized display title for a stage. Unknown
// stages fall back to the raw ID so a rendering bug never hides data.
func Title(id ID, lang Language) string {
	entry, ok := labels[id]
	if !ok {
		return string(id)
	}
	if lang == Russian {
		return entry.ru
	}
	return entry.en
}
