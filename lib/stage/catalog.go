// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"log/slog"
	"sort"
)

// CatalogEntry is one stage record as served by the backend.
type CatalogEntry struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"order_index"`
	IsTerminal bool   `json:"is_terminal"`
}

// Column is one board column: a stage plus its localized title.
type Column struct {
	Stage ID
	Title string
}

// Catalog resolves between symbolic stage IDs and the backend's
// numeric stage records. It is built once per load from the /stages
// response and is immutable afterward.
type Catalog struct {
	externalIDs map[ID]int
	entries     []CatalogEntry
}

// NewCatalog builds a catalog from backend stage entries. Entries
// whose names are outside the known stage set are logged as a data
// integrity problem and excluded from resolution; they indicate the
// backend seed and the client have drifted apart.
func NewCatalog(entries []CatalogEntry, logger *slog.Logger) *Catalog {
	catalog := &Catalog{
		externalIDs: make(map[ID]int, len(entries)),
	}
	for _, entry := range entries {
		id, ok := FromName(entry.Name)
		if !ok {
			if logger != nil {
				logger.Error("unknown stage name in catalog",
					"stage_name", entry.Name,
					"stage_id", entry.ID)
			}
			continue
		}
		catalog.externalIDs[id] = entry.ID
		catalog.entries = append(catalog.entries, entry)
	}
	sort.SliceStable(catalog.entries, func(a, b int) bool {
		return catalog.entries[a].OrderIndex < catalog.entries[b].OrderIndex
	})
	return catalog
}

// ExternalID returns the backend's numeric ID for a stage. The second
// return is false when the catalog has no mapping for the stage;
// callers must treat that as a hard precondition failure for any
// mutation that names a stage.
func (catalog *Catalog) ExternalID(id ID) (int, bool) {
	if catalog == nil {
		return 0, false
	}
	externalID, ok := catalog.externalIDs[id]
	if !ok || externalID == 0 {
		return 0, false
	}
	return externalID, true
}

// Ready reports whether the catalog can resolve at least the Applied
// stage. Creation defaults to Applied, so an unready catalog blocks
// all mutations.
func (catalog *Catalog) Ready() bool {
	_, ok := catalog.ExternalID(Applied)
	return ok
}

// Columns returns the board columns in backend order with localized
// titles. When the catalog is empty (stages not yet loaded, or every
// entry was unresolvable) it falls back to the full pipeline in its
// fixed order so the board still renders.
func (catalog *Catalog) Columns(lang Language) []Column {
	if catalog == nil || len(catalog.entries) == 0 {
		columns := make([]Column, 0, len(Pipeline))
		for _, id := range Pipeline {
			columns = append(columns, Column{Stage: id, Title: Title(id, lang)})
		}
		return columns
	}
	columns := make([]Column, 0, len(catalog.entries))
	for _, entry := range catalog.entries {
		id, ok := FromName(entry.Name)
		if !ok {
			continue
		}
		columns = append(columns, Column{Stage: id, Title: Title(id, lang)})
	}
	return columns
}

// Resolve maps a backend numeric stage ID back to a symbolic stage.
// Unknown numeric IDs return ("", false).
func (catalog *Catalog) Resolve(externalID int) (ID, bool) {
	if catalog == nil {
		return "", false
	}
	for id, candidate := range catalog.externalIDs {
		if candidate == externalID {
			return id, true
		}
	}
	return "", false
}
