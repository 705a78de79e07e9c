// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"testing"
)

func testEntries() []CatalogEntry {
	names := []string{
		"Applied", "HR Response", "Screening", "Tech Interview",
		"Homework", "Final", "Offer", "Rejected",
	}
	entries := make([]CatalogEntry, 0, len(names))
	for index, name := range names {
		entries = append(entries, CatalogEntry{
			ID:         index + 1,
			Name:       name,
			OrderIndex: index,
			IsTerminal: name == "Rejected",
		})
	}
	return entries
}

func TestCatalogResolvesAllStages(t *testing.T) {
	catalog := NewCatalog(testEntries(), nil)
	for index, id := range Pipeline {
		externalID, ok := catalog.ExternalID(id)
		if !ok {
			t.Fatalf("stage %s: no external ID", id)
		}
		if externalID != index+1 {
			t.Errorf("stage %s: external ID = %d, want %d", id, externalID, index+1)
		}
	}
	if !catalog.Ready() {
		t.Error("catalog with full entries should be ready")
	}
}

func TestCatalogUnknownNameExcluded(t *testing.T) {
	entries := append(testEntries(), CatalogEntry{ID: 99, Name: "Phone Screen", OrderIndex: 99})
	catalog := NewCatalog(entries, nil)
	if _, ok := catalog.Resolve(99); ok {
		t.Error("unknown stage name should not resolve")
	}
	columns := catalog.Columns(English)
	if len(columns) != len(Pipeline) {
		t.Errorf("columns = %d, want %d", len(columns), len(Pipeline))
	}
}

func TestCatalogEmptyFallsBackToPipeline(t *testing.T) {
	catalog := NewCatalog(nil, nil)
	if catalog.Ready() {
		t.Error("empty catalog must not be ready")
	}
	if _, ok := catalog.ExternalID(Applied); ok {
		t.Error("empty catalog must not resolve external IDs")
	}

	columns := catalog.Columns(Russian)
	if len(columns) != len(Pipeline) {
		t.Fatalf("fallback columns = %d, want %d", len(columns), len(Pipeline))
	}
	if columns[0].Stage != Applied || columns[0].Title != "Отклик" {
		t.Errorf("first fallback column = %+v", columns[0])
	}
	if columns[len(columns)-1].Stage != Rejected {
		t.Errorf("last fallback column = %+v", columns[len(columns)-1])
	}
}

func TestCatalogColumnsFollowOrderIndex(t *testing.T) {
	entries := testEntries()
	// Scramble the slice; order_index must win.
	entries[0], entries[7] = entries[7], entries[0]
	entries[2], entries[5] = entries[5], entries[2]
	catalog := NewCatalog(entries, nil)

	columns := catalog.Columns(English)
	for index, column := range columns {
		if column.Stage != Pipeline[index] {
			t.Errorf("column %d = %s, want %s", index, column.Stage, Pipeline[index])
		}
	}
}

func TestCatalogZeroExternalIDUnresolved(t *testing.T) {
	entries := []CatalogEntry{{ID: 0, Name: "Applied", OrderIndex: 0}}
	catalog := NewCatalog(entries, nil)
	if _, ok := catalog.ExternalID(Applied); ok {
		t.Error("external ID 0 must read as unresolved")
	}
}

func TestFromName(t *testing.T) {
	cases := []struct {
		name string
		want ID
		ok   bool
	}{
		{"Applied", Applied, true},
		{"HR Response", HRResponse, true},
		{"Tech Interview", Tech, true},
		{"Rejected", Rejected, true},
		{"applied", "", false},
		{"Onsite", "", false},
	}
	for _, testCase := range cases {
		got, ok := FromName(testCase.name)
		if ok != testCase.ok || got != testCase.want {
			t.Errorf("FromName(%q) = (%q, %v), want (%q, %v)",
				testCase.name, got, ok, testCase.want, testCase.ok)
		}
	}
}

func TestStageActivity(t *testing.T) {
	for _, id := range Pipeline {
		if id == Rejected {
			if IsActive(id) || !IsTerminal(id) {
				t.Errorf("rejected should be terminal and inactive")
			}
			continue
		}
		if !IsActive(id) || IsTerminal(id) {
			t.Errorf("stage %s should be active and non-terminal", id)
		}
	}
}
