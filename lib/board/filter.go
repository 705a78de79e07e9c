// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package board

import "strings"

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func matchesQuery(application Application, normalized string) bool {
	return strings.Contains(strings.ToLower(application.Company), normalized) ||
		strings.Contains(strings.ToLower(application.Role), normalized) ||
		strings.Contains(strings.ToLower(application.Source), normalized)
}
