// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardui is the interactive kanban board for the job search
// funnel. It follows the Elm architecture via bubbletea: a Model
// holding all UI state, an Update routing keyboard and mouse
// messages, and a View assembling the frame from the session
// snapshot.
//
// Cards move between stages three ways: pointer drag (press a card,
// move past the drag threshold, release over a column), the per-card
// stage selector dropdown, and the keyboard move binding. All three
// funnel into the same session mutation, which re-fetches metrics
// before the result reaches the dashboard.
package boardui
