// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides shared terminal user interface components for
// the funnel board. Built on bubbletea (Elm architecture), these
// components handle common patterns: dropdown overlays, scrollbars,
// ANSI-aware overlay splicing, and the color theme.
//
// The board itself (layout, cards, drag handling) lives in
// lib/boardui and imports this package for consistent look and
// overlay mechanics.
package tui
