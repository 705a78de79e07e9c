// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the funnel board. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
//
// The fields cover universal chrome (text, selection, borders) plus
// the board's semantic categories: card priority, stage accents, and
// the dashboard's metric tones.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected card.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Priority colors (indexed 0-2: high, medium, low).
	PriorityColors [3]lipgloss.Color

	// Metric tones on the dashboard strip.
	TonePositive lipgloss.Color
	ToneNegative lipgloss.Color
	ToneNeutral  lipgloss.Color

	// Funnel bars.
	FunnelBar         lipgloss.Color
	FunnelBarRejected lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	AccentColor      lipgloss.Color

	// Column targeted by an active drag.
	DropTargetBackground lipgloss.Color

	// Notices: the auth banner and error banner.
	NoticeForeground lipgloss.Color
	NoticeBackground lipgloss.Color
	ErrorForeground  lipgloss.Color

	// Floating overlays: dropdowns, the card modal, the drag ghost.
	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color
}

// PriorityColor returns the color for a priority level (0 high,
// 1 medium, 2 low). Out-of-range values return NormalText.
func (theme Theme) PriorityColor(priority int) lipgloss.Color {
	if priority < 0 || priority >= len(theme.PriorityColors) {
		return theme.NormalText
	}
	return theme.PriorityColors[priority]
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	PriorityColors: [3]lipgloss.Color{
		lipgloss.Color("208"), // high: orange
		lipgloss.Color("75"),  // medium: blue
		lipgloss.Color("245"), // low: gray
	},

	TonePositive: lipgloss.Color("114"), // green
	ToneNegative: lipgloss.Color("196"), // red
	ToneNeutral:  lipgloss.Color("252"),

	FunnelBar:         lipgloss.Color("75"),  // blue
	FunnelBarRejected: lipgloss.Color("131"), // muted red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	AccentColor:      lipgloss.Color("220"), // amber

	DropTargetBackground: lipgloss.Color("58"), // dark amber tint

	NoticeForeground: lipgloss.Color("220"),
	NoticeBackground: lipgloss.Color("236"),
	ErrorForeground:  lipgloss.Color("196"),

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),
}
