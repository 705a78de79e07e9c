// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jobfunnel/jobfunnel/lib/board"
	"github.com/jobfunnel/jobfunnel/lib/stage"
)

// selectorWidth is the width of the "▾" stage-selector control at the
// right edge of each card's first line. Presses there open the
// dropdown instead of starting a drag.
const selectorWidth = 3

// headerHeight counts the lines above the column title row. View
// renders exactly this many lines before the board, so hit-testing
// and rendering stay in agreement.
func (model Model) headerHeight() int {
	lines := 1 // title bar
	if model.snapshot.AuthRequired {
		lines++
	}
	if model.errorText != "" && !model.snapshot.AuthRequired {
		lines += 2 // message + base URL
	}
	if model.loading {
		lines++
	}
	if model.notice != "" {
		lines++
	}
	if model.showDashboard && !model.snapshot.AuthRequired {
		lines += model.dashboardHeight()
	}
	lines++ // pipeline header (title, hint, add)
	return lines
}

// dashboardHeight counts the dashboard strip: one line of summary
// cards, one line of conversions and average response, the funnel
// rows, and a trailing blank line.
func (model Model) dashboardHeight() int {
	funnel := board.Funnel(model.snapshot.Metrics, model.snapshot.Catalog, model.lang)
	return 2 + len(funnel) + 1
}

// visibleCardRows is how many cards fit in one column.
func (model Model) visibleCardRows() int {
	// Board area: everything between the column title row and the
	// help bar.
	available := model.height - model.boardTop - 1 /*column titles*/ - 1 /*help bar*/
	if available < cardRowHeight {
		return 0
	}
	return available / cardRowHeight
}

// recalculateLayout rebuilds the hit-test geometry: column horizontal
// ranges and per-column card vertical ranges. Called whenever the
// size, snapshot, filter, language, or dashboard visibility changes.
func (model *Model) recalculateLayout() {
	model.boardTop = model.headerHeight()
	model.columnRanges = model.columnRanges[:0]
	model.cardRanges = make(map[stage.ID][]cardRange)

	if model.width <= 0 {
		return
	}

	columns := model.snapshot.Catalog.Columns(model.lang)
	if len(columns) == 0 {
		return
	}
	columnWidth := model.width / len(columns)
	if columnWidth < 8 {
		columnWidth = 8
	}

	visible := model.visibleCardRows()
	cardTop := model.boardTop + 1

	for index, column := range columns {
		startX := index * columnWidth
		endX := startX + columnWidth
		if index == len(columns)-1 && endX < model.width {
			endX = model.width
		}
		model.columnRanges = append(model.columnRanges, columnRange{
			stage:  column.Stage,
			title:  column.Title,
			startX: startX,
			endX:   endX,
		})

		cards := model.applicationsInStage(column.Stage)
		offset := model.clampScroll(column.Stage, len(cards), visible)
		var ranges []cardRange
		for position := 0; position < visible && offset+position < len(cards); position++ {
			card := cards[offset+position]
			startY := cardTop + position*cardRowHeight
			ranges = append(ranges, cardRange{
				id:     card.ID,
				startY: startY,
				endY:   startY + cardContentHeight,
			})
		}
		model.cardRanges[column.Stage] = ranges
	}

	if model.focusedColumn >= len(model.columnRanges) {
		model.focusedColumn = len(model.columnRanges) - 1
	}
	if model.focusedColumn < 0 {
		model.focusedColumn = 0
	}
}

// clampScroll keeps a column's scroll offset within range and
// returns it.
func (model *Model) clampScroll(id stage.ID, totalCards, visible int) int {
	offset := model.columnScroll[id]
	maxOffset := totalCards - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	model.columnScroll[id] = offset
	return offset
}

// columnAt returns the column index containing screen column x, or
// -1.
func (model Model) columnAt(x int) int {
	for index, column := range model.columnRanges {
		if x >= column.startX && x < column.endX {
			return index
		}
	}
	return -1
}

// dropTargetAt returns the column index for a drop at a screen
// coordinate. Only the board area (column titles down to the help
// bar) accepts drops; releasing over the dashboard or help bar is a
// miss.
func (model Model) dropTargetAt(x, y int) int {
	if y < model.boardTop || y >= model.height-1 {
		return -1
	}
	return model.columnAt(x)
}

// cardAt returns the card under a screen coordinate, if any.
func (model Model) cardAt(x, y int) (cardRange, stage.ID, bool) {
	columnIndex := model.columnAt(x)
	if columnIndex < 0 {
		return cardRange{}, "", false
	}
	columnStage := model.columnRanges[columnIndex].stage
	for _, card := range model.cardRanges[columnStage] {
		if y >= card.startY && y < card.endY {
			return card, columnStage, true
		}
	}
	return cardRange{}, "", false
}

// handleMouse processes pointer input. Gesture flags are handled
// before the button switch: an active drag consumes motion and
// release regardless of which element is under the pointer.
func (model Model) handleMouse(message tea.MouseMsg) (tea.Model, tea.Cmd) {
	// Auth loss mid-gesture discards the gesture outright.
	if model.snapshot.AuthRequired && model.gesture.active() {
		model.gesture.cancel()
		return model, nil
	}

	switch message.Action {
	case tea.MouseActionMotion:
		if model.gesture.active() {
			model.gesture.motion(message.X, message.Y)
		}
		return model, nil

	case tea.MouseActionPress:
		switch message.Button {
		case tea.MouseButtonWheelUp:
			return model.scrollColumn(message.X, -1), nil
		case tea.MouseButtonWheelDown:
			return model.scrollColumn(message.X, 1), nil
		case tea.MouseButtonLeft:
			return model.handleLeftPress(message.X, message.Y)
		}
		return model, nil

	case tea.MouseActionRelease:
		if message.Button != tea.MouseButtonLeft && message.Button != tea.MouseButtonNone {
			return model, nil
		}
		return model.handleLeftRelease(message.X, message.Y)
	}

	return model, nil
}

func (model Model) scrollColumn(x, delta int) Model {
	columnIndex := model.columnAt(x)
	if columnIndex < 0 {
		return model
	}
	columnStage := model.columnRanges[columnIndex].stage
	model.columnScroll[columnStage] += delta
	model.recalculateLayout()
	return model
}

func (model Model) handleLeftPress(x, y int) (tea.Model, tea.Cmd) {
	// An open dropdown captures the press: select inside, dismiss
	// outside.
	if model.dropdown != nil {
		if model.dropdown.Contains(x, y) {
			index := model.dropdown.OptionAtY(y)
			if index >= 0 {
				model.dropdown.Cursor = index
				selected := model.dropdown.Selected()
				cardID := model.dropdown.CardID
				model.dropdown = nil
				return model, model.moveCmd(cardID, stage.ID(selected.Value))
			}
		}
		model.dropdown = nil
		return model, nil
	}

	// The modal is keyboard-driven; a press outside it closes view
	// mode.
	if model.modal != nil {
		if !model.modal.editing {
			model.modal = nil
		}
		return model, nil
	}

	if model.snapshot.AuthRequired {
		return model, nil
	}

	card, _, ok := model.cardAt(x, y)
	if !ok {
		return model, nil
	}

	columnIndex := model.columnAt(x)
	column := model.columnRanges[columnIndex]

	// Press on the selector control opens the stage dropdown; it
	// never starts a drag.
	if x >= column.endX-selectorWidth && y == card.startY {
		if application, found := model.applicationByID(card.id); found {
			model.openStageDropdown(application, column.endX-selectorWidth, card.startY+1)
		}
		return model, nil
	}

	model.gesture.press(card.id, x, y, column.startX, card.startY,
		column.endX-column.startX, cardContentHeight)

	// Keyboard cursor follows the pointer.
	model.focusedColumn = columnIndex
	for rowIndex, candidate := range model.cardRanges[column.stage] {
		if candidate.id == card.id {
			model.cursorRow = model.columnScroll[column.stage] + rowIndex
		}
	}
	return model, nil
}

func (model Model) handleLeftRelease(x, y int) (tea.Model, tea.Cmd) {
	suppressed := model.gesture.suppressClick
	cardID := model.gesture.cardID

	switch model.gesture.release() {
	case releaseClick:
		if suppressed || model.snapshot.AuthRequired {
			return model, nil
		}
		if application, ok := model.applicationByID(cardID); ok {
			model.modal = newDetailModal(application)
		}
		return model, nil

	case releaseDrop:
		// Suppression stays on briefly so this release isn't
		// double-read as a click.
		clear := tea.Tick(suppressionDelay, func(time.Time) tea.Msg {
			return clearSuppressionMsg{}
		})
		if model.snapshot.AuthRequired {
			return model, clear
		}
		columnIndex := model.dropTargetAt(x, y)
		if columnIndex < 0 {
			// No drop target: the gesture cancels with no mutation.
			return model, clear
		}
		target := model.columnRanges[columnIndex].stage
		return model, tea.Batch(clear, model.moveCmd(cardID, target))
	}

	return model, nil
}
