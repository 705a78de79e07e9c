// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jobfunnel/jobfunnel/lib/board"
	"github.com/jobfunnel/jobfunnel/lib/stage"
	"github.com/jobfunnel/jobfunnel/lib/tui"
)

// modalField indexes the editable fields of the card modal, in
// display order.
type modalField int

const (
	fieldCompany modalField = iota
	fieldRole
	fieldLocation
	fieldSalary
	fieldSource
	fieldPriority
	fieldAppliedAt
	fieldNotes
	fieldCount
)

var fieldLabels = map[modalField]string{
	fieldCompany:   "company",
	fieldRole:      "role",
	fieldLocation:  "location",
	fieldSalary:    "salary",
	fieldSource:    "sourceLabel",
	fieldPriority:  "priority",
	fieldAppliedAt: "appliedAt",
	fieldNotes:     "notes",
}

// cardModal is the detail/edit overlay for one card. It holds a
// working copy of the card's fields; nothing touches the session
// until the user saves. A create modal has no card ID: the working
// copy becomes a board.Draft on save, so an unsaved card can never
// reach a mutation path that expects a persisted one.
type cardModal struct {
	cardID    int  // zero when creating
	create    bool
	editing   bool
	cardStage stage.ID
	lastTouch string

	// Working copy of the editable fields.
	company   []rune
	role      []rune
	location  []rune
	salary    []rune
	source    []rune
	appliedAt []rune
	notes     []rune
	priority  board.Priority

	field  modalField
	cursor int // rune index within the focused text field
}

// newDetailModal opens an existing card in view mode.
func newDetailModal(application board.Application) *cardModal {
	return &cardModal{
		cardID:    application.ID,
		cardStage: application.Stage,
		lastTouch: application.LastTouch,
		company:   []rune(application.Company),
		role:      []rune(application.Role),
		location:  []rune(application.Location),
		salary:    []rune(application.Salary),
		source:    []rune(application.Source),
		appliedAt: []rune(application.AppliedAt),
		notes:     []rune(application.Notes),
		priority:  application.Priority,
	}
}

// newCreateModal opens an empty draft in edit mode.
func newCreateModal(lang stage.Language) *cardModal {
	draft := board.NewDraft(T(lang, "newCard"))
	modal := &cardModal{
		create:    true,
		editing:   true,
		cardStage: draft.Stage,
		company:   []rune(draft.Company),
		priority:  draft.Priority,
	}
	modal.cursor = len(modal.company)
	return modal
}

// toDraft converts the working copy into a draft for creation.
func (modal *cardModal) toDraft() board.Draft {
	return board.Draft{
		Company:   string(modal.company),
		Role:      string(modal.role),
		Location:  string(modal.location),
		Salary:    string(modal.salary),
		Notes:     string(modal.notes),
		Stage:     modal.cardStage,
		AppliedAt: string(modal.appliedAt),
		Priority:  modal.priority,
		Source:    string(modal.source),
	}
}

// toApplication converts the working copy into the application to
// save. Stage and last touch pass through untouched: field edits
// never move a card.
func (modal *cardModal) toApplication() board.Application {
	return board.Application{
		ID:        modal.cardID,
		Company:   string(modal.company),
		Role:      string(modal.role),
		Location:  string(modal.location),
		Salary:    string(modal.salary),
		Notes:     string(modal.notes),
		Stage:     modal.cardStage,
		AppliedAt: string(modal.appliedAt),
		LastTouch: modal.lastTouch,
		Priority:  modal.priority,
		Source:    string(modal.source),
	}
}

// focusedText returns the rune slice of the focused text field, or
// nil for the priority field.
func (modal *cardModal) focusedText() *[]rune {
	switch modal.field {
	case fieldCompany:
		return &modal.company
	case fieldRole:
		return &modal.role
	case fieldLocation:
		return &modal.location
	case fieldSalary:
		return &modal.salary
	case fieldSource:
		return &modal.source
	case fieldAppliedAt:
		return &modal.appliedAt
	case fieldNotes:
		return &modal.notes
	default:
		return nil
	}
}

func (modal *cardModal) clampCursor() {
	text := modal.focusedText()
	if text == nil {
		modal.cursor = 0
		return
	}
	if modal.cursor > len(*text) {
		modal.cursor = len(*text)
	}
	if modal.cursor < 0 {
		modal.cursor = 0
	}
}

func (modal *cardModal) nextField() {
	modal.field = (modal.field + 1) % fieldCount
	modal.cursor = 0
	if text := modal.focusedText(); text != nil {
		modal.cursor = len(*text)
	}
}

func (modal *cardModal) previousField() {
	modal.field = (modal.field - 1 + fieldCount) % fieldCount
	modal.cursor = 0
	if text := modal.focusedText(); text != nil {
		modal.cursor = len(*text)
	}
}

func (modal *cardModal) cyclePriority(forward bool) {
	order := []board.Priority{board.Low, board.Medium, board.High}
	index := 1
	for position, priority := range order {
		if priority == modal.priority {
			index = position
		}
	}
	if forward {
		index = (index + 1) % len(order)
	} else {
		index = (index - 1 + len(order)) % len(order)
	}
	modal.priority = order[index]
}

func (modal *cardModal) insertRune(character rune) {
	text := modal.focusedText()
	if text == nil {
		return
	}
	line := *text
	updated := make([]rune, len(line)+1)
	copy(updated, line[:modal.cursor])
	updated[modal.cursor] = character
	copy(updated[modal.cursor+1:], line[modal.cursor:])
	*text = updated
	modal.cursor++
}

// modalAction is what the model should do after the modal consumed a
// key.
type modalAction int

const (
	modalContinue modalAction = iota
	modalClose
	modalSave
)

// HandleKey processes a key press. View mode supports open-for-edit
// and close; edit mode is a field editor.
func (modal *cardModal) HandleKey(message tea.KeyMsg) modalAction {
	if !modal.editing {
		switch message.String() {
		case "e":
			modal.editing = true
			modal.field = fieldCompany
			modal.cursor = len(modal.company)
			return modalContinue
		case "esc", "q", "enter":
			return modalClose
		}
		return modalContinue
	}

	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		if modal.field == fieldPriority {
			if message.Type == tea.KeySpace {
				modal.cyclePriority(true)
			}
			return modalContinue
		}
		for _, character := range message.Runes {
			modal.insertRune(character)
		}

	case tea.KeyEnter:
		if modal.field == fieldNotes {
			modal.insertRune('\n')
			return modalContinue
		}
		modal.nextField()

	case tea.KeyTab, tea.KeyDown:
		modal.nextField()

	case tea.KeyShiftTab, tea.KeyUp:
		modal.previousField()

	case tea.KeyLeft:
		if modal.field == fieldPriority {
			modal.cyclePriority(false)
			return modalContinue
		}
		if modal.cursor > 0 {
			modal.cursor--
		}

	case tea.KeyRight:
		if modal.field == fieldPriority {
			modal.cyclePriority(true)
			return modalContinue
		}
		if text := modal.focusedText(); text != nil && modal.cursor < len(*text) {
			modal.cursor++
		}

	case tea.KeyBackspace:
		text := modal.focusedText()
		if text != nil && modal.cursor > 0 {
			line := *text
			*text = append(line[:modal.cursor-1], line[modal.cursor:]...)
			modal.cursor--
		}

	case tea.KeyDelete:
		text := modal.focusedText()
		if text != nil && modal.cursor < len(*text) {
			line := *text
			*text = append(line[:modal.cursor], line[modal.cursor+1:]...)
		}

	case tea.KeyHome, tea.KeyCtrlA:
		modal.cursor = 0

	case tea.KeyEnd, tea.KeyCtrlE:
		if text := modal.focusedText(); text != nil {
			modal.cursor = len(*text)
		}

	case tea.KeyCtrlS:
		return modalSave

	case tea.KeyEscape:
		if modal.create {
			return modalClose
		}
		modal.editing = false
		return modalContinue
	}

	modal.clampCursor()
	return modalContinue
}

// Modal chrome: 2 columns border + 2 padding horizontally, 2 lines
// border + 1 title + 1 footer vertically.
const (
	cardModalChromeWidth  = 4
	cardModalChromeHeight = 4
	cardModalMinWidth     = 44
	cardModalMargin       = 4
)

// renderFieldValue renders one field's current value, with a cursor
// when the field is focused in edit mode.
func (modal *cardModal) renderFieldValue(field modalField, theme tui.Theme, lang stage.Language) string {
	valueStyle := lipgloss.NewStyle().
		Foreground(theme.OverlayForeground).
		Background(theme.OverlayBackground)
	cursorStyle := lipgloss.NewStyle().Reverse(true)

	if field == fieldPriority {
		value := T(lang, string(modal.priority))
		if modal.editing && modal.field == fieldPriority {
			return cursorStyle.Render("◂ " + value + " ▸")
		}
		return valueStyle.Render(value)
	}

	var text []rune
	switch field {
	case fieldCompany:
		text = modal.company
	case fieldRole:
		text = modal.role
	case fieldLocation:
		text = modal.location
	case fieldSalary:
		text = modal.salary
	case fieldSource:
		text = modal.source
	case fieldAppliedAt:
		text = modal.appliedAt
	case fieldNotes:
		text = modal.notes
	}

	display := strings.ReplaceAll(string(text), "\n", " ⏎ ")
	if !modal.editing || modal.field != field {
		if display == "" {
			display = "-"
		}
		return valueStyle.Render(display)
	}

	// Focused in edit mode: render with cursor. Newlines display as
	// a marker, so cursor math uses the raw rune slice.
	cursor := modal.cursor
	if cursor >= len(text) {
		return valueStyle.Render(strings.ReplaceAll(string(text), "\n", " ⏎ ")) + cursorStyle.Render(" ")
	}
	before := strings.ReplaceAll(string(text[:cursor]), "\n", " ⏎ ")
	at := string(text[cursor : cursor+1])
	if at == "\n" {
		at = "⏎"
	}
	after := strings.ReplaceAll(string(text[cursor+1:]), "\n", " ⏎ ")
	return valueStyle.Render(before) + cursorStyle.Render(at) + valueStyle.Render(after)
}

// Render produces the modal overlay lines plus the anchor for
// splicing, centered on screen.
func (modal *cardModal) Render(theme tui.Theme, lang stage.Language, screenWidth, screenHeight int) ([]string, int, int) {
	modalWidth := screenWidth - cardModalMargin*2
	if modalWidth < cardModalMinWidth {
		modalWidth = cardModalMinWidth
	}
	if modalWidth > screenWidth {
		modalWidth = screenWidth
	}
	innerWidth := modalWidth - cardModalChromeWidth

	backgroundStyle := lipgloss.NewStyle().Background(theme.OverlayBackground)
	labelStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Background(theme.OverlayBackground)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.HeaderForeground).
		Background(theme.OverlayBackground)
	footerStyle := lipgloss.NewStyle().
		Foreground(theme.HelpText).
		Background(theme.OverlayBackground)

	pad := func(line string) string {
		lineWidth := ansi.StringWidth(line)
		if lineWidth < innerWidth {
			return line + backgroundStyle.Render(strings.Repeat(" ", innerWidth-lineWidth))
		}
		return ansi.Truncate(line, innerWidth, "…")
	}

	title := string(modal.company)
	if title == "" {
		title = T(lang, "newCard")
	}
	title += "  ·  " + stage.Title(modal.cardStage, lang)

	var contentLines []string
	contentLines = append(contentLines, pad(titleStyle.Render(title)))
	contentLines = append(contentLines, pad(""))

	focusMarker := func(field modalField) string {
		if modal.editing && modal.field == field {
			return "▸ "
		}
		return "  "
	}

	for field := fieldCompany; field < fieldCount; field++ {
		label := labelStyle.Render(focusMarker(field) + T(lang, fieldLabels[field]) + ": ")
		contentLines = append(contentLines, pad(label+modal.renderFieldValue(field, theme, lang)))
	}

	// Read-only last touch for persisted cards.
	if !modal.create {
		lastTouch := modal.lastTouch
		if lastTouch == "" {
			lastTouch = "-"
		}
		contentLines = append(contentLines, pad(labelStyle.Render("  "+T(lang, "lastTouchAt")+": ")+
			lipgloss.NewStyle().Background(theme.OverlayBackground).Render(lastTouch)))
	}

	contentLines = append(contentLines, pad(""))
	footer := "e " + T(lang, "edit") + "  esc " + T(lang, "cancel")
	if modal.editing {
		footer = "ctrl+s " + T(lang, "save") + "  tab next  esc " + T(lang, "cancel")
	}
	contentLines = append(contentLines, pad(footerStyle.Render(footer)))

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Background(theme.OverlayBackground)

	rendered := borderStyle.Render(strings.Join(contentLines, "\n"))
	resultLines := strings.Split(rendered, "\n")

	renderedWidth := 0
	if len(resultLines) > 0 {
		renderedWidth = ansi.StringWidth(resultLines[0])
	}
	anchorX := (screenWidth - renderedWidth) / 2
	anchorY := (screenHeight - len(resultLines)) / 2
	if anchorX < 0 {
		anchorX = 0
	}
	if anchorY < 0 {
		anchorY = 0
	}
	return resultLines, anchorX, anchorY
}
