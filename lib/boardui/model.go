// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jobfunnel/jobfunnel/lib/board"
	"github.com/jobfunnel/jobfunnel/lib/session"
	"github.com/jobfunnel/jobfunnel/lib/stage"
	"github.com/jobfunnel/jobfunnel/lib/tui"
)

// Card layout constants: each card renders three content lines plus a
// separator line.
const (
	cardContentHeight = 3
	cardRowHeight     = cardContentHeight + 1
)

// suppressionDelay is how long after a drop the click-suppression
// flag stays set. The next pointer event after a drop release belongs
// to the finished gesture, not to whatever is under the pointer.
const suppressionDelay = 10 * time.Millisecond

// noticeFadeDelay is how long transient status notices stay visible.
const noticeFadeDelay = 4 * time.Second

// columnRange is one column's horizontal span for hit-testing.
type columnRange struct {
	stage  stage.ID
	title  string
	startX int
	endX   int
}

// cardRange is one rendered card's vertical span within a column.
type cardRange struct {
	id     int
	startY int
	endY   int // exclusive
}

// Messages produced by the model's commands.
type (
	// loadResultMsg reports a completed (or failed) full load.
	loadResultMsg struct{ err error }
	// mutationResultMsg reports a completed mutation. notice is the
	// i18n key of the success notice.
	mutationResultMsg struct {
		notice string
		err    error
	}
	// clearSuppressionMsg re-enables clicks after a drop.
	clearSuppressionMsg struct{}
	// noticeFadeMsg clears a transient notice if it is still the one
	// that scheduled the fade.
	noticeFadeMsg struct{ notice string }
)

// Model is the board's bubbletea model.
type Model struct {
	session *session.Session
	baseURL string
	logger  *slog.Logger
	theme   tui.Theme
	keys    KeyMap
	lang    stage.Language

	width  int
	height int

	snapshot  session.Snapshot
	loading   bool
	errorText string
	notice    string

	filterQuery  string
	filterActive bool

	showDashboard bool

	focusedColumn int
	cursorRow     int
	columnScroll  map[stage.ID]int

	gesture  dragGesture
	dropdown *tui.DropdownOverlay
	modal    *cardModal

	columnRanges []columnRange
	cardRanges   map[stage.ID][]cardRange
	boardTop     int
}

// New creates the board model. baseURL is shown in error notices so a
// misconfigured backend address is diagnosable from the UI.
func New(boardSession *session.Session, baseURL string, lang stage.Language, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Model{
		session:       boardSession,
		baseURL:       baseURL,
		logger:        logger,
		theme:         tui.DefaultTheme,
		keys:          DefaultKeyMap(),
		lang:          lang,
		loading:       true,
		showDashboard: true,
		columnScroll:  make(map[stage.ID]int),
		cardRanges:    make(map[stage.ID][]cardRange),
	}
}

// Init starts the initial load.
func (model Model) Init() tea.Cmd {
	return model.loadCmd()
}

func (model Model) loadCmd() tea.Cmd {
	boardSession := model.session
	return func() tea.Msg {
		return loadResultMsg{err: boardSession.Load(context.Background())}
	}
}

func (model Model) moveCmd(applicationID int, target stage.ID) tea.Cmd {
	boardSession := model.session
	return func() tea.Msg {
		return mutationResultMsg{
			notice: "moved",
			err:    boardSession.MoveToStage(context.Background(), applicationID, target),
		}
	}
}

func (model Model) createCmd(draft board.Draft) tea.Cmd {
	boardSession := model.session
	return func() tea.Msg {
		return mutationResultMsg{
			notice: "saved",
			err:    boardSession.Create(context.Background(), draft),
		}
	}
}

func (model Model) saveCmd(application board.Application) tea.Cmd {
	boardSession := model.session
	return func() tea.Msg {
		return mutationResultMsg{
			notice: "saved",
			err:    boardSession.Save(context.Background(), application),
		}
	}
}

func (model Model) logoutCmd() tea.Cmd {
	boardSession := model.session
	return func() tea.Msg {
		return mutationResultMsg{
			notice: "signedOut",
			err:    boardSession.Logout(context.Background()),
		}
	}
}

func noticeFadeCmd(notice string) tea.Cmd {
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{notice: notice}
	})
}

// Update routes messages. Value receiver returning the updated model,
// per the Elm architecture.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.recalculateLayout()
		return model, nil

	case loadResultMsg:
		model.loading = false
		model.snapshot = model.session.Snapshot()
		model.errorText = ""
		if message.err != nil && !errors.Is(message.err, session.ErrAuthRequired) {
			model.errorText = message.err.Error()
		}
		model.recalculateLayout()
		return model, nil

	case mutationResultMsg:
		model.snapshot = model.session.Snapshot()
		var fade tea.Cmd
		if message.err != nil {
			if errors.Is(message.err, session.ErrAuthRequired) {
				// The sign-in notice is the message; no error banner.
				model.errorText = ""
				model.gesture.cancel()
				model.dropdown = nil
				model.modal = nil
			} else {
				model.errorText = message.err.Error()
			}
		} else {
			model.errorText = ""
			model.notice = T(model.lang, message.notice)
			fade = noticeFadeCmd(model.notice)
		}
		model.recalculateLayout()
		return model, fade

	case noticeFadeMsg:
		if model.notice == message.notice {
			model.notice = ""
		}
		return model, nil

	case clearSuppressionMsg:
		model.gesture.clearSuppression()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.MouseMsg:
		return model.handleMouse(message)
	}

	return model, nil
}

// handleKey routes keyboard input by focus: modal first, then
// dropdown, then the search field, then board navigation.
func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit always works outside text entry.
	if model.modal == nil && !model.filterActive && key.Matches(message, model.keys.Quit) {
		return model, tea.Quit
	}

	if model.modal != nil {
		return model.handleModalKey(message)
	}

	if model.dropdown != nil {
		return model.handleDropdownKey(message)
	}

	if model.filterActive {
		return model.handleFilterKey(message)
	}

	switch {
	case key.Matches(message, model.keys.Search):
		model.filterActive = true
		return model, nil

	case key.Matches(message, model.keys.Escape):
		if model.filterQuery != "" {
			model.filterQuery = ""
			model.recalculateLayout()
		}
		return model, nil

	case key.Matches(message, model.keys.Dashboard):
		model.showDashboard = !model.showDashboard
		model.recalculateLayout()
		return model, nil

	case key.Matches(message, model.keys.Language):
		if model.lang == stage.Russian {
			model.lang = stage.English
		} else {
			model.lang = stage.Russian
		}
		model.recalculateLayout()
		return model, nil

	case key.Matches(message, model.keys.Reload):
		model.loading = true
		return model, model.loadCmd()

	case key.Matches(message, model.keys.Logout):
		return model, model.logoutCmd()

	case key.Matches(message, model.keys.NewCard):
		if model.snapshot.AuthRequired {
			return model, nil
		}
		model.modal = newCreateModal(model.lang)
		return model, nil

	case key.Matches(message, model.keys.Left):
		if model.focusedColumn > 0 {
			model.focusedColumn--
			model.cursorRow = 0
		}
		return model, nil

	case key.Matches(message, model.keys.Right):
		if model.focusedColumn < len(model.columnRanges)-1 {
			model.focusedColumn++
			model.cursorRow = 0
		}
		return model, nil

	case key.Matches(message, model.keys.Up):
		if model.cursorRow > 0 {
			model.cursorRow--
			model.scrollCursorIntoView()
		}
		return model, nil

	case key.Matches(message, model.keys.Down):
		if model.cursorRow < len(model.focusedCards())-1 {
			model.cursorRow++
			model.scrollCursorIntoView()
		}
		return model, nil

	case key.Matches(message, model.keys.Open):
		if application, ok := model.cardUnderCursor(); ok && !model.snapshot.AuthRequired {
			model.modal = newDetailModal(application)
		}
		return model, nil

	case key.Matches(message, model.keys.Move):
		if application, ok := model.cardUnderCursor(); ok && !model.snapshot.AuthRequired {
			model.openStageDropdown(application, model.width/2, model.boardTop+1)
		}
		return model, nil
	}

	return model, nil
}

func (model Model) handleModalKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch model.modal.HandleKey(message) {
	case modalClose:
		model.modal = nil
		return model, nil
	case modalSave:
		modal := model.modal
		model.modal = nil
		if modal.create {
			return model, model.createCmd(modal.toDraft())
		}
		return model, model.saveCmd(modal.toApplication())
	}
	return model, nil
}

func (model Model) handleDropdownKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.String() {
	case "up", "k":
		model.dropdown.MoveUp()
	case "down", "j":
		model.dropdown.MoveDown()
	case "enter":
		selected := model.dropdown.Selected()
		cardID := model.dropdown.CardID
		model.dropdown = nil
		return model, model.moveCmd(cardID, stage.ID(selected.Value))
	case "esc":
		model.dropdown = nil
	}
	return model, nil
}

func (model Model) handleFilterKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		model.filterQuery += string(message.Runes)
		model.recalculateLayout()
	case tea.KeyBackspace:
		if model.filterQuery != "" {
			runes := []rune(model.filterQuery)
			model.filterQuery = string(runes[:len(runes)-1])
			model.recalculateLayout()
		}
	case tea.KeyEscape:
		model.filterActive = false
		model.filterQuery = ""
		model.recalculateLayout()
	case tea.KeyEnter:
		model.filterActive = false
	}
	return model, nil
}

// openStageDropdown opens the per-card stage selector anchored at a
// screen position.
func (model *Model) openStageDropdown(application board.Application, anchorX, anchorY int) {
	columns := model.snapshot.Catalog.Columns(model.lang)
	options := make([]tui.DropdownOption, 0, len(columns))
	cursor := 0
	for index, column := range columns {
		options = append(options, tui.DropdownOption{
			Label: column.Title,
			Value: string(column.Stage),
		})
		if column.Stage == application.Stage {
			cursor = index
		}
	}
	dropdown := &tui.DropdownOverlay{
		Options: options,
		Cursor:  cursor,
		AnchorX: anchorX,
		AnchorY: anchorY,
		Field:   "stage",
		CardID:  application.ID,
	}
	if dropdown.AnchorX+dropdown.Width() > model.width {
		dropdown.AnchorX = model.width - dropdown.Width()
	}
	if dropdown.AnchorY+len(options) > model.height {
		dropdown.AnchorY = model.height - len(options)
	}
	model.dropdown = dropdown
}

// filteredApplications applies the search filter to the loaded
// collection. Pure view filter; the session's collection is
// untouched.
func (model Model) filteredApplications() []board.Application {
	return board.FilterApplications(model.snapshot.Applications, model.filterQuery)
}

// applicationsInStage returns the filtered applications of one stage,
// preserving collection order.
func (model Model) applicationsInStage(id stage.ID) []board.Application {
	var result []board.Application
	for _, application := range model.filteredApplications() {
		if application.Stage == id {
			result = append(result, application)
		}
	}
	return result
}

func (model Model) focusedCards() []board.Application {
	if model.focusedColumn < 0 || model.focusedColumn >= len(model.columnRanges) {
		return nil
	}
	return model.applicationsInStage(model.columnRanges[model.focusedColumn].stage)
}

func (model Model) cardUnderCursor() (board.Application, bool) {
	cards := model.focusedCards()
	if model.cursorRow < 0 || model.cursorRow >= len(cards) {
		return board.Application{}, false
	}
	return cards[model.cursorRow], true
}

func (model *Model) scrollCursorIntoView() {
	if model.focusedColumn < 0 || model.focusedColumn >= len(model.columnRanges) {
		return
	}
	columnStage := model.columnRanges[model.focusedColumn].stage
	visible := model.visibleCardRows()
	if visible <= 0 {
		return
	}
	offset := model.columnScroll[columnStage]
	if model.cursorRow < offset {
		model.columnScroll[columnStage] = model.cursorRow
	} else if model.cursorRow >= offset+visible {
		model.columnScroll[columnStage] = model.cursorRow - visible + 1
	}
	model.recalculateLayout()
}

func (model Model) applicationByID(applicationID int) (board.Application, bool) {
	for _, application := range model.snapshot.Applications {
		if application.ID == applicationID {
			return application, true
		}
	}
	return board.Application{}, false
}
