// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jobfunnel/jobfunnel/lib/board"
	"github.com/jobfunnel/jobfunnel/lib/stage"
	"github.com/jobfunnel/jobfunnel/lib/tui"
)

// View renders the board. Rendering is wrapped in a containment
// boundary: a panic anywhere below produces a diagnostic panel
// instead of tearing down the program, so a single bad record can't
// take the whole board with it.
func (model Model) View() (view string) {
	defer func() {
		if fault := recover(); fault != nil {
			model.logger.Error("render fault", "fault", fmt.Sprint(fault))
			view = model.renderFault(fault)
		}
	}()

	if model.width <= 0 || model.height <= 0 {
		return T(model.lang, "loading")
	}

	var lines []string
	lines = append(lines, model.renderTitleBar())
	lines = append(lines, model.renderNotices()...)
	if model.showDashboard && !model.snapshot.AuthRequired {
		lines = append(lines, model.renderDashboard()...)
	}
	lines = append(lines, model.renderPipelineHeader())
	lines = append(lines, model.renderColumnTitles())
	lines = append(lines, model.renderCardArea()...)

	// Pad to put the help bar on the last line.
	for len(lines) < model.height-1 {
		lines = append(lines, "")
	}
	if len(lines) > model.height-1 {
		lines = lines[:model.height-1]
	}
	lines = append(lines, model.renderHelp())

	view = strings.Join(lines, "\n")

	// Drop-target highlight and floating overlays go on top, in
	// stacking order: drag ghost, dropdown, modal.
	if model.gesture.dragging() {
		view = model.renderDragOverlay(view)
	}
	if model.dropdown != nil {
		view = tui.SpliceOverlay(view, model.dropdown.Render(model.theme),
			model.dropdown.AnchorX, model.dropdown.AnchorY)
	}
	if model.modal != nil {
		modalLines, anchorX, anchorY := model.modal.Render(model.theme, model.lang, model.width, model.height)
		view = tui.SpliceOverlay(view, modalLines, anchorX, anchorY)
	}
	return view
}

// renderFault is the containment panel for a panic during rendering.
func (model Model) renderFault(fault any) string {
	style := lipgloss.NewStyle().Foreground(model.theme.ErrorForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	return strings.Join([]string{
		style.Render("The board failed to render."),
		"",
		faint.Render(fmt.Sprint(fault)),
		"",
		faint.Render(T(model.lang, "baseURL") + ": " + model.baseURL),
		faint.Render("r reload   q quit"),
	}, "\n")
}

func (model Model) renderTitleBar() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	left := titleStyle.Render(T(model.lang, "appTitle"))
	identity := ""
	if model.snapshot.AuthUser != nil {
		identity = model.snapshot.AuthUser.DisplayName() + "  "
	}
	right := faint.Render(identity + strings.ToUpper(string(model.lang)))

	gap := model.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderNotices renders the auth banner, the error banner with the
// backend address, the loading line, and the transient status notice.
// Line counts must match headerHeight.
func (model Model) renderNotices() []string {
	var lines []string
	noticeStyle := lipgloss.NewStyle().
		Foreground(model.theme.NoticeForeground).
		Background(model.theme.NoticeBackground)
	errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	if model.snapshot.AuthRequired {
		lines = append(lines, noticeStyle.Render(" "+T(model.lang, "signIn")+" "))
	}
	if model.errorText != "" && !model.snapshot.AuthRequired {
		lines = append(lines, errorStyle.Render(T(model.lang, "apiError")+": "+model.errorText))
		lines = append(lines, faint.Render(T(model.lang, "baseURL")+": "+model.baseURL))
	}
	if model.loading {
		lines = append(lines, faint.Render(T(model.lang, "loading")))
	}
	if model.notice != "" {
		lines = append(lines, noticeStyle.Render(" "+model.notice+" "))
	}
	return lines
}

// renderDashboard renders the metrics strip: summary cards,
// conversion figures with the average response badge, and the reach
// funnel. Line count must match dashboardHeight.
func (model Model) renderDashboard() []string {
	counts := board.StageCounts(model.snapshot.Metrics, model.snapshot.Applications)
	cards := board.SummaryCards(model.snapshot.Applications, counts, model.lang)

	var lines []string

	var summaryParts []string
	for _, card := range cards {
		color := model.theme.ToneNeutral
		switch card.Tone {
		case board.TonePositive:
			color = model.theme.TonePositive
		case board.ToneNegative:
			color = model.theme.ToneNegative
		}
		valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
		labelStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		summaryParts = append(summaryParts,
			labelStyle.Render(card.Label+" ")+valueStyle.Render(strconv.Itoa(card.Value)))
	}
	lines = append(lines, strings.Join(summaryParts, "   "))

	conversions := board.Conversions(model.snapshot.Metrics, model.lang)
	var conversionParts []string
	for _, conversion := range conversions {
		conversionParts = append(conversionParts,
			conversion.Label+" "+lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(conversion.Percent)+"%"))
	}
	responseBadge := T(model.lang, "avgResponse") + " " +
		strconv.Itoa(board.ResponseDays(model.snapshot.Metrics)) + " " + T(model.lang, "days")
	conversionLine := lipgloss.NewStyle().Foreground(model.theme.FaintText).
		Render(T(model.lang, "conversion") + ": ")
	if len(conversionParts) > 0 {
		conversionLine += strings.Join(conversionParts, "  ·  ")
	} else {
		conversionLine += "—"
	}
	conversionLine += "   " + lipgloss.NewStyle().Foreground(model.theme.AccentColor).Render(responseBadge)
	lines = append(lines, conversionLine)

	funnel := board.Funnel(model.snapshot.Metrics, model.snapshot.Catalog, model.lang)
	labelWidth := 0
	for _, row := range funnel {
		if width := ansi.StringWidth(row.Label); width > labelWidth {
			labelWidth = width
		}
	}
	// Bars scale to at most half the screen.
	barArea := model.width/2 - labelWidth
	if barArea < 12 {
		barArea = 12
	}
	for _, row := range funnel {
		barWidth := row.Width * barArea / 100
		if barWidth < 1 {
			barWidth = 1
		}
		color := model.theme.FunnelBar
		if row.Rejected {
			color = model.theme.FunnelBarRejected
		}
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", barWidth))
		label := lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render(padRight(row.Label, labelWidth))
		lines = append(lines, label+" "+bar+" "+strconv.Itoa(row.Count))
	}

	lines = append(lines, "")
	return lines
}

func padRight(text string, width int) string {
	gap := width - ansi.StringWidth(text)
	if gap <= 0 {
		return text
	}
	return text + strings.Repeat(" ", gap)
}

func (model Model) renderPipelineHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	line := titleStyle.Render(T(model.lang, "stageHeader"))
	if !model.snapshot.AuthRequired {
		line += "  " + faint.Render(T(model.lang, "dragHint")+"   n: "+T(model.lang, "addCard"))
	}
	return line
}

// renderColumnTitles renders the column header row. The focused
// column is highlighted; during a drag the hovered target column gets
// the drop-target background.
func (model Model) renderColumnTitles() string {
	var parts []string
	hoveredColumn := -1
	if model.gesture.dragging() {
		hoveredColumn = model.columnAt(model.gesture.pointerX)
	}
	for index, column := range model.columnRanges {
		width := column.endX - column.startX
		cards := model.applicationsInStage(column.stage)
		text := column.title + " " + strconv.Itoa(len(cards))

		style := lipgloss.NewStyle().Foreground(model.theme.FaintText).Width(width)
		if index == model.focusedColumn {
			style = style.Foreground(model.theme.HeaderForeground).Bold(true)
		}
		if index == hoveredColumn {
			style = style.Background(model.theme.DropTargetBackground)
		}
		parts = append(parts, style.MaxHeight(1).Render(ansi.Truncate(text, width-1, "…")))
	}
	return strings.Join(parts, "")
}

// renderCardArea renders the visible card rows of every column,
// joined horizontally. Geometry matches the hit ranges computed in
// recalculateLayout.
func (model Model) renderCardArea() []string {
	visible := model.visibleCardRows()
	if visible <= 0 || len(model.columnRanges) == 0 {
		return nil
	}
	areaHeight := visible * cardRowHeight

	columnBlocks := make([][]string, len(model.columnRanges))
	for index, column := range model.columnRanges {
		columnBlocks[index] = model.renderColumnCards(index, column, visible, areaHeight)
	}

	lines := make([]string, areaHeight)
	for lineIndex := 0; lineIndex < areaHeight; lineIndex++ {
		var parts []string
		for columnIndex := range model.columnRanges {
			parts = append(parts, columnBlocks[columnIndex][lineIndex])
		}
		lines[lineIndex] = strings.Join(parts, "")
	}
	return lines
}

// renderColumnCards renders one column's visible cards as exactly
// areaHeight lines, each padded to the column width. A scrollbar
// occupies the last character column when the cards overflow.
func (model Model) renderColumnCards(columnIndex int, column columnRange, visible, areaHeight int) []string {
	width := column.endX - column.startX
	cards := model.applicationsInStage(column.stage)
	offset := model.columnScroll[column.stage]

	hasScrollbar := len(cards) > visible
	contentWidth := width
	if hasScrollbar {
		contentWidth = width - 1
	}

	var lines []string
	for position := 0; position < visible; position++ {
		cardIndex := offset + position
		if cardIndex < len(cards) {
			lines = append(lines, model.renderCard(cards[cardIndex], columnIndex, cardIndex, contentWidth)...)
		} else {
			for filler := 0; filler < cardRowHeight; filler++ {
				lines = append(lines, strings.Repeat(" ", contentWidth))
			}
		}
	}
	if len(lines) > areaHeight {
		lines = lines[:areaHeight]
	}

	if hasScrollbar {
		focused := columnIndex == model.focusedColumn
		scrollbar := strings.Split(
			tui.RenderScrollbar(model.theme, areaHeight, len(cards), visible, offset, focused), "\n")
		for lineIndex := range lines {
			lines[lineIndex] += scrollbar[lineIndex]
		}
	}
	return lines
}

// renderCard renders one card as cardRowHeight lines of exactly
// contentWidth columns.
func (model Model) renderCard(application board.Application, columnIndex, cardIndex, contentWidth int) []string {
	priorityIndex := map[board.Priority]int{board.High: 0, board.Medium: 1, board.Low: 2}[application.Priority]

	base := lipgloss.NewStyle()
	selected := columnIndex == model.focusedColumn && cardIndex == model.cursorRow
	if selected {
		base = base.Background(model.theme.SelectedBackground)
	}
	// The origin card of an active drag renders dimmed; the ghost
	// overlay is the moving copy.
	beingDragged := model.gesture.active() && model.gesture.cardID == application.ID

	companyStyle := base.Bold(true).Foreground(model.theme.NormalText)
	faintStyle := base.Foreground(model.theme.FaintText)
	dotStyle := base.Foreground(model.theme.PriorityColor(priorityIndex))
	if beingDragged {
		companyStyle = faintStyle
		dotStyle = faintStyle
	}

	pad := func(line string) string {
		lineWidth := ansi.StringWidth(line)
		if lineWidth < contentWidth {
			return line + base.Render(strings.Repeat(" ", contentWidth-lineWidth))
		}
		return line
	}
	clip := func(text string, width int) string {
		if width < 1 {
			return ""
		}
		return ansi.Truncate(text, width, "…")
	}

	// Line 1: priority dot, company, stage selector at the right
	// edge.
	selector := faintStyle.Render(" ▾ ")
	lineWidth := contentWidth - selectorWidth - 2
	first := dotStyle.Render("● ") + companyStyle.Render(clip(application.Company, lineWidth))
	gap := contentWidth - ansi.StringWidth(first) - selectorWidth
	if gap < 0 {
		gap = 0
	}
	first += base.Render(strings.Repeat(" ", gap)) + selector

	// Line 2: role.
	second := pad(faintStyle.Render("  " + clip(application.Role, contentWidth-2)))

	// Line 3: last touch and source.
	meta := application.LastTouch
	if application.Source != "" {
		if meta != "" {
			meta += " · "
		}
		meta += application.Source
	}
	third := pad(faintStyle.Render("  " + clip(meta, contentWidth-2)))

	separator := strings.Repeat(" ", contentWidth)
	return []string{first, second, third, separator}
}

// renderHelp is the bottom key hint bar.
func (model Model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	bindings := []key.Binding{
		model.keys.Open, model.keys.Move, model.keys.NewCard,
		model.keys.Search, model.keys.Dashboard, model.keys.Language,
		model.keys.Reload, model.keys.Quit,
	}
	var parts []string
	if model.filterActive {
		parts = append(parts, "/"+model.filterQuery+"▌")
	} else if model.filterQuery != "" {
		parts = append(parts, "/"+model.filterQuery)
	}
	for _, binding := range bindings {
		parts = append(parts, binding.Help().Key+" "+binding.Help().Desc)
	}
	return helpStyle.Render(ansi.Truncate(strings.Join(parts, "  "), model.width, ""))
}

// renderDragOverlay splices the floating card ghost at the pointer
// and bolds the hovered column title.
func (model Model) renderDragOverlay(view string) string {
	application, ok := model.applicationByID(model.gesture.cardID)
	if !ok {
		return view
	}

	ghostStyle := lipgloss.NewStyle().
		Foreground(model.theme.OverlayForeground).
		Background(model.theme.OverlayBackground)
	boldGhost := ghostStyle.Bold(true)

	width := model.gesture.width
	if width < 12 {
		width = 12
	}
	clip := func(text string) string {
		return ansi.Truncate(text, width-2, "…")
	}
	pad := func(line string) string {
		lineWidth := ansi.StringWidth(line)
		if lineWidth < width {
			return line + ghostStyle.Render(strings.Repeat(" ", width-lineWidth))
		}
		return line
	}
	ghost := []string{
		pad(boldGhost.Render(" " + clip(application.Company))),
		pad(ghostStyle.Render(" " + clip(application.Role))),
		pad(ghostStyle.Render(" " + clip(stage.Title(application.Stage, model.lang)))),
	}

	anchorX, anchorY := model.gesture.ghostAnchor()
	view = tui.SpliceOverlay(view, ghost, anchorX, anchorY)

	// Bold the hovered drop target's title.
	hoveredColumn := model.columnAt(model.gesture.pointerX)
	if hoveredColumn >= 0 {
		column := model.columnRanges[hoveredColumn]
		view = tui.OverlayBold(view, model.boardTop, column.startX, column.endX)
	}
	return view
}
