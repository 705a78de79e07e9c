// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jobfunnel/jobfunnel/lib/stage"
)

func TestGestureThreshold(t *testing.T) {
	var gesture dragGesture
	gesture.press(10, 5, 8, 0, 6, 20, 3)

	// Exactly at the threshold: still a click.
	gesture.motion(9, 8)
	if gesture.dragging() {
		t.Error("movement of 4 must not start a drag")
	}
	// 3-4-5 triangle: hypot 5 > 4.
	gesture.motion(8, 12)
	if !gesture.dragging() {
		t.Error("movement of 5 must start a drag")
	}
	if !gesture.suppressClick {
		t.Error("crossing the threshold must suppress the click")
	}

	// Returning to the press point does not revert to pressed.
	gesture.motion(5, 8)
	if !gesture.dragging() {
		t.Error("a drag never reverts to pressed")
	}
}

func TestGestureReleaseOutcomes(t *testing.T) {
	var gesture dragGesture
	if gesture.release() != releaseNone {
		t.Error("idle release should be none")
	}

	gesture.press(10, 5, 8, 0, 6, 20, 3)
	if gesture.release() != releaseClick {
		t.Error("sub-threshold release should be a click")
	}

	gesture.press(10, 5, 8, 0, 6, 20, 3)
	gesture.motion(30, 8)
	if gesture.release() != releaseDrop {
		t.Error("post-threshold release should be a drop")
	}
	if !gesture.suppressClick {
		t.Error("suppression persists past the drop until the tick")
	}
	gesture.clearSuppression()
	if gesture.suppressClick {
		t.Error("clearSuppression should reset the flag")
	}
}

func TestGestureGhostAnchor(t *testing.T) {
	var gesture dragGesture
	gesture.press(10, 5, 8, 0, 6, 20, 3)
	gesture.motion(40, 20)
	anchorX, anchorY := gesture.ghostAnchor()
	// Offset within the card was (5, 2); the ghost keeps the grab
	// point under the pointer.
	if anchorX != 35 || anchorY != 18 {
		t.Errorf("ghost anchor = (%d, %d), want (35, 18)", anchorX, anchorY)
	}
}

// Column geometry at 160x40 with all eight stages: each column is 20
// wide; the applied column spans x [0,20), screening x [40,60). The
// first card's content occupies rows boardTop+1 .. boardTop+3.
func pressOnFirstCard(t *testing.T, model Model) (Model, int) {
	t.Helper()
	cardY := model.boardTop + 1
	updated, _ := model.Update(tea.MouseMsg{
		X: 2, Y: cardY,
		Action: tea.MouseActionPress, Button: tea.MouseButtonLeft,
	})
	return updated.(Model), cardY
}

func TestSubThresholdClickOpensDetail(t *testing.T) {
	model := loadedModel(t, newScriptedClient())
	model, cardY := pressOnFirstCard(t, model)

	updated, _ := model.Update(tea.MouseMsg{
		X: 4, Y: cardY + 1,
		Action: tea.MouseActionMotion,
	})
	model = updated.(Model)
	if model.gesture.dragging() {
		t.Fatal("sub-threshold motion must not start a drag")
	}

	updated, _ = model.Update(tea.MouseMsg{
		X: 4, Y: cardY + 1,
		Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft,
	})
	model = updated.(Model)

	if model.modal == nil {
		t.Fatal("sub-threshold click should open the detail modal")
	}
	if model.modal.cardID != 10 {
		t.Errorf("modal card = %d, want 10", model.modal.cardID)
	}
	if model.modal.editing {
		t.Error("detail modal should open in view mode")
	}
	if !strings.Contains(model.View(), "Go Engineer") {
		t.Error("modal should render the card's role")
	}
}

func TestDragToColumnMoves(t *testing.T) {
	client := newScriptedClient()
	model := loadedModel(t, client)
	model, cardY := pressOnFirstCard(t, model)

	// Drag into the screening column.
	updated, _ := model.Update(tea.MouseMsg{X: 45, Y: cardY, Action: tea.MouseActionMotion})
	model = updated.(Model)
	if !model.gesture.dragging() {
		t.Fatal("threshold crossed, gesture should be dragging")
	}

	// The view shows the ghost and highlights the target column.
	if !strings.Contains(model.View(), "Acme") {
		t.Error("drag view should still include the card")
	}

	updated, cmd := model.Update(tea.MouseMsg{
		X: 45, Y: cardY,
		Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft,
	})
	model = runCmd(t, updated.(Model), cmd)

	found := false
	for _, call := range client.callLog() {
		if call == "update" {
			found = true
		}
	}
	if !found {
		t.Fatal("drop on a column should trigger the move mutation")
	}
	if model.snapshot.Applications[0].Stage != stage.Screening {
		t.Errorf("card stage = %s, want screening", model.snapshot.Applications[0].Stage)
	}
	if model.modal != nil {
		t.Error("a drop must not open the detail modal")
	}
}

func TestDropOutsideBoardCancels(t *testing.T) {
	client := newScriptedClient()
	model := loadedModel(t, client)
	callsBefore := len(client.callLog())
	model, cardY := pressOnFirstCard(t, model)

	updated, _ := model.Update(tea.MouseMsg{X: 45, Y: cardY, Action: tea.MouseActionMotion})
	model = updated.(Model)

	// Release over the title bar, above the board area.
	updated, cmd := model.Update(tea.MouseMsg{
		X: 45, Y: 0,
		Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft,
	})
	model = runCmd(t, updated.(Model), cmd)

	for _, call := range client.callLog()[callsBefore:] {
		if call == "update" {
			t.Error("a no-target drop must not mutate")
		}
	}
	if model.gesture.active() {
		t.Error("gesture should be idle after the cancelled drop")
	}
	if model.modal != nil {
		t.Error("a cancelled drop must not open the detail modal")
	}
}

func TestSuppressionClearsOnTick(t *testing.T) {
	model := loadedModel(t, newScriptedClient())
	model, cardY := pressOnFirstCard(t, model)

	updated, _ := model.Update(tea.MouseMsg{X: 45, Y: cardY, Action: tea.MouseActionMotion})
	model = updated.(Model)
	updated, _ = model.Update(tea.MouseMsg{
		X: 45, Y: 0,
		Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft,
	})
	model = updated.(Model)

	if !model.gesture.suppressClick {
		t.Fatal("suppression should persist immediately after the drop")
	}
	updated, _ = model.Update(clearSuppressionMsg{})
	model = updated.(Model)
	if model.gesture.suppressClick {
		t.Error("the deferred tick should clear suppression")
	}
}

func TestPressOnSelectorOpensDropdownNotDrag(t *testing.T) {
	model := loadedModel(t, newScriptedClient())
	cardY := model.boardTop + 1

	// The selector sits at the right edge of the card's first line.
	updated, _ := model.Update(tea.MouseMsg{
		X: 18, Y: cardY,
		Action: tea.MouseActionPress, Button: tea.MouseButtonLeft,
	})
	model = updated.(Model)

	if model.dropdown == nil {
		t.Fatal("selector press should open the stage dropdown")
	}
	if model.dropdown.CardID != 10 {
		t.Errorf("dropdown card = %d, want 10", model.dropdown.CardID)
	}
	if model.gesture.active() {
		t.Error("selector press must not start a drag gesture")
	}
}

func TestPressWhileAuthRequiredIgnored(t *testing.T) {
	client := newScriptedClient()
	client.meErr = apiUnauthorized()
	model := loadedModel(t, client)

	updated, _ := model.Update(tea.MouseMsg{
		X: 2, Y: model.boardTop + 1,
		Action: tea.MouseActionPress, Button: tea.MouseButtonLeft,
	})
	model = updated.(Model)
	if model.gesture.active() {
		t.Error("presses must be ignored while auth-required")
	}
}

func TestWheelScrollsColumn(t *testing.T) {
	client := newScriptedClient()
	// Enough applied-stage cards to overflow the column.
	client.jobs = nil
	for index := 0; index < 15; index++ {
		client.jobs = append(client.jobs, apiJob(20+index, 1, "Company", "Role"))
	}
	model := loadedModel(t, client)

	updated, _ := model.Update(tea.MouseMsg{
		X: 2, Y: model.boardTop + 2,
		Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown,
	})
	model = updated.(Model)
	if model.columnScroll[stage.Applied] != 1 {
		t.Errorf("scroll = %d, want 1", model.columnScroll[stage.Applied])
	}

	updated, _ = model.Update(tea.MouseMsg{
		X: 2, Y: model.boardTop + 2,
		Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp,
	})
	model = updated.(Model)
	if model.columnScroll[stage.Applied] != 0 {
		t.Errorf("scroll = %d, want 0", model.columnScroll[stage.Applied])
	}
}
