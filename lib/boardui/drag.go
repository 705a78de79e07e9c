// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import "math"

// dragThreshold is the Euclidean pointer movement (in cells) beyond
// which a press becomes a drag. At or below the threshold a release
// still counts as a click.
const dragThreshold = 4.0

// dragPhase enumerates the drag gesture states. Exactly one gesture
// can be in flight at a time; a new press resets any previous one.
type dragPhase int

const (
	dragIdle dragPhase = iota
	dragPressed
	dragDragging
)

// dragGesture tracks the pointer gesture on a card from press to
// release. The gesture is pure bookkeeping: it never touches the
// session. The model interprets the release outcome.
type dragGesture struct {
	phase  dragPhase
	cardID int

	// Pointer position at press, for threshold measurement.
	pressX, pressY int

	// Card rectangle at press, and the pointer offset within it, so
	// the floating ghost stays glued to the grab point.
	originX, originY int
	width, height    int
	offsetX, offsetY int

	// Latest pointer position.
	pointerX, pointerY int

	// suppressClick is set once the threshold is crossed and stays
	// set briefly after release so the release isn't misread as a
	// click on whatever ends up under the pointer. Cleared by a
	// deferred tick.
	suppressClick bool
}

// press starts a gesture on a card. The rectangle is the card's
// on-screen bounds at press time.
func (gesture *dragGesture) press(cardID, x, y, rectX, rectY, rectWidth, rectHeight int) {
	gesture.phase = dragPressed
	gesture.cardID = cardID
	gesture.pressX = x
	gesture.pressY = y
	gesture.originX = rectX
	gesture.originY = rectY
	gesture.width = rectWidth
	gesture.height = rectHeight
	gesture.offsetX = x - rectX
	gesture.offsetY = y - rectY
	gesture.pointerX = x
	gesture.pointerY = y
	gesture.suppressClick = false
}

// motion updates the pointer position and flips the gesture into
// dragging once movement exceeds the threshold. Once dragging, the
// gesture never reverts to pressed, even if the pointer returns to
// the press position.
func (gesture *dragGesture) motion(x, y int) {
	if gesture.phase == dragIdle {
		return
	}
	gesture.pointerX = x
	gesture.pointerY = y
	if gesture.phase == dragPressed {
		deltaX := float64(x - gesture.pressX)
		deltaY := float64(y - gesture.pressY)
		if math.Hypot(deltaX, deltaY) > dragThreshold {
			gesture.phase = dragDragging
			gesture.suppressClick = true
		}
	}
}

// releaseOutcome says how a release should be interpreted.
type releaseOutcome int

const (
	// releaseNone: no gesture was in flight.
	releaseNone releaseOutcome = iota
	// releaseClick: the press never crossed the threshold; treat as
	// a click on the card.
	releaseClick
	// releaseDrop: a drag ended; the caller hit-tests the pointer
	// position for a drop target.
	releaseDrop
)

// release ends the gesture and reports the outcome. The card ID and
// final pointer position remain readable until the next press;
// suppressClick stays set after a drop until clearSuppression.
func (gesture *dragGesture) release() releaseOutcome {
	switch gesture.phase {
	case dragPressed:
		gesture.phase = dragIdle
		return releaseClick
	case dragDragging:
		gesture.phase = dragIdle
		return releaseDrop
	default:
		return releaseNone
	}
}

// cancel discards the gesture without any outcome. Used when the
// session flips to auth-required mid-gesture.
func (gesture *dragGesture) cancel() {
	gesture.phase = dragIdle
	gesture.suppressClick = false
}

// clearSuppression re-enables clicks after the post-drop tick.
func (gesture *dragGesture) clearSuppression() {
	gesture.suppressClick = false
}

// dragging reports whether a drag (threshold crossed) is in flight.
func (gesture *dragGesture) dragging() bool {
	return gesture.phase == dragDragging
}

// active reports whether any gesture (pressed or dragging) is in
// flight.
func (gesture *dragGesture) active() bool {
	return gesture.phase != dragIdle
}

// ghostAnchor returns the screen position for the floating card
// ghost, keeping the grab point under the pointer.
func (gesture *dragGesture) ghostAnchor() (int, int) {
	return gesture.pointerX - gesture.offsetX, gesture.pointerY - gesture.offsetY
}
