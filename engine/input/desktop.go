package input

import (
	"math"

	"github.com/spaghettifunk/anima-ar/engine/core"
)

type Button uint8

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

type KeyCode uint16

const (
	KEY_ESCAPE KeyCode = 0x1B
	KEY_LEFT   KeyCode = 0x25
	KEY_UP     KeyCode = 0x26
	KEY_RIGHT  KeyCode = 0x27
	KEY_DOWN   KeyCode = 0x28
	KEY_C      KeyCode = 0x43
	KEY_E      KeyCode = 0x45
	KEY_Q      KeyCode = 0x51
	KEY_MINUS  KeyCode = 0xBD
	KEY_EQUAL  KeyCode = 0xBB

	KEY_MAX_KEYS KeyCode = 0x100
)

const (
	// Degrees turned per Q/E press.
	rotateStepDegrees float32 = 15
	// Scale change per wheel notch or +/- press.
	scaleStep float32 = 0.01
	// Metres moved per pixel of right-button drag.
	dragMetresPerPixel float32 = 0.002
	// Metres moved per arrow key press.
	nudgeMetres float32 = 0.05
)

// GestureSink receives the gestures produced from desktop input. The engine
// handle satisfies it.
type GestureSink interface {
	OnTouch(x, y float32) error
	OnRotate(degrees float32) error
	OnScale(delta float32) error
	OnTranslate(dx, dy, dz float32) error
	OnClear() error
}

type keyboardState struct {
	Keys [KEY_MAX_KEYS]bool
}

type mouseState struct {
	X, Y    float32
	Buttons [BUTTON_MAX_BUTTONS]bool
}

/**
 * @brief Tracks keyboard and mouse state and turns it into touch gestures:
 * left click taps, right drag translates along the camera plane, the wheel
 * and +/- scale, Q/E rotate, arrows nudge, C clears. Escape asks to quit.
 */
type InputState struct {
	sink GestureSink

	keyboardCurrent  keyboardState
	keyboardPrevious keyboardState
	mouseCurrent     mouseState
	mousePrevious    mouseState

	// framebuffer pixels per window unit
	scaleX, scaleY float32

	quit bool
}

func NewInputState(sink GestureSink) *InputState {
	return &InputState{sink: sink, scaleX: 1, scaleY: 1}
}

/**
 * @brief Sets how many framebuffer pixels one cursor unit covers on each
 * axis. Cursor positions arrive in window units, which differ from pixels
 * on high-density displays. Non-positive or non-finite factors are ignored.
 */
func (s *InputState) SetPixelScale(sx, sy float32) {
	if !(sx > 0) || !(sy > 0) || sx > math.MaxFloat32 || sy > math.MaxFloat32 {
		return
	}
	s.scaleX, s.scaleY = sx, sy
}

// Update copies current states to previous states. Call once per frame.
func (s *InputState) Update() {
	s.keyboardPrevious = s.keyboardCurrent
	s.mousePrevious = s.mouseCurrent
}

func (s *InputState) IsKeyDown(key KeyCode) bool {
	return key < KEY_MAX_KEYS && s.keyboardCurrent.Keys[key]
}

func (s *InputState) WasKeyDown(key KeyCode) bool {
	return key < KEY_MAX_KEYS && s.keyboardPrevious.Keys[key]
}

func (s *InputState) IsButtonDown(button Button) bool {
	return button < BUTTON_MAX_BUTTONS && s.mouseCurrent.Buttons[button]
}

func (s *InputState) MousePosition() (float32, float32) {
	return s.mouseCurrent.X, s.mouseCurrent.Y
}

// QuitRequested reports whether Escape was pressed.
func (s *InputState) QuitRequested() bool {
	return s.quit
}

func (s *InputState) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEY_MAX_KEYS || s.keyboardCurrent.Keys[key] == pressed {
		return
	}
	s.keyboardCurrent.Keys[key] = pressed
	if !pressed {
		return
	}

	switch key {
	case KEY_ESCAPE:
		s.quit = true
	case KEY_Q:
		s.emit(s.sink.OnRotate(-rotateStepDegrees))
	case KEY_E:
		s.emit(s.sink.OnRotate(rotateStepDegrees))
	case KEY_EQUAL:
		s.emit(s.sink.OnScale(scaleStep))
	case KEY_MINUS:
		s.emit(s.sink.OnScale(-scaleStep))
	case KEY_LEFT:
		s.emit(s.sink.OnTranslate(-nudgeMetres, 0, 0))
	case KEY_RIGHT:
		s.emit(s.sink.OnTranslate(nudgeMetres, 0, 0))
	case KEY_UP:
		s.emit(s.sink.OnTranslate(0, 0, -nudgeMetres))
	case KEY_DOWN:
		s.emit(s.sink.OnTranslate(0, 0, nudgeMetres))
	case KEY_C:
		s.emit(s.sink.OnClear())
	}
}

func (s *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS || s.mouseCurrent.Buttons[button] == pressed {
		return
	}
	s.mouseCurrent.Buttons[button] = pressed
	if button == BUTTON_LEFT && pressed {
		s.emit(s.sink.OnTouch(s.mouseCurrent.X, s.mouseCurrent.Y))
	}
}

// ProcessMouseMove takes the cursor position in window units.
func (s *InputState) ProcessMouseMove(x, y float32) {
	x, y = x*s.scaleX, y*s.scaleY
	if s.mouseCurrent.X == x && s.mouseCurrent.Y == y {
		return
	}
	dx, dy := x-s.mouseCurrent.X, y-s.mouseCurrent.Y
	s.mouseCurrent.X = x
	s.mouseCurrent.Y = y

	// screen y grows downwards, camera y upwards
	if s.mouseCurrent.Buttons[BUTTON_RIGHT] {
		s.emit(s.sink.OnTranslate(dx*dragMetresPerPixel, -dy*dragMetresPerPixel, 0))
	}
}

func (s *InputState) ProcessMouseWheel(delta float32) {
	if delta == 0 {
		return
	}
	s.emit(s.sink.OnScale(delta * scaleStep))
}

func (s *InputState) emit(err error) {
	if err != nil {
		core.LogDebug("gesture not queued: %s", err)
	}
}
