package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/input"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

var keyMap = map[glfw.Key]input.KeyCode{
	glfw.KeyEscape: input.KEY_ESCAPE,
	glfw.KeyLeft:   input.KEY_LEFT,
	glfw.KeyUp:     input.KEY_UP,
	glfw.KeyRight:  input.KEY_RIGHT,
	glfw.KeyDown:   input.KEY_DOWN,
	glfw.KeyC:      input.KEY_C,
	glfw.KeyE:      input.KEY_E,
	glfw.KeyQ:      input.KEY_Q,
	glfw.KeyMinus:  input.KEY_MINUS,
	glfw.KeyEqual:  input.KEY_EQUAL,
}

var buttonMap = map[glfw.MouseButton]input.Button{
	glfw.MouseButtonLeft:   input.BUTTON_LEFT,
	glfw.MouseButtonRight:  input.BUTTON_RIGHT,
	glfw.MouseButtonMiddle: input.BUTTON_MIDDLE,
}

/**
 * @brief A desktop window standing in for the phone screen. Mouse and
 * keyboard input are turned into gestures for the sink. Must be used from
 * the main goroutine.
 */
type Platform struct {
	Window *glfw.Window
	Input  *input.InputState

	width, height int32
}

func New(sink input.GestureSink) *Platform {
	return &Platform{Input: input.NewInputState(sink)}
}

func (p *Platform) Startup(applicationName string, width, height int32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window = window
	p.refreshScale()

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetScrollCallback(p.scrollCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetSizeCallback(p.sizeCallback)
	p.Window.Show()
	return nil
}

// PumpMessages processes pending window events. Returns false once the
// window should close.
func (p *Platform) PumpMessages() bool {
	p.Input.Update()
	glfw.PollEvents()
	return !p.Window.ShouldClose() && !p.Input.QuitRequested()
}

// Size is the framebuffer size in pixels.
func (p *Platform) Size() (int32, int32) {
	return p.width, p.height
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code, ok := keyMap[key]
	if !ok || action == glfw.Repeat {
		return
	}
	p.Input.ProcessKey(code, action == glfw.Press)
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	b, ok := buttonMap[button]
	if !ok {
		return
	}
	p.Input.ProcessButton(b, action == glfw.Press)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	p.Input.ProcessMouseMove(float32(xpos), float32(ypos))
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	p.Input.ProcessMouseWheel(float32(yoff))
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.refreshScale()
}

func (p *Platform) sizeCallback(w *glfw.Window, width, height int) {
	p.refreshScale()
}

// refreshScale reads the framebuffer size and maps cursor units onto it.
func (p *Platform) refreshScale() {
	fbWidth, fbHeight := p.Window.GetFramebufferSize()
	p.width, p.height = int32(fbWidth), int32(fbHeight)

	winWidth, winHeight := p.Window.GetSize()
	if winWidth <= 0 || winHeight <= 0 || fbWidth <= 0 || fbHeight <= 0 {
		// minimized
		return
	}
	p.Input.SetPixelScale(float32(fbWidth)/float32(winWidth), float32(fbHeight)/float32(winHeight))
}
