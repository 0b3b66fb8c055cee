// Package tray provides a system tray menu for treelight.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu. Callbacks run on the menu goroutine.
type Tray struct {
	onToggleLayout func()
	onGestures     func(enabled bool)
	onOpen         func()
	onQuit         func()
	gestures       bool
	state          string
	mu             sync.RWMutex

	menuState    *systray.MenuItem
	menuGestures *systray.MenuItem
}

// New creates a Tray with gestures enabled.
func New() *Tray {
	return &Tray{
		gestures: true,
		state:    "ASSEMBLED",
	}
}

// OnToggleLayout sets the callback for the toggle layout item.
func (t *Tray) OnToggleLayout(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggleLayout = fn
}

// OnGestures sets the callback for the gestures item.
func (t *Tray) OnGestures(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onGestures = fn
}

// OnOpen sets the callback for the open in browser item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Treelight")
	systray.SetTooltip("Treelight gesture tree")

	t.mu.Lock()
	t.menuState = systray.AddMenuItem(stateTitle(t.state), "Current layout")
	t.menuState.Disable()
	t.mu.Unlock()

	menuToggle := systray.AddMenuItem("Toggle Layout", "Assemble or explode the tree")
	systray.AddSeparator()

	t.mu.Lock()
	t.menuGestures = systray.AddMenuItem(gesturesTitle(t.gestures), "Pause or resume hand gestures")
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the scene in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Treelight")

	go func() {
		for {
			select {
			case <-menuToggle.ClickedCh:
				t.handleToggleLayout()
			case <-t.menuGestures.ClickedCh:
				t.handleGestures()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggleLayout() {
	t.mu.RLock()
	callback := t.onToggleLayout
	t.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()
	if callback != nil {
		callback()
	}
	systray.Quit()
}

func (t *Tray) handleGestures() {
	t.mu.Lock()
	t.gestures = !t.gestures
	enabled := t.gestures
	if t.menuGestures != nil {
		t.menuGestures.SetTitle(gesturesTitle(enabled))
	}
	callback := t.onGestures
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

// SetState updates the layout label.
func (t *Tray) SetState(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	if t.menuState != nil {
		t.menuState.SetTitle(stateTitle(state))
	}
}

// GesturesEnabled returns the gestures toggle.
func (t *Tray) GesturesEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gestures
}

func stateTitle(state string) string {
	return "Layout: " + state
}

func gesturesTitle(enabled bool) string {
	if enabled {
		return "● Gestures On"
	}
	return "○ Gestures Off"
}
