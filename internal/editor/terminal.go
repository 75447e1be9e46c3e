package editor

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Terminal is a tcell-backed Surface.
//
// Window and buffer bookkeeping is delegated to an embedded Sim so that
// handle semantics (monotonic allocation, focus rules) are identical to the
// headless surface; Terminal adds drawing. Open windows render as
// full-width panes stacked vertically, each showing its buffer as plain
// lines under a title rule.
type Terminal struct {
	*Sim

	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal creates a terminal surface on a new tcell screen.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{Sim: NewSim(), screen: screen}, nil
}

// NewTerminalWithScreen creates a terminal surface on an existing screen.
// Used with tcell.NewSimulationScreen in tests.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{Sim: NewSim(), screen: screen}
}

// Init initializes the terminal. Must be called before drawing.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Init()
}

// Shutdown restores the terminal state.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

// PollEvent waits for and returns the next tcell event.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

func (t *Terminal) CreateWindow(buf Handle) (Handle, error) {
	win, err := t.Sim.CreateWindow(buf)
	if err != nil {
		return None, err
	}
	t.Draw()
	return win, nil
}

func (t *Terminal) CloseWindow(win Handle) error {
	if err := t.Sim.CloseWindow(win); err != nil {
		return err
	}
	t.Draw()
	return nil
}

func (t *Terminal) SetBufferLines(buf Handle, lines []string) error {
	if err := t.Sim.SetBufferLines(buf, lines); err != nil {
		return err
	}
	t.Draw()
	return nil
}

// Draw repaints every open window as a stacked pane.
func (t *Terminal) Draw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	width, height := t.screen.Size()
	if width <= 0 || height <= 0 {
		t.screen.Show()
		return
	}

	wins := t.Sim.Windows()
	if len(wins) == 0 {
		t.screen.Show()
		return
	}

	paneHeight := height / len(wins)
	if paneHeight < 2 {
		paneHeight = 2
	}

	y := 0
	for _, win := range wins {
		if y >= height {
			break
		}
		buf, err := t.Sim.WindowBuffer(win)
		if err != nil {
			continue
		}
		lines, err := t.Sim.BufferLines(buf)
		if err != nil {
			continue
		}

		title := t.Sim.BufferName(buf)
		t.drawRule(y, width, title, win == t.Sim.CurrentWindow())
		y++

		for _, line := range lines {
			if y >= height || y >= paneHeight*(indexOf(wins, win)+1) {
				break
			}
			t.drawText(0, y, width, line)
			y++
		}

		// Skip to the next pane boundary.
		next := paneHeight * (indexOf(wins, win) + 1)
		if next > y {
			y = next
		}
	}

	t.screen.Show()
}

func (t *Terminal) drawRule(y, width int, title string, focused bool) {
	style := tcell.StyleDefault.Reverse(true)
	if focused {
		style = style.Bold(true)
	}
	text := []rune(" " + title + " ")
	for x := 0; x < width; x++ {
		r := '-'
		if x > 0 && x-1 < len(text) {
			r = text[x-1]
		}
		t.screen.SetContent(x, y, r, nil, style)
	}
}

func (t *Terminal) drawText(x, y, width int, text string) {
	for _, r := range text {
		if x >= width {
			return
		}
		t.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		x++
	}
}

func indexOf(handles []Handle, h Handle) int {
	for i, v := range handles {
		if v == h {
			return i
		}
	}
	return 0
}

// Verify Terminal implements Surface.
var _ Surface = (*Terminal)(nil)
