package viz

import (
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/odelab/odesim/internal/driver"
)

const (
	playbackWidth  = 72
	playbackHeight = 16
)

type TickMsg time.Time

// Playback replays a recorded trajectory row by row at a fixed frame rate.
type Playback struct {
	traj      *driver.Trajectory
	component string
	series    []float64
	head      int
	playing   bool
	showHelp  bool
}

func NewPlayback(traj *driver.Trajectory, component string) (*Playback, error) {
	series, err := traj.Component(component)
	if err != nil {
		return nil, err
	}
	return &Playback{
		traj:      traj,
		component: component,
		series:    series,
		head:      1,
		playing:   true,
	}, nil
}

func (m *Playback) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Playback) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.head = 1
			m.playing = true
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.playing && m.head < len(m.series) {
			m.head++
		}
		return m, tick()
	}
	return m, nil
}

func (m *Playback) scrub(delta int) {
	m.playing = false
	m.head += delta
	if m.head < 1 {
		m.head = 1
	}
	if m.head > len(m.series) {
		m.head = len(m.series)
	}
}

func (m *Playback) View() string {
	window := m.series[:m.head]
	graph := asciigraph.Plot(window,
		asciigraph.Width(playbackWidth),
		asciigraph.Height(playbackHeight),
	)

	t := m.traj.Times[m.head-1]
	status := fmt.Sprintf("%s  t=%.4g  row %d/%d", m.component, t, m.head, len(m.series))
	if !m.playing {
		status += "  (paused)"
	}

	out := headerStyle.Render(status) + "\n" + graphStyle.Render(graph)
	if m.showHelp {
		out += "\n" + helpStyle.Render("space pause · [/] scrub · r restart · q quit")
	} else {
		out += "\n" + helpStyle.Render("? help")
	}
	return out
}

// RunPlayback drives the playback program until the user quits.
func RunPlayback(traj *driver.Trajectory, component string) error {
	m, err := NewPlayback(traj, component)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	return err
}
