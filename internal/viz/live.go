package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
)

const (
	width           = 60
	height          = 25
	historyCapacity = 300
	DefaultFPS      = 60
)

type TickMsg time.Time

// Factory builds a fresh model for a seed. Live calls it on reseed.
type Factory func(seed int64) (*particles.Model, error)

// Live is a Bubble Tea model that steps a particle model once per frame,
// with dt taken from the wall clock.
type Live struct {
	model   *particles.Model
	factory Factory
	seed    int64
	clock   *sim.Clock
	fps     int

	canvas        *Canvas
	theme         int
	running       bool
	frame         int
	t             float64
	energyHistory []float64
	err           error
}

// NewLive returns a running view of model. factory may be nil, in which
// case reseeding is disabled.
func NewLive(model *particles.Model, factory Factory, seed int64, clock *sim.Clock, fps int) Live {
	if clock == nil {
		clock = sim.NewClock(sim.DefaultTimeScale, sim.DefaultMaxDt)
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return Live{
		model:   model,
		factory: factory,
		seed:    seed,
		clock:   clock,
		fps:     fps,
		canvas:  NewCanvas(width, height),
		running: true,
	}
}

// WithTheme selects the starting theme by name.
func (m Live) WithTheme(name string) Live {
	for i, t := range Themes {
		if t.Name == name {
			m.theme = i
		}
	}
	return m
}

func (m Live) Model() *particles.Model { return m.model }
func (m Live) Frame() int              { return m.frame }
func (m Live) Time() float64           { return m.t }
func (m Live) Running() bool           { return m.running }
func (m Live) Seed() int64             { return m.seed }
func (m Live) Err() error              { return m.err }

func (m Live) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the model.
func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reseed()
		case "+", "=":
			m.clock.Scale *= 1.25
		case "-", "_":
			m.clock.Scale *= 0.8
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		}
	case TickMsg:
		// The clock ticks while paused too, so resuming does not produce one
		// long step.
		dt := m.clock.Tick(time.Time(msg))
		if m.running {
			if err := m.model.Update(dt); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.frame++
			m.t += dt
			m.energyHistory = append(m.energyHistory, m.model.KineticEnergy())
			if len(m.energyHistory) > historyCapacity {
				m.energyHistory = m.energyHistory[1:]
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Live) reseed() {
	if m.factory == nil {
		return
	}
	model, err := m.factory(m.seed + 1)
	if err != nil {
		m.err = err
		return
	}
	m.seed++
	m.model = model
	m.frame, m.t = 0, 0
	m.energyHistory = m.energyHistory[:0]
	m.clock.Reset()
}

func (m Live) draw() {
	m.canvas.Clear()
	w, h := m.model.Config().Canvas()
	for i := 0; i < m.model.Len(); i++ {
		p := m.model.Position(i)
		m.canvas.Plot(p.X, p.Y, w, h, m.model.Variant(i))
	}
}

func (m Live) View() string {
	theme := Themes[m.theme]
	labelStyle := lipgloss.NewStyle().Foreground(theme.Muted).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(theme.Text)
	headerStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).MarginBottom(1)
	statsStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(theme.Muted).
		Padding(1, 2).
		Width(45)

	m.draw()
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.Render(theme.Palette(m.model.Config().VariantCount())))

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("PARTICLES") + "\n")
	s.WriteString(status + "\n\n")
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render(chart) + "\n\n")
	}

	energy := 0.0
	if len(m.energyHistory) > 0 {
		energy = m.energyHistory[len(m.energyHistory)-1]
	}
	rows := [][2]string{
		{"Frame", fmt.Sprintf("%d", m.frame)},
		{"Time", fmt.Sprintf("%.3f", m.t)},
		{"Energy", fmt.Sprintf("%.2f", energy)},
		{"Particles", fmt.Sprintf("%d", m.model.Len())},
		{"Seed", fmt.Sprintf("%d", m.seed)},
		{"Scale", fmt.Sprintf("%.5f", m.clock.Scale)},
		{"Force", m.model.ForceModel().Name()},
		{"Integrator", m.model.Integrator().Name()},
		{"Theme", theme.Name},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Warning).Render(m.err.Error()) + "\n")
	}

	help := lipgloss.NewStyle().Foreground(theme.Muted).MarginTop(2)
	s.WriteString(help.Render("\n─────────────────────\nSP:Pause R:Reseed Q:Quit\n+/-:Speed T:Theme"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
