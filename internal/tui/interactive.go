package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var presetInfo = map[string]string{
	"default":  "three variants, self-attracting",
	"chase":    "each variant chases the next",
	"clusters": "five variants forming clumps",
	"pair":     "two particles, no damping",
	"inverse":  "inverse-distance force",
}

// param is an editable field of the selected preset.
type param struct {
	name string
	step float64
	get  func(*config.File) float64
}

var params = []param{
	{"particles", 10, func(f *config.File) float64 { return float64(f.Particles) }},
	{"cutoff", 10, func(f *config.File) float64 { return f.Cutoff }},
	{"viscosity", 0.05, func(f *config.File) float64 { return f.Viscosity }},
	{"time_scale", 0.0005, func(f *config.File) float64 { return f.TimeScale }},
	{"workers", 1, func(f *config.File) float64 { return float64(f.Workers) }},
}

type state int

const (
	stateMenu state = iota
	stateConfig
	stateSim
)

type model struct {
	state    state
	cursor   int
	presets  []string
	selected string
	file     *config.File

	paramCursor int
	editing     bool
	editBuf     string
	err         error

	live viz.Live
	now  func() time.Time
}

func NewInteractiveApp() *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		now:     time.Now,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case viz.TickMsg:
		if m.state != stateSim {
			return m, nil
		}
		return m.forward(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.file = config.GetPreset(m.selected)
		m.state = stateConfig
		m.paramCursor = 0
		m.err = nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%f", &val); err == nil {
				m.set(params[m.paramCursor].name, val)
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	p := params[m.paramCursor]
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", p.get(m.file)), "0"), ".")
	case "left", "h":
		m.set(p.name, p.get(m.file)-p.step)
	case "right", "l":
		m.set(p.name, p.get(m.file)+p.step)
	case "s":
		if err := m.start(); err != nil {
			m.err = err
			return m, nil
		}
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, m.live.Init())
	}
	return m, nil
}

// set applies an edit only if the result still builds.
func (m *model) set(name string, v float64) {
	f := m.file.Clone()
	if err := f.Set(name, v); err != nil {
		m.err = err
		return
	}
	if _, _, err := f.Build(); err != nil {
		m.err = err
		return
	}
	m.file = f
	m.err = nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
		return m, tea.ClearScreen
	case "c":
		m.state = stateConfig
		return m, tea.ClearScreen
	case "ctrl+c":
		return m, tea.Quit
	}
	return m.forward(msg)
}

// forward passes a message to the embedded live view. A model error drops
// back to the config screen.
func (m model) forward(msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.live.Update(msg)
	m.live = next.(viz.Live)
	if err := m.live.Err(); err != nil {
		m.err = err
		m.state = stateConfig
		return m, tea.ClearScreen
	}
	return m, cmd
}

func (m *model) start() error {
	f := m.file.Clone()
	if f.Seed == 0 {
		f.Seed = m.now().UnixNano()
	}
	factory := func(seed int64) (*particles.Model, error) {
		cfg, opts, err := f.Build()
		if err != nil {
			return nil, err
		}
		return particles.New(cfg, append(opts, particles.WithSeed(seed))...)
	}
	model, err := factory(f.Seed)
	if err != nil {
		return err
	}
	m.live = viz.NewLive(model, factory, f.Seed, sim.NewClock(f.TimeScale, sim.DefaultMaxDt), viz.DefaultFPS)
	return nil
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View() + "\n" + dim.Render("      c config   esc menu")
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("p a r t s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter configure   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(presetInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, p := range params {
		val := fmt.Sprintf("%10.4f", p.get(m.file))
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", p.name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", p.name)) + dim.Render(val) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + yellow.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
