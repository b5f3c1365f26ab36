package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/hybridsim/internal/config"
	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/scenario"
	"github.com/san-kum/hybridsim/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var modeStyle = map[coupling.Mode]lipgloss.Style{
	coupling.OrbitalOnly: cyan,
	coupling.RigidOnly:   yellow,
	coupling.Coupled:     magenta,
}

var presetInfo = map[string]string{
	"orbit-dock":     "orbital capture and release",
	"pendulum-chain": "jointed rigid bodies",
	"drop-test":      "contacts and ccd",
	"nbody-cluster":  "n-body backend",
}

// BuildFunc builds the scenario for a preset name.
type BuildFunc func(name string) (*scenario.Scenario, error)

func buildPreset(name string) (*scenario.Scenario, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return scenario.Build(cfg)
}

type state int

const (
	stateMenu state = iota
	stateSim
)

const (
	historyLength = 60
	eventLength   = 4
)

// session is the running scenario plus what the view keeps of it. It is
// shared by pointer because bubbletea copies the model on every update.
type session struct {
	sc      *scenario.Scenario
	frame   sim.Frame
	view    *view
	trails  *trails
	history []float64
	events  []coupling.Event
	err     error
}

func newSession(sc *scenario.Scenario) *session {
	s := &session{sc: sc, view: newView(), trails: newTrails(trailLength)}
	sc.Simulator().AddFrameListener(func(f sim.Frame) error {
		s.frame = f
		s.trails.push(f, s.view)
		s.history = append(s.history, sc.Energy.Last())
		if len(s.history) > historyLength {
			s.history = s.history[1:]
		}
		for _, e := range f.Transitions {
			if !e.Changed() {
				continue
			}
			s.events = append(s.events, e)
			if len(s.events) > eventLength {
				s.events = s.events[1:]
			}
		}
		return nil
	})
	return s
}

type model struct {
	state    state
	cursor   int
	presets  []string
	selected string
	build    BuildFunc

	sess      *session
	running   bool
	paused    bool
	speed     float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

// NewInteractiveApp lists the built-in presets. A nil build uses
// config.GetPreset and scenario.Build.
func NewInteractiveApp(build BuildFunc) *model {
	if build == nil {
		build = buildPreset
	}
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		build:   build,
		speed:   1.0,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && m.sess != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := max(int(m.speed), 1)
			for i := 0; i < steps && !m.paused; i++ {
				m.step()
			}
		}
		if m.running {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
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
		m.start()
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.running = false
		m.state = stateMenu
		m.sess = nil
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *model) start() {
	m.speed = 1.0
	m.lastFrame = time.Time{}
	m.paused = false
	m.running = true

	sc, err := m.build(m.selected)
	if err != nil {
		m.sess = &session{err: err, view: newView(), trails: newTrails(trailLength)}
		m.paused = true
		return
	}
	m.sess = newSession(sc)
}

func (m *model) step() {
	if m.sess == nil || m.sess.sc == nil || m.sess.err != nil {
		m.paused = true
		return
	}
	cfg := m.sess.sc.Config()
	s := m.sess.sc.Simulator()
	if s.Time() >= cfg.Duration {
		m.paused = true
		return
	}
	if _, err := s.Tick(cfg.Dt); err != nil {
		m.sess.err = err
		m.paused = true
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("h y b r i d s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
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
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := max(m.width-6, 50)
	ch := max(m.height-14, 12)

	var b strings.Builder
	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	if m.sess != nil && m.sess.err != nil {
		statusIcon = red.Render("✕")
		statusText = red.Render("halted")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText, dim.Render(fmt.Sprintf("x%.2g", m.speed))))

	if m.sess == nil {
		return b.String()
	}
	if m.sess.err != nil {
		b.WriteString("\n   " + red.Render(m.sess.err.Error()) + "\n")
	}
	if m.sess.sc == nil {
		b.WriteString("\n" + dim.Render("   q back") + "\n")
		return b.String()
	}

	cfg := m.sess.sc.Config()
	f := m.sess.frame
	progress := math.Min(f.Time/cfg.Duration, 1)
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fs/%.0fs", f.Time, cfg.Duration)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s  %s\n\n", bar, dim.Render(timeStr),
		dim.Render(fmt.Sprintf("%.0ffps", m.fps)),
		dim.Render(m.sess.sc.Selection().String())))

	c := newCanvas(cw, ch)
	draw(c, f, m.sess.view, m.sess.trails)
	for _, row := range c.rows() {
		b.WriteString("   " + colorRow(row) + "\n")
	}
	b.WriteString("\n")

	for _, o := range f.Objects {
		style, ok := modeStyle[o.Mode]
		if !ok {
			style = white
		}
		p := o.State.Position()
		b.WriteString(fmt.Sprintf("   %s %s %s\n",
			style.Render(fmt.Sprintf("%c %-10s", glyph(o.Mode), o.ID)),
			dim.Render(fmt.Sprintf("%-12s", o.Mode)),
			white.Render(fmt.Sprintf("(%.2f, %.2f, %.2f)", p[0], p[1], p[2]))))
	}

	if len(m.sess.history) > 1 {
		b.WriteString(fmt.Sprintf("\n   %s %s %s\n", dim.Render("KE"),
			cyan.Render(sparkline(m.sess.history, 24)),
			white.Render(fmt.Sprintf("%.2f", m.sess.sc.Energy.Last()))))
	}
	for _, e := range m.sess.events {
		b.WriteString("   " + magenta.Render("⇄ ") + dim.Render(e.String()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r restart  q menu") + "\n")

	return b.String()
}

func colorRow(row string) string {
	var b strings.Builder
	for _, r := range row {
		switch r {
		case glyph(coupling.OrbitalOnly):
			b.WriteString(cyan.Render(string(r)))
		case glyph(coupling.RigidOnly):
			b.WriteString(yellow.Render(string(r)))
		case glyph(coupling.Coupled):
			b.WriteString(magenta.Render(string(r)))
		case '.', ':':
			b.WriteString(dimmer.Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func RunInteractive(build BuildFunc) error {
	p := tea.NewProgram(NewInteractiveApp(build), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
