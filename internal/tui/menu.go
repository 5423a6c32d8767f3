package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xtort/kasa-hs300/internal/powerstrip"
	"github.com/xtort/kasa-hs300/internal/protocol"
)

// refreshInterval is the background status poll period.
const refreshInterval = 10 * time.Second

// Device is the slice of the strip session the dashboard needs.
// *powerstrip.Strip satisfies it.
type Device interface {
	Info() powerstrip.DeviceInfo
	Outlets() []powerstrip.Outlet
	RefreshStatus() error
	SetOutlet(sel powerstrip.Selector, state powerstrip.State) error
	SetAll(state powerstrip.State) error
	PowerDraw(sel powerstrip.Selector) (*protocol.EnergyReading, error)
}

// Messages from device commands back into the update loop.
type refreshDoneMsg struct {
	outlets []powerstrip.Outlet
	err     error
}

type switchDoneMsg struct {
	outlets []powerstrip.Outlet
	err     error
}

type powerDoneMsg struct {
	slot    int
	reading *protocol.EnergyReading
	err     error
}

type tickMsg struct{}

// dashboardKeyMap defines key bindings for the dashboard
type dashboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	AllOn   key.Binding
	AllOff  key.Binding
	Power   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.AllOn, k.AllOff, k.Power, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Power},
		{k.AllOn, k.AllOff, k.Refresh, k.Quit},
	}
}

// Model is the dashboard model for one connected strip.
type Model struct {
	strip Device

	info    powerstrip.DeviceInfo
	outlets []powerstrip.Outlet
	cursor  int

	// busy is set while a device command is in flight; input that
	// would start another one is dropped until the reply lands.
	busy    bool
	stale   bool // last refresh failed, states may be outdated
	lastErr error

	// reading is the power pane content for readingSlot, when open.
	reading     *protocol.EnergyReading
	readingSlot int

	spinner spinner.Model
	help    help.Model
	keys    dashboardKeyMap
}

// NewModel creates the dashboard for a connected strip.
func NewModel(strip Device) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	keys := dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "toggle"),
		),
		AllOn: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "all on"),
		),
		AllOff: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "all off"),
		),
		Power: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "power"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return Model{
		strip:       strip,
		info:        strip.Info(),
		outlets:     strip.Outlets(),
		readingSlot: 0,
		spinner:     s,
		help:        help.New(),
		keys:        keys,
	}
}

// Init starts the spinner and the background poll timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scheduleTick())
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) refreshCmd() tea.Cmd {
	strip := m.strip
	return func() tea.Msg {
		err := strip.RefreshStatus()
		return refreshDoneMsg{outlets: strip.Outlets(), err: err}
	}
}

func (m Model) switchCmd(sel powerstrip.Selector, state powerstrip.State) tea.Cmd {
	strip := m.strip
	return func() tea.Msg {
		err := strip.SetOutlet(sel, state)
		return switchDoneMsg{outlets: strip.Outlets(), err: err}
	}
}

func (m Model) switchAllCmd(state powerstrip.State) tea.Cmd {
	strip := m.strip
	return func() tea.Msg {
		err := strip.SetAll(state)
		return switchDoneMsg{outlets: strip.Outlets(), err: err}
	}
}

func (m Model) powerCmd(slot int) tea.Cmd {
	strip := m.strip
	return func() tea.Msg {
		reading, err := strip.PowerDraw(powerstrip.BySlot(slot))
		return powerDoneMsg{slot: slot, reading: reading, err: err}
	}
}

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.busy {
			// Skip this poll; the next one will pick up.
			return m, scheduleTick()
		}
		m.busy = true
		return m, tea.Batch(m.refreshCmd(), scheduleTick())

	case refreshDoneMsg:
		m.busy = false
		m.stale = msg.err != nil
		m.lastErr = msg.err
		if msg.err == nil {
			m.outlets = msg.outlets
		}
		return m, nil

	case switchDoneMsg:
		m.busy = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.outlets = msg.outlets
			m.stale = false
		}
		return m, nil

	case powerDoneMsg:
		m.busy = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.reading = msg.reading
			m.readingSlot = msg.slot
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.outlets)-1 {
			m.cursor++
		}
		return m, nil
	}

	// Everything below talks to the device.
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if len(m.outlets) == 0 {
			return m, nil
		}
		target := powerstrip.On
		if m.outlets[m.cursor].State == powerstrip.On {
			target = powerstrip.Off
		}
		m.busy = true
		return m, m.switchCmd(powerstrip.BySlot(m.outlets[m.cursor].Slot), target)

	case key.Matches(msg, m.keys.AllOn):
		m.busy = true
		return m, m.switchAllCmd(powerstrip.On)

	case key.Matches(msg, m.keys.AllOff):
		m.busy = true
		return m, m.switchAllCmd(powerstrip.Off)

	case key.Matches(msg, m.keys.Power):
		if len(m.outlets) == 0 {
			return m, nil
		}
		slot := m.outlets[m.cursor].Slot
		if m.reading != nil && m.readingSlot == slot {
			// Second press closes the pane.
			m.reading = nil
			m.readingSlot = 0
			return m, nil
		}
		m.busy = true
		return m, m.powerCmd(slot)

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		return m, m.refreshCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s  %s", m.info.Alias, m.info.Model)))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s:%d", m.info.Address, m.info.Port)))
	b.WriteString("\n\n")

	for i, o := range m.outlets {
		state := OffStateStyle.Render("○ off")
		if o.State == powerstrip.On {
			state = OnStateStyle.Render("● on ")
		}
		row := fmt.Sprintf("%d  %s  %s", o.Slot, state, o.Name)
		if i == m.cursor {
			b.WriteString(SelectedRowStyle.Render("> " + row))
		} else {
			b.WriteString(RowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if m.reading != nil {
		b.WriteString(m.renderPowerPane())
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " talking to strip...")
	case m.lastErr != nil:
		b.WriteString(ErrorStyle.Render("error: " + m.lastErr.Error()))
		if hint := powerstrip.Hint(m.lastErr); hint != "" {
			b.WriteString("\n" + SubtitleStyle.Render(hint))
		}
	case m.stale:
		b.WriteString(StaleStyle.Render("showing last known states (refresh failed)"))
	}
	b.WriteString("\n")

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderPowerPane() string {
	name := ""
	for _, o := range m.outlets {
		if o.Slot == m.readingSlot {
			name = o.Name
		}
	}

	var content string
	if !m.reading.Supported {
		content = fmt.Sprintf("%s (slot %d)\nno energy metering data", name, m.readingSlot)
	} else {
		content = fmt.Sprintf("%s (slot %d)\n%.1f W   %.1f V   %.3f A   %.3f kWh total",
			name, m.readingSlot,
			m.reading.PowerW, m.reading.VoltageV, m.reading.CurrentA, m.reading.TotalKWh)
	}
	return PowerBoxStyle.Render(content)
}

// Run starts the dashboard and blocks until the user quits.
func Run(strip Device) error {
	p := tea.NewProgram(NewModel(strip), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
