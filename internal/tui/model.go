// Package tui provides the Bubble Tea coaching interface.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/timer"
)

// Controller is the session state machine the view drives.
type Controller interface {
	Dispatch(cmd model.Command) error
	State() model.State
	Events() <-chan model.Event
	Thresholds() model.Thresholds
	SetThresholds(th model.Thresholds) error
	ReportText() string
	SaveReport(path string) (string, error)
	ImportReport(path string) error
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#FF4D4F")).Bold(true)

	zoneDefaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	zoneGreenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	zoneYellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	zoneRedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

// eventMsg wraps a controller event for the Bubble Tea loop.
type eventMsg struct {
	ev model.Event
}

// Model implements the Bubble Tea coaching UI.
type Model struct {
	ctl Controller

	width  int
	height int

	state  model.State
	errMsg string

	clock         string
	zone          model.Zone
	limitReached  bool
	emotion       string
	emotionScore  float64
	faceDetected  bool
	fps           float64
	transcript    string
	words         int
	rate          float64
	status        string
	ahCount       int
	alert         bool
	colorSet      bool
	red           int
	green         int
	blue          int
	mirrored      bool
	reportText    string
	savedPath     string
	importMode    bool
	importInput   textinput.Model
	settingInputs []textinput.Model
	settingIndex  int
	settingError  string
}

// NewModel constructs a coaching UI model.
func NewModel(ctl Controller) *Model {
	m := &Model{
		ctl:   ctl,
		state: ctl.State(),
		clock: timer.FormatClock(0),
	}
	m.initInputs()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.ctl.Events())
}

func waitForEvent(events <-chan model.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{ev: ev}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case eventMsg:
		m.applyEvent(msg.ev)
		return m, waitForEvent(m.ctl.Events())
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.importMode {
			return m.updateImport(msg)
		}
		switch m.state {
		case model.StateConfiguring:
			return m.updateSettings(msg)
		case model.StateIdle:
			return m.updateIdle(msg)
		case model.StateLive:
			return m.updateLive(msg)
		case model.StateReportReady:
			return m.updateReport(msg)
		}
	}
	return m, nil
}

func (m *Model) applyEvent(ev model.Event) {
	switch ev := ev.(type) {
	case model.StateEvent:
		m.state = ev.State
		if ev.State == model.StateLive {
			m.errMsg = ""
		}
	case model.TimerEvent:
		m.clock = ev.Display
		m.zone = ev.Zone
		m.limitReached = ev.LimitReached
	case model.EmotionEvent:
		m.emotion = ev.Label
		m.emotionScore = ev.Score
		m.faceDetected = ev.FaceDetected
	case model.FPSEvent:
		m.fps = ev.FPS
	case model.TranscriptEvent:
		m.transcript = ev.Text
		if !ev.Diagnostic {
			m.words = ev.Words
			m.rate = ev.Rate
		}
	case model.StatusEvent:
		m.status = ev.Status
		m.ahCount = ev.AhCount
		m.alert = ev.Alert
	case model.ColorEvent:
		m.colorSet = true
		m.red, m.green, m.blue = ev.Red, ev.Green, ev.Blue
	case model.ReportEvent:
		m.reportText = ev.Text
		if ev.Path != "" {
			m.savedPath = ev.Path
		}
	case model.ErrorEvent:
		m.errMsg = ev.Err.Error()
	}
}

func (m *Model) updateIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "s":
		m.dispatch(model.CommandEnterSettings)
		m.setInputsFromThresholds()
		return m, m.setSettingIndex(0)
	case "enter", " ":
		m.dispatch(model.CommandStart)
		return m, nil
	case "o":
		m.importMode = true
		m.importInput.SetValue("")
		return m, m.importInput.Focus()
	}
	return m, nil
}

func (m *Model) updateLive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "r":
		m.savedPath = ""
		m.dispatch(model.CommandGenerateReport)
		return m, nil
	case "m":
		m.mirrored = !m.mirrored
		return m, nil
	case "x", "esc":
		m.dispatch(model.CommandStop)
		return m, nil
	}
	return m, nil
}

func (m *Model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "s":
		path, err := m.ctl.SaveReport("")
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.savedPath = path
		return m, nil
	case "c", "esc":
		m.dispatch(model.CommandCancelReport)
		return m, nil
	}
	return m, nil
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingError = ""
		m.dispatch(model.CommandStop)
		return m, nil
	case tea.KeyEnter:
		if err := m.applySettings(); err != nil {
			m.settingError = err.Error()
			return m, nil
		}
		m.settingError = ""
		m.dispatch(model.CommandStop)
		return m, nil
	case tea.KeyTab:
		return m, m.setSettingIndex(m.settingIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setSettingIndex(m.settingIndex - 1)
	}
	var cmd tea.Cmd
	m.settingInputs[m.settingIndex], cmd = m.settingInputs[m.settingIndex].Update(msg)
	return m, cmd
}

func (m *Model) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.importMode = false
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.importInput.Value())
		if path == "" {
			return m, nil
		}
		if err := m.ctl.ImportReport(path); err != nil {
			m.errMsg = err.Error()
		} else {
			m.errMsg = ""
			m.savedPath = path
		}
		m.importMode = false
		return m, nil
	}
	var cmd tea.Cmd
	m.importInput, cmd = m.importInput.Update(msg)
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.dispatch(model.CommandQuit)
	return m, tea.Quit
}

func (m *Model) dispatch(cmd model.Command) {
	if err := m.ctl.Dispatch(cmd); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.state = m.ctl.State()
}

func (m *Model) initInputs() {
	m.settingInputs = []textinput.Model{
		newSettingInput("Green at (s): "),
		newSettingInput("Yellow at (s): "),
		newSettingInput("Red at (s): "),
		newSettingInput("Time limit (s): "),
	}
	m.setInputsFromThresholds()
	m.importInput = newSettingInput("Report path: ")
	m.importInput.Placeholder = "session_....txt"
}

func newSettingInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromThresholds() {
	th := m.ctl.Thresholds()
	m.settingInputs[0].SetValue(strconv.Itoa(th.Green))
	m.settingInputs[1].SetValue(strconv.Itoa(th.Yellow))
	m.settingInputs[2].SetValue(strconv.Itoa(th.Red))
	m.settingInputs[3].SetValue(strconv.Itoa(th.Limit))
}

func (m *Model) setSettingIndex(idx int) tea.Cmd {
	count := len(m.settingInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.settingIndex = idx
	var cmd tea.Cmd
	for i := range m.settingInputs {
		if i == m.settingIndex {
			cmd = m.settingInputs[i].Focus()
		} else {
			m.settingInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applySettings() error {
	values := make([]int, len(m.settingInputs))
	for i, input := range m.settingInputs {
		raw := strings.TrimSpace(input.Value())
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid value %q (use whole seconds)", raw)
		}
		values[i] = parsed
	}
	return m.ctl.SetThresholds(model.Thresholds{
		Green:  values[0],
		Yellow: values[1],
		Red:    values[2],
		Limit:  values[3],
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	var body string
	switch {
	case m.importMode:
		body = m.renderImport()
	case m.state == model.StateConfiguring:
		body = m.renderSettings()
	case m.state == model.StateLive:
		body = m.renderDashboard(width)
	case m.state == model.StateReportReady:
		body = m.renderReport()
	default:
		body = m.renderIdle()
	}
	sections := []string{m.renderHeader(), body, m.renderFooter()}
	out := strings.Join(sections, "\n\n")
	if m.height > 0 {
		out = fitLines(out, width, m.height)
	}
	return out
}

func (m *Model) renderHeader() string {
	return titleStyle.Render("podium") + "  " + labelStyle.Render(m.state.String())
}

func (m *Model) renderIdle() string {
	lines := []string{
		valueStyle.Render("Ready when you are."),
	}
	if m.limitReached {
		lines = append(lines, zoneRedStyle.Render(m.clock))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSettings() string {
	lines := []string{valueStyle.Render("Countdown thresholds")}
	for _, input := range m.settingInputs {
		lines = append(lines, input.View())
	}
	if m.settingError != "" {
		lines = append(lines, errorStyle.Render(m.settingError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderImport() string {
	return strings.Join([]string{
		valueStyle.Render("Open a saved report"),
		m.importInput.View(),
	}, "\n")
}

func (m *Model) renderDashboard(width int) string {
	lines := []string{
		zoneStyle(m.zone).Render(m.clock),
		m.renderEmotionLine(),
		m.renderSpeechLine(width),
		m.renderStatusLine(),
	}
	if m.colorSet {
		lines = append(lines, m.renderColorLine())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderEmotionLine() string {
	mirror := ""
	if m.mirrored {
		mirror = labelStyle.Render("  mirrored")
	}
	if !m.faceDetected {
		return labelStyle.Render("Emotion: ") + valueStyle.Render(displayOrDash(m.emotion)) + mirror
	}
	value := fmt.Sprintf("%s (%.2f)", m.emotion, m.emotionScore)
	fps := ""
	if m.fps > 0 {
		fps = labelStyle.Render(fmt.Sprintf("  %.1f fps", m.fps))
	}
	return labelStyle.Render("Emotion: ") + valueStyle.Render(value) + fps + mirror
}

func (m *Model) renderSpeechLine(width int) string {
	meta := ""
	if m.words > 0 {
		meta += labelStyle.Render(fmt.Sprintf("  %d words", m.words))
	}
	if m.rate > 0 {
		meta += labelStyle.Render(fmt.Sprintf("  %.0f wpm", m.rate))
	}
	prefix := labelStyle.Render("Heard: ")
	avail := width - lipgloss.Width(prefix) - lipgloss.Width(meta)
	if avail < 10 {
		avail = 10
	}
	text := runewidth.Truncate(displayOrDash(m.transcript), avail, "...")
	return prefix + valueStyle.Render(text) + meta
}

func (m *Model) renderStatusLine() string {
	line := labelStyle.Render("Status: ") + valueStyle.Render(displayOrDash(m.status)) +
		labelStyle.Render("  Ah count: ") + valueStyle.Render(strconv.Itoa(m.ahCount))
	if m.alert {
		line += "  " + alertStyle.Render(" AH! ")
	}
	return line
}

func (m *Model) renderColorLine() string {
	hex := fmt.Sprintf("#%02X%02X%02X", m.red, m.green, m.blue)
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("      ")
	return labelStyle.Render("Companion: ") + swatch + " " + valueStyle.Render(fmt.Sprintf("(%d, %d, %d)", m.red, m.green, m.blue))
}

func (m *Model) renderReport() string {
	lines := []string{m.reportText}
	if m.savedPath != "" {
		lines = append(lines, "", labelStyle.Render("Saved to ")+valueStyle.Render(m.savedPath))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	var help string
	switch {
	case m.importMode:
		help = "enter: open  esc: cancel"
	case m.state == model.StateConfiguring:
		help = "tab/shift+tab: next field  enter: apply  esc: cancel"
	case m.state == model.StateLive:
		help = "r: report  m: mirror  x: stop  q: quit"
	case m.state == model.StateReportReady:
		help = "s: save  c: back to session  q: quit"
	default:
		help = "enter: start  s: settings  o: open report  q: quit"
	}
	footer := helpStyle.Render(help)
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func zoneStyle(z model.Zone) lipgloss.Style {
	switch z {
	case model.ZoneGreen:
		return zoneGreenStyle
	case model.ZoneYellow:
		return zoneYellowStyle
	case model.ZoneRed:
		return zoneRedStyle
	default:
		return zoneDefaultStyle
	}
}

func displayOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}
