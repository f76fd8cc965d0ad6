// Package tui provides a Bubble Tea terminal user interface for tunefetch.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Darthmonkey/tunefetcherai/internal/config"
	"github.com/Darthmonkey/tunefetcherai/internal/download"
	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
	"github.com/Darthmonkey/tunefetcherai/internal/logger"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
	"github.com/Darthmonkey/tunefetcherai/internal/report"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	albumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is how many progress lines stay on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateFetching
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Options configure the TUI.
type Options struct {
	// Settings used for every batch. Defaults when nil.
	Settings *config.Settings

	// OutputDir receives the finished archives.
	OutputDir string

	// BatchFile pre-fills the input.
	BatchFile string
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	outputDir string
	logs      []LogEntry
	groups    []string
	failures  []model.TrackOutcome
	archive   string
	summary   string
	err       error

	// Batch context
	ctx    context.Context
	cancel context.CancelFunc

	// Manager of the running batch and its event feed
	manager *download.Manager
	events  chan download.ProgressEvent

	// Track counters
	total    int32
	finished int32
	failed   int32

	// Options
	playlist bool
	tags     bool
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(opts Options) Model {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}

	ti := textinput.New()
	ti.Placeholder = "path/to/batch.yaml"
	ti.SetValue(opts.BatchFile)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		outputDir: outDir,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan download.ProgressEvent, 256),
		playlist:  settings.CreatePlaylist,
		tags:      settings.ModifyTags,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one progress event from the manager.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// InitDoneMsg is sent once the batch file is loaded and the manager
	// is ready.
	InitDoneMsg struct {
		Requests []model.TrackRequest
		Groups   []string
		Manager  *download.Manager
		Err      error
	}

	// BatchDoneMsg is sent when the batch has finished.
	BatchDoneMsg struct {
		Status   download.BatchStatus
		Summary  string
		Archive  string
		Failures []model.TrackOutcome
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateFetching || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initialize(), m.spinner.Tick)
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.tags = !m.tags
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new batch
				m.state = StateInput
				m.logs = nil
				m.groups = nil
				m.failures = nil
				m.archive = ""
				m.summary = ""
				m.err = nil
				m.finished, m.total, m.failed = 0, 0, 0
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.groups = msg.Groups
			m.manager = msg.Manager
			m.total = int32(len(msg.Requests))
			m.state = StateFetching
			cmds = append(cmds, startBatch(m.ctx, msg.Manager, msg.Requests, m.outputDir), m.tickProgress(), m.waitForEvent())
		}

	case BatchDoneMsg:
		m.summary = msg.Summary
		m.archive = msg.Archive
		m.failures = msg.Failures
		if m.manager != nil {
			m.finished, m.total, m.failed = m.manager.GetProgress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateFetching {
			m.finished, m.total, m.failed = m.manager.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.finished) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent delivers the next progress event from the manager.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return ProgressMsg{Event: <-events}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♫ TuneFetcher"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Fetch a batch of tracks into one archive"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateFetching:
		b.WriteString(m.viewFetching())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Batch file (JSON or YAML):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Create playlist (ctrl+p)\n", check(m.playlist)))
	b.WriteString(fmt.Sprintf("  %s Write ID3 tags (ctrl+t)\n", check(m.tags)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", check(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Archives are saved to: %s", m.outputDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Loading batch..."))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewFetching() string {
	var b strings.Builder

	if len(m.groups) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("%d track(s) in %d group(s):", m.total, len(m.groups))))
		b.WriteString("\n")
		for _, g := range m.groups {
			b.WriteString(albumStyle.Render(fmt.Sprintf("  ♪ %s", g)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.finished) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Tracks: %d/%d | Failed: %d",
		m.finished,
		m.total,
		m.failed,
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"✓ Batch Complete!\n\n"+
			"Tracks: %d/%d\n"+
			"Failed: %d\n"+
			"Archive: %s",
		m.finished-m.failed,
		m.total,
		m.failed,
		m.archive,
	))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(m.renderFailures())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("✗ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFailures())

	return b.String()
}

func (m Model) renderFailures() string {
	var b strings.Builder
	for _, f := range m.failures {
		b.WriteString(warningStyle.Render(fmt.Sprintf("  ! %s: %s", f.DisplayName, f.ErrorDetail)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+p: playlist • ctrl+t: tags • ctrl+v: verbose • esc: quit"
	case StateInitializing, StateFetching:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new batch • q: quit"
	}
	return ""
}

// initialize loads the batch file and creates the manager.
func (m Model) initialize() tea.Cmd {
	path := strings.TrimSpace(m.textInput.Value())
	settings := *m.settings
	settings.CreatePlaylist = m.playlist
	settings.ModifyTags = m.tags
	events := m.events

	return func() tea.Msg {
		b, err := download.LoadBatchFile(path)
		if err != nil {
			return InitDoneMsg{Err: err}
		}
		requests := b.Requests()
		if err := model.ValidateBatch(requests); err != nil {
			return InitDoneMsg{Err: err}
		}

		manager, err := download.NewManager(&settings, download.Deps{
			Logger: logger.Discard(),
			OnProgress: func(event download.ProgressEvent) {
				// Non-blocking; events are dropped while the buffer is full.
				select {
				case events <- event:
				default:
				}
			},
		})
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{
			Requests: requests,
			Groups:   groups(requests),
			Manager:  manager,
		}
	}
}

func groups(requests []model.TrackRequest) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range requests {
		label := r.GroupLabel
		if label == "" {
			label = report.DefaultArchiveName
		}
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

// startBatch runs the batch and saves the archive into outDir.
func startBatch(ctx context.Context, manager *download.Manager, requests []model.TrackRequest, outDir string) tea.Cmd {
	return func() tea.Msg {
		result, err := manager.RunBatch(ctx, requests)
		if err != nil {
			return BatchDoneMsg{Err: err}
		}
		defer result.Release()

		done := BatchDoneMsg{
			Status:   result.Status,
			Summary:  download.Summary(result),
			Failures: result.Failures,
		}
		if result.Status != download.StatusCompleted {
			done.Err = fmt.Errorf("no archive written: %s", done.Summary)
			return done
		}

		name := result.GroupLabel
		if name == "" {
			name = report.DefaultArchiveName
		}
		dest := filepath.Join(outDir, model.SanitizeFileName(name)+".zip")
		if err := ioutils.CopyFile(ctx, result.ArchivePath, dest); err != nil {
			done.Err = fmt.Errorf("save archive: %w", err)
			return done
		}
		done.Archive = dest
		return done
	}
}

// Run starts the TUI application.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
