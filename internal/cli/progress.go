package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/imgsearch/internal/service"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tagProgressMsg reports one finished image.
type tagProgressMsg struct {
	done  int
	total int
	file  string
}

// tagDoneMsg carries the outcome of the run.
type tagDoneMsg struct {
	result *service.TagResult
	err    error
}

// progressModel is the bubbletea model for a tagging run.
type progressModel struct {
	cancel   context.CancelFunc
	progress progress.Model
	theme    Theme
	current  tagProgressMsg
	result   *service.TagResult
	err      error
	done     bool
	quitting bool
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Stop handing out images; the run reports back with tagDoneMsg.
			m.quitting = true
			m.cancel()
		}

	case tagProgressMsg:
		m.current = msg

	case tagDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var pct float64
	if m.current.total > 0 {
		pct = float64(m.current.done) / float64(m.current.total)
	}

	status := m.theme.statusStyle().Render("[tagging]")
	if m.quitting {
		status = m.theme.hintStyle().Render("[stopping]")
	}
	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d images", m.current.done, m.current.total)
	hint := m.theme.hintStyle().Render(m.current.file)

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m progressModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ Tagging failed: %s", m.err)) + "\n"
	}
	if m.quitting {
		return m.theme.hintStyle().Render("Tagging interrupted.") + "\n"
	}
	return m.theme.completedStyle().Render("✓ Completed") + "\n"
}

// renderErrors lists per-image failures below the summary.
func (t Theme) renderErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.errorStyle().Render(fmt.Sprintf("Errors (%d):", len(errs))))
	b.WriteString("\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "  • %s\n", e)
	}
	return b.String()
}

// RunTagProgress runs a tagging job behind an interactive progress bar.
// The job receives a context that is cancelled on Ctrl+C and a callback
// that feeds the bar.
func RunTagProgress(ctx context.Context, job func(ctx context.Context, onProgress func(done, total int, file string)) (*service.TagResult, error)) (*service.TagResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(cancel))

	go func() {
		result, err := job(ctx, func(done, total int, file string) {
			p.Send(tagProgressMsg{done: done, total: total, file: file})
		})
		p.Send(tagDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(progressModel)
	if !ok {
		return nil, fmt.Errorf("progress UI returned unexpected model")
	}
	return m.result, m.err
}
