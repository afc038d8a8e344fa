// cli/cli.go
// Package cli provides the interactive document chat TUI.
package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tfletch/clausecheck/internal/appconfig"
	"github.com/tfletch/clausecheck/internal/chat"
	"github.com/tfletch/clausecheck/internal/document"
	"github.com/tfletch/clausecheck/internal/logging"
	"github.com/tfletch/clausecheck/internal/providers/ollama"
)

// Config represents the shared application configuration for the CLI.
type Config = appconfig.Config

// chatMessage represents a single exchange entry shown in the history.
type chatMessage struct {
	Role    string
	Content string
}

// viewState represents the current view or screen of the application.
type viewState int

const (
	// viewIngesting is the state while the document is chunked and embedded.
	viewIngesting viewState = iota
	// viewChat is the state where the user is interacting with the chat.
	viewChat
)

// model is the main application model for the Bubble Tea UI.
type model struct {
	ctx              context.Context
	config           *Config
	session          *chat.Session
	documentPath     string
	state            viewState
	isLoading        bool
	err              error
	textArea         textarea.Model
	viewport         viewport.Model
	spinner          spinner.Model
	chatHistory      []chatMessage
	chunkCount       int
	width, height    int
	requestStartTime time.Time
}

// initialModel creates and initializes a new model with default values.
func initialModel(ctx context.Context, cfg *Config, session *chat.Session, documentPath string) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Ask about the document..."
	ta.Focus()
	ta.Prompt = "Ask: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(100, 5)

	return &model{
		ctx:          ctx,
		config:       cfg,
		session:      session,
		documentPath: documentPath,
		state:        viewIngesting,
		isLoading:    true,
		spinner:      s,
		textArea:     ta,
		viewport:     vp,
	}
}

// ingestDoneMsg is sent when the document has been chunked and embedded.
type ingestDoneMsg struct{ chunks int }

// ingestErr is sent when document ingestion fails.
type ingestErr struct{ error }

// answerMsg is sent when the model has answered a question.
type answerMsg struct{ answer chat.Answer }

// answerErr is sent when a chat turn fails.
type answerErr struct{ error }

// tickMsg drives the elapsed-time display while loading.
type tickMsg time.Time

// ingestCmd loads the document and embeds it into the session store.
func ingestCmd(ctx context.Context, session *chat.Session, path string) tea.Cmd {
	return func() tea.Msg {
		passages, err := document.Load(path)
		if err != nil {
			return ingestErr{error: err}
		}
		count, err := session.Ingest(ctx, passages)
		if err != nil {
			return ingestErr{error: err}
		}
		return ingestDoneMsg{chunks: count}
	}
}

// askCmd runs one blocking chat turn against the ingested document.
func askCmd(ctx context.Context, session *chat.Session, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := session.Ask(ctx, question)
		if err != nil {
			return answerErr{error: err}
		}
		return answerMsg{answer: answer}
	}
}

// tickCmd creates a Bubble Tea command that sends a tickMsg at a regular interval.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner and kicks off document ingestion.
func (m *model) Init() tea.Cmd {
	m.requestStartTime = time.Now()
	return tea.Batch(m.spinner.Tick, ingestCmd(m.ctx, m.session, m.documentPath), tickCmd())
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		headerHeight := 3
		footerHeight := 4
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight

	case ingestDoneMsg:
		m.isLoading = false
		m.chunkCount = msg.chunks
		m.state = viewChat
		m.textArea.Focus()
		return m, nil

	case ingestErr:
		m.isLoading = false
		m.err = msg.error
		return m, nil

	case answerMsg:
		m.chatHistory = append(m.chatHistory, chatMessage{Role: "assistant", Content: msg.answer.Text})
		m.isLoading = false
		m.textArea.Focus()
		m.viewport.GotoBottom()
		return m, nil

	case answerErr:
		m.isLoading = false
		m.err = msg.error
		m.textArea.Focus()
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	if m.state == viewChat {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

		m.textArea, cmd = m.textArea.Update(msg)
		cmds = append(cmds, cmd)

		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" && !m.isLoading {
			question := strings.TrimSpace(m.textArea.Value())
			if question != "" {
				m.chatHistory = append(m.chatHistory, chatMessage{Role: "user", Content: question})
				m.textArea.Reset()
				m.isLoading = true
				m.err = nil
				m.requestStartTime = time.Now()
				cmds = append(cmds, m.spinner.Tick, askCmd(m.ctx, m.session, question), tickCmd())
			}
		}
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the application's UI based on the current state of the model.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.err != nil && m.state == viewIngesting {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.state == viewIngesting {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		return fmt.Sprintf("\n  %s Ingesting %s... %ss\n", m.spinner.View(), m.documentPath, timer)
	}

	return m.chatView()
}

// chatView renders the chat interface: header, history, and the input area.
func (m *model) chatView() string {
	var builder strings.Builder

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255")).Padding(0, 1)

	status := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("Document:"),
		headerStyle.Render(m.documentPath),
		headerStyle.MarginLeft(1).Render(fmt.Sprintf("Model: %s", m.config.Model)),
		headerStyle.MarginLeft(1).Render(fmt.Sprintf("Chunks: %d", m.chunkCount)),
	)
	help := lipgloss.NewStyle().Render(" (esc to quit)")
	builder.WriteString(status + help + "\n\n")

	var historyBuilder strings.Builder
	userStyle := lipgloss.NewStyle().Bold(true)
	assistantStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))

	for _, msg := range m.chatHistory {
		var role string
		if msg.Role == "assistant" {
			role = assistantStyle.Render("Assistant: ")
		} else {
			role = userStyle.Render("You: ")
		}
		wrappedContent := lipgloss.NewStyle().Width(m.width - lipgloss.Width(role) - 2).Render(msg.Content)
		historyBuilder.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, role, wrappedContent) + "\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		historyBuilder.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	m.viewport.SetContent(historyBuilder.String())
	builder.WriteString(m.viewport.View())

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		builder.WriteString("\n" + m.spinner.View() + fmt.Sprintf(" Assistant is thinking... %ss", timer))
	} else {
		builder.WriteString("\n" + m.textArea.View())
	}

	return builder.String()
}

// StartChat initializes and runs the interactive document chat TUI.
func StartChat(ctx context.Context, cfg *appconfig.Config, documentPath string) {
	if cfg == nil {
		log.Fatalf("Failed to start: configuration is not loaded")
	}

	provider := ollama.New(cfg)
	defer func() {
		if err := provider.Close(); err != nil {
			logging.LogEvent("provider shutdown error: %v", err)
		}
	}()

	session, err := chat.NewSession(cfg, provider)
	if err != nil {
		log.Fatalf("Failed to initialize chat session: %v", err)
	}

	m := initialModel(ctx, cfg, session, documentPath)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
