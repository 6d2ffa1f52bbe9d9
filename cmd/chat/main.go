// Command chat is a terminal client for the API. Tab switches between
// the routed search path and the knowledge-base ask path; Enter sends
// the query.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inquisit-ai/inquisit/engine/domain"
)

func main() {
	apiURL := flag.String("api", "http://localhost:6001", "API base URL")
	flag.Parse()

	client := &apiClient{
		baseURL: strings.TrimRight(*apiURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}
}

// --- API client ---

type apiClient struct {
	baseURL string
	client  *http.Client
}

func (c *apiClient) post(path string, reqBody, out any) error {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("api returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) search(q string) (domain.SearchAnswer, error) {
	var out domain.SearchAnswer
	err := c.post("/search", map[string]string{"q": q}, &out)
	return out, err
}

func (c *apiClient) ask(q string) (domain.KBAnswer, error) {
	var out domain.KBAnswer
	err := c.post("/kb/ask", map[string]string{"query": q}, &out)
	return out, err
}

// --- Bubble Tea model ---

type queryMode int

const (
	modeSearch queryMode = iota
	modeKB
)

func (m queryMode) String() string {
	if m == modeKB {
		return "kb"
	}
	return "search"
}

// resultMsg carries a finished API call back into the update loop.
type resultMsg struct {
	content string
	err     error
}

type model struct {
	client   *apiClient
	input    textinput.Model
	viewport viewport.Model
	mode     queryMode
	status   string
	busy     bool
	ready    bool
}

func newModel(client *apiClient) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return model{
		client:   client,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Tab switches search/kb mode. Ctrl+C quits.",
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		reserved := 4 + fh // header, input, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyTab:
			if m.mode == modeSearch {
				m.mode = modeKB
			} else {
				m.mode = modeSearch
			}
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.submit(q)
		}

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = "Done. Scroll with arrow keys."
		m.viewport.SetContent(msg.content)
		m.viewport.GotoTop()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) submit(q string) tea.Cmd {
	mode := m.mode
	return func() tea.Msg {
		switch mode {
		case modeKB:
			answer, err := m.client.ask(q)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{content: renderKBAnswer(answer)}
		default:
			answer, err := m.client.search(q)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{content: renderSearchAnswer(answer)}
		}
	}
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Inquisit") + "  " + modeStyle.Render("["+m.mode.String()+"]")
	body := boxStyle.Render(m.viewport.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + body + "\n" + m.input.View() + "\n" + status
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderSearchAnswer(a domain.SearchAnswer) string {
	var b strings.Builder
	b.WriteString(a.Answer)
	if len(a.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(sourceStyle.Render("Sources:"))
		for i, s := range a.Sources {
			b.WriteString(sourceStyle.Render(fmt.Sprintf("\n  [%d] %s", i+1, s)))
		}
	}
	return b.String()
}

func renderKBAnswer(a domain.KBAnswer) string {
	var b strings.Builder
	b.WriteString(a.Answer)
	b.WriteString("\n\n")
	b.WriteString(sourceStyle.Render(fmt.Sprintf("Confidence: %.2f", a.Confidence)))
	for _, s := range a.Sources {
		b.WriteString(sourceStyle.Render(fmt.Sprintf("\n  %s #%d", s.Source, s.ChunkID)))
	}
	return b.String()
}
