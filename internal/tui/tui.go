// Package tui provides a Bubble Tea TUI for reviewing pending metadata
// changes before they are committed.
package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/fakeyudi/fixexif/internal/report"
	"github.com/fakeyudi/fixexif/internal/ui"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabFiles tabID = iota
	tabTags
	tabScript
	tabCount
)

var tabNames = [tabCount]string{"Files", "Tags", "Script"}

// ── Model ────────────────────

// Model shows a plan and waits for the user to accept or reject it.
type Model struct {
	plan      *report.Plan
	root      string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	cursor    int
	expanded  map[int]bool
	confirmed bool
}

// New creates a model for plan. Paths are shown relative to root when they
// are below it.
func New(plan *report.Plan, root string) Model {
	if plan == nil {
		plan = &report.Plan{}
	}
	return Model{
		plan:     plan,
		root:     root,
		expanded: make(map[int]bool),
	}
}

// Confirmed reports whether the user accepted the plan.
func (m Model) Confirmed() bool { return m.confirmed }

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			m.confirmed = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.confirmed = false
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "up", "k":
			if m.activeTab == tabFiles && m.cursor > 0 {
				m.cursor--
				m.rebuildFilesViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabFiles && m.cursor < len(m.plan.Files)-1 {
				m.cursor++
				m.rebuildFilesViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabFiles && len(m.plan.Files) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.rebuildFilesViewport()
				return m, nil
			}
		}
		if !m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render(fmt.Sprintf("  fixexif  %d file(s) to update", len(m.plan.Files)))

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  y apply  n cancel  ←/→ tab  ↑/↓ scroll"
	if m.activeTab == tabFiles {
		hint += "  enter expand"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildFilesViewport() {
	if m.ready {
		m.viewports[tabFiles].SetContent(m.renderTab(tabFiles))
	}
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabFiles:
		return m.renderFiles()
	case tabTags:
		return m.renderTags()
	case tabScript:
		return m.renderScript()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderFiles() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Files (%d)", len(m.plan.Files))))
	if m.plan.Empty() {
		sb.WriteString(dimStyle.Render("  (nothing to change)") + "\n")
		return sb.String()
	}
	for i, f := range m.plan.Files {
		sets := assignments(f.Args)
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		row := fmt.Sprintf("%s%s  %s", toggle, relPath(f.Path, m.root), dimStyle.Render(fmt.Sprintf("(%d tag(s))", len(sets))))
		if i == m.cursor {
			row = selectedRowStyle.Width(max(m.width-2, 1)).Render(row)
		}
		sb.WriteString(row + "\n")

		if m.expanded[i] {
			for _, kv := range sets {
				name, value, _ := strings.Cut(kv, "=")
				sb.WriteString("      " + tagStyle.Render(name) + " = " + value + "\n")
			}
			if f.RestoreModTime != nil {
				sb.WriteString("      " + dimStyle.Render("keeps modified time ") +
					timeStyle.Render(f.RestoreModTime.Local().Format(time.DateTime)) + "\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderTags() string {
	counts := make(map[string]int)
	for _, f := range m.plan.Files {
		for _, kv := range assignments(f.Args) {
			name, _, _ := strings.Cut(kv, "=")
			counts[name]++
		}
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Tags written (%d)", len(names))))
	if len(names) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, n := range names {
		sb.WriteString(tagStyle.Render(fmt.Sprintf("  %-20s", n)) + fmt.Sprintf("  %d file(s)\n", counts[n]))
	}
	return sb.String()
}

func (m *Model) renderScript() string {
	var sb strings.Builder
	sb.WriteString(heading("exiftool script"))
	out, err := (&report.TextRenderer{}).Render(m.plan)
	if err != nil {
		sb.WriteString(dimStyle.Render("  "+err.Error()) + "\n")
		return sb.String()
	}
	sb.WriteString(indent(string(out), "  "))
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// assignments returns the Tag=Value pairs of a merged invocation.
func assignments(args []string) []string {
	var out []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && strings.Contains(a, "=") {
			out = append(out, a[1:])
		}
	}
	return out
}

// relPath returns path relative to root when it is below it.
func relPath(path, root string) string {
	if root == "" {
		return path
	}
	if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Run shows plan full-screen and reports whether the user accepted it.
func Run(plan *report.Plan, root string) (bool, error) {
	p := tea.NewProgram(New(plan, root), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(Model).Confirmed(), nil
}

// Confirm asks whether plan should be applied. When in is a terminal it
// opens the review screen; otherwise preview is written to out and a y/n
// answer is read from in.
func Confirm(plan *report.Plan, root string, preview []byte, in io.Reader, out io.Writer) (bool, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		return Run(plan, root)
	}
	if _, err := out.Write(preview); err != nil {
		return false, err
	}
	return ui.AskYesNo(in, out, fmt.Sprintf("Apply changes to %d file(s)?", len(plan.Files)))
}
