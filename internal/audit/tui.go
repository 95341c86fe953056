package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobscout/internal/model"
)

// rowsPerJob is the height of one list entry: title, subtitle, gap.
const rowsPerJob = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	accent = lipgloss.Color("39")
	muted  = lipgloss.Color("240")
	soft   = lipgloss.Color("245")
	light  = lipgloss.Color("252")

	frameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	paneTitle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(light).Background(lipgloss.Color("236"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("24"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).Width(12)
	problemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noteStyle     = lipgloss.NewStyle().Foreground(soft).Italic(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(soft)
)

// pane is one scrollable column of records with its own cursor.
type pane struct {
	title  string
	jobs   []model.StoredJob
	cursor int
	vp     viewport.Model
}

func (p *pane) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), max(len(p.jobs)-1, 0))

	top := p.cursor * rowsPerJob
	bottom := top + rowsPerJob - 1
	switch {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case bottom >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(bottom - p.vp.Height + 1)
	}
}

func (p pane) selected() (model.StoredJob, bool) {
	if len(p.jobs) == 0 {
		return model.StoredJob{}, false
	}
	return p.jobs[p.cursor], true
}

func (p *pane) refresh(focused bool, now time.Time) {
	if len(p.jobs) == 0 {
		p.vp.SetContent(noteStyle.Render("  nothing here"))
		return
	}

	var b strings.Builder
	for i, j := range p.jobs {
		prefix, titleSt, subSt := "  ", lipgloss.NewStyle().Bold(true), subtitleStyle
		if focused && i == p.cursor {
			prefix, titleSt, subSt = "> ", cursorStyle.Bold(true), cursorStyle
		}
		sub := fmt.Sprintf("%s · %s · %s", j.CompanyName, j.Location, age(j, now))
		b.WriteString(prefix + titleSt.Render(j.Title) + "\n" + prefix + subSt.Render(sub) + "\n")
		if i < len(p.jobs)-1 {
			b.WriteString("\n")
		}
	}
	p.vp.SetContent(b.String())
}

func age(j model.StoredJob, now time.Time) string {
	if j.ScrapedAt.IsZero() {
		return "n/a"
	}
	return humanize.RelTime(j.ScrapedAt, now, "ago", "from now")
}

type auditModel struct {
	panes  [2]pane
	focus  int
	width  int
	height int
	ready  bool
	now    func() time.Time
	open   func(url string)

	view            viewState
	detailJob       model.StoredJob
	detailVP        viewport.Model
	showDescription bool

	wantQuit bool
}

func newAuditModel(jobs []model.StoredJob) auditModel {
	scraped, problems := Partition(jobs)
	return auditModel{
		panes: [2]pane{
			{title: "Scraped", jobs: scraped},
			{title: "Blocked / Failed", jobs: problems},
		},
		now:  time.Now,
		open: openURL,
	}
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			m.wantQuit = true
			return m, tea.Quit
		}
		if m.view == viewDetail {
			return m.detailKey(msg)
		}
		return m.listKey(msg)
	}
	return m, nil
}

func (m auditModel) listKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.focus]
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.focus = 1 - m.focus
	case "up", "k":
		p.move(-1)
	case "down", "j":
		p.move(1)
	case "enter":
		job, ok := p.selected()
		if !ok {
			return m, nil
		}
		m.view = viewDetail
		m.detailJob = job
		m.showDescription = false
		m.detailVP = viewport.New(m.width-4, m.height-4)
		m.detailVP.SetContent(m.renderDetail())
		return m, nil
	default:
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return m, cmd
	}
	m.refreshPanes()
	return m, nil
}

func (m auditModel) detailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detailJob.URL != "" {
			m.open(m.detailJob.URL)
		}
		return m, nil
	case "r":
		if hasText(m.detailJob) {
			m.showDescription = !m.showDescription
			m.detailVP.SetContent(m.renderDetail())
			m.detailVP.GotoTop()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.detailVP, cmd = m.detailVP.Update(msg)
	return m, cmd
}

// hasText reports whether j carries scraped text rather than a failure marker.
func hasText(j model.StoredJob) bool {
	return j.Description != "" && !model.IsSentinel(j.Description)
}

func (m *auditModel) resize(w, h int) {
	m.width, m.height = w, h

	// Each pane loses 2 columns to its frame and the panes share a 1-column gap.
	// Rows: pane title, frame top and bottom, footer.
	pw, ph := max((w-5)/2, 20), max(h-4, 5)
	for i := range m.panes {
		if !m.ready {
			m.panes[i].vp = viewport.New(pw, ph)
		}
		m.panes[i].vp.Width, m.panes[i].vp.Height = pw, ph
	}
	m.ready = true
	m.refreshPanes()

	if m.view == viewDetail {
		m.detailVP.Width, m.detailVP.Height = w-4, h-4
		m.detailVP.SetContent(m.renderDetail())
	}
}

func (m *auditModel) refreshPanes() {
	now := m.now()
	for i := range m.panes {
		m.panes[i].refresh(i == m.focus, now)
	}
}

func (m auditModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.view == viewDetail {
		hints := "o open URL  esc back  ↑/↓ scroll  q quit"
		if hasText(m.detailJob) {
			hints = "o open URL  r description  esc back  ↑/↓ scroll  q quit"
		}
		frame := frameStyle.BorderForeground(accent).Width(m.width - 2)
		return lipgloss.JoinVertical(lipgloss.Left,
			paneTitle.Foreground(accent).Render("Record"),
			frame.Render(m.detailVP.View()),
			footerStyle.Width(m.width).Render(hints),
		)
	}

	var titles, bodies []string
	for i, p := range m.panes {
		color := muted
		if i == m.focus {
			color = accent
		}
		w := p.vp.Width
		titles = append(titles, lipgloss.NewStyle().Width(w+2).Render(
			paneTitle.Foreground(color).Render(fmt.Sprintf("%s (%d)", p.title, len(p.jobs)))))
		bodies = append(bodies, frameStyle.BorderForeground(color).Width(w).Render(p.vp.View()))
	}

	scraped, problems := len(m.panes[0].jobs), len(m.panes[1].jobs)
	footer := fmt.Sprintf("%d records, %d need a manual retry    tab switch  ↑/↓ move  enter open  esc runs  q quit",
		scraped+problems, problems)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, titles[0], " ", titles[1]),
		lipgloss.JoinHorizontal(lipgloss.Top, bodies[0], " ", bodies[1]),
		footerStyle.Width(m.width).Render(footer),
	)
}

func (m auditModel) renderDetail() string {
	j := m.detailJob

	status := string(j.Status)
	if isProblem(j) {
		status = problemStyle.Render(status)
	}
	scraped := ""
	if !j.ScrapedAt.IsZero() {
		scraped = fmt.Sprintf("%s (%s)", age(j, m.now()), j.ScrapedAt.Local().Format("2006-01-02 15:04 MST"))
	}

	groups := [][][2]string{
		{{"Title", j.Title}, {"Company", j.CompanyName}, {"Location", j.Location}, {"Source", j.Source}},
		{{"Status", status}, {"Language", j.Language}, {"Email", j.Email}, {"Scraped", scraped}, {"Run", j.RunID}},
		{{"URL", j.URL}},
	}

	var sections []string
	for _, g := range groups {
		var rows []string
		for _, f := range g {
			if f[1] != "" {
				rows = append(rows, labelStyle.Render(f[0])+f[1])
			}
		}
		if len(rows) > 0 {
			sections = append(sections, strings.Join(rows, "\n"))
		}
	}

	width := max(m.width-8, 20)
	switch {
	case hasText(j) && m.showDescription:
		rule := lipgloss.NewStyle().Foreground(muted).Render(strings.Repeat("─", width))
		sections = append(sections, rule+"\n"+lipgloss.NewStyle().Foreground(light).Render(wordWrap(j.Description, width)))
	case hasText(j):
		sections = append(sections, noteStyle.Render(fmt.Sprintf("press r to read the description (%s chars)",
			humanize.Comma(int64(len(j.Description))))))
	case model.IsSentinel(j.Description):
		sections = append(sections, noteStyle.Render(j.Description+": press o to retry in your browser"))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

// wordWrap breaks text on whitespace so no line exceeds width unless a
// single word does.
func wordWrap(text string, width int) string {
	var b strings.Builder
	col := 0
	for _, w := range strings.Fields(text) {
		switch {
		case col == 0:
		case col+1+len(w) > width:
			b.WriteByte('\n')
			col = 0
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}

// openURL hands url to the platform's opener and does not wait for it.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI shows one run's records side by side. It reports wantQuit=true
// when the user pressed q, false when they went back to the run picker.
func RunAuditTUI(jobs []model.StoredJob) (bool, error) {
	result, err := tea.NewProgram(newAuditModel(jobs), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return result.(auditModel).wantQuit, nil
}
