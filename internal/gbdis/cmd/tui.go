package cmd

import (
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"gbdis/internal/analysis"
	"gbdis/internal/cart"
	"gbdis/internal/gbdis/styles"
	"gbdis/internal/sm83"
	"gbdis/internal/traverse"
	"gbdis/internal/ui/colorize"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewLabels
	viewInfo
)

type labelItem struct {
	addr  sm83.Addr
	name  string
	row   int // row of the label in the listing viewport
	xrefs string
}

func (i labelItem) Title() string       { return fmt.Sprintf("%04x  %s", uint32(i.addr), i.name) }
func (i labelItem) Description() string { return i.xrefs }
func (i labelItem) FilterValue() string { return i.name }

// Custom item delegate for the labels list
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(labelItem)
	if !ok {
		return
	}

	var addrStyle lipgloss.Style
	indicator := " "
	if index == m.Index() {
		indicator = ">"
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	} else {
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	}
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.InlineCode))
	xrefStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.Comment))

	fmt.Fprintf(w, " %s  %s  %s  %s",
		indicator,
		addrStyle.Render(fmt.Sprintf("%04x", uint32(i.addr))),
		nameStyle.Render(i.name),
		xrefStyle.Render(i.xrefs))
}

type model struct {
	viewport viewport.Model
	labels   list.Model
	info     viewport.Model
	spinner  spinner.Model
	mode     viewMode
	filepath string
	cfg      Config
	image    *cart.Image
	result   *traverse.Result
	lines    []analysis.Line
	rows     []string          // coloured listing rows, built once per analysis
	labelRow map[sm83.Addr]int // row of each label in rows
	err      error
	loading  bool
	width    int
	height   int
}

// analyzedMsg carries the finished traversal back to the model.
type analyzedMsg struct {
	image  *cart.Image
	result *traverse.Result
	lines  []analysis.Line
	err    error
}

func analyzeCmd(path string, cfg Config) tea.Cmd {
	return func() tea.Msg {
		im, res, err := analyze(path, cfg)
		msg := analyzedMsg{image: im, result: res, err: err}
		if res != nil {
			msg.lines = analysis.Annotated(res, im)
		}
		return msg
	}
}

func NewModel(filepath string, cfg Config) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	labels := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	labels.SetShowStatusBar(false)
	labels.SetFilteringEnabled(true)
	labels.Title = "Labels"
	labels.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	labels.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	info := viewport.New()
	info.SetWidth(80)
	info.SetHeight(24)

	m := model{
		viewport: vp,
		labels:   labels,
		info:     info,
		spinner:  s,
		mode:     viewListing,
		filepath: filepath,
		cfg:      cfg,
		loading:  true,
		width:    80,
		height:   24,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		analyzeCmd(m.filepath, m.cfg),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case analyzedMsg:
		m.loading = false
		m.image, m.result, m.lines, m.err = msg.image, msg.result, msg.lines, msg.err
		m.rows, m.labelRow = listingRows(m.lines)
		m.updateContent()
		m.updateLabelsList()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.updateContent()
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.labels.SetWidth(msg.Width)
			m.labels.SetHeight(msg.Height - 2)
			m.info.SetWidth(msg.Width)
			m.info.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		// While filtering, the list gets every key except quit.
		if m.mode == viewLabels && m.labels.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.mode = viewListing
			return m, nil
		case "l":
			if len(m.labels.Items()) > 0 {
				m.mode = viewLabels
			}
			return m, nil
		case "i":
			m.mode = viewInfo
			return m, nil
		case "enter":
			if m.mode == viewLabels {
				if item, ok := m.labels.SelectedItem().(labelItem); ok {
					m.jumpTo(item)
				}
			}
			return m, nil
		case "tab":
			m.mode = m.cycle(1)
			return m, nil
		case "shift+tab":
			m.mode = m.cycle(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewLabels:
		m.labels, cmd = m.labels.Update(msg)
	case viewInfo:
		m.info, cmd = m.info.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// cycle returns the view step positions away, skipping the label list while
// it is empty.
func (m model) cycle(step int) viewMode {
	const views = 3
	next := m.mode
	for range views {
		next = viewMode((int(next) + step + views) % views)
		if next != viewLabels || len(m.labels.Items()) > 0 {
			return next
		}
	}
	return m.mode
}

func (m *model) jumpTo(item labelItem) {
	m.mode = viewListing
	m.viewport.SetYOffset(item.row)
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewLabels:
		content = m.labels.View()
	case viewInfo:
		content = m.info.View()
	default:
		content = m.viewport.View()
	}

	var menu string
	switch m.mode {
	case viewLabels:
		menu = " Enter: go to label • /: filter • R: listing • I: info • Tab: cycle • Q: quit "
	case viewInfo:
		menu = " R: listing • L: labels • Tab: cycle • Q: quit "
	default:
		menu = " L: labels • I: info • Tab: cycle • Q: quit "
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

// listingRows renders the listing as viewport rows, with a blank row before
// each label, and returns the row index of every label.
func listingRows(lines []analysis.Line) ([]string, map[sm83.Addr]int) {
	rows := make([]string, 0, len(lines)+len(lines)/8)
	at := make(map[sm83.Addr]int)
	for _, line := range lines {
		if line.IsLabel() {
			rows = append(rows, "")
			at[line.Addr] = len(rows)
		}
		rows = append(rows, colorize.ColorizeLine(line.String()))
	}
	return rows, at
}

func (m *model) updateContent() {
	relPath := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			relPath = rel
		}
	}

	width := m.width
	if width == 0 {
		width = 80
	}

	switch {
	case m.loading:
		m.viewport.SetContent(fmt.Sprintf("\n  %s Disassembling %s...", m.spinner.View(), relPath))
		return
	case m.result == nil:
		m.viewport.SetContent(fmt.Sprintf("\n  %s: %v", relPath, m.err))
		return
	}

	content := strings.Join(m.rows, "\n")
	if m.err != nil {
		content += fmt.Sprintf("\n\n; stopped: %v", m.err)
	}
	m.viewport.SetContent(content)

	var md strings.Builder
	if m.image.Header != nil {
		md.WriteString(headerMarkdown(m.image))
	} else {
		fmt.Fprintf(&md, "# %s\n\nNo cartridge header.\n", pathpkg.Base(relPath))
	}
	s := analysis.Summarize(m.result, m.image.Data)
	fmt.Fprintf(&md, "\n## Disassembly\n\n| | |\n|---|---|\n")
	fmt.Fprintf(&md, "| Instructions | %d |\n| Errors | %d |\n| Labels | %d |\n| Subroutines | %d |\n",
		s.Instructions, s.Errors, s.Labels, s.Subroutines)
	fmt.Fprintf(&md, "| Code | %d of %d bytes (%.1f%%) |\n", s.CodeBytes, s.ImageBytes, 100*s.Coverage)
	if s.Truncated {
		fmt.Fprintf(&md, "| Limit | stopped after %d instructions |\n", m.cfg.Limit)
	}

	rendered, err := styles.Render(md.String(), width-2, colorize.Enabled())
	if err != nil {
		rendered = md.String()
	}
	m.info.SetContent(strings.TrimSuffix(rendered, "\n"))
}

func (m *model) updateLabelsList() {
	if m.result == nil {
		return
	}
	items := make([]list.Item, 0, len(m.labelRow))
	for _, line := range m.lines {
		if !line.IsLabel() {
			continue
		}
		items = append(items, labelItem{
			addr:  line.Addr,
			name:  line.Label,
			row:   m.labelRow[line.Addr],
			xrefs: strings.Join(line.Annotations, ", "),
		})
	}
	m.labels.SetItems(items)
}
