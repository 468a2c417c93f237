package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/gallery"
	"github.com/jmallory/pica/internal/search"
	"github.com/jmallory/pica/internal/tui/styles"
)

// ViewState represents what the UI is currently doing
type ViewState int

const (
	ViewBrowsing ViewState = iota
	ViewFiltering
	ViewEditing
	ViewConfirmDelete
	ViewGate
)

// Model is the main Bubble Tea model for the application
type Model struct {
	svc   *gallery.Service
	relay *RefreshRelay

	keys    KeyMap
	spinner spinner.Model
	logger  *slog.Logger

	state   ViewState
	loading bool

	// Full and filtered photo lists. filtered is what renders.
	photos   []domain.Photo
	filtered []domain.Photo
	folder   string
	cursor   int

	filterInput textinput.Model
	filterQuery string

	// Edit form: description then tags, tab to switch
	descInput textinput.Model
	tagsInput textinput.Model
	editField int

	gateReason gallery.GateReason
	loadErr    error

	// Transient status line; statusID invalidates stale expiry ticks
	status   string
	statusID int

	refreshing bool
	showDetail bool

	width  int
	height int
}

// NewModel creates the gallery TUI model
func NewModel(svc *gallery.Service, relay *RefreshRelay, showDetail bool, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	filter := textinput.New()
	filter.Placeholder = "filter by name, description, tag"
	filter.CharLimit = 80

	desc := textinput.New()
	desc.Placeholder = "description"
	desc.CharLimit = 256

	tags := textinput.New()
	tags.Placeholder = "tags, comma separated"
	tags.CharLimit = 256

	return Model{
		svc:         svc,
		relay:       relay,
		keys:        DefaultKeyMap(),
		spinner:     sp,
		logger:      logger,
		state:       ViewBrowsing,
		loading:     true,
		filterInput: filter,
		descInput:   desc,
		tagsInput:   tags,
		showDetail:  showDetail,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadCmd(m.svc, true),
		waitForRefresh(m.relay.Events()),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case GalleryLoadedMsg:
		m.loading = false
		m.refreshing = m.svc.Refreshing()
		m.photos = msg.Photos
		m.folder = msg.Folder
		m.state = ViewBrowsing
		m.loadErr = nil
		m.applyFilter()
		return m, nil

	case CredentialGateMsg:
		m.loading = false
		m.state = ViewGate
		m.gateReason = msg.Reason
		return m, nil

	case LoadFailedMsg:
		m.loading = false
		m.state = ViewBrowsing
		m.loadErr = msg.Err
		return m, nil

	case BackgroundRefreshMsg:
		m.refreshing = false
		cmds := []tea.Cmd{waitForRefresh(m.relay.Events())}
		if msg.Event.Err != nil {
			// The displayed list stays as-is; just let the user know.
			cmds = append(cmds, m.setStatus(styles.DimStyle.Render("background refresh failed, showing cached gallery")))
		} else {
			m.photos = m.svc.Photos()
			m.applyFilter()
		}
		return m, tea.Batch(cmds...)

	case PhotoUpdatedMsg:
		m.photos = m.svc.Photos()
		m.applyFilter()
		if msg.Err != nil {
			return m, m.setStatus(styles.ErrorStyle.Render("saved locally, server update failed: " + msg.Err.Error()))
		}
		return m, m.setStatus(styles.SuccessStyle.Render("metadata saved"))

	case PhotoDeletedMsg:
		if msg.Err != nil {
			return m, m.setStatus(styles.ErrorStyle.Render("delete failed: " + msg.Err.Error()))
		}
		m.photos = m.svc.Photos()
		m.applyFilter()
		return m, m.setStatus(styles.SuccessStyle.Render("photo deleted"))

	case StatusExpiredMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case ViewFiltering:
		return m.handleFilterKey(msg)
	case ViewEditing:
		return m.handleEditKey(msg)
	case ViewConfirmDelete:
		return m.handleConfirmKey(msg)
	case ViewGate:
		if key.Matches(msg, m.keys.Quit) || key.Matches(msg, m.keys.Escape) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		}
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.pageSize()
		if m.cursor < 0 {
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.pageSize()
		if m.cursor >= len(m.filtered) {
			m.cursor = len(m.filtered) - 1
		}

	case key.Matches(msg, m.keys.Filter):
		m.state = ViewFiltering
		m.filterInput.SetValue(m.filterQuery)
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		// Guard against overlapping triggers: the loader does not
		// deduplicate concurrent fetches.
		if m.loading || m.refreshing {
			return m, nil
		}
		m.loading = true
		m.loadErr = nil
		return m, tea.Batch(m.spinner.Tick, refreshCmd(m.svc))

	case key.Matches(msg, m.keys.Edit):
		if photo, ok := m.selected(); ok {
			m.state = ViewEditing
			m.editField = 0
			m.descInput.SetValue(photo.Description)
			m.tagsInput.SetValue(strings.Join(photo.Tags, ", "))
			m.descInput.Focus()
			m.tagsInput.Blur()
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); ok {
			m.state = ViewConfirmDelete
		}

	case key.Matches(msg, m.keys.Escape):
		if m.filterQuery != "" {
			m.filterQuery = ""
			m.applyFilter()
		}
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.state = ViewBrowsing
		m.filterQuery = m.filterInput.Value()
		m.filterInput.Blur()
		m.applyFilter()
		return m, nil
	case "esc":
		m.state = ViewBrowsing
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	m.applyFilter()
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.editField = 1 - m.editField
		if m.editField == 0 {
			m.descInput.Focus()
			m.tagsInput.Blur()
		} else {
			m.descInput.Blur()
			m.tagsInput.Focus()
		}
		return m, textinput.Blink

	case "enter":
		photo, ok := m.selected()
		if !ok {
			m.state = ViewBrowsing
			return m, nil
		}
		m.state = ViewBrowsing
		m.descInput.Blur()
		m.tagsInput.Blur()
		tags := splitTags(m.tagsInput.Value())
		return m, updatePhotoCmd(m.svc, photo, m.descInput.Value(), tags)

	case "esc":
		m.state = ViewBrowsing
		m.descInput.Blur()
		m.tagsInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	if m.editField == 0 {
		m.descInput, cmd = m.descInput.Update(msg)
	} else {
		m.tagsInput, cmd = m.tagsInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.state = ViewBrowsing
		if photo, ok := m.selected(); ok {
			return m, deletePhotoCmd(m.svc, photo)
		}
	case key.Matches(msg, m.keys.Deny):
		m.state = ViewBrowsing
	}
	return m, nil
}

// === Helpers ===

func (m *Model) applyFilter() {
	m.filtered = search.Filter(m.photos, m.filterQuery)
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (domain.Photo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return domain.Photo{}, false
	}
	return m.filtered[m.cursor], true
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.status = text
	m.statusID++
	return expireStatusCmd(m.statusID)
}

func (m Model) pageSize() int {
	size := m.listHeight()
	if size < 1 {
		return 1
	}
	return size
}

func (m Model) listHeight() int {
	// Header, footer, and optional status each take one line.
	h := m.height - 3
	if h < 3 {
		h = 3
	}
	return h
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	return domain.NormalizeTags(parts)
}

// === View ===

func (m Model) View() string {
	if m.state == ViewGate {
		return m.gateView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.loading {
		b.WriteString(fmt.Sprintf("\n  %s loading gallery…\n", m.spinner.View()))
	} else if m.loadErr != nil {
		b.WriteString("\n  " + styles.ErrorStyle.Render("load failed: "+m.loadErr.Error()) + "\n")
		b.WriteString("  " + styles.DimStyle.Render("press r to retry") + "\n")
	} else {
		b.WriteString(m.listView())
	}

	b.WriteString("\n" + m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := styles.TitleStyle.Render("pica")
	folder := styles.SubtitleStyle.Render(fmt.Sprintf(" %s · %d photos", m.folder, len(m.photos)))
	suffix := ""
	if m.refreshing {
		suffix = styles.DimStyle.Render("  refreshing…")
	}
	if m.filterQuery != "" {
		suffix += styles.AccentStyle.Render(fmt.Sprintf("  /%s (%d)", m.filterQuery, len(m.filtered)))
	}
	return title + folder + suffix
}

func (m Model) listView() string {
	if len(m.filtered) == 0 {
		if m.filterQuery != "" {
			return "\n  " + styles.DimStyle.Render("no photos match the filter") + "\n"
		}
		return "\n  " + styles.DimStyle.Render("folder is empty — upload something with `pica -upload`") + "\n"
	}

	height := m.listHeight()
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	var rows []string
	for i := start; i < end; i++ {
		rows = append(rows, m.rowView(i))
	}
	list := strings.Join(rows, "\n")

	if m.showDetail {
		if photo, ok := m.selected(); ok {
			return lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.detailView(photo))
		}
	}
	return list
}

func (m Model) rowView(i int) string {
	photo := m.filtered[i]
	line := photo.DisplayName()
	if photo.Description != "" {
		line += styles.DimStyle.Render(" — " + photo.Description)
	}
	if i == m.cursor {
		return styles.SelectedStyle.Render(line)
	}
	return " " + line
}

func (m Model) detailView(photo domain.Photo) string {
	var lines []string
	lines = append(lines, styles.TitleStyle.Render(photo.DisplayName()))
	if photo.Description != "" {
		lines = append(lines, photo.Description)
	}
	if len(photo.Tags) > 0 {
		lines = append(lines, styles.AccentStyle.Render(strings.Join(photo.Tags, ", ")))
	}
	meta := make([]string, 0, 3)
	if d := photo.Dimensions(); d != "" {
		meta = append(meta, d)
	}
	if photo.Format != "" {
		meta = append(meta, photo.Format)
	}
	if s := photo.FormattedSize(); s != "" {
		meta = append(meta, s)
	}
	if len(meta) > 0 {
		lines = append(lines, styles.DimStyle.Render(strings.Join(meta, " · ")))
	}
	if !photo.CreatedAt.IsZero() {
		lines = append(lines, styles.DimStyle.Render(photo.CreatedAt.Format("2006-01-02 15:04")))
	}
	return styles.DetailBorder.Render(strings.Join(lines, "\n"))
}

func (m Model) footerView() string {
	switch m.state {
	case ViewFiltering:
		return "/" + m.filterInput.View()
	case ViewEditing:
		label := "description"
		input := m.descInput.View()
		if m.editField == 1 {
			label = "tags"
			input = m.tagsInput.View()
		}
		return styles.AccentStyle.Render(label+": ") + input + styles.DimStyle.Render("  tab switch · enter save · esc cancel")
	case ViewConfirmDelete:
		if photo, ok := m.selected(); ok {
			return styles.ErrorStyle.Render(fmt.Sprintf("delete %s? ", photo.DisplayName())) + styles.DimStyle.Render("y confirm · n cancel")
		}
	}

	if m.status != "" {
		return m.status
	}
	return styles.DimStyle.Render("j/k move · / filter · e edit · x delete · r refresh · q quit")
}

func (m Model) gateView() string {
	var reason string
	switch m.gateReason {
	case gallery.GateDisplayMissing:
		reason = "Cloud name and upload preset are not configured."
	case gallery.GateSecretMissing:
		reason = "API key and secret are not configured."
	default:
		reason = "Credentials are not configured."
	}
	return "\n  " + styles.TitleStyle.Render("Setup required") + "\n\n" +
		"  " + reason + "\n\n" +
		"  " + styles.DimStyle.Render("Run `pica -setup` and restart.") + "\n\n" +
		"  " + styles.DimStyle.Render("press q to quit") + "\n"
}
