package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/engine"
)

// ReportProvider feeds the model panel.
type ReportProvider interface {
	Report(ctx context.Context) (engine.Report, error)
}

// StatsProvider feeds the prediction statistics panel.
type StatsProvider interface {
	Stats(ctx context.Context) (domain.RiskStats, error)
}

type Services struct {
	Reports  ReportProvider
	Stats    StatsProvider
	Username string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1, 1, 0, 1)
)

type reportMsg struct {
	report engine.Report
	err    error
}

type statsMsg struct {
	stats domain.RiskStats
	err   error
}

// AppModel is the root bubbletea model of the SSH dashboard.
type AppModel struct {
	svc        Services
	candidates table.Model

	report    *engine.Report
	stats     *domain.RiskStats
	reportErr error
	statsErr  error

	width  int
	height int
}

func NewAppModel(svc Services) *AppModel {
	columns := []table.Column{
		{Title: "Modelo", Width: 22},
		{Title: "Accuracy", Width: 10},
		{Title: "F1 pond.", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(7),
		table.WithFocused(true),
	)
	return &AppModel{svc: svc, candidates: t}
}

func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.fetchReport, m.fetchStats)
}

func (m *AppModel) fetchReport() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := m.svc.Reports.Report(ctx)
	return reportMsg{report: report, err: err}
}

func (m *AppModel) fetchStats() tea.Msg {
	if m.svc.Stats == nil {
		return statsMsg{err: fmt.Errorf("historial no disponible")}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, err := m.svc.Stats.Stats(ctx)
	return statsMsg{stats: stats, err: err}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, tea.Batch(m.fetchReport, m.fetchStats)
		}
	case reportMsg:
		if msg.err != nil {
			m.reportErr = msg.err
			return m, nil
		}
		report := msg.report
		m.report = &report
		m.reportErr = nil
		m.candidates.SetRows(candidateRows(report))
		return m, nil
	case statsMsg:
		if msg.err != nil {
			m.statsErr = msg.err
			return m, nil
		}
		stats := msg.stats
		m.stats = &stats
		m.statsErr = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

func candidateRows(report engine.Report) []table.Row {
	keys := make([]string, 0, len(report.AllMetrics))
	for key := range report.AllMetrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([]table.Row, 0, len(keys))
	for _, key := range keys {
		name := key
		if key == report.BestModel {
			name = "* " + key
		}
		metrics := report.AllMetrics[key].Metrics
		rows = append(rows, table.Row{
			name,
			fmt.Sprintf("%.3f", metrics.Accuracy),
			fmt.Sprintf("%.3f", metrics.F1Weighted),
		})
	}
	return rows
}

func (m *AppModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Academic Compass — panel del modelo"))
	sb.WriteString("\n\n")

	switch {
	case m.reportErr != nil:
		sb.WriteString(errorStyle.Render("modelo: " + m.reportErr.Error()))
		sb.WriteString("\n")
	case m.report == nil:
		sb.WriteString(labelStyle.Render("cargando modelo..."))
		sb.WriteString("\n")
	default:
		sb.WriteString(labelStyle.Render("Ganador: "))
		sb.WriteString(valueStyle.Render(m.report.BestModel))
		sb.WriteString(labelStyle.Render("   Entrenado: "))
		sb.WriteString(valueStyle.Render(m.report.TrainedAt.Format("2006-01-02 15:04 UTC")))
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render("Variables: "))
		sb.WriteString(valueStyle.Render(strings.Join(m.report.SelectedFeatures, ", ")))
		sb.WriteString("\n\n")
		sb.WriteString(m.candidates.View())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case m.statsErr != nil:
		sb.WriteString(errorStyle.Render("estadísticas: " + m.statsErr.Error()))
	case m.stats == nil:
		sb.WriteString(labelStyle.Render("cargando estadísticas..."))
	default:
		fmt.Fprintf(&sb, "%s %d   %s %.2f",
			labelStyle.Render("Predicciones:"), m.stats.Total,
			labelStyle.Render("Score medio:"), m.stats.ScoreMedio)
		levels := make([]string, 0, len(m.stats.PorNivel))
		for level := range m.stats.PorNivel {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		for _, level := range levels {
			fmt.Fprintf(&sb, "   %s %d", labelStyle.Render(level+":"), m.stats.PorNivel[level])
		}
	}

	sb.WriteString("\n")
	sb.WriteString(footerStyle.Render(fmt.Sprintf("usuario: %s   r: refrescar   q: salir", m.svc.Username)))
	return sb.String()
}
