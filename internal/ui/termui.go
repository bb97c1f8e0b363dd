package ui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/skalibog/ekgrate/internal/config"
	"github.com/skalibog/ekgrate/pkg/logger"
	"github.com/skalibog/ekgrate/pkg/models"
)

// Стили UI
var (
	// Основные цвета
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")
	traceColor     = lipgloss.Color("#66ccff")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1).
			Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(secondaryColor).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)
)

const (
	maxLogLines  = 50
	shownLogs    = 8
	peakMarker   = '^'
	tracePoint   = '•'
	logTimestamp = "02.01.2006 - 15:04:05.999999999Z07:00"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// TermUI просмотр результатов обработки записей
type TermUI struct {
	records       []*models.Record
	logs          []string
	logsMutex     sync.RWMutex
	config        config.UIConfig
	program       *tea.Program
	selectedIndex int
	width         int
	height        int
	logFile       string // JSON-лог приложения
}

// Сообщения для обновления UI
type tickMsg time.Time

// bubbleModel - модель для bubbletea
type bubbleModel struct {
	ui *TermUI
}

// NewTermUI создает интерфейс для готовых результатов пакетной обработки
func NewTermUI(cfg config.UIConfig, logFile string, records []*models.Record) *TermUI {
	ui := &TermUI{
		records: records,
		logs:    []string{"Обработка завершена"},
		config:  cfg,
		width:   cfg.Width,
		height:  cfg.Height,
		logFile: logFile,
	}

	if err := ui.loadLogsFromFile(); err != nil {
		ui.logs = append(ui.logs, fmt.Sprintf("Ошибка загрузки логов: %v", err))
	}
	return ui
}

// Start запускает интерфейс и блокируется до выхода пользователя
func (ui *TermUI) Start() error {
	ui.program = tea.NewProgram(bubbleModel{ui: ui}, tea.WithAltScreen())
	if _, err := ui.program.Run(); err != nil {
		return fmt.Errorf("ошибка запуска UI: %w", err)
	}
	return nil
}

// loadLogsFromFile читает последние записи JSON-лога
func (ui *TermUI) loadLogsFromFile() error {
	if ui.logFile == "" {
		return nil
	}

	file, err := os.Open(ui.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var logs []string
	for scanner.Scan() {
		logs = append(logs, formatLogLine(scanner.Text()))
		if len(logs) > maxLogLines {
			logs = logs[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(logs) > 0 {
		ui.logsMutex.Lock()
		ui.logs = logs
		ui.logsMutex.Unlock()
	}
	return nil
}

// formatLogLine приводит строку JSON-лога к виду "[время] [уровень] сообщение (поля)"
func formatLogLine(line string) string {
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return line
	}

	level, _ := entry["level"].(string)
	ts, _ := entry["ts"].(string)
	msg, _ := entry["msg"].(string)
	level = strings.ToUpper(ansiRegex.ReplaceAllString(level, ""))

	timestamp := ""
	if t, err := time.Parse(logTimestamp, ts); err == nil {
		timestamp = t.Format("15:04:05")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", timestamp, level, msg)
	for k, v := range entry {
		if k != "level" && k != "ts" && k != "msg" && k != "caller" {
			fmt.Fprintf(&b, " (%s: %v)", k, v)
		}
	}
	return b.String()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Методы для bubbletea
func (m bubbleModel) Init() tea.Cmd {
	return tick()
}

func (m bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.ui.selectedIndex = max(0, m.ui.selectedIndex-1)
		case "down", "j":
			m.ui.selectedIndex = max(0, min(len(m.ui.records)-1, m.ui.selectedIndex+1))
		case "r":
			if err := m.ui.loadLogsFromFile(); err != nil {
				logger.Warn("Ошибка загрузки логов", zap.Error(err))
			}
		}

	case tea.WindowSizeMsg:
		m.ui.width = msg.Width
		m.ui.height = msg.Height

	case tickMsg:
		if err := m.ui.loadLogsFromFile(); err != nil {
			logger.Warn("Ошибка загрузки логов", zap.Error(err))
		}
		return m, tick()
	}

	return m, nil
}

func (m bubbleModel) View() string {
	m.ui.logsMutex.RLock()
	defer m.ui.logsMutex.RUnlock()

	title := titleStyle.Render("EKGRATE - оценка ЧСС по записи ЭКГ")
	records := renderRecordsSection(m.ui.records, m.ui.selectedIndex)
	detail := renderDetailSection(m.ui.selected(), m.traceWidth(), m.ui.config.Height)
	logs := renderLogsSection(m.ui.logs)
	footer := footerStyle.Render("Клавиши: ↑/↓ - навигация, R - перезагрузить логи, Q - выход")

	return appStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			records,
			"\n",
			detail,
			"\n",
			logs,
			"\n",
			footer,
		),
	)
}

func (ui *TermUI) selected() *models.Record {
	if ui.selectedIndex < 0 || ui.selectedIndex >= len(ui.records) {
		return nil
	}
	return ui.records[ui.selectedIndex]
}

// traceWidth ширина графика с учетом рамок и отступов
func (m bubbleModel) traceWidth() int {
	w := m.ui.config.Width
	if m.ui.width > 0 && m.ui.width-12 < w {
		w = m.ui.width - 12
	}
	return max(10, w)
}

func renderRecordsSection(records []*models.Record, selectedIndex int) string {
	header := headerStyle.Render("ЗАПИСИ")
	content := strings.Builder{}

	if len(records) == 0 {
		content.WriteString("  Нет записей\n")
	}
	for i, r := range records {
		line := "  " + formatRecordLine(r)
		if i == selectedIndex {
			line = "> " + line[2:]
			line = lipgloss.NewStyle().Background(lipgloss.Color("#222222")).Render(line)
		}
		content.WriteString(line + "\n")
	}

	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			content.String(),
		),
	)
}

func formatRecordLine(r *models.Record) string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s", r.Source, lipgloss.NewStyle().Foreground(errorColor).Render("ошибка: "+r.Err.Error()))
	}

	bpm := fmt.Sprintf("%.1f уд/мин", r.Result.BPM)
	style := lipgloss.NewStyle().Foreground(successColor)
	if r.Result.BPM == 0 {
		style = lipgloss.NewStyle().Foreground(warningColor)
	}

	line := fmt.Sprintf("%s: %s, пиков: %d, %.1f с", r.Source, style.Render(bpm), len(r.Result.Peaks), float64(r.Samples)/r.Rate)
	if r.Spectrum != nil {
		line += fmt.Sprintf(", спектр: %.1f уд/мин", r.Spectrum.SpectralBPM)
	}
	return line
}

func renderDetailSection(r *models.Record, width, height int) string {
	header := headerStyle.Render("СИГНАЛ")
	content := strings.Builder{}

	switch {
	case r == nil:
		content.WriteString("  Запись не выбрана\n")
	case r.Err != nil:
		content.WriteString("  " + r.Err.Error() + "\n")
	case r.Processed.Len() == 0:
		content.WriteString("  Сигнал вырожден, пики не найдены\n")
	default:
		if r.RR != nil {
			fmt.Fprintf(&content, "  RR: ср %.3f с, мин %.3f с, макс %.3f с, SDNN %.1f мс, RMSSD %.1f мс\n",
				r.RR.MeanRR, r.RR.MinRR, r.RR.MaxRR, r.RR.SDNN*1000, r.RR.RMSSD*1000)
		}
		trace := renderWaveform(r.Processed.Samples, models.PeakIndices(r.Result.Peaks), width, height)
		content.WriteString(lipgloss.NewStyle().Foreground(traceColor).Render(trace))
		content.WriteString("\n")
	}

	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			content.String(),
		),
	)
}

// renderWaveform рисует сигнал в сетке width x height и строку отметок пиков под ней.
// Каждый столбец показывает отсчет с наибольшим модулем в своем интервале,
// чтобы узкие R-зубцы не терялись при прореживании.
func renderWaveform(samples []float64, peaks []int, width, height int) string {
	if len(samples) == 0 || width < 1 || height < 1 {
		return ""
	}
	if width > len(samples) {
		width = len(samples)
	}

	column := func(i int) (int, int) {
		return i * len(samples) / width, (i + 1) * len(samples) / width
	}

	values := make([]float64, width)
	lo, hi := math.Inf(1), math.Inf(-1)
	for c := range values {
		from, to := column(c)
		v := samples[from]
		for _, s := range samples[from:to] {
			if math.Abs(s) > math.Abs(v) {
				v = s
			}
		}
		values[c] = v
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	grid := make([][]rune, height+1)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	for c, v := range values {
		row := 0
		if hi > lo {
			row = int(math.Round((v - lo) / (hi - lo) * float64(height-1)))
		}
		grid[height-1-row][c] = tracePoint
	}

	for _, p := range peaks {
		if p < 0 || p >= len(samples) {
			continue
		}
		grid[height][p*width/len(samples)] = peakMarker
	}

	lines := make([]string, len(grid))
	for r := range grid {
		lines[r] = strings.TrimRight(string(grid[r]), " ")
	}
	return strings.Join(lines, "\n")
}

func renderLogsSection(logs []string) string {
	header := headerStyle.Render("ЛОГИ")
	content := strings.Builder{}

	start := 0
	if len(logs) > shownLogs {
		start = len(logs) - shownLogs
	}

	for _, log := range logs[start:] {
		switch {
		case strings.Contains(log, "[ERROR]"):
			log = lipgloss.NewStyle().Foreground(errorColor).Render(log)
		case strings.Contains(log, "[INFO]"):
			log = lipgloss.NewStyle().Foreground(successColor).Render(log)
		case strings.Contains(log, "[WARN]"):
			log = lipgloss.NewStyle().Foreground(warningColor).Render(log)
		case strings.Contains(log, "[DEBUG]"):
			log = lipgloss.NewStyle().Foreground(lipgloss.Color("#9999ff")).Render(log)
		}
		content.WriteString("  " + log + "\n")
	}

	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			content.String(),
		),
	)
}
