// Package tui renders a live run monitor: per-block temperatures graphed as
// they stream out of the driver.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/avolkov/drudemd/internal/driver"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// ChannelReporter bridges the driver loop to the UI goroutine. Append blocks
// until the UI consumes the record or the run context is cancelled, so the
// simulation never outpaces the display by more than one block.
type ChannelReporter struct {
	ctx     context.Context
	records chan driver.Record
	done    chan error
}

func NewChannelReporter(ctx context.Context) *ChannelReporter {
	return &ChannelReporter{
		ctx:     ctx,
		records: make(chan driver.Record),
		done:    make(chan error, 1),
	}
}

func (r *ChannelReporter) Append(rec driver.Record) error {
	select {
	case r.records <- rec:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Finish signals the UI that the run ended, with its error if any.
func (r *ChannelReporter) Finish(err error) {
	r.done <- err
	close(r.records)
}

type recordMsg driver.Record

type doneMsg struct{ err error }

// Model is the bubbletea state of the monitor.
type Model struct {
	rep *ChannelReporter

	last     driver.Record
	tall     []float64
	tatoms   []float64
	tdrude   []float64
	hasDrude bool
	samples  int

	finished bool
	err      error
}

func NewModel(rep *ChannelReporter) Model {
	return Model{
		rep:    rep,
		tall:   make([]float64, 0, historyCapacity),
		tatoms: make([]float64, 0, historyCapacity),
		tdrude: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.wait()
}

func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-m.rep.records
		if !ok {
			return doneMsg{err: <-m.rep.done}
		}
		return recordMsg(rec)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case recordMsg:
		m.last = driver.Record(msg)
		m.samples++
		for _, ex := range m.last.Extras {
			switch ex.Label {
			case "Tall":
				m.tall = push(m.tall, ex.Value)
			case "Tatoms":
				m.tatoms = push(m.tatoms, ex.Value)
			case "Tdrude":
				m.tdrude = push(m.tdrude, ex.Value)
				m.hasDrude = true
			}
		}
		return m, m.wait()
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func push(hist []float64, v float64) []float64 {
	if len(hist) == historyCapacity {
		hist = hist[1:]
	}
	return append(hist, v)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("drudemd live run"))
	b.WriteString("\n")

	rows := []struct {
		label string
		value string
	}{
		{"step", fmt.Sprintf("%d", m.last.Step)},
		{"T all", fmt.Sprintf("%.2f K", m.last.Temperature)},
		{"E total", fmt.Sprintf("%.2f kJ/mol", m.last.Total)},
		{"density", fmt.Sprintf("%.4f g/mL", m.last.Density)},
		{"speed", fmt.Sprintf("%.1f ns/day", m.last.Speed)},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}

	if len(m.tall) > 1 {
		graph := asciigraph.Plot(m.tall,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("T all (K)"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}
	if m.hasDrude && len(m.tdrude) > 1 {
		graph := asciigraph.Plot(m.tdrude,
			asciigraph.Height(6),
			asciigraph.Width(70),
			asciigraph.Caption("T drude (K)"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.finished {
		if m.err != nil {
			b.WriteString(errStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
		} else {
			b.WriteString(valueStyle.Render(fmt.Sprintf("run finished after %d blocks", m.samples)))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("q: quit"))
	b.WriteString("\n")

	return b.String()
}
