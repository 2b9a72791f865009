package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/justyntemme/curvego/pkg/render"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// summary renders one row per job: input, output, blocks, points in and out
// and the wall-clock render time.
func summary(jobs []*render.Job, outputs []string) string {
	header := []string{"INPUT", "OUTPUT", "BLOCKS", "IN", "OUT", "TIME"}
	rows := [][]string{header}
	var totalIn, totalOut int
	for i, job := range jobs {
		rows = append(rows, []string{
			job.Name,
			outputs[i],
			fmt.Sprint(job.Stats.Blocks),
			fmt.Sprint(job.Stats.InputPoints),
			fmt.Sprint(job.Stats.OutputPoints),
			job.Stats.Elapsed.Round(time.Microsecond).String(),
		})
		totalIn += job.Stats.InputPoints
		totalOut += job.Stats.OutputPoints
	}

	columns := make([]string, len(header))
	for c := range header {
		width := 0
		for _, row := range rows {
			width = max(width, lipgloss.Width(row[c]))
		}
		align := lipgloss.Left
		if c >= 2 {
			align = lipgloss.Right
		}
		cells := make([]string, len(rows))
		for r, row := range rows {
			style := cellStyle.Width(width + 2).Align(align)
			if r == 0 {
				style = style.Inherit(headerStyle)
			}
			cells[r] = style.Render(row[c])
		}
		columns[c] = lipgloss.JoinVertical(lipgloss.Left, cells...)
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%d inputs, %d points in, %d points out", len(jobs), totalIn, totalOut)))
	return sb.String()
}
