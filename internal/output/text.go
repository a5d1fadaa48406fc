// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"

	"github.com/tfctl/snapdiff/internal/config"
	"github.com/tfctl/snapdiff/internal/source"
)

// Palette holds the colors of the text format.
type Palette struct {
	Header  color.Color
	Added   color.Color
	Removed color.Color
	Hunk    color.Color
	Notice  color.Color
}

// DefaultPalette returns configured colors (colors.header, colors.added,
// colors.removed, colors.hunk, colors.notice). Each unset color is selected
// based on terminal background so output is reasonably visible for most
// terminal themes.
func DefaultPalette() Palette {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	resolveColor := func(key string, light string, dark string) color.Color {
		colorCfg, err := config.GetString(key)
		if err == nil {
			return lipgloss.Color(colorCfg)
		}

		if isDark {
			return lipgloss.Color(dark)
		}
		return lipgloss.Color(light)
	}

	return Palette{
		Header:  resolveColor("colors.header", "#333333", "#ffffff"),
		Added:   resolveColor("colors.added", "#22863a", "#85e89d"),
		Removed: resolveColor("colors.removed", "#b31d28", "#f97583"),
		Hunk:    resolveColor("colors.hunk", "#0088a0", "#00c8f0"),
		Notice:  resolveColor("colors.notice", "#b08800", "#f6be00"),
	}
}

type textReporter struct {
	w    io.Writer
	opts Options
}

func (r *textReporter) Difference(d Difference) error {
	if _, err := fmt.Fprintln(r.w, r.style(r.opts.Palette.Notice, true).Render(Notice(d.From, d.To))); err != nil {
		return err
	}
	if !r.opts.Color {
		_, err := io.WriteString(r.w, d.Report)
		return err
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(d.Report, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		b.WriteString(r.lineStyle(body).Render(body))
		if len(body) < len(line) {
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *textReporter) lineStyle(line string) lipgloss.Style {
	p := r.opts.Palette
	switch {
	case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
		return r.style(p.Header, true)
	case strings.HasPrefix(line, "@@"):
		return r.style(p.Hunk, false)
	case strings.HasPrefix(line, "+"):
		return r.style(p.Added, false)
	case strings.HasPrefix(line, "-"):
		return r.style(p.Removed, false)
	}
	return lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
}

func (r *textReporter) style(c color.Color, bold bool) lipgloss.Style {
	s := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if !r.opts.Color {
		return s
	}
	if c != nil {
		s = s.Foreground(c)
	}
	return s.Bold(bold)
}

// Versions renders a borderless table: timestamp, relative age, size and
// location, oldest first.
func (r *textReporter) Versions(target string, records []source.Record) error {
	if _, err := fmt.Fprintln(r.w, r.style(r.opts.Palette.Notice, true).Render(target)); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.w, "  no versions")
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			r.opts.stamp(rec.ModTime).Format(time.RFC3339),
			humanize.Time(rec.ModTime),
			humanize.Bytes(uint64(max(rec.Size, 0))),
			rec.Location,
		})
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col > 0 {
				return cellStyle.PaddingLeft(1)
			}
			return cellStyle
		}).
		Rows(rows...)

	_, err := fmt.Fprintln(r.w, t)
	return err
}
