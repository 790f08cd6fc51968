package components

import (
	"fmt"
	"strings"

	"github.com/kerbaras/mangashelf/pkg/app/styles"
	"github.com/kerbaras/mangashelf/pkg/services"
)

var reportKinds = []services.ResultKind{
	services.KindImported,
	services.KindSkipped,
	services.KindQuarantined,
	services.KindUnresolved,
	services.KindFailed,
}

// RenderReport draws the end-of-pass summary: a share-imported bar, one line
// per file that needs attention and the gaps found afterwards.
func RenderReport(report *services.RunReport, width int) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Ingest " + report.RunID))
	b.WriteString("\n")

	total := len(report.Items)
	imported := report.Count(services.KindImported)
	if total > 0 {
		b.WriteString(renderProgressBar(imported, total, width-4))
		b.WriteString("\n")
	}

	counts := make([]string, 0, len(reportKinds))
	for _, kind := range reportKinds {
		counts = append(counts, styles.StatusStyle(string(kind)).Render(
			fmt.Sprintf("%s %d", kind, report.Count(kind))))
	}
	b.WriteString(strings.Join(counts, "  "))
	b.WriteString("\n")

	for _, item := range report.Items {
		if item.Kind == services.KindImported || item.Kind == services.KindSkipped {
			continue
		}
		line := fmt.Sprintf("%-11s %s", item.Kind, item.File.ChapterFileName)
		if item.Err != nil {
			line += ": " + item.Err.Error()
		}
		b.WriteString(styles.StatusStyle(string(item.Kind)).Render(line))
		b.WriteString("\n")
	}

	if report.Halted {
		b.WriteString(styles.StatusError.Render("pass halted on an unresolved series"))
		b.WriteString("\n")
	} else if report.Err != nil {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", report.Err)))
		b.WriteString("\n")
	}

	if len(report.Gaps) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.SubtitleStyle.Render("Missing chapters"))
		b.WriteString("\n")
		for _, gap := range report.Gaps {
			b.WriteString(styles.TextStyle.Render(gap.String()))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressBarStyle.Render(bar)
}
