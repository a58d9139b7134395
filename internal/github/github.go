package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-githubactions"
	"github.com/speakeasy-api/pkgmerge/internal/env"
)

// FileSummary is the outcome of merging one manifest.
type FileSummary struct {
	Path       string
	Status     string
	Collisions int
	Error      error
}

// CollisionSummary is one value both sides changed.
type CollisionSummary struct {
	File, Path         string
	Base, Ours, Theirs string
}

type MergeSummary struct {
	From, To   string
	Files      []FileSummary
	Collisions []CollisionSummary
}

// GenerateMergeSummary appends a markdown report to the job summary when
// running inside GitHub Actions.
func GenerateMergeSummary(ctx context.Context, summary MergeSummary) {
	defer func() {
		if r := recover(); r != nil {
			if env.IsGithubDebugMode() {
				fmt.Printf("::debug::%v\n", r)
			}
		}
	}()

	if !env.IsGithubAction() {
		return
	}

	githubactions.AddStepSummary(RenderMergeSummary(summary))
}

func RenderMergeSummary(summary MergeSummary) string {
	md := "# Manifest Merge Summary"
	if summary.From != "" || summary.To != "" {
		md += fmt.Sprintf("\n\nChanges from `%s` to `%s`", summary.From, summary.To)
	}

	files := [][]string{{"File", "Status", "Collisions", "Error"}}
	for _, f := range summary.Files {
		errMsg := ""
		if f.Error != nil {
			errMsg = f.Error.Error()
		}
		files = append(files, []string{f.Path, f.Status, fmt.Sprint(f.Collisions), errMsg})
	}
	md += "\n\n" + CreateMarkdownTable(files)

	if len(summary.Collisions) > 0 {
		rows := [][]string{{"File", "Path", "Base", "Ours", "Theirs"}}
		for _, c := range summary.Collisions {
			rows = append(rows, []string{c.File, c.Path, c.Base, c.Ours, c.Theirs})
		}
		md += "\n\n## Collisions resolved in favour of theirs\n\n" + CreateMarkdownTable(rows)
	}

	return md
}

// CreateMarkdownTable renders contents as a markdown table. The first row is
// the header; short rows are padded with empty cells.
func CreateMarkdownTable(contents [][]string) string {
	columns := 0
	for _, row := range contents {
		columns = max(columns, len(row))
	}

	widths := make([]int, columns)
	for i := range widths {
		widths[i] = 3
	}
	for _, row := range contents {
		for i, cell := range row {
			widths[i] = max(widths[i], len(escapeCell(cell)))
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := 0; i < columns; i++ {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			fmt.Fprintf(&sb, "| %-*s ", widths[i], cell)
		}
		sb.WriteString("|\n")
	}

	for i, row := range contents {
		writeRow(row)
		if i == 0 {
			separators := make([]string, columns)
			for j := range separators {
				separators[j] = strings.Repeat("-", widths[j])
			}
			writeRow(separators)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
