package cmd

import (
	"context"

	"github.com/speakeasy-api/pkgmerge/internal/log"
	"github.com/speakeasy-api/pkgmerge/pkg/manifest"
)

// collisionRow is one reported collision. File is empty for single merges.
type collisionRow struct {
	File   string `json:"file,omitempty"`
	Path   string `json:"path"`
	Base   any    `json:"base,omitempty"`
	Ours   any    `json:"ours,omitempty"`
	Theirs any    `json:"theirs,omitempty"`
}

func collisionRows(file string, collisions []manifest.Collision) []collisionRow {
	rows := make([]collisionRow, 0, len(collisions))
	for _, c := range collisions {
		rows = append(rows, collisionRow{
			File:   file,
			Path:   c.Path,
			Base:   c.Base,
			Ours:   c.Ours,
			Theirs: c.Theirs,
		})
	}
	return rows
}

var reportLabels = map[string]string{
	"File":   "file",
	"Path":   "path",
	"Base":   "base",
	"Ours":   "ours",
	"Theirs": "theirs",
}

func printReport(ctx context.Context, format string, rows []collisionRow) {
	switch format {
	case reportText:
		log.PrettyPrintArray(ctx, rows, reportLabels)
	case reportJSON:
		log.PrintArray(ctx, rows, true, nil)
	}
}
