package main

import (
	"fmt"
	"io"
	"strconv"

	"legal-analyzer-api/internal/documents"
)

// Render prints an analysis for a terminal.
func Render(w io.Writer, res documents.AnalysisResponse, showText bool) {
	fmt.Fprintf(w, "File: %s\n\n", res.Filename)

	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, res.Summary)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Named Entities")
	if len(res.Entities) == 0 {
		fmt.Fprintln(w, "No Legal Entities Detected.")
	}
	for _, ent := range res.Entities {
		fmt.Fprintf(w, "- %s: %s (Score: %s)\n", ent.Entity, ent.Word, strconv.FormatFloat(ent.Score, 'f', -1, 64))
	}

	if showText {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Extracted Text (%d characters, %d words)\n", res.TextLength, res.WordCount)
		fmt.Fprintln(w, res.RawText)
	}
}
