package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
	apperrors "gosplit/internal/errors"
)

// handleGetReport renders the results as an HTML report from a markdown
// summary. `Accept: text/markdown` returns the raw markdown instead.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseTestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	exp, err := s.core.GetExperiment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := s.core.GetResults(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	md := renderMarkdown(exp, results)
	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(md))
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	out := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

// renderMarkdown builds the human-readable experiment report
func renderMarkdown(exp *experiment.Experiment, results *experiment.Results) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Experiment report: %s\n\n", exp.Name)
	fmt.Fprintf(&b, "Status: **%s**  \n", exp.Status)
	fmt.Fprintf(&b, "Primary metric: **%s**  \n", exp.Metrics.Primary)
	fmt.Fprintf(&b, "Participants: **%d**  \n", results.ParticipantCount)
	fmt.Fprintf(&b, "Duration: **%.1f days**\n\n", results.DurationDays)

	b.WriteString("## Variants\n\n")
	b.WriteString("| Variant | Metric | Exposures | Conversions | Rate | P-value | Improvement | Significant |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, vr := range results.Variants {
		name := vr.Name
		if vr.IsControl {
			name += " (control)"
		}
		for metric, mr := range vr.Metrics {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %.4f | %.4f | %+.2f%% | %t |\n",
				name, metric, mr.Exposures, mr.Conversions, mr.Value, mr.PValue,
				mr.ImprovementPct, mr.SignificantlyDifferent)
		}
	}
	b.WriteString("\n")

	if results.Winner != nil {
		fmt.Fprintf(&b, "## Winner\n\n%s with %+.2f%% improvement on %s (confidence %.1f%%)\n\n",
			results.Winner.VariantID, results.Winner.Improvement, results.Winner.Metric,
			results.Winner.Confidence)
	}

	if len(results.Recommendations) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, rec := range results.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Recommendation\n\n`%s`\n", results.Summary.Recommendation)
	return b.String()
}
