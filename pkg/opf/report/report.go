package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/openpatterns/opf/pkg/opf/diag"
)

const (
	// TopMessages is how many diagnostic messages Write lists.
	TopMessages = 10

	// maxMessageWidth truncates long diagnostic messages in Write.
	maxMessageWidth = 50

	minFileColumn = 20
)

// FileResult is the outcome of parsing one file. Err is set for failures.
type FileResult struct {
	File        string
	Pieces      int
	Sizes       int
	Diagnostics []diag.Diagnostic
	Err         error
}

// OK reports whether the file produced a pattern.
func (r FileResult) OK() bool { return r.Err == nil }

// MessageCount is one diagnostic message with its number of occurrences.
type MessageCount struct {
	Message string
	Count   int
}

// Report aggregates file results. It is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	results []FileResult
}

// New creates an empty report.
func New() *Report {
	return &Report{}
}

// Add records the outcome of one file.
func (r *Report) Add(res FileResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns all results sorted by file name.
func (r *Report) Results() []FileResult {
	r.mu.Lock()
	out := append([]FileResult(nil), r.results...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Successes returns the results that produced a pattern, by file name.
func (r *Report) Successes() []FileResult {
	return filter(r.Results(), true)
}

// Failures returns the results that did not, by file name.
func (r *Report) Failures() []FileResult {
	return filter(r.Results(), false)
}

func filter(results []FileResult, ok bool) []FileResult {
	var out []FileResult
	for _, res := range results {
		if res.OK() == ok {
			out = append(out, res)
		}
	}
	return out
}

// TotalDiagnostics counts the diagnostics of successful files.
func (r *Report) TotalDiagnostics() int {
	n := 0
	for _, res := range r.Successes() {
		n += len(res.Diagnostics)
	}
	return n
}

// TopDiagnostics groups the diagnostics of successful files by message,
// most frequent first and alphabetical on ties. n <= 0 returns all groups.
func (r *Report) TopDiagnostics(n int) []MessageCount {
	counts := make(map[string]int)
	for _, res := range r.Successes() {
		for _, d := range res.Diagnostics {
			counts[d.Message]++
		}
	}

	out := make([]MessageCount, 0, len(counts))
	for msg, c := range counts {
		out = append(out, MessageCount{Message: msg, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Write prints the batch report as text.
func (r *Report) Write(w io.Writer) error {
	successes := r.Successes()
	failures := r.Failures()

	b := &strings.Builder{}
	rule := strings.Repeat("=", 70)
	sub := strings.Repeat("-", 40)

	fmt.Fprintf(b, "\n%s\n  OPEN PATTERN FORMAT - BATCH REPORT\n%s\n\n", rule, rule)

	fmt.Fprintf(b, "SUMMARY\n%s\n", sub)
	fmt.Fprintf(b, "  Total files:    %d\n", len(successes)+len(failures))
	fmt.Fprintf(b, "  Successful:     %d\n", len(successes))
	fmt.Fprintf(b, "  Failed:         %d\n\n", len(failures))

	if len(successes) > 0 {
		width := minFileColumn
		for _, res := range successes {
			if l := len(filepath.Base(res.File)); l > width {
				width = l
			}
		}
		fmt.Fprintf(b, "PARSED FILES\n%s\n", sub)
		fmt.Fprintf(b, "  %-*s  Pieces  Sizes  Diagnostics\n", width, "File")
		fmt.Fprintf(b, "  %s  ------  -----  -----------\n", strings.Repeat("-", width))
		for _, res := range successes {
			fmt.Fprintf(b, "  %-*s  %6d  %5d  %11d\n", width, filepath.Base(res.File), res.Pieces, res.Sizes, len(res.Diagnostics))
		}
		b.WriteString("\n")
	}

	if len(failures) > 0 {
		fmt.Fprintf(b, "FAILED FILES\n%s\n", sub)
		for _, res := range failures {
			fmt.Fprintf(b, "  %s\n", filepath.Base(res.File))
			// Fatal errors join several messages with newlines
			for _, line := range strings.Split(res.Err.Error(), "\n") {
				fmt.Fprintf(b, "    Error: %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	if total := r.TotalDiagnostics(); total > 0 {
		all := r.TopDiagnostics(0)
		fmt.Fprintf(b, "DIAGNOSTICS BY TYPE\n%s\n", sub)
		for i, mc := range all {
			if i == TopMessages {
				break
			}
			fmt.Fprintf(b, "  [%dx] %s\n", mc.Count, truncate(mc.Message, maxMessageWidth))
		}
		if len(all) > TopMessages {
			fmt.Fprintf(b, "  ... and %d more diagnostic types\n", len(all)-TopMessages)
		}
		fmt.Fprintf(b, "\n  Total diagnostics: %d\n\n", total)
	}

	fmt.Fprintf(b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// truncate shortens s to n runes, ending in "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
