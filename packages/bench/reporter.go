package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
)

// Reporter prints a bench Summary
type Reporter struct {
	writer  io.Writer
	noColor bool
}

func NewReporter(w io.Writer, noColor bool) *Reporter {
	if noColor {
		color.NoColor = true
	}
	return &Reporter{writer: w, noColor: noColor}
}

func (r *Reporter) PrintSummary(s *Summary) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(r.writer, "\n%s\n", bold("Bench summary"))
	fmt.Fprintf(r.writer, "  Calls:     %d in %s (%.1f/s)\n", s.Total, s.Duration.Round(time.Millisecond), s.RPS)
	fmt.Fprintf(r.writer, "  Completed: %s\n", green(fmt.Sprintf("%d", s.OK)))
	if s.Failed > 0 {
		fmt.Fprintf(r.writer, "  Failed:    %s\n", red(fmt.Sprintf("%d", s.Failed)))
	}

	fmt.Fprintf(r.writer, "\n%s\n", bold("Latency"))
	fmt.Fprintf(r.writer, "  min %s  p50 %s  p95 %s  p99 %s  max %s  mean %s\n",
		formatDuration(s.Min), formatDuration(s.P50), formatDuration(s.P95),
		formatDuration(s.P99), formatDuration(s.Max), formatDuration(s.Mean))

	fmt.Fprintf(r.writer, "\n%s\n", bold("Outcomes"))
	outcomes := make([]string, 0, len(s.ByOutcome))
	for k := range s.ByOutcome {
		outcomes = append(outcomes, k)
	}
	sort.Strings(outcomes)
	for _, k := range outcomes {
		line := fmt.Sprintf("  %-12s %d", k, s.ByOutcome[k])
		if msg, ok := s.Errors[k]; ok {
			line += "  (" + msg + ")"
		}
		fmt.Fprintln(r.writer, line)
	}

	statuses := make([]int, 0, len(s.ByStatus))
	for k := range s.ByStatus {
		statuses = append(statuses, k)
	}
	sort.Ints(statuses)
	for _, k := range statuses {
		fmt.Fprintf(r.writer, "  status %-5d %d\n", k, s.ByStatus[k])
	}

	if s.Consistent() {
		fmt.Fprintf(r.writer, "\n%s\n", green("All results equivalent"))
	} else {
		fmt.Fprintf(r.writer, "\n%s\n", yellow(fmt.Sprintf("%d result(s) differed from the first", s.Divergent)))
	}
}

// jsonSummary is the wire form of a Summary, durations in milliseconds
type jsonSummary struct {
	DurationMs float64            `json:"durationMs"`
	Total      int64              `json:"total"`
	OK         int64              `json:"ok"`
	Failed     int64              `json:"failed"`
	RPS        float64            `json:"rps"`
	ByStatus   map[string]int64   `json:"byStatus"`
	ByOutcome  map[string]int64   `json:"byOutcome"`
	Errors     map[string]string  `json:"errors,omitempty"`
	Divergent  int64              `json:"divergent"`
	Latency    map[string]float64 `json:"latencyMs"`
}

// PrintJSON writes the summary as JSON
func (r *Reporter) PrintJSON(s *Summary) error {
	byStatus := make(map[string]int64, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[fmt.Sprintf("%d", k)] = v
	}

	out := jsonSummary{
		DurationMs: ms(s.Duration),
		Total:      s.Total,
		OK:         s.OK,
		Failed:     s.Failed,
		RPS:        s.RPS,
		ByStatus:   byStatus,
		ByOutcome:  s.ByOutcome,
		Errors:     s.Errors,
		Divergent:  s.Divergent,
		Latency: map[string]float64{
			"min":  ms(s.Min),
			"p50":  ms(s.P50),
			"p95":  ms(s.P95),
			"p99":  ms(s.P99),
			"max":  ms(s.Max),
			"mean": ms(s.Mean),
		},
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
