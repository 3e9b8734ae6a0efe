package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Report aggregates a batch.
type Report struct {
	Results []ExampleResult `json:"results"`
	// Means is the mean score per key over the examples that produced it.
	Means map[string]float64 `json:"means"`
	// Counts is how many examples produced each key.
	Counts map[string]int `json:"counts"`
	// Failed counts examples that errored before or during the run.
	Failed int `json:"failed"`
}

// NewReport aggregates results.
func NewReport(results []ExampleResult) *Report {
	r := &Report{
		Results: results,
		Means:   map[string]float64{},
		Counts:  map[string]int{},
	}
	sums := map[string]float64{}
	for _, res := range results {
		if res.Error != "" {
			r.Failed++
		}
		for _, s := range res.Scores {
			sums[s.Key] += s.Score
			r.Counts[s.Key]++
		}
	}
	for k, sum := range sums {
		r.Means[k] = sum / float64(r.Counts[k])
	}
	return r
}

// Keys returns the score keys in report order.
func (r *Report) Keys() []string {
	keys := make([]string, 0, len(r.Means))
	for k := range r.Means {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool { return keyRank(keys[i]) < keyRank(keys[j]) })
	return keys
}

var keyOrder = []string{
	KeyRecall, KeyCompleteness, KeyEfficiency, KeyResponseCriteria,
	KeyPoisoning, KeyGoalCancellation, KeyConsistency,
}

func keyRank(k string) int {
	for i, known := range keyOrder {
		if k == known {
			return i
		}
	}
	return len(keyOrder)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16858E"))
)

// Table renders one row per example plus a mean row.
func (r *Report) Table() string {
	keys := r.Keys()
	headers := append([]string{"task", "status", "turns"}, keys...)

	rows := make([][]string, 0, len(r.Results)+1)
	failed := map[int]bool{}
	for i, res := range r.Results {
		row := []string{taskLabel(res), string(res.Status), strconv.Itoa(res.Turns)}
		if res.Status == "" {
			row[1] = "error"
		}
		for _, k := range keys {
			if s, ok := res.Score(k); ok {
				row = append(row, fmt.Sprintf("%.2f", s.Score))
			} else {
				row = append(row, "-")
			}
		}
		if res.Error != "" {
			failed[i] = true
		}
		rows = append(rows, row)
	}
	mean := []string{"mean", fmt.Sprintf("%d/%d ok", len(r.Results)-r.Failed, len(r.Results)), ""}
	for _, k := range keys {
		mean = append(mean, fmt.Sprintf("%.3f", r.Means[k]))
	}
	rows = append(rows, mean)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case failed[row]:
				return failStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func taskLabel(res ExampleResult) string {
	if res.Metadata.Name == "" {
		return strconv.Itoa(res.Metadata.TaskID)
	}
	return fmt.Sprintf("%d %s", res.Metadata.TaskID, res.Metadata.Name)
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
