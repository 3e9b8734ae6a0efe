package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/answer"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/types"
)

// Consistency asks a judge, per deliverable, whether the report's prose
// section agrees with the value in its answers block. A judge failure
// scores that deliverable 0 and does not stop the others.
type Consistency struct {
	judge  Judge
	logger *zap.Logger
}

// NewConsistency creates a consistency evaluator around judge.
func NewConsistency(judge Judge, logger *zap.Logger) *Consistency {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consistency{
		judge:  judge,
		logger: logger.With(zap.String("component", "consistency")),
	}
}

func (c *Consistency) Key() string { return KeyConsistency }

func (c *Consistency) Evaluate(ctx context.Context, rec *tasks.Record, out *Outputs) Score {
	domains := rec.ReferenceOutputs.Deliverables
	if len(domains) == 0 {
		return Score{Key: KeyConsistency, Score: 1, Comment: "no deliverables"}
	}
	parsed := answer.Parse(out.FinalResponse)

	var total float64
	notes := make([]string, 0, len(domains))
	for _, domain := range sortedKeys(domains) {
		score, note := c.judgeDomain(ctx, domain, domains[domain], out.FinalResponse, parsed.Answers)
		total += score
		notes = append(notes, fmt.Sprintf("%s=%.2f (%s)", domain, score, note))
	}
	return Score{
		Key:     KeyConsistency,
		Score:   total / float64(len(domains)),
		Comment: strings.Join(notes, "; "),
	}
}

func (c *Consistency) judgeDomain(ctx context.Context, domain, answerKey, response string, answers map[string]any) (float64, string) {
	prose, ok := ExtractSection(response, domain)
	if !ok {
		return 0, "no section"
	}
	value, ok := answers[answerKey]
	if !ok {
		value, ok = answers[domain]
	}
	if !ok {
		return 0, "no answer " + answerKey
	}

	verdict, err := c.judge.Judge(ctx, ConsistencyRequest{Domain: domain, Prose: prose, Value: value})
	if err != nil {
		c.logger.Warn("consistency judge failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return 0, fmt.Sprintf("%s: %v", types.ErrJudge, err)
	}
	note := "consistent"
	if !verdict.IsConsistent {
		note = "inconsistent"
		if len(verdict.Inconsistencies) > 0 {
			note += ": " + strings.Join(verdict.Inconsistencies, ", ")
		}
	}
	return clamp01(verdict.ConsistencyScore), note
}

var (
	headingPattern = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t#]*$`)
	fencePattern   = regexp.MustCompile("(?s)```.*?```")
)

// ExtractSection returns the body under the markdown heading naming key, up
// to the next heading of the same or a higher level, without fenced code
// blocks. Headings match ignoring case, underscores and punctuation; a title
// equal to key wins over one that only contains it.
func ExtractSection(markdown, key string) (string, bool) {
	want := headingKey(key)
	if want == "" {
		return "", false
	}
	headings := headingPattern.FindAllStringSubmatchIndex(markdown, -1)
	match := -1
	for i, h := range headings {
		title := headingKey(markdown[h[4]:h[5]])
		if title == want {
			match = i
			break
		}
		if match < 0 && strings.Contains(title, want) {
			match = i
		}
	}
	if match < 0 {
		return "", false
	}

	h := headings[match]
	level := h[3] - h[2]
	end := len(markdown)
	for _, next := range headings[match+1:] {
		if next[3]-next[2] <= level {
			end = next[0]
			break
		}
	}
	body := fencePattern.ReplaceAllString(markdown[h[1]:end], "")
	return strings.TrimSpace(body), true
}

func headingKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
