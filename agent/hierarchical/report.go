package hierarchical

import (
	"encoding/json"
	"fmt"
	"strings"
)

// report renders the final supervisor message: one "## <key>" section per
// stored deliverable followed by the fenced answers block.
func (s *Supervisor) report(summaries map[string]string) string {
	deliverables := s.env.State.Deliverables()
	answers := make(map[string]any, len(deliverables))

	var b strings.Builder
	b.WriteString("# Research report\n")
	for _, d := range deliverables {
		fmt.Fprintf(&b, "\n## %s\n\n%s: %v.", d.Key, humanize(d.Key), d.Value)
		if sum := strings.TrimSpace(summaries[d.Key]); sum != "" {
			b.WriteString(" ")
			b.WriteString(sum)
		}
		b.WriteString("\n")

		key := d.Key
		if mapped, ok := s.answerKeys[d.Key]; ok {
			key = mapped
		}
		answers[key] = d.Value
	}

	data, err := json.MarshalIndent(map[string]any{"answers": answers}, "", "  ")
	if err != nil {
		s.logger.Error("render answers block")
		data = []byte(`{"answers": {}}`)
	}
	b.WriteString("\n```json\n")
	b.Write(data)
	b.WriteString("\n```\n")
	return b.String()
}

func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	if len(words) == 0 {
		return key
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}
