package hierarchical

import (
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/types"
)

// SupervisorPrompt is the system prompt of a supervisor that must fill the
// declared deliverable keys.
func SupervisorPrompt(keys []string) string {
	var b strings.Builder
	b.WriteString("You lead a team of researchers. Delegate each deliverable with deep_research, ")
	b.WriteString("one deliverable per call. You may call think_tool once before each delegation to plan. ")
	b.WriteString("Use general_research for background questions that do not produce a deliverable. ")
	b.WriteString("When every deliverable is stored, call research_complete.\n\nDeliverables:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s\n", k)
	}
	return b.String()
}

func researcherMessages(key, instructions string) []types.Message {
	var system string
	if key == "" {
		system = "You are a research assistant. Answer the question using the research tools, " +
			"then reply with a short final answer. Do not store deliverables."
	} else {
		system = fmt.Sprintf("You are a researcher assigned deliverable %q. Use the research and calculation tools, "+
			"then call store_deliverable(key=%q, value=...) with the final figure and finally finish(summary=...). "+
			"Nothing can be changed after store_deliverable.", key, key)
	}
	return []types.Message{types.NewSystemMessage(system), types.NewUserMessage(instructions)}
}
