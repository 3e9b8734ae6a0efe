package hierarchical

import "github.com/BaSui01/contextbench/types"

const (
	toolThink            = "think_tool"
	toolDeepResearch     = "deep_research"
	toolGeneralResearch  = "general_research"
	toolResearchComplete = "research_complete"
)

type thinkArgs struct {
	Reflection string `json:"reflection" validate:"required"`
}

type deepResearchArgs struct {
	Key          string `json:"key" validate:"required"`
	Instructions string `json:"instructions" validate:"required"`
}

type generalResearchArgs struct {
	Question string `json:"question" validate:"required"`
}

type researchCompleteArgs struct {
	Summary string `json:"summary"`
}

func supervisorTool(name, description string, params ...string) types.ToolSchema {
	s := types.NewObjectSchema().Closed()
	for i := 0; i+1 < len(params); i += 2 {
		s.AddProperty(params[i], types.NewStringSchema().WithDescription(params[i+1]))
		s.AddRequired(params[i])
	}
	return types.ToolSchema{Name: name, Description: description, Parameters: s.MustRaw()}
}

// supervisorTools returns the supervisor's tool surface.
func supervisorTools() []types.ToolSchema {
	return []types.ToolSchema{
		supervisorTool(toolThink, "Reflect on progress and plan the next delegation. Allowed once per delegation.",
			"reflection", "What is known, what is missing and what to delegate next"),
		supervisorTool(toolDeepResearch, "Delegate one deliverable to a researcher. The researcher stores its finding under key.",
			"key", "Declared deliverable key",
			"instructions", "What the researcher must find out"),
		supervisorTool(toolGeneralResearch, "Ask a researcher a background question. Nothing is stored.",
			"question", "The question to research"),
		supervisorTool(toolResearchComplete, "Finish the research once every deliverable is stored.",
			"summary", "Overall summary of the findings"),
	}
}
