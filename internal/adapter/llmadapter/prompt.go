package llmadapter

import (
	_ "embed"
	"strconv"
	"strings"
)

const (
	placeholderName      = "{WORKFLOW_NAME}"
	placeholderNodeCount = "{NODE_COUNT}"
	placeholderWorkflow  = "{workflowJson}"
)

var (
	//go:embed prompts/system.txt
	systemPrompt string

	//go:embed prompts/user.txt
	userPromptTemplate string
)

func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// UserPrompt fills the documentation request template. Placeholders are
// substituted in a single pass, so values containing placeholder text are
// left as they are.
func UserPrompt(workflowName string, nodeCount int, workflowJSON string) string {
	r := strings.NewReplacer(
		placeholderName, workflowName,
		placeholderNodeCount, strconv.Itoa(nodeCount),
		placeholderWorkflow, workflowJSON,
	)

	return strings.TrimSpace(r.Replace(userPromptTemplate))
}
