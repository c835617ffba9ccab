package entity

const (
	DefaultWorkflowName = "Untitled Workflow"
	DefaultTitle        = "n8n Workflow"
	UnknownNodeType     = "n8n-nodes-base.unknown"
)

// Workflow is a normalized workflow export with credentials removed.
// Doc holds every field of the export (normalized) and is what gets sent
// to the model; Nodes and Connections are views over the same data.
type Workflow struct {
	Name        string
	Nodes       []Node
	Connections map[string]any
	Doc         map[string]any
}

type Node struct {
	ID          string
	Name        string
	DisplayName string
	Type        string
}

// Meta describes credential usage found while parsing a workflow.
type Meta struct {
	Title           string              `json:"title"`
	CredentialNames []string            `json:"credential_names"`
	CredentialUsage map[string][]string `json:"credential_usage"`
	NodeCredentials map[string][]string `json:"node_credentials"`
}
