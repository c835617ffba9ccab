package entity

// BatchResult reports one processed workflow file.
type BatchResult struct {
	Source  string `json:"source"`
	Output  string `json:"output,omitempty"`
	Title   string `json:"title,omitempty"`
	Error   string `json:"error,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}
