package entity

import "time"

// Documentation is a generated document together with the workflow it was
// generated from.
type Documentation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name"`
	Content   string    `json:"content"`  // sanitized model output, JSON sections or markdown
	Workflow  string    `json:"workflow"` // uploaded export as is
	Meta      Meta      `json:"meta"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is a workflow file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}
