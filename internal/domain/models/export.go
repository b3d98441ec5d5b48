package models

import "time"

// ExportFormatVersion is written into every export document.
const ExportFormatVersion = "1.0"

// ExportDocument is the JSON export/import format. Folders and tags are
// deliberately not part of it.
type ExportDocument struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Prompts    []ExportedPrompt `json:"prompts"`
}

// ExportedPrompt is one prompt in an export document.
type ExportedPrompt struct {
	Title      string    `json:"title"`
	BodyMD     string    `json:"body_md"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
