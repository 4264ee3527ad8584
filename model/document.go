package model

import "time"

// DocumentType classifies what an uploaded file documents.
type DocumentType string

const (
	DocChatAttachment DocumentType = "chat_attachment"
	DocProperty       DocumentType = "property"
	DocContract       DocumentType = "contract"
	DocWorkEvidence   DocumentType = "work_evidence"
)

// Document is the metadata row for a file stored in the object store. A row
// is only created after the binary write succeeded.
type Document struct {
	ID             string       `gorm:"primaryKey"`
	InterventionID string       `gorm:"index" json:"intervention_id,omitempty"`
	UnitID         string       `gorm:"index" json:"unit_id,omitempty"`
	Type           DocumentType `gorm:"type:varchar(32)" json:"type"`
	Name           string       `gorm:"not null" json:"name"`
	StoragePath    string       `gorm:"not null" json:"storage_path"`
	Size           int64        `json:"size"`
	MimeType       string       `json:"mime_type"`
	UploadedBy     string       `gorm:"not null" json:"uploaded_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
