package models

import "time"

// Attachment is a file uploaded against a mentorship log.
type Attachment struct {
	ID              string    `db:"id" json:"id"`
	MentorshipLogID string    `db:"mentorship_log_id" json:"mentorship_log_id"`
	FileName        string    `db:"file_name" json:"file_name"`
	FilePath        string    `db:"file_path" json:"-"`
	FileSize        int64     `db:"file_size" json:"file_size"`
	FileType        *string   `db:"file_type" json:"file_type,omitempty"`
	UploadedBy      *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// SignedURLResponse returns a short-lived download link for an attachment.
type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
