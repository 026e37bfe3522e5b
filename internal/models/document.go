package models

import "time"

// StudentDocument is an uploaded credential awaiting registrar verification.
type StudentDocument struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	DocumentType string     `db:"document_type" json:"document_type"`
	FileName     string     `db:"file_name" json:"file_name"`
	FilePath     string     `db:"file_path" json:"file_path"`
	Verified     bool       `db:"is_verified" json:"is_verified"`
	VerifiedBy   *string    `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt   *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	UploadedAt   time.Time  `db:"uploaded_at" json:"uploaded_at"`
}
