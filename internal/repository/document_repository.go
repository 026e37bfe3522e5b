package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// DocumentRepository persists student document metadata; file bytes live in
// the document archive on disk.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Insert stores a freshly uploaded document record.
func (r *DocumentRepository) Insert(ctx context.Context, doc *models.StudentDocument) error {
	const query = `INSERT INTO documents (id, student_id, document_type, file_name, file_path, is_verified, uploaded_at)
        VALUES (:id, :student_id, :document_type, :file_name, :file_path, :is_verified, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// FindByID loads one document record.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.StudentDocument, error) {
	const query = `SELECT id, student_id, document_type, file_name, file_path, is_verified, verified_by, verified_at, uploaded_at
        FROM documents WHERE id = $1`
	var doc models.StudentDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByStudent returns a student's documents, newest first.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentDocument, error) {
	const query = `SELECT id, student_id, document_type, file_name, file_path, is_verified, verified_by, verified_at, uploaded_at
        FROM documents WHERE student_id = $1 ORDER BY uploaded_at DESC`
	var docs []models.StudentDocument
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student documents: %w", err)
	}
	return docs, nil
}

// Verify marks the document verified. The update is conditional on the
// current unverified state; zero rows affected surfaces as sql.ErrNoRows so
// the service can tell a repeat verification from a missing record.
func (r *DocumentRepository) Verify(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) error {
	const query = `UPDATE documents SET is_verified = TRUE, verified_by = $2, verified_at = $3
        WHERE id = $1 AND is_verified = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, verifiedBy, verifiedAt)
	if err != nil {
		return fmt.Errorf("verify document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document verification: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
