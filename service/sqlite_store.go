package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fesexport/backend/model"
)

// SQLiteStore keeps drafts in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	slog.Info("draft store initialized", "driver", "sqlite", "path", dbPath)
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS drafts (
			document_number TEXT PRIMARY KEY,
			document_type TEXT NOT NULL,
			user_principal TEXT NOT NULL,
			contact_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			export_data TEXT NOT NULL,
			user_reference TEXT,
			request_by_admin INTEGER NOT NULL DEFAULT 0,
			failed_submissions INTEGER NOT NULL DEFAULT 0,
			document_uri TEXT NOT NULL DEFAULT '',
			submitted_by TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_drafts_owner ON drafts(user_principal, contact_id);
		CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const draftColumns = `document_number, document_type, user_principal, contact_id, status, export_data,
	user_reference, request_by_admin, failed_submissions, document_uri, submitted_by, created_at, updated_at`

func scanDraft(row *sql.Row) (*model.Draft, error) {
	var d model.Draft
	var exportData string
	var userRef sql.NullString

	err := row.Scan(&d.DocumentNumber, &d.DocumentType, &d.UserPrincipal, &d.ContactID, &d.Status, &exportData,
		&userRef, &d.RequestByAdmin, &d.NumberOfFailedSubmissions, &d.DocumentURI, &d.SubmittedBy, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.UserReference = userRef.String
	if err := json.Unmarshal([]byte(exportData), &d.ExportData); err != nil {
		return nil, fmt.Errorf("decode export data of %s: %w", d.DocumentNumber, err)
	}
	return &d, nil
}

func (s *SQLiteStore) GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts
		WHERE document_number = ? AND user_principal = ? AND contact_id = ?`, documentNumber, userPrincipal, contactID)
	d, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", documentNumber, err)
	}
	return d, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, documentNumber string) (*model.Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE document_number = ?`, documentNumber)
	d, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentNumber, err)
	}
	return d, nil
}

func (s *SQLiteStore) InsertDraft(ctx context.Context, d *model.Draft) error {
	data, err := marshalExportData(d.ExportData)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO drafts (`+draftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DocumentNumber, d.DocumentType, d.UserPrincipal, d.ContactID, d.Status, data,
		nullString(d.UserReference), d.RequestByAdmin, d.NumberOfFailedSubmissions, d.DocumentURI, d.SubmittedBy,
		d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert %s: %w", d.DocumentNumber, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertDraftData(ctx context.Context, userPrincipal, documentNumber, contactID string, update model.DraftUpdate) error {
	data, err := marshalExportData(update.ExportData)
	if err != nil {
		return err
	}
	var userRef sql.NullString
	if update.UserReference != nil {
		userRef = sql.NullString{String: *update.UserReference, Valid: true}
	}
	now := s.now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (document_number, document_type, user_principal, contact_id, status, export_data,
			user_reference, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_number) DO UPDATE SET
			document_type = CASE WHEN excluded.document_type = '' THEN drafts.document_type ELSE excluded.document_type END,
			export_data = excluded.export_data,
			user_reference = COALESCE(excluded.user_reference, drafts.user_reference),
			updated_at = excluded.updated_at
		WHERE drafts.user_principal = excluded.user_principal AND drafts.contact_id = excluded.contact_id
	`, documentNumber, update.DocumentType, userPrincipal, contactID, model.StatusDraft, data, userRef, now, now)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", documentNumber, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentNumber)
	}
	return nil
}

func (s *SQLiteStore) CompleteDraft(ctx context.Context, documentNumber, documentURI, submittedBy string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE drafts SET status = ?, document_uri = ?, submitted_by = ?, updated_at = ?
		WHERE document_number = ?`, model.StatusComplete, documentURI, submittedBy, s.now().UTC(), documentNumber)
	return checkUpdated(res, err, documentNumber)
}

func (s *SQLiteStore) RecordFailedSubmission(ctx context.Context, documentNumber string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE drafts SET failed_submissions = failed_submissions + 1
		WHERE document_number = ?`, documentNumber)
	return checkUpdated(res, err, documentNumber)
}

func checkUpdated(res sql.Result, err error, documentNumber string) error {
	if err != nil {
		return fmt.Errorf("update %s: %w", documentNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", documentNumber, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, documentNumber)
	}
	return nil
}

func marshalExportData(f model.Fields) (string, error) {
	if f == nil {
		f = model.Fields{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode export data: %w", err)
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
