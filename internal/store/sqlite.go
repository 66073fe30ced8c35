package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webloom/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.DocumentStore and domain.UserStore on a
// single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id    INTEGER REFERENCES users(id),
		url         TEXT NOT NULL,
		title       TEXT,
		content     TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		stored_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id, stored_at);
	CREATE INDEX IF NOT EXISTS idx_documents_url ON documents(url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ownerClause renders the filter as a WHERE fragment. The returned clause
// starts with " AND" so it can be appended to an existing condition.
func ownerClause(owner domain.OwnerFilter) (string, []any) {
	if id, ok := owner.Owner(); ok {
		return " AND owner_id = ?", []any{id}
	}
	if owner.Unowned() {
		return " AND owner_id IS NULL", nil
	}
	if owner.All() {
		return "", nil
	}
	// Zero-value filter matches nothing rather than leaking all rows.
	return " AND 1 = 0", nil
}

func (s *SQLiteStore) Insert(ctx context.Context, doc domain.Document) (int64, error) {
	storedAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (owner_id, url, title, content, captured_at, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ownerArg(doc.OwnerID), doc.URL, doc.Title, doc.Content, doc.CapturedAt, storedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.logger.Debug("document stored", "id", id, "url", doc.URL, "size", len(doc.Content))
	return id, nil
}

func ownerArg(owner *int64) any {
	if owner == nil {
		return nil
	}
	return *owner
}

const documentColumns = `id, owner_id, url, title, content, captured_at, stored_at`

func (s *SQLiteStore) GetByID(ctx context.Context, id int64, owner domain.OwnerFilter) (*domain.Document, error) {
	clause, args := ownerClause(owner)
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?` + clause
	row := s.db.QueryRowContext(ctx, query, append([]any{id}, args...)...)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStore) SearchContent(ctx context.Context, query string, owner domain.OwnerFilter, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	clause, ownerArgs := ownerClause(owner)
	pattern := "%" + query + "%"

	// SQLite LIKE is case-insensitive for ASCII, matching the substring
	// semantics of the capture clients.
	args := append([]any{pattern, pattern}, ownerArgs...)
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE (content LIKE ? OR title LIKE ?)`+clause+`
		 ORDER BY stored_at DESC, id DESC
		 LIMIT ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *SQLiteStore) ListRecent(ctx context.Context, owner domain.OwnerFilter, limit, offset int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	clause, ownerArgs := ownerClause(owner)
	args := append(ownerArgs, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE 1 = 1`+clause+`
		 ORDER BY stored_at DESC, id DESC
		 LIMIT ? OFFSET ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *SQLiteStore) Count(ctx context.Context, owner domain.OwnerFilter) (int64, error) {
	clause, args := ownerClause(owner)
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE 1 = 1`+clause, args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64, owner domain.OwnerFilter) (bool, error) {
	clause, args := ownerClause(owner)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ?`+clause,
		append([]any{id}, args...)...,
	)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.logger.Info("document deleted", "id", id)
	}
	return n > 0, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var d domain.Document
	var ownerID sql.NullInt64
	var title sql.NullString
	if err := row.Scan(&d.ID, &ownerID, &d.URL, &title, &d.Content, &d.CapturedAt, &d.StoredAt); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		id := ownerID.Int64
		d.OwnerID = &id
	}
	d.Title = strings.TrimSpace(title.String)
	if d.Title == "" {
		d.Title = "Untitled"
	}
	return &d, nil
}

func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}
