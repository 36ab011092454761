// Package archive persists uploaded source files so a reconciliation can be
// re-run or audited after its in-memory session is gone.
package archive

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Upload is one archived source file. Files uploaded together share a BatchID.
type Upload struct {
	ID        int64     `json:"id"`
	BatchID   string    `json:"batchId"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the sqlite-backed upload archive.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the archive database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("otwarcie archiwum: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS uploads (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id    TEXT NOT NULL,
			session_id  TEXT NOT NULL,
			user_id     TEXT NOT NULL DEFAULT '',
			file_name   TEXT NOT NULL,
			size        INTEGER NOT NULL,
			sha256      TEXT NOT NULL,
			data        BLOB NOT NULL,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_uploads_batch ON uploads(batch_id);
		CREATE INDEX IF NOT EXISTS idx_uploads_session ON uploads(session_id);
	`)
	if err != nil {
		return fmt.Errorf("inicjalizacja schematu archiwum: %w", err)
	}
	return nil
}

// SaveUpload archives one source file and returns its record.
func (s *Store) SaveUpload(batchID, sessionID, userID, fileName string, data []byte) (Upload, error) {
	sum := sha256.Sum256(data)
	up := Upload{
		BatchID:   batchID,
		SessionID: sessionID,
		UserID:    userID,
		FileName:  fileName,
		Size:      int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
		CreatedAt: time.Now().UTC(),
	}

	res, err := s.db.Exec(`
		INSERT INTO uploads (batch_id, session_id, user_id, file_name, size, sha256, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		up.BatchID, up.SessionID, up.UserID, up.FileName, up.Size, up.SHA256, data, up.CreatedAt,
	)
	if err != nil {
		return Upload{}, fmt.Errorf("zapis pliku %s: %w", fileName, err)
	}
	up.ID, err = res.LastInsertId()
	if err != nil {
		return Upload{}, err
	}
	return up, nil
}

// ListUploads returns the archived files of one batch, oldest first, without
// their payloads.
func (s *Store) ListUploads(batchID string) ([]Upload, error) {
	rows, err := s.db.Query(`
		SELECT id, batch_id, session_id, user_id, file_name, size, sha256, created_at
		FROM uploads WHERE batch_id = ? ORDER BY id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("odczyt partii %s: %w", batchID, err)
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.BatchID, &u.SessionID, &u.UserID, &u.FileName, &u.Size, &u.SHA256, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ReadFile returns one archived payload by upload id.
func (s *Store) ReadFile(id int64) (string, []byte, error) {
	var name string
	var data []byte
	err := s.db.QueryRow(`SELECT file_name, data FROM uploads WHERE id = ?`, id).Scan(&name, &data)
	if err != nil {
		return "", nil, fmt.Errorf("odczyt pliku %d: %w", id, err)
	}
	return name, data, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
