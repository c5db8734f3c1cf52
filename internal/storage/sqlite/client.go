package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/storage/models"
	"github.com/legal-assistant/docclient/pkg/logger"
)

const defaultHistoryLimit = 50

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		qa_mode TEXT,
		capability TEXT NOT NULL,
		text_fingerprint TEXT NOT NULL,
		text_preview TEXT,
		question TEXT,
		status TEXT NOT NULL,
		result_json TEXT,
		error_message TEXT,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_session ON analysis_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_history_created ON analysis_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_history_fingerprint ON analysis_history(text_fingerprint);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertRecord(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_history (id, session_id, mode, qa_mode, capability, text_fingerprint,
			text_preview, question, status, result_json, error_message, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.SessionID,
		record.Mode,
		record.QAMode,
		record.Capability,
		record.TextFingerprint,
		record.TextPreview,
		record.Question,
		record.Status,
		record.ResultJSON,
		record.ErrorMessage,
		record.LatencyMS,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}

	logger.Debug("Analysis recorded",
		zap.String("record_id", record.ID),
		zap.String("session_id", record.SessionID),
		zap.String("capability", record.Capability),
		zap.String("status", record.Status),
	)
	return nil
}

// ListRecords returns a session's records, newest first. A non-positive
// limit uses the default.
func (c *Client) ListRecords(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, session_id, mode, qa_mode, capability, text_fingerprint, text_preview, question,
			status, result_json, error_message, latency_ms, created_at
		FROM analysis_history
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	records := []models.AnalysisRecord{}
	for rows.Next() {
		var r models.AnalysisRecord
		var createdAt int64

		err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&r.Mode,
			&r.QAMode,
			&r.Capability,
			&r.TextFingerprint,
			&r.TextPreview,
			&r.Question,
			&r.Status,
			&r.ResultJSON,
			&r.ErrorMessage,
			&r.LatencyMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis history: %w", err)
	}

	return records, nil
}
