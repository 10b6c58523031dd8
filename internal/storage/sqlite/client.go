package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		query_text TEXT NOT NULL,
		answer TEXT,
		result_count INTEGER,
		semantic_used INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_user ON search_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_history_created ON search_history(created_at);

	CREATE TABLE IF NOT EXISTS search_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		search_id TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		source TEXT NOT NULL,
		score REAL,
		FOREIGN KEY (search_id) REFERENCES search_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sources_search ON search_sources(search_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		search_id TEXT NOT NULL,
		helpful INTEGER NOT NULL,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (search_id) REFERENCES search_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_search ON feedback(search_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertSearchRecord(record *models.SearchRecord) error {
	query := `
		INSERT INTO search_history (id, user_id, query_text, answer, result_count, semantic_used, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	semanticUsed := 0
	if record.SemanticUsed {
		semanticUsed = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.UserID,
		record.QueryText,
		record.Answer,
		record.ResultCount,
		semanticUsed,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert search record: %w", err)
	}

	logger.Debug("Search recorded",
		zap.String("search_id", record.ID),
		zap.String("query", record.QueryText),
		zap.Int("results", record.ResultCount),
	)

	return nil
}

func (c *Client) InsertSearchSource(source *models.SearchSource) error {
	query := `INSERT INTO search_sources (search_id, doc_id, source, score) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		source.SearchID,
		source.DocID,
		source.Source,
		source.Score,
	)

	if err != nil {
		return fmt.Errorf("failed to insert search source: %w", err)
	}

	return nil
}

func (c *Client) GetHistory(userID string, limit int) ([]models.SearchRecord, error) {
	query := `
		SELECT id, query_text, answer, result_count, semantic_used, latency_ms, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get search history: %w", err)
	}
	defer rows.Close()

	var records []models.SearchRecord
	for rows.Next() {
		var r models.SearchRecord
		var semanticUsed int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.QueryText, &r.Answer, &r.ResultCount, &semanticUsed, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.UserID = userID
		r.SemanticUsed = semanticUsed == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}

func (c *Client) GetSearchSources(searchID string) ([]models.SearchSource, error) {
	query := `SELECT id, search_id, doc_id, source, score FROM search_sources WHERE search_id = ?`

	rows, err := c.db.Query(query, searchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get search sources: %w", err)
	}
	defer rows.Close()

	var sources []models.SearchSource
	for rows.Next() {
		var s models.SearchSource
		err := rows.Scan(&s.ID, &s.SearchID, &s.DocID, &s.Source, &s.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sources = append(sources, s)
	}

	return sources, nil
}

func (c *Client) StoreFeedback(feedback *models.Feedback) error {
	query := `INSERT INTO feedback (search_id, helpful, comment, created_at) VALUES (?, ?, ?, ?)`

	helpful := 0
	if feedback.Helpful {
		helpful = 1
	}

	_, err := c.db.Exec(
		query,
		feedback.SearchID,
		helpful,
		feedback.Comment,
		time.Now().Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	logger.Info("Feedback stored",
		zap.String("search_id", feedback.SearchID),
		zap.Bool("helpful", feedback.Helpful),
	)

	return nil
}
