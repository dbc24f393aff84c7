package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store records training runs in a SQLite database.
type Store struct {
	database *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	database.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50) NOT NULL,
        artifact_path TEXT NOT NULL,
        data_path TEXT NOT NULL,
        data_points INTEGER NOT NULL,
        iterations INTEGER DEFAULT 0,
        accuracy REAL,
        precision REAL,
        recall REAL,
        holdout_accuracy REAL,
        holdout_precision REAL,
        holdout_recall REAL,
        trained_at DATETIME NOT NULL
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	return s.database.Close()
}

type TrainingLog struct {
	ID               int64     `json:"id"`
	ModelName        string    `json:"model_name"`
	ArtifactPath     string    `json:"artifact_path"`
	DataPath         string    `json:"data_path"`
	DataPoints       int       `json:"data_points"`
	Iterations       int       `json:"iterations"`
	Accuracy         float64   `json:"accuracy"`
	Precision        float64   `json:"precision"`
	Recall           float64   `json:"recall"`
	HoldoutAccuracy  float64   `json:"holdout_accuracy"`
	HoldoutPrecision float64   `json:"holdout_precision"`
	HoldoutRecall    float64   `json:"holdout_recall"`
	TrainedAt        time.Time `json:"trained_at"`
}

// SaveTrainingLog appends one training run and returns its id.
func (s *Store) SaveTrainingLog(ctx context.Context, entry TrainingLog) (int64, error) {
	if entry.ModelName == "" {
		return 0, errors.New("model name required")
	}
	if entry.TrainedAt.IsZero() {
		entry.TrainedAt = time.Now().UTC()
	}
	res, err := s.database.ExecContext(ctx, `
        INSERT INTO training_log (
            model_name, artifact_path, data_path, data_points, iterations,
            accuracy, precision, recall,
            holdout_accuracy, holdout_precision, holdout_recall, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		entry.ModelName,
		entry.ArtifactPath,
		entry.DataPath,
		entry.DataPoints,
		entry.Iterations,
		entry.Accuracy,
		entry.Precision,
		entry.Recall,
		entry.HoldoutAccuracy,
		entry.HoldoutPrecision,
		entry.HoldoutRecall,
		entry.TrainedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LoadTrainingLog returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) LoadTrainingLog(ctx context.Context, limit int) ([]TrainingLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT id, model_name, artifact_path, data_path, data_points, iterations,
               accuracy, precision, recall,
               holdout_accuracy, holdout_precision, holdout_recall, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		var holdoutAccuracy, holdoutPrecision, holdoutRecall sql.NullFloat64
		if err := rows.Scan(
			&log.ID, &log.ModelName, &log.ArtifactPath, &log.DataPath, &log.DataPoints, &log.Iterations,
			&log.Accuracy, &log.Precision, &log.Recall,
			&holdoutAccuracy, &holdoutPrecision, &holdoutRecall, &log.TrainedAt,
		); err != nil {
			return nil, err
		}
		log.HoldoutAccuracy = holdoutAccuracy.Float64
		log.HoldoutPrecision = holdoutPrecision.Float64
		log.HoldoutRecall = holdoutRecall.Float64
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
