// Package storage is the Postgres-backed training-example store. Each
// example is saved with its feature vector in a pgvector column so
// similar past attempts can be retrieved by feature distance.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/collector"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/features"
)

// Config holds connection details for PostgreSQL.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (c Config) connString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.DBName,
	)
}

// SimilarAttempt is one nearest-neighbour result from the feature
// vector index.
type SimilarAttempt struct {
	ExampleID  string
	Score      float64
	Similarity float64
}

// ExampleStore manages training examples in PostgreSQL.
type ExampleStore struct {
	pool *pgxpool.Pool
}

// NewExampleStore connects to PostgreSQL and verifies the connection.
func NewExampleStore(ctx context.Context, config Config) (*ExampleStore, error) {
	pool, err := pgxpool.New(ctx, config.connString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &ExampleStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *ExampleStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveExample stores one labeled example together with its extracted
// feature vector.
func (s *ExampleStore) SaveExample(ctx context.Context, ex collector.Example, featureVec []float64) error {
	poseData, err := json.Marshal(ex.PoseData)
	if err != nil {
		return fmt.Errorf("failed to encode pose data: %w", err)
	}
	metadata, err := json.Marshal(ex.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO training_examples
        (example_id, exercise_type, pose_data, score, user_feedback, metadata, features, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ex.ID, ex.ExerciseType, poseData, ex.Score, ex.UserFeedback,
		metadata, pgvector.NewVector(toFloat32(featureVec)), time.Now())
	if err != nil {
		return fmt.Errorf("failed to store training example: %w", err)
	}
	return nil
}

// LoadExamples returns every stored example for an exercise type,
// oldest first.
func (s *ExampleStore) LoadExamples(ctx context.Context, exerciseType string) ([]collector.Example, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT example_id, exercise_type, pose_data, score, user_feedback, metadata, created_at
        FROM training_examples
        WHERE exercise_type = $1
        ORDER BY created_at`,
		exerciseType)
	if err != nil {
		return nil, fmt.Errorf("failed to load training examples: %w", err)
	}
	defer rows.Close()

	var examples []collector.Example
	for rows.Next() {
		var ex collector.Example
		var poseData, metadata []byte
		if err := rows.Scan(&ex.ID, &ex.ExerciseType, &poseData, &ex.Score,
			&ex.UserFeedback, &metadata, &ex.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		if err := json.Unmarshal(poseData, &ex.PoseData); err != nil {
			return nil, fmt.Errorf("failed to decode pose data: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ex.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

// SearchSimilarAttempts finds stored attempts whose feature vectors are
// closest to the query vector, within one exercise type.
func (s *ExampleStore) SearchSimilarAttempts(ctx context.Context, exerciseType string, featureVec []float64, limit int) ([]SimilarAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT example_id, score,
        1 - (features <=> $1) AS similarity
        FROM training_examples
        WHERE exercise_type = $2
        ORDER BY features <=> $1
        LIMIT $3`,
		pgvector.NewVector(toFloat32(featureVec)), exerciseType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar attempts: %w", err)
	}
	defer rows.Close()

	var results []SimilarAttempt
	for rows.Next() {
		var result SimilarAttempt
		if err := rows.Scan(&result.ExampleID, &result.Score, &result.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search results: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// InitSchema creates the database schema if it doesn't exist.
func InitSchema(ctx context.Context, config Config) error {
	conn, err := pgx.Connect(ctx, config.connString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for vector extension: %w", err)
	}
	if !exists {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS training_examples (
            id SERIAL PRIMARY KEY,
            example_id VARCHAR(255) NOT NULL,
            exercise_type VARCHAR(64) NOT NULL,
            pose_data JSONB NOT NULL,
            score DOUBLE PRECISION NOT NULL,
            user_feedback TEXT,
            metadata JSONB,
            features vector(%d),
            created_at TIMESTAMPTZ NOT NULL,
            UNIQUE(example_id)
        );
    `, features.VectorLen))
	if err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	_, err = conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS idx_examples_exercise_type ON training_examples(exercise_type);
        CREATE INDEX IF NOT EXISTS idx_examples_features ON training_examples USING ivfflat (features vector_l2_ops) WITH (lists = 100);
    `)
	if err != nil {
		return fmt.Errorf("failed to create database indexes: %w", err)
	}
	return nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
