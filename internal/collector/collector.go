// Package collector stores labeled training examples on disk, one
// JSONL file per exercise type. It is the zero-dependency counterpart
// to the Postgres-backed store in internal/storage.
package collector

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

// Example is one labeled repetition. Immutable once stored.
type Example struct {
	ID           string            `json:"id"`
	ExerciseType string            `json:"exercise_type"`
	PoseData     pose.Sequence     `json:"pose_data"`
	Score        float64           `json:"score"`
	UserFeedback string            `json:"user_feedback,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Stats summarizes the stored examples for one exercise type.
type Stats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
	StdScore float64 `json:"std_score"`
}

// Store appends and reads training examples under a data directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create training data directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(exerciseType string) string {
	return filepath.Join(s.dir, exerciseType+"_data.jsonl")
}

// Save appends one labeled example and returns its generated ID. IDs
// combine exercise type and a microsecond-resolution timestamp so
// rapid submissions stay unique.
func (s *Store) Save(exerciseType string, seq pose.Sequence, score float64, userFeedback string, metadata map[string]string) (string, error) {
	if score < 0 || score > 100 {
		return "", fmt.Errorf("score %.2f outside [0,100]", score)
	}

	now := time.Now()
	id := fmt.Sprintf("%s_%s_%06d", exerciseType, now.Format("20060102_150405"), now.Nanosecond()/1000)
	example := Example{
		ID:           id,
		ExerciseType: exerciseType,
		PoseData:     seq,
		Score:        score,
		UserFeedback: userFeedback,
		Metadata:     metadata,
		Timestamp:    now,
	}

	line, err := json.Marshal(example)
	if err != nil {
		return "", fmt.Errorf("failed to encode example: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.pathFor(exerciseType), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open training data file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("failed to append example: %w", err)
	}
	return id, nil
}

// Load returns all stored examples for an exercise type, oldest first.
// A missing file is an empty dataset, not an error.
func (s *Store) Load(exerciseType string) ([]Example, error) {
	f, err := os.Open(s.pathFor(exerciseType))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open training data file: %w", err)
	}
	defer f.Close()

	var examples []Example
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ex Example
		if err := json.Unmarshal(line, &ex); err != nil {
			return nil, fmt.Errorf("failed to decode example: %w", err)
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read training data file: %w", err)
	}
	return examples, nil
}

// Stats computes score statistics over the stored examples.
func (s *Store) Stats(exerciseType string) (Stats, error) {
	examples, err := s.Load(exerciseType)
	if err != nil {
		return Stats{}, err
	}
	if len(examples) == 0 {
		return Stats{}, nil
	}

	stats := Stats{
		Count:    len(examples),
		MinScore: examples[0].Score,
		MaxScore: examples[0].Score,
	}
	sum := 0.0
	for _, ex := range examples {
		sum += ex.Score
		if ex.Score < stats.MinScore {
			stats.MinScore = ex.Score
		}
		if ex.Score > stats.MaxScore {
			stats.MaxScore = ex.Score
		}
	}
	stats.AvgScore = sum / float64(len(examples))

	varSum := 0.0
	for _, ex := range examples {
		d := ex.Score - stats.AvgScore
		varSum += d * d
	}
	stats.StdScore = math.Sqrt(varSum / float64(len(examples)))
	return stats, nil
}
