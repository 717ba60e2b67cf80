package ml

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Artifact-store error kinds. Both are recovered locally by callers
// (fallback to rule-based analysis or a neutral score) and never
// surfaced to end users.
var (
	ErrArtifactUnavailable = errors.New("model artifact unavailable")
	ErrArtifactCorrupt     = errors.New("model artifact corrupt")
)

// modelArtifact is the persisted regressor for one exercise type.
// Exactly one of Forest/Boosting is set, selected by Kind. RunID is
// stamped by Save and shared with the paired scaler.
type modelArtifact struct {
	ExerciseType string    `json:"exercise_type"`
	RunID        string    `json:"run_id"`
	Kind         Kind      `json:"kind"`
	FeatureLen   int       `json:"feature_len"`
	Forest       *forest   `json:"forest,omitempty"`
	Boosting     *boosting `json:"boosting,omitempty"`
}

func (m *modelArtifact) regressor() (regressor, error) {
	switch m.Kind {
	case KindRandomForest:
		if m.Forest != nil {
			return m.Forest, nil
		}
	case KindGradientBoosting:
		if m.Boosting != nil {
			return m.Boosting, nil
		}
	}
	return nil, fmt.Errorf("%w: kind %q has no parameters", ErrArtifactCorrupt, m.Kind)
}

// scalerArtifact is the persisted feature scaler paired with a model.
type scalerArtifact struct {
	ExerciseType string  `json:"exercise_type"`
	RunID        string  `json:"run_id"`
	Scaler       *Scaler `json:"scaler"`
}

// ArtifactStore persists (model, scaler) pairs, two JSON files per
// exercise type. Writes for the same type are serialized and each file
// lands via temp-file-then-rename so readers see either the old pair
// or the new one. At most one artifact pair exists per exercise type;
// retraining overwrites it wholesale.
type ArtifactStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// cache holds loaded pairs keyed by exercise type. Entries are
	// whole pairs, stored or dropped atomically, so readers never see
	// a model paired with a stale scaler.
	cache sync.Map
}

// artifactPair is the cached unit: a model and the scaler it was
// trained with.
type artifactPair struct {
	model  *modelArtifact
	scaler *scalerArtifact
}

// NewArtifactStore returns a store rooted at dir, creating it if
// needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %q: %w", dir, err)
	}
	return &ArtifactStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *ArtifactStore) lockFor(exerciseType string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[exerciseType]
	if !ok {
		l = &sync.Mutex{}
		s.locks[exerciseType] = l
	}
	return l
}

func (s *ArtifactStore) modelPath(exerciseType string) string {
	return filepath.Join(s.dir, exerciseType+"_model.json")
}

func (s *ArtifactStore) scalerPath(exerciseType string) string {
	return filepath.Join(s.dir, exerciseType+"_scaler.json")
}

// Save replaces the artifact pair for one exercise type as a unit.
// Both files are stamped with a fresh run ID so a read that straddles
// the two renames, possibly from another process, is detectable.
func (s *ArtifactStore) Save(exerciseType string, model *modelArtifact, scaler *scalerArtifact) error {
	lock := s.lockFor(exerciseType)
	lock.Lock()
	defer lock.Unlock()

	runID := newRunID()
	model.RunID = runID
	scaler.RunID = runID

	// Scaler first: a reader that races the rename pair can see an old
	// model with a new scaler only between the two renames, and Load
	// rejects the mismatched run IDs before use.
	if err := writeJSONAtomic(s.scalerPath(exerciseType), scaler); err != nil {
		return fmt.Errorf("failed to persist scaler for %q: %w", exerciseType, err)
	}
	if err := writeJSONAtomic(s.modelPath(exerciseType), model); err != nil {
		return fmt.Errorf("failed to persist model for %q: %w", exerciseType, err)
	}
	s.cache.Store(exerciseType, artifactPair{model: model, scaler: scaler})
	return nil
}

// Load returns the artifact pair for an exercise type. Missing files
// yield ErrArtifactUnavailable; unreadable or mismatched pairs yield
// ErrArtifactCorrupt. A mismatched pair is re-read once, since it can
// be a read racing the two renames of a concurrent Save.
func (s *ArtifactStore) Load(exerciseType string) (*modelArtifact, *scalerArtifact, error) {
	if cached, ok := s.cache.Load(exerciseType); ok {
		pair := cached.(artifactPair)
		return pair.model, pair.scaler, nil
	}

	model, scaler, err := s.readPair(exerciseType)
	if errors.Is(err, ErrArtifactCorrupt) {
		model, scaler, err = s.readPair(exerciseType)
	}
	if err != nil {
		return nil, nil, err
	}
	s.cache.Store(exerciseType, artifactPair{model: model, scaler: scaler})
	return model, scaler, nil
}

func (s *ArtifactStore) readPair(exerciseType string) (*modelArtifact, *scalerArtifact, error) {
	var model modelArtifact
	if err := readJSON(s.modelPath(exerciseType), &model); err != nil {
		return nil, nil, err
	}
	var scaler scalerArtifact
	if err := readJSON(s.scalerPath(exerciseType), &scaler); err != nil {
		return nil, nil, err
	}
	if scaler.Scaler == nil || len(scaler.Scaler.Mean) != model.FeatureLen {
		return nil, nil, fmt.Errorf("%w: scaler does not match model for %q", ErrArtifactCorrupt, exerciseType)
	}
	if model.RunID != scaler.RunID {
		return nil, nil, fmt.Errorf("%w: scaler from run %q paired with model from run %q for %q",
			ErrArtifactCorrupt, scaler.RunID, model.RunID, exerciseType)
	}
	return &model, &scaler, nil
}

// newRunID returns a random token identifying one training run's
// artifact pair.
func newRunID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// Exists reports whether a trained model is persisted for the exercise
// type. This is the orchestrator's switch between the ML path and the
// rule-based path.
func (s *ArtifactStore) Exists(exerciseType string) bool {
	_, err := os.Stat(s.modelPath(exerciseType))
	return err == nil
}

func writeJSONAtomic(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactUnavailable, path)
		}
		return fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	return nil
}
