package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"TuniCast/internal/domain/models"
	"TuniCast/internal/services/sequence"
)

// ArtifactVersion changes whenever the bundle layout or the architecture
// it encodes changes. Loaders reject other versions.
const ArtifactVersion = 1

// Artifact is the single self-contained bundle a trained forecaster ships
// as: weights, the scaler fitted alongside them, and the exact feature
// column order both expect. Keeping the three together makes a partial
// deployment impossible.
type Artifact struct {
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	SeqLen    int                    `json:"seq_len"`
	Horizons  []int                  `json:"horizons"`
	Features  []string               `json:"features"`
	Scaler    *sequence.RobustScaler `json:"scaler"`
	Network   *Network               `json:"network"`
}

// NewArtifact bundles a trained network with its dataset's scaler.
func NewArtifact(net *Network, ds *sequence.Dataset) *Artifact {
	return &Artifact{
		Version:   ArtifactVersion,
		CreatedAt: time.Now().UTC(),
		SeqLen:    ds.SeqLen,
		Horizons:  append([]int(nil), ds.Horizons...),
		Features:  append([]string(nil), ds.Columns...),
		Scaler:    ds.Scaler,
		Network:   net,
	}
}

// Save writes the bundle atomically: a temp file in the same directory,
// then a rename over the destination.
func (a *Artifact) Save(path string) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadArtifact reads and validates a bundle. A missing file, a version
// mismatch, or a feature list that differs from what the current pipeline
// produces all fail closed with ARTIFACTS_MISSING.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ArtifactsMissing(fmt.Sprintf("no artifact at %s", path))
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, models.ArtifactsMissing(fmt.Sprintf("corrupt artifact at %s: %v", path, err))
	}
	if a.Version != ArtifactVersion {
		return nil, models.ArtifactsMissing(fmt.Sprintf("artifact version %d, want %d", a.Version, ArtifactVersion))
	}
	if a.Scaler == nil || a.Network == nil {
		return nil, models.ArtifactsMissing("artifact is missing scaler or network")
	}
	if !sameColumns(a.Features, models.FeatureColumns) {
		return nil, models.ArtifactsMissing(fmt.Sprintf(
			"artifact features %v do not match pipeline columns %v", a.Features, models.FeatureColumns))
	}
	return &a, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
