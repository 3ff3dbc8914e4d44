package model

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"TuniCast/internal/domain/models"
	"TuniCast/internal/services/sequence"
)

func testArtifact(t *testing.T) *Artifact {
	t.Helper()
	dim := len(models.FeatureColumns)
	rng := rand.New(rand.NewSource(9))
	cfg := Config{InputSize: dim, HiddenSize: 4, NumLayers: 2, Dropout: 0.3, HeadHidden: 5, Outputs: 2}
	net := NewNetwork(cfg, rng)
	ds := &sequence.Dataset{
		SeqLen:   60,
		Horizons: []int{1, 5},
		Columns:  models.FeatureColumns,
		Scaler:   &sequence.RobustScaler{Center: make([]float64, dim), Scale: onesVec(dim)},
	}
	return NewArtifact(net, ds)
}

func TestArtifactRoundTrip(t *testing.T) {
	a := testArtifact(t)
	path := filepath.Join(t.TempDir(), "forecaster.json")
	require.NoError(t, a.Save(path))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, a.SeqLen, loaded.SeqLen)
	require.Equal(t, a.Horizons, loaded.Horizons)
	require.Equal(t, a.Scaler.Center, loaded.Scaler.Center)

	rng := rand.New(rand.NewSource(11))
	xs := randomSequence(rng, 60, len(models.FeatureColumns))
	want := a.Network.Predict(xs)
	got := loaded.Network.Predict(xs)
	require.InDelta(t, want[0], got[0], 1e-12)
	require.InDelta(t, want[1], got[1], 1e-12)
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	require.Equal(t, models.ErrCodeArtifactsMissing, models.CodeOf(err))
}

func TestLoadArtifactFeatureMismatch(t *testing.T) {
	a := testArtifact(t)
	a.Features = []string{"log_return", "rsi"} // stale column set
	path := filepath.Join(t.TempDir(), "forecaster.json")
	require.NoError(t, a.Save(path))

	_, err := LoadArtifact(path)
	require.Error(t, err)
	require.Equal(t, models.ErrCodeArtifactsMissing, models.CodeOf(err))
}

func TestLoadArtifactVersionMismatch(t *testing.T) {
	a := testArtifact(t)
	a.Version = 99
	path := filepath.Join(t.TempDir(), "forecaster.json")
	require.NoError(t, a.Save(path))

	_, err := LoadArtifact(path)
	require.Error(t, err)
	require.Equal(t, models.ErrCodeArtifactsMissing, models.CodeOf(err))
}
