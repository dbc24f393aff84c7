package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingLogRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "data", "training.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	older := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	newer := older.Add(time.Hour)

	_, err = store.SaveTrainingLog(ctx, TrainingLog{
		ModelName:    "logistic_regression",
		ArtifactPath: "final_model.json",
		DataPath:     "Survey.csv",
		DataPoints:   100,
		Iterations:   6,
		Accuracy:     0.7,
		TrainedAt:    older,
	})
	require.NoError(t, err)
	id, err := store.SaveTrainingLog(ctx, TrainingLog{
		ModelName:       "logistic_regression",
		ArtifactPath:    "final_model.json",
		DataPath:        "Survey.csv",
		DataPoints:      120,
		Accuracy:        0.75,
		Precision:       0.8,
		Recall:          0.6,
		HoldoutAccuracy: 0.71,
		TrainedAt:       newer,
	})
	require.NoError(t, err)

	logs, err := store.LoadTrainingLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, id, logs[0].ID)
	assert.Equal(t, 120, logs[0].DataPoints)
	assert.Equal(t, 0.71, logs[0].HoldoutAccuracy)
	assert.True(t, logs[0].TrainedAt.Equal(newer))
	assert.Equal(t, 6, logs[1].Iterations)

	limited, err := store.LoadTrainingLog(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveTrainingLogRequiresModelName(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "training.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveTrainingLog(context.Background(), TrainingLog{})
	assert.Error(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
