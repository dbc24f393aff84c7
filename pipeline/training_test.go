package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindsurvey/db"
	"mindsurvey/ml"
)

const surveyCSV = `Timestamp,Age,Gender,Country,family_history,benefits,care_options,anonymity,leave,work_interfere,treatment
2014-08-27,25,Male,US,Yes,Yes,Not sure,Yes,Somewhat easy,Often,Yes
2014-08-27,30,Female,US,Yes,Yes,No,Don't know,Don't know,Often,Yes
2014-08-27,35,Male,UK,Yes,Yes,Yes,No,Somewhat difficult,Often,Yes
2014-08-27,40,Female,UK,Yes,Yes,Not sure,Yes,Somewhat easy,Often,Yes
2014-08-27,28,Male,US,Yes,Yes,No,Don't know,Don't know,NA,Yes
2014-08-27,33,Female,CA,Yes,Yes,Yes,No,Somewhat difficult,Often,Yes
2014-08-27,25,Male,US,No,No,Not sure,Yes,Somewhat easy,Never,No
2014-08-27,30,Female,US,No,No,No,Don't know,Don't know,Never,No
2014-08-27,35,Male,UK,No,No,Yes,No,Somewhat difficult,Never,No
2014-08-27,40,Female,UK,No,No,Not sure,Yes,Somewhat easy,Never,No
2014-08-27,28,Male,US,No,No,No,Don't know,Don't know,NA,No
2014-08-27,33,Female,CA,No,No,Yes,No,Somewhat difficult,Never,No
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTrainerRun(t *testing.T) {
	dataPath := writeCSV(t, surveyCSV)
	artifactPath := filepath.Join(t.TempDir(), "models", "final_model.json")

	result, err := NewTrainer(TrainingConfig{DataPath: dataPath, ArtifactPath: artifactPath}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, result.Rows)
	assert.Equal(t, artifactPath, result.ArtifactPath)
	assert.Positive(t, result.Iterations)
	assert.Equal(t, 1.0, result.Metrics.Accuracy)
	assert.Zero(t, result.Metrics.HoldoutRows)
	assert.Equal(t, 3, result.ClassCounts[ml.ColumnGender]) // Female, Male, sentinel

	artifact, err := ml.LoadArtifact(artifactPath)
	require.NoError(t, err)
	assert.Equal(t, 12, artifact.Info().Rows)
	encoder, ok := artifact.Encoder(ml.ColumnWorkInterfere)
	require.True(t, ok)
	assert.Equal(t, []string{"NaN", "Never", "Often"}, encoder.Classes())
}

func TestTrainerRunWithHoldoutAndStore(t *testing.T) {
	dataPath := writeCSV(t, surveyCSV)
	artifactPath := filepath.Join(t.TempDir(), "final_model.json")
	store, err := db.Open(filepath.Join(t.TempDir(), "training.db"))
	require.NoError(t, err)
	defer store.Close()

	config := TrainingConfig{DataPath: dataPath, ArtifactPath: artifactPath, TestRatio: 0.25, Seed: 42}
	result, err := NewTrainer(config, store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, result.LogID)

	logs, err := store.LoadTrainingLog(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ml.ModelTypeLogistic, logs[0].ModelName)
	assert.Equal(t, 12, logs[0].DataPoints)
	assert.Equal(t, dataPath, logs[0].DataPath)
	assert.Equal(t, result.Metrics.HoldoutAccuracy, logs[0].HoldoutAccuracy)
}

func TestTrainerRunIsDeterministic(t *testing.T) {
	dataPath := writeCSV(t, surveyCSV)
	dir := t.TempDir()

	first, err := NewTrainer(TrainingConfig{DataPath: dataPath, ArtifactPath: filepath.Join(dir, "a.json")}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := NewTrainer(TrainingConfig{DataPath: dataPath, ArtifactPath: filepath.Join(dir, "b.json")}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Metrics, second.Metrics)

	a, err := ml.LoadArtifact(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	b, err := ml.LoadArtifact(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, a.Model(), b.Model())
}

func TestTrainerFailuresLeaveArtifactUntouched(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "missing column",
			csv:  "Age,Gender,treatment\n25,Male,Yes\n30,Female,No\n",
		},
		{
			name: "malformed label",
			csv:  strings.Replace(surveyCSV, "Often,Yes\n", "Often,Maybe\n", 1),
		},
		{
			name: "single class",
			csv:  strings.ReplaceAll(surveyCSV, ",No\n", ",Yes\n"),
		},
		{
			name: "empty age",
			csv:  strings.Replace(surveyCSV, "2014-08-27,25,Male,US,Yes", "2014-08-27,,Male,US,Yes", 1),
		},
		{
			name: "header only",
			csv:  strings.SplitAfter(surveyCSV, "\n")[0],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataPath := writeCSV(t, tt.csv)
			artifactPath := filepath.Join(t.TempDir(), "final_model.json")
			require.NoError(t, os.WriteFile(artifactPath, []byte("previous"), 0o600))

			_, err := NewTrainer(TrainingConfig{DataPath: dataPath, ArtifactPath: artifactPath}, nil, nil).Run(context.Background())
			require.Error(t, err)

			content, err := os.ReadFile(artifactPath)
			require.NoError(t, err)
			assert.Equal(t, "previous", string(content))
		})
	}
}

func TestTrainerMissingAgeWritesNothing(t *testing.T) {
	dataPath := writeCSV(t, strings.Replace(surveyCSV, "2014-08-27,30,Female,US,Yes", "2014-08-27,,Female,US,Yes", 1))
	artifactPath := filepath.Join(t.TempDir(), "models", "final_model.json")

	_, err := NewTrainer(TrainingConfig{DataPath: dataPath, ArtifactPath: artifactPath}, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ml.ErrInvalidAge), err.Error())
	assert.Contains(t, err.Error(), "line 3")
	assert.NoFileExists(t, artifactPath)
	assert.NoDirExists(t, filepath.Dir(artifactPath))
}

func TestTrainerRequiresPaths(t *testing.T) {
	_, err := NewTrainer(TrainingConfig{ArtifactPath: "x.json"}, nil, nil).Run(context.Background())
	assert.Error(t, err)
	_, err = NewTrainer(TrainingConfig{DataPath: "x.csv"}, nil, nil).Run(context.Background())
	assert.Error(t, err)
	_, err = NewTrainer(TrainingConfig{DataPath: filepath.Join(t.TempDir(), "absent.csv"), ArtifactPath: "x.json"}, nil, nil).Run(context.Background())
	assert.Error(t, err)
}
