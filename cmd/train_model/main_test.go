package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindsurvey/ml"
)

const surveyCSV = `Age,Gender,family_history,benefits,care_options,anonymity,leave,work_interfere,treatment
25,Male,Yes,Yes,Not sure,Yes,Somewhat easy,Often,Yes
30,Female,Yes,Yes,No,Don't know,Don't know,Often,Yes
35,Male,Yes,Yes,Yes,No,Somewhat difficult,Often,Yes
40,Female,Yes,Yes,Not sure,Yes,Somewhat easy,Sometimes,Yes
25,Male,No,No,Not sure,Yes,Somewhat easy,Never,No
30,Female,No,No,No,Don't know,Don't know,Never,No
35,Male,No,No,Yes,No,Somewhat difficult,Never,No
40,Female,No,No,Not sure,Yes,Somewhat easy,Rarely,No
`

func TestTrainCommand(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "Survey.csv")
	artifactPath := filepath.Join(dir, "out", "final_model.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(surveyCSV), 0o600))
	t.Setenv("MINDSURVEY_DB_PATH", filepath.Join(dir, "training.db"))
	t.Setenv("MINDSURVEY_LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "absent.yaml"), "--data", dataPath, "--out", artifactPath, "--max-iter", "200"})
	require.NoError(t, cmd.Execute())

	artifact, err := ml.LoadArtifact(artifactPath)
	require.NoError(t, err)
	assert.Equal(t, 8, artifact.Info().Rows)

	var out bytes.Buffer
	history := newRootCmd()
	history.SetOut(&out)
	history.SetArgs([]string{"history", "--config", filepath.Join(dir, "absent.yaml")})
	require.NoError(t, history.Execute())
	assert.Contains(t, out.String(), "logistic_regression")
	assert.Contains(t, out.String(), artifactPath)
}

func TestTrainCommandFailsWithoutData(t *testing.T) {
	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "final_model.json")
	t.Setenv("MINDSURVEY_LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "absent.yaml"), "--data", filepath.Join(dir, "absent.csv"), "--out", artifactPath})
	assert.Error(t, cmd.Execute())
	assert.NoFileExists(t, artifactPath)
}

func TestHistoryRequiresDatabase(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"history", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, cmd.Execute())
}
