package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantModel struct{ label int }

func (m constantModel) Fit([][]float64, []int) error { return nil }

func (m constantModel) Predict([]float64) (int, error) { return m.label, nil }

func (m constantModel) PredictProba([]float64) (float64, error) { return float64(m.label), nil }

func TestEvaluate(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{1, 1, 0, 0}

	accuracy, precision, recall, err := Evaluate(constantModel{label: 1}, features, labels)
	require.NoError(t, err)
	assert.Equal(t, 0.5, accuracy)
	assert.Equal(t, 0.5, precision)
	assert.Equal(t, 1.0, recall)

	accuracy, precision, recall, err = Evaluate(constantModel{label: 0}, features, labels)
	require.NoError(t, err)
	assert.Equal(t, 0.5, accuracy)
	assert.Equal(t, 0.0, precision)
	assert.Equal(t, 0.0, recall)
}

func TestSplitDatasetIsSeeded(t *testing.T) {
	features := make([][]float64, 10)
	labels := make([]int, 10)
	for i := range features {
		features[i] = []float64{float64(i)}
		labels[i] = i % 2
	}

	trainX, trainY, testX, testY := SplitDataset(features, labels, 0.3, 7)
	assert.Len(t, trainX, 7)
	assert.Len(t, trainY, 7)
	assert.Len(t, testX, 3)
	assert.Len(t, testY, 3)

	againX, _, againTestX, _ := SplitDataset(features, labels, 0.3, 7)
	assert.Equal(t, trainX, againX)
	assert.Equal(t, testX, againTestX)
}
