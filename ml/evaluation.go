package ml

import (
	"math"
	"math/rand"
)

// Metrics summarizes a classifier against labelled data. Holdout fields are
// zero when no holdout split was evaluated.
type Metrics struct {
	Accuracy         float64 `json:"accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	HoldoutRows      int     `json:"holdout_rows,omitempty"`
	HoldoutAccuracy  float64 `json:"holdout_accuracy,omitempty"`
	HoldoutPrecision float64 `json:"holdout_precision,omitempty"`
	HoldoutRecall    float64 `json:"holdout_recall,omitempty"`
}

// Evaluate scores model on features, treating 1 as the positive class.
func Evaluate(model Classifier, features [][]float64, labels []int) (accuracy, precision, recall float64, err error) {
	if len(features) == 0 {
		return 0, 0, 0, nil
	}

	var correct int
	var truePositive int
	var predictedPositive int
	var actualPositive int

	for i, feature := range features {
		label, err := model.Predict(feature)
		if err != nil {
			return 0, 0, 0, err
		}
		if label == labels[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if labels[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(len(features))
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall, nil
}

// SplitDataset shuffles rows with a fixed seed and holds out testRatio of them.
func SplitDataset(features [][]float64, labels []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(features))

	split := int(math.Round(float64(len(features)) * (1 - testRatio)))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}
