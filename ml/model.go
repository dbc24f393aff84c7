package ml

// Classifier is a fitted binary model over encoded feature vectors.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	Predict(features []float64) (int, error)
	PredictProba(features []float64) (float64, error)
}

var _ Classifier = (*LogisticRegression)(nil)
