// Package pipeline turns a survey CSV into a saved model artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mindsurvey/db"
	"mindsurvey/ml"
)

type TrainingConfig struct {
	DataPath     string
	ArtifactPath string
	ModelType    string
	Options      ml.LogisticOptions
	// TestRatio in (0,1) enables a seeded holdout evaluation. The saved model
	// is always fit on every row.
	TestRatio float64
	Seed      int64
}

// RunResult describes one completed training run.
type RunResult struct {
	ArtifactPath string
	Rows         int
	Iterations   int
	Metrics      ml.Metrics
	ClassCounts  map[string]int
	TrainedAt    time.Time
	LogID        int64
	Duration     time.Duration
}

// Trainer runs the training pipeline. Store is optional.
type Trainer struct {
	config TrainingConfig
	store  *db.Store
	logger *zap.Logger
}

func NewTrainer(config TrainingConfig, store *db.Store, logger *zap.Logger) *Trainer {
	if config.ModelType == "" {
		config.ModelType = ml.ModelTypeLogistic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{config: config, store: store, logger: logger}
}

// Run executes one pass: load, encode, fit, save. Nothing is written unless
// every step before the save succeeds.
func (t *Trainer) Run(ctx context.Context) (*RunResult, error) {
	if t.config.DataPath == "" {
		return nil, errors.New("data path is required")
	}
	if t.config.ArtifactPath == "" {
		return nil, errors.New("artifact path is required")
	}
	started := time.Now()
	logger := t.logger.With(zap.String("data_path", t.config.DataPath))

	data, err := ml.LoadTrainingData(t.config.DataPath)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	logger.Info("Loaded training data", zap.Int("rows", data.Len()))

	preprocessor := &ml.DataPreprocessor{}
	features, err := preprocessor.FitTransform(data)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	counts := preprocessor.ClassCounts()
	for _, column := range ml.CategoricalColumns() {
		logger.Debug("Fitted encoder", zap.String("column", column), zap.Int("classes", counts[column]))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var metrics ml.Metrics
	if t.config.TestRatio > 0 && t.config.TestRatio < 1 {
		t.evaluateHoldout(logger, features, data.Labels, &metrics)
	}

	model, err := ml.NewModel(t.config.ModelType, t.config.Options)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(features, data.Labels); err != nil {
		return nil, fmt.Errorf("fit %s: %w", t.config.ModelType, err)
	}

	metrics.Accuracy, metrics.Precision, metrics.Recall, err = ml.Evaluate(model, features, data.Labels)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	logger.Info("Model trained",
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("precision", metrics.Precision),
		zap.Float64("recall", metrics.Recall))

	artifact, err := ml.NewArtifact(model, preprocessor.Encoders(), data.Len(), metrics)
	if err != nil {
		return nil, err
	}
	if err := artifact.Save(t.config.ArtifactPath); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	logger.Info(fmt.Sprintf("Model and encoders saved to %s", t.config.ArtifactPath))

	result := &RunResult{
		ArtifactPath: t.config.ArtifactPath,
		Rows:         data.Len(),
		Metrics:      metrics,
		ClassCounts:  counts,
		TrainedAt:    artifact.Info().TrainedAt,
	}
	if lr, ok := model.(*ml.LogisticRegression); ok {
		result.Iterations = lr.Iterations
	}

	if t.store != nil {
		id, err := t.store.SaveTrainingLog(ctx, db.TrainingLog{
			ModelName:        t.config.ModelType,
			ArtifactPath:     t.config.ArtifactPath,
			DataPath:         t.config.DataPath,
			DataPoints:       result.Rows,
			Iterations:       result.Iterations,
			Accuracy:         metrics.Accuracy,
			Precision:        metrics.Precision,
			Recall:           metrics.Recall,
			HoldoutAccuracy:  metrics.HoldoutAccuracy,
			HoldoutPrecision: metrics.HoldoutPrecision,
			HoldoutRecall:    metrics.HoldoutRecall,
			TrainedAt:        result.TrainedAt,
		})
		if err != nil {
			// the artifact is already in place; a missing log row is not fatal
			logger.Warn("Failed to record training run", zap.Error(err))
		} else {
			result.LogID = id
		}
	}

	result.Duration = time.Since(started)
	logger.Info("Training completed",
		zap.String("artifact_path", t.config.ArtifactPath),
		zap.Int("rows", result.Rows),
		zap.Int("iterations", result.Iterations),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// evaluateHoldout fits a throwaway model on a seeded split. Failures only
// cost the holdout numbers.
func (t *Trainer) evaluateHoldout(logger *zap.Logger, features [][]float64, labels []int, metrics *ml.Metrics) {
	trainX, trainY, testX, testY := ml.SplitDataset(features, labels, t.config.TestRatio, t.config.Seed)
	if len(trainX) == 0 || len(testX) == 0 {
		logger.Warn("Holdout split is empty, skipping evaluation")
		return
	}
	model, err := ml.NewModel(t.config.ModelType, t.config.Options)
	if err != nil {
		logger.Warn("Holdout evaluation skipped", zap.Error(err))
		return
	}
	if err := model.Fit(trainX, trainY); err != nil {
		logger.Warn("Holdout evaluation skipped", zap.Error(err))
		return
	}
	accuracy, precision, recall, err := ml.Evaluate(model, testX, testY)
	if err != nil {
		logger.Warn("Holdout evaluation skipped", zap.Error(err))
		return
	}
	metrics.HoldoutRows = len(testX)
	metrics.HoldoutAccuracy = accuracy
	metrics.HoldoutPrecision = precision
	metrics.HoldoutRecall = recall
	logger.Info("Holdout evaluation",
		zap.Int("rows", len(testX)),
		zap.Float64("accuracy", accuracy),
		zap.Float64("precision", precision),
		zap.Float64("recall", recall))
}
