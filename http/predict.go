package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"mindsurvey/metrics"
	"mindsurvey/ml"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidAge   = ml.ErrInvalidAge
	ErrInvalidField = errors.New("categorical field must be a string")
)

// PredictionResult is the wire form of one prediction.
type PredictionResult struct {
	Prediction  string  `json:"prediction"`
	Probability float64 `json:"probability"`
}

// Predictor answers prediction requests against one loaded artifact. It is
// built once at startup and never modified, so handlers share it freely.
type Predictor struct {
	artifact *ml.Artifact
	logger   *zap.Logger
	metrics  *metrics.Registry
	cache    *lru.Cache[string, PredictionResult]
}

// NewPredictor wraps a loaded artifact. cacheSize <= 0 disables result caching;
// registry may be nil.
func NewPredictor(artifact *ml.Artifact, logger *zap.Logger, registry *metrics.Registry, cacheSize int) (*Predictor, error) {
	if artifact == nil {
		return nil, errors.New("artifact is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Predictor{artifact: artifact, logger: logger, metrics: registry}
	if cacheSize > 0 {
		cache, err := lru.New[string, PredictionResult](cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	if registry != nil {
		info := artifact.Info()
		registry.SetArtifact(info.Format, info.TrainedAt)
	}
	return p, nil
}

func (p *Predictor) Artifact() *ml.Artifact {
	return p.artifact
}

// Predict parses one JSON record and scores it.
func (p *Predictor) Predict(ctx context.Context, body []byte) (PredictionResult, error) {
	logger := p.logger.With(zap.String("request_id", GetRequestID(ctx)))
	logger.Debug("Received prediction request", zap.ByteString("raw_input", body))

	record, err := parseRecord(body)
	if err != nil {
		return PredictionResult{}, err
	}

	for _, column := range ml.CategoricalColumns() {
		encoder, ok := p.artifact.Encoder(column)
		if !ok {
			continue
		}
		value, _ := record.Categorical(column)
		if resolved := encoder.Resolve(value); resolved != value {
			logger.Debug("Unseen category replaced",
				zap.String("column", column),
				zap.String("value", value),
				zap.String("replacement", resolved))
			if p.metrics != nil {
				p.metrics.UnseenCategory(column)
			}
			record.SetCategorical(column, resolved)
		}
	}

	vector, err := p.artifact.Encode(record)
	if err != nil {
		return PredictionResult{}, err
	}
	logger.Debug("Encoded features", zap.Float64s("vector", vector))

	key := vectorKey(vector)
	if p.cache != nil {
		if result, ok := p.cache.Get(key); ok {
			return result, nil
		}
	}

	model := p.artifact.Model()
	probability, err := model.PredictProba(vector)
	if err != nil {
		return PredictionResult{}, err
	}
	label, err := model.Predict(vector)
	if err != nil {
		return PredictionResult{}, err
	}
	logger.Debug("Raw prediction", zap.Int("label", label), zap.Float64("probability", probability))

	result := PredictionResult{
		Prediction:  ml.TreatmentLabel(label),
		Probability: math.Round(probability*100*100) / 100,
	}
	if p.cache != nil {
		p.cache.Add(key, result)
	}
	return result, nil
}

func parseRecord(body []byte) (ml.FeatureRecord, error) {
	var fields map[string]json.RawMessage
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		return ml.FeatureRecord{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return ml.FeatureRecord{}, errors.New("invalid JSON body: trailing data")
	}

	var record ml.FeatureRecord
	rawAge, ok := fields[ml.ColumnAge]
	if !ok {
		return record, fmt.Errorf("%w: %s", ErrMissingField, ml.ColumnAge)
	}
	age, err := parseAge(rawAge)
	if err != nil {
		return record, err
	}
	record.Age = age

	for _, column := range ml.CategoricalColumns() {
		raw, ok := fields[column]
		if !ok {
			return record, fmt.Errorf("%w: %s", ErrMissingField, column)
		}
		value, err := parseCategory(raw)
		if err != nil {
			return record, fmt.Errorf("%s: %w", column, err)
		}
		record.SetCategorical(column, value)
	}
	return record, nil
}

// parseAge accepts a JSON number or an integer string within the 32-bit
// range. Fractional numbers are truncated toward zero.
func parseAge(raw json.RawMessage) (int, error) {
	var value any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAge, err)
	}

	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return ml.AgeFromInt(n)
		}
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidAge, v)
		}
		return int(f), nil
	case string:
		return ml.ParseAge(v)
	default:
		return 0, fmt.Errorf("%w: got %s", ErrInvalidAge, string(raw))
	}
}

// parseCategory treats null as missing.
func parseCategory(raw json.RawMessage) (string, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return ml.Sentinel, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", ErrInvalidField
	}
	return value, nil
}

func vectorKey(vector []float64) string {
	buf := make([]byte, 0, len(vector)*4)
	for i, v := range vector {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return string(buf)
}

// observe records the outcome of one request on the metrics registry.
func (p *Predictor) observe(err error, started time.Time) {
	if p.metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	p.metrics.ObservePrediction(outcome, time.Since(started))
}
