package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const ArtifactFormat = "mindsurvey/logreg-v1"

// ArtifactInfo is the descriptive part of a trained artifact.
type ArtifactInfo struct {
	Format    string    `json:"format"`
	ModelType string    `json:"model_type"`
	TrainedAt time.Time `json:"trained_at"`
	Rows      int       `json:"rows"`
	Features  []string  `json:"features"`
	Sentinel  string    `json:"sentinel"`
	Metrics   Metrics   `json:"metrics"`
}

// Artifact pairs a fitted classifier with the encoders it was trained
// against. It is written once per training run and only read afterwards.
type Artifact struct {
	info     ArtifactInfo
	model    Classifier
	encoders EncoderBank
}

type artifactFile struct {
	ArtifactInfo
	Model    json.RawMessage `json:"model"`
	Encoders EncoderBank     `json:"encoders"`
}

func NewArtifact(model Classifier, encoders EncoderBank, rows int, metrics Metrics) (*Artifact, error) {
	if model == nil {
		return nil, ErrNotTrained
	}
	modelType, err := modelTypeOf(model)
	if err != nil {
		return nil, err
	}
	if err := encoders.Validate(); err != nil {
		return nil, err
	}
	return &Artifact{
		info: ArtifactInfo{
			Format:    ArtifactFormat,
			ModelType: modelType,
			TrainedAt: time.Now().UTC(),
			Rows:      rows,
			Features:  FeatureNames(),
			Sentinel:  Sentinel,
			Metrics:   metrics,
		},
		model:    model,
		encoders: encoders,
	}, nil
}

func (a *Artifact) Info() ArtifactInfo {
	info := a.info
	info.Features = slices.Clone(a.info.Features)
	return info
}

func (a *Artifact) Model() Classifier {
	return a.model
}

func (a *Artifact) Encoder(column string) (*LabelEncoder, bool) {
	encoder, ok := a.encoders[column]
	return encoder, ok && encoder != nil
}

// Encode converts a record with the artifact's encoders.
func (a *Artifact) Encode(record FeatureRecord) ([]float64, error) {
	return a.encoders.Encode(record)
}

// Save writes the artifact next to path and renames it into place, so a
// reader never observes a partially written file.
func (a *Artifact) Save(path string) error {
	payload, err := json.Marshal(a.model)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	data, err := json.MarshalIndent(artifactFile{
		ArtifactInfo: a.info,
		Model:        payload,
		Encoders:     a.encoders,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadArtifact reads and validates an artifact written by Save.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if file.Format != ArtifactFormat {
		return nil, fmt.Errorf("artifact %s: unsupported format %q", path, file.Format)
	}
	if !slices.Equal(file.Features, FeatureNames()) {
		return nil, fmt.Errorf("artifact %s: feature columns %v do not match %v", path, file.Features, FeatureNames())
	}
	if file.Sentinel != Sentinel {
		return nil, fmt.Errorf("artifact %s: unexpected sentinel %q", path, file.Sentinel)
	}
	if err := file.Encoders.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	model, err := DecodeModel(file.ModelType, file.Model)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	if lr, ok := model.(*LogisticRegression); ok && len(lr.Weights) != len(FeatureNames()) {
		return nil, fmt.Errorf("artifact %s: %w", path, ErrDimensionMismatch)
	}
	return &Artifact{info: file.ArtifactInfo, model: model, encoders: file.Encoders}, nil
}
