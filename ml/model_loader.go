package ml

import (
	"encoding/json"
	"fmt"
)

const ModelTypeLogistic = "logistic_regression"

// NewModel returns an untrained classifier of the given type.
func NewModel(modelType string, opts LogisticOptions) (Classifier, error) {
	switch modelType {
	case ModelTypeLogistic, "":
		return NewLogisticRegression(opts), nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

// DecodeModel restores a fitted classifier from its serialized parameters.
func DecodeModel(modelType string, payload json.RawMessage) (Classifier, error) {
	switch modelType {
	case ModelTypeLogistic:
		model := &LogisticRegression{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode %s: %w", modelType, err)
		}
		if len(model.Weights) == 0 {
			return nil, fmt.Errorf("decode %s: %w", modelType, ErrNotTrained)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

func modelTypeOf(model Classifier) (string, error) {
	switch model.(type) {
	case *LogisticRegression:
		return ModelTypeLogistic, nil
	default:
		return "", fmt.Errorf("unsupported model %T", model)
	}
}
