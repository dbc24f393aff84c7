package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// LabelEncoder maps the categories of one column to small integer codes.
// Classes are kept sorted so the code of a value is its index.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder learns the classes of a column. Missing values are filled
// with the sentinel first, and the sentinel is always kept as a class so that
// unseen values have a code to fall back to.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := map[string]struct{}{Sentinel: {}}
	for _, value := range values {
		seen[FillMissing(value)] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for value := range seen {
		classes = append(classes, value)
	}
	sort.Strings(classes)
	return newLabelEncoder(classes)
}

func newLabelEncoder(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		index[class] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns a copy of the learned classes in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) Contains(value string) bool {
	_, ok := e.index[value]
	return ok
}

// Resolve returns value when it is a known class and the sentinel otherwise.
func (e *LabelEncoder) Resolve(value string) string {
	if e.Contains(value) {
		return value
	}
	return Sentinel
}

// Transform returns the code of value, or the sentinel code for unseen values.
func (e *LabelEncoder) Transform(value string) int {
	return e.index[e.Resolve(value)]
}

// Inverse maps a code back to its class.
func (e *LabelEncoder) Inverse(code int) (string, bool) {
	if code < 0 || code >= len(e.classes) {
		return "", false
	}
	return e.classes[code], true
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.classes)
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return err
	}
	if len(classes) == 0 {
		return errors.New("encoder has no classes")
	}
	if !sort.StringsAreSorted(classes) {
		return errors.New("encoder classes are not sorted")
	}
	*e = *newLabelEncoder(classes)
	if !e.Contains(Sentinel) {
		return fmt.Errorf("encoder is missing the %q class", Sentinel)
	}
	if len(e.index) != len(classes) {
		return errors.New("encoder classes are not unique")
	}
	return nil
}

// EncoderBank holds one LabelEncoder per categorical column.
type EncoderBank map[string]*LabelEncoder

// FitEncoderBank fits an encoder for every categorical column over all rows.
func FitEncoderBank(records []FeatureRecord) EncoderBank {
	bank := make(EncoderBank, len(CategoricalColumns()))
	for _, column := range CategoricalColumns() {
		values := make([]string, len(records))
		for i, record := range records {
			values[i], _ = record.Categorical(column)
		}
		bank[column] = FitLabelEncoder(values)
	}
	return bank
}

// Validate checks that every categorical column has an encoder.
func (b EncoderBank) Validate() error {
	for _, column := range CategoricalColumns() {
		if b[column] == nil {
			return fmt.Errorf("missing encoder for column %s", column)
		}
	}
	return nil
}

// Encode converts a record to a numeric vector in FeatureNames order.
func (b EncoderBank) Encode(record FeatureRecord) ([]float64, error) {
	vector := make([]float64, 0, len(FeatureNames()))
	vector = append(vector, float64(record.Age))
	for _, column := range CategoricalColumns() {
		encoder := b[column]
		if encoder == nil {
			return nil, fmt.Errorf("missing encoder for column %s", column)
		}
		value, _ := record.Categorical(column)
		vector = append(vector, float64(encoder.Transform(value)))
	}
	return vector, nil
}

// EncodeAll encodes every record into a feature matrix.
func (b EncoderBank) EncodeAll(records []FeatureRecord) ([][]float64, error) {
	matrix := make([][]float64, len(records))
	for i, record := range records {
		vector, err := b.Encode(record)
		if err != nil {
			return nil, err
		}
		matrix[i] = vector
	}
	return matrix, nil
}
