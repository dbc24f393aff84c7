package ml

import "errors"

// DataPreprocessor fits the encoder bank on a dataset and turns records into
// feature vectors.
type DataPreprocessor struct {
	encoders EncoderBank
}

func (p *DataPreprocessor) Fit(data Dataset) error {
	if data.Len() == 0 {
		return errors.New("dataset is empty")
	}
	p.encoders = FitEncoderBank(data.Records)
	return nil
}

func (p *DataPreprocessor) Transform(data Dataset) ([][]float64, error) {
	if data.Len() == 0 {
		return nil, errors.New("dataset is empty")
	}
	if p.encoders == nil {
		return nil, errors.New("encoders not fitted")
	}
	return p.encoders.EncodeAll(data.Records)
}

func (p *DataPreprocessor) FitTransform(data Dataset) ([][]float64, error) {
	if err := p.Fit(data); err != nil {
		return nil, err
	}
	return p.Transform(data)
}

func (p *DataPreprocessor) Encoders() EncoderBank {
	return p.encoders
}

// ClassCounts reports the number of classes learned per column.
func (p *DataPreprocessor) ClassCounts() map[string]int {
	counts := make(map[string]int, len(p.encoders))
	for column, encoder := range p.encoders {
		counts[column] = len(encoder.classes)
	}
	return counts
}
