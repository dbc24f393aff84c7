package ml

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/cases"
)

var ErrInvalidAge = errors.New("age must be an integer")

// SurveyRow is one row of the survey CSV. Columns not listed here are ignored.
type SurveyRow struct {
	Age           string `csv:"Age"`
	Gender        string `csv:"Gender"`
	FamilyHistory string `csv:"family_history"`
	Benefits      string `csv:"benefits"`
	CareOptions   string `csv:"care_options"`
	Anonymity     string `csv:"anonymity"`
	Leave         string `csv:"leave"`
	WorkInterfere string `csv:"work_interfere"`
	Treatment     string `csv:"treatment"`
}

// Record converts the row, failing on a missing or non-integer age.
func (r SurveyRow) Record() (FeatureRecord, error) {
	age, err := ParseAge(r.Age)
	if err != nil {
		return FeatureRecord{}, err
	}
	return FeatureRecord{
		Age:           age,
		Gender:        r.Gender,
		FamilyHistory: r.FamilyHistory,
		Benefits:      r.Benefits,
		CareOptions:   r.CareOptions,
		Anonymity:     r.Anonymity,
		Leave:         r.Leave,
		WorkInterfere: r.WorkInterfere,
	}, nil
}

// ParseAge reads an integer age. Missing cells are errors.
func ParseAge(value string) (int, error) {
	if IsMissing(value) {
		return 0, fmt.Errorf("%w: missing", ErrInvalidAge)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAge, value)
	}
	return AgeFromInt(n)
}

// AgeFromInt bounds an age to the 32-bit range.
func AgeFromInt(n int64) (int, error) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidAge, n)
	}
	return int(n), nil
}

// Dataset is the projected training table.
type Dataset struct {
	Records []FeatureRecord
	Labels  []int
}

func (d Dataset) Len() int {
	return len(d.Records)
}

// LoadTrainingData reads the survey CSV at path.
func LoadTrainingData(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()
	return ReadTrainingData(f)
}

// ReadTrainingData parses survey rows and their treatment labels. A missing
// required column, a bad age or a label other than yes/no is an error.
func ReadTrainingData(r io.Reader) (Dataset, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("read training data: %w", err)
	}
	header, err := csv.NewReader(bytes.NewReader(content)).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, errors.New("training data is empty")
		}
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return Dataset{}, err
	}

	rows := []*SurveyRow{}
	if err := gocsv.UnmarshalBytes(content, &rows); err != nil {
		return Dataset{}, fmt.Errorf("parse training data: %w", err)
	}
	if len(rows) == 0 {
		return Dataset{}, errors.New("training data has no rows")
	}

	data := Dataset{
		Records: make([]FeatureRecord, len(rows)),
		Labels:  make([]int, len(rows)),
	}
	for i, row := range rows {
		// header is line 1
		line := i + 2
		record, err := row.Record()
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		label, err := ParseTreatment(row.Treatment)
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		data.Records[i] = record
		data.Labels[i] = label
	}
	return data, nil
}

func checkHeader(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, name := range header {
		present[name] = struct{}{}
	}
	var missing []string
	for _, column := range append(FeatureNames(), ColumnTreatment) {
		if _, ok := present[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("training data is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseTreatment maps a treatment answer to 1 (yes) or 0 (no), ignoring case.
func ParseTreatment(value string) (int, error) {
	switch cases.Fold().String(strings.TrimSpace(value)) {
	case "yes":
		return 1, nil
	case "no":
		return 0, nil
	default:
		return 0, fmt.Errorf("treatment %q: %w", value, ErrInvalidLabel)
	}
}

// TreatmentLabel maps a class back to its answer.
func TreatmentLabel(label int) string {
	if label == 1 {
		return "Yes"
	}
	return "No"
}
