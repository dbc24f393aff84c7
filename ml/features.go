package ml

import "strings"

// Column names as they appear in the survey CSV header and in prediction requests.
const (
	ColumnAge           = "Age"
	ColumnGender        = "Gender"
	ColumnFamilyHistory = "family_history"
	ColumnBenefits      = "benefits"
	ColumnCareOptions   = "care_options"
	ColumnAnonymity     = "anonymity"
	ColumnLeave         = "leave"
	ColumnWorkInterfere = "work_interfere"
	ColumnTreatment     = "treatment"
)

// Sentinel is the category used for missing values at fit time and for
// unseen values at inference time.
const Sentinel = "NaN"

// FeatureRecord is one respondent's inputs before encoding.
type FeatureRecord struct {
	Age           int
	Gender        string
	FamilyHistory string
	Benefits      string
	CareOptions   string
	Anonymity     string
	Leave         string
	WorkInterfere string
}

// FeatureNames returns the fixed column order of an encoded feature vector.
func FeatureNames() []string {
	return []string{
		ColumnAge,
		ColumnGender,
		ColumnFamilyHistory,
		ColumnBenefits,
		ColumnCareOptions,
		ColumnAnonymity,
		ColumnLeave,
		ColumnWorkInterfere,
	}
}

// CategoricalColumns returns the encoded columns in feature order.
func CategoricalColumns() []string {
	return FeatureNames()[1:]
}

// Categorical returns the value of a categorical column by name.
func (r FeatureRecord) Categorical(column string) (string, bool) {
	switch column {
	case ColumnGender:
		return r.Gender, true
	case ColumnFamilyHistory:
		return r.FamilyHistory, true
	case ColumnBenefits:
		return r.Benefits, true
	case ColumnCareOptions:
		return r.CareOptions, true
	case ColumnAnonymity:
		return r.Anonymity, true
	case ColumnLeave:
		return r.Leave, true
	case ColumnWorkInterfere:
		return r.WorkInterfere, true
	default:
		return "", false
	}
}

// SetCategorical assigns a categorical column by name. Unknown columns are ignored.
func (r *FeatureRecord) SetCategorical(column, value string) bool {
	switch column {
	case ColumnGender:
		r.Gender = value
	case ColumnFamilyHistory:
		r.FamilyHistory = value
	case ColumnBenefits:
		r.Benefits = value
	case ColumnCareOptions:
		r.CareOptions = value
	case ColumnAnonymity:
		r.Anonymity = value
	case ColumnLeave:
		r.Leave = value
	case ColumnWorkInterfere:
		r.WorkInterfere = value
	default:
		return false
	}
	return true
}

// tokens read as missing by common CSV tooling
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(value string) bool {
	_, ok := missingTokens[strings.TrimSpace(value)]
	return ok
}

// FillMissing normalizes a missing cell to the sentinel.
func FillMissing(value string) string {
	if IsMissing(value) {
		return Sentinel
	}
	return value
}
