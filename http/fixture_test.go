package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mindsurvey/ml"
)

// Treatment follows family history, work interference and benefits; age and
// gender are balanced across both classes.
const balancedSurvey = `Age,Gender,family_history,benefits,care_options,anonymity,leave,work_interfere,treatment
25,Male,Yes,Yes,Not sure,Yes,Somewhat easy,Often,Yes
30,Female,Yes,Yes,No,Don't know,Don't know,Often,Yes
35,Male,Yes,Yes,Yes,No,Somewhat difficult,Often,Yes
40,Female,Yes,Yes,Not sure,Yes,Somewhat easy,Often,Yes
28,Male,Yes,Yes,No,Don't know,Don't know,Often,Yes
33,Female,Yes,Yes,Yes,No,Somewhat difficult,Often,Yes
38,Male,Yes,Yes,Not sure,Yes,Somewhat easy,Often,Yes
45,Female,Yes,Yes,No,Don't know,Don't know,Often,Yes
25,Male,No,No,Not sure,Yes,Somewhat easy,Never,No
30,Female,No,No,No,Don't know,Don't know,Never,No
35,Male,No,No,Yes,No,Somewhat difficult,Never,No
40,Female,No,No,Not sure,Yes,Somewhat easy,Never,No
28,Male,No,No,No,Don't know,Don't know,Never,No
33,Female,No,No,Yes,No,Somewhat difficult,Never,No
38,Male,No,No,Not sure,Yes,Somewhat easy,Never,No
45,Female,No,No,No,Don't know,Don't know,Never,No
`

func trainArtifact(t *testing.T) *ml.Artifact {
	t.Helper()
	data, err := ml.ReadTrainingData(strings.NewReader(balancedSurvey))
	require.NoError(t, err)

	preprocessor := &ml.DataPreprocessor{}
	features, err := preprocessor.FitTransform(data)
	require.NoError(t, err)

	model := ml.NewLogisticRegression(ml.LogisticOptions{})
	require.NoError(t, model.Fit(features, data.Labels))

	artifact, err := ml.NewArtifact(model, preprocessor.Encoders(), data.Len(), ml.Metrics{})
	require.NoError(t, err)
	return artifact
}

const yesRequest = `{"Age": 25, "Gender": "Male", "family_history": "Yes", "benefits": "Yes",
	"care_options": "Not sure", "anonymity": "Yes", "leave": "Somewhat easy", "work_interfere": "Often"}`

const noRequest = `{"Age": 30, "Gender": "Female", "family_history": "No", "benefits": "No",
	"care_options": "No", "anonymity": "Don't know", "leave": "Don't know", "work_interfere": "Never"}`
