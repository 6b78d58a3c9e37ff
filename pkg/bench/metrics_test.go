package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	refs := []Prediction{
		{ID: 1, Method: "GET", Path: "/v1/assets"},
		{ID: 2, Method: "POST", Path: "/v1/sessions"},
		{ID: 3, Method: "GET", Path: "/v1/exchanges"},
		{ID: 4, Method: "DELETE", Path: "/v1/accounts/1/orders/9"},
	}

	t.Run("perfect submission scores 1.0", func(t *testing.T) {
		rep := Score(refs, refs, 10)
		require.Equal(t, 1.0, rep.Accuracy)
		require.Equal(t, 4, rep.Correct)
		require.Empty(t, rep.Errors)
		require.Equal(t, 1.0, rep.PerMethod["GET"].F1)
	})

	t.Run("disjoint submission scores 0.0", func(t *testing.T) {
		preds := []Prediction{
			{ID: 1, Method: "POST", Path: "/v1/other"},
			{ID: 2, Method: "GET", Path: "/v1/other"},
			{ID: 3, Method: "POST", Path: "/v1/other"},
			{ID: 4, Method: "GET", Path: "/v1/other"},
		}
		rep := Score(preds, refs, 10)
		require.Zero(t, rep.Accuracy)
		require.Equal(t, 4, rep.TotalErrors)
	})

	t.Run("method and path accuracies count separately", func(t *testing.T) {
		preds := []Prediction{
			{ID: 1, Method: "GET", Path: "/v1/wrong"},
			{ID: 2, Method: "GET", Path: "/v1/sessions"},
			{ID: 3, Method: "GET", Path: "/v1/exchanges"},
			{ID: 4, Method: "DELETE", Path: "/v1/accounts/1/orders/9"},
		}
		rep := Score(preds, refs, 10)
		require.InDelta(t, 0.5, rep.Accuracy, 1e-9)
		require.InDelta(t, 0.75, rep.MethodAccuracy, 1e-9)
		require.InDelta(t, 0.75, rep.PathAccuracy, 1e-9)
	})

	t.Run("missing reference id counts as wrong", func(t *testing.T) {
		preds := refs[:3]
		rep := Score(preds, refs, 10)
		require.InDelta(t, 0.75, rep.Accuracy, 1e-9)
		require.Len(t, rep.Errors, 1)
		require.True(t, rep.Errors[0].Missing)
		require.Equal(t, 4, rep.Errors[0].ID)
	})

	t.Run("unknown rows never count as false positives for real methods", func(t *testing.T) {
		preds := []Prediction{
			{ID: 1, Method: MethodUnknown, Path: ""},
			{ID: 2, Method: "POST", Path: "/v1/sessions"},
			{ID: 3, Method: "GET", Path: "/v1/exchanges"},
			{ID: 4, Method: "DELETE", Path: "/v1/accounts/1/orders/9"},
		}
		rep := Score(preds, refs, 10)
		require.Equal(t, 0, rep.PerMethod["GET"].FP)
		require.Equal(t, 1, rep.PerMethod["GET"].FN)
	})

	t.Run("error sample is capped ascending", func(t *testing.T) {
		preds := []Prediction{
			{ID: 1, Method: "POST", Path: "/x"},
			{ID: 2, Method: "POST", Path: "/x"},
			{ID: 3, Method: "POST", Path: "/x"},
			{ID: 4, Method: "POST", Path: "/x"},
		}
		rep := Score(preds, refs, 2)
		require.Len(t, rep.Errors, 2)
		require.Equal(t, 4, rep.TotalErrors)
		require.Equal(t, 1, rep.Errors[0].ID)
		require.Equal(t, 2, rep.Errors[1].ID)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		shuffled := []Prediction{refs[3], refs[0], refs[2], refs[1]}
		_ = Score(refs, shuffled, 10)
		require.Equal(t, []Prediction{refs[3], refs[0], refs[2], refs[1]}, shuffled)
	})
}

func TestWriteMismatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.csv")
	mismatches := []Mismatch{
		{ID: 1, RefMethod: "GET", RefPath: "/v1/assets", PredMethod: "POST", PredPath: "/v1/sessions"},
		{ID: 5, RefMethod: "GET", RefPath: "/v1/exchanges", Missing: true},
	}
	require.NoError(t, WriteMismatches(path, mismatches))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"id;ref_method;ref_path;pred_method;pred_path\n"+
			"1;GET;/v1/assets;POST;/v1/sessions\n"+
			"5;GET;/v1/exchanges;<missing>;<missing>\n",
		string(data))
}
