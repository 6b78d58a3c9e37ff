package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmissionStore(t *testing.T) {
	t.Run("orders predictions by id", func(t *testing.T) {
		store := NewSubmissionStore()
		require.NoError(t, store.Append(Prediction{ID: 3, Method: "GET", Path: "/v1/assets"}))
		require.NoError(t, store.Append(Prediction{ID: 1, Method: "POST", Path: "/v1/sessions"}))
		require.NoError(t, store.Append(Prediction{ID: 2, Method: "GET", Path: "/v1/exchanges"}))

		preds := store.Predictions()
		require.Equal(t, []int{1, 2, 3}, []int{preds[0].ID, preds[1].ID, preds[2].ID})
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		store := NewSubmissionStore()
		require.NoError(t, store.Append(Prediction{ID: 1, Method: "GET", Path: "/v1/assets"}))
		require.Error(t, store.Append(Prediction{ID: 1, Method: "GET", Path: "/v1/assets"}))
	})
}

func TestSubmissionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "submission.csv")

	store := NewSubmissionStore()
	require.NoError(t, store.Append(Prediction{ID: 2, Method: "GET", Path: "/v1/assets"}))
	require.NoError(t, store.Append(Prediction{ID: 1, Method: "POST", Path: "/v1/sessions"}))
	require.NoError(t, store.Append(Prediction{ID: 3, Method: MethodUnknown, Path: ""}))

	require.NoError(t, store.WriteFile(path))

	preds, err := ReadSubmission(path)
	require.NoError(t, err)
	require.Equal(t, []Prediction{
		{ID: 1, Method: "POST", Path: "/v1/sessions"},
		{ID: 2, Method: "GET", Path: "/v1/assets"},
		{ID: 3, Method: MethodUnknown, Path: ""},
	}, preds)
}

func TestWriteSubmissionFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "submission.csv")

	require.NoError(t, WriteSubmission(path, []Prediction{
		{ID: 1, Method: "GET", Path: "/v1/assets"},
		{ID: 7, Method: MethodUnknown, Path: ""},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id;method;path\n1;GET;/v1/assets\n7;UNKNOWN;UNKNOWN\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be renamed away")
}

func TestReadSubmissionRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("uid;type;request\n1;GET;/v1/assets\n"), 0o644))

	_, err := ReadSubmission(path)
	var derr *DataError
	require.ErrorAs(t, err, &derr)
}
