package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type recorded struct {
	method string
	path   string
	query  string
	values [][]interface{}
}

func newTestRepository(t *testing.T, status int) (*GoogleSheetRepository, *[]recorded) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if r.Method == http.MethodPut {
			var body sheetsapi.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&body)
			rec.values = body.Values
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return newRepository(svc, "sheet-123", zaptest.NewLogger(t)), &calls
}

func TestReplaceRange(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusOK)

	rows := [][]interface{}{{"Item", "Price"}, {"p1", 26.5}}
	require.NoError(t, repo.ReplaceRange(context.Background(), "Precos!A1", rows))

	require.Len(t, *calls, 2)
	clearReq, updateReq := (*calls)[0], (*calls)[1]

	assert.Equal(t, http.MethodPost, clearReq.method)
	assert.True(t, strings.HasSuffix(clearReq.path, "/values/Precos:clear"), clearReq.path)

	assert.Equal(t, http.MethodPut, updateReq.method)
	assert.Contains(t, updateReq.path, "/spreadsheets/sheet-123/values/")
	assert.Contains(t, updateReq.query, "valueInputOption=USER_ENTERED")
	require.Len(t, updateReq.values, 2)
	assert.Equal(t, "p1", updateReq.values[1][0])
	assert.Equal(t, 26.5, updateReq.values[1][1])
}

func TestReplaceRange_EmptyRowsOnlyClears(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusOK)

	require.NoError(t, repo.ReplaceRange(context.Background(), "Precos", nil))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
}

func TestReplaceRange_Errors(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusForbidden)

	err := repo.ReplaceRange(context.Background(), "", nil)
	require.Error(t, err)
	assert.Empty(t, *calls)

	err = repo.ReplaceRange(context.Background(), "Precos!A1", [][]interface{}{{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear sheet Precos")
	assert.Len(t, *calls, 1)
}
