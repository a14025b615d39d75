package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srql-engine/internal/common"
	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/translate"
)

type fakeExecutor struct {
	rows []map[string]interface{}
	err  error

	gotSQL  string
	gotArgs []interface{}
}

func (f *fakeExecutor) Query(_ context.Context, sql string, args []interface{}) ([]map[string]interface{}, error) {
	f.gotSQL = sql
	f.gotArgs = args
	return f.rows, f.err
}

func newTestEngine(exec Executor) *QueryEngine {
	e := New(catalog.Default(), exec, translate.Options{
		DefaultLimit: 2,
		MaxLimit:     500,
		GraphName:    "topology",
	}, zerolog.Nop())
	e.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func TestTranslateDoesNotTouchExecutor(t *testing.T) {
	exec := &fakeExecutor{}
	eng := newTestEngine(exec)

	result, err := eng.Translate(TranslateRequest{Query: "in:devices is_available:true"})
	require.NoError(t, err)
	assert.Contains(t, result.SQL, `"ocsf_devices"."is_available" = $1`)
	assert.Empty(t, exec.gotSQL)
	assert.NotEmpty(t, result.Pagination.NextCursor)
}

func TestQueryPassesTypedArgs(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]interface{}{
		{"uid": "sw-01", "is_available": true},
		{"uid": "sw-02", "is_available": false},
	}}
	eng := newTestEngine(exec)

	resp, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices is_available:true"})
	require.NoError(t, err)

	require.Len(t, exec.gotArgs, 3)
	assert.Equal(t, true, exec.gotArgs[0])
	assert.Equal(t, int64(2), exec.gotArgs[1])
	assert.Equal(t, int64(0), exec.gotArgs[2])

	assert.Equal(t, "devices", resp.Entity)
	assert.Len(t, resp.Results, 2)
}

func TestQueryFullPageAdvertisesNextCursor(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]interface{}{
		{"uid": "a"}, {"uid": "b"},
	}}
	eng := newTestEngine(exec)

	resp, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Pagination.NextCursor)

	next, err := translate.DecodeCursor(resp.Pagination.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestQueryShortPageEndsIteration(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]interface{}{{"uid": "a"}}}
	eng := newTestEngine(exec)

	resp, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices"})
	require.NoError(t, err)
	assert.Empty(t, resp.Pagination.NextCursor)
}

func TestQueryExecutionErrorWrapped(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection refused")}
	eng := newTestEngine(exec)

	_, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices"})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrQueryExecution))
}

func TestQueryWithoutExecutorUnavailable(t *testing.T) {
	eng := newTestEngine(nil)

	_, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices"})
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrUnavailable))
}

func TestQueryNilRowsBecomeEmptySlice(t *testing.T) {
	exec := &fakeExecutor{rows: nil}
	eng := newTestEngine(exec)

	resp, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Len(t, resp.Results, 0)
}

func TestEncodeArrowRoundTrip(t *testing.T) {
	seen := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	exec := &fakeExecutor{rows: []map[string]interface{}{
		{"uid": "sw-01", "is_available": true, "last_seen": seen, "metadata": map[string]interface{}{"site": "hq"}},
		{"uid": "sw-02", "is_available": nil, "last_seen": nil, "metadata": nil},
	}}
	eng := newTestEngine(exec)

	resp, err := eng.Query(context.Background(), QueryRequest{Query: "in:devices"})
	require.NoError(t, err)

	payload, err := EncodeArrow(resp)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	reader, err := ipc.NewReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer reader.Release()

	require.True(t, reader.Next())
	record := reader.Record()
	assert.Equal(t, int64(2), record.NumRows())
	assert.Equal(t, int64(len(resp.Viz.Columns)), record.NumCols())
}
