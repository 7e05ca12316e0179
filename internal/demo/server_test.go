package demo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
)

func newTestServer(t *testing.T, opts Options) (*Server, *api.Client, string) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	srv, err := NewServer(opts)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := api.New(api.Config{BaseURL: ts.URL, Logger: zap.NewNop()})
	require.NoError(t, err)
	return srv, client, ts.URL
}

func TestServerListRoundTrip(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})
	ctx := context.Background()

	result, err := client.List(ctx, "work-orders", api.ListParams{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 31, result.Count)
	assert.Len(t, result.Results, 10)
	assert.Equal(t, "WO-1001", result.Results[0].String("erp_id"))

	result, err = client.List(ctx, "work-orders", api.ListParams{
		Limit:    5,
		Ordering: "-quantity",
		Search:   "helios",
		Filters:  map[string]string{"status": "ACTIVE"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "WO-1004", result.Results[0].String("erp_id"))
}

func TestServerListIgnoresStrayParams(t *testing.T) {
	_, client, baseURL := newTestServer(t, Options{})
	ctx := context.Background()

	// Undeclared filters and unknown ordering fields fall away instead of
	// failing the request.
	result, err := client.List(ctx, "work-orders", api.ListParams{
		Limit:    50,
		Ordering: "shoe_size",
		Filters:  map[string]string{"flavor": "grape"},
	})
	require.NoError(t, err)
	assert.Equal(t, 31, result.Count)

	// The all-values sentinel reads as no constraint even when a caller
	// sends it raw instead of stripping it.
	resp, err := http.Get(baseURL + "/api/work-orders/?limit=50&status=" + api.FilterAll)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw api.ListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, 31, raw.Count)
}

func TestServerMeta(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})

	meta, err := client.Metadata(context.Background(), "work-orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"ERP ID", "Part Number", "Customer"}, meta.SearchFieldsDisplay)
	assert.Equal(t, []string{"created_at", "due_date", "quantity"}, meta.OrderingFields)

	interactive := meta.InteractiveFilters()
	require.Len(t, interactive, 2)
	assert.Equal(t, "is_rush", interactive[0].Name)
	assert.Equal(t, api.FilterBoolean, interactive[0].Kind)
	assert.Equal(t, "status", interactive[1].Name)
	require.Len(t, interactive[1].Choices, 4)
}

func TestServerGetAndDelete(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})
	ctx := context.Background()

	rec, err := client.Get(ctx, "work-orders", "wo-1001")
	require.NoError(t, err)
	assert.Equal(t, "WO-1001", rec.String("erp_id"))

	require.NoError(t, client.Delete(ctx, "work-orders", "wo-1001"))

	_, err = client.Get(ctx, "work-orders", "wo-1001")
	assert.True(t, api.IsNotFound(err), "deleted record should 404, got %v", err)

	result, err := client.List(ctx, "work-orders", api.ListParams{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 30, result.Count)

	err = client.Delete(ctx, "work-orders", "wo-1001")
	assert.True(t, api.IsNotFound(err))
}

func TestServerCreate(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})
	ctx := context.Background()

	rec, err := client.Create(ctx, "quality-reports", map[string]any{
		"report_number": "QR-9000",
		"result":        "PASS",
		"part_number":   "PN-4410",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID(), "server assigns an id")
	assert.False(t, rec.Time("created_at").IsZero(), "server stamps created_at")

	fetched, err := client.Get(ctx, "quality-reports", rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "QR-9000", fetched.String("report_number"))
}

func TestServerCreateValidation(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})

	_, err := client.Create(context.Background(), "quality-reports", map[string]any{
		"part_number": "PN-4410",
	})
	require.Error(t, err)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "report_number, result")
}

func TestServerUnknownResource(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})
	ctx := context.Background()

	_, err := client.List(ctx, "widgets", api.ListParams{Limit: 5})
	assert.True(t, api.IsNotFound(err))

	_, err = client.Metadata(ctx, "widgets")
	assert.True(t, api.IsNotFound(err))
}

func TestServerFlow(t *testing.T) {
	_, client, _ := newTestServer(t, Options{})

	g, err := client.Flow(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "CNC Machining Line", g.Name)
	require.NotEmpty(t, g.Steps)

	bottleneck, ok := g.Bottleneck()
	require.True(t, ok)
	assert.Equal(t, "cnc-mill", bottleneck.ID)

	_, err = client.Flow(context.Background(), "nope")
	assert.True(t, api.IsNotFound(err))
}

func TestServerReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resources:
  parts:
    meta:
      search_fields: [part_number]
    records:
      - {id: p1, part_number: PN-1, name: One}
      - {id: p2, part_number: PN-2, name: Two}
`), 0o644))

	srv, client, _ := newTestServer(t, Options{FixturesPath: path})
	ctx := context.Background()

	result, err := client.List(ctx, "parts", api.ListParams{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	require.NoError(t, os.WriteFile(path, []byte(`
resources:
  parts:
    meta:
      search_fields: [part_number]
    records:
      - {id: p1, part_number: PN-1, name: One}
      - {id: p2, part_number: PN-2, name: Two}
      - {id: p3, part_number: PN-3, name: Three}
`), 0o644))
	require.NoError(t, srv.Reload(ctx))

	result, err = client.List(ctx, "parts", api.ListParams{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
}

func TestServerReloadKeepsDataOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resources:
  parts:
    meta: {}
    records:
      - {id: p1, part_number: PN-1}
`), 0o644))

	srv, client, _ := newTestServer(t, Options{FixturesPath: path})
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte(`{not yaml`), 0o644))
	require.Error(t, srv.Reload(ctx))

	result, err := client.List(ctx, "parts", api.ListParams{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count, "previous corpus stays live after a bad reload")
}

func TestServerRunShutsDownCleanly(t *testing.T) {
	srv, err := NewServer(Options{Addr: "127.0.0.1:0", Logger: zap.NewNop()})
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
