package handlers

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	dbpkg "errsight/internal/db"
	"errsight/internal/geo"
	"errsight/internal/testutil"
)

func TestMain(m *testing.M) {
	InitPrometheusMetrics()
	os.Exit(m.Run())
}

func noGeo(t *testing.T) *geo.Resolver {
	t.Helper()
	return geo.Open("testdata/does-not-exist.mmdb")
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name      string
		forwarded string
		realIP    string
		want      string
	}{
		{"forwarded chain wins", "203.0.113.7, 10.0.0.1, 10.0.0.2", "198.51.100.4", "203.0.113.7"},
		{"forwarded single", "203.0.113.9", "", "203.0.113.9"},
		{"forwarded with spaces", "  203.0.113.5 , 10.0.0.1", "", "203.0.113.5"},
		{"real ip fallback", "", "198.51.100.4", "198.51.100.4"},
		{"loopback fallback", "", "", "127.0.0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ctx fasthttp.RequestCtx
			if tc.forwarded != "" {
				ctx.Request.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				ctx.Request.Header.Set("X-Real-IP", tc.realIP)
			}
			assert.Equal(t, tc.want, clientIP(&ctx))
		})
	}
}

func TestMergeLocation_ServerKeysWin(t *testing.T) {
	client := map[string]any{"city": "X", "isp": "ExampleNet", "country": "client-country"}
	server := map[string]any{
		"ip":      "203.0.113.7",
		"country": "Y",
		"geo":     map[string]any{"country": "Y"},
	}

	merged := mergeLocation(client, server)

	assert.Equal(t, "X", merged["city"], "client key without server counterpart survives")
	assert.Equal(t, "ExampleNet", merged["isp"], "unrelated client keys pass through")
	assert.Equal(t, "Y", merged["country"], "server-derived key wins on conflict")
	assert.Equal(t, "203.0.113.7", merged["ip"])
	assert.Equal(t, map[string]any{"country": "Y"}, merged["geo"])
}

func TestMergeLocation_NilClient(t *testing.T) {
	merged := mergeLocation(nil, map[string]any{"ip": "127.0.0.1"})
	assert.Equal(t, map[string]any{"ip": "127.0.0.1"}, merged)
}

func postReport(t *testing.T, handler fasthttp.RequestHandler, body string, headers map[string]string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/api/report")
	ctx.Request.Header.SetContentType("application/json")
	for k, v := range headers {
		ctx.Request.Header.Set(k, v)
	}
	ctx.Request.SetBodyString(body)
	handler(&ctx)
	return &ctx
}

func TestReportHandler_PersistsWithLoopbackFallback(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	handler := ReportHandler(gdb, noGeo(t))

	ctx := postReport(t, handler,
		`{"type":"api_error","message":"timeout","url":"https://x","time":1700000000000,"ua":"UA"}`, nil)

	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)

	rows, total, err := dbpkg.ListLogs(gdb, dbpkg.LogFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	rec := rows[0]
	assert.Equal(t, "api_error", rec.Type)
	assert.Equal(t, "timeout", rec.Message)
	assert.Equal(t, int64(1700000000000), rec.Time)
	assert.Equal(t, "UA", rec.UA)
	assert.Equal(t, "127.0.0.1", rec.Location["ip"], "no forwarding headers falls back to loopback")
	assert.NotContains(t, rec.Location, "geo", "loopback never resolves to geo data")
}

func TestReportHandler_ForwardedIPAndClientLocationMerge(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	handler := ReportHandler(gdb, noGeo(t))

	ctx := postReport(t, handler,
		`{"type":"script","message":"boom","location":{"city":"X","isp":"ExampleNet"}}`,
		map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"})

	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	rows, _, err := dbpkg.ListLogs(gdb, dbpkg.LogFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	loc := rows[0].Location
	assert.Equal(t, "203.0.113.7", loc["ip"], "first forwarded hop wins")
	assert.Equal(t, "X", loc["city"], "client-supplied city survives an enrichment miss")
	assert.Equal(t, "ExampleNet", loc["isp"])
}

func TestReportHandler_UnknownFieldsStoredVerbatim(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	handler := ReportHandler(gdb, noGeo(t))

	ctx := postReport(t, handler,
		`{"type":"manual","message":"hi","session_id":"s-1","nested":{"a":1},"connectParams":{"password":{"wallet":"0xA","role":2}}}`, nil)

	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	rows, _, err := dbpkg.ListLogs(gdb, dbpkg.LogFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	rec := rows[0]
	assert.Equal(t, "s-1", rec.Extra["session_id"])
	assert.Equal(t, map[string]any{"a": float64(1)}, rec.Extra["nested"])

	pw, ok := rec.ConnectParams["password"].(map[string]any)
	require.True(t, ok, "connectParams stays an opaque bag")
	assert.Equal(t, "0xA", pw["wallet"])
}

func TestReportHandler_InvalidJSON(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	handler := ReportHandler(gdb, noGeo(t))

	ctx := postReport(t, handler, `{not json`, nil)

	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}
