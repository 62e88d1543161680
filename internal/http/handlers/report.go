package handlers

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "errsight/internal/db"
	"errsight/internal/geo"
)

var logsIngested *prometheus.CounterVec

func InitPrometheusMetrics() {
	logsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "errsight",
			Name:      "logs_ingested_total",
			Help:      "Total number of ingested client error reports.",
		},
		[]string{"type"},
	)
	prometheus.MustRegister(logsIngested)
}

// clientIP determines the reporting address: first hop of the
// X-Forwarded-For chain, then X-Real-IP, then loopback.
func clientIP(ctx *fasthttp.RequestCtx) string {
	if fwd := string(ctx.Request.Header.Peek("X-Forwarded-For")); fwd != "" {
		first := fwd
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			first = fwd[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if real := string(ctx.Request.Header.Peek("X-Real-IP")); real != "" {
		return real
	}
	return "127.0.0.1"
}

// mergeLocation shallow-merges server-derived keys over the client-supplied
// location object. Later (server) keys win on conflict; unrelated client
// keys pass through untouched.
func mergeLocation(client, server map[string]any) map[string]any {
	merged := make(map[string]any, len(client)+len(server))
	for k, v := range client {
		merged[k] = v
	}
	for k, v := range server {
		merged[k] = v
	}
	return merged
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func asMap(v any) datatypes.JSONMap {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	return datatypes.JSONMap(m)
}

// buildLogRecord maps the known payload keys onto typed columns and carries
// every remaining key verbatim in the extra JSON column.
func buildLogRecord(payload, location map[string]any) *dbpkg.Log {
	rec := &dbpkg.Log{
		Type:          asString(payload["type"]),
		Category:      asString(payload["category"]),
		Message:       asString(payload["message"]),
		Stack:         asString(payload["stack"]),
		Component:     asString(payload["component"]),
		URL:           asString(payload["url"]),
		UA:            asString(payload["ua"]),
		Time:          asInt64(payload["time"]),
		DeviceID:      asString(payload["device_id"]),
		Wallet:        asString(payload["wallet"]),
		Network:       asMap(payload["network"]),
		Env:           asMap(payload["env"]),
		ConnectParams: asMap(payload["connectParams"]),
		Location:      datatypes.JSONMap(location),
	}

	extra := datatypes.JSONMap{}
	for k, v := range payload {
		switch k {
		case "type", "category", "message", "stack", "component", "url", "ua",
			"time", "device_id", "wallet", "network", "env", "connectParams", "location":
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Extra = extra
	}
	return rec
}

// ReportHandler accepts one client error report, enriches it with the
// reporting IP and (when resolvable) coarse geo data, and persists it.
// Payloads are accepted permissively: unknown fields are stored, nothing is
// rejected for shape. An enrichment miss is not an error; only a failed
// write is, and it is not retried here.
func ReportHandler(gdb *gorm.DB, resolver *geo.Resolver) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload map[string]any
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil || payload == nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			jsonResponse(ctx, map[string]any{"success": false, "error": "invalid JSON body"})
			return
		}

		ip := clientIP(ctx)
		serverLoc := map[string]any{"ip": ip}
		if loc, ok := resolver.Resolve(ip); ok {
			geoObj := map[string]any{}
			if loc.Country != "" {
				geoObj["country"] = loc.Country
				serverLoc["country"] = loc.Country
			}
			if loc.City != "" {
				geoObj["city"] = loc.City
				serverLoc["city"] = loc.City
			}
			serverLoc["geo"] = geoObj
		}

		clientLoc, _ := payload["location"].(map[string]any)
		rec := buildLogRecord(payload, mergeLocation(clientLoc, serverLoc))

		if err := dbpkg.InsertLog(gdb, rec); err != nil {
			log.Printf("failed to persist report: %v", err)
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			jsonResponse(ctx, map[string]any{"success": false, "error": "failed to save log"})
			return
		}

		logsIngested.WithLabelValues(rec.Type).Inc()

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{
			"success": true,
			"id":      strconv.FormatUint(uint64(rec.ID), 10),
		})
	}
}
