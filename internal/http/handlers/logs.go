package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "errsight/internal/db"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// parsePagination reads page/limit query args. Non-numeric or non-positive
// values fall back to the defaults instead of failing the request.
func parsePagination(ctx *fasthttp.RequestCtx) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if s := string(ctx.QueryArgs().Peek("page")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			page = n
		}
	}
	if s := string(ctx.QueryArgs().Peek("limit")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			limit = n
		}
	}
	return page, limit
}

// LogsHandler serves the dashboard listing: filtered, paginated records
// sorted by client event time descending, plus whole-collection facet
// stats. The stats deliberately ignore the active filter so the summary
// cards stay stable while the operator narrows the table.
func LogsHandler(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		page, limit := parsePagination(ctx)
		filter := dbpkg.LogFilter{
			Type:   string(ctx.QueryArgs().Peek("type")),
			Search: string(ctx.QueryArgs().Peek("search")),
		}

		rows, total, err := dbpkg.ListLogs(gdb, filter, page, limit)
		if err != nil {
			log.Printf("failed to list logs: %v", err)
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			jsonResponse(ctx, map[string]any{"error": "failed to fetch logs"})
			return
		}

		stats, err := dbpkg.FacetStats(gdb)
		if err != nil {
			log.Printf("failed to compute stats: %v", err)
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			jsonResponse(ctx, map[string]any{"error": "failed to fetch logs"})
			return
		}

		var pages int64
		if total > 0 {
			pages = (total + int64(limit) - 1) / int64(limit)
		}

		jsonResponse(ctx, map[string]any{
			"logs": rows,
			"pagination": map[string]any{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": pages,
			},
			"stats": stats,
		})
	}
}

// LogDetail serves one record for the dashboard detail drawer.
func LogDetail(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		idStr, _ := ctx.UserValue("id").(string)
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			jsonResponse(ctx, map[string]any{"error": "invalid id"})
			return
		}

		rec, err := dbpkg.GetLog(gdb, uint(id))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				jsonResponse(ctx, map[string]any{"error": "log not found"})
				return
			}
			log.Printf("failed to load log %d: %v", id, err)
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			jsonResponse(ctx, map[string]any{"error": "failed to load log"})
			return
		}

		jsonResponse(ctx, map[string]any{"log": rec})
	}
}
