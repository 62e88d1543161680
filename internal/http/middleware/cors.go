package middleware

import (
	"github.com/valyala/fasthttp"
)

// SetCORSHeaders writes the cross-origin headers expected by the reporting
// SDK and the dashboard. The request origin is echoed back when present so
// credentialed requests work; otherwise any origin is allowed.
func SetCORSHeaders(ctx *fasthttp.RequestCtx) {
	origin := string(ctx.Request.Header.Peek("Origin"))
	if origin == "" {
		origin = "*"
	}
	h := &ctx.Response.Header
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Set("Access-Control-Allow-Credentials", "true")
}

// CORS wraps next so every response on the route carries the cross-origin
// headers, including error responses produced by the handler itself.
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		SetCORSHeaders(ctx)
		next(ctx)
	}
}

// Preflight answers OPTIONS preflight requests with an empty JSON object.
func Preflight() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		SetCORSHeaders(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetContentType("application/json")
		ctx.SetBodyString("{}")
	}
}
