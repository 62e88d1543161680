package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestCORS_EchoesOrigin(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Origin", "https://dashboard.example.com")

	called := false
	CORS(func(ctx *fasthttp.RequestCtx) { called = true })(&ctx)

	assert.True(t, called)
	assert.Equal(t, "https://dashboard.example.com", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, "GET, POST, OPTIONS", string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")))
	assert.Equal(t, "Content-Type, Authorization", string(ctx.Response.Header.Peek("Access-Control-Allow-Headers")))
	assert.Equal(t, "true", string(ctx.Response.Header.Peek("Access-Control-Allow-Credentials")))
}

func TestCORS_WildcardWithoutOrigin(t *testing.T) {
	var ctx fasthttp.RequestCtx
	CORS(func(ctx *fasthttp.RequestCtx) {})(&ctx)
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}

func TestPreflight(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodOptions)
	ctx.Request.Header.Set("Origin", "https://dashboard.example.com")

	Preflight()(&ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "{}", string(ctx.Response.Body()))
	assert.Equal(t, "https://dashboard.example.com", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}
