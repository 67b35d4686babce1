// Package ctx gives handlers a single *Context with request and response
// helpers instead of the (w, r) pair.
//
//	r.Get("/products/{id}", "products.show", ctx.Wrap(func(c *ctx.Context) {
//	    id, ok := c.ParamUint("id")
//	    ...
//	    c.Success(product)
//	}))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/shopfront/pkg/bind"
	"github.com/shashiranjanraj/shopfront/pkg/middleware"
	"github.com/shashiranjanraj/shopfront/pkg/response"
	"github.com/shashiranjanraj/shopfront/pkg/validate"
)

type HandlerFunc func(c *Context)

// Wrap adapts h to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps one request/response pair. It is pooled: do not keep it
// after the handler returns.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R = w, r
	return c
}

func release(c *Context) {
	c.W, c.R = nil, nil
	pool.Put(c)
}

// Param returns a chi URL parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a positive integer URL parameter.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

func (c *Context) Context() context.Context { return c.R.Context() }

// UserID is the authenticated caller, or 0 outside middleware.Auth.
func (c *Context) UserID() uint {
	id, _ := middleware.UserIDFromCtx(c.R)
	return id
}

// BindJSON decodes and validates the body into dest. On failure it writes a
// 400 or 422 and returns false.
//
//	var in AddItemInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// Validate runs the validate tags of an already populated struct.
func (c *Context) Validate(v any) map[string]string {
	return validate.Struct(v)
}

func (c *Context) Success(data any) { response.Success(c.W, data) }

func (c *Context) Message(message string, data any) { response.Message(c.W, message, data) }

func (c *Context) Created(message string, data any) { response.Created(c.W, message, data) }

func (c *Context) Error(code int, message string) { response.Error(c.W, code, message) }

func (c *Context) ValidationError(errs map[string]string) { response.ValidationError(c.W, errs) }

func (c *Context) Unauthorized(message string) { response.Unauthorized(c.W, message) }

func (c *Context) Forbidden() { response.Forbidden(c.W) }

func (c *Context) NotFound() { response.NotFound(c.W) }

func (c *Context) InternalError() { response.InternalError(c.W) }

// Bytes writes a raw body with the given content type.
func (c *Context) Bytes(code int, contentType string, body []byte) {
	c.W.Header().Set("Content-Type", contentType)
	c.W.WriteHeader(code)
	_, _ = c.W.Write(body)
}
