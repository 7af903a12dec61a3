// Package rpc carries commands between the gateway and the internal services.
// A command is a pattern such as "tables:create" plus a JSON payload; every
// payload carries the callee's API key.
package rpc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// Request is the body of every command.
type Request struct {
	APIKey string          `json:"apiKey"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

var errBadAPIKey = utils.Unauthorized("invalid service api key")

// Router maps command patterns to handlers for one service.
type Router struct {
	apiKey   []byte
	handlers map[string]HandlerFunc
}

func NewRouter(apiKey string) *Router {
	return &Router{apiKey: []byte(apiKey), handlers: map[string]HandlerFunc{}}
}

func (r *Router) Handle(pattern string, h HandlerFunc) {
	if _, dup := r.handlers[pattern]; dup {
		panic("rpc: duplicate handler for " + pattern)
	}
	r.handlers[pattern] = h
}

func (r *Router) Patterns() []string {
	patterns := make([]string, 0, len(r.handlers))
	for p := range r.handlers {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	return patterns
}

// Dispatch checks the API key before anything else, so a caller with the wrong
// key never reaches a handler.
func (r *Router) Dispatch(ctx context.Context, pattern string, req Request) (interface{}, error) {
	if len(r.apiKey) == 0 || subtle.ConstantTimeCompare([]byte(req.APIKey), r.apiKey) != 1 {
		return nil, errBadAPIKey
	}

	h, ok := r.handlers[pattern]
	if !ok {
		return nil, utils.NotFound("unknown command " + pattern)
	}
	return h(ctx, req.Data)
}

// Mount exposes the router as POST /rpc/:pattern.
func (r *Router) Mount(g gin.IRoutes) {
	g.POST("/rpc/:pattern", r.serve)
}

func (r *Router) serve(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.Validation(utils.FieldError{Field: "body", Message: "must be a JSON command envelope"}))
		return
	}

	result, err := r.Dispatch(c.Request.Context(), c.Param("pattern"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "OK", result)
}

// Bind decodes a payload into req and runs its validation.
func Bind(payload json.RawMessage, req contracts.Validator) error {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, req); err != nil {
		return utils.Validation(utils.FieldError{Field: "data", Message: "malformed payload"})
	}
	return req.Validate()
}
