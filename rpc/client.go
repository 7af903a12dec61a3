package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-platform/utils"
)

const DefaultTimeout = 5 * time.Second

// Client sends one command and decodes its result into out (which may be nil).
type Client interface {
	Send(ctx context.Context, pattern string, payload interface{}, out interface{}) error
}

// envelope is the union of the success and error response bodies.
type envelope struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Errors  []utils.FieldError `json:"errors,omitempty"`
	Data    json.RawMessage    `json:"data,omitempty"`
}

// HTTPClient talks to a service over HTTP. Every call is bounded by Timeout.
type HTTPClient struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	HTTP    *http.Client
}

func NewHTTPClient(name, baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Timeout: timeout,
		HTTP:    &http.Client{},
	}
}

func (hc *HTTPClient) Send(ctx context.Context, pattern string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", pattern, err)
	}
	body, err := json.Marshal(Request{APIKey: hc.APIKey, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", pattern, err)
	}

	ctx, cancel := context.WithTimeout(ctx, hc.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.BaseURL+"/rpc/"+pattern, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.HTTP.Do(req)
	if err != nil {
		return hc.unavailable(pattern, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return hc.unavailable(pattern, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return hc.unavailable(pattern, fmt.Errorf("%s returned %d", hc.name(), resp.StatusCode))
		}
		return fmt.Errorf("could not parse %s response: %w", hc.name(), err)
	}
	return decodeEnvelope(env, resp.StatusCode, out)
}

func (hc *HTTPClient) unavailable(pattern string, err error) error {
	utils.ErrorLogger.Printf("Command %s to %s failed: %v", pattern, hc.name(), err)
	return utils.ServiceUnavailable(hc.name()+" is unavailable", err)
}

func (hc *HTTPClient) name() string {
	if hc.Name != "" {
		return hc.Name + " service"
	}
	return "upstream service"
}

// LocalClient dispatches commands to an in-process router with the same
// encoding, key check and timeout as the HTTP transport.
type LocalClient struct {
	Router  *Router
	APIKey  string
	Timeout time.Duration
}

func NewLocalClient(router *Router, apiKey string, timeout time.Duration) *LocalClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LocalClient{Router: router, APIKey: apiKey, Timeout: timeout}
}

type dispatchResult struct {
	value interface{}
	err   error
}

func (lc *LocalClient) Send(ctx context.Context, pattern string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", pattern, err)
	}

	ctx, cancel := context.WithTimeout(ctx, lc.Timeout)
	defer cancel()

	done := make(chan dispatchResult, 1)
	go func() {
		value, err := lc.Router.Dispatch(ctx, pattern, Request{APIKey: lc.APIKey, Data: data})
		done <- dispatchResult{value: value, err: err}
	}()

	var res dispatchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return utils.ServiceUnavailable("service is unavailable", ctx.Err())
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled) {
			return utils.ServiceUnavailable("service is unavailable", res.err)
		}
		return res.err
	}
	if out == nil || res.value == nil {
		return nil
	}

	encoded, err := json.Marshal(res.value)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", pattern, err)
	}
	return json.Unmarshal(encoded, out)
}

func decodeEnvelope(env envelope, status int, out interface{}) error {
	if env.Code != utils.CodeOK {
		return utils.NewAppError(env.Code, env.Message, status, env.Errors)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("could not decode result: %w", err)
	}
	return nil
}
