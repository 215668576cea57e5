// Package client is a Go client for the trash classification API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type ClassificationResult struct {
	PredictedClass string             `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	AllClasses     map[string]float64 `json:"all_classes"`
}

type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// APIError is a non-2xx response. Detail holds the server's message when the
// body carried one.
type APIError struct {
	StatusCode int
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
}

type Client struct {
	rc *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		rc: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(c.rc.R().SetContext(ctx).SetResult(&out), http.MethodGet, "/health"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Classes returns the model-native category names, in model output order.
func (c *Client) Classes(ctx context.Context) ([]string, error) {
	var out struct {
		Classes []string `json:"classes"`
	}
	if err := c.do(c.rc.R().SetContext(ctx).SetResult(&out), http.MethodGet, "/classes"); err != nil {
		return nil, err
	}
	return out.Classes, nil
}

// Classify uploads an image as the "file" form field with the given content
// type.
func (c *Client) Classify(ctx context.Context, filename, contentType string, image io.Reader) (*ClassificationResult, error) {
	var out ClassificationResult
	req := c.rc.R().
		SetContext(ctx).
		SetMultipartField("file", filename, contentType, image).
		SetResult(&out)
	if err := c.do(req, http.MethodPost, "/classify"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *resty.Request, method, path string) error {
	apiErr := &APIError{}
	resp, err := req.SetError(apiErr).Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return nil
}
