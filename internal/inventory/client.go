package inventory

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

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/config"
	"github.com/gearbookhq/gearbook-backend/pkg/enums"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
)

const (
	defaultRequestTimeout       = 5 * time.Second
	requestBodyReadLimit  int64 = 1024
)

var errBaseURLRequired = errors.New("inventory base url is required")

// Client talks to the external asset-inventory service over HTTP. It is the
// only place external payloads are decoded; everything past this boundary
// works with typed values.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the inventory client from config.
func NewClient(cfg config.InventoryConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   strings.TrimSpace(cfg.APIToken),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// modelSummaryPayload tolerates partially populated upstream responses.
type modelSummaryPayload struct {
	ModelID    string       `json:"modelId"`
	TotalUnits *json.Number `json:"totalUnits"`
	CheckedOut *json.Number `json:"checkedOutUnits"`
}

type assetPayload struct {
	AssetID    string `json:"assetId"`
	Status     string `json:"status"`
	Location   string `json:"location"`
	CheckedOut bool   `json:"checkedOut"`
	AssignedTo string `json:"assignedTo"`
}

// PooledTotal returns the total pool size for a model. A missing or
// unparseable total surfaces as Known=false.
func (c *Client) PooledTotal(ctx context.Context, modelID uuid.UUID) (Count, error) {
	payload, err := c.modelSummary(ctx, modelID)
	if err != nil {
		return UnknownCount(), err
	}
	return countFromNumber(payload.TotalUnits), nil
}

// ExternallyCheckedOut reports units checked out outside the reservation
// system for the given target.
func (c *Client) ExternallyCheckedOut(ctx context.Context, target booking.Target) (Count, error) {
	if target.Type == enums.TargetTypeAsset {
		state, err := c.AssetState(ctx, target.AssetID)
		if err != nil {
			return UnknownCount(), err
		}
		if state.CheckedOut {
			return KnownCount(1), nil
		}
		return KnownCount(0), nil
	}

	payload, err := c.modelSummary(ctx, target.ModelID)
	if err != nil {
		return UnknownCount(), err
	}
	return countFromNumber(payload.CheckedOut), nil
}

// AssetState fetches the external record for a single asset.
func (c *Client) AssetState(ctx context.Context, assetID uuid.UUID) (*AssetState, error) {
	if assetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}

	var payload assetPayload
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/assets/%s", assetID), nil, &payload); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(payload.AssetID)
	if err != nil {
		parsed = assetID
	}
	return &AssetState{
		AssetID:    parsed,
		Status:     payload.Status,
		Location:   payload.Location,
		CheckedOut: payload.CheckedOut,
		AssignedTo: payload.AssignedTo,
	}, nil
}

// SetAssetStatus pushes a status change for an asset.
func (c *Client) SetAssetStatus(ctx context.Context, assetID uuid.UUID, status string) error {
	if assetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	if strings.TrimSpace(status) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}
	body := map[string]string{"status": status}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/v1/assets/%s/status", assetID), body, nil)
}

// SetAssetLocation pushes a location change for an asset.
func (c *Client) SetAssetLocation(ctx context.Context, assetID uuid.UUID, location string) error {
	if assetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	body := map[string]string{"location": location}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/v1/assets/%s/location", assetID), body, nil)
}

// CheckoutToUser records a physical handover in the external system.
func (c *Client) CheckoutToUser(ctx context.Context, req CheckoutRequest) error {
	if req.AssetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	if strings.TrimSpace(req.ExternalUserID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "external user id is required")
	}
	body := map[string]any{
		"userId": req.ExternalUserID,
		"note":   req.Note,
	}
	if !req.ExpectedReturn.IsZero() {
		body["expectedReturn"] = req.ExpectedReturn.UTC().Format(time.RFC3339)
	}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/assets/%s/checkout", req.AssetID), body, nil)
}

// Checkin records a physical return in the external system.
func (c *Client) Checkin(ctx context.Context, req CheckinRequest) error {
	if req.AssetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id is required")
	}
	body := map[string]any{
		"note":        req.Note,
		"maintenance": req.Maintenance,
	}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/assets/%s/checkin", req.AssetID), body, nil)
}

// Ping verifies reachability of the external service.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/v1/ping", nil, nil)
}

func (c *Client) modelSummary(ctx context.Context, modelID uuid.UUID) (*modelSummaryPayload, error) {
	if modelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id is required")
	}
	var payload modelSummaryPayload
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/models/%s/summary", modelID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	if c == nil || c.httpClient == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "inventory client not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal inventory request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build inventory request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute inventory request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "inventory request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode inventory response")
	}
	return nil
}

func countFromNumber(n *json.Number) Count {
	if n == nil {
		return UnknownCount()
	}
	value, err := n.Int64()
	if err != nil || value < 0 {
		return UnknownCount()
	}
	return KnownCount(int(value))
}
