package inventory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gearbookhq/gearbook-backend/internal/booking"
	"github.com/gearbookhq/gearbook-backend/pkg/config"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(
		config.InventoryConfig{BaseURL: "http://inventory.test", APIToken: "test-token"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestPooledTotalKnown(t *testing.T) {
	t.Parallel()

	modelID := uuid.New()
	var capturedURL string
	var capturedAuth string

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `{"modelId":"`+modelID.String()+`","totalUnits":6,"checkedOutUnits":2}`), nil
	})

	count, err := client.PooledTotal(context.Background(), modelID)
	if err != nil {
		t.Fatalf("pooled total: %v", err)
	}
	if !count.Known || count.Value != 6 {
		t.Fatalf("unexpected count %+v", count)
	}
	if capturedURL != "http://inventory.test/v1/models/"+modelID.String()+"/summary" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuth != "Bearer test-token" {
		t.Fatalf("auth header missing, got %q", capturedAuth)
	}
}

func TestPooledTotalMissingFieldIsUnknown(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"modelId":"x"}`), nil
	})

	count, err := client.PooledTotal(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("pooled total: %v", err)
	}
	if count.Known {
		t.Fatalf("missing total must be unknown, got %+v", count)
	}
}

func TestPooledTotalUpstreamErrorIsDependency(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `upstream down`), nil
	})

	count, err := client.PooledTotal(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("unexpected error: %v", err)
	}
	if count.Known {
		t.Fatalf("error path must report unknown, got %+v", count)
	}
}

func TestExternallyCheckedOutAssetTarget(t *testing.T) {
	t.Parallel()

	assetID := uuid.New()
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"assetId":"`+assetID.String()+`","status":"in_use","checkedOut":true}`), nil
	})

	count, err := client.ExternallyCheckedOut(context.Background(), booking.AssetTarget(assetID))
	if err != nil {
		t.Fatalf("externally checked out: %v", err)
	}
	if !count.Known || count.Value != 1 {
		t.Fatalf("unexpected count %+v", count)
	}
}

func TestCheckoutToUserRequestShape(t *testing.T) {
	t.Parallel()

	assetID := uuid.New()
	var capturedURL string
	var capturedBody map[string]any

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(raw, &capturedBody); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusNoContent, ``), nil
	})

	err := client.CheckoutToUser(context.Background(), CheckoutRequest{
		AssetID:        assetID,
		ExternalUserID: "u-123",
		Note:           "field trip",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if capturedURL != "http://inventory.test/v1/assets/"+assetID.String()+"/checkout" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedBody["userId"] != "u-123" || capturedBody["note"] != "field trip" {
		t.Fatalf("unexpected body %+v", capturedBody)
	}
}

func TestCheckoutToUserValidation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("request must not be sent")
		return nil, nil
	})

	err := client.CheckoutToUser(context.Background(), CheckoutRequest{AssetID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
