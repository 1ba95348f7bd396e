package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ogdraster/pkg/cache"
	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/field"
	"github.com/matzehuels/ogdraster/pkg/pipeline"
	"github.com/matzehuels/ogdraster/pkg/stac"
)

// fakeSource serves one field for every request.
type fakeSource struct {
	rows    [][]float64
	findErr error
	lastReq stac.Request
}

func (s *fakeSource) Find(_ context.Context, req stac.Request) (*stac.Item, error) {
	s.lastReq = req
	if s.findErr != nil {
		return nil, s.findErr
	}
	return &stac.Item{
		ID:         "icon-ch2-20250301T06-t2m",
		Collection: "ch.meteoschweiz.ogd-forecasting-icon-ch2",
		Properties: stac.ItemProperties{Variable: req.Variable, ReferenceDatetime: "2025-03-01T06:00:00Z"},
	}, nil
}

func (s *fakeSource) FetchItem(_ context.Context, item *stac.Item) (*field.Field, error) {
	f, err := field.New(s.rows)
	if err != nil {
		return nil, err
	}
	return f.Named(item.Properties.Variable), nil
}

func newTestServer(t *testing.T, src pipeline.Source, c cache.Cache) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{})
	runner := pipeline.NewRunner(src, c, nil, logger)
	ts := httptest.NewServer(newServer(runner, RenderConfig{}, logger).routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestServeHealth(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(requestIDHeader)); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID", resp.Header.Get(requestIDHeader))
	}
}

func TestServeRequestIDReused(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get(requestIDHeader); got != id {
		t.Errorf("X-Request-ID = %q, want %q", got, id)
	}
}

func TestServeRender(t *testing.T) {
	src := &fakeSource{rows: [][]float64{{0, 10}, {20, math.NaN()}}}
	ts := newTestServer(t, src, nil)

	resp, err := http.Get(ts.URL + "/v1/render/ogd-forecasting-icon-ch2/T_2M?horizon=P0DT6H&perturbed=true")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if resp.Header.Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", resp.Header.Get("X-Cache"))
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("image is %dx%d, want 2x2", b.Dx(), b.Dy())
	}

	if src.lastReq.Variable != "T_2M" || src.lastReq.Horizon != "P0DT6H" || !src.lastReq.Perturbed {
		t.Errorf("request = %+v", src.lastReq)
	}
}

func TestServeRenderCache(t *testing.T) {
	src := &fakeSource{rows: [][]float64{{1, 2}}}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, src, c)
	url := ts.URL + "/v1/render/ogd-forecasting-icon-ch2/T_2M?format=tiff"

	for i, want := range []string{"MISS", "HIT"} {
		resp, err := http.Get(url)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("X-Cache"); got != want {
			t.Errorf("request %d: X-Cache = %q, want %q", i, got, want)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/tiff" {
			t.Errorf("request %d: Content-Type = %q, want image/tiff", i, ct)
		}
	}
}

func TestServeErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      *fakeSource
		path     string
		wantCode int
		wantErr  errors.Code
	}{
		{
			name:     "bad mode",
			src:      &fakeSource{rows: [][]float64{{1}}},
			path:     "/v1/render/ogd-forecasting-icon-ch2/T_2M?mode=color",
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidMode,
		},
		{
			name:     "bad perturbed",
			src:      &fakeSource{rows: [][]float64{{1}}},
			path:     "/v1/render/ogd-forecasting-icon-ch2/T_2M?perturbed=maybe",
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidInput,
		},
		{
			name:     "bad horizon",
			src:      &fakeSource{rows: [][]float64{{1}}},
			path:     "/v1/render/ogd-forecasting-icon-ch2/T_2M?horizon=6h",
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeInvalidDuration,
		},
		{
			name:     "all missing",
			src:      &fakeSource{rows: [][]float64{{math.NaN(), math.NaN()}}},
			path:     "/v1/render/ogd-forecasting-icon-ch2/T_2M",
			wantCode: http.StatusBadRequest,
			wantErr:  errors.ErrCodeAllMissing,
		},
		{
			name:     "item not found",
			src:      &fakeSource{findErr: errors.New(errors.ErrCodeItemNotFound, "no items")},
			path:     "/v1/render/ogd-forecasting-icon-ch2/T_2M",
			wantCode: http.StatusNotFound,
			wantErr:  errors.ErrCodeItemNotFound,
		},
		{
			name:     "upstream failure",
			src:      &fakeSource{findErr: errors.New(errors.ErrCodeNetwork, "HTTP 503")},
			path:     "/v1/render/ogd-forecasting-icon-ch2/T_2M",
			wantCode: http.StatusBadGateway,
			wantErr:  errors.ErrCodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.src, nil)
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != string(tt.wantErr) {
				t.Errorf("code = %q, want %q", body.Code, tt.wantErr)
			}
			if body.RequestID != resp.Header.Get(requestIDHeader) {
				t.Errorf("request_id = %q, header = %q", body.RequestID, resp.Header.Get(requestIDHeader))
			}
		})
	}
}

func TestServeNotFoundRoute(t *testing.T) {
	ts := newTestServer(t, &fakeSource{}, nil)
	resp, err := http.Get(ts.URL + "/v1/render/only-collection")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidShape, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeEmptyInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeRateLimited, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeWrite, "x"), http.StatusInternalServerError},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
