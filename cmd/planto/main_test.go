package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/Planto/internal/client"
	"github.com/utafrali/Planto/pkg/httpclient"
)

func newCLIClient(t *testing.T, h http.HandlerFunc) *client.CatalogClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return client.NewCatalogClient(srv.URL, httpclient.New(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPrintHome(t *testing.T) {
	c := newCLIClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/plants":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"items":[{"_id":"1","name":"Snake Plant","price":29.9,"rating":5}],"total":3,"page":1,"limit":3,"hasMore":true}`))
		case "/api/plants/featured", "/api/plants/trendy":
			_, _ = w.Write([]byte(`[{"_id":"2","name":"Calathea plant","price":39.9,"rating":5}]`))
		default:
			_, _ = w.Write([]byte(`[{"_id":"r1","userName":"Alena Patel","rating":5,"text":"Lovely"}]`))
		}
	})

	var out bytes.Buffer
	ok := printHome(context.Background(), &out, c)

	assert.True(t, ok)
	assert.Contains(t, out.String(), "Featured")
	assert.Contains(t, out.String(), "Calathea plant")
	assert.Contains(t, out.String(), "$39.90")
	assert.Contains(t, out.String(), "Top selling (1 of 3)")
	assert.Contains(t, out.String(), "Alena Patel *****")
}

func TestPrintHome_ReportsFailures(t *testing.T) {
	c := newCLIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Failed to load plants"}`))
	})

	var out bytes.Buffer
	ok := printHome(context.Background(), &out, c)

	assert.False(t, ok)
	assert.Contains(t, out.String(), "Featured: failed to load")
}

func TestPrintHome_CanceledIsQuiet(t *testing.T) {
	c := newCLIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	ok := printHome(ctx, &out, c)

	assert.True(t, ok)
	assert.Empty(t, out.String())
}

func TestStars(t *testing.T) {
	assert.Equal(t, "*****", stars(5))
	assert.Equal(t, "****.", stars(3.6))
	assert.Equal(t, ".....", stars(-1))
	assert.Equal(t, "*****", stars(9))
}
