package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputePostsRequest(t *testing.T) {
	var got domain.RecomputeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/forecast/run", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"run_id":"run-1","products":[{"product_id":"SKU1","horizon_days":14,"mean":3.5,"p10":2,"p90":5}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.ForecastConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 5})
	res, err := client.Recompute(context.Background(), domain.RecomputeRequest{
		AccountID:   "acc-1",
		ProductIDs:  []string{"SKU1"},
		HorizonDays: 14,
		Country:     domain.StringPtr("FR"),
	})

	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	require.Len(t, res.Products, 1)
	assert.Equal(t, 3.5, res.Products[0].Mean)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.Equal(t, []string{"SKU1"}, got.ProductIDs)
	assert.Equal(t, 14, got.HorizonDays)
	assert.Equal(t, "FR", domain.StringValue(got.Country))
}

func TestRecomputeSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(config.ForecastConfig{BaseURL: srv.URL})
	_, err := client.Recompute(context.Background(), domain.RecomputeRequest{AccountID: "acc-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestRecomputeHonoursContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(config.ForecastConfig{BaseURL: srv.URL})
	_, err := client.Recompute(ctx, domain.RecomputeRequest{AccountID: "acc-1"})

	require.Error(t, err)
}
