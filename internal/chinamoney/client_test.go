package chinamoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jqliu/bondflow/internal/common"
	"github.com/jqliu/bondflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFixtureServer serves `total` synthetic treasury bonds, paginated by the
// requested pageSize, and records every request it sees.
func newFixtureServer(t *testing.T, total int) (*httptest.Server, *[]map[string]string) {
	t.Helper()

	var seen []map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		params := map[string]string{}
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		seen = append(seen, params)

		var page, pageSize int
		_, err := fmt.Sscanf(r.PostForm.Get("pageNo"), "%d", &page)
		require.NoError(t, err)
		_, err = fmt.Sscanf(r.PostForm.Get("pageSize"), "%d", &pageSize)
		require.NoError(t, err)

		start := (page - 1) * pageSize
		end := start + pageSize
		if end > total {
			end = total
		}

		records := make([]map[string]string, 0, pageSize)
		for i := start; i < end; i++ {
			rating := "AAA"
			if i%3 == 0 {
				rating = "---" // upstream placeholder for unrated issues
			}
			records = append(records, map[string]string{
				"isin":           fmt.Sprintf("CND10006Y%03d", i),
				"bondCode":       fmt.Sprintf("23%04d", i),
				"entyFullName":   "Ministry of Finance of the People's Republic of China",
				"bondType":       "Treasury Bond",
				"issueStartDate": fmt.Sprintf("2023-06-%02d", (i%28)+1),
				"debtRtng":       rating,
			})
		}

		resp := map[string]any{
			"data": map[string]any{
				"total":      total,
				"resultList": records,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&Config{
		BaseURL:   baseURL,
		PageDelay: -1, // no politeness delay in tests
	})
	require.NoError(t, err)
	return client
}

func TestClient_FetchBonds_Pagination(t *testing.T) {
	srv, seen := newFixtureServer(t, 120)
	client := newTestClient(t, srv.URL)

	filter := model.BondFilter{BondType: TreasuryBondCode, IssueYear: "2023"}
	bonds, err := client.FetchBonds(context.Background(), filter, FetchOptions{PageSize: 50})
	require.NoError(t, err)

	// Terminates at the total-count boundary: 50 + 50 + 20.
	assert.Len(t, bonds, 120)
	assert.Len(t, *seen, 3)

	// Union of pages has no duplicate or missing record.
	isins := make(map[string]bool, len(bonds))
	for _, b := range bonds {
		assert.False(t, isins[b.ISIN], "duplicate ISIN %s", b.ISIN)
		isins[b.ISIN] = true
		assert.NotEmpty(t, b.Hash)
	}
	for i := 0; i < 120; i++ {
		assert.True(t, isins[fmt.Sprintf("CND10006Y%03d", i)], "missing record %d", i)
	}

	// Filter and pagination params are sent on every request.
	for i, params := range *seen {
		assert.Equal(t, fmt.Sprintf("%d", i+1), params["pageNo"])
		assert.Equal(t, "50", params["pageSize"])
		assert.Equal(t, TreasuryBondCode, params["bondType"])
		assert.Equal(t, "2023", params["issueYear"])
	}
}

func TestClient_FetchBonds_RatingNormalization(t *testing.T) {
	srv, _ := newFixtureServer(t, 6)
	client := newTestClient(t, srv.URL)

	bonds, err := client.FetchBonds(context.Background(), model.BondFilter{}, FetchOptions{})
	require.NoError(t, err)
	require.Len(t, bonds, 6)

	assert.Equal(t, model.RatingUnavailable, bonds[0].Rating)
	assert.Equal(t, "AAA", bonds[1].Rating)
}

func TestClient_FetchBonds_EmptyResult(t *testing.T) {
	srv, _ := newFixtureServer(t, 0)
	client := newTestClient(t, srv.URL)

	bonds, err := client.FetchBonds(context.Background(), model.BondFilter{IssueYear: "1980"}, FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, bonds)
}

func TestClient_FetchBonds_MaxPages(t *testing.T) {
	srv, seen := newFixtureServer(t, 500)
	client := newTestClient(t, srv.URL)

	bonds, err := client.FetchBonds(context.Background(), model.BondFilter{}, FetchOptions{
		PageSize: 50,
		MaxPages: 3,
	})
	require.NoError(t, err)
	assert.Len(t, bonds, 150)
	assert.Len(t, *seen, 3)
}

func TestClient_FetchBonds_Progress(t *testing.T) {
	srv, _ := newFixtureServer(t, 75)
	client := newTestClient(t, srv.URL)

	var updates [][2]int
	_, err := client.FetchBonds(context.Background(), model.BondFilter{}, FetchOptions{
		PageSize: 50,
		Progress: func(fetched, total int) {
			updates = append(updates, [2]int{fetched, total})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{50, 75}, {75, 75}}, updates)
}

func TestClient_FetchBonds_HTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t, srv.URL)

	_, err := client.FetchBonds(context.Background(), model.BondFilter{}, FetchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamStatus)
}

func TestClient_FetchBonds_MalformedJSONSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t, srv.URL)

	_, err := client.FetchBonds(context.Background(), model.BondFilter{}, FetchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedPayload)
}

func TestClient_FetchBonds_RetryRecovers(t *testing.T) {
	failures := 2
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests <= failures {
			http.Error(w, "try later", http.StatusBadGateway)
			return
		}
		resp := map[string]any{"data": map[string]any{"total": 0, "resultList": []any{}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t, srv.URL)

	_, err := client.FetchBonds(context.Background(), model.BondFilter{}, FetchOptions{MaxAttempts: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, requests)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: "not-a-url"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestBondTypeName(t *testing.T) {
	assert.Equal(t, "Treasury Bond", BondTypeName(TreasuryBondCode))
	assert.Equal(t, "", BondTypeName("999999"))
}
