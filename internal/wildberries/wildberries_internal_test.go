package wildberries

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mkrutov/wb-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper — its a mock for http.RoundTripper.
type mockRoundTripper struct {
	response *http.Response
	err      error
}

func (m *mockRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	return m.response, m.err
}

func newTestClient(rt http.RoundTripper) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(logger, "https://search.example.com/search", 5*time.Second)
	c.client.Transport = rt

	return c
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// =============================================================================
// Tests for parsing logic
// =============================================================================

func TestSearchProducts_Parsing(t *testing.T) {
	ctx := t.Context()

	testCases := []struct {
		name     string
		body     string
		limit    int
		expected []models.Product
	}{
		{
			name: "discounted item keeps the original price and records the discount",
			body: `{"data":{"products":[
				{"id":123,"name":"Backpack","priceU":150000,"salePriceU":120000,"rating":4.5,"feedbacks":321}
			]}}`,
			limit: 10,
			expected: []models.Product{
				{
					ProductID:     "123",
					Name:          "Backpack",
					Price:         1500,
					DiscountPrice: floatPtr(1200),
					Rating:        4.5,
					ReviewsCount:  321,
					URL:           "https://www.wildberries.ru/catalog/123/detail.aspx",
				},
			},
		},
		{
			name: "item without discount uses the sale price as is",
			body: `{"data":{"products":[
				{"id":7,"name":"Mug","priceU":0,"salePriceU":49900,"rating":5,"feedbacks":12}
			]}}`,
			limit: 10,
			expected: []models.Product{
				{
					ProductID:    "7",
					Name:         "Mug",
					Price:        499,
					Rating:       5,
					ReviewsCount: 12,
					URL:          "https://www.wildberries.ru/catalog/7/detail.aspx",
				},
			},
		},
		{
			name: "item without sale price falls back to the original one",
			body: `{"data":{"products":[
				{"id":8,"name":"Plate","priceU":30000,"salePriceU":0,"rating":3.9,"feedbacks":4}
			]}}`,
			limit: 10,
			expected: []models.Product{
				{
					ProductID:    "8",
					Name:         "Plate",
					Price:        300,
					Rating:       3.9,
					ReviewsCount: 4,
					URL:          "https://www.wildberries.ru/catalog/8/detail.aspx",
				},
			},
		},
		{
			name: "blank name gets the placeholder",
			body: `{"data":{"products":[
				{"id":9,"name":"   ","priceU":10000,"salePriceU":0,"rating":0,"feedbacks":0}
			]}}`,
			limit: 10,
			expected: []models.Product{
				{
					ProductID: "9",
					Name:      "Без названия",
					Price:     100,
					URL:       "https://www.wildberries.ru/catalog/9/detail.aspx",
				},
			},
		},
		{
			name: "hit without id is skipped",
			body: `{"data":{"products":[
				{"id":0,"name":"Ghost","priceU":10000,"salePriceU":0},
				{"id":10,"name":"Real","priceU":20000,"salePriceU":0,"rating":4,"feedbacks":1}
			]}}`,
			limit: 10,
			expected: []models.Product{
				{
					ProductID:    "10",
					Name:         "Real",
					Price:        200,
					Rating:       4,
					ReviewsCount: 1,
					URL:          "https://www.wildberries.ru/catalog/10/detail.aspx",
				},
			},
		},
		{
			name: "result list is capped at the limit",
			body: `{"data":{"products":[
				{"id":1,"name":"A","priceU":10000,"salePriceU":0},
				{"id":2,"name":"B","priceU":20000,"salePriceU":0},
				{"id":3,"name":"C","priceU":30000,"salePriceU":0}
			]}}`,
			limit: 2,
			expected: []models.Product{
				{ProductID: "1", Name: "A", Price: 100, URL: "https://www.wildberries.ru/catalog/1/detail.aspx"},
				{ProductID: "2", Name: "B", Price: 200, URL: "https://www.wildberries.ru/catalog/2/detail.aspx"},
			},
		},
		{
			name:     "empty payload yields no products",
			body:     `{"data":{"products":[]}}`,
			limit:    10,
			expected: []models.Product(nil),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(&mockRoundTripper{response: jsonResponse(tc.body)})

			products, err := c.SearchProducts(ctx, "bag", tc.limit)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, products)
		})
	}
}

// =============================================================================
// Tests for network logic
// =============================================================================

func TestSearchProducts_Failures(t *testing.T) {
	ctx := t.Context()

	testCases := []struct {
		name           string
		mockResponse   *http.Response
		mockError      error
		expectedErrMsg string
	}{
		{
			name: "Server Error (500)",
			mockResponse: &http.Response{
				StatusCode: http.StatusInternalServerError,
				Status:     "500 Internal Server Error",
				Body:       io.NopCloser(strings.NewReader("Error")),
			},
			expectedErrMsg: "status code error: [500]",
		},
		{
			name:           "Network error",
			mockError:      errors.New("connection refused"),
			expectedErrMsg: "connection refused",
		},
		{
			name:           "Response body is not JSON",
			mockResponse:   jsonResponse("<html>not json</html>"),
			expectedErrMsg: "failed to decode search response as JSON",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(&mockRoundTripper{response: tc.mockResponse, err: tc.mockError})

			_, err := c.SearchProducts(ctx, "bag", 10)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}

func TestSearchProducts_RequestShape(t *testing.T) {
	ctx := t.Context()

	var captured *http.Request
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(`{"data":{"products":[]}}`), nil
	})

	c := newTestClient(rt)

	_, err := c.SearchProducts(ctx, "ноутбук", 50)
	require.NoError(t, err)
	require.NotNil(t, captured)

	query := captured.URL.Query()
	assert.Equal(t, "ноутбук", query.Get("query"))
	assert.Equal(t, "50", query.Get("limit"))
	assert.Equal(t, "1", query.Get("page"))
	assert.Equal(t, "popular", query.Get("sort"))
	assert.Equal(t, "rub", query.Get("curr"))
	assert.Equal(t, "catalog", query.Get("resultset"))
	assert.Contains(t, captured.Header.Get("User-Agent"), "Chrome")
	assert.Empty(t, captured.Header.Get("Accept-Encoding"), "transport must negotiate encoding itself")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func floatPtr(v float64) *float64 {
	return &v
}
