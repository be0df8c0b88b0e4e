package wildberries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mkrutov/wb-catalog/internal/models"
)

const catalogBaseURL = "https://www.wildberries.ru"

// userAgent mimics a desktop Chrome browser; the search API answers plain
// HTTP clients with empty result sets.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)" +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0 Safari/537.36"

// Searcher fetches product listings for a keyword from the marketplace.
type Searcher interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
}

type Client struct {
	log       *slog.Logger
	client    *http.Client
	searchURL string
}

// NewClient creates a search client for the Wildberries catalog API.
func NewClient(log *slog.Logger, searchURL string, timeout time.Duration) *Client {
	return &Client{
		log:       log,
		searchURL: searchURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// searchResponse mirrors the relevant part of the catalog API payload.
// Prices arrive in kopecks.
type searchResponse struct {
	Data struct {
		Products []searchProduct `json:"products"`
	} `json:"data"`
}

type searchProduct struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	PriceU     int64   `json:"priceU"`
	SalePriceU int64   `json:"salePriceU"`
	Rating     float64 `json:"rating"`
	Feedbacks  int     `json:"feedbacks"`
}

// SearchProducts queries the catalog API for the keyword and maps at most
// limit raw hits into domain products.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	resp, err := c.getSearchResponse(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get search response: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// The API occasionally mislabels the Content-Type, so the body is decoded
	// as JSON unconditionally.
	var decoded searchResponse
	if err = json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response as JSON: %w", err)
	}

	hits := decoded.Data.Products
	c.log.InfoContext(ctx, "Search response received", "query", query, "hits", len(hits), "requested", limit)

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return c.parseProducts(ctx, hits), nil
}

func (c *Client) getSearchResponse(ctx context.Context, query string, limit int) (*http.Response, error) {
	reqURL, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search URL %s: %w", c.searchURL, err)
	}

	params := url.Values{}
	params.Set("TestGroup", "no_test")
	params.Set("TestID", "no_test")
	params.Set("appType", "1")
	params.Set("curr", "rub")
	params.Set("dest", "-1257786")
	params.Set("resultset", "catalog")
	params.Set("sort", "popular")
	params.Set("spp", "0")
	params.Set("suppressSpellcheck", "false")
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(limit))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", reqURL.String(), err)
	}

	// Browser-like headers; Accept-Encoding is left to the transport so gzip
	// is handled transparently.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-site")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	c.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", c.searchURL, err)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	c.log.InfoContext(ctx, "Successfully received http response", "status code", res.StatusCode)

	return res, nil
}

// parseProducts maps raw API hits to domain products. A hit without a usable
// id is skipped with a warning; the rest of the batch still goes through.
func (c *Client) parseProducts(ctx context.Context, hits []searchProduct) []models.Product {
	var products []models.Product

	for idx, hit := range hits {
		if hit.ID == 0 {
			c.log.WarnContext(ctx, "search hit has no product id, skipping", "index", idx)
			continue
		}

		name := strings.TrimSpace(hit.Name)
		if name == "" {
			name = "Без названия"
		}

		originalPrice := float64(hit.PriceU) / 100
		salePrice := float64(hit.SalePriceU) / 100

		// The sale price becomes the discount only when it actually undercuts
		// the original one.
		var price float64
		var discount *float64
		if salePrice > 0 && salePrice < originalPrice {
			price = originalPrice
			discount = &salePrice
		} else if salePrice > 0 {
			price = salePrice
		} else {
			price = originalPrice
		}

		product := models.Product{
			ProductID:     strconv.FormatInt(hit.ID, 10),
			Name:          name,
			Price:         price,
			DiscountPrice: discount,
			Rating:        hit.Rating,
			ReviewsCount:  hit.Feedbacks,
			URL:           fmt.Sprintf("%s/catalog/%d/detail.aspx", catalogBaseURL, hit.ID),
		}
		c.log.DebugContext(ctx, "Parsed product",
			"ProductID", product.ProductID, "Name", product.Name, "Price", product.Price)
		products = append(products, product)
	}

	return products
}
