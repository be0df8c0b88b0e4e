package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkrutov/wb-catalog/internal/models"
	"github.com/mkrutov/wb-catalog/internal/repository"
	"github.com/mkrutov/wb-catalog/internal/repository/postgres"
	"github.com/mkrutov/wb-catalog/internal/wildberries"
)

// Catalog is an orchestrator that performs a full fetch-and-persist cycle.
type Catalog struct {
	log      *slog.Logger
	searcher wildberries.Searcher
	repo     postgres.ProductRepository
}

type Interface interface {
	// Refresh fetches products for the keyword upstream and upserts them.
	Refresh(ctx context.Context, query, category string, limit int) (int, error)
	// List returns stored products narrowed by the filter.
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	// Get returns a single stored product by its marketplace id.
	Get(ctx context.Context, productID string) (*models.Product, error)
}

// NewCatalog creates a new Catalog instance.
func NewCatalog(log *slog.Logger, searcher wildberries.Searcher, repo postgres.ProductRepository) *Catalog {
	return &Catalog{log: log, searcher: searcher, repo: repo}
}

// Refresh performs the full fetch-and-persist algorithm and returns the
// number of products actually stored.
func (c *Catalog) Refresh(ctx context.Context, query, category string, limit int) (int, error) {
	const opn = "catalog.Refresh"
	log := c.log.With("op", opn)

	// 1. Fetch product listings for the keyword from the marketplace.
	log.InfoContext(ctx, "Fetching products from upstream", "query", query, "limit", limit)
	products, err := c.searcher.SearchProducts(ctx, query, limit)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to search products: %w", opn, err)
	}

	// 2. An empty result set is a successful refresh of nothing.
	if len(products) == 0 {
		log.InfoContext(ctx, "Upstream returned no products", "query", query)
		return 0, nil
	}

	// 3. Stamp each hit with the keyword and category it was found under.
	for i := range products {
		products[i].SearchQuery = query
		products[i].Category = category
	}

	// 4. Upsert the batch and report how much of it made it to storage.
	stored, err := c.repo.UpsertProducts(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to store products: %w", opn, err)
	}
	log.InfoContext(ctx, "Successfully stored products", "fetched", len(products), "stored", stored)

	return stored, nil
}

// List returns stored products narrowed by the filter.
func (c *Catalog) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	const opn = "catalog.List"

	products, err := c.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list products: %w", opn, err)
	}

	return products, nil
}

// Get returns a single stored product by its marketplace id. The repository's
// not-found sentinel passes through untouched so callers can match on it.
func (c *Catalog) Get(ctx context.Context, productID string) (*models.Product, error) {
	const opn = "catalog.Get"

	product, err := c.repo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: failed to get product: %w", opn, err)
	}

	return product, nil
}
