package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mkrutov/wb-catalog/internal/models"
	"github.com/mkrutov/wb-catalog/internal/repository"
)

// ProductRepository is the persistence contract consumed by the catalog service.
type ProductRepository interface {
	// UpsertProducts stores the products, updating rows that already exist,
	// and returns the number of rows actually written.
	UpsertProducts(ctx context.Context, products []models.Product) (int, error)
	// ListProducts returns stored products narrowed by the filter.
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	// FindByProductID looks a product up by its marketplace id.
	FindByProductID(ctx context.Context, productID string) (*models.Product, error)
}

const upsertQuery = `INSERT INTO products
	(id, product_id, product_name, price, discount_price, rating, reviews_count, product_url, category, search_query)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (product_id) DO UPDATE SET
		product_name = EXCLUDED.product_name,
		price = EXCLUDED.price,
		discount_price = EXCLUDED.discount_price,
		rating = EXCLUDED.rating,
		reviews_count = EXCLUDED.reviews_count,
		product_url = EXCLUDED.product_url,
		category = EXCLUDED.category,
		search_query = EXCLUDED.search_query,
		updated_at = now()`

// UpsertProducts writes the batch inside a single transaction, keyed on the
// marketplace product id. A row that fails is logged and skipped, the rest of
// the batch still goes through; the returned count covers the rows written.
func (r *Repository) UpsertProducts(ctx context.Context, products []models.Product) (int, error) {
	const opn = "repository.postgres.UpsertProducts"

	if len(products) == 0 {
		return 0, nil
	}

	// 1. begin transaction
	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after a successful commit only returns sql.ErrTxDone

	// 2. Preparing a request for the effective insertion of new products.
	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to prepare upsert statement: %w", opn, err)
	}
	defer stmt.Close()

	// 3. Upsert each product under its own savepoint; a failed row aborts the
	// transaction on PostgreSQL, so it is rolled back to the savepoint and
	// skipped instead of sinking the whole batch.
	var stored int
	for _, p := range products {
		id := p.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		if _, err = tx.ExecContext(ctx, "SAVEPOINT upsert_row"); err != nil {
			return 0, fmt.Errorf("%s: failed to create savepoint: %w", opn, err)
		}

		_, err = stmt.ExecContext(ctx,
			id, p.ProductID, p.Name, p.Price, p.DiscountPrice,
			p.Rating, p.ReviewsCount, p.URL, p.Category, p.SearchQuery)
		if err != nil {
			r.log.WarnContext(ctx, "failed to upsert product, skipping",
				"op", opn, "product_id", p.ProductID, "error", err)

			if _, err = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT upsert_row"); err != nil {
				return 0, fmt.Errorf("%s: failed to roll back to savepoint: %w", opn, err)
			}
			continue
		}
		stored++
	}

	// 4. If all operations went through without errors - confirm the transaction.
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return stored, nil
}

// ListProducts builds the WHERE clause from the filter fields that are set.
// Absent bounds add no condition; the name match is case-insensitive.
func (r *Repository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	const opn = "repository.postgres.ListProducts"

	var sb strings.Builder
	sb.WriteString(`SELECT id, product_id, product_name, price, discount_price, rating,
		reviews_count, product_url, category, search_query, created_at, updated_at
		FROM products WHERE product_name ILIKE $1`)

	args := []any{"%" + filter.Query + "%"}

	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		fmt.Fprintf(&sb, " AND price >= $%d", len(args))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		fmt.Fprintf(&sb, " AND price <= $%d", len(args))
	}
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		fmt.Fprintf(&sb, " AND rating >= $%d", len(args))
	}
	if filter.MinReviewsCount != nil {
		args = append(args, *filter.MinReviewsCount)
		fmt.Fprintf(&sb, " AND reviews_count >= $%d", len(args))
	}

	// Popular items first, mirroring the upstream sort order.
	sb.WriteString(" ORDER BY reviews_count DESC, rating DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query products: %w", opn, err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err = rows.Scan(&p.ID, &p.ProductID, &p.Name, &p.Price, &p.DiscountPrice,
			&p.Rating, &p.ReviewsCount, &p.URL, &p.Category, &p.SearchQuery,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan product: %w", opn, err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return products, nil
}

// FindByProductID implements an interface method for retrieving a single
// product by its marketplace id.
func (r *Repository) FindByProductID(ctx context.Context, productID string) (*models.Product, error) {
	const opn = "repository.postgres.FindByProductID"

	var p models.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, product_id, product_name, price, discount_price, rating,
		reviews_count, product_url, category, search_query, created_at, updated_at
		FROM products WHERE product_id = $1`, productID).
		Scan(&p.ID, &p.ProductID, &p.Name, &p.Price, &p.DiscountPrice,
			&p.Rating, &p.ReviewsCount, &p.URL, &p.Category, &p.SearchQuery,
			&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: failed to get product: %w", opn, err)
	}

	return &p, nil
}
