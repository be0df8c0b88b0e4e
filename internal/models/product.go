package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a single marketplace item as stored in the catalog.
type Product struct {
	ID            uuid.UUID
	ProductID     string // Wildberries item id, the upsert key.
	Name          string
	Price         float64
	DiscountPrice *float64 // nil when the item is sold without a discount.
	Rating        float64
	ReviewsCount  int
	URL           string
	Category      string
	SearchQuery   string // keyword that brought the item into the catalog.
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
