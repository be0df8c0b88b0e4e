package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mkrutov/wb-catalog/internal/models"
	"github.com/mkrutov/wb-catalog/internal/repository"
)

// listProductsRequest carries the query parameters of GET /api/products.
// Optional bounds are pointers so that an absent filter and a zero-valued
// one can be told apart.
type listProductsRequest struct {
	Query           string   `form:"query" binding:"required"`
	Limit           int      `form:"limit,default=10" binding:"min=1,max=300"`
	Category        string   `form:"category"`
	MinPrice        *float64 `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice        *float64 `form:"max_price" binding:"omitempty,min=0"`
	MinRating       *float64 `form:"min_rating" binding:"omitempty,min=0,max=5"`
	MinReviewsCount *int     `form:"min_reviews_count" binding:"omitempty,min=0"`
}

type productResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductName   string    `json:"product_name"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discount_price"`
	Rating        float64   `json:"rating"`
	ReviewsCount  int       `json:"reviews_count"`
}

// productDetailResponse is the single-product view; it carries the fields the
// listing omits.
type productDetailResponse struct {
	productResponse
	ProductID   string `json:"product_id"`
	ProductURL  string `json:"product_url"`
	Category    string `json:"category"`
	SearchQuery string `json:"search_query"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Wildberries product catalog service",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleListProducts refreshes the catalog for the keyword upstream and
// returns the stored products that satisfy the filters.
func (s *Server) handleListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	var req listProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A failed upstream fetch degrades to serving what is already stored.
	if _, err := s.catalog.Refresh(ctx, req.Query, req.Category, req.Limit); err != nil {
		s.log.WarnContext(ctx, "upstream refresh failed, serving stored products",
			"query", req.Query, "error", err)
	}

	products, err := s.catalog.List(ctx, models.ProductFilter{
		Query:           req.Query,
		Limit:           req.Limit,
		Category:        req.Category,
		MinPrice:        req.MinPrice,
		MaxPrice:        req.MaxPrice,
		MinRating:       req.MinRating,
		MinReviewsCount: req.MinReviewsCount,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list products", "query", req.Query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// The contract is a bare JSON array, an empty catalog included.
	response := make([]productResponse, 0, len(products))
	for _, p := range products {
		response = append(response, productResponse{
			ID:            p.ID,
			ProductName:   p.Name,
			Price:         p.Price,
			DiscountPrice: p.DiscountPrice,
			Rating:        p.Rating,
			ReviewsCount:  p.ReviewsCount,
		})
	}

	c.JSON(http.StatusOK, response)
}

// handleGetProduct returns a single stored product by its marketplace id.
func (s *Server) handleGetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("product_id")

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		s.log.ErrorContext(ctx, "failed to get product", "product_id", productID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, productDetailResponse{
		productResponse: productResponse{
			ID:            product.ID,
			ProductName:   product.Name,
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
			Rating:        product.Rating,
			ReviewsCount:  product.ReviewsCount,
		},
		ProductID:   product.ProductID,
		ProductURL:  product.URL,
		Category:    product.Category,
		SearchQuery: product.SearchQuery,
	})
}
