package catalog_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mkrutov/wb-catalog/internal/models"
	"github.com/mkrutov/wb-catalog/internal/repository"
	"github.com/mkrutov/wb-catalog/internal/services/catalog"
	"github.com/mkrutov/wb-catalog/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Refresh(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	product1 := models.Product{ProductID: "1", Name: "Backpack", Price: 1500}
	product2 := models.Product{ProductID: "2", Name: "Tote bag", Price: 900}

	testCases := []struct {
		name          string
		setupMocks    func(mSearcher *mocks.Searcher, mRepo *mocks.ProductRepository)
		expectedCount int
		expectError   bool
	}{
		{
			name: "Success: fetched products are stamped and stored",
			setupMocks: func(mSearcher *mocks.Searcher, mRepo *mocks.ProductRepository) {
				mSearcher.On("SearchProducts", ctx, "bag", 10).
					Return([]models.Product{product1, product2}, nil).Once()

				mRepo.On("UpsertProducts", ctx, mock.MatchedBy(func(products []models.Product) bool {
					if len(products) != 2 {
						return false
					}
					for _, p := range products {
						if p.SearchQuery != "bag" || p.Category != "accessories" {
							return false
						}
					}
					return true
				})).Return(2, nil).Once()
			},
			expectedCount: 2,
		},
		{
			name: "Success: empty upstream result stores nothing",
			setupMocks: func(mSearcher *mocks.Searcher, _ *mocks.ProductRepository) {
				mSearcher.On("SearchProducts", ctx, "bag", 10).
					Return([]models.Product{}, nil).Once()
			},
			expectedCount: 0,
		},
		{
			name: "Error: upstream search failed",
			setupMocks: func(mSearcher *mocks.Searcher, _ *mocks.ProductRepository) {
				mSearcher.On("SearchProducts", ctx, "bag", 10).
					Return(nil, errors.New("status code error: [500]")).Once()
			},
			expectError: true,
		},
		{
			name: "Error: storage failed",
			setupMocks: func(mSearcher *mocks.Searcher, mRepo *mocks.ProductRepository) {
				mSearcher.On("SearchProducts", ctx, "bag", 10).
					Return([]models.Product{product1}, nil).Once()
				mRepo.On("UpsertProducts", ctx, mock.Anything).
					Return(0, errors.New("db connection lost")).Once()
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mSearcher := mocks.NewSearcher(t)
			mRepo := mocks.NewProductRepository(t)
			tc.setupMocks(mSearcher, mRepo)

			service := catalog.NewCatalog(logger, mSearcher, mRepo)

			count, err := service.Refresh(ctx, "bag", "accessories", 10)

			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCount, count)
		})
	}
}

func TestCatalog_List(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("delegates the filter to the repository", func(t *testing.T) {
		mRepo := mocks.NewProductRepository(t)
		filter := models.ProductFilter{Query: "bag", Limit: 50}
		expected := []models.Product{{ProductID: "1", Name: "Backpack"}}

		mRepo.On("ListProducts", ctx, filter).Return(expected, nil).Once()

		service := catalog.NewCatalog(logger, mocks.NewSearcher(t), mRepo)

		products, err := service.List(ctx, filter)

		require.NoError(t, err)
		assert.Equal(t, expected, products)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		mRepo := mocks.NewProductRepository(t)
		mRepo.On("ListProducts", ctx, mock.Anything).
			Return(nil, errors.New("db connection lost")).Once()

		service := catalog.NewCatalog(logger, mocks.NewSearcher(t), mRepo)

		_, err := service.List(ctx, models.ProductFilter{Query: "bag"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db connection lost")
	})
}

func TestCatalog_Get(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("found", func(t *testing.T) {
		mRepo := mocks.NewProductRepository(t)
		expected := &models.Product{ProductID: "123", Name: "Backpack"}
		mRepo.On("FindByProductID", ctx, "123").Return(expected, nil).Once()

		service := catalog.NewCatalog(logger, mocks.NewSearcher(t), mRepo)

		product, err := service.Get(ctx, "123")

		require.NoError(t, err)
		assert.Equal(t, expected, product)
	})

	t.Run("not found passes the sentinel through", func(t *testing.T) {
		mRepo := mocks.NewProductRepository(t)
		mRepo.On("FindByProductID", ctx, "404").
			Return(nil, repository.ErrProductNotFound).Once()

		service := catalog.NewCatalog(logger, mocks.NewSearcher(t), mRepo)

		_, err := service.Get(ctx, "404")

		require.ErrorIs(t, err, repository.ErrProductNotFound)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		mRepo := mocks.NewProductRepository(t)
		mRepo.On("FindByProductID", ctx, "123").
			Return(nil, errors.New("db connection lost")).Once()

		service := catalog.NewCatalog(logger, mocks.NewSearcher(t), mRepo)

		_, err := service.Get(ctx, "123")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db connection lost")
	})
}
