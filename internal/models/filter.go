package models

// ProductFilter narrows a catalog listing. Bound fields are pointers so that
// an absent filter and a zero-valued one can be told apart.
type ProductFilter struct {
	Query           string // matched against the product name, case-insensitive.
	Limit           int
	Category        string
	MinPrice        *float64
	MaxPrice        *float64
	MinRating       *float64
	MinReviewsCount *int
}
