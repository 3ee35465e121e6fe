package model

import "time"

// Product is a catalog row. Only available products may ever be shown to or
// sold by the AI.
type Product struct {
	ID           string    `db:"id" json:"id"`
	MerchantID   string    `db:"merchant_id" json:"merchantId"`
	CategoryID   *string   `db:"category_id" json:"categoryId,omitempty"`
	CategoryName *string   `db:"category_name" json:"categoryName,omitempty"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Price        float64   `db:"price" json:"price"`
	IsAvailable  bool      `db:"is_available" json:"isAvailable"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type Category struct {
	ID           string    `db:"id" json:"id"`
	MerchantID   string    `db:"merchant_id" json:"merchantId"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
