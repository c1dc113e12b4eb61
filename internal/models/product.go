package models

import "time"

type Product struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Price       float64   `json:"price"`
	ImageURL    *string   `json:"image_url"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductSummary struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
	Price    float64 `json:"price"`
}
