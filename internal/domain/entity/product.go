package entity

import "time"

// Product artículo del catálogo; IsService determina ProductType (S/P) en el SAF-T.
type Product struct {
	ID        string
	OwnerID   string
	Name      string
	SKU       string
	IsService bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
