package entity

import "time"

// Customer empresa cliente del propietario (directorio del CRM).
type Customer struct {
	ID         string
	OwnerID    string
	Name       string
	NIF        string // vacío = consumidor final
	Address    string
	City       string
	PostalCode string
	Province   string
	Country    string
	Phone      string
	Email      string
	Website    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
