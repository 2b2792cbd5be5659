package catalog

import "context"

// Vehicle is read-only reference data consumed by booking and restock
// forms.
type Vehicle struct {
	ID          string  `json:"id"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Year        int     `json:"year"`
	Color       string  `json:"color"`
	VIN         string  `json:"vin"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

// Dealer is read-only reference data for dealer pickers and filters.
type Dealer struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Location         string `json:"location"`
	ContactInfo      string `json:"contactInfo,omitempty"`
	RegistrationDate string `json:"registrationDate,omitempty"`
	IsActive         bool   `json:"isActive"`
}

// API lists reference data from the dealer-management backend.
type API interface {
	Vehicles(ctx context.Context, token string) ([]Vehicle, error)
	Dealers(ctx context.Context, token string) ([]Dealer, error)
}
