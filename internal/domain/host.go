package domain

import "time"

// Host is a collection site in the network. Names are unique.
type Host struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recipient is an organization receiving distributions.
type Recipient struct {
	ID             string
	Name           string
	ContactName    string
	Phone          string
	Email          string
	WeeklyEstimate int
	Status         string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
