package domain

// NotificationChannel is an addressable outbound messaging endpoint an order
// can be routed to. Read-only from this service's perspective; rows are
// managed by operators.
type NotificationChannel struct {
	Address string `json:"phone_number"`
	Name    string `json:"account_name"`
	Active  bool   `json:"is_active"`
}
