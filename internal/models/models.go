package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type OrderState string

const (
	OrderStateCreated   OrderState = "CREATED"
	OrderStateAnalysis  OrderState = "ANALYSIS"
	OrderStateCompleted OrderState = "COMPLETED"
)

type OrderStatus string

const (
	OrderStatusActive  OrderStatus = "ACTIVE"
	OrderStatusDeleted OrderStatus = "DELETED"
)

type ServiceStatus string

const (
	ServiceStatusPending ServiceStatus = "PENDING"
	ServiceStatusDone    ServiceStatus = "DONE"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the user shape returned by auth responses.
// The password hash never leaves the service layer.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// ServiceItem is a line item embedded in an order. Status DONE exists in the
// schema but no operation transitions an item out of PENDING.
type ServiceItem struct {
	Name   string        `json:"name"`
	Value  float64       `json:"value"`
	Status ServiceStatus `json:"status"`
}

type Order struct {
	ID        uuid.UUID     `json:"id"`
	Lab       string        `json:"lab"`
	Patient   string        `json:"patient"`
	Customer  string        `json:"customer"`
	Services  []ServiceItem `json:"services"`
	State     OrderState    `json:"state"`
	Status    OrderStatus   `json:"status"`
	UserID    uuid.UUID     `json:"userId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
