package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when an order status would move backwards or skip a step.
var ErrInvalidTransition = errors.New("invalid order status transition")

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusApproved:
		return 1
	case OrderStatusDelivered:
		return 2
	}
	return -1
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s.rank() >= 0
}

// CheckTransition validates a move from s to next.
// Staying in place is allowed; only single forward steps are otherwise accepted.
func (s OrderStatus) CheckTransition(next OrderStatus) error {
	if !s.Valid() || !next.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, s, next)
	}
	if next.rank() == s.rank() || next.rank() == s.rank()+1 {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
}

// ContactDetails are the shipping fields collected at checkout.
type ContactDetails struct {
	Email   string `json:"email" form:"email" validate:"required"`
	Phone   string `json:"phone" form:"phone" validate:"omitempty,max=32"`
	Address string `json:"address" form:"address" validate:"required"`
}

// Order represents a customer order created by one checkout.
type Order struct {
	ID              string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Items           ProductSnapshots `json:"items" gorm:"type:text"`
	Total           decimal.Decimal  `json:"total" gorm:"type:decimal(12,2)"`
	ReceiptURL      string           `json:"receipt_url"`
	Status          OrderStatus      `json:"status" gorm:"type:varchar(16);index"`
	CustomerEmail   string           `json:"customer_email" gorm:"index"`
	CustomerPhone   string           `json:"customer_phone"`
	CustomerAddress string           `json:"customer_address"`
	CreatedAt       time.Time        `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SoldCounts maps product id to units sold across orders.
type SoldCounts map[string]int

// ComputeSoldCounts counts every occurrence of each product id over all orders, whatever their status.
func ComputeSoldCounts(orders []Order) SoldCounts {
	counts := SoldCounts{}
	for _, o := range orders {
		for _, item := range o.Items {
			counts[item.ID]++
		}
	}
	return counts
}
