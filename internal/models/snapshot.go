package models

import (
	"database/sql/driver"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProductSnapshot is a copy of a product's fields taken when it was put in a cart.
// Later edits to the product never reach an existing snapshot.
type ProductSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// ProductSnapshots is stored as a single JSON column.
type ProductSnapshots []ProductSnapshot

// Value implements driver.Valuer.
func (s ProductSnapshots) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]ProductSnapshot(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode product snapshots: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *ProductSnapshots) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = ProductSnapshots{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for product snapshots", src)
	}
	var items []ProductSnapshot
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("failed to decode product snapshots: %w", err)
	}
	*s = items
	return nil
}

// EncodeSnapshots marshals a snapshot list for key/value storage.
func EncodeSnapshots(items []ProductSnapshot) ([]byte, error) {
	if items == nil {
		items = []ProductSnapshot{}
	}
	return json.Marshal(items)
}

// DecodeSnapshots is the inverse of EncodeSnapshots.
func DecodeSnapshots(b []byte) ([]ProductSnapshot, error) {
	items := []ProductSnapshot{}
	if len(b) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}
