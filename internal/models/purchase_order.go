package models

import "time"

type PurchaseOrderStatus string

const (
	POStatusOrderSent PurchaseOrderStatus = "order_sent"
	POStatusAccepted  PurchaseOrderStatus = "accepted"
	POStatusRejected  PurchaseOrderStatus = "rejected"
	POStatusConverted PurchaseOrderStatus = "converted"
)

type POFinancialStatus string

const (
	POFinanceNotCommitted POFinancialStatus = "not_committed"
	POFinanceCommitted    POFinancialStatus = "committed"
	POFinanceRealized     POFinancialStatus = "realized"
)

// PurchaseOrder: commitment ledger entry. Created exactly once per
// idempotency key; the committed amount is counted in committedCost until
// it is realized as actual material cost.
type PurchaseOrder struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`
	PhaseID   *uint `gorm:"index"`
	FloorID   *uint `gorm:"index"`

	OrderNumber string `gorm:"size:40;uniqueIndex;not null"`

	MaterialRequestID uint `gorm:"index;not null"`
	SupplierID        uint `gorm:"index;not null"`
	Supplier          Supplier

	QuantityOrdered float64 `gorm:"not null"`
	UnitCost        float64 `gorm:"not null"`
	TotalCost       float64 `gorm:"not null"`
	DeliveryDate    time.Time

	Status          PurchaseOrderStatus `gorm:"size:20;not null;default:'order_sent';index"`
	FinancialStatus POFinancialStatus   `gorm:"size:20;not null;default:'committed';index"`

	// Deduplication is enforced by lookup, not by a unique constraint: the
	// orphaned-order anomaly path deliberately creates a second row with the
	// same key.
	IdempotencyKey string `gorm:"size:64;index;not null"`
	// Token the supplier uses to accept or reject without authenticating.
	ResponseToken string `gorm:"size:40;uniqueIndex;not null"`

	CreatedBy uint `gorm:"not null"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
