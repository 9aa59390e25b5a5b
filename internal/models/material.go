package models

import "time"

type MaterialStatus string

const (
	MaterialStatusPending          MaterialStatus = "pending"
	MaterialStatusApproved         MaterialStatus = "approved"
	MaterialStatusConvertedToOrder MaterialStatus = "converted_to_order"
	MaterialStatusReceived         MaterialStatus = "received"
	MaterialStatusRejected         MaterialStatus = "rejected"
	MaterialStatusArchived         MaterialStatus = "archived"
)

type MaterialBatchStatus string

const (
	BatchStatusOpen             MaterialBatchStatus = "open"
	BatchStatusPartiallyOrdered MaterialBatchStatus = "partially_ordered"
	BatchStatusFullyOrdered     MaterialBatchStatus = "fully_ordered"
)

// MaterialRequest: leaf cost record. Counted into actual spending while
// approved or received; while converted_to_order the money shows up as the
// linked purchase order's committed cost instead, so it is never counted
// twice.
type MaterialRequest struct {
	ID        uint  `gorm:"primaryKey"`
	ProjectID uint  `gorm:"index;not null"`
	PhaseID   *uint `gorm:"index"`
	FloorID   *uint `gorm:"index"`
	BatchID   *uint `gorm:"index"`

	Name              string  `gorm:"size:150;not null"`
	Unit              string  `gorm:"size:30"`
	QuantityRequested float64 `gorm:"not null;default:0"`
	UnitCost          float64 `gorm:"not null;default:0"`
	TotalCost         float64 `gorm:"not null;default:0"`

	Status MaterialStatus `gorm:"size:30;not null;default:'pending';index"`
	// Status held before archiving, restored verbatim on project restore.
	PreviousStatus MaterialStatus `gorm:"size:30"`

	LinkedPurchaseOrderID *uint `gorm:"index"`

	RequestedBy uint `gorm:"not null"`
	ApprovedBy  *uint

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaterialBatch groups requests that get ordered together via the bulk
// purchase-order endpoint.
type MaterialBatch struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index;not null"`
	Note      string `gorm:"size:255"`
	Status    MaterialBatchStatus `gorm:"size:30;not null;default:'open'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
