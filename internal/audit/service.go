package audit

import (
	"encoding/json"
	"fmt"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	ProjectID   *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog appends an audit row on the package DB. Callers treat failures
// as non-fatal except inside the commitment ledger, which uses WriteLogTx.
func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx appends an audit row inside an existing transaction so the row
// commits or rolls back together with the write it describes.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	// jsonb columns need the literal "null", not an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	row := models.AuditLog{
		ProjectID:   opts.ProjectID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("audit log write failed: %w", err)
	}

	return nil
}
