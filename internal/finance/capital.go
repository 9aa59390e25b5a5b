package finance

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/Victorkib/kisheka-construction-sub014/internal/config"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"gorm.io/gorm"
)

// CapitalCheck is the result of a point-in-time capital availability check.
// An insufficient balance is a business rejection carried in IsValid and
// Message, never an error.
type CapitalCheck struct {
	IsValid   bool    `json:"is_valid"`
	Available float64 `json:"available"`
	Required  float64 `json:"required"`
	Message   string  `json:"message"`
}

// ValidateCapitalAvailability checks a proposed commitment against the
// latest persisted ProjectFinances snapshot. The snapshot is not recomputed
// inline; staleness between the read and the subsequent write is governed by
// the consistency mode (see WithProjectLock).
func ValidateCapitalAvailability(projectID uint, amount float64) (CapitalCheck, error) {
	var finances models.ProjectFinances
	err := database.DB.First(&finances, "project_id = ?", projectID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return CapitalCheck{}, fmt.Errorf("finances snapshot read failed: %w", err)
	}
	// No snapshot yet means no capital has been recorded: available is 0.

	available := finances.CapitalBalance - finances.TotalUsed - finances.CommittedCost

	check := CapitalCheck{
		Available: available,
		Required:  amount,
	}

	if amount > available {
		check.IsValid = false
		check.Message = fmt.Sprintf("Insufficient capital (available: %s, required: %s)",
			formatAmount(available), formatAmount(amount))
		return check, nil
	}

	check.IsValid = true
	return check, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var (
	consistencyMode = config.ConsistencySnapshot

	projectLocksMu sync.Mutex
	projectLocks   = map[uint]*sync.Mutex{}
)

// SetConsistencyMode wires the configured mode at boot.
func SetConsistencyMode(mode config.ConsistencyMode) {
	consistencyMode = mode
}

// WithProjectLock runs fn under the project's commitment lock when the
// serialized consistency mode is active. In snapshot mode fn runs directly,
// reproducing the original validate-then-commit behavior in which two
// concurrent commitments can both pass against the same stale snapshot.
func WithProjectLock(projectID uint, fn func() error) error {
	if consistencyMode != config.ConsistencySerialized {
		return fn()
	}

	projectLocksMu.Lock()
	lock, ok := projectLocks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		projectLocks[projectID] = lock
	}
	projectLocksMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}
