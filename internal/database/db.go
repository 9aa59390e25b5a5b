package database

import (
	"log"

	"github.com/Victorkib/kisheka-construction-sub014/internal/config"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected. Migration complete.")
}

// Migrate runs AutoMigrate for the full schema. Shared with the test setup
// so both always migrate the same model list.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectFinances{},
		&models.Phase{},
		&models.PhaseDependency{},
		&models.Floor{},
		&models.Supplier{},
		&models.Subcontractor{},
		&models.MaterialBatch{},
		&models.MaterialRequest{},
		&models.Expense{},
		&models.LabourBatch{},
		&models.SubcontractorPayment{},
		&models.PurchaseOrder{},
		&models.ContingencyDraw{},
		&models.BudgetTransfer{},
		&models.BudgetAdjustment{},
		&models.Investor{},
		&models.InvestorAllocation{},
		&models.Notification{},
		&models.AuditLog{},
	)
}
