package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/apperr"
	"github.com/Victorkib/kisheka-construction-sub014/internal/audit"
	"github.com/Victorkib/kisheka-construction-sub014/internal/auth"
	"github.com/Victorkib/kisheka-construction-sub014/internal/config"
	"github.com/Victorkib/kisheka-construction-sub014/internal/contingency"
	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/expense"
	"github.com/Victorkib/kisheka-construction-sub014/internal/finance"
	"github.com/Victorkib/kisheka-construction-sub014/internal/floor"
	"github.com/Victorkib/kisheka-construction-sub014/internal/investor"
	"github.com/Victorkib/kisheka-construction-sub014/internal/labour"
	"github.com/Victorkib/kisheka-construction-sub014/internal/material"
	"github.com/Victorkib/kisheka-construction-sub014/internal/notify"
	"github.com/Victorkib/kisheka-construction-sub014/internal/phase"
	"github.com/Victorkib/kisheka-construction-sub014/internal/procurement"
	"github.com/Victorkib/kisheka-construction-sub014/internal/project"
	"github.com/Victorkib/kisheka-construction-sub014/internal/subcontractor"
	"github.com/Victorkib/kisheka-construction-sub014/internal/supplier"
	"github.com/Victorkib/kisheka-construction-sub014/internal/transfer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// statusFor maps engine error kinds onto HTTP statuses.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindPermission:
		return fiber.StatusForbidden
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindTransaction:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func main() {
	cfg := config.Load()
	database.Init(cfg)

	finance.SetConsistencyMode(cfg.Consistency)
	worker := finance.NewWorker(cfg.RecalcQueueLen)
	worker.Start()
	finance.SetWorker(worker)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if kind, ok := apperr.KindOf(err); ok {
				return c.Status(statusFor(kind)).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-owner", auth.RegisterOwnerHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Supplier response by token, no account needed
	api.Post("/supplier/orders/:token/respond", procurement.SupplierRespondHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Projects
	protected.Post("/projects", auth.RequirePermission(auth.ActionManageProjects), project.CreateProjectHandler())
	protected.Get("/projects", auth.RequirePermission(auth.ActionViewFinances), project.ListProjectsHandler())
	protected.Get("/projects/:id", auth.RequirePermission(auth.ActionViewFinances), project.GetProjectHandler())
	protected.Put("/projects/:id", auth.RequirePermission(auth.ActionManageProjects), project.UpdateProjectHandler())
	protected.Delete("/projects/:id", auth.RequirePermission(auth.ActionManageProjects), project.DeleteProjectHandler())
	protected.Get("/projects/:id/finances", auth.RequirePermission(auth.ActionViewFinances), project.GetFinancesHandler())
	protected.Put("/projects/:id/archive", auth.RequirePermission(auth.ActionArchiveProjects), project.ArchiveProjectHandler())
	protected.Put("/projects/:id/restore", auth.RequirePermission(auth.ActionArchiveProjects), project.RestoreProjectHandler())

	// Phases
	protected.Post("/phases", auth.RequirePermission(auth.ActionManagePhases), phase.CreatePhaseHandler())
	protected.Get("/phases", auth.RequirePermission(auth.ActionViewFinances), phase.ListPhasesHandler())
	protected.Put("/phases/:id/budget", auth.RequirePermission(auth.ActionAllocateBudget), phase.AllocateBudgetHandler())
	protected.Put("/phases/:id/dependencies", auth.RequirePermission(auth.ActionManagePhases), phase.SetDependenciesHandler())

	// Floors
	protected.Post("/floors", auth.RequirePermission(auth.ActionManagePhases), floor.CreateFloorHandler())
	protected.Get("/floors", auth.RequirePermission(auth.ActionViewFinances), floor.ListFloorsHandler())
	protected.Get("/floors/:id/spending", auth.RequirePermission(auth.ActionViewFinances), floor.GetFloorSpendingHandler())

	// Materials
	protected.Post("/materials", auth.RequirePermission(auth.ActionRecordCosts), material.CreateMaterialHandler())
	protected.Get("/materials", auth.RequirePermission(auth.ActionViewFinances), material.ListMaterialsHandler())
	protected.Put("/materials/:id/approve", auth.RequirePermission(auth.ActionApproveCosts), material.ApproveMaterialHandler())
	protected.Put("/materials/:id/reject", auth.RequirePermission(auth.ActionApproveCosts), material.RejectMaterialHandler())
	protected.Post("/material-batches", auth.RequirePermission(auth.ActionRecordCosts), material.CreateBatchHandler())

	// Expenses
	protected.Post("/expenses", auth.RequirePermission(auth.ActionRecordCosts), expense.CreateExpenseHandler())
	protected.Get("/expenses", auth.RequirePermission(auth.ActionViewFinances), expense.ListExpensesHandler())
	protected.Put("/expenses/:id/approve", auth.RequirePermission(auth.ActionApproveCosts), expense.ApproveExpenseHandler())
	protected.Put("/expenses/:id/reject", auth.RequirePermission(auth.ActionApproveCosts), expense.RejectExpenseHandler())

	// Labour
	protected.Post("/labour-batches", auth.RequirePermission(auth.ActionRecordCosts), labour.CreateLabourHandler())
	protected.Get("/labour-batches", auth.RequirePermission(auth.ActionViewFinances), labour.ListLabourHandler())
	protected.Put("/labour-batches/:id/approve", auth.RequirePermission(auth.ActionApproveCosts), labour.ApproveLabourHandler())
	protected.Put("/labour-batches/:id/pay", auth.RequirePermission(auth.ActionApproveCosts), labour.PayLabourHandler())

	// Subcontractors
	protected.Post("/subcontractors", auth.RequirePermission(auth.ActionRecordCosts), subcontractor.CreateSubcontractorHandler())
	protected.Get("/subcontractors", auth.RequirePermission(auth.ActionViewFinances), subcontractor.ListSubcontractorsHandler())
	protected.Post("/subcontractor-payments", auth.RequirePermission(auth.ActionRecordCosts), subcontractor.CreatePaymentHandler())
	protected.Get("/subcontractor-payments", auth.RequirePermission(auth.ActionViewFinances), subcontractor.ListPaymentsHandler())
	protected.Put("/subcontractor-payments/:id/approve", auth.RequirePermission(auth.ActionApproveCosts), subcontractor.ApprovePaymentHandler())
	protected.Put("/subcontractor-payments/:id/pay", auth.RequirePermission(auth.ActionApproveCosts), subcontractor.PayPaymentHandler())

	// Suppliers
	protected.Post("/suppliers", auth.RequirePermission(auth.ActionCreateOrders), supplier.CreateSupplierHandler())
	protected.Get("/suppliers", auth.RequirePermission(auth.ActionViewFinances), supplier.ListSuppliersHandler())
	protected.Put("/suppliers/:id", auth.RequirePermission(auth.ActionCreateOrders), supplier.UpdateSupplierHandler())

	// Purchase orders
	protected.Post("/purchase-orders", auth.RequirePermission(auth.ActionCreateOrders), procurement.CreateOrderHandler())
	protected.Post("/purchase-orders/bulk", auth.RequirePermission(auth.ActionCreateOrders), procurement.CreateBulkOrdersHandler())
	protected.Get("/purchase-orders", auth.RequirePermission(auth.ActionViewFinances), procurement.ListOrdersHandler())
	protected.Put("/purchase-orders/:id/convert", auth.RequirePermission(auth.ActionCreateOrders), procurement.ConvertOrderHandler())

	// Contingency draws
	protected.Post("/contingency-draws", auth.RequirePermission(auth.ActionRequestContingency), contingency.RequestDrawHandler())
	protected.Get("/contingency-draws", auth.RequirePermission(auth.ActionViewFinances), contingency.ListDrawsHandler())
	protected.Put("/contingency-draws/:id/approve", auth.RequirePermission(auth.ActionApproveContingency), contingency.ApproveDrawHandler())
	protected.Put("/contingency-draws/:id/reject", auth.RequirePermission(auth.ActionApproveContingency), contingency.RejectDrawHandler())

	// Budget transfers and adjustments
	protected.Post("/budget-transfers", auth.RequirePermission(auth.ActionRequestTransfer), transfer.RequestTransferHandler())
	protected.Get("/budget-transfers", auth.RequirePermission(auth.ActionViewFinances), transfer.ListTransfersHandler())
	protected.Put("/budget-transfers/:id/approve", auth.RequirePermission(auth.ActionApproveTransfer), transfer.ApproveTransferHandler())
	protected.Put("/budget-transfers/:id/reject", auth.RequirePermission(auth.ActionApproveTransfer), transfer.RejectTransferHandler())
	protected.Post("/budget-adjustments", auth.RequirePermission(auth.ActionRequestTransfer), transfer.RequestAdjustmentHandler())
	protected.Get("/budget-adjustments", auth.RequirePermission(auth.ActionViewFinances), transfer.ListAdjustmentsHandler())
	protected.Put("/budget-adjustments/:id/approve", auth.RequirePermission(auth.ActionApproveTransfer), transfer.ApproveAdjustmentHandler())
	protected.Put("/budget-adjustments/:id/reject", auth.RequirePermission(auth.ActionApproveTransfer), transfer.RejectAdjustmentHandler())

	// Investors
	protected.Post("/investors", auth.RequirePermission(auth.ActionManageInvestors), investor.CreateInvestorHandler())
	protected.Get("/investors", auth.RequirePermission(auth.ActionViewFinances), investor.ListInvestorsHandler())
	protected.Delete("/investors/:id", auth.RequirePermission(auth.ActionManageInvestors), investor.ArchiveInvestorHandler())
	protected.Post("/investor-allocations", auth.RequirePermission(auth.ActionManageInvestors), investor.AllocateHandler())
	protected.Get("/investor-allocations", auth.RequirePermission(auth.ActionViewFinances), investor.ListAllocationsHandler())

	// Audit trail and notifications
	protected.Get("/audit-logs", auth.RequirePermission(auth.ActionViewFinances), audit.ListAuditLogsHandler())
	protected.Get("/notifications", notify.ListNotificationsHandler())
	protected.Put("/notifications/:id/read", notify.MarkReadHandler())

	// Serve until interrupted, then drain the recalc worker.
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal(err)
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		log.Printf("recalc worker stop: %v", err)
	}
}
