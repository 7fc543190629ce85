package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/netbill/netbill/internal/advance"
	"github.com/netbill/netbill/internal/audit"
	"github.com/netbill/netbill/internal/commission"
	"github.com/netbill/netbill/internal/config"
	"github.com/netbill/netbill/internal/ledger"
	"github.com/netbill/netbill/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Outside of dev both backends must be present; dev falls back to the
	// in-memory stores.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	recorder := audit.NewLoggerRecorder(d.Logger)

	var ledgerStore ledger.Ledger
	if d.DB != nil {
		ledgerStore = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerStore = ledger.NewInMemory()
	}
	ledgerSvc := ledger.NewService(ledgerStore, recorder)

	var advanceRepo advance.Repository
	if d.DB != nil {
		advanceRepo = advance.NewPostgresRepository(d.DB)
	} else {
		advanceRepo = advance.NewMemoryRepository()
	}
	advanceSvc := advance.NewService(advanceRepo, recorder)

	var commissionRepo commission.Repository
	if d.DB != nil {
		commissionRepo = commission.NewPostgresRepository(d.DB)
	} else {
		commissionRepo = commission.NewMemoryRepository()
	}
	commissionSvc := commission.NewService(commissionRepo, recorder)

	ledgerHandler := ledger.NewHandler(ledgerSvc)
	advanceHandler := advance.NewHandler(advanceSvc)
	commissionHandler := commission.NewHandler(commissionSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Every ledger operation runs on an explicit actor identity.
	protected := api.Group("", middleware.ActorContext())
	mutationLimit := middleware.MutationRateLimit(d.Cache, d.Cfg.MutationRateLimit)

	RegisterAccountRoutes(protected, ledgerHandler, mutationLimit)
	RegisterAdvanceRoutes(protected, advanceHandler, mutationLimit)
	RegisterCommissionRoutes(protected, commissionHandler)

	return nil
}
