package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/auth"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/gateway"
	"github.com/projectbuzz/platform/internal/guard"
	"github.com/projectbuzz/platform/internal/handler"
	adminhandler "github.com/projectbuzz/platform/internal/handler/admin"
	"github.com/projectbuzz/platform/internal/ledger"
	"github.com/projectbuzz/platform/internal/repository"
	"github.com/projectbuzz/platform/internal/service"
	"github.com/projectbuzz/platform/internal/settlement"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	// Payment gateway credentials
	GatewayKeyID         string
	GatewayKeySecret     string
	GatewayWebhookSecret string
	GatewayBaseURL       string

	CORSAllowedOrigin string
}

// pendingRegistrationTTL bounds how long an unverified signup (and its OTP)
// stays redeemable.
const pendingRegistrationTTL = 15 * time.Minute

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	walletRepo := repository.NewWalletRepository()
	txRepo := repository.NewTransactionRepository()
	paymentRepo := repository.NewPaymentRepository()
	payoutRepo := repository.NewPayoutRepository()
	projectRepo := repository.NewProjectRepository()
	negotiationRepo := repository.NewNegotiationRepository()
	authUserRepo := repository.NewAuthUserRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine and settlement orchestrator
	ledgerEngine := ledger.NewEngine(walletRepo, txRepo, outboxRepo)
	orchestrator := settlement.NewOrchestrator(pool, ledgerEngine,
		paymentRepo, projectRepo, negotiationRepo, authUserRepo, outboxRepo, logger)

	// Payment gateway
	gatewayClient := gateway.NewClient(deps.GatewayKeyID, deps.GatewayKeySecret,
		deps.GatewayWebhookSecret, deps.GatewayBaseURL)

	// Services
	pendingStore := guard.NewTTLStore[domain.PendingRegistration](pendingRegistrationTTL)
	authSvc := service.NewAuthService(pool, authUserRepo, jwtMgr, pendingStore, logger)
	orderSvc := service.NewOrderService(pool, gatewayClient, orchestrator,
		paymentRepo, projectRepo, negotiationRepo, authUserRepo, logger)
	walletSvc := service.NewWalletService(pool, walletRepo, txRepo, logger)
	payoutSvc := service.NewPayoutService(pool, ledgerEngine, payoutRepo, walletRepo, outboxRepo, logger)
	negotiationSvc := service.NewNegotiationService(pool, negotiationRepo, projectRepo, outboxRepo, logger)

	// Handlers
	authLimiter := guard.NewRateLimiter(20, time.Minute)
	authHandler := handler.NewAuthHandler(authSvc, authLimiter)
	orderHandler := handler.NewOrderHandler(orderSvc)
	webhookHandler := handler.NewWebhookHandler(orderSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)
	negotiationHandler := handler.NewNegotiationHandler(negotiationSvc)
	projectHandler := handler.NewProjectHandler(pool, projectRepo)

	// Admin handlers
	payoutAdmin := adminhandler.NewPayoutAdminHandler(payoutSvc)
	paymentAdmin := adminhandler.NewPaymentAdminHandler(orchestrator)
	walletAdmin := adminhandler.NewWalletAdminHandler(pool, walletRepo, walletSvc)
	reportsAdmin := adminhandler.NewReportsHandler(pool)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSAllowedOrigin))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Webhooks (no auth; raw body required for signature verification)
	r.Post("/webhooks/gateway", webhookHandler.Gateway)

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/verify", authHandler.VerifyOTP)
		r.Post("/login", authHandler.Login)
		r.Post("/admin/login", authHandler.AdminLogin)
	})

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(jwtMgr))

		r.Get("/me/stats", authHandler.Stats)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/{id}", projectHandler.Get)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)
			r.Post("/verify", orderHandler.Verify)
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Get)
			r.Post("/{id}/cancel", orderHandler.Cancel)
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", walletHandler.Get)
			r.Get("/transactions", walletHandler.GetTransactions)
			r.Put("/bank", walletHandler.UpdateBank)
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", payoutHandler.Request)
			r.Get("/", payoutHandler.List)
			r.Post("/{id}/cancel", payoutHandler.Cancel)
		})

		r.Route("/negotiations", func(r chi.Router) {
			r.Post("/", negotiationHandler.Start)
			r.Get("/{id}", negotiationHandler.Get)
			r.Post("/{id}/offer", negotiationHandler.Offer)
			r.Post("/{id}/accept", negotiationHandler.Accept)
			r.Post("/{id}/reject", negotiationHandler.Reject)
		})
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/pending", payoutAdmin.ListPending)
			r.Post("/{id}/approve", payoutAdmin.Approve)
			r.Post("/{id}/reject", payoutAdmin.Reject)
			r.Post("/{id}/complete", payoutAdmin.Complete)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/{id}/refund", paymentAdmin.Refund)
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/{sellerID}/reconcile", walletAdmin.Reconcile)
			r.Patch("/{sellerID}/status", walletAdmin.UpdateStatus)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", reportsAdmin.GetDashboardStats)
			r.Get("/ledger", reportsAdmin.GetLedgerReport)
		})
	})

	return r
}
