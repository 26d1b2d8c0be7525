package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/luispontes/ContaCerta/app/controllers"
	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/cache"
	"github.com/luispontes/ContaCerta/internal/pkg/database"
	"github.com/luispontes/ContaCerta/internal/pkg/gateway"
	"github.com/luispontes/ContaCerta/internal/pkg/mail"
	"github.com/luispontes/ContaCerta/internal/pkg/middleware"
	"github.com/luispontes/ContaCerta/internal/pkg/session"
	"github.com/luispontes/ContaCerta/internal/pkg/signup"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repos := repository.NewFactory(database.GetDB()).GetRepositories()

	gw := gateway.NewClientFromEnv()
	notifier := mail.NewNotifier()
	provisioner := signup.NewProvisioner(repos.Registration, repos.User, repos.Subscription, notifier)
	reconciler := signup.NewReconciler(repos.Registration, gw, provisioner)
	reconciler.Cache = cache.StringCache{}
	orchestrator := signup.NewOrchestrator(repos.Registration, gw, provisioner, notifier)

	signupCtrl := &controllers.SignupController{
		Regs:         repos.Registration,
		Plans:        repos.Plan,
		Orchestrator: orchestrator,
		Reconciler:   reconciler,
	}
	webhookCtrl := &controllers.WebhookController{
		Regs:       repos.Registration,
		Events:     repos.WebhookEvent,
		Reconciler: reconciler,
	}
	authCtrl := &controllers.AuthController{Users: repos.User}
	subCtrl := &controllers.SubscriptionController{Subs: repos.Subscription}
	adminCtrl := &controllers.AdminController{Subs: repos.Subscription, Users: repos.User}
	invoiceCtrl := &controllers.InvoiceController{
		Cards:        repos.CreditCard,
		Transactions: repos.Transaction,
	}

	session.NewSessionStore()

	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Use(middleware.UserContextMiddleware)

	v1 := api.Group("/v1")

	// Signup flow, no session required.
	v1.Get("/plans", signupCtrl.HandleListPlans)
	v1.Post("/registrations", signupCtrl.HandleCreate)
	v1.Get("/registrations/lookup", signupCtrl.HandleLookupByEmail)
	v1.Post("/registrations/:id/charge", signupCtrl.HandleInitiateCharge)
	v1.Get("/registrations/:id/status", signupCtrl.HandleCheckStatus)

	// Gateway push notifications, authenticated by shared token.
	v1.Post("/webhooks/gateway", webhookCtrl.HandleGatewayWebhook)

	// Session auth.
	v1.Post("/login", authCtrl.HandleLogin)
	v1.Post("/logout", authCtrl.HandleLogout)

	// Authenticated app surface.
	authed := v1.Group("", middleware.RequireAuth)
	authed.Get("/me", authCtrl.HandleMe)
	authed.Get("/subscription", subCtrl.HandleGetSubscription)
	authed.Get("/cards/:id/invoice", invoiceCtrl.HandleGetInvoice)

	// Admin dashboard.
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/subscriptions/summary", adminCtrl.HandleSubscriptionSummary)
	admin.Post("/users/:id/extend-trial", adminCtrl.HandleExtendTrial)
}
