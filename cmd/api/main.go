package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/graniteflow/crm-backend/internal/infra/database"
	"github.com/graniteflow/crm-backend/internal/infra/http/handlers"
	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
	"github.com/graniteflow/crm-backend/internal/infra/integration/ledger"
	"github.com/graniteflow/crm-backend/internal/infra/integration/scheduling"
	"github.com/graniteflow/crm-backend/internal/infra/integration/smsgw"
	"github.com/graniteflow/crm-backend/internal/infra/mail"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
	"github.com/graniteflow/crm-backend/internal/infra/sms"
	"github.com/graniteflow/crm-backend/internal/infra/worker"
	"github.com/graniteflow/crm-backend/internal/usecase"
)

// Config collects everything the process reads from the environment. It is
// loaded once here and handed to constructors; nothing else touches os.Getenv.
type Config struct {
	Port        string
	DatabaseURL string

	AMQPUser string
	AMQPPass string
	AMQPHost string
	AMQPPort string

	StripeWebhookSecret string
	Environment         string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	SMSToken  string
	SMSFrom   string
	SMSAPIURL string

	LedgerAPIKey string
	LedgerURL    string

	SchedulingURL    string
	SchedulingID     string
	SchedulingSecret string

	FrontendURL     string
	OpsEmail        string
	ProductionEmail string
}

func loadConfig() Config {
	mailPort, err := strconv.Atoi(getenv("MAIL_PORT", "587"))
	if err != nil {
		mailPort = 587
	}

	return Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		AMQPUser: getenv("AMQP_USER", "guest"),
		AMQPPass: getenv("AMQP_PASS", "guest"),
		AMQPHost: getenv("AMQP_HOST", "localhost"),
		AMQPPort: getenv("AMQP_PORT", "5672"),

		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Environment:         getenv("ENVIRONMENT", "development"),

		MailHost: os.Getenv("MAIL_HOST"),
		MailPort: mailPort,
		MailUser: os.Getenv("MAIL_USER"),
		MailPass: os.Getenv("MAIL_PASS"),
		MailFrom: getenv("MAIL_FROM", "no-reply@graniteflow.com"),

		SMSToken:  os.Getenv("SMS_API_TOKEN"),
		SMSFrom:   os.Getenv("SMS_FROM_NUMBER"),
		SMSAPIURL: os.Getenv("SMS_API_URL"),

		LedgerAPIKey: os.Getenv("LEDGER_API_KEY"),
		LedgerURL:    os.Getenv("LEDGER_API_URL"),

		SchedulingURL:    os.Getenv("SCHEDULING_API_URL"),
		SchedulingID:     os.Getenv("SCHEDULING_CLIENT_ID"),
		SchedulingSecret: os.Getenv("SCHEDULING_CLIENT_SECRET"),

		FrontendURL:     getenv("FRONTEND_URL", "http://localhost:5173"),
		OpsEmail:        getenv("OPS_EMAIL", "sales@graniteflow.com"),
		ProductionEmail: getenv("PRODUCTION_EMAIL", "production@graniteflow.com"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()
	cfg := loadConfig()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPUser, cfg.AMQPPass, cfg.AMQPHost, cfg.AMQPPort)
	if err != nil {
		log.Fatalf("rabbitmq connection failed: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	estimateRepo := database.NewEstimateRepository(db)
	invoiceRepo := database.NewInvoiceRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	repRepo := database.NewSalesRepRepository(db)
	eventRepo := database.NewWebhookEventRepository(db)

	// 2. Integrations and adapters
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, "templates")
	smsSender := sms.NewSender(smsgw.NewClient(cfg.SMSToken, cfg.SMSFrom, cfg.SMSAPIURL))
	ledgerClient := ledger.NewClient(cfg.LedgerAPIKey, cfg.LedgerURL)
	schedulingClient := scheduling.NewClient(cfg.SchedulingURL, cfg.SchedulingID, cfg.SchedulingSecret)

	// 3. Background workers
	notificationWorker := queue.NewWorker(rabbitMQ.Ch, mailSender, smsSender)
	go notificationWorker.Start(queue.QueueName)

	pruner := worker.NewWebhookEventPruner(eventRepo)
	go pruner.Start(context.Background())

	// 4. UseCases
	captureUC := usecase.NewCaptureLeadUseCase(leadRepo, producer, cfg.OpsEmail, cfg.FrontendURL)
	advanceUC := usecase.NewAdvanceStageUseCase(leadRepo, producer, schedulingClient, cfg.OpsEmail, cfg.ProductionEmail, cfg.FrontendURL)
	routeUC := usecase.NewRouteLeadUseCase(repRepo, producer, cfg.FrontendURL)
	sequences := usecase.NewSequenceScheduler(producer, customerRepo)
	workflow := usecase.NewStageWorkflow(estimateRepo, advanceUC)
	processUC := usecase.NewProcessEventUseCase(
		eventRepo, estimateRepo, invoiceRepo, customerRepo,
		ledgerClient, producer, workflow,
		cfg.OpsEmail, cfg.FrontendURL,
	)

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(captureUC, advanceUC, routeUC, sequences, leadRepo)
	webhookHandler := handlers.NewWebhookHandler(processUC, cfg.StripeWebhookSecret, cfg.Environment)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, cfg.StripeWebhookSecret != "")

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.FrontendURL, "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/leads", leadHandler.CaptureLead)
	r.Get("/leads/{leadId}", leadHandler.GetLead)
	r.Put("/leads/{leadId}/stage", leadHandler.AdvanceStage)
	r.Post("/leads/{leadId}/route", leadHandler.RouteLead)
	r.Post("/leads/{leadId}/sequence", leadHandler.StartSequence)
	r.Post("/customers/{customerId}/retention", leadHandler.StartRetention)

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookHandler.Handle)
		r.Get("/stripe/test", webhookHandler.HandleTest)
	})

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	log.Printf("GraniteFlow CRM API listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
