package routes

import (
	"time"

	"movapp-backend/internal/config"
	"movapp-backend/internal/infrastructure/cache"
	"movapp-backend/internal/infrastructure/database/postgres"
	"movapp-backend/internal/infrastructure/gateway/stripe"
	"movapp-backend/internal/infrastructure/mail"
	"movapp-backend/internal/infrastructure/messaging"
	"movapp-backend/internal/infrastructure/push/expo"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/usecase/audit"
	"movapp-backend/internal/usecase/notification"
	"movapp-backend/internal/usecase/order"
	"movapp-backend/internal/usecase/session"
	"movapp-backend/pkg/mqtt"
	"movapp-backend/pkg/utils"

	"go.uber.org/zap"
)

// Services holds the wired use cases and the adapters the server needs
// to start and stop.
type Services struct {
	Sessions      *session.Service
	Orders        *order.Service
	Notifications *notification.Service
	Webhooks      *stripe.Gateway
	Tokens        *utils.TokenManager
}

// BuildServices wires repositories and adapters into the use cases.
// broker may be nil, in which case payment events are not published.
func BuildServices(cfg *config.Config, db *postgres.DB, broker *mqtt.Client) (*Services, error) {
	userRepository := postgres.NewUserRepository(db)
	deviceRepository := postgres.NewDeviceRepository(db)
	tokenManager := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	mailer := mail.NewSender(cfg.SMTP)

	notificationService := notification.NewService(deviceRepository, userRepository, expo.NewSender(cfg.Push))

	sessionService, err := session.NewService(
		session.Repositories{
			Users:         userRepository,
			Resets:        postgres.NewPasswordResetRepository(db),
			Devices:       deviceRepository,
			RefreshTokens: postgres.NewRefreshTokenRepository(db),
		},
		postgres.NewTransactor(db),
		audit.NewLogger(postgres.NewAuditRepository(db)),
		mailer,
		tokenManager,
		cfg,
	)
	if err != nil {
		return nil, err
	}
	sessionService.WithNotifier(notificationService)

	gateway := stripe.NewGateway(cfg.Stripe)
	deps := order.Dependencies{
		Orders:   postgres.NewOrderRepository(db),
		Payments: postgres.NewPaymentRepository(db),
		Users:    userRepository,
		Gateway:  gateway,
		Notifier: notificationService,
		Mailer:   mailer,
	}
	if client := cache.NewRedisClient(cfg.Redis); client != nil {
		deps.Events = cache.NewEventStore(client, time.Duration(cfg.Redis.EventTTLMinutes)*time.Minute)
	}
	if broker != nil {
		deps.Publisher = messaging.NewPaymentPublisher(broker, cfg.MQTT.TopicPrefix)
	} else {
		logger.Info("MQTT broker not configured, payment events will not be published")
	}

	logger.Debug("Services initialized",
		zap.Bool("smtp_enabled", cfg.SMTP.Enabled()),
		zap.Bool("event_dedupe", deps.Events != nil),
		zap.Bool("payment_events", deps.Publisher != nil),
	)

	return &Services{
		Sessions:      sessionService,
		Orders:        order.NewService(deps),
		Notifications: notificationService,
		Webhooks:      gateway,
		Tokens:        tokenManager,
	}, nil
}
