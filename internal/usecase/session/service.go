package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movapp-backend/internal/config"
	domainAudit "movapp-backend/internal/domain/audit"
	domainDevice "movapp-backend/internal/domain/device"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/metrics"
	"movapp-backend/internal/usecase/audit"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const deleteAccountMessage = "Cuenta desactivada. Los registros se mantienen para auditoría."

type Repositories struct {
	Users         domainUser.Repository
	Resets        domainUser.PasswordResetRepository
	Devices       domainDevice.Repository
	RefreshTokens domainDevice.RefreshTokenRepository
}

// Service implements the session use cases: registration, login, refresh,
// device revocation, password recovery and account deletion.
type Service struct {
	users         domainUser.Repository
	resets        domainUser.PasswordResetRepository
	devices       domainDevice.Repository
	refreshTokens domainDevice.RefreshTokenRepository

	tx           Transactor
	audit        *audit.Logger
	mailer       Mailer
	notifier     WelcomeNotifier
	tokenManager *utils.TokenManager
	hasher       *utils.PasswordHasher
	decrypter    *utils.PayloadDecrypter
	recovery     config.RecoveryConfig

	// dummyHash keeps the unknown-email login path as slow as a bad password.
	dummyHash string
	now       func() time.Time
}

// NewService creates a new session service
func NewService(
	repos Repositories,
	tx Transactor,
	auditLogger *audit.Logger,
	mailer Mailer,
	tokenManager *utils.TokenManager,
	cfg *config.Config,
) (*Service, error) {
	hasher := utils.NewPasswordHasher(cfg.Auth.BcryptCost)
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &Service{
		users:         repos.Users,
		resets:        repos.Resets,
		devices:       repos.Devices,
		refreshTokens: repos.RefreshTokens,
		tx:            tx,
		audit:         auditLogger,
		mailer:        mailer,
		tokenManager:  tokenManager,
		hasher:        hasher,
		decrypter:     utils.NewPayloadDecrypter(cfg.Auth.AESSecret),
		recovery:      cfg.Recovery,
		dummyHash:     dummyHash,
		now:           time.Now,
	}, nil
}

// WithNotifier enables the welcome push after registration.
func (s *Service) WithNotifier(n WelcomeNotifier) *Service {
	s.notifier = n
	return s
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest, info audit.RequestInfo) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	password, err := s.newPassword(req.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetLatestByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil && existing.Active {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		metrics.AuthEvent(domainAudit.ActionRegisterUser, appErrors.ErrUserAlreadyExists)
		return nil, appErrors.ErrUserAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	action := domainAudit.ActionRegisterUser
	var user *domainUser.User
	if existing != nil {
		// Soft-deleted account: bring it back under its original UUID.
		user = existing
		user.Name = req.Name
		user.Phone = req.Phone
		user.CountryID = req.CountryID
		user.PostalCode = req.PostalCode
		user.PasswordHash = passwordHash
		err = s.users.Reactivate(ctx, user)
		action = domainAudit.ActionReactivateAccount
	} else {
		user = &domainUser.User{
			Name:         req.Name,
			Email:        req.Email,
			Phone:        req.Phone,
			CountryID:    req.CountryID,
			PostalCode:   req.PostalCode,
			PasswordHash: passwordHash,
		}
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, appErrors.ErrUserAlreadyExists
		}
		return nil, err
	}

	s.sendWelcome(ctx, user)

	session, err := s.CreateSession(ctx, user, req.Device)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, action, &user.ID, deviceIDOf(req.Device), true, info)
	metrics.AuthEvent(action, nil)
	s.pushWelcome(ctx, user, deviceIDOf(req.Device))

	logger.Info("User registered successfully",
		zap.String("user_uuid", user.UUID.String()),
		zap.String("action", action),
		zap.String("event", "user_registered"),
	)

	return &AuthResponse{User: ToUserResponse(user), Session: *session}, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest, info audit.RequestInfo) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	password := s.decrypter.Decrypt(req.Password)

	user, err := s.users.GetActiveByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			s.hasher.Check(s.dummyHash, password)
			logger.Warn("Login attempt with unknown email",
				zap.String("email", req.Email),
				zap.String("event", "login_failed_unknown_email"),
			)
			metrics.AuthEvent(domainAudit.ActionLoginUser, appErrors.ErrInvalidCredentials)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Check(user.PasswordHash, password) {
		s.audit.Log(ctx, domainAudit.ActionLoginUser, &user.ID, deviceIDOf(req.Device), false, info)
		logger.Warn("Login attempt with invalid password",
			zap.String("user_uuid", user.UUID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		metrics.AuthEvent(domainAudit.ActionLoginUser, appErrors.ErrInvalidCredentials)
		return nil, appErrors.ErrInvalidCredentials
	}

	session, err := s.CreateSession(ctx, user, req.Device)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, domainAudit.ActionLoginUser, &user.ID, deviceIDOf(req.Device), true, info)
	metrics.AuthEvent(domainAudit.ActionLoginUser, nil)

	logger.Info("User logged in successfully",
		zap.String("user_uuid", user.UUID.String()),
		zap.String("event", "login_success"),
	)

	return &AuthResponse{User: ToUserResponse(user), Session: *session}, nil
}

func (s *Service) RevokeDevice(ctx context.Context, req *RevokeDeviceRequest, info audit.RequestInfo) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.Validation(err)
	}

	var owner *uint64
	device, err := s.devices.GetByDeviceID(ctx, req.DeviceID)
	switch {
	case err == nil:
		owner = &device.UserID
	case !errors.Is(err, domainDevice.ErrDeviceNotFound):
		return err
	}

	found, err := s.devices.Revoke(ctx, req.DeviceID)
	if err != nil {
		return err
	}

	s.audit.Log(ctx, domainAudit.ActionRevokeDevice, owner, req.DeviceID, true, info)
	metrics.AuthEvent(domainAudit.ActionRevokeDevice, nil)

	logger.Info("Device revoked",
		zap.String("device_id", req.DeviceID),
		zap.Bool("found", found),
		zap.String("event", "device_revoked"),
	)
	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID, info audit.RequestInfo) (*DeleteAccountResponse, error) {
	user, err := s.users.GetActiveByUUID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}

	devices, err := s.devices.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	firstDevice := ""
	if len(devices) > 0 {
		firstDevice = devices[0].DeviceID
	}

	// Written ahead of the transaction so the trail exists even if it rolls back.
	s.audit.Log(ctx, domainAudit.ActionDeleteAccount, &user.ID, firstDevice, true, info)

	var revoked, deletedTokens int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Deactivate(ctx, user.ID); err != nil {
			return err
		}

		var err error
		if revoked, err = s.devices.RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		if deletedTokens, err = s.refreshTokens.DeleteAllForUser(ctx, user.ID); err != nil {
			return err
		}
		return s.resets.DeleteAllForUser(ctx, user.ID)
	})
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to deactivate account: %w", err)
	}

	metrics.AuthEvent(domainAudit.ActionDeleteAccount, nil)
	logger.Info("Account deactivated",
		zap.String("user_uuid", user.UUID.String()),
		zap.Int64("devices_revoked", revoked),
		zap.Int64("refresh_tokens_deleted", deletedTokens),
		zap.String("event", "account_deactivated"),
	)

	return &DeleteAccountResponse{Message: deleteAccountMessage}, nil
}

func (s *Service) ListDevices(ctx context.Context, userID uuid.UUID) ([]*DeviceResponse, error) {
	user, err := s.users.GetActiveByUUID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}

	devices, err := s.devices.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]*DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, ToDeviceResponse(d))
	}
	return resp, nil
}

// newPassword undoes the client's optional password obfuscation and applies
// the password rule. Only passwords being set go through it; Login compares
// whatever was sent.
func (s *Service) newPassword(payload string) (string, error) {
	password := s.decrypter.Decrypt(payload)
	if err := utils.ValidatePassword(password); err != nil {
		return "", appErrors.NewAppError(appErrors.CodeValidation, err.Error(), nil)
	}
	return password, nil
}

func (s *Service) sendWelcome(ctx context.Context, user *domainUser.User) {
	body, err := renderWelcome(user.Name)
	if err == nil {
		err = s.mailer.Send(ctx, user.Email, welcomeSubject, body)
	}
	if err != nil {
		logger.Warn("Failed to send welcome email",
			zap.String("user_uuid", user.UUID.String()),
			zap.Error(err),
			zap.String("event", "welcome_email_failed"),
		)
	}
}

func (s *Service) pushWelcome(ctx context.Context, user *domainUser.User, deviceID string) {
	if s.notifier == nil || deviceID == "" {
		return
	}
	err := s.notifier.SendWelcome(ctx, deviceID, user.Name)
	if err != nil && !errors.Is(err, appErrors.ErrNoPushToken) {
		logger.Warn("Failed to push welcome notification",
			zap.String("user_uuid", user.UUID.String()),
			zap.Error(err),
			zap.String("event", "welcome_push_failed"),
		)
	}
}

func deviceIDOf(d *DeviceInfo) string {
	if d == nil {
		return ""
	}
	return d.DeviceID
}
