package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/internal/users"
	pkgAuth "github.com/jaradmin/jar-backend/pkg/auth"
	"github.com/jaradmin/jar-backend/pkg/auth/session"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/security"
	"github.com/jaradmin/jar-backend/pkg/turnstile"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest, remoteIP string) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	AdminResetPassword(ctx context.Context, actorID, targetID uuid.UUID, req ResetPasswordRequest) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordFailedLogin(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error
	ResetFailedLogins(ctx context.Context, id uuid.UUID) error
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type service struct {
	users     userRepository
	session   sessionManager
	limiter   rateLimiter
	captcha   turnstile.Verifier
	notify    notifications.Service
	audit     audit.Service
	jwtCfg    config.JWTConfig
	loginCfg  config.LoginConfig
	limitCfg  config.AuthRateLimitConfig
	pwCfg     config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Limiter        rateLimiter
	Turnstile      turnstile.Verifier
	Notify         notifications.Service
	Audit          audit.Service
	JWTConfig      config.JWTConfig
	LoginConfig    config.LoginConfig
	RateLimit      config.AuthRateLimitConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if params.Turnstile == nil {
		return nil, fmt.Errorf("turnstile verifier is required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.UserRepo,
		session:  params.SessionManager,
		limiter:  params.Limiter,
		captcha:  params.Turnstile,
		notify:   params.Notify,
		audit:    params.Audit,
		jwtCfg:   params.JWTConfig,
		loginCfg: params.LoginConfig,
		limitCfg: params.RateLimit,
		pwCfg:    params.PasswordConfig,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, remoteIP string) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if err := s.allowAttempt(ctx, email, remoteIP); err != nil {
		return nil, err
	}

	// Fail closed: an unreachable verifier blocks login rather than waving
	// the request through.
	human, err := s.captcha.Verify(ctx, req.TurnstileToken, remoteIP)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "captcha verification unavailable")
	}
	if !human {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "captcha verification failed")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	now := s.now().UTC()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account temporarily locked")
	}
	if user.Archived || user.LoginDisabled {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		s.registerFailure(ctx, user, now)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset failed logins")
		}
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:       user.ID,
		Role:         user.Role,
		Capabilities: user.Capabilities(),
		JTI:          accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	if err := s.users.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save user")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &userID,
		Action:     "auth.password_change",
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    "password changed",
	})
	return nil
}

func (s *service) AdminResetPassword(ctx context.Context, actorID, targetID uuid.UUID, req ResetPasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	user, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.IsSuperAdmin && actorID != targetID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "super admin password can only be changed by the super admin")
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	if err := s.users.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save user")
	}

	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   user.ID,
		Category: enums.NotificationCategorySystem,
		Title:    "Jelszó visszaállítva",
		Message:  "Egy adminisztrátor visszaállította a jelszavadat.",
	}); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "user_id", user.ID.String()), "password reset notification failed")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "auth.password_reset",
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    "password reset by admin",
	})
	return nil
}

// allowAttempt applies the fixed-window limits: a tight one per email and a
// looser one per source IP.
func (s *service) allowAttempt(ctx context.Context, email, remoteIP string) error {
	window := s.limitCfg.LoginWindow

	ok, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email, int64(s.limitCfg.LoginEmailLimit), window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}

	if strings.TrimSpace(remoteIP) != "" {
		ok, _, err = s.limiter.FixedWindowAllow(ctx, "login:ip:"+remoteIP, int64(s.limitCfg.LoginIPLimit), window)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
		}
	}
	return nil
}

// registerFailure bumps the failed-attempt counter and trips the lockout once
// the threshold is crossed. Best effort: a failed write never changes the
// response the caller sees.
func (s *service) registerFailure(ctx context.Context, user *models.User, now time.Time) {
	attempts := user.FailedLoginAttempts + 1
	var lockedUntil *time.Time
	if attempts >= s.loginCfg.MaxFailedAttempts {
		until := now.Add(s.loginCfg.LockoutDuration)
		lockedUntil = &until
	}
	if err := s.users.RecordFailedLogin(ctx, user.ID, attempts, lockedUntil); err != nil {
		s.logg.Error(ctx, "record failed login", err)
		return
	}
	if lockedUntil == nil {
		return
	}

	s.notifyLockout(ctx, user)
	s.audit.Record(ctx, audit.Entry{
		Action:     "auth.lockout",
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    fmt.Sprintf("account locked after %d failed attempts", attempts),
	})
}

func (s *service) notifyLockout(ctx context.Context, user *models.User) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logg.Error(ctx, "list admins for lockout notice", err)
		return
	}
	ids := make([]uuid.UUID, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID)
	}
	if len(ids) == 0 {
		return
	}
	err = s.notify.NotifyMany(ctx, ids, notifications.NotifyInput{
		Category: enums.NotificationCategorySystem,
		Title:    "Fiók zárolva",
		Message:  fmt.Sprintf("%s (%s) fiókja zárolva lett többszöri sikertelen bejelentkezés miatt.", user.FullName(), user.Email),
	})
	if err != nil {
		s.logg.Error(ctx, "lockout notification failed", err)
	}
}
