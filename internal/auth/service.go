// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
)

type ServiceConfig struct {
	MinPasswordLength  int
	RefreshLeeway      time.Duration
	PasswordRedirectTo string
	Locale             derive.Locale
}

// Service fronts the auth provider for the UI. Every form check it can do
// locally runs before the provider is contacted.
type Service struct {
	provider  Provider
	sessions  SessionStore
	cfg       ServiceConfig
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	provider Provider,
	sessions SessionStore,
	cfg ServiceConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinPasswordLength < 1 {
		cfg.MinPasswordLength = 6
	}
	return &Service{
		provider:  provider,
		sessions:  sessions,
		cfg:       cfg,
		validator: core.NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// ClientMeta identifies the device a session was opened from.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

func (s *Service) SignIn(
	ctx context.Context,
	req SignInRequest,
	meta ClientMeta,
) (*Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := core.Validate(s.validator, req); err != nil {
		return nil, err
	}

	ps, err := s.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session, err := s.open(ctx, ps, meta)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "signed in",
		"user_id", session.UserID,
		"session_id", session.ID,
	)
	return session, nil
}

// SignUp creates the account with its public profile. The returned session
// is nil while the provider waits for email confirmation.
func (s *Service) SignUp(
	ctx context.Context,
	req SignUpRequest,
	meta ClientMeta,
) (*ProviderUser, *Session, error) {
	if req.Password != req.ConfirmPassword {
		return nil, nil, core.ValidationError(s.text(msgPasswordMismatch))
	}
	if len([]rune(req.Password)) < s.cfg.MinPasswordLength {
		return nil, nil, core.ValidationError(s.text(msgPasswordTooShort, s.cfg.MinPasswordLength))
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := core.Validate(s.validator, req); err != nil {
		return nil, nil, err
	}

	outcome, err := s.provider.SignUp(ctx, req.Email, req.Password, Profile{
		FullName:          req.FullName,
		Phone:             strings.TrimSpace(req.Phone),
		Skills:            SplitSkills(req.Skills),
		Bio:               strings.TrimSpace(req.Bio),
		Location:          strings.TrimSpace(req.Location),
		TypeOfPartnership: req.TypeOfPartnership,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sign up: %w", err)
	}

	s.logger.InfoContext(ctx, "signed up",
		"user_id", outcome.User.ID,
		"confirmation_required", outcome.Session == nil,
	)

	if outcome.Session == nil {
		return &outcome.User, nil, nil
	}

	session, err := s.open(ctx, outcome.Session, meta)
	if err != nil {
		return nil, nil, err
	}
	return &outcome.User, session, nil
}

func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return core.ValidationError(s.text(msgEmailRequired))
	}

	if err := s.provider.ResetPasswordForEmail(ctx, email, s.cfg.PasswordRedirectTo); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// SignOut ends the session. The local session is removed even when the
// provider cannot be reached; its access token then lapses on expiry.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.provider.SignOut(ctx, session.AccessToken); err != nil {
		s.logger.WarnContext(ctx, "provider sign out failed",
			"session_id", sessionID,
			"error", err,
		)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.logger.InfoContext(ctx, "signed out",
		"user_id", session.UserID,
		"session_id", sessionID,
	)
	return nil
}

// Restore returns the stored session, refreshing its tokens first when the
// access token is expired or about to be. A session the provider refuses
// to refresh is removed.
func (s *Service) Restore(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, core.UnauthorizedError(s.text(msgNoSession))
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.UnauthorizedError(s.text(msgNoSession))
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !session.NeedsRefresh(now, s.cfg.RefreshLeeway) {
		return session, nil
	}

	ps, err := s.provider.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.WarnContext(ctx, "drop unrefreshable session failed",
				"session_id", sessionID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}

	session.apply(ps, now)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "session refreshed", "session_id", sessionID)
	return session, nil
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]Session, error) {
	return s.sessions.ListForUser(ctx, userID)
}

func (s *Service) open(
	ctx context.Context,
	ps *ProviderSession,
	meta ClientMeta,
) (*Session, error) {
	now := s.now()
	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	session.apply(ps, now)

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

const (
	msgPasswordMismatch = iota
	msgPasswordTooShort
	msgEmailRequired
	msgNoSession
	msgSignUpConfirm
	msgSignUpDone
	msgResetSent
)

var messages = map[int][2]string{
	msgPasswordMismatch: {"passwords do not match", "كلمات المرور غير متطابقة"},
	msgPasswordTooShort: {"password must be at least %d characters", "كلمة المرور يجب أن تكون %d أحرف على الأقل"},
	msgEmailRequired:    {"please enter your email", "يرجى إدخال البريد الإلكتروني"},
	msgNoSession:        {"session expired, please sign in again", "انتهت الجلسة، يرجى تسجيل الدخول مرة أخرى"},
	msgSignUpConfirm:    {"account created! please check your email", "تم إنشاء الحساب بنجاح! يرجى التحقق من بريدك الإلكتروني."},
	msgSignUpDone:       {"account created", "تم إنشاء الحساب بنجاح"},
	msgResetSent:        {"a password reset link was sent to your email", "تم إرسال رابط إعادة تعيين كلمة المرور إلى بريدك الإلكتروني"},
}

func (s *Service) text(key int, args ...any) string {
	pair := messages[key]
	msg := pair[0]
	if s.cfg.Locale == derive.Arabic {
		msg = pair[1]
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
