package user

import (
	"context"
	"fmt"

	"skbeauty-be/internal/logger"
	"skbeauty-be/internal/notification"
	"skbeauty-be/internal/utils"

	"go.uber.org/zap"
)

const defaultFrontendURL = "http://localhost:3000"

type RegisterParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	AltPhone string `json:"alt_phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Salon    string `json:"salon"`
}

type Service interface {
	Register(ctx context.Context, params RegisterParams) (string, User, error)
	Login(ctx context.Context, username, password string) (string, User, error)
	GetByID(ctx context.Context, id uint) (User, error)
	UpdateProfile(ctx context.Context, id uint, params UpdateProfileParams) (User, error)

	RequestPasswordReset(ctx context.Context, usernameOrEmail, frontendURL string) error
	ResetPassword(ctx context.Context, uid, token, newPassword string) error
}

type service struct {
	repo      Repository
	jwtSecret string
	mailer    notification.Mailer
}

func NewService(repo Repository, jwtSecret string, mailer notification.Mailer) Service {
	return &service{repo: repo, jwtSecret: jwtSecret, mailer: mailer}
}

func (s *service) Register(ctx context.Context, params RegisterParams) (string, User, error) {
	log := logger.FromCtx(ctx)

	hashed, err := HashPassword(params.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", User{}, err
	}

	u, err := s.repo.Create(ctx, User{
		Username: params.Username,
		Email:    params.Email,
		Password: hashed,
		Phone:    params.Phone,
		AltPhone: params.AltPhone,
		Address:  params.Address,
		City:     params.City,
		Salon:    params.Salon,
	})
	if err != nil {
		log.Error("failed to create user", zap.String("username", params.Username), zap.Error(err))
		return "", User{}, err
	}

	token, err := GenerateJWT(s.jwtSecret, u)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", User{}, err
	}

	log.Info("register service completed",
		zap.Uint("user_id", u.ID),
		zap.String("username", params.Username),
	)

	return token, u, nil
}

func (s *service) Login(ctx context.Context, username, password string) (string, User, error) {
	log := logger.FromCtx(ctx)

	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		log.Debug("login: username not found", zap.String("username", username))
		return "", User{}, ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Debug("login: password mismatch", zap.String("username", username))
		return "", User{}, ErrInvalidCredentials
	}

	token, err := GenerateJWT(s.jwtSecret, u)
	return token, u, err
}

func (s *service) GetByID(ctx context.Context, id uint) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uint, params UpdateProfileParams) (User, error) {
	return s.repo.UpdateProfile(ctx, id, params)
}

// RequestPasswordReset mails a one-hour reset link to the account matching the
// given username or email. Unlike the order mails this send is load bearing:
// without the link the flow is dead, so a mail failure surfaces to the caller.
func (s *service) RequestPasswordReset(ctx context.Context, usernameOrEmail, frontendURL string) error {
	log := logger.FromCtx(ctx)

	u, err := s.repo.FindByUsername(ctx, usernameOrEmail)
	if err != nil {
		u, err = s.repo.FindByEmail(ctx, usernameOrEmail)
		if err != nil {
			return err
		}
	}
	if u.Email == "" {
		return ErrNoEmailAddress
	}

	token, err := GenerateResetToken(s.jwtSecret, u)
	if err != nil {
		log.Error("failed to generate reset token", zap.Uint("user_id", u.ID), zap.Error(err))
		return err
	}

	if frontendURL == "" {
		frontendURL = defaultFrontendURL
	}
	resetURL := fmt.Sprintf("%s/reset-password?uid=%d&token=%s", frontendURL, u.ID, token)

	subject, text, html := notification.PasswordResetEmail(resetURL)
	if err := s.mailer.Send(u.Email, subject, text, html); err != nil {
		log.Error("failed to send reset email", zap.Uint("user_id", u.ID), zap.Error(err))
		return err
	}

	log.Info("password reset requested", zap.Uint("user_id", u.ID))
	return nil
}

// ResetPassword validates the emailed token and stores the new password. Any
// problem with the uid or token reads as an invalid token.
func (s *service) ResetPassword(ctx context.Context, uid, token, newPassword string) error {
	log := logger.FromCtx(ctx)

	id, err := utils.ToUint(uid)
	if err != nil {
		return ErrInvalidResetToken
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrInvalidResetToken
	}

	if err := ValidateResetToken(s.jwtSecret, u, token); err != nil {
		log.Debug("reset token rejected", zap.Uint("user_id", u.ID))
		return ErrInvalidResetToken
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, u.ID, hashed); err != nil {
		return err
	}

	log.Info("password reset completed", zap.Uint("user_id", u.ID))
	return nil
}
