package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Predefined service errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DefaultAdminEmail is the account granted the admin role when none is configured.
const DefaultAdminEmail = "admin@example.com"

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// FindByEmail finds a user by email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// UpdatePasswordHash replaces a user's password hash.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Service provides authentication operations.
type Service struct {
	jwtService    *JWTService
	userRepo      UserRepository
	adminEmail    string
	adminPassword string
	bcryptCost    int
	dummyHash     []byte
	logger        zerolog.Logger
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService *JWTService
	UserRepo   UserRepository

	// AdminEmail is the account that receives the admin role.
	AdminEmail string

	// AdminPassword is reconciled by EnsureAdmin. Empty disables reconciliation.
	AdminPassword string

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int

	Logger zerolog.Logger
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	adminEmail := cfg.AdminEmail
	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	// Compared against on unknown emails so both failure paths cost a bcrypt check.
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("airlog-unknown-user"), cost)

	return &Service{
		jwtService:    cfg.JWTService,
		userRepo:      cfg.UserRepo,
		adminEmail:    normalizeEmail(adminEmail),
		adminPassword: cfg.AdminPassword,
		bcryptCost:    cost,
		dummyHash:     dummyHash,
		logger:        cfg.Logger.With().Str("component", "auth").Logger(),
	}
}

// Login checks a password and issues an access token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.Role = s.roleFor(user.Email)

	token, _, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")

	return &TokenResponse{Token: token}, nil
}

// ValidateAccessToken validates an access token and returns the caller identity.
func (s *Service) ValidateAccessToken(tokenString string) (*Identity, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// EnsureAdmin reconciles the admin account with the configured password.
// It creates the account when missing, rehashes the password when it no
// longer matches and otherwise does nothing.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	if s.adminPassword == "" {
		s.logger.Warn().Msg("admin password not configured, skipping admin reconciliation")
		return nil
	}

	user, err := s.userRepo.FindByEmail(ctx, s.adminEmail)
	switch {
	case errors.Is(err, ErrUserNotFound):
		hash, err := s.hash(s.adminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		admin := &User{
			ID:           generateUserID(),
			Email:        s.adminEmail,
			PasswordHash: hash,
			Role:         RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userRepo.Create(ctx, admin); err != nil {
			if errors.Is(err, ErrUserExists) {
				return nil
			}
			return fmt.Errorf("creating admin user: %w", err)
		}
		s.logger.Info().Str("user_id", admin.ID).Msg("admin user created")
		return nil

	case err != nil:
		return fmt.Errorf("finding admin user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(s.adminPassword)) == nil {
		return nil
	}

	hash, err := s.hash(s.adminPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("updating admin password: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Msg("admin password updated")
	return nil
}

func (s *Service) roleFor(email string) string {
	if normalizeEmail(email) == s.adminEmail {
		return RoleAdmin
	}
	return RoleUser
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// generateUserID generates a unique user ID with prefix.
func generateUserID() string {
	return "usr_" + uuid.New().String()[:22]
}
