package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/invites"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
)

var (
	// ErrEmailTaken is returned when the registration email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownTeam is returned when an admin sets a team outside the
	// canonical set.
	ErrUnknownTeam = errors.New("team is not a canonical identifier")
)

// RegisterRequest is the registration payload. The invite code is the only
// way a contributor acquires a team; it is validated before the user record
// is persisted, never retried or defaulted.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Password   string `json:"password" validate:"required,min=8"`
	// No required tag: the resolver distinguishes the empty code from an
	// unknown one, and that distinction reaches the form.
	InviteCode string `json:"invite_code"`
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// registrationService is the concrete implementation of RegistrationService
type registrationService struct {
	users    repository.UserRepository
	resolver *invites.Resolver
	auth     *config.AuthConfig
	validate *validator.Validate
	log      zerolog.Logger
}

// newRegistrationService creates a new RegistrationService
func newRegistrationService(users repository.UserRepository, resolver *invites.Resolver, auth *config.AuthConfig, log zerolog.Logger) *registrationService {
	return &registrationService{
		users:    users,
		resolver: resolver,
		auth:     auth,
		validate: validator.New(),
		log:      log.With().Str("service", "registration").Logger(),
	}
}

// Register creates a contributor account. The invite code is resolved first;
// an empty or unknown code rejects the registration before anything is
// written.
func (s *registrationService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	team, err := s.resolver.Resolve(req.InviteCode)
	if err != nil {
		s.log.Info().Str("email", req.Email).Err(err).Msg("Registration rejected")
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         models.RoleContributor,
		Team:         team,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("team", team).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a bearer token carrying the user id.
func (s *registrationService) Login(ctx context.Context, req *LoginRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(s.auth.TokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// AssignTeam is the admin profile edit: sets a user's team directly, subject
// to the value being one of the canonical identifiers. Assignment is last
// write wins.
func (s *registrationService) AssignTeam(ctx context.Context, userID, team string) error {
	if !s.resolver.IsCanonical(team) {
		return ErrUnknownTeam
	}
	if err := s.users.UpdateTeam(ctx, userID, team); err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	s.log.Info().Str("user_id", userID).Str("team", team).Msg("Team assigned")
	return nil
}

// AssignByCode re-runs invite resolution for an existing user. Idempotent:
// assigning the same code twice yields the same team.
func (s *registrationService) AssignByCode(ctx context.Context, userID, code string) (string, error) {
	team, err := s.resolver.Resolve(code)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateTeam(ctx, userID, team); err != nil {
		return "", fmt.Errorf("update team: %w", err)
	}
	return team, nil
}

// Teams returns the canonical team identifiers for the admin dropdown.
func (s *registrationService) Teams() []string {
	return s.resolver.Teams()
}
