package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/redactvault/models"
	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
	"github.com/maynagashev/redactvault/server/internal/repository"
)

// DefaultTokenTTL is used when NewAuthService gets a non-positive ttl.
const DefaultTokenTTL = 24 * time.Hour

// AuthService registers reviewers and issues access tokens.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	// Me returns the account behind an authenticated username.
	Me(ctx context.Context, username string) (*models.User, error)
	// Refresh issues a new token for an authenticated username. The role is
	// re-read so a changed role takes effect.
	Refresh(ctx context.Context, username string) (*models.LoginResponse, error)
}

var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo    repository.UserRepository
	secret      []byte
	tokenTTL    time.Duration
	defaultRole string
	now         func() time.Time
}

// NewAuthService returns an AuthService signing tokens with secret. New
// accounts get defaultRole, or the reviewer role if it is empty.
func NewAuthService(
	userRepo repository.UserRepository,
	secret []byte,
	tokenTTL time.Duration,
	defaultRole string,
) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	if defaultRole == "" {
		defaultRole = models.RoleReviewer
	}
	return &authService{
		userRepo:    userRepo,
		secret:      secret,
		tokenTTL:    tokenTTL,
		defaultRole: defaultRole,
		now:         time.Now,
	}
}

// Register hashes the password and stores a new user.
func (s *authService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AuthService:Register] Failed to hash password for '%s': %v", username, err)
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.userRepo.CreateUser(ctx, &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         s.defaultRole,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return ErrUsernameTaken
		}
		log.Printf("[AuthService:Register] Repository error for '%s': %v", username, err)
		return fmt.Errorf("create user: %w", err)
	}

	log.Printf("[AuthService:Register] User '%s' registered", username)
	return nil
}

// Login checks the password and returns a signed token with the user.
func (s *authService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService:Login] Unknown user '%s'", username)
			return nil, ErrInvalidCredentials
		}
		log.Printf("[AuthService:Login] Repository error for '%s': %v", username, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[AuthService:Login] Wrong password for '%s'", username)
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateJWT(user)
	if err != nil {
		log.Printf("[AuthService:Login] Failed to sign token for '%s': %v", username, err)
		return nil, err
	}

	log.Printf("[AuthService:Login] User '%s' authenticated", username)
	return &models.LoginResponse{AccessToken: token, User: *user}, nil
}

// Me looks the authenticated user up. A user deleted after the token was
// issued is reported as invalid credentials.
func (s *authService) Me(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService:Me] Token subject '%s' no longer exists", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Refresh signs a new token for a user that still exists.
func (s *authService) Refresh(ctx context.Context, username string) (*models.LoginResponse, error) {
	user, err := s.Me(ctx, username)
	if err != nil {
		return nil, err
	}

	token, err := s.generateJWT(user)
	if err != nil {
		log.Printf("[AuthService:Refresh] Failed to sign token for '%s': %v", username, err)
		return nil, err
	}

	log.Printf("[AuthService:Refresh] Token refreshed for '%s'", username)
	return &models.LoginResponse{AccessToken: token, User: *user}, nil
}

func (s *authService) generateJWT(user *models.User) (string, error) {
	now := s.now()
	claims := srvmodels.TokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    srvmodels.TokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
