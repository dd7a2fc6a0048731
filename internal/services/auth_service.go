package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Sonukamble/TodoApp/internal/auth"
	"github.com/Sonukamble/TodoApp/internal/models"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a user and sets its ID.
	//
	// If the username is already taken, models.ErrDuplicateUsername is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByUsername retrieves a user by username.
	//
	// If no such user exists, models.ErrNotFound is returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method ExistsByUsername checks whether the username is already taken.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(username string, userID int, role models.Role) (string, *auth.Claims, error)
}

// TokenRevoker denies a session token until it expires
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

const (
	maxUsernameLength = 50
	maxNameLength     = 100
	maxRoleLength     = 50
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
	// Verified on unknown usernames so both login failures cost one bcrypt comparison
	timingPassword = "todoapp-timing-equalizer"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

type authService struct {
	userRepo UserRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	revoker  TokenRevoker
	logger   *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service. revoker may be nil, which disables logout revocation.
func NewAuthService(userRepo UserRepository, hasher PasswordHasher, issuer TokenIssuer, revoker TokenRevoker, logger *zap.Logger) *authService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		revoker:  revoker,
		logger:   logger,
	}
}

// Register validates the request and creates an active user storing only the password hash
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := s.buildUser(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, models.ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	// The unique index still catches a concurrent registration of the same username
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate checks the credentials and issues a session token.
//
// An unknown username, a wrong password and an inactive account all return models.ErrAuthenticationFailed.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		s.hasher.Verify(password, s.timingHash())
		return nil, models.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, models.ErrAuthenticationFailed
	}
	if !user.IsActive {
		s.logger.Info("login attempt on inactive account", zap.Int("user_id", user.ID))
		return nil, models.ErrAuthenticationFailed
	}

	token, claims, err := s.issuer.Issue(user.Username, user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to issue token", zap.Error(err), zap.Int("user_id", user.ID))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// timingHash returns a hash made with the service's hasher, so verifying against it
// takes as long as verifying a stored password
func (s *authService) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.logger.Error("failed to build timing hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Logout revokes the caller's current token when revocation is enabled
func (s *authService) Logout(ctx context.Context, identity *auth.Identity) error {
	if s.revoker == nil || identity == nil {
		return nil
	}

	if err := s.revoker.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	return nil
}

// buildUser validates a registration request and returns the user to store, without its hash
func (s *authService) buildUser(req *models.RegisterRequest) (*models.User, error) {
	if req == nil {
		return nil, models.NewValidationError("request", "is required")
	}

	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		return nil, models.NewValidationError("username", "cannot be empty")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return nil, models.NewValidationError("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	case !usernameRegex.MatchString(username):
		return nil, models.NewValidationError("username", "may contain only letters, digits, '.', '_' and '-'")
	}

	email := strings.TrimSpace(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, models.NewValidationError("email", "invalid email format")
	}

	if req.Password == "" {
		return nil, models.NewValidationError("password", "cannot be empty")
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, models.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if utf8.RuneCountInString(firstName) > maxNameLength || utf8.RuneCountInString(lastName) > maxNameLength {
		return nil, models.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	role := models.Role(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleUser
	}
	if utf8.RuneCountInString(string(role)) > maxRoleLength {
		return nil, models.NewValidationError("role", fmt.Sprintf("must be at most %d characters", maxRoleLength))
	}

	return &models.User{
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		IsActive:  true,
	}, nil
}
