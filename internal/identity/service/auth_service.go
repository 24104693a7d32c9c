// Package service implements registration, login, and token refresh against the
// user store. Refresh is stateless: a valid refresh token re-issues an access
// token; there is no server-side session to revoke.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"collabboard/backend/internal/security"
	userdomain "collabboard/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrValidation             = errors.New("validation failed")
)

// AuthResult holds the outcome of Register or Login: the user plus both tokens.
type AuthResult struct {
	User         *userdomain.User
	AccessToken  string
	RefreshToken string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// AuthService implements register, login, and stateless refresh.
type AuthService struct {
	userRepo UserRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(userRepo UserRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Register creates a user with the given email, password, and role (viewer when
// empty) and returns the user plus a fresh token pair.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	r := userdomain.Role(role)
	if r == "" {
		r = userdomain.RoleViewer
	}
	if !userdomain.ValidRole(r) {
		return nil, errors.Join(ErrValidation, errors.New("unknown role"))
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user := &userdomain.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         r,
	}
	if err := user.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// Login authenticates with email/password and returns the user plus tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

// Refresh validates the refresh token and issues a new access token for the
// token's user. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (accessToken string, err error) {
	if refreshToken == "" {
		return "", ErrInvalidRefreshToken
	}
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidRefreshToken
	}
	accessToken, _, err = s.tokens.IssueAccess(user.ID, user.Email, string(user.Role))
	return accessToken, err
}

func (s *AuthService) issueTokens(user *userdomain.User) (*AuthResult, error) {
	access, _, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.Join(ErrValidation, errors.New("email is required"))
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.Join(ErrValidation, errors.New("invalid email format"))
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.Join(ErrValidation, errors.New("password must be at least 8 characters"))
	}
	return nil
}
