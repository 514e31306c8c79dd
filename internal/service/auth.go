package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/platebook/platebook-go/internal/crypto"
	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService handles signup, login, token refresh and profile management.
type AuthService struct {
	users      repository.UserRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, secret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Signup creates a new user account and returns the user with a fresh
// access token. Duplicate email/username surface as field-keyed
// validation errors, not conflicts.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, string, error) {
	fields := fieldErrors{}
	if req.Name == "" {
		fields.add("name", "Name is required")
	}
	switch {
	case req.Email == "":
		fields.add("email", "Email is required")
	case !emailPattern.MatchString(req.Email):
		fields.add("email", "Please enter a valid email address")
	}
	switch {
	case req.Password == "":
		fields.add("password", "Password is required")
	case len(req.Password) < 8:
		fields.add("password", "Password must be at least 8 characters")
	}
	if req.Username != "" && len(req.Username) < 3 {
		fields.add("username", "Username must be at least 3 characters")
	}
	if err := fields.err(); err != nil {
		return nil, "", err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	// Username defaults to the email address.
	username := req.Username
	if username == "" {
		username = req.Email
	}

	user := &model.User{
		Username:     username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			fields.add("email", "User with this email already exists")
		case errors.Is(err, repository.ErrDuplicateUsername):
			fields.add("username", "Username is already taken")
		default:
			return nil, "", err
		}
		return nil, "", fields.err()
	}

	token, err := s.accessToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates a user and returns the user with an access token
// and, when rememberMe is set, a refresh token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.User, string, string, error) {
	fields := fieldErrors{}
	if req.Email == "" {
		fields.add("email", "Email is required")
	}
	if req.Password == "" {
		fields.add("password", "Password is required")
	}
	if err := fields.err(); err != nil {
		return nil, "", "", err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, "", "", ErrInvalidCredentials
	}

	access, err := s.accessToken(user)
	if err != nil {
		return nil, "", "", err
	}

	var refresh string
	if req.RememberMe {
		refresh, err = crypto.GenerateToken(user.ID, user.Email, user.Role,
			crypto.TokenKindRefresh, s.jwtSecret, s.refreshTTL)
		if err != nil {
			return nil, "", "", err
		}
	}

	return user, access, refresh, nil
}

// Refresh validates a refresh token and mints a new access token for its
// subject. The subject must still exist with the same id and email.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := crypto.ValidateToken(refreshToken, s.jwtSecret, crypto.TokenKindRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}

	user, err := s.users.GetByIDAndEmail(ctx, claims.UserID, claims.Email)
	if err != nil {
		return "", err
	}

	return s.accessToken(user)
}

// GetProfile retrieves the profile of a user by ID.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies a partial profile update. Changing the password
// requires re-verifying the current one; changing the email requires the
// new address to be unused. Concurrent updates resolve last-write-wins.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req model.ProfileUpdateRequest) (*model.User, error) {
	fields := fieldErrors{}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		fields.add("email", "Please enter a valid email address")
	}
	if req.Password != "" {
		if req.CurrentPassword == "" {
			fields.add("current_password", "Current password is required when updating password")
		}
		if len(req.Password) < 8 {
			fields.add("password", "Password must be at least 8 characters")
		}
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := model.ProfileChanges{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	}

	if req.Password != "" {
		if !crypto.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
			fields.add("current_password", "Current password is incorrect")
			return nil, fields.err()
		}
		hash, err := crypto.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = hash
	}

	if req.Email != "" && req.Email != user.Email {
		inUse, err := s.users.EmailInUse(ctx, req.Email, userID)
		if err != nil {
			return nil, err
		}
		if inUse {
			fields.add("email", "Email is already in use")
			return nil, fields.err()
		}
		changes.Email = req.Email
	}

	if changes == (model.ProfileChanges{}) {
		return user, nil
	}

	return s.users.UpdateProfile(ctx, userID, changes)
}

// ListUsers returns all users. Admin only; enforced at the router.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// DeleteUser hard-deletes a user account, the only hard-delete path in
// the system. Admins cannot remove themselves.
func (s *AuthService) DeleteUser(ctx context.Context, adminID, targetID int64) error {
	if adminID == targetID {
		return ErrSelfDelete
	}
	return s.users.Delete(ctx, targetID)
}

func (s *AuthService) accessToken(user *model.User) (string, error) {
	return crypto.GenerateToken(user.ID, user.Email, user.Role,
		crypto.TokenKindAccess, s.jwtSecret, s.accessTTL)
}
