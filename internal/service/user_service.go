package service

import (
	"context"
	"fmt"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgBadCredentials   = "Incorrect username or password"
	msgInvalidToken     = "Could not validate credentials"
	msgUsernameConflict = "Username already registered"
)

// userService is the concrete implementation of UserService
type userService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	system *systemAccount
	log    zerolog.Logger
}

func newUserService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, system *systemAccount, log zerolog.Logger) *userService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		system: system,
		log:    log.With().Str("service", "user").Logger(),
	}
}

// Signup creates an account together with an empty profile
func (s *userService) Signup(ctx context.Context, req *models.SignupRequest) (*models.UserResponse, error) {
	if errs := validation.ValidateSignup(req); len(errs) > 0 {
		return nil, invalid(errs)
	}

	existing, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, newError(ErrConflict, msgUsernameConflict)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	profile := &models.UserProfile{ID: uuid.New().String()}
	if err := s.users.Create(ctx, user, profile); err != nil {
		return nil, fromRepository("create user", err, msgUsernameConflict)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return userResponse(user, profile), nil
}

// Login verifies credentials and issues a bearer token. Unknown users
// and wrong passwords produce the same error.
func (s *userService) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if err := s.hasher.Compare(hash, password); err != nil {
		s.log.Debug().Str("username", username).Msg("Login rejected")
		return nil, newError(ErrUnauthorized, msgBadCredentials)
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.Expiry().Seconds()),
	}, nil
}

// Authenticate resolves a bearer token to its user
func (s *userService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.Parse(token)
	if err != nil {
		return nil, newError(ErrUnauthorized, msgInvalidToken)
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, newError(ErrUnauthorized, msgInvalidToken)
	}
	return user, nil
}

func (s *userService) Me(ctx context.Context, caller *models.User) (*models.UserResponse, error) {
	if caller == nil {
		return nil, newError(ErrUnauthorized, "Not authenticated")
	}
	// Reload so staff changes made after the token was issued show up
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, newError(ErrUnauthorized, msgInvalidToken)
	}
	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return userResponse(user, profile), nil
}

// UpdateProfile applies the fields present in req. An empty string
// clears a field; a missing profile is created.
func (s *userService) UpdateProfile(ctx context.Context, caller *models.User, req *models.ProfileUpdateRequest) (*models.UserResponse, error) {
	if caller == nil {
		return nil, newError(ErrUnauthorized, "Not authenticated")
	}
	if errs := validation.ValidateProfile(req); len(errs) > 0 {
		return nil, invalid(errs)
	}

	profile, err := s.users.GetProfile(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		profile = &models.UserProfile{ID: uuid.New().String(), UserID: caller.ID}
	}

	if req.Bio != nil {
		profile.Bio = emptyToNil(req.Bio)
	}
	if req.Website != nil {
		profile.Website = emptyToNil(req.Website)
	}
	if req.Avatar != nil {
		profile.Avatar = emptyToNil(req.Avatar)
	}

	if err := s.users.UpsertProfile(ctx, profile); err != nil {
		return nil, fromRepository("update profile", err, "Profile already exists")
	}
	return userResponse(caller, profile), nil
}

// EnsureSystemUser creates the fallback author if needed
func (s *userService) EnsureSystemUser(ctx context.Context) (*models.User, error) {
	return s.system.get(ctx)
}

func userResponse(u *models.User, p *models.UserProfile) *models.UserResponse {
	resp := &models.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsStaff:  u.IsStaff,
	}
	if p != nil {
		resp.Profile = &models.ProfileResponse{Bio: p.Bio, Website: p.Website, Avatar: p.Avatar}
	}
	return resp
}
