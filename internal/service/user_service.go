package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"techtrove/internal/auth"
	"techtrove/internal/model"
	"techtrove/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// userService implements UserService.
type userService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	logger   zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and signs the caller in.
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	if existing != nil {
		return nil, model.ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Wishlist:     []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.session(user)
}

// Login exchanges credentials for a token.
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn().Msg("login rejected")
		return nil, model.ErrInvalidCredential
	}

	return s.session(user)
}

func (s *userService) session(user *model.User) (*model.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{User: user, Token: token}, nil
}

// Profile returns the caller's own account.
func (s *userService) Profile(ctx context.Context, caller auth.Identity) (*model.User, error) {
	return s.getUser(ctx, caller.ID)
}

func (s *userService) getUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes name, email or password of the caller. Role is never changed here.
func (s *userService) UpdateProfile(ctx context.Context, caller auth.Identity, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.getUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("profile updated")
	return user, nil
}

// ListWishlist returns the products on the caller's wishlist.
func (s *userService) ListWishlist(ctx context.Context, caller auth.Identity) ([]model.Product, error) {
	products, err := s.userRepo.ListWishlist(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return products, nil
}

// AddToWishlist adds productID and returns the updated wishlist.
func (s *userService) AddToWishlist(ctx context.Context, caller auth.Identity, productID uuid.UUID) ([]model.Product, error) {
	if err := s.userRepo.AddToWishlist(ctx, caller.ID, productID); err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return s.ListWishlist(ctx, caller)
}

// RemoveFromWishlist removes productID and returns the updated wishlist.
func (s *userService) RemoveFromWishlist(ctx context.Context, caller auth.Identity, productID uuid.UUID) ([]model.Product, error) {
	if err := s.userRepo.RemoveFromWishlist(ctx, caller.ID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return s.ListWishlist(ctx, caller)
}

// ListUsers returns one page of accounts for an admin.
func (s *userService) ListUsers(ctx context.Context, caller auth.Identity, filter model.UserFilter) (*model.UserPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &model.UserPage{
		Users:       users,
		CurrentPage: filter.Page,
		TotalPages:  model.TotalPages(total, filter.Limit),
		TotalUsers:  total,
	}, nil
}

// UpdateRole promotes or demotes a user.
func (s *userService) UpdateRole(ctx context.Context, caller auth.Identity, id uuid.UUID, role model.Role) (*model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, model.NewValidationError("Invalid role", "role must be one of user, admin")
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Str("role", string(role)).
		Str("admin", caller.ID.String()).
		Msg("role updated")

	return s.getUser(ctx, id)
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *userService) DeleteUser(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == id {
		return model.NewValidationError("Cannot delete your own account")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info().Str("user_id", id.String()).Str("admin", caller.ID.String()).Msg("user deleted")
	return nil
}
