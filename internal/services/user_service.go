package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

type UserService struct {
	db    *gorm.DB
	cache *RedisCache
	audit *AuditLogger
}

func NewUserService(db *gorm.DB, cache *RedisCache, audit *AuditLogger) *UserService {
	return &UserService{db: db, cache: cache, audit: audit}
}

// RegisterUserInput is the profile sent after a Firebase sign-up
type RegisterUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	PhotoURL string `json:"photoURL"`
}

// Register creates the user with the member role. An existing user is
// returned unchanged with created=false.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.User, bool, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input, "Name and email are required"); err != nil {
		return nil, false, err
	}

	existing, err := s.GetByEmail(ctx, input.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errorz.NotFound) {
		return nil, false, err
	}

	user := &models.User{
		Email:    input.Email,
		Name:     input.Name,
		PhotoURL: input.PhotoURL,
		Role:     models.RoleMember,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			// lost a race with a concurrent sign-up of the same email
			existing, getErr := s.GetByEmail(ctx, input.Email)
			return existing, false, getErr
		}
		return nil, false, err
	}
	return user, true, nil
}

// GetByEmail returns the user with the given email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return &user, nil
}

// List returns every user, newest first
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// RoleOf returns the stored role of email, cached for a few minutes
func (s *UserService) RoleOf(ctx context.Context, email string) (models.Role, error) {
	return GetOrSet(s.cache, ctx, roleCacheKey(email), roleCacheTTL, func() (models.Role, error) {
		var user models.User
		if err := s.db.WithContext(ctx).Select("role").Where("email = ?", email).First(&user).Error; err != nil {
			return "", notFoundOr(err, "User not found")
		}
		return user.Role, nil
	})
}

// Actor resolves the caller's role. Unknown users act as members.
func (s *UserService) Actor(ctx context.Context, email string) (policy.Actor, error) {
	role, err := s.RoleOf(ctx, email)
	if err != nil {
		if !errors.Is(err, errorz.NotFound) {
			return policy.Actor{}, err
		}
		role = models.RoleMember
	}
	return policy.Actor{Email: email, Role: role}, nil
}

// SetRole changes the role of the user identified by email
func (s *UserService) SetRole(ctx context.Context, actor policy.Actor, email string, role models.Role) (*models.User, error) {
	if err := policy.Evaluate(actor, policy.UserSetRole, policy.Resource{SubjectEmail: email}); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, errorz.New(errorz.Validation, "Invalid role")
	}

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	previous := user.Role

	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role

	_ = s.cache.Delete(ctx, roleCacheKey(email))
	s.audit.record(ctx, "user", user.ID, "role_changed", actor.Email, map[string]string{
		"email": email,
		"from":  string(previous),
		"to":    string(role),
	})
	return user, nil
}
