package service

import (
	"context"
	"regexp"
	"time"

	"pawhome/internal/middleware"
	"pawhome/internal/model"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	PetOwnerPhone string `json:"pet_owner_phone"`
	TrainerPhone  string `json:"trainer_phone"`
	VetPhone      string `json:"vet_phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	PetOwnerPhone string    `json:"pet_owner_phone,omitempty"`
	TrainerPhone  string    `json:"trainer_phone,omitempty"`
	VetPhone      string    `json:"vet_phone,omitempty"`
	CreatedAt     string    `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	CreateUser(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, role string, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func validRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RolePetOwner, model.RoleTrainer, model.RoleVet:
		return true
	}
	return false
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Phone:         user.Phone,
		Role:          user.Role,
		PetOwnerPhone: user.PetOwnerInfo.Phone,
		TrainerPhone:  user.TrainerInfo.Phone,
		VetPhone:      user.VetInfo.Phone,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     user.UpdatedAt.Format(time.RFC3339),
	}
}

// Register handles public self-signup; the admin role is not assignable here.
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if req.Role == model.RoleAdmin {
		return nil, apperr.Forbiddenf("cannot self-register as admin")
	}
	return s.CreateUser(ctx, req)
}

func (s *userService) CreateUser(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if !validRole(req.Role) {
		return nil, apperr.Validationf("invalid role: must be admin, petowner, trainer, or vet")
	}

	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.Validationf("invalid email format")
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperr.Validationf("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Validationf("email already exists")
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.FromDB("hash password", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     req.Role,
	}

	// Seed the role-specific contact phone used by report backfill.
	switch req.Role {
	case model.RolePetOwner:
		user.PetOwnerInfo.Phone = req.Phone
	case model.RoleTrainer:
		user.TrainerInfo.Phone = req.Phone
	case model.RoleVet:
		user.VetInfo.Phone = req.Phone
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperr.FromDB("create user", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Validationf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Validationf("invalid email or password")
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.repo.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, apperr.FromDB("save refresh token", err)
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) signAccessToken(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return "", apperr.FromDB("sign token", err)
	}
	return signed, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token itself is kept until logout or expiry.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Forbiddenf("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperr.Forbiddenf("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID.String())
	if err != nil {
		return nil, apperr.FromDB("load user", err)
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: accessToken, RefreshToken: refreshToken}, nil
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, role string, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var users []model.User
	var total int64
	var err error
	if role != "" {
		if !validRole(role) {
			return nil, 0, apperr.Validationf("invalid role filter %q", role)
		}
		users, total, err = s.repo.ListByRole(ctx, role, page, limit)
	} else {
		users, total, err = s.repo.List(ctx, page, limit)
	}
	if err != nil {
		return nil, 0, apperr.FromDB("list users", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("user not found")
	}

	if req.Role != "" {
		if !validRole(req.Role) {
			return nil, apperr.Validationf("invalid role: must be admin, petowner, trainer, or vet")
		}
		user.Role = req.Role
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, apperr.Validationf("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, apperr.Validationf("email already exists")
		}
		user.Email = req.Email
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.PetOwnerPhone != "" {
		user.PetOwnerInfo.Phone = req.PetOwnerPhone
	}
	if req.TrainerPhone != "" {
		user.TrainerInfo.Phone = req.TrainerPhone
	}
	if req.VetPhone != "" {
		user.VetInfo.Phone = req.VetPhone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperr.FromDB("update user", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return apperr.NotFoundf("user not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.FromDB("delete user", err)
	}
	return nil
}
