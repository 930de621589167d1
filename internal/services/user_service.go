package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

var ErrInsufficientPermissions = errors.New("insufficient permissions")

type UserService interface {
	CreateUser(user *models.User, password string) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	ActiveUser(id uint) (*models.User, error)
	ValidateUserRole(userID uint, requiredRole models.UserRole) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)
	if user.Role == "" {
		user.Role = string(models.Staff)
	}
	return s.userRepo.Create(user)
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	return s.userRepo.GetByUsername(username)
}

// ActiveUser is the identity a sale is attributed to. Disabled accounts are
// treated as unknown.
func (s *userService) ActiveUser(id uint) (*models.User, error) {
	if id == 0 {
		return nil, apperr.ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) ValidateUserRole(userID uint, requiredRole models.UserRole) error {
	user, err := s.ActiveUser(userID)
	if err != nil {
		return err
	}

	// Admins can do anything staff can
	if user.Role != string(requiredRole) && user.Role != string(models.Admin) {
		return ErrInsufficientPermissions
	}
	return nil
}
