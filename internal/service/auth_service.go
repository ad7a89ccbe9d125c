package service

import (
	"context"
	"strings"

	"bookblog/internal/models"
	"bookblog/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
var ErrInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bookblog-dummy-password"), bcrypt.DefaultCost)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Authenticate returns the admin matching email and password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
