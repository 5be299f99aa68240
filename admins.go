package main

// admins.go admin accounts and the login flow

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

// AdminInput is an admin write. Password is optional on update: nil or empty
// keeps the stored hash.
type AdminInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"number"`
	NationalID string  `json:"cnic"`
	Password   *string `json:"password"`
}

func (in AdminInput) account() *AdminAccount {
	return &AdminAccount{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		NationalID: strings.TrimSpace(in.NationalID),
	}
}

func (in AdminInput) password() (string, bool) {
	if in.Password == nil || *in.Password == "" {
		return "", false
	}
	return *in.Password, true
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Token string        `json:"token"`
	Admin *AdminAccount `json:"admin"`
}

type AdminService struct {
	store    AdminStore
	tokens   *TokenIssuer
	validate *validator.Validate
}

func NewAdminService(store AdminStore, tokens *TokenIssuer, v *validator.Validate) *AdminService {
	return &AdminService{store: store, tokens: tokens, validate: v}
}

func (s *AdminService) Register(ctx context.Context, in AdminInput) (uint, error) {
	admin := in.account()
	password, ok := in.password()
	if err := checkStruct(s.validate, admin); err != nil {
		return 0, err
	}
	if !ok {
		return 0, validationError("password is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}
	admin.PasswordHash = hash

	if err := s.store.Insert(ctx, admin); err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, conflictError("Email already exists")
		}
		return 0, storeError("Error adding admin", err)
	}
	return admin.ID, nil
}

func (s *AdminService) Update(ctx context.Context, id uint, in AdminInput) (int64, error) {
	admin := in.account()
	if err := checkStruct(s.validate, admin); err != nil {
		return 0, err
	}

	cols := map[string]any{
		"name":   admin.Name,
		"email":  admin.Email,
		"number": admin.Phone,
		"cnic":   admin.NationalID,
	}
	if password, ok := in.password(); ok {
		hash, err := hashPassword(password)
		if err != nil {
			return 0, err
		}
		cols["password"] = hash
	}

	n, err := s.store.Update(ctx, id, cols)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, conflictError("Email already exists")
		}
		return 0, storeError("Error updating admin", err)
	}
	if n == 0 {
		return 0, notFoundError("Admin not found")
	}
	return n, nil
}

func (s *AdminService) Delete(ctx context.Context, id uint) (int64, error) {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, storeError("Error deleting admin", err)
	}
	if n == 0 {
		return 0, notFoundError("Admin not found")
	}
	return n, nil
}

func (s *AdminService) List(ctx context.Context) ([]AdminAccount, error) {
	admins, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError("Error retrieving admins", err)
	}
	for i := range admins {
		admins[i].PasswordHash = ""
	}
	return admins, nil
}

func (s *AdminService) Get(ctx context.Context, id uint) (*AdminAccount, error) {
	admin, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("Admin not found")
		}
		return nil, storeError("Error retrieving admin", err)
	}
	admin.PasswordHash = ""
	return admin, nil
}

func (s *AdminService) Count(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, storeError("Error checking admin rows", err)
	}
	return n, nil
}

func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password are required")
	}

	admin, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("Admin not found")
		}
		return nil, storeError("Error querying admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, authError("Invalid credentials")
	}

	token, err := s.tokens.Issue(admin)
	if err != nil {
		return nil, err
	}
	admin.PasswordHash = ""
	return &LoginResult{Token: token, Admin: admin}, nil
}

func (s *AdminService) VerifyToken(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", validationError("password is too long")
	}
	if err != nil {
		return "", infraError("Error processing request", err)
	}
	return string(hash), nil
}
