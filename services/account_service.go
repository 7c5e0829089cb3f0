package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10
	tokenTTL   = 30 * 24 * time.Hour

	RoleUser  = "user"
	RoleAdmin = "admin"
)

const msgInvalidCredentials = "invalid username or password"

type AccountService struct {
	base
	jwtSecret []byte
}

func NewAccountService(store *repositories.Store, jwtSecret string, opts Options) *AccountService {
	return &AccountService{base: newBase(store, opts), jwtSecret: []byte(jwtSecret)}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (s *AccountService) generateJWT(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *AccountService) Signup(ctx context.Context, in models.SignupData) (*models.User, error) {
	store := s.reader(ctx)
	exists, err := store.UserExists(in.Email, in.Username)
	if err != nil {
		return nil, s.fail("signup", err)
	}
	if exists {
		return nil, Conflict("user already exists")
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}

	user := &models.User{
		Fullname:   in.Fullname,
		Username:   in.Username,
		Email:      strings.ToLower(in.Email),
		Phone:      in.Phone,
		Occupation: in.Occupation,
		Password:   hashed,
		Role:       RoleUser,
	}
	if err := store.CreateUser(user); err != nil {
		return nil, s.fail("signup", err)
	}
	return user, nil
}

// Login checks the credentials and issues a signed token.
func (s *AccountService) Login(ctx context.Context, in models.LoginData) (string, *models.User, error) {
	user, err := s.reader(ctx).FindUserByIdentifier(in.Identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil, Validation(msgInvalidCredentials)
	}
	if err != nil {
		return "", nil, s.fail("login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, Validation(msgInvalidCredentials)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, Internal("failed to generate token", err)
	}
	return token, user, nil
}

// CreateAddress stores an address for the caller. A user may have only one
// default address.
func (s *AccountService) CreateAddress(ctx context.Context, actor Actor, address *models.Address) (*models.Address, error) {
	if strings.TrimSpace(address.Street) == "" || strings.TrimSpace(address.City) == "" {
		return nil, Validation("Street and city are required.")
	}

	address.ID = 0
	address.UserID = actor.UserID
	if address.FullAddress == "" {
		address.FullAddress = formatAddress(address)
	}

	err := s.inTx(ctx, "create address", func(tx *repositories.Store) error {
		if address.IsDefault {
			hasDefault, err := tx.HasDefaultAddress(actor.UserID)
			if err != nil {
				return err
			}
			if hasDefault {
				return Conflict("You already have a default address.")
			}
		}
		return tx.CreateAddress(address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AccountService) ListAddresses(ctx context.Context, actor Actor) ([]models.Address, error) {
	addresses, err := s.reader(ctx).ListAddresses(actor.UserID)
	if err != nil {
		return nil, s.fail("list addresses", err)
	}
	return addresses, nil
}

func formatAddress(a *models.Address) string {
	parts := []string{}
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
