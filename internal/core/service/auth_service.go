package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

const (
	tokenTypeAccess   = "access"
	minPasswordLength = 8
)

type AuthService struct {
	customers port.CustomerRepository
	sessions  port.SessionStore
	secret    []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(customers port.CustomerRepository, sessions port.SessionStore, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		customers: customers,
		sessions:  sessions,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

type LoginResult struct {
	Customer    domain.Customer
	AccessToken string
	ExpiresAt   time.Time
}

type accessClaims struct {
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("Name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, domain.Validation("Enter a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.Validation("Password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	customer := &domain.Customer{
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
		CreatedAt:    s.now(),
	}
	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Login checks credentials, binds the customer to the session and issues an
// access token for clients that prefer bearer auth.
func (s *AuthService) Login(ctx context.Context, sessionID, email, password string) (*LoginResult, error) {
	customer, err := s.customers.GetCustomerByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Validation("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return nil, domain.Validation("Invalid credentials")
	}

	if err := s.sessions.SetCustomerID(ctx, sessionID, customer.ID); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.IssueToken(customer)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Customer: *customer, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.ClearCustomerID(ctx, sessionID)
}

// Me returns the caller's customer record, or nil for anonymous callers and
// sessions pointing at a customer that no longer exists.
func (s *AuthService) Me(ctx context.Context, principal domain.Principal) (*domain.Customer, error) {
	id, ok := principal.CustomerID()
	if !ok {
		return nil, nil
	}
	customer, err := s.customers.GetCustomer(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return customer, err
}

func (s *AuthService) IssueToken(customer *domain.Customer) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	claims := accessClaims{
		Type:  tokenTypeAccess,
		Email: customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(customer.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyToken returns the customer id carried by a valid access token.
func (s *AuthService) VerifyToken(token string) (int64, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, domain.AuthRequired("Invalid or expired token")
	}

	if claims.Type != tokenTypeAccess {
		return 0, domain.AuthRequired("Not an access token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.AuthRequired("Invalid token payload")
	}
	return id, nil
}

// ResolvePrincipal identifies the caller once per request. A bearer token,
// when present, wins and must be valid. Otherwise the session decides.
func (s *AuthService) ResolvePrincipal(ctx context.Context, bearer, sessionID string) (domain.Principal, error) {
	if bearer != "" {
		id, err := s.VerifyToken(bearer)
		if err != nil {
			return domain.Anonymous(), err
		}
		if _, err := s.customers.GetCustomer(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Anonymous(), domain.AuthRequired("User not found")
			}
			return domain.Anonymous(), err
		}
		return domain.Authenticated(id), nil
	}

	if sessionID == "" {
		return domain.Anonymous(), nil
	}
	id, ok, err := s.sessions.CustomerID(ctx, sessionID)
	if err != nil {
		return domain.Anonymous(), err
	}
	if !ok {
		return domain.Anonymous(), nil
	}
	return domain.Authenticated(id), nil
}
