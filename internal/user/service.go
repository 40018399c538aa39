package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// DefaultCost is the bcrypt work factor for stored passwords.
const DefaultCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// TokenIssuer signs bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserService orchestrates registration and password login.
type UserService struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

func NewUserService(r Repository, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: DefaultCost}
	}
	return &UserService{repo: r, hasher: hasher, tokens: tokens}
}

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrTaken           = errors.New("username or email already taken")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrPasswordTooLong = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

// RegisterInput is the registration payload. All fields are required.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
}

// Register creates a user with a hashed password. It does not log the user in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.normalize()
	if in.Username == "" || in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, ErrMissingFields
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrTaken
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:           utilities.NewID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration
		if database.IsUniqueViolation(err) {
			return nil, ErrTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies email and password and returns a signed token. Unknown
// email and wrong password both yield ErrBadCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", ErrMissingFields
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// spend the same hashing time as a real comparison
			dummy, err := s.dummy()
			if err != nil {
				return "", fmt.Errorf("dummy hash: %w", err)
			}
			s.hasher.Verify(dummy, password)
			return "", ErrBadCredentials
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return "", ErrBadCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *UserService) dummy() (string, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = s.hasher.Hash("dummy-password")
	})
	return s.dummyHash, s.dummyErr
}
