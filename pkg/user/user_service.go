package user

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/navette/navette/internal/localcache"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotApproved        = errors.New("account not yet approved")
	ErrMissingFields      = errors.New("email, name and password are required")
	ErrInvalidRole        = errors.New("invalid role")
)

type Service interface {
	Register(ctx context.Context, u User, password string) (User, error)
	Login(ctx context.Context, email, password string) (User, error)
	Get(ctx context.Context, email string) (*User, error)
	Users(ctx context.Context) ([]User, error)
	UsersByRole(ctx context.Context, roles ...Role) ([]User, error)
	SetApproval(ctx context.Context, email string, approved bool) (User, error)
	Delete(ctx context.Context, email string) error
}

type ServiceImpl struct {
	repo  Repository
	cache *localcache.Store
}

func NewService(repo Repository, cache *localcache.Store) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cache}
}

// Register creates a new, unapproved account. The clear-text password is
// hashed with bcrypt before anything is stored.
func (s *ServiceImpl) Register(ctx context.Context, u User, password string) (User, error) {
	if u.Email == "" || u.Name == "" || password == "" {
		return User{}, ErrMissingFields
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return User{}, fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}

	existing, err := s.repo.FindByEmail(ctx, u.Email)
	if err != nil {
		return User{}, fmt.Errorf("checking existing user: %w", err)
	}
	if existing != nil {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}
	u.Password = string(hash)
	u.Approved = false

	if err := s.repo.Upsert(ctx, u); err != nil {
		return User{}, fmt.Errorf("storing user: %w", err)
	}

	s.writeCache(ctx)
	return u, nil
}

// Login checks the credentials and returns the account. Wrong email and wrong
// password come back as the same error.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !u.Approved {
		return User{}, ErrNotApproved
	}

	if err := s.cache.Set(localcache.KeyCurrentUser, u); err != nil {
		log.Errorf("Could not cache current user: %v", err)
	}
	return *u, nil
}

// Get returns the account for an email. When the database cannot be reached
// the cached user list answers instead, so authenticated requests keep
// working in local-cache mode.
func (s *ServiceImpl) Get(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		log.Warnf("Could not look up user %q in database, falling back to local cache: %v", email, err)
		var cached []User
		if s.cache.Get(localcache.KeyUsers, &cached) {
			for _, c := range cached {
				if c.Email == email {
					return &c, nil
				}
			}
		}
		return nil, nil
	}
	return u, nil
}

// Users returns the flat user list, falling back to the local cache when the
// database cannot be reached.
func (s *ServiceImpl) Users(ctx context.Context) ([]User, error) {
	users, err := s.repo.SelectAll(ctx)
	if err != nil {
		log.Warnf("Could not load users from database, falling back to local cache: %v", err)
		var cached []User
		s.cache.Get(localcache.KeyUsers, &cached)
		return cached, nil
	}
	return users, nil
}

// UsersByRole returns the users holding any of the given roles.
func (s *ServiceImpl) UsersByRole(ctx context.Context, roles ...Role) ([]User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}

	var matched []User
	for _, u := range users {
		for _, role := range roles {
			if u.Role == role {
				matched = append(matched, u)
				break
			}
		}
	}
	return matched, nil
}

// SetApproval flips the approval flag of an account.
func (s *ServiceImpl) SetApproval(ctx context.Context, email string, approved bool) (User, error) {
	if err := s.repo.SetApproval(ctx, email, approved); err != nil {
		return User{}, fmt.Errorf("updating approval: %w", err)
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("reloading user: %w", err)
	}
	if u == nil {
		return User{}, ErrNoUser
	}

	s.writeCache(ctx)
	return *u, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, email string) error {
	if err := s.repo.Delete(ctx, email); err != nil {
		return err
	}
	s.writeCache(ctx)
	return nil
}

func (s *ServiceImpl) writeCache(ctx context.Context) {
	users, err := s.repo.SelectAll(ctx)
	if err != nil {
		log.Errorf("Could not refresh user cache: %v", err)
		return
	}
	if err := s.cache.Set(localcache.KeyUsers, users); err != nil {
		log.Errorf("Could not write users to local cache: %v", err)
	}
}
