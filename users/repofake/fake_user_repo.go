package fakeuserrepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.Repo with the same uniqueness rules as
// the Mongo store. It hands out copies so callers cannot mutate stored users.
type FakeUserRepo struct {
	users     map[string]*users.User
	emailIds  map[string]string // email to user id
	usernames map[string]string // username to user id
	googleIds map[string]string // google id to user id
	lock      sync.RWMutex

	// Err, when set, is returned by every call. Used to simulate an
	// unavailable store.
	Err error
	// UpdateErr, when set, is returned by UpdateRefreshToken only.
	UpdateErr error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[string]*users.User),
		emailIds:  make(map[string]string),
		usernames: make(map[string]string),
		googleIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, nu users.NewUser) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	if ur.Err != nil {
		return nil, ur.Err
	}

	email := strings.ToLower(nu.Email)
	if _, ok := ur.usernames[nu.Username]; ok {
		return nil, errors.ErrDuplicateIdentity
	}
	if _, ok := ur.emailIds[email]; ok && email != "" {
		return nil, errors.ErrDuplicateIdentity
	}
	if _, ok := ur.googleIds[nu.GoogleID]; ok && nu.GoogleID != "" {
		return nil, errors.ErrDuplicateIdentity
	}

	now := time.Now().UTC()
	user := &users.User{
		ID:           strings.ReplaceAll(uuid.New().String(), "-", "")[:24],
		GoogleID:     nu.GoogleID,
		Name:         nu.Name,
		Username:     nu.Username,
		Email:        email,
		PasswordHash: nu.PasswordHash,
		Avatar:       nu.Avatar,
		Roles:        append([]users.RoleType(nil), nu.Roles...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ur.users[user.ID] = user
	ur.usernames[user.Username] = user.ID
	if email != "" {
		ur.emailIds[email] = user.ID
	}
	if user.GoogleID != "" {
		ur.googleIds[user.GoogleID] = user.ID
	}
	return user.Clone(), nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return ur.get(id)
}

func (ur *FakeUserRepo) GetByFederatedID(_ context.Context, googleID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	if googleID == "" {
		return nil, errors.ErrNotFound
	}
	return ur.get(ur.googleIds[googleID])
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	if email == "" {
		return nil, errors.ErrNotFound
	}
	return ur.get(ur.emailIds[strings.ToLower(email)])
}

func (ur *FakeUserRepo) GetByRefreshToken(_ context.Context, refreshToken string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	if ur.Err != nil {
		return nil, ur.Err
	}
	if refreshToken == "" {
		return nil, errors.ErrNotFound
	}
	for _, u := range ur.users {
		if u.RefreshToken == refreshToken {
			return u.Clone(), nil
		}
	}
	return nil, errors.ErrNotFound
}

func (ur *FakeUserRepo) UpdateRefreshToken(_ context.Context, id, refreshToken string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	if ur.Err != nil {
		return nil, ur.Err
	}
	if ur.UpdateErr != nil {
		return nil, ur.UpdateErr
	}
	user, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	user.RefreshToken = refreshToken
	user.UpdatedAt = time.Now().UTC()
	return user.Clone(), nil
}

// Count returns the number of stored users.
func (ur *FakeUserRepo) Count() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users)
}

// get expects the lock to be held.
func (ur *FakeUserRepo) get(id string) (*users.User, error) {
	if ur.Err != nil {
		return nil, ur.Err
	}
	user, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return user.Clone(), nil
}
