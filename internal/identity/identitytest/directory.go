// Package identitytest provides an in-memory identity.Directory for tests.
package identitytest

import (
	"context"
	"sync"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

type codeKey struct {
	userID  uuid.UUID
	purpose identity.Purpose
}

// Directory is a goroutine-safe map-backed identity.Directory.
type Directory struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	deleted map[uuid.UUID]bool
	codes   map[codeKey]identity.PendingCode

	// GetUserErr, when set, is returned by GetUser.
	GetUserErr error
	// PutCodeErr, when set, is returned by PutCode.
	PutCodeErr error
}

func New() *Directory {
	return &Directory{
		users:   make(map[uuid.UUID]*models.User),
		deleted: make(map[uuid.UUID]bool),
		codes:   make(map[codeKey]identity.PendingCode),
	}
}

// Seed inserts a user with the given password and returns a copy of it.
func (d *Directory) Seed(email, password, name, plan string) *models.User {
	u, err := d.CreateUser(context.Background(), identity.NewUser{Email: email, Password: password, Name: name})
	if err != nil {
		panic(err)
	}
	d.mu.Lock()
	d.users[u.ID].Plan = plan
	out := *d.users[u.ID]
	d.mu.Unlock()
	return &out
}

// Code returns the stored code for a purpose without going through the interface.
func (d *Directory) Code(userID uuid.UUID, purpose identity.Purpose) (identity.PendingCode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.codes[codeKey{userID, purpose}]
	return c, ok
}

func (d *Directory) CreateUser(_ context.Context, u identity.NewUser) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	email := identity.NormalizeEmail(u.Email)
	for _, existing := range d.users {
		if existing.Email == email {
			return nil, identity.ErrEmailTaken
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         u.Name,
		Plan:         models.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.users[user.ID] = user
	out := *user
	return &out, nil
}

func (d *Directory) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.FindByEmail(ctx, email)
	if err != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, identity.ErrInvalidCredentials
	}
	return user, nil
}

func (d *Directory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if d.GetUserErr != nil {
		return nil, d.GetUserErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok || d.deleted[id] {
		return nil, identity.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (d *Directory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	email = identity.NormalizeEmail(email)
	for id, u := range d.users {
		if u.Email == email && !d.deleted[id] {
			out := *u
			return &out, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (d *Directory) UpdateUser(_ context.Context, id uuid.UUID, ch identity.Changes) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok || d.deleted[id] {
		return nil, identity.ErrUserNotFound
	}
	if use := ch.Consume; use != nil {
		key := codeKey{id, use.Purpose}
		pending, ok := d.codes[key]
		if !ok || pending.Code != use.Code || use.At.After(pending.ExpiresAt) {
			return nil, identity.ErrNoPendingCode
		}
	}
	next := *u
	if ch.Email != nil {
		email := identity.NormalizeEmail(*ch.Email)
		for otherID, other := range d.users {
			if otherID != id && other.Email == email {
				return nil, identity.ErrEmailTaken
			}
		}
		next.Email = email
	}
	if ch.Name != nil {
		next.Name = *ch.Name
	}
	if ch.Phone != nil {
		next.Phone = *ch.Phone
	}
	if ch.PhoneVerified != nil {
		next.PhoneVerified = *ch.PhoneVerified
	}
	if ch.Preferences != nil {
		next.Preferences = datatypes.NewJSONType(*ch.Preferences)
	}
	if ch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*ch.Password), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		next.PasswordHash = string(hash)
	}
	next.UpdatedAt = time.Now().UTC()
	d.users[id] = &next
	if ch.Consume != nil {
		delete(d.codes, codeKey{id, ch.Consume.Purpose})
	}
	out := next
	return &out, nil
}

func (d *Directory) IncrementTokenVersion(_ context.Context, id uuid.UUID) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok || d.deleted[id] {
		return 0, identity.ErrUserNotFound
	}
	u.TokenVersion++
	return u.TokenVersion, nil
}

func (d *Directory) PutCode(_ context.Context, userID uuid.UUID, code identity.PendingCode) error {
	if d.PutCodeErr != nil {
		return d.PutCodeErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[codeKey{userID, code.Purpose}] = code
	return nil
}

func (d *Directory) GetCode(_ context.Context, userID uuid.UUID, purpose identity.Purpose) (*identity.PendingCode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.codes[codeKey{userID, purpose}]
	if !ok {
		return nil, identity.ErrNoPendingCode
	}
	return &c, nil
}

func (d *Directory) DeleteCode(_ context.Context, userID uuid.UUID, purpose identity.Purpose) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.codes, codeKey{userID, purpose})
	return nil
}

func (d *Directory) SoftDelete(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[id]; !ok || d.deleted[id] {
		return identity.ErrUserNotFound
	}
	d.deleted[id] = true
	for k := range d.codes {
		if k.userID == id {
			delete(d.codes, k)
		}
	}
	return nil
}

var _ identity.Directory = (*Directory)(nil)
