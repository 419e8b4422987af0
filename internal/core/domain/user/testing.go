package user

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	c "recoverme/internal/core/domain/common"
	"sync"
)

type FakePasswordHasher struct {
	Calls int
	lock  sync.Mutex
}

func NewFakePasswordHasher() *FakePasswordHasher {
	return &FakePasswordHasher{}
}

func (h *FakePasswordHasher) HashPassword(password RawPassword) (PasswordHash, error) {
	h.lock.Lock()
	h.Calls++
	h.lock.Unlock()
	hash := md5.New()
	io.WriteString(hash, string(password))
	return PasswordHash(fmt.Sprintf("%x", hash.Sum(nil))), nil
}

func (h *FakePasswordHasher) ValidatePassword(password RawPassword, hash PasswordHash) bool {
	actualHash, err := h.HashPassword(password)
	if err != nil {
		return false
	}
	return actualHash == hash
}

type FakeUserRepository struct {
	Users          []User
	ReturnError    bool
	SetPasswordErr error
	lock           sync.Mutex
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{Users: make([]User, 0, 10)}
}

func (r *FakeUserRepository) Add(u User) User {
	r.lock.Lock()
	defer r.lock.Unlock()
	if u.ID == 0 {
		u.ID = ID(len(r.Users) + 1)
	}
	r.Users = append(r.Users, u)
	return u
}

func (r *FakeUserRepository) GetByEmail(ctx context.Context, email c.Email) (u User, err error) {
	if r.ReturnError {
		return u, fmt.Errorf("could not get user by email")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) GetByIDForUpdate(ctx context.Context, id ID) (u User, err error) {
	if r.ReturnError {
		return u, fmt.Errorf("could not get user by ID")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, u := range r.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return u, ErrUserDoesNotExist
}

func (r *FakeUserRepository) SetPassword(ctx context.Context, id ID, password PasswordHash) error {
	if r.SetPasswordErr != nil {
		return r.SetPasswordErr
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, u := range r.Users {
		if u.ID == id {
			r.Users[ix].PasswordHash = password
			return nil
		}
	}
	return ErrUserDoesNotExist
}

func (r *FakeUserRepository) Snapshot() []User {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]User(nil), r.Users...)
}

func (r *FakeUserRepository) Restore(users []User) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Users = users
}
