package identity

import (
	"context"
	"sync"

	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/sentinel"
)

// InMemoryDirectory keeps users in a map. Used by the dev server and tests.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	users map[id.UserID]User
}

func NewInMemoryDirectory(users ...*User) *InMemoryDirectory {
	d := &InMemoryDirectory{users: make(map[id.UserID]User)}
	for _, u := range users {
		d.users[u.ID] = *u
	}
	return d
}

func (d *InMemoryDirectory) Save(_ context.Context, user *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for existingID, existing := range d.users {
		if existing.Email == user.Email && existingID != user.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	d.users[user.ID] = *user
	return nil
}

func (d *InMemoryDirectory) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[userID]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}
