package users

import (
	"sort"
	"sync"

	errs "github.com/jrsteele09/subhub-server/internal/errors"
)

var _ UserRepo = (*InMemoryUserRepo)(nil)

// InMemoryUserRepo keeps accounts in a map guarded by a single lock.
type InMemoryUserRepo struct {
	users map[string]User
	lock  sync.RWMutex
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		users: make(map[string]User),
	}
}

func (ur *InMemoryUserRepo) Insert(user User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[user.Email]; ok {
		return errs.ErrAlreadyExists
	}
	ur.users[user.Email] = user.Clone()
	return nil
}

func (ur *InMemoryUserRepo) Get(email string) (User, bool) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[email]
	if !ok {
		return User{}, false
	}
	return user.Clone(), true
}

func (ur *InMemoryUserRepo) Mutate(email string, fn func(*User) error) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[email]
	if !ok {
		return errs.ErrUserNotFound
	}

	updated := user.Clone()
	if err := fn(&updated); err != nil {
		return err
	}
	// The identity is the map key; fn cannot move the record.
	updated.Email = email
	ur.users[email] = updated
	return nil
}

func (ur *InMemoryUserRepo) Snapshot() []User {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]User, 0, len(ur.users))
	for _, u := range ur.users {
		userList = append(userList, u.Clone())
	}
	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Email < userList[j].Email
	})
	return userList
}

func (ur *InMemoryUserRepo) Replace(users []User) {
	replacement := make(map[string]User, len(users))
	for _, u := range users {
		replacement[u.Email] = u.Clone()
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()
	ur.users = replacement
}

func (ur *InMemoryUserRepo) Count() int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users)
}
