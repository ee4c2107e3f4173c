// Package lock provides per-user locking. Every settlement is a
// read-validate-compute-write sequence against the account balance, and
// two concurrent requests for the same user (two reveals, or a reveal
// racing a cash-out) must serialize or a double-spend becomes possible.
package lock

import "sync"

// UserLock serializes balance-mutating operations per user ID. Distinct
// users never block each other.
type UserLock struct {
	locks sync.Map // map[int64]*sync.Mutex
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{}
}

func (ul *UserLock) getLock(userID int64) *sync.Mutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*sync.Mutex)
	}
	v, _ := ul.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Lock acquires the lock for a user, blocking until it is available.
func (ul *UserLock) Lock(userID int64) {
	ul.getLock(userID).Lock()
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	ul.getLock(userID).Unlock()
}

// TryLock attempts to acquire the lock without blocking and reports
// whether it succeeded.
func (ul *UserLock) TryLock(userID int64) bool {
	return ul.getLock(userID).TryLock()
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}
