package service

import "sync"

// LedgerGuard serializes whole-value read-modify-write cycles against the
// KV stores within one process. The ledger is locked per user; the
// platform-wide claims list has its own lock. Holders that need both take
// the user lock first, then the claims lock, so the two never deadlock.
//
// The server process hosts every writer (the client reconciliation loop, the
// apply/withdraw handlers, and the approval write-back); the scheduler binary
// only reads. One shared guard per process is therefore sufficient.
type LedgerGuard struct {
	mu     sync.Mutex
	users  map[int64]*sync.Mutex
	claims sync.Mutex
}

func NewLedgerGuard() *LedgerGuard {
	return &LedgerGuard{users: make(map[int64]*sync.Mutex)}
}

// LockUser acquires the lock for one user's ledger slice and returns the
// release func.
func (g *LedgerGuard) LockUser(userID int64) func() {
	g.mu.Lock()
	lock, ok := g.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		g.users[userID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// LockClaims acquires the lock for the shared claims list and returns the
// release func.
func (g *LedgerGuard) LockClaims() func() {
	g.claims.Lock()
	return g.claims.Unlock
}
