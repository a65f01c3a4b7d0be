package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every ledger transaction, including the
	// time spent waiting for the partner row lock.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultActor is recorded as erfasst_von when no user is authenticated.
	DefaultActor = "system"
)
