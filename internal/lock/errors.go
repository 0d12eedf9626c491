package lock

import "errors"

var (
	// ErrContractForbidden reports a lock operation attempted by a contract
	// address.
	ErrContractForbidden = errors.New("lock: contract addresses cannot interact with locks")
	// ErrLockAlreadyExists reports CreateLock called while a live lock exists.
	ErrLockAlreadyExists = errors.New("lock: a lock already exists for this address")
	// ErrLockDoesNotExist reports an operation requiring an existing lock
	// finding none.
	ErrLockDoesNotExist = errors.New("lock: no lock exists for this address")
	// ErrLockExpired reports an operation forbidden once the lock has
	// decayed past its end time.
	ErrLockExpired = errors.New("lock: lock has expired")
	// ErrInsufficientAmount reports a zero deposit/increase amount.
	ErrInsufficientAmount = errors.New("lock: amount must be positive")
	// ErrEndLockTimeTooEarly reports an end_lock_time at or before now, or
	// not strictly later than the current lock's end on extension.
	ErrEndLockTimeTooEarly = errors.New("lock: end_lock_time is too early")
	// ErrEndLockTimeTooLate reports an end_lock_time beyond MaxSeconds from
	// now.
	ErrEndLockTimeTooLate = errors.New("lock: end_lock_time exceeds the maximum lock duration")
	// ErrOverflow reports numeric overflow in the coefficient arithmetic.
	ErrOverflow = errors.New("lock: numeric overflow")
)
