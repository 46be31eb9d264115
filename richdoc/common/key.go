package common

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionID identifies the process (or editing session) that minted a key.
// It is implemented as a UUID v7 which provides time-ordered values.
type SessionID uuid.UUID

// NilSessionID is the zero value for SessionID.
var NilSessionID SessionID

// NewSessionID creates a new SessionID using UUID v7.
// It panics if the UUID cannot be created.
func NewSessionID() SessionID {
	const retry = 3

	var lastErr error
	var id uuid.UUID
	for i := 0; i < retry; i++ {
		id, lastErr = uuid.NewV7()
		if lastErr == nil {
			break
		}
	}

	if lastErr != nil {
		panic(lastErr)
	}

	return SessionID(id)
}

// String returns the string representation of the SessionID.
func (s SessionID) String() string {
	return uuid.UUID(s).String()
}

// Key is the opaque identifier of a node. Keys are handed out by NextKey and
// are never handed out twice within a process.
type Key struct {
	SID     SessionID
	Counter uint64
}

// NilKey is the zero Key. It never names a node.
var NilKey Key

var processSID = NewSessionID()

var keyCounter atomic.Uint64

// NextKey returns a key that has never been returned before in this process.
func NextKey() Key {
	return Key{SID: processSID, Counter: keyCounter.Add(1)}
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == NilKey
}

// Compare orders keys by session and then by counter.
// Returns -1 if k < other, 0 if equal and 1 if k > other.
func (k Key) Compare(other Key) int {
	a, b := uuid.UUID(k.SID), uuid.UUID(other.SID)
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case k.Counter < other.Counter:
		return -1
	case k.Counter > other.Counter:
		return 1
	}
	return 0
}

// String returns a short form suitable for logs.
func (k Key) String() string {
	if k.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("%d@%s", k.Counter, uuid.UUID(k.SID).String()[:8])
}
