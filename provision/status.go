package provision

import (
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/smarttuppleware/hubprov"
)

// StatusStore holds the outcome of the most recent connection attempt.
// There is no history; each record overwrites the last. The initial value
// reports "not attempted" with a null success so a controller can tell
// "never provisioned" from "provisioning failed".
type StatusStore struct {
	mu  sync.RWMutex
	cur hubprov.Outcome
}

func NewStatusStore() *StatusStore {
	return &StatusStore{cur: hubprov.NotAttempted()}
}

// Record atomically replaces the stored outcome.
func (s *StatusStore) Record(o hubprov.Outcome) {
	s.mu.Lock()
	s.cur = o
	s.mu.Unlock()
}

// Current returns the stored outcome.
func (s *StatusStore) Current() hubprov.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Bytes serializes the stored outcome for a status read.
func (s *StatusStore) Bytes() []byte {
	out, err := jsoniter.Marshal(s.Current())
	if err != nil {
		// Outcome has no unmarshalable fields; this cannot happen
		return []byte(`{"success":false,"reason":"status serialization failed"}`)
	}
	return out
}
