// Package keyring holds the ordered set of generation-service credentials and
// the cursor for the currently active one.
package keyring

import (
	"fmt"
	"log/slog"

	"github.com/profescore/review-extractor/internal/domain"
)

// Keyring is an ordered, non-empty credential set with a circular cursor.
// Processing is strictly sequential so no locking is needed; callers that
// parallelize runs must use one Keyring per worker or serialize rotation.
type Keyring struct {
	keys   []string
	cursor int
}

// New builds a Keyring from the configured credentials. An empty set is a
// configuration error: the pipeline cannot run at all without a key.
func New(keys []string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("op=keyring.New: %w", domain.ErrNoCredentials)
	}
	return &Keyring{keys: keys}, nil
}

// Current returns the active credential.
func (k *Keyring) Current() string { return k.keys[k.cursor] }

// Rotate advances the cursor circularly and returns the new active credential.
// The caller must re-configure the generation client afterwards; the keyring
// itself has no knowledge of the service.
func (k *Keyring) Rotate() string {
	prev := k.cursor
	k.cursor = (k.cursor + 1) % len(k.keys)
	slog.Info("rotating api key", slog.Int("from", prev+1), slog.Int("to", k.cursor+1), slog.Int("total", len(k.keys)))
	return k.Current()
}

// Len returns the number of credentials in the set.
func (k *Keyring) Len() int { return len(k.keys) }
