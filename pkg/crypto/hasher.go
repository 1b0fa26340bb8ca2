package crypto

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// Observer receives the wall time of every hash or verify.
type Observer interface {
	ObserveHash(op string, d time.Duration)
}

// Hasher runs a PasswordHandler under a weighted semaphore so CPU-heavy
// hashing never occupies more than a fixed number of goroutines at once.
// It is safe for concurrent use.
type Hasher struct {
	primary   PasswordHandler
	verifiers map[Scheme]PasswordHandler
	sem       *semaphore.Weighted
	observer  Observer
}

type HasherOption func(*Hasher)

// WithConcurrency caps concurrent hash/verify operations. n < 1 is ignored.
func WithConcurrency(n int) HasherOption {
	return func(h *Hasher) {
		if n > 0 {
			h.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithObserver(o Observer) HasherOption {
	return func(h *Hasher) { h.observer = o }
}

// WithVerifier overrides the handler used to check digests of a scheme.
func WithVerifier(s Scheme, p PasswordHandler) HasherOption {
	return func(h *Hasher) { h.verifiers[s] = p }
}

// NewHasher hashes new passwords with primary (bcrypt when nil) and
// verifies existing digests with the handler matching their scheme.
func NewHasher(primary PasswordHandler, opts ...HasherOption) *Hasher {
	if primary == nil {
		primary = NewBcrypt()
	}

	h := &Hasher{
		primary: primary,
		verifiers: map[Scheme]PasswordHandler{
			SchemeBcrypt:   NewBcrypt(),
			SchemeArgon2id: NewArgon2(),
		},
		sem: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hasher) Hash(ctx context.Context, password string) (Digest, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return Digest{}, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	encoded, err := h.primary.Hash(password)
	h.observe("hash", start)
	if err != nil {
		return Digest{}, err
	}

	d, err := ParseDigest(encoded)
	if err != nil {
		return Digest{}, fmt.Errorf("hasher produced an unusable digest: %w", err)
	}
	return d, nil
}

// Verify reports whether password matches d. A zero or unknown digest is
// an error, not a mismatch.
func (h *Hasher) Verify(ctx context.Context, password string, d Digest) (bool, error) {
	if d.IsZero() {
		return false, ErrMalformedDigest
	}

	verifier, ok := h.verifiers[d.scheme]
	if !ok {
		return false, ErrUnsupportedScheme
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	ok, err := verifier.Verify(password, d.encoded)
	h.observe("verify", start)
	return ok, err
}

func (h *Hasher) observe(op string, start time.Time) {
	if h.observer != nil {
		h.observer.ObserveHash(op, time.Since(start))
	}
}
