// ABOUTME: Identity resolver telling the engine which addresses belong to the operating user
// ABOUTME: Combines configured addresses with an optional account lookup cached after first success and backed off after failure
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// failureBackoff is how long a failed account lookup is remembered before the
// account is asked again.
const failureBackoff = time.Minute

// AccountSource returns the address of the signed-in account.
type AccountSource interface {
	Email(ctx context.Context) (string, error)
}

// Resolver implements the engine's identity resolver for a single-user install.
type Resolver struct {
	static  []string
	account AccountSource
	now     func() time.Time
	lookups singleflight.Group

	mu       sync.Mutex
	cached   string
	failedAt time.Time
	lastErr  error
}

// NewResolver creates a resolver. account may be nil.
func NewResolver(static []string, account AccountSource) *Resolver {
	var emails []string
	for _, e := range static {
		if e = normalizeEmail(e); e != "" {
			emails = append(emails, e)
		}
	}
	return &Resolver{static: emails, account: account, now: time.Now}
}

// SelfEmails returns the user's addresses. When the account lookup fails the
// configured addresses are still returned alongside the error.
func (r *Resolver) SelfEmails(ctx context.Context, _ uuid.UUID) ([]string, error) {
	emails := append([]string(nil), r.static...)
	if r.account == nil {
		return emails, nil
	}

	email, err := r.accountEmail(ctx)
	if email != "" && !contains(emails, email) {
		emails = append(emails, email)
	}
	return emails, err
}

// accountEmail returns the cached account address or looks it up. The mutex
// only guards the cached state; concurrent misses share one lookup.
func (r *Resolver) accountEmail(ctx context.Context) (string, error) {
	r.mu.Lock()
	cached, lastErr, failedAt := r.cached, r.lastErr, r.failedAt
	r.mu.Unlock()

	if cached != "" {
		return cached, nil
	}
	if lastErr != nil && r.now().Sub(failedAt) < failureBackoff {
		return "", lastErr
	}

	ch := r.lookups.DoChan("account", func() (any, error) {
		email, err := r.account.Email(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			// A cancelled caller says nothing about the account.
			if ctx.Err() == nil {
				r.lastErr, r.failedAt = err, r.now()
			}
			return "", err
		}
		r.cached, r.lastErr = normalizeEmail(email), nil
		return r.cached, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
