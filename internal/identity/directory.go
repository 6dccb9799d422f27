// Package identity abstracts the account directory the resolver runs
// against: who exists, which emails they own, whether they are active and
// who can see them.
package identity

import (
	"context"

	"codeowners/internal/model"
)

// Account is a directory entry.
type Account struct {
	ID model.AccountID

	// Email is the preferred email of the account.
	Email string

	// SecondaryEmails are additional emails bound to the account.
	SecondaryEmails []string

	// Active is false for deactivated accounts; inactive accounts never
	// resolve as code owners.
	Active bool

	// Groups are the group memberships used by group-scoped visibility.
	Groups []string
}

// HasEmail reports whether the email is bound to the account
// (case-sensitive, emails are stored normalized).
func (a Account) HasEmail(email string) bool {
	if a.Email == email {
		return true
	}
	for _, e := range a.SecondaryEmails {
		if e == email {
			return true
		}
	}
	return false
}

// Directory answers account lookups for the resolver.
type Directory interface {
	// AccountsByEmail returns every account the email is bound to. More
	// than one result means the email is ambiguous.
	AccountsByEmail(ctx context.Context, email string) ([]Account, error)

	// AllActiveAccounts returns all active accounts, for resolving the
	// all-users wildcard.
	AllActiveAccounts(ctx context.Context) ([]Account, error)

	// IsVisibleTo reports whether the account is visible to the
	// requesting account.
	IsVisibleTo(ctx context.Context, account Account, requester model.AccountID) (bool, error)
}
