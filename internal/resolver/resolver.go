// Package resolver turns unresolved code owner references into concrete,
// visible, active accounts.
package resolver

import (
	"context"
	"strings"

	"codeowners/internal/identity"
	"codeowners/internal/model"
)

// Resolver resolves code owner references against an identity directory.
type Resolver struct {
	Directory identity.Directory

	// AllowedEmailDomains restricts resolvable owner emails by domain.
	// Empty means unrestricted.
	AllowedEmailDomains []string
}

func New(dir identity.Directory, allowedEmailDomains []string) *Resolver {
	return &Resolver{Directory: dir, AllowedEmailDomains: allowedEmailDomains}
}

// Resolve resolves a reference to code owners on behalf of the requesting
// account.
//
// A literal email resolves to nothing when it is unregistered, bound to
// more than one account (ambiguous), bound to an inactive account, bound
// to a disallowed domain, or (when visibility is enforced) bound to an
// account the requester cannot see. The all-users wildcard resolves to
// every active, domain-allowed account the requester can see.
//
// Visibility enforcement is a filter, not an error: filtered accounts are
// silently dropped. Internal call paths that act on behalf of the server
// pass enforceVisibility == false.
func (r *Resolver) Resolve(ctx context.Context, ref model.CodeOwnerReference, requester model.AccountID, enforceVisibility bool) ([]model.CodeOwner, error) {
	if ref.IsAllUsers() {
		return r.resolveAllUsers(ctx, requester, enforceVisibility)
	}

	if !IsEmailDomainAllowed(ref.Email, r.AllowedEmailDomains) {
		return nil, nil
	}

	accounts, err := r.Directory.AccountsByEmail(ctx, ref.Email)
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		// Unregistered or ambiguous.
		return nil, nil
	}

	account := accounts[0]
	if !account.Active {
		return nil, nil
	}
	if enforceVisibility {
		visible, err := r.Directory.IsVisibleTo(ctx, account, requester)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, nil
		}
	}
	return []model.CodeOwner{{AccountID: account.ID, Email: ref.Email}}, nil
}

func (r *Resolver) resolveAllUsers(ctx context.Context, requester model.AccountID, enforceVisibility bool) ([]model.CodeOwner, error) {
	accounts, err := r.Directory.AllActiveAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.CodeOwner
	for _, account := range accounts {
		if !IsEmailDomainAllowed(account.Email, r.AllowedEmailDomains) {
			continue
		}
		if enforceVisibility {
			visible, err := r.Directory.IsVisibleTo(ctx, account, requester)
			if err != nil {
				return nil, err
			}
			if !visible {
				continue
			}
		}
		out = append(out, model.CodeOwner{AccountID: account.ID, Email: account.Email})
	}
	return out, nil
}

// IsEmailDomainAllowed reports whether the email's domain is on the
// allow-list. The comparison is case-insensitive over the substring after
// the last '@'; an empty allow-list allows every email.
func IsEmailDomainAllowed(email string, allowedDomains []string) bool {
	if len(allowedDomains) == 0 {
		return true
	}
	idx := strings.LastIndex(email, "@")
	if idx < 0 || idx == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[idx+1:])
	for _, allowed := range allowedDomains {
		if strings.ToLower(allowed) == domain {
			return true
		}
	}
	return false
}
