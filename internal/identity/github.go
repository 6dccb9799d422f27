package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"

	"codeowners/internal/model"
)

// GitHubDirectory is a Directory backed by the membership of a GitHub
// organization. Account ids are GitHub logins; emails come from the
// members' public profiles, so members without a public email cannot be
// resolved by email. All accounts are mutually visible.
type GitHubDirectory struct {
	client *github.Client
	org    string

	mu       sync.Mutex
	loaded   bool
	accounts []Account
}

type githubOptions struct {
	verbose bool
	writer  io.Writer
}

type GitHubOption func(*githubOptions)

// WithVerbose logs one line per GitHub API request to the writer
// (typically stderr, keeping structured stdout clean).
func WithVerbose(enabled bool, w io.Writer) GitHubOption {
	return func(o *githubOptions) {
		o.verbose = enabled
		o.writer = w
	}
}

// loggingRoundTripper emits one line per request and response, including
// latency, when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	_, _ = fmt.Fprintf(t.w, "[verbose] github api: %s %s\n", req.Method, req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: error after %s: %v\n", dur, err)
	} else {
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur)
	}
	return resp, err
}

// NewGitHubDirectory builds a directory for the given organization. The
// token may be empty for public organizations.
func NewGitHubDirectory(org, token string, opts ...GitHubOption) (*GitHubDirectory, error) {
	if org == "" {
		return nil, fmt.Errorf("github directory: organization required")
	}

	o := &githubOptions{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}

	return &GitHubDirectory{
		client: github.NewClient(&http.Client{Transport: transport}),
		org:    org,
	}, nil
}

// load fetches the org membership once and caches it for the lifetime of
// the directory. Code owner evaluation is a single-request computation, so
// there is no invalidation.
func (d *GitHubDirectory) load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}

	opts := &github.ListMembersOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var logins []string
	for {
		members, resp, err := d.client.Organizations.ListMembers(ctx, d.org, opts)
		if err != nil {
			return fmt.Errorf("list members of %s: %w", d.org, err)
		}
		for _, m := range members {
			logins = append(logins, m.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	for _, login := range logins {
		user, _, err := d.client.Users.Get(ctx, login)
		if err != nil {
			return fmt.Errorf("load user %s: %w", login, err)
		}
		d.accounts = append(d.accounts, Account{
			ID:     model.AccountID(login),
			Email:  user.GetEmail(),
			Active: user.SuspendedAt == nil,
		})
	}
	d.loaded = true
	return nil
}

func (d *GitHubDirectory) AccountsByEmail(ctx context.Context, email string) ([]Account, error) {
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	var out []Account
	for _, a := range d.accounts {
		if a.HasEmail(email) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *GitHubDirectory) AllActiveAccounts(ctx context.Context) ([]Account, error) {
	if err := d.load(ctx); err != nil {
		return nil, err
	}
	var out []Account
	for _, a := range d.accounts {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *GitHubDirectory) IsVisibleTo(ctx context.Context, account Account, requester model.AccountID) (bool, error) {
	// Org membership is the visibility boundary; members see each other.
	return true, nil
}
