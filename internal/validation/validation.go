// Package validation checks code owner config files touched by a commit
// for syntactic and semantic problems before they enter the repository.
package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"codeowners/internal/backend"
	"codeowners/internal/matcher"
	"codeowners/internal/model"
	"codeowners/internal/resolver"
	"codeowners/internal/store"
)

// Severity of a validation message.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityHint    Severity = "HINT"
)

var severityRank = map[Severity]int{
	SeverityError:   0,
	SeverityWarning: 1,
	SeverityHint:    2,
}

// Message is one validation finding on one config file.
type Message struct {
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s: %s", m.Severity, m.Path, m.Text)
}

// Result collects the messages of one validated revision.
type Result struct {
	Policy   model.ValidationPolicy `json:"policy"`
	Messages []Message              `json:"messages,omitempty"`
}

// HasErrors reports whether any message has severity ERROR.
func (r Result) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Rejects reports whether the revision must be rejected: errors were
// found and the policy is blocking (not a dry run).
func (r Result) Rejects() bool {
	return r.Policy.Blocking() && r.HasErrors()
}

// Validator validates the code owner config files changed by a revision.
type Validator struct {
	Store         store.TreeStore
	Backend       backend.Backend
	FileExtension string
	Resolver      *resolver.Resolver
	Policy        model.ValidationPolicy
}

// ValidateRevision validates all code owner config files the revision
// touches. Issues that already exist in the parent revision's version of
// a file are downgraded from ERROR to WARNING, so that unrelated changes
// are not blocked by problems they did not introduce. Requester scopes
// owner-resolution checks.
func (v *Validator) ValidateRevision(ctx context.Context, project, branch string, rev store.Revision, requester model.AccountID) (Result, error) {
	result := Result{Policy: v.Policy}
	if !v.Policy.Enabled() {
		return result, nil
	}

	changed, err := v.Store.ChangedPaths(ctx, project, rev)
	if err != nil {
		return Result{}, fmt.Errorf("listing changed paths of %s: %w", rev, err)
	}

	parent, hasParent, err := v.Store.ParentRevision(ctx, project, rev)
	if err != nil {
		return Result{}, fmt.Errorf("resolving parent of %s: %w", rev, err)
	}

	for _, cp := range changed {
		path := cp.Path()
		if cp.Status == model.FileStatusDeleted || !v.Backend.IsCodeOwnerConfigFile(baseName(path), v.FileExtension) {
			continue
		}

		messages, err := v.validateFile(ctx, project, branch, rev, path)
		if err != nil {
			return Result{}, err
		}
		if len(messages) > 0 && hasParent {
			oldPath := path
			if cp.Status == model.FileStatusRenamed && cp.OldPath != "" {
				oldPath = cp.OldPath
			}
			baseline, err := v.validateFile(ctx, project, branch, parent, oldPath)
			if err != nil {
				return Result{}, err
			}
			messages = downgradePreExisting(messages, baseline)
		}
		result.Messages = append(result.Messages, messages...)
	}

	sort.SliceStable(result.Messages, func(i, j int) bool {
		if result.Messages[i].Path != result.Messages[j].Path {
			return result.Messages[i].Path < result.Messages[j].Path
		}
		return severityRank[result.Messages[i].Severity] < severityRank[result.Messages[j].Severity]
	})
	return result, nil
}

// validateFile parses and semantically checks one config file at one
// revision. A missing file yields no messages.
func (v *Validator) validateFile(ctx context.Context, project, branch string, rev store.Revision, path string) ([]Message, error) {
	content, found, err := v.Store.ReadBlob(ctx, project, rev, strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", path, rev, err)
	}
	if !found {
		return nil, nil
	}

	key := model.NewKey(project, branch, folderOf(path))
	cfg, err := v.Backend.Parse(key, content)
	if err != nil {
		var parseErr *backend.ParseError
		if errors.As(err, &parseErr) {
			return []Message{{Path: path, Severity: SeverityError, Text: parseErr.Message}}, nil
		}
		return nil, err
	}

	var messages []Message
	add := func(severity Severity, format string, args ...any) {
		messages = append(messages, Message{Path: path, Severity: severity, Text: fmt.Sprintf(format, args...)})
	}

	for _, set := range cfg.CodeOwnerSets {
		for _, expr := range set.PathExpressions {
			if err := matcher.Validate(expr); err != nil {
				add(SeverityError, "invalid path expression %q: %v", expr, err)
			}
		}
		for _, ref := range set.CodeOwners {
			v.checkOwnerReference(ctx, add, ref, requesterNone)
		}
		for _, imp := range set.Imports {
			v.checkImport(ctx, add, imp, key)
		}
	}
	for _, imp := range cfg.Imports {
		v.checkImport(ctx, add, imp, key)
	}
	return messages, nil
}

// requesterNone validates resolvability without a concrete requester;
// visibility is not enforced during validation.
const requesterNone = model.AccountID("")

func (v *Validator) checkOwnerReference(ctx context.Context, add func(Severity, string, ...any), ref model.CodeOwnerReference, requester model.AccountID) {
	if ref.Email == model.AllUsersWildcard {
		return
	}
	if !resolver.IsEmailDomainAllowed(ref.Email, v.Resolver.AllowedEmailDomains) {
		add(SeverityError, "the domain %q of code owner %q is not allowed",
			emailDomain(ref.Email), ref.Email)
		return
	}
	owners, err := v.Resolver.Resolve(ctx, ref, requester, false)
	if err != nil {
		add(SeverityError, "resolving code owner %q: %v", ref.Email, err)
		return
	}
	if len(owners) == 0 {
		add(SeverityError, "code owner email %q cannot be resolved", ref.Email)
	}
}

func (v *Validator) checkImport(ctx context.Context, add func(Severity, string, ...any), imp model.CodeOwnerConfigReference, importingKey model.Key) {
	targetKey := imp.Key(importingKey)
	rev, err := v.Store.ResolveRevision(ctx, targetKey.Project, targetKey.Branch)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			add(SeverityError, "import %s: project %q not found", imp, targetKey.Project)
		} else {
			add(SeverityError, "import %s: branch %q not found", imp, targetKey.Branch)
		}
		return
	}
	content, found, err := v.Store.ReadBlob(ctx, targetKey.Project, rev, targetKey.BlobPath(imp.FileName()))
	if err != nil {
		add(SeverityError, "import %s: %v", imp, err)
		return
	}
	if !found {
		add(SeverityError, "import %s: config file not found", imp)
		return
	}
	if _, err := v.Backend.Parse(targetKey, content); err != nil {
		add(SeverityError, "import %s: imported config is not parsable", imp)
	}
}

// downgradePreExisting demotes ERROR messages whose text already occurs
// in the baseline (parent revision) findings to WARNING.
func downgradePreExisting(messages, baseline []Message) []Message {
	existing := make(map[string]struct{}, len(baseline))
	for _, m := range baseline {
		existing[m.Text] = struct{}{}
	}
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Severity == SeverityError {
			if _, ok := existing[m.Text]; ok {
				m.Severity = SeverityWarning
			}
		}
		out = append(out, m)
	}
	return out
}

func emailDomain(email string) string {
	idx := strings.LastIndex(email, "@")
	if idx < 0 {
		return ""
	}
	return email[idx+1:]
}

func baseName(p string) string {
	idx := strings.LastIndex(p, "/")
	return p[idx+1:]
}

func folderOf(p string) string {
	p = model.NormalizeFilePath(p)
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}
