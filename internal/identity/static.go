package identity

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"codeowners/internal/model"
)

// Visibility modes of the static directory.
const (
	VisibilityAll       = "all"
	VisibilitySameGroup = "same-group"
	VisibilityNone      = "none"
)

// StaticDirectory is a Directory loaded from a YAML accounts file.
//
// File format:
//
//	visibility: all          # all | same-group | none
//	accounts:
//	  - id: "1000"
//	    email: jane@example.com
//	    secondary_emails: [jd@example.com]
//	    active: true
//	    groups: [devs]
type StaticDirectory struct {
	visibility string
	accounts   []Account
	byID       map[model.AccountID]Account
}

type staticFile struct {
	Visibility string          `yaml:"visibility,omitempty"`
	Accounts   []staticAccount `yaml:"accounts"`
}

type staticAccount struct {
	ID              string   `yaml:"id"`
	Email           string   `yaml:"email"`
	SecondaryEmails []string `yaml:"secondary_emails,omitempty"`
	Active          *bool    `yaml:"active,omitempty"`
	Groups          []string `yaml:"groups,omitempty"`
}

// LoadStaticDirectory reads an accounts file from disk.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	return ParseStaticDirectory(content)
}

// ParseStaticDirectory builds a directory from accounts file content.
func ParseStaticDirectory(content []byte) (*StaticDirectory, error) {
	var file staticFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}

	visibility := file.Visibility
	if visibility == "" {
		visibility = VisibilityAll
	}
	switch visibility {
	case VisibilityAll, VisibilitySameGroup, VisibilityNone:
	default:
		return nil, fmt.Errorf("unsupported accounts visibility %q (must be one of: all, same-group, none)", file.Visibility)
	}

	d := &StaticDirectory{
		visibility: visibility,
		byID:       make(map[model.AccountID]Account, len(file.Accounts)),
	}
	for i, a := range file.Accounts {
		if a.ID == "" {
			return nil, fmt.Errorf("accounts[%d]: id must not be empty", i)
		}
		active := true
		if a.Active != nil {
			active = *a.Active
		}
		account := Account{
			ID:              model.AccountID(a.ID),
			Email:           a.Email,
			SecondaryEmails: a.SecondaryEmails,
			Active:          active,
			Groups:          a.Groups,
		}
		if _, dup := d.byID[account.ID]; dup {
			return nil, fmt.Errorf("accounts[%d]: duplicate account id %q", i, a.ID)
		}
		d.byID[account.ID] = account
		d.accounts = append(d.accounts, account)
	}
	return d, nil
}

func (d *StaticDirectory) AccountsByEmail(ctx context.Context, email string) ([]Account, error) {
	var out []Account
	for _, a := range d.accounts {
		if a.HasEmail(email) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *StaticDirectory) AllActiveAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	for _, a := range d.accounts {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *StaticDirectory) IsVisibleTo(ctx context.Context, account Account, requester model.AccountID) (bool, error) {
	switch d.visibility {
	case VisibilityAll:
		return true, nil
	case VisibilityNone:
		return account.ID == requester, nil
	case VisibilitySameGroup:
		if account.ID == requester {
			return true, nil
		}
		req, ok := d.byID[requester]
		if !ok {
			return false, nil
		}
		for _, g := range account.Groups {
			for _, rg := range req.Groups {
				if g == rg {
					return true, nil
				}
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported accounts visibility %q", d.visibility)
	}
}
