package model

// FileStatus describes how a changed file was modified.
type FileStatus string

const (
	FileStatusAdded    FileStatus = "A"
	FileStatusModified FileStatus = "M"
	FileStatusDeleted  FileStatus = "D"
	FileStatusRenamed  FileStatus = "R"
)

// ChangedFile is one (old path, new path) pair of a change. Added files
// have only a new path, deleted files only an old path, renamed files
// both.
type ChangedFile struct {
	Status  FileStatus `yaml:"status"`
	OldPath string     `yaml:"old_path,omitempty"`
	NewPath string     `yaml:"new_path,omitempty"`
}

// Paths returns the paths that require code owner approval for this file:
// the old path for deletions and renames, the new path for additions,
// modifications and renames.
func (f ChangedFile) Paths() []string {
	var out []string
	switch f.Status {
	case FileStatusAdded, FileStatusModified:
		out = append(out, NormalizeFilePath(f.NewPath))
	case FileStatusDeleted:
		out = append(out, NormalizeFilePath(f.OldPath))
	case FileStatusRenamed:
		out = append(out, NormalizeFilePath(f.OldPath), NormalizeFilePath(f.NewPath))
	}
	return out
}

// Vote is a label vote by an account on the current revision of a change.
type Vote struct {
	Account AccountID `yaml:"account"`
	Label   string    `yaml:"label"`
	Value   int       `yaml:"value"`
}

// Change is the review state the approval evaluator runs against.
type Change struct {
	Project string `yaml:"project"`
	Branch  string `yaml:"branch"`

	// Uploader is the account that uploaded the current revision.
	Uploader AccountID `yaml:"uploader"`

	// Reviewers are the accounts currently on the reviewer list.
	Reviewers []AccountID `yaml:"reviewers"`

	Votes []Vote        `yaml:"votes"`
	Files []ChangedFile `yaml:"files"`
}

// IsReviewer reports whether the account is on the reviewer list.
func (c Change) IsReviewer(id AccountID) bool {
	for _, r := range c.Reviewers {
		if r == id {
			return true
		}
	}
	return false
}

// VoteValue returns the highest vote value the account has on the label,
// and false if the account has not voted on it.
func (c Change) VoteValue(id AccountID, label string) (int, bool) {
	best := 0
	found := false
	for _, v := range c.Votes {
		if v.Account != id || v.Label != label {
			continue
		}
		if !found || v.Value > best {
			best = v.Value
		}
		found = true
	}
	return best, found
}
