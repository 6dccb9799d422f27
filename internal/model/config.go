package model

// CodeOwnerConfig is the backend-independent representation of a code owner
// configuration for a folder in a branch. Values are immutable once built;
// modifications go through ToBuilder and produce a new value.
type CodeOwnerConfig struct {
	Key Key

	// IgnoreParentCodeOwners stops inheritance of code owners from configs
	// in parent folders ("set noparent").
	IgnoreParentCodeOwners bool

	// CodeOwnerSets are the owner sets of this config, in declaration
	// order, deduplicated.
	CodeOwnerSets []CodeOwnerSet

	// Imports are the global import references of this config.
	Imports []CodeOwnerConfigReference
}

// IsEmpty reports whether the config declares nothing. An empty config is
// equivalent to an absent config and is deleted rather than stored.
func (c CodeOwnerConfig) IsEmpty() bool {
	if c.IgnoreParentCodeOwners || len(c.Imports) > 0 {
		return false
	}
	for _, s := range c.CodeOwnerSets {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// GlobalCodeOwnerSets returns the owner sets without path expressions.
func (c CodeOwnerConfig) GlobalCodeOwnerSets() []CodeOwnerSet {
	var out []CodeOwnerSet
	for _, s := range c.CodeOwnerSets {
		if s.IsGlobal() {
			out = append(out, s)
		}
	}
	return out
}

// PerFileCodeOwnerSets returns the owner sets with path expressions.
func (c CodeOwnerConfig) PerFileCodeOwnerSets() []CodeOwnerSet {
	var out []CodeOwnerSet
	for _, s := range c.CodeOwnerSets {
		if !s.IsGlobal() {
			out = append(out, s)
		}
	}
	return out
}

// ToBuilder creates a builder pre-populated with this config.
func (c CodeOwnerConfig) ToBuilder() *CodeOwnerConfigBuilder {
	b := NewCodeOwnerConfigBuilder(c.Key)
	b.cfg = c
	return b
}

// CodeOwnerConfigBuilder assembles immutable CodeOwnerConfig values.
type CodeOwnerConfigBuilder struct {
	cfg CodeOwnerConfig
}

func NewCodeOwnerConfigBuilder(key Key) *CodeOwnerConfigBuilder {
	return &CodeOwnerConfigBuilder{cfg: CodeOwnerConfig{Key: key}}
}

func (b *CodeOwnerConfigBuilder) SetIgnoreParentCodeOwners(ignore bool) *CodeOwnerConfigBuilder {
	b.cfg.IgnoreParentCodeOwners = ignore
	return b
}

func (b *CodeOwnerConfigBuilder) AddCodeOwnerSet(set CodeOwnerSet) *CodeOwnerConfigBuilder {
	b.cfg.CodeOwnerSets = append(b.cfg.CodeOwnerSets, set.Normalize())
	return b
}

// AddCodeOwnerEmail adds an owner email to the config's first global owner
// set, creating one if needed.
func (b *CodeOwnerConfigBuilder) AddCodeOwnerEmail(email string) *CodeOwnerConfigBuilder {
	for i, s := range b.cfg.CodeOwnerSets {
		if s.IsGlobal() {
			s.CodeOwners = dedupReferences(append(s.CodeOwners, NewCodeOwnerReference(email)))
			b.cfg.CodeOwnerSets[i] = s
			return b
		}
	}
	return b.AddCodeOwnerSet(NewCodeOwnerSet(email))
}

func (b *CodeOwnerConfigBuilder) AddImport(ref CodeOwnerConfigReference) *CodeOwnerConfigBuilder {
	b.cfg.Imports = dedupImports(append(b.cfg.Imports, ref))
	return b
}

// Build returns the assembled config with duplicate sets removed
// (insertion order preserved).
func (b *CodeOwnerConfigBuilder) Build() CodeOwnerConfig {
	cfg := b.cfg
	if len(cfg.CodeOwnerSets) > 0 {
		seen := make(map[string]struct{}, len(cfg.CodeOwnerSets))
		out := make([]CodeOwnerSet, 0, len(cfg.CodeOwnerSets))
		for _, s := range cfg.CodeOwnerSets {
			fp := ownerSetFingerprint(s)
			if _, ok := seen[fp]; ok {
				continue
			}
			seen[fp] = struct{}{}
			out = append(out, s)
		}
		cfg.CodeOwnerSets = out
	}
	cfg.Imports = dedupImports(cfg.Imports)
	return cfg
}

func ownerSetFingerprint(s CodeOwnerSet) string {
	fp := ""
	for _, e := range s.PathExpressions {
		fp += "e:" + e + "\x00"
	}
	for _, o := range s.CodeOwners {
		fp += "o:" + o.Email + "\x00"
	}
	for _, i := range s.Imports {
		fp += "i:" + i.String() + string(i.Mode) + "\x00"
	}
	if s.IgnoreGlobalAndParentCodeOwners {
		fp += "noparent"
	}
	return fp
}
