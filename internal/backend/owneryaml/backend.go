// Package owneryaml implements a structured, schema-validated code owner
// config syntax on top of YAML.
//
// Example:
//
//	ignore_parent: true
//	owners:
//	  - admin@example.com
//	imports:
//	  - path: /build/OWNERS.yaml
//	    mode: ALL
//	per_file:
//	  - paths: ["*.md"]
//	    owners: [docs@example.com]
//
// Unlike the find-owners syntax, schema violations abort the parse with an
// error pinpointing the offending line.
package owneryaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"codeowners/internal/backend"
	"codeowners/internal/model"
)

const (
	// BackendID selects this backend in the configuration.
	BackendID = "owners-yaml"

	// ConfigFileName is the default code owner config file name.
	ConfigFileName = "OWNERS.yaml"
)

type yamlBackend struct{}

func (yamlBackend) ID() string { return BackendID }

func (yamlBackend) FileName() string { return ConfigFileName }

func (yamlBackend) IsCodeOwnerConfigFile(fileName, fileExtension string) bool {
	want := ConfigFileName
	if fileExtension != "" {
		want += "." + fileExtension
	}
	return fileName == want
}

type configDoc struct {
	IgnoreParent bool         `yaml:"ignore_parent,omitempty"`
	Owners       []string     `yaml:"owners,omitempty"`
	Imports      []importDoc  `yaml:"imports,omitempty"`
	PerFile      []perFileDoc `yaml:"per_file,omitempty"`
}

type importDoc struct {
	Project string `yaml:"project,omitempty"`
	Branch  string `yaml:"branch,omitempty"`
	Path    string `yaml:"path"`
	Mode    string `yaml:"mode,omitempty"`
}

type perFileDoc struct {
	Paths                 []string    `yaml:"paths"`
	Owners                []string    `yaml:"owners,omitempty"`
	Imports               []importDoc `yaml:"imports,omitempty"`
	IgnoreGlobalAndParent bool        `yaml:"ignore_global_and_parent,omitempty"`
}

func (yamlBackend) Parse(key model.Key, content []byte) (model.CodeOwnerConfig, error) {
	var doc configDoc
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return model.CodeOwnerConfig{}, parseError(key, err)
	}

	b := model.NewCodeOwnerConfigBuilder(key)
	b.SetIgnoreParentCodeOwners(doc.IgnoreParent)

	for _, imp := range doc.Imports {
		ref, err := importRef(imp)
		if err != nil {
			return model.CodeOwnerConfig{}, &backend.ParseError{Path: key.FilePath(ConfigFileName), Message: err.Error()}
		}
		b.AddImport(ref)
	}

	if len(doc.Owners) > 0 {
		b.AddCodeOwnerSet(model.NewCodeOwnerSet(doc.Owners...))
	}

	for i, pf := range doc.PerFile {
		if len(pf.Paths) == 0 {
			return model.CodeOwnerConfig{}, &backend.ParseError{
				Path:    key.FilePath(ConfigFileName),
				Message: fmt.Sprintf("per_file entry %d: paths must not be empty", i),
			}
		}
		set := model.NewPerFileCodeOwnerSet(pf.Paths, pf.Owners...)
		set.IgnoreGlobalAndParentCodeOwners = pf.IgnoreGlobalAndParent
		for _, imp := range pf.Imports {
			ref, err := importRef(imp)
			if err != nil {
				return model.CodeOwnerConfig{}, &backend.ParseError{Path: key.FilePath(ConfigFileName), Message: err.Error()}
			}
			set.Imports = append(set.Imports, ref)
		}
		b.AddCodeOwnerSet(set.Normalize())
	}
	return b.Build(), nil
}

func (yamlBackend) Format(cfg model.CodeOwnerConfig) ([]byte, error) {
	doc := configDoc{IgnoreParent: cfg.IgnoreParentCodeOwners}

	for _, ref := range cfg.Imports {
		doc.Imports = append(doc.Imports, importDoc{
			Project: ref.Project,
			Branch:  ref.Branch,
			Path:    ref.FilePath,
			Mode:    string(ref.Mode),
		})
	}
	for _, set := range cfg.GlobalCodeOwnerSets() {
		for _, o := range set.CodeOwners {
			doc.Owners = append(doc.Owners, o.Email)
		}
	}
	for _, set := range cfg.PerFileCodeOwnerSets() {
		pf := perFileDoc{
			Paths:                 set.PathExpressions,
			IgnoreGlobalAndParent: set.IgnoreGlobalAndParentCodeOwners,
		}
		for _, o := range set.CodeOwners {
			pf.Owners = append(pf.Owners, o.Email)
		}
		for _, ref := range set.Imports {
			pf.Imports = append(pf.Imports, importDoc{
				Project: ref.Project,
				Branch:  ref.Branch,
				Path:    ref.FilePath,
				Mode:    string(ref.Mode),
			})
		}
		doc.PerFile = append(doc.PerFile, pf)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("format code owner config %s: %w", cfg.Key, err)
	}
	return out, nil
}

func importRef(doc importDoc) (model.CodeOwnerConfigReference, error) {
	if doc.Path == "" {
		return model.CodeOwnerConfigReference{}, fmt.Errorf("import: path must not be empty")
	}
	mode := model.ImportMode(doc.Mode)
	switch mode {
	case "":
		mode = model.ImportModeGlobalCodeOwnerSetsOnly
	case model.ImportModeAll, model.ImportModeGlobalCodeOwnerSetsOnly:
	default:
		return model.CodeOwnerConfigReference{}, fmt.Errorf("import %s: unknown mode %q", doc.Path, doc.Mode)
	}
	ref := model.NewCodeOwnerConfigReference(mode, doc.Path)
	ref.Project = doc.Project
	if doc.Branch != "" {
		ref.Branch = model.FullRef(doc.Branch)
	}
	return ref, nil
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// parseError converts a yaml decoding error into a ParseError, recovering
// the line number from the error text when present.
func parseError(key model.Key, err error) *backend.ParseError {
	pe := &backend.ParseError{
		Path:    key.FilePath(ConfigFileName),
		Message: err.Error(),
	}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			pe.Line = line
		}
	}
	return pe
}

func init() {
	backend.Register(yamlBackend{})
}
