// Package findowners implements the line-oriented OWNERS syntax.
//
// Supported directives:
//
//	set noparent
//	<email>                         one owner per line, '*' matches all users
//	include [project:[branch:]]path import the whole referenced config
//	file: [project:[branch:]]path   import only its global owner sets
//	per-file <exprs> = <owners>     owners restricted to matching paths
//	per-file <exprs> = set noparent
//	per-file <exprs> = file: <ref>
//	# comment                       full-line and inline
//
// Malformed emails and unrecognized lines are skipped; they never fail the
// whole parse.
package findowners

import (
	"codeowners/internal/backend"
	"codeowners/internal/model"
)

const (
	// BackendID selects this backend in the configuration.
	BackendID = "find-owners"

	// ConfigFileName is the default code owner config file name.
	ConfigFileName = "OWNERS"
)

type findOwnersBackend struct{}

func (findOwnersBackend) ID() string { return BackendID }

func (findOwnersBackend) FileName() string { return ConfigFileName }

func (findOwnersBackend) IsCodeOwnerConfigFile(fileName, fileExtension string) bool {
	want := ConfigFileName
	if fileExtension != "" {
		want += "." + fileExtension
	}
	return fileName == want
}

func (findOwnersBackend) Parse(key model.Key, content []byte) (model.CodeOwnerConfig, error) {
	return parse(key, string(content))
}

func (findOwnersBackend) Format(cfg model.CodeOwnerConfig) ([]byte, error) {
	return []byte(format(cfg)), nil
}

func init() {
	backend.Register(findOwnersBackend{})
}
