package output

// Result is one evaluated path of a change, or one validation finding.
// Sinks only see this type plus lifecycle Events.
type Result struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`

	// Owners are the resolved code owner account ids of the path, in
	// ranked order. Only set by owner listings.
	Owners []string `json:"owners,omitempty"`

	// Issues are soft failures hit while resolving the path's owners.
	Issues []string `json:"issues,omitempty"`
}
