// Package patch applies RFC 6902 operations to typed values. The sink uses
// it for operator amendments, where accepted paths are pinned to the
// amendable appointment fields.
package patch

// RFC 6902 operation names.
const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// AllowSet builds the allowed-path set for ValidateOperations.
func AllowSet(paths ...string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}
