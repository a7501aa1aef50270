// Package status defines account status values shared by stores and auth.
package status

// Account status values.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a recognized account status.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}
