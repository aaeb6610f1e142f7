// Package filesystem watches the active media folder and reports mutations
// so thumbnail state for changed paths is never served stale.
package filesystem
