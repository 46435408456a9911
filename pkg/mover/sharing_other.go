//go:build !windows

package mover

func isSharingViolation(error) bool {
	return false
}
