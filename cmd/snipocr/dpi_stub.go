//go:build !windows

package main

// enableDPIAwareness is a no-op outside Windows; the overlay toolkit handles
// display scaling itself.
func enableDPIAwareness() {}
