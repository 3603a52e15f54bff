// Package klog is the kernel's own banner/diagnostic printer. biscuit has
// no logging library anywhere in its tree; kernel-land code calls
// fmt.Printf directly (mem.go's coremap summaries, stats.go's counter
// dumps), so klog is a thin wrapper over that same convention rather than
// a new dependency: a single place callers reach for instead of sprinkling
// fmt.Printf/os.Exit through boot code and subsystem error paths.
package klog

import (
	"fmt"
	"os"
)

// Printf writes a kernel diagnostic line to stdout, banner style.
func Printf(format string, args ...interface{}) {
	fmt.Printf("klog: "+format, args...)
}

// Fatalf writes a diagnostic line and then terminates the process, for the
// handful of boot-time failures that have no graceful recovery (out of
// simulated RAM before the first process exists, a VFS collaborator that
// refuses to open the root).
func Fatalf(format string, args ...interface{}) {
	fmt.Printf("klog: fatal: "+format, args...)
	os.Exit(1)
}
