// Package labrun provides the version information for labrun.
package labrun

// Version is the current version of labrun.
const Version = "0.3.0"
