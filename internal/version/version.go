// Package version holds build metadata, overridable at link time.
package version

var Version = "dev"
