// Package version carries the build version reported at startup.
package version

// Version is overridden at build time via
// -ldflags "-X github.com/timileyin42/ultimateco-entrypoint/pkg/version.Version=v1.2.3".
var Version = "dev"
