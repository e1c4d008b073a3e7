// Package version provides build version information for the application.
// This is a separate package to avoid import cycles between cli and instance packages.
package version

// Version is the build version string, set by ldflags during build.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v1.2.0"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// ProtocolVersion is the activation wire format version spoken by this build.
// Followers and leaders built from different releases only interoperate when
// this value matches.
const ProtocolVersion = 1
