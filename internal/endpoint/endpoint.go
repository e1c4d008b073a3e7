// Package endpoint resolves where the single-instance rendezvous socket lives.
//
// Resolution is a pure function of the base directory and the application
// identifier: no files are created or inspected. Claiming the location is
// the job of the instance package.
package endpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rescale/singleinstance/internal/constants"
	"github.com/rescale/singleinstance/internal/util/sanitize"
)

// Resolution errors
var (
	ErrInvalidIdentifier = errors.New("identifier has no filesystem-safe characters")
	ErrInvalidDirectory  = errors.New("endpoint directory must be an absolute path")
	ErrPathTooLong       = errors.New("endpoint path exceeds the platform socket path limit")
)

// hashLen is the number of hex characters of the identifier digest used to
// disambiguate shortened or rewritten names.
const hashLen = 12

// Location identifies a rendezvous endpoint on the local filesystem.
type Location struct {
	// Dir is the directory that holds the socket file.
	Dir string

	// Name is the socket file name, always ending in ".sock".
	Name string

	// Path is Dir joined with Name.
	Path string
}

// String returns the socket path.
func (l Location) String() string {
	return l.Path
}

// IsZero reports whether l was never resolved.
func (l Location) IsZero() bool {
	return l.Path == ""
}

// MaxSocketPathLen returns the longest socket path the current platform accepts.
func MaxSocketPathLen() int {
	return maxPathLenFor(runtime.GOOS)
}

func maxPathLenFor(goos string) int {
	switch goos {
	case "darwin", "ios", "freebsd", "openbsd", "netbsd", "dragonfly":
		// sun_path is 104 bytes including the terminating NUL
		return 103
	default:
		// Linux and Windows AF_UNIX both use 108 bytes
		return 107
	}
}

// Resolve computes the socket location for identifier inside baseDir.
//
// The identifier is reduced to a filesystem-safe name. When that changes the
// identifier, or the resulting path would not fit the platform limit, a
// short digest of the original identifier is appended so distinct
// identifiers keep distinct endpoints.
func Resolve(baseDir, identifier string) (Location, error) {
	return resolve(baseDir, identifier, MaxSocketPathLen())
}

func resolve(baseDir, identifier string, maxLen int) (Location, error) {
	if strings.TrimSpace(baseDir) == "" {
		return Location{}, ErrInvalidDirectory
	}
	dir := filepath.Clean(baseDir)
	if !filepath.IsAbs(dir) {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidDirectory, baseDir)
	}

	safe := sanitize.FileName(identifier)
	if safe == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}

	sum := sha256.Sum256([]byte(identifier))
	digest := hex.EncodeToString(sum[:])[:hashLen]

	stem := safe
	if safe != identifier {
		stem = safe + "-" + digest
	}

	name := stem + constants.SocketFileSuffix
	path := filepath.Join(dir, name)
	if len(path) <= maxLen {
		return Location{Dir: dir, Name: name, Path: path}, nil
	}

	// Shorten the readable prefix, keep the digest.
	fixed := len(filepath.Join(dir, "x")) - 1 + len("-") + hashLen + len(constants.SocketFileSuffix)
	room := maxLen - fixed
	if room < 1 {
		return Location{}, fmt.Errorf("%w: directory %s leaves no room for a name (limit %d)", ErrPathTooLong, dir, maxLen)
	}
	if room > len(safe) {
		room = len(safe)
	}
	name = safe[:room] + "-" + digest + constants.SocketFileSuffix
	path = filepath.Join(dir, name)
	return Location{Dir: dir, Name: name, Path: path}, nil
}
