package instance

// Role is the outcome of Setup for the current process.
type Role int

const (
	// RoleUndetermined means Setup has not completed successfully.
	RoleUndetermined Role = iota
	// RoleLeader owns the endpoint and receives forwarded arguments.
	RoleLeader
	// RoleFollower forwarded its arguments and should exit.
	RoleFollower
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "leader"
	case RoleFollower:
		return "follower"
	default:
		return "undetermined"
	}
}

// ShouldExit reports whether the process should terminate now. Only a
// follower should; an undetermined role is reported through Setup's error.
func (r Role) ShouldExit() bool {
	return r == RoleFollower
}
