package domain

// Role is a user's access level on a trip.
//
// The lattice is owner > collaborator > viewer > none. Owner and collaborator
// are equivalent for editing; managing access is owner-only.
type Role string

const (
	// RoleOwner is the trip creator. Exactly one per trip, immutable.
	RoleOwner Role = "owner"
	// RoleCollaborator may edit moments and media but not manage access.
	RoleCollaborator Role = "collaborator"
	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"
	// RoleNone means no access at all.
	RoleNone Role = "none"
)

// ParseRole converts a string to a Role. RoleNone is not a grantable role
// and parses as invalid.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "owner":
		return RoleOwner, true
	case "collaborator":
		return RoleCollaborator, true
	case "viewer":
		return RoleViewer, true
	default:
		return RoleNone, false
	}
}

// CanView reports whether the role grants read access.
func (r Role) CanView() bool {
	return r == RoleOwner || r == RoleCollaborator || r == RoleViewer
}

// CanEdit reports whether the role grants write access to moments and media.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleCollaborator
}

// CanManageAccess reports whether the role grants permission management.
func (r Role) CanManageAccess() bool {
	return r == RoleOwner
}

// GrantSource records how a permission came to exist.
type GrantSource string

const (
	// GrantedViaTripCreate is the owner's own row, written with the trip.
	GrantedViaTripCreate GrantSource = "trip_create"
	// GrantedViaShareLink means the user redeemed the trip's slug or code.
	GrantedViaShareLink GrantSource = "share_link"
	// GrantedViaPromotion means an existing row's role was changed by a member.
	GrantedViaPromotion GrantSource = "promotion"
)

// TripPermission grants a user a role on a trip. The (TripID, UserID) pair
// is unique; the owner's row is created atomically with the trip and can
// only be removed by deleting the trip.
type TripPermission struct {
	Syncable
	TripID     string      `json:"trip_id"`
	UserID     string      `json:"user_id"`
	Role       Role        `json:"role"`
	GrantedVia GrantSource `json:"granted_via"`
	InvitedBy  string      `json:"invited_by,omitempty"`
}
