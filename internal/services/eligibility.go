package services

import (
	"ticketbot/pkg"
)

// HeldRole is the highest managed role a member holds
type HeldRole int

const (
	HeldNone HeldRole = iota
	HeldCommunity
	HeldModerator
	HeldAdmin
)

func (h HeldRole) String() string {
	switch h {
	case HeldCommunity:
		return "community"
	case HeldModerator:
		return "moderator"
	case HeldAdmin:
		return "admin"
	default:
		return "none"
	}
}

// HighestHeld ranks the member's role IDs against the managed roles
func HighestHeld(memberRoles []string, ids pkg.RoleIDs) HeldRole {
	held := HeldNone
	for _, r := range memberRoles {
		if r == "" {
			continue
		}
		switch r {
		case ids.Admin:
			return HeldAdmin
		case ids.Moderator:
			held = max(held, HeldModerator)
		case ids.Community:
			held = max(held, HeldCommunity)
		}
	}
	return held
}

// EligibleRole returns the staff role a member may apply for next.
// Admins and members without the community role may not apply.
func EligibleRole(held HeldRole) (pkg.RoleType, bool) {
	switch held {
	case HeldModerator:
		return pkg.RoleAdmin, true
	case HeldCommunity:
		return pkg.RoleModerator, true
	default:
		return "", false
	}
}
