package review

import (
	"fmt"
	"regexp"
	"strings"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// Decision button IDs look like accept_<role>_<user> where role is the role
// type with '_' written as '-', so the three parts stay separable.
var (
	decisionPattern = regexp.MustCompile(`^(accept|deny)_([^_]+)_(\d{17,19})$`)
	userIDPattern   = regexp.MustCompile(`^\d{17,19}$`)
)

// EncodeDecision builds the button custom ID for d
func EncodeDecision(d pkg.Decision) (string, error) {
	if d.Action != pkg.DecisionAccept && d.Action != pkg.DecisionDeny {
		return "", fmt.Errorf("encode decision: unknown action %q", d.Action)
	}
	if !d.RoleType.Valid() {
		return "", fmt.Errorf("encode decision: unknown role type %q", d.RoleType)
	}
	if !userIDPattern.MatchString(d.UserID) {
		return "", fmt.Errorf("encode decision: malformed user ID %q", d.UserID)
	}
	return string(d.Action) + "_" + roleToken(d.RoleType) + "_" + d.UserID, nil
}

// DecodeDecision parses a decision button custom ID. Anything malformed,
// including an unknown role type, is core.ErrInvalidInteraction.
func DecodeDecision(customID string) (pkg.Decision, error) {
	m := decisionPattern.FindStringSubmatch(customID)
	if m == nil {
		return pkg.Decision{}, fmt.Errorf("decision %q: %w", customID, core.ErrInvalidInteraction)
	}
	rt := pkg.RoleType(strings.ReplaceAll(m[2], "-", "_"))
	if !rt.Valid() {
		return pkg.Decision{}, fmt.Errorf("decision %q: unknown role type: %w", customID, core.ErrInvalidInteraction)
	}
	return pkg.Decision{
		Action:   pkg.DecisionAction(m[1]),
		RoleType: rt,
		UserID:   m[3],
	}, nil
}

// IsDecisionID reports whether customID belongs to a decision button
func IsDecisionID(customID string) bool {
	return strings.HasPrefix(customID, string(pkg.DecisionAccept)+"_") ||
		strings.HasPrefix(customID, string(pkg.DecisionDeny)+"_")
}

func roleToken(rt pkg.RoleType) string {
	return strings.ReplaceAll(string(rt), "_", "-")
}
