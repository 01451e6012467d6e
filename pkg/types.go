package pkg

import (
	"time"
)

// Core domain types shared by the ticket, application and review flows

// RoleType identifies a role a member can apply for
type RoleType string

const (
	RoleModerator    RoleType = "moderator"
	RoleAdmin        RoleType = "admin"
	RoleBotDeveloper RoleType = "bot_developer"
)

// Valid reports whether r is one of the known role types
func (r RoleType) Valid() bool {
	switch r {
	case RoleModerator, RoleAdmin, RoleBotDeveloper:
		return true
	}
	return false
}

// DisplayName returns the human readable role name used in messages
func (r RoleType) DisplayName() string {
	switch r {
	case RoleModerator:
		return "Moderator"
	case RoleAdmin:
		return "Admin"
	case RoleBotDeveloper:
		return "Bot Developer"
	default:
		return string(r)
	}
}

// SessionKind distinguishes support tickets from applications
type SessionKind string

const (
	SessionSupport     SessionKind = "support"
	SessionApplication SessionKind = "application"
)

// TicketOption is a value of the support panel select menu
type TicketOption string

const (
	OptionGeneralSupport          TicketOption = "general_support"
	OptionStaffApplication        TicketOption = "staff_application"
	OptionBotDeveloperApplication TicketOption = "bot_developer_application"
)

// User is the subset of a guild member the bot works with
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	RoleIDs   []string `json:"role_ids,omitempty"`
}

// Mention returns the chat mention markup for the user
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// Session is one open ticket or application bound to one user.
// ChannelID is empty while the channel is still being provisioned.
type Session struct {
	UserID    string      `json:"user_id"`
	ChannelID string      `json:"channel_id,omitempty"`
	Kind      SessionKind `json:"kind"`
	RoleType  RoleType    `json:"role_type,omitempty"`
	OpenedAt  time.Time   `json:"opened_at"`
}

// QAPair is one answered question of an application
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ReviewRecord is a completed application transcript awaiting a staff decision
type ReviewRecord struct {
	ApplicationID string    `json:"application_id"`
	ApplicantID   string    `json:"applicant_id"`
	ApplicantName string    `json:"applicant_name"`
	RoleType      RoleType  `json:"role_type"`
	Answers       []QAPair  `json:"answers"`
	CompletedAt   time.Time `json:"completed_at"`
}

// DecisionAction is the staff verdict carried by a decision control
type DecisionAction string

const (
	DecisionAccept DecisionAction = "accept"
	DecisionDeny   DecisionAction = "deny"
)

// Decision is a pending accept/deny action, encoded in a button identifier
type Decision struct {
	Action   DecisionAction `json:"action"`
	RoleType RoleType       `json:"role_type"`
	UserID   string         `json:"user_id"`
}

// RoleIDs holds the platform identifiers of the managed roles
type RoleIDs struct {
	Community    string `json:"community"`
	Moderator    string `json:"moderator"`
	Admin        string `json:"admin"`
	BotDeveloper string `json:"bot_developer"`
}

// ForRoleType returns the role identifier granted for an accepted application
func (r RoleIDs) ForRoleType(rt RoleType) (string, bool) {
	switch rt {
	case RoleModerator:
		return r.Moderator, r.Moderator != ""
	case RoleAdmin:
		return r.Admin, r.Admin != ""
	case RoleBotDeveloper:
		return r.BotDeveloper, r.BotDeveloper != ""
	default:
		return "", false
	}
}
