package core

import (
	"context"

	"ticketbot/pkg"
)

// Event is an inbound platform event. Events with the same Key are handled
// one at a time in arrival order.
type Event interface {
	Key() string
	Kind() EventKind
}

// EventKind names the inbound event types
type EventKind string

const (
	EventReady         EventKind = "ready"
	EventMemberJoined  EventKind = "member_joined"
	EventMenuSelected  EventKind = "menu_selected"
	EventButtonClicked EventKind = "button_clicked"
	EventMessagePosted EventKind = "message_posted"
)

// Interaction identifies an interaction that can be replied to once
type Interaction struct {
	ID    string `json:"id"`
	AppID string `json:"app_id"`
	Token string `json:"token"`
}

// Ready is delivered once the platform connection is established
type Ready struct {
	BotUserID string `json:"bot_user_id"`
}

func (Ready) Key() string     { return "ready" }
func (Ready) Kind() EventKind { return EventReady }

// MemberJoined is delivered when a user joins the guild
type MemberJoined struct {
	GuildID string   `json:"guild_id"`
	User    pkg.User `json:"user"`
}

func (e MemberJoined) Key() string   { return e.User.ID }
func (MemberJoined) Kind() EventKind { return EventMemberJoined }

// MenuSelected is delivered when a user picks a select menu option
type MenuSelected struct {
	Interaction Interaction `json:"interaction"`
	GuildID     string      `json:"guild_id"`
	ChannelID   string      `json:"channel_id"`
	User        pkg.User    `json:"user"`
	CustomID    string      `json:"custom_id"`
	Values      []string    `json:"values"`
}

func (e MenuSelected) Key() string   { return e.User.ID }
func (MenuSelected) Kind() EventKind { return EventMenuSelected }

// ButtonClicked is delivered when a user clicks a button control
type ButtonClicked struct {
	Interaction Interaction `json:"interaction"`
	GuildID     string      `json:"guild_id"`
	ChannelID   string      `json:"channel_id"`
	User        pkg.User    `json:"user"`
	CustomID    string      `json:"custom_id"`
}

func (e ButtonClicked) Key() string   { return e.User.ID }
func (ButtonClicked) Kind() EventKind { return EventButtonClicked }

// MessagePosted is delivered for every chat message the bot can see
type MessagePosted struct {
	ID          string `json:"id"`
	GuildID     string `json:"guild_id"`
	ChannelID   string `json:"channel_id"`
	AuthorID    string `json:"author_id"`
	AuthorIsBot bool   `json:"author_is_bot"`
	Content     string `json:"content"`
	HasEmbeds   bool   `json:"has_embeds"`
}

func (e MessagePosted) Key() string   { return e.AuthorID }
func (MessagePosted) Kind() EventKind { return EventMessagePosted }

// Color is an embed accent color
type Color int

const (
	ColorInfo    Color = 0x0099ff
	ColorSuccess Color = 0x00ff00
	ColorError   Color = 0xff0000
)

// Embed is the rich content block of an outbound message
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       Color  `json:"color"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ButtonStyle selects the visual style of a button
type ButtonStyle string

const (
	ButtonPrimary ButtonStyle = "primary"
	ButtonSuccess ButtonStyle = "success"
	ButtonDanger  ButtonStyle = "danger"
)

// Button is a clickable action control
type Button struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Style ButtonStyle `json:"style"`
}

// SelectOption is one entry of a select menu
type SelectOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// SelectMenu is a dropdown control
type SelectMenu struct {
	ID          string         `json:"id"`
	Placeholder string         `json:"placeholder"`
	Options     []SelectOption `json:"options"`
}

// OutboundMessage is a message the bot sends, edits or replies with
type OutboundMessage struct {
	Embed   Embed       `json:"embed"`
	Buttons []Button    `json:"buttons,omitempty"`
	Menu    *SelectMenu `json:"menu,omitempty"`
}

// Notice builds a plain embed message
func Notice(title, description string, color Color) OutboundMessage {
	return OutboundMessage{Embed: Embed{Title: title, Description: description, Color: color}}
}

// Channel is a guild channel handle
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Mention returns the chat mention markup for the channel
func (c Channel) Mention() string {
	return "<#" + c.ID + ">"
}

// ChannelSpec describes a private channel to create. Only OwnerID and the
// staff roles can view it.
type ChannelSpec struct {
	GuildID      string   `json:"guild_id"`
	Name         string   `json:"name"`
	ParentID     string   `json:"parent_id"`
	OwnerID      string   `json:"owner_id"`
	StaffRoleIDs []string `json:"staff_role_ids"`
	Reason       string   `json:"reason"`
}

// Platform is the outbound surface of the chat platform
type Platform interface {
	CreateChannel(ctx context.Context, spec ChannelSpec) (Channel, error)
	LookupChannel(ctx context.Context, channelID string) (Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	SendMessage(ctx context.Context, channelID string, msg OutboundMessage) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg OutboundMessage) error
	// LatestMessage returns nil when the channel has no messages.
	LatestMessage(ctx context.Context, channelID string) (*MessagePosted, error)
	SendDirectMessage(ctx context.Context, userID string, msg OutboundMessage) error
	Reply(ctx context.Context, ix Interaction, msg OutboundMessage, ephemeral bool) error
	Member(ctx context.Context, guildID, userID string) (pkg.User, error)
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	BotUserID() string
}

// Handler consumes inbound events
type Handler interface {
	HandleEvent(ctx context.Context, ev Event)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, ev Event)

func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) { f(ctx, ev) }
