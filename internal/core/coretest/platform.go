// Package coretest provides an in-memory core.Platform that records every
// outbound call, for use in package tests.
package coretest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// SentMessage is a message recorded by the fake platform
type SentMessage struct {
	ID        string
	ChannelID string
	Msg       core.OutboundMessage
}

// Reply is an interaction reply recorded by the fake platform
type Reply struct {
	Interaction core.Interaction
	Msg         core.OutboundMessage
	Ephemeral   bool
}

// DirectMessage is a DM recorded by the fake platform
type DirectMessage struct {
	UserID string
	Msg    core.OutboundMessage
}

// RoleGrant is a role assignment recorded by the fake platform
type RoleGrant struct {
	GuildID string
	UserID  string
	RoleID  string
}

// Platform is a fake core.Platform. Fail* fields inject errors per operation.
type Platform struct {
	mu sync.Mutex

	BotID    string
	Channels map[string]core.Channel
	Members  map[string]pkg.User

	Created  []core.ChannelSpec
	Deleted  []string
	Sent     []SentMessage
	Edited   []SentMessage
	Replies  []Reply
	DMs      []DirectMessage
	Grants   []RoleGrant
	Messages map[string][]core.MessagePosted

	FailCreate bool
	FailSend   bool
	FailDelete bool
	FailDM     bool
	FailGrant  bool
	FailReply  bool
	FailEdit   bool

	nextID int
}

// ErrInjected is returned by operations configured to fail
var ErrInjected = errors.New("injected platform failure")

// NewPlatform creates a fake platform whose bot user is botID
func NewPlatform(botID string) *Platform {
	return &Platform{
		BotID:    botID,
		Channels: make(map[string]core.Channel),
		Members:  make(map[string]pkg.User),
		Messages: make(map[string][]core.MessagePosted),
		nextID:   900000000000000000,
	}
}

func (p *Platform) id() string {
	p.nextID++
	return strconv.Itoa(p.nextID)
}

// AddChannel registers an existing channel such as the ticket category
func (p *Platform) AddChannel(id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Channels[id] = core.Channel{ID: id, Name: name}
}

// AddMember registers a guild member
func (p *Platform) AddMember(u pkg.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Members[u.ID] = u
}

// RemoveMember simulates a member leaving the guild
func (p *Platform) RemoveMember(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.Members, userID)
}

func (p *Platform) CreateChannel(ctx context.Context, spec core.ChannelSpec) (core.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailCreate {
		return core.Channel{}, ErrInjected
	}
	ch := core.Channel{ID: p.id(), Name: spec.Name}
	p.Channels[ch.ID] = ch
	p.Created = append(p.Created, spec)
	return ch, nil
}

func (p *Platform) LookupChannel(ctx context.Context, channelID string) (core.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.Channels[channelID]
	if !ok {
		return core.Channel{}, core.ErrChannelNotFound
	}
	return ch, nil
}

func (p *Platform) DeleteChannel(ctx context.Context, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailDelete {
		return ErrInjected
	}
	delete(p.Channels, channelID)
	p.Deleted = append(p.Deleted, channelID)
	return nil
}

func (p *Platform) SendMessage(ctx context.Context, channelID string, msg core.OutboundMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSend {
		return "", ErrInjected
	}
	id := p.id()
	p.Sent = append(p.Sent, SentMessage{ID: id, ChannelID: channelID, Msg: msg})
	p.Messages[channelID] = append(p.Messages[channelID], core.MessagePosted{
		ID:          id,
		ChannelID:   channelID,
		AuthorID:    p.BotID,
		AuthorIsBot: true,
		Content:     "",
		HasEmbeds:   true,
	})
	return id, nil
}

func (p *Platform) EditMessage(ctx context.Context, channelID, messageID string, msg core.OutboundMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailEdit {
		return ErrInjected
	}
	p.Edited = append(p.Edited, SentMessage{ID: messageID, ChannelID: channelID, Msg: msg})
	return nil
}

func (p *Platform) LatestMessage(ctx context.Context, channelID string) (*core.MessagePosted, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.Messages[channelID]
	if len(msgs) == 0 {
		return nil, nil
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

// PostAs records a message authored by someone else in channelID
func (p *Platform) PostAs(channelID, authorID string, hasEmbeds bool) core.MessagePosted {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := core.MessagePosted{ID: p.id(), ChannelID: channelID, AuthorID: authorID, HasEmbeds: hasEmbeds}
	p.Messages[channelID] = append(p.Messages[channelID], msg)
	return msg
}

func (p *Platform) SendDirectMessage(ctx context.Context, userID string, msg core.OutboundMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailDM {
		return ErrInjected
	}
	p.DMs = append(p.DMs, DirectMessage{UserID: userID, Msg: msg})
	return nil
}

func (p *Platform) Reply(ctx context.Context, ix core.Interaction, msg core.OutboundMessage, ephemeral bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailReply {
		return ErrInjected
	}
	p.Replies = append(p.Replies, Reply{Interaction: ix, Msg: msg, Ephemeral: ephemeral})
	return nil
}

func (p *Platform) Member(ctx context.Context, guildID, userID string) (pkg.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.Members[userID]
	if !ok {
		return pkg.User{}, fmt.Errorf("member %s: %w", userID, core.ErrMemberNotFound)
	}
	return u, nil
}

func (p *Platform) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailGrant {
		return ErrInjected
	}
	p.Grants = append(p.Grants, RoleGrant{GuildID: guildID, UserID: userID, RoleID: roleID})
	if u, ok := p.Members[userID]; ok {
		u.RoleIDs = append(u.RoleIDs, roleID)
		p.Members[userID] = u
	}
	return nil
}

func (p *Platform) BotUserID() string { return p.BotID }

// SentTo returns the messages sent to channelID in order
func (p *Platform) SentTo(channelID string) []core.OutboundMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []core.OutboundMessage
	for _, s := range p.Sent {
		if s.ChannelID == channelID {
			out = append(out, s.Msg)
		}
	}
	return out
}

// LastReply returns the most recent interaction reply
func (p *Platform) LastReply() (Reply, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Replies) == 0 {
		return Reply{}, false
	}
	return p.Replies[len(p.Replies)-1], true
}

var _ core.Platform = (*Platform)(nil)
