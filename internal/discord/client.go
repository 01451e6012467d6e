package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// Intents needed for member joins, interactions and reading applicant answers
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Client implements core.Platform on a discordgo session
type Client struct {
	session *discordgo.Session
	log     zerolog.Logger
}

// NewClient creates a client authenticated with the bot token. The gateway
// connection is opened by Open.
func NewClient(token string, log zerolog.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true
	return &Client{session: s, log: log}, nil
}

// Session returns the underlying discordgo session
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// Open connects to the gateway
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	c.log.Info().Msg("discord gateway connected")
	return nil
}

// Close disconnects from the gateway
func (c *Client) Close() error {
	return c.session.Close()
}

// Healthy reports whether the gateway session is ready
func (c *Client) Healthy(ctx context.Context) error {
	if !c.session.DataReady {
		return errors.New("discord gateway not ready")
	}
	return nil
}

// BotUserID returns the bot's own user ID once the gateway is ready
func (c *Client) BotUserID() string {
	st := c.session.State
	if st == nil {
		return ""
	}
	st.RLock()
	defer st.RUnlock()
	if st.User == nil {
		return ""
	}
	return st.User.ID
}

func (c *Client) CreateChannel(ctx context.Context, spec core.ChannelSpec) (core.Channel, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             spec.ParentID,
		PermissionOverwrites: channelOverwrites(spec),
	}
	ch, err := c.session.GuildChannelCreateComplex(spec.GuildID, data,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(spec.Reason))
	if err != nil {
		return core.Channel{}, fmt.Errorf("create channel %s: %w", spec.Name, err)
	}
	return core.Channel{ID: ch.ID, Name: ch.Name}, nil
}

func (c *Client) LookupChannel(ctx context.Context, channelID string) (core.Channel, error) {
	if ch, err := c.session.State.Channel(channelID); err == nil {
		return core.Channel{ID: ch.ID, Name: ch.Name}, nil
	}
	ch, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownChannel) {
			return core.Channel{}, fmt.Errorf("channel %s: %w", channelID, core.ErrChannelNotFound)
		}
		return core.Channel{}, fmt.Errorf("lookup channel %s: %w", channelID, err)
	}
	return core.Channel{ID: ch.ID, Name: ch.Name}, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := c.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, channelID string, msg core.OutboundMessage) (string, error) {
	m, err := c.session.ChannelMessageSendComplex(channelID, renderSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return m.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg core.OutboundMessage) error {
	if _, err := c.session.ChannelMessageEditComplex(renderEdit(channelID, messageID, msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) LatestMessage(ctx context.Context, channelID string) (*core.MessagePosted, error) {
	msgs, err := c.session.ChannelMessages(channelID, 1, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch messages of %s: %w", channelID, err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	latest := messagePosted(msgs[0])
	if latest.ChannelID == "" {
		latest.ChannelID = channelID
	}
	return &latest, nil
}

func (c *Client) SendDirectMessage(ctx context.Context, userID string, msg core.OutboundMessage) error {
	dm, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open DM with %s: %w", userID, err)
	}
	if _, err := c.session.ChannelMessageSendComplex(dm.ID, renderSend(msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send DM to %s: %w", userID, err)
	}
	return nil
}

func (c *Client) Reply(ctx context.Context, ix core.Interaction, msg core.OutboundMessage, ephemeral bool) error {
	target := &discordgo.Interaction{ID: ix.ID, AppID: ix.AppID, Token: ix.Token}
	if err := c.session.InteractionRespond(target, renderResponse(msg, ephemeral), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("reply to interaction %s: %w", ix.ID, err)
	}
	return nil
}

func (c *Client) Member(ctx context.Context, guildID, userID string) (pkg.User, error) {
	m, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownMember) || isUnknown(err, discordgo.ErrCodeUnknownUser) {
			return pkg.User{}, fmt.Errorf("member %s: %w", userID, core.ErrMemberNotFound)
		}
		return pkg.User{}, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return memberUser(m), nil
}

func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("grant role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

// isUnknown reports whether err is a REST error for a missing entity
func isUnknown(err error, code int) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil && rest.Message.Code == code {
		return true
	}
	return rest.Message == nil && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}

var _ core.Platform = (*Client)(nil)
