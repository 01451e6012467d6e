package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"ticketbot/internal/core"
)

// Dispatcher accepts translated platform events
type Dispatcher interface {
	Dispatch(ev core.Event) error
}

// Router translates gateway events into core events for one guild
type Router struct {
	dispatcher Dispatcher
	guildID    string
	log        zerolog.Logger
}

// NewRouter creates a router forwarding guildID's events to d
func NewRouter(d Dispatcher, guildID string, log zerolog.Logger) *Router {
	return &Router{dispatcher: d, guildID: guildID, log: log}
}

// Attach registers the router's gateway handlers on s
func (r *Router) Attach(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.Ready) { r.forward(translateReady(ev)) })
	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.GuildMemberAdd) { r.forward(r.translateMemberAdd(ev)) })
	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.InteractionCreate) { r.forward(r.translateInteraction(ev)) })
	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.MessageCreate) { r.forward(r.translateMessage(ev)) })
}

func (r *Router) forward(ev core.Event) {
	if ev == nil {
		return
	}
	if err := r.dispatcher.Dispatch(ev); err != nil {
		r.log.Warn().Err(err).Str("event", string(ev.Kind())).Msg("event dropped")
	}
}

func (r *Router) inGuild(guildID string) bool {
	return r.guildID == "" || guildID == r.guildID
}

func translateReady(ev *discordgo.Ready) core.Event {
	if ev == nil || ev.User == nil {
		return nil
	}
	return core.Ready{BotUserID: ev.User.ID}
}

func (r *Router) translateMemberAdd(ev *discordgo.GuildMemberAdd) core.Event {
	if ev == nil || ev.Member == nil || ev.User == nil || !r.inGuild(ev.GuildID) {
		return nil
	}
	return core.MemberJoined{GuildID: ev.GuildID, User: memberUser(ev.Member)}
}

// translateInteraction maps select menu and button interactions; other
// interaction types are ignored
func (r *Router) translateInteraction(ev *discordgo.InteractionCreate) core.Event {
	if ev == nil || ev.Interaction == nil || ev.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	if !r.inGuild(ev.GuildID) {
		return nil
	}

	user := memberUser(ev.Member)
	if user.ID == "" {
		user = userOf(ev.User)
	}
	if user.ID == "" {
		return nil
	}

	ix := core.Interaction{ID: ev.ID, AppID: ev.AppID, Token: ev.Token}
	data := ev.MessageComponentData()

	switch data.ComponentType {
	case discordgo.SelectMenuComponent:
		return core.MenuSelected{
			Interaction: ix,
			GuildID:     ev.GuildID,
			ChannelID:   ev.ChannelID,
			User:        user,
			CustomID:    data.CustomID,
			Values:      data.Values,
		}
	case discordgo.ButtonComponent:
		return core.ButtonClicked{
			Interaction: ix,
			GuildID:     ev.GuildID,
			ChannelID:   ev.ChannelID,
			User:        user,
			CustomID:    data.CustomID,
		}
	default:
		return nil
	}
}

func (r *Router) translateMessage(ev *discordgo.MessageCreate) core.Event {
	if ev == nil || ev.Message == nil || ev.Author == nil || !r.inGuild(ev.GuildID) {
		return nil
	}
	return messagePosted(ev.Message)
}
