package bot

import (
	"context"

	"github.com/rs/zerolog"

	"ticketbot/internal/application"
	"ticketbot/internal/core"
	"ticketbot/internal/review"
	"ticketbot/internal/services"
	"ticketbot/internal/ticket"
	"ticketbot/pkg"
)

// CloseTicketID is the custom ID of the close button in support tickets
const CloseTicketID = "close_ticket"

// Config holds the guild settings the handlers need
type Config struct {
	GuildID          string
	Roles            pkg.RoleIDs
	WelcomeChannelID string
	WelcomeTitle     string
}

// Deps are the components the bot drives
type Deps struct {
	Platform    core.Platform
	Bus         *core.MessageBus
	Registry    *ticket.Registry
	Provisioner *ticket.Provisioner
	Panel       *ticket.Panel
	Engine      *application.Engine
	Gate        *review.Gate
	Questions   *services.QuestionService
}

// Bot handles every inbound event. It is the core.Handler behind the
// dispatcher, so events of one user reach it one at a time.
type Bot struct {
	Deps
	cfg Config
	log zerolog.Logger
}

// New creates the event handler
func New(cfg Config, deps Deps, log zerolog.Logger) *Bot {
	return &Bot{Deps: deps, cfg: cfg, log: log}
}

// HandleEvent routes ev to its handler
func (b *Bot) HandleEvent(ctx context.Context, ev core.Event) {
	log := b.log.With().
		Str("event_id", core.CorrelationID(ctx)).
		Str("event", string(ev.Kind())).
		Logger()
	ctx = log.WithContext(ctx)

	switch e := ev.(type) {
	case core.Ready:
		b.onReady(ctx, e)
	case core.MemberJoined:
		b.onMemberJoined(ctx, e)
	case core.MenuSelected:
		b.onMenuSelected(ctx, e)
	case core.ButtonClicked:
		b.onButtonClicked(ctx, e)
	case core.MessagePosted:
		b.onMessagePosted(ctx, e)
	default:
		log.Debug().Msg("unhandled event")
	}
}

func (b *Bot) onReady(ctx context.Context, e core.Ready) {
	log := zerolog.Ctx(ctx)
	log.Info().Str("bot_user_id", e.BotUserID).Msg("bot ready")
	if _, err := b.Panel.Ensure(ctx); err != nil {
		log.Error().Err(err).Msg("failed to publish support panel")
	}
}

func (b *Bot) onMenuSelected(ctx context.Context, e core.MenuSelected) {
	if e.CustomID != ticket.PanelMenuID {
		return
	}
	if len(e.Values) == 0 {
		b.replyError(ctx, e.Interaction, core.UserMessage(core.ErrInvalidInteraction))
		return
	}

	switch option := pkg.TicketOption(e.Values[0]); option {
	case pkg.OptionGeneralSupport:
		b.openSupport(ctx, e)
	case pkg.OptionStaffApplication, pkg.OptionBotDeveloperApplication:
		b.openApplication(ctx, e, option)
	default:
		zerolog.Ctx(ctx).Warn().Str("option", string(option)).Msg("unknown ticket option")
		b.replyError(ctx, e.Interaction, core.UserMessage(core.ErrInvalidInteraction))
	}
}

func (b *Bot) onButtonClicked(ctx context.Context, e core.ButtonClicked) {
	switch {
	case e.CustomID == CloseTicketID:
		b.closeTicket(ctx, e)
	case review.IsDecisionID(e.CustomID):
		if err := b.Gate.HandleClick(ctx, e); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("custom_id", e.CustomID).
				Str("staff_id", e.User.ID).
				Msg("review decision failed")
		}
	}
}

// onMessagePosted hands chat messages to the running application of their
// channel, if any
func (b *Bot) onMessagePosted(ctx context.Context, e core.MessagePosted) {
	if e.AuthorIsBot || e.AuthorID == b.Platform.BotUserID() {
		return
	}
	b.Bus.Publish(ctx, e)
}

func (b *Bot) reply(ctx context.Context, ix core.Interaction, msg core.OutboundMessage) {
	if err := b.Platform.Reply(ctx, ix, msg, true); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("title", msg.Embed.Title).Msg("failed to reply to interaction")
	}
}

func (b *Bot) replyError(ctx context.Context, ix core.Interaction, text string) {
	b.reply(ctx, ix, core.Notice("Error", text, core.ColorError))
}

var _ core.Handler = (*Bot)(nil)
