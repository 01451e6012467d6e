package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// maxDescription is the embed description limit of the platform
const maxDescription = 4096

// Gate posts completed applications to the staff review channel and applies
// the staff decision. Decisions are not single-use: clicking again re-grants
// the role and re-notifies the applicant.
type Gate struct {
	platform  core.Platform
	channelID string
	guildID   string
	roles     pkg.RoleIDs
	log       zerolog.Logger

	// OnDecision, when set, is called after each resolved decision.
	OnDecision func(action pkg.DecisionAction, rt pkg.RoleType, err error)
}

// NewGate creates a review gate posting to channelID
func NewGate(platform core.Platform, channelID, guildID string, roles pkg.RoleIDs, log zerolog.Logger) *Gate {
	return &Gate{
		platform:  platform,
		channelID: channelID,
		guildID:   guildID,
		roles:     roles,
		log:       log,
	}
}

// Publish posts the transcript of record with accept and deny buttons. Long
// transcripts are split over several messages; the buttons go on the last.
func (g *Gate) Publish(ctx context.Context, record pkg.ReviewRecord) error {
	acceptID, err := EncodeDecision(pkg.Decision{Action: pkg.DecisionAccept, RoleType: record.RoleType, UserID: record.ApplicantID})
	if err != nil {
		return err
	}
	denyID, err := EncodeDecision(pkg.Decision{Action: pkg.DecisionDeny, RoleType: record.RoleType, UserID: record.ApplicantID})
	if err != nil {
		return err
	}

	parts := splitDescription(transcriptBlocks(record), maxDescription)
	for i, part := range parts {
		title := "New Application"
		if len(parts) > 1 {
			title = fmt.Sprintf("New Application (%d/%d)", i+1, len(parts))
		}
		msg := core.OutboundMessage{
			Embed: core.Embed{Title: title, Description: part, Color: core.ColorInfo},
		}
		if i == len(parts)-1 {
			msg.Buttons = []core.Button{
				{ID: acceptID, Label: "Accept", Style: core.ButtonSuccess},
				{ID: denyID, Label: "Deny", Style: core.ButtonDanger},
			}
		}
		if _, err := g.platform.SendMessage(ctx, g.channelID, msg); err != nil {
			return core.Provision("post review", err)
		}
	}

	g.log.Info().
		Str("application_id", record.ApplicationID).
		Str("user_id", record.ApplicantID).
		Str("role_type", string(record.RoleType)).
		Int("messages", len(parts)).
		Msg("application posted for review")
	return nil
}

// HandleClick decodes a decision button and resolves it. Failures are
// reported to the clicking staff member and returned for logging.
func (g *Gate) HandleClick(ctx context.Context, click core.ButtonClicked) error {
	d, err := DecodeDecision(click.CustomID)
	if err != nil {
		g.replyError(ctx, click, core.UserMessage(err))
		return err
	}

	switch d.Action {
	case pkg.DecisionAccept:
		err = g.ResolveAccept(ctx, click, d.RoleType, d.UserID)
	default:
		err = g.ResolveDeny(ctx, click, d.RoleType, d.UserID)
	}
	if g.OnDecision != nil {
		g.OnDecision(d.Action, d.RoleType, err)
	}
	return err
}

// ResolveAccept grants the applied-for role to userID and notifies them
func (g *Gate) ResolveAccept(ctx context.Context, click core.ButtonClicked, rt pkg.RoleType, userID string) error {
	roleID, ok := g.roles.ForRoleType(rt)
	if !ok {
		err := fmt.Errorf("accept %s: role type %q: %w", userID, rt, core.ErrInvalidInteraction)
		g.replyError(ctx, click, core.UserMessage(err))
		return err
	}

	guildID := g.guild(click)
	member, err := g.platform.Member(ctx, guildID, userID)
	if err != nil {
		if !errors.Is(err, core.ErrMemberNotFound) {
			err = core.Provision("fetch member", err)
		}
		g.replyError(ctx, click, core.UserMessage(err))
		return fmt.Errorf("accept %s: %w", userID, err)
	}

	if err := g.platform.GrantRole(ctx, guildID, userID, roleID); err != nil {
		g.replyError(ctx, click, "Failed to assign the role. Please check the bot permissions.")
		return fmt.Errorf("accept %s: %w", userID, core.Provision("grant role", err))
	}

	description := fmt.Sprintf("%s has been accepted for the %s role.", member.Mention(), rt.DisplayName())
	dm := core.Notice("Congratulations!",
		fmt.Sprintf("Your application for the %s role has been accepted!", rt.DisplayName()), core.ColorSuccess)
	dmErr := g.platform.SendDirectMessage(ctx, userID, dm)
	if dmErr != nil {
		description += " The role was granted, but the applicant could not be notified by direct message."
		g.log.Warn().Err(dmErr).Str("user_id", userID).Msg("failed to send acceptance message")
	}

	if err := g.platform.Reply(ctx, click.Interaction, core.Notice("Application Accepted", description, core.ColorSuccess), true); err != nil {
		g.log.Warn().Err(err).Str("user_id", userID).Msg("failed to confirm acceptance to staff")
	}

	g.log.Info().
		Str("user_id", userID).
		Str("role_type", string(rt)).
		Str("staff_id", click.User.ID).
		Bool("notified", dmErr == nil).
		Msg("application accepted")
	return nil
}

// ResolveDeny notifies userID that the application was denied
func (g *Gate) ResolveDeny(ctx context.Context, click core.ButtonClicked, rt pkg.RoleType, userID string) error {
	applicant := pkg.User{ID: userID}
	description := fmt.Sprintf("%s has been denied for the %s role.", applicant.Mention(), rt.DisplayName())

	dm := core.Notice("Application Result",
		fmt.Sprintf("We regret to inform you that your application for the %s role has been denied.", rt.DisplayName()),
		core.ColorError)
	dmErr := g.platform.SendDirectMessage(ctx, userID, dm)
	if dmErr != nil {
		description += " The applicant could not be notified by direct message."
		g.log.Warn().Err(dmErr).Str("user_id", userID).Msg("failed to send denial message")
	}

	if err := g.platform.Reply(ctx, click.Interaction, core.Notice("Application Denied", description, core.ColorError), true); err != nil {
		g.log.Warn().Err(err).Str("user_id", userID).Msg("failed to confirm denial to staff")
	}

	g.log.Info().
		Str("user_id", userID).
		Str("role_type", string(rt)).
		Str("staff_id", click.User.ID).
		Bool("notified", dmErr == nil).
		Msg("application denied")
	return nil
}

func (g *Gate) guild(click core.ButtonClicked) string {
	if click.GuildID != "" {
		return click.GuildID
	}
	return g.guildID
}

func (g *Gate) replyError(ctx context.Context, click core.ButtonClicked, text string) {
	if err := g.platform.Reply(ctx, click.Interaction, core.Notice("Error", text, core.ColorError), true); err != nil {
		g.log.Warn().Err(err).Str("custom_id", click.CustomID).Msg("failed to send error reply")
	}
}

// transcriptBlocks renders the header and one block per answered question
func transcriptBlocks(record pkg.ReviewRecord) []string {
	applicant := pkg.User{ID: record.ApplicantID}
	blocks := []string{fmt.Sprintf("**Applicant:** %s (%s)\n**Role Type:** %s\n**Answers:**",
		applicant.Mention(), record.ApplicantID, record.RoleType.DisplayName())}
	for i, pair := range record.Answers {
		blocks = append(blocks, fmt.Sprintf("**Q%d:** %s\n**A:** %s", i+1, pair.Question, pair.Answer))
	}
	return blocks
}

// splitDescription packs blocks into descriptions of at most limit bytes,
// never splitting a block unless it alone exceeds limit
func splitDescription(blocks []string, limit int) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, block := range blocks {
		for len(block) > limit {
			flush()
			cut := safeCut(block, limit)
			parts = append(parts, block[:cut])
			block = block[cut:]
		}
		sep := ""
		if cur.Len() > 0 {
			sep = "\n\n"
		}
		if cur.Len()+len(sep)+len(block) > limit {
			flush()
			sep = ""
		}
		cur.WriteString(sep)
		cur.WriteString(block)
	}
	flush()

	if len(parts) == 0 {
		parts = []string{""}
	}
	return parts
}

// safeCut returns the largest index <= n that does not split a UTF-8 rune
func safeCut(s string, n int) int {
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return n
}
