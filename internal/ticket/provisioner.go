package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ticketbot/internal/core"
	"ticketbot/pkg"
)

// Purpose is the channel name prefix of a provisioned channel
type Purpose string

const (
	PurposeTicket      Purpose = "ticket"
	PurposeApplication Purpose = "application"
)

// Provisioner creates the private channel of a session under the ticket
// category
type Provisioner struct {
	platform     core.Platform
	categoryID   string
	staffRoleIDs []string
	log          zerolog.Logger
}

// NewProvisioner creates a provisioner for categoryID. Members of
// staffRoleIDs can see every provisioned channel.
func NewProvisioner(platform core.Platform, categoryID string, staffRoleIDs []string, log zerolog.Logger) *Provisioner {
	return &Provisioner{
		platform:     platform,
		categoryID:   categoryID,
		staffRoleIDs: staffRoleIDs,
		log:          log,
	}
}

// Create makes a channel named "<purpose>-<username>" visible only to the
// applicant and staff
func (p *Provisioner) Create(ctx context.Context, purpose Purpose, guildID string, applicant pkg.User) (core.Channel, error) {
	if _, err := p.platform.LookupChannel(ctx, p.categoryID); err != nil {
		if errors.Is(err, core.ErrChannelNotFound) {
			return core.Channel{}, fmt.Errorf("category %s: %w", p.categoryID, core.ErrCategoryMissing)
		}
		return core.Channel{}, core.Provision("lookup category", err)
	}

	spec := core.ChannelSpec{
		GuildID:      guildID,
		Name:         ChannelName(purpose, applicant.Username),
		ParentID:     p.categoryID,
		OwnerID:      applicant.ID,
		StaffRoleIDs: p.staffRoleIDs,
		Reason:       reason(purpose, applicant.Username),
	}

	ch, err := p.platform.CreateChannel(ctx, spec)
	if err != nil {
		return core.Channel{}, core.Provision("create channel", err)
	}

	p.log.Info().
		Str("channel_id", ch.ID).
		Str("channel", ch.Name).
		Str("user_id", applicant.ID).
		Msg("channel provisioned")
	return ch, nil
}

// Delete removes a provisioned channel
func (p *Provisioner) Delete(ctx context.Context, channelID string) error {
	return core.Provision("delete channel", p.platform.DeleteChannel(ctx, channelID))
}

// ChannelName builds the channel name for purpose and username
func ChannelName(purpose Purpose, username string) string {
	name := strings.ToLower(strings.Join(strings.Fields(username), "-"))
	if name == "" {
		name = "user"
	}
	return string(purpose) + "-" + name
}

func reason(purpose Purpose, username string) string {
	if purpose == PurposeApplication {
		return "Application channel for " + username
	}
	return "Mod Mail channel for " + username
}
