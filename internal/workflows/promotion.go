// Package workflows holds the multi-step write sequences that cross
// component boundaries: lead promotion/removal and task assignment.
//
// None of these get a transaction — the store only guarantees single-row
// atomicity — so each workflow is an explicit saga: writes happen in a
// fixed order, nothing is rolled back, and the result names exactly which
// steps committed so a partial failure never reads as "nothing happened".
package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/hivedesk/hivedesk/internal/caseid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

// Promotion assigns a community's project lead. Four steps, in order:
//
//  1. write the lead slot on the community
//  2. promote the user's role in the directory
//  3. store the one-time temporary password on the community (non-fatal)
//  4. post a promotion announcement carrying the credentials
//
// Ordering is significant: if step 2 fails the community already points
// at a lead whose role was never upgraded. That state is surfaced, not
// rolled back — the admin retries or removes the lead by hand.
type Promotion struct {
	users         repository.UserRepository
	communities   repository.CommunityRepository
	announcements repository.AnnouncementRepository
	logger        *zap.Logger
}

func NewPromotion(
	users repository.UserRepository,
	communities repository.CommunityRepository,
	announcements repository.AnnouncementRepository,
	logger *zap.Logger,
) *Promotion {
	return &Promotion{
		users:         users,
		communities:   communities,
		announcements: announcements,
		logger:        logger,
	}
}

// PromotionResult records which steps committed. Err belongs to the first
// fatal step that failed; earlier true flags mean those writes are live
// in the store regardless.
type PromotionResult struct {
	LeadAssigned     bool
	RolePromoted     bool
	CredentialStored bool
	Announced        bool

	// Announcement is the created promotion notification, for publishing
	// to live subscribers. Nil unless Announced.
	Announcement *models.Announcement

	Err error
}

// Succeeded reports whether every fatal step committed.
func (r *PromotionResult) Succeeded() bool {
	return r.LeadAssigned && r.RolePromoted && r.Announced
}

// Message is the user-facing outcome. Partial failures name what
// committed; they never collapse into a blanket "failed".
func (r *PromotionResult) Message(email string) string {
	switch {
	case !r.LeadAssigned:
		return "Failed to set lead."
	case !r.RolePromoted:
		return "Lead assigned, but the role update failed. Retry or remove the lead."
	case !r.Announced:
		return "Promoted to lead, but sending the credentials notification failed."
	default:
		return fmt.Sprintf("%s promoted to Project Lead. Credentials sent to their inbox.", email)
	}
}

// Promote runs the saga. The caller has already checked that user is a
// member of community; this re-checks because the lead-in-members
// invariant belongs to the workflow, not the transport layer.
func (p *Promotion) Promote(ctx context.Context, user *models.User, community *models.Community) *PromotionResult {
	res := &PromotionResult{}

	if !community.HasMember(user.ID) {
		res.Err = fmt.Errorf("user %s is not a member of community %q", user.ID, community.Name)
		return res
	}

	// Step 1: lead slot.
	if err := p.communities.SetLead(ctx, community.ID, user.ID, user.Email); err != nil {
		res.Err = err
		return res
	}
	res.LeadAssigned = true

	// Step 2: role promotion through the one directory-owned mutation.
	if err := p.users.SetRole(ctx, user.ID, models.RoleProjectLead); err != nil {
		res.Err = err
		return res
	}
	res.RolePromoted = true

	// The credential is generated locally, so the announcement can carry
	// it even if storing it on the community fails.
	tempPassword, err := caseid.NewTempPassword()
	if err != nil {
		res.Err = err
		return res
	}

	// Step 3: stash the credential for the admin. Non-fatal — the
	// announcement below is the delivery channel that matters.
	if err := p.communities.SetLeadTempPassword(ctx, community.ID, tempPassword); err != nil {
		p.logger.Warn("store lead temp password",
			zap.String("community_id", community.ID.String()),
			zap.Error(err),
		)
	} else {
		res.CredentialStored = true
	}

	// Step 4: credentials notification, targeted at the new lead.
	ann := models.Announcement{
		Title:     "You've been promoted to Project Lead!",
		Body:      promotionBody(user.Email, community, tempPassword),
		Priority:  models.AnnouncementUrgent,
		TargetUID: user.ID,
		Type:      models.TypePromotion,
		Credentials: &models.Credentials{
			Email:        user.Email,
			TempPassword: tempPassword,
		},
	}
	created, err := p.announcements.Create(ctx, ann)
	if err != nil {
		res.Err = err
		return res
	}
	res.Announced = true
	res.Announcement = created

	return res
}

func promotionBody(email string, community *models.Community, tempPassword string) string {
	project := community.Project
	if project == "" {
		project = "No project tag"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Congratulations! You are now the Project Lead for %q (%s).\n\n", community.Name, project)
	b.WriteString("Your Project Lead login credentials:\n")
	fmt.Fprintf(&b, "- Email: %s\n", email)
	fmt.Fprintf(&b, "- Temporary Password: %s\n\n", tempPassword)
	b.WriteString("Please log out and log back in using these credentials, and change your password after first login.")
	return b.String()
}

// Demote removes a community's project lead: role demotion first
// (best-effort — a failure is logged, not fatal), then the lead slot and
// temporary password are cleared together.
func (p *Promotion) Demote(ctx context.Context, community *models.Community) error {
	if community.ProjectLeadID != "" {
		if err := p.users.SetRole(ctx, community.ProjectLeadID, models.RoleEmployee); err != nil {
			p.logger.Warn("demote lead role",
				zap.String("user_id", community.ProjectLeadID),
				zap.Error(err),
			)
		}
	}

	if err := p.communities.ClearLead(ctx, community.ID); err != nil {
		return fmt.Errorf("clear lead: %w", err)
	}
	return nil
}
