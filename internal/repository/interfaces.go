package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
)

// Every method takes context.Context first: all of these touch the store,
// and a cancelled request should cancel its query. Note the inverse does
// NOT hold — a write already in flight at the store completes whether or
// not the caller is still listening. Nothing here may assume cancellation
// prevented a write.
//
// Conventions shared by all implementations:
//   - not-found is (nil, nil), never a sentinel error; handlers translate
//     nil to 404 where the operation supports it.
//   - list methods return make([]T, 0) so JSON serializes to [] not null.
//   - the only atomicity anywhere is the single-row write. Multi-entity
//     workflows sequence their writes and surface partial failure; they
//     never get a transaction.

// UserRepository is the directory. All role mutations in the system go
// through SetRole — the admin toggle and the community promotion flow
// share it, so the role state machine lives in exactly one place.
type UserRepository interface {
	// Create inserts a directory row. The ID comes from the caller (the
	// auth provider's opaque UID, or a generated one at admin bootstrap).
	Create(ctx context.Context, id, email, passwordHash string, role models.Role) (*models.User, error)

	// GetByID returns a user, or nil, nil if not found.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail looks a user up by email for login.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ListNonAdmin returns every user whose role is not admin, ordered by
	// role then newest first.
	ListNonAdmin(ctx context.Context) ([]models.User, error)

	// SetRole rewrites one user's role. Single-row write.
	SetRole(ctx context.Context, userID string, role models.Role) error

	// CountByRole supports the best-effort single-admin check at setup.
	CountByRole(ctx context.Context, role models.Role) (int, error)
}

// CommunityRepository owns microcommunities, including the denormalized
// member list and the project-lead slot. The member list is one column,
// so UpdateMembers is a single-row (hence atomic) replacement — but it is
// computed from the caller's snapshot, so two concurrent edits can still
// race and the loser clobbers the winner. Accepted at this scale.
type CommunityRepository interface {
	Create(ctx context.Context, name, description, project string, members []models.Member) (*models.Community, error)

	// GetByID returns a community, or nil, nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)

	// List returns communities newest first; ties broken by id so the
	// order is stable within a session.
	List(ctx context.Context) ([]models.Community, error)

	// UpdateMembers replaces the whole member list in one write.
	UpdateMembers(ctx context.Context, id uuid.UUID, members []models.Member) error

	// SetLead writes the lead slot. It does not touch the user's role —
	// that is the promotion workflow's next, separate step.
	SetLead(ctx context.Context, id uuid.UUID, leadID, leadEmail string) error

	// SetLeadTempPassword stores the one-time credential for the lead.
	SetLeadTempPassword(ctx context.Context, id uuid.UUID, password string) error

	// ClearLead empties the lead slot and the temporary password.
	ClearLead(ctx context.Context, id uuid.UUID) error

	// Delete removes the community row. Tasks and feed messages under it
	// are NOT cascaded and become orphaned; known limitation.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskRepository persists per-community tasks.
type TaskRepository interface {
	// Create inserts the task and returns it with ID and CreatedAt set.
	Create(ctx context.Context, task models.Task) (*models.Task, error)

	// GetByID returns one task scoped to its community, or nil, nil.
	GetByID(ctx context.Context, communityID, taskID uuid.UUID) (*models.Task, error)

	// ListByCommunity returns a community's tasks newest first.
	ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]models.Task, error)

	// UpdateStatus rewrites status and completedAt together in one write.
	// completedAt nil clears the column.
	UpdateStatus(ctx context.Context, communityID, taskID uuid.UUID, status models.TaskStatus, completedAt *time.Time) error

	Delete(ctx context.Context, communityID, taskID uuid.UUID) error
}

// IssueRepository is the anonymous case ledger. Rows are keyed by the
// case ID itself, so lookup is a key fetch.
type IssueRepository interface {
	// Create inserts the report under its case ID. A duplicate case ID is
	// an error, never an overwrite of someone else's report.
	Create(ctx context.Context, issue models.IssueReport) (*models.IssueReport, error)

	// GetByID returns the report for a normalized case ID, or nil, nil.
	GetByID(ctx context.Context, caseID string) (*models.IssueReport, error)

	// List returns all reports newest first (admin review queue).
	List(ctx context.Context) ([]models.IssueReport, error)

	// Respond sets the admin response and status. Last write wins; no
	// history of prior responses is kept. Returns false if no such case.
	Respond(ctx context.Context, caseID, response string, status models.IssueStatus) (bool, error)
}

// AnnouncementRepository persists the shared fan-out table.
//
// ListOrdered is the primary read (store-side ordering). ListUnordered
// exists for the fallback path that sorts client-side; under normal
// conditions the two must yield identical results once sorted.
type AnnouncementRepository interface {
	Create(ctx context.Context, ann models.Announcement) (*models.Announcement, error)
	ListOrdered(ctx context.Context) ([]models.Announcement, error)
	ListUnordered(ctx context.Context) ([]models.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CheckInRepository stores daily mood entries.
type CheckInRepository interface {
	// GetForDay returns the user's check-in for a date key, or nil, nil.
	GetForDay(ctx context.Context, userID, dateKey string) (*models.DailyCheckIn, error)

	// Create inserts a check-in. If one already exists for the same
	// (user, dateKey) it returns nil, nil without inserting — the per-day
	// invariant is enforced here, not by caller-side gating.
	Create(ctx context.Context, checkIn models.DailyCheckIn) (*models.DailyCheckIn, error)

	// ListRecent returns the user's latest check-ins, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyCheckIn, error)
}

// FeedRepository stores a community's message log. Ordered reads are
// ascending by time (a chat log reads top-down); ListUnordered backs the
// same fallback pattern as announcements.
type FeedRepository interface {
	Create(ctx context.Context, msg models.FeedMessage) (*models.FeedMessage, error)
	ListOrdered(ctx context.Context, communityID uuid.UUID) ([]models.FeedMessage, error)
	ListUnordered(ctx context.Context, communityID uuid.UUID) ([]models.FeedMessage, error)
	Delete(ctx context.Context, communityID, messageID uuid.UUID) error
}

// AwardRepository stores employee-of-the-month records keyed "yyyy-MM".
type AwardRepository interface {
	// Save upserts the award for its month key.
	Save(ctx context.Context, award models.MonthlyAward) (*models.MonthlyAward, error)

	// GetByMonth returns the award for a month key, or nil, nil.
	GetByMonth(ctx context.Context, monthKey string) (*models.MonthlyAward, error)

	// ListHistory returns the most recent awards, newest first.
	ListHistory(ctx context.Context, limit int) ([]models.MonthlyAward, error)
}
