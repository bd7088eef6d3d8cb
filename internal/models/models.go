package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's position in the workspace.
//
// Why typed string constants and not iota?
//   - The role is stored in Postgres and carried inside JWT claims as text.
//     A string type round-trips without a lookup table, and an unknown
//     value is visible in logs instead of being a mystery integer.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleEmployee    Role = "employee"
	RoleProjectLead Role = "projectLead"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleProjectLead:
		return true
	}
	return false
}

// Toggled returns the other side of the employee/projectLead pair.
// The admin role never toggles.
func (r Role) Toggled() Role {
	if r == RoleEmployee {
		return RoleProjectLead
	}
	return RoleEmployee
}

// User is a directory entry.
//
// Why a string ID and not uuid.UUID?
//   - The ID is issued by the external auth provider (an opaque UID we
//     receive from the provisioning RPC). We store it verbatim; parsing it
//     into a UUID would bake in an assumption the collaborator never made.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Member is one entry in a community's member list: the user's ID plus an
// email snapshot taken when they joined (denormalized for display).
//
// A single list of pairs instead of two parallel arrays — there is no
// index-alignment invariant to maintain by hand.
type Member struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Community is a named microcommunity of users with an optional single
// project-lead slot.
//
// Invariant: if ProjectLeadID is non-empty it is the UserID of one of the
// entries in Members. Empty string means "no lead".
//
// LeadTempPassword holds the one-time credential generated when a lead is
// assigned; it is cleared when the lead is removed. It is never returned
// to non-admin callers.
type Community struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Project          string    `json:"project"`
	Members          []Member  `json:"members"`
	ProjectLeadID    string    `json:"project_lead_id"`
	ProjectLeadEmail string    `json:"project_lead_email"`
	LeadTempPassword string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasMember reports whether userID is in the member list.
func (c *Community) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// TaskPriority of a task: low, medium or high.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Label returns the display form used in notification bodies.
func (p TaskPriority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	}
	return string(p)
}

// AnnouncementPriority returns the notification priority a task of this
// priority produces when it is assigned.
func (p TaskPriority) AnnouncementPriority() AnnouncementPriority {
	switch p {
	case PriorityHigh:
		return AnnouncementUrgent
	case PriorityMedium:
		return AnnouncementWarning
	default:
		return AnnouncementInfo
	}
}

// TaskStatus of a task. The UI only ever moves forward
// (todo → inProgress → done) but the store does not enforce monotonicity;
// a backward move is treated as an undo.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inProgress"
	StatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a unit of work inside one community. CommunityID is immutable
// after creation — tasks are never transferred between communities.
//
// CompletedAt is non-nil exactly while Status is done. The assignee's
// email, the assigner's email and CommunityName are snapshots taken at
// creation time.
type Task struct {
	ID              uuid.UUID    `json:"id"`
	CommunityID     uuid.UUID    `json:"community_id"`
	CommunityName   string       `json:"community_name"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	AssignedToID    string       `json:"assigned_to_id"`
	AssignedToEmail string       `json:"assigned_to_email"`
	AssignedByEmail string       `json:"assigned_by_email"`
	Priority        TaskPriority `json:"priority"`
	Status          TaskStatus   `json:"status"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// IssueCategory of an anonymous issue report.
type IssueCategory string

const (
	IssueWorkplace  IssueCategory = "workplace"
	IssueTechnical  IssueCategory = "technical"
	IssueHarassment IssueCategory = "harassment"
	IssueSafety     IssueCategory = "safety"
	IssueOther      IssueCategory = "other"
)

func (c IssueCategory) Valid() bool {
	switch c {
	case IssueWorkplace, IssueTechnical, IssueHarassment, IssueSafety, IssueOther:
		return true
	}
	return false
}

// IssueStatus workflow: open → inReview → resolved.
type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueInReview IssueStatus = "inReview"
	IssueResolved IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInReview, IssueResolved:
		return true
	}
	return false
}

// IssueReport is an anonymous case record. The ID *is* the human-facing
// case identifier ("ISS-XXXXXX") so lookup is a single key fetch.
//
// No author identity exists anywhere on this struct or its row.
// Anonymity is a hard invariant of the ledger, not a display choice.
type IssueReport struct {
	ID            string        `json:"id"`
	Category      IssueCategory `json:"category"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Status        IssueStatus   `json:"status"`
	AdminResponse string        `json:"admin_response"`
	CreatedAt     time.Time     `json:"created_at"`
}

// AnnouncementType distinguishes the three notification semantics that
// share the announcements table:
//
//	broadcast — admin/lead → every employee's general feed (TargetUID "")
//	promotion — admin → one user's credentials inbox
//	task      — lead → one user's work inbox
type AnnouncementType string

const (
	TypeBroadcast AnnouncementType = "broadcast"
	TypePromotion AnnouncementType = "promotion"
	TypeTask      AnnouncementType = "task"
)

// AnnouncementPriority: info, warning or urgent.
type AnnouncementPriority string

const (
	AnnouncementInfo    AnnouncementPriority = "info"
	AnnouncementWarning AnnouncementPriority = "warning"
	AnnouncementUrgent  AnnouncementPriority = "urgent"
)

func (p AnnouncementPriority) Valid() bool {
	switch p {
	case AnnouncementInfo, AnnouncementWarning, AnnouncementUrgent:
		return true
	}
	return false
}

// Credentials is the structured payload of a promotion announcement: the
// promoted user's login plus the one-time temporary password. It travels
// as a typed field, not as a marker string buried in the body, so the
// consumer never has to re-parse prose.
type Credentials struct {
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// Announcement is one message in the fan-out. TargetUID "" means
// broadcast to everyone; non-empty means exactly one recipient.
// Credentials is non-nil only when Type is promotion.
type Announcement struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Body        string               `json:"body"`
	Priority    AnnouncementPriority `json:"priority"`
	TargetUID   string               `json:"target_uid"`
	Type        AnnouncementType     `json:"type"`
	TaskID      *uuid.UUID           `json:"task_id,omitempty"`
	Credentials *Credentials         `json:"credentials,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// IsBroadcast reports whether the announcement goes to everyone.
func (a *Announcement) IsBroadcast() bool {
	return a.TargetUID == ""
}

// Mood of a daily check-in.
type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodLow      Mood = "low"
	MoodStressed Mood = "stressed"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodGreat, MoodGood, MoodOkay, MoodLow, MoodStressed:
		return true
	}
	return false
}

// DailyCheckIn is one mood entry. UserID is stored for the per-day
// uniqueness check but is never surfaced to admins. DateKey is
// "yyyy-MM-dd" in the submitter's local calendar — a user crossing
// midnight in another timezone legitimately gets two "today"s.
type DailyCheckIn struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      Mood      `json:"mood"`
	Note      string    `json:"note"`
	DateKey   string    `json:"date_key"`
	CreatedAt time.Time `json:"created_at"`
}

// DateKeyFormat is the reference layout for check-in date keys.
const DateKeyFormat = "2006-01-02"

// DateKeyFor returns the check-in date key for t in t's location.
func DateKeyFor(t time.Time) string {
	return t.Format(DateKeyFormat)
}

// FeedMessage is one entry in a community's append-only message log.
// SenderID is empty for admin posts.
type FeedMessage struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	SenderEmail string    `json:"sender_email"`
	SenderID    string    `json:"sender_id"`
	Body        string    `json:"body"`
	IsAdminPost bool      `json:"is_admin_post"`
	CreatedAt   time.Time `json:"created_at"`
}

// MonthlyAward is the employee-of-the-month record. The ID is the award
// month keyed "yyyy-MM", so there is at most one award per month and
// saving again in the same month overwrites it.
type MonthlyAward struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employee_id"`
	EmployeeEmail  string    `json:"employee_email"`
	Reason         string    `json:"reason"`
	Month          string    `json:"month"`
	AwardedByEmail string    `json:"awarded_by_email"`
	AwardedAt      time.Time `json:"awarded_at"`
}

// MonthKeyFor returns the award document key for t, e.g. "2026-08".
func MonthKeyFor(t time.Time) string {
	return t.Format("2006-01")
}

// MonthLabelFor returns the display month for t, e.g. "August 2026".
func MonthLabelFor(t time.Time) string {
	return t.Format("January 2006")
}
