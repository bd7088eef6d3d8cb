package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

// Assignment creates a task and then its notification: two sequential,
// independently retryable writes. If the notification write fails the
// task still exists — accepted and reported, never rolled back.
type Assignment struct {
	tasks         repository.TaskRepository
	announcements repository.AnnouncementRepository
	logger        *zap.Logger
}

func NewAssignment(
	tasks repository.TaskRepository,
	announcements repository.AnnouncementRepository,
	logger *zap.Logger,
) *Assignment {
	return &Assignment{
		tasks:         tasks,
		announcements: announcements,
		logger:        logger,
	}
}

// AssignmentResult names the saga's outcome per step. Task is non-nil as
// soon as the first write commits, even when notification failed.
type AssignmentResult struct {
	Task     *models.Task
	Notified bool

	// Announcement is the created task notification, for publishing to
	// live subscribers. Nil unless Notified.
	Announcement *models.Announcement

	Err error
}

func (r *AssignmentResult) Succeeded() bool {
	return r.Task != nil && r.Notified
}

func (r *AssignmentResult) Message() string {
	switch {
	case r.Task == nil:
		return "Failed to create task."
	case !r.Notified:
		return "Task created, but notifying the assignee failed."
	default:
		return fmt.Sprintf("Task assigned to %s!", displayName(r.Task.AssignedToEmail))
	}
}

// Assign persists the draft task and posts the task-typed announcement
// targeted at the assignee. The announcement's priority is derived from
// the task's: high→urgent, medium→warning, low→info.
func (a *Assignment) Assign(ctx context.Context, draft models.Task) *AssignmentResult {
	res := &AssignmentResult{}

	task, err := a.tasks.Create(ctx, draft)
	if err != nil {
		res.Err = err
		return res
	}
	res.Task = task

	ann := models.Announcement{
		Title:     "New Task Assigned: " + task.Title,
		Body:      assignmentBody(task),
		Priority:  task.Priority.AnnouncementPriority(),
		TargetUID: task.AssignedToID,
		Type:      models.TypeTask,
		TaskID:    &task.ID,
	}
	created, err := a.announcements.Create(ctx, ann)
	if err != nil {
		// Non-fatal: the task write already committed.
		a.logger.Warn("create task notification",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		res.Err = err
		return res
	}
	res.Notified = true
	res.Announcement = created

	return res
}

func assignmentBody(task *models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your project lead %s has assigned you a task in %s.\n\n",
		displayName(task.AssignedByEmail), task.CommunityName)
	fmt.Fprintf(&b, "- Priority: %s\n", task.Priority.Label())
	if task.DueDate != nil {
		fmt.Fprintf(&b, "- Due: %s\n", task.DueDate.Format("Jan 2, 2006"))
	}
	if task.Description != "" {
		b.WriteString("\n")
		b.WriteString(task.Description)
	}
	return b.String()
}

// displayName is the part of the email before the @, the same shorthand
// the inbox cards use.
func displayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
