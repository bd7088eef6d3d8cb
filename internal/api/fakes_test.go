package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/middleware"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asClaims injects the caller's claims the way AuthMiddleware would, so
// handler tests don't mint real tokens.
func asClaims(uid, email string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, uid)
		c.Set(middleware.ContextKeyEmail, email)
		c.Set(middleware.ContextKeyRole, role)
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// noopPublisher satisfies Publisher for handlers under test; published
// events are recorded so a test can assert on the fan-out.
type noopPublisher struct {
	announcements []*models.Announcement
	feedMessages  []*models.FeedMessage
}

func (p *noopPublisher) PublishAnnouncement(_ context.Context, ann *models.Announcement) {
	p.announcements = append(p.announcements, ann)
}

func (p *noopPublisher) PublishFeedMessage(_ context.Context, msg *models.FeedMessage) {
	p.feedMessages = append(p.feedMessages, msg)
}

// ---- in-memory stores ----

type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, id, email, passwordHash string, role models.Role) (*models.User, error) {
	u := &models.User{ID: id, Email: email, Role: role, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[id] = u
	return u, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.users[id], nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) ListNonAdmin(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0)
	for _, u := range r.users {
		if u.Role != models.RoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) SetRole(_ context.Context, userID string, role models.Role) error {
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.Role = role
	return nil
}

func (r *memUserRepo) CountByRole(_ context.Context, role models.Role) (int, error) {
	n := 0
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memCommunityRepo struct {
	communities map[uuid.UUID]*models.Community
}

func newMemCommunityRepo(communities ...*models.Community) *memCommunityRepo {
	r := &memCommunityRepo{communities: make(map[uuid.UUID]*models.Community)}
	for _, c := range communities {
		r.communities[c.ID] = c
	}
	return r
}

func (r *memCommunityRepo) Create(_ context.Context, name, description, project string, members []models.Member) (*models.Community, error) {
	c := &models.Community{
		ID: uuid.New(), Name: name, Description: description, Project: project,
		Members: members, CreatedAt: time.Now(),
	}
	r.communities[c.ID] = c
	return c, nil
}

func (r *memCommunityRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Community, error) {
	c, ok := r.communities[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (r *memCommunityRepo) List(_ context.Context) ([]models.Community, error) {
	out := make([]models.Community, 0)
	for _, c := range r.communities {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memCommunityRepo) UpdateMembers(_ context.Context, id uuid.UUID, members []models.Member) error {
	c, ok := r.communities[id]
	if !ok {
		return errors.New("no such community")
	}
	c.Members = members
	return nil
}

func (r *memCommunityRepo) SetLead(_ context.Context, id uuid.UUID, leadID, leadEmail string) error {
	c, ok := r.communities[id]
	if !ok {
		return errors.New("no such community")
	}
	c.ProjectLeadID = leadID
	c.ProjectLeadEmail = leadEmail
	return nil
}

func (r *memCommunityRepo) SetLeadTempPassword(_ context.Context, id uuid.UUID, password string) error {
	c, ok := r.communities[id]
	if !ok {
		return errors.New("no such community")
	}
	c.LeadTempPassword = password
	return nil
}

func (r *memCommunityRepo) ClearLead(_ context.Context, id uuid.UUID) error {
	c, ok := r.communities[id]
	if !ok {
		return errors.New("no such community")
	}
	c.ProjectLeadID = ""
	c.ProjectLeadEmail = ""
	c.LeadTempPassword = ""
	return nil
}

func (r *memCommunityRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.communities, id)
	return nil
}

type memTaskRepo struct {
	tasks []models.Task
}

func (r *memTaskRepo) Create(_ context.Context, task models.Task) (*models.Task, error) {
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	r.tasks = append(r.tasks, task)
	return &task, nil
}

func (r *memTaskRepo) GetByID(_ context.Context, communityID, taskID uuid.UUID) (*models.Task, error) {
	for i := range r.tasks {
		if r.tasks[i].CommunityID == communityID && r.tasks[i].ID == taskID {
			clone := r.tasks[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memTaskRepo) ListByCommunity(_ context.Context, communityID uuid.UUID) ([]models.Task, error) {
	out := make([]models.Task, 0)
	for _, t := range r.tasks {
		if t.CommunityID == communityID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memTaskRepo) UpdateStatus(_ context.Context, communityID, taskID uuid.UUID, status models.TaskStatus, completedAt *time.Time) error {
	for i := range r.tasks {
		if r.tasks[i].CommunityID == communityID && r.tasks[i].ID == taskID {
			r.tasks[i].Status = status
			r.tasks[i].CompletedAt = completedAt
			return nil
		}
	}
	return errors.New("no such task")
}

func (r *memTaskRepo) Delete(_ context.Context, communityID, taskID uuid.UUID) error {
	for i := range r.tasks {
		if r.tasks[i].CommunityID == communityID && r.tasks[i].ID == taskID {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

type memIssueRepo struct {
	issues map[string]*models.IssueReport
	getErr error
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{issues: make(map[string]*models.IssueReport)}
}

func (r *memIssueRepo) Create(_ context.Context, issue models.IssueReport) (*models.IssueReport, error) {
	if _, exists := r.issues[issue.ID]; exists {
		return nil, errors.New("duplicate case id")
	}
	issue.CreatedAt = time.Now()
	r.issues[issue.ID] = &issue
	return &issue, nil
}

func (r *memIssueRepo) GetByID(_ context.Context, caseID string) (*models.IssueReport, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	issue, ok := r.issues[caseID]
	if !ok {
		return nil, nil
	}
	clone := *issue
	return &clone, nil
}

func (r *memIssueRepo) List(_ context.Context) ([]models.IssueReport, error) {
	out := make([]models.IssueReport, 0)
	for _, i := range r.issues {
		out = append(out, *i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memIssueRepo) Respond(_ context.Context, caseID, response string, status models.IssueStatus) (bool, error) {
	issue, ok := r.issues[caseID]
	if !ok {
		return false, nil
	}
	issue.AdminResponse = response
	issue.Status = status
	return true, nil
}

type memAnnouncementRepo struct {
	announcements []models.Announcement
	orderedErr    error
}

func (r *memAnnouncementRepo) Create(_ context.Context, ann models.Announcement) (*models.Announcement, error) {
	ann.ID = uuid.New()
	ann.CreatedAt = time.Now()
	r.announcements = append(r.announcements, ann)
	return &ann, nil
}

func (r *memAnnouncementRepo) ListOrdered(_ context.Context) ([]models.Announcement, error) {
	if r.orderedErr != nil {
		return nil, r.orderedErr
	}
	out := append(make([]models.Announcement, 0), r.announcements...)
	sortAnnouncementsDesc(out)
	return out, nil
}

// ListUnordered returns the slice in reverse insertion order, so a test
// that exercises the fallback actually has something to re-sort.
func (r *memAnnouncementRepo) ListUnordered(_ context.Context) ([]models.Announcement, error) {
	out := make([]models.Announcement, 0, len(r.announcements))
	for i := len(r.announcements) - 1; i >= 0; i-- {
		out = append(out, r.announcements[i])
	}
	return out, nil
}

func (r *memAnnouncementRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, a := range r.announcements {
		if a.ID == id {
			r.announcements = append(r.announcements[:i], r.announcements[i+1:]...)
			return nil
		}
	}
	return nil
}

type memCheckInRepo struct {
	checkIns []models.DailyCheckIn
}

func (r *memCheckInRepo) GetForDay(_ context.Context, userID, dateKey string) (*models.DailyCheckIn, error) {
	for i := range r.checkIns {
		if r.checkIns[i].UserID == userID && r.checkIns[i].DateKey == dateKey {
			clone := r.checkIns[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memCheckInRepo) Create(_ context.Context, checkIn models.DailyCheckIn) (*models.DailyCheckIn, error) {
	for i := range r.checkIns {
		if r.checkIns[i].UserID == checkIn.UserID && r.checkIns[i].DateKey == checkIn.DateKey {
			return nil, nil
		}
	}
	checkIn.ID = uuid.New()
	checkIn.CreatedAt = time.Now()
	r.checkIns = append(r.checkIns, checkIn)
	return &checkIn, nil
}

func (r *memCheckInRepo) ListRecent(_ context.Context, userID string, limit int) ([]models.DailyCheckIn, error) {
	out := make([]models.DailyCheckIn, 0)
	for _, ci := range r.checkIns {
		if ci.UserID == userID {
			out = append(out, ci)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memFeedRepo struct {
	messages   []models.FeedMessage
	orderedErr error
}

func (r *memFeedRepo) Create(_ context.Context, msg models.FeedMessage) (*models.FeedMessage, error) {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, msg)
	return &msg, nil
}

func (r *memFeedRepo) ListOrdered(_ context.Context, communityID uuid.UUID) ([]models.FeedMessage, error) {
	if r.orderedErr != nil {
		return nil, r.orderedErr
	}
	out := r.forCommunity(communityID)
	sortFeedAsc(out)
	return out, nil
}

func (r *memFeedRepo) ListUnordered(_ context.Context, communityID uuid.UUID) ([]models.FeedMessage, error) {
	msgs := r.forCommunity(communityID)
	out := make([]models.FeedMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (r *memFeedRepo) Delete(_ context.Context, communityID, messageID uuid.UUID) error {
	for i := range r.messages {
		if r.messages[i].CommunityID == communityID && r.messages[i].ID == messageID {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memFeedRepo) forCommunity(communityID uuid.UUID) []models.FeedMessage {
	out := make([]models.FeedMessage, 0)
	for _, m := range r.messages {
		if m.CommunityID == communityID {
			out = append(out, m)
		}
	}
	return out
}

type memAwardRepo struct {
	awards map[string]*models.MonthlyAward
}

func newMemAwardRepo() *memAwardRepo {
	return &memAwardRepo{awards: make(map[string]*models.MonthlyAward)}
}

func (r *memAwardRepo) Save(_ context.Context, award models.MonthlyAward) (*models.MonthlyAward, error) {
	award.AwardedAt = time.Now()
	r.awards[award.ID] = &award
	return &award, nil
}

func (r *memAwardRepo) GetByMonth(_ context.Context, monthKey string) (*models.MonthlyAward, error) {
	a, ok := r.awards[monthKey]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}

func (r *memAwardRepo) ListHistory(_ context.Context, limit int) ([]models.MonthlyAward, error) {
	out := make([]models.MonthlyAward, 0)
	for _, a := range r.awards {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Compile-time proof the fakes track the store interfaces.
var (
	_ repository.UserRepository         = (*memUserRepo)(nil)
	_ repository.CommunityRepository    = (*memCommunityRepo)(nil)
	_ repository.TaskRepository         = (*memTaskRepo)(nil)
	_ repository.IssueRepository        = (*memIssueRepo)(nil)
	_ repository.AnnouncementRepository = (*memAnnouncementRepo)(nil)
	_ repository.CheckInRepository      = (*memCheckInRepo)(nil)
	_ repository.FeedRepository         = (*memFeedRepo)(nil)
	_ repository.AwardRepository        = (*memAwardRepo)(nil)
)
