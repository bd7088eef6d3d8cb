package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/models"
	"go.uber.org/zap"
)

func newCheckInRouter(repo *memCheckInRepo, uid string) *gin.Engine {
	h := NewCheckInHandler(repo, zap.NewNop())
	router := gin.New()
	router.Use(asClaims(uid, uid+"@example.com", models.RoleEmployee))
	router.GET("/v1/me/checkins/today", h.Today)
	router.POST("/v1/me/checkins", h.Submit)
	router.GET("/v1/me/checkins", h.Recent)
	return router
}

func TestCheckInOncePerDay(t *testing.T) {
	repo := &memCheckInRepo{}
	router := newCheckInRouter(repo, "u1")

	rec := doJSON(t, router, http.MethodPost, "/v1/me/checkins", gin.H{
		"mood": "good",
		"note": "Shipped the release.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same user, same day: rejected no matter the mood.
	rec = doJSON(t, router, http.MethodPost, "/v1/me/checkins", gin.H{"mood": "stressed"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if len(repo.checkIns) != 1 {
		t.Fatalf("second submission must not insert, got %d rows", len(repo.checkIns))
	}
	if repo.checkIns[0].Mood != models.MoodGood {
		t.Fatalf("first check-in must survive, got %q", repo.checkIns[0].Mood)
	}
}

func TestCheckInDifferentUsersSameDay(t *testing.T) {
	repo := &memCheckInRepo{}
	if rec := doJSON(t, newCheckInRouter(repo, "u1"), http.MethodPost, "/v1/me/checkins", gin.H{"mood": "good"}); rec.Code != http.StatusCreated {
		t.Fatalf("u1 check-in failed: %d", rec.Code)
	}
	if rec := doJSON(t, newCheckInRouter(repo, "u2"), http.MethodPost, "/v1/me/checkins", gin.H{"mood": "low"}); rec.Code != http.StatusCreated {
		t.Fatalf("u2 must be able to check in on the same day: %d", rec.Code)
	}
}

func TestCheckInRejectsUnknownMood(t *testing.T) {
	router := newCheckInRouter(&memCheckInRepo{}, "u1")
	rec := doJSON(t, router, http.MethodPost, "/v1/me/checkins", gin.H{"mood": "hangry"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTodayReflectsSubmission(t *testing.T) {
	repo := &memCheckInRepo{}
	router := newCheckInRouter(repo, "u1")

	rec := doJSON(t, router, http.MethodGet, "/v1/me/checkins/today", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var before struct {
		CheckIn *models.DailyCheckIn `json:"check_in"`
	}
	decodeBody(t, rec, &before)
	if before.CheckIn != nil {
		t.Fatalf("expected no check-in yet, got %+v", before.CheckIn)
	}

	doJSON(t, router, http.MethodPost, "/v1/me/checkins", gin.H{"mood": "okay"})

	rec = doJSON(t, router, http.MethodGet, "/v1/me/checkins/today", nil)
	var after struct {
		CheckIn *models.DailyCheckIn `json:"check_in"`
	}
	decodeBody(t, rec, &after)
	if after.CheckIn == nil || after.CheckIn.Mood != models.MoodOkay {
		t.Fatalf("today must reflect the submission, got %+v", after.CheckIn)
	}
	if after.CheckIn.DateKey != models.DateKeyFor(time.Now()) {
		t.Fatalf("wrong date key %q", after.CheckIn.DateKey)
	}
}

func TestCheckInClientDateKeyWins(t *testing.T) {
	repo := &memCheckInRepo{}
	router := newCheckInRouter(repo, "u1")

	// A client west of the server can still be on yesterday's date.
	clientDay := models.DateKeyFor(time.Now().AddDate(0, 0, -1))
	rec := doJSON(t, router, http.MethodPost, "/v1/me/checkins", gin.H{
		"mood":     "good",
		"date_key": clientDay,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.checkIns[0].DateKey != clientDay {
		t.Fatalf("client day must win, got %q", repo.checkIns[0].DateKey)
	}

	// The server's own day sees nothing; the client's day sees the entry.
	rec = doJSON(t, router, http.MethodGet, "/v1/me/checkins/today", nil)
	var serverDay struct {
		CheckIn *models.DailyCheckIn `json:"check_in"`
	}
	decodeBody(t, rec, &serverDay)
	if serverDay.CheckIn != nil {
		t.Fatalf("server-day lookup must not find the client-day entry")
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/me/checkins/today?date="+clientDay, nil)
	var day struct {
		CheckIn *models.DailyCheckIn `json:"check_in"`
	}
	decodeBody(t, rec, &day)
	if day.CheckIn == nil || day.CheckIn.DateKey != clientDay {
		t.Fatalf("client-day lookup must find the entry, got %+v", day.CheckIn)
	}
}

func TestCheckInRejectsMalformedDateKey(t *testing.T) {
	router := newCheckInRouter(&memCheckInRepo{}, "u1")

	rec := doJSON(t, router, http.MethodPost, "/v1/me/checkins", gin.H{
		"mood":     "good",
		"date_key": "03/07/2026",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("submit: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/me/checkins/today?date=yesterday", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("today: expected 400, got %d", rec.Code)
	}
}

func TestRecentScopedToCaller(t *testing.T) {
	repo := &memCheckInRepo{}
	doJSON(t, newCheckInRouter(repo, "u1"), http.MethodPost, "/v1/me/checkins", gin.H{"mood": "great"})
	doJSON(t, newCheckInRouter(repo, "u2"), http.MethodPost, "/v1/me/checkins", gin.H{"mood": "low"})

	rec := doJSON(t, newCheckInRouter(repo, "u1"), http.MethodGet, "/v1/me/checkins", nil)
	var recent []models.DailyCheckIn
	decodeBody(t, rec, &recent)
	if len(recent) != 1 || recent[0].Mood != models.MoodGreat {
		t.Fatalf("recent must only show the caller's entries: %+v", recent)
	}
}
