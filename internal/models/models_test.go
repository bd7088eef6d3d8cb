package models

import (
	"testing"
	"time"
)

func TestRoleToggled(t *testing.T) {
	if RoleEmployee.Toggled() != RoleProjectLead {
		t.Fatalf("expected employee to toggle to projectLead")
	}
	if RoleProjectLead.Toggled() != RoleEmployee {
		t.Fatalf("expected projectLead to toggle to employee")
	}
}

func TestTaskPriorityAnnouncementMapping(t *testing.T) {
	cases := []struct {
		priority TaskPriority
		want     AnnouncementPriority
	}{
		{PriorityHigh, AnnouncementUrgent},
		{PriorityMedium, AnnouncementWarning},
		{PriorityLow, AnnouncementInfo},
	}
	for _, tc := range cases {
		if got := tc.priority.AnnouncementPriority(); got != tc.want {
			t.Fatalf("priority %q maps to %q, want %q", tc.priority, got, tc.want)
		}
	}
}

func TestHasMember(t *testing.T) {
	c := Community{Members: []Member{
		{UserID: "u1", Email: "a@x.com"},
		{UserID: "u2", Email: "b@x.com"},
	}}
	if !c.HasMember("u1") || !c.HasMember("u2") {
		t.Fatalf("expected both members to be found")
	}
	if c.HasMember("u3") || c.HasMember("") {
		t.Fatalf("expected non-members to be rejected")
	}
}

func TestIsBroadcast(t *testing.T) {
	broadcast := Announcement{TargetUID: ""}
	personal := Announcement{TargetUID: "u1"}
	if !broadcast.IsBroadcast() {
		t.Fatalf("empty target should be a broadcast")
	}
	if personal.IsBroadcast() {
		t.Fatalf("targeted announcement should not be a broadcast")
	}
}

func TestDateKeyFor(t *testing.T) {
	ts := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.UTC)
	if got := DateKeyFor(ts); got != "2026-03-07" {
		t.Fatalf("DateKeyFor = %q, want 2026-03-07", got)
	}
}

func TestDateKeyUsesLocalCalendar(t *testing.T) {
	utc := time.Date(2026, time.March, 7, 23, 30, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*3600))
	if DateKeyFor(utc) == DateKeyFor(tokyo) {
		t.Fatalf("expected different date keys across the midnight boundary")
	}
}

func TestMonthKeys(t *testing.T) {
	ts := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	if got := MonthKeyFor(ts); got != "2026-08" {
		t.Fatalf("MonthKeyFor = %q, want 2026-08", got)
	}
	if got := MonthLabelFor(ts); got != "August 2026" {
		t.Fatalf("MonthLabelFor = %q, want August 2026", got)
	}
}
