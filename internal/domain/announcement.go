package domain

import "time"

// Announcement is a time-windowed banner ranked by priority.
type Announcement struct {
	ID        string
	Title     string
	Body      string
	Type      string
	Priority  int
	Link      string
	StartsAt  time.Time
	EndsAt    *time.Time
	Active    bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleAt reports whether the announcement should be shown at the given
// instant. A nil EndsAt keeps the window open.
func (a Announcement) VisibleAt(now time.Time) bool {
	if !a.Active {
		return false
	}
	if now.Before(a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && !now.Before(*a.EndsAt) {
		return false
	}
	return true
}
