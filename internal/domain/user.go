package domain

import "time"

// Asset is a reference to a file held by the external media store.
type Asset struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// User is the principal record. The database owns it; a JSON snapshot is
// additionally cached in the session store and its id/role are duplicated
// into signed tokens. Role carried by a token or snapshot may lag the
// database by up to the session TTL.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	Avatar       Asset     `json:"avatar"`
	CourseIDs    []int64   `json:"course_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Owns reports whether the user purchased the given course.
func (u User) Owns(courseID int64) bool {
	for _, id := range u.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}
