package domain

import "time"

// Course is the catalog entry plus its assembled sub-collections. Sections,
// questions, and reviews live in dedicated tables so appends are atomic row
// inserts rather than read-modify-overwrite of the whole document.
type Course struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Categories     string          `json:"categories"`
	Price          int64           `json:"price"`
	EstimatedPrice int64           `json:"estimated_price,omitempty"`
	Thumbnail      Asset           `json:"thumbnail"`
	Tags           string          `json:"tags"`
	Level          string          `json:"level"`
	DemoURL        string          `json:"demo_url"`
	Benefits       []string        `json:"benefits"`
	Prerequisites  []string        `json:"prerequisites"`
	Rating         float64         `json:"rating"`
	Purchased      int64           `json:"purchased"`
	Sections       []CourseSection `json:"sections"`
	Reviews        []Review        `json:"reviews"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CourseSection is one unit of course content.
type CourseSection struct {
	ID          int64      `json:"id"`
	CourseID    int64      `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VideoURL    string     `json:"video_url,omitempty"`
	VideoLength int        `json:"video_length"`
	Suggestion  string     `json:"suggestion,omitempty"`
	Links       []Link     `json:"links,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}

// Link is supplementary section material.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Question is a learner question attached to a section.
type Question struct {
	ID        int64     `json:"id"`
	SectionID int64     `json:"section_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Replies   []Answer  `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Answer is a reply to a question.
type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserID     int64     `json:"user_id"`
	UserName   string    `json:"user_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is a rating plus comment left by a purchaser.
type Review struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Replies   []Reply   `json:"replies,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Reply is an admin response to a review.
type Reply struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Redacted returns the anonymous view of the course: video URLs, suggestions,
// links, and Q&A threads are stripped before the value is cached or listed.
func (c Course) Redacted() Course {
	out := c
	out.Sections = make([]CourseSection, len(c.Sections))
	for i, s := range c.Sections {
		s.VideoURL = ""
		s.Suggestion = ""
		s.Links = nil
		s.Questions = nil
		out.Sections[i] = s
	}
	return out
}
