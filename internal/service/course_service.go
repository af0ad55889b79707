package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/mail"
	"github.com/jackson0tr/lerko-backend/internal/media"
	"github.com/jackson0tr/lerko-backend/internal/repository"
)

// CourseService owns the catalog, its read-through cache, and the Q&A and
// review flows. The cache holds the redacted public view keyed by the raw
// decimal course id; every write path invalidates the key in the same
// operation as the database write.
type CourseService struct {
	courses       repository.CourseRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	content       *cache.ContentCache
	mailer        mail.Mailer
	video         media.VideoGateway
	node          *snowflake.Node
	log           *zap.Logger
}

func NewCourseService(
	courses repository.CourseRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	content *cache.ContentCache,
	mailer mail.Mailer,
	video media.VideoGateway,
	node *snowflake.Node,
	log *zap.Logger,
) *CourseService {
	return &CourseService{
		courses:       courses,
		users:         users,
		notifications: notifications,
		content:       content,
		mailer:        mailer,
		video:         video,
		node:          node,
		log:           log,
	}
}

func courseKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Create persists a new course. Nothing to invalidate: the key cannot be
// cached before the course exists.
func (s *CourseService) Create(ctx context.Context, course domain.Course) (domain.Course, error) {
	course.ID = s.node.Generate().Int64()
	for i := range course.Sections {
		course.Sections[i].ID = s.node.Generate().Int64()
	}
	return s.courses.Create(ctx, course)
}

// Update persists the edit and deletes the cache entry in the same logical
// operation, so the next read rebuilds from the database.
func (s *CourseService) Update(ctx context.Context, course domain.Course) (domain.Course, error) {
	for i := range course.Sections {
		if course.Sections[i].ID == 0 {
			course.Sections[i].ID = s.node.Generate().Int64()
		}
	}
	updated, err := s.courses.Update(ctx, course)
	if err != nil {
		return domain.Course{}, err
	}
	if err := s.content.Invalidate(ctx, courseKey(course.ID)); err != nil {
		return domain.Course{}, err
	}
	return updated, nil
}

// Delete removes the course and its cache entry.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	return s.content.Invalidate(ctx, courseKey(id))
}

// GetPublic serves the redacted course view through the cache: a hit is
// returned verbatim, a miss loads from the database, strips restricted
// content, and stores the result with the cache TTL.
func (s *CourseService) GetPublic(ctx context.Context, id int64) (domain.Course, error) {
	return cache.GetOrLoad(ctx, s.content, courseKey(id), func(ctx context.Context) (domain.Course, error) {
		course, err := s.courses.GetByID(ctx, id)
		if err != nil {
			return domain.Course{}, err
		}
		return course.Redacted(), nil
	})
}

// ListPublic returns the redacted view of every course, uncached.
func (s *CourseService) ListPublic(ctx context.Context) ([]domain.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i] = courses[i].Redacted()
	}
	return courses, nil
}

// ListAdmin returns the full course records.
func (s *CourseService) ListAdmin(ctx context.Context) ([]domain.Course, error) {
	return s.courses.List(ctx)
}

// Search matches course names case-insensitively and redacts the results.
func (s *CourseService) Search(ctx context.Context, key string) ([]domain.Course, error) {
	courses, err := s.courses.Search(ctx, key)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i] = courses[i].Redacted()
	}
	return courses, nil
}

// Content returns the full sections of a course to a purchaser. Admins see
// every course.
func (s *CourseService) Content(ctx context.Context, user domain.User, courseID int64) ([]domain.CourseSection, error) {
	if user.Role != domain.RoleAdmin && !user.Owns(courseID) {
		return nil, fmt.Errorf("%w: course %d", domain.ErrNotPurchased, courseID)
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return course.Sections, nil
}

// AddQuestion appends a learner question to a section as a single row insert
// and notifies the admins.
func (s *CourseService) AddQuestion(ctx context.Context, user domain.User, courseID, sectionID int64, text string) (domain.Question, error) {
	if user.Role != domain.RoleAdmin && !user.Owns(courseID) {
		return domain.Question{}, fmt.Errorf("%w: course %d", domain.ErrNotPurchased, courseID)
	}
	section, err := s.courses.GetSection(ctx, courseID, sectionID)
	if err != nil {
		return domain.Question{}, err
	}

	question, err := s.courses.AddQuestion(ctx, domain.Question{
		ID:        s.node.Generate().Int64(),
		SectionID: section.ID,
		UserID:    user.ID,
		UserName:  user.Name,
		Text:      text,
	})
	if err != nil {
		return domain.Question{}, err
	}

	_, err = s.notifications.Create(ctx, domain.Notification{
		ID:      s.node.Generate().Int64(),
		UserID:  user.ID,
		Title:   "New question",
		Message: fmt.Sprintf("%s asked a question in %s", user.Name, section.Title),
	})
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// AddAnswer appends a reply to a question. When someone else answers, the
// question owner gets a mail; when the owner follows up on their own
// question, admins get a notification instead.
func (s *CourseService) AddAnswer(ctx context.Context, user domain.User, courseID, sectionID, questionID int64, text string) (domain.Answer, error) {
	if user.Role != domain.RoleAdmin && !user.Owns(courseID) {
		return domain.Answer{}, fmt.Errorf("%w: course %d", domain.ErrNotPurchased, courseID)
	}
	section, err := s.courses.GetSection(ctx, courseID, sectionID)
	if err != nil {
		return domain.Answer{}, err
	}
	question, err := s.courses.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if question.SectionID != section.ID {
		return domain.Answer{}, fmt.Errorf("%w: question %d", domain.ErrNotFound, questionID)
	}

	answer, err := s.courses.AddAnswer(ctx, domain.Answer{
		ID:         s.node.Generate().Int64(),
		QuestionID: question.ID,
		UserID:     user.ID,
		UserName:   user.Name,
		Text:       text,
	})
	if err != nil {
		return domain.Answer{}, err
	}

	if user.ID == question.UserID {
		_, err = s.notifications.Create(ctx, domain.Notification{
			ID:      s.node.Generate().Int64(),
			UserID:  user.ID,
			Title:   "New question reply",
			Message: fmt.Sprintf("%s replied in %s", user.Name, section.Title),
		})
		if err != nil {
			return domain.Answer{}, err
		}
		return answer, nil
	}

	asker, err := s.users.GetByID(ctx, question.UserID)
	if err != nil {
		return domain.Answer{}, err
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return domain.Answer{}, err
	}
	err = s.mailer.Send(ctx, asker.Email, "Your question has a reply", "question_reply.html", map[string]any{
		"Name":       asker.Name,
		"CourseName": course.Name,
		"Reply":      text,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: reply mail: %v", domain.ErrUpstream, err)
	}
	return answer, nil
}

// AddReview records a purchaser's review, lets the repository fold it into
// the course rating, invalidates the cached view, and notifies the admins.
func (s *CourseService) AddReview(ctx context.Context, user domain.User, courseID int64, rating int, comment string) (domain.Review, error) {
	if !user.Owns(courseID) {
		return domain.Review{}, fmt.Errorf("%w: course %d", domain.ErrNotPurchased, courseID)
	}

	review, err := s.courses.AddReview(ctx, domain.Review{
		ID:       s.node.Generate().Int64(),
		CourseID: courseID,
		UserID:   user.ID,
		UserName: user.Name,
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		return domain.Review{}, err
	}
	if err := s.content.Invalidate(ctx, courseKey(courseID)); err != nil {
		return domain.Review{}, err
	}

	_, err = s.notifications.Create(ctx, domain.Notification{
		ID:      s.node.Generate().Int64(),
		UserID:  user.ID,
		Title:   "New review",
		Message: fmt.Sprintf("%s reviewed course %d", user.Name, courseID),
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// AddReviewReply appends an admin response to a review and invalidates the
// cached view that carries it.
func (s *CourseService) AddReviewReply(ctx context.Context, user domain.User, courseID, reviewID int64, comment string) (domain.Reply, error) {
	review, err := s.courses.GetReview(ctx, reviewID)
	if err != nil {
		return domain.Reply{}, err
	}
	if review.CourseID != courseID {
		return domain.Reply{}, fmt.Errorf("%w: review %d", domain.ErrNotFound, reviewID)
	}

	reply, err := s.courses.AddReviewReply(ctx, domain.Reply{
		ID:       s.node.Generate().Int64(),
		ReviewID: review.ID,
		UserID:   user.ID,
		UserName: user.Name,
		Comment:  comment,
	})
	if err != nil {
		return domain.Reply{}, err
	}
	if err := s.content.Invalidate(ctx, courseKey(courseID)); err != nil {
		return domain.Reply{}, err
	}
	return reply, nil
}

// VideoOTP mints a one-time playback credential for a protected video.
func (s *CourseService) VideoOTP(ctx context.Context, videoID string) (media.PlaybackTicket, error) {
	return s.video.PlaybackOTP(ctx, videoID)
}
