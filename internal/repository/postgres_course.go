package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

var _ CourseRepository = (*PostgresCourseRepo)(nil)

// PostgresCourseRepo implements CourseRepository on pgx. Sections, questions,
// answers, reviews, and replies live in their own tables; every append is a
// plain INSERT, never a read-modify-overwrite of the course row.
type PostgresCourseRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCourseRepo(pool *pgxpool.Pool) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: pool}
}

const courseColumns = `id, name, description, categories, price, estimated_price, thumbnail_id, thumbnail_url,
tags, level, demo_url, benefits, prerequisites, rating, purchased, created_at, updated_at`

func scanCourse(row pgx.Row) (domain.Course, error) {
	var c domain.Course
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Categories,
		&c.Price,
		&c.EstimatedPrice,
		&c.Thumbnail.ID,
		&c.Thumbnail.URL,
		&c.Tags,
		&c.Level,
		&c.DemoURL,
		&c.Benefits,
		&c.Prerequisites,
		&c.Rating,
		&c.Purchased,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const insertCourseSQL = `INSERT INTO courses
(id, name, description, categories, price, estimated_price, thumbnail_id, thumbnail_url, tags, level, demo_url, benefits, prerequisites)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + courseColumns

func (r *PostgresCourseRepo) Create(ctx context.Context, course domain.Course) (domain.Course, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Course{}, fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, insertCourseSQL,
		course.ID,
		course.Name,
		course.Description,
		course.Categories,
		course.Price,
		course.EstimatedPrice,
		course.Thumbnail.ID,
		course.Thumbnail.URL,
		course.Tags,
		course.Level,
		course.DemoURL,
		course.Benefits,
		course.Prerequisites,
	)
	created, err := scanCourse(row)
	if err != nil {
		return domain.Course{}, fmt.Errorf("create course: %w", err)
	}

	for _, section := range course.Sections {
		section.CourseID = created.ID
		saved, err := insertSection(ctx, tx, section)
		if err != nil {
			return domain.Course{}, err
		}
		created.Sections = append(created.Sections, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Course{}, fmt.Errorf("commit create course: %w", err)
	}
	return created, nil
}

const updateCourseSQL = `UPDATE courses
SET name = $2, description = $3, categories = $4, price = $5, estimated_price = $6,
    thumbnail_id = $7, thumbnail_url = $8, tags = $9, level = $10, demo_url = $11,
    benefits = $12, prerequisites = $13, updated_at = now()
WHERE id = $1
RETURNING ` + courseColumns

func (r *PostgresCourseRepo) Update(ctx context.Context, course domain.Course) (domain.Course, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Course{}, fmt.Errorf("begin update course: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, updateCourseSQL,
		course.ID,
		course.Name,
		course.Description,
		course.Categories,
		course.Price,
		course.EstimatedPrice,
		course.Thumbnail.ID,
		course.Thumbnail.URL,
		course.Tags,
		course.Level,
		course.DemoURL,
		course.Benefits,
		course.Prerequisites,
	)
	updated, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Course{}, fmt.Errorf("%w: course %d", domain.ErrNotFound, course.ID)
		}
		return domain.Course{}, fmt.Errorf("update course: %w", err)
	}

	// Section edits replace the section set; Q&A rows survive because they
	// hang off section ids that the caller carries through the edit payload.
	for _, section := range course.Sections {
		section.CourseID = course.ID
		saved, err := upsertSection(ctx, tx, section)
		if err != nil {
			return domain.Course{}, err
		}
		updated.Sections = append(updated.Sections, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Course{}, fmt.Errorf("commit update course: %w", err)
	}
	return updated, nil
}

func (r *PostgresCourseRepo) GetByID(ctx context.Context, id int64) (domain.Course, error) {
	row := r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Course{}, fmt.Errorf("%w: course %d", domain.ErrNotFound, id)
		}
		return domain.Course{}, fmt.Errorf("get course: %w", err)
	}

	if course.Sections, err = r.sections(ctx, id); err != nil {
		return domain.Course{}, err
	}
	if course.Reviews, err = r.reviews(ctx, id); err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

func (r *PostgresCourseRepo) List(ctx context.Context) ([]domain.Course, error) {
	return r.queryCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
}

func (r *PostgresCourseRepo) Search(ctx context.Context, key string) ([]domain.Course, error) {
	return r.queryCourses(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE name ILIKE '%' || $1 || '%' ORDER BY created_at DESC`,
		key,
	)
}

func (r *PostgresCourseRepo) queryCourses(ctx context.Context, sql string, args ...any) ([]domain.Course, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *PostgresCourseRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: course %d", domain.ErrNotFound, id)
	}
	return nil
}

const sectionColumns = `id, course_id, title, description, video_url, video_length, suggestion, links`

func scanSection(row pgx.Row) (domain.CourseSection, error) {
	var s domain.CourseSection
	var links []byte
	err := row.Scan(
		&s.ID,
		&s.CourseID,
		&s.Title,
		&s.Description,
		&s.VideoURL,
		&s.VideoLength,
		&s.Suggestion,
		&links,
	)
	if err != nil {
		return domain.CourseSection{}, err
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &s.Links); err != nil {
			return domain.CourseSection{}, fmt.Errorf("decode section links: %w", err)
		}
	}
	return s, nil
}

func (r *PostgresCourseRepo) GetSection(ctx context.Context, courseID, sectionID int64) (domain.CourseSection, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM course_sections WHERE id = $1 AND course_id = $2`,
		sectionID, courseID,
	)
	section, err := scanSection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CourseSection{}, fmt.Errorf("%w: section %d", domain.ErrNotFound, sectionID)
		}
		return domain.CourseSection{}, fmt.Errorf("get section: %w", err)
	}
	return section, nil
}

func insertSection(ctx context.Context, tx pgx.Tx, s domain.CourseSection) (domain.CourseSection, error) {
	links, err := json.Marshal(s.Links)
	if err != nil {
		return domain.CourseSection{}, fmt.Errorf("encode section links: %w", err)
	}
	row := tx.QueryRow(ctx,
		`INSERT INTO course_sections (id, course_id, title, description, video_url, video_length, suggestion, links)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+sectionColumns,
		s.ID, s.CourseID, s.Title, s.Description, s.VideoURL, s.VideoLength, s.Suggestion, links,
	)
	saved, err := scanSection(row)
	if err != nil {
		return domain.CourseSection{}, fmt.Errorf("insert section: %w", err)
	}
	return saved, nil
}

func upsertSection(ctx context.Context, tx pgx.Tx, s domain.CourseSection) (domain.CourseSection, error) {
	links, err := json.Marshal(s.Links)
	if err != nil {
		return domain.CourseSection{}, fmt.Errorf("encode section links: %w", err)
	}
	row := tx.QueryRow(ctx,
		`INSERT INTO course_sections (id, course_id, title, description, video_url, video_length, suggestion, links)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title, description = EXCLUDED.description, video_url = EXCLUDED.video_url,
		     video_length = EXCLUDED.video_length, suggestion = EXCLUDED.suggestion, links = EXCLUDED.links
		 RETURNING `+sectionColumns,
		s.ID, s.CourseID, s.Title, s.Description, s.VideoURL, s.VideoLength, s.Suggestion, links,
	)
	saved, err := scanSection(row)
	if err != nil {
		return domain.CourseSection{}, fmt.Errorf("upsert section: %w", err)
	}
	return saved, nil
}

func (r *PostgresCourseRepo) sections(ctx context.Context, courseID int64) ([]domain.CourseSection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sectionColumns+` FROM course_sections WHERE course_id = $1 ORDER BY id`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.CourseSection
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sections {
		if sections[i].Questions, err = r.questions(ctx, sections[i].ID); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

const questionColumns = `id, section_id, user_id, user_name, text, created_at`

func (r *PostgresCourseRepo) AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO course_questions (id, section_id, user_id, user_name, text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+questionColumns,
		q.ID, q.SectionID, q.UserID, q.UserName, q.Text,
	)
	var saved domain.Question
	if err := row.Scan(&saved.ID, &saved.SectionID, &saved.UserID, &saved.UserName, &saved.Text, &saved.CreatedAt); err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return saved, nil
}

func (r *PostgresCourseRepo) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := r.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM course_questions WHERE id = $1`, id)
	var q domain.Question
	if err := row.Scan(&q.ID, &q.SectionID, &q.UserID, &q.UserName, &q.Text, &q.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, fmt.Errorf("%w: question %d", domain.ErrNotFound, id)
		}
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (r *PostgresCourseRepo) questions(ctx context.Context, sectionID int64) ([]domain.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+questionColumns+` FROM course_questions WHERE section_id = $1 ORDER BY created_at`,
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.SectionID, &q.UserID, &q.UserName, &q.Text, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range questions {
		if questions[i].Replies, err = r.answers(ctx, questions[i].ID); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func (r *PostgresCourseRepo) AddAnswer(ctx context.Context, a domain.Answer) (domain.Answer, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO question_replies (id, question_id, user_id, user_name, text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, question_id, user_id, user_name, text, created_at`,
		a.ID, a.QuestionID, a.UserID, a.UserName, a.Text,
	)
	var saved domain.Answer
	if err := row.Scan(&saved.ID, &saved.QuestionID, &saved.UserID, &saved.UserName, &saved.Text, &saved.CreatedAt); err != nil {
		return domain.Answer{}, fmt.Errorf("insert answer: %w", err)
	}
	return saved, nil
}

func (r *PostgresCourseRepo) answers(ctx context.Context, questionID int64) ([]domain.Answer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question_id, user_id, user_name, text, created_at
		 FROM question_replies WHERE question_id = $1 ORDER BY created_at`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserID, &a.UserName, &a.Text, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

const reviewColumns = `id, course_id, user_id, user_name, rating, comment, created_at`

func (r *PostgresCourseRepo) AddReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Review{}, fmt.Errorf("begin add review: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO course_reviews (id, course_id, user_id, user_name, rating, comment)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+reviewColumns,
		review.ID, review.CourseID, review.UserID, review.UserName, review.Rating, review.Comment,
	)
	var saved domain.Review
	if err := row.Scan(&saved.ID, &saved.CourseID, &saved.UserID, &saved.UserName, &saved.Rating, &saved.Comment, &saved.CreatedAt); err != nil {
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}

	// Recompute the aggregate from the review rows so two concurrent
	// reviewers both land in the average.
	_, err = tx.Exec(ctx,
		`UPDATE courses
		 SET rating = (SELECT avg(rating) FROM course_reviews WHERE course_id = $1), updated_at = now()
		 WHERE id = $1`,
		review.CourseID,
	)
	if err != nil {
		return domain.Review{}, fmt.Errorf("update course rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Review{}, fmt.Errorf("commit add review: %w", err)
	}
	return saved, nil
}

func (r *PostgresCourseRepo) GetReview(ctx context.Context, id int64) (domain.Review, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM course_reviews WHERE id = $1`, id)
	var review domain.Review
	if err := row.Scan(&review.ID, &review.CourseID, &review.UserID, &review.UserName, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, fmt.Errorf("%w: review %d", domain.ErrNotFound, id)
		}
		return domain.Review{}, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

func (r *PostgresCourseRepo) reviews(ctx context.Context, courseID int64) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reviewColumns+` FROM course_reviews WHERE course_id = $1 ORDER BY created_at DESC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.CourseID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reviews {
		if reviews[i].Replies, err = r.reviewReplies(ctx, reviews[i].ID); err != nil {
			return nil, err
		}
	}
	return reviews, nil
}

func (r *PostgresCourseRepo) AddReviewReply(ctx context.Context, reply domain.Reply) (domain.Reply, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO review_replies (id, review_id, user_id, user_name, comment)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, review_id, user_id, user_name, comment, created_at`,
		reply.ID, reply.ReviewID, reply.UserID, reply.UserName, reply.Comment,
	)
	var saved domain.Reply
	if err := row.Scan(&saved.ID, &saved.ReviewID, &saved.UserID, &saved.UserName, &saved.Comment, &saved.CreatedAt); err != nil {
		return domain.Reply{}, fmt.Errorf("insert review reply: %w", err)
	}
	return saved, nil
}

func (r *PostgresCourseRepo) reviewReplies(ctx context.Context, reviewID int64) ([]domain.Reply, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, review_id, user_id, user_name, comment, created_at
		 FROM review_replies WHERE review_id = $1 ORDER BY created_at`,
		reviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("list review replies: %w", err)
	}
	defer rows.Close()

	var replies []domain.Reply
	for rows.Next() {
		var rp domain.Reply
		if err := rows.Scan(&rp.ID, &rp.ReviewID, &rp.UserID, &rp.UserName, &rp.Comment, &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review reply: %w", err)
		}
		replies = append(replies, rp)
	}
	return replies, rows.Err()
}

func (r *PostgresCourseRepo) IncrementPurchased(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE courses SET purchased = purchased + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment purchased: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: course %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresCourseRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM courses WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}
