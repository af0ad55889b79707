package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/http/middleware"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

// CourseHandler exposes the catalog, Q&A, and review endpoints.
type CourseHandler struct {
	Courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{Courses: courses}
}

func (h *CourseHandler) Create(c *gin.Context) {
	var course domain.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if course.Name == "" {
		badRequest(c, "course name is required")
		return
	}

	created, err := h.Courses.Create(c.Request.Context(), course)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "course": created})
}

func (h *CourseHandler) Update(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var course domain.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	course.ID = courseID

	updated, err := h.Courses.Update(c.Request.Context(), course)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "course": updated})
}

func (h *CourseHandler) Delete(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Courses.Delete(c.Request.Context(), courseID); err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "course deleted"})
}

func (h *CourseHandler) Get(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	course, err := h.Courses.GetPublic(c.Request.Context(), courseID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "course": course})
}

func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.Courses.ListPublic(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courses": courses})
}

func (h *CourseHandler) ListAdmin(c *gin.Context) {
	courses, err := h.Courses.ListAdmin(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courses": courses})
}

func (h *CourseHandler) Search(c *gin.Context) {
	courses, err := h.Courses.Search(c.Request.Context(), c.Param("key"))
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "courses": courses})
}

func (h *CourseHandler) Content(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sections, err := h.Courses.Content(c.Request.Context(), user, courseID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sections": sections})
}

func (h *CourseHandler) AddQuestion(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		CourseID  int64  `json:"course_id"`
		SectionID int64  `json:"section_id"`
		Question  string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Question == "" {
		badRequest(c, "question text is required")
		return
	}

	question, err := h.Courses.AddQuestion(c.Request.Context(), user, req.CourseID, req.SectionID, req.Question)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "question": question})
}

func (h *CourseHandler) AddAnswer(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		CourseID   int64  `json:"course_id"`
		SectionID  int64  `json:"section_id"`
		QuestionID int64  `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Answer == "" {
		badRequest(c, "answer text is required")
		return
	}

	answer, err := h.Courses.AddAnswer(c.Request.Context(), user, req.CourseID, req.SectionID, req.QuestionID, req.Answer)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "answer": answer})
}

func (h *CourseHandler) AddReview(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		badRequest(c, "rating must be between 1 and 5")
		return
	}

	review, err := h.Courses.AddReview(c.Request.Context(), user, courseID, req.Rating, req.Comment)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "review": review})
}

func (h *CourseHandler) AddReviewReply(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		CourseID int64  `json:"course_id"`
		ReviewID int64  `json:"review_id"`
		Comment  string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Comment == "" {
		badRequest(c, "comment is required")
		return
	}

	reply, err := h.Courses.AddReviewReply(c.Request.Context(), user, req.CourseID, req.ReviewID, req.Comment)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "reply": reply})
}

func (h *CourseHandler) VideoOTP(c *gin.Context) {
	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" {
		badRequest(c, "video_id is required")
		return
	}

	ticket, err := h.Courses.VideoOTP(c.Request.Context(), req.VideoID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
