package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/domain"
	"studybuddy/internal/export"
	"studybuddy/internal/middleware"
	"studybuddy/internal/service"
)

// StudyHandler handles the chat, quiz and schedule endpoints.
type StudyHandler struct {
	studyService service.StudyService
	now          func() time.Time
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService service.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService, now: time.Now}
}

// Chat handles POST /api/chat
// @Summary Ask the tutor
// @Description Send a message to the AI tutor. If the reply embeds JSON it is also returned parsed.
// @Tags study
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Chat message"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} ErrorResponse "Missing message"
// @Failure 500 {object} ErrorResponse "Generation failed"
// @Router /chat [post]
func (h *StudyHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := h.studyService.Chat(c.Request.Context(), service.ChatInput{
		Message:     req.Message,
		UserProfile: req.UserProfile,
		UserID:      middleware.GetUserID(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ChatResponse{OK: true, Reply: out.Reply, Structured: out.Structured, Raw: out.Raw})
}

// Quiz handles POST /api/quiz
// @Summary Generate a quiz
// @Description Generate multiple-choice questions from syllabus text. With format=csv|xlsx the quiz is returned as a file.
// @Tags study
// @Accept json
// @Produce json
// @Param request body QuizRequest true "Quiz parameters"
// @Param format query string false "Download format" Enums(csv, xlsx)
// @Success 200 {object} QuizResponse
// @Failure 400 {object} ErrorResponse "Missing syllabus, bad count or unsupported format"
// @Failure 500 {object} ErrorResponse "Generation failed or reply was not a JSON array"
// @Router /quiz [post]
func (h *StudyHandler) Quiz(c *gin.Context) {
	format, err := domain.ParseExportFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := h.studyService.GenerateQuiz(c.Request.Context(), service.QuizInput{
		Syllabus:   req.Syllabus,
		Count:      req.Count,
		Difficulty: req.Difficulty,
		ClassLevel: req.ClassLevel,
		UserID:     middleware.GetUserID(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	if format != domain.ExportFormatNone {
		h.download(c, export.QuizTable(out.Quiz), "quiz", format)
		return
	}
	RespondOK(c, QuizResponse{OK: true, Quiz: out.Quiz})
}

// Schedule handles POST /api/schedule
// @Summary Generate a day schedule
// @Description Generate a time-blocked study schedule. Every field is optional. With format=csv|xlsx the schedule is returned as a file.
// @Tags study
// @Accept json
// @Produce json
// @Param request body ScheduleRequest false "Schedule parameters"
// @Param format query string false "Download format" Enums(csv, xlsx)
// @Success 200 {object} ScheduleResponse
// @Failure 400 {object} ErrorResponse "Bad classStart or unsupported format"
// @Failure 500 {object} ErrorResponse "Generation failed or reply was not a JSON array"
// @Router /schedule [post]
func (h *StudyHandler) Schedule(c *gin.Context) {
	format, err := domain.ParseExportFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := h.studyService.GenerateSchedule(c.Request.Context(), service.ScheduleInput{
		Date:       req.Date,
		WakeTime:   req.WakeTime,
		ClassStart: req.ClassStart.IntPtr(),
		Prefs:      req.Prefs,
		UserID:     middleware.GetUserID(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	if format != domain.ExportFormatNone {
		h.download(c, export.ScheduleTable(out.Schedule), "schedule", format)
		return
	}
	RespondOK(c, ScheduleResponse{OK: true, Schedule: out.Schedule})
}

// download renders t fully before writing so a rendering error can still
// become a JSON error response.
func (h *StudyHandler) download(c *gin.Context, t *export.Table, prefix string, format domain.ExportFormat) {
	var buf bytes.Buffer
	if err := export.Write(&buf, t, format); err != nil {
		HandleError(c, fmt.Errorf("handler.download: %w", err))
		return
	}

	filename := export.BuildFilename(prefix, format, h.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}
