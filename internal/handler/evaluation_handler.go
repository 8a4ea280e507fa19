package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examhub-go-api/internal/dto"
	"github.com/noah-isme/examhub-go-api/internal/service"
	"github.com/noah-isme/examhub-go-api/internal/utils"
)

// EvaluationHandler exposes single and batch evaluation endpoints.
type EvaluationHandler struct {
	evaluations service.EvaluationService
	batches     service.BatchService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler instance.
func NewEvaluationHandler(evaluations service.EvaluationService, batches service.BatchService, validate *validator.Validate, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		evaluations: evaluations,
		batches:     batches,
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/exams/:examID/students/:studentID", h.evaluate)
	router.Post("/exams/:examID/batch", h.evaluateBatch)
	router.Get("/exams/:examID/students/:studentID", h.result)
	router.Get("/exams/:examID/status", h.status)
	router.Get("/exams/:examID/statistics", h.statistics)
	router.Get("/exams/:examID", h.results)
	router.Get("/statistics", h.allStatistics)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	result, err := h.evaluations.EvaluateSubmission(c.Context(), examID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission evaluated", result)
}

func (h *EvaluationHandler) evaluateBatch(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	var payload dto.EvaluateBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	result, err := h.batches.EvaluateBatch(c.Context(), examID, payload.StudentIDs)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch evaluation completed", result)
}

func (h *EvaluationHandler) result(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	result, err := h.evaluations.GetResult(c.Context(), examID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation result retrieved", result)
}

func (h *EvaluationHandler) results(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	results, err := h.evaluations.ListResults(c.Context(), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation results retrieved", results)
}

func (h *EvaluationHandler) status(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	status, err := h.batches.EvaluationStatus(c.Context(), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation status retrieved", status)
}

func (h *EvaluationHandler) statistics(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid exam id")
	}

	stats, err := h.batches.Statistics(c.Context(), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch statistics retrieved", stats)
}

func (h *EvaluationHandler) allStatistics(c *fiber.Ctx) error {
	summaries, err := h.batches.AllStatistics(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam statistics retrieved", summaries)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrResultNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation result not found")
	case errors.Is(err, service.ErrStatisticsNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "batch statistics not found")
	case errors.Is(err, service.ErrNoSubmissions):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "no submissions to evaluate")
	case errors.Is(err, service.ErrJudgeUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, "code execution service unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
