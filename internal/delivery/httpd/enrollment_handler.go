package httpd

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/enrollment-service/internal/models"
	"github.com/RubachokBoss/enrollment-service/internal/service"
)

func (h *Handler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.EnrollRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.EnrollStudent(r.Context(), caller, &req)
	if err != nil {
		// Duplicate and missing references are reported as bad requests here.
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrConflict) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.handleServiceError(w, err)
		return
	}

	writeSuccessStatus(w, http.StatusCreated, enrollment)
}

func (h *Handler) ListStudentEnrollments(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	response, err := h.enrollmentService.ListStudentEnrollments(r.Context(), caller, chi.URLParam(r, "studentId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.GetEnrollment(r.Context(), caller, chi.URLParam(r, "enrollmentId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) SetSectionStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.LegacyProgressRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.SetSectionStatus(r.Context(), caller, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.UpdateProgressRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.UpdateProgress(r.Context(), caller, chi.URLParam(r, "enrollmentId"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) MarkSectionComplete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.SectionCompleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.MarkSectionComplete(r.Context(), caller, chi.URLParam(r, "enrollmentId"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.QuizSubmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.SubmitQuiz(r.Context(), caller, chi.URLParam(r, "enrollmentId"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) AddSectionNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.AddNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.AddSectionNote(r.Context(), caller, chi.URLParam(r, "enrollmentId"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) UpdateEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, err := h.enrollmentService.UpdateEnrollmentStatus(r.Context(), caller, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) ExportCourseProgress(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	export, err := h.enrollmentService.ExportCourseProgress(r.Context(), caller, chi.URLParam(r, "courseId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Content); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write export")
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Enrollment service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
