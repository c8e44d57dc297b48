package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/middleware"
	"github.com/RubachokBoss/enrollment-service/internal/models"
	"github.com/RubachokBoss/enrollment-service/internal/service"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	enrollmentService service.EnrollmentService
	auth              func(http.Handler) http.Handler
	pinger            Pinger
	validate          *validator.Validate
	logger            zerolog.Logger
}

// NewHandler wires the enrollment routes. auth guards everything under
// /api/v1; pinger may be nil.
func NewHandler(
	enrollmentService service.EnrollmentService,
	auth func(http.Handler) http.Handler,
	pinger Pinger,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		enrollmentService: enrollmentService,
		auth:              auth,
		pinger:            pinger,
		validate:          newValidator(),
		logger:            logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(h.auth)

		api.Route("/enrollments", func(r chi.Router) {
			r.Post("/enroll", h.EnrollStudent)
			r.Put("/progress", h.SetSectionStatus)
			r.Put("/status", h.UpdateEnrollmentStatus)
			r.Get("/detail/{enrollmentId}", h.GetEnrollment)
			r.Get("/courses/{courseId}/export", h.ExportCourseProgress)
			r.Get("/{studentId}", h.ListStudentEnrollments)
			r.Put("/{enrollmentId}/progress", h.UpdateProgress)
			r.Put("/{enrollmentId}/section-complete", h.MarkSectionComplete)
			r.Post("/{enrollmentId}/quiz-submit", h.SubmitQuiz)
			r.Post("/{enrollmentId}/notes", h.AddSectionNote)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "enrollment-service",
		"timestamp": time.Now().UTC(),
	}

	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("Health check failed")
			response["status"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// caller returns the authenticated identity. Routes are only reachable
// through the auth middleware, so a missing identity is a wiring bug.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return identity, ok
}

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and reports false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, models.ErrMalformedAnswer) {
			writeError(w, http.StatusBadRequest, err.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}

	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeSuccessStatus(w, http.StatusOK, data)
}

func writeSuccessStatus(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, status, response)
}
