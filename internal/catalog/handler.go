package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitledger/backend/internal/telemetry/metrics"
	"github.com/fitledger/backend/internal/telemetry/tracing"
	"github.com/fitledger/backend/pkg"
)

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, id int) (*Exercise, error)
	ListAll(ctx context.Context) ([]Exercise, error)
}

type Handler struct {
	repo    exercisesRepo
	metrics *metrics.Manager
}

func NewHandler(repo exercisesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	exercisesRouter := mainRouter.PathPrefix("/api/exercises").Subrouter()
	exercisesRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-exercise")
	exercisesRouter.HandleFunc("", handler.HandleList).Methods("GET").Name("list-exercises")
}

type addExerciseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	MuscleGroup string `json:"muscle_group"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var addReq addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("add exercise, unmarshal json params: %s", err)
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "invalid request body", Param: "body"},
		})
		return
	}

	if addReq.Name == "" {
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "name must not be empty", Param: "name"},
		})
		return
	}

	addedExercise, err := handler.repo.Add(ctx, Exercise{
		Name:        addReq.Name,
		Description: addReq.Description,
		Category:    addReq.Category,
		MuscleGroup: addReq.MuscleGroup,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		log.Errorf("add exercise [%s]: %s", addReq.Name, err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterCatalogExercises.Inc()

	respJson, err := json.Marshal(addedExercise)
	if err != nil {
		log.Errorf("add exercise, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new catalog exercise added: [%s] id %d", addedExercise.Name, addedExercise.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	exercises, err := handler.repo.ListAll(ctx)
	if err != nil {
		log.Errorf("list exercises: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	respJson, err := json.Marshal(exercises)
	if err != nil {
		log.Errorf("list exercises, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
