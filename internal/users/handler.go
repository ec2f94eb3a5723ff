package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitledger/backend/internal/auth"
	"github.com/fitledger/backend/internal/middleware"
	"github.com/fitledger/backend/internal/telemetry/metrics"
	"github.com/fitledger/backend/internal/telemetry/tracing"
	"github.com/fitledger/backend/pkg"
)

const minPasswordLen = 6

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type Handler struct {
	repo        usersRepo
	authService *auth.Service
	metrics     *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	authService *auth.Service,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:        repo,
		authService: authService,
		metrics:     metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	// signup and login share one rate limit bucket to slow down abuse
	limit := middleware.RateLimit(rateLimiter, "auth", allowedPerMin, handler.metrics)
	mainRouter.Handle(
		"/api/signup", limit(http.HandlerFunc(handler.HandleSignup)),
	).Methods("POST", "OPTIONS").Name("signup")
	mainRouter.Handle(
		"/api/login", limit(http.HandlerFunc(handler.HandleLogin)),
	).Methods("POST", "OPTIONS").Name("login")
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type signupResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

func (handler *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.signup")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var signupReq signupRequest
	if err := json.NewDecoder(r.Body).Decode(&signupReq); err != nil {
		log.Tracef("signup, unmarshal json params: %s", err)
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "invalid request body", Param: "body"},
		})
		return
	}

	if fieldErrors := validateSignup(signupReq); len(fieldErrors) > 0 {
		pkg.WriteJSONValidationError(w, "Validation errors occurred", fieldErrors)
		return
	}

	passwordHash, err := pkg.HashPassword(signupReq.Password)
	if err != nil {
		log.Errorf("signup, hash password: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	addedUser, err := handler.repo.Add(ctx, User{
		Username:     signupReq.Username,
		Email:        signupReq.Email,
		PasswordHash: passwordHash,
	})
	switch {
	case errors.Is(err, ErrUsernameTaken):
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "username already taken", Param: "username"},
		})
		return
	case errors.Is(err, ErrEmailTaken):
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "email already taken", Param: "email"},
		})
		return
	case err != nil:
		log.Errorf("signup, failed to add user [%s]: %s", signupReq.Username, err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterSignups.Inc()

	respJson, err := json.Marshal(signupResponse{
		Message: "User created successfully",
		User:    addedUser,
	})
	if err != nil {
		log.Errorf("signup, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user signed up: [%s] id %d", addedUser.Username, addedUser.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "invalid request body", Param: "body"},
		})
		return
	}

	var fieldErrors []pkg.FieldError
	if loginReq.Username == "" {
		fieldErrors = append(fieldErrors, pkg.FieldError{Msg: "username must not be empty", Param: "username"})
	}
	if loginReq.Password == "" {
		fieldErrors = append(fieldErrors, pkg.FieldError{Msg: "password must not be empty", Param: "password"})
	}
	if len(fieldErrors) > 0 {
		pkg.WriteJSONValidationError(w, "Validation errors occurred", fieldErrors)
		return
	}

	userIP, err := pkg.ReadUserIP(r)
	if err != nil {
		log.Warnf("login, read user ip: %s", err)
		userIP = r.RemoteAddr
	}

	// same response for unknown username and wrong password, do not leak
	// which of the two was off
	user, err := handler.repo.GetByUsername(ctx, loginReq.Username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Errorf("login, get user [%s]: %s", loginReq.Username, err)
			pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		log.Tracef("[username] failed login attempt for user %s from %s", loginReq.Username, userIP)
		pkg.WriteJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		log.Tracef("[password] failed login attempt for user %s from %s", loginReq.Username, userIP)
		pkg.WriteJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := handler.authService.NewToken(user.ID)
	if err != nil {
		log.Errorf("login, generate token: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterLogins.Inc()

	respJson, err := json.Marshal(loginResponse{Token: token})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	log.Tracef("new login success: user %d", user.ID)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func validateSignup(req signupRequest) []pkg.FieldError {
	var fieldErrors []pkg.FieldError
	if req.Username == "" {
		fieldErrors = append(fieldErrors, pkg.FieldError{
			Msg:   "username must not be empty",
			Param: "username",
		})
	}
	if len(req.Password) < minPasswordLen {
		fieldErrors = append(fieldErrors, pkg.FieldError{
			Msg:   "password must be at least 6 characters long",
			Param: "password",
		})
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors = append(fieldErrors, pkg.FieldError{
			Msg:   "email is not valid",
			Param: "email",
		})
	}
	return fieldErrors
}
