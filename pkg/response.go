package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteResponseBytesOK(w http.ResponseWriter, contentType string, message []byte) {
	WriteResponseBytes(w, contentType, message, http.StatusOK)
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

// FieldError is a single input validation failure, in the same shape
// the frontend consumes: {"msg": ..., "param": ...}.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// WriteJSONError writes a {"message": ...} error body with the given status.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	respJson, err := json.Marshal(errorResponse{Message: message})
	if err != nil {
		http.Error(w, message, statusCode)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, statusCode)
}

// WriteJSONValidationError writes the 400 validation failure shape:
// {"message": ..., "errors": [{"msg": ..., "param": ...}, ...]}.
func WriteJSONValidationError(w http.ResponseWriter, message string, fieldErrors []FieldError) {
	respJson, err := json.Marshal(errorResponse{
		Message: message,
		Errors:  fieldErrors,
	})
	if err != nil {
		http.Error(w, message, http.StatusBadRequest)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, http.StatusBadRequest)
}
