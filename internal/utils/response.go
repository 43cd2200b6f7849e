package utils

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Outcome is the state of a mutation as the client tracks it.
type Outcome string

const (
	Pending Outcome = "pending"
	Success Outcome = "success"
	Failure Outcome = "failure"
)

// Result is the envelope every mutation endpoint answers with.
type Result struct {
	State Outcome `json:"state"`
	Data  any     `json:"data,omitempty"`
	Error string  `json:"error,omitempty"`
}

func Succeed(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Result{State: Success, Data: data})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Result{State: Failure, Error: msg})
}
