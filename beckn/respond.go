package beckn

import (
	"encoding/json"
	"net/http"
)

// WriteAck writes the standard 200 ACK body.
func WriteAck(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, NewAck())
}

// WriteNack writes a NACK body at the given HTTP status.
func WriteNack(w http.ResponseWriter, status int, errType ErrorType, code, message string) {
	WriteJSON(w, status, NewNack(errType, code, message))
}

// WriteJSON writes any value as application/json at the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
