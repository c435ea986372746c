package utils

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ContentTypeMsgpack is the media type clients send in Accept to receive
// MessagePack instead of JSON
const ContentTypeMsgpack = "application/msgpack"

// Envelope is the standard success response body
type Envelope struct {
	Data     interface{}            `json:"data" msgpack:"data"`
	Metadata map[string]interface{} `json:"metadata" msgpack:"metadata"`
}

// NewEnvelope wraps data with the response timestamp
func NewEnvelope(data interface{}) Envelope {
	return Envelope{
		Data: data,
		Metadata: map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// WantsMsgpack reports whether the client asked for MessagePack
func WantsMsgpack(r *http.Request) bool {
	return r != nil && strings.Contains(r.Header.Get("Accept"), ContentTypeMsgpack)
}

// WriteJSON writes data as JSON
func WriteJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteNegotiated writes data as MessagePack when the client accepts it and
// as JSON otherwise
func WriteNegotiated(w http.ResponseWriter, r *http.Request, status int, data interface{}, log zerolog.Logger) {
	if !WantsMsgpack(r) {
		WriteJSON(w, status, data, log)
		return
	}

	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	w.Header().Set("Content-Type", ContentTypeMsgpack)
	w.WriteHeader(status)
	enc.Reset(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode msgpack response")
	}
}

// WriteError writes the standard error body
func WriteError(w http.ResponseWriter, status int, message string, log zerolog.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, log)
}
