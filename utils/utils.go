package utils

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SendJSONResponse sends a JSON response with the given status code and data
func SendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleError standardizes error handling by sending a JSON error response
func HandleError(w http.ResponseWriter, status int, message string) {
	SendJSONResponse(w, status, map[string]string{
		"error": message,
	})
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

// ClientIP extracts the caller's network address, preferring the
// X-Forwarded-For header set by a fronting proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HashPassword hashes a plaintext password using bcrypt
func HashPassword(password string) (string, error) {
	hashPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashPassword), nil
}

func CheckPassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err
}

func ErrorWithTrace(err error, errMesssage string) error {
	if err != nil {
		// Skip 1 level to get the caller of this function
		_, file, line, _ := runtime.Caller(1)
		return fmt.Errorf("%s:%d: %v %s", file, line, err, errMesssage)
	}
	return nil
}
