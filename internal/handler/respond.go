package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/cart"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/kitchen"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/orderstore"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// writeError maps an error kind to its HTTP status. op names the failed
// operation in the server log.
func writeError(w http.ResponseWriter, op string, err error) {
	var te *order.TransitionError
	switch {
	case errors.As(err, &te):
		writeJSON(w, http.StatusConflict, orderstore.ErrorResponse{
			Error:   te.Error(),
			Kitchen: te.Kitchen,
			From:    te.From,
			To:      te.To,
			Reason:  te.Reason,
		})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, order.ErrTransientNetwork):
		log.Printf("WARN: %s: %v", op, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order store unavailable, try again"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, order.ErrValidation) ||
		errors.Is(err, catalog.ErrItemNotFound) ||
		errors.Is(err, catalog.ErrBundleNotFound) ||
		errors.Is(err, catalog.ErrInvalidEntry)
}

func isNotFound(err error) bool {
	return errors.Is(err, cart.ErrLineNotFound) ||
		errors.Is(err, cart.ErrCartNotFound) ||
		errors.Is(err, kitchen.ErrOrderNotFound) ||
		errors.Is(err, kitchen.ErrLineNotFound) ||
		errors.Is(err, orderstore.ErrNotFound)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// kitchenParam returns the decoded {kitchen} segment. chi routes on RawPath
// when one is set, leaving the param escaped.
func kitchenParam(r *http.Request) string {
	k := chi.URLParam(r, "kitchen")
	if r.URL.RawPath == "" {
		return k
	}
	if decoded, err := url.PathUnescape(k); err == nil {
		return decoded
	}
	return k
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + label})
		return uuid.Nil, false
	}
	return id, true
}
