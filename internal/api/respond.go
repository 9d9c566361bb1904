package api

import (
	"encoding/json"
	"net/http"

	"rentalhub/internal/domain"
	"rentalhub/internal/models"

	"github.com/rs/zerolog"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// rentalView is the wire shape of a rental. Dates render as calendar
// days and money as exact decimal strings.
type rentalView struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	ProductName       string `json:"product_name"`
	ClientID          int64  `json:"client_id"`
	OwnerID           int64  `json:"owner_id"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	NumberOfDays      int64  `json:"number_of_days"`
	PricePerDay       string `json:"price_per_day"`
	TotalPrice        string `json:"total_price"`
	Status            string `json:"status"`
	ClientMessage     string `json:"client_message,omitempty"`
	OwnerResponse     string `json:"owner_response,omitempty"`
	EquipmentReturned bool   `json:"equipment_returned"`
	CreatedAt         string `json:"created_at"`
}

func renderRental(r *models.Rental) rentalView {
	return rentalView{
		ID:                r.ID,
		ProductID:         r.ProductID,
		ProductName:       r.ProductName,
		ClientID:          r.ClientID,
		OwnerID:           r.OwnerID,
		StartDate:         r.StartDate.Format(models.DateLayout),
		EndDate:           r.EndDate.Format(models.DateLayout),
		NumberOfDays:      r.NumberOfDays,
		PricePerDay:       r.PricePerDay.String(),
		TotalPrice:        r.TotalPrice.String(),
		Status:            r.Status,
		ClientMessage:     r.ClientMessage,
		OwnerResponse:     r.OwnerResponse,
		EquipmentReturned: r.EquipmentReturned,
		CreatedAt:         r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func renderRentals(rentals []*models.Rental) []rentalView {
	views := make([]rentalView, 0, len(rentals))
	for _, r := range rentals {
		views = append(views, renderRental(r))
	}
	return views
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorKind(w http.ResponseWriter, statusCode int, kind, message string) {
	writeJSON(w, statusCode, map[string]errorBody{"error": {Kind: kind, Message: message}})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeErrorKind(w, http.StatusBadRequest, "bad_request", message)
}

func writeNotFound(w http.ResponseWriter) {
	writeErrorKind(w, http.StatusNotFound, string(domain.KindNotFound), "not found")
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeErrorKind(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func writeUnauthorized(w http.ResponseWriter) {
	writeErrorKind(w, http.StatusUnauthorized, "unauthorized", "X-Actor-Email header is required")
}

// writeServiceError maps a business outcome to an HTTP status. Unknown
// errors are infrastructure faults and render as a generic 500.
func writeServiceError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindNotFound:
		writeErrorKind(w, http.StatusNotFound, string(kind), err.Error())
	case domain.KindForbidden:
		writeErrorKind(w, http.StatusForbidden, string(kind), err.Error())
	case domain.KindInvalidDateRange, domain.KindPastStartDate:
		writeErrorKind(w, http.StatusBadRequest, string(kind), err.Error())
	case domain.KindItemUnavailable, domain.KindDateConflict, domain.KindInvalidStateTransition:
		writeErrorKind(w, http.StatusConflict, string(kind), err.Error())
	case domain.KindSelfBookingForbidden:
		writeErrorKind(w, http.StatusUnprocessableEntity, string(kind), err.Error())
	default:
		logger.Error().Err(err).Msg("internal error")
		writeErrorKind(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
