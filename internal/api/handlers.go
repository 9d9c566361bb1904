package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/export"
	"rentalhub/internal/models"
)

func (s *HTTPServer) handleRentals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	type request struct {
		ProductID int64  `json:"product_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Message   string `json:"message"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.ProductID <= 0 {
		writeBadRequest(w, "product_id is required")
		return
	}

	start, err := parseDate(body.StartDate)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rental, err := s.svc.CreateRental(r.Context(), domain.CreateRentalRequest{
		ProductID:   body.ProductID,
		StartDate:   start,
		EndDate:     end,
		ClientEmail: actor,
		Message:     body.Message,
	})
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderRental(rental))
}

func (s *HTTPServer) handleGetRental(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	rental, err := s.svc.GetByID(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRental(rental))
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	rental, err := s.svc.Cancel(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRental(rental))
}

func (s *HTTPServer) handleRespond(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	type request struct {
		Accepted bool   `json:"accepted"`
		Response string `json:"response"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	rental, err := s.svc.Respond(r.Context(), id, actor, body.Accepted, body.Response)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRental(rental))
}

func (s *HTTPServer) handleConfirmReturn(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	rental, err := s.svc.ConfirmReturn(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRental(rental))
}

func (s *HTTPServer) handleListForClient(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, s.svc.ListForClient)
}

func (s *HTTPServer) handleListForOwner(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, s.svc.ListForOwner)
}

func (s *HTTPServer) handleListPendingForOwner(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, s.svc.ListPendingForOwner)
}

func (s *HTTPServer) handleAdminList(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, s.svc.ListAll)
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, email string) ([]*models.Rental, error)) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	rentals, err := list(r.Context(), actor)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rentals": renderRentals(rentals)})
}

func (s *HTTPServer) handleActivateDue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	activated, err := s.svc.ActivateDueRentals(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"activated": activated})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	actor := actorEmail(r)
	if actor == "" {
		writeUnauthorized(w)
		return
	}

	rentals, err := s.svc.ListAll(r.Context(), actor)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	products, err := s.svc.ListAvailableProducts(r.Context(), actor)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	filename := fmt.Sprintf("rentals_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteRentalsWorkbook(rentals, products, w); err != nil {
		s.logger.Error().Err(err).Msg("export write failed")
	}
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("start_date and end_date are required")
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", raw)
	}
	return models.DateOnly(t), nil
}
