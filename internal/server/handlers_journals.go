package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/service"
	"github.com/simonvc/erpledger/internal/store"
)

type createJournalRequest struct {
	TransactionDate string             `json:"transaction_date" validate:"required"`
	Type            ledger.JournalType `json:"type"`
	Prefix          string             `json:"prefix" validate:"omitempty,alpha,max=4"`
	ReferenceNumber string             `json:"reference_number"`
	Description     string             `json:"description" validate:"max=500"`
	Status          ledger.EntryStatus `json:"status" validate:"omitempty,oneof=Draft Posted"`
	Lines           []ledger.LineInput `json:"lines" validate:"required"`
}

func (s *Server) createJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createJournalRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	on, err := parseDate("transaction_date", req.TransactionDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Post(r.Context(), service.PostRequest{
		UserID:          user,
		Date:            on,
		Type:            req.Type,
		Prefix:          req.Prefix,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		Status:          req.Status,
		Lines:           req.Lines,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) listJournalEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EntryFilter{
		Status:    ledger.EntryStatus(q.Get("status")),
		Type:      ledger.JournalType(q.Get("type")),
		AccountID: q.Get("account_id"),
	}
	var err error
	if filter.From, err = queryDate(r, "from"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		s.writeError(w, r, err)
		return
	}

	entries, err := s.svc.ListJournalEntries(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getJournalEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.GetJournalEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteDraft(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.PostDraft(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type approveRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

func (s *Server) approveJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req approveRequest
	if r.ContentLength != 0 {
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	e, err := s.svc.Approve(r.Context(), chi.URLParam(r, "id"), user, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type reverseRequest struct {
	Reason string `json:"reason" validate:"required"`
	Date   string `json:"date"`
}

func (s *Server) reverseJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req reverseRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	on, err := parseDate("date", req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.Reverse(r.Context(), chi.URLParam(r, "id"), user, req.Reason, on)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
