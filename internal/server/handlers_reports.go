package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/service"
	"github.com/simonvc/erpledger/internal/store"
)

type generateTrialBalanceRequest struct {
	Year        int    `json:"year" validate:"required,min=1900,max=9999"`
	Month       int    `json:"month" validate:"required,min=1,max=12"`
	CompanyName string `json:"company_name" validate:"max=200"`
}

type trialBalanceResponse struct {
	TrialBalance *ledger.Snapshot `json:"trial_balance"`
	Warnings     []ledger.Warning `json:"warnings"`
}

func (s *Server) generateTrialBalance(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req generateTrialBalanceRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, warnings, err := s.svc.GenerateTrialBalance(r.Context(), service.GenerateRequest{
		Year:        req.Year,
		Month:       req.Month,
		CompanyName: req.CompanyName,
		UserID:      user,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []ledger.Warning{}
	}
	writeJSON(w, http.StatusCreated, trialBalanceResponse{TrialBalance: snap, Warnings: warnings})
}

func (s *Server) listTrialBalances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SnapshotFilter{
		CompanyName: q.Get("company"),
		Status:      ledger.SnapshotStatus(q.Get("status")),
	}
	var err error
	if filter.Year, err = queryInt(r, "year"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Month, err = queryInt(r, "month"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.From, err = queryDate(r, "from"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		s.writeError(w, r, ledger.Validation("to", "end date is before start date"))
		return
	}

	snaps, err := s.svc.ListTrialBalances(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []ledger.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) getTrialBalance(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.GetTrialBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) approveTrialBalance(w http.ResponseWriter, r *http.Request) {
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
	snap, err := s.svc.ApproveTrialBalance(r.Context(), chi.URLParam(r, "id"), user, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) deleteTrialBalance(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteTrialBalance(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) compareTrialBalances(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		s.writeError(w, r, ledger.Validation("a", "query parameters a and b are required"))
		return
	}
	cmp, err := s.svc.CompareTrialBalances(r.Context(), a, b, r.Header.Get(userHeader))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) trialBalanceAudit(w http.ResponseWriter, r *http.Request) {
	filter := store.AuditFilter{
		TrialBalanceID: r.URL.Query().Get("trial_balance_id"),
		Action:         ledger.AuditAction(r.URL.Query().Get("action")),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.svc.AuditLog(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
