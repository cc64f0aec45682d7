package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
)

type createAccountRequest struct {
	Code              string             `json:"code" validate:"omitempty,numeric,len=4"`
	Name              string             `json:"name" validate:"required,max=200"`
	Type              ledger.AccountType `json:"type" validate:"required,oneof=Asset Liability Equity Revenue Expense"`
	ParentID          string             `json:"parent_id"`
	Description       string             `json:"description"`
	Active            *bool              `json:"active"`
	AllowTransactions *bool              `json:"allow_transactions"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createAccountRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	acct := &ledger.Account{
		Code:              req.Code,
		Name:              req.Name,
		Type:              req.Type,
		ParentID:          req.ParentID,
		Description:       req.Description,
		Active:            true,
		AllowTransactions: true,
	}
	if req.Active != nil {
		acct.Active = *req.Active
	}
	if req.AllowTransactions != nil {
		acct.AllowTransactions = *req.AllowTransactions
	}

	if err := s.svc.CreateAccount(r.Context(), acct); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AccountFilter{
		Type:     ledger.AccountType(q.Get("type")),
		Active:   queryBool(r, "active"),
		ParentID: q.Get("parent_id"),
		Prefix:   q.Get("prefix"),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		s.writeError(w, r, err)
		return
	}

	accounts, err := s.svc.ListAccounts(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := url.PathUnescape(chi.URLParam(r, "id"))
	acct, err := s.svc.GetAccount(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type updateAccountRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description       *string `json:"description"`
	Active            *bool   `json:"active"`
	AllowTransactions *bool   `json:"allow_transactions"`
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, _ := url.PathUnescape(chi.URLParam(r, "id"))
	var req updateAccountRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	acct, err := s.svc.UpdateAccount(r.Context(), id, store.AccountUpdate{
		Name:              req.Name,
		Description:       req.Description,
		Active:            req.Active,
		AllowTransactions: req.AllowTransactions,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, _ := url.PathUnescape(chi.URLParam(r, "id"))
	if err := s.svc.DeleteAccount(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolveAccountRequest struct {
	Label string `json:"label" validate:"required"`
}

// resolveAccount maps a free-text label onto an account id, creating the
// account on first use.
func (s *Server) resolveAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req resolveAccountRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.svc.ResolveOrCreate(r.Context(), req.Label)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	acct, err := s.svc.GetAccount(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) seedAccounts(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.SeedChart(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": n})
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.StarterChart)
}

func (s *Server) accountStatement(w http.ResponseWriter, r *http.Request) {
	id, _ := url.PathUnescape(chi.URLParam(r, "id"))
	from, err := queryDate(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lines, err := s.svc.Statement(r.Context(), id, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if lines == nil {
		lines = []ledger.StatementLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}
