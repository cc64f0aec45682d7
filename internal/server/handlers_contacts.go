package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
)

type createContactRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	CompanyName string             `json:"company_name"`
	Type        ledger.ContactType `json:"type" validate:"required,oneof=Customer Supplier Vendor Buyer Other"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Phone       string             `json:"phone"`
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createContactRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c := &ledger.Contact{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Type:        req.Type,
		Email:       req.Email,
		Phone:       req.Phone,
		Active:      true,
	}
	if err := s.svc.CreateContact(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	filter := store.ContactFilter{
		Type:   ledger.ContactType(r.URL.Query().Get("type")),
		Active: queryBool(r, "active"),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	contacts, err := s.svc.ListContacts(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []ledger.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type assignContactRequest struct {
	AccountID string                `json:"account_id" validate:"required"`
	Role      ledger.AssignmentRole `json:"role" validate:"required,oneof=Supplier Buyer Both Customer"`
}

func (s *Server) assignContact(w http.ResponseWriter, r *http.Request) {
	if _, err := actingUser(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req assignContactRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, created, err := s.svc.EnsureAssignment(r.Context(), chi.URLParam(r, "id"), req.AccountID, req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, a)
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListAssignments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []ledger.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}
