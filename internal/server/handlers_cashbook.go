package server

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/importer"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/service"
)

const maxUploadBytes = 32 << 20

type cashEntryRequest struct {
	TransactionDate string          `json:"transaction_date" validate:"required"`
	Category        string          `json:"category" validate:"required,max=200"`
	Particulars     string          `json:"particulars"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	Contact         string          `json:"contact"`
	Supplier        string          `json:"supplier"`
	Buyer           string          `json:"buyer"`
}

func (s *Server) cashCredit(w http.ResponseWriter, r *http.Request) {
	s.recordCash(w, r, s.svc.RecordCredit)
}

func (s *Server) cashDebit(w http.ResponseWriter, r *http.Request) {
	s.recordCash(w, r, s.svc.RecordDebit)
}

func (s *Server) recordCash(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, in service.CashEntry) (*service.CashResult, error)) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req cashEntryRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	on, err := parseDate("transaction_date", req.TransactionDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := record(r.Context(), service.CashEntry{
		UserID:          user,
		Date:            on,
		Category:        req.Category,
		Particulars:     req.Particulars,
		Amount:          req.Amount,
		ReferenceNumber: req.ReferenceNumber,
		Contact:         req.Contact,
		Supplier:        req.Supplier,
		Buyer:           req.Buyer,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// cashImport accepts a multipart upload in field "file".
func (s *Server) cashImport(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, ledger.Validation("file", "invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, ledger.Validation("file", "file is required"))
		return
	}
	defer file.Close()

	format, err := importer.DetectFormat(header.Filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.importer.Import(r.Context(), file, format, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) cashBalances(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Balances(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
