package server

import (
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/simonvc/erpledger/internal/importer"
	"github.com/simonvc/erpledger/internal/service"
	"github.com/sirupsen/logrus"
)

type Server struct {
	svc      *service.Service
	importer *importer.Importer
	log      logrus.FieldLogger
	validate *validator.Validate
	router   chi.Router
	addr     string
}

func New(svc *service.Service, addr string, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	s := &Server{
		svc:      svc,
		importer: importer.New(svc, log),
		log:      log,
		validate: newValidator(),
		router:   r,
		addr:     addr,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Chart of accounts
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts", s.listAccounts)
		r.Post("/accounts/resolve", s.resolveAccount)
		r.Post("/accounts/seed", s.seedAccounts)
		r.Get("/accounts/{id}", s.getAccount)
		r.Patch("/accounts/{id}", s.updateAccount)
		r.Delete("/accounts/{id}", s.deleteAccount)
		r.Get("/accounts/{id}/transactions", s.accountStatement)
		r.Get("/chart", s.getChart)

		// Contacts
		r.Post("/contacts", s.createContact)
		r.Get("/contacts", s.listContacts)
		r.Get("/contacts/{id}", s.getContact)
		r.Post("/contacts/{id}/assignments", s.assignContact)
		r.Get("/contacts/{id}/assignments", s.listAssignments)

		// Journal
		r.Post("/journal-entries", s.createJournalEntry)
		r.Get("/journal-entries", s.listJournalEntries)
		r.Get("/journal-entries/{id}", s.getJournalEntry)
		r.Delete("/journal-entries/{id}", s.deleteJournalEntry)
		r.Post("/journal-entries/{id}/post", s.postJournalEntry)
		r.Post("/journal-entries/{id}/approve", s.approveJournalEntry)
		r.Post("/journal-entries/{id}/reverse", s.reverseJournalEntry)

		// Cash book
		r.Post("/cashbook/credit", s.cashCredit)
		r.Post("/cashbook/debit", s.cashDebit)
		r.Post("/cashbook/import", s.cashImport)
		r.Get("/cashbook/balances", s.cashBalances)

		// Trial balances
		r.Post("/trial-balances", s.generateTrialBalance)
		r.Get("/trial-balances", s.listTrialBalances)
		r.Get("/trial-balances/compare", s.compareTrialBalances)
		r.Get("/trial-balances/audit", s.trialBalanceAudit)
		r.Get("/trial-balances/{id}", s.getTrialBalance)
		r.Post("/trial-balances/{id}/approve", s.approveTrialBalance)
		r.Delete("/trial-balances/{id}", s.deleteTrialBalance)
	})

	return s
}

func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.addr).Info("erpledger server listening")
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.WithField("addr", ln.Addr().String()).Info("erpledger server listening")
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// newValidator reports struct fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			entry := log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Error("request failed")
				return
			}
			entry.Debug("request")
		})
	}
}
