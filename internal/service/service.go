// Package service holds the ledger workflows: label resolution, posting,
// the cash book, trial balance generation and comparison.
package service

import (
	"strings"
	"time"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/logging"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	moduleName         = "service"
	defaultRetries     = 5
	defaultCompanyName = "Default Company"
)

type Service struct {
	store      *store.Store
	log        logrus.FieldLogger
	classifier ledger.Classifier
	locker     Locker
	cache      Cache
	now        func() time.Time
	company    string
	retries    int
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

func WithClassifier(c ledger.Classifier) Option { return func(s *Service) { s.classifier = c } }

func WithLocker(l Locker) Option { return func(s *Service) { s.locker = l } }

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithClock replaces the clock used for timestamps and the future-date check.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithCompany sets the company trial balances default to.
func WithCompany(name string) Option {
	return func(s *Service) {
		if strings.TrimSpace(name) != "" {
			s.company = strings.TrimSpace(name)
		}
	}
}

// WithNumberingRetries bounds how often a raced allocation is retried.
func WithNumberingRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		log:        logging.Discard(),
		classifier: ledger.DefaultClassifier,
		locker:     NopLocker{},
		cache:      NopCache{},
		now:        func() time.Time { return time.Now().UTC() },
		company:    defaultCompanyName,
		retries:    defaultRetries,
		tracer:     otel.Tracer("erpledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Company is the default company name.
func (s *Service) Company() string { return s.company }

func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ledger.Validation("user_id", "acting user is required")
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
