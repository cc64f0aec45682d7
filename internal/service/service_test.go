package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithCompany("Acme Garments")}, opts...)
	return New(st, opts...)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func debit(label, amount string) ledger.LineInput {
	return ledger.LineInput{AccountLabel: label, Amount: dec(amount), Direction: ledger.Debit}
}

func credit(label, amount string) ledger.LineInput {
	return ledger.LineInput{AccountLabel: label, Amount: dec(amount), Direction: ledger.Credit}
}

func post(t *testing.T, s *Service, on time.Time, lines ...ledger.LineInput) *ledger.JournalEntry {
	t.Helper()
	e, err := s.Post(context.Background(), PostRequest{UserID: "alice", Date: on, Description: "entry", Lines: lines})
	require.NoError(t, err)
	return e
}

// memCache is an in-process Cache for exercising the read-through paths.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) has(prefix string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}
