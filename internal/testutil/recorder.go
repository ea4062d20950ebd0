package testutil

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// QueryRecorder captures every statement gorm executes on a DB.
type QueryRecorder struct {
	mu         sync.Mutex
	statements []string
}

// RecordQueries hooks a recorder into all of db's callback chains.
func RecordQueries(t *testing.T, db *gorm.DB) *QueryRecorder {
	t.Helper()

	rec := &QueryRecorder{}
	hook := func(tx *gorm.DB) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.statements = append(rec.statements, tx.Statement.SQL.String())
	}

	cb := db.Callback()
	require.NoError(t, cb.Query().After("gorm:query").Register("testutil:record", hook))
	require.NoError(t, cb.Row().After("gorm:row").Register("testutil:record", hook))
	require.NoError(t, cb.Raw().After("gorm:raw").Register("testutil:record", hook))
	require.NoError(t, cb.Create().After("gorm:create").Register("testutil:record", hook))
	require.NoError(t, cb.Update().After("gorm:update").Register("testutil:record", hook))
	require.NoError(t, cb.Delete().After("gorm:delete").Register("testutil:record", hook))

	return rec
}

// Reset forgets everything recorded so far.
func (r *QueryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = nil
}

// Statements returns a copy of the recorded SQL, in execution order.
func (r *QueryRecorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

// Count returns how many recorded statements contain substr.
func (r *QueryRecorder) Count(substr string) int {
	n := 0
	for _, s := range r.Statements() {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}
