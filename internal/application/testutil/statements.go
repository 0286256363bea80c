package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Read is one query issued inside a transaction.
type Read struct {
	Table   string
	Locking bool
}

// ReadLog records transactional reads in the order they reach the database.
type ReadLog struct {
	mu    sync.Mutex
	reads []Read
}

// TraceTransactionReads registers query callbacks on gdb that log every read
// made inside a transaction. Reads outside a transaction are ignored.
func TraceTransactionReads(t *testing.T, gdb *gorm.DB) *ReadLog {
	t.Helper()
	l := &ReadLog{}
	record := func(tx *gorm.DB) {
		if _, inTx := tx.Statement.ConnPool.(gorm.TxCommitter); !inTx {
			return
		}
		_, locking := tx.Statement.Clauses["FOR"]
		l.mu.Lock()
		l.reads = append(l.reads, Read{Table: tx.Statement.Table, Locking: locking})
		l.mu.Unlock()
	}
	require.NoError(t, gdb.Callback().Query().After("gorm:query").Register("testutil:trace_query", record))
	require.NoError(t, gdb.Callback().Row().After("gorm:row").Register("testutil:trace_row", record))
	return l
}

// Reads returns the recorded reads.
func (l *ReadLog) Reads() []Read {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Read(nil), l.reads...)
}

// Reset forgets recorded reads.
func (l *ReadLog) Reset() {
	l.mu.Lock()
	l.reads = nil
	l.mu.Unlock()
}

// LocksFirst reports whether every locking read precedes every plain read.
func (l *ReadLog) LocksFirst() bool {
	plainSeen := false
	for _, r := range l.Reads() {
		if !r.Locking {
			plainSeen = true
			continue
		}
		if plainSeen {
			return false
		}
	}
	return true
}
