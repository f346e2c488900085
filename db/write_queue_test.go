package db

import (
	"testing"
	"time"

	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteQueueFlushRules(t *testing.T) {
	wq := NewWriteQueue("user_logs", 2, time.Hour)

	assert.Nil(t, wq.Flush(true), "empty queue never yields a batch")

	assert.False(t, wq.Add(typesdb.WriteOp{Query: "q1"}))
	assert.Nil(t, wq.Flush(false), "not full and not due")

	assert.True(t, wq.Add(typesdb.WriteOp{Query: "q2"}))
	batch := wq.Flush(false)
	require.NotNil(t, batch)
	assert.Equal(t, "user_logs", batch.Table)
	assert.Len(t, batch.Ops, 2)
	assert.Zero(t, wq.Len())
}

func TestWriteQueueIntervalAndForce(t *testing.T) {
	wq := NewWriteQueue("user_logs", 100, time.Millisecond)
	wq.Add(typesdb.WriteOp{Query: "q"})
	time.Sleep(5 * time.Millisecond)
	require.NotNil(t, wq.Flush(false))

	wq = NewWriteQueue("user_logs", 100, time.Hour)
	wq.Add(typesdb.WriteOp{Query: "q"})
	require.NotNil(t, wq.Flush(true))
}

func TestWriteQueueSignalsFullOnce(t *testing.T) {
	wq := NewWriteQueue("user_logs", 2, time.Hour)
	wq.Add(typesdb.WriteOp{Query: "q1"})
	select {
	case <-wq.Full():
		t.Fatal("signalled before the batch was full")
	default:
	}

	wq.Add(typesdb.WriteOp{Query: "q2"})
	wq.Add(typesdb.WriteOp{Query: "q3"})
	select {
	case <-wq.Full():
	default:
		t.Fatal("expected a full signal")
	}
	select {
	case <-wq.Full():
		t.Fatal("signals should coalesce")
	default:
	}
}
