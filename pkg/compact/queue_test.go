package compact

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_queueRunsAllTasks(t *testing.T) {
	q := NewQueue(context.Background(), 4)
	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		q.Submit(func() error {
			ran.Add(1)
			return nil
		})
	}
	assert.NoError(t, q.Wait())
	assert.Equal(t, int64(100), ran.Load())
}

func Test_queuePropagatesError(t *testing.T) {
	q := NewQueue(context.Background(), 2)
	for i := 0; i < 10; i++ {
		idx := i
		q.Submit(func() error {
			if idx == 5 {
				return fmt.Errorf("task %d failed", idx)
			}
			return nil
		})
	}
	assert.Error(t, q.Wait())
}

func Test_queueCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := NewQueue(ctx, 2)
	q.Submit(func() error { return nil })
	assert.Error(t, q.Wait())
}
