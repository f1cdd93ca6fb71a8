package racerbridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type retryable struct {
	open        bool
	hasClosed   bool
	openErr     error
	openCalls   int
	startedChan chan struct{}
	stopChan    chan error
}

func (r *retryable) Open() error {
	r.openCalls++
	if r.openErr != nil {
		err := r.openErr
		r.openErr = nil
		return err
	}
	r.open = true
	return nil
}

func (r *retryable) Close() error {
	r.open = false
	r.hasClosed = true
	return nil
}

func (r *retryable) Start(ctx context.Context) error {
	r.startedChan <- struct{}{}
	select {
	case <-ctx.Done():
		r.open = false
		return ctx.Err()
	case err := <-r.stopChan:
		return err
	}
}

func (r *retryable) Name() string {
	return "retryable-test"
}

func TestRetry(t *testing.T) {
	r := retryable{
		startedChan: make(chan struct{}),
		stopChan:    make(chan error),
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = retry(ctx, &r, 0)
		wg.Done()
	}()
	// wait for start to be called
	<-r.startedChan
	assert.True(t, r.open)

	// trigger start to exit with no error
	r.stopChan <- nil
	<-r.startedChan
	assert.True(t, r.open)

	// emulate an error being returned from start
	r.stopChan <- errors.New("fake error")
	<-r.startedChan
	// check that it was closed and re-opened
	assert.True(t, r.hasClosed)
	assert.True(t, r.open)

	cancel()
	wg.Wait()
}

func TestRetryOpenFailure(t *testing.T) {
	r := retryable{
		openErr:     errors.New("no such device"),
		startedChan: make(chan struct{}),
		stopChan:    make(chan error),
	}

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- retry(ctx, &r, time.Millisecond)
	}()
	<-r.startedChan
	assert.Equal(t, 2, r.openCalls)

	cancel()
	assert.Equal(t, context.Canceled, <-errChan)
}

func TestRetryCancelledDuringDelay(t *testing.T) {
	r := retryable{
		startedChan: make(chan struct{}),
		stopChan:    make(chan error),
	}

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- retry(ctx, &r, time.Hour)
	}()
	<-r.startedChan
	r.stopChan <- errors.New("bus error")
	cancel()

	select {
	case err := <-errChan:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		assert.Fail(t, "retry did not return after cancel")
	}
}
