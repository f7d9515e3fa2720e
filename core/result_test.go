package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestResultChannel_WriteThenRead verifies a written value is returned
// Given: A channel written with 42
// When: Read is called twice
// Then: Both reads return 42 and no error
func TestResultChannel_WriteThenRead(t *testing.T) {
	ch := NewResultChannel[int]()

	if err := ch.Write(42, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	for i := range 2 {
		v, err := ch.Read()
		if err != nil || v != 42 {
			t.Errorf("read %d: Read() = (%d, %v), want (42, nil)", i, v, err)
		}
	}
}

func TestResultChannel_WriteFailure(t *testing.T) {
	boom := errors.New("boom")
	ch := NewResultChannel[string]()

	ch.Write("ignored", boom)
	v, err := ch.Read()

	if !errors.Is(err, boom) {
		t.Errorf("Read() error = %v, want boom", err)
	}
	if v != "" {
		t.Errorf("Read() value = %q, want zero value", v)
	}
}

// TestResultChannel_SecondWrite verifies the write-once invariant
// Given: A channel already written with 1
// When: Write is called again with 2
// Then: ErrAlreadyWritten is returned and readers still see 1
func TestResultChannel_SecondWrite(t *testing.T) {
	ch := NewResultChannel[int]()
	ch.Write(1, nil)

	err := ch.Write(2, nil)

	if !errors.Is(err, ErrAlreadyWritten) {
		t.Errorf("second Write() error = %v, want ErrAlreadyWritten", err)
	}
	if v, _ := ch.Read(); v != 1 {
		t.Errorf("Read() = %d, want 1", v)
	}
}

// TestResultChannel_ReadBlocksUntilWrite verifies every reader is woken
// Given: 5 readers blocked on a pending channel
// When: The value is written
// Then: All readers return the same value
func TestResultChannel_ReadBlocksUntilWrite(t *testing.T) {
	// Arrange
	ch := NewResultChannel[int]()
	results := make(chan int, 5)
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := ch.Read()
			results <- v
		}()
	}

	time.Sleep(20 * time.Millisecond)
	if ch.Ready() {
		t.Fatal("Ready() = true before Write()")
	}

	// Act
	ch.Write(7, nil)
	wg.Wait()
	close(results)

	// Assert
	for v := range results {
		if v != 7 {
			t.Errorf("reader got %d, want 7", v)
		}
	}
}

// TestResultChannel_ReadWithTimeout verifies bounded waiting does not consume the result
// Given: A pending channel
// When: ReadWithTimeout(5ms) expires and the value is written afterwards
// Then: The first read reports ErrTimedOut and a later Read returns the value
func TestResultChannel_ReadWithTimeout(t *testing.T) {
	ch := NewResultChannel[int]()

	_, err := ch.ReadWithTimeout(5 * time.Millisecond)
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("ReadWithTimeout() error = %v, want ErrTimedOut", err)
	}

	ch.Write(3, nil)

	v, err := ch.ReadWithTimeout(time.Second)
	if err != nil || v != 3 {
		t.Errorf("ReadWithTimeout() after Write = (%d, %v), want (3, nil)", v, err)
	}
}

func TestResultChannel_ReadContext(t *testing.T) {
	ch := NewResultChannel[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ch.ReadContext(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReadContext() error = %v, want context.Canceled", err)
	}

	ch.Write(9, nil)
	v, err := ch.ReadContext(ctx)
	if err != nil || v != 9 {
		t.Errorf("ReadContext() on ready channel = (%d, %v), want (9, nil)", v, err)
	}
}

func TestResultChannel_TryRead(t *testing.T) {
	ch := NewResultChannel[int]()

	if _, ok, _ := ch.TryRead(); ok {
		t.Error("TryRead() ok = true on pending channel")
	}

	ch.Write(5, nil)
	select {
	case <-ch.Done():
	default:
		t.Error("Done() not closed after Write()")
	}
	if v, ok, err := ch.TryRead(); !ok || err != nil || v != 5 {
		t.Errorf("TryRead() = (%d, %v, %v), want (5, true, nil)", v, ok, err)
	}
}
