package main

import (
	"sync"
	"testing"
	"time"
)

func TestJobQueueRunsJobsSequentiallyInOrder(t *testing.T) {
	queue := NewJobQueue()

	var (
		mu      sync.Mutex
		order   []string
		running int
		maxSeen int
	)
	done := make(chan struct{})

	makeJob := func(kind string, last bool) Job {
		return Job{
			Kind: kind,
			Run: func() error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				order = append(order, kind)
				running--
				mu.Unlock()

				if last {
					close(done)
				}
				return nil
			},
		}
	}

	queue.Enqueue(makeJob("daily-report", false))
	queue.Enqueue(makeJob("change-poll", false))
	queue.Enqueue(makeJob("command /ct", true))

	queue.Start()
	defer queue.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not drain in time")
	}

	mu.Lock()
	defer mu.Unlock()

	if maxSeen != 1 {
		t.Errorf("jobs overlapped: max concurrent = %d", maxSeen)
	}
	want := []string{"daily-report", "change-poll", "command /ct"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("execution order = %v, want %v", order, want)
			break
		}
	}
}

func TestJobQueueContinuesAfterFailedJob(t *testing.T) {
	queue := NewJobQueue()

	done := make(chan struct{})
	queue.Enqueue(Job{Kind: "failing", Run: func() error {
		return ErrDelivery
	}})
	queue.Enqueue(Job{Kind: "following", Run: func() error {
		close(done)
		return nil
	}})

	queue.Start()
	defer queue.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue stopped after a failed job")
	}
}

func TestParseClockTime(t *testing.T) {
	hour, minute, err := parseClockTime("08:30")
	if err != nil {
		t.Fatalf("parseClockTime failed: %v", err)
	}
	if hour != 8 || minute != 30 {
		t.Errorf("parseClockTime = %d:%d, want 8:30", hour, minute)
	}

	if _, _, err := parseClockTime("not-a-time"); err == nil {
		t.Error("expected error for invalid time")
	}
}
