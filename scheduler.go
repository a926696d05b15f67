package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of work for the bot: a scheduled report, a change poll or
// an interactive command. Jobs execute strictly one at a time.
type Job struct {
	Kind string
	Run  func() error
}

// JobQueue serializes job execution. Scheduled triggers and interactive
// commands both enqueue here; a single worker drains the queue in order, so
// two jobs never write the state file concurrently. A slow job delays the
// next one but never cancels it.
type JobQueue struct {
	jobs   chan Job
	done   chan struct{}
	logger *Logger
}

// NewJobQueue creates the queue. The buffer absorbs overlapping fire times;
// enqueueing blocks if it fills up, which only back-pressures the cron
// goroutines.
func NewJobQueue() *JobQueue {
	return &JobQueue{
		jobs:   make(chan Job, 64),
		done:   make(chan struct{}),
		logger: GetGlobalLogger(),
	}
}

// Enqueue appends a job to the queue.
func (q *JobQueue) Enqueue(job Job) {
	q.jobs <- job
}

// Start launches the single worker goroutine.
func (q *JobQueue) Start() {
	go func() {
		for {
			select {
			case <-q.done:
				return
			case job := <-q.jobs:
				start := time.Now()
				q.logger.Debugf("Running job %s", job.Kind)
				if err := job.Run(); err != nil {
					q.logger.Errorf("Job %s failed: %v", job.Kind, err)
				} else {
					q.logger.Debugf("Job %s finished in %v", job.Kind, time.Since(start))
				}
			}
		}
	}()
}

// Stop terminates the worker after the current job finishes.
func (q *JobQueue) Stop() {
	close(q.done)
}

// SetupSchedule registers the three recurring jobs on the cron scheduler:
// the daily report Monday through Saturday, the weekly report on Monday and
// the change poll on the configured interval. Every trigger only enqueues;
// execution order is the queue's.
func (b *Bot) SetupSchedule(scheduler *cron.Cron) error {
	dailyHour, dailyMinute, err := parseClockTime(b.cfg.Settings.DailyReportTime)
	if err != nil {
		return err
	}
	weeklyHour, weeklyMinute, err := parseClockTime(b.cfg.Settings.WeeklyReportTime)
	if err != nil {
		return err
	}

	dailySpec := fmt.Sprintf("%d %d * * 1-6", dailyMinute, dailyHour)
	if _, err := scheduler.AddFunc(dailySpec, func() {
		b.queue.Enqueue(Job{Kind: "daily-report", Run: b.RunDailyReport})
	}); err != nil {
		return fmt.Errorf("failed to schedule daily report: %w", err)
	}

	weeklySpec := fmt.Sprintf("%d %d * * 1", weeklyMinute, weeklyHour)
	if _, err := scheduler.AddFunc(weeklySpec, func() {
		b.queue.Enqueue(Job{Kind: "weekly-report", Run: b.RunWeeklyReport})
	}); err != nil {
		return fmt.Errorf("failed to schedule weekly report: %w", err)
	}

	pollSpec := fmt.Sprintf("@every %ds", b.cfg.Settings.CheckDelay)
	if _, err := scheduler.AddFunc(pollSpec, func() {
		b.queue.Enqueue(Job{Kind: "change-poll", Run: b.RunChangePoll})
	}); err != nil {
		return fmt.Errorf("failed to schedule change poll: %w", err)
	}

	b.logger.Infof("Scheduled jobs: daily report at %s (Mon-Sat), weekly report at %s (Mon), change poll every %ds",
		b.cfg.Settings.DailyReportTime, b.cfg.Settings.WeeklyReportTime, b.cfg.Settings.CheckDelay)
	return nil
}
