// Package jobs runs the periodic maintenance tasks of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"SECUREATTEND/logging"
	"SECUREATTEND/service"

	"github.com/go-co-op/gocron"
)

// Scheduler wraps gocron with the snapshot backup and daily summary jobs.
type Scheduler struct {
	s   *gocron.Scheduler
	svc *service.Service
	log logging.Logger
}

// New registers the jobs; an empty cron expression disables that job.
func New(svc *service.Service, log logging.Logger, loc *time.Location, backupCron, summaryCron string) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	sch := &Scheduler{
		s:   gocron.NewScheduler(loc),
		svc: svc,
		log: log,
	}
	sch.s.SingletonModeAll()

	if backupCron != "" {
		if _, err := sch.s.Cron(backupCron).Tag("backup").Do(sch.Backup); err != nil {
			return nil, fmt.Errorf("schedule backup %q: %w", backupCron, err)
		}
	}
	if summaryCron != "" {
		if _, err := sch.s.Cron(summaryCron).Tag("summary").Do(sch.Summary); err != nil {
			return nil, fmt.Errorf("schedule summary %q: %w", summaryCron, err)
		}
	}
	return sch, nil
}

func (sch *Scheduler) Start() {
	sch.s.StartAsync()
}

func (sch *Scheduler) Stop() {
	sch.s.Stop()
}

// Jobs is the number of registered jobs.
func (sch *Scheduler) Jobs() int {
	return len(sch.s.Jobs())
}

// Backup copies both snapshots to dated keys.
func (sch *Scheduler) Backup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := sch.svc.BackupSnapshots(ctx); err != nil {
		sch.log.Error(ctx, "snapshot backup failed", "error", err)
	}
}

// Summary logs today's attendance.
func (sch *Scheduler) Summary() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sum, err := sch.svc.DailySummary(ctx, sch.svc.Today())
	if err != nil {
		sch.log.Error(ctx, "daily summary failed", "error", err)
		return
	}
	sch.log.Info(ctx, "daily attendance summary",
		"date", sum.Date, "present", len(sum.Present), "enrolled", sum.Enrolled, "check_ins", sum.CheckIns)
}
