/*
scheduler.go - Scheduled meter-reading repair

PURPOSE:
  Runs the meter-reading compensator for every owner on a cron schedule.
  A bill and its tenant reading are written in one transaction by the
  SQLite store; the job catches drift left by anything that bypassed it.

CONFIGURATION:
  METER_REPAIR_CRON holds a standard five-field cron spec evaluated in UTC,
  e.g. "15 3 * * *". Empty disables the scheduler.

USAGE:
  scheduler, err := NewMeterRepairScheduler(service, spec, logger)
  scheduler.Start()
  // ... later
  <-scheduler.Stop().Done()
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dwella/rent-engine/rentals"
)

// meterRepairJobTimeout bounds one scheduled run.
const meterRepairJobTimeout = 5 * time.Minute

// MeterRepairer is the part of rentals.Service the scheduler runs.
type MeterRepairer interface {
	RepairAllMeterReadings(ctx context.Context) (int, error)
}

var _ MeterRepairer = (*rentals.Service)(nil)

type MeterRepairScheduler struct {
	cron   *cron.Cron
	repair MeterRepairer
	logger logrus.FieldLogger
}

// NewMeterRepairScheduler validates spec and registers the job.
func NewMeterRepairScheduler(repair MeterRepairer, spec string, logger logrus.FieldLogger) (*MeterRepairScheduler, error) {
	s := &MeterRepairScheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		repair: repair,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("invalid meter repair schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *MeterRepairScheduler) Start() {
	s.cron.Start()
	s.logger.Info("meter repair scheduler started")
}

// Stop prevents further runs. The returned context is done once a running
// job has finished.
func (s *MeterRepairScheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info("meter repair scheduler stopped")
	return ctx
}

// Run performs one repair pass over every owner.
func (s *MeterRepairScheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), meterRepairJobTimeout)
	defer cancel()

	s.logger.Info("starting meter repair job")
	n, err := s.repair.RepairAllMeterReadings(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("repaired", n).Error("meter repair job failed")
		return
	}
	s.logger.WithField("repaired", n).Info("meter repair job finished")
}
