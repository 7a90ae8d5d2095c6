package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Scheduler runs jobs on 6-field cron specs. A job still running when its
// next tick arrives is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger Logger
}

func New(logger Logger) *Scheduler {
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// AddJob registers job on spec. Every run of job receives ctx.
func (s *Scheduler) AddJob(ctx context.Context, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			s.logger.Errorf("Scheduled job failed: %v", err)
		}
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

type cronLogger struct {
	Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.Infof("Previous backup still running, skipping this run")
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Errorf("cron %s: %v %s", msg, err, fmt.Sprint(keysAndValues...))
}
