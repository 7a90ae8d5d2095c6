package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Infof(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(template, args...))
}

func (l *recordingLogger) Errorf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(template, args...))
}

func TestScheduler(t *testing.T) {
	Convey("Given a Scheduler", t, func() {
		logger := &recordingLogger{}

		Convey("New function", func() {
			scheduler := New(logger)

			Convey("It should create a new scheduler successfully", func() {
				So(scheduler, ShouldNotBeNil)
				So(scheduler.cron, ShouldNotBeNil)
			})
		})

		Convey("AddJob function", func() {
			scheduler := New(logger)

			Convey("When adding a job with a valid cron spec", func() {
				tempDir, err := os.MkdirTemp("", "scheduler_test")
				So(err, ShouldBeNil)
				defer os.RemoveAll(tempDir)

				logFile := filepath.Join(tempDir, "job.log")
				job := func(ctx context.Context) error {
					return os.WriteFile(logFile, []byte("executed"), 0644)
				}

				err = scheduler.AddJob(context.Background(), "* * * * * *", job) // Every second

				Convey("It should add and run the job", func() {
					So(err, ShouldBeNil)

					scheduler.Start()
					time.Sleep(2 * time.Second)
					scheduler.Stop()

					content, err := os.ReadFile(logFile)
					So(err, ShouldBeNil)
					So(string(content), ShouldEqual, "executed")
				})
			})

			Convey("When adding a job with an invalid cron spec", func() {
				job := func(ctx context.Context) error { return nil }
				err := scheduler.AddJob(context.Background(), "invalid spec", job)

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "expected exactly 6 fields")
				})
			})

			Convey("When a job returns an error", func() {
				err := scheduler.AddJob(context.Background(), "* * * * * *", func(ctx context.Context) error {
					return errors.New("dump exploded")
				})
				So(err, ShouldBeNil)

				scheduler.Start()
				time.Sleep(1500 * time.Millisecond)
				scheduler.Stop()

				Convey("It should log the error", func() {
					logger.mu.Lock()
					defer logger.mu.Unlock()
					So(len(logger.errors), ShouldBeGreaterThan, 0)
					So(logger.errors[0], ShouldContainSubstring, "dump exploded")
				})
			})
		})

		Convey("Overlapping runs", func() {
			scheduler := New(logger)

			var runs int32
			err := scheduler.AddJob(context.Background(), "* * * * * *", func(ctx context.Context) error {
				atomic.AddInt32(&runs, 1)
				time.Sleep(3 * time.Second)
				return nil
			})
			So(err, ShouldBeNil)

			Convey("It should skip ticks while a run is in progress", func() {
				scheduler.Start()
				time.Sleep(2500 * time.Millisecond)
				scheduler.Stop()

				So(atomic.LoadInt32(&runs), ShouldEqual, 1)
			})
		})

		Convey("AddJob passes its context to every run", func() {
			scheduler := New(logger)

			type key struct{}
			ctx := context.WithValue(context.Background(), key{}, "cycle")
			seen := make(chan interface{}, 5)
			So(scheduler.AddJob(ctx, "* * * * * *", func(ctx context.Context) error {
				seen <- ctx.Value(key{})
				return nil
			}), ShouldBeNil)

			scheduler.Start()
			value := <-seen
			scheduler.Stop()

			So(value, ShouldEqual, "cycle")
		})
	})
}
