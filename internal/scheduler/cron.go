package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cron is a Registrar backed by robfig/cron. All specs are read in one
// time zone.
type Cron struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu       sync.Mutex
	entryIDs map[string]cron.EntryID // job name -> cron entry
}

func NewCron(loc *time.Location, logger zerolog.Logger) *Cron {
	cl := cronLogger{logger}
	return &Cron{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		log:      logger,
		entryIDs: make(map[string]cron.EntryID),
	}
}

// Register schedules job under name, removing any job already registered
// under that name first.
func (c *Cron) Register(name, spec string, job func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.entryIDs[name]; ok {
		c.cron.Remove(id)
		delete(c.entryIDs, name)
	}
	id, err := c.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, spec, err)
	}
	c.entryIDs[name] = id
	return nil
}

// Next returns when the job registered under name fires next after t.
func (c *Cron) Next(name string, t time.Time) (time.Time, bool) {
	c.mu.Lock()
	id, ok := c.entryIDs[name]
	c.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := c.cron.Entry(id)
	if e.Schedule == nil {
		return time.Time{}, false
	}
	return e.Schedule.Next(t), true
}

// Len is the number of registered jobs.
func (c *Cron) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entryIDs)
}

func (c *Cron) Start() {
	c.cron.Start()
	c.log.Info().Int("jobs", c.Len()).Msg("scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (c *Cron) Stop() {
	<-c.cron.Stop().Done()
	c.log.Info().Msg("scheduler stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
