package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdCommon "github.com/warpdl/warpcap/cmd/common"
	"github.com/warpdl/warpcap/common"
	"github.com/warpdl/warpcap/internal/trigger"
	"github.com/warpdl/warpcap/pkg/capture"
	"github.com/warpdl/warpcap/pkg/device"
	"github.com/warpdl/warpcap/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var (
	numRequests  int
	captureDelay time.Duration
	failureRate  float64
	payloadSize  int
	sourceDir    string
	cronExpr     string
	cronPriority string
	runDuration  time.Duration
	drainOnStop  bool
	debugMode    bool
	logFile      string

	runFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "requests, n",
			Usage:       "number of captures to submit when no cron expression is set",
			Value:       DEF_REQUESTS,
			EnvVar:      common.RequestsEnv,
			Destination: &numRequests,
		},
		cli.DurationFlag{
			Name:        "delay",
			Usage:       "time the simulated camera takes per capture",
			Value:       DEF_DELAY,
			EnvVar:      common.DelayEnv,
			Destination: &captureDelay,
		},
		cli.Float64Flag{
			Name:        "failure-rate",
			Usage:       "probability in [0, 1] that a simulated capture fails",
			Value:       DEF_FAILURE_RATE,
			EnvVar:      common.FailureRateEnv,
			Destination: &failureRate,
		},
		cli.IntFlag{
			Name:        "payload-size",
			Usage:       "size in bytes of each simulated frame",
			Value:       DEF_PAYLOAD_SIZE,
			EnvVar:      common.PayloadSizeEnv,
			Destination: &payloadSize,
		},
		cli.StringFlag{
			Name:        "source-dir, s",
			Usage:       "replay frames from the files in this directory instead of simulating",
			EnvVar:      common.SourceDirEnv,
			Destination: &sourceDir,
		},
		cli.StringFlag{
			Name:        "cron",
			Usage:       "5-field cron expression; submit one capture per tick",
			EnvVar:      common.CronEnv,
			Destination: &cronExpr,
		},
		cli.StringFlag{
			Name:        "priority, p",
			Usage:       "priority of cron captures (low, normal, high, urgent or a number)",
			Value:       DEF_PRIORITY,
			EnvVar:      common.PriorityEnv,
			Destination: &cronPriority,
		},
		cli.DurationFlag{
			Name:        "duration",
			Usage:       "stop cron captures after this long (0 = until interrupted)",
			EnvVar:      common.DurationEnv,
			Destination: &runDuration,
		},
		cli.BoolFlag{
			Name:        "drain",
			Usage:       "finish queued captures before stopping",
			EnvVar:      common.DrainEnv,
			Destination: &drainOnStop,
		},
		cli.BoolFlag{
			Name:        "debug",
			Usage:       "log every request",
			EnvVar:      common.DebugEnv,
			Destination: &debugMode,
		},
		cli.StringFlag{
			Name:        "log-file",
			Usage:       "also append logs to this file",
			EnvVar:      common.LogFileEnv,
			Destination: &logFile,
		},
	}
)

// burstPriorities is cycled through when submitting a fixed number of captures.
var burstPriorities = []capture.Priority{
	capture.PriorityNormal,
	capture.PriorityHigh,
	capture.PriorityLow,
	capture.PriorityUrgent,
}

type runConfig struct {
	Requests    int
	Delay       time.Duration
	FailureRate float64
	PayloadSize int
	SourceDir   string
	Cron        string
	Priority    capture.Priority
	Duration    time.Duration
	Drain       bool
	Debug       bool
	LogFile     string
}

func (c runConfig) validate() error {
	if c.Cron != "" {
		if err := trigger.Validate(c.Cron, time.Now()); err != nil {
			return err
		}
		if c.Duration < 0 {
			return errors.New("duration must not be negative")
		}
	} else if c.Requests < 1 {
		return fmt.Errorf("requests must be at least 1, got %d", c.Requests)
	}
	if c.SourceDir != "" {
		return nil
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failure rate must be within [0, 1], got %g", c.FailureRate)
	}
	if c.PayloadSize < 0 {
		return fmt.Errorf("payload size must not be negative, got %d", c.PayloadSize)
	}
	if c.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	return nil
}

type runSummary struct {
	Submitted uint64
	Completed uint64
	Failed    uint64
	Bytes     uint64
	Elapsed   time.Duration
}

func run(ctx *cli.Context) error {
	prio, err := capture.ParsePriority(cronPriority)
	if err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, err)
	}
	cfg := runConfig{
		Requests:    numRequests,
		Delay:       captureDelay,
		FailureRate: failureRate,
		PayloadSize: payloadSize,
		SourceDir:   sourceDir,
		Cron:        cronExpr,
		Priority:    prio,
		Duration:    runDuration,
		Drain:       drainOnStop,
		Debug:       debugMode,
		LogFile:     logFile,
	}
	if err := cfg.validate(); err != nil {
		return cmdCommon.PrintErrWithCmdHelp(ctx, err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := execRun(sigCtx, cfg, afero.NewOsFs(), os.Stdout)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "run", "capture", err)
		return nil
	}
	printSummary(os.Stdout, sum)
	return nil
}

// execRun drives one scheduler session and returns once every submitted
// capture has reported, or ctx is done.
func execRun(ctx context.Context, cfg runConfig, fs afero.Fs, out io.Writer) (runSummary, error) {
	start := time.Now()
	p := mpb.New(mpb.WithOutput(out), mpb.WithWidth(64), mpb.WithAutoRefresh())

	l, err := newRunLogger(cfg, fs, p)
	if err != nil {
		p.Wait()
		return runSummary{}, err
	}
	defer l.Close()

	op, err := newDevice(cfg, fs, l)
	if err != nil {
		p.Wait()
		return runSummary{}, err
	}

	var total int64
	if cfg.Cron == "" {
		total = int64(cfg.Requests)
	}
	t := newTally(cmdCommon.InitCaptureBar(p, "", total), l, total)

	sched := capture.New(op,
		capture.WithLogger(l),
		capture.WithDrainOnStop(cfg.Drain),
	)
	if err := sched.Start(); err != nil {
		t.bar.Abort(false)
		p.Wait()
		return runSummary{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Cron == "" {
		g.Go(func() error {
			for i := 0; i < cfg.Requests; i++ {
				sched.SubmitRequest(burstPriorities[i%len(burstPriorities)], t)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-t.done:
			case <-gctx.Done():
			}
			return nil
		})
	} else {
		var (
			tctx   context.Context
			cancel context.CancelFunc
		)
		if cfg.Duration > 0 {
			tctx, cancel = context.WithTimeout(gctx, cfg.Duration)
		} else {
			tctx, cancel = context.WithCancel(gctx)
		}
		defer cancel()
		submit := trigger.Submitter(sched, t)
		r := trigger.New(tctx, l, func(e trigger.Event) {
			t.grow()
			submit(e)
		})
		g.Go(func() error {
			if err := r.AddCron(DEF_DEVICE_NAME, cfg.Cron, cfg.Priority, time.Now()); err != nil {
				return err
			}
			r.Wait()
			return nil
		})
	}
	runErr := g.Wait()

	if err := sched.Stop(); err != nil && !errors.Is(err, capture.ErrNotRunning) {
		l.Warning("stop: %v", err)
	}
	_ = sched.Close()
	st := sched.Status()
	l.Debug("final status: %+v", st)
	t.complete()
	p.Wait()

	return runSummary{
		Submitted: st.Submitted,
		Completed: st.Completed,
		Failed:    st.Failed,
		Bytes:     t.bytes.Load(),
		Elapsed:   time.Since(start),
	}, runErr
}

func newRunLogger(cfg runConfig, fs afero.Fs, w io.Writer) (logger.Logger, error) {
	console := logger.NewStandardLogger(log.New(w, "", log.LstdFlags))
	console.SetDebug(cfg.Debug)
	if cfg.LogFile == "" {
		return console, nil
	}
	f, err := fs.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	file := logger.NewFileLogger(f)
	file.SetDebug(cfg.Debug)
	return logger.NewMultiLogger(console, file), nil
}

func newDevice(cfg runConfig, fs afero.Fs, l logger.Logger) (capture.Operation, error) {
	if cfg.SourceDir != "" {
		src, err := device.NewFileSource(fs, cfg.SourceDir)
		if err != nil {
			return nil, err
		}
		l.Info("replaying %d frames from %s", src.Len(), cfg.SourceDir)
		return src, nil
	}
	return device.NewSimulated(DEF_DEVICE_NAME,
		device.WithDelay(cfg.Delay),
		device.WithFailureRate(cfg.FailureRate),
		device.WithPayloadSize(cfg.PayloadSize),
		device.WithSimulatedLogger(l),
	), nil
}

func printSummary(w io.Writer, s runSummary) {
	fmt.Fprintf(w, "\n%s\n", cmdCommon.Beaut("Capture Summary", 40))
	fmt.Fprintf(w, "Submitted: %d\n", s.Submitted)
	fmt.Fprintf(w, "Completed: %d\n", s.Completed)
	fmt.Fprintf(w, "Failed:    %d\n", s.Failed)
	fmt.Fprintf(w, "Captured:  %s\n", humanize.Bytes(s.Bytes))
	fmt.Fprintf(w, "Elapsed:   %s\n", s.Elapsed.Round(time.Millisecond))
}

// tally is the handler for every capture the CLI submits. It counts
// outcomes and advances the progress bar.
type tally struct {
	bar    *mpb.Bar
	log    logger.Logger
	expect int64

	submitted atomic.Int64
	finished  atomic.Int64
	bytes     atomic.Uint64

	once sync.Once
	done chan struct{}
}

func newTally(bar *mpb.Bar, l logger.Logger, expect int64) *tally {
	return &tally{
		bar:    bar,
		log:    l,
		expect: expect,
		done:   make(chan struct{}),
	}
}

func (t *tally) OnSuccess(p *capture.Payload) {
	t.bytes.Add(uint64(p.Size()))
	t.log.Debug("frame %d from %s: %s", p.Seq, p.Device, humanize.Bytes(uint64(p.Size())))
	t.finish()
}

func (t *tally) OnFailure(err error) {
	if errors.Is(err, capture.ErrClosed) {
		t.log.Debug("capture abandoned: %v", err)
	}
	t.finish()
}

// grow raises an open-ended bar's total by one submission.
func (t *tally) grow() {
	t.bar.SetTotal(t.submitted.Add(1), false)
}

func (t *tally) finish() {
	t.bar.Increment()
	if n := t.finished.Add(1); t.expect > 0 && n >= t.expect {
		t.once.Do(func() { close(t.done) })
	}
}

// complete closes out the bar once no more results can arrive.
func (t *tally) complete() {
	if t.expect > 0 {
		if !t.bar.Completed() {
			t.bar.Abort(false)
		}
		return
	}
	t.bar.SetTotal(-1, true)
}
