package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdCommon "github.com/warpdl/warpcap/cmd/common"
	"github.com/warpdl/warpcap/internal/trigger"
	"github.com/warpdl/warpcap/pkg/capture"
	"github.com/warpdl/warpcap/pkg/logger"
)

func newContext(app *cli.App, args []string, name string) *cli.Context {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	_ = set.Parse(args)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

func quickConfig(requests int) runConfig {
	return runConfig{
		Requests:    requests,
		Delay:       time.Millisecond,
		FailureRate: 0,
		PayloadSize: 16,
		Priority:    capture.PriorityNormal,
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*runConfig)
		wantErr bool
	}{
		{"defaults", func(*runConfig) {}, false},
		{"zero requests", func(c *runConfig) { c.Requests = 0 }, true},
		{"failure rate above one", func(c *runConfig) { c.FailureRate = 1.5 }, true},
		{"negative failure rate", func(c *runConfig) { c.FailureRate = -0.1 }, true},
		{"negative payload", func(c *runConfig) { c.PayloadSize = -1 }, true},
		{"negative delay", func(c *runConfig) { c.Delay = -time.Second }, true},
		{"source dir ignores simulation knobs", func(c *runConfig) {
			c.SourceDir = "/frames"
			c.FailureRate = 7
		}, false},
		{"valid cron", func(c *runConfig) { c.Cron = "*/5 * * * *"; c.Requests = 0 }, false},
		{"invalid cron", func(c *runConfig) { c.Cron = "every minute" }, true},
		{"cron with seconds field", func(c *runConfig) { c.Cron = "0 */5 * * * *" }, true},
		{"cron checks failure rate", func(c *runConfig) {
			c.Cron = "* * * * *"
			c.FailureRate = 5
		}, true},
		{"cron checks payload size", func(c *runConfig) {
			c.Cron = "* * * * *"
			c.PayloadSize = -1
		}, true},
		{"cron checks delay", func(c *runConfig) {
			c.Cron = "* * * * *"
			c.Delay = -time.Second
		}, true},
		{"cron with source dir", func(c *runConfig) {
			c.Cron = "* * * * *"
			c.SourceDir = "/frames"
			c.FailureRate = 5
		}, false},
		{"negative duration", func(c *runConfig) {
			c.Cron = "*/5 * * * *"
			c.Duration = -time.Minute
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quickConfig(3)
			tt.mutate(&cfg)
			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunConfigValidate_InvalidCronIsTyped(t *testing.T) {
	cfg := quickConfig(1)
	cfg.Cron = "* * *"
	if err := cfg.validate(); !errors.Is(err, trigger.ErrInvalidCron) {
		t.Errorf("expected ErrInvalidCron, got %v", err)
	}
}

func TestExecRun_AllSucceed(t *testing.T) {
	var out bytes.Buffer
	sum, err := execRun(context.Background(), quickConfig(5), afero.NewMemMapFs(), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Submitted != 5 || sum.Completed != 5 || sum.Failed != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.Bytes != 5*16 {
		t.Errorf("expected %d bytes, got %d", 5*16, sum.Bytes)
	}
	if !strings.Contains(out.String(), "[INFO] capture scheduler started") {
		t.Errorf("expected lifecycle log in output, got %q", out.String())
	}
}

func TestExecRun_AllFail(t *testing.T) {
	cfg := quickConfig(4)
	cfg.FailureRate = 1

	sum, err := execRun(context.Background(), cfg, afero.NewMemMapFs(), io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Completed != 0 || sum.Failed != 4 {
		t.Errorf("expected 4 failures, got %+v", sum)
	}
	if sum.Bytes != 0 {
		t.Errorf("expected no bytes, got %d", sum.Bytes)
	}
}

func TestExecRun_SourceDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/frames/a.raw", []byte("aaaa"), 0644)
	_ = afero.WriteFile(fs, "/frames/b.raw", []byte("bb"), 0644)

	cfg := quickConfig(3)
	cfg.SourceDir = "/frames"

	sum, err := execRun(context.Background(), cfg, fs, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Completed != 3 {
		t.Errorf("expected 3 completions, got %+v", sum)
	}
	// a, b, a
	if sum.Bytes != 10 {
		t.Errorf("expected 10 bytes, got %d", sum.Bytes)
	}
}

func TestExecRun_MissingSourceDir(t *testing.T) {
	cfg := quickConfig(1)
	cfg.SourceDir = "/nowhere"

	if _, err := execRun(context.Background(), cfg, afero.NewMemMapFs(), io.Discard); err == nil {
		t.Fatal("expected error for missing source dir")
	}
}

func TestExecRun_InterruptFailsQueued(t *testing.T) {
	cfg := quickConfig(40)
	cfg.Delay = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	sum, err := execRun(ctx, cfg, afero.NewMemMapFs(), io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("interrupt took too long: %s", elapsed)
	}
	if sum.Submitted != 40 {
		t.Errorf("expected 40 submitted, got %d", sum.Submitted)
	}
	if sum.Completed+sum.Failed != 40 {
		t.Errorf("every request must report once, got %+v", sum)
	}
	if sum.Completed == 40 {
		t.Error("expected the interrupt to abandon some requests")
	}
}

func TestExecRun_DrainFinishesQueued(t *testing.T) {
	cfg := quickConfig(10)
	cfg.Drain = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := execRun(ctx, cfg, afero.NewMemMapFs(), io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Completed != 10 {
		t.Errorf("expected drain to complete all 10, got %+v", sum)
	}
}

func TestExecRun_LogFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := quickConfig(2)
	cfg.LogFile = "/var/log/warpcap.log"
	cfg.Debug = true

	if _, err := execRun(context.Background(), cfg, fs, io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := afero.ReadFile(fs, cfg.LogFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	logs := string(data)
	for _, want := range []string{"[INFO] capture scheduler started", "[DEBUG] queued request", "[INFO] capture scheduler closed"} {
		if !strings.Contains(logs, want) {
			t.Errorf("expected %q in log file", want)
		}
	}
}

func TestExecRun_CronStopsAfterDuration(t *testing.T) {
	cfg := quickConfig(0)
	cfg.Cron = "0 0 1 1 *"
	cfg.Duration = 100 * time.Millisecond

	done := make(chan runSummary, 1)
	go func() {
		sum, err := execRun(context.Background(), cfg, afero.NewMemMapFs(), io.Discard)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- sum
	}()

	select {
	case sum := <-done:
		if sum.Submitted != 0 {
			t.Errorf("expected no submissions before the first tick, got %d", sum.Submitted)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cron run did not stop after its duration")
	}
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, runSummary{Submitted: 3, Completed: 2, Failed: 1, Bytes: 2048, Elapsed: 1500 * time.Millisecond})

	got := out.String()
	for _, want := range []string{"Capture Summary", "Submitted: 3", "Completed: 2", "Failed:    1", "Captured:  2.0 kB", "Elapsed:   1.5s"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in summary, got:\n%s", want, got)
		}
	}
}

func TestTally_ClosesDoneAtExpectedCount(t *testing.T) {
	p := mpb.New(mpb.WithOutput(io.Discard))
	tl := newTally(cmdCommon.InitCaptureBar(p, "", 2), logger.NewNopLogger(), 2)

	tl.OnSuccess(capture.NewPayload("cam", 1, []byte("xyz")))
	select {
	case <-tl.done:
		t.Fatal("done closed after one of two results")
	default:
	}
	tl.OnFailure(capture.ErrCaptureFailed)

	select {
	case <-tl.done:
	case <-time.After(time.Second):
		t.Fatal("done not closed after all results")
	}
	if tl.bytes.Load() != 3 {
		t.Errorf("expected 3 bytes, got %d", tl.bytes.Load())
	}
	tl.complete()
	p.Wait()
}

func TestRun_InvalidPriorityPrintsHelp(t *testing.T) {
	called := false
	prev := cmdCommon.SetShowCommandHelp(func(*cli.Context, string) error {
		called = true
		return nil
	})
	defer cmdCommon.SetShowCommandHelp(prev)

	old := cronPriority
	cronPriority = "sometime"
	defer func() { cronPriority = old }()

	app := cli.NewApp()
	app.HelpName = "warpcap"
	if err := run(newContext(app, nil, "run")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Error("expected command help to be shown")
	}
}

func TestRun_InvalidRequestsPrintsHelp(t *testing.T) {
	called := false
	prev := cmdCommon.SetShowCommandHelp(func(*cli.Context, string) error {
		called = true
		return nil
	})
	defer cmdCommon.SetShowCommandHelp(prev)

	oldPrio, oldN, oldCron := cronPriority, numRequests, cronExpr
	cronPriority, numRequests, cronExpr = "normal", 0, ""
	defer func() { cronPriority, numRequests, cronExpr = oldPrio, oldN, oldCron }()

	app := cli.NewApp()
	app.HelpName = "warpcap"
	if err := run(newContext(app, nil, "run")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Error("expected command help to be shown")
	}
}
