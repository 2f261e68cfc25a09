package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"diskforge/internal/config"
	"diskforge/internal/job"
	"diskforge/internal/session"
)

// exitCode is set by whichever command last ran, then read by main after
// root.Execute() returns nil (cobra only surfaces a non-zero status through
// a returned error, and a cancelled-by-signal job is not an error).
var exitCode int

const (
	exitSuccess          = 0
	exitOperationFailure = 1
	exitCancelled        = 130
)

// appFlags holds the global flags every subcommand reads.
type appFlags struct {
	configPath  string
	dangerMode  bool
	jsonOutput  bool
	quiet       bool
	loopDevices bool
}

var flags appFlags

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diskforge",
		Short:         "Cross-platform disk inventory, partitioning, and imaging",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config.json (default $HOME/.diskforge/config.json)")
	root.PersistentFlags().BoolVar(&flags.dangerMode, "danger-mode", false, "Arm danger mode for this invocation")
	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Emit machine-readable JSON instead of text")
	root.PersistentFlags().BoolVar(&flags.quiet, "quiet", false, "Suppress progress output")
	root.PersistentFlags().BoolVar(&flags.loopDevices, "enable-loop-devices", false, "Use the loop-device backend to exercise destructive paths against scratch files")

	root.AddCommand(
		newListCmd(),
		newInfoCmd(),
		newCreatePartitionCmd(),
		newDeletePartitionCmd(),
		newFormatCmd(),
		newCloneCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newRescueCmd(),
		newStatusCmd(),
	)
	return root
}

// openSession loads the configured Session, arming danger mode immediately
// if --danger-mode was passed, and returns a closer that finalizes and
// persists its report.
func openSession() (*session.Session, func(), error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	sess, err := session.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}

	if flags.loopDevices {
		sess.UseLoopbackBackend()
	}

	if flags.dangerMode {
		if !sess.EnableDangerMode("I understand the risks") {
			_, _ = sess.Close()
			return nil, nil, fmt.Errorf("failed to arm danger mode")
		}
	}

	closer := func() {
		if path, err := sess.Close(); err == nil && !flags.quiet && !flags.jsonOutput {
			fmt.Fprintf(os.Stderr, "Session report: %s\n", path)
		}
	}
	return sess, closer, nil
}

// runJob submits spec through sess, installs a SIGINT handler that requests
// cancellation, waits for the result, tracks it in the session report, and
// returns the process exit code the CLI contract promises for it.
func runJob(sess *session.Session, spec session.Spec) (job.JobResult[any], int) {
	id, err := sess.SubmitJob(spec)
	if err != nil {
		return job.JobResult[any]{Success: false, Error: err.Error()}, exitOperationFailure
	}

	if !flags.quiet && !flags.jsonOutput {
		sess.Jobs.AddStatusCallback(func(jobID string, status job.JobStatus) {
			if jobID == id {
				fmt.Fprintf(os.Stderr, "[%s] %s\n", spec.Name, status)
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			sess.Jobs.Cancel(id)
		case <-done:
		}
	}()

	result, _ := sess.Jobs.Wait(id, 0)
	close(done)
	signal.Stop(sigCh)

	sess.TrackResult(id, spec, result)

	switch {
	case result.Success:
		return result, exitSuccess
	case result.Error == "Job was cancelled":
		return result, exitCancelled
	default:
		return result, exitOperationFailure
	}
}

func setExit(code int) {
	exitCode = code
}
