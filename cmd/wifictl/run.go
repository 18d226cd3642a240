package main

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/netsimlab/wifisim/controller"
	"github.com/netsimlab/wifisim/datarecording"
	"github.com/netsimlab/wifisim/exchange"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to a simulation and control it until it finishes.",
	Run: func(cmd *cobra.Command, _ []string) {
		runController(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("key", "wifisim", "channel key shared with the simulator")
	runCmd.Flags().String("policy", "adaptive",
		"power control policy: adaptive or step")
	runCmd.Flags().Float64("threshold", 1.0, "step policy distance threshold (m)")
	runCmd.Flags().Float64("step", 1.0, "step policy power increment (dBm)")
	runCmd.Flags().Duration("attach-timeout", 10*time.Second,
		"how long to wait for the simulator to create the channel")
	runCmd.Flags().Duration("timeout", 30*time.Second,
		"how long to wait on the simulator before giving up")
	runCmd.Flags().Bool("no-record", false, "disable round recording")
	runCmd.Flags().String("output", "", "recording database name")
	runCmd.Flags().Bool("verbose", false, "log every round")
}

func runController(cmd *cobra.Command) {
	key, _ := cmd.Flags().GetString("key")
	policyName, _ := cmd.Flags().GetString("policy")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	step, _ := cmd.Flags().GetFloat64("step")
	attachTimeout, _ := cmd.Flags().GetDuration("attach-timeout")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	noRecord, _ := cmd.Flags().GetBool("no-record")
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	consumer, err := exchange.NewConsumer(exchange.Config{
		Key:           key,
		AttachTimeout: attachTimeout,
		WaitTimeout:   timeout,
	})
	if err != nil {
		atexit.Fatalf("cannot attach to channel: %v", err)
	}
	atexit.Register(func() { consumer.Close() })

	loop := &controller.Loop{
		Channel: consumer,
		Policy:  selectPolicy(policyName, threshold, step),
	}

	if !noRecord {
		recorder := datarecording.New(output)
		atexit.Register(func() { recorder.Close() })

		recorder.CreateTable("rounds", controller.RoundSample{})
		loop.Recorder = tableRecorder{recorder: recorder}
	}

	if verbose {
		loop.Logger = log.New(os.Stderr, "round ", 0)
	}

	if err := loop.Run(); err != nil {
		atexit.Fatalf("controller stopped: %v", err)
	}

	atexit.Exit(0)
}

func selectPolicy(name string, threshold, step float64) controller.Policy {
	switch name {
	case "adaptive":
		return controller.NewAdaptivePolicy()
	case "step":
		return controller.StepPolicy{Threshold: threshold, Step: step}
	default:
		atexit.Fatalf("unknown policy %q, use adaptive or step", name)
		return nil
	}
}

// tableRecorder adapts the data recorder to the loop's callback.
type tableRecorder struct {
	recorder datarecording.DataRecorder
}

func (r tableRecorder) Record(sample controller.RoundSample) {
	r.recorder.InsertData("rounds", sample)
}
