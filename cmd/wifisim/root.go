package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/netsimlab/wifisim/datarecording"
	"github.com/netsimlab/wifisim/exchange"
	"github.com/netsimlab/wifisim/monitoring"
	"github.com/netsimlab/wifisim/sim"
	"github.com/netsimlab/wifisim/simulation"
	"github.com/netsimlab/wifisim/wifi"
)

var rootCmd = &cobra.Command{
	Use:   "wifisim",
	Short: "Simulate an AP with mobile stations driven by an external controller.",
	Long: `wifisim creates the shared-memory exchange channel, simulates an ` +
		`access point serving randomly walking stations, and reports one ` +
		`observation per station per interval. The transmit power returned ` +
		`by the controller is applied before the next round.`,
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

// Execute runs the command and exits through atexit so registered
// cleanups fire.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func init() {
	// Environment files configure the optional MySQL recording backend.
	_ = godotenv.Load()

	rootCmd.Flags().String("key", "wifisim", "channel key shared with the controller")
	rootCmd.Flags().Int("stations", 8, "number of mobile stations")
	rootCmd.Flags().Float64("radius", 0.5, "initial station circle radius (m)")
	rootCmd.Flags().Float64("duration", 50.0, "simulated duration (s)")
	rootCmd.Flags().Float64("interval", 0.25, "reporting interval (s)")
	rootCmd.Flags().Int64("seed", 1, "random seed for station mobility")
	rootCmd.Flags().Duration("timeout", 30*time.Second,
		"how long to wait on the controller before giving up")
	rootCmd.Flags().Int("monitor-port", 0, "monitoring server port (0 picks one)")
	rootCmd.Flags().Bool("no-monitor", false, "disable the monitoring server")
	rootCmd.Flags().Bool("no-record", false, "disable round recording")
	rootCmd.Flags().String("output", "", "recording database name")
	rootCmd.Flags().Bool("verbose", false, "log every event and round")
}

func run(cmd *cobra.Command) {
	key, _ := cmd.Flags().GetString("key")
	numStations, _ := cmd.Flags().GetInt("stations")
	radius, _ := cmd.Flags().GetFloat64("radius")
	duration, _ := cmd.Flags().GetFloat64("duration")
	interval, _ := cmd.Flags().GetFloat64("interval")
	seed, _ := cmd.Flags().GetInt64("seed")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	monitorPort, _ := cmd.Flags().GetInt("monitor-port")
	noMonitor, _ := cmd.Flags().GetBool("no-monitor")
	noRecord, _ := cmd.Flags().GetBool("no-record")
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	builder := simulation.MakeBuilder()
	if noMonitor {
		builder = builder.WithoutMonitoring()
	} else if monitorPort > 0 {
		builder = builder.WithMonitorPort(monitorPort)
	}
	if noRecord {
		builder = builder.WithoutDataRecording()
	} else if output != "" {
		builder = builder.WithOutputFileName(output)
	}

	if interval <= 0 {
		atexit.Fatalf("reporting interval must be positive, got %v", interval)
	}
	freq := sim.Freq(1.0/interval) * sim.Hz

	s := builder.Build()
	atexit.Register(s.Terminate)

	producer, err := exchange.NewProducer(exchange.Config{
		Key:         key,
		Create:      true,
		WaitTimeout: timeout,
	})
	if err != nil {
		atexit.Fatalf("cannot create channel: %v", err)
	}
	atexit.Register(func() { producer.Close() })

	fmt.Fprintf(os.Stderr, "Exchange channel at %s\n", producer.Path())

	engine := s.GetEngine()
	if verbose {
		engine.AcceptHook(sim.NewEventLogger(
			log.New(os.Stderr, "", 0)))
	}

	ap := wifi.NewAccessPoint()
	stations := wifi.PlaceOnCircle(numStations, radius, seed)

	reporter := &wifi.Reporter{
		Engine:    engine,
		Channel:   producer,
		AP:        ap,
		Stations:  stations,
		Radio:     wifi.DefaultRadio(),
		Freq:      freq,
		TotalTime: sim.VTimeInSec(duration),
	}
	if verbose {
		reporter.Logger = log.New(os.Stderr, "round ", 0)
	}

	if recorder := s.GetDataRecorder(); recorder != nil {
		recorder.CreateTable("rounds", wifi.RoundSample{})
		reporter.Recorder = tableRecorder{recorder: recorder}
	}

	s.RegisterEntity("AP", ap)
	s.RegisterEntity("Reporter", reporter)

	if monitor := s.GetMonitor(); monitor != nil {
		totalRounds := freq.Cycle(sim.VTimeInSec(duration)) * uint64(numStations)
		bar := monitor.CreateProgressBar("rounds", totalRounds)
		engine.AcceptHook(progressHook{
			bar:            bar,
			roundsPerEvent: uint64(numStations),
		})
	}

	reporter.Start()

	if err := engine.Run(); err != nil {
		atexit.Fatalf("simulation stopped: %v", err)
	}
	engine.Finished()

	producer.SetFinished()
	fmt.Fprintf(os.Stderr, "Completed %d rounds at t=%.2fs\n",
		producer.RoundsCompleted(), float64(engine.CurrentTime()))

	atexit.Exit(0)
}

// tableRecorder adapts the data recorder to the reporter's callback.
type tableRecorder struct {
	recorder datarecording.DataRecorder
}

func (r tableRecorder) Record(sample wifi.RoundSample) {
	r.recorder.InsertData("rounds", sample)
}

// progressHook advances the round progress bar after every report event.
type progressHook struct {
	bar            *monitoring.ProgressBar
	roundsPerEvent uint64
}

func (h progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	h.bar.IncrementFinished(h.roundsPerEvent)
}
