// Package simulation assembles the pieces of a run: the event engine,
// the data recorder, and the optional monitoring server.
package simulation

import (
	"github.com/rs/xid"

	"github.com/netsimlab/wifisim/datarecording"
	"github.com/netsimlab/wifisim/monitoring"
	"github.com/netsimlab/wifisim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	recordingOn    bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn:   true,
		recordingOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithoutDataRecording sets the simulation to not record rounds.
func (b Builder) WithoutDataRecording() Builder {
	b.recordingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data
// recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		panic("output file cannot be set when recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		entityNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()
	s.engine = sim.NewSerialEngine()

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "wifisim_" + s.id
		}
		s.dataRecorder = datarecording.New(outputPath)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
