package simulation

import (
	"github.com/netsimlab/wifisim/datarecording"
	"github.com/netsimlab/wifisim/monitoring"
	"github.com/netsimlab/wifisim/sim"
)

// A Simulation provides the services required to define a run: the event
// engine, data recording, monitoring, and a registry of named entities.
type Simulation struct {
	id     string
	engine sim.Engine

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor

	entities        []any
	entityNameIndex map[string]int
}

// ID returns the unique identifier of this run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation. It is
// nil when recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// RegisterEntity registers a named entity with the simulation. Registered
// entities can be inspected through the monitoring API.
func (s *Simulation) RegisterEntity(name string, entity any) {
	if _, exists := s.entityNameIndex[name]; exists {
		panic("entity " + name + " already registered")
	}

	s.entities = append(s.entities, entity)
	s.entityNameIndex[name] = len(s.entities) - 1

	if s.monitor != nil {
		s.monitor.RegisterEntity(name, entity)
	}
}

// GetEntityByName returns the entity with the given name, or nil.
func (s *Simulation) GetEntityByName(name string) any {
	index, exists := s.entityNameIndex[name]
	if !exists {
		return nil
	}

	return s.entities[index]
}

// Terminate flushes and closes the simulation's services.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
