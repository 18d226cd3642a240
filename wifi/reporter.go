package wifi

import (
	"fmt"
	"log"

	"github.com/netsimlab/wifisim/exchange"
	"github.com/netsimlab/wifisim/sim"
)

// ControlChannel is the producer-side view of the exchange channel that
// the reporter needs: one blocking round trip per station, plus the
// end-of-run signal.
type ControlChannel interface {
	RoundTrip(populate func(*exchange.Observation)) (exchange.Action, error)
	SetFinished()
}

// A RoundSample is one completed control round as seen by the producer.
type RoundSample struct {
	Seq          uint32
	StationID    uint32
	Timestamp    float64
	PosX         float64
	PosY         float64
	Distance     float64
	DLThroughput float64
	ULThroughput float64
	TxPowerIn    float64
	TxPowerOut   float64
}

// A RoundRecorder persists completed rounds.
type RoundRecorder interface {
	Record(sample RoundSample)
}

// ReportEvent triggers one reporting round for all stations.
type ReportEvent struct {
	*sim.EventBase
}

// Reporter is the periodic control-loop driver. The engine invokes it
// once per period of Freq; it then measures each station, performs a
// full round trip through the channel, and applies the returned
// transmit power to the access point before moving to the next station.
//
// The round trip blocks the engine's event loop until the controller
// responds. Virtual time stands still during the wait, so the decision
// for round n is always in effect before round n+1 is produced.
type Reporter struct {
	Engine   sim.Engine
	Channel  ControlChannel
	AP       *AccessPoint
	Stations []*Station
	Radio    Radio

	// Freq is the reporting cadence. The default scenario reports every
	// 0.25 s, a Freq of 4 Hz.
	Freq      sim.Freq
	TotalTime sim.VTimeInSec

	Recorder RoundRecorder
	Logger   *log.Logger

	nextSeq uint32
}

// Start schedules the first reporting round one period into the run.
func (r *Reporter) Start() {
	evt := ReportEvent{
		EventBase: sim.NewEventBase(r.Freq.Period(), r),
	}
	r.Engine.Schedule(evt)
}

// Handle runs one reporting round and reschedules until the configured
// duration is exhausted.
func (r *Reporter) Handle(e sim.Event) error {
	switch e.(type) {
	case ReportEvent:
		return r.report()
	default:
		panic(fmt.Sprintf("cannot handle event of type %T", e))
	}
}

func (r *Reporter) report() error {
	now := r.Engine.CurrentTime()
	dt := float64(r.Freq.Period())

	// Advance the environment for the whole interval before any station
	// reports, matching the fixed reporting cadence.
	for _, sta := range r.Stations {
		sta.Walk(dt)
	}

	// Stations are visited in fixed id order and their round trips are
	// strictly serialized, so the controller's per-station state stays
	// reproducible across runs.
	for _, sta := range r.Stations {
		distance := sta.DistanceTo(r.AP.X, r.AP.Y)
		sta.DLThroughput = r.Radio.Downlink(r.AP.TxPower(), distance)
		sta.ULThroughput = r.Radio.Uplink(distance)

		seq := r.nextSeq
		r.nextSeq++
		powerBefore := r.AP.TxPower()

		act, err := r.Channel.RoundTrip(func(obs *exchange.Observation) {
			obs.StationID = sta.ID
			obs.Seq = seq
			obs.PosX = sta.X
			obs.PosY = sta.Y
			obs.Distance = distance
			obs.DLThroughput = sta.DLThroughput
			obs.ULThroughput = sta.ULThroughput
			obs.TxPower = powerBefore
			obs.Timestamp = float64(now)
		})
		if err != nil {
			// The controller is gone; stop the run cleanly instead of
			// crashing the scheduler.
			return fmt.Errorf("control round for station %d: %w",
				sta.ID, err)
		}

		r.AP.SetTxPower(act.TxPower)

		if r.Recorder != nil {
			r.Recorder.Record(RoundSample{
				Seq:          seq,
				StationID:    sta.ID,
				Timestamp:    float64(now),
				PosX:         sta.X,
				PosY:         sta.Y,
				Distance:     distance,
				DLThroughput: sta.DLThroughput,
				ULThroughput: sta.ULThroughput,
				TxPowerIn:    powerBefore,
				TxPowerOut:   act.TxPower,
			})
		}

		if r.Logger != nil {
			r.Logger.Printf(
				"t=%.2f sta=%d dist=%.3f dl=%.3f ul=%.3f tx=%.2f",
				float64(now), sta.ID, distance,
				sta.DLThroughput, sta.ULThroughput, act.TxPower)
		}
	}

	if next := r.Freq.NextTick(now); next <= r.TotalTime {
		evt := ReportEvent{
			EventBase: sim.NewEventBase(next, r),
		}
		r.Engine.Schedule(evt)
		return nil
	}

	r.Channel.SetFinished()
	return nil
}
