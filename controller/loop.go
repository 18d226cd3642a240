package controller

import (
	"errors"
	"fmt"
	"log"

	"github.com/netsimlab/wifisim/exchange"
)

// ActionChannel is the consumer-side view of the exchange channel the
// loop needs: receive one observation, send one action, in strict
// alternation.
type ActionChannel interface {
	RecvBegin() (*exchange.Observation, error)
	RecvEnd() error
	SendBegin() (*exchange.Action, error)
	SendEnd() error
}

// A RoundSample is one completed control round, suitable for recording.
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

// A RoundRecorder persists completed rounds. Implementations must not
// block the loop for long; the producer is waiting on every round.
type RoundRecorder interface {
	Record(sample RoundSample)
}

// Loop drives the controller until the producer finishes or departs. It
// is the consumer half of the lock-step protocol: every received
// observation is answered with exactly one action before the next
// observation is read.
type Loop struct {
	Channel  ActionChannel
	Policy   Policy
	Recorder RoundRecorder
	Logger   *log.Logger
}

// Run processes rounds until the channel reports ErrChannelClosed, which
// it returns as a clean stop. Any other channel error is returned as-is.
func (l *Loop) Run() error {
	for {
		obs, err := l.Channel.RecvBegin()
		if err != nil {
			return stopReason("receive observation", err)
		}

		// Snapshot before releasing the slot. The shared record is only
		// valid between RecvBegin and RecvEnd.
		snapshot := *obs
		if err := l.Channel.RecvEnd(); err != nil {
			return stopReason("release observation", err)
		}

		act := l.Policy.Decide(snapshot)
		act.Seq = snapshot.Seq

		slot, err := l.Channel.SendBegin()
		if err != nil {
			return stopReason("send action", err)
		}
		*slot = act
		if err := l.Channel.SendEnd(); err != nil {
			return stopReason("publish action", err)
		}

		if l.Recorder != nil {
			l.Recorder.Record(RoundSample{
				Seq:          snapshot.Seq,
				StationID:    snapshot.StationID,
				Timestamp:    snapshot.Timestamp,
				PosX:         snapshot.PosX,
				PosY:         snapshot.PosY,
				Distance:     snapshot.Distance,
				DLThroughput: snapshot.DLThroughput,
				ULThroughput: snapshot.ULThroughput,
				TxPowerIn:    snapshot.TxPower,
				TxPowerOut:   act.TxPower,
			})
		}

		if l.Logger != nil {
			l.Logger.Printf(
				"t=%.2f sta=%d seq=%d dl=%.3f tx=%.2f->%.2f",
				snapshot.Timestamp, snapshot.StationID, snapshot.Seq,
				snapshot.DLThroughput, snapshot.TxPower, act.TxPower)
		}
	}
}

// stopReason maps the producer's departure to a clean stop and wraps
// everything else with the step that failed.
func stopReason(step string, err error) error {
	if errors.Is(err, exchange.ErrChannelClosed) {
		return nil
	}
	return fmt.Errorf("%s: %w", step, err)
}
