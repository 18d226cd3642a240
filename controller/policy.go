// Package controller implements the consumer side of the simulation: it
// receives station observations from the exchange channel, runs a power
// control policy, and sends the resulting transmit power back.
package controller

import "github.com/netsimlab/wifisim/exchange"

// A Policy turns one station observation into a transmit power decision.
// Policies must be deterministic functions of the observations seen so
// far, so a replayed run yields the same decisions.
type Policy interface {
	Decide(obs exchange.Observation) exchange.Action
}

// StepPolicy nudges the power up by Step whenever the reporting station is
// closer than Threshold, and down otherwise.
type StepPolicy struct {
	Threshold float64 // m
	Step      float64 // dBm
}

func (p StepPolicy) Decide(obs exchange.Observation) exchange.Action {
	power := obs.TxPower
	if obs.Distance < p.Threshold {
		power += p.Step
	} else {
		power -= p.Step
	}
	return exchange.Action{TxPower: power, Seq: obs.Seq}
}

// MinPower and MaxPower bound every adaptive decision (dBm).
const (
	MinPower = 1.0
	MaxPower = 30.0
)

// AdaptivePolicy sets the power from the mean downlink throughput of the
// previous reporting interval: the better the network already performs,
// the less power it spends. The decision is 30 - 30 * meanDL / 100,
// clamped to [MinPower, MaxPower]. Until a full interval has been
// observed it keeps InitialPower.
//
// Observations with the same Timestamp belong to the same interval, so
// the policy closes a bucket whenever the timestamp changes.
type AdaptivePolicy struct {
	InitialPower float64

	started    bool
	current    float64
	bucketTime float64
	bucketSum  float64
	bucketLen  int
}

// NewAdaptivePolicy returns an adaptive policy starting at 20 dBm.
func NewAdaptivePolicy() *AdaptivePolicy {
	return &AdaptivePolicy{InitialPower: 20.0}
}

func (p *AdaptivePolicy) Decide(obs exchange.Observation) exchange.Action {
	if !p.started {
		p.started = true
		p.current = p.InitialPower
		p.bucketTime = obs.Timestamp
	}

	if obs.Timestamp != p.bucketTime {
		meanDL := p.bucketSum / float64(p.bucketLen)
		p.current = clampPower(MaxPower - MaxPower*meanDL/100.0)

		p.bucketTime = obs.Timestamp
		p.bucketSum = 0
		p.bucketLen = 0
	}

	p.bucketSum += obs.DLThroughput
	p.bucketLen++

	return exchange.Action{TxPower: p.current, Seq: obs.Seq}
}

func clampPower(p float64) float64 {
	if p < MinPower {
		return MinPower
	}
	if p > MaxPower {
		return MaxPower
	}
	return p
}
