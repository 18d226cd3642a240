package exchange

import (
	"fmt"
	"unsafe"
)

// Observation is the producer-to-consumer record, one per station per
// round. All fields are plain scalars; the layout must stay fixed because
// the record crosses a process boundary as raw memory.
type Observation struct {
	StationID    uint32  // station identifier
	Seq          uint32  // round counter, echoed back in the Action
	PosX         float64 // station x position (m)
	PosY         float64 // station y position (m)
	Distance     float64 // distance to the access point (m)
	DLThroughput float64 // downlink throughput since last round (Mbps)
	ULThroughput float64 // uplink throughput since last round (Mbps)
	TxPower      float64 // AP transmit power in effect this round (dBm)
	Timestamp    float64 // simulation time (s), non-decreasing per station
}

// Action is the consumer-to-producer record: the control decision derived
// from the matching Observation. Seq echoes the Observation's round
// counter so misordering is detectable.
type Action struct {
	TxPower float64 // new AP transmit power (dBm)
	Seq     uint32
	_       uint32
}

// Slot sizes in the shared segment. Each record lives in a 64-byte-aligned
// slot so the two directions never share a cache line.
const (
	observationSize = 64
	actionSize      = 16
	slotSize        = 64
)

func init() {
	if s := unsafe.Sizeof(Observation{}); s != observationSize {
		panic(fmt.Sprintf("Observation size is %d, expected %d",
			s, observationSize))
	}
	if s := unsafe.Sizeof(Action{}); s != actionSize {
		panic(fmt.Sprintf("Action size is %d, expected %d", s, actionSize))
	}
}
