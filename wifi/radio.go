package wifi

import "math"

// Radio is a closed-form stand-in for the physical layer: log-distance
// path loss mapped onto a bounded rate curve. It exists so the control
// loop has a live environment to measure; the propagation details are not
// part of the protocol under test.
type Radio struct {
	// Log-distance path loss parameters.
	Exponent      float64 // path loss exponent
	ReferenceLoss float64 // loss at 1 m (dB)

	// Rate curve parameters.
	MaxRate     float64 // saturation throughput (Mbps)
	Sensitivity float64 // received power at half MaxRate (dBm)
	Slope       float64 // curve steepness (dB)

	// Uplink transmit power of every station (dBm).
	StationTxPower float64
}

// DefaultRadio mirrors the propagation setup of the reference scenario.
func DefaultRadio() Radio {
	return Radio{
		Exponent:       3.0,
		ReferenceLoss:  40.0459,
		MaxRate:        11.0,
		Sensitivity:    -70.0,
		Slope:          6.0,
		StationTxPower: 15.0,
	}
}

// pathLoss returns the loss in dB over the given distance.
func (r Radio) pathLoss(distance float64) float64 {
	if distance < 0.01 {
		distance = 0.01
	}
	return r.ReferenceLoss + 10*r.Exponent*math.Log10(distance)
}

// rate maps a received power to throughput with a logistic curve, so the
// throughput responds smoothly and monotonically to power changes.
func (r Radio) rate(rxPower float64) float64 {
	return r.MaxRate / (1 + math.Exp(-(rxPower-r.Sensitivity)/r.Slope))
}

// Downlink returns the AP-to-station throughput in Mbps.
func (r Radio) Downlink(apTxPower, distance float64) float64 {
	return r.rate(apTxPower - r.pathLoss(distance))
}

// Uplink returns the station-to-AP throughput in Mbps.
func (r Radio) Uplink(distance float64) float64 {
	return r.rate(r.StationTxPower - r.pathLoss(distance))
}
