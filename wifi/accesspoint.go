package wifi

// An AccessPoint is the fixed node whose transmit power is the control
// parameter of the whole experiment. The controller adjusts it every
// round; the radio model reads it when computing downlink throughput.
type AccessPoint struct {
	X, Y    float64
	txPower float64 // dBm
}

// DefaultTxPower is the transmit power before the controller's first
// decision arrives.
const DefaultTxPower = 20.0

// NewAccessPoint creates an access point at the origin.
func NewAccessPoint() *AccessPoint {
	return &AccessPoint{txPower: DefaultTxPower}
}

// TxPower returns the transmit power currently in effect.
func (ap *AccessPoint) TxPower() float64 {
	return ap.txPower
}

// SetTxPower applies a new transmit power. Subsequent throughput
// computations use the new value.
func (ap *AccessPoint) SetTxPower(p float64) {
	ap.txPower = p
}
