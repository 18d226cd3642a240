// Package exchange implements a lock-step, single-slot-per-direction
// channel between a simulation process (producer) and an out-of-process
// controller (consumer) over a shared memory segment.
//
// Each direction carries exactly one fixed-size record that is overwritten
// every round. Access is serialized by a four-phase handshake
// (Idle -> Writing -> Written -> Reading -> Idle) on a per-direction phase
// word that both processes wait on. The producer's RoundTrip blocks until
// the consumer has answered the Observation just sent, so Observation n is
// always paired with Action n by strict alternation.
//
// The channel is strictly two-party. It provides no queuing of missed
// rounds and no history; a round that is not consumed blocks the writer.
package exchange
