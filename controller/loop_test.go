package controller

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsimlab/wifisim/exchange"
)

// queuedChannel feeds a fixed list of observations to the loop and
// captures every action it sends back.
type queuedChannel struct {
	pending []exchange.Observation
	actions []exchange.Action

	obs exchange.Observation
	act exchange.Action
}

func (c *queuedChannel) RecvBegin() (*exchange.Observation, error) {
	if len(c.pending) == 0 {
		return nil, exchange.ErrChannelClosed
	}
	c.obs = c.pending[0]
	c.pending = c.pending[1:]
	return &c.obs, nil
}

func (c *queuedChannel) RecvEnd() error { return nil }

func (c *queuedChannel) SendBegin() (*exchange.Action, error) {
	c.act = exchange.Action{}
	return &c.act, nil
}

func (c *queuedChannel) SendEnd() error {
	c.actions = append(c.actions, c.act)
	return nil
}

type sampleCollector struct {
	samples []RoundSample
}

func (r *sampleCollector) Record(sample RoundSample) {
	r.samples = append(r.samples, sample)
}

func TestLoopAnswersEveryObservation(t *testing.T) {
	channel := &queuedChannel{}
	for i := 0; i < 10; i++ {
		channel.pending = append(channel.pending, exchange.Observation{
			Seq:      uint32(i),
			Distance: 0.5,
			TxPower:  20.0,
		})
	}

	loop := &Loop{
		Channel: channel,
		Policy:  StepPolicy{Threshold: 1.0, Step: 1.0},
	}
	require.NoError(t, loop.Run())

	require.Len(t, channel.actions, 10)
	for i, act := range channel.actions {
		assert.Equal(t, uint32(i), act.Seq)
		assert.Equal(t, 21.0, act.TxPower)
	}
}

func TestLoopRecordsCompletedRounds(t *testing.T) {
	channel := &queuedChannel{
		pending: []exchange.Observation{{
			Seq:          7,
			StationID:    3,
			Timestamp:    0.25,
			Distance:     0.5,
			DLThroughput: 8.0,
			TxPower:      20.0,
		}},
	}
	recorder := &sampleCollector{}

	loop := &Loop{
		Channel:  channel,
		Policy:   StepPolicy{Threshold: 1.0, Step: 1.0},
		Recorder: recorder,
	}
	require.NoError(t, loop.Run())

	require.Len(t, recorder.samples, 1)
	sample := recorder.samples[0]
	assert.Equal(t, uint32(7), sample.Seq)
	assert.Equal(t, uint32(3), sample.StationID)
	assert.Equal(t, 20.0, sample.TxPowerIn)
	assert.Equal(t, 21.0, sample.TxPowerOut)
	assert.Equal(t, 8.0, sample.DLThroughput)
}

func TestLoopAgainstLiveChannel(t *testing.T) {
	key := xid.New().String()

	producer, err := exchange.NewProducer(exchange.Config{
		Key:         key,
		Create:      true,
		WaitTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := exchange.NewConsumer(exchange.Config{
		Key:           key,
		AttachTimeout: 2 * time.Second,
		WaitTimeout:   5 * time.Second,
	})
	require.NoError(t, err)
	defer consumer.Close()

	loop := &Loop{
		Channel: consumer,
		Policy:  StepPolicy{Threshold: 1.0, Step: 1.0},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, loop.Run())
	}()

	for i := 0; i < 50; i++ {
		act, err := producer.RoundTrip(func(obs *exchange.Observation) {
			obs.Seq = uint32(i)
			obs.Distance = 0.5
			obs.TxPower = 20.0
		})
		require.NoError(t, err)
		assert.Equal(t, uint32(i), act.Seq)
		assert.Equal(t, 21.0, act.TxPower)
	}

	producer.SetFinished()
	wg.Wait()
}
