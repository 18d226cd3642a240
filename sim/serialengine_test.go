package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var errSample = errors.New("handler failure")

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run events in time order", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)
		evt3 := NewMockEvent(mockCtrl)
		evt4 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Time().Return(VTimeInSec(4.0)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler1).AnyTimes()
		evt2.EXPECT().Time().Return(VTimeInSec(2.0)).AnyTimes()
		evt2.EXPECT().Handler().Return(handler2).AnyTimes()
		evt3.EXPECT().Time().Return(VTimeInSec(3.0)).AnyTimes()
		evt3.EXPECT().Handler().Return(handler1).AnyTimes()
		evt4.EXPECT().Time().Return(VTimeInSec(5.0)).AnyTimes()
		evt4.EXPECT().Handler().Return(handler1).AnyTimes()

		handleEvt2 := handler2.EXPECT().
			Handle(evt2).
			Do(func(e Event) {
				engine.Schedule(evt3)
				engine.Schedule(evt4)
			}).
			Return(nil)
		handleEvt3 := handler1.EXPECT().
			Handle(evt3).Return(nil).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().
			Handle(evt1).Return(nil).After(handleEvt3)
		handler1.EXPECT().
			Handle(evt4).Return(nil).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		err := engine.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should advance the current time to the event time", func() {
		handler := NewMockHandler(mockCtrl)
		evt := NewMockEvent(mockCtrl)

		evt.EXPECT().Time().Return(VTimeInSec(1.5)).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		handler.EXPECT().Handle(evt).Do(func(e Event) {
			Expect(engine.CurrentTime()).To(Equal(VTimeInSec(1.5)))
		}).Return(nil)

		engine.Schedule(evt)

		err := engine.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(1.5)))
	})

	It("should panic when scheduling into the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Time().Return(VTimeInSec(2.0)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler).AnyTimes()
		evt2.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()

		handler.EXPECT().Handle(evt1).Do(func(e Event) {
			Expect(func() { engine.Schedule(evt2) }).To(Panic())
		}).Return(nil)

		engine.Schedule(evt1)

		err := engine.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should stop running when a handler fails", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler).AnyTimes()
		evt2.EXPECT().Time().Return(VTimeInSec(2.0)).AnyTimes()
		evt2.EXPECT().Handler().Return(handler).AnyTimes()

		handler.EXPECT().Handle(evt1).Return(errSample)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		err := engine.Run()
		Expect(err).To(MatchError(errSample))
	})

	It("should call simulation end handlers on Finished", func() {
		h := &recordingEndHandler{}
		engine.RegisterSimulationEndHandler(h)

		engine.Finished()

		Expect(h.called).To(BeTrue())
	})
})

type recordingEndHandler struct {
	called bool
	now    VTimeInSec
}

func (h *recordingEndHandler) Handle(now VTimeInSec) {
	h.called = true
	h.now = now
}
