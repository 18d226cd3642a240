package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

func describeEventQueue(name string, factory func() EventQueue) bool {
	return Describe(name, func() {
		var (
			mockCtrl *gomock.Controller
			queue    EventQueue
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			queue = factory()
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		newEvent := func(t VTimeInSec) *MockEvent {
			evt := NewMockEvent(mockCtrl)
			evt.EXPECT().Time().Return(t).AnyTimes()
			return evt
		}

		It("should pop events in time order", func() {
			evt1 := newEvent(3.0)
			evt2 := newEvent(1.0)
			evt3 := newEvent(2.0)

			queue.Push(evt1)
			queue.Push(evt2)
			queue.Push(evt3)

			Expect(queue.Len()).To(Equal(3))
			Expect(queue.Pop().Time()).To(Equal(VTimeInSec(1.0)))
			Expect(queue.Pop().Time()).To(Equal(VTimeInSec(2.0)))
			Expect(queue.Pop().Time()).To(Equal(VTimeInSec(3.0)))
			Expect(queue.Len()).To(Equal(0))
		})

		It("should peek without removing", func() {
			evt := newEvent(0.25)
			queue.Push(evt)

			Expect(queue.Peek().Time()).To(Equal(VTimeInSec(0.25)))
			Expect(queue.Len()).To(Equal(1))
		})
	})
}

var _ = describeEventQueue("EventQueueImpl",
	func() EventQueue { return NewEventQueue() })
var _ = describeEventQueue("InsertionQueue",
	func() EventQueue { return NewInsertionQueue() })
