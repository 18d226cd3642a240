package monitoring

import (
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/netsimlab/wifisim/sim"
)

type sampleEntity struct {
	Rounds int
	Name   string
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
	)

	BeforeEach(func() {
		m = NewMonitor()
		m.RegisterEngine(sim.NewSerialEngine())
	})

	It("should register entities", func() {
		m.RegisterEntity("AP", &sampleEntity{})
		m.RegisterEntity("Reporter", &sampleEntity{})

		Expect(m.entities).To(HaveLen(2))

		w := httptest.NewRecorder()
		m.listEntities(w, nil)
		Expect(w.Body.String()).To(Equal(`["AP","Reporter"]`))
	})

	It("should report virtual time", func() {
		w := httptest.NewRecorder()
		m.now(w, nil)

		Expect(w.Body.String()).To(Equal(`{"now":0.0000000000}`))
	})

	It("should find registered entities by name", func() {
		entity := &sampleEntity{Rounds: 3}
		m.RegisterEntity("AP", entity)

		w := httptest.NewRecorder()
		found := m.findEntityOr404(w, "AP")

		Expect(found).To(BeIdenticalTo(entity))
	})

	It("should return 404 for unknown entities", func() {
		w := httptest.NewRecorder()
		found := m.findEntityOr404(w, "nope")

		Expect(found).To(BeNil())
		Expect(w.Code).To(Equal(404))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("rounds", 100)
		bar.IncrementInProgress(8)
		bar.MoveInProgressToFinished(8)

		Expect(m.progressBars).To(HaveLen(1))
		Expect(bar.Finished).To(Equal(uint64(8)))
		Expect(bar.InProgress).To(Equal(uint64(0)))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})
})
