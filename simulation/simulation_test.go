package simulation

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Simulation", func() {
	var (
		simulation *Simulation
	)

	BeforeEach(func() {
		simulation = MakeBuilder().
			WithoutMonitoring().
			WithoutDataRecording().
			Build()
	})

	AfterEach(func() {
		simulation.Terminate()
	})

	It("should provide an engine", func() {
		Expect(simulation.GetEngine()).ToNot(BeNil())
		Expect(simulation.GetDataRecorder()).To(BeNil())
		Expect(simulation.GetMonitor()).To(BeNil())
	})

	It("should register entities by name", func() {
		entity := &struct{ Rounds int }{}

		simulation.RegisterEntity("AP", entity)

		Expect(simulation.GetEntityByName("AP")).To(BeIdenticalTo(entity))
		Expect(simulation.GetEntityByName("nope")).To(BeNil())
	})

	It("should reject duplicated entity names", func() {
		simulation.RegisterEntity("AP", &struct{}{})

		Expect(func() {
			simulation.RegisterEntity("AP", &struct{}{})
		}).To(Panic())
	})

	Context("Builder with custom output file", func() {
		var customSim *Simulation

		AfterEach(func() {
			if customSim != nil {
				customSim.Terminate()
				os.Remove("test_custom_output.sqlite3")
				customSim = nil
			}
		})

		It("should allow custom output file to be set", func() {
			builder := MakeBuilder().
				WithoutMonitoring().
				WithOutputFileName("test_custom_output")
			customSim = builder.Build()

			Expect(customSim).ToNot(BeNil())
			Expect(customSim.GetDataRecorder()).ToNot(BeNil())
		})
	})

	Context("Builder parameter validation", func() {
		It("should reject a monitor port without monitoring", func() {
			Expect(func() {
				MakeBuilder().WithoutMonitoring().WithMonitorPort(8080).Build()
			}).To(Panic())
		})

		It("should reject an output file without recording", func() {
			Expect(func() {
				MakeBuilder().
					WithoutMonitoring().
					WithoutDataRecording().
					WithOutputFileName("x").
					Build()
			}).To(Panic())
		})
	})
})
