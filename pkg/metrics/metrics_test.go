package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording session metrics", func() {
			So(func() {
				RecordSessionStarted()
				RecordSessionFinished()
				RecordSessionEnded()
				RecordSessionProvisional()
				RecordItemServed()
				UpdateActiveSessions(3)
			}, ShouldNotPanic)
		})

		Convey("When recording ranking metrics", func() {
			So(func() {
				RecordRankRequest()
				RecordRankEmpty()
				RecordRankError()
				RecordRankLatency(12.0)
			}, ShouldNotPanic)
		})

		Convey("When recording model metrics", func() {
			So(func() {
				RecordModelReload()
				RecordModelReloadError()
				UpdateModelItems(120)
			}, ShouldNotPanic)
		})

		Convey("When recording journal metrics", func() {
			So(func() {
				RecordAnswerJournaled()
				RecordAnswerDuplicate()
				RecordJournalError()
				RecordJournalWriteLatency(1.5)
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				UpdateWorkerCount(4)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("session_start", "POST", "200")
				RecordHTTPRequestDuration("session_start", "POST", "200", 4.2)
				RecordErrorByEndpoint("rank", "POST", "client_error")
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should be available", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
