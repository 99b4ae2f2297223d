package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given metrics manager options", t, func() {
		Convey("When creating a manager with a private registry", func() {
			reg := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(reg))

			Convey("Then all metrics should be initialized", func() {
				So(m, ShouldNotBeNil)
				So(m.matchesRecorded, ShouldNotBeNil)
				So(m.matchesRejected, ShouldNotBeNil)
				So(m.recalcRuns, ShouldNotBeNil)
				So(m.recalcDuration, ShouldNotBeNil)
				So(m.ladderQueries, ShouldNotBeNil)
				So(m.oddsPreviews, ShouldNotBeNil)
				So(m.httpRequests, ShouldNotBeNil)
				So(m.errorsByComponent, ShouldNotBeNil)
			})

			Convey("And the metrics should be gatherable", func() {
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When applying namespace and subsystem options", func() {
			reg := prometheus.NewRegistry()
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace("gym"),
				WithSubsystem("ratings"),
			)

			Convey("Then the overrides should take effect", func() {
				So(m.namespace, ShouldEqual, "gym")
				So(m.subsystem, ShouldEqual, "ratings")
			})
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording domain events", func() {
			// None of these should panic; values land in the custom registry.
			So(func() {
				RecordMatchRecorded()
				RecordMatchRejected()
				RecordMatchDuplicate()
				RecordRatingDelta(-15.5)
				RecordRecalculation(12.0, 2)
				UpdateRecalculationLastUnix(1700000000)
				RecordLadderQuery("global")
				RecordLadderBuildLatency(3.5)
				RecordOddsPreview()
				RecordOddsDegenerate()
				UpdateTotalCompetitors(10)
				UpdateTotalMatches(42)
				RecordHTTPRequest("ladder", "GET", "200")
				RecordHTTPRequestDuration("ladder", "GET", "200", 1.2)
				RecordErrorByComponent("recalc", "unknown_competitor")
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
