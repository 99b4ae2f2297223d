package ladder_test

import (
	"testing"
	"time"

	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
	"github.com/okian/tatami/internal/engine/ladder"
	. "github.com/smartystreets/goconvey/convey"
)

func weight(v float64) *float64 { return &v }

func fixture() ([]model.Competitor, []model.Match) {
	t0 := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

	comps := []model.Competitor{
		{ID: "c-ada", Name: "Ada", Belt: rating.White, Weight: weight(150),
			Rating: rating.Rating{Start: 1200, Current: 1260}}, // gain +60
		{ID: "c-bea", Name: "Bea", Belt: rating.Black, Weight: weight(185),
			Rating: rating.Rating{Start: 2000, Current: 2010}}, // gain +10
		{ID: "c-cal", Name: "Cal", Belt: rating.Purple, Weight: weight(200),
			Rating: rating.Rating{Start: 1600, Current: 1570}}, // gain -30
		{ID: "c-dev", Name: "Dev", Belt: rating.Blue, Weight: weight(230),
			Rating: rating.Rating{Start: 1400, Current: 1460}}, // gain +60, lower rating than Ada? no: higher
		{ID: "c-eva", Name: "Eva", Belt: rating.Brown, Weight: nil,
			Rating: rating.Rating{Start: 1800, Current: 1800}}, // no matches, nil weight
	}

	matches := []model.Match{
		{ID: "m-1", SideA: "c-ada", SideB: "c-bea", Outcome: model.OutcomeAWin, TS: t0, Seq: 1, Event: "open-mat"},
		{ID: "m-2", SideA: "c-cal", SideB: "c-ada", Outcome: model.OutcomeBWin, TS: t0.Add(time.Hour), Seq: 2, Event: "open-mat"},
		{ID: "m-3", SideA: "c-dev", SideB: "c-cal", Outcome: model.OutcomeAWin, TS: t0.Add(2 * time.Hour), Seq: 3, Event: "invitational"},
		{ID: "m-4", SideA: "c-bea", SideB: "c-dev", Outcome: model.OutcomeDraw, TS: t0.Add(3 * time.Hour), Seq: 4, Event: "invitational"},
	}

	return comps, matches
}

func TestParseScope(t *testing.T) {
	Convey("Given scope strings", t, func() {
		Convey("Then the three kinds parse", func() {
			s, err := ladder.ParseScope("global")
			So(err, ShouldBeNil)
			So(s.Kind, ShouldEqual, ladder.ScopeGlobal)

			s, err = ladder.ParseScope("event:open-mat")
			So(err, ShouldBeNil)
			So(s.Kind, ShouldEqual, ladder.ScopeEvent)
			So(s.Event, ShouldEqual, "open-mat")

			s, err = ladder.ParseScope("weightClass:Middleweight")
			So(err, ShouldBeNil)
			So(s.Kind, ShouldEqual, ladder.ScopeWeightClass)
			So(s.WeightClass, ShouldEqual, "Middleweight")
		})

		Convey("Then empty means global", func() {
			s, err := ladder.ParseScope("")
			So(err, ShouldBeNil)
			So(s.Kind, ShouldEqual, ladder.ScopeGlobal)
		})

		Convey("Then junk is rejected", func() {
			_, err := ladder.ParseScope("event:")
			So(err, ShouldNotBeNil)

			_, err = ladder.ParseScope("weightClass:Featherweight")
			So(err, ShouldNotBeNil)

			_, err = ladder.ParseScope("planet:earth")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseStrategy(t *testing.T) {
	Convey("Given strategy names", t, func() {
		Convey("Then gain is the default", func() {
			s, err := ladder.ParseStrategy("")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, ladder.ByGain)
		})

		Convey("Then rating parses and junk does not", func() {
			s, err := ladder.ParseStrategy("rating")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, ladder.ByRating)

			_, err = ladder.ParseStrategy("vibes")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBuildGlobal(t *testing.T) {
	Convey("Given the gym fixture", t, func() {
		comps, matches := fixture()

		Convey("When building the global ladder by gain", func() {
			rows, err := ladder.Build(ladder.Scope{Kind: ladder.ScopeGlobal}, ladder.ByGain, comps, matches)
			So(err, ShouldBeNil)

			Convey("Then matchless competitors are excluded", func() {
				for _, r := range rows {
					So(r.CompetitorID, ShouldNotEqual, "c-eva")
				}
				So(len(rows), ShouldEqual, 4)
			})

			Convey("Then gain outranks absolute rating", func() {
				// Ada and Dev both gained 60; Dev's higher current rating
				// breaks the tie. Bea sits at 2010 but only +10.
				So(rows[0].CompetitorID, ShouldEqual, "c-dev")
				So(rows[1].CompetitorID, ShouldEqual, "c-ada")
				So(rows[2].CompetitorID, ShouldEqual, "c-bea")
				So(rows[3].CompetitorID, ShouldEqual, "c-cal")
			})

			Convey("Then ranks are 1-based and contiguous", func() {
				for i, r := range rows {
					So(r.Rank, ShouldEqual, i+1)
				}
			})

			Convey("Then tallies come from the match log", func() {
				byID := map[string]ladder.Standing{}
				for _, r := range rows {
					byID[r.CompetitorID] = r
				}
				So(byID["c-ada"].Wins, ShouldEqual, 2)
				So(byID["c-ada"].Losses, ShouldEqual, 0)
				So(byID["c-bea"].Losses, ShouldEqual, 1)
				So(byID["c-bea"].Draws, ShouldEqual, 1)
				So(byID["c-cal"].Losses, ShouldEqual, 2)
				So(byID["c-dev"].Wins, ShouldEqual, 1)
				So(byID["c-dev"].Draws, ShouldEqual, 1)
			})
		})

		Convey("When building the global ladder by rating", func() {
			rows, err := ladder.Build(ladder.Scope{Kind: ladder.ScopeGlobal}, ladder.ByRating, comps, matches)
			So(err, ShouldBeNil)

			Convey("Then absolute rating wins", func() {
				So(rows[0].CompetitorID, ShouldEqual, "c-bea")
				So(rows[1].CompetitorID, ShouldEqual, "c-cal")
				So(rows[2].CompetitorID, ShouldEqual, "c-dev")
				So(rows[3].CompetitorID, ShouldEqual, "c-ada")
			})
		})
	})
}

func TestBuildEventScope(t *testing.T) {
	Convey("Given the gym fixture", t, func() {
		comps, matches := fixture()

		Convey("When building the open-mat event ladder", func() {
			scope := ladder.Scope{Kind: ladder.ScopeEvent, Event: "open-mat"}
			rows, err := ladder.Build(scope, ladder.ByGain, comps, matches)
			So(err, ShouldBeNil)

			Convey("Then only competitors with a match in the event appear", func() {
				ids := map[string]bool{}
				for _, r := range rows {
					ids[r.CompetitorID] = true
				}
				So(len(rows), ShouldEqual, 3)
				So(ids["c-ada"], ShouldBeTrue)
				So(ids["c-bea"], ShouldBeTrue)
				So(ids["c-cal"], ShouldBeTrue)
				So(ids["c-dev"], ShouldBeFalse)
			})

			Convey("Then tallies cover event matches only", func() {
				for _, r := range rows {
					if r.CompetitorID == "c-bea" {
						So(r.Losses, ShouldEqual, 1)
						So(r.Draws, ShouldEqual, 0) // the draw was at the invitational
					}
				}
			})
		})
	})
}

func TestBuildWeightClassScope(t *testing.T) {
	Convey("Given the gym fixture", t, func() {
		comps, matches := fixture()

		Convey("When building the Middleweight ladder", func() {
			scope := ladder.Scope{Kind: ladder.ScopeWeightClass, WeightClass: "Middleweight"}
			rows, err := ladder.Build(scope, ladder.ByGain, comps, matches)
			So(err, ShouldBeNil)

			Convey("Then nil and out-of-range weights are excluded", func() {
				ids := map[string]bool{}
				for _, r := range rows {
					ids[r.CompetitorID] = true
				}
				So(ids["c-bea"], ShouldBeTrue) // 185
				So(ids["c-cal"], ShouldBeTrue) // 200, inclusive upper bound
				So(ids["c-ada"], ShouldBeFalse)
				So(ids["c-dev"], ShouldBeFalse)
				So(ids["c-eva"], ShouldBeFalse) // nil weight
				So(len(rows), ShouldEqual, 2)
			})
		})
	})
}

func TestStrictTotalOrder(t *testing.T) {
	Convey("Given competitors with identical gain and rating", t, func() {
		comps := []model.Competitor{
			{ID: "c-b", Name: "B", Rating: rating.Rating{Start: 1200, Current: 1250}},
			{ID: "c-a", Name: "A", Rating: rating.Rating{Start: 1200, Current: 1250}},
		}
		matches := []model.Match{
			{ID: "m-1", SideA: "c-a", SideB: "c-b", Outcome: model.OutcomeDraw, TS: time.Now(), Seq: 1},
		}

		Convey("When the ladder is built", func() {
			rows, err := ladder.Build(ladder.Scope{Kind: ladder.ScopeGlobal}, ladder.ByGain, comps, matches)
			So(err, ShouldBeNil)

			Convey("Then the id tie-break yields distinct consecutive ranks", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].CompetitorID, ShouldEqual, "c-a")
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[1].CompetitorID, ShouldEqual, "c-b")
				So(rows[1].Rank, ShouldEqual, 2)
			})
		})
	})
}
