package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/tatami/internal/adapters/repository"
	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStoreCompetitors(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := repository.NewMemStore()
		ctx := context.Background()

		ada := model.Competitor{ID: "c-ada", Name: "Ada", Belt: rating.Blue, Rating: rating.NewFromBelt(rating.Blue)}

		Convey("When a competitor is put", func() {
			So(s.PutCompetitor(ctx, ada), ShouldBeNil)

			Convey("Then it can be fetched back", func() {
				got, err := s.GetCompetitor(ctx, "c-ada")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Ada")
				So(got.Rating.Start, ShouldEqual, 1400)
			})

			Convey("And putting the same id again fails", func() {
				err := s.PutCompetitor(ctx, ada)
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})

			Convey("And the count reflects it", func() {
				So(s.CountCompetitors(ctx), ShouldEqual, 1)
			})
		})

		Convey("When fetching an unknown id", func() {
			_, err := s.GetCompetitor(ctx, "nobody")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When updating a rating", func() {
			So(s.PutCompetitor(ctx, ada), ShouldBeNil)
			updated := ada.Rating.Applied(16)
			So(s.UpdateRating(ctx, "c-ada", updated), ShouldBeNil)

			Convey("Then the new current value is stored and start is intact", func() {
				got, err := s.GetCompetitor(ctx, "c-ada")
				So(err, ShouldBeNil)
				So(got.Rating.Current, ShouldEqual, 1416)
				So(got.Rating.Start, ShouldEqual, 1400)
			})
		})

		Convey("When listing competitors", func() {
			So(s.PutCompetitor(ctx, model.Competitor{ID: "c-zoe"}), ShouldBeNil)
			So(s.PutCompetitor(ctx, model.Competitor{ID: "c-ada"}), ShouldBeNil)
			So(s.PutCompetitor(ctx, model.Competitor{ID: "c-mia"}), ShouldBeNil)

			list, err := s.ListCompetitors(ctx)

			Convey("Then the order is deterministic by id", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].ID, ShouldEqual, "c-ada")
				So(list[1].ID, ShouldEqual, "c-mia")
				So(list[2].ID, ShouldEqual, "c-zoe")
			})
		})
	})
}

func TestMemStoreMatches(t *testing.T) {
	Convey("Given a store with a match log", t, func() {
		s := repository.NewMemStore()
		ctx := context.Background()
		t0 := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

		Convey("When matches are appended", func() {
			m1, err := s.AppendMatch(ctx, model.Match{ID: "m-1", SideA: "a", SideB: "b", Outcome: model.OutcomeAWin, TS: t0.Add(time.Hour)})
			So(err, ShouldBeNil)
			m2, err := s.AppendMatch(ctx, model.Match{ID: "m-2", SideA: "a", SideB: "b", Outcome: model.OutcomeDraw, TS: t0})
			So(err, ShouldBeNil)

			Convey("Then sequence numbers are assigned in insertion order", func() {
				So(m1.Seq, ShouldEqual, 1)
				So(m2.Seq, ShouldEqual, 2)
			})

			Convey("And listing returns timestamp order, not insertion order", func() {
				list, err := s.ListMatches(ctx)
				So(err, ShouldBeNil)
				So(list[0].ID, ShouldEqual, "m-2")
				So(list[1].ID, ShouldEqual, "m-1")
			})

			Convey("And equal timestamps fall back to sequence order", func() {
				_, err := s.AppendMatch(ctx, model.Match{ID: "m-3", SideA: "a", SideB: "b", Outcome: model.OutcomeBWin, TS: t0})
				So(err, ShouldBeNil)
				list, err := s.ListMatches(ctx)
				So(err, ShouldBeNil)
				So(list[0].ID, ShouldEqual, "m-2")
				So(list[1].ID, ShouldEqual, "m-3")
			})

			Convey("And duplicate match ids are rejected", func() {
				_, err := s.AppendMatch(ctx, model.Match{ID: "m-1"})
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})
		})
	})
}

func TestMemStoreSnapshotsAndCommit(t *testing.T) {
	Convey("Given a store with two competitors", t, func() {
		s := repository.NewMemStore()
		ctx := context.Background()

		So(s.PutCompetitor(ctx, model.Competitor{ID: "a", Rating: rating.NewFromBelt(rating.White)}), ShouldBeNil)
		So(s.PutCompetitor(ctx, model.Competitor{ID: "b", Rating: rating.NewFromBelt(rating.Black)}), ShouldBeNil)

		Convey("When incremental snapshots are appended", func() {
			So(s.AppendSnapshots(ctx,
				model.SnapshotEntry{MatchID: "m-1", CompetitorID: "a", Before: 1200, After: 1231.5, Delta: 31.5},
				model.SnapshotEntry{MatchID: "m-1", CompetitorID: "b", Before: 2000, After: 1968.5, Delta: -31.5},
			), ShouldBeNil)

			list, err := s.ListSnapshots(ctx, "a")

			Convey("Then they are listed per competitor in order", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
				So(list[0].After, ShouldAlmostEqual, 1231.5)
			})
		})

		Convey("When a recalculated set is committed", func() {
			ratings := map[string]rating.Rating{
				"a": {Start: 1200, Current: 1231.5},
				"b": {Start: 2000, Current: 1968.5},
			}
			snaps := []model.SnapshotEntry{{MatchID: "m-1", CompetitorID: "a", Before: 1200, After: 1231.5, Delta: 31.5}}
			So(s.CommitRatings(ctx, ratings, snaps), ShouldBeNil)

			Convey("Then ratings are installed atomically", func() {
				a, err := s.GetCompetitor(ctx, "a")
				So(err, ShouldBeNil)
				So(a.Rating.Current, ShouldAlmostEqual, 1231.5)
			})

			Convey("And the snapshot history was replaced wholesale", func() {
				list, err := s.ListSnapshots(ctx, "a")
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})
		})

		Convey("When committing ratings for an unknown competitor", func() {
			err := s.CommitRatings(ctx, map[string]rating.Rating{"ghost": {}}, nil)

			Convey("Then nothing is applied", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				a, gerr := s.GetCompetitor(ctx, "a")
				So(gerr, ShouldBeNil)
				So(a.Rating.Current, ShouldEqual, 1200)
			})
		})
	})
}
