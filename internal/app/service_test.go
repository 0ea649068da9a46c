package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/somaedu/adapt/internal/adapters/catalog"
	"github.com/somaedu/adapt/internal/adapters/oracle"
	"github.com/somaedu/adapt/internal/domain/model"
	"github.com/somaedu/adapt/pkg/logger"
)

const mathSubject int64 = 1

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("initializing logger: %v", err)
	}

	bank := catalog.NewMemoryCatalog()
	bank.Seed(
		model.Item{ID: 1, SubjectID: mathSubject, Statement: "A", StandardValue: 0},
		model.Item{ID: 2, SubjectID: mathSubject, Statement: "B", StandardValue: 5},
		model.Item{ID: 3, SubjectID: mathSubject, Statement: "C", StandardValue: 10},
	)
	predictor := oracle.NewStatic(map[int64]float64{
		1: 0.2,
		2: 0.5,
		3: 0.9,
	})

	base := []Option{
		WithCatalog(bank),
		WithOracle(predictor),
		WithDefaultMaxItems(3),
		WithWorkerCount(1),
	}
	svc := New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		svc := newTestService(t)

		Convey("Start serves the first item immediately", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 3)
			So(err, ShouldBeNil)
			So(res.SessionID, ShouldNotBeEmpty)
			So(res.Item, ShouldNotBeNil)
			So(res.Target, ShouldNotBeNil)

			// Midpoint seed 5 normalizes to 0.5 and remaps to 0.675;
			// item B at difficulty 0.5 is the closest.
			So(*res.Target, ShouldAlmostEqual, 0.675)
			So(res.Item.ItemID, ShouldEqual, 2)
		})

		Convey("Starting on an empty subject yields no item and no target", func() {
			res, err := svc.StartSession(ctx, 99, "student-1", 3)
			So(err, ShouldBeNil)
			So(res.SessionID, ShouldNotBeEmpty)
			So(res.Item, ShouldBeNil)
			So(res.Target, ShouldBeNil)
		})
	})

	Convey("Given a service with an untrained oracle", t, func() {
		svc := newTestService(t, WithOracle(oracle.NewStatic(nil)))

		Convey("Start surfaces the not-trained error", func() {
			_, err := svc.StartSession(ctx, mathSubject, "student-1", 3)
			So(errors.Is(err, oracle.ErrNotTrained), ShouldBeTrue)
		})
	})
}

func TestNextItem(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started session", t, func() {
		svc := newTestService(t)

		Convey("Served items never repeat within a session", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 3)
			So(err, ShouldBeNil)

			seen := map[int64]bool{res.Item.ItemID: true}
			for {
				step, err := svc.NextItem(ctx, res.SessionID)
				So(err, ShouldBeNil)
				if step.Finished {
					break
				}
				So(seen[step.Item.ItemID], ShouldBeFalse)
				seen[step.Item.ItemID] = true
			}
			So(len(seen), ShouldEqual, 3)
		})

		Convey("With a cap of N the (N+1)-th call reports finished", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 2)
			So(err, ShouldBeNil)
			So(res.Item, ShouldNotBeNil)

			step, err := svc.NextItem(ctx, res.SessionID)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeFalse)
			So(step.Item, ShouldNotBeNil)

			step, err = svc.NextItem(ctx, res.SessionID)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeTrue)
			So(step.Item, ShouldBeNil)
		})

		Convey("A finished session stays finished on further calls", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 1)
			So(err, ShouldBeNil)

			step, err := svc.NextItem(ctx, res.SessionID)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeTrue)

			step, err = svc.NextItem(ctx, res.SessionID)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeTrue)
		})

		Convey("A session finishes early when the subject runs out of items", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 10)
			So(err, ShouldBeNil)

			served := 1
			for {
				step, err := svc.NextItem(ctx, res.SessionID)
				So(err, ShouldBeNil)
				if step.Finished {
					break
				}
				served++
			}
			So(served, ShouldEqual, 3)
		})

		Convey("Next on an unknown session reports not found", func() {
			_, err := svc.NextItem(ctx, "no-such-session")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRecordAnswer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started session", t, func() {
		svc := newTestService(t)

		Convey("Answering serves the next item", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 3)
			So(err, ShouldBeNil)

			step, err := svc.RecordAnswer(ctx, res.SessionID, mathSubject, res.Item.ItemID, 7, res.Item.StandardValue)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeFalse)
			So(step.Item.ItemID, ShouldNotEqual, res.Item.ItemID)
		})

		Convey("An answer on an unknown session creates a provisional session", func() {
			step, err := svc.RecordAnswer(ctx, "lost-session", mathSubject, 2, 7, 5)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeFalse)
			So(step.Item, ShouldNotBeNil)
			// The answered item is excluded from what gets served next.
			So(step.Item.ItemID, ShouldNotEqual, 2)

			Convey("and the session keeps working on follow-up calls", func() {
				next, err := svc.NextItem(ctx, "lost-session")
				So(err, ShouldBeNil)
				So(next.Finished || next.Item != nil, ShouldBeTrue)
			})
		})

		Convey("Answering the final item finishes the session", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 1)
			So(err, ShouldBeNil)

			step, err := svc.RecordAnswer(ctx, res.SessionID, mathSubject, res.Item.ItemID, 7, res.Item.StandardValue)
			So(err, ShouldBeNil)
			So(step.Finished, ShouldBeTrue)
		})

		Convey("Duplicate answers do not break the session flow", func() {
			res, err := svc.StartSession(ctx, mathSubject, "student-1", 3)
			So(err, ShouldBeNil)

			first, err := svc.RecordAnswer(ctx, res.SessionID, mathSubject, res.Item.ItemID, 7, res.Item.StandardValue)
			So(err, ShouldBeNil)
			So(first.Item, ShouldNotBeNil)

			second, err := svc.RecordAnswer(ctx, res.SessionID, mathSubject, res.Item.ItemID, 7, res.Item.StandardValue)
			So(err, ShouldBeNil)
			So(second.Finished || second.Item != nil, ShouldBeTrue)
		})
	})
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started session", t, func() {
		svc := newTestService(t)

		res, err := svc.StartSession(ctx, mathSubject, "student-1", 3)
		So(err, ShouldBeNil)

		Convey("End removes the session", func() {
			So(svc.EndSession(ctx, res.SessionID), ShouldBeNil)

			_, err := svc.NextItem(ctx, res.SessionID)
			So(err, ShouldNotBeNil)
		})

		Convey("End is idempotent", func() {
			So(svc.EndSession(ctx, res.SessionID), ShouldBeNil)
			So(svc.EndSession(ctx, res.SessionID), ShouldBeNil)
			So(svc.EndSession(ctx, "never-existed"), ShouldBeNil)
		})
	})
}

func TestServiceRank(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		svc := newTestService(t)

		Convey("A raw target at the top of the range selects the hardest item", func() {
			raw := 10.0
			res, err := svc.Rank(ctx, mathSubject, &raw, nil, 1)
			So(err, ShouldBeNil)
			So(*res.Target, ShouldAlmostEqual, 1.0)
			So(res.Items[0].ItemID, ShouldEqual, 3)
		})

		Convey("A nil target seeds from the subject midpoint", func() {
			res, err := svc.Rank(ctx, mathSubject, nil, nil, 1)
			So(err, ShouldBeNil)
			So(*res.Target, ShouldAlmostEqual, 0.675)
			So(res.Items[0].ItemID, ShouldEqual, 2)
		})

		Convey("Excluding every item still echoes the target", func() {
			raw := 10.0
			res, err := svc.Rank(ctx, mathSubject, &raw, []int64{1, 2, 3}, 2)
			So(err, ShouldBeNil)
			So(res.Target, ShouldNotBeNil)
			So(res.Items, ShouldBeEmpty)
		})

		Convey("An unknown subject yields a nil target and no items", func() {
			res, err := svc.Rank(ctx, 99, nil, nil, 1)
			So(err, ShouldBeNil)
			So(res.Target, ShouldBeNil)
			So(res.Items, ShouldBeEmpty)
		})

		Convey("A non-positive k is rejected", func() {
			_, err := svc.Rank(ctx, mathSubject, nil, nil, 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := newTestService(t)

		Convey("Stats report the running state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats, ShouldContainKey, "queueLength")
			So(stats, ShouldContainKey, "activeSessions")
		})
	})
}
