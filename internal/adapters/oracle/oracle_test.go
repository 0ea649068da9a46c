package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/somaedu/adapt/pkg/logger"
)

func TestStaticOracle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a static oracle", t, func() {
		o := NewStatic(map[int64]float64{
			1: 0.2,
			2: 1.4,
			3: -0.1,
		})

		Convey("Predict returns the stored difficulty", func() {
			p, err := o.Predict(ctx, 1)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 0.2)
		})

		Convey("Predictions are clamped to [0, 1]", func() {
			high, err := o.Predict(ctx, 2)
			So(err, ShouldBeNil)
			So(high, ShouldEqual, 1.0)

			low, err := o.Predict(ctx, 3)
			So(err, ShouldBeNil)
			So(low, ShouldEqual, 0.0)
		})

		Convey("An unknown item reports not trained", func() {
			_, err := o.Predict(ctx, 99)
			So(errors.Is(err, ErrNotTrained), ShouldBeTrue)
		})

		Convey("PredictBatch omits unknown items", func() {
			preds, err := o.PredictBatch(ctx, []int64{1, 99})
			So(err, ShouldBeNil)
			So(len(preds), ShouldEqual, 1)
			So(preds[1], ShouldEqual, 0.2)
		})
	})

	Convey("Given an empty static oracle", t, func() {
		o := NewStatic(nil)

		Convey("Every call reports not trained", func() {
			_, err := o.Predict(ctx, 1)
			So(errors.Is(err, ErrNotTrained), ShouldBeTrue)

			_, err = o.PredictBatch(ctx, []int64{1})
			So(errors.Is(err, ErrNotTrained), ShouldBeTrue)
		})
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	if err := logger.Init(); err != nil {
		t.Fatalf("initializing logger: %v", err)
	}
	log := logger.Get()

	writeArtifact := func(dir, body string) string {
		path := filepath.Join(dir, "model.json")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("writing artifact: %v", err)
		}
		return path
	}

	Convey("Given a registry without an artifact on disk", t, func() {
		r := NewRegistry(filepath.Join(t.TempDir(), "missing.json"), log)

		Convey("Predictions report not trained", func() {
			_, err := r.Predict(ctx, 1)
			So(errors.Is(err, ErrNotTrained), ShouldBeTrue)
			So(r.Trained(), ShouldBeFalse)
		})
	})

	Convey("Given a registry with a valid artifact", t, func() {
		path := writeArtifact(t.TempDir(), `{
			"trained_at": "2026-08-01T00:00:00Z",
			"model": "gbdt-v2",
			"predictions": [
				{"item_id": 1, "difficulty": 0.3},
				{"item_id": 2, "difficulty": 1.5}
			]
		}`)
		r := NewRegistry(path, log)

		Convey("The artifact loads lazily on first prediction", func() {
			So(r.Trained(), ShouldBeFalse)

			p, err := r.Predict(ctx, 1)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 0.3)
			So(r.Trained(), ShouldBeTrue)
		})

		Convey("Loaded difficulties are clamped", func() {
			p, err := r.Predict(ctx, 2)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 1.0)
		})

		Convey("PredictBatch returns only known items", func() {
			preds, err := r.PredictBatch(ctx, []int64{1, 2, 99})
			So(err, ShouldBeNil)
			So(len(preds), ShouldEqual, 2)
		})

		Convey("Invalidate followed by a rewrite picks up the new model", func() {
			_, err := r.Predict(ctx, 1)
			So(err, ShouldBeNil)

			So(os.WriteFile(path, []byte(`{
				"trained_at": "2026-08-02T00:00:00Z",
				"model": "gbdt-v3",
				"predictions": [{"item_id": 1, "difficulty": 0.9}]
			}`), 0o600), ShouldBeNil)

			r.Invalidate()
			So(r.Trained(), ShouldBeFalse)

			p, err := r.Predict(ctx, 1)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 0.9)
		})
	})

	Convey("Given an artifact with no predictions", t, func() {
		path := writeArtifact(t.TempDir(), `{"trained_at": "2026-08-01T00:00:00Z", "model": "empty", "predictions": []}`)
		r := NewRegistry(path, log)

		Convey("The registry reports not trained", func() {
			_, err := r.Predict(ctx, 1)
			So(errors.Is(err, ErrNotTrained), ShouldBeTrue)
		})
	})

	Convey("Given a corrupt artifact", t, func() {
		path := writeArtifact(t.TempDir(), `{not json`)
		r := NewRegistry(path, log)

		Convey("The parse error is surfaced", func() {
			_, err := r.Predict(ctx, 1)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrNotTrained), ShouldBeFalse)
		})
	})
}
