package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/mlconsensus"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/recommend"
	"github.com/okian/vigil/internal/domain/statistical"
	. "github.com/smartystreets/goconvey/convey"
)

func stableAggregates() model.Aggregates {
	return model.Aggregates{
		model.FieldCount:  60,
		model.FieldAvg:    10,
		model.FieldMedian: 10,
		model.FieldStdDev: 0.05,
		model.FieldSum:    600,
		model.FieldMax:    11,
		model.FieldMin:    9,
	}
}

func TestEngine_Evaluate(t *testing.T) {
	Convey("Given an engine with multipliers", t, func() {
		e := engine.New(engine.WithMultipliers(2, 0.5))

		Convey("When a row carries both aggregates and predictions", func() {
			in := engine.Input{
				RecordID:    "r-1",
				Group:       "g-1",
				Target:      "category",
				Aggregates:  stableAggregates(),
				GroundTruth: "A",
				Predictions: []string{"A", "A", "B"},
			}
			res, err := e.Evaluate(in)

			Convey("Then both paths and the combined score are reported", func() {
				So(err, ShouldBeNil)
				So(res.RecordID, ShouldEqual, "r-1")
				So(res.Target, ShouldEqual, "category")
				So(res.Statistical.Code, ShouldEqual, statistical.CodeConsGoodSym)
				So(res.ML.Code, ShouldEqual, mlconsensus.CodeWeakConsistent)
				So(res.Consensus.PerformanceReliability, ShouldEqual, 0.67)
				So(res.Consensus.ModelAccuracy, ShouldResemble, [model.ModelCount]float64{1, 1, 0})
				So(res.Recommendation.Replace, ShouldBeTrue)
				So(res.Recommendation.ActionCode, ShouldEqual, recommend.ActionReviewReplacement)
				So(*res.CombinedScore, ShouldEqual, 11.5)
			})
		})

		Convey("When a row carries only aggregates", func() {
			res, err := e.Evaluate(engine.Input{RecordID: "r-2", Aggregates: stableAggregates()})

			Convey("Then only the statistical path is reported", func() {
				So(err, ShouldBeNil)
				So(res.Statistical, ShouldNotBeNil)
				So(res.ML, ShouldBeNil)
				So(res.Recommendation, ShouldBeNil)
				So(res.CombinedScore, ShouldBeNil)
			})
		})

		Convey("When a row carries only predictions", func() {
			res, err := e.Evaluate(engine.Input{RecordID: "r-3", GroundTruth: "D", Predictions: []string{"A", "B", "C"}})

			Convey("Then the anomaly is scored without a statistical result", func() {
				So(err, ShouldBeNil)
				So(res.Statistical, ShouldBeNil)
				So(res.ML.WeightScore, ShouldEqual, -5)
				So(res.ML.Label, ShouldEqual, model.LabelBad)
				So(res.Recommendation.ActionCode, ShouldEqual, recommend.ActionImmediateReplacement)
			})
		})

		Convey("When an aggregate field is missing", func() {
			a := stableAggregates()
			delete(a, model.FieldStdDev)
			_, err := e.Evaluate(engine.Input{RecordID: "r-4", Aggregates: a})

			Convey("Then the row fails with a missing feature error", func() {
				So(errors.Is(err, model.ErrMissingFeature), ShouldBeTrue)
				var mf *model.MissingFeatureError
				So(errors.As(err, &mf), ShouldBeTrue)
				So(mf.Field, ShouldEqual, model.FieldStdDev)
				So(engine.ErrorKind(err), ShouldEqual, engine.KindMissingFeature)
			})
		})

		Convey("When a row has two predictions", func() {
			_, err := e.Evaluate(engine.Input{RecordID: "r-5", GroundTruth: "A", Predictions: []string{"A", "B"}})

			Convey("Then the row fails with an invalid prediction set error", func() {
				So(errors.Is(err, model.ErrInvalidPredictionSet), ShouldBeTrue)
				So(engine.ErrorKind(err), ShouldEqual, engine.KindInvalidPredictionSet)
			})
		})

		Convey("When a row is empty", func() {
			_, err := e.Evaluate(engine.Input{RecordID: "r-6"})

			Convey("Then ErrEmptyInput is returned", func() {
				So(errors.Is(err, engine.ErrEmptyInput), ShouldBeTrue)
				So(engine.ErrorKind(err), ShouldEqual, engine.KindEmptyInput)
			})
		})

		Convey("When the same row is evaluated twice", func() {
			in := engine.Input{RecordID: "r-7", Aggregates: stableAggregates(), GroundTruth: "A", Predictions: []string{"B", "A", "A"}}
			first, err1 := e.Evaluate(in)
			second, err2 := e.Evaluate(in)

			Convey("Then the outputs are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(cmp.Diff(first, second), ShouldBeEmpty)
			})
		})
	})

	Convey("Given an engine without multipliers", t, func() {
		e := engine.New(engine.WithLocale(locale.PtBR))

		Convey("When both paths apply", func() {
			res, err := e.Evaluate(engine.Input{RecordID: "r", Aggregates: stableAggregates(), GroundTruth: "A", Predictions: []string{"A", "A", "A"}})

			Convey("Then no combined score is reported and texts are Portuguese", func() {
				So(err, ShouldBeNil)
				So(res.CombinedScore, ShouldBeNil)
				So(res.Statistical.Description, ShouldEqual, "Bom Consistente com Simetria")
				So(e.Locale(), ShouldEqual, locale.PtBR)
			})
		})
	})
}

func TestEngine_EvaluateBatch(t *testing.T) {
	Convey("Given a batch with failing rows between valid ones", t, func() {
		e := engine.New(engine.WithParallelism(4))
		var inputs []engine.Input
		for i := 0; i < 50; i++ {
			in := engine.Input{RecordID: fmt.Sprintf("r-%d", i), GroundTruth: "A", Predictions: []string{"A", "A", "A"}}
			if i%5 == 0 {
				in.Predictions = in.Predictions[:2]
			}
			inputs = append(inputs, in)
		}

		Convey("When evaluating the batch", func() {
			outcomes, err := e.EvaluateBatch(context.Background(), inputs)

			Convey("Then each row keeps its index and failures are isolated", func() {
				So(err, ShouldBeNil)
				So(len(outcomes), ShouldEqual, 50)
				for i, o := range outcomes {
					So(o.Index, ShouldEqual, i)
					So(o.Input.RecordID, ShouldEqual, inputs[i].RecordID)
					if i%5 == 0 {
						So(errors.Is(o.Err, model.ErrInvalidPredictionSet), ShouldBeTrue)
					} else {
						So(o.Err, ShouldBeNil)
						So(o.Result.RecordID, ShouldEqual, inputs[i].RecordID)
					}
				}
				So(engine.Summarize(outcomes), ShouldResemble, engine.Summary{Rows: 50, Failed: 10})
			})
		})

		Convey("When the context is already canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			outcomes, err := e.EvaluateBatch(ctx, inputs)

			Convey("Then every row fails with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				for _, o := range outcomes {
					So(engine.ErrorKind(o.Err), ShouldEqual, engine.KindCanceled)
				}
			})
		})
	})

	Convey("Given an empty batch", t, func() {
		outcomes, err := engine.New().EvaluateBatch(context.Background(), nil)

		Convey("Then no outcomes are returned", func() {
			So(err, ShouldBeNil)
			So(outcomes, ShouldBeEmpty)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given mixed outcomes", t, func() {
		outcomes := []engine.Outcome{
			{Err: errors.New("boom")},
			{Result: engine.RowResult{Recommendation: &recommend.Recommendation{Replace: true}}},
			{Result: engine.RowResult{Recommendation: &recommend.Recommendation{}}},
			{Result: engine.RowResult{}},
		}

		Convey("Then failures and replacements are counted", func() {
			So(engine.Summarize(outcomes), ShouldResemble, engine.Summary{Rows: 4, Failed: 1, Replacements: 1})
		})
	})
}
