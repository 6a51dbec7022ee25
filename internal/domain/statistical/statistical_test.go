package statistical_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/statistical"
	. "github.com/smartystreets/goconvey/convey"
)

func row(count int, avg, median, stddev, sum, maxV, minV float64) model.AggregateRow {
	return model.AggregateRow{Count: count, Avg: avg, Median: median, StdDev: stddev, Sum: sum, Max: maxV, Min: minV}
}

func TestClassifier_Classify(t *testing.T) {
	Convey("Given a statistical classifier", t, func() {
		c := statistical.NewClassifier()

		cases := []struct {
			name  string
			in    model.AggregateRow
			code  string
			score float64
		}{
			{"stable and symmetric", row(60, 10, 10, 0.05, 600, 11, 9), statistical.CodeConsGoodSym, 5},
			{"stable but skewed", row(60, 10, 9, 0.05, 600, 11, 9), statistical.CodeConsGood, 4.5},
			{"high coefficient of variation", row(10, 1, 1, 0.6, 10, 1.2, 0.8), statistical.CodePotRiskHighVar, 4.5},
			{"wide range", row(10, 10, 10, 1, 100, 16, 8), statistical.CodePotRiskHighVol, 4.5},
			// min above avg is not a realistic profile, it isolates the peak rule.
			{"high peaks", row(10, 10, 10, 1, 100, 16, 12), statistical.CodeVolHighPeaks, -5},
			{"range disparity", row(10, 3, 3, 0.05, 30, 10, 1), statistical.CodeRangeDispHigh, -4},
			{"zero minimum", row(10, 0.5, 0.5, 0.05, 5, 1, 0), statistical.CodeRangeDispHigh, -4},
			{"bounded volatility", row(10, 10, 10, 1, 100, 12, 8), statistical.CodeHighImpactVol, -4},
			{"small group", row(3, 10, 10, 5, 30, 20, 1), statistical.CodeStatInsig, 1},
			{"exactly five rows", row(5, 10, 10, 0.05, 50, 11, 9), statistical.CodeNoMatch, 0},
			{"small stable group", row(20, 10, 10, 0.05, 200, 11, 9), statistical.CodeNoMatch, 0},
		}

		for _, tc := range cases {
			tc := tc
			Convey("When the row is "+tc.name, func() {
				got := c.Classify(tc.in)

				Convey("Then "+tc.code+" fires", func() {
					So(got.Code, ShouldEqual, tc.code)
					So(got.WeightScore, ShouldEqual, tc.score)
					So(got.Description, ShouldNotEqual, locale.NotFound)
				})
			})
		}
	})
}

func TestClassifier_Precedence(t *testing.T) {
	Convey("Given a stable row whose sum exceeds avg*count", t, func() {
		c := statistical.NewClassifier()
		in := row(60, 10, 9, 0.05, 700, 11, 9)

		Convey("Then cons_good shadows both negative stable rules", func() {
			got := c.Classify(in)
			So(got.Code, ShouldEqual, statistical.CodeConsGood)
			So(got.Position, ShouldEqual, 2)
			So(c.Rules().Matches(in), ShouldResemble, []int{2, 5, 6})
		})
	})

	Convey("Given rows across the feature space", t, func() {
		c := statistical.NewClassifier()
		table := c.Rules()
		rs := table.Rules()

		Convey("Then the returned code is always the first matching rule", func() {
			for _, count := range []int{0, 3, 5, 6, 51, 500} {
				for _, avg := range []float64{0, 0.5, 10} {
					for _, sd := range []float64{0, 0.05, 0.1, 7} {
						for _, spread := range []float64{0, 1, 20} {
							in := row(count, avg, avg, sd, avg*float64(count)+spread, avg+spread, math.Max(0, avg-spread))
							got := c.Classify(in)
							matches := table.Matches(in)
							if len(matches) == 0 {
								So(got.Code, ShouldEqual, statistical.CodeNoMatch)
								continue
							}
							So(got.Code, ShouldEqual, rs[matches[0]-1].Code)
						}
					}
				}
			}
		})
	})
}

func TestClassifier_ZeroMean(t *testing.T) {
	Convey("Given a volatile group with a zero mean", t, func() {
		c := statistical.NewClassifier()
		got := c.Classify(row(10, 0, 0, 1, 0, 2, -2))

		Convey("Then the unbounded variation fires the variation rule", func() {
			So(got.Code, ShouldEqual, statistical.CodePotRiskHighVar)
			So(got.WeightScore, ShouldEqual, 4.5)
		})
	})
}

func TestClassifier_Idempotent(t *testing.T) {
	Convey("Given the same row classified twice", t, func() {
		c := statistical.NewClassifier()
		in := row(60, 10, 10, 0.05, 600, 11, 9)

		So(c.Classify(in), ShouldResemble, c.Classify(in))
	})
}

func TestClassifier_Locale(t *testing.T) {
	Convey("Given a pt-BR classifier", t, func() {
		c := statistical.NewClassifier(statistical.WithLocale(locale.PtBR))

		Convey("Then descriptions are Portuguese", func() {
			So(c.Classify(row(60, 10, 10, 0.05, 600, 11, 9)).Description, ShouldEqual, "Bom Consistente com Simetria")
			So(c.Classify(row(5, 1, 1, 1, 5, 1, 1)).Description, ShouldEqual, "Sem classificação estatística")
		})
	})

	Convey("Given a classifier with an unknown locale", t, func() {
		c := statistical.NewClassifier(statistical.WithLocale("fr-FR"))

		Convey("Then classification still succeeds with the sentinel description", func() {
			got := c.Classify(row(60, 10, 10, 0.05, 600, 11, 9))
			So(got.Code, ShouldEqual, statistical.CodeConsGoodSym)
			So(got.Description, ShouldEqual, locale.NotFound)
		})
	})
}

func TestClassifier_ClassifyAggregates(t *testing.T) {
	Convey("Given raw aggregates", t, func() {
		c := statistical.NewClassifier()
		full := model.Aggregates{"count": 60, "avg": 10, "median": 10, "stddev": 0.05, "sum": 600, "max": 11, "min": 9}

		Convey("When every field is present", func() {
			got, err := c.ClassifyAggregates("g1", full)

			Convey("Then the row is classified", func() {
				So(err, ShouldBeNil)
				So(got.Code, ShouldEqual, statistical.CodeConsGoodSym)
			})
		})

		Convey("When a field is missing", func() {
			partial := model.Aggregates{}
			for k, v := range full {
				partial[k] = v
			}
			delete(partial, "stddev")
			_, err := c.ClassifyAggregates("g1", partial)

			Convey("Then a MissingFeatureError names it", func() {
				var mfe *model.MissingFeatureError
				So(errors.As(err, &mfe), ShouldBeTrue)
				So(mfe.Field, ShouldEqual, "stddev")
				So(errors.Is(err, model.ErrMissingFeature), ShouldBeTrue)
			})
		})

		Convey("When a field is NaN", func() {
			partial := model.Aggregates{}
			for k, v := range full {
				partial[k] = v
			}
			partial["min"] = math.NaN()
			_, err := c.ClassifyAggregates("g1", partial)

			Convey("Then it counts as missing", func() {
				So(errors.Is(err, model.ErrMissingFeature), ShouldBeTrue)
			})
		})

		Convey("When count is negative", func() {
			partial := model.Aggregates{}
			for k, v := range full {
				partial[k] = v
			}
			partial["count"] = -1
			_, err := c.ClassifyAggregates("g1", partial)

			Convey("Then it is rejected as invalid", func() {
				So(errors.Is(err, model.ErrInvalidFeature), ShouldBeTrue)
			})
		})

		Convey("When count does not fit an int", func() {
			for _, count := range []float64{1e19, math.Exp2(63), math.Inf(1)} {
				partial := model.Aggregates{}
				for k, v := range full {
					partial[k] = v
				}
				partial["count"] = count
				_, err := c.ClassifyAggregates("g1", partial)

				var ife *model.InvalidFeatureError
				So(errors.As(err, &ife), ShouldBeTrue)
				So(ife.Field, ShouldEqual, model.FieldCount)
				So(ife.Value, ShouldEqual, count)
			}
		})
	})
}
