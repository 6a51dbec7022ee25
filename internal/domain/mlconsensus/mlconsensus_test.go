package mlconsensus_test

import (
	"testing"

	"github.com/okian/vigil/internal/domain/consensus"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/mlconsensus"
	"github.com/okian/vigil/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func features(t *testing.T, truth string, preds ...string) model.ConsensusFeatures {
	t.Helper()
	f, err := consensus.Build(model.PredictionSet{RecordID: "r", GroundTruth: truth, Predictions: preds})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return f
}

func TestClassifier_Classify(t *testing.T) {
	Convey("Given an ML consensus classifier", t, func() {
		c := mlconsensus.NewClassifier()

		Convey("When all three models agree on the ground truth", func() {
			got := c.Classify(features(t, "A", "A", "A", "A"))

			Convey("Then the strong rule fires", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodeStrongConsistent)
				So(got.WeightScore, ShouldEqual, 5)
				So(got.Label, ShouldEqual, model.LabelGood)
			})
		})

		Convey("When two of three models are right", func() {
			got := c.Classify(features(t, "A", "A", "A", "B"))

			Convey("Then the weak rule fires ahead of the anomaly rule", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodeWeakConsistent)
				So(got.WeightScore, ShouldEqual, 3)
				So(got.Label, ShouldEqual, model.LabelGood)
			})
		})

		Convey("When every model is wrong and they all disagree", func() {
			got := c.Classify(features(t, "D", "A", "B", "C"))

			Convey("Then the anomaly rule fires", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodePotentialAnomaly)
				So(got.WeightScore, ShouldEqual, -5)
				So(got.Label, ShouldEqual, model.LabelBad)
				So(got.Description, ShouldNotEqual, locale.NotFound)
			})
		})

		Convey("When one model of three disagreeing is right", func() {
			got := c.Classify(features(t, "A", "A", "B", "C"))

			Convey("Then reliability is too low for the weak rule", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodePotentialAnomaly)
			})
		})

		Convey("When all models agree on the wrong label", func() {
			got := c.Classify(features(t, "B", "A", "A", "A"))

			Convey("Then the anomaly rule fires on the relationship", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodePotentialAnomaly)
			})
		})

		Convey("When features are consistent but only half reliable", func() {
			f := model.ConsensusFeatures{
				ConsensusCount:         3,
				ModelAgreement:         3,
				Trend:                  model.TrendConsistent,
				Relationship:           model.RelationshipClear,
				PerformanceReliability: 0.5,
			}
			got := c.Classify(f)

			Convey("Then the catch-all rule fires with zero weight", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodeUnclassified)
				So(got.WeightScore, ShouldEqual, 0)
				So(got.Label, ShouldEqual, model.LabelUnclassified)
				So(c.Rules().Matches(f), ShouldResemble, []int{7})
			})
		})
	})
}

func TestClassifier_Precedence(t *testing.T) {
	Convey("Given the consensus rule table", t, func() {
		tbl := mlconsensus.Table()

		Convey("Then it holds seven ordered rules", func() {
			So(tbl.Len(), ShouldEqual, 7)
			So(tbl.Rules()[1].Code, ShouldEqual, mlconsensus.CodeModerateConsistent)
		})

		Convey("When reliability is split over every feature combination", func() {
			trends := []model.Trend{model.TrendConsistent, model.TrendInconsistent}
			rels := []model.Relationship{model.RelationshipClear, model.RelationshipPotentialAnomaly}
			reliabilities := []float64{0, 0.2, 0.4, 0.5, 0.6, 0.7, 0.9, 1}

			moderate, trendsOnly, conflicting := 0, 0, 0
			for cc := 0; cc <= 3; cc++ {
				for agr := 0; agr <= 3; agr++ {
					for _, tr := range trends {
						for _, rel := range rels {
							for _, r := range reliabilities {
								f := model.ConsensusFeatures{
									ConsensusCount:         cc,
									ModelAgreement:         agr,
									Trend:                  tr,
									Relationship:           rel,
									PerformanceReliability: r,
								}
								for _, pos := range tbl.Matches(f) {
									if pos == 2 {
										moderate++
									}
								}
								switch tbl.Evaluate(f).Position {
								case 5:
									trendsOnly++
								case 6:
									conflicting++
								}
							}
						}
					}
				}
			}

			Convey("Then the moderate rule never matches", func() {
				So(moderate, ShouldEqual, 0)
			})

			Convey("Then the rules after the anomaly rule never win", func() {
				So(trendsOnly, ShouldEqual, 0)
				So(conflicting, ShouldEqual, 0)
			})
		})

		Convey("When features satisfy the inconsistent trends rule", func() {
			f := model.ConsensusFeatures{
				ConsensusCount:         1,
				ModelAgreement:         2,
				Trend:                  model.TrendInconsistent,
				Relationship:           model.RelationshipClear,
				PerformanceReliability: 0.2,
			}

			Convey("Then the anomaly rule shadows it", func() {
				So(tbl.Matches(f), ShouldResemble, []int{4, 5, 7})
				So(tbl.Evaluate(f).Code, ShouldEqual, mlconsensus.CodePotentialAnomaly)
			})
		})

		Convey("When features satisfy the conflicting patterns rule", func() {
			f := model.ConsensusFeatures{
				Trend:        model.TrendInconsistent,
				Relationship: model.RelationshipPotentialAnomaly,
			}

			Convey("Then the anomaly rule shadows it", func() {
				So(tbl.Matches(f), ShouldResemble, []int{4, 6, 7})
			})
		})
	})
}

func TestClassifier_Locale(t *testing.T) {
	Convey("Given a Portuguese classifier", t, func() {
		c := mlconsensus.NewClassifier(mlconsensus.WithLocale(locale.PtBR))

		Convey("When classifying an anomaly", func() {
			got := c.Classify(features(t, "D", "A", "B", "C"))

			Convey("Then the description is Portuguese", func() {
				So(got.Description, ShouldEqual, "Anomalia potencial com padrões inconsistentes")
			})
		})
	})

	Convey("Given a classifier with an unsupported locale", t, func() {
		c := mlconsensus.NewClassifier(mlconsensus.WithLocale("fr-FR"))

		Convey("When classifying", func() {
			got := c.Classify(features(t, "A", "A", "A", "A"))

			Convey("Then the result is kept with the sentinel description", func() {
				So(got.Code, ShouldEqual, mlconsensus.CodeStrongConsistent)
				So(got.Description, ShouldEqual, locale.NotFound)
			})
		})
	})
}

func TestClassifier_Idempotent(t *testing.T) {
	Convey("Given identical features", t, func() {
		c := mlconsensus.NewClassifier()
		f := features(t, "A", "A", "B", "A")

		Convey("Then repeated classification is stable", func() {
			first := c.Classify(f)
			for i := 0; i < 10; i++ {
				So(c.Classify(f), ShouldResemble, first)
			}
		})
	})
}
