package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/vigil/internal/adapters/mq/queue"
	"github.com/okian/vigil/internal/adapters/repository"
	service "github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/prediction"
	"github.com/okian/vigil/internal/domain/statistical"
	"github.com/okian/vigil/internal/domain/types"
	"github.com/okian/vigil/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

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

func row(id string) engine.Input {
	return engine.Input{
		RecordID:    id,
		Aggregates:  stableAggregates(),
		GroundTruth: "A",
		Predictions: []string{"A", "A", "B"},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["locale"], ShouldEqual, locale.EnUS)
			So(svc.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithShardCount(2),
			service.WithEngineOptions(engine.WithLocale("pt-BR")),
		)

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
			So(svc.Engine().Locale(), ShouldEqual, locale.PtBR)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["totalRecords"], ShouldEqual, 0)
				svc.Stop(ctx)
			})

			Convey("And stopping it should mark it as stopped", func() {
				svc.Stop(ctx)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

type failingPredictor struct{ name string }

func (p failingPredictor) Name() string { return p.name }

func (p failingPredictor) Predict(context.Context, []engine.Input) ([]string, error) {
	return nil, errors.New("model offline")
}

// mixedRows holds an aggregates-only row, an already-predicted row and a row
// that needs the ensemble, in that order.
func mixedRows(prefix string) []engine.Input {
	return []engine.Input{
		{RecordID: prefix + "-1", Aggregates: stableAggregates()},
		row(prefix + "-2"),
		{RecordID: prefix + "-3", GroundTruth: "A", Fields: map[string]string{"rf": "A", "svm": "A"}},
	}
}

func brokenEnsemble() *prediction.Ensemble {
	ens, err := prediction.NewEnsemble([]prediction.Predictor{
		prediction.NewColumnPredictor("rf", "rf"),
		prediction.NewColumnPredictor("svm", "svm"),
		failingPredictor{name: "knn"},
	})
	if err != nil {
		panic(err)
	}
	return ens
}

func TestService_Classify(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When classifying valid and invalid rows", func() {
			rows := []engine.Input{row("r-1"), {RecordID: "r-2"}, row("r-3")}
			outs, err := svc.Classify(ctx, rows)

			Convey("Then each row reports its own outcome", func() {
				So(err, ShouldBeNil)
				So(len(outs), ShouldEqual, 3)
				So(outs[0].Err, ShouldBeNil)
				So(outs[0].Result.Recommendation.Replace, ShouldBeTrue)
				So(errors.Is(outs[1].Err, engine.ErrEmptyInput), ShouldBeTrue)
				So(outs[2].Result.RecordID, ShouldEqual, "r-3")
			})
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Classify(cctx, []engine.Input{row("r-1")})

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with a column ensemble", t, func() {
		ens, err := prediction.NewEnsemble([]prediction.Predictor{
			prediction.NewColumnPredictor("rf", "rf"),
			prediction.NewColumnPredictor("svm", "svm"),
			prediction.NewColumnPredictor("knn", "knn"),
		})
		So(err, ShouldBeNil)
		svc := service.New(service.WithEnsemble(ens))

		Convey("When a row has a ground truth but no predictions", func() {
			in := engine.Input{
				RecordID:    "r-1",
				GroundTruth: "A",
				Fields:      map[string]string{"rf": "A", "svm": "A", "knn": "A"},
			}
			outs, err := svc.Classify(context.Background(), []engine.Input{in, row("r-2")})

			Convey("Then the predictions are filled before evaluation", func() {
				So(err, ShouldBeNil)
				So(outs[0].Err, ShouldBeNil)
				So(outs[0].Input.Predictions, ShouldResemble, []string{"A", "A", "A"})
				So(outs[0].Result.Consensus.PerformanceReliability, ShouldEqual, 1)
				So(outs[1].Input.Predictions, ShouldResemble, []string{"A", "A", "B"})
			})
		})
	})

	Convey("Given a service whose ensemble has a failing model", t, func() {
		svc := service.New(service.WithEnsemble(brokenEnsemble()))

		Convey("When classifying rows with and without predictions", func() {
			outs, err := svc.Classify(context.Background(), mixedRows("m"))

			Convey("Then only the row that needed the models fails", func() {
				So(err, ShouldBeNil)
				So(len(outs), ShouldEqual, 3)
				for i, o := range outs {
					So(o.Index, ShouldEqual, i)
				}
				So(outs[0].Err, ShouldBeNil)
				So(outs[0].Result.RecordID, ShouldEqual, "m-1")
				So(outs[1].Err, ShouldBeNil)
				So(outs[1].Result.Recommendation.Replace, ShouldBeTrue)
				So(errors.Is(outs[2].Err, prediction.ErrModelFailed), ShouldBeTrue)
				So(engine.ErrorKind(outs[2].Err), ShouldEqual, engine.KindModelFailed)
				So(outs[2].Err.Error(), ShouldContainSubstring, "m-3")
				So(outs[2].Input.RecordID, ShouldEqual, "m-3")
			})
		})
	})
}

func TestService_Describe(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()

		Convey("When the locale is empty", func() {
			text, err := svc.Describe(locale.KindStatistical, statistical.CodeConsGoodSym, "")

			Convey("Then the engine locale is used", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, svc.Engine().Catalog().Describe(locale.KindStatistical, statistical.CodeConsGoodSym, locale.EnUS))
				So(text, ShouldNotEqual, locale.NotFound)
			})
		})

		Convey("When the code is unknown", func() {
			text, err := svc.Describe(locale.KindConsensus, "nope", "pt-br")

			Convey("Then the not found text is returned", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, locale.NotFound)
			})
		})

		Convey("When the locale is unparsable", func() {
			_, err := svc.Describe(locale.KindAction, "keep", "!!")

			Convey("Then an error is returned", func() {
				So(errors.Is(err, locale.ErrUnknownLocale), ShouldBeTrue)
			})
		})
	})
}

func TestService_SubmitBeforeStart(t *testing.T) {
	Convey("Given a service that was not started", t, func() {
		svc := service.New()

		Convey("When submitting rows", func() {
			_, err := svc.Submit(context.Background(), "", []engine.Input{row("r-1")})

			Convey("Then it should be rejected as closed", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When looking up unknown batches and records", func() {
			_, berr := svc.Batch(context.Background(), "missing")
			_, rerr := svc.Record(context.Background(), "missing")

			Convey("Then not found is reported", func() {
				So(errors.Is(berr, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(rerr, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

// blockingStore holds every Save until release is closed.
type blockingStore struct {
	*repository.ShardedStore
	release chan struct{}
}

func (b *blockingStore) Save(ctx context.Context, rec repository.Record) error {
	<-b.release
	return b.ShardedStore.Save(ctx, rec)
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service with one blocked worker and a tiny queue", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store := &blockingStore{ShardedStore: repository.NewShardedStore(ctx), release: make(chan struct{})}
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithStore(store),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When more rows are submitted than can be held", func() {
			rows := make([]engine.Input, 6)
			for i := range rows {
				rows[i] = row("bp-" + string(rune('a'+i)))
			}
			sub, err := svc.Submit(ctx, "bp", rows)

			Convey("Then the submission stops with backpressure", func() {
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
				So(sub.Accepted, ShouldBeBetweenOrEqual, 1, 3)

				Convey("And the rejected row can be resubmitted", func() {
					close(store.release)
					rejected := rows[sub.Accepted]
					var again error
					accepted := 0
					for i := 0; i < 100; i++ {
						var resub types.Submission
						resub, again = svc.Submit(ctx, "bp", []engine.Input{rejected})
						if again == nil {
							accepted = resub.Accepted
							break
						}
						time.Sleep(10 * time.Millisecond)
					}
					So(again, ShouldBeNil)
					So(accepted, ShouldEqual, 1)
					svc.Stop(ctx)
				})
			})
		})
	})
}
