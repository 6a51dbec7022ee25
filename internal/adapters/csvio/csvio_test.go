package csvio_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/okian/vigil/internal/adapters/csvio"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/recommend"
	"github.com/okian/vigil/internal/domain/statistical"
	. "github.com/smartystreets/goconvey/convey"
)

const input = `record_id,group,ground_truth,prediction_1,prediction_2,prediction_3,count,avg,median,stddev,sum,max,min,extra
r-1,north,A,A,A,B,60,1,1,0.05,60,1.1,0.9,x
r-2,south,,,,,10,,2,0.5,20,3,1,y
,east,B,B,B,B,abc,1,1,0.05,60,1.1,0.9,z
`

func TestReader(t *testing.T) {
	Convey("Given a CSV with default headers", t, func() {
		rows, err := csvio.NewReader(strings.NewReader(input)).ReadAll()
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 3)

		Convey("Then identity and predictions are decoded", func() {
			So(rows[0].RecordID, ShouldEqual, "r-1")
			So(rows[0].Group, ShouldEqual, "north")
			So(rows[0].GroundTruth, ShouldEqual, "A")
			So(rows[0].Predictions, ShouldResemble, []string{"A", "A", "B"})
			So(rows[0].Fields["extra"], ShouldEqual, "x")
		})

		Convey("Then aggregates are decoded and empty cells left out", func() {
			So(rows[0].Aggregates[model.FieldCount], ShouldEqual, 60)
			So(rows[0].Aggregates[model.FieldStdDev], ShouldEqual, 0.05)
			_, ok := rows[1].Aggregates[model.FieldAvg]
			So(ok, ShouldBeFalse)
			So(rows[1].HasPredictions(), ShouldBeFalse)
		})

		Convey("Then blank IDs are numbered and bad numbers become NaN", func() {
			So(rows[2].RecordID, ShouldEqual, "row-3")
			So(math.IsNaN(rows[2].Aggregates[model.FieldCount]), ShouldBeTrue)
		})
	})

	Convey("Given custom columns and separator", t, func() {
		cols := csvio.Columns{
			ID:          "nf",
			GroundTruth: "status",
			Predictions: [model.ModelCount]string{"m1", "m2", "m3"},
		}
		r := csvio.NewReader(strings.NewReader("nf;status;m1;m2;m3\n7;ok;ok;bad;ok\n"), csvio.WithColumns(cols), csvio.WithComma(';'))

		in, err := r.Read()
		So(err, ShouldBeNil)
		So(in.RecordID, ShouldEqual, "7")
		So(in.Predictions, ShouldResemble, []string{"ok", "bad", "ok"})
		So(in.HasAggregates(), ShouldBeFalse)

		_, err = r.Read()
		So(errors.Is(err, io.EOF), ShouldBeTrue)
	})

	Convey("Given malformed headers", t, func() {
		_, err := csvio.NewReader(strings.NewReader("")).Read()
		So(errors.Is(err, csvio.ErrEmptyHeader), ShouldBeTrue)

		_, err = csvio.NewReader(strings.NewReader("id,group\n1,a\n")).Read()
		So(errors.Is(err, csvio.ErrMissingColumn), ShouldBeTrue)
	})
}

func TestWriter(t *testing.T) {
	Convey("Given outcomes of a batch", t, func() {
		combined := 11.5
		ok := engine.Outcome{
			Input: engine.Input{RecordID: "r-1", Group: "north"},
			Result: engine.RowResult{
				RecordID:    "r-1",
				Statistical: &statistical.Result{WeightScore: 5, Code: statistical.CodeConsGoodSym, Description: "Good"},
				Consensus: &model.ConsensusFeatures{
					ConsensusCount:         3,
					ModelAgreement:         3,
					Trend:                  model.TrendConsistent,
					Relationship:           model.RelationshipClear,
					PerformanceReliability: 1,
					ModelAccuracy:          [model.ModelCount]float64{1, 1, 1},
				},
				ML:             &model.ClassificationResult{WeightScore: 5, Code: "strong"},
				Recommendation: &recommend.Recommendation{ActionCode: recommend.ActionKeepCurrent, Action: "Keep"},
				CombinedScore:  &combined,
			},
		}
		bad := engine.Outcome{Index: 1, Input: engine.Input{RecordID: "r-2"}, Err: engine.ErrEmptyInput}

		var buf bytes.Buffer
		So(csvio.NewWriter(&buf).WriteAll([]engine.Outcome{ok, bad}), ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

		Convey("Then a semicolon header precedes every row", func() {
			So(len(lines), ShouldEqual, 3)
			So(lines[0], ShouldEqual, strings.Join(csvio.ResultHeader, ";"))
		})

		Convey("Then result fields are written", func() {
			So(lines[1], ShouldStartWith, "r-1;north;;cons_good_sym;5;Good;3;3;Consistent Trend;Clear Relationship;1;1;1;1;5;strong;;false;keep_current;Keep;11.5;;")
		})

		Convey("Then failed rows carry the error kind", func() {
			So(lines[2], ShouldEndWith, ";"+engine.KindEmptyInput)
		})
	})

	Convey("Given an empty batch", t, func() {
		var buf bytes.Buffer
		So(csvio.NewWriter(&buf).Flush(), ShouldBeNil)
		So(strings.TrimSpace(buf.String()), ShouldEqual, strings.Join(csvio.ResultHeader, ";"))
	})
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestCompression(t *testing.T) {
	Convey("Given a gzip name", t, func() {
		So(csvio.IsGzip("rows.csv.GZ"), ShouldBeTrue)
		So(csvio.IsGzip("rows.csv"), ShouldBeFalse)

		var buf bytes.Buffer
		w := csvio.WrapWriter("out.csv.gz", nopCloser{&buf})
		_, err := io.WriteString(w, input)
		So(err, ShouldBeNil)
		So(w.Close(), ShouldBeNil)
		So(buf.String(), ShouldNotContainSubstring, "record_id")

		Convey("Then the stream round-trips through the reader", func() {
			rc, err := csvio.WrapReader("out.csv.gz", &buf)
			So(err, ShouldBeNil)
			defer rc.Close()

			rows, err := csvio.NewReader(rc).ReadAll()
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 3)
		})
	})

	Convey("Given a plain name", t, func() {
		rc, err := csvio.WrapReader("in.csv", strings.NewReader(input))
		So(err, ShouldBeNil)
		body, err := io.ReadAll(rc)
		So(err, ShouldBeNil)
		So(string(body), ShouldEqual, input)
		So(rc.Close(), ShouldBeNil)
	})

	Convey("Given a corrupt gzip stream", t, func() {
		_, err := csvio.WrapReader("in.csv.gz", strings.NewReader("plain text"))
		So(err, ShouldNotBeNil)
	})
}
