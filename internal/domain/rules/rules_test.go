package rules_test

import (
	"testing"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable_Evaluate(t *testing.T) {
	Convey("Given a table whose rules overlap", t, func() {
		table := rules.NewTable(
			rules.Outcome{Code: "none", Score: 0},
			rules.Rule[int]{Code: "big", Score: 1, Match: func(n int) bool { return n > 10 }},
			rules.Rule[int]{Code: "bigger", Score: 100, Match: func(n int) bool { return n > 100 }},
			rules.Rule[int]{Code: "negative", Score: -1, Label: model.LabelBad, Match: func(n int) bool { return n < 0 }},
		)

		Convey("When several predicates hold", func() {
			out := table.Evaluate(500)

			Convey("Then the first declared rule wins regardless of score", func() {
				So(out.Code, ShouldEqual, "big")
				So(out.Position, ShouldEqual, 1)
				So(table.Matches(500), ShouldResemble, []int{1, 2})
			})
		})

		Convey("When a later rule is the only match", func() {
			out := table.Evaluate(-3)

			Convey("Then its outcome and label are returned", func() {
				So(out.Code, ShouldEqual, "negative")
				So(out.Label, ShouldEqual, model.LabelBad)
				So(out.Position, ShouldEqual, 3)
				So(out.Fallback(), ShouldBeFalse)
			})
		})

		Convey("When nothing matches", func() {
			out := table.Evaluate(5)

			Convey("Then the fallback is returned at position zero", func() {
				So(out.Code, ShouldEqual, "none")
				So(out.Fallback(), ShouldBeTrue)
			})
		})

		Convey("When the caller mutates the copy returned by Rules", func() {
			rs := table.Rules()
			rs[0].Code = "tampered"

			Convey("Then the table is unaffected", func() {
				So(table.Evaluate(50).Code, ShouldEqual, "big")
				So(table.Len(), ShouldEqual, 3)
			})
		})
	})
}

func TestTable_NilPredicate(t *testing.T) {
	Convey("Given a rule without a predicate", t, func() {
		table := rules.NewTable(rules.Outcome{Code: "fallback"}, rules.Rule[string]{Code: "broken"})

		Convey("Then it never matches", func() {
			So(table.Evaluate("x").Code, ShouldEqual, "fallback")
		})
	})
}
