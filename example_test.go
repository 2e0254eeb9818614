package formula_test

import (
	"fmt"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/mssql"
	"github.com/zoobzio/formula/postgres"
)

func Example() {
	engine := formula.MustNewEngine()

	tree := nodes.NewOperator(">", nodes.NewField("age"), nodes.Integer(21))
	env := formula.Env{Types: map[string]formula.DataType{"age": datatype.Integer}}

	for _, d := range []formula.Combo{postgres.Family.Latest(), mssql.Family.Latest()} {
		res, err := engine.Compile(formula.Request{Formula: tree, Dialect: d, Env: env})
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(res.SQL)
	}
	// Output:
	// ("age" > 21)
	// CASE WHEN ([age] > 21) THEN 1 ELSE 0 END
}

func ExampleEngine_RenderLiteral() {
	engine := formula.MustNewEngine()

	sql, err := engine.RenderLiteral(mssql.Family.Latest(), datatype.String, "café")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(sql)
	// Output: N'café'
}
