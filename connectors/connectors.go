// Package connectors lists every shipped dialect connector in load order.
package connectors

import (
	"github.com/zoobzio/formula/bigquery"
	"github.com/zoobzio/formula/clickhouse"
	"github.com/zoobzio/formula/internal/connector"
	"github.com/zoobzio/formula/mariadb"
	"github.com/zoobzio/formula/mssql"
	"github.com/zoobzio/formula/postgres"
	"github.com/zoobzio/formula/sqlite"
)

// All returns the shipped connectors. Overrides run in this order.
func All() []connector.Connector {
	return []connector.Connector{
		postgres.Connector(),
		mssql.Connector(),
		mariadb.Connector(),
		sqlite.Connector(),
		clickhouse.Connector(),
		bigquery.Connector(),
	}
}

// Names returns the family names of All, in order.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = c.Name()
	}
	return out
}

// ByName returns the shipped connectors whose family names are listed.
func ByName(names ...string) ([]connector.Connector, bool) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []connector.Connector
	for _, c := range All() {
		if want[c.Name()] {
			out = append(out, c)
			delete(want, c.Name())
		}
	}
	return out, len(want) == 0
}
