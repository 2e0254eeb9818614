// Package schema builds a compile environment from a DBML project.
package schema

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/internal/datatype"
)

// Schema indexes the tables and columns of a DBML project.
type Schema struct {
	project *dbml.Project
	// Internal indexes for fast lookup
	tables map[string]*dbml.Table
	fields map[string]map[string]*dbml.Column // table -> field -> column
	owners map[string][]string                // column -> tables defining it
}

// New indexes project.
func New(project *dbml.Project) (*Schema, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}

	s := &Schema{
		project: project,
		tables:  make(map[string]*dbml.Table),
		fields:  make(map[string]map[string]*dbml.Column),
		owners:  make(map[string][]string),
	}
	for _, table := range project.Tables {
		if _, dup := s.tables[table.Name]; dup {
			return nil, fmt.Errorf("table '%s' defined twice", table.Name)
		}
		s.tables[table.Name] = table
		s.fields[table.Name] = make(map[string]*dbml.Column)
		for _, col := range table.Columns {
			s.fields[table.Name][col.Name] = col
			s.owners[col.Name] = append(s.owners[col.Name], table.Name)
		}
	}
	return s, nil
}

// Env returns the environment for every column of the project. Each column
// is available as "table.column"; a column name defined by a single table
// is also available unqualified. Field references are restricted to the
// schema.
func (s *Schema) Env() formula.Env {
	env := formula.Env{
		Types:          make(map[string]formula.DataType),
		Names:          make(formula.FieldNames),
		RestrictFields: true,
	}
	for _, table := range s.project.Tables {
		for _, col := range table.Columns {
			typ := ColumnType(col.Type)
			qualified := table.Name + "." + col.Name
			env.Types[qualified] = typ
			env.Names[qualified] = []string{table.Name, col.Name}
			if len(s.owners[col.Name]) == 1 {
				env.Types[col.Name] = typ
				env.Names[col.Name] = []string{table.Name, col.Name}
			}
		}
	}
	return env
}

// Table returns the environment of a single table with unqualified field
// names.
func (s *Schema) Table(name string) (formula.Env, error) {
	table, ok := s.tables[name]
	if !ok {
		return formula.Env{}, fmt.Errorf("table '%s' not found in schema", name)
	}
	env := formula.Env{
		Types:          make(map[string]formula.DataType, len(table.Columns)),
		Names:          make(formula.FieldNames, len(table.Columns)),
		RestrictFields: true,
	}
	for _, col := range table.Columns {
		env.Types[col.Name] = ColumnType(col.Type)
		env.Names[col.Name] = []string{table.Name, col.Name}
	}
	return env, nil
}

// Column looks up a column by its table and name.
func (s *Schema) Column(table, column string) (*dbml.Column, bool) {
	col, ok := s.fields[table][column]
	return col, ok
}

// FromDBML indexes project and returns its full environment.
func FromDBML(project *dbml.Project) (formula.Env, error) {
	s, err := New(project)
	if err != nil {
		return formula.Env{}, err
	}
	return s.Env(), nil
}

var columnTypes = map[string]formula.DataType{
	"bigint":      datatype.Integer,
	"int":         datatype.Integer,
	"int2":        datatype.Integer,
	"int4":        datatype.Integer,
	"int8":        datatype.Integer,
	"integer":     datatype.Integer,
	"smallint":    datatype.Integer,
	"tinyint":     datatype.Integer,
	"serial":      datatype.Integer,
	"bigserial":   datatype.Integer,
	"numeric":     datatype.Float,
	"decimal":     datatype.Float,
	"real":        datatype.Float,
	"float":       datatype.Float,
	"float4":      datatype.Float,
	"float8":      datatype.Float,
	"double":      datatype.Float,
	"money":       datatype.Float,
	"varchar":     datatype.String,
	"nvarchar":    datatype.String,
	"char":        datatype.String,
	"nchar":       datatype.String,
	"text":        datatype.String,
	"string":      datatype.String,
	"citext":      datatype.String,
	"bool":        datatype.Boolean,
	"boolean":     datatype.Boolean,
	"bit":         datatype.Boolean,
	"date":        datatype.Date,
	"timestamp":   datatype.Datetime,
	"datetime":    datatype.Datetime,
	"datetime2":   datatype.Datetime,
	"timestamptz": datatype.DatetimeTZ,
	"uuid":        datatype.UUID,
	"point":       datatype.Geopoint,
	"polygon":     datatype.Geopolygon,
	"ltree":       datatype.TreeStr,
}

// ColumnType maps a DBML column type to a formula type. Length and
// precision arguments are ignored; T[] maps to the array of T where one
// exists. Anything else is Unsupported.
func ColumnType(dbType string) formula.DataType {
	t := strings.ToLower(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		if j := strings.LastIndexByte(t, ')'); j > i {
			t = t[:i] + t[j+1:]
		} else {
			t = t[:i]
		}
	}
	t = strings.TrimSpace(t)
	switch t {
	case "double precision":
		return datatype.Float
	case "character varying":
		return datatype.String
	case "timestamp with time zone":
		return datatype.DatetimeTZ
	case "timestamp without time zone":
		return datatype.Datetime
	}
	if item, ok := strings.CutSuffix(t, "[]"); ok {
		return datatype.ArrayOf(ColumnType(item))
	}
	if typ, ok := columnTypes[t]; ok {
		return typ
	}
	return datatype.Unsupported
}
