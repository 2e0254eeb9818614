package render

// TimezoneSupport indicates how a dialect can express timezone-aware datetimes.
type TimezoneSupport int

const (
	TimezoneNone   TimezoneSupport = iota // Normalize to UTC, emit naive datetime
	TimezoneOffset                        // Literal carries a numeric offset
	TimezoneNamed                         // Constructor takes a named zone
)

// Features describes the expression-level capabilities of a dialect.
type Features struct {
	NativeBoolean    bool            // TRUE/FALSE usable as values and predicates
	NativeArrays     bool            // Array constructors and array-typed columns
	WideStrings      bool            // Separate literal type for non-ASCII strings
	WindowFunctions  bool            // OVER (...)
	QualifiedColumns bool            // table.column references
	Timezones        TimezoneSupport // Timezone-aware datetime literals
}

// ANSI is the baseline feature set assumed when a dialect does not register
// its own.
var ANSI = Features{
	NativeBoolean:    true,
	WindowFunctions:  true,
	QualifiedColumns: true,
	Timezones:        TimezoneOffset,
}
