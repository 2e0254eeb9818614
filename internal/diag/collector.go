package diag

import "errors"

// Collector accumulates diagnostics over many independent units. It is not
// safe for concurrent use; give each goroutine its own collector.
type Collector struct {
	diagnostics []Diagnostic
}

// Run executes fn for unit. A *FormulaError returned by fn is absorbed: its
// diagnostics are recorded under unit and Run returns nil. Any other error
// is returned unchanged.
func (c *Collector) Run(unit string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var fe *FormulaError
	if !errors.As(err, &fe) {
		return err
	}
	c.Add(unit, fe.Diagnostics...)
	return nil
}

// Add records diagnostics under unit.
func (c *Collector) Add(unit string, ds ...Diagnostic) {
	for _, d := range ds {
		if d.Unit == "" {
			d.Unit = unit
		}
		c.diagnostics = append(c.diagnostics, d)
	}
}

// Diagnostics returns everything recorded so far.
func (c *Collector) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// ByUnit groups the recorded diagnostics by unit.
func (c *Collector) ByUnit() map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, d := range c.diagnostics {
		out[d.Unit] = append(out[d.Unit], d)
	}
	return out
}

// Failed reports whether any recorded diagnostic is an error.
func (c *Collector) Failed() bool {
	return HasErrors(c.diagnostics)
}
