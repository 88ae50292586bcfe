package jscheck

import (
	"fmt"

	"github.com/dop251/goja"

	"intelstack/internal/ports"
)

// Checker implements ports.SyntaxChecker by compiling scripts with goja.
// Scripts are parsed only, never executed.
type Checker struct{}

// Ensure Checker implements SyntaxChecker
var _ ports.SyntaxChecker = Checker{}

// New creates a syntax checker
func New() Checker {
	return Checker{}
}

// Check reports a syntax error in content
func (Checker) Check(name string, content []byte) error {
	if _, err := goja.Compile(name, string(content), false); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}
