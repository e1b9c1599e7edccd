package commands

import "fmt"

// transport runs a pause, next or prev request. Success is silent.
func (d *Dispatcher) transport(verb string, op func() error) string {
	if err := op(); err != nil {
		return d.mediaFailure(verb, err, fmt.Sprintf("Failed to %s!", verb))
	}
	return ""
}
