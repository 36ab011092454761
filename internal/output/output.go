// Package output switches CLI results between human-readable text and JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONMode controls whether output is JSON or human-readable.
var JSONMode bool

// Stdout and Stderr are swappable for tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// Exit is swappable for tests.
var Exit = os.Exit

// Result wraps every JSON-mode response.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Print outputs data. In JSON mode it marshals the data, otherwise it calls
// the text renderer.
func Print(data interface{}, textFn func()) {
	if JSONMode {
		out, err := json.MarshalIndent(Result{Success: true, Data: data}, "", "  ")
		if err != nil {
			PrintError(err)
			return
		}
		fmt.Fprintln(Stdout, string(out))
		return
	}
	textFn()
}

// PrintError reports a failure and terminates with a non-zero status.
func PrintError(err error) {
	if JSONMode {
		out, _ := json.MarshalIndent(Result{Success: false, Error: err.Error()}, "", "  ")
		fmt.Fprintln(Stdout, string(out))
		Exit(1)
		return
	}
	fmt.Fprintf(Stderr, "Błąd: %v\n", err)
	Exit(1)
}
