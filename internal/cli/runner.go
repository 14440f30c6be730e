package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/ui"
)

// Streams are the process stdio, swapped out in tests.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func StdStreams() Streams { return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr} }

// usageError marks bad invocations; they exit with 2 instead of 1.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error { return usageError{msg: fmt.Sprintf(format, a...)} }

// Run executes the command line and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, s Streams) int {
	root, a := newRoot(s)
	defer a.close()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	ui.Fail(s.Err, errorMessage(err))

	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(s.Err, ui.Current().Muted.Render("Hint: run `wishlist --help` for usage"))
		return 2
	}
	return 1
}

// errorMessage prefers what the server said over the transport detail.
func errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Sprintf("%s (%d)", apiErr.Message, apiErr.Status)
		}
		return fmt.Sprintf("request failed with status %d", apiErr.Status)
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return "cannot reach the wishlist server: " + te.Err.Error()
	}
	return err.Error()
}
