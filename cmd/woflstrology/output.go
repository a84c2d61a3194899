package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printMarkdown styles md for the terminal unless --plain is set or stdout
// is redirected.
func printMarkdown(w io.Writer, md string) error {
	if plain || w != os.Stdout || !isTerminal(os.Stdout) {
		_, err := fmt.Fprintln(w, md)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var out string
		if out, err = renderer.Render(md); err == nil {
			_, err = fmt.Fprint(w, out)
			return err
		}
	}
	logger.Debug("glamour render failed, printing raw markdown", zap.Error(err))
	_, err = fmt.Fprintln(w, md)
	return err
}
