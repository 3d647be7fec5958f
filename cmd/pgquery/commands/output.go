package commands

import (
	"encoding/json"
	"io"

	"github.com/biyonik/pgquery/pkg/database"
	"github.com/fatih/color"
)

// printResult, envelope'u stdout'a yazar. Hata varsa stderr'e kırmızı bir
// özet basar ve ErrResultFailed döner.
func printResult(stdout, stderr io.Writer, res *database.Result) error {
	encoded, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if _, err := stdout.Write(append(encoded, '\n')); err != nil {
		return err
	}

	if res.Error != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(stderr, "✗ %s", res.Error.Message)
		if res.Error.Code != "" {
			red.Fprintf(stderr, " (%s)", res.Error.Code)
		}
		red.Fprintln(stderr)
		if res.Error.Hint != "" {
			color.New(color.FgYellow).Fprintf(stderr, "  hint: %s\n", res.Error.Hint)
		}
		return ErrResultFailed
	}
	return nil
}
