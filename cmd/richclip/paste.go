package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/richclip/internal/backend"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Paste the clipboard content to stdout",
		Long: `Reads the current clipboard and writes one representation to stdout.

Without -t the best text representation is chosen. With -t the named MIME
type must be offered (matched case-insensitively); anything else is an
error. An empty clipboard produces no output and exits 0.

  richclip paste -l                   # list the offered types
  richclip paste -t image/png > shot.png`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	f := cmd.Flags()
	f.BoolP("list-types", "l", false, "list the offered mime-types instead of pasting")
	f.StringP("type", "t", "", "preferred mime-type to paste")
	f.BoolP("primary", "p", false, "use the PRIMARY selection instead of the clipboard")
	addCommonFlags(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	setupLogging(v)

	b, err := backend.New()
	if err != nil {
		return err
	}
	slog.Debug("backend selected", "backend", b.Name())

	return b.Paste(backend.PasteConfig{
		ListTypesOnly: v.GetBool("list-types"),
		UsePrimary:    v.GetBool("primary"),
		Preferred:     v.GetString("type"),
		Out:           os.Stdout,
	})
}
