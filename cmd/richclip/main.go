// richclip: a clipboard bridge for X11 and Wayland desktops.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "richclip",
		Short: "Copy and paste rich clipboard content from the command line",
		Long: `richclip bridges stdin/stdout and the desktop clipboard.

"richclip copy" reads a payload from stdin (the framed multi-type format
produced by richclip-aware tools, or raw bytes with -t) and then owns
the clipboard, serving every declared representation to consumers
until another application copies something. "richclip paste" negotiates the
best available representation of the current clipboard and streams it to
stdout.

The backend is picked from the environment: Wayland when WAYLAND_DISPLAY is
set (wlr-data-control), X11 when DISPLAY is set, or the native pasteboard
on macOS and Windows.

All flags can be set via RICHCLIP_<FLAG> env vars or config-file keys
(/etc/richclip/richclip.toml, ~/.config/richclip/richclip.toml, or
--config).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newCopyCmd(),
		newPasteCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("richclip %s\n", Version)
		},
	}
}
