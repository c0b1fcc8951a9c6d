package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/richclip/internal/backend"
	"go.klb.dev/richclip/internal/protocol"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Receive data on stdin and copy it to the clipboard",
		Long: `Reads a payload from stdin and takes ownership of the clipboard.

Without -t, stdin carries the framed multi-type format: several
representations of one clipboard entry, each under one or more MIME-type
aliases. With one or more -t flags, stdin is raw content and the flags name
its types.

On X11 and Wayland the process must stay alive to serve consumers, so it
detaches into the background by default; --foreground keeps it attached.
It exits when another application takes the clipboard.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	f := cmd.Flags()
	f.BoolP("primary", "p", false, "use the PRIMARY selection instead of the clipboard")
	f.Bool("foreground", false, "serve the clipboard in the foreground instead of detaching")
	f.StringSliceP("type", "t", nil, "MIME type of the raw stdin data (repeatable; disables framing)")
	f.Int("chunk-size", 0, "override the X11 INCR chunk size")
	_ = f.MarkHidden("chunk-size")
	addCommonFlags(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	setupLogging(v)

	types := v.GetStringSlice("type")
	var (
		src protocol.SourceData
		err error
	)
	if len(types) > 0 {
		src, err = protocol.DecodeOneShot(os.Stdin, types)
	} else {
		src, err = protocol.DecodeBulk(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if len(src) == 0 {
		slog.Debug("empty payload, nothing to copy")
		return nil
	}

	cfg := backend.CopyConfig{
		Source:     src,
		UsePrimary: v.GetBool("primary"),
		ChunkSize:  v.GetInt("chunk-size"),
	}

	if !v.GetBool("foreground") && canDetach {
		// The payload is decoded (and validated) before detaching so
		// malformed input still fails loudly; the child gets it re-framed
		// on its stdin.
		return detach(cfg)
	}

	b, err := backend.New()
	if err != nil {
		return err
	}
	slog.Debug("backend selected", "backend", b.Name())
	return b.Copy(cfg)
}
