package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/omm/internal/config"
	"github.com/danmuck/omm/internal/dictionary"
	"github.com/danmuck/omm/internal/omm"
	"github.com/danmuck/omm/internal/protocol/frame"
	"github.com/danmuck/omm/internal/protocol/wire"
)

type dumpOptions struct {
	configPath string
	dictPath   string
	hexMsg     string
	noColor    bool
	maxPayload uint64
}

func newRootCmd() *cobra.Command {
	var o dumpOptions
	cmd := &cobra.Command{
		Use:   "ommdump [file]",
		Short: "Decode framed OMM messages and print them as a tree",
		Long: `ommdump reads frames from a file (or stdin), decodes the message in each
frame with the protocol version the frame carries, and prints it as an
indented tree. With --hex a single unframed message is decoded instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := o.manager()
			if err != nil {
				return report(cmd, err)
			}
			style := o.style()
			out := cmd.OutOrStdout()
			if o.hexMsg != "" {
				return report(cmd, dumpHex(out, m, o.hexMsg, style))
			}
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return report(cmd, errors.Wrap(err, "open input"))
				}
				defer f.Close()
				in = f
			}
			n, err := dumpFrames(out, in, m, frame.Limits{MaxPayloadBytes: o.maxPayload}, style)
			log.Debug().Int("frames", n).Msg("dump finished")
			return report(cmd, err)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", "", "codec config file (toml or yaml)")
	flags.StringVar(&o.dictPath, "dict", "", "field dictionary (toml); overrides the config's")
	flags.StringVar(&o.hexMsg, "hex", "", "decode one unframed message given as hex")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	flags.Uint64Var(&o.maxPayload, "max-payload", frame.DefaultLimits().MaxPayloadBytes, "largest frame payload accepted")
	return cmd
}

func (o dumpOptions) manager() (*omm.Manager, error) {
	opts := omm.DefaultOptions()
	if o.configPath != "" {
		cfg, err := config.LoadCodecConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		if opts, err = cfg.Options(); err != nil {
			return nil, err
		}
	}
	if o.dictPath != "" {
		dict, err := dictionary.LoadFile(o.dictPath)
		if err != nil {
			return nil, err
		}
		opts.Dictionary = dict
	}
	return omm.NewManager(opts), nil
}

func (o dumpOptions) style() omm.Style {
	if o.noColor || color.NoColor {
		return omm.Style{}
	}
	return omm.Style{
		Label: color.New(color.FgCyan, color.Bold).SprintFunc(),
		Key:   color.New(color.FgYellow).SprintFunc(),
		Value: color.New(color.FgGreen).SprintFunc(),
		Error: color.New(color.FgRed, color.Bold).SprintFunc(),
	}
}

func dumpHex(w io.Writer, m *omm.Manager, s string, style omm.Style) error {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return errors.Wrap(err, "parse --hex")
	}
	d := m.DecodeMsg(b)
	defer func() { _ = m.Release(d) }()
	_, err = io.WriteString(w, omm.Render(d, style))
	return err
}

// dumpFrames prints every frame in r and returns how many it printed.
func dumpFrames(w io.Writer, r io.Reader, m *omm.Manager, limits frame.Limits, style omm.Style) (int, error) {
	n := 0
	for {
		f, err := frame.ReadFrame(r, limits)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, errors.Wrapf(err, "frame %d", n)
		}
		d := m.DecodeVersion(wire.TypeMsg, f.Payload, f.Header.Version())
		if _, err := fmt.Fprintf(w, "# frame %d (%d bytes, version %s)\n", n, len(f.Payload), f.Header.Version()); err != nil {
			return n, err
		}
		if _, err := io.WriteString(w, omm.Render(d, style)); err != nil {
			return n, err
		}
		if err := m.Release(d); err != nil {
			return n, err
		}
		n++
	}
}

func report(cmd *cobra.Command, err error) error {
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(cmd.ErrOrStderr(), "ommdump: %v\n", err)
	}
	return err
}
