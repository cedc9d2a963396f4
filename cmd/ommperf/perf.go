package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/omm/internal/config"
	"github.com/danmuck/omm/internal/observability"
	"github.com/danmuck/omm/internal/omm"
)

type perfOptions struct {
	configPath  string
	count       int
	fields      int
	metricsAddr string
}

// result is one run of the encode/decode loop.
type result struct {
	Messages int
	Bytes    int
	Encode   time.Duration
	Decode   time.Duration
}

func (r result) rate(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(r.Messages) / d.Seconds()
}

func newRootCmd() *cobra.Command {
	var o perfOptions
	cmd := &cobra.Command{
		Use:           "ommperf",
		Short:         "Encode and decode update messages through a pooled manager",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.count <= 0 || o.fields <= 0 {
				return errors.New("--count and --fields must be positive")
			}
			opts := omm.DefaultOptions()
			if o.configPath != "" {
				cfg, err := config.LoadCodecConfig(o.configPath)
				if err != nil {
					return err
				}
				if opts, err = cfg.Options(); err != nil {
					return err
				}
			}
			m := omm.NewManager(opts)
			if o.metricsAddr != "" {
				observability.RegisterMetrics()
			}
			res, err := run(m, o.count, o.fields)
			if err != nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "ommperf: %v\n", err)
				return err
			}
			report(cmd.OutOrStdout(), m, res)
			if o.metricsAddr != "" {
				return serveMetrics(cmd.Context(), o.metricsAddr)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", "", "codec config file (toml or yaml)")
	flags.IntVar(&o.count, "count", 100000, "messages to encode and decode")
	flags.IntVar(&o.fields, "fields", 10, "fields per message")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics here after the run until interrupted")
	return cmd
}

// run encodes count update messages with a field list payload, then decodes
// each one and walks its fields.
func run(m *omm.Manager, count, fields int) (result, error) {
	res := result{Messages: count}
	encoded := make([][]byte, count)

	start := time.Now()
	for i := range count {
		b, err := encodeOne(m, int32(i), fields)
		if err != nil {
			return res, errors.Wrapf(err, "encode message %d", i)
		}
		encoded[i] = b
		res.Bytes += len(b)
	}
	res.Encode = time.Since(start)

	start = time.Now()
	for i, b := range encoded {
		d := m.DecodeMsg(b)
		upd, ok := d.(*omm.UpdateMsg)
		if !ok {
			return res, errors.Errorf("message %d decoded as %s", i, d.DataType())
		}
		fl, ok := upd.Payload().(*omm.FieldList)
		if !ok || fl.Len() != fields {
			return res, errors.Errorf("message %d payload mismatch", i)
		}
		for _, e := range fl.All() {
			if _, failed := e.ErrorCode(); failed {
				return res, errors.Errorf("message %d field %d failed to decode", i, e.FieldID())
			}
		}
		if err := m.Release(d); err != nil {
			return res, err
		}
	}
	res.Decode = time.Since(start)
	log.Debug().Int("messages", count).Dur("encode", res.Encode).Dur("decode", res.Decode).Msg("perf run done")
	return res, nil
}

func encodeOne(m *omm.Manager, streamID int32, fields int) ([]byte, error) {
	d, err := m.Acquire(omm.TypeFieldList)
	if err != nil {
		return nil, err
	}
	fl := d.(*omm.FieldList)
	defer func() { _ = m.Release(fl) }()
	for fid := 1; fid <= fields; fid++ {
		var v omm.Data = omm.NewUInt(uint64(streamID) * uint64(fid))
		if fid%2 == 0 {
			v = omm.NewAscii(fmt.Sprintf("F%d", fid))
		}
		if err := fl.Add(int16(fid), v); err != nil {
			return nil, err
		}
	}

	md, err := m.Acquire(omm.TypeUpdateMsg)
	if err != nil {
		return nil, err
	}
	msg := md.(*omm.UpdateMsg)
	defer func() { _ = m.Release(msg) }()
	msg.SetStreamID(streamID)
	msg.SetDomain(omm.DomainMarketPrice)
	msg.SetSeqNum(uint32(streamID))
	if err := msg.SetPayload(fl); err != nil {
		return nil, err
	}
	b, err := msg.Complete()
	if err != nil {
		return nil, err
	}
	// The message buffer goes back to the pool on release.
	return append([]byte(nil), b...), nil
}

func report(w io.Writer, m *omm.Manager, r result) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %d messages, %d bytes\n", bold("ommperf:"), r.Messages, r.Bytes)
	fmt.Fprintf(w, "  encode %v (%.0f msg/s)\n", r.Encode, r.rate(r.Encode))
	fmt.Fprintf(w, "  decode %v (%.0f msg/s)\n", r.Decode, r.rate(r.Decode))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POOL\tLIVE\tFREE\tHITS\tMISSES")
	for _, s := range m.Stats() {
		if s.Hits == 0 && s.Misses == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.Name, s.Live, s.Free, s.Hits, s.Misses)
	}
	_ = tw.Flush()
}

func serveMetrics(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
