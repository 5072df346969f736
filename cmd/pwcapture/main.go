// pwcapture captures the screen through the ScreenCast portal and PipeWire
// and writes the raw converted frames to a file or stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"go2tv.app/pwcapture/capture"
	"go2tv.app/pwcapture/internal/config"
	"go2tv.app/pwcapture/internal/logging"
)

type cliFlags struct {
	configPath  string
	output      string
	cursor      bool
	noCrop      bool
	fps         int
	restoreFile string
	duration    time.Duration
}

func main() {
	var flags cliFlags

	root := &cobra.Command{
		Use:           "pwcapture",
		Short:         "Capture the screen via the ScreenCast portal and PipeWire",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}
	addFlags(root.Flags(), &flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pwcapture:", err)
		os.Exit(1)
	}
}

func addFlags(fs *pflag.FlagSet, flags *cliFlags) {
	fs.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVarP(&flags.output, "output", "o", "-", "output file for raw frames, - for stdout")
	fs.BoolVar(&flags.cursor, "cursor", false, "make the cursor visible (default hidden)")
	fs.BoolVar(&flags.noCrop, "nocrop", false, "when capturing a window, keep the empty background")
	fs.IntVar(&flags.fps, "fps", 0, "preferred FPS passed to PipeWire (PipeWire may ignore it)")
	fs.StringVar(&flags.restoreFile, "restore", "", "restore the selected window/display from this token file")
	fs.DurationVar(&flags.duration, "duration", 0, "stop capturing after this long, 0 for unlimited")
}

func run(ctx context.Context, flags cliFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	out, cleanup, err := openOutput(flags.output)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := capture.Open(&capture.Options{
		CursorVisible: cfg.Capture.CursorVisible,
		NoCrop:        !cfg.Capture.Crop,
		FPS:           cfg.Capture.FPS,
		RestoreFile:   cfg.Capture.RestoreFile,
		GrabTimeout:   cfg.Capture.GrabTimeout,
		PoolSize:      cfg.Capture.PoolSize,
		QueueSize:     cfg.Capture.QueueSize,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	if flags.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.Metrics, log)
		})
	}

	g.Go(func() error {
		defer sess.Close()
		return grabLoop(ctx, sess, out, log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func applyFlags(cfg *config.Config, flags cliFlags) {
	if flags.cursor {
		cfg.Capture.CursorVisible = true
	}
	if flags.noCrop {
		cfg.Capture.Crop = false
	}
	if flags.fps > 0 {
		cfg.Capture.FPS = flags.fps
	}
	if flags.restoreFile != "" {
		cfg.Capture.RestoreFile = flags.restoreFile
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// grabLoop pulls converted frames and writes them out until the context
// ends. A grab timeout produces no frame and no error; the loop just tries
// again.
func grabLoop(ctx context.Context, sess *capture.Session, out io.Writer, log *logrus.Logger) error {
	frames := 0
	for {
		select {
		case <-ctx.Done():
			log.WithField("frames", frames).Info("capture finished")
			return ctx.Err()
		default:
		}

		buf, ok := sess.Grab()
		if !ok {
			continue
		}
		if _, err := out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		frames++
	}
}

func serveMetrics(ctx context.Context, cfg config.MetricsConfig, log *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.Addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
