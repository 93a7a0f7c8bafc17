package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/boriwo/cmdpix/internal/config"
	"github.com/boriwo/cmdpix/internal/monitor"
	"github.com/boriwo/cmdpix/internal/preview"
	"github.com/boriwo/cmdpix/internal/term"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	tty "golang.org/x/term"
)

const (
	windowScale     = 4
	shutdownTimeout = 2 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Default()
	if err := cfg.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	cols, rows := terminalSize(os.Stdout)
	player := NewPlayer(cfg, log, os.Stdout, cols, rows)

	if cfg.MonitorAddr != "" {
		hub := monitor.NewHub(log)
		srv, err := monitor.Listen(cfg.MonitorAddr, monitor.NewRouter(hub, player.Stats), log)
		if err != nil {
			log.Error().Err(err).Msg("monitor")
			return 1
		}
		player.hub = hub
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("monitor shutdown")
			}
		}()
	}

	cancel := term.StopOnSignal(func(sig os.Signal) {
		log.Info().Str("signal", sig.String()).Msg("stopping, send again to quit")
		player.Stop()
	}, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	play := func() error {
		if cfg.Image != "" {
			return player.PlayImage(cfg.Image)
		}
		return player.PlayVideo(cfg.File)
	}

	if cfg.Window {
		err = playWithWindow(player, cfg, play)
	} else {
		err = play()
	}
	if err != nil {
		log.Error().Err(err).Msg("playback failed")
		return 1
	}
	return 0
}

// playWithWindow runs play in the background while the window owns the main
// goroutine. Closing the window stops playback.
func playWithWindow(player *Player, cfg *config.Config, play func() error) error {
	w := preview.NewWindow(windowScale)
	player.window = w
	errc := make(chan error, 1)
	go func() {
		err := play()
		if cfg.Image == "" {
			w.Finish()
		}
		errc <- err
	}()
	p := cfg.Policy(0)
	werr := w.Run(p.MaxSize, int(float64(p.MaxSize)*9/16))
	player.Stop()
	if err := <-errc; err != nil {
		return err
	}
	return werr
}

func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closer := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, errors.Wrap(err, "open log file")
		}
		out = f
		closer = func() { f.Close() }
	}
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: cfg.LogFile != ""}
	return zerolog.New(cw).Level(cfg.Level()).With().Timestamp().Logger(), closer, nil
}

// terminalSize returns the drawable cells of f, keeping the last row for the
// status line. Zero when f is not a terminal.
func terminalSize(f *os.File) (cols, rows int) {
	fd := int(f.Fd())
	if !tty.IsTerminal(fd) {
		return 0, 0
	}
	w, h, err := tty.GetSize(fd)
	if err != nil {
		return 0, 0
	}
	return w, max(h-1, 0)
}
