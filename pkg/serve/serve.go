// Package serve implements the render host subprogram.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"src.guictl.dev/pkg/config"
	"src.guictl.dev/pkg/dashboard"
	"src.guictl.dev/pkg/env"
	"src.guictl.dev/pkg/host"
	"src.guictl.dev/pkg/logutil"
	"src.guictl.dev/pkg/prog"
	"src.guictl.dev/pkg/toolkit/headless"
	"src.guictl.dev/pkg/transport"
)

var logger = logutil.GetLogger("[serve] ")

// Program is the render host subprogram.
type Program struct {
	run      bool
	config   string
	template string
	endpoint *prog.Endpoint
	// Used in tests.
	opts Opts
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "serve", false, "run a render host")
	fs.StringVar(&p.config, "config", "",
		"path to the host configuration file; defaults to $"+env.GUICTL_CONFIG)
	fs.StringVar(&p.template, "template", "",
		"path to the widget template; overrides the configuration file")
	p.endpoint = fs.Endpoint()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.NextProgram()
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -serve")
	}

	cfg, err := loadConfig(p.config)
	if err != nil {
		return err
	}
	if p.template != "" {
		cfg.Template = p.template
	}
	ep := p.endpoint.Resolve(cfg.Network, cfg.Address)
	cfg.Network, cfg.Address = ep.Network, ep.Addr

	tpl := headless.DefaultTemplate()
	if cfg.Template != "" {
		tpl, err = headless.LoadTemplate(cfg.Template)
		if err != nil {
			return fmt.Errorf("cannot load template: %w", err)
		}
	}
	return Serve(fds, cfg, tpl, p.opts)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(env.GUICTL_CONFIG)
	}
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load configuration: %w", err)
	}
	return cfg, nil
}

// Opts keeps options that can be passed to Serve.
type Opts struct {
	// If not nil, will be closed when the host is ready to accept clients.
	Ready chan<- struct{}
	// Causes the host to stop if closed or sent any data. If nil, Serve will
	// set up its own signal channel by listening to SIGINT and SIGTERM.
	Signals <-chan os.Signal
	// If not nil, called with the toolkit before the host starts.
	Toolkit func(*headless.Toolkit)
}

// Serve runs a render host for a headless toolkit built from tpl, until a
// client asks it to close or a signal is received.
//
// The dashboard is drawn on stdout if it is enabled by cfg and stdout is a
// terminal.
func Serve(fds [3]*os.File, cfg *config.Config, tpl *headless.Template, opts Opts) error {
	tk, err := headless.New(tpl)
	if err != nil {
		return fmt.Errorf("bad template: %w", err)
	}
	if opts.Toolkit != nil {
		opts.Toolkit(tk)
	}

	logger.Println("pid is", os.Getpid())
	logger.Println("going to listen", cfg.Network, cfg.Address)
	l, err := transport.Listen(cfg.Network, cfg.Address)
	if err != nil {
		return fmt.Errorf("cannot listen on %s %s: %w", cfg.Network, cfg.Address, err)
	}

	h := host.New(tk, host.Options{
		TickInterval: cfg.TickInterval,
		MaxQueue:     cfg.MaxQueue,
		MaxRetries:   cfg.MaxRetries,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Closes the listener and all connections.
	h.OnStop(cancel)

	if cfg.Dashboard && dashboard.Enabled(fds[1]) {
		h.AfterTick(dashboard.New(fds[1], tk).Draw)
	} else {
		fmt.Fprintf(fds[1], "serving %q on %s %s\n", tk.Title(), cfg.Network, l.Addr())
	}

	serveErrCh := make(chan error, 1)
	go func() {
		err := transport.NewServer(h.Methods(), logger).Serve(ctx, l)
		if err != nil {
			h.Stop()
		}
		serveErrCh <- err
	}()

	sigCh := opts.Signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(ch)
		sigCh = ch
	}
	go func() {
		select {
		case sig := <-sigCh:
			logger.Printf("received signal %v", sig)
			h.Stop()
		case <-ctx.Done():
		}
	}()

	if opts.Ready != nil {
		close(opts.Ready)
	}
	h.Run(ctx)
	logger.Println("host stopped after", h.Ticks(), "ticks")
	return <-serveErrCh
}
