package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/skratchdot/open-golang/open"

	"hrsync/engine"
	"hrsync/interfaces"
	"hrsync/symbols"
	"hrsync/util"
	"hrsync/util/env"
	"hrsync/views"
	"hrsync/webui"
)

// include these target drivers:
import (
	_ "hrsync/target/grpclink"
	_ "hrsync/target/mock"
	_ "hrsync/target/retroarch"
	_ "hrsync/target/usbserial"
	_ "hrsync/target/wsbridge"
)

const defaultListenPort = 27637

type options struct {
	listenAddr  string
	browserUrl  string
	configPath  string
	registers   string
	symbols     string
	driver      string
	device      string
	serveGRPC   string
	openBrowser bool
	stats       bool
}

func parseOptions(args []string) (*options, error) {
	o := &options{}

	port, err := strconv.Atoi(env.GetOrDefault("HRSYNC_WEB_LISTEN_PORT", strconv.Itoa(defaultListenPort)))
	if err != nil || port <= 0 {
		port = defaultListenPort
	}
	defaultListen := net.JoinHostPort(env.GetOrDefault("HRSYNC_WEB_LISTEN_HOST", "127.0.0.1"), strconv.Itoa(port))

	fs := flag.NewFlagSet("hrsync", flag.ContinueOnError)
	fs.StringVar(&o.listenAddr, "listen", defaultListen, "address for the web UI to listen on")
	fs.StringVar(&o.configPath, "config", "", "configuration file (default config.json in the user config dir)")
	fs.StringVar(&o.registers, "registers", "", "YAML register table replacing the built-in one")
	fs.StringVar(&o.symbols, "symbols", "", "nm-style symbol file")
	fs.StringVar(&o.driver, "driver", "", "driver to connect with at startup")
	fs.StringVar(&o.device, "device", "", "device id for -driver (default first detected)")
	fs.StringVar(&o.serveGRPC, "serve-grpc", "", "serve a mock target over gRPC on this address")
	fs.BoolVar(&o.openBrowser, "open", false, "open the web UI in a browser")
	fs.BoolVar(&o.stats, "stats", false, "print request statistics on exit")
	if err = fs.Parse(args); err != nil {
		return nil, err
	}
	if o.device != "" && o.driver == "" {
		return nil, fmt.Errorf("-device requires -driver")
	}

	_, listenPort, err := net.SplitHostPort(o.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("bad -listen address: %w", err)
	}
	o.browserUrl = fmt.Sprintf("http://%s/", net.JoinHostPort(env.GetOrDefault("HRSYNC_WEB_BROWSER_HOST", "127.0.0.1"), listenPort))

	if o.configPath == "" {
		if o.configPath, err = engine.DefaultConfigPath(); err != nil {
			log.Printf("hrsync: no configuration directory: %v\n", err)
			o.configPath = ""
		}
	}
	return o, nil
}

func setupLog() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.LUTC)

	dir, err := interfaces.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	ts := time.Now().UTC().Format("2006-01-02T15-04-05")
	f, err := util.OpenLogFile(filepath.Join(dir, "logs"), fmt.Sprintf("hrsync-%s.log", ts))
	if err != nil {
		log.Printf("hrsync: could not open log file: %v\n", err)
		return
	}
	log.SetOutput(util.NewPanicSafeLogger(f))
	log.Printf("hrsync: logging to '%s'\n", f.Name())
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLog()
	defer util.FlushLogger()

	if err = run(o); err != nil {
		log.Printf("hrsync: %v\n", err)
		_ = util.FlushLogger()
		os.Exit(1)
	}
}

func run(o *options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := engine.SessionConfig{ConfigPath: o.configPath}
	if o.registers != "" {
		t, err := views.LoadRegisterTable(o.registers)
		if err != nil {
			return err
		}
		cfg.Panes.Registers = t
	}
	if o.symbols != "" {
		syms, err := symbols.LoadFile(o.symbols)
		if err != nil {
			return err
		}
		cfg.Symbols = symbols.NewTable(syms...)
		log.Printf("hrsync: loaded %d symbols from '%s'\n", len(syms), o.symbols)
	}

	if o.serveGRPC != "" {
		go func() {
			if err := serveMockTarget(ctx, o.serveGRPC); err != nil {
				log.Printf("hrsync: grpc: %v\n", err)
			}
		}()
	}

	session, err := engine.NewSession(cfg)
	if err != nil {
		return err
	}

	// inform viewModel of web server and vice versa:
	webServer := webui.NewWebServer(o.listenAddr)
	session.ViewModel.ProvideViewNotifier(webServer)
	webServer.ProvideViewCommandHandler(session.ViewModel)

	errc := make(chan error, 2)
	go func() {
		errc <- webServer.Serve(ctx)
	}()
	go func() {
		errc <- session.Run(ctx)
	}()

	select {
	case <-session.Ready():
	case err = <-errc:
		return err
	}

	if o.driver != "" {
		if err = session.ViewModel.ConnectTo(o.driver, o.device); err != nil {
			log.Printf("hrsync: %v\n", err)
		}
	}
	if o.openBrowser {
		if err = open.Run(o.browserUrl); err != nil {
			log.Printf("hrsync: could not open browser: %v\n", err)
		}
	}

	// first to finish; the other follows from ctx:
	err = <-errc
	stop()
	if err2 := <-errc; err == nil {
		err = err2
	}

	if o.stats {
		printStats(os.Stdout, session.Controller.Stats())
	}
	return err
}
