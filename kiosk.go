package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"deedles.dev/wlr"
	"github.com/kioskwm/kiosk/config"
	"github.com/sirupsen/logrus"
)

const version = "0.1.0"

type options struct {
	help       bool
	version    bool
	configPath string
	command    []string
}

func parseArgs(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("kiosk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.BoolVar(&opts.help, "h", false, "display this help message")
	fs.BoolVar(&opts.version, "v", false, "show the version number and exit")
	fs.StringVar(&opts.configPath, "c", "", "path to a configuration file")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.command = fs.Args()
	return opts, nil
}

func usage(w io.Writer) {
	program := filepath.Base(os.Args[0])
	fmt.Fprintf(w, `Usage: %s [OPTIONS] [--] APPLICATION [ARGS...]

 -h       Display this help message
 -v       Show the version number and exit
 -c FILE  Load configuration from FILE

 Use -- when you want to pass arguments to APPLICATION
`, program)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		usage(os.Stderr)
		return 1
	}
	if opts.help {
		usage(os.Stdout)
		return 1
	}
	if opts.version {
		fmt.Printf("kiosk version %s\n", version)
		return 0
	}
	if len(opts.command) == 0 {
		usage(os.Stderr)
		return 1
	}

	cfg := config.Default()
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			logrus.WithError(err).Errorln("load configuration")
			return 1
		}
	}

	level, err := cfg.Level()
	if err != nil {
		logrus.WithError(err).Errorln("parse log level")
		return 1
	}
	logrus.SetLevel(level)
	initWLRLog(level)

	// Wayland requires XDG_RUNTIME_DIR to be set; check before creating any
	// display object.
	if os.Getenv("XDG_RUNTIME_DIR") == "" {
		logrus.Errorln("XDG_RUNTIME_DIR is not set in the environment")
		return 1
	}

	server, err := NewServer(cfg)
	if err != nil {
		logrus.WithError(err).Errorln("initialize server")
		return 1
	}
	if err := server.Run(opts.command); err != nil {
		logrus.WithError(err).Errorln("run server")
		return 1
	}
	return 0
}

func initWLRLog(level logrus.Level) {
	if level >= logrus.DebugLevel {
		wlr.LogInit(wlr.Debug, nil)
		return
	}
	wlr.LogInit(wlr.Error, nil)
}
