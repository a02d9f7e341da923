package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"deedles.dev/wlr"
	"github.com/kioskwm/kiosk/config"
	"github.com/kioskwm/kiosk/desktop"
	"github.com/kioskwm/kiosk/seat"
	"github.com/kioskwm/kiosk/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server owns the Wayland display's event loop and the table of top-level
// listeners, and translates backend and protocol events into calls on the
// desktop core. Everything it reaches runs on the event loop goroutine; the
// only calls made from elsewhere are display.Terminate, from the signal
// watcher and the client monitor.
type Server struct {
	cfg *config.Config

	desktop *desktop.Desktop
	seat    *seat.Seat
	client  *session.Supervisor

	display      wlr.Display
	backend      wlr.Backend
	renderer     wlr.Renderer
	allocator    wlr.Allocator
	compositor   wlr.Compositor
	dataDevMgr   wlr.DataDeviceManager
	outputLayout wlr.OutputLayout
	wlrSeat      wlr.Seat
	cursor       wlr.Cursor
	cursorMgr    wlr.XCursorManager
	xdgShell     wlr.XDGShell
	layerShell   wlr.LayerShellV1

	outputs   []*output
	keyboards []*keyboard

	newOutput            wlr.Listener
	newInput             wlr.Listener
	newXDGSurface        wlr.Listener
	newLayerSurface      wlr.Listener
	cursorMotion         wlr.Listener
	cursorMotionAbsolute wlr.Listener
	cursorButton         wlr.Listener
	cursorAxis           wlr.Listener
	cursorFrame          wlr.Listener
	requestCursor        wlr.Listener

	stopSignals func()
}

// NewServer builds every required subsystem. Any failure here is fatal: the
// caller aborts the run before the event loop ever starts.
func NewServer(cfg *config.Config) (*Server, error) {
	server := &Server{cfg: cfg}

	server.display = wlr.CreateDisplay()
	if !server.display.Valid() {
		return nil, errors.New("cannot allocate a Wayland display")
	}

	server.backend = wlr.AutocreateBackend(server.display)
	if !server.backend.Valid() {
		return nil, errors.New("unable to create the wlroots backend")
	}

	server.renderer = wlr.AutocreateRenderer(server.backend)
	if !server.renderer.Valid() {
		return nil, errors.New("unable to create the wlroots renderer")
	}
	server.renderer.InitWLDisplay(server.display)

	server.allocator = wlr.AutocreateAllocator(server.backend, server.renderer)
	if !server.allocator.Valid() {
		return nil, errors.New("unable to create the wlroots allocator")
	}

	server.compositor = wlr.CreateCompositor(server.display, server.renderer)
	if !server.compositor.Valid() {
		return nil, errors.New("unable to create the wlroots compositor")
	}

	server.dataDevMgr = wlr.CreateDataDeviceManager(server.display)
	if !server.dataDevMgr.Valid() {
		return nil, errors.New("unable to create the data device manager")
	}

	server.outputLayout = wlr.CreateOutputLayout()
	if !server.outputLayout.Valid() {
		return nil, errors.New("unable to create output layout")
	}

	server.desktop = desktop.New()
	server.newOutput = server.backend.OnNewOutput(server.onNewOutput)

	server.xdgShell = wlr.CreateXDGShell(server.display)
	if !server.xdgShell.Valid() {
		return nil, errors.New("unable to create the XDG shell interface")
	}
	server.newXDGSurface = server.xdgShell.OnNewSurface(server.onNewXDGSurface)

	server.layerShell = wlr.CreateLayerShellV1(server.display)
	if !server.layerShell.Valid() {
		return nil, errors.New("unable to create the layer shell interface")
	}
	server.newLayerSurface = server.layerShell.OnNewSurface(server.onNewLayerSurface)

	if err := server.setupSeat(); err != nil {
		return nil, err
	}

	return server, nil
}

func (server *Server) setupSeat() error {
	server.wlrSeat = wlr.CreateSeat(server.display, "seat0")
	if !server.wlrSeat.Valid() {
		return errors.New("cannot allocate seat0")
	}

	server.cursorMgr = wlr.CreateXCursorManager()
	if !server.cursorMgr.Valid() {
		return errors.New("cannot create XCursor manager")
	}
	server.cursorMgr.Load()

	server.cursor = wlr.CreateCursor()
	if !server.cursor.Valid() {
		return errors.New("unable to create wlr cursor")
	}
	server.cursor.AttachOutputLayout(server.outputLayout)

	server.seat = seat.New(server.desktop, (*seatNotifier)(server))

	server.newInput = server.backend.OnNewInput(server.onNewInput)
	server.cursorMotion = server.cursor.OnMotion(server.onCursorMotion)
	server.cursorMotionAbsolute = server.cursor.OnMotionAbsolute(server.onCursorMotionAbsolute)
	server.cursorButton = server.cursor.OnButton(server.onCursorButton)
	server.cursorAxis = server.cursor.OnAxis(server.onCursorAxis)
	server.cursorFrame = server.cursor.OnFrame(server.onCursorFrame)
	server.requestCursor = server.wlrSeat.OnRequestSetCursor(server.onRequestCursor)

	return nil
}

// Run publishes the display socket, spawns the client, and blocks in the
// event loop until termination is requested by a signal, by the client
// exiting, or by a startup failure below. Shutdown ordering is identical on
// every path.
func (server *Server) Run(command []string) error {
	defer server.shutdown()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, unix.SIGINT, unix.SIGTERM)
	go func() {
		s, ok := <-sigc
		if ok {
			logrus.WithField("signal", s).Debugln("terminating on signal")
			server.display.Terminate()
		}
	}()
	server.stopSignals = func() {
		signal.Stop(sigc)
		close(sigc)
	}

	socket, err := server.display.AddSocketAuto()
	if err != nil {
		return fmt.Errorf("open Wayland socket: %w", err)
	}

	if err := server.backend.Start(); err != nil {
		return fmt.Errorf("start the wlroots backend: %w", err)
	}

	if err := os.Setenv("WAYLAND_DISPLAY", socket); err != nil {
		logrus.WithError(err).Errorln("set WAYLAND_DISPLAY; clients may not be able to connect")
	} else {
		logrus.WithField("socket", socket).Debugf("kiosk %s is running", version)
	}

	client, err := session.Spawn(command, []string{"WAYLAND_DISPLAY=" + socket})
	if err != nil {
		return err
	}
	server.client = client
	client.Monitor(server.display.Terminate)

	server.display.Run()
	return nil
}

// shutdown tears the compositor down in a fixed order: reap the client if
// one was spawned and deregister its monitor, stop the signal watcher,
// release the seat,
// destroy the display (which cascades protocol object destruction through
// each view's and layer surface's own destroy handler), and finally destroy
// the output layout.
func (server *Server) shutdown() {
	if server.client != nil {
		server.client.Reap()
		// The monitor must be gone before the display is: its callback
		// terminates the display's event loop.
		server.client.StopMonitor()
	}

	if server.stopSignals != nil {
		server.stopSignals()
		server.stopSignals = nil
	}

	server.seat.Destroy()
	server.cursorMgr.Destroy()
	server.cursor.Destroy()

	server.display.Destroy()
	server.outputLayout.Destroy()
}
