package main

import (
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/config"
	"github.com/kioskwm/kiosk/desktop"
)

// output glues one wlr.Output to its desktop.Output and implements
// desktop.OutputHandle on top of the layout service.
type output struct {
	server *Server
	out    *desktop.Output
	wout   wlr.Output

	frame   wlr.Listener
	destroy wlr.Listener
}

func (o *output) Name() string {
	return o.wout.Name()
}

func (o *output) Geometry() geom.Rect[float64] {
	x, y := o.server.outputLayout.Coords(o.wout)
	w, h := o.wout.EffectiveResolution()
	return geom.Rt(x, y, x+float64(w), y+float64(h))
}

func (server *Server) onNewOutput(wout wlr.Output) {
	wout.InitRender(server.allocator, server.renderer)

	o := &output{server: server, wout: wout}
	server.configureOutput(o, server.cfg.Output(wout.Name()))

	o.frame = wout.OnFrame(func(wout wlr.Output) {
		server.onFrame(o)
	})
	o.destroy = wout.OnDestroy(func(wout wlr.Output) {
		server.onOutputDestroy(o)
	})

	o.out = server.desktop.AddOutput(o)
	server.outputs = append(server.outputs, o)

	wout.Commit()
	wout.CreateGlobal()

	// A view created before any output existed never got bound; in the
	// kiosk there is no such view to rebind, but the cursor may now be over
	// fresh content.
	server.refreshPointerFocus()
}

func (server *Server) onOutputDestroy(o *output) {
	o.out.Detach()
	server.outputLayout.Remove(o.wout)

	o.frame.Destroy()
	o.destroy.Destroy()

	for i, other := range server.outputs {
		if other == o {
			server.outputs = append(server.outputs[:i], server.outputs[i+1:]...)
			break
		}
	}

	server.refreshPointerFocus()
}

func (server *Server) configureOutput(o *output, cfg *config.Output) {
	server.layoutOutput(o, cfg)
	server.setOutputMode(o, cfg)

	if cfg == nil {
		return
	}
	if cfg.Scale != 0 {
		o.wout.SetScale(cfg.Scale)
	}
	if cfg.Transform != 0 {
		o.wout.SetTransform(wlr.OutputTransform(cfg.Transform))
	}
}

func (server *Server) layoutOutput(o *output, cfg *config.Output) {
	if cfg.AutoPosition() {
		server.outputLayout.AddAuto(o.wout)
		return
	}

	x, y := cfg.Position()
	server.outputLayout.Add(o.wout, x, y)
}

func (server *Server) setOutputMode(o *output, cfg *config.Output) {
	var set bool
	defer func() {
		if !set {
			mode := o.wout.PreferredMode()
			if mode.Valid() {
				o.wout.SetMode(mode)
			}
		}
	}()

	modes := o.wout.Modes()
	if (cfg == nil) || (cfg.Width == 0) || (cfg.Height == 0) || (len(modes) == 0) {
		return
	}

	for _, mode := range modes {
		if (mode.Width() == int32(cfg.Width)) && (mode.Height() == int32(cfg.Height)) {
			o.wout.SetMode(mode)
			set = true
			return
		}
	}
}
