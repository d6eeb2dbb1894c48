// termview explores the Mandelbrot set in a terminal.
//
// Every cell shows two pixels stacked on top of each other. Keys:
// + and - zoom, arrows pan, r redraws, q quits. Clicking a cell centers the
// view on it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	fractal "github.com/marben/dist_fractal"
	"github.com/marben/dist_fractal/session"
)

const panStep = 0.1

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(args []string) error {
	cfg := fractal.DefaultConfig()
	fs := flag.NewFlagSet("termview", flag.ContinueOnError)
	region := fs.String("region", "full", "named region shown at start")
	logFile := fs.String("log", "", "write debug log to this file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	v, err := fractal.LookupLandmark(*region)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen.Init: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.SetStyle(tcell.StyleDefault)

	frames := newLatest()
	w, h := canvasSize(screen)
	s, err := session.New(w, h, cfg,
		session.WithLogger(logger),
		session.WithViewport(v),
		session.WithPresenter(frames),
	)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}
	defer s.Close()

	ui := &viewer{screen: screen, session: s, logger: logger}
	return ui.loop(frames.ch)
}

// canvasSize is the pixel size of the screen minus the status line.
func canvasSize(screen tcell.Screen) (int, int) {
	cols, rows := screen.Size()
	return max(cols, 1), max(rows-1, 1) * 2
}

type viewer struct {
	screen  tcell.Screen
	session *session.Session
	logger  *slog.Logger

	img     *image.RGBA
	buttons tcell.ButtonMask
}

func (ui *viewer) loop(frames <-chan frame) error {
	ctx := context.Background()
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	go ui.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	if _, err := ui.session.Redraw(ctx); err != nil {
		return err
	}

	for {
		var err error
		select {
		case f := <-frames:
			ui.img = f.img
			ui.draw()
		case <-ticker.C:
			ui.status()
		case ev := <-events:
			var done bool
			done, err = ui.handle(ctx, ev)
			if done {
				return nil
			}
		}
		if err != nil {
			ui.logger.Warn("action failed", "err", err)
		}
		ui.screen.Show()
	}
}

func (ui *viewer) handle(ctx context.Context, ev tcell.Event) (quit bool, err error) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		ui.screen.Sync()
		w, h := canvasSize(ui.screen)
		_, err = ui.session.Resize(ctx, w, h)
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true, nil
		case tcell.KeyUp:
			_, err = ui.session.Pan(ctx, 0, -panStep)
		case tcell.KeyDown:
			_, err = ui.session.Pan(ctx, 0, panStep)
		case tcell.KeyLeft:
			_, err = ui.session.Pan(ctx, -panStep, 0)
		case tcell.KeyRight:
			_, err = ui.session.Pan(ctx, panStep, 0)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true, nil
			case '+', '=':
				_, err = ui.session.ZoomIn(ctx)
			case '-', '_':
				_, err = ui.session.ZoomOut(ctx)
			case 'r':
				_, err = ui.session.Redraw(ctx)
			}
		}
	case *tcell.EventMouse:
		pressed := ev.Buttons()&tcell.Button1 != 0 && ui.buttons&tcell.Button1 == 0
		ui.buttons = ev.Buttons()
		if pressed {
			x, y := ev.Position()
			_, err = ui.session.Recenter(ctx, x, y*2)
		}
	}
	return false, err
}

// draw paints the latest frame with upper half blocks: the foreground is
// the even pixel row, the background the odd one.
func (ui *viewer) draw() {
	if ui.img == nil {
		return
	}
	b := ui.img.Bounds()
	for y := 0; y*2 < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			top := ui.img.RGBAAt(x, y*2)
			bottom := ui.img.RGBAAt(x, y*2+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			ui.screen.SetContent(x, y, '▀', nil, style)
		}
	}
	ui.status()
}

func (ui *viewer) status() {
	st := ui.session.Stats()
	c := st.Viewport.Center()
	line := fmt.Sprintf(" gen %d  center %.6g%+.6gi  span %.3g ", st.Generation, c.Re, c.Im, st.Viewport.SpanRe)
	if st.State == session.Rendering {
		line += fmt.Sprintf(" rendering %3.0f%% ", 100*st.Progress())
	}
	line += " +/- zoom  arrows pan  click center  q quit"

	cols, rows := ui.screen.Size()
	style := tcell.StyleDefault.Reverse(true)
	i := 0
	for _, r := range line {
		if i >= cols {
			break
		}
		ui.screen.SetContent(i, rows-1, r, nil, style)
		i++
	}
	for ; i < cols; i++ {
		ui.screen.SetContent(i, rows-1, ' ', nil, style)
	}
}

type frame struct {
	generation uint64
	img        *image.RGBA
}

// latest hands completed frames to the UI goroutine without ever blocking
// the session; an undrawn frame is replaced by a newer one.
type latest struct {
	ch chan frame
}

func newLatest() *latest {
	return &latest{ch: make(chan frame, 1)}
}

func (l *latest) PresentFrame(generation uint64, img *image.RGBA) {
	f := frame{generation: generation, img: img}
	for {
		select {
		case l.ch <- f:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}
