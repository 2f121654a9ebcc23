// This file is part of Emucore.
//
// Emucore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Emucore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Emucore.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bradleyjkemp/memviz"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/emucore/controller"
	"github.com/jetsetilly/emucore/easyterm"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/engine/synthetic"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/modalflag"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/paths"
	"github.com/jetsetilly/emucore/persistence"
	"github.com/jetsetilly/emucore/prefs"
	"github.com/jetsetilly/emucore/statsview"
	"github.com/jetsetilly/emucore/version"
	"github.com/jetsetilly/emucore/wavwriter"
)

// exit values returned by launch()
const (
	exitOK         = 0
	exitParseError = 10
	exitModeError  = 20
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	exitVal := launch(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(exitVal)
}

// launch parses the top level of the command line and runs the selected
// mode. Returns the value to be used with os.Exit().
func launch(ctx context.Context, args []string, output io.Writer) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.AddSubModes("RUN", "CHECK", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitOK
	case modalflag.ParseError:
		fmt.Fprintf(output, "* error: %v\n", err)
		return exitParseError
	}

	switch md.Mode() {
	case "RUN":
		err = run(ctx, md, output)
	case "CHECK":
		err = check(ctx, md, output)
	case "VERSION":
		err = showVersion(md, output)
	}

	if err != nil {
		fmt.Fprintf(output, "* error in %s mode: %s\n", md, err)
		return exitModeError
	}

	return exitOK
}

// flags shared by the RUN and CHECK modes.
type common struct {
	width     *int
	height    *int
	prefsFile *string
	prefs     *string
	log       *bool
	memviz    *string
}

func addCommon(md *modalflag.Modes) common {
	return common{
		width:     md.AddInt("width", 320, "width of the synthetic engine's video"),
		height:    md.AddInt("height", 240, "height of the synthetic engine's video"),
		prefsFile: md.AddString("prefsfile", "", "preferences file (default in the resource directory)"),
		prefs:     md.AddString("prefs", "", "preferences that override the preferences file (key::value; ...)"),
		log:       md.AddBool("log", false, "echo the log to stdout"),
		memviz:    md.AddString("memviz", "", "write a graphviz dot file of the engine structure on exit"),
	}
}

// zapEcho adapts a zap logger for use with logger.SetEcho().
type zapEcho struct {
	log *zap.Logger
}

func (z zapEcho) Write(p []byte) (int, error) {
	for _, s := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		z.log.Info(s)
	}
	return len(p), nil
}

// setup the log echo, the preferences and the controller from the common
// flags. the returned function must be called when the controller is no
// longer required.
func (c common) setup(store persistence.Store) (*controller.Controller, *synthetic.Engine, func(), error) {
	var zlog *zap.Logger
	if *c.log {
		var err error
		zlog, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, nil, err
		}
		logger.SetEcho(zapEcho{log: zlog.Named("log")}, true)
	}

	pth := *c.prefsFile
	if pth == "" {
		var err error
		pth, err = paths.ResourcePath("", prefs.DefaultPrefsFile)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	prefs.PushCommandLineStack(*c.prefs)
	p, err := controller.NewPreferences(pth)
	if unused := prefs.PopCommandLineStack(); unused != "" {
		logger.Logf(logger.Allow, "emucore", "unused preferences: %s", unused)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	var notify notifications.Notify
	if zlog != nil {
		notify = notifications.NewZap(zlog)
	}

	eng := synthetic.NewEngineWithSize(*c.width, *c.height)
	ctrl, err := controller.NewController(controller.Config{
		Engine:      eng,
		Store:       store,
		Preferences: p,
		Notify:      notify,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	done := func() {
		ctrl.Stop()
		if *c.memviz != "" {
			if err := writeMemviz(*c.memviz, eng); err != nil {
				logger.Logf(logger.Allow, "emucore", "memviz: %v", err)
			}
		}
		if zlog != nil {
			logger.SetEcho(nil, false)
			_ = zlog.Sync()
		}
	}

	return ctrl, eng, done, nil
}

// the engine is not running when writeMemviz() is called.
func writeMemviz(filename string, eng *synthetic.Engine) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	memviz.Map(f, eng)
	return f.Close()
}

func run(ctx context.Context, md *modalflag.Modes, output io.Writer) error {
	md.NewMode()
	c := addCommon(md)
	frames := md.AddInt("frames", 0, "stop after number of frames (0 runs until quit)")
	slot := md.AddInt("slot", 1, "initial slot for save and load")
	wav := md.AddString("wav", "", "record audio to wav file")
	stats := md.AddBool("statsview", false, "run stats server on "+statsview.DefaultAddress)
	md.AdditionalHelp(runHelp)

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}
	if len(md.RemainingArgs()) > 0 {
		return fmt.Errorf("too many arguments for %s mode", md)
	}

	store, err := persistence.NewResourceDisk("states")
	if err != nil {
		return err
	}

	ctrl, _, done, err := c.setup(store)
	if err != nil {
		return err
	}
	defer done()

	if *wav != "" {
		aw, err := wavwriter.New(*wav)
		if err != nil {
			return err
		}
		ctrl.SetAVStream(aw)
		defer func() {
			if err := aw.Close(); err != nil {
				fmt.Fprintf(output, "* %v\n", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *stats {
		statsview.Launch(ctx, output, statsview.DefaultAddress)
	}

	if err := ctrl.Start(); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)

	// the worker ends on stop or crash
	eg.Go(func() error {
		ctrl.Wait()
		cancel()
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		ctrl.Stop()
		return nil
	})

	eg.Go(func() error {
		return printEvents(ctx, ctrl.Notifications(), output)
	})

	if *frames > 0 {
		eg.Go(func() error {
			if waitForFrames(ctx, ctrl, int64(*frames)) == nil {
				cancel()
			}
			return nil
		})
	}

	if easyterm.IsTerminal(os.Stdin) {
		pt, err := easyterm.NewTerminal(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if err := pt.CBreakMode(); err != nil {
			return err
		}
		defer pt.CanonicalMode()

		if cols, _, err := pt.Geometry(); err == nil && cols < len(keyHelp) {
			pt.Print("%s\n", strings.ReplaceAll(keyHelp, ", ", "\n"))
		} else {
			pt.Print("%s\n", keyHelp)
		}

		kb := &keyboard{ctrl: ctrl, slot: *slot, quit: cancel}
		keys := pt.Keys(ctx)
		eg.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case k, ok := <-keys:
					if !ok {
						return nil
					}
					kb.handle(k)
				}
			}
		})
	}

	err = eg.Wait()

	if crashed, msg := ctrl.Crashed(); crashed {
		return errors.New(msg)
	}

	return err
}

const keyHelp = "p pause, f frame advance, tab fast forward, F forced fast forward, " +
	"r rewinding, b rewind, s save, l load, u undo save, U undo load, 1-9 slot, R reset, q quit"

const runHelp = `In RUN mode the synthetic engine runs until it is stopped. When the input
is a terminal single key presses control the engine. The keys are:

  ` + keyHelp

// printEvents writes user facing notifications to the output until the
// context is done.
func printEvents(ctx context.Context, events <-chan notifications.Event, output io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev.Notice {
			case notifications.NotifyStatusPosted:
				fmt.Fprintf(output, "%s\r\n", ev.Text)
			case notifications.NotifyCrashed:
				fmt.Fprintf(output, "* crashed: %s\r\n", ev.Text)
			case notifications.NotifyPaused:
				fmt.Fprint(output, "paused\r\n")
			case notifications.NotifyFastForwardChanged:
				fmt.Fprintf(output, "fast forward: %v\r\n", ev.Active)
			}
		}
	}
}

// waitForFrames returns once the frame counter has reached the target. An
// error is returned if the engine crashes or the context is done first.
func waitForFrames(ctx context.Context, ctrl *controller.Controller, target int64) error {
	tck := time.NewTicker(5 * time.Millisecond)
	defer tck.Stop()

	for {
		if ctrl.FrameCounter() >= target {
			return nil
		}
		if crashed, msg := ctrl.Crashed(); crashed {
			return errors.New(msg)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tck.C:
		}
	}
}

// keyboard maps key presses to controller operations.
type keyboard struct {
	ctrl *controller.Controller
	slot int
	quit func()

	fastForward bool
	forced      bool
	rewinding   bool
}

func (kb *keyboard) handle(k rune) {
	switch k {
	case 'q', easyterm.KeyEsc:
		kb.quit()
	case 'p':
		kb.ctrl.SetPaused(!kb.ctrl.IsPaused())
	case 'f':
		kb.ctrl.FrameAdvance()
	case '\t':
		kb.fastForward = !kb.fastForward
		kb.ctrl.SetFastForward(kb.fastForward)
	case 'F':
		kb.forced = !kb.forced
		kb.ctrl.ForceFastForward(kb.forced)
	case 'r':
		kb.rewinding = !kb.rewinding
		kb.ctrl.SetRewinding(kb.rewinding)
	case 'b':
		kb.ctrl.Rewind(60)
	case 's':
		kb.report(kb.ctrl.SaveState(kb.slot, kb.ctrl.SaveFlags()))
	case 'l':
		kb.report(kb.ctrl.LoadState(kb.slot, kb.ctrl.LoadFlags()))
	case 'u':
		kb.report(kb.ctrl.UndoSaveState())
	case 'U':
		kb.report(kb.ctrl.UndoLoadState())
	case 'R':
		kb.ctrl.Reset()
	default:
		if k >= '1' && k <= '9' {
			kb.slot = int(k - '0')
			logger.Logf(logger.Allow, "emucore", "slot %d selected", kb.slot)
		}
	}
}

func (kb *keyboard) report(err error) {
	if err != nil {
		logger.Log(logger.Allow, "emucore", err)
	}
}

func check(ctx context.Context, md *modalflag.Modes, output io.Writer) error {
	md.NewMode()
	c := addCommon(md)
	frames := md.AddInt("frames", 600, "number of frames to run before and after saving")
	slot := md.AddInt("slot", 1, "slot to save to and load from")
	dir := md.AddString("dir", "", "directory for saved states (default in memory)")
	screenshot := md.AddString("screenshot", "", "write the final frame to a PNG file")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}
	if *frames <= 0 {
		return fmt.Errorf("frames must be greater than zero")
	}

	var store persistence.Store = persistence.NewMemory()
	if *dir != "" {
		store, err = persistence.NewDisk(*dir)
		if err != nil {
			return err
		}
	}

	ctrl, _, done, err := c.setup(store)
	if err != nil {
		return err
	}
	defer done()

	// checking is never throttled
	if err := ctrl.Preferences().VideoSync.Set(false); err != nil {
		return err
	}
	if err := ctrl.Preferences().AudioSync.Set(false); err != nil {
		return err
	}

	if err := ctrl.Start(); err != nil {
		return err
	}

	advance := func() error {
		return waitForFrames(ctx, ctrl, ctrl.FrameCounter()+int64(*frames))
	}

	if err := advance(); err != nil {
		return err
	}

	g := ctrl.Interrupt()
	saved := ctrl.Checksum()
	err = ctrl.SaveState(*slot, engine.AllStateFlags)
	g.Resume()
	if err != nil {
		return err
	}

	if err := advance(); err != nil {
		return err
	}

	g = ctrl.Interrupt()
	defer g.Resume()

	live := ctrl.Checksum()
	if err := ctrl.LoadState(*slot, engine.AllStateFlags); err != nil {
		return err
	}
	loaded := ctrl.Checksum()
	if err := ctrl.UndoLoadState(); err != nil {
		return err
	}
	undone := ctrl.Checksum()

	if loaded != saved {
		return fmt.Errorf("checksum after load is %08x, expected %08x", loaded, saved)
	}
	if undone != live {
		return fmt.Errorf("checksum after undo is %08x, expected %08x", undone, live)
	}

	if *screenshot != "" {
		if err := writeScreenshot(ctrl, *screenshot); err != nil {
			return err
		}
	}

	fmt.Fprintf(output, "check passed: frames %d checksum %08x digest %s\n", ctrl.FrameCounter(), saved, ctrl.Digest())

	return nil
}

func writeScreenshot(ctrl *controller.Controller, filename string) error {
	img, err := ctrl.Image()
	if err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func showVersion(md *modalflag.Modes, output io.Writer) error {
	md.NewMode()
	revision := md.AddBool("revision", false, "display revision information")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	ver, rev, _ := version.Version()
	fmt.Fprintf(output, "%s %s\n", version.ApplicationName, ver)
	if *revision {
		fmt.Fprintf(output, "revision %s\n", rev)
	}

	return nil
}
