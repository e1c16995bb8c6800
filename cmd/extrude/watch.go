package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/bezier-extrude/internal/assets"
	"github.com/Faultbox/bezier-extrude/internal/config"
	"github.com/Faultbox/bezier-extrude/internal/document"
	"github.com/Faultbox/bezier-extrude/internal/logger"
)

func cmdWatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	docPath := fs.String("doc", "", "Document to watch")
	out := fs.String("o", "", "Rewrite <prefix>.vtx and <prefix>.idx after every change")
	duration := fs.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	fs.Parse(args)

	if *docPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: extrude watch -doc scene.yaml [-o prefix] [-duration 30s]")
		os.Exit(1)
	}

	sess, err := newSession(cfg, *docPath)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	w, err := assets.NewWatcher(logger.Named("watcher"))
	if err != nil {
		return err
	}
	defer w.Close()

	loop := &watchLoop{session: sess, watcher: w, out: *out}
	if err := loop.watchFiles(); err != nil {
		return err
	}
	return loop.run(ctx, time.Duration(cfg.Assets.TickInterval))
}

// watchLoop owns the extruder while watching. File events arrive from the
// watcher goroutine over channels and are applied between ticks.
type watchLoop struct {
	*session
	watcher  *assets.Watcher
	out      string
	revision uint64
}

func (l *watchLoop) watchFiles() error {
	if err := l.watcher.Watch(l.docPath); err != nil {
		return err
	}
	if !l.cfg.Assets.Watch {
		return nil
	}
	return l.watcher.Watch(l.doc.ShapeRef())
}

func (l *watchLoop) run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	logger.Info("watching",
		zap.String("document", l.docPath),
		zap.String("shape", l.doc.ShapeRef()),
		zap.Duration("tick", tick),
	)
	if err := l.publish(); err != nil {
		return err
	}

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped", zap.NamedError("reason", context.Cause(ctx)))
			return nil

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := l.extruder.Tick(dt); err != nil {
				return err
			}
			if err := l.publish(); err != nil {
				return err
			}

		case ev, ok := <-l.watcher.Events():
			if !ok {
				return nil
			}
			l.handleReload(ev)

		case err, ok := <-l.watcher.Errors():
			if ok {
				logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

// handleReload applies a changed document or shape file. Bad edits are
// logged and the previous state is kept.
func (l *watchLoop) handleReload(ev assets.Reload) {
	if ev.Path == absPath(l.docPath) {
		doc, err := document.Load(l.docPath)
		if err != nil {
			logger.Warn("document reload failed", zap.String("path", ev.Path), zap.Error(err))
			return
		}
		if err := doc.Sync(l.extruder, l.manager); err != nil {
			logger.Warn("document sync failed", zap.String("path", ev.Path), zap.Error(err))
			return
		}
		l.doc = doc
		if l.cfg.Assets.Watch {
			if err := l.watcher.Watch(doc.ShapeRef()); err != nil {
				logger.Warn("cannot watch shape", zap.String("shape", doc.ShapeRef()), zap.Error(err))
			}
		}
		logger.Info("document reloaded", zap.Int("control_points", len(doc.ControlPoints)))
		return
	}

	if ev.Path != absPath(l.doc.ShapeRef()) {
		return
	}
	s, err := l.manager.Reload(ev.Path)
	if err != nil {
		logger.Warn("shape reload failed", zap.String("path", ev.Path), zap.Error(err))
		return
	}
	if err := l.extruder.SetShape(s); err != nil {
		logger.Warn("shape rejected", zap.String("path", ev.Path), zap.Error(err))
		return
	}
	logger.Info("shape reloaded", zap.String("name", s.Name()), zap.Int("vertices", s.VertexCount()))
}

// publish logs and exports the mesh when it changed since the last call.
func (l *watchLoop) publish() error {
	rev := l.extruder.Revision()
	if rev == l.revision {
		return nil
	}
	l.revision = rev

	st := l.extruder.Stats()
	logger.Info("mesh updated",
		zap.Int("control_points", st.ControlPoints),
		zap.Int("vertices", st.Vertices),
		zap.Int("triangles", st.Triangles),
		zap.Float32("arc_length", st.ArcLength),
	)
	if l.out == "" {
		return nil
	}
	return l.exportBuffers(l.out)
}
