// Command layerd-view renders a live crib sheet for a layout file: the
// physical board as a grid, with every layer's assignment for each key
// in that layer's color. The sheet refreshes whenever the layout file
// changes. Press q or Escape to quit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"layerd/internal/config"
	"layerd/internal/input/layout"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: layerd-view <layout.kbd>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	table, err := config.ParseLayoutFile(path)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repaint on file changes; parse errors keep the previous sheet.
	tables := make(chan *layout.Table, 1)
	watcher, err := config.NewWatcher(path, func() {
		t, err := config.ParseLayoutFile(path)
		if err != nil {
			return
		}
		select {
		case tables <- t:
		default:
		}
		screen.PostEvent(tcell.NewEventInterrupt(nil))
	}, zap.NewNop())
	if err != nil {
		return err
	}
	go watcher.Run(ctx)

	for {
		draw(screen, table)
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
				return nil
			}
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			select {
			case t := <-tables:
				table = t
			default:
			}
		case nil:
			return nil
		}
	}
}
