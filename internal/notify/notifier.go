// Package notify bridges writes made by other processes into the
// in-process change bus.
//
// The store publishes its own writes directly; this notifier covers
// everyone else sharing the database file. It watches the database
// directory for WAL/db writes and polls SQLite's data_version counter,
// which moves only when another connection commits. Either trigger is
// debounced, then per-table change stamps decide which table signals to
// publish, so subscribers still get nothing more than "table T changed".
package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/store"
)

// Config holds notifier configuration.
type Config struct {
	// PollInterval is how often to check data_version as a fallback for
	// platforms where file events are unreliable.
	PollInterval time.Duration

	// Debounce is how long to wait after a trigger before scanning, so a
	// burst of writes produces one scan.
	Debounce time.Duration

	// Logger for notifier activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 500 * time.Millisecond,
		Debounce:     100 * time.Millisecond,
		Logger:       log.New(os.Stderr, "[notify] ", log.LstdFlags),
	}
}

// Notifier watches the shared database for external writes and publishes
// per-table change signals on the bus.
type Notifier struct {
	store *store.Store
	bus   *bus.Bus
	cfg   *Config

	watcher *fsnotify.Watcher

	stamps      map[string]string
	dataVersion int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// tables this notifier tracks.
var tables = []string{bus.TableProjects, bus.TableTasks}

// New creates a notifier with default configuration.
func New(st *store.Store, b *bus.Bus) (*Notifier, error) {
	return NewWithConfig(st, b, DefaultConfig())
}

// NewWithConfig creates a notifier with custom configuration.
func NewWithConfig(st *store.Store, b *bus.Bus, cfg *Config) (*Notifier, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if b == nil {
		return nil, fmt.Errorf("bus cannot be nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Notifier{
		store:   st,
		bus:     b,
		cfg:     cfg,
		watcher: watcher,
		stamps:  make(map[string]string),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start records baseline fingerprints and begins watching.
// The caller must call Stop to release the watcher.
func (n *Notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("notifier already running")
	}

	ctx := n.ctx
	for _, table := range tables {
		stamp, err := n.store.ChangeStamp(ctx, table)
		if err != nil {
			return err
		}
		n.stamps[table] = stamp
	}

	v, err := n.store.DataVersion(ctx)
	if err != nil {
		return err
	}
	n.dataVersion = v

	// Watch the directory, not the file: SQLite swaps WAL files around
	// and fsnotify loses watches on replaced files.
	dir := filepath.Dir(n.store.Path())
	if err := n.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	n.running = true
	n.wg.Add(1)
	go n.run()

	n.cfg.Logger.Printf("Watching %s", dir)
	return nil
}

// Stop shuts the notifier down and waits for its goroutine to exit.
func (n *Notifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	n.mu.Unlock()

	n.cancel()
	if err := n.watcher.Close(); err != nil {
		n.cfg.Logger.Printf("Error closing watcher: %v", err)
	}
	n.wg.Wait()
	return nil
}

// run is the event loop: collect triggers, debounce, scan.
func (n *Notifier) run() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.cfg.PollInterval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time

	trigger := func() {
		if debounce == nil {
			debounce = time.NewTimer(n.cfg.Debounce)
			fire = debounce.C
			return
		}
		if !debounce.Stop() {
			select {
			case <-debounce.C:
			default:
			}
		}
		debounce.Reset(n.cfg.Debounce)
	}

	base := filepath.Base(n.store.Path())

	for {
		select {
		case <-n.ctx.Done():
			return

		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			// Only the database file and its WAL/shm siblings matter.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}
			trigger()

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.cfg.Logger.Printf("Watcher error: %v", err)

		case <-ticker.C:
			v, err := n.store.DataVersion(n.ctx)
			if err != nil {
				continue
			}
			if v != n.dataVersion {
				n.dataVersion = v
				trigger()
			}

		case <-fire:
			fire = nil
			debounce = nil
			n.scan()
		}
	}
}

// scan compares per-table fingerprints and publishes changed tables.
func (n *Notifier) scan() {
	for _, table := range tables {
		stamp, err := n.store.ChangeStamp(n.ctx, table)
		if err != nil {
			n.cfg.Logger.Printf("Error stamping %s: %v", table, err)
			continue
		}
		if stamp == n.stamps[table] {
			continue
		}
		n.stamps[table] = stamp
		n.cfg.Logger.Printf("Table changed: %s", table)
		n.bus.Publish(table)
	}
}
