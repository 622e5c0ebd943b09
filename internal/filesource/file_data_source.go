// Package filesource implements a local, file-backed subsystems.DataSource: it loads flag and
// segment data from a YAML or JSON file and, optionally, watches the file for changes and
// reloads on write. Grounded on the SDK's ldfiledata/ldfiledata_impl.go and
// ldfilewatch/watched_file_data_source.go, collapsed into a single package since this module has
// no separate "options" API to preserve.
package filesource

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/ghodss/yaml.v1"

	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// fileContents is the on-disk shape: top-level "flags" and "segments" maps keyed by flag/segment
// key, each value the same JSON representation the data model's own (un)marshaling uses. YAML is
// accepted too since ghodss/yaml re-marshals YAML into JSON before decoding.
type fileContents struct {
	Flags    map[string]ldmodel.Flag    `json:"flags"`
	Segments map[string]ldmodel.Segment `json:"segments"`
}

// DataSource reads flag/segment data from Path on Start, and if Watch is true, reloads whenever
// fsnotify reports the file was written.
type DataSource struct {
	Path  string
	Watch bool

	updates subsystems.DataSourceUpdateSink
	loggers subsystems.Loggers

	mu          sync.Mutex
	initialized bool
	watcher     *fsnotify.Watcher
	closeCh     chan struct{}
	closeOnce   sync.Once
}

// New creates a DataSource that will publish into updates when started.
func New(path string, watch bool, updates subsystems.DataSourceUpdateSink, loggers subsystems.Loggers) *DataSource {
	return &DataSource{Path: path, Watch: watch, updates: updates, loggers: loggers, closeCh: make(chan struct{})}
}

// Start loads the file once, reports the outcome via the update sink's status, and — when Watch
// is set — spawns a goroutine that reloads on every subsequent write to Path.
func (d *DataSource) Start(ctx context.Context, closeWhenReady chan<- struct{}) {
	go func() {
		defer close(closeWhenReady)
		if err := d.load(); err != nil {
			d.loggers.Errorf("filesource: initial load of %s failed: %s", d.Path, err)
			d.updates.UpdateStatus(subsystems.DataSourceInterrupted, &subsystems.DataSourceErrorInfo{Message: err.Error()})
			return
		}
		d.mu.Lock()
		d.initialized = true
		d.mu.Unlock()
		d.updates.UpdateStatus(subsystems.DataSourceValid, nil)

		if d.Watch {
			if err := d.startWatching(); err != nil {
				d.loggers.Warnf("filesource: could not watch %s for changes: %s", d.Path, err)
			}
		}
	}()
}

func (d *DataSource) startWatching() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(d.Path); err != nil {
		_ = watcher.Close()
		return err
	}
	d.mu.Lock()
	d.watcher = watcher
	d.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := d.load(); err != nil {
					d.loggers.Warnf("filesource: reload of %s failed: %s", d.Path, err)
					continue
				}
				d.loggers.Infof("filesource: reloaded %s", d.Path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.loggers.Warnf("filesource: watcher error: %s", err)
			case <-d.closeCh:
				return
			}
		}
	}()
	return nil
}

func (d *DataSource) load() error {
	raw, err := os.ReadFile(d.Path)
	if err != nil {
		return err
	}
	var contents fileContents
	if err := yaml.Unmarshal(raw, &contents); err != nil {
		return fmt.Errorf("parsing %s: %w", d.Path, err)
	}

	allData := map[subsystems.DataKind]map[string]subsystems.ItemDescriptor{
		ldmodel.Flags:    {},
		ldmodel.Segments: {},
	}
	for key, flag := range contents.Flags {
		f := flag
		f.Key = key
		f.Preprocess()
		allData[ldmodel.Flags][key] = subsystems.ItemDescriptor{Version: f.Version, Item: &f}
	}
	for key, seg := range contents.Segments {
		s := seg
		s.Key = key
		s.Preprocess()
		allData[ldmodel.Segments][key] = subsystems.ItemDescriptor{Version: s.Version, Item: &s}
	}

	if !d.updates.Init(allData) {
		return fmt.Errorf("data store rejected init from %s", d.Path)
	}
	return nil
}

// IsInitialized reports whether the first load succeeded.
func (d *DataSource) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// Close stops the file watcher, if any.
func (d *DataSource) Close() error {
	d.closeOnce.Do(func() { close(d.closeCh) })
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}

var _ subsystems.DataSource = (*DataSource)(nil)
