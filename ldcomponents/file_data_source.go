package ldcomponents

import (
	"github.com/launchflag/ffcore/internal/filesource"
	"github.com/launchflag/ffcore/subsystems"
)

// FileDataSourceBuilder configures a local, file-backed data source: useful for demos, fixture
// servers, and tests that want deterministic flag data without a network dependency.
type FileDataSourceBuilder struct {
	path  string
	watch bool
}

// FileDataSource returns a configurable factory that loads flag/segment data from path (YAML or
// JSON; see internal/filesource for the expected shape).
func FileDataSource(path string) *FileDataSourceBuilder {
	return &FileDataSourceBuilder{path: path}
}

// Watch enables reloading the file whenever it changes on disk.
func (b *FileDataSourceBuilder) Watch(watch bool) *FileDataSourceBuilder {
	b.watch = watch
	return b
}

// CreateDataSource is called by the SDK to build the file data source.
func (b *FileDataSourceBuilder) CreateDataSource(
	context subsystems.ClientContext, updates subsystems.DataSourceUpdateSink,
) (subsystems.DataSource, error) {
	return filesource.New(b.path, b.watch, updates, context.GetLoggers()), nil
}

var _ subsystems.DataSourceFactory = (*FileDataSourceBuilder)(nil)
