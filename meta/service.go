package meta

import "sync"

type serviceInfo struct {
	name    string
	version string
}

var (
	service     serviceInfo //nolint:gochecknoglobals // set once in main, read by tracing and alerts
	serviceOnce sync.Once   //nolint:gochecknoglobals // guards service
)

// SetServiceInfo records the broker's name and version for span resources and
// alert payloads. Only the first call has an effect.
func SetServiceInfo(name, version string) {
	serviceOnce.Do(func() {
		service = serviceInfo{name: name, version: version}
	})
}

// ServiceName returns the name given to SetServiceInfo, or "" before it runs.
func ServiceName() string { return service.name }

// ServiceVersion returns the version given to SetServiceInfo.
func ServiceVersion() string { return service.version }
