package cfgloader

// Options holds configuration options for Load and MustLoad.
type Options struct {
	// Silent disables all config logging to stdout when set to true.
	Silent bool

	// Path overrides the ./config/${ENVIRONMENT}.yaml lookup.
	Path string
}

// Option is a functional option for configuring Load behavior.
type Option func(*Options)

// WithSilent disables config logging to stdout.
func WithSilent() Option {
	return func(o *Options) {
		o.Silent = true
	}
}

// WithPath loads the config from path instead of the environment specific file.
// ENVIRONMENT is not consulted when a path is given.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}
