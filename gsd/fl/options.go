package fl

// DefaultCacheSize is the number of decoded chunks kept in memory per File.
const DefaultCacheSize = 64

// DefaultApplication is written to the header of new files unless WithApplication is given.
const DefaultApplication = "gsd-go 1.0"

type options struct {
	schema        string
	schemaVersion Version
	application   string
	codec         Codec
	cacheSize     int
	sync          bool
}

func defaultOptions() options {
	return options{
		application: DefaultApplication,
		codec:       CodecNone,
		cacheSize:   DefaultCacheSize,
	}
}

// Option configures Open and Create.
type Option func(o *options)

// WithSchema sets the expected schema. Files created by Open or Create get this schema in
// their header; existing files must be compatible with it or Open fails with
// ErrSchemaMismatch.
func WithSchema(name string, version Version) Option {
	return func(o *options) {
		o.schema = name
		o.schemaVersion = version
	}
}

// WithApplication sets the application string recorded in the header of new files.
func WithApplication(app string) Option {
	return func(o *options) {
		o.application = app
	}
}

// WithCodec sets the compression used for chunks written through this File.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithCacheSize sets the number of decoded chunks cached in memory. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithSync makes EndFrame fsync the file after each commit record.
func WithSync(sync bool) Option {
	return func(o *options) {
		o.sync = sync
	}
}
