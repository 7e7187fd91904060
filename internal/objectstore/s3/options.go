package s3

// Option configures a Store.
type Option func(s *settings)

type settings struct {
	endpoint     string
	usePathStyle bool
}

// Endpoint points the client at an S3-compatible endpoint instead of AWS.
func Endpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = endpoint
	}
}

// UsePathStyle switches to path-style addressing (bucket in the path).
func UsePathStyle(use bool) Option {
	return func(s *settings) {
		s.usePathStyle = use
	}
}
