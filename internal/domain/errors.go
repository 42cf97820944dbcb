package domain

import "errors"

var (
	// ErrConfiguration is returned when a required external credential is missing
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthentication is returned when a job delivery signature is missing or invalid
	ErrAuthentication = errors.New("authentication error")

	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable is returned when the USDA or generative call fails
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrIncompleteData is returned when no source could supply every core nutrient
	ErrIncompleteData = errors.New("incomplete nutrient data")

	// ErrPersistence is returned when a content store write fails
	ErrPersistence = errors.New("persistence error")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned when a food cannot be found in USDA database
	ErrProductNotFound = errors.New("product not found in USDA database")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrConfiguration, "ConfigurationError"},
	{ErrAuthentication, "AuthenticationError"},
	{ErrInvalidRequest, "InvalidRequest"},
	{ErrNotFound, "NotFoundError"},
	{ErrIncompleteData, "IncompleteDataError"},
	{ErrPersistence, "PersistenceError"},
	{ErrUpstreamUnavailable, "UpstreamUnavailable"},
}

// ErrorKind names the taxonomy class of err. The first matching class wins,
// so an incomplete-data error wrapping an upstream failure reports IncompleteDataError.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "InternalError"
}
