package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrTooMany
	ErrInternal
	ErrModelUnavailable
	ErrDatasetUnavailable
	ErrDataFormat
	ErrValidation
)

var names = map[int]string{
	ErrUnknown:            "unknown",
	ErrNotFound:           "not_found",
	ErrInvalid:            "invalid_argument",
	ErrTooMany:            "too_many_requests",
	ErrInternal:           "internal",
	ErrModelUnavailable:   "model_unavailable",
	ErrDatasetUnavailable: "dataset_unavailable",
	ErrDataFormat:         "data_format",
	ErrValidation:         "validation",
}

// Name returns the stable symbolic name clients can switch on.
func Name(code int) string {
	if name, ok := names[code]; ok {
		return name
	}
	return names[ErrUnknown]
}
