package warehouse

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSource matches every failure surfaced by the gateway.
	ErrDataSource = errors.New("warehouse: data source error")

	// ErrMissingCredentials is returned when no access token can be resolved.
	ErrMissingCredentials = errors.New("warehouse: missing credentials")

	// ErrUnsupportedDriver is returned for a driver name the gateway cannot open.
	ErrUnsupportedDriver = errors.New("warehouse: unsupported driver")
)

// DataSourceError is a connectivity, authentication or query-execution
// failure. It matches ErrDataSource via errors.Is and unwraps to the
// driver error.
type DataSourceError struct {
	// Op is the gateway operation that failed: connect, query, scan or ping.
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("warehouse %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }
func (e *DataSourceError) Unwrap() error        { return e.Err }

// Wrap returns err as a *DataSourceError for op. Nil stays nil and an error
// that already is a *DataSourceError is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dse *DataSourceError
	if errors.As(err, &dse) {
		return err
	}
	return &DataSourceError{Op: op, Err: err}
}
