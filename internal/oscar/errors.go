package oscar

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoAPIKeys is returned when no OMDb credentials are configured.
var ErrNoAPIKeys = errors.New("no omdb api keys configured")

// ErrNoTable marks a page whose expected table could not be located.
var ErrNoTable = errors.New("expected table not found")

// FetchError reports a page that could not be retrieved. It is fatal for the
// page it describes.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// CheckResponse turns a non-2xx response into a *FetchError.
func CheckResponse(resp FetchResponse) error {
	if IsSuccess(resp.StatusCode) {
		return nil
	}
	return &FetchError{URL: resp.URL, StatusCode: resp.StatusCode}
}
