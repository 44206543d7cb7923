package wikipedia

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// stubFetcher serves canned bodies keyed by URL. Unknown URLs return 404.
type stubFetcher struct {
	mu     sync.Mutex
	pages  map[string][]byte
	errs   map[string]error
	visits []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string][]byte{}, errs: map[string]error{}}
}

func (s *stubFetcher) Fetch(_ context.Context, req oscar.FetchRequest) (oscar.FetchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, req.URL)
	if err, ok := s.errs[req.URL]; ok {
		return oscar.FetchResponse{}, err
	}
	body, ok := s.pages[req.URL]
	if !ok {
		return oscar.FetchResponse{}, &oscar.FetchError{URL: req.URL, StatusCode: http.StatusNotFound}
	}
	return oscar.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: body}, nil
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}
