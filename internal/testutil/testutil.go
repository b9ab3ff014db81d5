// Package testutil provides shared test utilities and fixtures.
//
// The particle fixtures are small hand-checkable configurations used by the
// export, render, db and server tests. cellindex tests keep their own
// fixtures since this package imports cellindex.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request with an optional string body.
func NewTestRequest(method, path string, body ...string) *http.Request {
	var r io.Reader
	if len(body) > 0 {
		r = strings.NewReader(strings.Join(body, ""))
	}
	return httptest.NewRequest(method, path, r)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// DecodeJSON unmarshals a recorder body into v, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// Corners returns four point particles sitting eps inside each corner of an
// l×l domain. Under periodic boundaries they are all mutual neighbors for
// any cutoff >= 2·eps·√2; under walls they are far apart.
func Corners(l, eps float64) []cellindex.Particle {
	return []cellindex.Particle{
		{ID: 0, X: eps, Y: eps},
		{ID: 1, X: l - eps, Y: eps},
		{ID: 2, X: eps, Y: l - eps},
		{ID: 3, X: l - eps, Y: l - eps},
	}
}

// Lattice returns k×k particles of radius r on a square lattice with
// spacing l/k, offset by half a spacing. IDs run row by row.
func Lattice(k int, l, r float64) []cellindex.Particle {
	out := make([]cellindex.Particle, 0, k*k)
	step := l / float64(k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			out = append(out, cellindex.Particle{
				ID:     i*k + j,
				X:      (float64(i) + 0.5) * step,
				Y:      (float64(j) + 0.5) * step,
				Radius: r,
			})
		}
	}
	return out
}

// Triangle returns the three-particle configuration used in examples:
// particles 0 and 1 are 1.5 apart, particle 2 is far from both.
func Triangle() []cellindex.Particle {
	return []cellindex.Particle{
		{ID: 0, X: 1, Y: 1},
		{ID: 1, X: 2.5, Y: 1},
		{ID: 2, X: 7, Y: 7},
	}
}
