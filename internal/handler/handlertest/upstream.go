// Package handlertest serves canned mindicador.cl responses for handler tests.
package handlertest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const Snapshot = `{
  "version": "1.7.0",
  "autor": "mindicador.cl",
  "fecha": "2024-06-03T20:00:00.000Z",
  "uf": {"codigo": "uf", "nombre": "Unidad de fomento (UF)", "unidad_medida": "Pesos", "fecha": "2024-06-03T04:00:00.000Z", "valor": 37578.26},
  "dolar": {"codigo": "dolar", "nombre": "Dólar observado", "unidad_medida": "Pesos", "fecha": "2024-06-03T04:00:00.000Z", "valor": 915.86},
  "euro": {"codigo": "euro", "nombre": "Euro", "unidad_medida": "Pesos", "fecha": "2024-06-03T04:00:00.000Z", "valor": 995.2},
  "tpm": {"codigo": "tpm", "nombre": "Tasa Política Monetaria (TPM)", "unidad_medida": "Porcentaje", "fecha": "2024-06-03T04:00:00.000Z", "valor": 5.75}
}`

// Upstream is a fake mindicador.cl API rooted at URL + "/api".
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	fail   map[string]bool
	paths  []string
	bodies map[string]string
}

// NewUpstream starts a fake API serving the snapshot, dolar and euro for 2024, and dolar on
// 03-06-2024. Any other path answers 404.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()
	u := &Upstream{
		fail: make(map[string]bool),
		bodies: map[string]string{
			"/api":                  Snapshot,
			"/api/dolar":            History("dolar", "Dólar observado", "Pesos", [2]string{"2024-06-03", "915.86"}, [2]string{"2024-05-31", "917.17"}),
			"/api/dolar/2024":       History("dolar", "Dólar observado", "Pesos", [2]string{"2024-06-03", "915.86"}, [2]string{"2024-05-31", "917.17"}),
			"/api/euro/2024":        History("euro", "Euro", "Pesos", [2]string{"2024-06-03", "995.2"}, [2]string{"2024-05-30", "990.1"}),
			"/api/tpm/2024":         History("tpm", "Tasa Política Monetaria (TPM)", "Porcentaje"),
			"/api/dolar/03-06-2024": History("dolar", "Dólar observado", "Pesos", [2]string{"2024-06-03", "915.86"}),
		},
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// BaseURL is the API root to hand to the client.
func (u *Upstream) BaseURL() string { return u.URL + "/api" }

// Fail makes path answer 500.
func (u *Upstream) Fail(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.fail[path] = true
}

// Set overrides the body served at path.
func (u *Upstream) Set(path, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bodies[path] = body
}

// Paths returns the requested paths in order.
func (u *Upstream) Paths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.paths = append(u.paths, r.URL.Path)
	failing := u.fail[r.URL.Path]
	body, ok := u.bodies[r.URL.Path]
	u.mu.Unlock()

	switch {
	case failing:
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	case !ok:
		http.NotFound(w, r)
	default:
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

// History builds a series document from (yyyy-mm-dd, value) pairs.
func History(code, name, unit string, points ...[2]string) string {
	serie := make([]string, len(points))
	for i, p := range points {
		serie[i] = fmt.Sprintf(`{"fecha": "%sT04:00:00.000Z", "valor": %s}`, p[0], p[1])
	}
	return fmt.Sprintf(`{"version": "1.7.0", "autor": "mindicador.cl", "codigo": %q, "nombre": %q, "unidad_medida": %q, "serie": [%s]}`,
		code, name, unit, strings.Join(serie, ","))
}
