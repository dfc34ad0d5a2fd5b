package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b00m.in/landgrid/catalog"
)

const roll = `FULLADDRES,STATUS,wgs84_y,wgs84_x,espg3857_x,espg3857_y
1 Corner Rd,Active,40,-75,0.5,0.5
2 Far Rd,Active,41,-76,50,50
broken,Active,x,y,z,w
`

const parcels = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"NAME":"Smith","MapNum":"P-1"},"geometry":{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,1],[0,0]]]]}},
{"type":"Feature","properties":{"NAME":"Jones"},"geometry":{"type":"MultiPolygon","coordinates":[[[[5,5],[6,5],[6,6],[5,5]]]]}},
{"type":"Feature","properties":{"MapNum":"P-3"},"geometry":{"type":"MultiPolygon","coordinates":[[[[10,10],[20,10],[20,20],[10,20],[10,10]],[[12,12],[14,12],[14,14],[12,14],[12,12]]]]}}
]}`

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// workspace writes the sources and a config file pointing at them.
func workspace(t *testing.T, extra string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roll.csv"), []byte(roll), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parcels.geojson"), []byte(parcels), 0o644))

	body := strings.ReplaceAll(`
addresses:
  source: DIR/roll.csv
  cache: DIR/cache/addresses.data
address_points:
  cache: DIR/cache/address_points.data
parcels:
  source: DIR/parcels.geojson
  cache: DIR/cache/parcels.data
log:
  level: error
`, "DIR", dir) + extra
	cfgPath = filepath.Join(dir, "landgrid.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return dir, cfgPath
}

var runMu sync.Mutex

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	runMu.Lock()
	defer runMu.Unlock()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestBuildThenQuery(t *testing.T) {
	dir, cfgPath := workspace(t, "")

	out, err := run(t, "build", "--config", cfgPath, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "read 3, kept 2, dropped 1")
	assert.Contains(t, out, "missing_id=1")
	assert.Contains(t, out, "caches written")
	assert.FileExists(t, filepath.Join(dir, "cache", "parcels.data"))

	out, err = run(t, "stats", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "address points")
	assert.Contains(t, out, "0,0,20,20")

	out, err = run(t, "query", "0.5", "0.5", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 Corner Rd")
	assert.Contains(t, out, "P-1")
	assert.NotContains(t, out, "P-3")

	out, err = run(t, "query", "13", "13", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing at 13,13")

	_, err = run(t, "query", "east", "13", "--config", cfgPath)
	assert.Error(t, err)

	out, err = run(t, "show", "parcels", "--config", cfgPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "P-1")
	assert.Contains(t, out, "1 of 2 rows")

	_, err = run(t, "show", "roads", "--config", cfgPath)
	assert.True(t, errors.Is(err, catalog.ErrUnknownKind))
}

func TestBuild_DryRunWritesNothing(t *testing.T) {
	dir, cfgPath := workspace(t, "")
	_, err := run(t, "build", "--config", cfgPath, "--quiet", "--dry-run")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "cache"))

	// flags persist on the shared command tree
	require.NoError(t, buildCmd.Flags().Set("dry-run", "false"))
}

func TestShow_NothingCached(t *testing.T) {
	_, cfgPath := workspace(t, "")
	out, err := run(t, "show", "points", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no points cached")
}

func TestExportFilterInspect(t *testing.T) {
	dir, cfgPath := workspace(t, "")
	_, err := run(t, "build", "--config", cfgPath, "--quiet")
	require.NoError(t, err)

	dest := filepath.Join(dir, "parcels.parquet")
	out, err := run(t, "export", "parcels", dest, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 parcels written")

	out, err = run(t, "filter", "--config", cfgPath, "--bbox", "0,0,1,1", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "true")

	out, err = run(t, "filter", "--config", cfgPath, "--bbox", "100,100,200,200", "--matching", dest)
	require.NoError(t, err)
	assert.NotContains(t, out, dest)
	require.NoError(t, filterCmd.Flags().Set("matching", "false"))

	_, err = run(t, "filter", "--config", cfgPath, "--bbox", "1,2,3", dest)
	assert.Error(t, err)

	out, err = run(t, "inspect", dest, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "geo bbox")
	assert.Contains(t, out, "owner_id")

	out, err = run(t, "inspect", filepath.Join(dir, "cache", "parcels.data"), "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "parcels")
	assert.Contains(t, out, "compressed")

	_, err = run(t, "export", "addresses", dest, "--config", cfgPath)
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	_, cfgPath := workspace(t, "buffer: 0.25\n")
	out, err := run(t, "config", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "buffer: 0.25")
	assert.Contains(t, out, "address_points:")
}

func TestParseBbox(t *testing.T) {
	b, err := parseBbox("-3.72, 10.41,-3.68,12.43")
	require.NoError(t, err)
	assert.Equal(t, -3.72, b.Min[0])
	assert.Equal(t, 12.43, b.Max[1])

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "5,0,1,1"} {
		_, err := parseBbox(bad)
		assert.Error(t, err, bad)
	}
}

// objectStore is a minimal path style store for push and get.
type objectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *objectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.objects[name] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		body, ok := s.objects[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(body))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestPushThenGet(t *testing.T) {
	store := &objectStore{objects: map[string][]byte{}}
	srv := httptest.NewServer(store)
	defer srv.Close()

	dir, cfgPath := workspace(t, "s3:\n  endpoint: "+srv.URL+"\n  path_style: true\n  anonymous: true\n")
	_, err := run(t, "build", "--config", cfgPath, "--quiet")
	require.NoError(t, err)

	out, err := run(t, "push", "county-cache", "--config", cfgPath, "--prefix", "landgrid")
	require.NoError(t, err)
	assert.Contains(t, out, "parcels.data")
	local, err := os.ReadFile(filepath.Join(dir, "cache", "parcels.data"))
	require.NoError(t, err)
	assert.Equal(t, local, store.objects["county-cache/landgrid/parcels.data"])

	dest := filepath.Join(dir, "fetched", "parcels.data")
	out, err = run(t, "get", "county-cache", "landgrid/parcels.data", "--config", cfgPath, "--quiet", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "File downloaded!")
	fetched, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, local, fetched)
}
