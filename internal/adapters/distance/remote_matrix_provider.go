package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/platform/obs"
	"delivery-route-service/internal/ports"
)

const (
	remoteTileSize  = 100
	remoteTileSleep = 200 * time.Millisecond
)

// tableResponse is the expected shape of a road-network table service
// response. Any other shape is treated as malformed and triggers fallback.
type tableResponse struct {
	Code      string      `json:"code"`
	Distances [][]float64 `json:"distances"`
}

// RemoteMatrixProvider calls an OSRM-table-style HTTP service for an N×N
// kilometer distance matrix, batching requests in 100x100 tiles for large
// N. Any HTTP error, timeout, or malformed payload falls back to the
// haversine backend for the entire call — the caller never observes
// transport failures, per ports.MatrixProvider's contract.
type RemoteMatrixProvider struct {
	transport *httpTransport
	baseURL   string
	fallback  ports.MatrixProvider
	cache     ports.DistanceCache
}

func NewRemoteMatrixProvider(baseURL, apiKey string, timeout time.Duration, fallback ports.MatrixProvider, cache ports.DistanceCache) *RemoteMatrixProvider {
	return &RemoteMatrixProvider{
		transport: newHTTPTransport(apiKey, timeout),
		baseURL:   strings.TrimRight(baseURL, "/"),
		fallback:  fallback,
		cache:     cache,
	}
}

// locationKey formats a location as a stable coordinate-pair cache key.
func locationKey(loc domain.Location) string {
	return fmt.Sprintf("%.6f,%.6f", loc.Lat, loc.Lng)
}

func (r *RemoteMatrixProvider) Matrix(ctx context.Context, locations []domain.Location) (_ [][]float64, err error) {
	defer obs.Time(ctx, "matrix.remote")(&err)

	n := len(locations)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	if n == 0 {
		return out, nil
	}

	rowTiles := tileBounds(n, remoteTileSize)
	first := true
	for _, rows := range rowTiles {
		for _, cols := range rowTiles {
			if !first {
				select {
				case <-ctx.Done():
					return r.fallbackMatrix(ctx, locations)
				case <-time.After(remoteTileSleep):
				}
			}
			first = false

			if err := r.fillTile(ctx, locations, rows, cols, out); err != nil {
				log.Printf("op=matrix.remote event=fallback reason=%v", err)
				return r.fallbackMatrix(ctx, locations)
			}
		}
	}

	return out, nil
}

type tileBound struct{ lo, hi int }

func tileBounds(n, size int) []tileBound {
	var bounds []tileBound
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		bounds = append(bounds, tileBound{lo: lo, hi: hi})
	}
	return bounds
}

func (r *RemoteMatrixProvider) fallbackMatrix(ctx context.Context, locations []domain.Location) ([][]float64, error) {
	return r.fallback.Matrix(ctx, locations)
}

// fillTile resolves distances for the sub-block [rows.lo:rows.hi) x
// [cols.lo:cols.hi), preferring the cache: the remote service is called
// only when some pair in the tile is uncached, and then for the whole
// tile, with only the missing cells taken from the response.
func (r *RemoteMatrixProvider) fillTile(ctx context.Context, locations []domain.Location, rows, cols tileBound, out [][]float64) error {
	sources := locations[rows.lo:rows.hi]
	dests := locations[cols.lo:cols.hi]
	destKeys := make([]string, len(dests))
	for j, d := range dests {
		destKeys[j] = locationKey(d)
	}

	missing := map[int][]int{}
	if r.cache != nil {
		for i, s := range sources {
			cached, err := r.cache.GetMany(ctx, locationKey(s), destKeys)
			if err != nil {
				return fmt.Errorf("fill tile: distance cache lookup: %w", err)
			}
			for j, dk := range destKeys {
				if km, ok := cached[dk]; ok {
					out[rows.lo+i][cols.lo+j] = km
					continue
				}
				missing[i] = append(missing[i], j)
			}
		}
	} else {
		for i := range sources {
			idx := make([]int, len(dests))
			for j := range dests {
				idx[j] = j
			}
			missing[i] = idx
		}
	}

	if len(missing) == 0 {
		return nil
	}

	tile, err := r.fetchTile(ctx, sources, dests)
	if err != nil {
		return err
	}

	for i, js := range missing {
		for _, j := range js {
			out[rows.lo+i][cols.lo+j] = tile[i][j]
		}
	}

	if r.cache != nil {
		for i, s := range sources {
			results := make(map[string]float64, len(dests))
			for j := range dests {
				results[destKeys[j]] = tile[i][j]
			}
			if err := r.cache.PutMany(ctx, locationKey(s), results); err != nil {
				return fmt.Errorf("fill tile: distance cache store: %w", err)
			}
		}
	}

	return nil
}

// fetchTile calls the remote table service for one source-set x
// destination-set block and returns meters converted to kilometers.
func (r *RemoteMatrixProvider) fetchTile(ctx context.Context, sources, dests []domain.Location) ([][]float64, error) {
	all := make([]domain.Location, 0, len(sources)+len(dests))
	all = append(all, sources...)
	all = append(all, dests...)

	coordParts := make([]string, len(all))
	for i, loc := range all {
		coordParts[i] = fmt.Sprintf("%f,%f", loc.Lng, loc.Lat)
	}

	sourceIdx := make([]string, len(sources))
	for i := range sources {
		sourceIdx[i] = strconv.Itoa(i)
	}
	destIdx := make([]string, len(dests))
	for j := range dests {
		destIdx[j] = strconv.Itoa(len(sources) + j)
	}

	url := fmt.Sprintf("%s/%s?sources=%s&destinations=%s",
		r.baseURL, strings.Join(coordParts, ";"), strings.Join(sourceIdx, ";"), strings.Join(destIdx, ";"))

	resp, err := r.transport.doWithRetry(ctx, func() (*http.Request, error) {
		return r.transport.newRequest(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close()

	var parsed tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("fetch tile: decode response: %w", err)
	}
	if parsed.Code != "Ok" {
		return nil, fmt.Errorf("fetch tile: non-Ok code %q", parsed.Code)
	}
	if len(parsed.Distances) != len(sources) {
		return nil, fmt.Errorf("fetch tile: expected %d rows, got %d", len(sources), len(parsed.Distances))
	}

	out := make([][]float64, len(sources))
	for i, row := range parsed.Distances {
		if len(row) != len(dests) {
			return nil, fmt.Errorf("fetch tile: row %d: expected %d cols, got %d", i, len(dests), len(row))
		}
		out[i] = make([]float64, len(dests))
		for j, meters := range row {
			out[i][j] = meters / 1000.0
		}
	}

	return out, nil
}

var _ ports.MatrixProvider = (*RemoteMatrixProvider)(nil)
