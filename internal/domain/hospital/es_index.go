package hospital

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

// maxIndexWindow is the default Elasticsearch max_result_window.
const maxIndexWindow = 10000

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":                      {"type": "keyword"},
      "user_id":                 {"type": "keyword"},
      "nom":                     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "adresse":                 {"type": "text"},
      "location":                {"type": "geo_point"},
      "capacite_totale":         {"type": "integer"},
      "lits_disponibles":        {"type": "integer"},
      "numero_contact":          {"type": "keyword"},
      "bloc_urgence_disponible": {"type": "boolean"},
      "pediatrique":             {"type": "boolean"},
      "created_at":              {"type": "date"},
      "updated_at":              {"type": "date"}
    }
  }
}`

type indexDoc struct {
	*Hospital
	Location esGeoPoint `json:"location"`
}

type esGeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ESIndex orders hospitals by distance with an Elasticsearch geo_point index.
// The index only supplies the ordering; hospital rows are always read back
// from the repository, so capacity and emergency-block flags are current.
type ESIndex struct {
	client    *elasticsearch.Client
	index     string
	hospitals HospitalRepository
}

func NewESIndex(client *elasticsearch.Client, index string, hospitals HospitalRepository) *ESIndex {
	return &ESIndex{client: client, index: index, hospitals: hospitals}
}

// EnsureIndex creates the index with its geo_point mapping if it is missing.
func (es *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{es.index}}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("check index existence: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: es.index, Body: strings.NewReader(indexMapping)}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create index %s: %s", es.index, body)
	}
	return nil
}

// Sync bulk-indexes every hospital, replacing documents with the same id.
func (es *ESIndex) Sync(ctx context.Context, hospitals []*Hospital) (int, error) {
	if len(hospitals) == 0 {
		return 0, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, h := range hospitals {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": es.index, "_id": h.ID.String()},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		doc := indexDoc{Hospital: h, Location: esGeoPoint{Lat: h.Latitude, Lon: h.Longitude}}
		if err := enc.Encode(doc); err != nil {
			return 0, fmt.Errorf("encode hospital %s: %w", h.ID, err)
		}
	}

	res, err := esapi.BulkRequest{Body: &buf, Refresh: "true"}.Do(ctx, es.client)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("bulk index: %s", body)
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}
	indexed := 0
	for _, item := range out.Items {
		for _, r := range item {
			if r.Status < 300 {
				indexed++
			}
		}
	}
	if out.Errors {
		return indexed, fmt.Errorf("bulk index: %d of %d documents failed", len(hospitals)-indexed, len(hospitals))
	}
	return indexed, nil
}

// Index writes one hospital document, replacing any previous version.
func (es *ESIndex) Index(ctx context.Context, h *Hospital) error {
	body, err := json.Marshal(indexDoc{Hospital: h, Location: esGeoPoint{Lat: h.Latitude, Lon: h.Longitude}})
	if err != nil {
		return fmt.Errorf("encode hospital %s: %w", h.ID, err)
	}
	res, err := esapi.IndexRequest{
		Index:      es.index,
		DocumentID: h.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("index hospital %s: %w", h.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index hospital %s: %s", h.ID, msg)
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				ID string `json:"id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Nearest sorts by geo_distance server-side, loads the matching rows from the
// repository and recomputes haversine distances so both locators report the
// same numbers. Ids the repository no longer holds are skipped.
func (es *ESIndex) Nearest(ctx context.Context, origin geo.Point, k int) ([]Nearby, error) {
	size := k
	if size <= 0 || size > maxIndexWindow {
		size = maxIndexWindow
	}
	query := map[string]interface{}{
		"size":    size,
		"_source": []string{"id"},
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"location":      map[string]float64{"lat": origin.Latitude, "lon": origin.Longitude},
					"order":         "asc",
					"unit":          "km",
					"distance_type": "arc",
				},
			},
			map[string]interface{}{"created_at": "asc"},
			map[string]interface{}{"id": "asc"},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := esapi.SearchRequest{Index: []string{es.index}, Body: &buf}.Do(ctx, es.client)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search %s: %s", es.index, body)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows, err := es.hospitals.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load indexed hospitals: %w", err)
	}
	byID := make(map[uuid.UUID]*Hospital, len(rows))
	for _, h := range rows {
		byID[h.ID] = h
	}

	out := make([]Nearby, 0, len(ids))
	for _, id := range ids {
		h, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, Nearby{Hospital: h, Distance: geo.Haversine(origin, h.Location())})
	}
	// the index sorts on its own arc approximation; reorder on ours, keeping its order on ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}
