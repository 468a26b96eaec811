package stopsdb

// Hand-written FTS5 query implementations. The MATCH operator and the
// bm25() ranking function are FTS5-specific syntax, so these queries are
// maintained manually against the schema in schema.sql.

import (
	"context"
	"strings"
)

// StopRow is one row of the stops index.
type StopRow struct {
	ID   int
	Code string
	Name string
	Lat  float64
	Lon  float64
}

// buildStopSearchQuery normalizes user input into an FTS5-safe prefix
// search query.
func buildStopSearchQuery(input string) string {
	terms := strings.Fields(strings.ToLower(input))
	safeTerms := make([]string, 0, len(terms))

	for _, term := range terms {
		trimmed := strings.TrimSpace(term)
		if trimmed == "" {
			continue
		}
		escaped := strings.ReplaceAll(trimmed, `"`, `""`)
		safeTerms = append(safeTerms, `"`+escaped+`"*`)
	}

	if len(safeTerms) == 0 {
		return ""
	}

	return strings.Join(safeTerms, " AND ")
}

const searchStopsByName = `
SELECT
    s.id,
    s.code,
    s.name,
    s.lat,
    s.lon
FROM
    stops_fts
    JOIN stops s ON s.id = stops_fts.rowid
WHERE
    stops_fts MATCH ?
ORDER BY
    bm25(stops_fts),
    s.id
LIMIT
    ?
`

// SearchStopsByName performs a prefix full-text search over stop names
// and codes.
func (c *Client) SearchStopsByName(ctx context.Context, input string, maxCount int) ([]StopRow, error) {
	limit := maxCount
	if limit <= 0 {
		limit = 20
	}

	query := buildStopSearchQuery(input)
	if query == "" {
		return []StopRow{}, nil
	}

	rows, err := c.DB.QueryContext(ctx, searchStopsByName, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // closing is also checked explicitly below

	var items []StopRow
	for rows.Next() {
		var i StopRow
		if err := rows.Scan(&i.ID, &i.Code, &i.Name, &i.Lat, &i.Lon); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
