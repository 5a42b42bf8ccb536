package content

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sautihealth/sauti/datastore"
	"github.com/sautihealth/sauti/models"
)

// CSVSource serves curated messages from the tabular fallback file,
// cycling through rows via the persisted cursor. It is the last tier
// before the hardcoded safe default.
type CSVSource struct {
	path   string
	cursor *datastore.CursorStore
}

func NewCSVSource(path string, cursor *datastore.CursorStore) *CSVSource {
	return &CSVSource{path: path, cursor: cursor}
}

// Name identifies the tier in chain results.
func (c *CSVSource) Name() string {
	return "CSV"
}

// Fetch advances the cyclic cursor and returns the row at the new index.
// The source label carries a CSV- prefix plus the row's own source field.
func (c *CSVSource) Fetch(ctx context.Context) (models.ContentItem, error) {
	file, err := os.Open(c.path)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("parse %s: %w", c.path, err)
	}
	if len(records) < 2 {
		return models.ContentItem{}, fmt.Errorf("%s has no content rows", c.path)
	}

	messageCol, sourceCol, err := requiredColumns(records[0])
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("%s: %w", c.path, err)
	}

	rows := records[1:]
	idx, err := c.cursor.Advance(len(rows))
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("advance cursor: %w", err)
	}

	row := rows[idx]
	message := strings.TrimSpace(row[messageCol])
	if message == "" {
		return models.ContentItem{}, fmt.Errorf("%s row %d has an empty message", c.path, idx)
	}

	return models.ContentItem{
		Message:   message,
		Source:    "CSV-" + strings.TrimSpace(row[sourceCol]),
		Timestamp: time.Now().UTC(),
	}, nil
}

// requiredColumns locates the message and source columns; absence of
// either is fatal to this tier.
func requiredColumns(header []string) (messageCol, sourceCol int, err error) {
	messageCol, sourceCol = -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "message":
			messageCol = i
		case "source":
			sourceCol = i
		}
	}
	if messageCol == -1 || sourceCol == -1 {
		return 0, 0, fmt.Errorf("missing required 'message' and/or 'source' columns")
	}
	return messageCol, sourceCol, nil
}
