// Package export ships profile export snapshots to Elasticsearch for
// the external consumer's search and reporting needs.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialstar-core/internal/common/config"
	stderrors "socialstar-core/internal/common/errors"
	"socialstar-core/internal/common/logger"
	"socialstar-core/internal/profile"

	"github.com/elastic/go-elasticsearch/v8"
)

// Indexer writes export snapshots into one Elasticsearch index.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewIndexer builds an Elasticsearch client from config and wires the
// indexer to it.
func NewIndexer(cfg config.ExportConfig, log logger.Logger) (*Indexer, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
	}
	if cfg.Elasticsearch.Username != "" {
		esCfg.Username = cfg.Elasticsearch.Username
		esCfg.Password = cfg.Elasticsearch.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return NewIndexerWithClient(client, cfg.Index, log), nil
}

// NewIndexerWithClient wires an existing client, used by tests.
func NewIndexerWithClient(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "export"}),
	}
}

// Index writes the snapshot as one document keyed by application_id.
func (i *Indexer) Index(ctx context.Context, snap *profile.Snapshot) error {
	doc := snap.AsMap()
	doc["indexed_at"] = time.Now().UTC().Format(time.RFC3339)

	id, _ := snap.Get("application_id")
	docID, _ := id.(string)

	body, err := json.Marshal(doc)
	if err != nil {
		return stderrors.NewExportIndexError(fmt.Errorf("marshal snapshot: %w", err))
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(docID),
	)
	if err != nil {
		return stderrors.NewExportIndexError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewExportIndexError(fmt.Errorf("index response: %s", res.Status()))
	}

	i.logger.Debug("snapshot indexed", map[string]interface{}{
		"documentId": docID,
	})
	return nil
}
