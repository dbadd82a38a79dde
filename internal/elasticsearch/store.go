package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jsonweblog/config"
	"jsonweblog/internal/model"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
)

// RecordArchive indexes records for search beyond the in-memory window.
type RecordArchive interface {
	StoreRecords(ctx context.Context, records []*model.LogRecord) error
	Close(ctx context.Context) error
}

type elasticRecordArchive struct {
	bulkIndexer     esutil.BulkIndexer
	indexPrefix     string
	countSuccessful uint64
	countFailed     uint64
}

func newClientConfig(cfg *config.Config) elasticsearch.Config {
	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,                                                  // Keep up to 10 idle connections per host
		ResponseHeaderTimeout: time.Second * 10,                                    // Timeout reading response headers
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext, // TCP connect timeout
		TLSHandshakeTimeout:   5 * time.Second,                                     // TLS handshake timeout
	}
	return elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	}
}

// NewElasticClient connects with retries and verifies the cluster answers.
func NewElasticClient(cfg *config.Config) (*elasticsearch.Client, error) {
	if len(cfg.Elasticsearch.Addresses) == 0 {
		return nil, errors.New("elasticsearch configuration missing")
	}
	esCfg := newClientConfig(cfg)

	var esClient *elasticsearch.Client
	operation := func() error {
		var err error
		esClient, err = elasticsearch.NewClient(esCfg)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the Elasticsearch client")
			return err
		}

		res, errPing := esClient.Info(
			esClient.Info.WithContext(context.Background()),
		)
		if errPing != nil {
			log.Warn().Err(errPing).Msg("Attempt failed: Error during Elasticsearch Info() call (transport level)")
			return errPing
		}
		defer res.Body.Close()
		if res.IsError() {
			errMsg := fmt.Errorf("elasticsearch Info() returned error status: %s", res.Status())
			log.Warn().Err(errMsg).Msg("Attempt failed: Elasticsearch ping returned error status")
			return errMsg
		}
		log.Info().Str("status", res.Status()).Msg("Elasticsearch client initialized and connection verified!")
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Msg("Attempting to connect to Elasticsearch with retries...")
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	return esClient, nil
}

func NewElasticRecordArchive(cfg *config.Config, esClient *elasticsearch.Client) (RecordArchive, error) {
	archive := &elasticRecordArchive{
		indexPrefix: cfg.Elasticsearch.LogIndex,
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        esClient,
		Index:         archive.getIndexName(),          // Default index, can be overridden per item
		NumWorkers:    cfg.Elasticsearch.BulkWorkers,   // Number of workers
		FlushBytes:    cfg.Elasticsearch.FlushBytes,    // Flush threshold
		FlushInterval: cfg.Elasticsearch.FlushInterval, // Flush interval
		OnError: func(ctx context.Context, err error) {
			log.Error().Err(err).Msg("BulkIndexer error")
		},
		OnFlushStart: func(ctx context.Context) context.Context {
			log.Debug().Msg("BulkIndexer flush starting")
			return ctx
		},
		OnFlushEnd: func(ctx context.Context) {
			log.Debug().Msg("BulkIndexer flush ended")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bulk indexer: %w", err)
	}
	archive.bulkIndexer = bi
	log.Info().Str("index_prefix", archive.indexPrefix).Msg("Elasticsearch BulkIndexer initialized")

	return archive, nil
}

// StoreRecords queues records on the bulk indexer. Indexing itself happens
// asynchronously; failures are counted in the item callbacks.
func (s *elasticRecordArchive) StoreRecords(ctx context.Context, records []*model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	currentFailed := atomic.LoadUint64(&s.countFailed)

	for _, record := range records {
		doc, err := toArchiveDocument(record)
		if err != nil {
			log.Error().Err(err).Uint64("sequence", record.Sequence).Msg("Failed to build archive document")
			atomic.AddUint64(&s.countFailed, 1)
			continue
		}
		data, err := json.Marshal(doc)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal record for Elasticsearch")
			atomic.AddUint64(&s.countFailed, 1)
			continue
		}

		err = s.bulkIndexer.Add(
			ctx,
			esutil.BulkIndexerItem{
				Action: "index",
				Index:  s.getIndexName(),
				Body:   bytes.NewReader(data),
				OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
					atomic.AddUint64(&s.countSuccessful, 1)
				},
				OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
					atomic.AddUint64(&s.countFailed, 1)
					if err != nil {
						log.Error().Err(err).Msg("Archive indexing failed")
						return
					}
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Archive indexing failed")
				},
			},
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to add item to BulkIndexer")
			atomic.AddUint64(&s.countFailed, 1)
		}
	}
	log.Debug().Int("count", len(records)).Msg("Added records to Elasticsearch BulkIndexer queue")

	if atomic.LoadUint64(&s.countFailed) > currentFailed {
		return errors.New("one or more records failed during bulk indexing attempt")
	}
	return nil
}

func (s *elasticRecordArchive) Close(ctx context.Context) error {
	log.Info().Msg("Attempting to close BulkIndexer...")
	err := s.bulkIndexer.Close(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error closing BulkIndexer")
	} else {
		log.Info().Msg("BulkIndexer closed.")
	}

	stats := s.bulkIndexer.Stats()
	log.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("added", stats.NumAdded).
		Uint64("flushed", stats.NumFlushed).
		Uint64("failed", stats.NumFailed).
		Uint64("requests", stats.NumRequests).
		Uint64("callback_successful", atomic.LoadUint64(&s.countSuccessful)).
		Uint64("callback_failed", atomic.LoadUint64(&s.countFailed)).
		Msg("Elasticsearch BulkIndexer final stats")

	return err
}

// getIndexName generates the index name, e.g., "jsonweblog-records-YYYY-MM-DD"
func (s *elasticRecordArchive) getIndexName() string {
	return fmt.Sprintf("%s-%s", s.indexPrefix, time.Now().UTC().Format("2006-01-02"))
}
