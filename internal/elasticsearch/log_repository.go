package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"jsonweblog/config"
	"jsonweblog/internal/dto"
	"jsonweblog/internal/filter"
	"jsonweblog/internal/model"
	"jsonweblog/internal/parser"
	"jsonweblog/internal/repository"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/rs/zerolog/log"
)

type elasticsearchArchiveRepository struct {
	esTypedClient *elasticsearch.TypedClient
	indexPrefix   string
	flattener     *parser.Flattener
}

func NewElasticsearchArchiveRepository(cfg *config.Config) (repository.ArchiveRepository, error) {
	typedClient, err := elasticsearch.NewTypedClient(newClientConfig(cfg))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Typed Elasticsearch Client in Repository")
		return nil, err
	}

	return &elasticsearchArchiveRepository{
		esTypedClient: typedClient,
		indexPrefix:   cfg.Elasticsearch.LogIndex,
		flattener:     parser.NewFlattener(cfg.Parser.MaxFlattenDepth),
	}, nil
}

// buildFilterQueries translates a record filter into bool filter clauses with
// the same semantics as the in-memory filter.
func buildFilterQueries(f *filter.LogFilter) []types.Query {
	queryParts := []types.Query{}
	if f.IsEmpty() {
		return queryParts
	}

	if f.Level != nil {
		queryParts = append(queryParts, types.Query{
			Term: map[string]types.TermQuery{
				"level.keyword": {Value: f.Level.String()},
			},
		})
	}

	if f.SearchText != nil {
		should := make([]types.Query, 0, 4)
		for _, field := range []string{"message.keyword", "logger.keyword", "module.keyword", "function.keyword"} {
			should = append(should, wildcardQuery(field, *f.SearchText, true))
		}
		queryParts = append(queryParts, types.Query{
			Bool: &types.BoolQuery{
				Should:             should,
				MinimumShouldMatch: 1,
			},
		})
	}

	if f.Logger != nil {
		queryParts = append(queryParts, wildcardQuery("logger.keyword", *f.Logger, false))
	}
	if f.Module != nil {
		queryParts = append(queryParts, wildcardQuery("module.keyword", *f.Module, false))
	}

	if f.StartTime != nil || f.EndTime != nil {
		rangeQuery := types.DateRangeQuery{}
		if f.StartTime != nil {
			start := f.StartTime.UTC().Format(time.RFC3339Nano)
			rangeQuery.Gte = &start
		}
		if f.EndTime != nil {
			end := f.EndTime.UTC().Format(time.RFC3339Nano)
			rangeQuery.Lte = &end
		}
		queryParts = append(queryParts, types.Query{
			Range: map[string]types.RangeQuery{
				"@timestamp": rangeQuery,
			},
		})
	}

	return queryParts
}

func wildcardQuery(field, substring string, caseInsensitive bool) types.Query {
	pattern := "*" + escapeWildcard(substring) + "*"
	return types.Query{
		Wildcard: map[string]types.WildcardQuery{
			field: {
				Value:           &pattern,
				CaseInsensitive: &caseInsensitive,
			},
		},
	}
}

func escapeWildcard(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Search returns the newest matching archived records, oldest first within
// the page.
func (r *elasticsearchArchiveRepository) Search(ctx context.Context, req dto.ArchiveSearchRequest) (*dto.ArchiveSearchResponse, error) {
	indexPattern := fmt.Sprintf("%s-*", r.indexPrefix)
	from := (req.Page - 1) * req.Size
	order := sortorder.Desc

	searchRequest := &search.Request{
		Query: &types.Query{
			Bool: &types.BoolQuery{
				Filter: buildFilterQueries(req.Filter),
			},
		},
		Size: &req.Size,
		From: &from,
		Sort: []types.SortCombinations{
			types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					"@timestamp": {Order: &order},
				},
			},
			types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					"sequence": {Order: &order},
				},
			},
		},
	}

	res, err := r.esTypedClient.Search().
		Index(indexPattern).
		Request(searchRequest).
		Do(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error executing Elasticsearch search via TypedClient")
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}

	records := make([]*model.LogRecord, 0, len(res.Hits.Hits))
	for i := len(res.Hits.Hits) - 1; i >= 0; i-- {
		hit := res.Hits.Hits[i]
		if hit.Source_ == nil {
			continue
		}
		var doc archiveDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			log.Error().Err(err).Msg("Error unmarshalling Elasticsearch hit source")
			continue
		}
		record, err := doc.toArchivedRecord(r.flattener)
		if err != nil {
			log.Error().Err(err).Uint64("sequence", doc.Sequence).Msg("Error decoding archived raw fields")
			continue
		}
		records = append(records, record)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}
	response := &dto.ArchiveSearchResponse{
		Logs:       records,
		TotalCount: total,
		Page:       req.Page,
		Size:       req.Size,
	}

	log.Debug().Int64("total_hits", response.TotalCount).Int("returned_hits", len(response.Logs)).Msg("Elasticsearch search successful")
	return response, nil
}
