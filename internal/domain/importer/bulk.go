package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/caixadigital/ofximport/internal/domain/catalog"
	"github.com/caixadigital/ofximport/pkg/metrics"
)

// categorySynonyms maps classifier output names to catalog names that may
// exist instead. Hand-curated; an unresolvable suggestion is dropped, never
// an error.
var categorySynonyms = map[string][]string{
	"ALIMENTACAO":       {"Compras"},
	"TRANSPORTE":        {"Compras"},
	"ENTRETENIMENTO":    {"Compras"},
	"SAUDE":             {"Compras"},
	"RENDA":             {"Vendas", "Serviços", "Outras Receitas"},
	"TRANSFERENCIA":     {"Aporte Financeiro", "Outras Receitas"},
	"TARIFAS_BANCARIAS": {"Impostos"},
	"COMPRAS":           {"Compras"},
	"FOLHA":             {"Folha", "Salários"},
	"IMPOSTOS":          {"Impostos"},
	"PARTICULAR":        {"PARTICULAR"},
	"VENDAS":            {"Vendas"},
	"PRESTACAO_SERVICO": {"Prestação de Serviço", "Serviços"},
	"JUROS_RENDIMENTOS": {"Juros e Rendimentos"},
	"OUTRAS_RECEITAS":   {"Outras Receitas"},
}

// BulkProcessor resolves classifier suggestions against the catalog cache
// and persists candidates in bounded batches.
type BulkProcessor struct {
	repo      *Repository
	cache     *catalog.Cache
	logger    *slog.Logger
	metrics   *metrics.Pipeline
	batchSize int
	pause     time.Duration
	retries   uint64
}

func NewBulkProcessor(repo *Repository, cache *catalog.Cache, logger *slog.Logger, m *metrics.Pipeline, batchSize int, pause time.Duration, retries int) *BulkProcessor {
	if batchSize < 1 {
		batchSize = 100
	}
	return &BulkProcessor{
		repo:      repo,
		cache:     cache,
		logger:    logger,
		metrics:   m,
		batchSize: batchSize,
		pause:     pause,
		retries:   uint64(retries),
	}
}

// Persist resolves names, deduplicates in memory, and writes the
// candidates for one job. Returns the number of rows handed to the store.
func (b *BulkProcessor) Persist(ctx context.Context, importID uuid.UUID, candidates []Candidate) (int, error) {
	rows := b.buildRows(importID, candidates)

	for start := 0; start < len(rows); start += b.batchSize {
		end := start + b.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		backoff := retry.WithMaxRetries(b.retries, retry.NewExponential(50*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			_, err := b.repo.InsertPendingBatch(ctx, batch)
			if err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("batch insert %d-%d: %w", start, end, err)
		}
		b.metrics.BatchInsertSizes.Observe(float64(len(batch)))

		if end < len(rows) && b.pause > 0 {
			select {
			case <-time.After(b.pause):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}

	return len(rows), nil
}

// buildRows converts candidates into staging rows: suggestion names become
// catalog ids and duplicate dedup keys within the job are dropped here so
// the store's skip-on-conflict only has to handle cross-run duplicates.
func (b *BulkProcessor) buildRows(importID uuid.UUID, candidates []Candidate) []PendingTransaction {
	type dedupKey struct {
		title  string
		amount int64
		date   time.Time
	}
	seen := map[dedupKey]bool{}

	rows := make([]PendingTransaction, 0, len(candidates))
	for _, c := range candidates {
		key := dedupKey{title: c.Title, amount: c.Amount, date: c.TransactionDate}
		if seen[key] {
			continue
		}
		seen[key] = true

		row := PendingTransaction{
			ID:              uuid.New(),
			ImportID:        importID,
			Title:           c.Title,
			Description:     c.Description,
			Amount:          c.Amount,
			Type:            c.Type,
			TransactionDate: c.TransactionDate,
			FitID:           c.FitID,
			TrnType:         c.TrnType,
			CheckNum:        c.CheckNum,
			Memo:            c.Memo,
			Name:            c.Name,
		}

		if c.SuggestedCategory != "" {
			if cat, ok := b.resolveCategory(c.SuggestedCategory); ok {
				confidence := c.CategoryConfidence
				row.SuggestedCategoryID = &cat.ID
				row.Confidence = &confidence
			} else {
				b.logger.Warn("category suggestion dropped",
					slog.String("name", c.SuggestedCategory))
			}
		}
		if c.SuggestedPaymentMethod != "" {
			if pm, ok := b.resolvePaymentMethod(c.SuggestedPaymentMethod); ok {
				confidence := c.PaymentMethodConfidence
				row.SuggestedPaymentMethodID = &pm.ID
				row.PaymentMethodConfidence = &confidence
			} else {
				b.logger.Warn("payment method suggestion dropped",
					slog.String("name", c.SuggestedPaymentMethod))
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// resolveCategory tries exact match, then the synonym table, then
// substring containment.
func (b *BulkProcessor) resolveCategory(name string) (catalog.Category, bool) {
	if cat, ok := b.cache.CategoryByName(name); ok {
		return cat, true
	}
	for _, synonym := range categorySynonyms[toSynonymKey(name)] {
		if cat, ok := b.cache.CategoryByName(synonym); ok {
			return cat, true
		}
	}
	return b.cache.CategoryByContains(name)
}

func (b *BulkProcessor) resolvePaymentMethod(name string) (catalog.PaymentMethod, bool) {
	if pm, ok := b.cache.PaymentMethodByName(name); ok {
		return pm, true
	}
	return b.cache.PaymentMethodByContains(name)
}

// toSynonymKey normalizes a classifier name to the synonym table's key
// form (upper-case ASCII, spaces as underscores).
func toSynonymKey(name string) string {
	key := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			key = append(key, c-32)
		case c == ' ':
			key = append(key, '_')
		default:
			key = append(key, c)
		}
	}
	return string(key)
}

// UpdateProgress is best-effort: a failed counter update must never abort
// an otherwise successful import.
func (b *BulkProcessor) UpdateProgress(ctx context.Context, importID uuid.UUID, total, processed int) {
	if err := b.repo.UpdateCounters(ctx, importID, total, processed); err != nil {
		b.logger.Error("progress update failed",
			slog.String("import_id", importID.String()),
			slog.String("error", err.Error()))
	}
}
