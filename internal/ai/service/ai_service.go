// Package service implements AI analysis over stored data sources: free-form
// questions, insight generation, anomaly detection, and chart suggestions.
// The model sees the data source's metadata and a bounded sample of rows,
// never the full table.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	datasourcedomain "collabboard/backend/internal/datasource/domain"
)

// maxSampleRows bounds how many rows are sent to the model.
const maxSampleRows = 50

// ErrNotConfigured is returned when no AI backend is configured.
var ErrNotConfigured = errors.New("ai analysis is not configured")

// Completer produces a JSON reply for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// DataSourceGetter loads a data source scoped to the requesting user.
type DataSourceGetter interface {
	Get(ctx context.Context, userID, id int64) (*datasourcedomain.DataSource, error)
}

// AIService answers analysis requests against a user's data sources.
type AIService struct {
	completer Completer
	sources   DataSourceGetter
	log       *slog.Logger
}

// NewAIService returns an AIService. A nil completer disables analysis and
// every call returns ErrNotConfigured.
func NewAIService(completer Completer, sources DataSourceGetter, log *slog.Logger) *AIService {
	if log == nil {
		log = slog.Default()
	}
	return &AIService{completer: completer, sources: sources, log: log}
}

// Query answers a free-form question about the data source.
func (s *AIService) Query(ctx context.Context, userID, dataSourceID int64, question string) (json.RawMessage, error) {
	const system = `You are a data analyst. Answer the user's question about the dataset.
Respond with a JSON object: {"answer": string, "confidence": "high"|"medium"|"low", "relevantColumns": [string]}.`
	return s.analyze(ctx, userID, dataSourceID, system, question)
}

// Insights generates notable findings about the data source.
func (s *AIService) Insights(ctx context.Context, userID, dataSourceID int64) (json.RawMessage, error) {
	const system = `You are a data analyst. Identify the most notable findings in the dataset.
Respond with a JSON object: {"insights": [{"title": string, "description": string, "importance": "high"|"medium"|"low"}]}.`
	return s.analyze(ctx, userID, dataSourceID, system, "Generate insights for this dataset.")
}

// Anomalies flags outliers and suspicious values in the data source.
func (s *AIService) Anomalies(ctx context.Context, userID, dataSourceID int64) (json.RawMessage, error) {
	const system = `You are a data analyst. Find outliers, unexpected gaps, and suspicious values in the dataset.
Respond with a JSON object: {"anomalies": [{"column": string, "description": string, "severity": "high"|"medium"|"low"}]}.`
	return s.analyze(ctx, userID, dataSourceID, system, "Detect anomalies in this dataset.")
}

// ChartSuggestions proposes chart configurations for the data source.
func (s *AIService) ChartSuggestions(ctx context.Context, userID, dataSourceID int64) (json.RawMessage, error) {
	const system = `You are a data visualization expert. Suggest charts for the dataset.
Respond with a JSON object: {"charts": [{"type": "line"|"bar"|"pie"|"scatter"|"area", "title": string, "xAxis": string, "yAxis": string, "reason": string}]}.`
	return s.analyze(ctx, userID, dataSourceID, system, "Suggest charts for this dataset.")
}

func (s *AIService) analyze(ctx context.Context, userID, dataSourceID int64, system, question string) (json.RawMessage, error) {
	if s.completer == nil {
		return nil, ErrNotConfigured
	}
	ds, err := s.sources.Get(ctx, userID, dataSourceID)
	if err != nil {
		return nil, err
	}
	user, err := buildPrompt(ds, question)
	if err != nil {
		return nil, err
	}
	reply, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		s.log.Error("ai completion failed", "data_source_id", dataSourceID, "error", err)
		return nil, err
	}
	if !json.Valid([]byte(reply)) {
		return nil, fmt.Errorf("ai: model returned invalid JSON")
	}
	return json.RawMessage(reply), nil
}

// buildPrompt renders metadata plus a row sample for the model.
func buildPrompt(ds *datasourcedomain.DataSource, question string) (string, error) {
	var rows []map[string]any
	if err := json.Unmarshal(ds.Data, &rows); err != nil {
		return "", fmt.Errorf("ai: decode data source rows: %w", err)
	}
	total := len(rows)
	if len(rows) > maxSampleRows {
		rows = rows[:maxSampleRows]
	}
	sample, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Dataset %q (%d rows total, %d shown)\nMetadata: %s\nSample rows: %s\n\n%s",
		ds.Name, total, len(rows), ds.Metadata, sample, question), nil
}
