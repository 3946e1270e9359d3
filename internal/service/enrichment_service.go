package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/models"
)

// EnrichmentService calls an external annotation endpoint to attach
// advisory notes to conflict reports and substitution requests. It is
// strictly additive: failures and timeouts leave the deterministic result
// untouched, and nothing downstream may branch on an annotation.
type EnrichmentService struct {
	endpoint string
	client   *http.Client
	enabled  bool
	logger   *zap.Logger
}

// NewEnrichmentService constructs an EnrichmentService. When disabled every
// annotate call is a no-op.
func NewEnrichmentService(endpoint string, timeout time.Duration, enabled bool, logger *zap.Logger) *EnrichmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &EnrichmentService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		enabled:  enabled && endpoint != "",
		logger:   logger,
	}
}

type enrichmentRequest struct {
	Kind    string      `json:"kind"`
	Subject interface{} `json:"subject"`
}

type enrichmentResponse struct {
	Annotations []string `json:"annotations"`
}

// AnnotateReport attaches advisory notes to a conflict report.
func (s *EnrichmentService) AnnotateReport(ctx context.Context, report *models.ConflictReport) {
	if !s.enabled || report == nil {
		return
	}
	annotations, err := s.fetch(ctx, enrichmentRequest{Kind: "conflict_report", Subject: report})
	if err != nil {
		s.logger.Warn("report enrichment skipped", zap.String("schedule_id", report.ScheduleID), zap.Error(err))
		return
	}
	report.Annotations = annotations
}

// AnnotateSubstitution attaches an advisory note to a substitution request.
// The note is persisted separately by the caller via the request record.
func (s *EnrichmentService) AnnotateSubstitution(ctx context.Context, request *models.SubstitutionRequest) {
	if !s.enabled || request == nil {
		return
	}
	annotations, err := s.fetch(ctx, enrichmentRequest{Kind: "substitution_request", Subject: request})
	if err != nil {
		s.logger.Warn("substitution enrichment skipped", zap.String("request_id", request.ID), zap.Error(err))
		return
	}
	if len(annotations) > 0 {
		request.Annotation = &annotations[0]
	}
}

func (s *EnrichmentService) fetch(ctx context.Context, payload enrichmentRequest) ([]string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build enrichment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call enrichment endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment endpoint returned %d", resp.StatusCode)
	}

	var decoded enrichmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode enrichment response: %w", err)
	}
	return decoded.Annotations, nil
}
