package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fesexport/backend/config"
	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/pkg/logger"
)

// ReferenceService is the client of the reference-data API that validates
// species and commodity codes and reports landing validation failures.
type ReferenceService struct {
	config     *config.ReferenceConfig
	httpClient *http.Client
}

// referenceResponse is the envelope every reference endpoint answers with.
type referenceResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    T      `json:"data"`
}

type landingsErrorsData struct {
	ProductIDs []string `json:"productIds"`
}

func NewReferenceService(cfg *config.ReferenceConfig) *ReferenceService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReferenceService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func getReference[T any](ctx context.Context, s *ReferenceService, path string, query url.Values) (T, error) {
	var zero T
	endpoint := s.config.APIURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}
	if s.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("reference API %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	var result referenceResponse[T]
	if err := json.Unmarshal(body, &result); err != nil {
		return zero, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	if result.Code != 0 {
		return zero, fmt.Errorf("reference API error: %s", result.Message)
	}

	logger.Debug(ctx, "reference lookup", "path", path)
	return result.Data, nil
}

// ValidateSpeciesName checks an exact species name.
func (s *ReferenceService) ValidateSpeciesName(ctx context.Context, name string) (model.ReferenceResult, error) {
	return getReference[model.ReferenceResult](ctx, s, "/v1/species/search", url.Values{"name": {name}})
}

// ValidateSpeciesWithSuggestions checks a species name and, when it is not
// recognised, returns close matches in ResultList.
func (s *ReferenceService) ValidateSpeciesWithSuggestions(ctx context.Context, name string) (model.ReferenceResult, error) {
	return getReference[model.ReferenceResult](ctx, s, "/v1/species/suggest", url.Values{"name": {name}})
}

// ValidateCommodityCode checks a commodity code.
func (s *ReferenceService) ValidateCommodityCode(ctx context.Context, code string) (model.ReferenceResult, error) {
	return getReference[model.ReferenceResult](ctx, s, "/v1/commodities/validate", url.Values{"code": {code}})
}

// LandingsErrors returns the ids of products whose landings failed
// validation for documentNumber.
func (s *ReferenceService) LandingsErrors(ctx context.Context, documentNumber string) ([]string, error) {
	data, err := getReference[landingsErrorsData](ctx, s, "/v1/landings/errors", url.Values{"documentNumber": {documentNumber}})
	if err != nil {
		return nil, err
	}
	return data.ProductIDs, nil
}
