package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"calorietrack/apperrors"
	"calorietrack/config"
	"calorietrack/logger"
	"calorietrack/metrics"
	"calorietrack/models"
)

const (
	DefaultSearchPageSize = 10
	MaxSearchPageSize     = 50
)

// USDAService searches FoodData Central and resolves nutrition details.
type USDAService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewUSDAService(cfg config.USDAConfig, log *slog.Logger, m *metrics.Metrics) *USDAService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.nal.usda.gov/fdc/v1"
	}
	return &USDAService{
		apiKey:  cfg.APIKey,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		log:     logger.Module(log, "usda"),
		metrics: m,
	}
}

type usdaSearchResponse struct {
	Foods []struct {
		FdcID       int64   `json:"fdcId"`
		Description string  `json:"description"`
		BrandName   string  `json:"brandName"`
		BrandOwner  string  `json:"brandOwner"`
		DataType    string  `json:"dataType"`
		Score       float64 `json:"score"`
	} `json:"foods"`
}

// usdaNutrient accepts both shapes FDC returns: the full detail form
// {nutrient:{name,unitName},amount} and the abridged/search form
// {nutrientName,unitName,value}.
type usdaNutrient struct {
	Nutrient *struct {
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount       *float64 `json:"amount"`
	NutrientName string   `json:"nutrientName"`
	UnitName     string   `json:"unitName"`
	Value        *float64 `json:"value"`
}

func (n usdaNutrient) raw() models.RawNutrient {
	out := models.RawNutrient{Name: n.NutrientName, Unit: n.UnitName}
	if n.Nutrient != nil {
		if n.Nutrient.Name != "" {
			out.Name = n.Nutrient.Name
		}
		if n.Nutrient.UnitName != "" {
			out.Unit = n.Nutrient.UnitName
		}
	}
	switch {
	case n.Amount != nil:
		out.Amount = *n.Amount
	case n.Value != nil:
		out.Amount = *n.Value
	}
	return out
}

type usdaFoodDetail struct {
	FdcID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	DataType        string         `json:"dataType"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []usdaNutrient `json:"foodNutrients"`
}

// NormalizeDataType maps an FDC dataType to a source category.
func NormalizeDataType(dataType string) string {
	d := strings.ToLower(dataType)
	switch {
	case strings.HasPrefix(d, "survey"):
		return models.SourceSurvey
	case d == "branded":
		return models.SourceBranded
	case d == "foundation":
		return models.SourceFoundation
	case strings.Contains(d, "legacy"):
		return models.SourceLegacy
	}
	return models.SourceOther
}

// Search returns FDC candidates for term in the order FDC ranks them.
// pageSize <= 0 uses the default; values above the maximum are clamped.
func (s *USDAService) Search(ctx context.Context, term string, pageSize int) ([]models.FoodCandidate, error) {
	const op = "usda.search"

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.InvalidInput(op, "search query is required")
	}
	if s.apiKey == "" {
		return nil, apperrors.Configuration(op, "USDA API key is not configured")
	}
	if pageSize <= 0 {
		pageSize = DefaultSearchPageSize
	}
	if pageSize > MaxSearchPageSize {
		pageSize = MaxSearchPageSize
	}

	params := url.Values{}
	params.Set("query", term)
	params.Set("pageSize", strconv.Itoa(pageSize))

	var resp usdaSearchResponse
	if err := s.get(ctx, op, "/foods/search", params, &resp); err != nil {
		s.log.WarnContext(ctx, "search failed", "term", term, "error", err)
		return nil, err
	}

	out := make([]models.FoodCandidate, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		brand := f.BrandName
		if brand == "" {
			brand = f.BrandOwner
		}
		out = append(out, models.FoodCandidate{
			ExternalID:     strconv.FormatInt(f.FdcID, 10),
			DisplayName:    f.Description,
			BrandName:      brand,
			SourceCategory: NormalizeDataType(f.DataType),
			RelevanceScore: f.Score,
		})
	}
	s.log.DebugContext(ctx, "search done", "term", term, "results", len(out))
	return out, nil
}

// Detail fetches one food and extracts its nutrients.
func (s *USDAService) Detail(ctx context.Context, id string) (models.NutritionRecord, error) {
	const op = "usda.detail"

	id = strings.TrimSpace(id)
	if id == "" {
		return models.NutritionRecord{}, apperrors.InvalidInput(op, "food id is required")
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return models.NutritionRecord{}, apperrors.InvalidInput(op, "food id must be numeric")
	}
	if s.apiKey == "" {
		return models.NutritionRecord{}, apperrors.Configuration(op, "USDA API key is not configured")
	}

	var food usdaFoodDetail
	if err := s.get(ctx, op, "/food/"+url.PathEscape(id), url.Values{}, &food); err != nil {
		s.log.WarnContext(ctx, "detail failed", "fdc_id", id, "error", err)
		return models.NutritionRecord{}, err
	}

	raw := make([]models.RawNutrient, 0, len(food.FoodNutrients))
	for _, n := range food.FoodNutrients {
		raw = append(raw, n.raw())
	}

	externalID := id
	if food.FdcID != 0 {
		externalID = strconv.FormatInt(food.FdcID, 10)
	}
	rec, err := BuildNutritionRecord(externalID, food.Description, NormalizeDataType(food.DataType), raw)
	if err != nil {
		return models.NutritionRecord{}, err
	}
	if food.ServingSize > 0 {
		rec.ServingSize = food.ServingSize
	}
	if food.ServingSizeUnit != "" {
		rec.ServingSizeUnit = food.ServingSizeUnit
	}
	return rec, nil
}

// Calculate resolves id and scales it to quantity of unit (grams when
// empty). The result echoes the caller's quantity and unit.
func (s *USDAService) Calculate(ctx context.Context, id string, quantity float64, unit string) (models.PortionNutrition, error) {
	grams, err := PortionToGrams(quantity, unit)
	if err != nil {
		return models.PortionNutrition{}, err
	}
	rec, err := s.Detail(ctx, id)
	if err != nil {
		return models.PortionNutrition{}, err
	}
	out, err := ScalePortion(rec, grams)
	if err != nil {
		return models.PortionNutrition{}, err
	}
	if unit != "" {
		out.PortionSize = quantity
		out.PortionUnit = strings.ToLower(strings.TrimSpace(unit))
	}
	return out, nil
}

// get performs one GET against FDC and decodes a 2xx JSON body into out.
func (s *USDAService) get(ctx context.Context, op, path string, params url.Values, out any) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveUpstream("usda", strings.TrimPrefix(op, "usda."), start, err) }()

	params.Set("api_key", s.apiKey)
	u := s.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.Internal(op, "failed to build USDA request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// url.Error carries the full URL, which includes the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return apperrors.Upstream(op, "failed to reach USDA FoodData Central", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return apperrors.Upstream(op, "failed to read USDA response", 0, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Upstream(op, "invalid USDA API key", http.StatusBadGateway,
			fmt.Errorf("usda status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(op, "food not found in USDA database")
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.Upstream(op, "USDA rate limit exceeded, try again later", http.StatusTooManyRequests,
			fmt.Errorf("usda status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return apperrors.Upstream(op, "USDA service error", 0,
			fmt.Errorf("usda status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Upstream(op, "unexpected USDA response", 0, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
