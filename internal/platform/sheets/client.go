package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "data-importer-backend/internal/common/errors"
	"data-importer-backend/internal/common/logger"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// Client читает значения из Google Sheets через values.get.
// Доступ только на чтение, авторизация по API-ключу.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

type valuesResponse struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

// Values возвращает строки указанного A1-диапазона. Ячейки приходят в
// FORMATTED_VALUE, то есть всегда строками; короткие строки валидны.
func (c *Client) Values(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		c.baseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(a1Range),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheets request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeExternalAPI, "sheets request failed for range %q", a1Range)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.New(apperrors.ErrCodeRateLimit, "sheets API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.New(apperrors.ErrCodeExternalAPI,
			fmt.Sprintf("sheets API returned %d for range %q: %s", resp.StatusCode, a1Range, body))
	}

	var parsed valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "failed to decode sheets response")
	}

	logger.Debug().
		Str("range", a1Range).
		Int("rows", len(parsed.Values)).
		Msg("Fetched sheet range")

	return parsed.Values, nil
}
