// Package client implements schedule.Store over the schedule HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/haevelyn/schedule/internal/api"
	"github.com/haevelyn/schedule/internal/schedule"
)

// Client talks to a schedule server. Reads are retried with backoff on
// storage failures; writes are sent once because a failed write may have landed.
type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
}

// NewClient creates a new Client.
func NewClient(baseURL string, timeout time.Duration, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
	}
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

// FindAll fetches every schedule.
func (c *Client) FindAll(ctx context.Context) (map[string]schedule.Record, error) {
	return c.fetch(ctx, "/schedules/all", nil)
}

// FindByMonth fetches the schedules of one month.
func (c *Client) FindByMonth(ctx context.Context, month schedule.YearMonth) (map[string]schedule.Record, error) {
	return c.fetch(ctx, "/schedules", map[string]string{
		"year":  strconv.Itoa(month.Year),
		"month": strconv.Itoa(int(month.Month)),
	})
}

func (c *Client) fetch(ctx context.Context, path string, query map[string]string) (map[string]schedule.Record, error) {
	var result map[string]schedule.Record
	if err := retry.Do(
		func() error {
			records, err := c.get(ctx, path, query)
			if err != nil {
				if !schedule.IsStorage(err) || ctx.Err() != nil {
					return retry.Unrecoverable(err)
				}
				slog.Default().Debug("retrying schedule fetch", "path", path, "error", err)
				return err
			}
			result = records
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetryAttempts+1),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) (map[string]schedule.Record, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&map[string]api.ScheduleDTO{}).
		Get(path)
	if err != nil {
		return nil, &schedule.StorageError{Op: "httpClient.Get(" + path + ")", Err: err}
	}
	if response.IsError() {
		message := errorMessage(response)
		if response.StatusCode() == http.StatusBadRequest {
			return nil, &schedule.ValidationError{Message: message}
		}
		return nil, &schedule.StorageError{
			Op:  "httpClient.Get(" + path + ")",
			Err: fmt.Errorf("response error %d: %s", response.StatusCode(), message),
		}
	}

	dtos := response.Result().(*map[string]api.ScheduleDTO)
	return api.ToRecords(*dtos), nil
}

// Put posts one write. A 409 becomes a *schedule.ConflictError carrying the
// server's message; the stored version is not reported by the API and is -1.
func (c *Client) Put(ctx context.Context, date string, candidate schedule.Record, expectedVersion int64) (schedule.PutResult, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(api.NewSaveRequest(date, candidate, expectedVersion)).
		SetResult(&api.SaveResponse{}).
		Post("/schedules")
	if err != nil {
		return schedule.PutResult{}, &schedule.StorageError{Op: "httpClient.Post(/schedules)", Err: err}
	}

	if response.IsError() {
		message := errorMessage(response)
		switch response.StatusCode() {
		case http.StatusConflict:
			return schedule.PutResult{}, &schedule.ConflictError{
				Date:            date,
				ExpectedVersion: expectedVersion,
				StoredVersion:   -1,
				Message:         message,
			}
		case http.StatusBadRequest:
			return schedule.PutResult{}, &schedule.ValidationError{Message: message}
		default:
			return schedule.PutResult{}, &schedule.StorageError{
				Op:  "httpClient.Post(/schedules)",
				Err: fmt.Errorf("response error %d: %s", response.StatusCode(), message),
			}
		}
	}

	body := response.Result().(*api.SaveResponse)
	if body.Schedule == nil {
		return schedule.PutResult{}, nil
	}
	record := body.Schedule.ToRecord()
	return schedule.PutResult{Record: &record}, nil
}

// errorMessage extracts {"error": ...} from a failed response, falling back to the raw body.
func errorMessage(response *resty.Response) string {
	body := response.String()
	var errResp api.ErrorResponse
	if err := json.Unmarshal([]byte(body), &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	if body == "" {
		return http.StatusText(response.StatusCode())
	}
	return body
}
