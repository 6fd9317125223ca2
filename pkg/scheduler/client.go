package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
)

// SimALClient calls the external SimAL engine over HTTP/JSON. It owns the
// retry policy: transport failures and 5xx answers are retried with
// exponential backoff up to maxRetries attempts. After the last attempt a
// transport failure is wrapped as a typed planning error and a 5xx answer
// surfaces as SIMAL_SERVICE_ERROR. 4xx answers are never retried and become
// planning errors.
type SimALClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewSimALClient(baseURL string, timeout time.Duration, maxRetries int) *SimALClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &SimALClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

func (c *SimALClient) Plan(ctx context.Context, req ScheduleRequest) (*Schedule, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, planningErr(req.OrderNumber, "scheduling cancelled while retrying")
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		schedule, retryable, err := c.planOnce(ctx, payload)
		if err == nil {
			return schedule, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	if appErr := apperrors.As(lastErr); appErr != nil {
		return nil, appErr
	}
	return nil, planningErr(req.OrderNumber, fmt.Sprintf("scheduler unreachable after %d attempts: %v", c.maxRetries, lastErr))
}

func (c *SimALClient) planOnce(ctx context.Context, payload []byte) (*Schedule, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/simal/schedules", bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, true, apperrors.Internal(apperrors.CodeSimALServiceError,
			fmt.Sprintf("scheduler backend returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, false, planningErr("", fmt.Sprintf("scheduler rejected the request with %d", resp.StatusCode))
	}

	var schedule Schedule
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, false, planningErr("", "scheduler returned a malformed schedule")
	}
	if schedule.ScheduleID == "" || len(schedule.Tasks) == 0 {
		return nil, false, planningErr(schedule.ScheduleID, "scheduler returned an empty schedule")
	}
	return &schedule, false, nil
}

func planningErr(scheduleID, reason string) *apperrors.AppError {
	details := map[string]interface{}{"reason": reason}
	if scheduleID != "" {
		details["scheduleId"] = scheduleID
	}
	return apperrors.Internal(apperrors.CodeOrderPlanningError, "production planning failed").WithDetails(details)
}
