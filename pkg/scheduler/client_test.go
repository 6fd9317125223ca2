package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
)

func sampleRequest() ScheduleRequest {
	return ScheduleRequest{
		OrderNumber: "PO-1",
		Priority:    "NORMAL",
		LineItems: []LineItem{
			{ItemID: 10, ItemType: "MODULE", ItemName: "Molded Housing", Quantity: 2, EstimatedTimeMinutes: 12},
		},
	}
}

func sampleSchedule() Schedule {
	now := time.Now()
	return Schedule{
		ScheduleID: "SCH-1",
		Tasks: []Task{
			{TaskID: "SCH-1-T1", ItemID: 10, Quantity: 2, WorkstationID: 1, StartTime: now, EndTime: now.Add(24 * time.Minute), DurationMinutes: 24, Sequence: 1},
		},
	}
}

func TestClientReturnsSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simal/schedules", r.URL.Path)
		var req ScheduleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "PO-1", req.OrderNumber)
		json.NewEncoder(w).Encode(sampleSchedule())
	}))
	defer server.Close()

	client := NewSimALClient(server.URL, time.Second, 3)
	schedule, err := client.Plan(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "SCH-1", schedule.ScheduleID)
	require.Len(t, schedule.Tasks, 1)
	assert.EqualValues(t, 1, schedule.Tasks[0].WorkstationID)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(sampleSchedule())
	}))
	defer server.Close()

	client := NewSimALClient(server.URL, time.Second, 3)
	schedule, err := client.Plan(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "SCH-1", schedule.ScheduleID)
}

func TestClientSurfacesBackendErrorAfterRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSimALClient(server.URL, time.Second, 3)
	_, err := client.Plan(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, apperrors.CodeSimALServiceError, apperrors.As(err).Code)
}

func TestClientDoesNotRetryRejections(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewSimALClient(server.URL, time.Second, 3)
	_, err := client.Plan(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, apperrors.CodeOrderPlanningError, apperrors.As(err).Code)
}

func TestClientWrapsTransportFailure(t *testing.T) {
	// Nothing listens here.
	client := NewSimALClient("http://127.0.0.1:1", 200*time.Millisecond, 2)
	_, err := client.Plan(context.Background(), sampleRequest())
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeOrderPlanningError, appErr.Code)
	assert.NotEmpty(t, appErr.Details["reason"])
}

func TestClientRejectsEmptySchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Schedule{ScheduleID: "SCH-2"})
	}))
	defer server.Close()

	client := NewSimALClient(server.URL, time.Second, 3)
	_, err := client.Plan(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderPlanningError, apperrors.As(err).Code)
}
