// Package scheduler bridges production orders to the external SimAL
// scheduling engine and carries a deterministic embedded planner for
// environments without one.
package scheduler

import (
	"context"
	"time"
)

// LineItem is one demand line of a schedule request. ItemType is an additive
// field the embedded planner uses to disambiguate product and module ids;
// SimAL ignores it.
type LineItem struct {
	ItemID               uint   `json:"itemId"`
	ItemType             string `json:"itemType"`
	ItemName             string `json:"itemName"`
	Quantity             int    `json:"quantity"`
	EstimatedTimeMinutes int    `json:"estimatedTimeMinutes"`
}

// ScheduleRequest asks the engine to plan one production order.
type ScheduleRequest struct {
	OrderNumber string     `json:"orderNumber"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	LineItems   []LineItem `json:"lineItems"`
}

// Task is one planned unit of work assigned to a workstation.
type Task struct {
	TaskID          string    `json:"taskId"`
	ItemID          uint      `json:"itemId"`
	Quantity        int       `json:"quantity"`
	WorkstationID   uint      `json:"workstationId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMin"`
	Sequence        int       `json:"sequence"`
}

// Schedule is the engine's answer: an ordered task list under one schedule id.
type Schedule struct {
	ScheduleID string `json:"scheduleId"`
	Tasks      []Task `json:"tasks"`
}

// Planner is the orchestrator's view of the scheduling engine. Callers never
// see transport details; failures surface as typed planning errors.
type Planner interface {
	Plan(ctx context.Context, req ScheduleRequest) (*Schedule, error)
}
