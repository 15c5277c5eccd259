// Package tools implements the ServiceNow tool handlers exposed over MCP.
// Handlers are stateless: the credential-scoped Table API client travels in
// the request context, and every remote failure is converted into a
// success=false result rather than a protocol error.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"snowmcp/internal/session"
	"snowmcp/internal/snow"
)

const (
	taskTable = "sc_task"

	defaultListLimit = 10
	maxListLimit     = 100
)

// CatalogTask is the normalized shape of an sc_task row. Reference fields
// carry their display value; request_sys_id keeps the underlying id.
type CatalogTask struct {
	SysID            string `json:"sys_id"`
	Number           string `json:"number"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	State            string `json:"state"`
	AssignedTo       string `json:"assigned_to"`
	AssignmentGroup  string `json:"assignment_group"`
	Request          string `json:"request"`
	RequestSysID     string `json:"request_sys_id"`
	CreatedOn        string `json:"created_on"`
	UpdatedOn        string `json:"updated_on"`
	DueDate          string `json:"due_date"`
	Priority         string `json:"priority"`
	WorkNotes        string `json:"work_notes,omitempty"`
	CloseNotes       string `json:"close_notes,omitempty"`
}

// ListCatalogTasksResult is the payload of the list_catalog_tasks tool.
type ListCatalogTasksResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Tasks   []CatalogTask `json:"tasks"`
}

// GetCatalogTaskResult is the payload of the get_catalog_task tool.
type GetCatalogTaskResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Task    *CatalogTask `json:"task,omitempty"`
}

// UpdateCatalogTaskResult is the payload of the update_catalog_task tool.
type UpdateCatalogTaskResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	TaskID     string `json:"task_id,omitempty"`
	TaskNumber string `json:"task_number,omitempty"`
}

// ListCatalogTasks handles the list_catalog_tasks tool call.
func ListCatalogTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, ok := session.ClientFrom(ctx)
	if !ok {
		return mcp.NewToolResultError("no ServiceNow session is active"), nil
	}

	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := snow.NewQuery()
	if state := req.GetString("state", ""); state != "" {
		query.Eq("state", state)
	}
	if assignedTo := req.GetString("assigned_to", ""); assignedTo != "" {
		query.Eq("assigned_to", assignedTo)
	}
	if group := req.GetString("assignment_group", ""); group != "" {
		query.Eq("assignment_group", group)
	}
	if request := req.GetString("request", ""); request != "" {
		query.Eq("request", request)
	}
	if search := req.GetString("query", ""); search != "" {
		query.Like("short_description", search).OrLike("description", search)
	}

	params := snow.DisplayValues()
	params.Set(snow.ParamLimit, strconv.Itoa(limit))
	params.Set(snow.ParamOffset, strconv.Itoa(offset))
	if !query.Empty() {
		params.Set(snow.ParamQuery, query.String())
	}

	records, err := client.GetRecords(ctx, taskTable, params)
	if err != nil {
		return resultJSON(ListCatalogTasksResult{
			Message: fmt.Sprintf("Failed to list catalog tasks: %v", err),
			Tasks:   []CatalogTask{},
		})
	}

	tasks := make([]CatalogTask, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, catalogTaskFromRecord(record, false))
	}

	return resultJSON(ListCatalogTasksResult{
		Success: true,
		Message: fmt.Sprintf("Found %d catalog tasks", len(tasks)),
		Tasks:   tasks,
	})
}

// GetCatalogTask handles the get_catalog_task tool call. A sys_id-shaped
// task_id goes straight to the single-record endpoint; anything else is
// resolved through a number query first.
func GetCatalogTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, ok := session.ClientFrom(ctx)
	if !ok {
		return mcp.NewToolResultError("no ServiceNow session is active"), nil
	}

	taskID, err := req.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var record snow.Record
	if snow.IsSysID(taskID) {
		record, err = client.GetRecord(ctx, taskTable, taskID, snow.DisplayValues())
		if err != nil {
			return resultJSON(GetCatalogTaskResult{
				Message: fmt.Sprintf("Failed to fetch catalog task: %v", err),
			})
		}
		if len(record) == 0 {
			return resultJSON(GetCatalogTaskResult{
				Message: fmt.Sprintf("Catalog task not found: %s", taskID),
			})
		}
	} else {
		params := snow.DisplayValues()
		params.Set(snow.ParamQuery, snow.NewQuery().Eq("number", taskID).String())
		params.Set(snow.ParamLimit, "1")

		records, err := client.GetRecords(ctx, taskTable, params)
		if err != nil {
			return resultJSON(GetCatalogTaskResult{
				Message: fmt.Sprintf("Failed to fetch catalog task: %v", err),
			})
		}
		if len(records) == 0 {
			return resultJSON(GetCatalogTaskResult{
				Message: fmt.Sprintf("Catalog task not found: %s", taskID),
			})
		}
		record = records[0]
	}

	task := catalogTaskFromRecord(record, true)
	number := task.Number
	if number == "" {
		number = taskID
	}

	return resultJSON(GetCatalogTaskResult{
		Success: true,
		Message: fmt.Sprintf("Catalog task %s found", number),
		Task:    &task,
	})
}

// UpdateCatalogTask handles the update_catalog_task tool call. Tasks
// addressed by number resolve their sys_id first; when resolution finds no
// rows the update short-circuits and no PUT is issued.
func UpdateCatalogTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, ok := session.ClientFrom(ctx)
	if !ok {
		return mcp.NewToolResultError("no ServiceNow session is active"), nil
	}

	taskID, err := req.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sysID := taskID
	if !snow.IsSysID(taskID) {
		params := url.Values{}
		params.Set(snow.ParamQuery, snow.NewQuery().Eq("number", taskID).String())
		params.Set(snow.ParamLimit, "1")

		records, err := client.GetRecords(ctx, taskTable, params)
		if err != nil {
			return resultJSON(UpdateCatalogTaskResult{
				Message: fmt.Sprintf("Failed to find catalog task: %v", err),
			})
		}
		if len(records) == 0 {
			return resultJSON(UpdateCatalogTaskResult{
				Message: fmt.Sprintf("Catalog task not found: %s", taskID),
			})
		}
		sysID = records[0].Value("sys_id")
	}

	fields := map[string]string{}
	for _, key := range []string{"state", "assigned_to", "assignment_group", "work_notes", "close_notes"} {
		if value := req.GetString(key, ""); value != "" {
			fields[key] = value
		}
	}

	record, err := client.UpdateRecord(ctx, taskTable, sysID, fields)
	if err != nil {
		return resultJSON(UpdateCatalogTaskResult{
			Message: fmt.Sprintf("Failed to update catalog task: %v", err),
		})
	}

	return resultJSON(UpdateCatalogTaskResult{
		Success:    true,
		Message:    "Catalog task updated successfully",
		TaskID:     record.Value("sys_id"),
		TaskNumber: record.Display("number"),
	})
}

func catalogTaskFromRecord(record snow.Record, withNotes bool) CatalogTask {
	task := CatalogTask{
		SysID:            record.Value("sys_id"),
		Number:           record.Display("number"),
		ShortDescription: record.Display("short_description"),
		Description:      record.Display("description"),
		State:            record.Display("state"),
		AssignedTo:       record.Display("assigned_to"),
		AssignmentGroup:  record.Display("assignment_group"),
		Request:          record.Display("request"),
		RequestSysID:     record.Value("request"),
		CreatedOn:        record.Display("sys_created_on"),
		UpdatedOn:        record.Display("sys_updated_on"),
		DueDate:          record.Display("due_date"),
		Priority:         record.Display("priority"),
	}
	if withNotes {
		task.WorkNotes = record.Display("work_notes")
		task.CloseNotes = record.Display("close_notes")
	}
	return task
}

func resultJSON(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
