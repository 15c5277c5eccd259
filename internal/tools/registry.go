package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Definition pairs a tool schema with its handler.
type Definition struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// All returns every tool this server can expose.
func All() []Definition {
	return []Definition{
		{Tool: listCatalogTasksTool(), Handler: ListCatalogTasks},
		{Tool: getCatalogTaskTool(), Handler: GetCatalogTask},
		{Tool: updateCatalogTaskTool(), Handler: UpdateCatalogTask},
	}
}

func listCatalogTasksTool() mcp.Tool {
	return mcp.NewTool("list_catalog_tasks",
		mcp.WithDescription("List service catalog tasks from ServiceNow"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of catalog tasks to return"),
			mcp.DefaultNumber(defaultListLimit),
			mcp.Min(1),
			mcp.Max(maxListLimit),
		),
		mcp.WithNumber("offset",
			mcp.Description("Offset for pagination"),
			mcp.DefaultNumber(0),
			mcp.Min(0),
		),
		mcp.WithString("state", mcp.Description("Filter by task state")),
		mcp.WithString("assigned_to", mcp.Description("Filter by assigned user")),
		mcp.WithString("assignment_group", mcp.Description("Filter by assignment group")),
		mcp.WithString("request", mcp.Description("Filter by parent request sys_id")),
		mcp.WithString("query", mcp.Description("Search query matched against short description and description")),
	)
}

func getCatalogTaskTool() mcp.Tool {
	return mcp.NewTool("get_catalog_task",
		mcp.WithDescription("Get a specific service catalog task from ServiceNow"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Catalog task number or sys_id"),
		),
	)
}

func updateCatalogTaskTool() mcp.Tool {
	return mcp.NewTool("update_catalog_task",
		mcp.WithDescription("Update an existing service catalog task in ServiceNow"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Catalog task number or sys_id"),
		),
		mcp.WithString("state", mcp.Description("State of the task")),
		mcp.WithString("assigned_to", mcp.Description("User assigned to the task")),
		mcp.WithString("assignment_group", mcp.Description("Group assigned to the task")),
		mcp.WithString("work_notes", mcp.Description("Work notes to add to the task")),
		mcp.WithString("close_notes", mcp.Description("Close notes for the task")),
	)
}
