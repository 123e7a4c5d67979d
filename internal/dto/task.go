package dto

import (
	"time"

	"github.com/yukikurage/issue-tracker-ui/internal/constants"
	"github.com/yukikurage/issue-tracker-ui/internal/controllers"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
	"github.com/yukikurage/issue-tracker-ui/internal/utils"
)

const timeLayout = "2006-01-02 15:04"

// pageWindow is how many page links are shown on each side of the current page
const pageWindow = 3

// UserDTO represents a user in templates
type UserDTO struct {
	Username    string
	DisplayName string
}

// TaskDTO represents a task on the detail and edit pages
type TaskDTO struct {
	ID                   uint64
	Creator              UserDTO
	Assigner             UserDTO
	Subject              string
	Criticality          models.Criticality
	Status               models.TaskStatus
	ThreadID             string
	HTMLFile             string
	CreatedTime          string
	LastReminderSentTime string
}

// TaskRowDTO represents a task in the list table
type TaskRowDTO struct {
	TaskDTO
	Style controllers.RowStyle
}

// PageLinkDTO is one entry of the pager
type PageLinkDTO struct {
	Number  int
	URL     string
	Current bool
}

// TaskListResponse is everything the list template needs besides the filter form
type TaskListResponse struct {
	Tasks      []TaskRowDTO
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
	PrevURL    string
	NextURL    string
	Pages      []PageLinkDTO
}

// Conversion functions

// ToUserDTO converts a username to UserDTO
func ToUserDTO(username string) UserDTO {
	return UserDTO{
		Username:    username,
		DisplayName: models.DisplayName(username),
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:                   task.ID,
		Creator:              ToUserDTO(task.CreatorName),
		Assigner:             ToUserDTO(task.AssignerName),
		Subject:              task.Subject,
		Criticality:          task.Criticality,
		Status:               task.Status,
		ThreadID:             task.ThreadID,
		HTMLFile:             task.HTMLFile,
		CreatedTime:          formatTime(task.CreatedTime),
		LastReminderSentTime: formatTime(task.LastReminderSentTime),
	}
}

// ToTaskRowDTO converts a Task model to TaskRowDTO
func ToTaskRowDTO(task models.Task) TaskRowDTO {
	return TaskRowDTO{
		TaskDTO: ToTaskDTO(task),
		Style:   controllers.RowStyleOf(task),
	}
}

// ToTaskListResponse converts one loaded page to TaskListResponse. Pager
// links keep every filter field and only move skip.
func ToTaskListResponse(tasks []models.Task, filter models.TaskFilter, totalCount int) TaskListResponse {
	items := make([]TaskRowDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskRowDTO(task)
	}

	params := utils.PaginationParams{Skip: filter.Skip, Limit: filter.Limit}
	page := params.Page()
	totalPages := utils.PageCount(totalCount, filter.Limit)

	resp := TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   filter.Limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}

	if page > 1 {
		resp.PrevURL = PageURL(filter, page-1)
	}
	if page < totalPages {
		resp.NextURL = PageURL(filter, page+1)
	}

	first, last := max(1, page-pageWindow), min(totalPages, page+pageWindow)
	for n := first; n <= last; n++ {
		resp.Pages = append(resp.Pages, PageLinkDTO{
			Number:  n,
			URL:     PageURL(filter, n),
			Current: n == page,
		})
	}

	return resp
}

// PageURL links to page (1-based) of the list under filter.
func PageURL(filter models.TaskFilter, page int) string {
	params := utils.PaginationParams{Skip: filter.Skip, Limit: filter.Limit}.WithPage(page)
	filter.Skip = params.Skip
	return constants.RouteTasks + "?" + controllers.EncodeFilter(filter).Encode()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(timeLayout)
}
