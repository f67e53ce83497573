package models

// TaskType is the category of a household task.
type TaskType string

const (
	TaskCleaning  TaskType = "CLEANING"
	TaskBathroom  TaskType = "BATHROOM"
	TaskCooking   TaskType = "COOKING"
	TaskGroceries TaskType = "GROCERIES"
	TaskDishes    TaskType = "DISHES"
	TaskKitchen   TaskType = "KITCHEN"
	TaskTrash     TaskType = "TRASH"
)

// TaskTypes lists every category in display order.
var TaskTypes = []TaskType{
	TaskCleaning, TaskBathroom, TaskCooking, TaskGroceries, TaskDishes, TaskKitchen, TaskTrash,
}

// Valid reports whether t is a known category.
func (t TaskType) Valid() bool {
	for _, known := range TaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Task is a chore scheduled on a date. Done is flipped by the toggle endpoint.
type Task struct {
	ID           *int64   `json:"id,omitempty"`
	Title        string   `json:"title,omitempty"`
	Date         string   `json:"date,omitempty"`
	Type         TaskType `json:"type,omitempty"`
	AssignedUser *User    `json:"assignedUser,omitempty"`
	Description  string   `json:"description,omitempty"`
	KotAddress   string   `json:"kotAddress,omitempty"`
	Done         bool     `json:"done,omitempty"`
}

// TaskInput is the create-task payload.
type TaskInput struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Type        TaskType `json:"type"`
	Description string   `json:"description"`
}
