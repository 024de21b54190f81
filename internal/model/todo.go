package model

import "math"

// TodoItem is a single entry of a list.
type TodoItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	ListID    int64  `json:"list_id"`
}

// TodoStats summarizes the completion of a list.
type TodoStats struct {
	TotalItems         int `json:"total_items"`
	CompletedItems     int `json:"completed_items"`
	PercentageComplete int `json:"percentage_complete"`
}

// TodoList is a titled collection of items.
type TodoList struct {
	ID    int64      `json:"id"`
	Title string     `json:"title"`
	Items []TodoItem `json:"items"`
	Stats TodoStats  `json:"stats"`
}

// ComputeStats fills Stats from Items.
func (l *TodoList) ComputeStats() {
	if l.Items == nil {
		l.Items = []TodoItem{}
	}
	stats := TodoStats{TotalItems: len(l.Items)}
	for _, item := range l.Items {
		if item.Completed {
			stats.CompletedItems++
		}
	}
	if stats.TotalItems > 0 {
		stats.PercentageComplete = int(math.Round(float64(stats.CompletedItems) / float64(stats.TotalItems) * 100))
	}
	l.Stats = stats
}

// ListInput creates or renames a list.
type ListInput struct {
	Title string `json:"title"`
}

// ItemInput creates an item.
type ItemInput struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// ItemPatch updates an item. Nil fields are left untouched.
type ItemPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
