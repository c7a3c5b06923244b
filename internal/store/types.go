package store

import "github.com/grovetools/grw/pkg/models"

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateRepo          UpdateType = "repo"
	UpdateCommit        UpdateType = "commit"
	UpdateDiff          UpdateType = "diff"
	UpdateSummary       UpdateType = "summary"
	UpdateAdvice        UpdateType = "advice"
	UpdateCurrentAdvice UpdateType = "current_advice"
	UpdateChat          UpdateType = "chat"
	UpdateMonitor       UpdateType = "monitor"
	UpdateMonitorConfig UpdateType = "monitor_config"
	UpdateError         UpdateType = "error"
)

// Update is a change hint sent to subscribers after a write lands. It carries
// no payload; subscribers read the state itself.
type Update struct {
	Type   UpdateType
	Domain models.Domain
	Key    string
}
