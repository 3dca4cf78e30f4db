package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ActivityAction string

const (
	ActivityActionCreate ActivityAction = "create"
	ActivityActionUpdate ActivityAction = "update"
	ActivityActionDelete ActivityAction = "delete"
	ActivityActionAssign ActivityAction = "assign"
	ActivityActionMove   ActivityAction = "move"
)

// ActivityDetails is the structured payload attached to an activity entry.
// Stored as a JSON column.
type ActivityDetails struct {
	Title      string `json:"title,omitempty"`
	NewStatus  string `json:"new_status,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

func (d ActivityDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *ActivityDetails) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = ActivityDetails{}
		return nil
	default:
		return fmt.Errorf("unsupported activity details type %T", value)
	}
}

// Activity is an immutable audit record written once per accepted mutation.
// There is no update or delete path for this table.
type Activity struct {
	ID             uint64          `gorm:"primarykey" json:"id"`
	Action         ActivityAction  `gorm:"type:varchar(20);not null" json:"action"`
	UserID         uint64          `gorm:"not null" json:"user_id"`
	TaskID         uint64          `gorm:"not null" json:"task_id"`
	OrganizationID uint64          `gorm:"not null;index" json:"organization_id"`
	Details        ActivityDetails `gorm:"type:text" json:"details"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
