package attendance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
	StatusOnLeave Status = "on_leave"
)

type Staff struct {
	ID        uuid.UUID
	Name      string
	Role      *string
	DutyStart string // HH:MM, institution-local wall clock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record is the single attendance row a staff member gets per calendar day.
type Record struct {
	ID          uuid.UUID
	StaffID     uuid.UUID
	WorkDate    time.Time
	CheckIn     *time.Time
	CheckOut    *time.Time
	Status      Status
	HoursWorked *decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
