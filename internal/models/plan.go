package models

import (
	"fmt"

	"availability-service/internal/timeutil"
)

const PlansCollection = "plans"

// Plan is one availability window owned by a single user. The date and
// time fields are stored in the wire formats "2006-01-02" and "15:04";
// Interval parses them into the comparable form.
type Plan struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	OwnerID   string `bson:"owner_id" json:"owner_id"`
	StartDate string `bson:"start_date" json:"start_date"`
	EndDate   string `bson:"end_date" json:"end_date"`
	StartTime string `bson:"start_time" json:"start_time"`
	EndTime   string `bson:"end_time" json:"end_time"`
	Note      string `bson:"note" json:"note"`
}

// Interval is a plan's time window in absolute-minute form.
type Interval struct {
	OwnerID   string
	StartDate timeutil.CalendarDate
	EndDate   timeutil.CalendarDate
	StartTime timeutil.ClockTime
	EndTime   timeutil.ClockTime
}

func (iv Interval) StartAbs() int64 {
	return timeutil.AbsoluteMinutes(iv.StartDate, iv.StartTime)
}

func (iv Interval) EndAbs() int64 {
	return timeutil.AbsoluteMinutes(iv.EndDate, iv.EndTime)
}

// Interval parses the plan's date and time fields.
func (p Plan) Interval() (Interval, error) {
	startDate, err := timeutil.ParseDate(p.StartDate)
	if err != nil {
		return Interval{}, fmt.Errorf("start date: %w", err)
	}
	endDate, err := timeutil.ParseDate(p.EndDate)
	if err != nil {
		return Interval{}, fmt.Errorf("end date: %w", err)
	}
	startTime, err := timeutil.ParseTime(p.StartTime)
	if err != nil {
		return Interval{}, fmt.Errorf("start time: %w", err)
	}
	endTime, err := timeutil.ParseTime(p.EndTime)
	if err != nil {
		return Interval{}, fmt.Errorf("end time: %w", err)
	}
	return Interval{
		OwnerID:   p.OwnerID,
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}
