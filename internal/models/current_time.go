package models

import (
	"time"

	"zpgsa.live/internal/departures"
)

// CurrentTimeModel is the service clock as seen by clients. DayClass names the timetable that
// applies to today's date.
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
	Timezone     string `json:"timezone"`
	DayClass     string `json:"dayClass"`
}

type CurrentTimeData struct {
	Entry      CurrentTimeModel `json:"entry"`
	References ReferencesModel  `json:"references"`
}

func NewCurrentTimeData(now time.Time, dayClass departures.DayKind) CurrentTimeData {
	return CurrentTimeData{
		Entry: CurrentTimeModel{
			ReadableTime: now.Format(time.RFC3339),
			Time:         now.UnixMilli(),
			Timezone:     now.Location().String(),
			DayClass:     dayClass.String(),
		},
		References: NewEmptyReferences(),
	}
}
