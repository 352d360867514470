package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FlexID absorbs the identifier encodings the server is known to emit: a
// plain string, a number, or a byte-array wrapper of the form
// {"buffer": {"0": 104, "1": 101, ...}}. The wrapper is rendered
// deterministically as lowercase hex, two digits per byte, bytes ordered by
// their numeric index. Plain strings pass through unchanged, which keeps
// normalization idempotent.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = FlexID(n.String())
		return nil
	}

	var wrapper struct {
		Buffer map[string]byte `json:"buffer"`
	}
	if err := json.Unmarshal(b, &wrapper); err == nil && len(wrapper.Buffer) > 0 {
		*id = FlexID(hexFromBuffer(wrapper.Buffer))
		return nil
	}

	// Unknown shape: degrade to empty rather than failing the whole payload.
	*id = ""
	return nil
}

func hexFromBuffer(buffer map[string]byte) string {
	indexes := make([]int, 0, len(buffer))
	for k := range buffer {
		var i int
		if _, err := fmt.Sscanf(k, "%d", &i); err != nil {
			continue
		}
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var sb strings.Builder
	for _, i := range indexes {
		fmt.Fprintf(&sb, "%02x", buffer[fmt.Sprintf("%d", i)])
	}
	return sb.String()
}

// Raw payload shapes as the server serves them. Optional nested objects are
// pointers so their absence survives decoding.

type RawRole struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

type RawUser struct {
	ID        FlexID   `json:"_id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Avatar    *int     `json:"avatar"`
	Role      *RawRole `json:"role"`
}

type RawMessage struct {
	ID             FlexID    `json:"_id"`
	ConversationID FlexID    `json:"conversationId"`
	Sender         *RawUser  `json:"senderId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	Type           string    `json:"type"`
	ImageURL       string    `json:"imageUrl"`
	FileName       string    `json:"fileName"`
	FileSize       int64     `json:"fileSize"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RawConversation carries the server's generic "name" field, exposed to the
// rest of the system as the conversation title.
type RawConversation struct {
	ID            FlexID      `json:"_id"`
	Name          string      `json:"name"`
	Participants  []RawUser   `json:"participants"`
	LastMessageAt time.Time   `json:"lastMessageAt"`
	LastMessage   *RawMessage `json:"lastMessage"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type RawTimeClockEntry struct {
	ID           FlexID     `json:"_id"`
	Employee     *RawUser   `json:"employee"`
	EmployeeID   FlexID     `json:"employeeId"`
	ClockInTime  time.Time  `json:"clockInTime"`
	ClockOutTime *time.Time `json:"clockOutTime"`
	Status       string     `json:"status"`
	TotalMinutes int        `json:"totalMinutes"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// RawEmployee is the directory shape of a user: same fields as RawUser but
// keyed by "id" instead of "_id".
type RawEmployee struct {
	ID        FlexID   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Avatar    *int     `json:"avatar"`
	Role      *RawRole `json:"role"`
}

type RawSchedule struct {
	ID        FlexID    `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Status    string    `json:"status"`
	CreatedBy *RawUser  `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RawShiftType struct {
	ID         FlexID `json:"id"`
	Name       string `json:"name"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	ColorIndex int    `json:"colorIndex"`
	IsActive   *bool  `json:"isActive"`
}

type RawScheduleShift struct {
	ID              FlexID        `json:"id"`
	ScheduleID      FlexID        `json:"scheduleId"`
	Date            string        `json:"date"`
	Order           int           `json:"order"`
	IsActive        *bool         `json:"isActive"`
	ActualStartTime *time.Time    `json:"actualStartTime"`
	ActualEndTime   *time.Time    `json:"actualEndTime"`
	User            *RawEmployee  `json:"user"`
	ShiftType       *RawShiftType `json:"shiftType"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type RawClockStatus struct {
	Status       string             `json:"status"`
	IsClockedIn  bool               `json:"isClockedIn"`
	CurrentEntry *RawTimeClockEntry `json:"currentEntry"`
}
