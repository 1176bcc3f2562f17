package store

// Table names in the calendar schema.
const (
	TableEvents     = "events"
	TableCalendars  = "calendars"
	TableCategories = "categories"
	TableHighlights = "highlights"
)

// Highlight type discriminators. The two shapes are mutually exclusive:
// an event highlight mirrors a referenced event, a time highlight carries
// its own free range.
const (
	HighlightTypeEvent = "ai_event_highlight"
	HighlightTypeTime  = "ai_time_highlight"
)

// Event is one calendar event row. Timestamps travel as RFC 3339 strings,
// exactly as the REST layer produces them.
type Event struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	CalendarID  string `json:"calendar_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Calendar is one user calendar row. The default calendar is protected
// from deletion.
type Calendar struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Category is one event category row, guarded like Calendar.
type Category struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Highlight is one visual annotation row. EventID is set only for
// ai_event_highlight rows; the time range of an event highlight is copied
// from the referenced event at creation time, not live-synced.
type Highlight struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Type      string `json:"type"`
	EventID   string `json:"event_id,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	EmojiIcon string `json:"emoji_icon,omitempty"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message,omitempty"`
	Visible   bool   `json:"visible"`
	CreatedAt string `json:"created_at,omitempty"`
}
