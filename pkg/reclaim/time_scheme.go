package reclaim

import "context"

var timeSchemeSchema = NewSchema("Time Scheme",
	Field{Name: "ID", Wire: "id", Kind: KindString, ReadOnly: true},
	Field{Name: "Created", Wire: "created", Kind: KindTime, ReadOnly: true},
	Field{Name: "Updated", Wire: "updated", Kind: KindTime, ReadOnly: true},
	Field{Name: "Status", Wire: "status", Kind: KindString},
	Field{Name: "TaskCategory", Wire: "taskCategory", Kind: KindEnum},
	Field{Name: "TaskTargetCalendar", Wire: "taskTargetCalendar", Kind: KindObject},
	Field{Name: "Title", Wire: "title", Kind: KindString, Required: true},
	Field{Name: "Description", Wire: "description", Kind: KindString},
	Field{Name: "Features", Wire: "features", Kind: KindList},
)

// TimeScheme is a named set of working hours ("Hours" in the Reclaim UI).
// Tasks reference one through Task.TimeSchemeID.
type TimeScheme struct {
	Base

	ID                 string         `json:"id,omitempty"`
	Status             string         `json:"status,omitempty"`
	TaskCategory       EventCategory  `json:"taskCategory,omitempty"`
	TaskTargetCalendar map[string]any `json:"taskTargetCalendar,omitempty"`
	Title              string         `json:"title,omitempty"`
	Description        string         `json:"description,omitempty"`
	Features           []string       `json:"features,omitempty"`
}

func (h *TimeScheme) Endpoint() string { return "/api/timeschemes" }

func (h *TimeScheme) Schema() *Schema { return timeSchemeSchema }

func (h *TimeScheme) ResourceID() string { return h.ID }

func (h *TimeScheme) String() string { return h.Title }

// TimeSchemes is read-only access to the user's time schemes.
type TimeSchemes struct {
	store *Store[TimeScheme, *TimeScheme]
}

func NewTimeSchemes(client *Client) *TimeSchemes {
	return &TimeSchemes{store: NewStore[TimeScheme, *TimeScheme](client)}
}

func (s *TimeSchemes) List(ctx context.Context) ([]*TimeScheme, error) {
	return s.store.List(ctx, nil)
}

func (s *TimeSchemes) Get(ctx context.Context, id string) (*TimeScheme, error) {
	return s.store.Get(ctx, id)
}

// FindByTitle returns the first scheme with exactly this title, nil if none.
func (s *TimeSchemes) FindByTitle(ctx context.Context, title string) (*TimeScheme, error) {
	found, err := s.store.Search(ctx, map[string]any{"title": title})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil // Nicht gefunden
	}
	return found[0], nil
}
