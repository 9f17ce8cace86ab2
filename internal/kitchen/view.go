package kitchen

import (
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/order"
)

// View is one order as a single kitchen sees it.
type View struct {
	OrderID   uuid.UUID  `json:"order_id"`
	Number    string     `json:"number"`
	CreatedAt time.Time  `json:"created_at"`
	Lines     []ViewLine `json:"lines"`
}

// ViewLine is a cart line reduced to the portions of one kitchen.
type ViewLine struct {
	LineID          uuid.UUID `json:"line_id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	CanMarkPrepared bool      `json:"can_mark_prepared"`
	CanMarkPickedUp bool      `json:"can_mark_picked_up"`
	Portions        []Portion `json:"portions"`
}

// Filter builds the kitchen's view of orders. Orders with nothing for the
// kitchen are left out.
func Filter(orders []order.Order, kitchen string) []View {
	var out []View
	for _, o := range orders {
		v := View{OrderID: o.ID, Number: o.Number, CreatedAt: o.CreatedAt}
		for _, line := range o.Lines {
			portions := PortionsFor(line, kitchen)
			if len(portions) == 0 {
				continue
			}
			status := line.StatusFor(kitchen)
			v.Lines = append(v.Lines, ViewLine{
				LineID:          line.ID,
				Name:            line.Name,
				Status:          status,
				CanMarkPrepared: CanMarkPrepared(status),
				CanMarkPickedUp: CanMarkPickedUp(status),
				Portions:        portions,
			})
		}
		if len(v.Lines) > 0 {
			out = append(out, v)
		}
	}
	return out
}
