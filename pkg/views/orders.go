package views

import (
	"context"
	"strings"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/snapshot"
)

// StatusStyle is how an order status is presented.
type StatusStyle struct {
	Label string
	Tone  string // success, info, warning, danger or neutral
	Icon  string
}

var statusStyles = map[string]StatusStyle{
	"delivered":  {Label: "Delivered", Tone: "success", Icon: "check"},
	"completed":  {Label: "Completed", Tone: "success", Icon: "check"},
	"shipped":    {Label: "Shipped", Tone: "info", Icon: "truck"},
	"processing": {Label: "Processing", Tone: "warning", Icon: "box"},
	"pending":    {Label: "Pending", Tone: "warning", Icon: "clock"},
	"cancelled":  {Label: "Cancelled", Tone: "danger", Icon: "x"},
}

// StatusDisplay maps an order status to its presentation. Matching is
// case-insensitive; unknown statuses get a neutral style labelled with the
// raw value.
func StatusDisplay(status string) StatusStyle {
	if s, ok := statusStyles[strings.ToLower(strings.TrimSpace(status))]; ok {
		return s
	}
	label := status
	if label == "" {
		label = "Unknown"
	}
	return StatusStyle{Label: label, Tone: "neutral", Icon: "box"}
}

// OrdersPage lists the user's past orders, newest first as the backend
// returns them.
type OrdersPage struct {
	page
	orders *snapshot.Snapshot[[]api.Order]
}

// NewOrdersPage creates an unmounted orders page.
func NewOrdersPage(d Deps) *OrdersPage {
	o := &OrdersPage{}
	o.init(d)
	o.orders = track(&o.page, snapshot.New[[]api.Order]())
	return o
}

// Mount loads the order history when authenticated.
func (o *OrdersPage) Mount(ctx context.Context) (Decision, error) {
	d, err := o.enter(ctx)
	if err != nil || d != Render {
		return d, err
	}
	return d, o.orders.Load(ctx, o.deps.API.Orders)
}

// Orders returns the loaded orders.
func (o *OrdersPage) Orders() []api.Order {
	return o.orders.Data()
}

// State returns the load state of the history.
func (o *OrdersPage) State() snapshot.State {
	return o.orders.State()
}
