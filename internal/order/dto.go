package order

// CheckoutRequest is the buyer's contact and payment choice.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	FullName    string      `json:"fullName"    example:"Aziz Karimov"`
	Phone       string      `json:"phone"       example:"90 123 45 67"`
	Address     string      `json:"address"     example:"Toshkent, Chilonzor 5"`
	PaymentType PaymentType `json:"paymentType" example:"delivery"`
	Notes       string      `json:"notes"       example:"call before arrival"`
}

// AssignDriverRequest payload for driver assignment.
// swagger:model AssignDriverRequest
type AssignDriverRequest struct {
	Name      string `json:"name"      binding:"required" example:"Bekzod"`
	Phone     string `json:"phone"     binding:"required" example:"+998901112233"`
	CarNumber string `json:"carNumber" example:"01A123BC"`
}

// CancelRequest carries the cancellation reason.
// swagger:model CancelRequest
type CancelRequest struct {
	Reason string `json:"reason" example:"customer request"`
}

// StatusRequest is the generic transition payload. Driver is read for
// driver_assigned, Reason for cancelled.
// swagger:model StatusRequest
type StatusRequest struct {
	Status Status               `json:"status" binding:"required" example:"delivered"`
	Driver *AssignDriverRequest `json:"driver,omitempty"`
	Reason string               `json:"reason,omitempty"`
}

// ListFilter narrows the admin order list. Empty fields match everything.
type ListFilter struct {
	Status Status
	Query  string
	Limit  int
	Offset int
}

// View is an order as returned over HTTP.
type View struct {
	*Order
	AwaitingPayment bool   `json:"awaitingPayment"`
	CancellableFor  *int64 `json:"cancellableFor,omitempty"`
}

func NewView(o *Order) View {
	return View{Order: o, AwaitingPayment: o.AwaitingPayment()}
}
