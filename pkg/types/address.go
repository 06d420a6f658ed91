package types

// Address is the delivery address snapshot frozen onto an order at checkout.
type Address struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Pincode     string `json:"pincode"`
	AddressType string `json:"address_type,omitempty"`
}
