package exchange

import "fmt"

type Resource uint8

const (
	ResourceUnknown Resource = iota
	ResourceEnergy
	ResourceWater
	ResourceFood
	ResourceMedicine
	ResourceLabor
	ResourceKnowledge
)

var resourceNames = [...]string{
	ResourceUnknown:   "unknown",
	ResourceEnergy:    "energy",
	ResourceWater:     "water",
	ResourceFood:      "food",
	ResourceMedicine:  "medicine",
	ResourceLabor:     "labor",
	ResourceKnowledge: "knowledge",
}

// Resources lists every tradable kind in declaration order.
func Resources() []Resource {
	return []Resource{
		ResourceEnergy,
		ResourceWater,
		ResourceFood,
		ResourceMedicine,
		ResourceLabor,
		ResourceKnowledge,
	}
}

func (r Resource) Valid() bool {
	return r >= ResourceEnergy && r <= ResourceKnowledge
}

func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return fmt.Sprintf("resource(%d)", uint8(r))
}

// Unit is the accounting unit for the resource. Only energy is ledgered.
func (r Resource) Unit() string {
	switch r {
	case ResourceEnergy:
		return "kWh"
	case ResourceWater:
		return "L"
	case ResourceFood:
		return "kg"
	case ResourceMedicine:
		return "doses"
	case ResourceLabor:
		return "hours"
	case ResourceKnowledge:
		return "sessions"
	default:
		return ""
	}
}

func ParseResource(s string) (Resource, error) {
	for _, r := range Resources() {
		if resourceNames[r] == s {
			return r, nil
		}
	}
	return ResourceUnknown, validationf("unknown resource type %q", s)
}

func (r Resource) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resource) UnmarshalText(b []byte) error {
	v, err := ParseResource(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// -------------------- Urgency --------------------

// Urgency is informational; matching order is creation order regardless.
type Urgency uint8

const (
	UrgencyLow Urgency = iota + 1
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	default:
		return fmt.Sprintf("urgency(%d)", uint8(u))
	}
}

func (u Urgency) Valid() bool {
	return u >= UrgencyLow && u <= UrgencyCritical
}

// ParseUrgency maps "" to medium.
func ParseUrgency(s string) (Urgency, error) {
	switch s {
	case "low":
		return UrgencyLow, nil
	case "", "medium":
		return UrgencyMedium, nil
	case "high":
		return UrgencyHigh, nil
	case "critical":
		return UrgencyCritical, nil
	}
	return 0, validationf("unknown urgency %q", s)
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(b []byte) error {
	v, err := ParseUrgency(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// -------------------- Status --------------------

type OfferStatus uint8

const (
	OfferActive OfferStatus = iota
	OfferFulfilled
)

func (s OfferStatus) String() string {
	if s == OfferFulfilled {
		return "fulfilled"
	}
	return "active"
}

func (s OfferStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type RequestStatus uint8

const (
	RequestOpen RequestStatus = iota
	RequestFulfilled
)

func (s RequestStatus) String() string {
	if s == RequestFulfilled {
		return "fulfilled"
	}
	return "open"
}

func (s RequestStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OfferStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = OfferActive
	case "fulfilled":
		*s = OfferFulfilled
	default:
		return validationf("unknown offer status %q", b)
	}
	return nil
}

func (s *RequestStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "open":
		*s = RequestOpen
	case "fulfilled":
		*s = RequestFulfilled
	default:
		return validationf("unknown request status %q", b)
	}
	return nil
}
