package catalog

import (
	"fmt"
	"strconv"

	"b00m.in/landgrid/address"
	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/parcel"
)

// Table exposes a collection as display rows.
type Table interface {
	Len() int
	Headers() []string
	Row(i int) []string
}

// Kind names accepted by TableFor.
const (
	KindAddresses     = "addresses"
	KindAddressPoints = "points"
	KindParcels       = "parcels"
)

var ErrUnknownKind = fmt.Errorf("catalog: unknown kind, want %s, %s or %s", KindAddresses, KindAddressPoints, KindParcels)

// TableFor returns the rows of one collection. A collection that is not
// loaded gives an empty table.
func (c *Catalog) TableFor(kind string) (Table, error) {
	switch kind {
	case KindAddresses:
		return AddressTable{c.Addresses}, nil
	case KindAddressPoints:
		return AddressPointTable{c.AddressPoints}, nil
	case KindParcels:
		return ParcelTable{c.Parcels}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRect(r geometry.Rect) string {
	if r.IsEmpty() {
		return "-"
	}
	return fmt.Sprintf("[%s %s, %s %s]", formatFloat(r.XMin), formatFloat(r.YMin), formatFloat(r.XMax), formatFloat(r.YMax))
}

type AddressTable struct{ *address.Addresses }

func (t AddressTable) Len() int { return t.Addresses.Len() }

func (AddressTable) Headers() []string {
	return []string{"label", "status", "lat", "lon", "x", "y"}
}

func (t AddressTable) Row(i int) []string {
	a := t.Records[i]
	return []string{a.Label, a.Status, formatFloat(a.Lat), formatFloat(a.Lon), formatFloat(a.X), formatFloat(a.Y)}
}

type AddressPointTable struct{ *address.AddressPoints }

func (t AddressPointTable) Len() int { return t.AddressPoints.Len() }

func (AddressPointTable) Headers() []string {
	return []string{"label", "x", "y", "bounds", "selected"}
}

func (t AddressPointTable) Row(i int) []string {
	ap := t.Records[i]
	return []string{
		ap.Address.Label,
		formatFloat(ap.Geometry.X),
		formatFloat(ap.Geometry.Y),
		formatRect(ap.Bounds),
		strconv.FormatBool(ap.Selected),
	}
}

type ParcelTable struct{ *parcel.Parcels }

func (t ParcelTable) Len() int { return t.Parcels.Len() }

func (ParcelTable) Headers() []string {
	return []string{"id", "name", "parts", "holes", "bounds", "selected"}
}

func (t ParcelTable) Row(i int) []string {
	p := t.Records[i]
	name := ""
	if p.Owner.Name != nil {
		name = *p.Owner.Name
	}
	holes := 0
	for _, part := range p.Geometry.Parts {
		holes += len(part.Inner)
	}
	return []string{
		p.Owner.ID,
		name,
		strconv.Itoa(len(p.Geometry.Parts)),
		strconv.Itoa(holes),
		formatRect(p.Bounds),
		strconv.FormatBool(p.Selected),
	}
}
