package address

import (
	"fmt"

	"b00m.in/landgrid/cache"
)

func encodeAddress(e *cache.Encoder, a Address) {
	e.String(a.Label)
	e.String(a.Status)
	e.Float64(a.Lat)
	e.Float64(a.Lon)
	e.Float64(a.X)
	e.Float64(a.Y)
}

func decodeAddress(d *cache.Decoder) Address {
	return Address{
		Label:  d.String(),
		Status: d.String(),
		Lat:    d.Float64(),
		Lon:    d.Float64(),
		X:      d.Float64(),
		Y:      d.Float64(),
	}
}

// smallest encoded Address: two empty strings and four floats.
const minAddressSize = 2 + 4*8

func (a *Addresses) MarshalBinary() ([]byte, error) {
	e := cache.NewEncoder(len(a.Records) * 64)
	e.Len(len(a.Records), a.Records == nil)
	for _, rec := range a.Records {
		encodeAddress(e, rec)
	}
	return e.Bytes(), nil
}

func (a *Addresses) UnmarshalBinary(data []byte) error {
	d := cache.NewDecoder(data)
	n, isNil := d.Len(minAddressSize)
	var records []Address
	if !isNil {
		records = make([]Address, n)
		for i := range records {
			records[i] = decodeAddress(d)
		}
	}
	if err := d.Finish(); err != nil {
		return err
	}
	a.Records = records
	return nil
}

// Save writes the collection as a cache blob, replacing path.
func (a *Addresses) Save(path string, opts cache.Options) error {
	payload, err := a.MarshalBinary()
	if err != nil {
		return err
	}
	return cache.WriteFile(path, cache.KindAddresses, payload, opts)
}

// LoadAddresses reads a blob written by Addresses.Save. Any error means the
// cache is unusable and the source should be ingested again.
func LoadAddresses(path string) (*Addresses, error) {
	payload, err := cache.ReadFile(path, cache.KindAddresses)
	if err != nil {
		return nil, err
	}
	out := &Addresses{}
	if err := out.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("address: %s: %w", path, err)
	}
	return out, nil
}

func (ap *AddressPoints) MarshalBinary() ([]byte, error) {
	e := cache.NewEncoder(len(ap.Records) * 128)
	e.Len(len(ap.Records), ap.Records == nil)
	for _, rec := range ap.Records {
		encodeAddress(e, rec.Address)
		e.Point(rec.Geometry)
		e.Rect(rec.Bounds)
		e.Bool(rec.Selected)
	}
	return e.Bytes(), nil
}

func (ap *AddressPoints) UnmarshalBinary(data []byte) error {
	d := cache.NewDecoder(data)
	n, isNil := d.Len(minAddressSize + 6*8 + 1)
	var records []AddressPoint
	if !isNil {
		records = make([]AddressPoint, n)
		for i := range records {
			records[i] = AddressPoint{
				Address:  decodeAddress(d),
				Geometry: d.Point(),
				Bounds:   d.Rect(),
				Selected: d.Bool(),
			}
		}
	}
	if err := d.Finish(); err != nil {
		return err
	}
	ap.Records = records
	return nil
}

func (ap *AddressPoints) Save(path string, opts cache.Options) error {
	payload, err := ap.MarshalBinary()
	if err != nil {
		return err
	}
	return cache.WriteFile(path, cache.KindAddressPoints, payload, opts)
}

func LoadAddressPoints(path string) (*AddressPoints, error) {
	payload, err := cache.ReadFile(path, cache.KindAddressPoints)
	if err != nil {
		return nil, err
	}
	out := &AddressPoints{}
	if err := out.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("address: %s: %w", path, err)
	}
	return out, nil
}
