package parcel

import (
	"fmt"

	"b00m.in/landgrid/cache"
)

// smallest encoded Parcel: absent name, empty id, nil geometry, bounds, flag.
const minParcelSize = 1 + 1 + 1 + 4*8 + 1

func (ps *Parcels) MarshalBinary() ([]byte, error) {
	e := cache.NewEncoder(len(ps.Records) * 256)
	e.Len(len(ps.Records), ps.Records == nil)
	for _, p := range ps.Records {
		e.OptString(p.Owner.Name)
		e.String(p.Owner.ID)
		e.MultiPolygon(p.Geometry)
		e.Rect(p.Bounds)
		e.Bool(p.Selected)
	}
	return e.Bytes(), nil
}

func (ps *Parcels) UnmarshalBinary(data []byte) error {
	d := cache.NewDecoder(data)
	n, isNil := d.Len(minParcelSize)
	var records []Parcel
	if !isNil {
		records = make([]Parcel, n)
		for i := range records {
			records[i] = Parcel{
				Owner:    Owner{Name: d.OptString(), ID: d.String()},
				Geometry: d.MultiPolygon(),
				Bounds:   d.Rect(),
				Selected: d.Bool(),
			}
		}
	}
	if err := d.Finish(); err != nil {
		return err
	}
	ps.Records = records
	return nil
}

// Save writes the collection as a cache blob, replacing path.
func (ps *Parcels) Save(path string, opts cache.Options) error {
	payload, err := ps.MarshalBinary()
	if err != nil {
		return err
	}
	return cache.WriteFile(path, cache.KindParcels, payload, opts)
}

// LoadParcels reads a blob written by Parcels.Save.
func LoadParcels(path string) (*Parcels, error) {
	payload, err := cache.ReadFile(path, cache.KindParcels)
	if err != nil {
		return nil, err
	}
	out := &Parcels{}
	if err := out.UnmarshalBinary(payload); err != nil {
		return nil, fmt.Errorf("parcel: %s: %w", path, err)
	}
	return out, nil
}
