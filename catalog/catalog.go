// Package catalog is what a viewer or command talks to: the three
// collections, loaded from cache or built from source, with counts, table
// rows and point queries on top.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"b00m.in/landgrid/address"
	"b00m.in/landgrid/cache"
	"b00m.in/landgrid/config"
	"b00m.in/landgrid/convert"
	"b00m.in/landgrid/geometry"
	"b00m.in/landgrid/ingest"
	"b00m.in/landgrid/logging"
	"b00m.in/landgrid/parcel"
	"b00m.in/landgrid/parquet"
)

// Catalog holds whatever could be loaded. A nil collection means its cache
// was missing or unusable.
type Catalog struct {
	Addresses     *address.Addresses
	AddressPoints *address.AddressPoints
	Parcels       *parcel.Parcels
}

// Open loads the three caches at the same time, each on its own. A missing
// or stale cache is logged and leaves that collection nil; it never fails
// the others.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) *Catalog {
	log = logging.OrDefault(log).Named("catalog")
	c := &Catalog{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.Addresses = loadOne(log, cache.KindAddresses, cfg.Addresses.Cache, address.LoadAddresses)
		return nil
	})
	g.Go(func() error {
		c.AddressPoints = loadOne(log, cache.KindAddressPoints, cfg.AddressPoints.Cache, address.LoadAddressPoints)
		return nil
	})
	g.Go(func() error {
		c.Parcels = loadOne(log, cache.KindParcels, cfg.Parcels.Cache, parcel.LoadParcels)
		return nil
	})
	g.Wait()
	return c
}

func loadOne[T any](log logging.Logger, kind cache.Kind, path string, load func(string) (*T, error)) *T {
	start := time.Now()
	v, err := load(path)
	switch {
	case err == nil:
		log.Info("cache loaded",
			logging.String("kind", kind.String()),
			logging.String("path", path),
			logging.Duration("elapsed", time.Since(start)))
		return v
	case errors.Is(err, os.ErrNotExist):
		log.Info("cache missing", logging.String("kind", kind.String()), logging.String("path", path))
	default:
		log.Warn("cache unusable", logging.String("kind", kind.String()), logging.String("path", path), logging.Err(err))
	}
	return nil
}

// BuildOptions carry the collaborators of a build.
type BuildOptions struct {
	Logger        logging.Logger
	AddressTicker ingest.Ticker
	ParcelTicker  ingest.Ticker
}

// BuildReport says what ingestion kept and dropped for each source.
type BuildReport struct {
	Addresses ingest.Report
	Parcels   ingest.Report
}

// Build ingests both sources concurrently and derives the address points.
// A kind whose source is not configured is left nil. Sources ending in
// .parquet are read as GeoParquet exports, anything else as CSV or GeoJSON.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Catalog, BuildReport, error) {
	log := logging.OrDefault(opts.Logger).Named("catalog")
	c := &Catalog{}
	var report BuildReport
	g, ctx := errgroup.WithContext(ctx)

	if src := cfg.Addresses.Source; src != "" {
		g.Go(func() error {
			in := ingest.Options{Logger: log, Ticker: opts.AddressTicker, Source: src}
			var err error
			if isParquet(src) {
				c.Addresses, report.Addresses, err = parquet.ReadAddresses(ctx, src, in)
			} else {
				c.Addresses, report.Addresses, err = address.FromCSV(src, cfg.Columns, in)
			}
			if err != nil {
				return err
			}
			c.AddressPoints = address.NewAddressPoints(c.Addresses, cfg.Buffer)
			return nil
		})
	}
	if src := cfg.Parcels.Source; src != "" {
		g.Go(func() error {
			in := ingest.Options{Logger: log, Ticker: opts.ParcelTicker, Source: src}
			conv := convert.NewConverter(cfg.Workers)
			var err error
			if isParquet(src) {
				c.Parcels, report.Parcels, err = parquet.ReadParcels(ctx, src, conv, in)
			} else {
				c.Parcels, report.Parcels, err = parcel.FromGeoJSON(src, cfg.Fields, conv, in)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, fmt.Errorf("catalog: build: %w", err)
	}
	return c, report, nil
}

func isParquet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
}

// Save writes a cache blob for every loaded collection. It is never called
// implicitly by Open or Build.
func (c *Catalog) Save(cfg *config.Config) error {
	var errs []error
	if c.Addresses != nil {
		errs = append(errs, c.Addresses.Save(cfg.Addresses.Cache, cfg.Cache))
	}
	if c.AddressPoints != nil {
		errs = append(errs, c.AddressPoints.Save(cfg.AddressPoints.Cache, cfg.Cache))
	}
	if c.Parcels != nil {
		errs = append(errs, c.Parcels.Save(cfg.Parcels.Cache, cfg.Cache))
	}
	return errors.Join(errs...)
}

// Counts is the record count of each collection; nil collections count 0.
type Counts struct {
	Addresses     int
	AddressPoints int
	Parcels       int
}

func (c *Catalog) Counts() Counts {
	return Counts{
		Addresses:     c.Addresses.Len(),
		AddressPoints: c.AddressPoints.Len(),
		Parcels:       c.Parcels.Len(),
	}
}

// Hits are record indexes matched by a query, in collection order.
type Hits struct {
	AddressPoints []int
	Parcels       []int
}

func (h Hits) Empty() bool {
	return len(h.AddressPoints) == 0 && len(h.Parcels) == 0
}

// Query finds the address points and parcels at p.
func (c *Catalog) Query(p geometry.Point, tolerance float64) Hits {
	return Hits{
		AddressPoints: c.AddressPoints.Query(p, tolerance),
		Parcels:       c.Parcels.Query(p, tolerance),
	}
}

// Select marks exactly the records in h as selected.
func (c *Catalog) Select(h Hits) {
	if c.AddressPoints != nil {
		for i := range c.AddressPoints.Records {
			c.AddressPoints.Records[i].Selected = false
		}
		for _, i := range h.AddressPoints {
			c.AddressPoints.Records[i].Selected = true
		}
	}
	if c.Parcels != nil {
		for i := range c.Parcels.Records {
			c.Parcels.Records[i].Selected = false
		}
		for _, i := range h.Parcels {
			c.Parcels.Records[i].Selected = true
		}
	}
}
