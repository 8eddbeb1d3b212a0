// Package seed loads the embedded demo dataset.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/spacial/internal/controlplan/domain"
	planrepo "github.com/smallbiznis/spacial/internal/controlplan/repository"
	featuredomain "github.com/smallbiznis/spacial/internal/feature/domain"
	measurementdomain "github.com/smallbiznis/spacial/internal/measurement/domain"
	bindingdomain "github.com/smallbiznis/spacial/internal/planfeature/domain"
	productdomain "github.com/smallbiznis/spacial/internal/product/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed demo.yml
var demoYAML []byte

// history is how far back generated capture times reach.
const history = 30 * 24 * time.Hour

type Dataset struct {
	Products []Product `yaml:"products"`
}

type Product struct {
	Code        string    `yaml:"code"`
	Name        string    `yaml:"name"`
	Family      string    `yaml:"family"`
	Description string    `yaml:"description"`
	Features    []Feature `yaml:"features"`
	Plans       []Plan    `yaml:"plans"`
}

type Feature struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Nominal         *float64 `yaml:"nominal"`
	TolerancePlus   *float64 `yaml:"tolerance_plus"`
	ToleranceMinus  *float64 `yaml:"tolerance_minus"`
	Unit            string   `yaml:"unit"`
	MeasurementType string   `yaml:"measurement_type"`
}

type Plan struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Active      bool      `yaml:"active"`
	Bindings    []Binding `yaml:"bindings"`
}

type Binding struct {
	Feature string   `yaml:"feature"`
	Target  *float64 `yaml:"target"`
	USL     *float64 `yaml:"usl"`
	LSL     *float64 `yaml:"lsl"`
	Samples *Samples `yaml:"samples"`
}

// Samples describes normally distributed demo measurements.
type Samples struct {
	Count    int     `yaml:"count"`
	Mean     float64 `yaml:"mean"`
	Sigma    float64 `yaml:"sigma"`
	Operator string  `yaml:"operator"`
}

// Demo parses the embedded dataset.
func Demo() (*Dataset, error) {
	return Parse(demoYAML)
}

func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	for _, p := range ds.Products {
		if p.Code == "" || p.Name == "" {
			return errors.New("seed product requires code and name")
		}
		known := make(map[string]bool, len(p.Features))
		for _, f := range p.Features {
			known[f.Name] = true
		}
		for _, plan := range p.Plans {
			for _, b := range plan.Bindings {
				if !known[b.Feature] {
					return fmt.Errorf("seed plan %q binds unknown feature %q of %s", plan.Name, b.Feature, p.Code)
				}
			}
		}
	}
	return nil
}

// Result counts what Apply inserted.
type Result struct {
	Products     int
	Features     int
	Plans        int
	Bindings     int
	Measurements int
}

// Apply inserts the dataset in one transaction. Products whose code already
// exists are skipped with everything under them, so Apply can be rerun.
// rng drives the generated values; pass a seeded source for reproducible data.
func Apply(ctx context.Context, db *gorm.DB, node *snowflake.Node, now time.Time, rng *rand.Rand, ds *Dataset, log *zap.Logger) (Result, error) {
	var res Result
	if db == nil || node == nil || ds == nil {
		return res, errors.New("seed requires database, id node and dataset")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x5eed))
	}
	now = now.UTC()

	plans := planrepo.Provide()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range ds.Products {
			var existing int64
			if err := tx.Model(&productdomain.Product{}).Where("code = ?", p.Code).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				log.Info("seed product exists, skipping", zap.String("code", p.Code))
				continue
			}
			if err := applyProduct(ctx, tx, plans, node, now, rng, p, &res); err != nil {
				return fmt.Errorf("seed %s: %w", p.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("demo data seeded",
		zap.Int("products", res.Products),
		zap.Int("features", res.Features),
		zap.Int("plans", res.Plans),
		zap.Int("bindings", res.Bindings),
		zap.Int("measurements", res.Measurements),
	)
	return res, nil
}

func applyProduct(ctx context.Context, tx *gorm.DB, plans plandomain.Repository, node *snowflake.Node, now time.Time, rng *rand.Rand, p Product, res *Result) error {
	product := productdomain.Product{
		ID:          node.Generate(),
		Code:        p.Code,
		Name:        p.Name,
		Family:      optional(p.Family),
		Description: optional(p.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Create(&product).Error; err != nil {
		return err
	}
	res.Products++

	features := make(map[string]snowflake.ID, len(p.Features))
	for _, f := range p.Features {
		unit := f.Unit
		if unit == "" {
			unit = featuredomain.DefaultUnit
		}
		mt := featuredomain.MeasurementType(f.MeasurementType)
		if mt == "" {
			mt = featuredomain.MeasurementTypeDimension
		}
		feature := featuredomain.Feature{
			ID:              node.Generate(),
			ProductID:       product.ID,
			Name:            f.Name,
			Description:     optional(f.Description),
			Nominal:         f.Nominal,
			TolerancePlus:   f.TolerancePlus,
			ToleranceMinus:  f.ToleranceMinus,
			Unit:            unit,
			MeasurementType: mt,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&feature).Error; err != nil {
			return err
		}
		features[f.Name] = feature.ID
		res.Features++
	}

	for _, pl := range p.Plans {
		plan := plandomain.ControlPlan{
			ID:          node.Generate(),
			ProductID:   product.ID,
			Name:        pl.Name,
			Description: optional(pl.Description),
			Active:      pl.Active,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := plans.Create(ctx, tx, &plan); err != nil {
			return err
		}
		res.Plans++

		for _, b := range pl.Bindings {
			binding := bindingdomain.Binding{
				ID:        node.Generate(),
				PlanID:    plan.ID,
				FeatureID: features[b.Feature],
				Target:    b.Target,
				USL:       b.USL,
				LSL:       b.LSL,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&binding).Error; err != nil {
				return err
			}
			res.Bindings++

			if b.Samples == nil || b.Samples.Count <= 0 {
				continue
			}
			items := generate(node, rng, now, product.ID, plan.ID, binding.FeatureID, *b.Samples)
			if err := tx.CreateInBatches(items, 100).Error; err != nil {
				return err
			}
			res.Measurements += len(items)
		}
	}
	return nil
}

// generate draws count values from N(mean, sigma) with capture times spread
// over the history window in ascending order.
func generate(node *snowflake.Node, rng *rand.Rand, now time.Time, productID, planID, featureID snowflake.ID, s Samples) []measurementdomain.Measurement {
	offsets := make([]time.Duration, s.Count)
	for i := range offsets {
		offsets[i] = time.Duration(rng.Int64N(int64(history)))
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] > offsets[j] })

	operator := s.Operator
	if operator == "" {
		operator = "operator1"
	}

	items := make([]measurementdomain.Measurement, 0, s.Count)
	for i, offset := range offsets {
		value := s.Mean + rng.NormFloat64()*s.Sigma
		items = append(items, measurementdomain.Measurement{
			ID:           node.Generate(),
			ProductID:    productID,
			PlanID:       planID,
			FeatureID:    featureID,
			SerialNumber: fmt.Sprintf("SN%d", 1000+i),
			Value:        math.Round(value*1000) / 1000,
			MeasuredAt:   now.Add(-offset).Truncate(time.Second),
			Operator:     operator,
		})
	}
	return items
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
