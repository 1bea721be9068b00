package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Catalog is the immutable template every session copies its market and
// career tables from. Nothing in this package mutates a Catalog after Parse.
type Catalog struct {
	Equities  []InstrumentDef `yaml:"equities" json:"equities"`
	Crypto    []InstrumentDef `yaml:"crypto" json:"crypto"`
	Commodity CommodityDef    `yaml:"commodity" json:"commodity"`
	Careers   []TrackDef      `yaml:"careers" json:"careers"`
	Housing   []TierDef       `yaml:"housing" json:"housing"`
	Vehicles  []TierDef       `yaml:"vehicles" json:"vehicles"`
	FoodCost  float64         `yaml:"food_cost" json:"food_cost"`
}

type InstrumentDef struct {
	Symbol     string  `yaml:"symbol" json:"symbol"`
	Name       string  `yaml:"name" json:"name"`
	Sector     string  `yaml:"sector" json:"sector"`
	Price      float64 `yaml:"price" json:"price"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
}

type CommodityDef struct {
	Symbol     string  `yaml:"symbol" json:"symbol"`
	Name       string  `yaml:"name" json:"name"`
	Price      float64 `yaml:"price" json:"price"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
	Floor      float64 `yaml:"floor" json:"floor"`
	Ceiling    float64 `yaml:"ceiling" json:"ceiling"`
}

type TrackDef struct {
	ID     string     `yaml:"id" json:"id"`
	Name   string     `yaml:"name" json:"name"`
	Levels []LevelDef `yaml:"levels" json:"levels"`
}

// LevelDef is one rung of a career ladder. Levels are numbered by position,
// starting at 1.
type LevelDef struct {
	Title    string       `yaml:"title" json:"title"`
	Salary   float64      `yaml:"salary" json:"salary"`
	Requires Requirements `yaml:"requires" json:"requires"`
}

// Requirements are minimum thresholds; a zero field is not checked.
type Requirements struct {
	WorkDays  int     `yaml:"work_days" json:"work_days,omitempty"`
	Knowledge float64 `yaml:"knowledge" json:"knowledge,omitempty"`
	Money     float64 `yaml:"money" json:"money,omitempty"`
	Health    float64 `yaml:"health" json:"health,omitempty"`
	Happiness float64 `yaml:"happiness" json:"happiness,omitempty"`
}

// TierDef is a housing or vehicle choice: a flat daily cost and a daily
// happiness bonus.
type TierDef struct {
	ID        string  `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	DailyCost float64 `yaml:"daily_cost" json:"daily_cost"`
	Happiness float64 `yaml:"happiness" json:"happiness"`
}

// Default returns the embedded catalog. It is parsed once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultYAML)
	})
	return defaultCatalog, defaultErr
}

// Load reads a catalog override from path, or the embedded default when path
// is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	seen := make(map[string]struct{})
	check := func(kind string, d InstrumentDef) error {
		sym := strings.TrimSpace(d.Symbol)
		if sym == "" {
			return fmt.Errorf("%s: empty symbol", kind)
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("%s %s: duplicate symbol", kind, sym)
		}
		seen[sym] = struct{}{}
		if d.Price <= 0 {
			return fmt.Errorf("%s %s: price must be > 0", kind, sym)
		}
		if d.Volatility <= 0 || d.Volatility >= 1 {
			return fmt.Errorf("%s %s: volatility must be in (0,1)", kind, sym)
		}
		return nil
	}
	for _, d := range c.Equities {
		if err := check("equity", d); err != nil {
			return err
		}
	}
	for _, d := range c.Crypto {
		if err := check("crypto", d); err != nil {
			return err
		}
	}
	cm := c.Commodity
	if err := check("commodity", InstrumentDef{Symbol: cm.Symbol, Price: cm.Price, Volatility: cm.Volatility}); err != nil {
		return err
	}
	if cm.Floor <= 0 || cm.Ceiling < cm.Floor || cm.Price < cm.Floor || cm.Price > cm.Ceiling {
		return fmt.Errorf("commodity %s: price must sit inside [floor, ceiling]", cm.Symbol)
	}

	if len(c.Careers) == 0 {
		return errors.New("catalog defines no careers")
	}
	tracks := make(map[string]struct{}, len(c.Careers))
	for _, t := range c.Careers {
		if t.ID == "" {
			return errors.New("career with empty id")
		}
		if _, dup := tracks[t.ID]; dup {
			return fmt.Errorf("career %s: duplicate id", t.ID)
		}
		tracks[t.ID] = struct{}{}
		if len(t.Levels) == 0 {
			return fmt.Errorf("career %s: no levels", t.ID)
		}
		if t.Levels[0].Requires != (Requirements{}) {
			return fmt.Errorf("career %s: level 1 is open to everyone and takes no requirements", t.ID)
		}
		for i, l := range t.Levels {
			if l.Salary < 0 {
				return fmt.Errorf("career %s level %d: negative salary", t.ID, i+1)
			}
		}
	}
	for _, tiers := range [][]TierDef{c.Housing, c.Vehicles} {
		ids := make(map[string]struct{}, len(tiers))
		for _, t := range tiers {
			if t.ID == "" {
				return errors.New("lifestyle tier with empty id")
			}
			if _, dup := ids[t.ID]; dup {
				return fmt.Errorf("lifestyle tier %s: duplicate id", t.ID)
			}
			ids[t.ID] = struct{}{}
		}
	}
	if c.FoodCost < 0 {
		return errors.New("food cost must be >= 0")
	}
	return nil
}
