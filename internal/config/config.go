package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Table kinds.
const (
	KindNested     = "nested"
	KindSelections = "selections"
	KindLikert     = "likert"
)

var ErrUnknownTableKind = errors.New("config: unknown table kind")

// Config is the process configuration, read from the environment.
type Config struct {
	Port            string
	DatasetPath     string
	ResponsesAPIURL string
	ResponsesToken  string
	DashboardPath   string
	HTTPTimeout     time.Duration
	FetchMaxElapsed time.Duration
}

// Load reads .env when present, then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Port:            envOr("PORT", "8080"),
		DatasetPath:     os.Getenv("DATASET_PATH"),
		ResponsesAPIURL: os.Getenv("RESPONSES_API_URL"),
		ResponsesToken:  os.Getenv("RESPONSES_API_TOKEN"),
		DashboardPath:   envOr("DASHBOARD_CONFIG", "dashboard.yaml"),
		HTTPTimeout:     time.Duration(envInt("HTTP_TIMEOUT_SEC", 15)) * time.Second,
		FetchMaxElapsed: time.Duration(envInt("FETCH_MAX_ELAPSED_SEC", 30)) * time.Second,
	}
}

// TableSpec describes one dashboard table.
type TableSpec struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Title string `yaml:"title,omitempty"`
	// Dimensions are nesting levels for nested tables; for selections the
	// first entry is the multi-select question and the second the grouping.
	Dimensions []string `yaml:"dimensions,omitempty"`
	// Aggregator names the dimension kept as the sub-category axis.
	Aggregator  string   `yaml:"aggregator,omitempty"`
	Questions   []string `yaml:"questions,omitempty"`
	Proportions bool     `yaml:"proportions,omitempty"`
}

type Dashboard struct {
	Tables []TableSpec `yaml:"tables"`
}

// LoadDashboard reads the table layout from path. A missing file yields
// the default layout.
func LoadDashboard(path string) (Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDashboard(), nil
		}
		return Dashboard{}, fmt.Errorf("read dashboard config %s: %w", path, err)
	}
	var d Dashboard
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Dashboard{}, fmt.Errorf("parse dashboard config %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return Dashboard{}, fmt.Errorf("dashboard config %s: %w", path, err)
	}
	return d, nil
}

// Validate checks the shape of every table; dimension names are resolved
// later, when the tables are built.
func (d Dashboard) Validate() error {
	seen := map[string]bool{}
	for i, t := range d.Tables {
		if t.Name == "" {
			return fmt.Errorf("table %d: missing name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("table %q: duplicate name", t.Name)
		}
		seen[t.Name] = true
		switch t.Kind {
		case "", KindNested:
			if len(t.Dimensions) == 0 {
				return fmt.Errorf("table %q: no dimensions", t.Name)
			}
		case KindSelections:
			if len(t.Dimensions) != 2 {
				return fmt.Errorf("table %q: selections need [question, grouping]", t.Name)
			}
		case KindLikert:
			if len(t.Questions) == 0 {
				return fmt.Errorf("table %q: no questions", t.Name)
			}
		default:
			return fmt.Errorf("table %q: %w %q", t.Name, ErrUnknownTableKind, t.Kind)
		}
	}
	return nil
}

// DefaultDashboard mirrors the survey's response dashboard.
func DefaultDashboard() Dashboard {
	var tables []TableSpec
	for _, q := range []string{"accessMode", "distance", "purpose", "travelMode"} {
		for _, agg := range []string{"gender", "age", "income"} {
			tables = append(tables, TableSpec{
				Name:        q + "_by_" + agg,
				Kind:        KindNested,
				Dimensions:  []string{q, "gender", "age", "income"},
				Aggregator:  agg,
				Proportions: true,
			})
		}
	}
	tables = append(tables,
		TableSpec{
			Name:        "symptoms_by_gender",
			Kind:        KindSelections,
			Dimensions:  []string{"symptoms", "gender"},
			Proportions: true,
		},
		TableSpec{
			Name:       "aqi_actions_by_income",
			Kind:       KindNested,
			Dimensions: []string{"aqiActions", "income"},
			Aggregator: "income",
		},
	)
	return Dashboard{Tables: tables}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
