// Package catalog - справочник ресурсов помощи: скорые, койки, еда, вода, укрытия.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/Manthan2028/resqnet/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seed []byte

// Filter - условия выборки. Пустое поле не ограничивает, условия объединяются по И.
type Filter struct {
	Type   models.ResourceType
	Status models.ResourceStatus
	City   string
}

func (f Filter) Matches(item models.ResourceItem) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.City != "" && item.City != f.City {
		return false
	}
	return true
}

// Catalog - неизменяемый после создания список ресурсов, доступные первыми
type Catalog struct {
	items []models.ResourceItem
}

func New(items []models.ResourceItem) *Catalog {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b models.ResourceItem) int {
		return rank(a) - rank(b)
	})
	return &Catalog{items: sorted}
}

// Load разбирает справочник в формате YAML
func Load(data []byte) (*Catalog, error) {
	var items []models.ResourceItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: could not parse seed: %w", err)
	}
	return New(items), nil
}

// Default - встроенный демонстрационный справочник
func Default() (*Catalog, error) {
	return Load(seed)
}

// List возвращает ресурсы, подходящие под фильтр, в порядке справочника
func (c *Catalog) List(f Filter) []models.ResourceItem {
	out := make([]models.ResourceItem, 0, len(c.items))
	for _, item := range c.items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// Cities - города справочника в порядке первого появления
func (c *Catalog) Cities() []string {
	var cities []string
	for _, item := range c.items {
		if !slices.Contains(cities, item.City) {
			cities = append(cities, item.City)
		}
	}
	return cities
}

func rank(item models.ResourceItem) int {
	if item.Status == models.ResourceAvailable {
		return 0
	}
	return 1
}
