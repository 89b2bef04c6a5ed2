// Package catalog holds the static product tree (category, product, variant)
// and the lookups used to guard catalog routes.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("variant not found")
)

type Variant struct {
	Slug      string `yaml:"slug" json:"slug"`
	Name      string `yaml:"name" json:"name"`
	Price     int64  `yaml:"price" json:"price"`
	Finish    string `yaml:"finish" json:"finish,omitempty"`
	Thickness string `yaml:"thickness" json:"thickness,omitempty"`
	Size      string `yaml:"size" json:"size,omitempty"`
}

type Product struct {
	Slug        string    `yaml:"slug" json:"slug"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Image       string    `yaml:"image" json:"image"`
	Variants    []Variant `yaml:"variants" json:"variants"`
}

type Category struct {
	Slug        string    `yaml:"slug" json:"slug"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Products    []Product `yaml:"products" json:"products"`
}

type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`

	// product slug -> category slug
	productIndex map[string]string
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Product slugs must be unique across categories.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: invalid yaml: %w", err)
	}

	c.productIndex = make(map[string]string)
	seenCategories := make(map[string]bool)
	for _, cat := range c.Categories {
		if cat.Slug == "" {
			return nil, errors.New("catalog: category without slug")
		}
		if seenCategories[cat.Slug] {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.Slug)
		}
		seenCategories[cat.Slug] = true

		for _, p := range cat.Products {
			if p.Slug == "" {
				return nil, fmt.Errorf("catalog: product without slug in %q", cat.Slug)
			}
			if _, dup := c.productIndex[p.Slug]; dup {
				return nil, fmt.Errorf("catalog: duplicate product %q", p.Slug)
			}
			c.productIndex[p.Slug] = cat.Slug

			seenVariants := make(map[string]bool)
			for _, v := range p.Variants {
				if v.Slug == "" || seenVariants[v.Slug] {
					return nil, fmt.Errorf("catalog: missing or duplicate variant slug in %q", p.Slug)
				}
				if v.Price <= 0 {
					return nil, fmt.Errorf("catalog: variant %s/%s must have a positive price", p.Slug, v.Slug)
				}
				seenVariants[v.Slug] = true
			}
		}
	}

	return &c, nil
}

func (c *Catalog) Category(slug string) (Category, error) {
	for _, cat := range c.Categories {
		if cat.Slug == slug {
			return cat, nil
		}
	}
	return Category{}, ErrCategoryNotFound
}

func (c *Catalog) Product(categorySlug, productSlug string) (Product, error) {
	cat, err := c.Category(categorySlug)
	if err != nil {
		return Product{}, err
	}
	for _, p := range cat.Products {
		if p.Slug == productSlug {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (c *Catalog) Variant(categorySlug, productSlug, variantSlug string) (Variant, error) {
	p, err := c.Product(categorySlug, productSlug)
	if err != nil {
		return Variant{}, err
	}
	return p.variant(variantSlug)
}

// FindVariant resolves a variant from the product slug alone.
func (c *Catalog) FindVariant(productSlug, variantSlug string) (Product, Variant, error) {
	categorySlug, ok := c.productIndex[productSlug]
	if !ok {
		return Product{}, Variant{}, ErrProductNotFound
	}

	p, err := c.Product(categorySlug, productSlug)
	if err != nil {
		return Product{}, Variant{}, err
	}

	v, err := p.variant(variantSlug)
	if err != nil {
		return Product{}, Variant{}, err
	}
	return p, v, nil
}

// Fallback returns the deepest valid catalog path for the given segments.
// Empty segments stop the walk.
func (c *Catalog) Fallback(categorySlug, productSlug, variantSlug string) string {
	path := "/catalog"
	if categorySlug == "" {
		return path
	}

	if _, err := c.Category(categorySlug); err != nil {
		return path
	}
	path += "/" + categorySlug
	if productSlug == "" {
		return path
	}

	p, err := c.Product(categorySlug, productSlug)
	if err != nil {
		return path
	}
	path += "/" + productSlug
	if variantSlug == "" {
		return path
	}

	if _, err := p.variant(variantSlug); err != nil {
		return path
	}
	return path + "/" + variantSlug
}

func (p Product) variant(slug string) (Variant, error) {
	for _, v := range p.Variants {
		if v.Slug == slug {
			return v, nil
		}
	}
	return Variant{}, ErrVariantNotFound
}
