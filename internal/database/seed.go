package database

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/techretail/retailbot/internal/domain"
)

// SeedFile is the YAML layout accepted by the seed command. Products and
// FAQs may be nested under a category or listed at the top level without one.
type SeedFile struct {
	Categories    []SeedCategory    `yaml:"categories"`
	Products      []SeedProduct     `yaml:"products"`
	FAQCategories []SeedFAQCategory `yaml:"faq_categories"`
	FAQs          []SeedFAQ         `yaml:"faqs"`
}

type SeedCategory struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Products    []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Price is kept as text so "19.90" never goes through a float.
	Price    string `yaml:"price"`
	Stock    int    `yaml:"stock"`
	ImageURL string `yaml:"image_url"`
}

type SeedFAQCategory struct {
	Name string    `yaml:"name"`
	FAQs []SeedFAQ `yaml:"faqs"`
}

type SeedFAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// SeedResult counts the rows created by Seed.
type SeedResult struct {
	Categories    int
	Products      int
	FAQCategories int
	FAQs          int
}

// ParseSeed decodes a seed document, rejecting unknown keys.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// LoadSeedFile reads and parses the seed file at path.
func LoadSeedFile(path string) (*SeedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()
	return ParseSeed(file)
}

// Seed inserts the catalog described by f. It stops at the first failing row;
// rows created before it are kept.
func Seed(ctx context.Context, store CatalogStore, f *SeedFile) (SeedResult, error) {
	var res SeedResult

	createProducts := func(products []SeedProduct, categoryID *int64) error {
		for _, p := range products {
			price, err := decimal.NewFromString(p.Price)
			if err != nil {
				return fmt.Errorf("%w: product %q has invalid price %q", domain.ErrValidation, p.Name, p.Price)
			}
			product := &domain.Product{
				Name:        p.Name,
				Description: p.Description,
				Price:       price,
				Stock:       p.Stock,
				ImageURL:    p.ImageURL,
				CategoryID:  categoryID,
			}
			if err := store.CreateProduct(ctx, product); err != nil {
				return err
			}
			res.Products++
		}
		return nil
	}

	createFAQs := func(faqs []SeedFAQ, categoryID *int64) error {
		for _, q := range faqs {
			if err := store.CreateFAQ(ctx, &domain.FAQ{Question: q.Question, Answer: q.Answer, CategoryID: categoryID}); err != nil {
				return err
			}
			res.FAQs++
		}
		return nil
	}

	for _, c := range f.Categories {
		category := &domain.Category{Name: c.Name, Description: c.Description}
		if err := store.CreateCategory(ctx, category); err != nil {
			return res, err
		}
		res.Categories++
		if err := createProducts(c.Products, &category.ID); err != nil {
			return res, err
		}
	}
	if err := createProducts(f.Products, nil); err != nil {
		return res, err
	}

	for _, c := range f.FAQCategories {
		category := &domain.FAQCategory{Name: c.Name}
		if err := store.CreateFAQCategory(ctx, category); err != nil {
			return res, err
		}
		res.FAQCategories++
		if err := createFAQs(c.FAQs, &category.ID); err != nil {
			return res, err
		}
	}
	if err := createFAQs(f.FAQs, nil); err != nil {
		return res, err
	}

	return res, nil
}
