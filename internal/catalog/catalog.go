// Package catalog loads product seed files and writes them to the store.
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"techtrove/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loader reads one gzipped JSON-lines product file.
type Loader interface {
	// Load returns the products in the file at path, in file order.
	Load(ctx context.Context, path string) ([]model.Product, error)
}

// record is one line of a seed file.
type record struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    model.Category  `json:"category" validate:"required,oneof=Electronics Computers 'Smart Home' Accessories"`
	Stock       int             `json:"stock" validate:"min=0"`
	Image       string          `json:"image"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkEvery is how many lines are read between context checks.
const checkEvery = 10_000

// decode reads JSON-lines products from r. Blank lines are skipped.
func decode(ctx context.Context, r io.Reader, source string) ([]model.Product, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	now := time.Now().UTC()
	products := []model.Product{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: invalid JSON: %w", source, lineNo, err)
		}
		rec.Name = strings.TrimSpace(rec.Name)
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
		}
		if rec.Price.IsNegative() {
			return nil, fmt.Errorf("%s line %d: price must not be negative", source, lineNo)
		}

		products = append(products, model.Product{
			ID:          uuid.New(),
			Name:        rec.Name,
			Description: rec.Description,
			Price:       rec.Price.Round(2),
			Category:    rec.Category,
			Stock:       rec.Stock,
			Image:       rec.Image,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", source, err)
	}

	return products, nil
}
