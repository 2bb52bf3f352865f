package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type SeedBranch struct {
	Name string `yaml:"name"`
}

type SeedProduct struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	ImageURL    string `yaml:"image_url"`
	Rating      struct {
		Rate  string `yaml:"rate"`
		Count int    `yaml:"count"`
	} `yaml:"rating"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Role     string `yaml:"role"`
}

type SeedData struct {
	Branches []SeedBranch  `yaml:"branches"`
	Products []SeedProduct `yaml:"products"`
	Users    []SeedUser    `yaml:"users"`
}

type SeedResult struct {
	Branches int
	Products int
	Users    int
}

func LoadSeedFile(path string) (*SeedData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(b)
}

func ParseSeed(b []byte) (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &data, nil
}

// Seed 冪等性
// 分店、使用者以名稱判斷是否存在，商品只在商品表為空時寫入
func Seed(ctx context.Context, uow repository.IUnitOfWork, data *SeedData) (SeedResult, error) {
	var result SeedResult
	err := uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		for _, sb := range data.Branches {
			_, err := tx.Branches().GetByName(ctx, sb.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, model.ErrNotFound) {
				return err
			}
			branch, err := model.NewBranch(sb.Name)
			if err != nil {
				return fmt.Errorf("seed branch %q: %w", sb.Name, err)
			}
			if err := tx.Branches().Create(ctx, branch); err != nil {
				return err
			}
			result.Branches++
		}

		for _, su := range data.Users {
			_, err := tx.Users().GetByUsername(ctx, su.Username)
			if err == nil {
				continue
			}
			if !errors.Is(err, model.ErrNotFound) {
				return err
			}
			user, err := model.NewUser(su.Username, su.Email, su.Phone, model.UserRole(su.Role))
			if err != nil {
				return fmt.Errorf("seed user %q: %w", su.Username, err)
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return err
			}
			result.Users++
		}

		_, total, err := tx.Products().GetPaged(ctx, paging.New(1, 1), nil)
		if err != nil {
			return err
		}
		if total > 0 {
			return nil
		}
		for _, sp := range data.Products {
			product, err := seedProduct(sp)
			if err != nil {
				return err
			}
			if err := tx.Products().Create(ctx, product); err != nil {
				return err
			}
			result.Products++
		}
		return nil
	})
	return result, err
}

func seedProduct(sp SeedProduct) (*model.Product, error) {
	price, err := decimal.NewFromString(sp.Price)
	if err != nil {
		return nil, fmt.Errorf("seed product %q: invalid price %q: %w", sp.Title, sp.Price, err)
	}
	rate := decimal.Zero
	if sp.Rating.Rate != "" {
		if rate, err = decimal.NewFromString(sp.Rating.Rate); err != nil {
			return nil, fmt.Errorf("seed product %q: invalid rate %q: %w", sp.Title, sp.Rating.Rate, err)
		}
	}
	product, err := model.NewProduct(sp.Title, sp.Description, price, sp.Category, sp.ImageURL, model.Rating{Rate: rate, Count: sp.Rating.Count})
	if err != nil {
		return nil, fmt.Errorf("seed product %q: %w", sp.Title, err)
	}
	return product, nil
}
