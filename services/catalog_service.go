package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
)

// ImageStore persists uploaded product images and returns their public url.
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type ImageFile struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type UploadResult struct {
	URLs   []string
	Failed []string
}

type ProductList struct {
	Products []models.Product
	Total    int64
	Page     int
	Limit    int
}

type CatalogService struct {
	base
	images ImageStore
}

func NewCatalogService(store *repositories.Store, images ImageStore, opts Options) *CatalogService {
	return &CatalogService{base: newBase(store, opts), images: images}
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	switch {
	case strings.TrimSpace(product.Name) == "":
		return nil, Validation("Product name is required.")
	case product.Price.IsNegative():
		return nil, Validation("Price must not be negative.")
	case product.Stock < 0:
		return nil, Validation("Stock must not be negative.")
	}

	product.ID = 0
	product.Price = product.Price.Round(2)
	product.Specifications = nil
	product.Images = nil
	if err := s.reader(ctx).CreateProduct(product); err != nil {
		return nil, s.fail("create product", err)
	}
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.reader(ctx).GetProduct(id)
	if err != nil {
		return nil, s.fail("get product", lookup(err, "product"))
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, page, limit int, search string) (*ProductList, error) {
	page, limit = normalizePage(page, limit)
	products, count, err := s.reader(ctx).ListProducts(page, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, s.fail("list products", err)
	}
	return &ProductList{Products: products, Total: count, Page: page, Limit: limit}, nil
}

// SetStock overwrites the stock level of a product, e.g. after a stock
// take.
func (s *CatalogService) SetStock(ctx context.Context, id uint, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, Validation("Stock must not be negative.")
	}

	var product *models.Product
	var previous int
	err := s.inTx(ctx, "set stock", func(tx *repositories.Store) error {
		var err error
		if product, err = tx.LockProduct(id); err != nil {
			return lookup(err, "product")
		}
		previous = product.Stock
		product.Stock = stock
		return tx.SetStock(product.ID, stock)
	})
	if err != nil {
		return nil, err
	}

	if previous != stock {
		s.publish(ctx, events.New(events.StockChanged, product.ID, map[string]any{"delta": stock - previous}))
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.reader(ctx).SoftDelete(&models.Product{}, id); err != nil {
		return s.fail("delete product", lookup(err, "product"))
	}
	return nil
}

func (s *CatalogService) RestoreProduct(ctx context.Context, id uint) (*models.Product, error) {
	if err := s.reader(ctx).Restore(&models.Product{}, id); err != nil {
		return nil, s.fail("restore product", lookup(err, "product"))
	}
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProductSpecs(ctx context.Context, spec *models.ProductSpecs) (*models.ProductSpecs, error) {
	store := s.reader(ctx)
	if _, err := store.GetProduct(spec.ProductID); err != nil {
		return nil, s.fail("create product specs", lookup(err, "product"))
	}
	if err := store.CreateProductSpecs(spec); err != nil {
		return nil, s.fail("create product specs", err)
	}
	return spec, nil
}

// UploadProductImages stores every file and records an image row for each
// successful upload. Files that fail are reported, not fatal.
func (s *CatalogService) UploadProductImages(ctx context.Context, productID uint, files []ImageFile) (*UploadResult, error) {
	if s.images == nil {
		return nil, InvalidState("Image storage is not configured.")
	}
	if len(files) == 0 {
		return nil, Validation("No files uploaded")
	}

	store := s.reader(ctx)
	if _, err := store.GetProduct(productID); err != nil {
		return nil, s.fail("upload product images", lookup(err, "product"))
	}

	result := &UploadResult{}
	for _, file := range files {
		url, err := s.uploadOne(ctx, productID, file)
		if err != nil {
			s.logger().Warn().Err(err).Str("file", file.Filename).Msg("image upload failed")
			result.Failed = append(result.Failed, file.Filename)
			continue
		}

		if err := store.CreateProductImage(&models.ProductImage{Url: url, ProductID: productID}); err != nil {
			s.logger().Error().Err(err).Str("url", url).Msg("error saving image to database")
			result.Failed = append(result.Failed, file.Filename)
			continue
		}
		result.URLs = append(result.URLs, url)
	}
	return result, nil
}

func (s *CatalogService) uploadOne(ctx context.Context, productID uint, file ImageFile) (string, error) {
	body, err := file.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()

	key := fmt.Sprintf("%d-%s-%s", productID, s.now().Format("20060102150405"), path.Base(file.Filename))
	return s.images.Upload(ctx, key, body, file.ContentType)
}

func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, Validation("Category name is required.")
	}
	if err := s.reader(ctx).CreateCategory(category); err != nil {
		return nil, s.fail("create category", err)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.reader(ctx).ListCategories()
	if err != nil {
		return nil, s.fail("list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, brand *models.Brand) (*models.Brand, error) {
	if strings.TrimSpace(brand.Name) == "" {
		return nil, Validation("Brand name is required.")
	}
	if err := s.reader(ctx).CreateBrand(brand); err != nil {
		return nil, s.fail("create brand", err)
	}
	return brand, nil
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.reader(ctx).ListBrands()
	if err != nil {
		return nil, s.fail("list brands", err)
	}
	return brands, nil
}

func (s *CatalogService) CreateWarranty(ctx context.Context, warranty *models.Warranty) (*models.Warranty, error) {
	if strings.TrimSpace(warranty.Name) == "" {
		return nil, Validation("Warranty name is required.")
	}
	if warranty.DurationDays < 0 {
		return nil, Validation("Warranty duration must not be negative.")
	}
	if err := s.reader(ctx).CreateWarranty(warranty); err != nil {
		return nil, s.fail("create warranty", err)
	}
	return warranty, nil
}

func (s *CatalogService) ListWarranties(ctx context.Context) ([]models.Warranty, error) {
	warranties, err := s.reader(ctx).ListWarranties()
	if err != nil {
		return nil, s.fail("list warranties", err)
	}
	return warranties, nil
}
