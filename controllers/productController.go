package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
)

// Product handlers
func (c *Controller) CreateProduct(ctx *gin.Context) {
	var product models.Product
	if err := ctx.ShouldBindJSON(&product); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := c.Catalog.CreateProduct(ctx.Request.Context(), &product)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (c *Controller) CreateProductSpecs(ctx *gin.Context) {
	var spec models.ProductSpecs
	if err := ctx.ShouldBindJSON(&spec); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := c.Catalog.CreateProductSpecs(ctx.Request.Context(), &spec); err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Product specs added successfully"})
}

func multipartImage(file *multipart.FileHeader) services.ImageFile {
	return services.ImageFile{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return file.Open()
		},
	}
}

func (c *Controller) UploadProductImages(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		respondWithError(ctx, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	productIdStr := ctx.PostForm("productId")
	if productIdStr == "" {
		respondWithError(ctx, http.StatusBadRequest, "Missing productId", nil)
		return
	}
	productId, err := strconv.ParseUint(productIdStr, 10, 64)
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid productId", err)
		return
	}

	images := make([]services.ImageFile, 0, len(files))
	for _, file := range files {
		images = append(images, multipartImage(file))
	}

	result, err := c.Catalog.UploadProductImages(ctx.Request.Context(), uint(productId), images)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	response := gin.H{
		"message": "Files processed",
		"urls":    result.URLs,
	}
	if len(result.Failed) > 0 {
		response["failed"] = result.Failed
	}
	ctx.JSON(http.StatusOK, response)
}

func (c *Controller) GetProducts(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "4"))

	list, err := c.Catalog.ListProducts(ctx.Request.Context(), page, limit, ctx.Query("search"))
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"products": list.Products,
		"metadata": gin.H{
			"total": list.Total,
			"page":  list.Page,
			"limit": list.Limit,
		},
	})
}

func (c *Controller) GetProduct(ctx *gin.Context) {
	productId, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	product, err := c.Catalog.GetProduct(ctx.Request.Context(), productId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, product)
}

func (c *Controller) SetProductStock(ctx *gin.Context) {
	productId, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var body struct {
		Stock *int `json:"stock" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := c.Catalog.SetStock(ctx.Request.Context(), productId, *body.Stock)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func (c *Controller) DeleteProduct(ctx *gin.Context) {
	productId, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := c.Catalog.DeleteProduct(ctx.Request.Context(), productId); err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Product deleted successfully."})
}

func (c *Controller) RestoreProduct(ctx *gin.Context) {
	productId, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	product, err := c.Catalog.RestoreProduct(ctx.Request.Context(), productId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func (c *Controller) CreateCategory(ctx *gin.Context) {
	var category models.Category
	if err := ctx.ShouldBindJSON(&category); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := c.Catalog.CreateCategory(ctx.Request.Context(), &category)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

func (c *Controller) GetCategories(ctx *gin.Context) {
	categories, err := c.Catalog.ListCategories(ctx.Request.Context())
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"categories": categories})
}

func (c *Controller) CreateBrand(ctx *gin.Context) {
	var brand models.Brand
	if err := ctx.ShouldBindJSON(&brand); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := c.Catalog.CreateBrand(ctx.Request.Context(), &brand)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

func (c *Controller) GetBrands(ctx *gin.Context) {
	brands, err := c.Catalog.ListBrands(ctx.Request.Context())
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"brands": brands})
}

func (c *Controller) CreateWarranty(ctx *gin.Context) {
	var warranty models.Warranty
	if err := ctx.ShouldBindJSON(&warranty); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := c.Catalog.CreateWarranty(ctx.Request.Context(), &warranty)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

func (c *Controller) GetWarranties(ctx *gin.Context) {
	warranties, err := c.Catalog.ListWarranties(ctx.Request.Context())
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"warranties": warranties})
}
