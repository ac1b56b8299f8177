package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/domain"
	productrepo "storefront-replica/internal/repository/product"
)

type productRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required"`
	Stock       int     `json:"stock"`
	CategoryID  *string `json:"categoryId"`
	ImageURL    string  `json:"imageUrl"`
	Active      *bool   `json:"active"`
}

type productUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	CategoryID  *string  `json:"categoryId"`
	ImageURL    *string  `json:"imageUrl"`
	Active      *bool    `json:"active"`
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

func (h handlers) listProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Search: c.Query("q"),
		SortBy: c.Query("sort"),
	}
	if v := c.Query("category"); v != "" {
		filter.CategoryID = &v
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	page, err := h.deps.Products.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Printf("list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Printf("get product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h handlers) listCategories(c *gin.Context) {
	list, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("list categories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

func (h handlers) getCategory(c *gin.Context) {
	cat, err := h.deps.Categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		h.logger.Printf("get category: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load category"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

// adminListProducts includes inactive products; the public listing hides
// them.
func (h handlers) adminListProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Search:          c.Query("q"),
		SortBy:          c.Query("sort"),
		IncludeInactive: true,
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	page, err := h.deps.Products.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Printf("admin list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h handlers) adminCreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and price are required"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.deps.Products.Create(c.Request.Context(), domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Active:      active,
	})
	if err != nil {
		h.logger.Printf("create product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h handlers) adminUpdateProduct(c *gin.Context) {
	var req productUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}

	p, err := h.deps.Products.Update(c.Request.Context(), c.Param("id"), productrepo.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Active:      req.Active,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Printf("update product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h handlers) adminDeleteProduct(c *gin.Context) {
	if err := h.deps.Products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Printf("delete product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h handlers) adminListCategories(c *gin.Context) {
	h.listCategories(c)
}

func (h handlers) adminCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and slug are required"})
		return
	}

	cat, err := h.deps.Categories.Create(c.Request.Context(), domain.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already in use"})
			return
		}
		h.logger.Printf("create category: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create category"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h handlers) adminDeleteCategory(c *gin.Context) {
	if err := h.deps.Categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		h.logger.Printf("delete category: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete category"})
		return
	}
	c.Status(http.StatusNoContent)
}
