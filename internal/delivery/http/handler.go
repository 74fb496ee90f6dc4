package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/console"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

// MaxImageSize caps a single product image upload.
const MaxImageSize = 5 << 20

// Confirmer confirms a sign-up from the emailed link.
type Confirmer interface {
	Confirm(ctx context.Context, token string) (*auth.User, error)
}

// Handler handles HTTP requests for the console.
type Handler struct {
	console   *console.Console
	confirmer Confirmer
	blobs     repository.BlobStore
}

func NewHandler(c *console.Console, confirmer Confirmer, blobs repository.BlobStore) *Handler {
	return &Handler{
		console:   c,
		confirmer: confirmer,
		blobs:     blobs,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)
	router.GET("/auth/confirm", h.confirm)
	router.GET(repository.PublicObjectPath+"/:bucket/*path", h.publicObject)

	api := router.Group("/api")
	api.GET("/console", h.view)

	authGroup := api.Group("/auth")
	authGroup.POST("/sign-in", h.signIn)
	authGroup.POST("/sign-up", h.signUp)
	authGroup.POST("/toggle", h.toggle)
	authGroup.POST("/sign-out", h.requireSession, h.signOut)

	dash := api.Group("", h.requireSession)
	dash.POST("/tabs/:tab", h.switchTab)

	dash.GET("/profiles", h.listProfiles)
	dash.POST("/profiles/:id/edit", h.editProfile)
	dash.PUT("/profiles/edit", h.saveProfile)
	dash.DELETE("/profiles/edit", h.cancelProfileEdit)
	dash.DELETE("/profiles/:id", h.deleteProfile)
	dash.POST("/profiles/:id/orders", h.viewUserOrders)

	dash.GET("/orders", h.selectedOrders)
	dash.POST("/orders", h.submitOrder)
	dash.POST("/orders/:id/edit", h.editOrder)
	dash.PUT("/orders/edit", h.saveOrder)
	dash.DELETE("/orders/edit", h.cancelOrderEdit)
	dash.DELETE("/orders/:id", h.deleteOrder)

	dash.GET("/products", h.listProducts)
	dash.POST("/products", h.createProduct)
	dash.POST("/products/:id/edit", h.editProduct)
	dash.PUT("/products/edit", h.saveProduct)
	dash.DELETE("/products/edit", h.cancelProductEdit)
	dash.DELETE("/products/:id", h.deleteProduct)
}

// requireSession admits requests carrying the live session's access token
// as a bearer token.
func (h *Handler) requireSession(c *gin.Context) {
	if err := h.console.Authorize(c.Request.Context(), bearerToken(c.GetHeader("Authorization"))); err != nil {
		writeError(c, err)
		c.Abort()
		return
	}
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) view(c *gin.Context) {
	if h.console.SignedIn() {
		// Drops an expired session before it is reported.
		_, _ = h.console.ValidateSession(c.Request.Context())
	}
	c.JSON(http.StatusOK, h.console.View())
}

// --- Auth ---

// sessionResponse is the console view plus the access token dashboard
// requests must present.
type sessionResponse struct {
	console.View
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (h *Handler) sessionResponse() sessionResponse {
	resp := sessionResponse{View: h.console.View()}
	if s := h.console.Session(); s != nil {
		resp.AccessToken = s.AccessToken
		resp.ExpiresAt = &s.ExpiresAt
	}
	return resp
}

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.console.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		writeAuthError(c, err, h.console.View().AuthMessage)
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse())
}

func (h *Handler) signUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.console.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		writeAuthError(c, err, h.console.View().AuthMessage)
		return
	}
	c.JSON(http.StatusCreated, h.sessionResponse())
}

func (h *Handler) toggle(c *gin.Context) {
	h.console.ToggleAuthMode()
	c.JSON(http.StatusOK, h.console.View())
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.console.SignOut(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.console.View())
}

func (h *Handler) confirm(c *gin.Context) {
	user, err := h.confirmer.Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Email confirmed. You can now sign in.",
		"email":   user.Email,
	})
}

// --- Navigation ---

func (h *Handler) switchTab(c *gin.Context) {
	if err := h.console.SwitchTab(c.Request.Context(), console.Tab(c.Param("tab"))); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.console.View())
}

func (h *Handler) viewUserOrders(c *gin.Context) {
	if err := h.console.ViewUserOrders(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	h.selectedOrders(c)
}

func (h *Handler) selectedOrders(c *gin.Context) {
	orders, ok := h.console.SelectedOrders()
	if !ok {
		writeError(c, console.ErrNoSelection)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": h.console.View().SelectedUserID,
		"orders":  orders,
	})
}

// --- Profiles ---

func (h *Handler) listProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, h.console.Profiles())
}

func (h *Handler) editProfile(c *gin.Context) {
	edit, err := h.console.EditProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, edit)
}

func (h *Handler) saveProfile(c *gin.Context) {
	var edit entity.ProfileEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.console.SaveProfile(c.Request.Context(), edit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.console.Profiles())
}

func (h *Handler) cancelProfileEdit(c *gin.Context) {
	h.console.CancelProfileEdit()
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteProfile(c *gin.Context) {
	if err := h.console.DeleteProfile(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Orders ---

type compositionResponse struct {
	ParentCreated bool              `json:"parent_created"`
	ItemCreated   bool              `json:"item_created"`
	Order         *entity.Order     `json:"order,omitempty"`
	Item          *entity.OrderItem `json:"item,omitempty"`
	Error         string            `json:"error,omitempty"`
}

func (h *Handler) submitOrder(c *gin.Context) {
	draft := entity.NewOrderDraft()
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.console.SubmitOrder(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := compositionResponse{
		ParentCreated: result.ParentCreated,
		ItemCreated:   result.ItemCreated,
		Order:         result.Order,
		Item:          result.Item,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}

	switch {
	case result.Succeeded():
		c.JSON(http.StatusCreated, resp)
	case result.Orphaned():
		slog.Warn("Order created without its item", "order_id", result.Order.ID, "err", result.Err)
		c.JSON(http.StatusBadGateway, resp)
	default:
		c.JSON(errorStatus(result.Err), resp)
	}
}

func (h *Handler) editOrder(c *gin.Context) {
	edit, err := h.console.EditOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, edit)
}

func (h *Handler) saveOrder(c *gin.Context) {
	var edit entity.OrderEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.console.SaveOrder(c.Request.Context(), edit); err != nil {
		writeError(c, err)
		return
	}
	orders, _ := h.console.SelectedOrders()
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) cancelOrderEdit(c *gin.Context) {
	h.console.CancelOrderEdit()
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.console.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Products ---

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.console.Products())
}

func (h *Handler) createProduct(c *gin.Context) {
	draft := entity.NewProductDraft()
	fields, err := productFields(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	draft.Name = fields.Name
	draft.Description = fields.Description
	draft.Price = fields.Price
	draft.StockQuantity = fields.StockQuantity
	draft.Color = fields.Color

	if draft.Image, err = imageUpload(c); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.console.CreateProduct(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) editProduct(c *gin.Context) {
	edit, err := h.console.EditProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, edit)
}

func (h *Handler) saveProduct(c *gin.Context) {
	fields, err := productFields(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	edit := entity.ProductEdit{
		Name:          fields.Name,
		Description:   fields.Description,
		Price:         fields.Price,
		StockQuantity: fields.StockQuantity,
		Color:         fields.Color,
	}
	if edit.NewImage, err = imageUpload(c); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.console.SaveProduct(c.Request.Context(), edit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.console.Products())
}

func (h *Handler) cancelProductEdit(c *gin.Context) {
	h.console.CancelProductEdit()
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.console.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func productFields(c *gin.Context) (entity.ProductFields, error) {
	f := entity.ProductFields{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Color:       c.PostForm("color"),
	}
	if v := c.PostForm("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return f, errors.New("price must be a decimal number")
		}
		f.Price = price
	}
	if v := c.PostForm("stock_quantity"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("stock_quantity must be an integer")
		}
		f.StockQuantity = stock
	}
	return f, nil
}

// imageUpload reads the optional "image" file of a multipart request.
func imageUpload(c *gin.Context) (*entity.Upload, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > MaxImageSize {
		return nil, errors.New("image exceeds the maximum upload size")
	}
	data, err := readFile(header)
	if err != nil {
		return nil, err
	}
	return &entity.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxImageSize))
}

// --- Storage ---

func (h *Handler) publicObject(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	obj, err := h.blobs.Download(c.Request.Context(), c.Param("bucket"), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
