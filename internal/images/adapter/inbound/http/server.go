package http_handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/TheCampingLog/image-server/internal/images/config"
	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/internal/images/port"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	singleFileField = "image"
	multiFileField  = "images"
)

type Server struct {
	app     *fiber.App
	cfg     *config.Config
	service port.ImageService
}

func NewServer(cfg *config.Config, service port.ImageService) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          handleFiberError,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORSOrigins}))

	s := &Server{
		app:     app,
		cfg:     cfg,
		service: service,
	}

	// Routes
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	// Stored files, minus in-flight temp files.
	s.app.Static(s.cfg.Server.StaticPrefix, s.cfg.App.PublicDir, fiber.Static{
		Next: func(c *fiber.Ctx) bool {
			return strings.Contains(c.Path(), "/.")
		},
	})

	s.app.Get("/images", s.handleCategories)

	// "multiple" routes first, they would otherwise match as a sub-category.
	s.app.Post("/images/:category/multiple", s.handleUploadMultiple)
	s.app.Post("/images/:category/:sub/multiple", s.handleUploadMultiple)
	s.app.Post("/images/:category", s.handleUpload)
	s.app.Post("/images/:category/:sub", s.handleUpload)

	s.app.Get("/images/:category/:filename", s.handleDescribe)
	s.app.Get("/images/:category/:sub/:filename", s.handleDescribe)

	s.app.Use(func(c *fiber.Ctx) error {
		return s.sendJSONError(c, fiber.StatusNotFound, "Page not found")
	})
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.ListenAddr())
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// sendServiceError maps service errors onto status codes. Internal failures keep
// the cause in "error" so operators can correlate with the logs.
func (s *Server) sendServiceError(c *fiber.Ctx, action string, err error) error {
	status := statusFor(err)
	if status != fiber.StatusInternalServerError {
		return s.sendJSONError(c, status, err.Error())
	}

	sdklogger.Errorw(action+" failed", "path", c.Path(), "request_id", c.Locals("requestid"), "error", err.Error())
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": action + " failed",
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCategoryNotAllowed),
		errors.Is(err, domain.ErrInvalidSubCategory),
		errors.Is(err, domain.ErrPathEscape),
		errors.Is(err, domain.ErrInvalidFileName),
		errors.Is(err, domain.ErrNoFiles),
		errors.Is(err, domain.ErrTooManyFiles):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrStoreConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func handleFiberError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

func (s *Server) handleCategories(c *fiber.Ctx) error {
	categories := s.service.Categories()
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.String())
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"categories": names,
	})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	category, err := categoryFromParams(c)
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	}

	header, err := c.FormFile(singleFileField)
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, fmt.Sprintf("Missing '%s' file part", singleFileField))
	}

	uploads, closeAll, err := openUploads([]*multipart.FileHeader{header})
	defer closeAll()
	if err != nil {
		return s.sendServiceError(c, "Upload", err)
	}

	desc, err := s.service.Store(c.UserContext(), category, uploads[0])
	if err != nil {
		return s.sendServiceError(c, "Upload", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "File uploaded successfully",
		"file":    desc,
	})
}

func (s *Server) handleUploadMultiple(c *fiber.Ctx) error {
	category, err := categoryFromParams(c)
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File[multiFileField]) == 0 {
		return s.sendJSONError(c, fiber.StatusBadRequest, fmt.Sprintf("Missing '%s' file parts", multiFileField))
	}

	uploads, closeAll, err := openUploads(form.File[multiFileField])
	defer closeAll()
	if err != nil {
		return s.sendServiceError(c, "Upload", err)
	}

	descs, err := s.service.StoreBatch(c.UserContext(), category, uploads)
	if err != nil {
		return s.sendServiceError(c, "Upload", err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  fmt.Sprintf("%d files uploaded successfully", len(descs)),
		"category": category.String(),
		"files":    descs,
	})
}

func (s *Server) handleDescribe(c *fiber.Ctx) error {
	category, err := categoryFromParams(c)
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	}
	fileName, err := param(c, "filename")
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	}

	desc, err := s.service.Describe(c.UserContext(), category, fileName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.sendJSONError(c, fiber.StatusNotFound, "File not found")
		}
		return s.sendServiceError(c, "Describe", err)
	}

	c.Set(fiber.HeaderETag, desc.ETag())
	if c.Fresh() {
		return c.SendStatus(fiber.StatusNotModified)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"file":    desc,
	})
}

// categoryFromParams reads the raw category segments. Validation is the service's job.
func categoryFromParams(c *fiber.Ctx) (domain.Category, error) {
	top, err := param(c, "category")
	if err != nil {
		return domain.Category{}, err
	}
	sub, err := param(c, "sub")
	if err != nil {
		return domain.Category{}, err
	}
	return domain.NewCategory(top, sub), nil
}

// param returns a percent-decoded route parameter. Decoding happens after routing,
// so an encoded slash ends up inside the value where validation rejects it.
func param(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("malformed %s parameter %q", name, raw)
	}
	return value, nil
}

// openUploads opens every file part. The returned closer is always safe to call.
func openUploads(headers []*multipart.FileHeader) ([]domain.Upload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]domain.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to open upload %q: %w", h.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, domain.Upload{
			OriginalName: h.Filename,
			ContentType:  h.Header.Get(fiber.HeaderContentType),
			Size:         h.Size,
			Body:         f,
		})
	}
	return uploads, closeAll, nil
}
