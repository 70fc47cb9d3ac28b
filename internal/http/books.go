package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/entities"
)

// BookStore provides catalog operations on books.
type BookStore interface {
	CreateBook(ctx context.Context, book *entities.Book) error
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	GetAllBooks(ctx context.Context) ([]entities.Book, error)
	SearchBooks(ctx context.Context, query string) ([]entities.Book, error)
	UpdateBook(ctx context.Context, id uint, update books.Update) (*entities.Book, error)
	DeleteBook(ctx context.Context, id uint) error
	GetStats(ctx context.Context) (titles int64, copies int64, err error)
}

// AvailabilityReader reports how many copies of a book can be checked out.
type AvailabilityReader interface {
	AvailableCopies(ctx context.Context, bookID uint) (int, error)
}

type BooksController struct {
	store        BookStore
	availability AvailabilityReader
}

func NewBooksController(store BookStore, availability AvailabilityReader) *BooksController {
	return &BooksController{
		store:        store,
		availability: availability,
	}
}

type createBookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	ISBN        string `json:"isbn"`
	TotalCopies *int   `json:"total_copies" binding:"required,min=0"`
}

type updateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	TotalCopies *int    `json:"total_copies" binding:"omitempty,min=0"`
}

func (controller *BooksController) GetAllBooks(c *gin.Context) {
	list, err := controller.store.GetAllBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

func (controller *BooksController) SearchBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	list, err := controller.store.SearchBooks(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) GetAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	available, err := controller.availability.AvailableCopies(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": id, "available_copies": available})
}

func (controller *BooksController) GetBookStats(c *gin.Context) {
	titles, copies, err := controller.store.GetStats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "book stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_titles": titles, "total_copies": copies})
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title, author and a non-negative total_copies are required")
		return
	}

	book := &entities.Book{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		ISBN:        strings.TrimSpace(req.ISBN),
		TotalCopies: *req.TotalCopies,
	}
	if err := controller.store.CreateBook(c.Request.Context(), book); err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid book update")
		return
	}

	book, err := controller.store.UpdateBook(c.Request.Context(), id, books.Update{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.DeleteBook(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.Status(http.StatusNoContent)
}
