package service

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
	"gitlab.com/dirk.krummacker/contactbook/internal/repository"
)

// ContactsService bundles the HTTP handlers with the repository they operate
// on. It is constructed once at startup; tests construct it with a
// repository backed by a mock database.
type ContactsService struct {
	repo repository.ContactRepository
}

// New returns a ContactsService working on the specified repository.
func New(repo repository.ContactRepository) *ContactsService {
	return &ContactsService{repo: repo}
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints. The front-end in the directory named by the STATIC_DIR
// environment variable (default ./public) is served at the root path.
func (s *ContactsService) SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.Use(cors.Default())

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./public"
	}
	router.Use(static.Serve("/", static.LocalFile(staticDir, false)))

	api := router.Group("/api")
	api.GET("/health", s.healthCheck)
	api.GET("/contacts", s.findContacts)
	api.POST("/contacts", s.createContact)
	api.GET("/contacts/:id", s.findContactByID)
	api.PUT("/contacts/:id", s.updateContactByID)
	api.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// healthCheck reports the state of the database connection. It executes a
// trivial round-trip query so that broken connectivity shows up here instead
// of in the first real request.
//
// Example REST API call:
//
//	> curl "http://localhost:3000/api/health"
func (s *ContactsService) healthCheck(c *gin.Context) {
	if err := s.repo.Ping(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok", "db": true})
}

// findContacts responds with one page of contacts as JSON.
//
// The URL parameter 'search' filters contacts whose name, email or phone
// contains the given text. Wildcard characters in the search text are
// matched literally.
//
// The URL parameters 'page' and 'limit' select the page of results. They
// default to 1 and 10, and values below 1 are raised to 1. The response
// carries the matching contacts in 'data' ordered newest first, plus the
// effective 'page' and 'limit', the 'total' number of matches, and the
// number of 'pages' needed to show them all. A page beyond the end of the
// results yields an empty 'data' array.
//
// REST API calls:
//
//	> curl "http://localhost:3000/api/contacts"
//	> curl "http://localhost:3000/api/contacts?search=ann"
//	> curl "http://localhost:3000/api/contacts?search=acme&page=3&limit=20"
func (s *ContactsService) findContacts(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	page := intQueryOrDefault(c, "page", 1)
	limit := intQueryOrDefault(c, "limit", 10)
	result, err := s.repo.FindPage(search, page, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}

// intQueryOrDefault reads an integer URL parameter, falling back to the
// specified default when the parameter is absent or not a number.
func intQueryOrDefault(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl "http://localhost:3000/api/contacts/56"
func (s *ContactsService) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.repo.FindByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// createRequest is the payload for creating a contact. Only the name is
// required; optional fields that are missing or empty are stored as NULL.
type createRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Notes   *string `json:"notes"`
}

// createContact inserts the contact specified in the request's JSON into the
// database. It responds with the stored contact including the newly assigned
// id and creation timestamp.
//
// Example REST API call:
//
//	> curl http://localhost:3000/api/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Ann Lee", "email": "ann@x.com", "company": "Acme"}'
func (s *ContactsService) createContact(c *gin.Context) {
	var request createRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	name := strings.TrimSpace(request.Name)
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Name is required"})
		return
	}
	created, err := s.repo.Insert(model.Contact{
		Name:    name,
		Email:   normalizeOptional(request.Email),
		Phone:   normalizeOptional(request.Phone),
		Company: normalizeOptional(request.Company),
		Notes:   normalizeOptional(request.Notes),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, created)
}

// normalizeOptional maps missing and empty optional values to nil so that
// both end up as NULL on the database.
func normalizeOptional(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

// updateContactByID updates the contact whose ID value matches the id
// parameter of the request URL, overwrites the values specified in the JSON
// (and only those), and finally responds with the new version of the
// contact. An empty JSON object leaves the contact unchanged.
//
// Example REST API calls:
//
//	> curl http://localhost:3000/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"phone": "555-1"}'
//	> curl http://localhost:3000/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"name": "Ann Lee-Olsen", "company": "Globex"}'
func (s *ContactsService) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var update model.ContactUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	// A contact must never end up with a blank name.
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Name is required"})
		return
	}
	updated, err := s.repo.UpdateByID(id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, updated)
}

// deleteContactByID permanently deletes the contact whose ID value matches
// the id parameter of the request URL from the database.
//
// Example REST API call:
//
//	> curl http://localhost:3000/api/contacts/56 --request "DELETE"
func (s *ContactsService) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.repo.DeleteByID(id); err != nil {
		respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true})
}

// parseID reads the id path parameter. A non-numeric id cannot match any
// row, so the request is answered with NOT FOUND without touching the
// database.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// respondWithError translates a repository error into an HTTP response.
// Unexpected errors carry the underlying error text in the message.
func respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, repository.ErrEmailTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Email already exists"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
