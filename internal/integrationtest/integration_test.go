package integrationtest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
	"gitlab.com/dirk.krummacker/contactbook/internal/randomgen"
	"gitlab.com/dirk.krummacker/contactbook/internal/repository"
	"gitlab.com/dirk.krummacker/contactbook/internal/service"
)

// setupRouter connects to the real database named by the environment
// variables and returns a router for executing requests against it. Tests
// are skipped when no database is configured.
func setupRouter(t *testing.T) *gin.Engine {
	if os.Getenv("DBHOST") == "" {
		t.Skip("DBHOST not set, skipping integration tests")
	}
	sqlDB, err := repository.Connect()
	if err != nil {
		t.Fatalf("could not open database connection: %s", err)
	}
	repo := repository.NewMySQL(sqlDB)
	if err := repo.EnsureSchema(); err != nil {
		t.Fatalf("could not ensure schema: %s", err)
	}
	gin.SetMode(gin.ReleaseMode)
	return service.New(repo).SetupHttpRouter()
}

// createContact posts the given JSON body and returns the response body of
// the created contact.
func createContact(t *testing.T, router *gin.Engine, body string) map[string]interface{} {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("POST", "/api/contacts", strings.NewReader(body))
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusCreated, recorder.Code, "request body: "+body)
	var responseBody map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &responseBody)
	return responseBody
}

// deleteContact removes the contact with the given id and verifies the
// success acknowledgment. Used by tests to clean up after themselves.
func deleteContact(t *testing.T, router *gin.Engine, id string) {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("DELETE", "/api/contacts/"+id, nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, true, body["success"])
}

// TestHealth verifies that the health endpoint reports the database as
// reachable.
func TestHealth(t *testing.T) {
	router := setupRouter(t)

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/api/health", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["db"])
}

// TestContactHappyPath tests a POST, a conflicting second POST, a GET, a
// partial PUT, and a DELETE with valid data.
func TestContactHappyPath(t *testing.T) {
	router := setupRouter(t)
	email := randomgen.PickEmail()

	// test the endpoint for creating a contact
	postBody := createContact(t, router, fmt.Sprintf(`
		{
			"name": "Ann Lee",
			"email": %q,
			"phone": "555-0101",
			"company": "Acme"
		}
	`, email))
	assert.Equal(t, "Ann Lee", postBody["name"])
	assert.Equal(t, email, postBody["email"])
	assert.Equal(t, "555-0101", postBody["phone"])
	assert.Equal(t, "Acme", postBody["company"])
	assert.Nil(t, postBody["notes"])
	assert.NotEmpty(t, postBody["created_at"])
	idAsFloat64 := postBody["id"].(float64)
	assert.Greater(t, idAsFloat64, 0.0)
	idAsString := fmt.Sprintf("%.0f", idAsFloat64)

	// a second contact with the same email must be rejected
	conflictRecorder := httptest.NewRecorder()
	conflictRequest, _ := http.NewRequest("POST", "/api/contacts", strings.NewReader(fmt.Sprintf(`
		{
			"name": "Bert Olsen",
			"email": %q
		}
	`, email)))
	router.ServeHTTP(conflictRecorder, conflictRequest)
	assert.Equal(t, http.StatusConflict, conflictRecorder.Code)

	// test the endpoint for finding a contact
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/api/contacts/"+idAsString, nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var getBody map[string]interface{}
	json.Unmarshal(getRecorder.Body.Bytes(), &getBody)
	assert.Equal(t, postBody, getBody)

	// test that updating only the phone keeps all other fields
	putRecorder := httptest.NewRecorder()
	putRequest, _ := http.NewRequest("PUT", "/api/contacts/"+idAsString, strings.NewReader(`
		{
			"phone": "555-1"
		}
	`))
	router.ServeHTTP(putRecorder, putRequest)
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var putBody map[string]interface{}
	json.Unmarshal(putRecorder.Body.Bytes(), &putBody)
	assert.Equal(t, idAsFloat64, putBody["id"])
	assert.Equal(t, "Ann Lee", putBody["name"])
	assert.Equal(t, email, putBody["email"])
	assert.Equal(t, "555-1", putBody["phone"])
	assert.Equal(t, "Acme", putBody["company"])
	assert.Equal(t, postBody["created_at"], putBody["created_at"])

	// test the endpoint for deleting a contact
	deleteContact(t, router, idAsString)

	// test that a final lookup of the contact will correctly not find it
	getFinalRecorder := httptest.NewRecorder()
	getFinalRequest, _ := http.NewRequest("GET", "/api/contacts/"+idAsString, nil)
	router.ServeHTTP(getFinalRecorder, getFinalRequest)
	assert.Equal(t, http.StatusNotFound, getFinalRecorder.Code)

	// deleting again must report not found as well
	deleteAgainRecorder := httptest.NewRecorder()
	deleteAgainRequest, _ := http.NewRequest("DELETE", "/api/contacts/"+idAsString, nil)
	router.ServeHTTP(deleteAgainRecorder, deleteAgainRequest)
	assert.Equal(t, http.StatusNotFound, deleteAgainRecorder.Code)
}

// TestCreateContactWithoutName tests that a POST without a usable name is
// rejected before anything is stored.
func TestCreateContactWithoutName(t *testing.T) {
	router := setupRouter(t)
	bodiesWithoutName := []string{
		"{}",
		`{"name": "   "}`,
		fmt.Sprintf(`{"email": %q}`, randomgen.PickEmail()),
	}
	for _, body := range bodiesWithoutName {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("POST", "/api/contacts", strings.NewReader(body))
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
	}
}

// TestUpdateToTakenEmail tests that a PUT changing the email to one already
// used by a different contact is answered with a conflict.
func TestUpdateToTakenEmail(t *testing.T) {
	router := setupRouter(t)
	firstEmail := randomgen.PickEmail()
	secondEmail := randomgen.PickEmail()

	firstBody := createContact(t, router, fmt.Sprintf(`{"name": "Ann Lee", "email": %q}`, firstEmail))
	secondBody := createContact(t, router, fmt.Sprintf(`{"name": "Bert Olsen", "email": %q}`, secondEmail))
	firstId := fmt.Sprintf("%.0f", firstBody["id"].(float64))
	secondId := fmt.Sprintf("%.0f", secondBody["id"].(float64))

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("PUT", "/api/contacts/"+secondId,
		strings.NewReader(fmt.Sprintf(`{"email": %q}`, firstEmail)))
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// clean up after the test
	deleteContact(t, router, firstId)
	deleteContact(t, router, secondId)
}

// TestSearchAndPagination creates two contacts with a shared random marker
// in their name, retrieves them via the search parameter one per page, and
// verifies the pagination numbers and the newest-first ordering.
func TestSearchAndPagination(t *testing.T) {
	router := setupRouter(t)
	marker := strings.Split(randomgen.PickEmail(), "@")[0]

	firstBody := createContact(t, router, fmt.Sprintf(`{"name": "Ann %s"}`, marker))
	secondBody := createContact(t, router, fmt.Sprintf(`{"name": "Bert %s"}`, marker))
	firstId := int64(math.Round(firstBody["id"].(float64)))
	secondId := int64(math.Round(secondBody["id"].(float64)))

	// both matches on one page
	allRecorder := httptest.NewRecorder()
	allRequest, _ := http.NewRequest("GET", "/api/contacts?search="+marker, nil)
	router.ServeHTTP(allRecorder, allRequest)
	assert.Equal(t, http.StatusOK, allRecorder.Code)
	var allBody struct {
		Data  []model.Contact `json:"data"`
		Total int             `json:"total"`
		Pages int             `json:"pages"`
	}
	json.Unmarshal(allRecorder.Body.Bytes(), &allBody)
	assert.Equal(t, 2, allBody.Total)
	assert.Equal(t, 1, allBody.Pages)
	assert.Equal(t, 2, len(allBody.Data))

	// rows are ordered newest first, ties broken by descending id
	for i := 1; i < len(allBody.Data); i++ {
		previous, current := allBody.Data[i-1], allBody.Data[i]
		assert.False(t, previous.CreatedAt.Before(current.CreatedAt))
		if previous.CreatedAt.Equal(current.CreatedAt) {
			assert.Greater(t, previous.Id, current.Id)
		}
	}

	// one match per page with limit=1
	pageRecorder := httptest.NewRecorder()
	pageRequest, _ := http.NewRequest("GET", "/api/contacts?search="+marker+"&page=2&limit=1", nil)
	router.ServeHTTP(pageRecorder, pageRequest)
	assert.Equal(t, http.StatusOK, pageRecorder.Code)
	var pageBody struct {
		Data  []model.Contact `json:"data"`
		Total int             `json:"total"`
		Pages int             `json:"pages"`
	}
	json.Unmarshal(pageRecorder.Body.Bytes(), &pageBody)
	assert.Equal(t, 2, pageBody.Total)
	assert.Equal(t, 2, pageBody.Pages)
	assert.Equal(t, 1, len(pageBody.Data))
	assert.Equal(t, allBody.Data[1].Id, pageBody.Data[0].Id)

	// a page beyond the results is empty but keeps the total
	beyondRecorder := httptest.NewRecorder()
	beyondRequest, _ := http.NewRequest("GET", "/api/contacts?search="+marker+"&page=5&limit=1", nil)
	router.ServeHTTP(beyondRecorder, beyondRequest)
	assert.Equal(t, http.StatusOK, beyondRecorder.Code)
	var beyondBody struct {
		Data  []model.Contact `json:"data"`
		Total int             `json:"total"`
	}
	json.Unmarshal(beyondRecorder.Body.Bytes(), &beyondBody)
	assert.Equal(t, 0, len(beyondBody.Data))
	assert.Equal(t, 2, beyondBody.Total)

	// clean up after the test
	deleteContact(t, router, fmt.Sprintf("%d", firstId))
	deleteContact(t, router, fmt.Sprintf("%d", secondId))
}

// TestSearchTreatsWildcardsLiterally creates a contact with a percent sign
// in its name and verifies that the percent sign in a search text matches
// itself instead of acting as a wildcard.
func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	router := setupRouter(t)
	marker := strings.Split(randomgen.PickEmail(), "@")[0]

	body := createContact(t, router, fmt.Sprintf(`{"name": "100%% %s"}`, marker))
	id := fmt.Sprintf("%.0f", body["id"].(float64))

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/api/contacts?search=100%25+"+marker, nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var searchBody struct {
		Total int `json:"total"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &searchBody)
	assert.Equal(t, 1, searchBody.Total)

	// with the wildcard escaped this search text matches nothing
	missRecorder := httptest.NewRecorder()
	missRequest, _ := http.NewRequest("GET", "/api/contacts?search=10%25"+marker, nil)
	router.ServeHTTP(missRecorder, missRequest)
	var missBody struct {
		Total int `json:"total"`
	}
	json.Unmarshal(missRecorder.Body.Bytes(), &missBody)
	assert.Equal(t, 0, missBody.Total)

	// clean up after the test
	deleteContact(t, router, id)
}
